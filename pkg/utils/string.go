package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

var (
	errFailedToConvertStringToType = func(t any, err error) error { return fmt.Errorf("failed to convert string to type %T: %w", t, err) }
)

func FromString[T any](str string) (T, error) { //nolint:gocyclo
	var empty T
	if str == "" || str == "null" || str == "<nil>" {
		return empty, nil
	}

	switch any(empty).(type) {
	case string:
		val, _ := any(str).(T)
		return val, nil
	case *string:
		val, _ := any(&str).(T)
		return val, nil
	case int:
		val, err := strconv.ParseInt(str, 10, 0)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(int(val)).(T)

		return typeVal, nil
	case *int:
		val, err := strconv.ParseInt(str, 10, 0)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(lo.ToPtr(int(val))).(T)

		return typeVal, nil
	case float64:
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case *float64:
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(lo.ToPtr(val)).(T)

		return typeVal, nil
	case bool:
		val, err := strconv.ParseBool(str)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(val).(T)

		return typeVal, nil
	case *bool:
		val, err := strconv.ParseBool(str)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		typeVal, _ := any(lo.ToPtr(val)).(T)

		return typeVal, nil
	default:
		initial := new(T)

		err := json.Unmarshal([]byte(str), initial)
		if err != nil {
			return empty, errFailedToConvertStringToType(empty, err)
		}

		return *initial, nil
	}
}

// TruncateRunes keeps the first n characters of str and marks the cut with "...".
func TruncateRunes(str string, n int) string {
	if n < 0 || utf8.RuneCountInString(str) <= n {
		return str
	}

	var sb strings.Builder

	for i, r := range []rune(str) {
		if i >= n {
			break
		}

		sb.WriteRune(r)
	}

	sb.WriteString("...")

	return sb.String()
}
