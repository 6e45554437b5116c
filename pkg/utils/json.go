package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"k8s.io/client-go/util/jsonpath"
)

// ReadAsJSONWithClose reads body fully, closes it and decodes it as a JSON object.
// An empty body decodes to an empty map.
func ReadAsJSONWithClose(body io.ReadCloser) (map[string]any, error) {
	defer func() { _ = body.Close() }()

	bs, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	parsed := make(map[string]any)
	if len(bytes.TrimSpace(bs)) == 0 {
		return parsed, nil
	}

	err = json.Unmarshal(bs, &parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal body: %w", err)
	}

	return parsed, nil
}

// GetByJSONPath returns the first value matched by template as decoded from
// JSON, without printing it to text. ok is false when nothing matched or the
// match is null.
func GetByJSONPath(payload map[string]any, template string) (any, bool) {
	j := jsonpath.New("")
	j.AllowMissingKeys(true)

	err := j.Parse(template)
	if err != nil {
		slog.Debug("failed to parse jsonpath template", "template", template, "error", err)
		return nil, false
	}

	results, err := j.FindResults(payload)
	if err != nil {
		slog.Debug("failed to find jsonpath results", "template", template, "error", err)
		return nil, false
	}

	for _, result := range results {
		for _, value := range result {
			if !value.IsValid() || !value.CanInterface() {
				continue
			}

			v := value.Interface()
			if v == nil {
				return nil, false
			}

			return v, true
		}
	}

	return nil, false
}

// GetStringByJSONPath is GetByJSONPath for values that must be JSON strings,
// any other JSON type is reported as not found.
func GetStringByJSONPath(payload map[string]any, template string) (string, bool) {
	v, ok := GetByJSONPath(payload, template)
	if !ok {
		return "", false
	}

	str, ok := v.(string)

	return str, ok
}

func WriteJSONForHTTP(status int, resp any, writer http.ResponseWriter) {
	bs, err := json.Marshal(resp)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)

		status = http.StatusInternalServerError
		bs = []byte(`{"error":"internal error"}`)
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)

	_, _ = writer.Write(bs)
}

func SafeFlush(writer http.ResponseWriter) {
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func Clone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}

	return append(make(S, 0, len(s)), s...)
}
