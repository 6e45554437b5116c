package object

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type SpeechErrorKind string

const (
	SpeechErrorKindAuthMissing           SpeechErrorKind = "auth_missing"
	SpeechErrorKindMissingFields         SpeechErrorKind = "missing_fields"
	SpeechErrorKindInvalidBody           SpeechErrorKind = "invalid_body"
	SpeechErrorKindBackendTransportError SpeechErrorKind = "backend_transport_error"
	SpeechErrorKindBackendTaskError      SpeechErrorKind = "backend_task_error"
	SpeechErrorKindMissingAudio          SpeechErrorKind = "missing_audio"
	SpeechErrorKindServiceUnavailable    SpeechErrorKind = "service_unavailable"
	SpeechErrorKindInternalError         SpeechErrorKind = "internal_error"
)

const (
	MessageAuthMissing        = "Authorization header is missing"
	MessageMissingFields      = "缺少必需字段（model、voice、input）"
	MessageInvalidBody        = "请求体不是合法的 JSON"
	MessageBackendTransport   = "调用 Minimax 接口失败"
	MessageUnknownError       = "未知错误"
	MessageMissingAudio       = "返回中未找到音频字段"
	MessageServiceUnavailable = "service unavailable"
	MessageInternalError      = "internal error"
)

var _ error = (*SpeechError)(nil)

// SpeechError is the caller facing error of the speech endpoint. Backend
// originated kinds always carry http.StatusInternalServerError, the backend's
// own code is only echoed in the body.
type SpeechError struct {
	Kind    SpeechErrorKind
	Status  int
	Message string

	// StatusCode is the backend HTTP status for transport errors, or the
	// embedded base_resp.status_code for task errors (nil when absent).
	StatusCode *int
	// Detail is the backend provided message.
	Detail string

	Cause error
}

func (e *SpeechError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}

	return e.Message
}

func (e *SpeechError) Unwrap() error {
	return e.Cause
}

func (e *SpeechError) GetKind() SpeechErrorKind {
	return e.Kind
}

func (e *SpeechError) GetStatus() int {
	return e.Status
}

func (e *SpeechError) IsFromUpstream() bool {
	switch e.Kind { //nolint:exhaustive
	case SpeechErrorKindBackendTransportError, SpeechErrorKindBackendTaskError, SpeechErrorKindMissingAudio:
		return true
	default:
		return false
	}
}

func (e *SpeechError) MarshalJSON() ([]byte, error) {
	switch e.Kind { //nolint:exhaustive
	case SpeechErrorKindBackendTransportError:
		return json.Marshal(map[string]any{
			"error":       e.Message,
			"status_code": e.StatusCode,
			"message":     e.Detail,
		})
	case SpeechErrorKindBackendTaskError:
		return json.Marshal(map[string]any{
			"error":       e.Message,
			"status_code": e.StatusCode,
			"status_msg":  e.Detail,
		})
	default:
		return json.Marshal(map[string]any{
			"error": e.Message,
		})
	}
}

func (e *SpeechError) WithCause(err error) *SpeechError {
	e.Cause = err

	return e
}

/*
Example:

	{
		"error": "Authorization header is missing"
	}
*/
func NewErrorAuthMissing() *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindAuthMissing,
		Status:  http.StatusUnauthorized,
		Message: MessageAuthMissing,
	}
}

func NewErrorMissingFields() *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindMissingFields,
		Status:  http.StatusBadRequest,
		Message: MessageMissingFields,
	}
}

func NewErrorInvalidBody(cause error) *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindInvalidBody,
		Status:  http.StatusBadRequest,
		Message: MessageInvalidBody,
		Cause:   cause,
	}
}

/*
Example:

	{
		"error": "调用 Minimax 接口失败",
		"status_code": 500,
		"message": "quota exceeded"
	}
*/
func NewErrorBackendTransport(statusCode int, message string) *SpeechError {
	return &SpeechError{
		Kind:       SpeechErrorKindBackendTransportError,
		Status:     http.StatusInternalServerError,
		Message:    MessageBackendTransport,
		StatusCode: &statusCode,
		Detail:     message,
	}
}

/*
Example:

	{
		"error": "invalid api key",
		"status_code": 1004,
		"status_msg": "invalid api key"
	}
*/
func NewErrorBackendTask(statusCode *int, statusMsg string) *SpeechError {
	return &SpeechError{
		Kind:       SpeechErrorKindBackendTaskError,
		Status:     http.StatusInternalServerError,
		Message:    statusMsg,
		StatusCode: statusCode,
		Detail:     statusMsg,
	}
}

func NewErrorMissingAudio() *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindMissingAudio,
		Status:  http.StatusInternalServerError,
		Message: MessageMissingAudio,
	}
}

func NewErrorServiceUnavailable() *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindServiceUnavailable,
		Status:  http.StatusServiceUnavailable,
		Message: MessageServiceUnavailable,
	}
}

func NewErrorInternalError(cause error) *SpeechError {
	return &SpeechError{
		Kind:    SpeechErrorKindInternalError,
		Status:  http.StatusInternalServerError,
		Message: MessageInternalError,
		Cause:   cause,
	}
}

func AsSpeechError(err error) *SpeechError {
	if err == nil {
		return nil
	}

	var speechErr *SpeechError
	if errors.As(err, &speechErr) {
		return speechErr
	}

	return nil
}

// SpeechErrorOrInternalError keeps typed errors as they are and wraps anything
// else as an internal error.
func SpeechErrorOrInternalError(err error) *SpeechError {
	if speechErr := AsSpeechError(err); speechErr != nil {
		return speechErr
	}

	return NewErrorInternalError(err)
}
