package t2av2

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"speechgate.dev/pkg/object"
	"speechgate.dev/pkg/types/tts"
	"speechgate.dev/pkg/utils"
)

/*
Example:

	{
		"data": {
			"audio": "fffb9...",
			"status": 2
		},
		"extra_info": {
			"audio_length": 5746,
			"audio_format": "mp3"
		},
		"trace_id": "01b8bf9bb7433cc75c18eee6cfa8fe21",
		"base_resp": {
			"status_code": 0,
			"status_msg": "success"
		}
	}
*/
type speechResponse struct {
	Data      *speechResponseData `json:"data"`
	ExtraInfo map[string]any      `json:"extra_info"`
	TraceID   string              `json:"trace_id"`
	BaseResp  *baseResp           `json:"base_resp"`
}

type speechResponseData struct {
	Audio  string `json:"audio"`
	Status int    `json:"status"`
}

type baseResp struct {
	StatusCode *int    `json:"status_code"`
	StatusMsg  *string `json:"status_msg"`
}

// Result is what came back from the t2a_v2 call, one of Success,
// BackendFailure or TransportFailure.
type Result interface {
	isResult()
}

// Success carries the decoded audio. Audio is empty when upstream reported
// success without any audio.
type Success struct {
	Audio   []byte
	TraceID string
}

// BackendFailure is an HTTP 200 response whose base_resp.status_code is
// missing or non-zero.
type BackendFailure struct {
	StatusCode *int
	Message    string
	TraceID    string
}

// TransportFailure covers non-200 responses, bodies that can not be decoded
// and requests that never got a response.
type TransportFailure struct {
	StatusCode int
	Message    string
	Cause      error
}

func (Success) isResult()          {}
func (BackendFailure) isResult()   {}
func (TransportFailure) isResult() {}

func NewTransportFailure(statusCode int, err error) TransportFailure {
	return TransportFailure{
		StatusCode: statusCode,
		Message:    err.Error(),
		Cause:      err,
	}
}

// ClassifyResponse interprets an upstream status code and body.
func ClassifyResponse(statusCode int, body []byte) Result {
	if statusCode != http.StatusOK {
		return TransportFailure{
			StatusCode: statusCode,
			Message:    upstreamErrorMessage(body),
		}
	}

	var resp speechResponse

	err := json.Unmarshal(body, &resp)
	if err != nil {
		return NewTransportFailure(statusCode, fmt.Errorf("invalid upstream response: %w", err))
	}

	if resp.BaseResp != nil && lo.FromPtrOr(resp.BaseResp.StatusCode, -1) != 0 {
		return BackendFailure{
			StatusCode: resp.BaseResp.StatusCode,
			Message:    lo.FromPtrOr(resp.BaseResp.StatusMsg, object.MessageUnknownError),
			TraceID:    resp.TraceID,
		}
	}

	if resp.Data == nil || resp.Data.Audio == "" {
		return Success{TraceID: resp.TraceID}
	}

	audio, err := hex.DecodeString(stripASCIIWhitespace(resp.Data.Audio))
	if err != nil {
		return NewTransportFailure(statusCode, fmt.Errorf("failed to decode audio hex string: %w", err))
	}

	return Success{
		Audio:   audio,
		TraceID: resp.TraceID,
	}
}

// upstreamErrorMessage returns base_resp.message of a JSON body verbatim when
// it is a string, and the raw body text otherwise.
func upstreamErrorMessage(body []byte) string {
	var parsed map[string]any

	err := json.Unmarshal(body, &parsed)
	if err != nil {
		return string(body)
	}

	message, ok := utils.GetStringByJSONPath(parsed, "{ .base_resp.message }")
	if !ok {
		return string(body)
	}

	return message
}

// stripASCIIWhitespace drops ASCII whitespace anywhere in str, so audio hex
// split across lines or byte groups still decodes.
func stripASCIIWhitespace(str string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			return -1
		default:
			return r
		}
	}, str)
}

// ToAudioResponse maps a Result onto the caller facing contract. Every upstream
// failure becomes an HTTP 500 regardless of the upstream status code.
func ToAudioResponse(result Result, model string) (*tts.AudioResponse, error) {
	switch r := result.(type) {
	case Success:
		if len(r.Audio) == 0 {
			return nil, object.NewErrorMissingAudio()
		}

		resp := tts.NewAudioResponseFromBytes(http.StatusOK, tts.DefaultAudioContentType, model, r.Audio)
		resp.RequestID = r.TraceID

		return resp, nil
	case BackendFailure:
		return nil, object.NewErrorBackendTask(r.StatusCode, r.Message)
	case TransportFailure:
		return nil, object.NewErrorBackendTransport(r.StatusCode, r.Message).WithCause(r.Cause)
	default:
		return nil, object.NewErrorInternalError(fmt.Errorf("unknown upstream result %T", result))
	}
}
