package metadata

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

type requestMetadataContextKey struct{}

const HeaderRequestID = "X-Request-Id"

// RequestMetadata collects what the access log and metrics report for a single
// speech request. It is created by the listener middlewares and only ever
// touched by the goroutine serving that request.
type RequestMetadata struct {
	RequestID string

	RequestAt time.Time
	RespondAt time.Time

	RequestModel string
	RequestVoice string
	StatusCode   int
	ErrorKind    string
	ErrorMessage string

	UpstreamURL                string
	UpstreamRequestAt          time.Time
	UpstreamRespondAt          time.Time
	UpstreamResponseStatusCode int
	UpstreamTraceID            mo.Option[string]
	UpstreamAudioBytes         int
}

func NewRequestMetadata(request *http.Request) *RequestMetadata {
	requestID := request.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return &RequestMetadata{
		RequestID:       requestID,
		UpstreamTraceID: mo.None[string](),
	}
}

func InitMetadataContext(request *http.Request) context.Context {
	return context.WithValue(request.Context(), requestMetadataContextKey{}, NewRequestMetadata(request))
}

// RequestMetadataFromCtx never returns nil, requests outside the listener chain
// get a throwaway value.
func RequestMetadataFromCtx(ctx context.Context) *RequestMetadata {
	rMeta, ok := ctx.Value(requestMetadataContextKey{}).(*RequestMetadata)
	if !ok || rMeta == nil {
		return &RequestMetadata{UpstreamTraceID: mo.None[string]()}
	}

	return rMeta
}
