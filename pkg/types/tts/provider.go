package tts

import (
	"context"
	"net/http"
)

// SpeechProvider converts a Request into the vendor's HTTP request and the
// vendor's HTTP response back into audio or a typed error.
type SpeechProvider interface {
	Name() string
	BuildSpeechRequest(ctx context.Context, baseURL string, req Request) (*http.Request, error)
	ParseSpeechResponse(resp *http.Response, model string) (*AudioResponse, error)
}
