package openai

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/samber/mo"

	"speechgate.dev/pkg/object"
	"speechgate.dev/pkg/types/tts"
	"speechgate.dev/pkg/utils"
)

var _ tts.Request = (*TextToSpeechRequest)(nil)

// TextToSpeechRequest represents OpenAI-compatible text-to-speech requests.
// API reference: https://platform.openai.com/docs/api-reference/audio/createSpeech
type TextToSpeechRequest struct {
	Model    string `json:"model,omitempty"`
	Input    string `json:"input,omitempty"`
	VoiceRaw string `json:"voice,omitempty"`

	// Voice is VoiceRaw after ParseVoice.
	Voice mo.Option[string] `json:"-"`

	authorization   string
	incomingRequest *http.Request
}

// NewTextToSpeechRequest reads the JSON body of httpRequest. It only fails on
// a missing Authorization header or a malformed body, field presence is
// checked by Validate. Fields that are not JSON strings are left empty.
func NewTextToSpeechRequest(httpRequest *http.Request) (*TextToSpeechRequest, error) {
	authorization := httpRequest.Header.Get("Authorization")
	if authorization == "" {
		slog.Warn("authorization header is missing", "uri", httpRequest.RequestURI)
		return nil, object.NewErrorAuthMissing()
	}

	parsed, err := utils.ReadAsJSONWithClose(httpRequest.Body)
	if err != nil {
		return nil, object.NewErrorInvalidBody(err)
	}

	model, _ := utils.GetStringByJSONPath(parsed, "{ .model }")
	input, _ := utils.GetStringByJSONPath(parsed, "{ .input }")
	voiceRaw, _ := utils.GetStringByJSONPath(parsed, "{ .voice }")

	return &TextToSpeechRequest{
		Model:           model,
		Input:           input,
		VoiceRaw:        voiceRaw,
		Voice:           ParseVoice(voiceRaw),
		authorization:   authorization,
		incomingRequest: httpRequest,
	}, nil
}

// Validate rejects the request when any of model, voice or input is empty.
// Callers are not told which one.
func (r *TextToSpeechRequest) Validate() error {
	if r.Model == "" || r.Voice.OrEmpty() == "" || r.Input == "" {
		slog.Warn("missing required fields",
			"model", r.Model,
			"voice_raw", r.VoiceRaw,
			"voice_parsed", r.Voice.OrEmpty(),
			"input", utils.TruncateRunes(r.Input, 10),
		)

		return object.NewErrorMissingFields()
	}

	return nil
}

func (r *TextToSpeechRequest) GetModel() string {
	return r.Model
}

func (r *TextToSpeechRequest) GetInput() string {
	return r.Input
}

func (r *TextToSpeechRequest) GetVoice() string {
	return r.Voice.OrEmpty()
}

func (r *TextToSpeechRequest) GetAuthorization() string {
	return r.authorization
}

func (r *TextToSpeechRequest) GetQuery() url.Values {
	if r.incomingRequest == nil || r.incomingRequest.URL == nil {
		return url.Values{}
	}

	return r.incomingRequest.URL.Query()
}
