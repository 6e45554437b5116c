package t2av2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/samber/lo"

	"speechgate.dev/pkg/object"
	"speechgate.dev/pkg/types/tts"
	"speechgate.dev/pkg/utils"
)

const (
	ProviderName = "minimax"

	DefaultSpeechURL = "https://api.minimax.chat/v1/t2a_v2"

	logTextMaxRunes = 10
)

// Payload is the t2a_v2 request body. Stream is always false, the whole audio
// is returned in a single response.
type Payload struct {
	Model        string       `json:"model"`
	Text         string       `json:"text"`
	Stream       bool         `json:"stream"`
	VoiceSetting VoiceSetting `json:"voice_setting"`
}

func NewPayload(model string, text string, voiceSetting VoiceSetting) Payload {
	return Payload{
		Model:        model,
		Text:         text,
		Stream:       false,
		VoiceSetting: voiceSetting,
	}
}

// Redacted returns a copy safe to log, text is cut to its first 10 characters.
func (p Payload) Redacted() Payload {
	redacted := p
	redacted.Text = utils.TruncateRunes(p.Text, logTextMaxRunes)

	return redacted
}

var _ tts.SpeechProvider = (*Provider)(nil)

type Provider struct {
	// DefaultParams are added to the top level of the payload when the key is
	// not already there, e.g. audio_setting or pronunciation_dict.
	DefaultParams map[string]any
}

func NewProvider(defaultParams map[string]any) *Provider {
	return &Provider{
		DefaultParams: defaultParams,
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) BuildSpeechRequest(ctx context.Context, baseURL string, req tts.Request) (*http.Request, error) {
	if baseURL == "" {
		baseURL = DefaultSpeechURL
	}

	payload := NewPayload(req.GetModel(), req.GetInput(), ParseVoiceSettingParams(req.GetVoice(), req.GetQuery()))

	body, err := p.MarshalPayload(payload)
	if err != nil {
		return nil, object.NewErrorInternalError(err)
	}

	logPayload, err := json.Marshal(payload.Redacted())
	if err == nil {
		slog.Info("sending payload to upstream (text truncated)", "provider", ProviderName, "payload", string(logPayload))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, object.NewErrorInternalError(err)
	}

	httpReq.Header.Set("Authorization", req.GetAuthorization())
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}

// MarshalPayload encodes payload and merges DefaultParams into it. Keys are
// applied in sorted order so equal inputs always give equal bodies.
func (p *Provider) MarshalPayload(payload Payload) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	if len(p.DefaultParams) == 0 {
		return body, nil
	}

	var existing map[string]json.RawMessage

	err = json.Unmarshal(body, &existing)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	operations := make([]map[string]any, 0, len(p.DefaultParams))

	keys := lo.Keys(p.DefaultParams)
	slices.Sort(keys)

	for _, k := range keys {
		if _, ok := existing[k]; ok {
			continue
		}

		operations = append(operations, map[string]any{
			"op":    "add",
			"path":  "/" + escapeJSONPointer(k),
			"value": p.DefaultParams[k],
		})
	}

	if len(operations) == 0 {
		return body, nil
	}

	patchJSON, err := json.Marshal(operations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal default params patch: %w", err)
	}

	patch, err := jsonpatch.DecodePatch(patchJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode default params patch: %w", err)
	}

	patched, err := patch.Apply(body)
	if err != nil {
		return nil, fmt.Errorf("failed to apply default params: %w", err)
	}

	return patched, nil
}

func escapeJSONPointer(key string) string {
	return strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1")
}

func (p *Provider) ParseSpeechResponse(resp *http.Response, model string) (*tts.AudioResponse, error) {
	if resp == nil {
		return nil, object.NewErrorBackendTransport(http.StatusBadGateway, "upstream response is nil")
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ToAudioResponse(NewTransportFailure(resp.StatusCode, fmt.Errorf("failed to read upstream response: %w", err)), model)
	}

	return ToAudioResponse(ClassifyResponse(resp.StatusCode, body), model)
}
