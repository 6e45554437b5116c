package openai

import (
	"log/slog"
	"strings"

	"github.com/samber/mo"
)

const fullWidthEquals = "＝"

// ParseVoice extracts the voice id from the OpenAI `voice` field. Clients that
// can not send arbitrary voice ids put them behind a key, e.g. `voice_id=female-shaonv`
// or with a full-width equals sign `音色＝female-shaonv`. Bare ids are returned as is.
func ParseVoice(raw string) mo.Option[string] {
	if raw == "" {
		return mo.None[string]()
	}

	if !strings.Contains(raw, "=") && !strings.Contains(raw, fullWidthEquals) {
		return mo.Some(raw)
	}

	normalized := strings.ReplaceAll(raw, fullWidthEquals, "=")

	_, after, found := strings.Cut(normalized, "=")
	if !found {
		return mo.Some(raw)
	}

	voiceID := strings.TrimSpace(after)
	slog.Debug("parsed voice id from voice parameter", "voice", raw, "voice_id", voiceID)

	return mo.Some(voiceID)
}
