package t2av2

import (
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

const (
	QueryParamSpeed = "speed"
	QueryParamVol   = "vol"
	QueryParamPitch = "pitch"
)

// Recommended ranges from the t2a_v2 documentation. They are advisory only:
// out of range values are forwarded and upstream decides.
const (
	minSpeed = 0.5
	maxSpeed = 2.0
	maxVol   = 10.0
	minPitch = -12
	maxPitch = 12
)

type VoiceSetting struct {
	VoiceID string   `json:"voice_id"`
	Speed   *float64 `json:"speed,omitempty"`
	Vol     *float64 `json:"vol,omitempty"`
	Pitch   *int     `json:"pitch,omitempty"`
}

// ParseVoiceSettingParams builds the voice setting for voiceID from the
// optional speed, vol and pitch query parameters. Each parameter is handled on
// its own, an unparsable value drops only that field.
func ParseVoiceSettingParams(voiceID string, query url.Values) VoiceSetting {
	setting := VoiceSetting{
		VoiceID: voiceID,
	}

	if speed, ok := parseFloatParam(query, QueryParamSpeed); ok {
		if speed < minSpeed || speed > maxSpeed {
			slog.Warn("speed is out of recommended range [0.5, 2.0], passing as is", "speed", speed)
		}

		setting.Speed = lo.ToPtr(speed)
	}

	if vol, ok := parseFloatParam(query, QueryParamVol); ok {
		if vol <= 0 || vol > maxVol {
			slog.Warn("vol is out of recommended range (0, 10.0], passing as is", "vol", vol)
		}

		setting.Vol = lo.ToPtr(vol)
	}

	if pitch, ok := parseFloatParam(query, QueryParamPitch); ok {
		if pitch < math.MinInt32 || pitch > math.MaxInt32 {
			slog.Warn("invalid pitch value, skipping pitch parameter", "pitch", query.Get(QueryParamPitch))
		} else {
			// Truncates toward zero: 3.7 -> 3, -3.7 -> -3
			truncated := int(pitch)
			if truncated < minPitch || truncated > maxPitch {
				slog.Warn("pitch is out of recommended range [-12, 12], passing as is", "pitch", truncated)
			}

			setting.Pitch = lo.ToPtr(truncated)
		}
	}

	return setting
}

func parseFloatParam(query url.Values, key string) (float64, bool) {
	if !query.Has(key) {
		return 0, false
	}

	raw := query.Get(key)

	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		slog.Warn("invalid "+key+" value, skipping "+key+" parameter", key, raw)
		return 0, false
	}

	return val, true
}
