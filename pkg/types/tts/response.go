package tts

import (
	"net/http"

	"speechgate.dev/pkg/utils"
)

const (
	DefaultAudioContentType = "audio/mpeg"
)

type AudioResponse struct {
	Status      int
	Model       string
	RequestID   string
	ContentType string

	BodyBytes []byte
}

func NewAudioResponseFromBytes(status int, contentType string, model string, body []byte) *AudioResponse {
	return &AudioResponse{
		Status:      status,
		Model:       model,
		ContentType: contentType,
		BodyBytes:   body,
	}
}

func (r *AudioResponse) GetStatus() int {
	if r == nil || r.Status == 0 {
		return http.StatusOK
	}

	return r.Status
}

// WriteTo writes the whole audio buffer. The synthesized audio is never meant
// to be cached by clients or proxies.
func (r *AudioResponse) WriteTo(writer http.ResponseWriter) error {
	if r == nil {
		return nil
	}

	contentType := r.ContentType
	if contentType == "" {
		contentType = DefaultAudioContentType
	}

	writer.Header().Set("Content-Type", contentType)
	writer.Header().Set("Cache-Control", "no-cache")
	writer.WriteHeader(r.GetStatus())

	if len(r.BodyBytes) > 0 {
		_, err := writer.Write(r.BodyBytes)
		if err != nil {
			return err
		}
	}

	utils.SafeFlush(writer)

	return nil
}
