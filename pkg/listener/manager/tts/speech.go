package tts

import (
	"net/http"

	"speechgate.dev/pkg/metadata"
	"speechgate.dev/pkg/types/openai"
)

func (l *OpenAITextToSpeechListener) onTextToSpeech(_ http.ResponseWriter, request *http.Request) (any, error) {
	speechRequest, err := openai.NewTextToSpeechRequest(request)
	if err != nil {
		return nil, err
	}

	rMeta := metadata.RequestMetadataFromCtx(request.Context())
	rMeta.RequestModel = speechRequest.GetModel()
	rMeta.RequestVoice = speechRequest.GetVoice()

	err = speechRequest.Validate()
	if err != nil {
		return nil, err
	}

	resp, err := l.cluster.DoUpstreamRequest(request.Context(), speechRequest)
	if err != nil {
		return nil, err
	}

	return resp, nil
}
