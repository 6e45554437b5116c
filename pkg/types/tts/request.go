package tts

import (
	"net/url"
)

type Request interface {
	GetModel() string
	GetInput() string
	GetVoice() string
	GetAuthorization() string
	GetQuery() url.Values
}
