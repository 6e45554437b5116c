package clusters

import (
	"context"

	"speechgate.dev/pkg/types/tts"
)

type Cluster interface {
	GetProviderName() string
	GetUpstreamURL() string
	DoUpstreamRequest(ctx context.Context, req tts.Request) (*tts.AudioResponse, error)
}
