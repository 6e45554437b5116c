package tts

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"speechgate.dev/pkg/bootkit"
	"speechgate.dev/pkg/clusters"
	"speechgate.dev/pkg/listener"
	"speechgate.dev/pkg/types/openai"
)

var _ listener.Listener = (*OpenAITextToSpeechListener)(nil)
var _ listener.Drainable = (*OpenAITextToSpeechListener)(nil)

type Options struct {
	AccessLog bool
	// DrainWaitTime defaults to listener.DefaultDrainWaitTime.
	DrainWaitTime time.Duration
}

type OpenAITextToSpeechListener struct {
	opts        Options
	cluster     clusters.Cluster
	cancellable *listener.CancellableRequestMap

	mutex   sync.RWMutex
	drained bool
}

func NewOpenAITextToSpeechListener(cluster clusters.Cluster, opts Options, lifecycle bootkit.LifeCycle) (listener.Listener, error) {
	if cluster == nil {
		return nil, errors.New("text to speech listener requires an upstream cluster")
	}

	if opts.DrainWaitTime <= 0 {
		opts.DrainWaitTime = listener.DefaultDrainWaitTime
	}

	l := &OpenAITextToSpeechListener{
		opts:        opts,
		cluster:     cluster,
		cancellable: listener.NewCancellableRequestMap(),
	}

	if lifecycle != nil {
		lifecycle.Append(bootkit.LifeCycleHook{
			OnStop: l.Drain,
		})
	}

	return l, nil
}

func (l *OpenAITextToSpeechListener) RegisterRoutes(mux *mux.Router) error {
	middlewares := listener.WithMiddlewares(
		listener.WithCancellable(l.cancellable),
		listener.WithInitMetadata(),
		listener.WithRequestMetrics(),
		listener.WithAccessLog(l.opts.AccessLog),
		listener.WithRequestTimer(),
		listener.WithOptions(),
		listener.WithResponseHandler(openai.ResponseHandler()),
		listener.WithRecoverWithError(),
		listener.WithRejectAfterDrainedWithError(l),
	)

	handler := listener.HTTPHandlerFunc(middlewares(l.onTextToSpeech))

	mux.HandleFunc("/audio/speech", handler).Methods(http.MethodPost, http.MethodOptions)
	mux.HandleFunc("/v1/audio/speech", handler).Methods(http.MethodPost, http.MethodOptions)

	return nil
}

func (l *OpenAITextToSpeechListener) HasDrained() bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return l.drained
}

func (l *OpenAITextToSpeechListener) Drain(ctx context.Context) error {
	l.mutex.Lock()
	l.drained = true
	l.mutex.Unlock()

	if l.cancellable.Len() == 0 {
		return nil
	}

	l.cancellable.CancelAllAfterWithContext(ctx, l.opts.DrainWaitTime)

	return nil
}
