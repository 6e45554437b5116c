package listener

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/nekomeowww/fo"
	"go.opentelemetry.io/otel/trace"

	"speechgate.dev/pkg/metadata"
	"speechgate.dev/pkg/metrics"
	"speechgate.dev/pkg/object"
)

func WithAccessLog(enable bool) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			resp, err := next(writer, request)

			if enable {
				rMeta := metadata.RequestMetadataFromCtx(request.Context())

				attrs := []any{
					slog.String("request_id", rMeta.RequestID),
					slog.String("method", request.Method),
					slog.String("protocol", request.Proto),
					slog.String("host", request.Host),
					slog.String("uri", request.RequestURI),
					slog.String("remote_address", request.RemoteAddr),
					slog.String("x_forwarded_for", request.Header.Get("X-Forwarded-For")),
					slog.Duration("response_duration", rMeta.RespondAt.Sub(rMeta.RequestAt)),
					slog.String("request_model", rMeta.RequestModel),
					slog.String("request_voice", rMeta.RequestVoice),
					slog.Int("response_status", rMeta.StatusCode),
					slog.String("upstream_url", rMeta.UpstreamURL),
					slog.Int("upstream_response_status_code", rMeta.UpstreamResponseStatusCode),
				}

				if rMeta.ErrorKind != "" {
					attrs = append(attrs,
						slog.String("error_kind", rMeta.ErrorKind),
						slog.String("error_message", rMeta.ErrorMessage),
					)
				}

				if spanContext := trace.SpanContextFromContext(request.Context()); spanContext.HasTraceID() {
					attrs = append(attrs, slog.String("trace_id", spanContext.TraceID().String()))
				}

				if rMeta.UpstreamTraceID.IsPresent() {
					attrs = append(attrs, slog.String("upstream_trace_id", rMeta.UpstreamTraceID.MustGet()))
				}

				if !rMeta.UpstreamRespondAt.IsZero() {
					attrs = append(attrs,
						slog.Duration("upstream_duration", rMeta.UpstreamRespondAt.Sub(rMeta.UpstreamRequestAt)),
						slog.Int("upstream_audio_bytes", rMeta.UpstreamAudioBytes),
					)
				}

				slog.Info("", attrs...)
			}

			return resp, err
		}
	}
}

// WithRequestMetrics reports the outcome recorded in the request metadata, so
// it has to sit outside WithResponseHandler and WithRequestTimer.
func WithRequestMetrics() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			resp, err := next(writer, request)

			rMeta := metadata.RequestMetadataFromCtx(request.Context())
			if request.Method != http.MethodOptions {
				metrics.RecordRequest(rMeta.RequestModel, rMeta.StatusCode, rMeta.ErrorKind, rMeta.RespondAt.Sub(rMeta.RequestAt).Seconds())
			}

			return resp, err
		}
	}
}

func WithInitMetadata() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			return next(writer, request.WithContext(metadata.InitMetadataContext(request)))
		}
	}
}

func WithOptions() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			if request.Method == http.MethodOptions {
				metadata.RequestMetadataFromCtx(request.Context()).StatusCode = http.StatusNoContent
				writer.WriteHeader(http.StatusNoContent)

				return nil, nil
			}

			return next(writer, request)
		}
	}
}

// WithRecoverWithError turns a panic further down the chain into an internal
// error for the response handler to render.
func WithRecoverWithError() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (resp any, err error) {
			defer func() {
				if r := recover(); r != nil {
					var url string
					if request != nil && request.URL != nil {
						url = request.URL.String()
					}

					slog.Error("Recovered from panic",
						slog.Any("panic", r),
						slog.String("url", url),
						slog.String("stack", string(debug.Stack())),
					)

					resp = nil
					err = object.NewErrorInternalError(fmt.Errorf("panic: %v", r))
				}
			}()

			return next(writer, request)
		}
	}
}

type CancellableRequestMap struct {
	mutex            sync.Mutex
	requestCancelMap map[*http.Request]context.CancelFunc
}

func NewCancellableRequestMap() *CancellableRequestMap {
	return &CancellableRequestMap{
		requestCancelMap: make(map[*http.Request]context.CancelFunc),
	}
}

func (l *CancellableRequestMap) Add(req *http.Request, cancel context.CancelFunc) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.requestCancelMap[req] = cancel
}

func (l *CancellableRequestMap) Remove(req *http.Request) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	delete(l.requestCancelMap, req)
}

func (l *CancellableRequestMap) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return len(l.requestCancelMap)
}

func (l *CancellableRequestMap) CancelAll() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, cancel := range l.requestCancelMap {
		cancel()
	}
}

func (l *CancellableRequestMap) CancelAllAfter(timeout time.Duration) {
	var wg sync.WaitGroup

	wg.Add(1)
	time.AfterFunc(timeout, func() {
		defer wg.Done()

		// Lock in callback function to prevent
		// lock acquisition order violation
		l.CancelAll()
	})
	wg.Wait()
}

// CancelAllAfterWithContext returns once the requests are cancelled or ctx is
// done, whichever comes first.
func (l *CancellableRequestMap) CancelAllAfterWithContext(ctx context.Context, timeout time.Duration) {
	_ = fo.Invoke0(ctx, func() error {
		l.CancelAllAfter(timeout)

		return nil
	})
}

func WithCancellable(cancellable *CancellableRequestMap) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			ctx, cancel := context.WithCancel(request.Context())
			defer cancel()

			cancellable.Add(request, cancel)
			defer cancellable.Remove(request)

			return next(writer, request.WithContext(ctx))
		}
	}
}

func WithRejectAfterDrainedWithError(d Drainable) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			if d.HasDrained() {
				return nil, object.NewErrorServiceUnavailable()
			}

			return next(writer, request)
		}
	}
}

func WithRequestTimer() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			metadata.RequestMetadataFromCtx(request.Context()).RequestAt = time.Now()
			resp, err := next(writer, request)
			metadata.RequestMetadataFromCtx(request.Context()).RespondAt = time.Now()

			return resp, err
		}
	}
}

func WithResponseHandler(fn func(resp any, err error, writer http.ResponseWriter, request *http.Request)) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(writer http.ResponseWriter, request *http.Request) (any, error) {
			resp, err := next(writer, request)
			fn(resp, err, writer, request)

			return nil, nil
		}
	}
}
