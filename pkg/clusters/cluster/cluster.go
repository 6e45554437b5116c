package cluster

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"speechgate.dev/pkg/clusters"
	"speechgate.dev/pkg/metadata"
	"speechgate.dev/pkg/metrics"
	"speechgate.dev/pkg/object"
	"speechgate.dev/pkg/types/tts"
)

var tracer = otel.Tracer("speechgate/cluster")

var _ clusters.Cluster = (*clusterDefault)(nil)

type Options struct {
	// UpstreamURL is handed to the provider as is, an empty value selects the
	// provider's default endpoint.
	UpstreamURL string
	// Timeout bounds a whole upstream call including reading the body. Zero
	// means no timeout.
	Timeout time.Duration
	// Transport overrides the round tripper wrapped by the tracing transport.
	Transport http.RoundTripper
}

type clusterDefault struct {
	upstreamURL string
	client      *http.Client
	provider    tts.SpeechProvider
}

func New(provider tts.SpeechProvider, opts Options) clusters.Cluster {
	transport := lo.Ternary[http.RoundTripper](opts.Transport != nil, opts.Transport, http.DefaultTransport)

	return &clusterDefault{
		upstreamURL: opts.UpstreamURL,
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(transport),
		},
		provider: provider,
	}
}

func (m *clusterDefault) GetProviderName() string {
	return m.provider.Name()
}

func (m *clusterDefault) GetUpstreamURL() string {
	return m.upstreamURL
}

func (m *clusterDefault) DoUpstreamRequest(ctx context.Context, req tts.Request) (*tts.AudioResponse, error) {
	ctx, span := tracer.Start(ctx, "Cluster.DoUpstreamRequest")
	defer span.End()

	span.SetAttributes(
		attribute.String("provider", m.provider.Name()),
		attribute.String("model", req.GetModel()),
	)

	rMeta := metadata.RequestMetadataFromCtx(ctx)

	httpReq, err := m.provider.BuildSpeechRequest(ctx, m.upstreamURL, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, object.SpeechErrorOrInternalError(err)
	}

	rMeta.UpstreamURL = httpReq.URL.String()
	span.SetAttributes(attribute.String("upstream_url", rMeta.UpstreamURL))

	rMeta.UpstreamRequestAt = time.Now()

	rawResp, err := m.client.Do(httpReq)

	// err != nil means the connection could not be established, the upstream
	// timed out, or the caller went away
	if err != nil {
		rMeta.UpstreamRespondAt = time.Now()
		m.recordUpstream(req.GetModel(), rMeta, metrics.StatusError)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		slog.Error("failed to call upstream", "provider", m.provider.Name(), "url", rMeta.UpstreamURL, "error", err)

		return nil, object.NewErrorBackendTransport(http.StatusBadGateway, err.Error()).WithCause(err)
	}

	rMeta.UpstreamResponseStatusCode = rawResp.StatusCode
	span.SetAttributes(attribute.Int("upstream_status_code", rawResp.StatusCode))

	resp, err := m.provider.ParseSpeechResponse(rawResp, req.GetModel())

	rMeta.UpstreamRespondAt = time.Now()

	if err != nil {
		m.recordUpstream(req.GetModel(), rMeta, metrics.StatusError)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		// Cluster will ensure that error will always be SpeechError
		return nil, object.SpeechErrorOrInternalError(err)
	}

	m.recordUpstream(req.GetModel(), rMeta, metrics.StatusSuccess)

	if resp.RequestID != "" {
		rMeta.UpstreamTraceID = mo.Some(resp.RequestID)
	}

	rMeta.UpstreamAudioBytes = len(resp.BodyBytes)
	metrics.RecordUpstreamAudio(m.provider.Name(), req.GetModel(), len(resp.BodyBytes))

	return resp, nil
}

func (m *clusterDefault) recordUpstream(model string, rMeta *metadata.RequestMetadata, status string) {
	metrics.RecordUpstreamRequest(
		m.provider.Name(),
		model,
		status,
		rMeta.UpstreamRespondAt.Sub(rMeta.UpstreamRequestAt).Seconds(),
	)
}
