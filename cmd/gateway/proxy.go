package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"speechgate.dev/config"
	"speechgate.dev/pkg/bootkit"
	"speechgate.dev/pkg/clusters/cluster"
	"speechgate.dev/pkg/listener"
	"speechgate.dev/pkg/listener/manager/tts"
	"speechgate.dev/pkg/types/minimax/t2av2"
)

// NewGatewayServer wires the MiniMax cluster behind the OpenAI speech
// listener. The returned server is not started.
func NewGatewayServer(cfg *config.Config, lifecycle bootkit.LifeCycle) (*http.Server, error) {
	if cfg == nil {
		return nil, errors.New("gateway config is required")
	}

	upstream := cluster.New(t2av2.NewProvider(cfg.Upstream.DefaultParams), cluster.Options{
		UpstreamURL: cfg.Upstream.URL,
		Timeout:     cfg.Upstream.Timeout,
	})

	slog.Info("upstream cluster configured", "provider", upstream.GetProviderName(), "url", upstream.GetUpstreamURL())

	mux := listener.NewMux()
	mux.Register(tts.NewOpenAITextToSpeechListener(upstream, tts.Options{AccessLog: cfg.Gateway.AccessLog}, lifecycle))

	return mux.BuildServer(&http.Server{
		Addr:              cfg.Gateway.ListenerAddress,
		ReadTimeout:       cfg.Gateway.ReadTimeout,
		ReadHeaderTimeout: cfg.Gateway.ReadTimeout,
	})
}

func StartGateway(_ context.Context, lifecycle bootkit.LifeCycle, cfg *config.Config) error {
	server, err := NewGatewayServer(cfg, lifecycle)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStart: func(ctx context.Context) error {
			slog.Info("Starting gateway ...", "addr", ln.Addr().String(), "upstream", cfg.Upstream.URL)

			err := server.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping gateway ...")

			err := server.Shutdown(ctx)
			if err != nil {
				return err
			}

			slog.Info("Gateway stopped gracefully.")

			return nil
		},
	})

	return nil
}
