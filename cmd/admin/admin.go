package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"speechgate.dev/config"
	"speechgate.dev/pkg/bootkit"
	"speechgate.dev/pkg/listener"
	"speechgate.dev/pkg/metrics"
)

var _ listener.Listener = (*debugListener)(nil)

type debugListener struct {
	cfg      *config.Config
	registry *prometheus.Registry
}

func NewAdminListener(cfg *config.Config, registry *prometheus.Registry) (listener.Listener, error) {
	if registry == nil {
		return nil, errors.New("admin listener requires a metrics registry")
	}

	return &debugListener{cfg: cfg, registry: registry}, nil
}

func (d *debugListener) Drain(ctx context.Context) error {
	return nil
}

func (d *debugListener) HasDrained() bool {
	return false
}

func (d *debugListener) configDump(writer http.ResponseWriter, request *http.Request) {
	bs, err := json.MarshalIndent(d.cfg, "", "  ")
	if err != nil {
		slog.Error("failed to marshal config dump", "error", err)
		http.Error(writer, err.Error(), http.StatusInternalServerError)

		return
	}

	writer.Header().Set("Content-Type", "application/json")
	_, _ = writer.Write(bs)
}

func (d *debugListener) healthz(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = writer.Write([]byte("ok"))
}

func (d *debugListener) RegisterRoutes(mux *mux.Router) error {
	mux.HandleFunc("/config_dump", d.configDump).Methods(http.MethodGet)
	mux.HandleFunc("/healthz", d.healthz).Methods(http.MethodGet)
	mux.Handle("/metrics", metrics.Handler(d.registry)).Methods(http.MethodGet)

	return nil
}

func NewAdminServer(_ context.Context, cfg *config.Config, registry *prometheus.Registry, addr string, lifecycle bootkit.LifeCycle) error {
	if addr == "" {
		slog.Info("Admin server disabled")
		return nil
	}

	m := listener.NewMux()
	m.Register(NewAdminListener(cfg, registry))

	server, err := m.BuildServer(&http.Server{Addr: addr, ReadTimeout: time.Minute, ReadHeaderTimeout: time.Minute})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	lifecycle.Append(bootkit.LifeCycleHook{
		OnStart: func(ctx context.Context) error {
			slog.Info("Starting admin server ...", "addr", ln.Addr().String())

			err := server.Serve(ln)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("Stopping admin server ...")

			err := server.Shutdown(ctx)
			if err != nil {
				return err
			}

			slog.Info("Admin server stopped gracefully.")

			return nil
		},
	})

	return nil
}
