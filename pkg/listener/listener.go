package listener

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultDrainWaitTime is how long in-flight requests may keep running after
// a listener starts draining.
const DefaultDrainWaitTime = 10 * time.Second

type Drainable interface {
	Drain(ctx context.Context) error
	HasDrained() bool
}

type Listener interface {
	Drainable

	RegisterRoutes(mux *mux.Router) error
}

type Mux struct {
	router    *mux.Router
	listeners []Listener
	errs      *multierror.Error
}

func NewMux() *Mux {
	return &Mux{
		router: mux.NewRouter(),
	}
}

// Register accepts the result of a listener constructor as is, a constructor
// error is reported by BuildServer.
func (m *Mux) Register(l Listener, err error) *Mux {
	if err != nil {
		m.errs = multierror.Append(m.errs, err)
		return m
	}

	m.listeners = append(m.listeners, l)

	return m
}

func (m *Mux) BuildServer(server *http.Server) (*http.Server, error) {
	err := m.errs.ErrorOrNil()
	if err != nil {
		return nil, err
	}

	for _, l := range m.listeners {
		err := l.RegisterRoutes(m.router)
		if err != nil {
			return nil, err
		}
	}

	server.Handler = otelhttp.NewHandler(m.router, "speechgate")

	return server, nil
}

// Handler exposes the router without building a server, used by tests.
func (m *Mux) Handler() (http.Handler, error) {
	server, err := m.BuildServer(&http.Server{}) //nolint:gosec
	if err != nil {
		return nil, err
	}

	return server.Handler, nil
}
