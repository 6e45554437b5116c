package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"speechgate.dev/config"
	"speechgate.dev/pkg/bootkit"
)

type recordingLifeCycle struct {
	mutex sync.Mutex
	hooks []bootkit.LifeCycleHook
}

func (l *recordingLifeCycle) Append(hook bootkit.LifeCycleHook) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.hooks = append(l.hooks, hook)
}

func TestNewGatewayServer(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"format": "mp3"}, payload["audio_setting"])

		_, _ = io.WriteString(w, `{"data":{"audio":"68656c6c6f"},"base_resp":{"status_code":0}}`)
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.Upstream.URL = upstream.URL
	cfg.Upstream.DefaultParams = map[string]any{"audio_setting": map[string]any{"format": "mp3"}}

	lifecycle := &recordingLifeCycle{}

	server, err := NewGatewayServer(cfg, lifecycle)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultGatewayListenerAddress, server.Addr)
	assert.Equal(t, cfg.Gateway.ReadTimeout, server.ReadTimeout)
	assert.Len(t, lifecycle.hooks, 1)

	gateway := httptest.NewServer(server.Handler)
	defer gateway.Close()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, gateway.URL+"/audio/speech", strings.NewReader(`{"model":"speech-02-hd","voice":"v","input":"hi"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer sk")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello", string(body))
}

func TestStartGateway(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Gateway.ListenerAddress = "127.0.0.1:0"

	lifecycle := &recordingLifeCycle{}
	require.NoError(t, StartGateway(context.Background(), lifecycle, cfg))
	require.Len(t, lifecycle.hooks, 2)

	done := make(chan error, 1)

	go func() {
		done <- lifecycle.hooks[1].Start(context.Background())
	}()

	require.NoError(t, lifecycle.hooks[1].Stop(context.Background()))
	require.NoError(t, <-done)
}

func TestNewGatewayServerWithoutConfig(t *testing.T) {
	t.Parallel()

	_, err := NewGatewayServer(nil, &recordingLifeCycle{})
	require.Error(t, err)
}
