package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"speechgate.dev/pkg/utils"
)

const envPrefix = "SPEECHGATE_"

const (
	DefaultGatewayListenerAddress = ":6000"
	DefaultAdminListenerAddress   = "127.0.0.1:9080"
	DefaultUpstreamURL            = "https://api.minimax.chat/v1/t2a_v2"
	DefaultReadTimeout            = time.Minute
	DefaultUpstreamTimeout        = 2 * time.Minute
)

type GatewayConfig struct {
	ListenerAddress string        `yaml:"listenerAddress" json:"listenerAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout" json:"readTimeout"`
	AccessLog       bool          `yaml:"accessLog" json:"accessLog"`
}

type AdminConfig struct {
	// ListenerAddress of the admin server, empty disables it.
	ListenerAddress string `yaml:"listenerAddress" json:"listenerAddress"`
}

type UpstreamConfig struct {
	URL     string        `yaml:"url" json:"url"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// DefaultParams are merged into every t2a_v2 payload where the key is
	// absent, e.g. audio_setting.
	DefaultParams map[string]any `yaml:"defaultParams" json:"defaultParams,omitempty"`
}

type Config struct {
	Debug    bool           `yaml:"debug" json:"debug"`
	Gateway  GatewayConfig  `yaml:"gateway" json:"gateway"`
	Admin    AdminConfig    `yaml:"admin" json:"admin"`
	Upstream UpstreamConfig `yaml:"upstream" json:"upstream"`
}

func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ListenerAddress: DefaultGatewayListenerAddress,
			ReadTimeout:     DefaultReadTimeout,
			AccessLog:       true,
		},
		Admin: AdminConfig{
			ListenerAddress: DefaultAdminListenerAddress,
		},
		Upstream: UpstreamConfig{
			URL:     DefaultUpstreamURL,
			Timeout: DefaultUpstreamTimeout,
		},
	}
}

// LoadConfig loads the configuration from the specified YAML file on top of
// Default, then applies SPEECHGATE_* environment overrides. An empty path
// skips the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	err := cfg.ApplyEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields from variables found by lookup. Variables that
// are set but empty are honoured, SPEECHGATE_ADMIN_LISTENER_ADDRESS= disables
// the admin server.
func (c *Config) ApplyEnv(lookup func(key string) (string, bool)) error {
	var errs *multierror.Error

	if v, ok := lookup(envPrefix + "DEBUG"); ok {
		debug, err := utils.FromString[bool](v)
		errs = appendEnvErr(errs, "DEBUG", err)
		c.Debug = debug
	}

	if v, ok := lookup(envPrefix + "GATEWAY_LISTENER_ADDRESS"); ok {
		c.Gateway.ListenerAddress = v
	}

	if v, ok := lookup(envPrefix + "GATEWAY_READ_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		errs = appendEnvErr(errs, "GATEWAY_READ_TIMEOUT", err)

		if err == nil {
			c.Gateway.ReadTimeout = d
		}
	}

	if v, ok := lookup(envPrefix + "GATEWAY_ACCESS_LOG"); ok {
		accessLog, err := utils.FromString[bool](v)
		errs = appendEnvErr(errs, "GATEWAY_ACCESS_LOG", err)
		c.Gateway.AccessLog = accessLog
	}

	if v, ok := lookup(envPrefix + "ADMIN_LISTENER_ADDRESS"); ok {
		c.Admin.ListenerAddress = v
	}

	if v, ok := lookup(envPrefix + "UPSTREAM_URL"); ok {
		c.Upstream.URL = v
	}

	if v, ok := lookup(envPrefix + "UPSTREAM_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		errs = appendEnvErr(errs, "UPSTREAM_TIMEOUT", err)

		if err == nil {
			c.Upstream.Timeout = d
		}
	}

	return errs.ErrorOrNil()
}

func appendEnvErr(errs *multierror.Error, key string, err error) *multierror.Error {
	if err == nil {
		return errs
	}

	return multierror.Append(errs, fmt.Errorf("invalid %s%s: %w", envPrefix, key, err))
}

func (c *Config) Validate() error {
	var errs *multierror.Error

	if c.Gateway.ListenerAddress == "" {
		errs = multierror.Append(errs, errors.New("gateway.listenerAddress must not be empty"))
	}

	if c.Gateway.ReadTimeout < 0 {
		errs = multierror.Append(errs, errors.New("gateway.readTimeout must not be negative"))
	}

	if c.Upstream.Timeout < 0 {
		errs = multierror.Append(errs, errors.New("upstream.timeout must not be negative"))
	}

	if c.Upstream.URL != "" {
		u, err := url.Parse(c.Upstream.URL)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("upstream.url is invalid: %w", err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = multierror.Append(errs, fmt.Errorf("upstream.url must be http or https, got %q", c.Upstream.URL))
		}
	}

	for _, key := range []string{"model", "text", "stream", "voice_setting"} {
		if _, ok := c.Upstream.DefaultParams[key]; ok {
			errs = multierror.Append(errs, fmt.Errorf("upstream.defaultParams must not set %q", key))
		}
	}

	return errs.ErrorOrNil()
}
