package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/strefethen/hassbridge-go/internal/apperrors"
)

const (
	DefaultRetryDelay     = 5 * time.Second
	DefaultResyncSchedule = "@every 30m"
	DefaultIdentity       = "Home-assistant bridge"
)

// Config holds the bridge configuration.
type Config struct {
	// Endpoint is the Home Assistant base URL, e.g. http://homeassistant.local:8123.
	Endpoint string `yaml:"endpoint"`
	// Token is a long-lived access token.
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`

	// RetryDelay is the fixed wait between a failed session and the next one.
	RetryDelay time.Duration `yaml:"-"`
	// ResyncSchedule is a cron spec for re-requesting all states. Empty disables it.
	ResyncSchedule string `yaml:"resync_schedule"`
	// StatusAddr is the listen address for the local status API. Empty disables it.
	StatusAddr string `yaml:"status_addr"`
	Identity   string `yaml:"identity"`
}

type fileConfig struct {
	Config        `yaml:",inline"`
	RetryDelaySec *int `yaml:"retry_delay_sec"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		RetryDelay:     DefaultRetryDelay,
		ResyncSchedule: DefaultResyncSchedule,
		Identity:       DefaultIdentity,
	}
}

// Load reads configuration from an optional YAML file and then environment
// variables. Environment values win over the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("HASSBRIDGE_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	cfg.Endpoint = envString("HASSBRIDGE_ENDPOINT", cfg.Endpoint)
	cfg.Token = envString("HASSBRIDGE_TOKEN", cfg.Token)
	cfg.Debug = envBool("HASSBRIDGE_DEBUG", cfg.Debug)
	cfg.RetryDelay = time.Duration(envInt("HASSBRIDGE_RETRY_DELAY_SEC", int(cfg.RetryDelay/time.Second))) * time.Second
	cfg.StatusAddr = envString("HASSBRIDGE_STATUS_ADDR", cfg.StatusAddr)
	cfg.Identity = envString("HASSBRIDGE_IDENTITY", cfg.Identity)
	if val, ok := os.LookupEnv("HASSBRIDGE_RESYNC_SCHEDULE"); ok {
		cfg.ResyncSchedule = strings.TrimSpace(val)
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeConfigError, "read config file "+path, err)
	}

	parsed := fileConfig{Config: *cfg}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeConfigError, "parse config file "+path, err)
	}
	if parsed.RetryDelaySec != nil {
		parsed.Config.RetryDelay = time.Duration(*parsed.RetryDelaySec) * time.Second
	}
	*cfg = parsed.Config
	return nil
}

// Validate reports missing or malformed settings. These are the only errors
// that stop the process.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return apperrors.NewConfigError("endpoint is required (--endpoint or HASSBRIDGE_ENDPOINT)")
	}
	if strings.TrimSpace(c.Token) == "" {
		return apperrors.NewConfigError("token is required (--token or HASSBRIDGE_TOKEN)")
	}
	parsed, err := url.Parse(c.Endpoint)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeConfigError, "invalid endpoint", err)
	}
	switch parsed.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("endpoint scheme must be http(s) or ws(s), got %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return apperrors.NewConfigError("endpoint has no host")
	}
	if c.RetryDelay <= 0 {
		return apperrors.NewConfigError("retry delay must be positive")
	}
	return nil
}

// WebSocketURL returns the hub's websocket API address derived from Endpoint.
func (c Config) WebSocketURL() string {
	parsed, err := url.Parse(c.Endpoint)
	if err != nil {
		return c.Endpoint
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	}
	parsed.Path = "/api/websocket"
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

// HTTPBase returns the hub's HTTP base address without a trailing slash. It
// prefixes relative artwork paths.
func (c Config) HTTPBase() string {
	parsed, err := url.Parse(c.Endpoint)
	if err != nil {
		return strings.TrimRight(c.Endpoint, "/")
	}
	switch parsed.Scheme {
	case "wss":
		parsed.Scheme = "https"
	case "ws":
		parsed.Scheme = "http"
	}
	if parsed.Path == "/api/websocket" {
		parsed.Path = ""
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/")
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return strings.EqualFold(val, "true") || val == "1"
}
