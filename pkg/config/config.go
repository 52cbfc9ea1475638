package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	ErrInvalidMaxRetries  = errors.New("invalid MAX_RETRIES: must be at least 1")
	ErrInvalidConcurrency = errors.New("invalid concurrency: WORKER_CONCURRENCY and DNS_CONCURRENCY must be positive")
	ErrInvalidPolicy      = errors.New("invalid UNRESOLVED_HOST_POLICY: expected warn or block")
	ErrMissingEndpoint    = errors.New("missing connection setting: REDIS_URL, DATABASE_URL and MINIO_ENDPOINT are required")
)

// Config holds the application configuration.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	HTTPPort string `mapstructure:"HTTP_PORT"`

	RedisURL    string `mapstructure:"REDIS_URL"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	MinioEndpoint  string `mapstructure:"MINIO_ENDPOINT"`
	MinioAccessKey string `mapstructure:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `mapstructure:"MINIO_SECRET_KEY"`
	MinioBucket    string `mapstructure:"MINIO_BUCKET_NAME"`
	MinioUseSSL    bool   `mapstructure:"MINIO_USE_SSL"`

	ProxyEnabled          bool   `mapstructure:"PROXY_ENABLED"`
	ProxyURL              string `mapstructure:"TOR_PROXY_URL"`
	RotationEnabled       bool   `mapstructure:"TOR_ROTATION_ENABLED"`
	RotationStrict        bool   `mapstructure:"TOR_ROTATION_STRICT"`
	TorControlHost        string `mapstructure:"TOR_CONTROL_HOST"`
	TorControlPort        int    `mapstructure:"TOR_CONTROL_PORT"`
	TorControlPassword    string `mapstructure:"TOR_CONTROL_PASSWORD"`
	TorControlTimeoutSecs int    `mapstructure:"TOR_CONTROL_TIMEOUT"`
	TorStabilizeSecs      int    `mapstructure:"TOR_STABILIZE_SECONDS"`

	MaxRetries        int `mapstructure:"MAX_RETRIES"`
	WorkerConcurrency int `mapstructure:"WORKER_CONCURRENCY"`
	QueuePollSecs     int `mapstructure:"QUEUE_POLL_TIMEOUT"`
	NavTimeoutSecs    int `mapstructure:"NAV_TIMEOUT"`
	NavTimeoutTorSecs int `mapstructure:"NAV_TIMEOUT_TOR"`

	MaxSubdomains  int    `mapstructure:"MAX_SUBDOMAINS"`
	DNSConcurrency int    `mapstructure:"DNS_CONCURRENCY"`
	DNSNameservers string `mapstructure:"DNS_NAMESERVERS"`
	CTLogURL       string `mapstructure:"CT_LOG_URL"`

	GitHubToken         string `mapstructure:"GITHUB_TOKEN"`
	MastodonBaseURL     string `mapstructure:"MASTODON_BASE_URL"`
	MastodonAccessToken string `mapstructure:"MASTODON_ACCESS_TOKEN"`

	BlockedHosts         string `mapstructure:"BLOCKED_HOSTS"`
	AnonymitySuffixes    string `mapstructure:"ANONYMITY_SUFFIXES"`
	UnresolvedHostPolicy string `mapstructure:"UNRESOLVED_HOST_POLICY"`
}

var defaults = map[string]any{
	"LOG_LEVEL": "info",
	"HTTP_PORT": "8081",

	"REDIS_URL":    "redis://localhost:6379",
	"DATABASE_URL": "",

	"MINIO_ENDPOINT":    "",
	"MINIO_ACCESS_KEY":  "admin",
	"MINIO_SECRET_KEY":  "password",
	"MINIO_BUCKET_NAME": "investigations",
	"MINIO_USE_SSL":     false,

	"PROXY_ENABLED":         false,
	"TOR_PROXY_URL":         "socks5://tor:9050",
	"TOR_ROTATION_ENABLED":  true,
	"TOR_ROTATION_STRICT":   false,
	"TOR_CONTROL_HOST":      "tor",
	"TOR_CONTROL_PORT":      9051,
	"TOR_CONTROL_PASSWORD":  "",
	"TOR_CONTROL_TIMEOUT":   10,
	"TOR_STABILIZE_SECONDS": 10,

	"MAX_RETRIES":        3,
	"WORKER_CONCURRENCY": 4,
	"QUEUE_POLL_TIMEOUT": 5,
	"NAV_TIMEOUT":        30,
	"NAV_TIMEOUT_TOR":    60,

	"MAX_SUBDOMAINS":  500,
	"DNS_CONCURRENCY": 50,
	"DNS_NAMESERVERS": "8.8.8.8:53,1.1.1.1:53",
	"CT_LOG_URL":      "https://crt.sh",

	"GITHUB_TOKEN":          "",
	"MASTODON_BASE_URL":     "https://mastodon.social",
	"MASTODON_ACCESS_TOKEN": "",

	"BLOCKED_HOSTS":          "",
	"ANONYMITY_SUFFIXES":     ".onion",
	"UNRESOLVED_HOST_POLICY": "warn",
}

// Load reads configuration from a .env file, when present, and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing .env is fine, production config comes from the environment.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if c.MaxRetries < 1 {
		return ErrInvalidMaxRetries
	}
	if c.WorkerConcurrency < 1 || c.DNSConcurrency < 1 {
		return ErrInvalidConcurrency
	}
	switch c.UnresolvedHostPolicy {
	case "warn", "block":
	default:
		return ErrInvalidPolicy
	}
	return nil
}

// ValidateConnections checks the endpoints the worker needs at startup.
func (c *Config) ValidateConnections() error {
	if c.RedisURL == "" || c.DatabaseURL == "" || c.MinioEndpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

// ActiveProxy returns the proxy outbound requests must use, or "" for direct connections.
// Anonymity rotation implies the proxy regardless of PROXY_ENABLED.
func (c *Config) ActiveProxy() string {
	if c.ProxyEnabled || c.RotationEnabled {
		return strings.TrimSpace(c.ProxyURL)
	}
	return ""
}

func (c *Config) TorControlAddr() string {
	return net.JoinHostPort(c.TorControlHost, strconv.Itoa(c.TorControlPort))
}

func (c *Config) TorControlTimeout() time.Duration {
	return time.Duration(c.TorControlTimeoutSecs) * time.Second
}

func (c *Config) TorStabilize() time.Duration {
	return time.Duration(c.TorStabilizeSecs) * time.Second
}

func (c *Config) QueuePollTimeout() time.Duration {
	return time.Duration(c.QueuePollSecs) * time.Second
}

// NavigationTimeout is longer when pages are loaded through the anonymity network.
func (c *Config) NavigationTimeout() time.Duration {
	if c.ActiveProxy() != "" {
		return time.Duration(c.NavTimeoutTorSecs) * time.Second
	}
	return time.Duration(c.NavTimeoutSecs) * time.Second
}

func (c *Config) Nameservers() []string {
	return SplitList(c.DNSNameservers)
}

func (c *Config) BlockedHostList() []string {
	return SplitList(c.BlockedHosts)
}

func (c *Config) AnonymitySuffixList() []string {
	return SplitList(c.AnonymitySuffixes)
}

// SplitList splits a comma separated setting, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
