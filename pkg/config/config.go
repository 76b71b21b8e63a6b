// Package config loads server settings from defaults, an optional config
// file, SEO_MCP_* environment variables and bound command-line flags.
// Later sources win: flags > env > file > defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// SEO_MCP_UPSTREAM_API_KEY for upstream.api_key
const EnvPrefix = "SEO_MCP"

// Configuration keys
const (
	KeyUpstreamBaseURL      = "upstream.base_url"
	KeyUpstreamAPIKey       = "upstream.api_key"
	KeyUpstreamAPIKeyHeader = "upstream.api_key_header"
	KeyUpstreamTimeout      = "upstream.timeout"
	KeyToolsTimeout         = "tools.timeout"
	KeyToolsMockLocations   = "tools.mock_locations"
	KeyToolsMockSeed        = "tools.mock_seed"
	KeyLogLevel             = "log.level"
	KeyServerName           = "server.name"
	KeyServerVersion        = "server.version"
	KeyServerHTTPAddr       = "server.http_addr"
)

// Defaults
const (
	DefaultBaseURL       = "https://growtha-platform-g159.onrender.com"
	DefaultAPIKeyHeader  = "locai-user-api-key"
	DefaultTimeout       = 30 * time.Second
	DefaultLogLevel      = "info"
	DefaultServerName    = "Loc AI SEO Analytics"
	DefaultServerVersion = "1.0.0"
	DefaultHTTPAddr      = ":8080"
)

// Config is the fully merged configuration
type Config struct {
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`

	// File is the config file that was read, empty when none was
	File string `mapstructure:"-"`
}

// UpstreamConfig configures the SEO data platform client
type UpstreamConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ToolsConfig configures tool dispatch
type ToolsConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MockLocations bool          `mapstructure:"mock_locations"`
	MockSeed      int64         `mapstructure:"mock_seed"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// ServerConfig configures the MCP server identity and HTTP transport
type ServerConfig struct {
	Name     string `mapstructure:"name"`
	Version  string `mapstructure:"version"`
	HTTPAddr string `mapstructure:"http_addr"`
}

// NewViper returns a viper instance with defaults and environment binding
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers the default value of every key
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyUpstreamBaseURL, DefaultBaseURL)
	v.SetDefault(KeyUpstreamAPIKey, "")
	v.SetDefault(KeyUpstreamAPIKeyHeader, DefaultAPIKeyHeader)
	v.SetDefault(KeyUpstreamTimeout, DefaultTimeout)
	v.SetDefault(KeyToolsTimeout, DefaultTimeout)
	v.SetDefault(KeyToolsMockLocations, false)
	v.SetDefault(KeyToolsMockSeed, int64(0))
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyServerName, DefaultServerName)
	v.SetDefault(KeyServerVersion, DefaultServerVersion)
	v.SetDefault(KeyServerHTTPAddr, DefaultHTTPAddr)
}

// Load reads path (when non-empty) into v and returns the validated
// configuration. An explicitly named file that does not exist is an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to load config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults and environment only
func Default() (*Config, error) {
	return Load(NewViper(), "")
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", KeyUpstreamBaseURL, c.Upstream.BaseURL)
	}
	if strings.TrimSpace(c.Upstream.APIKeyHeader) == "" {
		return fmt.Errorf("%s must not be empty", KeyUpstreamAPIKeyHeader)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyUpstreamTimeout, c.Upstream.Timeout)
	}
	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyToolsTimeout, c.Tools.Timeout)
	}
	if !ValidLogLevel(c.Log.Level) {
		return fmt.Errorf("%s must be one of debug, info, warn, error; got %q", KeyLogLevel, c.Log.Level)
	}
	if strings.TrimSpace(c.Server.Name) == "" {
		return fmt.Errorf("%s must not be empty", KeyServerName)
	}
	return nil
}

// ValidLogLevel reports whether level names a supported log level
func ValidLogLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
