package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode           string          `mapstructure:"mode"`
	Host           string          `mapstructure:"host"`
	Port           int             `mapstructure:"port"`
	LogLevel       string          `mapstructure:"log_level"`
	ReadLimit      int64           `mapstructure:"read_limit"`
	PingPeriod     time.Duration   `mapstructure:"ping_period"`
	WriteWait      time.Duration   `mapstructure:"write_wait"`
	SendBuffer     int             `mapstructure:"send_buffer"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	KickSlowPeer   bool            `mapstructure:"kick_slow_peer"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	Upstream       UpstreamConfig  `mapstructure:"upstream"`
}

// RateLimitConfig bounds handshakes per user. RPS <= 0 disables it.
type RateLimitConfig struct {
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	IdleTTL time.Duration `mapstructure:"idle_ttl"`
}

// UpstreamConfig describes the optional pass-through relay peer.
type UpstreamConfig struct {
	Enabled     bool              `mapstructure:"enabled"`
	URL         string            `mapstructure:"url"`
	APIKey      string            `mapstructure:"api_key"`
	Headers     map[string]string `mapstructure:"headers"`
	DialTimeout time.Duration     `mapstructure:"dial_timeout"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid mode: %q", c.Mode)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("read_limit must be positive, got %d", c.ReadLimit)
	}
	if c.PingPeriod <= 0 {
		return errors.New("ping_period must be positive")
	}
	if c.WriteWait <= 0 {
		return errors.New("write_wait must be positive")
	}
	if c.SendBuffer <= 0 {
		return fmt.Errorf("send_buffer must be positive, got %d", c.SendBuffer)
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst <= 0 {
		return errors.New("rate_limit.burst must be positive when rate_limit.rps is set")
	}
	if c.Upstream.Enabled {
		u, err := url.Parse(c.Upstream.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return fmt.Errorf("upstream.url must be a ws:// or wss:// URL, got %q", c.Upstream.URL)
		}
		if c.Upstream.DialTimeout <= 0 {
			return errors.New("upstream.dial_timeout must be positive")
		}
	}
	return nil
}

// Load reads config/config.<CONFIG_ENV>.yaml, falling back to defaults when
// the file is missing.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFrom(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetDefault("mode", "release")
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 10<<20)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("kick_slow_peer", false)
	v.SetDefault("rate_limit.rps", 2)
	v.SetDefault("rate_limit.burst", 10)
	v.SetDefault("rate_limit.idle_ttl", "10m")
	v.SetDefault("upstream.enabled", false)
	v.SetDefault("upstream.dial_timeout", "10s")

	_ = v.BindEnv("port", "PORT")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("upstream.url", "UPSTREAM_URL")
	_ = v.BindEnv("upstream.api_key", "UPSTREAM_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Bool("upstream", cfg.Upstream.Enabled).Msg("config ready")
	return &cfg, nil
}
