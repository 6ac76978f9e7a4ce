package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store drivers.
const (
	StoreRedis = "redis"
	StoreMySQL = "mysql"
)

// Config holds application level configuration loaded from environment variables
// and an optional config.yaml.
type Config struct {
	Env      string `mapstructure:"env"`
	HTTPPort string `mapstructure:"http_port"`
	LogLevel string `mapstructure:"log_level"`

	BackendURL     string        `mapstructure:"backend_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`
	PageSize       int           `mapstructure:"page_size"`

	SessionStore  string        `mapstructure:"session_store"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SessionCookie string        `mapstructure:"session_cookie"`
	CookieSecure  bool          `mapstructure:"cookie_secure"`

	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`
	RedisPass string `mapstructure:"redis_password"`
	MySQLDSN  string `mapstructure:"mysql_dsn"`

	LoginRateRPS   float64 `mapstructure:"login_rate_rps"`
	LoginRateBurst int     `mapstructure:"login_rate_burst"`
}

// Load builds Config from defaults, config.yaml (if present) and the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		slog.Debug("no config file found, using defaults and env")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := map[string]any{
		"env":              "development",
		"http_port":        "8080",
		"log_level":        "info",
		"backend_url":      "http://127.0.0.1:5001",
		"backend_timeout":  "0s",
		"page_size":        10,
		"session_store":    StoreRedis,
		"session_ttl":      "1h",
		"session_cookie":   "carservice_session",
		"cookie_secure":    false,
		"redis_addr":       "localhost:6379",
		"redis_db":         0,
		"redis_password":   "",
		"mysql_dsn":        "user:password@tcp(localhost:3306)/carservice?charset=utf8mb4&parseTime=True&loc=Local",
		"login_rate_rps":   1.0,
		"login_rate_burst": 5,
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
		// AutomaticEnv only resolves keys viper already knows about.
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BackendURL) == "" {
		return fmt.Errorf("BACKEND_URL must be set")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PAGE_SIZE must be positive, got %d", c.PageSize)
	}
	switch c.SessionStore {
	case StoreRedis, StoreMySQL:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	return nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// String masks credentials.
func (c *Config) String() string {
	return fmt.Sprintf("Config{env: %s, port: %s, backend: %s, store: %s, redis: %s, mysql: *** (masked) ***}",
		c.Env, c.HTTPPort, c.BackendURL, c.SessionStore, c.RedisAddr)
}
