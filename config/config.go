package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Log           LogConfig           `mapstructure:"log"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Admin         AdminConfig         `mapstructure:"admin"`
}

type ServerConfig struct {
	Port        string        `mapstructure:"port"`
	Env         string        `mapstructure:"env"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout applies to the whole response, so it must stay 0 while
	// notification streams are served from the same listener.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql | sqlite
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type JWTConfig struct {
	AccessSecret string        `mapstructure:"access_secret"`
	AccessExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer       string        `mapstructure:"issuer"`
}

// NotificationsConfig holds settings for the publish and stream endpoints.
type NotificationsConfig struct {
	// PublishSecret authenticates trusted server-side publishers. Empty
	// disables publishing entirely.
	PublishSecret     string        `mapstructure:"publish_secret"`
	KeepAliveInterval time.Duration `mapstructure:"keepalive_interval"`
	// WriteWait bounds each write to a stream. A reader that stalls longer
	// is disconnected.
	WriteWait time.Duration `mapstructure:"write_wait"`
	// BaseURL is where notifyctl reaches the server.
	BaseURL string `mapstructure:"base_url"`
}

type LogConfig struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

const envPrefix = "HOMEBROKER"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 0)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "homebroker.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("jwt.access_secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", 24*time.Hour)
	v.SetDefault("jwt.issuer", "homebroker")

	v.SetDefault("notifications.publish_secret", "")
	v.SetDefault("notifications.keepalive_interval", 15*time.Second)
	v.SetDefault("notifications.write_wait", 10*time.Second)
	v.SetDefault("notifications.base_url", "http://localhost:8099")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.level", "info")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 60*time.Second)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
}

// Load reads defaults, then the optional YAML file at path, then
// HOMEBROKER_* environment variables (HOMEBROKER_NOTIFICATIONS_PUBLISH_SECRET
// overrides notifications.publish_secret). A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(*os.PathError); !ok {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return nil, fmt.Errorf("reading config %s: %w", path, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Notifications.KeepAliveInterval <= 0 {
		cfg.Notifications.KeepAliveInterval = 15 * time.Second
	}
	return cfg, nil
}
