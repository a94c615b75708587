// Package config loads and validates platform configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Edgar   EdgarConfig   `mapstructure:"edgar"`
	DB      DBConfig      `mapstructure:"db"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// OpenAIConfig holds credentials and model selection for the
// chat-completions backend used by research, extraction, and analysis.
type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EdgarConfig configures SEC EDGAR access. Identity is the User-Agent
// the SEC requires on every request.
type EdgarConfig struct {
	Identity       string `mapstructure:"identity"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DBConfig selects and configures the persistence backend.
// Driver is "sqlite" (Path) or "postgres" (DSN).
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

// MonitorConfig governs the scheduled monitoring sweeps.
type MonitorConfig struct {
	CustomerAgeDays int      `mapstructure:"customer_age_days"`
	Schedule        string   `mapstructure:"schedule"`
	Clients         []string `mapstructure:"clients"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TICKERTAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout_seconds", 120)
	v.SetDefault("edgar.identity", "tickertape research@tickertape.dev")
	v.SetDefault("edgar.timeout_seconds", 30)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.path", "customer_intelligence.db")
	v.SetDefault("monitor.customer_age_days", 90)
	v.SetDefault("monitor.schedule", "0 13 * * *")
}

// Validate enforces required values and reasonable limits. A missing
// OpenAI key is deliberately not an error here: the server still starts
// so the read-only endpoints work, and job submission fails fast instead.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.TimeoutSeconds <= 0 {
		return fmt.Errorf("server.timeout_seconds must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return fmt.Errorf("db.path must be set for the sqlite driver")
		}
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("db.driver must be sqlite or postgres, got %q", c.DB.Driver)
	}
	if c.Monitor.CustomerAgeDays < 0 {
		return fmt.Errorf("monitor.customer_age_days must be >= 0")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub is enabled")
	}
	return nil
}

// RequestTimeout converts the server timeout knob into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}
