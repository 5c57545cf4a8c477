package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Keycloak KeycloakConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Monitor  MonitorConfig
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type KeycloakConfig struct {
	URL          string `mapstructure:"url"`
	Realm        string `mapstructure:"realm"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelegramConfig carries environment-supplied bot credentials. When set,
// they override the values stored in the notification_settings row and are
// read-only from the API.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// MonitorConfig holds the tuning knobs of the monitoring core. Values here
// are process-level policy, not per-deployment settings; the defaults match
// the documented behavior and tests pin them.
type MonitorConfig struct {
	StaleAfter      time.Duration `mapstructure:"stale_after"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	EscalationDelta float64       `mapstructure:"escalation_delta"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	NotifyTimeout   time.Duration `mapstructure:"notify_timeout"`
	DiscoveryCache  time.Duration `mapstructure:"discovery_cache"`
	LogLevel        string        `mapstructure:"log_level"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("GREENHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")

	// Database defaults
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.sslmode", "disable")

	// Redis defaults
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.db", 0)

	// Monitor defaults
	viper.SetDefault("monitor.stale_after", "1h")
	viper.SetDefault("monitor.cooldown", "15m")
	viper.SetDefault("monitor.escalation_delta", 2.0)
	viper.SetDefault("monitor.probe_timeout", "10s")
	viper.SetDefault("monitor.notify_timeout", "5s")
	viper.SetDefault("monitor.discovery_cache", "5m")
	viper.SetDefault("monitor.log_level", "info")

	// Telegram credentials come from GREENHUB_TELEGRAM__BOT_TOKEN and
	// GREENHUB_TELEGRAM__CHAT_ID; no defaults on purpose.
}

func validateConfig(config *Config) error {
	if config.Database.Postgres.Host == "" {
		return fmt.Errorf("postgres host is required")
	}
	if config.Keycloak.URL == "" {
		return fmt.Errorf("keycloak URL is required")
	}
	if config.Monitor.EscalationDelta < 0 {
		return fmt.Errorf("escalation delta must not be negative")
	}
	return nil
}
