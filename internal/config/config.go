package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. CHATLOG_DATABASE_DSN.
const EnvPrefix = "CHATLOG"

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port         int           `json:"port" mapstructure:"port"`
		Host         string        `json:"host" mapstructure:"host"`
		ReadTimeout  time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
		WriteTimeout time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
		MaxBodyBytes int64         `json:"max_body_bytes" mapstructure:"max_body_bytes"`
		ForceHTTPS   bool          `json:"force_https" mapstructure:"force_https"`
	} `json:"server" mapstructure:"server"`
	Database struct {
		Driver string `json:"driver" mapstructure:"driver"`
		DSN    string `json:"dsn" mapstructure:"dsn"`
	} `json:"database" mapstructure:"database"`
	Logging struct {
		Level string `json:"level" mapstructure:"level"`
		Path  string `json:"path" mapstructure:"path"`
	} `json:"logging" mapstructure:"logging"`
	Features struct {
		ExclusionFilters bool `json:"exclusion_filters" mapstructure:"exclusion_filters"`
		ContactDirectory bool `json:"contact_directory" mapstructure:"contact_directory"`
		AutoAlerts       bool `json:"auto_alerts" mapstructure:"auto_alerts"`
	} `json:"features" mapstructure:"features"`
	Session struct {
		Window time.Duration `json:"window" mapstructure:"window"`
	} `json:"session" mapstructure:"session"`
}

// LoadConfig loads configuration from a JSON or YAML file. Values missing from
// the file fall back to DefaultConfig, and CHATLOG_* environment variables win
// over both.
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	v := newViper()
	v.SetConfigFile(cleanPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return decode(v)
}

// Load returns DefaultConfig with environment overrides when path is empty,
// and LoadConfig(path) otherwise.
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return decode(newViper())
	}
	return LoadConfig(path)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Server.ReadTimeout = 15 * time.Second
	config.Server.WriteTimeout = 15 * time.Second
	config.Server.MaxBodyBytes = 1 << 20
	config.Database.Driver = "sqlite3"
	config.Database.DSN = "file:chatlog.db?cache=shared&mode=rwc"
	config.Logging.Level = "info"
	config.Logging.Path = "server.log"
	config.Features.ExclusionFilters = true
	config.Features.ContactDirectory = true
	config.Features.AutoAlerts = true
	config.Session.Window = 24 * time.Hour
	return config
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("invalid server port")
	}
	switch c.Database.Driver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database dsn is required")
	}
	if c.Session.Window <= 0 {
		return errors.New("session window must be positive")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	def := DefaultConfig()

	v.SetDefault("server.port", def.Server.Port)
	v.SetDefault("server.host", def.Server.Host)
	v.SetDefault("server.read_timeout", def.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", def.Server.WriteTimeout)
	v.SetDefault("server.max_body_bytes", def.Server.MaxBodyBytes)
	v.SetDefault("server.force_https", def.Server.ForceHTTPS)
	v.SetDefault("database.driver", def.Database.Driver)
	v.SetDefault("database.dsn", def.Database.DSN)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.path", def.Logging.Path)
	v.SetDefault("features.exclusion_filters", def.Features.ExclusionFilters)
	v.SetDefault("features.contact_directory", def.Features.ContactDirectory)
	v.SetDefault("features.auto_alerts", def.Features.AutoAlerts)
	v.SetDefault("session.window", def.Session.Window)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &config, nil
}
