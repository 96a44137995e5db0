package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Collaborator CollaboratorConfig `mapstructure:"collaborator"`
	Hover        HoverConfig        `mapstructure:"hover"`
	Session      SessionConfig      `mapstructure:"session"`
	Journal      JournalConfig      `mapstructure:"journal"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Log          LogConfig          `mapstructure:"log"`
	JWTSecret    string             `mapstructure:"jwt_secret"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CollaboratorConfig points at the services that render, generate and save
// mapping files.
type CollaboratorConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

func (c CollaboratorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

type HoverConfig struct {
	HideDelayMs int `mapstructure:"hide_delay_ms"`
}

func (h HoverConfig) HideDelay() time.Duration {
	return time.Duration(h.HideDelayMs) * time.Millisecond
}

type SessionConfig struct {
	IdleTimeoutMin  int `mapstructure:"idle_timeout_min"`
	ReapIntervalSec int `mapstructure:"reap_interval_sec"`
}

func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMin) * time.Minute
}

func (s SessionConfig) ReapInterval() time.Duration {
	return time.Duration(s.ReapIntervalSec) * time.Second
}

type JournalConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	BufferSize      int  `mapstructure:"buffer_size"`
	FlushIntervalMs int  `mapstructure:"flush_interval_ms"`
	RetentionDays   int  `mapstructure:"retention_days"`
}

func (j JournalConfig) FlushInterval() time.Duration {
	return time.Duration(j.FlushIntervalMs) * time.Millisecond
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
	Path     string `mapstructure:"path"` // directory for SQLite database files
}

type AuthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DSN returns the driver-specific data source name.
func (d DatabaseConfig) DSN() string {
	if d.IsSQLite() {
		return d.Path + "/" + d.Name + ".db"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsSQLite returns true if the driver is sqlite.
func (d DatabaseConfig) IsSQLite() bool {
	return d.Driver == "sqlite"
}

// Load reads editor.yaml from the working directory (or ../..), or from file
// when given, then applies EDITOR_* environment overrides. A .env file in the
// working directory is loaded into the environment first.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("editor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("../..")
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("collaborator.base_url", "http://localhost:5000")
	v.SetDefault("collaborator.timeout_ms", 30000)
	v.SetDefault("hover.hide_delay_ms", 100)
	v.SetDefault("session.idle_timeout_min", 120)
	v.SetDefault("session.reap_interval_sec", 60)
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.buffer_size", 200)
	v.SetDefault("journal.flush_interval_ms", 500)
	v.SetDefault("journal.retention_days", 30)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "editor")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("database.path", "./data")
	v.SetDefault("auth.enabled", false)
	v.SetDefault("jwt_secret", "changeme-secret")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetEnvPrefix("EDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
