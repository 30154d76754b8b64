package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	Session  SessionConfig
	LLM      LLMConfig
	Export   ExportConfig
	Server   ServerConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// SessionConfig holds canvas session settings.
type SessionConfig struct {
	AppName      string `mapstructure:"app_name"`
	Profile      string
	LockPIN      string `mapstructure:"lock_pin"`
	Incognito    bool
	MaxBlobBytes int `mapstructure:"max_blob_bytes"`
}

// LLMConfig holds provider settings.
type LLMConfig struct {
	Provider  string
	APIKeyEnv string `mapstructure:"api_key_env"`
	APIKey    string `mapstructure:"api_key"`
	Model     string
	Endpoint  string
	Timeout   time.Duration
}

type ExportConfig struct {
	Dir string
}

type ServerConfig struct {
	Addr string
}

var ErrInvalidPIN = errors.New("session.lock_pin must be exactly 4 digits")

// Load reads configuration from file and env. Env var overrides use prefix CLARITYCANVAS_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path := os.Getenv("CLARITYCANVAS_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CLARITYCANVAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.Validate()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join(dataDir(), "claritycanvas.db"))
	v.SetDefault("session.app_name", "Clarity Canvas")
	v.SetDefault("session.profile", "")
	v.SetDefault("session.lock_pin", "1234")
	v.SetDefault("session.incognito", false)
	v.SetDefault("session.max_blob_bytes", 5<<20)
	v.SetDefault("llm.provider", "offline")
	v.SetDefault("llm.api_key_env", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.endpoint", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("export.dir", ".")
	v.SetDefault("server.addr", ":8080")
}

// Validate checks the values the session cannot start without.
func (c Config) Validate() error {
	pin := c.Session.LockPIN
	if len(pin) != 4 {
		return ErrInvalidPIN
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPIN
		}
	}
	if c.Session.MaxBlobBytes < 0 {
		return fmt.Errorf("session.max_blob_bytes must not be negative")
	}
	return nil
}

// EnsureProfile assigns a profile id on first run and saves it, so the
// stored session survives restarts.
func EnsureProfile(c *Config) (bool, error) {
	if strings.TrimSpace(c.Session.Profile) != "" {
		return false, nil
	}
	id := uuid.NewString()
	if err := saveProfile(id); err != nil {
		return true, err
	}
	c.Session.Profile = id
	return true, nil
}

// saveProfile sets session.profile in the config file and leaves every
// other key as the file had it. Values from env or defaults are not written.
func saveProfile(id string) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	v.Set("session.profile", id)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Path is the config file Load reads and EnsureProfile writes.
func Path() string {
	if p := os.Getenv("CLARITYCANVAS_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "claritycanvas")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "claritycanvas")
}

func dataDir() string {
	if x := os.Getenv("XDG_DATA_HOME"); x != "" {
		return filepath.Join(x, "claritycanvas")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "claritycanvas")
}
