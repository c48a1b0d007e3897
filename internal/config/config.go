// Package config loads command-line client settings from an optional TOML
// file and BOTCIRCUITS_* environment variables. The environment wins.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	botcircuits "github.com/botcircuits/botcircuits-go-sdk"
	"github.com/botcircuits/botcircuits-go-sdk/wire"
)

// Config is the CLI configuration.
type Config struct {
	Host        string        `toml:"host" env:"BOTCIRCUITS_HOST"`
	AppID       string        `toml:"app_id" env:"BOTCIRCUITS_APP_ID"`
	APIKey      string        `toml:"api_key" env:"BOTCIRCUITS_API_KEY"`
	SessionID   string        `toml:"session_id" env:"BOTCIRCUITS_SESSION_ID"`
	Revision    wire.Revision `toml:"revision" env:"BOTCIRCUITS_REVISION"`
	DialTimeout time.Duration `toml:"dial_timeout" env:"BOTCIRCUITS_DIAL_TIMEOUT"`
	SendTimeout time.Duration `toml:"send_timeout" env:"BOTCIRCUITS_SEND_TIMEOUT"`
	LogLevel    string        `toml:"log_level" env:"BOTCIRCUITS_LOG_LEVEL"`
	LogFormat   string        `toml:"log_format" env:"BOTCIRCUITS_LOG_FORMAT"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		DialTimeout: 10 * time.Second,
		SendTimeout: 10 * time.Second,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("load config %s: unknown keys %v", path, undecoded)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the connection settings are present.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "host (BOTCIRCUITS_HOST)")
	}
	if strings.TrimSpace(c.AppID) == "" {
		missing = append(missing, "app_id (BOTCIRCUITS_APP_ID)")
	}
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "api_key (BOTCIRCUITS_API_KEY)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing %s", strings.Join(missing, ", "))
	}
	if c.DialTimeout < 0 || c.SendTimeout < 0 {
		return fmt.Errorf("config: timeouts must not be negative")
	}
	return nil
}

// ClientConfig converts c for botcircuits.New.
func (c Config) ClientConfig(logger *slog.Logger) botcircuits.Config {
	return botcircuits.Config{
		Host:        c.Host,
		AppID:       c.AppID,
		Credential:  c.APIKey,
		Revision:    c.Revision,
		DialTimeout: c.DialTimeout,
		SendTimeout: c.SendTimeout,
		Logger:      logger,
	}
}
