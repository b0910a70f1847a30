// Package config loads kiosk settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every TAPCART_* setting.
type Config struct {
	DB          string `env:"DB"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile     string `env:"LOG_FILE"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	CameraDevice     string `env:"CAMERA_DEVICE"`
	CameraWidth      uint32 `env:"CAMERA_WIDTH" envDefault:"640"`
	CameraHeight     uint32 `env:"CAMERA_HEIGHT" envDefault:"480"`
	CameraPrequalify bool   `env:"CAMERA_PREQUALIFY" envDefault:"false"`
	NFCReader        string `env:"NFC_READER"`
	Audio            string `env:"AUDIO" envDefault:"aplay"`

	Simulate      bool   `env:"SIMULATE" envDefault:"false"`
	SimIdentifier string `env:"SIM_IDENTIFIER" envDefault:"S1234567"`

	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	TelegramToken string `env:"TELEGRAM_TOKEN"`

	PruneSpec          string        `env:"PRUNE_SPEC" envDefault:"0 3 * * *"`
	ScanEventRetention time.Duration `env:"SCAN_EVENT_RETENTION" envDefault:"720h"`

	MaxQuantity int    `env:"MAX_QUANTITY" envDefault:"100"`
	Currency    string `env:"CURRENCY" envDefault:"USD"`
}

// Prefix is prepended to every variable name.
const Prefix = "TAPCART_"

// Load reads .env files (missing files are ignored; existing variables win)
// and parses the environment. A malformed .env file is an error.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from TAPCART_* environment variables.
func ParseEnv(target any) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: Prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	switch c.Audio {
	case "aplay", "bell", "none":
	default:
		return fmt.Errorf("%sAUDIO: unknown backend %q (want aplay, bell or none)", Prefix, c.Audio)
	}
	if c.MaxQuantity <= 0 {
		return fmt.Errorf("%sMAX_QUANTITY must be positive, got %d", Prefix, c.MaxQuantity)
	}
	if c.ScanEventRetention <= 0 {
		return fmt.Errorf("%sSCAN_EVENT_RETENTION must be positive, got %s", Prefix, c.ScanEventRetention)
	}
	return nil
}

// IsProduction reports whether logs should be machine readable.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}
