// Package config loads client settings from the environment.
//
// Values come from DOBBLE_* environment variables, optionally seeded from a
// .env file. Command-line flags override them in the CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds client configuration.
type Config struct {
	APIURL         string        `env:"DOBBLE_API_URL"         envDefault:"http://localhost:8080"`
	WSURL          string        `env:"DOBBLE_WS_URL"          envDefault:"ws://localhost:8080/ws"`
	PlayerName     string        `env:"DOBBLE_PLAYER_NAME"     envDefault:"unknown"`
	Journal        string        `env:"DOBBLE_JOURNAL"`
	RequestTimeout time.Duration `env:"DOBBLE_REQUEST_TIMEOUT" envDefault:"10s"`
	DialAttempts   int           `env:"DOBBLE_DIAL_ATTEMPTS"   envDefault:"5"`
}

// Load reads envFiles (missing files are skipped) into the process
// environment and parses Config from it. Variables already set in the
// environment win over file values. With no envFiles, ".env" is tried.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if err := checkURL("DOBBLE_API_URL", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("DOBBLE_WS_URL", c.WSURL, "ws", "wss"); err != nil {
		return err
	}
	if c.PlayerName == "" {
		return errors.New("DOBBLE_PLAYER_NAME must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("DOBBLE_REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.DialAttempts < 1 {
		return fmt.Errorf("DOBBLE_DIAL_ATTEMPTS must be at least 1, got %d", c.DialAttempts)
	}
	return nil
}

func checkURL(name, raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%s: %q must be an absolute %s url", name, raw, schemes[0])
}
