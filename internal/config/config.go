package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Runa"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"runa"`
	}

	TUI struct {
		// UserID selects whose data the terminal client works with.
		UserID string `envconfig:"TUI_USER_ID"`
	}

	Ledger struct {
		// EnforceCreditLimit rejects expenses that would push a credit card
		// past its limit instead of letting the balance overshoot.
		EnforceCreditLimit bool `envconfig:"LEDGER_ENFORCE_CREDIT_LIMIT" default:"false"`

		// DueWindow is how far ahead the schedule view looks for upcoming
		// payments and payouts.
		DueWindow time.Duration `envconfig:"LEDGER_DUE_WINDOW" default:"168h"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
