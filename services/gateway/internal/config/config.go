package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/accordsai/eventledger/pkg/gateway"
	"github.com/accordsai/eventledger/pkg/gateway/fabric"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port int `env:"PORT" envDefault:"3000"`

	Identity string `env:"GATEWAY_IDENTITY" envDefault:"Admin@eventtickets.com"`
	Channel  string `env:"GATEWAY_CHANNEL" envDefault:"eventorgchannel"`
	Contract string `env:"GATEWAY_CONTRACT" envDefault:"eventticketmgt"`

	ConnectionProfile string `env:"CONNECTION_PROFILE" envDefault:"connection.json"`
	WalletPath        string `env:"WALLET_PATH" envDefault:"wallet"`
	WalletDatabaseURL string `env:"WALLET_DATABASE_URL"`
	AsLocalhost       bool   `env:"GATEWAY_AS_LOCALHOST" envDefault:"true"`

	EvaluateTimeout     time.Duration `env:"GATEWAY_EVALUATE_TIMEOUT" envDefault:"5s"`
	EndorseTimeout      time.Duration `env:"GATEWAY_ENDORSE_TIMEOUT" envDefault:"15s"`
	SubmitTimeout       time.Duration `env:"GATEWAY_SUBMIT_TIMEOUT" envDefault:"5s"`
	CommitStatusTimeout time.Duration `env:"GATEWAY_COMMIT_STATUS_TIMEOUT" envDefault:"1m"`
	AllowEmptyResult    bool          `env:"GATEWAY_ALLOW_EMPTY_RESULT" envDefault:"false"`

	StaticDir      string  `env:"STATIC_DIR" envDefault:"public"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"true"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT must be between 1 and 65535")
	}
	if c.Identity == "" || c.Channel == "" || c.Contract == "" {
		return errors.New("GATEWAY_IDENTITY, GATEWAY_CHANNEL and GATEWAY_CONTRACT are required")
	}
	if c.ConnectionProfile == "" {
		return errors.New("CONNECTION_PROFILE is required")
	}
	return nil
}

func (c Config) Scope() gateway.Scope {
	return gateway.Scope{Identity: c.Identity, Channel: c.Channel, Contract: c.Contract}
}

func (c Config) Timeouts() fabric.Timeouts {
	return fabric.Timeouts{
		Evaluate:     c.EvaluateTimeout,
		Endorse:      c.EndorseTimeout,
		Submit:       c.SubmitTimeout,
		CommitStatus: c.CommitStatusTimeout,
	}
}
