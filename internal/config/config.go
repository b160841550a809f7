// Package config loads server settings from the environment and command line.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/pflag"
)

// Store drivers
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds every runtime setting of the server
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Store           string        `env:"AUCTION_STORE" envDefault:"sqlite"`
	DBPath          string        `env:"AUCTION_DB_PATH" envDefault:"auction.db"`
	ResolveInterval time.Duration `env:"AUCTION_RESOLVE_INTERVAL" envDefault:"2m30s"`
	ResolveWorkers  int           `env:"AUCTION_RESOLVE_WORKERS" envDefault:"4"`
	JWTSecret       string        `env:"AUCTION_JWT_SECRET,required"`
	TokenTTL        time.Duration `env:"AUCTION_TOKEN_TTL" envDefault:"24h"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	Seed            bool          `env:"AUCTION_SEED" envDefault:"false"`
}

// Load reads the environment, then applies command-line overrides from args
func Load(args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	flagSet := pflag.NewFlagSet("auction-server", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flagSet.StringVar(&cfg.Store, "store", cfg.Store, "storage driver: sqlite or memory")
	flagSet.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "SQLite database file")
	flagSet.DurationVar(&cfg.ResolveInterval, "resolve-interval", cfg.ResolveInterval, "how often expired auctions are resolved")
	flagSet.BoolVar(&cfg.Seed, "seed", cfg.Seed, "populate demo auctions on startup")

	if err := flagSet.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return Config{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("db path is required for the sqlite store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.ResolveInterval <= 0 {
		errs = append(errs, errors.New("resolve interval must be positive"))
	}
	if c.ResolveWorkers <= 0 {
		errs = append(errs, errors.New("resolve workers must be positive"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token ttl must be positive"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c Config) Addr() string {
	return ":" + c.Port
}
