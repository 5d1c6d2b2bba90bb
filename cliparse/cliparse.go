package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string
	TokenSecret  string

	// Payments
	PremiumPrice       int64
	EnforceBalance     bool
	DefaultCoinBalance int64
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("quorum", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or memory)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "Agent token signing secret (prefer env)")

	fs.Int64Var(&cfg.PremiumPrice, "premium-price", 0, "Premium upgrade price in coins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "memory":
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" && cfg.DatabaseType != "memory" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.TokenSecret == "" {
		cfg.TokenSecret = os.Getenv("AGENT_TOKEN_SECRET")
	}
	if cfg.TokenSecret == "" {
		return Config{}, errors.New("AGENT_TOKEN_SECRET required")
	}

	if cfg.PremiumPrice == 0 {
		price, err := envInt64("PREMIUM_PRICE", 1000)
		if err != nil {
			return Config{}, err
		}
		cfg.PremiumPrice = price
	}
	if cfg.PremiumPrice <= 0 {
		return Config{}, errors.New("premium price must be positive")
	}

	balance, err := envInt64("DEFAULT_COIN_BALANCE", 0)
	if err != nil {
		return Config{}, err
	}
	cfg.DefaultCoinBalance = balance

	if v := os.Getenv("ENFORCE_PAYMENT_BALANCE"); v != "" {
		enforce, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, errors.New("invalid ENFORCE_PAYMENT_BALANCE env variable")
		}
		cfg.EnforceBalance = enforce
	}

	return cfg, nil
}

func envInt64(name string, fallback int64) (int64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env variable", name)
	}
	return n, nil
}
