package config

import (
	"fmt"
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Owner string `yaml:"owner"`
	Bank  struct {
		Cap           string `yaml:"cap"`            // stable units, 6 decimals
		WithdrawLimit string `yaml:"withdraw_limit"` // native units, 18 decimals
		StateFile     string `yaml:"state_file"`
	} `yaml:"bank"`
	Oracle struct {
		Endpoint        string `yaml:"endpoint"`
		APIKey          string `yaml:"api_key"`
		StaticPrice     string `yaml:"static_price"` // dev override; bypasses the endpoint
		StaticPrecision uint32 `yaml:"static_precision"`
	} `yaml:"oracle"`
	Custody struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"custody"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Listen string `yaml:"listen"`
	} `yaml:"server"`
	Webhook struct {
		URL    string `yaml:"url"`
		Secret string `yaml:"secret"`
	} `yaml:"webhook"`
	Schedule struct {
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BANK_OWNER"); v != "" {
		cfg.Owner = v
	}
	if v := os.Getenv("BANK_CAP"); v != "" {
		cfg.Bank.Cap = v
	}
	if v := os.Getenv("BANK_WITHDRAW_LIMIT"); v != "" {
		cfg.Bank.WithdrawLimit = v
	}
	if v := os.Getenv("ORACLE_ENDPOINT"); v != "" {
		cfg.Oracle.Endpoint = v
	}
	if v := os.Getenv("ORACLE_API_KEY"); v != "" {
		cfg.Oracle.APIKey = v
	}
	if v := os.Getenv("CUSTODY_BASE_URL"); v != "" {
		cfg.Custody.BaseURL = v
	}
	if v := os.Getenv("CUSTODY_API_KEY"); v != "" {
		cfg.Custody.APIKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Listen = v
	}
	if v := os.Getenv("WEBHOOK_URL"); v != "" {
		cfg.Webhook.URL = v
	}

	// Defaults
	if cfg.Bank.StateFile == "" {
		cfg.Bank.StateFile = "data/ledger_state.json"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/token_bank.db"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 0 * * * *"
	}
	if cfg.Oracle.StaticPrice != "" && cfg.Oracle.StaticPrecision == 0 {
		cfg.Oracle.StaticPrecision = 8
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("owner is required")
	}
	if c.Oracle.Endpoint == "" && c.Oracle.StaticPrice == "" {
		return fmt.Errorf("oracle.endpoint or oracle.static_price is required")
	}
	if _, err := nonNegativeInt(c.Bank.Cap); err != nil {
		return fmt.Errorf("bank.cap: %w", err)
	}
	if _, err := nonNegativeInt(c.Bank.WithdrawLimit); err != nil {
		return fmt.Errorf("bank.withdraw_limit: %w", err)
	}
	return nil
}

// Cap returns the parsed global cap. Call Validate first.
func (c *Config) Cap() *big.Int {
	v, _ := nonNegativeInt(c.Bank.Cap)
	return v
}

// WithdrawLimit returns the parsed per-transaction limit. Call Validate first.
func (c *Config) WithdrawLimit() *big.Int {
	v, _ := nonNegativeInt(c.Bank.WithdrawLimit)
	return v
}

func nonNegativeInt(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("value is required")
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", raw)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("must be non-negative, got %s", raw)
	}
	return v, nil
}
