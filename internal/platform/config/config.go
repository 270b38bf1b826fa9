package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config is used to hold all runtime configuration.
type Config struct {
	Ledger struct {
		Address       string `envconfig:"LEDGER_ADDRESS"`
		ClaimToken    string `envconfig:"CLAIM_TOKEN_ADDRESS"`
		Treasury      string `envconfig:"TREASURY_ADDRESS"`
		Whitelist     string `envconfig:"WHITELIST_ADDRESS"`
		AllowedTokens string `envconfig:"ALLOWED_TOKENS"` // comma separated hex addresses
		Admin         string `envconfig:"ADMIN_ADDRESS"`
		Service       string `envconfig:"SERVICE_ADDRESS"`
	}
	Web struct {
		Address         string `default:":8080" envconfig:"WEB_ADDRESS"`
		ReadTimeout     int    `default:"5" envconfig:"WEB_READ_TIMEOUT"`     // seconds
		WriteTimeout    int    `default:"10" envconfig:"WEB_WRITE_TIMEOUT"`   // seconds
		ShutdownTimeout int    `default:"15" envconfig:"WEB_SHUTDOWN_TIMEOUT"` // seconds
	}
	Auth struct {
		Secret string `envconfig:"AUTH_SECRET" json:"AUTH_SECRET"`
		Issuer string `default:"ledgerd" envconfig:"AUTH_ISSUER"`
	}
	AWS struct {
		MaxRetries int `default:"10" envconfig:"AWS_MAX_RETRIES"`
		RetryDelay int `default:"2000" envconfig:"AWS_RETRY_DELAY"` // Milliseconds between retries
	}
	Storage struct {
		Region    string `default:"ap-southeast-2" envconfig:"LEDGER_STORAGE_REGION"`
		AccessKey string `envconfig:"LEDGER_STORAGE_ACCESS_KEY" json:"LEDGER_STORAGE_ACCESS_KEY"`
		Secret    string `envconfig:"LEDGER_STORAGE_SECRET" json:"LEDGER_STORAGE_SECRET"`
		Bucket    string `default:"standalone" envconfig:"LEDGER_STORAGE_BUCKET"`
		Root      string `default:"./tmp" envconfig:"LEDGER_STORAGE_ROOT"`
	}
}

// Environment returns configuration sourced from environment variables.
func Environment() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LEDGER", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SafeConfig returns a copy of the config with sensitive values masked.
func SafeConfig(cfg Config) *Config {
	cfgSafe := cfg

	if len(cfgSafe.Auth.Secret) > 0 {
		cfgSafe.Auth.Secret = "*** Masked ***"
	}
	if len(cfgSafe.Storage.Secret) > 0 {
		cfgSafe.Storage.Secret = "*** Masked ***"
	}
	if len(cfgSafe.Storage.AccessKey) > 0 {
		cfgSafe.Storage.AccessKey = "*** Masked ***"
	}

	return &cfgSafe
}
