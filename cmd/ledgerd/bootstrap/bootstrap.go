// Package bootstrap wires the daemon's collaborators from environment
// configuration.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/claimtoken/ledger/internal/allowlist"
	"github.com/claimtoken/ledger/internal/governance"
	"github.com/claimtoken/ledger/internal/ledger"
	"github.com/claimtoken/ledger/internal/platform/config"
	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"
	"github.com/claimtoken/ledger/internal/token"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Deployment holds everything assembled from configuration: the policy, the
// token contracts, the provider allowlist and the ledger itself.
type Deployment struct {
	Policy    *governance.Policy
	Registry  *token.Registry
	Claim     *token.ClaimToken
	Whitelist *allowlist.List
	Ledger    *ledger.Ledger

	Admin   common.Address
	Service common.Address
}

// NewContextWithDevelopmentLogger returns the base context carrying the
// process logger. The logger shape follows the DEVELOPMENT environment
// variable.
func NewContextWithDevelopmentLogger() context.Context {
	return logger.NewContext()
}

// NewConfigFromEnv loads and logs the configuration, with sensitive values
// masked.
func NewConfigFromEnv(ctx context.Context) *config.Config {
	cfg, err := config.Environment()
	if err != nil {
		logger.Fatal(ctx, "Parsing config", zap.Error(err))
	}

	cfgSafe := config.SafeConfig(*cfg)
	cfgJSON, err := json.MarshalIndent(cfgSafe, "", "    ")
	if err != nil {
		logger.Fatal(ctx, "Marshalling config to JSON", zap.Error(err))
	}
	logger.Info(ctx, "Config", zap.String("values", string(cfgJSON)))

	return cfg
}

// NewMasterDB opens the storage the daemon persists all state in.
func NewMasterDB(ctx context.Context, cfg *config.Config) *db.DB {
	masterDB, err := db.New(&db.StorageConfig{
		Region:     cfg.Storage.Region,
		AccessKey:  cfg.Storage.AccessKey,
		Secret:     cfg.Storage.Secret,
		Bucket:     cfg.Storage.Bucket,
		Root:       cfg.Storage.Root,
		MaxRetries: cfg.AWS.MaxRetries,
	})
	if err != nil {
		logger.Fatal(ctx, "Register DB", zap.Error(err))
	}

	return masterDB
}

// Deploy assembles the full deployment. Previously persisted contract state
// always wins over the configured initial values, so restarting against the
// same storage resumes where the last run stopped.
func Deploy(ctx context.Context, cfg *config.Config, masterDB *db.DB) *Deployment {
	admin := mustAddress(ctx, "admin", cfg.Ledger.Admin)
	service := mustAddress(ctx, "service", cfg.Ledger.Service)

	policy, err := governance.New(ctx, masterDB, admin)
	if err != nil {
		logger.Fatal(ctx, "Create policy", zap.Error(err))
	}
	if err := policy.GrantRole(ctx, admin, governance.RoleService, service); err != nil {
		logger.Fatal(ctx, "Grant service role", zap.Error(err))
	}

	registry := token.NewRegistry()

	claim, err := token.NewClaimToken(ctx, masterDB,
		mustAddress(ctx, "claim token", cfg.Ledger.ClaimToken), "CLM")
	if err != nil {
		logger.Fatal(ctx, "Create claim token", zap.Error(err))
	}

	list, err := allowlist.New(ctx, masterDB,
		mustAddress(ctx, "whitelist", cfg.Ledger.Whitelist), admin)
	if err != nil {
		logger.Fatal(ctx, "Create allowlist", zap.Error(err))
	}
	if err := registry.Register(list.Address(), list); err != nil {
		logger.Fatal(ctx, "Register allowlist", zap.Error(err))
	}

	allowed := parseAllowedTokens(ctx, cfg.Ledger.AllowedTokens)
	for i, addr := range allowed {
		asset, err := token.NewAssetToken(ctx, masterDB, addr,
			fmt.Sprintf("ASSET%d", i))
		if err != nil {
			logger.Fatal(ctx, "Create asset token", zap.Error(err))
		}
		if err := registry.Register(addr, asset); err != nil {
			logger.Fatal(ctx, "Register asset token", zap.Error(err))
		}
	}

	l, err := ledger.New(ctx, masterDB, policy, registry, claim,
		mustAddress(ctx, "ledger", cfg.Ledger.Address),
		mustAddress(ctx, "treasury", cfg.Ledger.Treasury),
		list.Address(), allowed)
	if err != nil {
		logger.Fatal(ctx, "Create ledger", zap.Error(err))
	}

	logger.Info(ctx, "Deployment ready",
		zap.String("ledger", l.Address().Hex()),
		zap.String("claim_token", claim.Address().Hex()),
		zap.Int("allowed_tokens", len(allowed)))

	return &Deployment{
		Policy:    policy,
		Registry:  registry,
		Claim:     claim,
		Whitelist: list,
		Ledger:    l,
		Admin:     admin,
		Service:   service,
	}
}

func mustAddress(ctx context.Context, name, value string) common.Address {
	if !common.IsHexAddress(value) {
		logger.Fatal(ctx, "Invalid address",
			zap.String("name", name),
			zap.String("value", value))
	}
	return common.HexToAddress(value)
}

func parseAllowedTokens(ctx context.Context, csv string) []common.Address {
	var addrs []common.Address
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		addrs = append(addrs, mustAddress(ctx, "allowed token", part))
	}
	return addrs
}
