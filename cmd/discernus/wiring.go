package main

import (
	"context"
	"fmt"
	"os"

	"github.com/discernus/discernus-core/internal/apikey"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/config"
	"github.com/discernus/discernus-core/internal/gateway"
	"github.com/discernus/discernus-core/internal/logutil"
	"github.com/discernus/discernus-core/internal/metrics"
	"github.com/discernus/discernus-core/internal/prompt"
	"github.com/discernus/discernus-core/internal/registry"
)

// runtime bundles everything every subcommand needs to talk to the
// CAS and the Gateway, built once per invocation from environment and
// flags rather than carried as package-level globals.
type runtime struct {
	store    *cas.Store
	gateway  *gateway.Gateway
	prompts  *prompt.Manager
	logger   logutil.LoggerInterface
}

func newRuntime(ctx context.Context, casRoot string, dailyBudgetUSD float64) (*runtime, error) {
	logger := logutil.NewLogger(logutil.InfoLevel, os.Stderr, "discernus")

	store, err := cas.Open(casRoot)
	if err != nil {
		return nil, fmt.Errorf("open artifact store at %s: %w", casRoot, err)
	}

	reg := registry.NewRegistry(logger)
	if err := reg.LoadConfig(ctx, registry.NewConfigLoader(logger)); err != nil {
		return nil, fmt.Errorf("load model registry: %w", err)
	}

	keyResolver := apikey.NewAPIKeyResolver(logger)
	apiKeyFor := func(provider string) string {
		result, err := keyResolver.ResolveAPIKey(ctx, provider, "")
		if err != nil {
			return ""
		}
		return result.Key
	}

	collector := metrics.NewNoopCollector()
	gw := gateway.New(reg, store, collector, logger, apiKeyFor)
	if dailyBudgetUSD > 0 {
		gw = gw.WithBudget(&gateway.Budget{LimitUSD: dailyBudgetUSD})
	}

	// The config manager gives an operator a place to drop
	// user/system-level template overrides (e.g. a house analysis
	// prompt) without touching the binary; LoadFromFiles falls back to
	// in-memory defaults when no config.toml exists yet, so a fresh
	// install never fails here.
	configManager := config.NewManager(logger)
	if err := configManager.LoadFromFiles(); err != nil {
		return nil, fmt.Errorf("load template configuration: %w", err)
	}
	prompts := prompt.CreatePromptManager(configManager, logger)

	return &runtime{store: store, gateway: gw, prompts: prompts, logger: logger}, nil
}
