package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Rana718/botseed/internal/config"
	"github.com/Rana718/botseed/internal/database"
	"github.com/Rana718/botseed/internal/logger"
	"github.com/Rana718/botseed/internal/schema"
	"github.com/Rana718/botseed/internal/seeder"
)

// openStore connects to the configured database, or to a fresh in-memory
// store when memory is set.
func openStore(ctx context.Context, cfg *config.Config, memory bool) (database.Adapter, error) {
	provider := cfg.Database.Provider
	if memory {
		provider = "memory"
	}

	var dbURL string
	if provider != "memory" {
		var err error
		if dbURL, err = cfg.GetDatabaseURL(); err != nil {
			return nil, err
		}
	}

	adapter := database.NewAdapter(provider)
	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.FromContext(ctx).Debug("connected", "provider", provider)
	return adapter, nil
}

func newSeeder(cfg *config.Config, store seeder.Storage, opts ...seeder.Option) (*seeder.Seeder, error) {
	values, err := seeder.NewFakeProvider(cfg.Seed.Locale, cfg.Seed.RandomSeed)
	if err != nil {
		return nil, err
	}
	policy, err := seeder.ParseSelectionPolicy(cfg.Seed.Selection)
	if err != nil {
		return nil, err
	}

	window := time.Duration(cfg.Seed.WindowDays) * 24 * time.Hour
	opts = append([]seeder.Option{
		seeder.WithSelection(policy),
		seeder.WithSeed(cfg.Seed.RandomSeed),
		seeder.WithFactoryOptions(seeder.WithWindow(window)),
	}, opts...)

	return seeder.New(schema.BotPlatform(), store, values, opts...), nil
}
