package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/yhlin/ledgersense/internal/config"
	"github.com/yhlin/ledgersense/internal/learning"
	"github.com/yhlin/ledgersense/internal/rules"
	"github.com/yhlin/ledgersense/internal/service"
	"github.com/yhlin/ledgersense/internal/storage"
	"github.com/yhlin/ledgersense/internal/suggest"
)

// loadConfig reads the typed configuration from the viper state set up
// by initConfig.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = config.DefaultDBPath()
	}
	return cfg, nil
}

// initStorage opens the SQLite store, runs migrations, and seeds the
// rule and merchant tables when seed files are configured.
func initStorage(ctx context.Context, cfg *config.Config) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if cfg.Database.SeedOnStartup {
		if cfg.Database.RulesSeed != "" {
			if err := store.SeedRules(ctx, cfg.Database.RulesSeed); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("failed to seed rules: %w", err)
			}
		}
		if cfg.Database.MerchantsSeed != "" {
			if err := store.SeedMerchantMappings(ctx, cfg.Database.MerchantsSeed); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("failed to seed merchant mappings: %w", err)
			}
		}
	}

	return store, nil
}

// buildServices wires the suggestion ranker and learning service on
// top of an open store.
func buildServices(store service.Storage, cfg *config.Config) (*suggest.Ranker, *learning.Service) {
	dict := rules.DefaultDictionary()

	ranker := suggest.NewRanker(store, dict, suggest.Config{
		MaxSuggestions: cfg.Suggest.MaxSuggestions,
		HistoryWindow:  cfg.Suggest.HistoryWindow,
	})

	learner := learning.NewService(store, dict, learning.Config{
		MinKeywordCount:    cfg.Learning.MinKeywordCount,
		MinKeywordRatio:    cfg.Learning.MinKeywordRatio,
		MaxKeywordsPerRule: cfg.Learning.MaxKeywordsPerRule,
		RecentSampleSize:   cfg.Learning.RecentSampleSize,
	})

	return ranker, learner
}
