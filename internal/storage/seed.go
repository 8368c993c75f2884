package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/yhlin/ledgersense/internal/model"
)

// SeedRules loads rules from a JSON array file into an empty rule table.
// An absent file means an empty seed set; a populated table is left alone so
// seeding is idempotent across restarts.
func (s *SQLiteStorage) SeedRules(ctx context.Context, path string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM category_rules").Scan(&count); err != nil {
		return fmt.Errorf("failed to count rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	var seed []model.CategoryRule
	if err := readJSONArray(path, &seed); err != nil {
		return err
	}

	for i := range seed {
		seed[i].IsActive = true
		if seed[i].Source == "" {
			seed[i].Source = model.RuleSourceManual
		}
		if err := s.CreateRule(ctx, &seed[i]); err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", seed[i].Name, err)
		}
	}

	if len(seed) > 0 {
		slog.Info("Seeded category rules", "count", len(seed), "path", path)
	}

	return nil
}

// SeedMerchantMappings loads merchant mappings from a JSON array file,
// upserting by merchant name. An absent file means an empty seed set.
func (s *SQLiteStorage) SeedMerchantMappings(ctx context.Context, path string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	var seed []model.MerchantMapping
	if err := readJSONArray(path, &seed); err != nil {
		return err
	}

	for i := range seed {
		if seed[i].Confidence == 0 {
			seed[i].Confidence = 0.9
		}
		if seed[i].Canonical == "" {
			seed[i].Canonical = seed[i].Merchant
		}
		if err := s.SaveMerchantMapping(ctx, &seed[i]); err != nil {
			return fmt.Errorf("failed to seed merchant %q: %w", seed[i].Merchant, err)
		}
	}

	if len(seed) > 0 {
		slog.Info("Seeded merchant mappings", "count", len(seed), "path", path)
	}

	return nil
}

// readJSONArray deserializes a JSON array file, defaulting to an empty list
// when the file is absent.
func readJSONArray(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	return nil
}
