package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

// merchantCacheTTL bounds how stale the in-memory mapping cache may get.
const merchantCacheTTL = 5 * time.Minute

// GetMerchantMapping resolves a merchant name or alias to its mapping.
// Lookup is case-insensitive: exact merchant name first, then aliases.
func (s *SQLiteStorage) GetMerchantMapping(ctx context.Context, merchant string) (*model.MerchantMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(merchant, "merchant"); err != nil {
		return nil, err
	}

	if err := s.refreshMerchantCache(ctx); err != nil {
		return nil, err
	}

	key := strings.ToLower(strings.TrimSpace(merchant))

	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if mapping, ok := s.merchantCache[key]; ok {
		copied := *mapping
		return &copied, nil
	}

	for _, mapping := range s.merchantCache {
		for _, alias := range mapping.Aliases {
			if strings.ToLower(alias) == key {
				copied := *mapping
				return &copied, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: merchant %q", common.ErrNotFound, merchant)
}

// SaveMerchantMapping inserts or replaces a mapping and invalidates the cache.
func (s *SQLiteStorage) SaveMerchantMapping(ctx context.Context, mapping *model.MerchantMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMerchantMapping(mapping); err != nil {
		return err
	}

	query := `
		INSERT INTO merchant_mappings (merchant, canonical, category, aliases, confidence, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(merchant) DO UPDATE SET
			canonical = excluded.canonical,
			category = excluded.category,
			aliases = excluded.aliases,
			confidence = excluded.confidence,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := s.db.ExecContext(ctx, query,
		mapping.Merchant, mapping.Canonical, mapping.Category,
		encodeStrings(mapping.Aliases), mapping.Confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to save merchant mapping: %w", err)
	}

	s.cacheMutex.Lock()
	s.cacheExpiry = time.Time{}
	s.cacheMutex.Unlock()

	return nil
}

// GetAllMerchantMappings returns every mapping.
func (s *SQLiteStorage) GetAllMerchantMappings(ctx context.Context) ([]model.MerchantMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT merchant, canonical, category, aliases, confidence, updated_at FROM merchant_mappings ORDER BY merchant ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query merchant mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.MerchantMapping
	for rows.Next() {
		var mapping model.MerchantMapping
		var aliases string
		err := rows.Scan(&mapping.Merchant, &mapping.Canonical, &mapping.Category,
			&aliases, &mapping.Confidence, &mapping.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant mapping: %w", err)
		}
		mapping.Aliases = decodeStrings(aliases)
		out = append(out, mapping)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating merchant mappings: %w", err)
	}

	return out, nil
}

// refreshMerchantCache reloads the mapping cache when it has expired.
func (s *SQLiteStorage) refreshMerchantCache(ctx context.Context) error {
	s.cacheMutex.RLock()
	fresh := time.Now().Before(s.cacheExpiry)
	s.cacheMutex.RUnlock()
	if fresh {
		return nil
	}

	mappings, err := s.GetAllMerchantMappings(ctx)
	if err != nil {
		return err
	}

	cache := make(map[string]*model.MerchantMapping, len(mappings))
	for i := range mappings {
		cache[strings.ToLower(mappings[i].Merchant)] = &mappings[i]
	}

	s.cacheMutex.Lock()
	s.merchantCache = cache
	s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	s.cacheMutex.Unlock()

	return nil
}
