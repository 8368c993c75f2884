// Package service defines the interfaces that wire the application together.
package service

import (
	"context"

	"github.com/yhlin/ledgersense/internal/model"
)

// Storage defines the persistence interface for rules, training data, and
// merchant mappings.
type Storage interface {
	RuleStore
	TrainingStore
	MerchantStore

	// Migrate applies any pending schema migrations.
	Migrate(ctx context.Context) error
	// Close releases the underlying database handle.
	Close() error
}

// RuleStore persists category rules.
type RuleStore interface {
	// CreateRule creates a new rule and fills in its ID.
	CreateRule(ctx context.Context, rule *model.CategoryRule) error
	// GetRule retrieves a rule by ID.
	GetRule(ctx context.Context, id int) (*model.CategoryRule, error)
	// GetActiveRules retrieves all active rules ordered by priority.
	GetActiveRules(ctx context.Context) ([]model.CategoryRule, error)
	// GetAllRules retrieves every rule regardless of active flag.
	GetAllRules(ctx context.Context) ([]model.CategoryRule, error)
	// GetRulesByCategory retrieves all rules targeting a category.
	GetRulesByCategory(ctx context.Context, category string) ([]model.CategoryRule, error)
	// UpdateRule updates an existing rule.
	UpdateRule(ctx context.Context, rule *model.CategoryRule) error
	// DeleteRule deletes a rule by ID.
	DeleteRule(ctx context.Context, id int) error
	// MarkRuleUsed increments a rule's use count and stamps last-used.
	MarkRuleUsed(ctx context.Context, id int) error
}

// TrainingStore persists the append-only training log.
type TrainingStore interface {
	// AppendTrainingData appends one training row. The row is durable when
	// the call returns.
	AppendTrainingData(ctx context.Context, row *model.CategoryTrainingData) error
	// GetAllTrainingData returns the full training log.
	GetAllTrainingData(ctx context.Context) ([]model.CategoryTrainingData, error)
	// GetRecentTrainingData returns the most recent rows, newest first.
	GetRecentTrainingData(ctx context.Context, limit int) ([]model.CategoryTrainingData, error)
	// GetRecentCorrectByUser returns the most recent rows marked correct for
	// one user, newest first.
	GetRecentCorrectByUser(ctx context.Context, userID string, limit int) ([]model.CategoryTrainingData, error)
	// CountTrainingData returns total and correct row counts.
	CountTrainingData(ctx context.Context) (total, correct int, err error)
	// CountTrainingByCategory returns row counts grouped by category.
	CountTrainingByCategory(ctx context.Context) (map[string]int, error)
}

// MerchantStore persists merchant mappings.
type MerchantStore interface {
	// GetMerchantMapping resolves a merchant name or alias to its mapping.
	// Returns common.ErrNotFound when no mapping exists.
	GetMerchantMapping(ctx context.Context, merchant string) (*model.MerchantMapping, error)
	// SaveMerchantMapping inserts or replaces a mapping.
	SaveMerchantMapping(ctx context.Context, mapping *model.MerchantMapping) error
	// GetAllMerchantMappings returns every mapping.
	GetAllMerchantMappings(ctx context.Context) ([]model.MerchantMapping, error)
}
