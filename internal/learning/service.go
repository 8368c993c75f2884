// Package learning accumulates category feedback and turns it back into
// rules and accuracy reports.
package learning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
	"github.com/yhlin/ledgersense/internal/service"
)

// Config holds the rule-generation thresholds.
type Config struct {
	// MinKeywordCount is how often a keyword must appear in correct rows of
	// a category before it can seed a rule.
	MinKeywordCount int
	// MinKeywordRatio is the minimum share of a keyword's appearances that
	// must belong to the category.
	MinKeywordRatio float64
	// MaxKeywordsPerRule bounds the keyword set of a generated rule.
	MaxKeywordsPerRule int
	// RecentSampleSize is how many rows the statistics report samples.
	RecentSampleSize int
}

// Service implements feedback recording, rule generation, and accuracy
// evaluation over the training log.
type Service struct {
	store        service.Storage
	dict         *rules.Dictionary
	cfg          Config
	regenerating atomic.Bool
}

// NewService creates a learning service with the given thresholds.
func NewService(store service.Storage, dict *rules.Dictionary, cfg Config) *Service {
	if cfg.MinKeywordCount <= 0 {
		cfg.MinKeywordCount = 3
	}
	if cfg.MinKeywordRatio <= 0 {
		cfg.MinKeywordRatio = 0.75
	}
	if cfg.MaxKeywordsPerRule <= 0 {
		cfg.MaxKeywordsPerRule = 5
	}
	if cfg.RecentSampleSize <= 0 {
		cfg.RecentSampleSize = 10
	}
	return &Service{store: store, dict: dict, cfg: cfg}
}

// RecordFeedback converts one feedback submission into a training row and
// appends it. Re-submitting identical feedback appends another row; the read
// side only derives aggregate statistics, so duplicates are harmless.
// Correct feedback also bumps the use count of the rule that would have
// produced the suggestion.
func (s *Service) RecordFeedback(ctx context.Context, fb model.CategoryFeedback) error {
	if strings.TrimSpace(fb.Category) == "" {
		return common.ErrEmptyCategory
	}

	row := model.CategoryTrainingData{
		Category:     fb.Category,
		Description:  fb.Description,
		Merchant:     fb.Merchant,
		Amount:       fb.Amount,
		IsCorrect:    fb.IsCorrect,
		UserID:       fb.UserID,
		Keywords:     tokenize(fb.Description),
		MerchantType: s.merchantType(ctx, fb.Merchant),
		AmountBucket: amountBucket(fb.Amount),
		TextLength:   len([]rune(fb.Description)),
	}

	if err := s.store.AppendTrainingData(ctx, &row); err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	if fb.IsCorrect {
		s.markMatchingRuleUsed(ctx, fb)
	}

	return nil
}

// merchantType resolves the merchant's mapped category as a coarse feature,
// or "unknown" when no mapping exists.
func (s *Service) merchantType(ctx context.Context, merchant string) string {
	if strings.TrimSpace(merchant) == "" {
		return ""
	}
	mapping, err := s.store.GetMerchantMapping(ctx, merchant)
	if err != nil {
		return "unknown"
	}
	return mapping.Category
}

// markMatchingRuleUsed finds the best-matching rule for the confirmed
// category and records the validation. Failures here never fail the
// feedback write.
func (s *Service) markMatchingRuleUsed(ctx context.Context, fb model.CategoryFeedback) {
	activeRules, err := s.store.GetActiveRules(ctx)
	if err != nil {
		common.LogError(err, "failed to load rules for use-count update", nil)
		return
	}

	matches, err := rules.NewMatcher(activeRules).Match(ctx, model.Record{
		Description: fb.Description,
		Merchant:    fb.Merchant,
		Amount:      fb.Amount,
	})
	if err != nil {
		common.LogError(err, "failed to match rules for use-count update", nil)
		return
	}

	for _, match := range matches {
		if match.Rule.Category != fb.Category {
			continue
		}
		if err := s.store.MarkRuleUsed(ctx, match.Rule.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
			common.LogError(err, "failed to mark rule used", common.Fields{"rule_id": match.Rule.ID})
		}
		return
	}
}

// Statistics aggregates counts over the training log.
func (s *Service) Statistics(ctx context.Context) (*model.TrainingStatistics, error) {
	total, correct, err := s.store.CountTrainingData(ctx)
	if err != nil {
		return nil, err
	}

	byCategory, err := s.store.CountTrainingByCategory(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.store.GetRecentTrainingData(ctx, s.cfg.RecentSampleSize)
	if err != nil {
		return nil, err
	}

	activeRules, err := s.store.GetActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	return &model.TrainingStatistics{
		GeneratedAt:    time.Now(),
		TotalSamples:   total,
		CorrectSamples: correct,
		ByCategory:     byCategory,
		RecentActivity: recent,
		ActiveRules:    len(activeRules),
	}, nil
}
