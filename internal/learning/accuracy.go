package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
)

// EvaluateAccuracy computes overall and per-category accuracy across the
// training log, plus the average rule-match confidence each category's rows
// would score today. An empty log yields a zero report, not an error.
func (s *Service) EvaluateAccuracy(ctx context.Context) (*model.ModelAccuracyReport, error) {
	report := &model.ModelAccuracyReport{
		GeneratedAt: time.Now(),
		ByCategory:  make(map[string]model.CategoryAccuracy),
	}

	trainingRows, err := s.store.GetAllTrainingData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	if len(trainingRows) == 0 {
		return report, nil
	}

	activeRules, err := s.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}
	matcher := rules.NewMatcher(activeRules)

	confidenceSums := make(map[string]float64)

	for _, row := range trainingRows {
		report.TotalSamples++
		if row.IsCorrect {
			report.CorrectSamples++
		}

		acc := report.ByCategory[row.Category]
		acc.Category = row.Category
		acc.Total++
		if row.IsCorrect {
			acc.Correct++
		}
		report.ByCategory[row.Category] = acc

		confidenceSums[row.Category] += s.matchConfidence(ctx, matcher, row)
	}

	report.OverallAccuracy = float64(report.CorrectSamples) / float64(report.TotalSamples)

	for category, acc := range report.ByCategory {
		acc.Accuracy = float64(acc.Correct) / float64(acc.Total)
		acc.AvgConfidence = confidenceSums[category] / float64(acc.Total)
		report.ByCategory[category] = acc
	}

	return report, nil
}

// matchConfidence returns the score the rule engine gives this row for its
// own category, or zero when no rule matches.
func (s *Service) matchConfidence(ctx context.Context, matcher rules.Matcher, row model.CategoryTrainingData) float64 {
	matches, err := matcher.Match(ctx, model.Record{
		Description: row.Description,
		Merchant:    row.Merchant,
		Amount:      row.Amount,
	})
	if err != nil {
		return 0
	}
	for _, match := range matches {
		if match.Rule.Category == row.Category {
			if match.Score > 1 {
				return 1
			}
			return match.Score
		}
	}
	return 0
}
