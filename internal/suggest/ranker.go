// Package suggest merges the rule, keyword, merchant, amount, and history
// signals into a ranked list of category suggestions.
package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
	"github.com/yhlin/ledgersense/internal/service"
)

// Stage base confidences. Weaker signals sit below RuleBased so a curated
// rule always outranks a raw dictionary hit for the same category.
const (
	keywordBaseConfidence = 0.25
	keywordHitBonus       = 0.1
	keywordMaxConfidence  = 0.55
	amountConfidence      = 0.15
	historyBaseConfidence = 0.3
	historyHitBonus       = 0.05
	historyMaxConfidence  = 0.6
)

// Config holds ranker tuning knobs.
type Config struct {
	// MaxSuggestions is the default truncation when the caller passes 0.
	MaxSuggestions int
	// HistoryWindow is how many recent correct training rows to compare.
	HistoryWindow int
}

// Ranker produces ranked category suggestions for a record.
type Ranker struct {
	store service.Storage
	dict  *rules.Dictionary
	cfg   Config
}

// NewRanker creates a ranker over the given store and dictionary.
func NewRanker(store service.Storage, dict *rules.Dictionary, cfg Config) *Ranker {
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = 5
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 50
	}
	return &Ranker{store: store, dict: dict, cfg: cfg}
}

// Suggest runs the full pipeline and returns suggestions sorted by
// confidence, truncated to maxSuggestions (0 uses the configured default).
// A record with no signal yields an empty list; so does a record nothing
// matched. Neither is an error.
func (r *Ranker) Suggest(ctx context.Context, rec model.Record, userID string, maxSuggestions int) (model.CategorySuggestions, error) {
	if maxSuggestions <= 0 {
		maxSuggestions = r.cfg.MaxSuggestions
	}

	if !rec.HasSignal() {
		return model.CategorySuggestions{}, nil
	}

	var acc model.CategorySuggestions

	ruleSuggestions, err := r.ruleStage(ctx, rec)
	if err != nil {
		return nil, err
	}
	ruleCategories := make(map[string]bool, len(ruleSuggestions))
	for _, s := range ruleSuggestions {
		ruleCategories[s.Category] = true
		acc = acc.MergeMax(s)
	}

	for _, s := range r.keywordStage(rec, ruleCategories) {
		acc = acc.MergeMax(s)
	}

	merchantSuggestion, err := r.merchantStage(ctx, rec)
	if err != nil {
		return nil, err
	}
	if merchantSuggestion != nil {
		acc = acc.MergeMax(*merchantSuggestion)
	}

	for _, s := range r.amountStage(rec) {
		acc = acc.MergeMax(s)
	}

	historySuggestions, err := r.historyStage(ctx, rec, userID)
	if err != nil {
		return nil, err
	}
	for _, s := range historySuggestions {
		acc = acc.MergeMax(s)
	}

	return acc.TopN(maxSuggestions), nil
}

// ruleStage converts rule engine matches into suggestions. The matcher
// already orders matches, so the first match per category wins.
func (r *Ranker) ruleStage(ctx context.Context, rec model.Record) (model.CategorySuggestions, error) {
	activeRules, err := r.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	matches, err := rules.NewMatcher(activeRules).Match(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to match rules: %w", err)
	}

	var out model.CategorySuggestions
	seen := make(map[string]bool)
	for _, match := range matches {
		if seen[match.Rule.Category] {
			continue
		}
		seen[match.Rule.Category] = true

		rule := match.Rule
		out = append(out, model.CategorySuggestion{
			Category:   rule.Category,
			Icon:       r.dict.Icon(rule.Category),
			Confidence: clamp01(match.Score),
			Reason:     fmt.Sprintf("符合規則「%s」", rule.Name),
			Source:     model.SourceRuleBased,
			RuleID:     &rule.ID,
		})
	}
	return out, nil
}

// keywordStage scans the raw keyword dictionary over description and
// merchant, skipping categories already covered by a rule.
func (r *Ranker) keywordStage(rec model.Record, covered map[string]bool) model.CategorySuggestions {
	text := strings.TrimSpace(rec.Description + " " + rec.Merchant)
	var out model.CategorySuggestions
	for _, hit := range r.dict.ScanKeywords(text) {
		if covered[hit.Entry.Name] {
			continue
		}
		confidence := keywordBaseConfidence + float64(len(hit.Matched)-1)*keywordHitBonus
		if confidence > keywordMaxConfidence {
			confidence = keywordMaxConfidence
		}
		out = append(out, model.CategorySuggestion{
			Category:   hit.Entry.Name,
			Icon:       hit.Entry.Icon,
			Confidence: confidence,
			Reason:     fmt.Sprintf("描述包含關鍵字「%s」", strings.Join(hit.Matched, "、")),
			Source:     model.SourceKeywordBased,
		})
	}
	return out
}

// merchantStage resolves the merchant through the mapping table. Merchant
// identity is a strong signal, so the mapping's own confidence carries over.
func (r *Ranker) merchantStage(ctx context.Context, rec model.Record) (*model.CategorySuggestion, error) {
	if strings.TrimSpace(rec.Merchant) == "" {
		return nil, nil
	}

	mapping, err := r.store.GetMerchantMapping(ctx, rec.Merchant)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up merchant mapping: %w", err)
	}

	return &model.CategorySuggestion{
		Category:   mapping.Category,
		Icon:       r.dict.Icon(mapping.Category),
		Confidence: clamp01(mapping.Confidence),
		Reason:     fmt.Sprintf("常用商家「%s」屬於此分類", mapping.Canonical),
		Source:     model.SourceMerchantBased,
	}, nil
}

// amountStage nudges categories whose typical amount range contains the
// record's amount.
func (r *Ranker) amountStage(rec model.Record) model.CategorySuggestions {
	var out model.CategorySuggestions
	for _, entry := range r.dict.TypicalFor(rec.Amount) {
		out = append(out, model.CategorySuggestion{
			Category:   entry.Name,
			Icon:       entry.Icon,
			Confidence: amountConfidence,
			Reason:     fmt.Sprintf("金額 %.0f 在此分類的常見區間", rec.Amount),
			Source:     model.SourceAmountBased,
		})
	}
	return out
}

// historyStage compares the record against the user's recent correct
// training rows using simple text containment.
func (r *Ranker) historyStage(ctx context.Context, rec model.Record, userID string) (model.CategorySuggestions, error) {
	description := rules.Fold(strings.TrimSpace(rec.Description))
	if description == "" || userID == "" {
		return nil, nil
	}

	recent, err := r.store.GetRecentCorrectByUser(ctx, userID, r.cfg.HistoryWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent training data: %w", err)
	}

	counts := make(map[string]int)
	for _, row := range recent {
		rowDesc := rules.Fold(strings.TrimSpace(row.Description))
		if rowDesc == "" {
			continue
		}
		if strings.Contains(rowDesc, description) || strings.Contains(description, rowDesc) {
			counts[row.Category]++
		}
	}

	var out model.CategorySuggestions
	for category, count := range counts {
		confidence := historyBaseConfidence + float64(count-1)*historyHitBonus
		if confidence > historyMaxConfidence {
			confidence = historyMaxConfidence
		}
		out = append(out, model.CategorySuggestion{
			Category:   category,
			Icon:       r.dict.Icon(category),
			Confidence: confidence,
			Reason:     "與您最近的記帳紀錄相似",
			Source:     model.SourceHistoryBased,
		})
	}
	return out, nil
}

// clamp01 bounds a confidence value to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
