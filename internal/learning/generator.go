package learning

import (
	"context"
	"fmt"
	"sort"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

// Generated rules sit below hand-curated ones so the tie-break always favors
// manual curation.
const (
	generatedRuleMinConfidence = 0.3
	generatedRuleMaxPriority   = 5
)

// GenerateReport summarizes one rule-generation run.
type GenerateReport struct {
	SamplesScanned int `json:"samples_scanned"`
	RulesCreated   int `json:"rules_created"`
	RulesUpdated   int `json:"rules_updated"`
}

// keywordStat tracks how often a keyword supports a category.
type keywordStat struct {
	keyword string
	count   int
}

// GenerateRules derives low-priority rules from the accumulated training
// data. The run is guarded against itself: a second concurrent call gets
// common.ErrRegenerationInFlight. It is idempotent on an unchanged training
// set because rule priority is computed from keyword support and assigned,
// never incremented.
func (s *Service) GenerateRules(ctx context.Context) (*GenerateReport, error) {
	if !s.regenerating.CompareAndSwap(false, true) {
		return nil, common.ErrRegenerationInFlight
	}
	defer s.regenerating.Store(false)

	trainingRows, err := s.store.GetAllTrainingData(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}

	report := &GenerateReport{SamplesScanned: len(trainingRows)}
	if len(trainingRows) == 0 {
		return report, nil
	}

	// Keyword support per category over correct rows, and total appearances
	// everywhere else (other categories' correct rows plus rows the user
	// rejected for this category).
	support := make(map[string]map[string]int)
	elsewhere := make(map[string]map[string]int)
	for _, row := range trainingRows {
		for _, keyword := range row.Keywords {
			if row.IsCorrect {
				bump(support, row.Category, keyword)
			} else {
				bump(elsewhere, row.Category, keyword)
			}
		}
	}

	categories := make([]string, 0, len(support))
	for category := range support {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		stats := s.qualifiedKeywords(category, support, elsewhere)
		if len(stats) == 0 {
			continue
		}

		keywords := make([]string, 0, len(stats))
		totalSupport := 0
		for _, stat := range stats {
			keywords = append(keywords, stat.keyword)
			totalSupport += stat.count
		}

		created, updated, err := s.applyRule(ctx, category, keywords, totalSupport)
		if err != nil {
			return nil, err
		}
		if created {
			report.RulesCreated++
		}
		if updated {
			report.RulesUpdated++
		}
	}

	return report, nil
}

// qualifiedKeywords returns the category's keywords that clear both the
// support count and the frequency-ratio thresholds, strongest first.
func (s *Service) qualifiedKeywords(category string, support, elsewhere map[string]map[string]int) []keywordStat {
	var stats []keywordStat
	for keyword, count := range support[category] {
		if count < s.cfg.MinKeywordCount {
			continue
		}

		other := 0
		for otherCategory, counts := range support {
			if otherCategory != category {
				other += counts[keyword]
			}
		}
		other += elsewhere[category][keyword]

		if float64(count)/float64(count+other) < s.cfg.MinKeywordRatio {
			continue
		}

		stats = append(stats, keywordStat{keyword: keyword, count: count})
	}

	// Deterministic order: strongest support first, then lexicographic.
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].keyword < stats[j].keyword
	})

	if len(stats) > s.cfg.MaxKeywordsPerRule {
		stats = stats[:s.cfg.MaxKeywordsPerRule]
	}
	return stats
}

// applyRule promotes an existing rule covering the same keyword set or
// creates a new generated rule. Target priority derives from support, so
// re-running on the same training set settles to the same values.
func (s *Service) applyRule(ctx context.Context, category string, keywords []string, totalSupport int) (created, updated bool, err error) {
	priority := priorityForSupport(totalSupport)

	existing, err := s.store.GetRulesByCategory(ctx, category)
	if err != nil {
		return false, false, fmt.Errorf("failed to load rules for %q: %w", category, err)
	}

	for i := range existing {
		if !sameKeywordSet(existing[i].Keywords, keywords) {
			continue
		}
		if existing[i].Source != model.RuleSourceGenerated {
			// A curated rule already covers this keyword set; leave it alone.
			return false, false, nil
		}
		if existing[i].Priority == priority && existing[i].IsActive {
			return false, false, nil
		}
		existing[i].Priority = priority
		existing[i].IsActive = true
		if err := s.store.UpdateRule(ctx, &existing[i]); err != nil {
			return false, false, fmt.Errorf("failed to promote rule %d: %w", existing[i].ID, err)
		}
		return false, true, nil
	}

	rule := model.CategoryRule{
		Name:          fmt.Sprintf("自動規則：%s", category),
		Category:      category,
		Keywords:      keywords,
		MinConfidence: generatedRuleMinConfidence,
		Priority:      priority,
		Source:        model.RuleSourceGenerated,
		IsActive:      true,
	}
	if err := s.store.CreateRule(ctx, &rule); err != nil {
		return false, false, fmt.Errorf("failed to create generated rule for %q: %w", category, err)
	}
	return true, false, nil
}

// priorityForSupport maps total keyword support onto the low generated-rule
// priority band.
func priorityForSupport(totalSupport int) int {
	priority := 1 + totalSupport/10
	if priority > generatedRuleMaxPriority {
		priority = generatedRuleMaxPriority
	}
	return priority
}

// sameKeywordSet compares two keyword lists as sets.
func sameKeywordSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, kw := range a {
		set[kw] = true
	}
	for _, kw := range b {
		if !set[kw] {
			return false
		}
	}
	return true
}

// bump increments a nested counter.
func bump(m map[string]map[string]int, category, keyword string) {
	if m[category] == nil {
		m[category] = make(map[string]int)
	}
	m[category][keyword]++
}
