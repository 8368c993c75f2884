package rules

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/yhlin/ledgersense/internal/model"
)

// Match weights. Keywords accumulate per hit; merchant and amount are
// all-or-nothing contributions.
const (
	keywordWeight  = 0.3
	merchantWeight = 0.4
	amountWeight   = 0.2
)

// MatcherImpl implements Matcher for evaluating category rules.
type MatcherImpl struct {
	compiledGlobs map[int][]*regexp.Regexp
	rules         []model.CategoryRule
}

// NewMatcher creates a new rule matcher with the given rules.
// Merchant glob patterns are compiled once up front.
func NewMatcher(ruleSet []model.CategoryRule) *MatcherImpl {
	m := &MatcherImpl{
		rules:         ruleSet,
		compiledGlobs: make(map[int][]*regexp.Regexp),
	}

	for _, rule := range ruleSet {
		for _, pattern := range rule.MerchantPatterns {
			if !strings.ContainsAny(pattern, "*?") {
				continue
			}
			if re, err := compileGlob(Fold(pattern)); err == nil {
				m.compiledGlobs[rule.ID] = append(m.compiledGlobs[rule.ID], re)
			}
		}
	}

	return m
}

// Match evaluates a record against all active rules and returns every rule
// whose aggregate score reaches its minimum confidence threshold.
func (m *MatcherImpl) Match(_ context.Context, rec model.Record) ([]RuleMatch, error) {
	description := Fold(rec.Description)
	merchant := Fold(rec.Merchant)

	var matches []RuleMatch
	for _, rule := range m.rules {
		if !rule.IsActive {
			continue
		}

		score := m.scoreRule(rule, description, merchant, rec.Amount)
		if score >= rule.MinConfidence && score > 0 {
			matches = append(matches, RuleMatch{Rule: rule, Score: score})
		}
	}

	sortMatches(matches)

	return matches, nil
}

// scoreRule computes the aggregate match score of one rule against the
// folded description, folded merchant, and amount.
func (m *MatcherImpl) scoreRule(rule model.CategoryRule, description, merchant string, amount float64) float64 {
	var score float64

	for _, keyword := range rule.Keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(description, Fold(keyword)) {
			score += keywordWeight
		}
	}

	if m.matchesMerchant(rule, merchant) {
		score += merchantWeight
	}

	if rule.HasAmountRange() && amount >= *rule.AmountMin && amount <= *rule.AmountMax {
		score += amountWeight
	}

	return score
}

// matchesMerchant checks the merchant against the rule's patterns. Patterns
// support simple globs (* and ?); anything else is substring containment,
// which stays tolerant of noisy transcription input.
func (m *MatcherImpl) matchesMerchant(rule model.CategoryRule, merchant string) bool {
	if merchant == "" {
		return false
	}

	globs := m.compiledGlobs[rule.ID]
	for _, pattern := range rule.MerchantPatterns {
		if pattern == "" {
			continue
		}
		if strings.ContainsAny(pattern, "*?") {
			for _, re := range globs {
				if re.MatchString(merchant) {
					return true
				}
			}
			continue
		}
		if strings.Contains(merchant, Fold(pattern)) {
			return true
		}
	}

	return false
}

// compileGlob converts a glob pattern to an anchored regular expression.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}

// sortMatches orders matches by priority, then score, then use count, all
// descending. Manually curated high-priority rules win over noisy generated
// ones; among equals the more frequently validated rule wins.
func sortMatches(matches []RuleMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Rule.Priority != matches[j].Rule.Priority {
			return matches[i].Rule.Priority > matches[j].Rule.Priority
		}
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Rule.UseCount > matches[j].Rule.UseCount
	})
}
