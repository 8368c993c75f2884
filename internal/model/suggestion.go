package model

import (
	"fmt"
	"sort"
)

// SuggestionSource indicates which pipeline stage produced a suggestion.
type SuggestionSource string

// Suggestion source constants.
const (
	SourceRuleBased       SuggestionSource = "RuleBased"
	SourceKeywordBased    SuggestionSource = "KeywordBased"
	SourceMerchantBased   SuggestionSource = "MerchantBased"
	SourceAmountBased     SuggestionSource = "AmountBased"
	SourceHistoryBased    SuggestionSource = "HistoryBased"
	SourceMachineLearning SuggestionSource = "MachineLearning"
)

// CategorySuggestion is a ranked, confidence-scored category recommendation
// for one record. Suggestions are produced per request and never persisted.
type CategorySuggestion struct {
	Category   string           `json:"categoryId"`
	Icon       string           `json:"iconClass"`
	Reason     string           `json:"reason"`
	Source     SuggestionSource `json:"sourceType"`
	RuleID     *int             `json:"ruleId,omitempty"`
	Confidence float64          `json:"confidence"`
}

// Validate ensures the suggestion has valid data.
func (s *CategorySuggestion) Validate() error {
	if s.Category == "" {
		return fmt.Errorf("category name is required")
	}
	if s.Confidence < 0.0 || s.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", s.Confidence)
	}
	return nil
}

// CategorySuggestions is a slice of CategorySuggestion that supports sorting
// and utility methods.
type CategorySuggestions []CategorySuggestion

// Len implements sort.Interface.
func (s CategorySuggestions) Len() int {
	return len(s)
}

// Less implements sort.Interface - higher confidence comes first.
func (s CategorySuggestions) Less(i, j int) bool {
	if s[i].Confidence != s[j].Confidence {
		return s[i].Confidence > s[j].Confidence
	}
	// Equal confidence sorts by category name for stable output
	return s[i].Category < s[j].Category
}

// Swap implements sort.Interface.
func (s CategorySuggestions) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
}

// Sort sorts the suggestions by confidence in descending order.
func (s CategorySuggestions) Sort() {
	sort.Sort(s)
}

// Top returns the highest-confidence suggestion, or nil if empty.
func (s CategorySuggestions) Top() *CategorySuggestion {
	if len(s) == 0 {
		return nil
	}
	s.Sort()
	return &s[0]
}

// TopN returns the N highest-confidence suggestions.
func (s CategorySuggestions) TopN(n int) CategorySuggestions {
	if n <= 0 {
		return CategorySuggestions{}
	}

	s.Sort()

	if n > len(s) {
		n = len(s)
	}

	result := make(CategorySuggestions, n)
	copy(result, s[:n])
	return result
}

// MergeMax folds a candidate into the set keyed by category, keeping the
// best-confidence suggestion per category. Agreement between signals takes
// the maximum confidence rather than summing, so confidence stays bounded.
func (s CategorySuggestions) MergeMax(candidate CategorySuggestion) CategorySuggestions {
	for i := range s {
		if s[i].Category == candidate.Category {
			if candidate.Confidence > s[i].Confidence {
				s[i] = candidate
			}
			return s
		}
	}
	return append(s, candidate)
}
