package model

import "time"

// RuleSource indicates how a category rule was created.
type RuleSource string

const (
	// RuleSourceManual indicates the rule was curated by hand.
	RuleSourceManual RuleSource = "MANUAL"
	// RuleSourceGenerated indicates the rule was derived from training data.
	RuleSourceGenerated RuleSource = "GENERATED"
)

// CategoryRule maps keyword, merchant, and amount patterns to one category.
type CategoryRule struct {
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastUsed         *time.Time `json:"last_used,omitempty"`
	AmountMin        *float64   `json:"amount_min,omitempty"`
	AmountMax        *float64   `json:"amount_max,omitempty"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Source           RuleSource `json:"source"`
	Keywords         []string   `json:"keywords"`
	MerchantPatterns []string   `json:"merchant_patterns"`
	MinConfidence    float64    `json:"min_confidence"`
	Priority         int        `json:"priority"`
	ID               int        `json:"id"`
	UseCount         int        `json:"use_count"`
	IsActive         bool       `json:"is_active"`
}

// HasAmountRange reports whether both amount bounds are set.
func (r *CategoryRule) HasAmountRange() bool {
	return r.AmountMin != nil && r.AmountMax != nil
}
