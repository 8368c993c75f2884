// Package rules provides the weighted rule engine that scores category rules
// against a record's description, merchant, and amount.
package rules

import (
	"context"

	"github.com/yhlin/ledgersense/internal/model"
)

// Matcher evaluates records against category rules.
type Matcher interface {
	// Match evaluates a record against all configured rules and returns the
	// matches ordered by priority, score, and use count. An empty result is
	// not an error; it signals fall-through to the weaker pipeline stages.
	Match(ctx context.Context, rec model.Record) ([]RuleMatch, error)
}

// RuleMatch pairs a matched rule with its aggregate match score.
type RuleMatch struct {
	Rule  model.CategoryRule
	Score float64
}
