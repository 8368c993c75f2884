// Package model defines the core domain models used throughout the application.
package model

import "strings"

// TransactionDirection indicates whether a record represents money in or out.
type TransactionDirection string

// Transaction direction constants.
const (
	DirectionIncome  TransactionDirection = "income"
	DirectionExpense TransactionDirection = "expense"
)

// Record is the raw input every suggestion stage consumes: a free-text
// description, an optional merchant name, and an amount.
type Record struct {
	Description string
	Merchant    string
	Amount      float64
}

// HasSignal reports whether the record carries anything worth ranking.
// A record with no description, no merchant, and a non-positive amount
// produces an empty suggestion list by contract.
func (r Record) HasSignal() bool {
	return strings.TrimSpace(r.Description) != "" ||
		strings.TrimSpace(r.Merchant) != "" ||
		r.Amount > 0
}
