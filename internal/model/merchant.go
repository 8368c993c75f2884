package model

import "time"

// MerchantMapping normalizes a merchant string to a canonical name and maps
// it to a category. Merchant identity is a strong categorization signal, so
// mappings carry a high confidence by default.
type MerchantMapping struct {
	UpdatedAt  time.Time `json:"updated_at"`
	Merchant   string    `json:"merchant"`
	Canonical  string    `json:"canonical"`
	Category   string    `json:"category"`
	Aliases    []string  `json:"aliases"`
	Confidence float64   `json:"confidence"`
}
