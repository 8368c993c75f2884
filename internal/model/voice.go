package model

import "time"

// VoiceContext selects which extraction steps apply to a transcript.
type VoiceContext string

const (
	// ContextPersonal parses personal-ledger transcripts; split-type
	// extraction is skipped.
	ContextPersonal VoiceContext = "personal"
	// ContextFamily parses family-ledger transcripts, including how an
	// expense is divided among members.
	ContextFamily VoiceContext = "family"
)

// Split-type values for family-context expenses.
const (
	SplitPayerOnly   = "我支付"
	SplitEqual       = "平均分攤"
	SplitProportions = "自訂分攤"
)

// VoiceParseResult is the best-effort structured extraction from one
// transcript. Every field degrades independently: a step that finds no
// signal leaves its field nil/empty rather than failing the parse.
type VoiceParseResult struct {
	Date            *time.Time           `json:"date,omitempty"`
	Amount          *float64             `json:"amount,omitempty"`
	FieldConfidence map[string]float64   `json:"fieldConfidence"`
	Type            TransactionDirection `json:"type"`
	Category        string               `json:"category,omitempty"`
	Description     string               `json:"description"`
	SplitType       string               `json:"splitType,omitempty"`
	Remainder       string               `json:"remainder,omitempty"`
	ErrorMessage    string               `json:"errorMessage,omitempty"`
	Confidence      float64              `json:"confidence"`
	IsSuccess       bool                 `json:"isSuccess"`
}
