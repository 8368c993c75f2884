package model

import "time"

// CategoryFeedback is the transient input carried by a feedback submission.
// It is converted into a CategoryTrainingData row and persisted.
type CategoryFeedback struct {
	Timestamp   time.Time `json:"timestamp"`
	Category    string    `json:"categoryId"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant"`
	UserID      string    `json:"userId"`
	Amount      float64   `json:"amount"`
	IsCorrect   bool      `json:"isCorrect"`
}

// CategoryTrainingData is one row of the append-only training log, with the
// feature snapshot derived at submission time. Rows are never mutated.
type CategoryTrainingData struct {
	CreatedAt    time.Time `json:"created_at"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	Merchant     string    `json:"merchant"`
	MerchantType string    `json:"merchant_type"`
	AmountBucket string    `json:"amount_bucket"`
	UserID       string    `json:"user_id"`
	Keywords     []string  `json:"keywords"`
	Amount       float64   `json:"amount"`
	TextLength   int       `json:"text_length"`
	ID           int       `json:"id"`
	IsCorrect    bool      `json:"is_correct"`
}

// CategoryAccuracy holds per-category accuracy figures.
type CategoryAccuracy struct {
	Category      string  `json:"category"`
	Accuracy      float64 `json:"accuracy"`
	AvgConfidence float64 `json:"avg_confidence"`
	Total         int     `json:"total"`
	Correct       int     `json:"correct"`
}

// ModelAccuracyReport summarizes suggestion accuracy over the training log.
// Purely observational; it never blocks suggestion serving.
type ModelAccuracyReport struct {
	GeneratedAt     time.Time                   `json:"generated_at"`
	ByCategory      map[string]CategoryAccuracy `json:"by_category"`
	OverallAccuracy float64                     `json:"overall_accuracy"`
	TotalSamples    int                         `json:"total_samples"`
	CorrectSamples  int                         `json:"correct_samples"`
}

// TrainingStatistics aggregates counts over the training log.
type TrainingStatistics struct {
	GeneratedAt    time.Time              `json:"generated_at"`
	ByCategory     map[string]int         `json:"by_category"`
	RecentActivity []CategoryTrainingData `json:"recent_activity"`
	TotalSamples   int                    `json:"total_samples"`
	CorrectSamples int                    `json:"correct_samples"`
	ActiveRules    int                    `json:"active_rules"`
}
