package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/yhlin/ledgersense/internal/model"
)

const trainingColumns = `id, category, description, merchant, amount, is_correct,
	user_id, keywords, merchant_type, amount_bucket, text_length, created_at`

// AppendTrainingData appends one row to the training log. The log is
// append-only; rows are never updated or deleted. SQLite serializes the
// insert, so concurrent submitters are safe, and WAL makes the row durable
// before the call returns.
func (s *SQLiteStorage) AppendTrainingData(ctx context.Context, row *model.CategoryTrainingData) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTrainingData(row); err != nil {
		return err
	}

	query := `
		INSERT INTO training_data (
			category, description, merchant, amount, is_correct,
			user_id, keywords, merchant_type, amount_bucket, text_length
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		row.Category, row.Description, row.Merchant, row.Amount, row.IsCorrect,
		row.UserID, encodeStrings(row.Keywords), row.MerchantType, row.AmountBucket, row.TextLength,
	)
	if err != nil {
		return fmt.Errorf("failed to append training data: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get training data ID: %w", err)
	}

	row.ID = int(id)
	row.CreatedAt = time.Now()

	return nil
}

// GetAllTrainingData returns the full training log, oldest first.
func (s *SQLiteStorage) GetAllTrainingData(ctx context.Context) ([]model.CategoryTrainingData, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTrainingData(ctx,
		fmt.Sprintf("SELECT %s FROM training_data ORDER BY id ASC", trainingColumns))
}

// GetRecentTrainingData returns the most recent rows, newest first.
func (s *SQLiteStorage) GetRecentTrainingData(ctx context.Context, limit int) ([]model.CategoryTrainingData, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	return s.queryTrainingData(ctx,
		fmt.Sprintf("SELECT %s FROM training_data ORDER BY id DESC LIMIT ?", trainingColumns), limit)
}

// GetRecentCorrectByUser returns the most recent rows marked correct for one
// user, newest first.
func (s *SQLiteStorage) GetRecentCorrectByUser(ctx context.Context, userID string, limit int) ([]model.CategoryTrainingData, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	return s.queryTrainingData(ctx,
		fmt.Sprintf("SELECT %s FROM training_data WHERE user_id = ? AND is_correct = 1 ORDER BY id DESC LIMIT ?", trainingColumns),
		userID, limit)
}

// CountTrainingData returns total and correct row counts.
func (s *SQLiteStorage) CountTrainingData(ctx context.Context) (int, int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, 0, err
	}

	var total, correct int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(is_correct), 0) FROM training_data").Scan(&total, &correct)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count training data: %w", err)
	}
	return total, correct, nil
}

// CountTrainingByCategory returns row counts grouped by category.
func (s *SQLiteStorage) CountTrainingByCategory(ctx context.Context) (map[string]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT category, COUNT(*) FROM training_data GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to count training data by category: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category count: %w", err)
		}
		counts[category] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category counts: %w", err)
	}

	return counts, nil
}

// queryTrainingData runs a training log query and scans the result set.
func (s *SQLiteStorage) queryTrainingData(ctx context.Context, query string, args ...any) ([]model.CategoryTrainingData, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query training data: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CategoryTrainingData
	for rows.Next() {
		var row model.CategoryTrainingData
		var keywords string
		err := rows.Scan(
			&row.ID, &row.Category, &row.Description, &row.Merchant, &row.Amount, &row.IsCorrect,
			&row.UserID, &keywords, &row.MerchantType, &row.AmountBucket, &row.TextLength, &row.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training data: %w", err)
		}
		row.Keywords = decodeStrings(keywords)
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating training data: %w", err)
	}

	return out, nil
}
