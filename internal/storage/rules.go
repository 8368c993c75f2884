package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

const ruleColumns = `id, name, category, keywords, merchant_patterns,
	amount_min, amount_max, min_confidence, priority, source,
	use_count, last_used, is_active, created_at, updated_at`

// CreateRule creates a new category rule and fills in its ID.
func (s *SQLiteStorage) CreateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		INSERT INTO category_rules (
			name, category, keywords, merchant_patterns,
			amount_min, amount_max, min_confidence, priority, source, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Category, encodeStrings(rule.Keywords), encodeStrings(rule.MerchantPatterns),
		rule.AmountMin, rule.AmountMax, rule.MinConfidence, rule.Priority,
		string(rule.Source), rule.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get rule ID: %w", err)
	}

	rule.ID = int(id)
	rule.CreatedAt = time.Now()
	rule.UpdatedAt = time.Now()

	return nil
}

// GetRule retrieves a category rule by ID.
func (s *SQLiteStorage) GetRule(ctx context.Context, id int) (*model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM category_rules WHERE id = ?", ruleColumns), id)

	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	return rule, nil
}

// GetActiveRules retrieves all active rules ordered by priority.
func (s *SQLiteStorage) GetActiveRules(ctx context.Context) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		fmt.Sprintf("SELECT %s FROM category_rules WHERE is_active = 1 ORDER BY priority DESC, id ASC", ruleColumns))
}

// GetAllRules retrieves every rule regardless of active flag.
func (s *SQLiteStorage) GetAllRules(ctx context.Context) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		fmt.Sprintf("SELECT %s FROM category_rules ORDER BY priority DESC, id ASC", ruleColumns))
}

// GetRulesByCategory retrieves all rules targeting a category.
func (s *SQLiteStorage) GetRulesByCategory(ctx context.Context, category string) ([]model.CategoryRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}
	return s.queryRules(ctx,
		fmt.Sprintf("SELECT %s FROM category_rules WHERE category = ? ORDER BY priority DESC, id ASC", ruleColumns),
		category)
}

// UpdateRule updates an existing rule.
func (s *SQLiteStorage) UpdateRule(ctx context.Context, rule *model.CategoryRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		UPDATE category_rules SET
			name = ?, category = ?, keywords = ?, merchant_patterns = ?,
			amount_min = ?, amount_max = ?, min_confidence = ?, priority = ?,
			source = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rule.Name, rule.Category, encodeStrings(rule.Keywords), encodeStrings(rule.MerchantPatterns),
		rule.AmountMin, rule.AmountMax, rule.MinConfidence, rule.Priority,
		string(rule.Source), rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: rule %d", common.ErrNotFound, rule.ID)
	}

	return nil
}

// DeleteRule deletes a rule by ID.
func (s *SQLiteStorage) DeleteRule(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM category_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
	}

	return nil
}

// MarkRuleUsed increments a rule's use count and stamps last-used.
func (s *SQLiteStorage) MarkRuleUsed(ctx context.Context, id int) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	query := `UPDATE category_rules SET use_count = use_count + 1, last_used = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark rule used: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: rule %d", common.ErrNotFound, id)
	}

	return nil
}

// queryRules runs a rule query and scans the result set.
func (s *SQLiteStorage) queryRules(ctx context.Context, query string, args ...any) ([]model.CategoryRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.CategoryRule
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", scanErr)
		}
		out = append(out, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rules: %w", err)
	}

	return out, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRule scans one rule row, decoding the JSON list columns.
func scanRule(row rowScanner) (*model.CategoryRule, error) {
	var rule model.CategoryRule
	var keywords, patterns, source string
	var amountMin, amountMax sql.NullFloat64
	var lastUsed sql.NullTime

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Category, &keywords, &patterns,
		&amountMin, &amountMax, &rule.MinConfidence, &rule.Priority, &source,
		&rule.UseCount, &lastUsed, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Keywords = decodeStrings(keywords)
	rule.MerchantPatterns = decodeStrings(patterns)
	rule.Source = model.RuleSource(source)
	if amountMin.Valid {
		rule.AmountMin = &amountMin.Float64
	}
	if amountMax.Valid {
		rule.AmountMax = &amountMax.Float64
	}
	if lastUsed.Valid {
		rule.LastUsed = &lastUsed.Time
	}

	return &rule, nil
}

// encodeStrings marshals a string list to its JSON column representation.
func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodeStrings unmarshals a JSON column back to a string list.
func decodeStrings(data string) []string {
	if data == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
