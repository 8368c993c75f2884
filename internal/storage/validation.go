// Package storage provides the data persistence layer for the application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yhlin/ledgersense/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidRule     = errors.New("invalid category rule")
	ErrInvalidTraining = errors.New("invalid training data")
	ErrInvalidMapping  = errors.New("invalid merchant mapping")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRule validates a category rule.
func validateRule(rule *model.CategoryRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if rule.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if rule.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidRule)
	}
	if rule.MinConfidence < 0 || rule.MinConfidence > 1 {
		return fmt.Errorf("%w: min_confidence must be between 0 and 1", ErrInvalidRule)
	}
	if rule.AmountMin != nil && rule.AmountMax != nil && *rule.AmountMin > *rule.AmountMax {
		return fmt.Errorf("%w: amount_min exceeds amount_max", ErrInvalidRule)
	}
	return nil
}

// validateTrainingData validates a training row.
func validateTrainingData(row *model.CategoryTrainingData) error {
	if row == nil {
		return fmt.Errorf("%w: training data", ErrNilParameter)
	}
	if row.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidTraining)
	}
	return nil
}

// validateMerchantMapping validates a merchant mapping.
func validateMerchantMapping(mapping *model.MerchantMapping) error {
	if mapping == nil {
		return fmt.Errorf("%w: mapping", ErrNilParameter)
	}
	if mapping.Merchant == "" {
		return fmt.Errorf("%w: missing merchant", ErrInvalidMapping)
	}
	if mapping.Category == "" {
		return fmt.Errorf("%w: missing category", ErrInvalidMapping)
	}
	if mapping.Confidence < 0 || mapping.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidMapping)
	}
	return nil
}
