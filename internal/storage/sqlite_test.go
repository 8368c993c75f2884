package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

// Helper function to create migrated test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func testRule(name, category string, keywords ...string) *model.CategoryRule {
	return &model.CategoryRule{
		Name:          name,
		Category:      category,
		Keywords:      keywords,
		MinConfidence: 0.3,
		Priority:      5,
		Source:        model.RuleSourceManual,
		IsActive:      true,
	}
}

func TestSQLiteStorage_RuleCRUD(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rule := testRule("咖啡規則", "餐飲", "咖啡", "拿鐵")
	if err := store.CreateRule(ctx, rule); err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}
	if rule.ID == 0 {
		t.Error("Expected created rule to get an ID")
	}

	got, err := store.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if got.Name != "咖啡規則" || got.Category != "餐飲" {
		t.Errorf("Unexpected rule: %+v", got)
	}
	if len(got.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(got.Keywords))
	}

	got.Priority = 8
	got.IsActive = false
	if err := store.UpdateRule(ctx, got); err != nil {
		t.Fatalf("Failed to update rule: %v", err)
	}

	updated, err := store.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("Failed to re-get rule: %v", err)
	}
	if updated.Priority != 8 || updated.IsActive {
		t.Errorf("Update not applied: %+v", updated)
	}

	if err := store.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("Failed to delete rule: %v", err)
	}
	if _, err := store.GetRule(ctx, rule.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestSQLiteStorage_GetActiveRules(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	active := testRule("active", "餐飲", "咖啡")
	inactive := testRule("inactive", "交通", "捷運")
	inactive.IsActive = false

	for _, r := range []*model.CategoryRule{active, inactive} {
		if err := store.CreateRule(ctx, r); err != nil {
			t.Fatalf("Failed to create rule: %v", err)
		}
	}

	got, err := store.GetActiveRules(ctx)
	if err != nil {
		t.Fatalf("Failed to get active rules: %v", err)
	}
	if len(got) != 1 || got[0].Name != "active" {
		t.Errorf("Expected only the active rule, got %+v", got)
	}

	all, err := store.GetAllRules(ctx)
	if err != nil {
		t.Fatalf("Failed to get all rules: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 rules total, got %d", len(all))
	}
}

func TestSQLiteStorage_MarkRuleUsed(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rule := testRule("used", "餐飲", "咖啡")
	if err := store.CreateRule(ctx, rule); err != nil {
		t.Fatalf("Failed to create rule: %v", err)
	}

	if err := store.MarkRuleUsed(ctx, rule.ID); err != nil {
		t.Fatalf("Failed to mark rule used: %v", err)
	}

	got, err := store.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("Failed to get rule: %v", err)
	}
	if got.UseCount != 1 {
		t.Errorf("Expected use count 1, got %d", got.UseCount)
	}
	if got.LastUsed == nil {
		t.Error("Expected last used timestamp to be set")
	}

	if err := store.MarkRuleUsed(ctx, 99999); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unknown rule, got %v", err)
	}
}

func TestSQLiteStorage_TrainingData(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	rows := []model.CategoryTrainingData{
		{Category: "餐飲", Description: "午餐", UserID: "u1", Amount: 120, IsCorrect: true, Keywords: []string{"午餐"}},
		{Category: "餐飲", Description: "晚餐", UserID: "u1", Amount: 250, IsCorrect: true, Keywords: []string{"晚餐"}},
		{Category: "交通", Description: "捷運", UserID: "u2", Amount: 30, IsCorrect: false, Keywords: []string{"捷運"}},
	}
	for i := range rows {
		if err := store.AppendTrainingData(ctx, &rows[i]); err != nil {
			t.Fatalf("Failed to append training data: %v", err)
		}
	}

	total, correct, err := store.CountTrainingData(ctx)
	if err != nil {
		t.Fatalf("Failed to count training data: %v", err)
	}
	if total != 3 || correct != 2 {
		t.Errorf("Expected total=3 correct=2, got total=%d correct=%d", total, correct)
	}

	byCategory, err := store.CountTrainingByCategory(ctx)
	if err != nil {
		t.Fatalf("Failed to count by category: %v", err)
	}
	if byCategory["餐飲"] != 2 || byCategory["交通"] != 1 {
		t.Errorf("Unexpected category counts: %+v", byCategory)
	}

	recent, err := store.GetRecentTrainingData(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to get recent training data: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Expected 2 recent rows, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Description != "捷運" {
		t.Errorf("Expected newest row first, got %+v", recent[0])
	}

	byUser, err := store.GetRecentCorrectByUser(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Failed to get rows by user: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("Expected 2 correct rows for u1, got %d", len(byUser))
	}
	for _, row := range byUser {
		if !row.IsCorrect || row.UserID != "u1" {
			t.Errorf("Unexpected row: %+v", row)
		}
	}
}

func TestSQLiteStorage_MerchantMappings(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	mapping := &model.MerchantMapping{
		Merchant:   "星巴克",
		Canonical:  "星巴克",
		Category:   "餐飲",
		Aliases:    []string{"Starbucks", "statbucks"},
		Confidence: 0.9,
	}
	if err := store.SaveMerchantMapping(ctx, mapping); err != nil {
		t.Fatalf("Failed to save mapping: %v", err)
	}

	got, err := store.GetMerchantMapping(ctx, "星巴克")
	if err != nil {
		t.Fatalf("Failed to get mapping: %v", err)
	}
	if got.Category != "餐飲" {
		t.Errorf("Unexpected category: %s", got.Category)
	}

	// Alias lookup is case-insensitive.
	got, err = store.GetMerchantMapping(ctx, "STARBUCKS")
	if err != nil {
		t.Fatalf("Failed to resolve alias: %v", err)
	}
	if got.Merchant != "星巴克" {
		t.Errorf("Expected alias to resolve to 星巴克, got %s", got.Merchant)
	}

	if _, err := store.GetMerchantMapping(ctx, "不存在的店"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Upsert replaces, cache notices.
	mapping.Category = "購物"
	if err := store.SaveMerchantMapping(ctx, mapping); err != nil {
		t.Fatalf("Failed to upsert mapping: %v", err)
	}
	got, err = store.GetMerchantMapping(ctx, "星巴克")
	if err != nil {
		t.Fatalf("Failed to re-get mapping: %v", err)
	}
	if got.Category != "購物" {
		t.Errorf("Expected upserted category 購物, got %s", got.Category)
	}
}

func TestSQLiteStorage_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if err := store.CreateRule(ctx, &model.CategoryRule{Name: "x"}); err == nil {
		t.Error("Expected error for rule without category")
	}
	if err := store.AppendTrainingData(ctx, &model.CategoryTrainingData{}); err == nil {
		t.Error("Expected error for training row without category")
	}
	if _, err := store.GetMerchantMapping(ctx, ""); err == nil {
		t.Error("Expected error for empty merchant name")
	}
}
