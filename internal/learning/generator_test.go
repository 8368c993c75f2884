package learning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

func TestGenerateRules_EmptyTrainingSet(t *testing.T) {
	svc, _ := newTestService(t)

	report, err := svc.GenerateRules(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.SamplesScanned)
	assert.Equal(t, 0, report.RulesCreated)
	assert.Equal(t, 0, report.RulesUpdated)
}

func TestGenerateRules_CreatesRuleFromRecurringKeywords(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// The keyword 咖啡 recurs in correct 餐飲 rows often enough to clear the
	// count and ratio thresholds.
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "星巴克咖啡", "u1", 150, true)))
	}

	report, err := svc.GenerateRules(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, report.SamplesScanned)
	assert.Equal(t, 1, report.RulesCreated)
	assert.Equal(t, 0, report.RulesUpdated)

	generated, err := store.GetRulesByCategory(ctx, "餐飲")
	require.NoError(t, err)
	require.Len(t, generated, 1)

	rule := generated[0]
	assert.Equal(t, model.RuleSourceGenerated, rule.Source)
	assert.True(t, rule.IsActive)
	assert.Contains(t, rule.Keywords, "咖啡")
	assert.LessOrEqual(t, rule.Priority, 5)
	assert.InDelta(t, 0.3, rule.MinConfidence, 1e-9)
}

func TestGenerateRules_Idempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "星巴克咖啡", "u1", 150, true)))
	}

	first, err := svc.GenerateRules(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, first.RulesCreated)

	afterFirst, err := store.GetRulesByCategory(ctx, "餐飲")
	require.NoError(t, err)

	// Second run on the unchanged training set changes nothing.
	second, err := svc.GenerateRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.RulesCreated)
	assert.Equal(t, 0, second.RulesUpdated)

	afterSecond, err := store.GetRulesByCategory(ctx, "餐飲")
	require.NoError(t, err)
	require.Len(t, afterSecond, len(afterFirst))
	assert.Equal(t, afterFirst[0].Priority, afterSecond[0].Priority)
	assert.ElementsMatch(t, afterFirst[0].Keywords, afterSecond[0].Keywords)
}

func TestGenerateRules_SkipsLowSupportKeywords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// Two occurrences sit below the default minimum of three.
	require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "星巴克咖啡", "u1", 150, true)))
	require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "星巴克咖啡", "u1", 150, true)))

	report, err := svc.GenerateRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.RulesCreated)
}

func TestGenerateRules_SkipsAmbiguousKeywords(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	// 咖啡 appears equally in two categories; the ratio threshold rejects it.
	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "咖啡", "u1", 150, true)))
		require.NoError(t, svc.RecordFeedback(ctx, feedback("購物", "咖啡", "u1", 150, true)))
	}

	report, err := svc.GenerateRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.RulesCreated)
}

func TestGenerateRules_LeavesCuratedRuleAlone(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// Same keyword set the generator would derive from the 咖啡星巴 bigrams.
	curated := model.CategoryRule{
		Name:          "手動咖啡規則",
		Category:      "餐飲",
		Keywords:      []string{"咖啡", "啡星", "星巴"},
		MinConfidence: 0.3,
		Priority:      9,
		Source:        model.RuleSourceManual,
		IsActive:      true,
	}
	require.NoError(t, store.CreateRule(ctx, &curated))

	for i := 0; i < 4; i++ {
		require.NoError(t, svc.RecordFeedback(ctx, feedback("餐飲", "咖啡星巴", "u1", 150, true)))
	}

	report, err := svc.GenerateRules(ctx)
	require.NoError(t, err)

	got, err := store.GetRule(ctx, curated.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, got.Priority)
	assert.Equal(t, model.RuleSourceManual, got.Source)
	assert.Equal(t, 0, report.RulesCreated)
	assert.Equal(t, 0, report.RulesUpdated)
}

func TestGenerateRules_SingleFlight(t *testing.T) {
	svc, _ := newTestService(t)

	svc.regenerating.Store(true)
	_, err := svc.GenerateRules(context.Background())
	assert.ErrorIs(t, err, common.ErrRegenerationInFlight)

	svc.regenerating.Store(false)
	_, err = svc.GenerateRules(context.Background())
	assert.NoError(t, err)
}
