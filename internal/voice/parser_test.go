package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhlin/ledgersense/internal/model"
	"github.com/yhlin/ledgersense/internal/rules"
)

func newTestParser() *Parser {
	p := NewParser(rules.DefaultDictionary())
	p.now = func() time.Time {
		return time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	}
	return p
}

func TestParse_LunchExpense(t *testing.T) {
	p := newTestParser()

	result := p.Parse("午餐花了120元", model.ContextPersonal)

	require.True(t, result.IsSuccess)
	assert.Equal(t, model.DirectionExpense, result.Type)
	require.NotNil(t, result.Amount)
	assert.InDelta(t, 120, *result.Amount, 1e-9)
	assert.Equal(t, "餐飲", result.Category)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
	assert.Empty(t, result.ErrorMessage)
}

func TestParse_AmountPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"suffix yuan", "咖啡50元", 50},
		{"suffix kuai", "咖啡35塊", 35},
		{"spend verb prefix", "咖啡花了85", 85},
		{"currency symbol", "咖啡 $4.5", 4.5},
		{"nt dollar symbol", "咖啡 NT$120", 120},
		{"english suffix", "coffee 5 dollars", 5},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text, model.ContextPersonal)
			require.NotNil(t, result.Amount, "no amount extracted from %q", tt.text)
			assert.InDelta(t, tt.want, *result.Amount, 1e-9)
		})
	}
}

func TestParse_EmptyTranscript(t *testing.T) {
	p := newTestParser()

	for _, text := range []string{"", "   "} {
		result := p.Parse(text, model.ContextPersonal)
		assert.False(t, result.IsSuccess)
		assert.NotEmpty(t, result.ErrorMessage)
		assert.Nil(t, result.Amount)
	}
}

func TestParse_NoSignal(t *testing.T) {
	p := newTestParser()

	result := p.Parse("嗯嗯這個那個", model.ContextPersonal)

	assert.False(t, result.IsSuccess)
	assert.Equal(t, "無法從語音內容中辨識金額或分類", result.ErrorMessage)
}

func TestParse_IncomeBeatsExpense(t *testing.T) {
	p := newTestParser()

	// Both an income keyword and a spend verb appear; income wins.
	result := p.Parse("領到薪水花了500元慶祝", model.ContextPersonal)

	require.True(t, result.IsSuccess)
	assert.Equal(t, model.DirectionIncome, result.Type)
}

func TestParse_DefaultsToExpense(t *testing.T) {
	p := newTestParser()

	result := p.Parse("咖啡100元", model.ContextPersonal)

	require.True(t, result.IsSuccess)
	assert.Equal(t, model.DirectionExpense, result.Type)
}

func TestParse_SplitTypes(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"equal split", "晚餐800元大家平均分攤", model.SplitEqual},
		{"custom split", "晚餐800元按比例", model.SplitProportions},
		{"default payer only", "晚餐800元", model.SplitPayerOnly},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text, model.ContextFamily)
			assert.Equal(t, tt.want, result.SplitType)
		})
	}
}

func TestParse_PersonalContextSkipsSplit(t *testing.T) {
	p := newTestParser()

	result := p.Parse("晚餐800元平均分攤", model.ContextPersonal)

	assert.Empty(t, result.SplitType)
	_, ok := result.FieldConfidence["splitType"]
	assert.False(t, ok)
}

func TestParse_RelativeDates(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantDate time.Time
	}{
		{"today", "今天午餐120元", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"yesterday", "昨天午餐120元", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{"day before yesterday", "前天午餐120元", time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)},
	}

	p := newTestParser()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := p.Parse(tt.text, model.ContextPersonal)
			require.NotNil(t, result.Date)
			assert.True(t, tt.wantDate.Equal(*result.Date), "got %v want %v", *result.Date, tt.wantDate)
		})
	}
}

func TestParse_NoDatePhrase(t *testing.T) {
	p := newTestParser()

	result := p.Parse("午餐120元", model.ContextPersonal)
	assert.Nil(t, result.Date)
}

func TestParse_DescriptionFallback(t *testing.T) {
	p := newTestParser()

	// Everything in the text gets consumed by extraction; the category
	// name backstops the description.
	result := p.Parse("午餐花了120元", model.ContextPersonal)
	require.True(t, result.IsSuccess)
	assert.NotEmpty(t, result.Description)
}

func TestParse_ConfidenceBounds(t *testing.T) {
	p := newTestParser()

	result := p.Parse("今天在星巴克買咖啡花了150元", model.ContextPersonal)
	require.True(t, result.IsSuccess)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.5)

	// Amount only, no category keyword.
	result = p.Parse("雜項支出 $99", model.ContextPersonal)
	require.True(t, result.IsSuccess)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}
