package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySuggestion_Validate(t *testing.T) {
	valid := CategorySuggestion{Category: "餐飲", Confidence: 0.5}
	assert.NoError(t, valid.Validate())

	missing := CategorySuggestion{Confidence: 0.5}
	assert.Error(t, missing.Validate())

	outOfRange := CategorySuggestion{Category: "餐飲", Confidence: 1.2}
	assert.Error(t, outOfRange.Validate())
}

func TestCategorySuggestions_Sort(t *testing.T) {
	s := CategorySuggestions{
		{Category: "b", Confidence: 0.3},
		{Category: "a", Confidence: 0.9},
		{Category: "c", Confidence: 0.3},
	}
	s.Sort()

	assert.Equal(t, "a", s[0].Category)
	// Equal confidence breaks ties by category name.
	assert.Equal(t, "b", s[1].Category)
	assert.Equal(t, "c", s[2].Category)
}

func TestCategorySuggestions_TopN(t *testing.T) {
	s := CategorySuggestions{
		{Category: "a", Confidence: 0.2},
		{Category: "b", Confidence: 0.8},
		{Category: "c", Confidence: 0.5},
	}

	top := s.TopN(2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Category)
	assert.Equal(t, "c", top[1].Category)

	assert.Len(t, s.TopN(10), 3)
	assert.Empty(t, s.TopN(0))
}

func TestCategorySuggestions_Top(t *testing.T) {
	var empty CategorySuggestions
	assert.Nil(t, empty.Top())

	s := CategorySuggestions{
		{Category: "a", Confidence: 0.2},
		{Category: "b", Confidence: 0.8},
	}
	top := s.Top()
	require.NotNil(t, top)
	assert.Equal(t, "b", top.Category)
}

func TestCategorySuggestions_MergeMax(t *testing.T) {
	var s CategorySuggestions

	s = s.MergeMax(CategorySuggestion{Category: "餐飲", Confidence: 0.3, Source: SourceKeywordBased})
	s = s.MergeMax(CategorySuggestion{Category: "餐飲", Confidence: 0.7, Source: SourceRuleBased})
	s = s.MergeMax(CategorySuggestion{Category: "餐飲", Confidence: 0.1, Source: SourceAmountBased})
	s = s.MergeMax(CategorySuggestion{Category: "交通", Confidence: 0.2, Source: SourceAmountBased})

	require.Len(t, s, 2)
	assert.InDelta(t, 0.7, s[0].Confidence, 1e-9)
	assert.Equal(t, SourceRuleBased, s[0].Source)
	assert.Equal(t, "交通", s[1].Category)
}
