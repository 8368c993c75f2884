package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/learning"
	"github.com/yhlin/ledgersense/internal/model"
)

type fakeSuggester struct {
	suggestions model.CategorySuggestions
	err         error
}

func (f *fakeSuggester) Suggest(_ context.Context, _ model.Record, _ string, _ int) (model.CategorySuggestions, error) {
	return f.suggestions, f.err
}

type fakeLearner struct {
	feedbackErr error
	generateErr error
	report      *learning.GenerateReport
	lastFB      model.CategoryFeedback
}

func (f *fakeLearner) RecordFeedback(_ context.Context, fb model.CategoryFeedback) error {
	f.lastFB = fb
	return f.feedbackErr
}

func (f *fakeLearner) GenerateRules(_ context.Context) (*learning.GenerateReport, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	if f.report != nil {
		return f.report, nil
	}
	return &learning.GenerateReport{}, nil
}

func (f *fakeLearner) EvaluateAccuracy(_ context.Context) (*model.ModelAccuracyReport, error) {
	return &model.ModelAccuracyReport{ByCategory: map[string]model.CategoryAccuracy{}}, nil
}

func (f *fakeLearner) Statistics(_ context.Context) (*model.TrainingStatistics, error) {
	return &model.TrainingStatistics{ByCategory: map[string]int{}}, nil
}

type fakeParser struct {
	result model.VoiceParseResult
	text   string
	ctx    model.VoiceContext
}

func (f *fakeParser) Parse(text string, context model.VoiceContext) model.VoiceParseResult {
	f.text = text
	f.ctx = context
	return f.result
}

func newTestServer(suggester Suggester, learner Learner, parser TranscriptParser) *httptest.Server {
	srv := New(Config{}, suggester, learner, parser)
	return httptest.NewServer(srv.Handler())
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHandleSuggest(t *testing.T) {
	ruleID := 7
	suggester := &fakeSuggester{suggestions: model.CategorySuggestions{
		{Category: "餐飲", Confidence: 0.8, Source: model.SourceRuleBased, RuleID: &ruleID},
	}}
	ts := newTestServer(suggester, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/suggest", map[string]any{"description": "買咖啡", "amount": 150})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[suggestResponse](t, resp)
	assert.True(t, body.Success)
	require.Len(t, body.Suggestions, 1)
	assert.Equal(t, "餐飲", body.Suggestions[0].Category)
}

func TestHandleSuggest_EmptyResult(t *testing.T) {
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/suggest", map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[suggestResponse](t, resp)
	assert.True(t, body.Success)
	assert.Empty(t, body.Suggestions)
}

func TestHandleSuggest_InternalFailureSoftFails(t *testing.T) {
	ts := newTestServer(&fakeSuggester{err: errors.New("boom")}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/suggest", map[string]any{"description": "買咖啡"})
	// Suggestion is advisory: still 200, success false, empty list.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[suggestResponse](t, resp)
	assert.False(t, body.Success)
	assert.Empty(t, body.Suggestions)
}

func TestHandleSuggest_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/suggest")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodPost, resp.Header.Get("Allow"))
}

func TestHandleFeedback(t *testing.T) {
	learner := &fakeLearner{}
	ts := newTestServer(&fakeSuggester{}, learner, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/feedback", map[string]any{
		"categoryId":  "餐飲",
		"description": "買咖啡",
		"userId":      "u1",
		"amount":      150,
		"isCorrect":   true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, "餐飲", learner.lastFB.Category)
	assert.True(t, learner.lastFB.IsCorrect)
}

func TestHandleFeedback_MissingCategory(t *testing.T) {
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/feedback", map[string]any{"description": "買咖啡"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "categoryId")
}

func TestHandleGenerateRules_Conflict(t *testing.T) {
	learner := &fakeLearner{generateErr: common.ErrRegenerationInFlight}
	ts := newTestServer(&fakeSuggester{}, learner, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/generate-rules", map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.False(t, body.Success)
}

func TestHandleGenerateRules(t *testing.T) {
	learner := &fakeLearner{report: &learning.GenerateReport{SamplesScanned: 12, RulesCreated: 2, RulesUpdated: 1}}
	ts := newTestServer(&fakeSuggester{}, learner, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/generate-rules", map[string]any{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[statusResponse](t, resp)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Message)
}

func TestHandleParse(t *testing.T) {
	amount := 120.0
	parser := &fakeParser{result: model.VoiceParseResult{
		IsSuccess: true,
		Amount:    &amount,
		Category:  "餐飲",
		Type:      model.DirectionExpense,
	}}
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, parser)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/parse", map[string]any{"voiceText": "午餐花了120元", "context": "family"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody[model.VoiceParseResult](t, resp)
	assert.True(t, body.IsSuccess)
	require.NotNil(t, body.Amount)
	assert.InDelta(t, 120, *body.Amount, 1e-9)

	assert.Equal(t, "午餐花了120元", parser.text)
	assert.Equal(t, model.ContextFamily, parser.ctx)
}

func TestHandleParse_MissingText(t *testing.T) {
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/parse", map[string]any{"context": "personal"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleParse_UnknownContextDefaultsToPersonal(t *testing.T) {
	parser := &fakeParser{result: model.VoiceParseResult{IsSuccess: true}}
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, parser)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/parse", map[string]any{"voiceText": "午餐120元", "context": "whatever"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = decodeBody[model.VoiceParseResult](t, resp)

	assert.Equal(t, model.ContextPersonal, parser.ctx)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(&fakeSuggester{}, &fakeLearner{}, &fakeParser{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
