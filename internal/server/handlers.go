package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yhlin/ledgersense/internal/common"
	"github.com/yhlin/ledgersense/internal/model"
)

// handlers holds the services behind the JSON API.
type handlers struct {
	suggester Suggester
	learner   Learner
	parser    TranscriptParser
}

type suggestRequest struct {
	Description    string  `json:"description"`
	Merchant       string  `json:"merchant"`
	UserID         string  `json:"userId"`
	Amount         float64 `json:"amount"`
	MaxSuggestions int     `json:"maxSuggestions"`
}

type suggestResponse struct {
	Suggestions model.CategorySuggestions `json:"suggestions"`
	Success     bool                      `json:"success"`
}

type feedbackRequest struct {
	Category    string  `json:"categoryId"`
	Description string  `json:"description"`
	Merchant    string  `json:"merchant"`
	UserID      string  `json:"userId"`
	Amount      float64 `json:"amount"`
	IsCorrect   bool    `json:"isCorrect"`
}

type parseRequest struct {
	VoiceText string `json:"voiceText"`
	Context   string `json:"context"`
}

type statusResponse struct {
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// handleSuggest serves POST /suggest. Suggestion is advisory: an input with
// no signal and an internal failure both come back as HTTP 200 with an empty
// list, never an error page.
func (h *handlers) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req suggestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec := model.Record{
		Description: req.Description,
		Merchant:    req.Merchant,
		Amount:      req.Amount,
	}

	suggestions, err := h.suggester.Suggest(r.Context(), rec, req.UserID, req.MaxSuggestions)
	if err != nil {
		common.LogError(err, "suggestion pipeline failed", common.Fields{"path": r.URL.Path})
		respondJSON(w, http.StatusOK, suggestResponse{Success: false, Suggestions: model.CategorySuggestions{}})
		return
	}
	if suggestions == nil {
		suggestions = model.CategorySuggestions{}
	}

	respondJSON(w, http.StatusOK, suggestResponse{Success: true, Suggestions: suggestions})
}

// handleFeedback serves POST /feedback. The category is required; everything
// else is optional signal.
func (h *handlers) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Category) == "" {
		respondError(w, http.StatusBadRequest, "categoryId 為必填欄位")
		return
	}

	fb := model.CategoryFeedback{
		Category:    req.Category,
		Description: req.Description,
		Merchant:    req.Merchant,
		UserID:      req.UserID,
		Amount:      req.Amount,
		IsCorrect:   req.IsCorrect,
	}

	if err := h.learner.RecordFeedback(r.Context(), fb); err != nil {
		if errors.Is(err, common.ErrEmptyCategory) {
			respondError(w, http.StatusBadRequest, "categoryId 為必填欄位")
			return
		}
		common.LogError(err, "failed to record feedback", common.Fields{"category": req.Category})
		respondJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "回饋儲存失敗"})
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{Success: true, Message: "已記錄回饋"})
}

// handleAccuracy serves GET /accuracy.
func (h *handlers) handleAccuracy(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	report, err := h.learner.EvaluateAccuracy(r.Context())
	if err != nil {
		common.LogError(err, "failed to evaluate accuracy", nil)
		respondJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "無法計算準確率"})
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleGenerateRules serves POST /generate-rules. A run already in flight
// is reported, not queued.
func (h *handlers) handleGenerateRules(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	report, err := h.learner.GenerateRules(r.Context())
	if err != nil {
		if errors.Is(err, common.ErrRegenerationInFlight) {
			respondJSON(w, http.StatusConflict, statusResponse{Success: false, Message: "規則產生中，請稍後再試"})
			return
		}
		common.LogError(err, "rule generation failed", nil)
		respondJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "規則產生失敗"})
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("已掃描 %d 筆資料，新增 %d 條規則，更新 %d 條規則", report.SamplesScanned, report.RulesCreated, report.RulesUpdated),
	})
}

// handleStatistics serves GET /statistics.
func (h *handlers) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	stats, err := h.learner.Statistics(r.Context())
	if err != nil {
		common.LogError(err, "failed to compute statistics", nil)
		respondJSON(w, http.StatusInternalServerError, statusResponse{Success: false, Message: "無法取得統計資料"})
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleParse serves POST /parse. The transcript field is required at the
// HTTP boundary; the parser itself still degrades gracefully on any text.
func (h *handlers) handleParse(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req parseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.VoiceText) == "" {
		respondError(w, http.StatusBadRequest, "voiceText 為必填欄位")
		return
	}

	voiceContext := model.VoiceContext(req.Context)
	if voiceContext != model.ContextFamily {
		voiceContext = model.ContextPersonal
	}

	respondJSON(w, http.StatusOK, h.parser.Parse(req.VoiceText, voiceContext))
}

// requireMethod enforces the HTTP method and answers 405 otherwise.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decodeJSON decodes a request body, rejecting unknown shapes loudly.
func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// respondJSON writes a JSON response with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		common.LogError(err, "failed to encode response", nil)
	}
}

// respondError writes a failure status response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, statusResponse{Success: false, Message: message})
}
