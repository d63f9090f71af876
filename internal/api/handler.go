package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/opensource-finance/harrier/internal/alerts"
	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/repository"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	engine  *engine.Engine
	repo    domain.Repository
	cache   domain.Cache
	bus     domain.EventBus
	version string
}

// NewHandler creates a new API handler.
func NewHandler(eng *engine.Engine, repo domain.Repository, cache domain.Cache, bus domain.EventBus, version string) *Handler {
	return &Handler{
		engine:  eng,
		repo:    repo,
		cache:   cache,
		bus:     bus,
		version: version,
	}
}

// AnalyzeRequest is the request body for POST /transactions/analyze.
// Account is optional; when absent it is loaded from the repository.
type AnalyzeRequest struct {
	Transaction domain.Transaction `json:"transaction"`
	Account     *domain.Account    `json:"account,omitempty"`
}

// AnalyzeResponse is the response for POST /transactions/analyze.
type AnalyzeResponse struct {
	TransactionID string             `json:"transactionId"`
	Category      domain.Category    `json:"category"`
	Score         int                `json:"score"`
	Triggers      []string           `json:"triggers,omitempty"`
	RuleScores    []domain.RuleScore `json:"ruleScores,omitempty"`
	Metadata      struct {
		TraceID string `json:"traceId"`
		TotalMs int64  `json:"totalMs"`
		Version string `json:"version"`
	} `json:"metadata"`
}

// Analyze handles POST /transactions/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	tx := req.Transaction
	if msg, ok := validateTransaction(&tx); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	account := req.Account
	if account != nil && h.repo != nil {
		if err := h.repo.SaveAccount(ctx, account); err != nil {
			slog.Error("failed to save account", "account_id", account.ID, "error", err)
		}
	}
	if account == nil && h.repo != nil {
		loaded, err := h.repo.GetAccount(ctx, tx.AccountID)
		if err == nil {
			account = loaded
		} else if !errors.Is(err, repository.ErrNotFound) {
			slog.Error("failed to load account", "account_id", tx.AccountID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": "failed to load account",
			})
			return
		}
	}

	result, err := h.engine.Analyze(ctx, &tx, account)
	if err != nil {
		slog.Error("analysis failed", "tx_id", tx.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed",
		})
		return
	}

	resp := AnalyzeResponse{
		TransactionID: tx.ID,
		Category:      tx.Category,
		Score:         result.Score,
		Triggers:      result.Triggers,
		RuleScores:    result.RuleScores,
	}
	resp.Metadata.TraceID = GetTraceID(ctx)
	resp.Metadata.TotalMs = time.Since(start).Milliseconds()
	resp.Metadata.Version = h.version

	writeJSON(w, http.StatusOK, resp)
}

// Categorize handles POST /transactions/categorize.
func (h *Handler) Categorize(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if tx.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "description is required",
		})
		return
	}

	category := h.engine.Categorize(&tx)
	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
	})
}

// Suggestions handles POST /transactions/suggestions.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	suggestions := h.engine.Suggestions(&tx)
	writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// CorrectionRequest is the request body for POST /corrections.
type CorrectionRequest struct {
	Transaction domain.Transaction `json:"transaction"`
	Category    domain.Category    `json:"category"`
}

// Correct handles POST /corrections.
func (h *Handler) Correct(w http.ResponseWriter, r *http.Request) {
	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Category == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "category is required",
		})
		return
	}
	if req.Transaction.Description == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "transaction.description is required",
		})
		return
	}

	h.engine.LearnFromCorrection(r.Context(), &req.Transaction, req.Category)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "recorded",
	})
}

// AccountAlerts handles GET /alerts/account/{accountId}.
func (h *Handler) AccountAlerts(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")
	if accountID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "account id is required",
		})
		return
	}

	list := h.engine.AccountAlerts(accountID)
	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": list,
		"count":  len(list),
	})
}

// ActiveAlertsCount handles GET /alerts/user/{userId}/count.
func (h *Handler) ActiveAlertsCount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "user id is required",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId": userID,
		"count":  h.engine.ActiveAlertsCount(userID),
	})
}

// ResolveRequest is the request body for POST /alerts/{id}/resolve.
type ResolveRequest struct {
	Resolution string `json:"resolution"`
}

// ResolveAlert handles POST /alerts/{id}/resolve.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}
	if req.Resolution == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "resolution is required",
		})
		return
	}

	err := h.engine.ResolveAlert(r.Context(), alertID, req.Resolution)
	switch {
	case errors.Is(err, alerts.ErrAlertNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "alert not found",
		})
	case errors.Is(err, alerts.ErrAlertResolved):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "alert already resolved",
		})
	case err != nil:
		slog.Error("failed to resolve alert", "alert_id", alertID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to resolve alert",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "resolved",
		})
	}
}

// ListFraudRules handles GET /fraud-rules.
func (h *Handler) ListFraudRules(w http.ResponseWriter, r *http.Request) {
	rules := h.engine.FraudRules()
	writeJSON(w, http.StatusOK, map[string]any{
		"rules": rules,
		"count": len(rules),
	})
}

// UpdateFraudRule handles PATCH /fraud-rules/{id}.
func (h *Handler) UpdateFraudRule(w http.ResponseWriter, r *http.Request) {
	ruleID := chi.URLParam(r, "id")

	var upd domain.FraudRuleUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON request body",
		})
		return
	}

	rule, err := h.engine.UpdateFraudRule(r.Context(), ruleID, upd)
	if errors.Is(err, catalog.ErrRuleNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "rule not found",
		})
		return
	}
	if err != nil {
		slog.Error("failed to update fraud rule", "rule_id", ruleID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update rule",
		})
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// ReloadFraudRules handles POST /fraud-rules/reload.
func (h *Handler) ReloadFraudRules(w http.ResponseWriter, r *http.Request) {
	count, err := h.engine.ReloadFraudRules(r.Context())
	if err != nil {
		slog.Error("failed to reload fraud rules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to reload rules",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "reloaded",
		"count":  count,
	})
}

// Stats handles GET /stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Stats())
}

// Health returns server health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"

	// Check repository health
	if h.repo != nil {
		if err := h.repo.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	// Check cache health
	if h.cache != nil {
		if err := h.cache.Ping(r.Context()); err != nil {
			status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"version": h.version,
	})
}

// Ready returns whether the server is ready to accept traffic.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"ready": "true",
	})
}

// validateTransaction checks required fields and fills defaults. Returns an
// error message and false when the transaction is unusable.
func validateTransaction(tx *domain.Transaction) (string, bool) {
	if tx.AccountID == "" {
		return "transaction.accountId is required", false
	}
	if tx.Amount < 0 {
		return "transaction.amount must be non-negative", false
	}
	if tx.Type != domain.TypeCredit && tx.Type != domain.TypeDebit {
		return "transaction.type must be credit or debit", false
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.Date.IsZero() {
		tx.Date = time.Now().UTC()
	}
	return "", true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
