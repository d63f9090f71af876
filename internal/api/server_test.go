package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/harrier/internal/alerts"
	"github.com/opensource-finance/harrier/internal/bus"
	"github.com/opensource-finance/harrier/internal/cache"
	"github.com/opensource-finance/harrier/internal/catalog"
	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/engine"
	"github.com/opensource-finance/harrier/internal/fraud"
	"github.com/opensource-finance/harrier/internal/history"
	"github.com/opensource-finance/harrier/internal/merchant"
	"github.com/opensource-finance/harrier/internal/repository"
)

func setupServer(t *testing.T) (*Server, domain.Repository) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "harrier-api-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpFile.Name(),
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	c := cache.NewLRUCache(100)
	t.Cleanup(func() { c.Close() })

	b := bus.NewChannelBus(100)
	t.Cleanup(func() { b.Close() })

	cfg := domain.EngineConfig{
		AlertThreshold:        70,
		ElevatedThreshold:     50,
		ManualReviewThreshold: 85,
		LearnThreshold:        70,
		HistoryDays:           30,
		HomeCountry:           "ZA",
	}
	eng := engine.New(engine.Options{
		Config:     cfg,
		Directory:  merchant.NewDirectory(merchant.DefaultMerchants()),
		FraudRules: catalog.NewFraudCatalog(catalog.DefaultFraudRules()),
		CatRules:   catalog.NewCategoryCatalog(catalog.DefaultCategoryRules()),
		Detector:   fraud.DefaultOptions(),
		Alerts:     alerts.NewManager(repo, nil, cfg.ManualReviewThreshold),
		History:    history.NewService(repo, c, nil, cfg.HistoryDays),
		Repo:       repo,
		Bus:        b,
	})

	srv := NewServer(domain.ServerConfig{Host: "127.0.0.1", Port: 0}, eng, repo, c, b, "test")
	return srv, repo
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("Health", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/health", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["status"] != "healthy" {
			t.Errorf("expected healthy, got %s", resp["status"])
		}
		if resp["version"] != "test" {
			t.Errorf("expected version test, got %s", resp["version"])
		}
	})

	t.Run("Ready", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/ready", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("TraceHeaders", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/health", nil)
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected X-Request-ID header")
		}
		if rec.Header().Get(TraceIDHeader) == "" {
			t.Error("expected X-Trace-ID header")
		}
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("HappyPath", func(t *testing.T) {
		srv, _ := setupServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/transactions/analyze", AnalyzeRequest{
			Transaction: domain.Transaction{
				ID:          "tx-1",
				AccountID:   "acc-1",
				Type:        domain.TypeDebit,
				Amount:      450,
				Description: "WOOLWORTHS SANDTON",
				Date:        time.Now().UTC(),
			},
			Account: &domain.Account{ID: "acc-1", UserID: "user-1", HomeCountry: "ZA"},
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp AnalyzeResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.TransactionID != "tx-1" {
			t.Errorf("expected tx-1, got %s", resp.TransactionID)
		}
		if resp.Category != domain.CategoryGroceries {
			t.Errorf("expected GROCERIES, got %s", resp.Category)
		}
		if resp.Score != 0 {
			t.Errorf("expected score 0, got %d", resp.Score)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected trace id in metadata")
		}
	})

	t.Run("MissingAccountID", func(t *testing.T) {
		srv, _ := setupServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/transactions/analyze", AnalyzeRequest{
			Transaction: domain.Transaction{
				Type:   domain.TypeDebit,
				Amount: 100,
			},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidType", func(t *testing.T) {
		srv, _ := setupServer(t)

		rec := doJSON(t, srv, http.MethodPost, "/transactions/analyze", AnalyzeRequest{
			Transaction: domain.Transaction{
				AccountID: "acc-1",
				Type:      "refund",
				Amount:    100,
			},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		srv, _ := setupServer(t)

		req := httptest.NewRequest(http.MethodPost, "/transactions/analyze", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategorizeEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("Known", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/transactions/categorize", domain.Transaction{
			Type:        domain.TypeDebit,
			Amount:      450,
			Description: "CHECKERS SIXTY60 DELIVERY",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp map[string]string
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["category"] != string(domain.CategoryGroceries) {
			t.Errorf("expected GROCERIES, got %s", resp["category"])
		}
	})

	t.Run("MissingDescription", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/transactions/categorize", domain.Transaction{Amount: 10})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestSuggestionsEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions/suggestions", domain.Transaction{
		Type:        domain.TypeDebit,
		Amount:      450,
		Description: "WOOLWORTHS FOOD",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Suggestions []domain.CategoryResult `json:"suggestions"`
		Count       int                     `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count == 0 || resp.Count != len(resp.Suggestions) {
		t.Errorf("inconsistent suggestion count: %d vs %d items", resp.Count, len(resp.Suggestions))
	}
	if resp.Suggestions[0].Category != domain.CategoryGroceries {
		t.Errorf("expected GROCERIES first, got %s", resp.Suggestions[0].Category)
	}
}

func TestCorrectionsEndpoint(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("Recorded", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/corrections", CorrectionRequest{
			Transaction: domain.Transaction{
				Description: "Corner Store 42",
			},
			Category: domain.CategoryGroceries,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		stats := doJSON(t, srv, http.MethodGet, "/stats", nil)
		var resp domain.CategorizationStats
		json.Unmarshal(stats.Body.Bytes(), &resp)
		if resp.LearningDataSize != 1 {
			t.Errorf("expected 1 learning record, got %d", resp.LearningDataSize)
		}
	})

	t.Run("MissingCategory", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/corrections", CorrectionRequest{
			Transaction: domain.Transaction{Description: "something"},
		})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestFraudRuleEndpoints(t *testing.T) {
	srv, _ := setupServer(t)

	t.Run("List", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/fraud-rules", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Rules []domain.FraudRule `json:"rules"`
			Count int                `json:"count"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Count != len(catalog.DefaultFraudRules()) {
			t.Errorf("expected full default catalog, got %d", resp.Count)
		}
	})

	t.Run("Patch", func(t *testing.T) {
		enabled := false
		rec := doJSON(t, srv, http.MethodPatch, "/fraud-rules/unusual_amount", domain.FraudRuleUpdate{
			Enabled: &enabled,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var rule domain.FraudRule
		json.Unmarshal(rec.Body.Bytes(), &rule)
		if rule.Enabled {
			t.Error("expected rule disabled")
		}
	})

	t.Run("PatchUnknownRule", func(t *testing.T) {
		enabled := true
		rec := doJSON(t, srv, http.MethodPatch, "/fraud-rules/no-such-rule", domain.FraudRuleUpdate{
			Enabled: &enabled,
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/fraud-rules/reload", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})
}

func TestAlertEndpoints(t *testing.T) {
	srv, _ := setupServer(t)

	// Trigger an alert through the analyze endpoint.
	rec := doJSON(t, srv, http.MethodPost, "/transactions/analyze", AnalyzeRequest{
		Transaction: domain.Transaction{
			ID:          "tx-bad",
			AccountID:   "acc-1",
			Type:        domain.TypeDebit,
			Amount:      250,
			Description: "DARKMARKET PURCHASE",
			Date:        time.Now().UTC(),
		},
		Account: &domain.Account{ID: "acc-1", UserID: "user-1", HomeCountry: "ZA"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze failed: %d %s", rec.Code, rec.Body.String())
	}

	var alertID string
	t.Run("AccountAlerts", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/alerts/account/acc-1", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Alerts []domain.FraudAlert `json:"alerts"`
			Count  int                 `json:"count"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Fatalf("expected 1 alert, got %d", resp.Count)
		}
		alertID = resp.Alerts[0].ID
	})

	t.Run("UserCount", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/alerts/user/user-1/count", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp struct {
			Count int `json:"count"`
		}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp.Count != 1 {
			t.Errorf("expected 1 open alert, got %d", resp.Count)
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/alerts/"+alertID+"/resolve", ResolveRequest{
			Resolution: "card cancelled",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("ResolveAgainConflicts", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/alerts/"+alertID+"/resolve", ResolveRequest{
			Resolution: "again",
		})
		if rec.Code != http.StatusConflict {
			t.Errorf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("ResolveUnknown", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/alerts/no-such-alert/resolve", ResolveRequest{
			Resolution: "whatever",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("ResolveMissingResolution", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodPost, "/alerts/"+alertID+"/resolve", ResolveRequest{})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/transactions/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("unexpected allow-origin: %s", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
