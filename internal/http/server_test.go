package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daan/internal/cache"
	"daan/internal/confirm"
	"daan/internal/core"
	"daan/internal/export"
	"daan/internal/metrics"
	"daan/internal/services"
	"daan/internal/storage"
)

const testSecret = "let-me-delete"

func newTestServer(t *testing.T) (*Server, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	confirmer := confirm.Func(func(_ context.Context, token string) error {
		if token != testSecret {
			return fmt.Errorf("%w: wrong token", core.ErrConfirmation)
		}
		return nil
	})
	m := metrics.New()
	donors := cache.NewLRUCache[[]string](16, time.Minute)
	srv := NewServer(Options{
		Addr: ":0",
		Services: Services{
			Donations:  services.NewDonationService(repo, nil, m, confirmer, donors, services.DefaultPaging),
			Settlement: services.NewSettlementService(repo, nil, m),
			Expenses:   services.NewExpenseService(repo, nil, m, confirmer, services.DefaultPaging),
			Reports:    services.NewReportService(repo),
		},
		Ready:   repo.Ping,
		Metrics: m,
	})
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, repo
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, out
}

func createDonation(t *testing.T, srv *Server, body string) int64 {
	t.Helper()
	rec, out := do(t, srv, http.MethodPost, "/api/donations", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create donation status=%d body=%s", rec.Code, rec.Body.String())
	}
	return int64(out["donation"].(map[string]any)["id"].(float64))
}

func TestHealthReadyAndMetrics(t *testing.T) {
	srv, repo := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec, out := do(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK || out["success"] != true {
			t.Fatalf("%s status=%d body=%v", path, rec.Code, out)
		}
	}
	if rec, _ := do(t, srv, http.MethodGet, "/healthz", ""); rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	rec, _ := do(t, srv, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `route="/healthz"`) {
		t.Fatalf("metrics missing route label: %d %s", rec.Code, rec.Body.String())
	}

	repo.Close()
	rec, out := do(t, srv, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable || out["success"] != false {
		t.Fatalf("expected not ready after close, got %d %v", rec.Code, out)
	}
}

func TestDonationSettlementFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	a := createDonation(t, srv, `{"name":"Ravi","date":"2024-01-01","category":"Shanti Dhara","amount":0,"pending_amount":"50.00"}`)
	b := createDonation(t, srv, `{"name":"Ravi","date":"2024-02-01","category":"Shanti Dhara","amount":0,"pending_amount":80}`)

	rec, out := do(t, srv, http.MethodPost, "/api/donors/Ravi/payments", `{"amount_paid":100,"date":"2024-03-01"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay donor status=%d body=%s", rec.Code, rec.Body.String())
	}
	settlement := out["settlement"].(map[string]any)
	if settlement["amount_applied"] != 100.0 || len(settlement["installments"].([]any)) != 2 {
		t.Fatalf("unexpected settlement %v", settlement)
	}

	_, out = do(t, srv, http.MethodGet, "/api/donors/Ravi/history", "")
	history := out["history"].(map[string]any)
	if history["total_pending"] != 30.0 {
		t.Fatalf("expected 30 pending, got %v", history["total_pending"])
	}

	_, out = do(t, srv, http.MethodGet, "/api/pending", "")
	pending := out["pending"].([]any)
	if len(pending) != 1 || pending[0].(map[string]any)["name"] != "Ravi" {
		t.Fatalf("unexpected pending %v", pending)
	}

	rec, out = do(t, srv, http.MethodPost, "/api/donations/"+itoa(a)+"/payments", `{"amount_paid":5,"date":"2024-03-02"}`)
	if rec.Code != http.StatusConflict || out["kind"] != "no_pending_balance" {
		t.Fatalf("expected 409 on settled donation, got %d %v", rec.Code, out)
	}

	rec, out = do(t, srv, http.MethodPost, "/api/donations/"+itoa(b)+"/payments", `{"amount_paid":1000,"date":"2024-03-03","payment_method":"Online","transaction_id":"UPI-7"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay donation status=%d body=%s", rec.Code, rec.Body.String())
	}
	if s := out["settlement"].(map[string]any); s["amount_applied"] != 30.0 || s["amount_discarded"] != 970.0 {
		t.Fatalf("expected clamp to 30, got %v", s)
	}

	_, out = do(t, srv, http.MethodGet, "/api/donations/"+itoa(b)+"/payments", "")
	if payments := out["payments"].([]any); len(payments) != 2 {
		t.Fatalf("expected 2 payments on B, got %v", payments)
	}

	_, out = do(t, srv, http.MethodGet, "/api/dashboard", "")
	if out["total_pending"] != 0.0 || out["total_cash_in"] != 0.0 {
		t.Fatalf("unexpected dashboard %v", out)
	}
}

func TestDonationValidationAndErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing name", http.MethodPost, "/api/donations", `{"date":"2024-01-01","category":"X","amount":1}`, http.StatusUnprocessableEntity},
		{"negative amount", http.MethodPost, "/api/donations", `{"name":"A","date":"2024-01-01","category":"X","amount":-1}`, http.StatusUnprocessableEntity},
		{"online without reference", http.MethodPost, "/api/donations", `{"name":"A","date":"2024-01-01","category":"X","amount":1,"payment_method":"Online"}`, http.StatusUnprocessableEntity},
		{"malformed json", http.MethodPost, "/api/donations", `{"name":`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/donations/abc/payments", "", http.StatusUnprocessableEntity},
		{"unknown donation", http.MethodPost, "/api/donations/999/payments", `{"amount_paid":1,"date":"2024-01-01"}`, http.StatusNotFound},
		{"update unknown", http.MethodPut, "/api/donations/999", `{"name":"A","date":"2024-01-01","category":"X","amount":1}`, http.StatusNotFound},
		{"zero payment", http.MethodPost, "/api/donors/A/payments", `{"amount_paid":0,"date":"2024-01-01"}`, http.StatusUnprocessableEntity},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
		{"wrong method", http.MethodPatch, "/api/donations", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, srv, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
			if out["success"] != false || out["error"] == "" {
				t.Fatalf("expected error envelope, got %v", out)
			}
		})
	}

	// Unknown donation history is empty, not an error.
	rec, out := do(t, srv, http.MethodGet, "/api/donations/12345/payments", "")
	if rec.Code != http.StatusOK || len(out["payments"].([]any)) != 0 {
		t.Fatalf("expected empty payments, got %d %v", rec.Code, out)
	}
}

func TestDeleteDonationRequiresConfirmation(t *testing.T) {
	srv, _ := newTestServer(t)
	id := createDonation(t, srv, `{"name":"Uma","date":"2024-01-01","category":"Annadaan","amount":"10","pending_amount":5}`)
	do(t, srv, http.MethodPost, "/api/donations/"+itoa(id)+"/payments", `{"amount_paid":2,"date":"2024-01-05"}`)

	rec, _ := do(t, srv, http.MethodDelete, "/api/donations/"+itoa(id), "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rec.Code)
	}
	rec, _ = do(t, srv, http.MethodDelete, "/api/donations/"+itoa(id), "", ConfirmTokenHeader, "wrong")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong token, got %d", rec.Code)
	}
	rec, _ = do(t, srv, http.MethodDelete, "/api/donations/"+itoa(id), "", ConfirmTokenHeader, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d %s", rec.Code, rec.Body.String())
	}

	rec, _ = do(t, srv, http.MethodGet, "/api/donations/"+itoa(id), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
	_, out := do(t, srv, http.MethodGet, "/api/donations/"+itoa(id)+"/payments", "")
	if len(out["payments"].([]any)) != 0 {
		t.Fatalf("installments should be gone, got %v", out["payments"])
	}
}

func TestPaginationAndSearch(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, name := range []string{"Asha", "Ashok", "Bela", "Chand", "Dev"} {
		createDonation(t, srv, `{"name":"`+name+`","date":"2024-01-01","category":"Annadaan","amount":"30.00"}`)
	}

	_, out := do(t, srv, http.MethodGet, "/api/donations?page=999&limit=10", "")
	if out["total"] != 5.0 || len(out["donations"].([]any)) != 0 {
		t.Fatalf("expected empty page with total 5, got %v", out)
	}

	_, out = do(t, srv, http.MethodGet, "/api/donations?page=1&limit=2", "")
	if out["total_pages"] != 3.0 || len(out["donations"].([]any)) != 2 {
		t.Fatalf("unexpected first page %v", out)
	}

	_, out = do(t, srv, http.MethodGet, "/api/donors?q=ash", "")
	if donors := out["donors"].([]any); len(donors) != 2 {
		t.Fatalf("expected 2 donors matching ash, got %v", donors)
	}

	_, out = do(t, srv, http.MethodGet, "/api/donations/all", "")
	if len(out["donations"].([]any)) != 5 {
		t.Fatalf("expected all 5 donations, got %v", out)
	}
}

func TestExpenseRoutesAndExport(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, out := do(t, srv, http.MethodPost, "/api/expenses", `{"date":"2024-01-03","title":"Ghee","amount":"12.50","description":"for lamps"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense status=%d body=%s", rec.Code, rec.Body.String())
	}
	id := int64(out["expense"].(map[string]any)["id"].(float64))

	rec, out = do(t, srv, http.MethodPut, "/api/expenses/"+itoa(id), `{"date":"2024-01-03","title":"Ghee","amount":15}`)
	if rec.Code != http.StatusOK || out["expense"].(map[string]any)["amount"] != 15.0 {
		t.Fatalf("update expense %d %v", rec.Code, out)
	}

	_, out = do(t, srv, http.MethodGet, "/api/expenses?search=ghee", "")
	if out["total"] != 1.0 {
		t.Fatalf("expected 1 matching expense, got %v", out)
	}

	rec, _ = do(t, srv, http.MethodGet, "/api/export/expenses.xlsx", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != export.ContentType {
		t.Fatalf("export status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="expenses_`) || rec.Body.Len() == 0 {
		t.Fatalf("unexpected attachment headers %v", rec.Header())
	}

	rec, _ = do(t, srv, http.MethodDelete, "/api/expenses/"+itoa(id), "", ConfirmTokenHeader, testSecret)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete expense status=%d", rec.Code)
	}
	rec, _ = do(t, srv, http.MethodGet, "/api/expenses/"+itoa(id), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv, repo := newTestServer(t)
	limited := NewServer(Options{
		Services:           srv.svc,
		Ready:              repo.Ping,
		RateLimitPerMinute: 1,
	})
	t.Cleanup(func() { limited.Shutdown(context.Background()) })

	first, _ := do(t, limited, http.MethodGet, "/api/pending", "")
	second, out := do(t, limited, http.MethodGet, "/api/pending", "")
	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests || out["success"] != false {
		t.Fatalf("expected 200 then 429, got %d %d", first.Code, second.Code)
	}

	// Health checks are not limited.
	if rec, _ := do(t, limited, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz limited: %d", rec.Code)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	srv, _ := newTestServer(t)
	if err := srv.Shutdown(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("shutdown: %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("second shutdown: %v", err)
	}
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
