package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/omnipay-inventory/internal/auth"
	"github.com/noah-isme/omnipay-inventory/internal/catalog"
	"github.com/noah-isme/omnipay-inventory/internal/checkout"
	"github.com/noah-isme/omnipay-inventory/internal/db"
	"github.com/noah-isme/omnipay-inventory/internal/health"
	"github.com/noah-isme/omnipay-inventory/internal/invoice"
	"github.com/noah-isme/omnipay-inventory/internal/lock"
	"github.com/noah-isme/omnipay-inventory/internal/loyalty"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
	"github.com/noah-isme/omnipay-inventory/internal/reports"
	"github.com/noah-isme/omnipay-inventory/internal/security"
	"github.com/noah-isme/omnipay-inventory/internal/tasks"
)

type staffQueries struct {
	users map[string]db.User
}

func (q staffQueries) GetUserByUserName(_ context.Context, name string) (db.User, error) {
	u, ok := q.users[name]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type sequenceStore struct {
	mu   sync.Mutex
	last map[string]string
}

func (s *sequenceStore) LastCode(_ context.Context, user string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.last[user]
	return code, ok, nil
}

func (s *sequenceStore) Reserve(_ context.Context, user, _ string, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[user] = code
	return nil
}

type countingQueue struct {
	mu    sync.Mutex
	types []string
}

func (q *countingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.types = append(q.types, task.Type())
	return &asynq.TaskInfo{ID: "warm-1", Type: task.Type()}, nil
}

type okChecker struct{}

func (okChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (okChecker) PingRedis(context.Context, time.Duration) error { return nil }

func newTestRouter(t *testing.T) (http.Handler, *auth.Service) {
	t.Helper()
	hash, err := argon2id.CreateHash("kasir-pass", &argon2id.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	authSvc, err := auth.NewService(auth.Config{
		Queries: staffQueries{users: map[string]db.User{
			"kasir": {UserCode: "E-001", UserName: "kasir", UserRole: "Cashier", PasswordHash: hash},
		}},
		Secret: "router-test-secret",
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	handlers := Handlers{
		Catalog:  catalog.NewHandler(catalog.HandlerConfig{}),
		Checkout: &checkout.Handler{},
		Reports:  &reports.Handler{},
		Loyalty:  &loyalty.Handler{},
		Invoices: &invoice.Handler{Service: &invoice.Service{
			Store:  &sequenceStore{last: map[string]string{}},
			Locker: &lock.KeyedMutex{},
		}},
		Auth:   &auth.Handler{Service: authSvc},
		Tasks:  &tasks.Handler{Queue: &countingQueue{}},
		AuthMW: auth.Middleware{Service: authSvc},
		Health: health.Handler{Checker: okChecker{}},
	}
	router := NewRouter(RouterConfig{
		Logger:         zerolog.Nop(),
		Metrics:        obs.NewHTTPMetrics("omnipay_test", nil, reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSOrigins:    []string{"https://pos.example.com"},
		BodyLimit:      1024,
		Headers:        security.Headers{Enable: true},
	}, handlers)
	return router, authSvc
}

func TestRouterHealthAndHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestRouterPricesLine(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"unitPrice":"10","quantity":3}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/line", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"unitPrice":"10","quantity":3,"pad":"` + strings.Repeat("x", 2048) + `"}`
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/pricing/line", strings.NewReader(body)))
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestRouterProtectsWrites(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/products"},
		{http.MethodPut, "/api/v1/bulk-pricing/1"},
		{http.MethodPost, "/api/v1/invoices/next-code"},
		{http.MethodPost, "/api/v1/reports/hourly/warm"},
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		require.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
	}
}

func TestRouterIssuesInvoiceCodeForCaller(t *testing.T) {
	router, authSvc := newTestRouter(t)

	login, err := authSvc.Login(context.Background(), "kasir", "kasir-pass")
	require.NoError(t, err)

	for _, want := range []string{"kasir000001", "kasir000002"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/next-code", nil)
		req.Header.Set("Authorization", "Bearer "+login.AccessToken)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var resp struct {
			InvoiceCode string `json:"invoiceCode"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, want, resp.InvoiceCode)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/checkout/bill", nil)
	req.Header.Set("Origin", "https://pos.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, "https://pos.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterExposesMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "omnipay_test_http_requests_total")
}
