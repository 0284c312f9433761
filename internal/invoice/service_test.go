package invoice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/lock"
)

type memoryStore struct {
	mu    sync.Mutex
	codes map[string]string
	// pause widens the read-modify-write window so unserialized callers collide.
	pause time.Duration
}

func (m *memoryStore) LastCode(_ context.Context, user string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[user]
	return code, ok, nil
}

func (m *memoryStore) Reserve(_ context.Context, user, prev, code string) error {
	if m.pause > 0 {
		time.Sleep(m.pause)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = map[string]string{}
	}
	if m.codes[user] != prev {
		return ErrSequenceConflict
	}
	m.codes[user] = code
	return nil
}

func issueConcurrently(t *testing.T, svcs []*Service, user string, n int) []string {
	t.Helper()
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := svcs[i%len(svcs)].Issue(context.Background(), user)
			require.NoError(t, err)
			mu.Lock()
			codes = append(codes, code)
			mu.Unlock()
		}(i)
	}
	wg.Wait()
	return codes
}

func requireContiguous(t *testing.T, user string, codes []string) {
	t.Helper()
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		require.False(t, seen[c], "duplicate code %s", c)
		seen[c] = true
	}
	for i := 1; i <= len(codes); i++ {
		require.True(t, seen[FormatCode(user, uint64(i))], "missing sequence %d", i)
	}
}

func TestIssueSerializesInProcess(t *testing.T) {
	svc := &Service{Store: &memoryStore{pause: time.Millisecond}, Locker: &lock.KeyedMutex{}}
	codes := issueConcurrently(t, []*Service{svc}, "kasir", 20)
	requireContiguous(t, "kasir", codes)
}

func TestIssueSerializesAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &memoryStore{pause: time.Millisecond}
	newInstance := func() *Service {
		return &Service{
			Store:  store,
			Locker: lock.Locker{R: client, Prefix: "lock:", RetryBackoff: time.Millisecond},
			TTL:    5 * time.Second,
		}
	}
	codes := issueConcurrently(t, []*Service{newInstance(), newInstance()}, "kasir", 12)
	requireContiguous(t, "kasir", codes)
}

func TestIssueContinuesFromLastCode(t *testing.T) {
	store := &memoryStore{codes: map[string]string{"kasir": "kasir000041"}}
	svc := &Service{Store: store, Locker: &lock.KeyedMutex{}}
	code, err := svc.Issue(context.Background(), "kasir")
	require.NoError(t, err)
	require.Equal(t, "kasir000042", code)
}

type racingStore struct{ memoryStore }

func (r *racingStore) Reserve(context.Context, string, string, string) error {
	return ErrSequenceConflict
}

func TestIssueConflictMapsTo409(t *testing.T) {
	svc := &Service{Store: &racingStore{}, Locker: &lock.KeyedMutex{}}
	_, err := svc.Issue(context.Background(), "kasir")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestIssueLockTimeoutMapsTo409(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, mr.Set("lock:invoice:kasir", "held-by-other-instance"))

	store := &memoryStore{codes: map[string]string{"kasir": "kasir000007"}}
	svc := &Service{
		Store:  store,
		Locker: lock.Locker{R: client, Prefix: "lock:", RetryBackoff: 2 * time.Millisecond, MaxWait: 20 * time.Millisecond},
		TTL:    time.Second,
	}
	_, err = svc.Issue(context.Background(), "kasir")
	require.ErrorIs(t, err, lock.ErrNotAcquired)
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
	require.Equal(t, "INVOICE_SEQUENCE_CONFLICT", appErr.Code)

	last, _, err := store.LastCode(context.Background(), "kasir")
	require.NoError(t, err)
	require.Equal(t, "kasir000007", last)
}

func TestIssueRequiresUserName(t *testing.T) {
	svc := &Service{Store: &memoryStore{}, Locker: &lock.KeyedMutex{}}
	_, err := svc.Issue(context.Background(), "   ")
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestNextCodeHandler(t *testing.T) {
	h := &Handler{Service: &Service{Store: &memoryStore{}, Locker: &lock.KeyedMutex{}}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/next-code", nil)
	req = req.WithContext(common.WithUserName(req.Context(), "kasir"))
	rec := httptest.NewRecorder()
	h.NextCode(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success     bool   `json:"success"`
		InvoiceCode string `json:"invoiceCode"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "kasir000001", resp.InvoiceCode)

	rec = httptest.NewRecorder()
	h.NextCode(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/next-code", strings.NewReader(`{"userName":"kasir"}`)))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "kasir000002", resp.InvoiceCode)

	rec = httptest.NewRecorder()
	h.NextCode(rec, httptest.NewRequest(http.MethodPost, "/api/v1/invoices/next-code", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
