package loyalty

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/omnipay-inventory/internal/db"
)

type fakeQueries struct {
	users map[string]db.User
	err   error
}

func (f fakeQueries) GetCustomerByCode(_ context.Context, code string) (db.User, error) {
	if f.err != nil {
		return db.User{}, f.err
	}
	u, ok := f.users[code]
	if !ok {
		return db.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func newTestService() *Service {
	email := "rina@example.com"
	return NewService(fakeQueries{users: map[string]db.User{
		"C-100": {UserCode: "C-100", UserName: "rina", Name: "Rina", EmailID: &email, UserRole: "Customer", AvailableCoins: 25000},
		"C-200": {UserCode: "C-200", UserName: "budi", Name: "Budi", UserRole: "Customer", AvailableCoins: 9999},
	}})
}

func TestCustomerCoins(t *testing.T) {
	svc := newTestService()

	coins, ok, err := svc.CustomerCoins(context.Background(), "C-100")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(25000), coins)

	_, ok, err = svc.CustomerCoins(context.Background(), "E-1")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = svc.CustomerCoins(context.Background(), "  ")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCustomerCoinsPropagatesStoreErrors(t *testing.T) {
	svc := NewService(fakeQueries{err: errors.New("db down")})
	_, _, err := svc.CustomerCoins(context.Background(), "C-100")
	require.Error(t, err)
}

func TestCustomerDiscountBlocks(t *testing.T) {
	svc := newTestService()
	c, err := svc.Customer(context.Background(), "C-100")
	require.NoError(t, err)
	require.Equal(t, "10", c.CoinsDiscount.String())

	c, err = svc.Customer(context.Background(), "C-200")
	require.NoError(t, err)
	require.True(t, c.CoinsDiscount.IsZero())
}

func TestCoinsHandler(t *testing.T) {
	h := &Handler{Service: newTestService()}

	rec := httptest.NewRecorder()
	h.Coins(rec, httptest.NewRequest(http.MethodPost, "/api/v1/loyalty/coins", strings.NewReader(`{"userCode":"C-100"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		User    map[string]any `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, "Coins successful", resp.Message)
	require.Equal(t, "rina", resp.User["userName"])
	require.Equal(t, "rina@example.com", resp.User["emailId"])

	rec = httptest.NewRecorder()
	h.Coins(rec, httptest.NewRequest(http.MethodPost, "/api/v1/loyalty/coins", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "UserCode required")

	rec = httptest.NewRecorder()
	h.Coins(rec, httptest.NewRequest(http.MethodPost, "/api/v1/loyalty/coins", strings.NewReader(`{"userCode":"E-1"}`)))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid userCode")
}
