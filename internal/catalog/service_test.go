package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/omnipay-inventory/internal/catalog"
	"github.com/noah-isme/omnipay-inventory/internal/checkout"
	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/db"
)

type fakeQueries struct {
	items      []db.Item
	categories []db.Category
	taxes      []db.SalesTax
	charge     *decimal.Decimal
	tiers      map[int64][]db.BulkPricingTier
	createErr  error
	created    []db.CreateItemParams

	listCalls int
	tierCalls int
}

func newFakeQueries() *fakeQueries {
	charged := decimal.RequireFromString("3.42")
	cat := int64(4)
	return &fakeQueries{
		items: []db.Item{
			{ItemID: 1, Name: "Cola 12oz", UPC: "049000028911", ItemCost: decimal.RequireFromString("1.10"), SalesTaxEnabled: true, CategoryID: &cat},
			{ItemID: 2, Name: "Chips", UPC: "028400090858", ItemCost: decimal.RequireFromString("2.00"), ChargedCost: &charged},
		},
		categories: []db.Category{{CategoryID: 4, Name: "Drinks", IsActive: true}},
		taxes:      []db.SalesTax{{SalesTaxID: 1, Name: "NJ", Rate: decimal.RequireFromString("6.625"), IsActive: true}},
		tiers: map[int64][]db.BulkPricingTier{
			1: {
				{ItemID: 1, Quantity: 6, Pricing: decimal.RequireFromString("1.00"), DiscountType: "$"},
				{ItemID: 1, Quantity: 12, Pricing: decimal.RequireFromString("10"), DiscountType: "%"},
			},
		},
	}
}

func (f *fakeQueries) ListItems(context.Context) ([]db.Item, error) {
	f.listCalls++
	return f.items, nil
}

func (f *fakeQueries) GetItemByID(_ context.Context, id int64) (db.Item, error) {
	for _, it := range f.items {
		if it.ItemID == id {
			return it, nil
		}
	}
	return db.Item{}, pgx.ErrNoRows
}

func (f *fakeQueries) GetItemByUPC(_ context.Context, upc string) (db.Item, error) {
	for _, it := range f.items {
		if it.UPC == upc || (it.AltUPC != nil && *it.AltUPC == upc) {
			return it, nil
		}
	}
	return db.Item{}, pgx.ErrNoRows
}

func (f *fakeQueries) ListItemsByCategory(_ context.Context, id int64) ([]db.Item, error) {
	var out []db.Item
	for _, it := range f.items {
		if it.CategoryID != nil && *it.CategoryID == id {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeQueries) CreateItem(_ context.Context, arg db.CreateItemParams) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, arg)
	return int64(100 + len(f.created)), nil
}

func (f *fakeQueries) ListCategories(context.Context) ([]db.Category, error) {
	return f.categories, nil
}

func (f *fakeQueries) ListActiveSalesTax(context.Context) ([]db.SalesTax, error) {
	return f.taxes, nil
}

func (f *fakeQueries) GetCreditCardCharge(context.Context) (pgtype.Numeric, error) {
	if f.charge == nil {
		return pgtype.Numeric{}, pgx.ErrNoRows
	}
	return db.Numeric(*f.charge), nil
}

func (f *fakeQueries) ListBulkTiers(_ context.Context, itemID int64) ([]db.BulkPricingTier, error) {
	f.tierCalls++
	return f.tiers[itemID], nil
}

func (f *fakeQueries) ReplaceBulkTiers(_ context.Context, itemID int64, tiers []db.InsertBulkTierParams) error {
	rows := make([]db.BulkPricingTier, 0, len(tiers))
	for _, t := range tiers {
		rows = append(rows, db.BulkPricingTier{ItemID: itemID, Quantity: t.Quantity, Pricing: db.Decimal(t.Pricing), DiscountType: t.DiscountType})
	}
	f.tiers[itemID] = rows
	return nil
}

func newService(t *testing.T, q *fakeQueries) *catalog.Service {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: q, Cache: catalog.NewCache(rdb, time.Minute)})
	require.NoError(t, err)
	return svc
}

func withParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestListItemsIsCached(t *testing.T) {
	q := newFakeQueries()
	svc := newService(t, q)

	for i := 0; i < 2; i++ {
		items, err := svc.ListItems(context.Background())
		require.NoError(t, err)
		require.Len(t, items, 2)
	}
	require.Equal(t, 1, q.listCalls)

	_, err := svc.CreateItem(context.Background(), catalog.CreateItemInput{Name: "Water", UPC: "012000001291", ItemCost: decimal.RequireFromString("0.99")})
	require.NoError(t, err)
	_, err = svc.ListItems(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, q.listCalls)
}

func TestCreatedItemDefaultsToTaxableThroughCheckout(t *testing.T) {
	q := newFakeQueries()
	svc := newService(t, q)
	ctx := context.Background()

	untaxed := false
	breadID, err := svc.CreateItem(ctx, catalog.CreateItemInput{Name: "Bread", UPC: "073410013533", ItemCost: decimal.RequireFromString("100.00")})
	require.NoError(t, err)
	depositID, err := svc.CreateItem(ctx, catalog.CreateItemInput{Name: "Deposit", UPC: "000000000123", ItemCost: decimal.RequireFromString("3.42"), SalesTaxEnabled: &untaxed})
	require.NoError(t, err)
	require.True(t, q.created[0].SalesTaxEnabled)
	require.False(t, q.created[1].SalesTaxEnabled)

	q.items = append(q.items,
		db.Item{ItemID: breadID, Name: "Bread", ItemCost: decimal.RequireFromString("100.00"), SalesTaxEnabled: q.created[0].SalesTaxEnabled},
		db.Item{ItemID: depositID, Name: "Deposit", ItemCost: decimal.RequireFromString("3.42"), SalesTaxEnabled: q.created[1].SalesTaxEnabled},
	)
	price, err := svc.GetItemPrice(ctx, breadID)
	require.NoError(t, err)
	require.True(t, price.Taxable)

	bills := &checkout.Service{Items: svc, Tiers: svc, Taxes: svc}
	out, err := bills.CalculateBill(ctx, checkout.BatchInput{Items: []checkout.ItemInput{
		{ItemID: breadID, Quantity: 1},
		{ItemID: depositID, Quantity: 1},
	}})
	require.NoError(t, err)
	require.Equal(t, checkout.Summary{
		Subtotal:      103.42,
		CoinsDiscount: 0,
		TaxableAmount: 103.42,
		TaxRate:       6.625,
		Tax:           6.63,
		Total:         110.05,
	}, out.Summary)
}

func TestProductByUPC(t *testing.T) {
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, newFakeQueries())})

	rec := httptest.NewRecorder()
	handler.ProductByUPC(rec, withParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/12ab", nil), "upc", "12ab"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid UPC format")

	rec = httptest.NewRecorder()
	handler.ProductByUPC(rec, withParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/99999", nil), "upc", "99999"))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Product not found")

	rec = httptest.NewRecorder()
	handler.ProductByUPC(rec, withParam(httptest.NewRequest(http.MethodGet, "/api/v1/products/049000028911", nil), "upc", "049000028911"))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool    `json:"success"`
		Data    db.Item `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "Cola 12oz", body.Data.Name)
}

func TestCreateProduct(t *testing.T) {
	q := newFakeQueries()
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, q)})

	payload := `{"name":"Water 1L","upc":"012000001291","itemCost":"0.99","chargedCost":1.25,"salesTaxEnabled":true}`
	rec := httptest.NewRecorder()
	handler.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), "Product added successfully")
	require.Len(t, q.created, 1)
	require.True(t, db.DecimalPtr(q.created[0].ChargedCost).Equal(decimal.RequireFromString("1.25")))
	require.Equal(t, int32(1), q.created[0].NumberInCase)

	rec = httptest.NewRecorder()
	handler.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"upc":"012000001291"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	q.createErr = &pgconn.PgError{Code: "23505"}
	rec = httptest.NewRecorder()
	handler.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(payload)))
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestCategoryItems(t *testing.T) {
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, newFakeQueries())})

	rec := httptest.NewRecorder()
	handler.CategoryItems(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories/items", strings.NewReader(`{"categoryId":4}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Cola 12oz")

	rec = httptest.NewRecorder()
	handler.CategoryItems(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories/items", strings.NewReader(`{"categoryId":9}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Category not found")
}

func TestCreditCardCharge(t *testing.T) {
	q := newFakeQueries()
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: newService(t, q)})

	rec := httptest.NewRecorder()
	handler.CreditCardCharge(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/credit-card-charge", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	charge := decimal.RequireFromString("3.5")
	q.charge = &charge
	rec = httptest.NewRecorder()
	handler.CreditCardCharge(rec, httptest.NewRequest(http.MethodGet, "/api/v1/config/credit-card-charge", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true,"creditCardCharge":3.5}`, rec.Body.String())
}

func TestFindTiersAndReplace(t *testing.T) {
	q := newFakeQueries()
	svc := newService(t, q)
	ctx := context.Background()

	tiers, err := svc.FindTiers(ctx, 1, 12)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Equal(t, "%", string(tiers[0].Type))

	_, err = svc.FindTiers(ctx, 1, 6)
	require.NoError(t, err)
	require.Equal(t, 1, q.tierCalls)

	err = svc.ReplaceBulkTiers(ctx, 1, []catalog.TierInput{
		{Quantity: 24, Pricing: decimal.RequireFromString("0.90"), DiscountType: "$"},
	})
	require.NoError(t, err)

	tiers, err = svc.FindTiers(ctx, 1, 12)
	require.NoError(t, err)
	require.Empty(t, tiers)
	tiers, err = svc.FindTiers(ctx, 1, 24)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Equal(t, 2, q.tierCalls)
}

func TestReplaceBulkTiersValidation(t *testing.T) {
	svc := newService(t, newFakeQueries())
	ctx := context.Background()

	err := svc.ReplaceBulkTiers(ctx, 1, []catalog.TierInput{
		{Quantity: 5, Pricing: decimal.RequireFromString("1"), DiscountType: "$"},
		{Quantity: 5, Pricing: decimal.RequireFromString("2"), DiscountType: "$"},
	})
	appErr, ok := common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	err = svc.ReplaceBulkTiers(ctx, 77, []catalog.TierInput{{Quantity: 5, Pricing: decimal.RequireFromString("1"), DiscountType: "$"}})
	appErr, ok = common.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestGetItemPrice(t *testing.T) {
	svc := newService(t, newFakeQueries())

	price, err := svc.GetItemPrice(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, price.UnitPrice().Equal(decimal.RequireFromString("3.45")))

	_, err = svc.GetItemPrice(context.Background(), 404)
	require.ErrorIs(t, err, catalog.ErrItemNotFound)
}
