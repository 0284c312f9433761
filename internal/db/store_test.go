package db_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/omnipay-inventory/internal/db"
)

func openStore(t *testing.T) *db.Store {
	t.Helper()
	dsn := os.Getenv("OMNIPAY_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("OMNIPAY_TEST_DATABASE_URL not set")
	}
	require.NoError(t, db.Migrate(dsn))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	_, err = pool.Exec(ctx, `TRUNCATE invoice_items, invoices, invoice_sequences, inventory_tracking, bulk_pricing_tiers, items, categories RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db.NewStore(pool)
}

func TestReplaceBulkTiersIsWholesale(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.CreateItem(ctx, db.CreateItemParams{
		Name:        "Cola 12oz",
		UPC:         "049000028911",
		ItemCost:    db.Numeric(decimal.RequireFromString("1.10")),
		SalesTax:    db.Numeric(decimal.Zero),
		CaseCost:    db.Numeric(decimal.Zero),
		CostPerItem: db.Numeric(decimal.Zero),
		IsActive:    true,
	})
	require.NoError(t, err)

	first := []db.InsertBulkTierParams{
		{Quantity: 6, Pricing: db.Numeric(decimal.RequireFromString("1.00")), DiscountType: "$"},
		{Quantity: 12, Pricing: db.Numeric(decimal.RequireFromString("10")), DiscountType: "%"},
	}
	require.NoError(t, store.ReplaceBulkTiers(ctx, id, first))

	second := []db.InsertBulkTierParams{
		{Quantity: 24, Pricing: db.Numeric(decimal.RequireFromString("0.90")), DiscountType: "$"},
	}
	require.NoError(t, store.ReplaceBulkTiers(ctx, id, second))

	tiers, err := store.ListBulkTiers(ctx, id)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Equal(t, int32(24), tiers[0].Quantity)
	require.True(t, tiers[0].Pricing.Equal(decimal.RequireFromString("0.90")))
}

func TestReplaceBulkTiersRollsBackOnFailure(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	id, err := store.CreateItem(ctx, db.CreateItemParams{
		Name:        "Chips",
		UPC:         "028400090858",
		ItemCost:    db.Numeric(decimal.RequireFromString("2.00")),
		SalesTax:    db.Numeric(decimal.Zero),
		CaseCost:    db.Numeric(decimal.Zero),
		CostPerItem: db.Numeric(decimal.Zero),
		IsActive:    true,
	})
	require.NoError(t, err)
	require.NoError(t, store.ReplaceBulkTiers(ctx, id, []db.InsertBulkTierParams{
		{Quantity: 3, Pricing: db.Numeric(decimal.RequireFromString("1.75")), DiscountType: "$"},
	}))

	err = store.ReplaceBulkTiers(ctx, id, []db.InsertBulkTierParams{
		{Quantity: 5, Pricing: db.Numeric(decimal.RequireFromString("1.50")), DiscountType: "$"},
		{Quantity: 5, Pricing: db.Numeric(decimal.RequireFromString("1.40")), DiscountType: "$"},
	})
	require.Error(t, err)

	tiers, err := store.ListBulkTiers(ctx, id)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	require.Equal(t, int32(3), tiers[0].Quantity)
}
