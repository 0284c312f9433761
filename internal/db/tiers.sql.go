package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func scanTier(row pgx.CollectableRow) (BulkPricingTier, error) {
	var (
		t       BulkPricingTier
		pricing pgtype.Numeric
	)
	if err := row.Scan(&t.ItemID, &t.Quantity, &pricing, &t.DiscountType); err != nil {
		return BulkPricingTier{}, err
	}
	t.Pricing = Decimal(pricing)
	return t, nil
}

const listBulkTiers = `SELECT item_id, quantity, pricing, discount_type FROM bulk_pricing_tiers
WHERE item_id = $1 ORDER BY quantity, tier_id`

func (q *Queries) ListBulkTiers(ctx context.Context, itemID int64) ([]BulkPricingTier, error) {
	rows, err := q.db.Query(ctx, listBulkTiers, itemID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanTier)
}

const deleteBulkTiers = `DELETE FROM bulk_pricing_tiers WHERE item_id = $1`

func (q *Queries) DeleteBulkTiers(ctx context.Context, itemID int64) error {
	_, err := q.db.Exec(ctx, deleteBulkTiers, itemID)
	return err
}

type InsertBulkTierParams struct {
	ItemID       int64
	Quantity     int32
	Pricing      pgtype.Numeric
	DiscountType string
}

const insertBulkTier = `INSERT INTO bulk_pricing_tiers (item_id, quantity, pricing, discount_type)
VALUES ($1, $2, $3, $4)`

func (q *Queries) InsertBulkTier(ctx context.Context, arg InsertBulkTierParams) error {
	_, err := q.db.Exec(ctx, insertBulkTier, arg.ItemID, arg.Quantity, arg.Pricing, arg.DiscountType)
	return err
}
