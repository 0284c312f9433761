package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const listSaleRows = `SELECT i.created_at, ii.quantity, ii.total_price, i.invoice_code,
       COALESCE(NULLIF(btrim(ii.name), ''), it.name, '')
FROM invoice_items ii
JOIN invoices i ON i.invoice_id = ii.invoice_id
LEFT JOIN items it ON it.item_id = ii.item_id
WHERE i.created_at >= $1 AND i.created_at < $2`

// ListSaleRows returns sold lines with from <= created_at < to.
func (q *Queries) ListSaleRows(ctx context.Context, from, to time.Time) ([]SaleRow, error) {
	rows, err := q.db.Query(ctx, listSaleRows, from, to)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SaleRow, error) {
		var (
			r       SaleRow
			created pgtype.Timestamptz
			total   pgtype.Numeric
		)
		if err := row.Scan(&created, &r.Quantity, &total, &r.InvoiceCode, &r.ItemName); err != nil {
			return SaleRow{}, err
		}
		r.CreatedAt = TimePtr(created)
		r.TotalPrice = Decimal(total)
		return r, nil
	})
}

type FlashReportParams struct {
	From      time.Time
	To        time.Time
	InvoiceNo string
}

const flashReport = `SELECT invoice_code, user_name, payment_type, invoiced_by, subtotal, coins_discount, tax, total, created_at
FROM invoices
WHERE created_at >= $1 AND created_at < $2
  AND ($3 = '' OR invoice_code ILIKE '%' || $3 || '%')
ORDER BY created_at, invoice_code`

func (q *Queries) FlashReport(ctx context.Context, arg FlashReportParams) ([]InvoiceRow, error) {
	rows, err := q.db.Query(ctx, flashReport, arg.From, arg.To, arg.InvoiceNo)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (InvoiceRow, error) {
		var (
			r                           InvoiceRow
			subtotal, coins, tax, total pgtype.Numeric
		)
		if err := row.Scan(&r.InvoiceCode, &r.UserName, &r.PaymentType, &r.InvoicedBy,
			&subtotal, &coins, &tax, &total, &r.CreatedAt); err != nil {
			return InvoiceRow{}, err
		}
		r.Subtotal = Decimal(subtotal)
		r.CoinsDiscount = Decimal(coins)
		r.Tax = Decimal(tax)
		r.Total = Decimal(total)
		return r, nil
	})
}

type SalesHistoryParams struct {
	From        time.Time
	To          time.Time
	PaymentType string
	InvoicedBy  string
	InvoiceCode string
}

const salesHistory = `SELECT i.invoice_code, i.payment_type, i.invoiced_by, ii.item_id,
       COALESCE(NULLIF(btrim(ii.name), ''), it.name, ''), ii.quantity, ii.total_price, i.created_at
FROM invoice_items ii
JOIN invoices i ON i.invoice_id = ii.invoice_id
LEFT JOIN items it ON it.item_id = ii.item_id
WHERE i.created_at >= $1 AND i.created_at < $2
  AND ($3 = '' OR i.payment_type = $3)
  AND ($4 = '' OR i.invoiced_by = $4)
  AND ($5 = '' OR i.invoice_code = $5)
ORDER BY i.created_at, i.invoice_code, ii.invoice_item_id`

func (q *Queries) SalesHistory(ctx context.Context, arg SalesHistoryParams) ([]SalesHistoryRow, error) {
	rows, err := q.db.Query(ctx, salesHistory, arg.From, arg.To, arg.PaymentType, arg.InvoicedBy, arg.InvoiceCode)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SalesHistoryRow, error) {
		var (
			r     SalesHistoryRow
			total pgtype.Numeric
		)
		if err := row.Scan(&r.InvoiceCode, &r.PaymentType, &r.InvoicedBy, &r.ItemID,
			&r.ItemName, &r.Quantity, &total, &r.CreatedAt); err != nil {
			return SalesHistoryRow{}, err
		}
		r.TotalPrice = Decimal(total)
		return r, nil
	})
}

type InventoryTrackingParams struct {
	TrackingType string
	ProductName  string
	From         pgtype.Timestamptz
	To           pgtype.Timestamptz
}

const inventoryTracking = `SELECT t.tracking_id, t.item_id, it.name, t.tracking_type, t.quantity, t.note, t.created_at
FROM inventory_tracking t
JOIN items it ON it.item_id = t.item_id
WHERE ($1 = '' OR t.tracking_type = $1)
  AND ($2 = '' OR it.name ILIKE '%' || $2 || '%')
  AND ($3::timestamptz IS NULL OR t.created_at >= $3)
  AND ($4::timestamptz IS NULL OR t.created_at < $4)
ORDER BY t.created_at DESC, t.tracking_id DESC`

func (q *Queries) InventoryTracking(ctx context.Context, arg InventoryTrackingParams) ([]InventoryMovement, error) {
	rows, err := q.db.Query(ctx, inventoryTracking, arg.TrackingType, arg.ProductName, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (InventoryMovement, error) {
		var m InventoryMovement
		err := row.Scan(&m.TrackingID, &m.ItemID, &m.ItemName, &m.TrackingType, &m.Quantity, &m.Note, &m.CreatedAt)
		return m, err
	})
}
