package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const itemColumns = `item_id, name, upc, alt_upc, additional_description, item_cost, charged_cost,
       sales_tax_enabled, sales_tax, in_stock, vendor_name, case_cost, number_in_case, manual_pack,
       quick_add, dropped_item, enable_stock_alert, stock_alert_limit, image_url, category_id,
       is_active, cost_per_item, created_at`

func scanItem(row pgx.Row) (Item, error) {
	var i Item
	var itemCost, chargedCost, salesTax, caseCost, cpi pgtype.Numeric
	err := row.Scan(
		&i.ItemID, &i.Name, &i.UPC, &i.AltUPC, &i.AdditionalDescription, &itemCost, &chargedCost,
		&i.SalesTaxEnabled, &salesTax, &i.InStock, &i.VendorName, &caseCost, &i.NumberInCase, &i.ManualPack,
		&i.QuickAdd, &i.DroppedItem, &i.EnableStockAlert, &i.StockAlertLimit, &i.ImageURL, &i.CategoryID,
		&i.IsActive, &cpi, &i.CreatedAt,
	)
	if err != nil {
		return Item{}, err
	}
	i.ItemCost = Decimal(itemCost)
	i.ChargedCost = DecimalPtr(chargedCost)
	i.SalesTax = Decimal(salesTax)
	i.CaseCost = Decimal(caseCost)
	i.CostPerItem = Decimal(cpi)
	return i, nil
}

func collectItems(rows pgx.Rows) ([]Item, error) {
	defer rows.Close()
	items := []Item{}
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const listItems = `SELECT ` + itemColumns + ` FROM items ORDER BY name, item_id`

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItems)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

const getItemByID = `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1`

func (q *Queries) GetItemByID(ctx context.Context, itemID int64) (Item, error) {
	return scanItem(q.db.QueryRow(ctx, getItemByID, itemID))
}

const getItemByUPC = `SELECT ` + itemColumns + ` FROM items WHERE upc = $1 OR alt_upc = $1
ORDER BY (upc = $1) DESC LIMIT 1`

func (q *Queries) GetItemByUPC(ctx context.Context, upc string) (Item, error) {
	return scanItem(q.db.QueryRow(ctx, getItemByUPC, upc))
}

const listItemsByCategory = `SELECT ` + itemColumns + ` FROM items WHERE category_id = $1 ORDER BY name, item_id`

func (q *Queries) ListItemsByCategory(ctx context.Context, categoryID int64) ([]Item, error) {
	rows, err := q.db.Query(ctx, listItemsByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	return collectItems(rows)
}

type CreateItemParams struct {
	Name                  string
	UPC                   string
	AltUPC                *string
	AdditionalDescription *string
	ItemCost              pgtype.Numeric
	ChargedCost           pgtype.Numeric
	SalesTaxEnabled       bool
	SalesTax              pgtype.Numeric
	InStock               int32
	VendorName            *string
	CaseCost              pgtype.Numeric
	NumberInCase          int32
	ManualPack            bool
	QuickAdd              bool
	DroppedItem           bool
	EnableStockAlert      bool
	StockAlertLimit       int32
	ImageURL              *string
	CategoryID            *int64
	IsActive              bool
	CostPerItem           pgtype.Numeric
}

const createItem = `INSERT INTO items (
    name, upc, alt_upc, additional_description, item_cost, charged_cost, sales_tax_enabled, sales_tax,
    in_stock, vendor_name, case_cost, number_in_case, manual_pack, quick_add, dropped_item,
    enable_stock_alert, stock_alert_limit, image_url, category_id, is_active, cost_per_item
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8,
    $9, $10, $11, $12, $13, $14, $15,
    $16, $17, $18, $19, $20, $21
) RETURNING item_id`

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, createItem,
		arg.Name, arg.UPC, arg.AltUPC, arg.AdditionalDescription, arg.ItemCost, arg.ChargedCost,
		arg.SalesTaxEnabled, arg.SalesTax, arg.InStock, arg.VendorName, arg.CaseCost, arg.NumberInCase,
		arg.ManualPack, arg.QuickAdd, arg.DroppedItem, arg.EnableStockAlert, arg.StockAlertLimit,
		arg.ImageURL, arg.CategoryID, arg.IsActive, arg.CostPerItem,
	).Scan(&id)
	return id, err
}

const listCategories = `SELECT category_id, name, is_active FROM categories ORDER BY name, category_id`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.CategoryID, &c.Name, &c.IsActive)
		return c, err
	})
}
