package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/db"
	"github.com/noah-isme/omnipay-inventory/internal/pricing"
)

// ErrItemNotFound is returned by lookups for an unknown ItemID.
var ErrItemNotFound = errors.New("item not found")

var upcPattern = regexp.MustCompile(`^\d{5,15}$`)

type queryProvider interface {
	ListItems(ctx context.Context) ([]db.Item, error)
	GetItemByID(ctx context.Context, itemID int64) (db.Item, error)
	GetItemByUPC(ctx context.Context, upc string) (db.Item, error)
	ListItemsByCategory(ctx context.Context, categoryID int64) ([]db.Item, error)
	CreateItem(ctx context.Context, arg db.CreateItemParams) (int64, error)
	ListCategories(ctx context.Context) ([]db.Category, error)
	ListActiveSalesTax(ctx context.Context) ([]db.SalesTax, error)
	GetCreditCardCharge(ctx context.Context) (pgtype.Numeric, error)
	ListBulkTiers(ctx context.Context, itemID int64) ([]db.BulkPricingTier, error)
	ReplaceBulkTiers(ctx context.Context, itemID int64, tiers []db.InsertBulkTierParams) error
}

// Service orchestrates catalog queries and caching.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// ItemPrice is the pricing view of an item.
type ItemPrice struct {
	ItemID      int64            `json:"itemId"`
	Name        string           `json:"name"`
	BaseCost    decimal.Decimal  `json:"baseCost"`
	ChargedCost *decimal.Decimal `json:"chargedCost,omitempty"`
	Taxable     bool             `json:"taxable"`
}

// UnitPrice is the effective unit price: charged cost or base cost, rounded up to 0.05.
func (p ItemPrice) UnitPrice() decimal.Decimal {
	return pricing.EffectiveUnitPrice(p.BaseCost, p.ChargedCost)
}

// CreateItemInput is the validated payload for a new item.
type CreateItemInput struct {
	Name                  string           `json:"name" validate:"required,max=200"`
	UPC                   string           `json:"upc" validate:"required"`
	AltUPC                *string          `json:"altUpc"`
	AdditionalDescription *string          `json:"additionalDescription"`
	ItemCost              decimal.Decimal  `json:"itemCost"`
	ChargedCost           *decimal.Decimal `json:"chargedCost"`
	SalesTaxEnabled       *bool            `json:"salesTaxEnabled"`
	SalesTax              decimal.Decimal  `json:"salesTax"`
	InStock               int32            `json:"inStock" validate:"gte=0"`
	VendorName            *string          `json:"vendorName"`
	CaseCost              decimal.Decimal  `json:"caseCost"`
	NumberInCase          int32            `json:"numberInCase" validate:"gte=0"`
	ManualPack            bool             `json:"manualPack"`
	QuickAdd              bool             `json:"quickAdd"`
	DroppedItem           bool             `json:"droppedItem"`
	EnableStockAlert      bool             `json:"enableStockAlert"`
	StockAlertLimit       int32            `json:"stockAlertLimit" validate:"gte=0"`
	ImageURL              *string          `json:"imageUrl" validate:"omitempty,url"`
	CategoryID            *int64           `json:"categoryId" validate:"omitempty,gt=0"`
	IsActive              *bool            `json:"isActive"`
	CostPerItem           decimal.Decimal  `json:"costPerItem"`
}

// TierInput is one row of a bulk pricing replacement.
type TierInput struct {
	Quantity     int32           `json:"quantity" validate:"gt=0"`
	Pricing      decimal.Decimal `json:"pricing"`
	DiscountType string          `json:"discountType" validate:"required,oneof=$ %"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache}, nil
}

// ListItems returns every item.
func (s *Service) ListItems(ctx context.Context) ([]db.Item, error) {
	var cached []db.Item
	if ok, err := s.cache.GetJSON(ctx, keyItems, &cached); err == nil && ok {
		return cached, nil
	}
	items, err := s.queries.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	s.store(ctx, keyItems, items)
	return items, nil
}

// ItemByUPC looks an item up by UPC or alternate UPC.
func (s *Service) ItemByUPC(ctx context.Context, upc string) (db.Item, error) {
	upc = strings.TrimSpace(upc)
	if !upcPattern.MatchString(upc) {
		return db.Item{}, common.BadRequest("Invalid UPC format", map[string]any{"field": "upc"})
	}
	var cached db.Item
	if ok, err := s.cache.GetJSON(ctx, keyUPC(upc), &cached); err == nil && ok {
		return cached, nil
	}
	item, err := s.queries.GetItemByUPC(ctx, upc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.Item{}, common.NotFound("Product not found", err)
		}
		return db.Item{}, fmt.Errorf("get item by upc: %w", err)
	}
	s.store(ctx, keyUPC(upc), item)
	return item, nil
}

// CreateItem inserts a new item and returns its ItemID.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (int64, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.UPC = strings.TrimSpace(in.UPC)
	if !upcPattern.MatchString(in.UPC) {
		return 0, common.BadRequest("Invalid UPC format", map[string]any{"field": "upc"})
	}
	if in.AltUPC != nil && *in.AltUPC != "" && !upcPattern.MatchString(*in.AltUPC) {
		return 0, common.BadRequest("Invalid UPC format", map[string]any{"field": "altUpc"})
	}
	for field, v := range map[string]decimal.Decimal{
		"itemCost": in.ItemCost, "salesTax": in.SalesTax, "caseCost": in.CaseCost, "costPerItem": in.CostPerItem,
	} {
		if v.IsNegative() {
			return 0, common.BadRequest("validation failed", map[string]any{"fields": map[string]string{field: "gte"}})
		}
	}
	if in.ChargedCost != nil && in.ChargedCost.IsNegative() {
		return 0, common.BadRequest("validation failed", map[string]any{"fields": map[string]string{"chargedCost": "gte"}})
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	taxable := true
	if in.SalesTaxEnabled != nil {
		taxable = *in.SalesTaxEnabled
	}
	numberInCase := in.NumberInCase
	if numberInCase == 0 {
		numberInCase = 1
	}

	id, err := s.queries.CreateItem(ctx, db.CreateItemParams{
		Name:                  in.Name,
		UPC:                   in.UPC,
		AltUPC:                in.AltUPC,
		AdditionalDescription: in.AdditionalDescription,
		ItemCost:              db.Numeric(in.ItemCost),
		ChargedCost:           db.NullNumeric(in.ChargedCost),
		SalesTaxEnabled:       taxable,
		SalesTax:              db.Numeric(in.SalesTax),
		InStock:               in.InStock,
		VendorName:            in.VendorName,
		CaseCost:              db.Numeric(in.CaseCost),
		NumberInCase:          numberInCase,
		ManualPack:            in.ManualPack,
		QuickAdd:              in.QuickAdd,
		DroppedItem:           in.DroppedItem,
		EnableStockAlert:      in.EnableStockAlert,
		StockAlertLimit:       in.StockAlertLimit,
		ImageURL:              in.ImageURL,
		CategoryID:            in.CategoryID,
		IsActive:              active,
		CostPerItem:           db.Numeric(in.CostPerItem),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return 0, common.Conflict("DUPLICATE_UPC", "a product with this UPC already exists", err)
			case "23503":
				return 0, common.BadRequest("category does not exist", map[string]any{"field": "categoryId"})
			}
		}
		return 0, fmt.Errorf("create item: %w", err)
	}

	keys := []string{keyItems}
	if in.CategoryID != nil {
		keys = append(keys, keyCategory(*in.CategoryID))
	}
	s.invalidate(ctx, keys...)
	return id, nil
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]db.Category, error) {
	var cached []db.Category
	if ok, err := s.cache.GetJSON(ctx, keyCategories, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.store(ctx, keyCategories, rows)
	return rows, nil
}

// ItemsByCategory lists the items of categoryID; an empty category is reported as not found.
func (s *Service) ItemsByCategory(ctx context.Context, categoryID int64) ([]db.Item, error) {
	if categoryID <= 0 {
		return nil, common.BadRequest("categoryId is required", map[string]any{"field": "categoryId"})
	}
	var cached []db.Item
	if ok, err := s.cache.GetJSON(ctx, keyCategory(categoryID), &cached); err == nil && ok && len(cached) > 0 {
		return cached, nil
	}
	items, err := s.queries.ListItemsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list items by category: %w", err)
	}
	if len(items) == 0 {
		return nil, common.NotFound("Category not found", nil)
	}
	s.store(ctx, keyCategory(categoryID), items)
	return items, nil
}

// SalesTax returns the active sales tax rows.
func (s *Service) SalesTax(ctx context.Context) ([]db.SalesTax, error) {
	var cached []db.SalesTax
	if ok, err := s.cache.GetJSON(ctx, keySalesTax, &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.queries.ListActiveSalesTax(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sales tax: %w", err)
	}
	s.store(ctx, keySalesTax, rows)
	return rows, nil
}

// ActiveTaxRate returns the first active rate. The bool is false when no
// rate is configured.
func (s *Service) ActiveTaxRate(ctx context.Context) (decimal.Decimal, bool, error) {
	rows, err := s.SalesTax(ctx)
	if err != nil {
		return decimal.Zero, false, err
	}
	if len(rows) == 0 {
		return decimal.Zero, false, nil
	}
	return rows[0].Rate, true, nil
}

// CreditCardCharge returns the active company's card surcharge.
func (s *Service) CreditCardCharge(ctx context.Context) (decimal.Decimal, error) {
	charge, err := s.queries.GetCreditCardCharge(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, &common.AppError{Code: "NOT_FOUND", Message: "CreditCardCharge not found", HTTPStatus: http.StatusNotFound, Err: err}
		}
		return decimal.Zero, fmt.Errorf("get credit card charge: %w", err)
	}
	return db.Decimal(charge), nil
}

// GetItemPrice returns the pricing view of itemID or ErrItemNotFound.
func (s *Service) GetItemPrice(ctx context.Context, itemID int64) (ItemPrice, error) {
	var cached ItemPrice
	if ok, err := s.cache.GetJSON(ctx, keyItemPrice(itemID), &cached); err == nil && ok {
		return cached, nil
	}
	item, err := s.queries.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemPrice{}, ErrItemNotFound
		}
		return ItemPrice{}, fmt.Errorf("get item %d: %w", itemID, err)
	}
	price := ItemPrice{
		ItemID:      item.ItemID,
		Name:        item.Name,
		BaseCost:    item.ItemCost,
		ChargedCost: item.ChargedCost,
		Taxable:     item.SalesTaxEnabled,
	}
	s.store(ctx, keyItemPrice(itemID), price)
	return price, nil
}

// BulkTiers lists the tiers of itemID.
func (s *Service) BulkTiers(ctx context.Context, itemID int64) ([]db.BulkPricingTier, error) {
	var cached []db.BulkPricingTier
	if ok, err := s.cache.GetJSON(ctx, keyTiers(itemID), &cached); err == nil && ok {
		return cached, nil
	}
	rows, err := s.queries.ListBulkTiers(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("list bulk tiers: %w", err)
	}
	s.store(ctx, keyTiers(itemID), rows)
	return rows, nil
}

// FindTiers returns the tiers of itemID whose quantity equals qty.
func (s *Service) FindTiers(ctx context.Context, itemID int64, qty int) ([]pricing.Tier, error) {
	rows, err := s.BulkTiers(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var tiers []pricing.Tier
	for _, row := range rows {
		if int(row.Quantity) != qty {
			continue
		}
		tiers = append(tiers, pricing.Tier{
			ItemID:   row.ItemID,
			Quantity: int(row.Quantity),
			Pricing:  row.Pricing,
			Type:     pricing.DiscountType(row.DiscountType),
		})
	}
	return tiers, nil
}

// ReplaceBulkTiers swaps the tier set of itemID for tiers.
func (s *Service) ReplaceBulkTiers(ctx context.Context, itemID int64, tiers []TierInput) error {
	seen := make(map[int32]struct{}, len(tiers))
	params := make([]db.InsertBulkTierParams, 0, len(tiers))
	for i, t := range tiers {
		if t.Pricing.IsNegative() {
			return common.BadRequest("validation failed", map[string]any{"fields": map[string]string{fmt.Sprintf("tiers[%d].pricing", i): "gte"}})
		}
		if t.DiscountType == string(pricing.DiscountPercent) && t.Pricing.GreaterThan(decimal.NewFromInt(100)) {
			return common.BadRequest("validation failed", map[string]any{"fields": map[string]string{fmt.Sprintf("tiers[%d].pricing", i): "lte"}})
		}
		if _, dup := seen[t.Quantity]; dup {
			return common.BadRequest("duplicate tier quantity", map[string]any{"quantity": t.Quantity})
		}
		seen[t.Quantity] = struct{}{}
		params = append(params, db.InsertBulkTierParams{
			Quantity:     t.Quantity,
			Pricing:      db.Numeric(t.Pricing),
			DiscountType: t.DiscountType,
		})
	}
	if _, err := s.queries.GetItemByID(ctx, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFound("Product not found", err)
		}
		return fmt.Errorf("get item %d: %w", itemID, err)
	}
	if err := s.queries.ReplaceBulkTiers(ctx, itemID, params); err != nil {
		return fmt.Errorf("replace bulk tiers: %w", err)
	}
	s.invalidate(ctx, keyTiers(itemID))
	return nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	if err := s.cache.SetJSON(ctx, key, v); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		log.Ctx(ctx).Warn().Err(err).Strs("keys", keys).Msg("catalog cache invalidation failed")
	}
}
