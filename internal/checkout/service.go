package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/omnipay-inventory/internal/catalog"
	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/loyalty"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
	"github.com/noah-isme/omnipay-inventory/internal/pricing"
)

// ItemLookup resolves catalog prices; unknown items yield catalog.ErrItemNotFound.
type ItemLookup interface {
	GetItemPrice(ctx context.Context, itemID int64) (catalog.ItemPrice, error)
}

// TierLookup returns the bulk tiers of an item matching a quantity.
type TierLookup interface {
	FindTiers(ctx context.Context, itemID int64, qty int) ([]pricing.Tier, error)
}

// TaxRateLookup returns the active sales tax rate, false when none is configured.
type TaxRateLookup interface {
	ActiveTaxRate(ctx context.Context) (decimal.Decimal, bool, error)
}

// LoyaltyLookup returns the coin balance of a customer-role account, false
// when the code does not belong to one.
type LoyaltyLookup = loyalty.Lookup

// Service prices lines and assembles bills.
type Service struct {
	Items          ItemLookup
	Tiers          TierLookup
	Taxes          TaxRateLookup
	Loyalty        LoyaltyLookup
	DefaultTaxRate decimal.Decimal
}

// DiscountInput is a manual discount on a line.
type DiscountInput struct {
	Type  string          `json:"type" validate:"omitempty,oneof=$ %"`
	Value decimal.Decimal `json:"value"`
}

// ItemInput references a catalog item.
type ItemInput struct {
	ItemID   int64          `json:"itemId" validate:"required,gt=0"`
	Quantity int            `json:"quantity" validate:"required,gt=0"`
	Discount *DiscountInput `json:"discount"`
}

// CustomItemInput is an ad-hoc product.
type CustomItemInput struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Taxable   bool            `json:"taxable"`
}

// BatchInput is the body of batch pricing and bill requests.
type BatchInput struct {
	Items       []ItemInput       `json:"items" validate:"dive"`
	CustomItems []CustomItemInput `json:"customItems" validate:"dive"`
	UserCode    string            `json:"userCode" validate:"omitempty,max=64"`
}

// DiscountView is the reported discount descriptor.
type DiscountView struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

// PricedLine is a resolved line as rendered to clients.
type PricedLine struct {
	Name           string        `json:"name"`
	Quantity       int           `json:"quantity"`
	UnitPrice      float64       `json:"unitPrice"`
	FinalUnitPrice float64       `json:"finalUnitPrice"`
	FinalPrice     float64       `json:"finalPrice"`
	Discount       *DiscountView `json:"discount,omitempty"`
	BulkApplied    bool          `json:"bulkApplied"`
	Taxable        bool          `json:"taxable"`

	final decimal.Decimal
}

// BatchEntry is one catalog line of a batch. Error is set instead of the
// priced fields when the item could not be resolved.
type BatchEntry struct {
	ItemID int64  `json:"itemId"`
	Error  string `json:"error,omitempty"`
	*PricedLine
}

// BatchResult holds per-entry outcomes in request order.
type BatchResult struct {
	Items       []BatchEntry `json:"items"`
	CustomItems []PricedLine `json:"customItems"`
}

// Summary is the rendered bill.
type Summary struct {
	Subtotal      float64 `json:"subtotal"`
	CoinsDiscount float64 `json:"coinsDiscount"`
	TaxableAmount float64 `json:"taxableAmount"`
	TaxRate       float64 `json:"taxRate"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

// BillResult is the response of a bill calculation.
type BillResult struct {
	BatchResult
	Summary Summary `json:"summary"`
}

const errItemNotFound = "item not found"

// ResolveBatch prices every entry independently. An unknown item only marks
// its own entry; any other lookup failure aborts the whole batch.
func (s *Service) ResolveBatch(ctx context.Context, in BatchInput) (BatchResult, error) {
	if s == nil || s.Items == nil || s.Tiers == nil {
		return BatchResult{}, errors.New("checkout service not configured")
	}
	if err := validateBatch(in); err != nil {
		return BatchResult{}, err
	}

	out := BatchResult{
		Items:       make([]BatchEntry, 0, len(in.Items)),
		CustomItems: make([]PricedLine, 0, len(in.CustomItems)),
	}
	for _, item := range in.Items {
		line, err := s.resolveItem(ctx, item)
		switch {
		case errors.Is(err, catalog.ErrItemNotFound):
			obs.ObservePricingLine("not_found")
			out.Items = append(out.Items, BatchEntry{ItemID: item.ItemID, Error: errItemNotFound})
			continue
		case err != nil:
			return BatchResult{}, err
		}
		out.Items = append(out.Items, BatchEntry{ItemID: item.ItemID, PricedLine: line})
	}
	for _, c := range in.CustomItems {
		bl, err := pricing.ResolveCustomLine(pricing.CustomLine{Name: c.Name, Quantity: c.Quantity, UnitPrice: c.UnitPrice, Taxable: c.Taxable})
		if err != nil {
			return BatchResult{}, lineError(err)
		}
		out.CustomItems = append(out.CustomItems, PricedLine{
			Name:           c.Name,
			Quantity:       c.Quantity,
			UnitPrice:      pricing.Amount(c.UnitPrice),
			FinalUnitPrice: pricing.Amount(c.UnitPrice),
			FinalPrice:     pricing.Amount(bl.FinalPrice),
			Taxable:        c.Taxable,
			final:          bl.FinalPrice,
		})
	}
	return out, nil
}

// CalculateBill prices the batch and assembles the bill. Unlike ResolveBatch
// an unknown item fails the bill with 404 listing the missing ids.
func (s *Service) CalculateBill(ctx context.Context, in BatchInput) (BillResult, error) {
	if len(in.Items) == 0 && len(in.CustomItems) == 0 {
		obs.ObserveBill("invalid")
		return BillResult{}, common.BadRequest("items are required", map[string]any{"field": "items"})
	}
	batch, err := s.ResolveBatch(ctx, in)
	if err != nil {
		obs.ObserveBill("error")
		return BillResult{}, err
	}

	var missing []int64
	lines := make([]pricing.BillLine, 0, len(batch.Items)+len(batch.CustomItems))
	for _, entry := range batch.Items {
		if entry.PricedLine == nil {
			missing = append(missing, entry.ItemID)
			continue
		}
		lines = append(lines, pricing.BillLine{FinalPrice: entry.final, Taxable: entry.Taxable})
	}
	if len(missing) > 0 {
		obs.ObserveBill("not_found")
		appErr := common.NotFound(errItemNotFound, catalog.ErrItemNotFound)
		appErr.Details = map[string]any{"itemIds": missing}
		return BillResult{}, appErr
	}
	for _, c := range batch.CustomItems {
		lines = append(lines, pricing.BillLine{FinalPrice: c.final, Taxable: c.Taxable})
	}

	coins, err := s.coins(ctx, in.UserCode)
	if err != nil {
		obs.ObserveBill("error")
		return BillResult{}, err
	}
	rate, err := s.taxRate(ctx)
	if err != nil {
		obs.ObserveBill("error")
		return BillResult{}, err
	}

	bill := pricing.CalculateBill(lines, coins, rate)
	obs.ObserveBill("ok")
	return BillResult{
		BatchResult: batch,
		Summary: Summary{
			Subtotal:      pricing.Amount(bill.Subtotal),
			CoinsDiscount: pricing.Amount(bill.CoinsDiscount),
			TaxableAmount: pricing.Amount(bill.TaxableAmount),
			TaxRate:       bill.TaxRate.InexactFloat64(),
			Tax:           pricing.Amount(bill.Tax),
			Total:         pricing.Amount(bill.Total),
		},
	}, nil
}

func (s *Service) resolveItem(ctx context.Context, in ItemInput) (*PricedLine, error) {
	item, err := s.Items.GetItemPrice(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup item %d: %w", in.ItemID, err)
	}
	tiers, err := s.Tiers.FindTiers(ctx, in.ItemID, in.Quantity)
	if err != nil {
		return nil, fmt.Errorf("lookup tiers for item %d: %w", in.ItemID, err)
	}
	var manual *pricing.Discount
	if in.Discount != nil {
		manual = &pricing.Discount{Type: pricing.DiscountType(in.Discount.Type), Value: in.Discount.Value}
	}
	line, err := pricing.ResolveLine(item.UnitPrice(), in.Quantity, pricing.SelectTier(tiers, in.ItemID, in.Quantity), manual)
	if err != nil {
		obs.ObservePricingLine("invalid")
		return nil, lineError(err)
	}
	if line.BulkApplied {
		obs.ObservePricingLine("bulk")
	} else {
		obs.ObservePricingLine("regular")
	}
	view := renderLine(line)
	view.Name = item.Name
	view.Taxable = item.Taxable
	return view, nil
}

func (s *Service) coins(ctx context.Context, userCode string) (*int64, error) {
	if userCode == "" || s.Loyalty == nil {
		return nil, nil
	}
	balance, ok, err := s.Loyalty.CustomerCoins(ctx, userCode)
	if err != nil {
		return nil, fmt.Errorf("lookup loyalty coins: %w", err)
	}
	if !ok {
		log.Ctx(ctx).Debug().Str("user_code", userCode).Msg("loyalty account not resolved, no coins discount")
		return nil, nil
	}
	return &balance, nil
}

func (s *Service) taxRate(ctx context.Context) (decimal.Decimal, error) {
	if s.Taxes == nil {
		return s.DefaultTaxRate, nil
	}
	rate, ok, err := s.Taxes.ActiveTaxRate(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lookup tax rate: %w", err)
	}
	if !ok {
		return s.DefaultTaxRate, nil
	}
	return rate, nil
}

func renderLine(line pricing.Line) *PricedLine {
	view := &PricedLine{
		Quantity:       line.Quantity,
		UnitPrice:      pricing.Amount(line.UnitPrice),
		FinalUnitPrice: pricing.Amount(line.FinalUnitPrice),
		BulkApplied:    line.BulkApplied,
		final:          pricing.Round2(line.FinalPrice),
	}
	view.FinalPrice = pricing.Amount(view.final)
	if line.Discount != nil {
		view.Discount = &DiscountView{Type: string(line.Discount.Type), Value: pricing.Amount(line.Discount.Value)}
	}
	return view
}

func validateBatch(in BatchInput) error {
	fields := map[string]string{}
	for i, item := range in.Items {
		if item.Discount != nil && item.Discount.Value.IsNegative() {
			fields[fmt.Sprintf("items[%d].discount.value", i)] = "gte"
		}
	}
	for i, c := range in.CustomItems {
		if c.UnitPrice.IsNegative() {
			fields[fmt.Sprintf("customItems[%d].unitPrice", i)] = "gte"
		}
	}
	if len(fields) > 0 {
		return common.BadRequest("validation failed", map[string]any{"fields": fields})
	}
	return nil
}

func lineError(err error) error {
	switch {
	case errors.Is(err, pricing.ErrInvalidQuantity), errors.Is(err, pricing.ErrInvalidDiscount), errors.Is(err, pricing.ErrInvalidPrice):
		return &common.AppError{Code: "BAD_REQUEST", Message: err.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	default:
		return err
	}
}

// TierInput is a tier supplied inline with a single line request.
type TierInput struct {
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	Pricing      decimal.Decimal `json:"pricing"`
	DiscountType string          `json:"discountType" validate:"required,oneof=$ %"`
}

// LineInput prices one line without touching the catalog.
type LineInput struct {
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Tier      *TierInput      `json:"tier"`
	Discount  *DiscountInput  `json:"discount"`
}

// ResolveLine prices a single line from its effective unit price. The tier
// only applies when its quantity equals the line quantity.
func ResolveLine(in LineInput) (PricedLine, error) {
	var tiers []pricing.Tier
	if in.Tier != nil {
		tiers = append(tiers, pricing.Tier{Quantity: in.Tier.Quantity, Pricing: in.Tier.Pricing, Type: pricing.DiscountType(in.Tier.DiscountType)})
	}
	var manual *pricing.Discount
	if in.Discount != nil {
		manual = &pricing.Discount{Type: pricing.DiscountType(in.Discount.Type), Value: in.Discount.Value}
	}
	line, err := pricing.ResolveLine(in.UnitPrice, in.Quantity, pricing.SelectTier(tiers, 0, in.Quantity), manual)
	if err != nil {
		obs.ObservePricingLine("invalid")
		return PricedLine{}, lineError(err)
	}
	if line.BulkApplied {
		obs.ObservePricingLine("bulk")
	} else {
		obs.ObservePricingLine("regular")
	}
	return *renderLine(line), nil
}
