package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	IsActive   bool   `json:"isActive"`
}

type Item struct {
	ItemID                int64            `json:"itemId"`
	Name                  string           `json:"name"`
	UPC                   string           `json:"upc"`
	AltUPC                *string          `json:"altUpc,omitempty"`
	AdditionalDescription *string          `json:"additionalDescription,omitempty"`
	ItemCost              decimal.Decimal  `json:"itemCost"`
	ChargedCost           *decimal.Decimal `json:"chargedCost,omitempty"`
	SalesTaxEnabled       bool             `json:"salesTaxEnabled"`
	SalesTax              decimal.Decimal  `json:"salesTax"`
	InStock               int32            `json:"inStock"`
	VendorName            *string          `json:"vendorName,omitempty"`
	CaseCost              decimal.Decimal  `json:"caseCost"`
	NumberInCase          int32            `json:"numberInCase"`
	ManualPack            bool             `json:"manualPack"`
	QuickAdd              bool             `json:"quickAdd"`
	DroppedItem           bool             `json:"droppedItem"`
	EnableStockAlert      bool             `json:"enableStockAlert"`
	StockAlertLimit       int32            `json:"stockAlertLimit"`
	ImageURL              *string          `json:"imageUrl,omitempty"`
	CategoryID            *int64           `json:"categoryId,omitempty"`
	IsActive              bool             `json:"isActive"`
	CostPerItem           decimal.Decimal  `json:"costPerItem"`
	CreatedAt             time.Time        `json:"createdAt"`
}

type BulkPricingTier struct {
	ItemID       int64           `json:"itemId"`
	Quantity     int32           `json:"quantity"`
	Pricing      decimal.Decimal `json:"pricing"`
	DiscountType string          `json:"discountType"`
}

type SalesTax struct {
	SalesTaxID int64           `json:"salesTaxId"`
	Name       string          `json:"name"`
	Rate       decimal.Decimal `json:"rate"`
	IsActive   bool            `json:"isActive"`
}

type User struct {
	UserCode       string
	UserName       string
	Name           string
	EmailID        *string
	MobileNo       *string
	UserRole       string
	IsAdmin        bool
	PasswordHash   string
	AvailableCoins int64
}

// SaleRow is one sold line joined with its invoice.
type SaleRow struct {
	CreatedAt   *time.Time      `json:"createdAt"`
	Quantity    int64           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	InvoiceCode string          `json:"invoiceCode"`
	ItemName    string          `json:"itemName"`
}

type InvoiceRow struct {
	InvoiceCode   string          `json:"invoiceCode"`
	UserName      string          `json:"userName"`
	PaymentType   string          `json:"paymentType"`
	InvoicedBy    string          `json:"invoicedBy"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	CoinsDiscount decimal.Decimal `json:"coinsDiscount"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type SalesHistoryRow struct {
	InvoiceCode string          `json:"invoiceCode"`
	PaymentType string          `json:"paymentType"`
	InvoicedBy  string          `json:"invoicedBy"`
	ItemID      *int64          `json:"itemId,omitempty"`
	ItemName    string          `json:"itemName"`
	Quantity    int64           `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type InventoryMovement struct {
	TrackingID   int64     `json:"trackingId"`
	ItemID       int64     `json:"itemId"`
	ItemName     string    `json:"itemName"`
	TrackingType string    `json:"trackingType"`
	Quantity     int32     `json:"quantity"`
	Note         *string   `json:"note,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
