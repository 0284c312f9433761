package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	v := cfg.Validator
	if v == nil {
		v = common.NewValidator()
	}
	return &Handler{service: cfg.Service, validate: v}
}

type categoryItemsRequest struct {
	CategoryID int64 `json:"categoryId" validate:"required,gt=0"`
}

type replaceTiersRequest struct {
	Tiers []TierInput `json:"tiers" validate:"dive"`
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": items})
}

// ProductByUPC handles GET /api/v1/products/{upc}.
func (h *Handler) ProductByUPC(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	item, err := h.service.ItemByUPC(r.Context(), chi.URLParam(r, "upc"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": item})
}

// CreateProduct handles POST /api/v1/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var in CreateItemInput
	if err := common.DecodeJSON(r, h.validate, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	id, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusCreated, map[string]any{
		"message": "Product added successfully",
		"itemId":  id,
	})
}

// Categories handles GET /api/v1/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.service.ListCategories(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": rows})
}

// CategoryItems handles POST /api/v1/categories/items.
func (h *Handler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req categoryItemsRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	items, err := h.service.ItemsByCategory(r.Context(), req.CategoryID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": items})
}

// SalesTax handles GET /api/v1/sales-tax.
func (h *Handler) SalesTax(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	rows, err := h.service.SalesTax(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": rows})
}

// CreditCardCharge handles GET /api/v1/config/credit-card-charge.
func (h *Handler) CreditCardCharge(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	charge, err := h.service.CreditCardCharge(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"creditCardCharge": charge.InexactFloat64()})
}

// BulkTiers handles GET /api/v1/bulk-pricing/{itemId}.
func (h *Handler) BulkTiers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, ok := common.ParseID(chi.URLParam(r, "itemId"))
	if !ok {
		common.WriteError(w, common.BadRequest("invalid itemId", map[string]any{"field": "itemId"}))
		return
	}
	tiers, err := h.service.BulkTiers(r.Context(), itemID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": tiers})
}

// ReplaceBulkTiers handles PUT /api/v1/bulk-pricing/{itemId}.
func (h *Handler) ReplaceBulkTiers(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	itemID, ok := common.ParseID(chi.URLParam(r, "itemId"))
	if !ok {
		common.WriteError(w, common.BadRequest("invalid itemId", map[string]any{"field": "itemId"}))
		return
	}
	var req replaceTiersRequest
	if err := common.DecodeJSON(r, h.validate, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.ReplaceBulkTiers(r.Context(), itemID, req.Tiers); err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"message": "Bulk pricing updated", "count": len(req.Tiers)})
}

// Routes mounts the public read endpoints. Writes are mounted by the caller
// behind authentication.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/products", h.Products)
	r.Get("/products/{upc}", h.ProductByUPC)
	r.Get("/categories", h.Categories)
	r.Post("/categories/items", h.CategoryItems)
	r.Get("/sales-tax", h.SalesTax)
	r.Get("/config/credit-card-charge", h.CreditCardCharge)
	r.Get("/bulk-pricing/{itemId}", h.BulkTiers)
}
