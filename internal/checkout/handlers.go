package checkout

import (
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// Handler exposes pricing and bill endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

var defaultValidator = common.NewValidator()

func (h *Handler) validator() *validator.Validate {
	if h.Validate != nil {
		return h.Validate
	}
	return defaultValidator
}

// Line handles POST /api/v1/pricing/line.
func (h *Handler) Line(w http.ResponseWriter, r *http.Request) {
	var in LineInput
	if err := common.DecodeJSON(r, h.validator(), &in); err != nil {
		common.WriteError(w, err)
		return
	}
	line, err := ResolveLine(in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": line})
}

// Batch handles POST /api/v1/pricing/batch.
func (h *Handler) Batch(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in BatchInput
	if err := common.DecodeJSON(r, h.validator(), &in); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(in.Items) == 0 && len(in.CustomItems) == 0 {
		common.WriteError(w, common.BadRequest("items are required", map[string]any{"field": "items"}))
		return
	}
	out, err := h.Svc.ResolveBatch(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": out})
}

// Bill handles POST /api/v1/checkout/bill.
func (h *Handler) Bill(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var in BatchInput
	if err := common.DecodeJSON(r, h.validator(), &in); err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.CalculateBill(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{
		"items":       out.Items,
		"customItems": out.CustomItems,
		"summary":     out.Summary,
	})
}
