package loyalty

import (
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// Handler exposes the loyalty lookup.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type coinsRequest struct {
	UserCode string `json:"userCode" validate:"max=64"`
}

// Coins handles POST /api/v1/loyalty/coins.
func (h *Handler) Coins(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "loyalty service not configured", nil)
		return
	}
	v := h.Validate
	if v == nil {
		v = common.NewValidator()
	}
	var req coinsRequest
	if err := common.DecodeJSON(r, v, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.UserCode) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "UserCode required", map[string]any{"field": "userCode"})
		return
	}
	c, err := h.Service.Customer(r.Context(), req.UserCode)
	if err != nil {
		if errors.Is(err, ErrNotCustomer) {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid userCode", nil)
			return
		}
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{
		"message": "Coins successful",
		"user":    c,
	})
}
