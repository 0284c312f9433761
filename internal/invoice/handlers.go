package invoice

import (
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// Handler exposes invoice code issuance.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type nextCodeRequest struct {
	UserName string `json:"userName" validate:"max=64"`
}

// NextCode handles POST /api/v1/invoices/next-code. The user name defaults
// to the authenticated caller.
func (h *Handler) NextCode(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "invoice service not configured", nil)
		return
	}
	v := h.Validate
	if v == nil {
		v = common.NewValidator()
	}
	var req nextCodeRequest
	if r.ContentLength != 0 {
		if err := common.DecodeJSON(r, v, &req); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	userName := strings.TrimSpace(req.UserName)
	if userName == "" {
		userName, _ = common.UserName(r.Context())
	}
	code, err := h.Service.Issue(r.Context(), userName)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"invoiceCode": code})
}
