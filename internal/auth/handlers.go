package auth

import (
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
)

// Handler exposes HTTP handlers for authentication.
type Handler struct {
	Service  *Service
	Validate *validator.Validate
}

type loginRequest struct {
	UserName string `json:"userName" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "auth service not configured", nil)
		return
	}
	v := h.Validate
	if v == nil {
		v = common.NewValidator()
	}
	var req loginRequest
	if err := common.DecodeJSON(r, v, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.Service.Login(r.Context(), req.UserName, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"data":    result,
	})
}

// Me handles GET /api/v1/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userCode, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	userName, _ := common.UserName(r.Context())
	common.OK(w, http.StatusOK, map[string]any{
		"data": map[string]any{"userCode": userCode, "userName": userName},
	})
}
