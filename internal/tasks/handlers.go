package tasks

import (
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/reports"
)

// Handler lets staff queue background jobs.
type Handler struct {
	Queue    Enqueuer
	Validate *validator.Validate
	Location *time.Location
}

type warmRequest struct {
	Date string `json:"date" validate:"max=40"`
}

// WarmHourly handles POST /api/v1/reports/hourly/warm.
func (h *Handler) WarmHourly(w http.ResponseWriter, r *http.Request) {
	if h.Queue == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "task queue not configured", nil)
		return
	}
	var req warmRequest
	if r.ContentLength != 0 {
		v := h.Validate
		if v == nil {
			v = common.NewValidator()
		}
		if err := common.DecodeJSON(r, v, &req); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	date := strings.TrimSpace(req.Date)
	if date != "" {
		loc := h.Location
		if loc == nil {
			loc = time.Local
		}
		if _, err := reports.ParseDate(date, loc); err != nil {
			common.WriteError(w, common.BadRequest("invalid date", map[string]any{"field": "date"}))
			return
		}
	}
	info, err := EnqueueWarmHourly(r.Context(), h.Queue, date)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusAccepted, map[string]any{
		"message": "Report warm-up queued",
		"taskId":  info.ID,
	})
}
