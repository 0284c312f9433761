package reports

import (
	"net/http"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/db"
)

// Handler exposes report endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type hourlyRequest struct {
	FromDate string       `json:"fromDate"`
	ToDate   string       `json:"toDate"`
	Rows     []db.SaleRow `json:"rows"`
}

type flashRequest struct {
	FromDate  string `json:"fromDate"`
	ToDate    string `json:"toDate"`
	InvoiceNo string `json:"invoiceNo" validate:"max=100"`
}

type salesHistoryRequest struct {
	FromDate    string `json:"fromDate"`
	ToDate      string `json:"toDate"`
	PaymentType string `json:"paymentType" validate:"max=50"`
	InvoiceBy   string `json:"invoiceBy" validate:"max=100"`
	InvoiceCode string `json:"invoiceCode" validate:"max=100"`
}

type trackingRequest struct {
	TrackingType string `json:"trackingType" validate:"max=50"`
	ProductName  string `json:"productName" validate:"max=200"`
	FromDate     string `json:"fromDate"`
	ToDate       string `json:"toDate"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "REPORTS_NOT_CONFIGURED", "reports service not configured", nil)
		return false
	}
	v := h.Validate
	if v == nil {
		v = common.NewValidator()
	}
	if err := common.DecodeJSON(r, v, dst); err != nil {
		common.WriteError(w, err)
		return false
	}
	return true
}

// openRange resolves optional calendar bounds into [from, to+1day). Missing
// bounds fall back to the epoch and the end of today.
func (h *Handler) openRange(fromRaw, toRaw string) (time.Time, time.Time, error) {
	loc := h.Svc.location()
	from := time.Unix(0, 0).In(loc)
	to := h.Svc.now()
	var err error
	if strings.TrimSpace(fromRaw) != "" {
		if from, err = ParseDate(fromRaw, loc); err != nil {
			return time.Time{}, time.Time{}, common.BadRequest("invalid fromDate", map[string]any{"field": "fromDate"})
		}
	}
	if strings.TrimSpace(toRaw) != "" {
		if to, err = ParseDate(toRaw, loc); err != nil {
			return time.Time{}, time.Time{}, common.BadRequest("invalid toDate", map[string]any{"field": "toDate"})
		}
	}
	from, to = DayRange(from, to, loc)
	return from, to, nil
}

// Hourly handles POST /api/v1/reports/hourly. Rows supplied in the body are
// aggregated as given; otherwise the sales of the range are loaded.
func (h *Handler) Hourly(w http.ResponseWriter, r *http.Request) {
	var req hourlyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.FromDate) == "" || strings.TrimSpace(req.ToDate) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "fromDate and toDate are required.", nil)
		return
	}
	from, to, err := h.openRange(req.FromDate, req.ToDate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if !from.Before(to) {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "fromDate must not be after toDate", nil)
		return
	}

	var sum Summary
	if req.Rows != nil {
		sum = AggregateHourly(req.Rows, h.Svc.location())
	} else if sum, err = h.Svc.HourlyReport(r.Context(), from, to); err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{
		"hourlySummary": sum.HourlySummary,
		"itemSummary":   sum.ItemSummary,
	})
}

// Flash handles POST /api/v1/reports/flash.
func (h *Handler) Flash(w http.ResponseWriter, r *http.Request) {
	var req flashRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to, err := h.openRange(req.FromDate, req.ToDate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.Svc.FlashReport(r.Context(), FlashFilter{From: from, To: to, InvoiceNo: req.InvoiceNo})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": rows})
}

// SalesHistory handles POST /api/v1/reports/sales-history.
func (h *Handler) SalesHistory(w http.ResponseWriter, r *http.Request) {
	var req salesHistoryRequest
	if !h.decode(w, r, &req) {
		return
	}
	from, to, err := h.openRange(req.FromDate, req.ToDate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	rows, err := h.Svc.SalesHistory(r.Context(), db.SalesHistoryParams{
		From:        from,
		To:          to,
		PaymentType: strings.TrimSpace(req.PaymentType),
		InvoicedBy:  strings.TrimSpace(req.InvoiceBy),
		InvoiceCode: strings.TrimSpace(req.InvoiceCode),
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": rows})
}

// InventoryTracking handles POST /api/v1/reports/inventory-tracking.
func (h *Handler) InventoryTracking(w http.ResponseWriter, r *http.Request) {
	var req trackingRequest
	if !h.decode(w, r, &req) {
		return
	}
	loc := h.Svc.location()
	f := TrackingFilter{TrackingType: req.TrackingType, ProductName: req.ProductName}
	if strings.TrimSpace(req.FromDate) != "" {
		from, err := ParseDate(req.FromDate, loc)
		if err != nil {
			common.WriteError(w, common.BadRequest("invalid fromDate", map[string]any{"field": "fromDate"}))
			return
		}
		f.From = &from
	}
	if strings.TrimSpace(req.ToDate) != "" {
		to, err := ParseDate(req.ToDate, loc)
		if err != nil {
			common.WriteError(w, common.BadRequest("invalid toDate", map[string]any{"field": "toDate"}))
			return
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	rows, err := h.Svc.InventoryTracking(r.Context(), f)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.OK(w, http.StatusOK, map[string]any{"data": rows})
}
