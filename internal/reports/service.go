package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/noah-isme/omnipay-inventory/internal/common"
	"github.com/noah-isme/omnipay-inventory/internal/db"
	"github.com/noah-isme/omnipay-inventory/internal/obs"
)

// Querier defines the database access required for reports.
type Querier interface {
	ListSaleRows(ctx context.Context, from, to time.Time) ([]db.SaleRow, error)
	FlashReport(ctx context.Context, arg db.FlashReportParams) ([]db.InvoiceRow, error)
	SalesHistory(ctx context.Context, arg db.SalesHistoryParams) ([]db.SalesHistoryRow, error)
	InventoryTracking(ctx context.Context, arg db.InventoryTrackingParams) ([]db.InventoryMovement, error)
}

// Service runs report queries. Hourly summaries are cached in Redis.
type Service struct {
	Q        Querier
	R        *redis.Client
	TTL      time.Duration
	Location *time.Location
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) location() *time.Location {
	if s != nil && s.Location != nil {
		return s.Location
	}
	return time.Local
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

func (s *Service) hourlyKey(from, to time.Time) string {
	return cacheKey("rep", "hourly", s.location().String(), from.Format("2006-01-02"), to.Format("2006-01-02"))
}

// HourlyReport aggregates the lines sold in [from, to).
func (s *Service) HourlyReport(ctx context.Context, from, to time.Time) (Summary, error) {
	if s == nil || s.Q == nil {
		return Summary{}, errors.New("reports service not configured")
	}
	key := s.hourlyKey(from, to)
	if sum, ok := s.cachedHourly(ctx, key); ok {
		obs.ObserveReportCache("hourly", true)
		return sum, nil
	}
	obs.ObserveReportCache("hourly", false)
	return s.computeHourly(ctx, key, from, to)
}

// WarmHourly recomputes the hourly report of day and refreshes its cache
// entry. A zero day means today.
func (s *Service) WarmHourly(ctx context.Context, day time.Time) (Summary, error) {
	if s == nil || s.Q == nil {
		return Summary{}, errors.New("reports service not configured")
	}
	if day.IsZero() {
		day = s.now()
	}
	from, to := DayRange(day, day, s.location())
	return s.computeHourly(ctx, s.hourlyKey(from, to), from, to)
}

func (s *Service) computeHourly(ctx context.Context, key string, from, to time.Time) (Summary, error) {
	rows, err := s.Q.ListSaleRows(ctx, from, to)
	if err != nil {
		return Summary{}, fmt.Errorf("list sale rows: %w", err)
	}
	sum := AggregateHourly(rows, s.location())
	s.store(ctx, key, sum)
	return sum, nil
}

// FlashFilter narrows the flash report.
type FlashFilter struct {
	From      time.Time
	To        time.Time
	InvoiceNo string
}

// FlashReport lists invoices in the range whose code contains InvoiceNo.
func (s *Service) FlashReport(ctx context.Context, f FlashFilter) ([]db.InvoiceRow, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("reports service not configured")
	}
	rows, err := s.Q.FlashReport(ctx, db.FlashReportParams{From: f.From, To: f.To, InvoiceNo: strings.TrimSpace(f.InvoiceNo)})
	if err != nil {
		return nil, fmt.Errorf("flash report: %w", err)
	}
	return rows, nil
}

// SalesHistory lists sold lines matching the filter.
func (s *Service) SalesHistory(ctx context.Context, f db.SalesHistoryParams) ([]db.SalesHistoryRow, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("reports service not configured")
	}
	rows, err := s.Q.SalesHistory(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("sales history: %w", err)
	}
	return rows, nil
}

// TrackingFilter narrows inventory movements. Nil bounds are open.
type TrackingFilter struct {
	TrackingType string
	ProductName  string
	From         *time.Time
	To           *time.Time
}

// InventoryTracking lists stock movements; an empty result is a 404.
func (s *Service) InventoryTracking(ctx context.Context, f TrackingFilter) ([]db.InventoryMovement, error) {
	if s == nil || s.Q == nil {
		return nil, errors.New("reports service not configured")
	}
	rows, err := s.Q.InventoryTracking(ctx, db.InventoryTrackingParams{
		TrackingType: strings.TrimSpace(f.TrackingType),
		ProductName:  strings.TrimSpace(f.ProductName),
		From:         optionalTimestamptz(f.From),
		To:           optionalTimestamptz(f.To),
	})
	if err != nil {
		return nil, fmt.Errorf("inventory tracking: %w", err)
	}
	if len(rows) == 0 {
		return nil, common.NotFound("No tracking data found", nil)
	}
	return rows, nil
}

func optionalTimestamptz(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func (s *Service) cachedHourly(ctx context.Context, key string) (Summary, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Summary{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("report cache read failed")
		}
		return Summary{}, false
	}
	var sum Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return Summary{}, false
	}
	return sum, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.R.Set(ctx, key, data, s.TTL).Err(); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}
