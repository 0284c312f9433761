// Package reports builds sales reports: the hourly and per-item fold over sold
// lines plus the cached report queries behind the /reports endpoints.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/omnipay-inventory/internal/db"
	"github.com/noah-isme/omnipay-inventory/internal/pricing"
)

const (
	unknownItem = "Unknown"
	slotLayout  = "1/2/2006 3PM"
)

// HourlySummary is the sales of one local clock hour.
type HourlySummary struct {
	TimeSlot          string  `json:"timeSlot"`
	TotalAmount       float64 `json:"totalAmount"`
	TotalItems        int64   `json:"totalItems"`
	TotalTransactions int     `json:"totalTransactions"`
}

// ItemSummary is the sales of one item name.
type ItemSummary struct {
	ItemName      string  `json:"itemName"`
	TotalPrice    float64 `json:"totalPrice"`
	TotalQuantity int64   `json:"totalQuantity"`
}

// Summary is the result of AggregateHourly.
type Summary struct {
	HourlySummary []HourlySummary `json:"hourlySummary"`
	ItemSummary   []ItemSummary   `json:"itemSummary"`
}

type hourBucket struct {
	label    string
	start    time.Time
	amount   decimal.Decimal
	items    int64
	invoices map[string]struct{}
}

type itemBucket struct {
	price decimal.Decimal
	qty   int64
}

// SlotLabel renders the bucket label of t's hour in loc, e.g.
// "3/7/2025 9AM - 10AM". The last hour of the day ends at "12AM".
func SlotLabel(t time.Time, loc *time.Location) string {
	t = t.In(loc)
	h := t.Hour()
	from, fromPeriod := clock12(h)
	to, toPeriod := clock12((h + 1) % 24)
	return fmt.Sprintf("%d/%d/%d %d%s - %d%s", int(t.Month()), t.Day(), t.Year(), from, fromPeriod, to, toPeriod)
}

func clock12(h int) (int, string) {
	period := "AM"
	if h >= 12 {
		period = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return h, period
}

// ParseSlotStart parses the start of a slot label back into a time in loc.
// Malformed labels yield the Unix epoch.
func ParseSlotStart(label string, loc *time.Location) time.Time {
	datePart, rest, ok := strings.Cut(label, " ")
	if !ok {
		return time.Unix(0, 0)
	}
	fromPart, _, _ := strings.Cut(rest, " - ")
	t, err := time.ParseInLocation(slotLayout, datePart+" "+strings.TrimSpace(fromPart), loc)
	if err != nil {
		return time.Unix(0, 0)
	}
	return t
}

// AggregateHourly folds sold lines into hourly and per-item summaries. The
// output does not depend on the order of rows.
func AggregateHourly(rows []db.SaleRow, loc *time.Location) Summary {
	if loc == nil {
		loc = time.Local
	}
	hours := make(map[string]*hourBucket)
	items := make(map[string]*itemBucket)

	for _, row := range rows {
		price := row.TotalPrice
		if row.CreatedAt != nil {
			label := SlotLabel(*row.CreatedAt, loc)
			b, ok := hours[label]
			if !ok {
				b = &hourBucket{label: label, start: ParseSlotStart(label, loc), invoices: map[string]struct{}{}}
				hours[label] = b
			}
			b.amount = b.amount.Add(price)
			b.items += row.Quantity
			if code := strings.TrimSpace(row.InvoiceCode); code != "" {
				b.invoices[code] = struct{}{}
			}
		}

		name := strings.TrimSpace(row.ItemName)
		if name == "" {
			name = unknownItem
		}
		ib, ok := items[name]
		if !ok {
			ib = &itemBucket{}
			items[name] = ib
		}
		ib.price = ib.price.Add(price)
		ib.qty += row.Quantity
	}

	out := Summary{
		HourlySummary: make([]HourlySummary, 0, len(hours)),
		ItemSummary:   make([]ItemSummary, 0, len(items)),
	}

	buckets := make([]*hourBucket, 0, len(hours))
	for _, b := range hours {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if !buckets[i].start.Equal(buckets[j].start) {
			return buckets[i].start.Before(buckets[j].start)
		}
		return buckets[i].label < buckets[j].label
	})
	for _, b := range buckets {
		out.HourlySummary = append(out.HourlySummary, HourlySummary{
			TimeSlot:          b.label,
			TotalAmount:       pricing.Amount(b.amount),
			TotalItems:        b.items,
			TotalTransactions: len(b.invoices),
		})
	}

	type namedItem struct {
		name string
		*itemBucket
	}
	named := make([]namedItem, 0, len(items))
	for name, ib := range items {
		named = append(named, namedItem{name: name, itemBucket: ib})
	}
	sort.Slice(named, func(i, j int) bool {
		if c := named[i].price.Cmp(named[j].price); c != 0 {
			return c > 0
		}
		return named[i].name < named[j].name
	})
	for _, it := range named {
		out.ItemSummary = append(out.ItemSummary, ItemSummary{
			ItemName:      it.name,
			TotalPrice:    pricing.Amount(it.price),
			TotalQuantity: it.qty,
		})
	}
	return out
}
