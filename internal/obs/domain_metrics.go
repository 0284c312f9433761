package obs

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingLinesTotal counts resolved pricing lines by outcome.
	PricingLinesTotal *prometheus.CounterVec
	// BillsTotal counts bill calculations by outcome.
	BillsTotal *prometheus.CounterVec
	// InvoiceCodesTotal counts invoice code issuance attempts by outcome.
	InvoiceCodesTotal *prometheus.CounterVec
	// InvoiceIssueLatency records issuance latency including lock wait, in milliseconds.
	InvoiceIssueLatency prometheus.Histogram
	// ReportCacheTotal counts report cache lookups by report and result.
	ReportCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_lines_total",
			Help:      "Pricing lines resolved, by outcome (regular, bulk, not_found, invalid).",
		}, []string{"result"})
		BillsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_calculated_total",
			Help:      "Bill calculations by outcome.",
		}, []string{"result"})
		InvoiceCodesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_codes_issued_total",
			Help:      "Invoice code issuance attempts by outcome.",
		}, []string{"result"})
		InvoiceIssueLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invoice_issue_duration_ms",
			Help:      "Invoice code issuance latency in milliseconds, lock wait included.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		ReportCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_cache_total",
			Help:      "Report cache lookups by report and result.",
		}, []string{"report", "result"})

		mustRegisterCollector(reg, PricingLinesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PricingLinesTotal = v
			}
		})
		mustRegisterCollector(reg, BillsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillsTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceCodesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				InvoiceCodesTotal = v
			}
		})
		mustRegisterCollector(reg, InvoiceIssueLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				InvoiceIssueLatency = v
			}
		})
		mustRegisterCollector(reg, ReportCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReportCacheTotal = v
			}
		})
	})
}

// ObservePricingLine records one resolved line. No-op until metrics are registered.
func ObservePricingLine(result string) {
	if PricingLinesTotal != nil {
		PricingLinesTotal.WithLabelValues(result).Inc()
	}
}

// ObserveBill records one bill calculation.
func ObserveBill(result string) {
	if BillsTotal != nil {
		BillsTotal.WithLabelValues(result).Inc()
	}
}

// ObserveInvoiceCode records one issuance attempt and its latency.
func ObserveInvoiceCode(result string, took time.Duration) {
	if InvoiceCodesTotal != nil {
		InvoiceCodesTotal.WithLabelValues(result).Inc()
	}
	if InvoiceIssueLatency != nil {
		InvoiceIssueLatency.Observe(DurationMillis(took))
	}
}

// ObserveReportCache records a cache hit or miss for report.
func ObserveReportCache(report string, hit bool) {
	if ReportCacheTotal == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	ReportCacheTotal.WithLabelValues(report, result).Inc()
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
