// Package observability exposes Prometheus metrics for report building.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Timofey28/Lichess-Telegram-Bot/internal/activity"
)

var (
	daysValidatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_report",
		Subsystem: "validator",
		Name:      "days_validated_total",
		Help:      "Number of daily snapshots accepted by the validator.",
	}, []string{"source"})

	daysRejectedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_report",
		Subsystem: "validator",
		Name:      "days_rejected_total",
		Help:      "Number of daily snapshots rejected, labeled by source and violation kind.",
	}, []string{"source", "kind"})

	summariesBuiltCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "activity_report",
		Subsystem: "aggregator",
		Name:      "summaries_built_total",
		Help:      "Number of activity summaries built.",
	}, []string{"source"})

	windowDaysHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "activity_report",
		Subsystem: "aggregator",
		Name:      "report_window_days",
		Help:      "Length of aggregated report windows in days.",
		Buckets:   []float64{1, 2, 3, 7, 14, 21, 31, 62},
	})
)

func init() {
	prometheus.MustRegister(daysValidatedCounter, daysRejectedCounter, summariesBuiltCounter, windowDaysHistogram)
}

// RecordDaysValidated counts accepted snapshots.
func RecordDaysValidated(source string, n int) {
	if n <= 0 {
		return
	}
	daysValidatedCounter.WithLabelValues(source).Add(float64(n))
}

// RecordDayRejected counts a rejected snapshot by violation kind.
func RecordDayRejected(source string, err error) {
	kind := activity.ViolationKind(err)
	if kind == "" {
		kind = "other"
	}
	daysRejectedCounter.WithLabelValues(source, kind).Inc()
}

// RecordSummaryBuilt counts a built summary and observes its window length.
func RecordSummaryBuilt(source string, summary activity.ActivitySummary) {
	summariesBuiltCounter.WithLabelValues(source).Inc()
	if summary.HasRange() {
		windowDaysHistogram.Observe(float64(summary.Days()))
	}
}
