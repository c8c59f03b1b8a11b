package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// QuoteMutationTotal counts create/update/delete outcomes per entity.
	QuoteMutationTotal *prometheus.CounterVec
	// TotalRecomputeTotal counts live quote-total aggregations.
	TotalRecomputeTotal prometheus.Counter
	// CascadeDeleteTotal counts transactional cascade deletions by root entity.
	CascadeDeleteTotal *prometheus.CounterVec
	// CascadeDeleteDuration records cascade transaction latency in milliseconds.
	CascadeDeleteDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutation_total",
			Help:      "Count of entity mutation outcomes.",
		}, []string{"entity", "op", "result"})
		TotalRecomputeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_recompute_total",
			Help:      "Number of on-demand quote total aggregations.",
		})
		CascadeDeleteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_delete_total",
			Help:      "Count of cascade delete transactions by root entity.",
		}, []string{"entity"})
		CascadeDeleteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cascade_delete_duration_ms",
			Help:      "Cascade delete transaction latency in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"entity"})

		mustRegisterCollector(reg, QuoteMutationTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteMutationTotal = v
			}
		})
		mustRegisterCollector(reg, TotalRecomputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				TotalRecomputeTotal = v
			}
		})
		mustRegisterCollector(reg, CascadeDeleteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CascadeDeleteTotal = v
			}
		})
		mustRegisterCollector(reg, CascadeDeleteDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				CascadeDeleteDuration = v
			}
		})
	})
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

// ObserveMutation is a nil-safe helper for recording mutation outcomes.
func ObserveMutation(entity, op string, err error) {
	if QuoteMutationTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	QuoteMutationTotal.WithLabelValues(entity, op, result).Inc()
}

// ObserveRecompute is a nil-safe helper for counting total aggregations.
func ObserveRecompute() {
	if TotalRecomputeTotal != nil {
		TotalRecomputeTotal.Inc()
	}
}
