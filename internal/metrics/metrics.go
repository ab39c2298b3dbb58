package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Cache request results.
const (
	ResultHit   = "hit"
	ResultFetch = "fetch"
	ResultError = "error"
)

// Metrics holds the process counters. A nil *Metrics is valid and records
// nothing, so components can be built without instrumentation.
type Metrics struct {
	CacheRequests *prometheus.CounterVec
	Operations    *prometheus.CounterVec
}

// New registers the counters with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fjs_cache_requests_total",
				Help: "Content cache lookups by kind and result",
			},
			[]string{"kind", "result"},
		),
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fjs_operations_total",
				Help: "Install and remove operations by outcome",
			},
			[]string{"op", "outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.CacheRequests, m.Operations)
	}
	return m
}

func (m *Metrics) CacheRequest(kind, result string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) Operation(op, outcome string) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
}

// Summary flattens every non-zero counter in g into "name{labels} value"
// lines, sorted.
func Summary(g prometheus.Gatherer) ([]string, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			counter := metric.GetCounter()
			if counter == nil || counter.GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(metric.GetLabel()))
			for _, label := range metric.GetLabel() {
				labels = append(labels, label.GetName()+"="+label.GetValue())
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", family.GetName(), strings.Join(labels, ","), counter.GetValue()))
		}
	}
	sort.Strings(lines)
	return lines, nil
}
