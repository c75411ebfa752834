package library

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics keeps circulation counters in a private prometheus registry.
// It implements Observer.
type Metrics struct {
	registry *prometheus.Registry

	operations   *prometheus.CounterVec
	finesAccrued prometheus.Counter
	finesPaid    prometheus.Counter
	currentDay   prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "library_operations_total",
			Help: "Circulation operations by op and outcome.",
		}, []string{"op", "outcome"}),
		finesAccrued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_fines_accrued_cents_total",
			Help: "Overdue fines charged, in cents.",
		}),
		finesPaid: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "library_fines_paid_cents_total",
			Help: "Fine payments received, in cents.",
		}),
		currentDay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "library_current_day",
			Help: "Current simulated day.",
		}),
	}
	m.registry.MustRegister(m.operations, m.finesAccrued, m.finesPaid, m.currentDay)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Observe(ev Event) {
	outcome := outcomeOK
	if ev.Err != nil {
		outcome = "failed"
	}
	m.operations.WithLabelValues(string(ev.Op), outcome).Inc()
	if ev.Err != nil {
		return
	}

	switch ev.Op {
	case OpFineAccrued:
		m.finesAccrued.Add(float64(ev.Amount))
	case OpPayFine:
		m.finesPaid.Add(float64(ev.Amount))
	case OpAdvanceDay:
		m.currentDay.Set(float64(ev.Day))
	}
}

// Summary gathers the registry into "name{labels} value" lines, sorted.
func (m *Metrics) Summary() ([]string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, value))
		}
	}
	sort.Strings(lines)
	return lines, nil
}
