// Package metrics records service activity. Prometheus backs production;
// Nop is for tests and tools that never expose /metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder interface {
	// Observe records one service operation and how long it took.
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	CreditsTransferred(amount int)
	Unlocked()
	ShareBlocked()
	SnapshotSaved(ok bool)
}

type Nop struct{}

func (Nop) Observe(context.Context, string, bool, time.Duration) {}
func (Nop) CreditsTransferred(int)                               {}
func (Nop) Unlocked()                                            {}
func (Nop) ShareBlocked()                                        {}
func (Nop) SnapshotSaved(bool)                                   {}

type Prometheus struct {
	reg *prometheus.Registry

	ops        *prometheus.CounterVec
	opDuration *prometheus.HistogramVec
	credits    prometheus.Counter
	unlocks    prometheus.Counter
	blocked    prometheus.Counter
	saves      *prometheus.CounterVec
}

// NewPrometheus registers the kinetic collectors plus the Go runtime and
// process collectors on a private registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		reg: prometheus.NewRegistry(),
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinetic_operations_total",
			Help: "Service operations by name and outcome.",
		}, []string{"operation", "result"}),
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kinetic_operation_duration_seconds",
			Help:    "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		credits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinetic_credits_transferred_total",
			Help: "Credits moved between clinics.",
		}),
		unlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinetic_unlocks_total",
			Help: "Paid report unlocks.",
		}),
		blocked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kinetic_shares_blocked_total",
			Help: "Reports saved without being shared.",
		}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinetic_snapshot_saves_total",
			Help: "Snapshot save attempts by result.",
		}, []string{"result"}),
	}
	p.reg.MustRegister(
		p.ops, p.opDuration, p.credits, p.unlocks, p.blocked, p.saves,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return p
}

func (p *Prometheus) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	p.ops.WithLabelValues(operation, result(success)).Inc()
	p.opDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (p *Prometheus) CreditsTransferred(amount int) { p.credits.Add(float64(amount)) }
func (p *Prometheus) Unlocked()                     { p.unlocks.Inc() }
func (p *Prometheus) ShareBlocked()                 { p.blocked.Inc() }

func (p *Prometheus) SnapshotSaved(ok bool) {
	p.saves.WithLabelValues(result(ok)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg})
}

// Registry is exposed for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.reg }

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
