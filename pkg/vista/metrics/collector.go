// Package metrics exports transition counters and timings to Prometheus.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BrandonKowalski/vista/pkg/vista/constants"
	"github.com/BrandonKowalski/vista/pkg/vista/event"
	"github.com/BrandonKowalski/vista/pkg/vista/router"
)

// Collector observes a router's global events.
type Collector struct {
	transitions *prometheus.CounterVec
	missing     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	depth       prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
	now     func() time.Time
}

// New registers the vista metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vista_transitions_total",
			Help: "Completed view transitions by switch type and trigger",
		}, []string{"type", "trigger"}),

		missing: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vista_view_not_exist_total",
			Help: "Requests naming a view that does not exist",
		}, []string{"namespace"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vista_transition_duration_seconds",
			Help:    "Time from beforechange to afterchange, animation included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"type"}),

		depth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vista_history_depth",
			Help: "Number of entries in the navigation stack",
		}),

		started: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Attach starts observing r. The returned function stops it.
func (c *Collector) Attach(r *router.Router) (detach func()) {
	offs := []func(){
		r.On(constants.EventBeforeChange, c.begin),
		r.On(constants.EventAfterChange, func(ev event.Event) {
			c.end(ev)
			c.depth.Set(float64(r.Stack().Len()))
		}),
		r.On(constants.EventViewNotExists, func(ev event.Event) {
			c.missing.WithLabelValues(ev.Namespace).Inc()
		}),
	}
	return func() {
		for _, off := range offs {
			off()
		}
	}
}

func (c *Collector) begin(ev event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started[ev.TransitionID] = c.now()
}

func (c *Collector) end(ev event.Event) {
	c.transitions.WithLabelValues(ev.Type.String(), ev.Trigger.String()).Inc()

	c.mu.Lock()
	start, ok := c.started[ev.TransitionID]
	delete(c.started, ev.TransitionID)
	c.mu.Unlock()

	if ok {
		c.duration.WithLabelValues(ev.Type.String()).Observe(c.now().Sub(start).Seconds())
	}
}
