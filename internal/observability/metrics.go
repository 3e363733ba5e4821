// Package observability exports simulation activity as Prometheus metrics.
package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/robosim/internal/sim"
)

// SimCollector bundles Prometheus metrics for a running simulation. It
// implements sim.Observer.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Ticks        prometheus.Counter
	SimTime      prometheus.Gauge
	Transitions  *prometheus.CounterVec
	TickErrors   *prometheus.CounterVec
	Collisions   *prometheus.CounterVec
	TickDuration prometheus.Histogram
}

// NewSimCollector registers simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "robosim_ticks_total",
		Help: "Completed simulation ticks.",
	}), "robosim_ticks_total")
	if err != nil {
		return nil, err
	}
	simTime, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "robosim_sim_time_seconds",
		Help: "Simulated time of the latest frame.",
	}), "robosim_sim_time_seconds")
	if err != nil {
		return nil, err
	}
	transitions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robosim_supervisor_transitions_total",
		Help: "Supervisor controller switches, labeled by robot and target controller.",
	}, []string{"robot", "to"}), "robosim_supervisor_transitions_total")
	if err != nil {
		return nil, err
	}
	tickErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robosim_tick_errors_total",
		Help: "Aborted supervisor ticks, labeled by robot.",
	}, []string{"robot"}), "robosim_tick_errors_total")
	if err != nil {
		return nil, err
	}
	collisions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robosim_collision_ticks_total",
		Help: "Ticks in which a robot envelope overlapped an obstacle, labeled by robot.",
	}, []string{"robot"}), "robosim_collision_ticks_total")
	if err != nil {
		return nil, err
	}
	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "robosim_tick_duration_seconds",
		Help:    "Wall-clock time spent computing one tick.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}), "robosim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:     gatherer,
		Ticks:        ticks,
		SimTime:      simTime,
		Transitions:  transitions,
		TickErrors:   tickErrors,
		Collisions:   collisions,
		TickDuration: duration,
	}, nil
}

func (c *SimCollector) OnFrame(f sim.Frame) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.SimTime.Set(f.Time)
	for _, r := range f.Robots {
		if r.PrevState != "" {
			c.Transitions.WithLabelValues(r.Name, r.State).Inc()
		}
		if r.Error != "" {
			c.TickErrors.WithLabelValues(r.Name).Inc()
		}
		if r.Collided {
			c.Collisions.WithLabelValues(r.Name).Inc()
		}
	}
}

// ObserveTick records the wall-clock cost of one Step.
func (c *SimCollector) ObserveTick(d time.Duration) {
	if c == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
