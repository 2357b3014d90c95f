package metrics

import "github.com/prometheus/client_golang/prometheus"

// Step outcomes used as the "outcome" label.
const (
	OutcomeFirst    = "first"
	OutcomeLearned  = "learned"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector holds the engine's instruments. A nil *Collector is valid and records nothing.
type Collector struct {
	steps        *prometheus.CounterVec
	reward       prometheus.Histogram
	epsilon      prometheus.Gauge
	states       prometheus.Gauge
	saveFailures prometheus.Counter
	dropped      prometheus.Counter
}

// New registers the instruments on registry. A nil registry returns nil.
func New(registry *prometheus.Registry) *Collector {
	if registry == nil {
		return nil
	}

	c := &Collector{
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coach_steps_total",
				Help: "Engine steps by outcome",
			},
			[]string{"outcome"},
		),
		reward: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coach_reward",
			Help:    "Reward credited to the previous action",
			Buckets: []float64{-4, -2, -1, -0.5, 0, 0.5, 1, 2, 4, 8},
		}),
		epsilon: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coach_epsilon",
			Help: "Current exploration rate",
		}),
		states: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coach_table_states",
			Help: "Distinct states in the value table",
		}),
		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_save_failures_total",
			Help: "Failed value table saves",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coach_recorder_dropped_total",
			Help: "Step records dropped because a subscriber queue was full",
		}),
	}

	registry.MustRegister(c.steps, c.reward, c.epsilon, c.states, c.saveFailures, c.dropped)
	return c
}

func (c *Collector) ObserveStep(outcome string) {
	if c != nil {
		c.steps.WithLabelValues(outcome).Inc()
	}
}

func (c *Collector) ObserveReward(r float64) {
	if c != nil {
		c.reward.Observe(r)
	}
}

func (c *Collector) SetEpsilon(eps float64) {
	if c != nil {
		c.epsilon.Set(eps)
	}
}

func (c *Collector) SetStates(n int) {
	if c != nil {
		c.states.Set(float64(n))
	}
}

func (c *Collector) IncSaveFailure() {
	if c != nil {
		c.saveFailures.Inc()
	}
}

func (c *Collector) IncDropped() {
	if c != nil {
		c.dropped.Inc()
	}
}
