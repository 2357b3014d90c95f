package state

import (
	"errors"
	"math"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/update"
)

// ErrNotFound is returned by a Backend when no record exists under a key.
var ErrNotFound = errors.New("record not found")

// DefaultRecordKey names the single durable record holding the table and config.
const DefaultRecordKey = "coach_qtable_v1"

// #region config
// Config holds the learner's hyperparameters. Epsilon is mutable: it decays
// after every committed update.
type Config struct {
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	Gamma        float64 `json:"gamma" yaml:"gamma"`
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`
	EpsilonMin   float64 `json:"epsilonMin" yaml:"epsilon_min"`
	EpsilonDecay float64 `json:"epsilonDecay" yaml:"epsilon_decay"`
	W1           float64 `json:"w1" yaml:"w1"`
	W2           float64 `json:"w2" yaml:"w2"`
	W3           float64 `json:"w3" yaml:"w3"`
	W4           float64 `json:"w4" yaml:"w4"`
	Verbose      bool    `json:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the built-in hyperparameters.
func DefaultConfig() Config {
	return Config{
		Alpha:        0.3,
		Gamma:        0.9,
		Epsilon:      0.2,
		EpsilonMin:   0.02,
		EpsilonDecay: 0.995,
		W1:           3.0,
		W2:           1.0,
		W3:           1.5,
		W4:           2.0,
	}
}

// Weights returns the reward weights.
func (c Config) Weights() update.Weights {
	return update.Weights{KR: c.W1, Tasks: c.W2, Wellbeing: c.W3, Burnout: c.W4}
}

// Learning returns the TD step parameters.
func (c Config) Learning() update.LearningConfig {
	return update.LearningConfig{Alpha: c.Alpha, Gamma: c.Gamma}
}

// Valid reports whether every field is finite and within its range.
func (c Config) Valid() bool {
	for _, v := range []float64{c.Alpha, c.Gamma, c.Epsilon, c.EpsilonMin, c.EpsilonDecay, c.W1, c.W2, c.W3, c.W4} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	switch {
	case c.Alpha <= 0 || c.Alpha > 1:
		return false
	case c.Gamma < 0 || c.Gamma > 1:
		return false
	case c.Epsilon < 0 || c.Epsilon > 1:
		return false
	case c.EpsilonMin < 0 || c.EpsilonMin > 1:
		return false
	case c.EpsilonDecay <= 0 || c.EpsilonDecay > 1:
		return false
	case c.W1 < 0 || c.W2 < 0 || c.W3 < 0 || c.W4 < 0:
		return false
	}
	return true
}

// #endregion config

// #region bundle
// Bundle is the persisted record: {valueTable, config}.
type Bundle struct {
	ValueTable qtable.ValueTable `json:"valueTable"`
	Config     Config            `json:"config"`
}

// Clone returns a deep copy.
func (b Bundle) Clone() Bundle {
	tbl := b.ValueTable
	if tbl == nil {
		tbl = qtable.ValueTable{}
	}
	return Bundle{ValueTable: tbl.Clone(), Config: b.Config}
}

// #endregion bundle

// #region backend
// Backend is durable key/value storage for the record.
type Backend interface {
	// Get returns ErrNotFound when key is absent.
	Get(key string) ([]byte, error)
	Put(key string, payload []byte) error
}

// #endregion backend
