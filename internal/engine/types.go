package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/features"
	"github.com/danielpatrickdp/adaptive-coach/internal/gate"
	"github.com/danielpatrickdp/adaptive-coach/internal/metrics"
	"github.com/danielpatrickdp/adaptive-coach/internal/policy"
	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region options

// Options wire an Engine. Only Enabled is required to do anything; the zero
// value of every other field selects a working default.
type Options struct {
	// Enabled is the activation gate. A disabled engine never reads storage
	// and its Step is a no-op.
	Enabled bool

	// Backend persists the value table. nil keeps everything in memory and
	// every save reports a failure.
	Backend   state.Backend
	RecordKey string
	// Defaults are used when nothing valid is persisted. Zero means state.DefaultConfig().
	Defaults state.Config

	Gate     gate.GateConfig
	Recorder recorder.Options

	Logger  *zap.Logger
	Metrics *metrics.Collector
	// Rand drives exploration. nil seeds a PCG source from the clock.
	Rand policy.Rand
	Now  func() time.Time
}

// #endregion

// #region pending

// pending is the single-slot memory of the previous step.
type pending struct {
	key    string
	vector features.Vector
	action qtable.Action
	totals features.Totals
	at     time.Time
}

// #endregion
