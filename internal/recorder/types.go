package recorder

import (
	"time"

	"github.com/danielpatrickdp/adaptive-coach/internal/features"
	"github.com/danielpatrickdp/adaptive-coach/internal/policy"
	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/update"
)

// #region step-record
// StepRecord is emitted once per engine step.
type StepRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Step      int             `json:"step"`
	Features  features.Vector `json:"features"`
	StateKey  string          `json:"stateKey"`
	Action    qtable.Action   `json:"action"`
	Explored  bool            `json:"explored"`

	// Reward credited to the previous (state, action); 0 on the first step.
	Reward     float64           `json:"reward"`
	Components *update.Breakdown `json:"components,omitempty"`

	PrevStateKey  string           `json:"prevStateKey,omitempty"`
	PrevAction    qtable.Action    `json:"prevAction,omitempty"`
	PrevFeatures  *features.Vector `json:"prevFeatures,omitempty"`
	QBefore       float64          `json:"qBefore"`
	QAfter        float64          `json:"qAfter"`
	BestNextValue float64          `json:"bestNextValue"`
	TDError       float64          `json:"tdError"`

	EpsilonBefore float64 `json:"epsilonBefore"`
	EpsilonAfter  float64 `json:"epsilonAfter"`

	TopActions  []policy.ActionValue `json:"topActions"`
	SincePrevMs int64                `json:"sincePrevMs"`

	Learned   bool   `json:"learned"`
	Skipped   string `json:"skipped,omitempty"`
	Saved     bool   `json:"saved"`
	SaveError string `json:"saveError,omitempty"`
}

// Clone returns a copy that shares no memory with r.
func (r StepRecord) Clone() StepRecord {
	out := r
	if r.Components != nil {
		c := *r.Components
		out.Components = &c
	}
	if r.PrevFeatures != nil {
		v := *r.PrevFeatures
		out.PrevFeatures = &v
	}
	if r.TopActions != nil {
		out.TopActions = append([]policy.ActionValue(nil), r.TopActions...)
	}
	return out
}

// #endregion step-record

// #region options
// Listener receives step records out-of-band, in emission order.
type Listener func(StepRecord)

// MaxCapacity bounds the ring; larger capacities are clamped.
const MaxCapacity = 300

// Options configure a Recorder.
type Options struct {
	Capacity         int    // ring size
	SubscriberBuffer int    // per-subscriber queue length
	OnDrop           func() // called when a subscriber queue is full
}

// DefaultOptions returns a 300-record ring with 64-deep subscriber queues.
func DefaultOptions() Options {
	return Options{
		Capacity:         MaxCapacity,
		SubscriberBuffer: 64,
	}
}

// #endregion options
