package update

import "github.com/danielpatrickdp/adaptive-coach/internal/qtable"

// #region weights
// Weights scale the reward components. All four are non-negative.
type Weights struct {
	KR        float64 // w1: KR-progress delta
	Tasks     float64 // w2: tasks-completed delta
	Wellbeing float64 // w3: current wellbeing
	Burnout   float64 // w4: current burnout (subtracted)
}

// #endregion weights

// #region reward-input
// RewardInput carries the totals of two consecutive extractions plus the
// current clipped wellbeing/burnout features.
type RewardInput struct {
	PrevKRAvg          float64
	CurKRAvg           float64
	PrevTasksCompleted float64
	CurTasksCompleted  float64
	Wellbeing          float64
	Burnout            float64
}

// #endregion reward-input

// #region reward-breakdown
// Breakdown itemizes a computed reward. Deltas are not clipped, so Total is unbounded.
type Breakdown struct {
	DeltaKR       float64 `json:"deltaKR"`
	DeltaTasks    float64 `json:"deltaTasks"`
	Wellbeing     float64 `json:"wellbeing"`
	Burnout       float64 `json:"burnout"`
	KRTerm        float64 `json:"krTerm"`
	TasksTerm     float64 `json:"tasksTerm"`
	WellbeingTerm float64 `json:"wellbeingTerm"`
	BurnoutTerm   float64 `json:"burnoutTerm"`
	Total         float64 `json:"total"`
}

// #endregion reward-breakdown

// #region transition
// Transition identifies the (previous state, previous action) being credited
// and the state observed afterwards.
type Transition struct {
	PrevState  string
	PrevAction qtable.Action
	CurState   string
	Reward     float64
}

// #endregion transition

// #region learning-config
// LearningConfig holds the TD(0) step size and discount.
type LearningConfig struct {
	Alpha float64
	Gamma float64
}

// #endregion learning-config

// #region decision
// Decision records what the update function decided.
type Decision struct {
	Action string // "commit" | "no_op"
	Reason string
}

// #endregion decision

// #region update-result
// Result is the proposed value for Q[PrevState][PrevAction]. Update never
// mutates the table; the caller commits NewValue.
type Result struct {
	Transition Transition
	OldValue   float64
	NewValue   float64
	BestNext   float64
	TDError    float64
	Decision   Decision
}

// #endregion update-result
