package eval

import "github.com/danielpatrickdp/adaptive-coach/internal/qtable"

// #region entry
// Entry is one recorded (state, action, value) triple.
type Entry struct {
	State  string        `json:"state"`
	Action qtable.Action `json:"action"`
	Value  float64       `json:"value"`
}

// #endregion entry

// #region summary
// Summary describes the distribution of recorded values in a table.
type Summary struct {
	UniqueStates int     `json:"uniqueStates"`
	TotalEntries int     `json:"totalEntries"`
	Mean         float64 `json:"mean"`
	P50          float64 `json:"p50"`
	P90          float64 `json:"p90"`
	Max          float64 `json:"max"`
	Top          []Entry `json:"top"`
}

// #endregion summary
