package policy

import (
	"sort"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
)

// #region types
// Rand is the randomness the selector draws from. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Choice is the outcome of one selection.
type Choice struct {
	Action   qtable.Action
	Value    float64 // Q[state][Action] before any update this step
	Explored bool
	Epsilon  float64 // exploration rate used for the draw
}

// ActionValue pairs an action with its current estimate.
type ActionValue struct {
	Action qtable.Action `json:"action"`
	Value  float64       `json:"value"`
}

// #endregion types

// #region selector
// Selector chooses actions epsilon-greedily over the fixed action set.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector drawing from rng.
func NewSelector(rng Rand) *Selector {
	return &Selector{rng: rng}
}

// Select draws u ~ U[0,1); u < epsilon explores uniformly, otherwise it exploits.
func (s *Selector) Select(table qtable.ValueTable, state string, epsilon float64) Choice {
	if s.rng.Float64() < epsilon {
		a := qtable.Actions[s.rng.IntN(len(qtable.Actions))]
		return Choice{Action: a, Value: table.Get(state, a), Explored: true, Epsilon: epsilon}
	}
	a, v := Greedy(table, state)
	return Choice{Action: a, Value: v, Explored: false, Epsilon: epsilon}
}

// #endregion selector

// #region greedy
// Greedy scans actions in declaration order and returns the first one holding
// the maximum value (absent entries count as 0). Ties go to the earliest action.
func Greedy(table qtable.ValueTable, state string) (qtable.Action, float64) {
	best := qtable.Actions[0]
	bestV := table.Get(state, best)
	for _, a := range qtable.Actions[1:] {
		if v := table.Get(state, a); v > bestV {
			best, bestV = a, v
		}
	}
	return best, bestV
}

// TopN returns the n highest-valued actions for state, descending,
// ties kept in declaration order.
func TopN(table qtable.ValueTable, state string, n int) []ActionValue {
	all := make([]ActionValue, len(qtable.Actions))
	for i, a := range qtable.Actions {
		all[i] = ActionValue{Action: a, Value: table.Get(state, a)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Value > all[j].Value })
	if n < 0 {
		n = 0
	}
	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// #endregion greedy
