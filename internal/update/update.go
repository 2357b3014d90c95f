package update

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
)

// #region reward
// Reward computes w1*ΔKR + w2*ΔTasks + w3*wellbeing − w4*burnout.
func Reward(w Weights, in RewardInput) Breakdown {
	b := Breakdown{
		DeltaKR:    in.CurKRAvg - in.PrevKRAvg,
		DeltaTasks: in.CurTasksCompleted - in.PrevTasksCompleted,
		Wellbeing:  in.Wellbeing,
		Burnout:    in.Burnout,
	}
	b.KRTerm = w.KR * b.DeltaKR
	b.TasksTerm = w.Tasks * b.DeltaTasks
	b.WellbeingTerm = w.Wellbeing * b.Wellbeing
	b.BurnoutTerm = w.Burnout * b.Burnout
	b.Total = b.KRTerm + b.TasksTerm + b.WellbeingTerm - b.BurnoutTerm
	return b
}

// #endregion reward

// #region update-function
// Update is a pure TD(0) / Q-learning step:
//
//	Q[prev][a] + alpha * (reward + gamma * max_a' Q[cur][a'] - Q[prev][a])
//
// The max runs over the fixed action set with absent entries as 0.
func Update(table qtable.ValueTable, tr Transition, cfg LearningConfig) Result {
	old := table.Get(tr.PrevState, tr.PrevAction)
	bestNext := table.MaxValue(tr.CurState)
	tdErr := tr.Reward + cfg.Gamma*bestNext - old
	newV := old + cfg.Alpha*tdErr

	decision := Decision{Action: "no_op", Reason: "value unchanged"}
	if newV != old {
		decision = Decision{
			Action: "commit",
			Reason: fmt.Sprintf("%s/%s: %.6f -> %.6f (td=%.6f)", tr.PrevState, tr.PrevAction, old, newV, tdErr),
		}
	}

	return Result{
		Transition: tr,
		OldValue:   old,
		NewValue:   newV,
		BestNext:   bestNext,
		TDError:    tdErr,
		Decision:   decision,
	}
}

// #endregion update-function

// #region decay
// DecayEpsilon returns max(floor, epsilon*decay).
func DecayEpsilon(epsilon, floor, decay float64) float64 {
	return math.Max(floor, epsilon*decay)
}

// #endregion decay
