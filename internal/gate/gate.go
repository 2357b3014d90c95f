package gate

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/adaptive-coach/internal/update"
)

// #region gate
// Gate decides whether a proposed value update may be committed.
// A rejected proposal leaves the table and exploration rate untouched.
type Gate struct {
	config GateConfig
}

// NewGate creates a gate with the given configuration.
func NewGate(config GateConfig) *Gate {
	return &Gate{config: config}
}

// Evaluate checks the proposed update and the decayed exploration rate.
func (g *Gate) Evaluate(proposed update.Result, nextEpsilon float64) GateDecision {
	var vetoes []VetoSignal

	if !finite(proposed.Transition.Reward) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNonFiniteReward,
			Reason: fmt.Sprintf("reward is %v", proposed.Transition.Reward),
		})
	}

	if !finite(proposed.NewValue) {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNonFiniteValue,
			Reason: fmt.Sprintf("proposed value is %v", proposed.NewValue),
		})
	}

	if !proposed.Transition.PrevAction.Valid() {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoUnknownAction,
			Reason: fmt.Sprintf("unknown action %q", proposed.Transition.PrevAction),
		})
	}

	if !finite(nextEpsilon) || nextEpsilon < 0 || nextEpsilon > 1 {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoNonFiniteEpsilon,
			Reason: fmt.Sprintf("epsilon %v outside [0,1]", nextEpsilon),
		})
	}

	if g.config.MaxAbsValue > 0 && math.Abs(proposed.NewValue) > g.config.MaxAbsValue {
		vetoes = append(vetoes, VetoSignal{
			Type:   VetoValueBound,
			Reason: fmt.Sprintf("|value| %.4f exceeds cap %.4f", math.Abs(proposed.NewValue), g.config.MaxAbsValue),
		})
	}

	if len(vetoes) > 0 {
		return GateDecision{
			Action:      "reject",
			Reason:      fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed:      true,
			VetoSignals: vetoes,
		}
	}

	return GateDecision{
		Action: "commit",
		Reason: "passed gate",
	}
}

// #endregion gate

// #region helpers
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// #endregion helpers
