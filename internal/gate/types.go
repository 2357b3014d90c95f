package gate

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoNonFiniteReward  VetoType = "non_finite_reward"
	VetoNonFiniteValue   VetoType = "non_finite_value"
	VetoNonFiniteEpsilon VetoType = "non_finite_epsilon"
	VetoUnknownAction    VetoType = "unknown_action"
	VetoValueBound       VetoType = "value_bound"
)

// #endregion veto-type

// #region veto-signal
// VetoSignal represents a detected hard veto condition.
type VetoSignal struct {
	Type   VetoType
	Reason string
}

// #endregion veto-signal

// #region gate-config
// GateConfig holds thresholds for gate decisions.
type GateConfig struct {
	MaxAbsValue float64 // 0 disables the magnitude check
}

// DefaultGateConfig returns the default thresholds. Magnitude is unbounded
// because reward deltas are intentionally not clipped.
func DefaultGateConfig() GateConfig {
	return GateConfig{MaxAbsValue: 0}
}

// #endregion gate-config

// #region gate-decision
// GateDecision is the output of the gate evaluation.
type GateDecision struct {
	Action      string // "commit" | "reject"
	Reason      string
	Vetoed      bool
	VetoSignals []VetoSignal
}

// #endregion gate-decision
