package replay

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/engine"
	"github.com/danielpatrickdp/adaptive-coach/internal/eval"
	"github.com/danielpatrickdp/adaptive-coach/internal/gate"
	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// Step outcomes reported per frame.
const (
	OutcomeFirst    = "first"
	OutcomeLearned  = "learned"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// #region types
// Frame is one recorded snapshot and the time it was observed.
type Frame struct {
	ID       string
	At       time.Time
	Snapshot snapshot.Snapshot
}

// Config fixes everything that would otherwise make a run nondeterministic.
type Config struct {
	Seed            uint64
	Hyperparameters state.Config
	Gate            gate.GateConfig
}

// DefaultConfig returns seed 1 with the built-in hyperparameters.
func DefaultConfig() Config {
	return Config{
		Seed:            1,
		Hyperparameters: state.DefaultConfig(),
		Gate:            gate.DefaultGateConfig(),
	}
}

// Result is the outcome of replaying one frame.
type Result struct {
	FrameID string
	Outcome string
	Record  recorder.StepRecord
}

// Summary aggregates a replay run.
type Summary struct {
	TotalSteps   int
	Updates      int
	Rejections   int
	Failures     int
	Explorations int
	ActionCounts map[qtable.Action]int
	MeanReward   float64 // over learned steps
	FinalEpsilon float64
	Table        eval.Summary
}

// #endregion types

// #region replay
// Replay runs frames through a fresh in-memory engine with a seeded RNG and a
// clock pinned to each frame's time. It returns per-frame results and the
// final {valueTable, config}.
func Replay(frames []Frame, cfg Config, logger *zap.Logger) ([]Result, state.Bundle) {
	var now time.Time
	eng := engine.New(engine.Options{
		Enabled:  true,
		Backend:  state.NewMemoryBackend(),
		Defaults: cfg.Hyperparameters,
		Gate:     cfg.Gate,
		Logger:   logger,
		Rand:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d)),
		Now:      func() time.Time { return now },
	})
	defer eng.Close()

	results := make([]Result, 0, len(frames))
	for _, f := range frames {
		now = f.At
		rec, ok := eng.Step(f.Snapshot)
		results = append(results, Result{
			FrameID: f.ID,
			Outcome: outcome(rec, ok),
			Record:  rec,
		})
	}
	return results, eng.Export()
}

func outcome(rec recorder.StepRecord, ok bool) string {
	switch {
	case !ok:
		return OutcomeFailed
	case rec.PrevStateKey == "":
		return OutcomeFirst
	case rec.Learned:
		return OutcomeLearned
	default:
		return OutcomeRejected
	}
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []Result, final state.Bundle, topN int) Summary {
	s := Summary{
		TotalSteps:   len(results),
		ActionCounts: make(map[qtable.Action]int),
		FinalEpsilon: final.Config.Epsilon,
		Table:        eval.Summarize(final.ValueTable, topN),
	}
	var rewardSum float64
	for _, r := range results {
		switch r.Outcome {
		case OutcomeLearned:
			s.Updates++
			rewardSum += r.Record.Reward
		case OutcomeRejected:
			s.Rejections++
		case OutcomeFailed:
			s.Failures++
			continue
		}
		if r.Record.Explored {
			s.Explorations++
		}
		s.ActionCounts[r.Record.Action]++
	}
	if s.Updates > 0 {
		s.MeanReward = rewardSum / float64(s.Updates)
	}
	return s
}

// #endregion replay
