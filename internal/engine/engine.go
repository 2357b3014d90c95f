package engine

// #region imports
import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/eval"
	"github.com/danielpatrickdp/adaptive-coach/internal/features"
	"github.com/danielpatrickdp/adaptive-coach/internal/gate"
	"github.com/danielpatrickdp/adaptive-coach/internal/metrics"
	"github.com/danielpatrickdp/adaptive-coach/internal/policy"
	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
	"github.com/danielpatrickdp/adaptive-coach/internal/update"
)

// #endregion

// topActions is how many ranked actions each step record carries.
const topActions = 3

// #region engine-struct

// Engine is the coaching recommender: one instance per host, owning the
// value store, the pending snapshot and the step recorder. All methods are
// safe for concurrent use; Step calls are serialized.
type Engine struct {
	enabled bool

	mu       sync.Mutex
	store    *state.QStore
	selector *policy.Selector
	gate     *gate.Gate
	pending  *pending
	steps    int

	recorder *recorder.Recorder
	logger   *zap.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

// #endregion

// #region constructor

// New builds an engine and loads the value store. Loading never fails;
// absent or malformed records fall back to the defaults.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	defaults := opts.Defaults
	if defaults == (state.Config{}) {
		defaults = state.DefaultConfig()
	}

	backend := opts.Backend
	if !opts.Enabled {
		backend = nil
	}

	recOpts := opts.Recorder
	if m := opts.Metrics; m != nil {
		onDrop := recOpts.OnDrop
		recOpts.OnDrop = func() {
			m.IncDropped()
			if onDrop != nil {
				onDrop()
			}
		}
	}

	e := &Engine{
		enabled:  opts.Enabled,
		store:    state.Open(backend, opts.RecordKey, defaults, logger),
		selector: policy.NewSelector(rng),
		gate:     gate.NewGate(opts.Gate),
		recorder: recorder.New(recOpts, logger),
		logger:   logger,
		metrics:  opts.Metrics,
		now:      now,
	}

	cfg := e.store.Config()
	e.metrics.SetEpsilon(cfg.Epsilon)
	e.metrics.SetStates(len(e.store.Table()))
	logger.Info("coach engine ready",
		zap.Bool("enabled", e.enabled),
		zap.String("key", e.store.Key()),
		zap.Int("states", len(e.store.Table())),
		zap.Float64("epsilon", cfg.Epsilon),
	)
	return e
}

// Enabled reports whether Step does anything.
func (e *Engine) Enabled() bool {
	return e.enabled
}

// #endregion

// #region step

// Step runs one observe → learn → act cycle over snap and returns the emitted
// record. ok is false when the engine is disabled or the step faulted; in
// both cases the value table and pending snapshot are unchanged.
func (e *Engine) Step(snap snapshot.Snapshot) (rec recorder.StepRecord, ok bool) {
	if !e.enabled {
		return recorder.StepRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var undo func()
	defer func() {
		if p := recover(); p != nil {
			if undo != nil {
				undo()
			}
			e.logger.Error("step faulted, no learning this step",
				zap.Int("step", e.steps+1),
				zap.Any("panic", p),
			)
			e.metrics.ObserveStep(metrics.OutcomeFailed)
			rec, ok = recorder.StepRecord{}, false
		}
	}()

	now := e.now()
	cfg := e.store.Config()

	var prevKR *float64
	if e.pending != nil {
		prevKR = &e.pending.totals.KRAvg
	}
	cur := features.Extract(snap, prevKR, now)

	rec = recorder.StepRecord{
		ID:            uuid.NewString(),
		Timestamp:     now,
		Step:          e.steps + 1,
		Features:      cur.Vector,
		StateKey:      cur.Key,
		EpsilonBefore: cfg.Epsilon,
		EpsilonAfter:  cfg.Epsilon,
	}

	outcome := metrics.OutcomeFirst
	if e.pending == nil {
		rec.Skipped = "no previous snapshot"
	} else {
		outcome, undo = e.learn(&rec, cur, cfg)
	}

	table := e.store.Table()
	choice := e.selector.Select(table, cur.Key, e.store.Config().Epsilon)
	rec.Action = choice.Action
	rec.Explored = choice.Explored
	rec.TopActions = policy.TopN(table, cur.Key, topActions)

	e.pending = &pending{
		key:    cur.Key,
		vector: cur.Vector,
		action: choice.Action,
		totals: cur.Totals,
		at:     now,
	}
	e.steps++
	undo = nil

	if rec.Learned {
		e.save(&rec)
	}

	e.recorder.Emit(rec)
	e.observe(rec, outcome)
	return rec, true
}

// learn credits the pending (state, action) with the reward observed now.
// It returns the metrics outcome and, when the update was committed, a
// function that reverts it.
func (e *Engine) learn(rec *recorder.StepRecord, cur features.Result, cfg state.Config) (string, func()) {
	p := e.pending
	prevVector := p.vector
	rec.PrevStateKey = p.key
	rec.PrevAction = p.action
	rec.PrevFeatures = &prevVector
	rec.SincePrevMs = rec.Timestamp.Sub(p.at).Milliseconds()

	bd := update.Reward(cfg.Weights(), update.RewardInput{
		PrevKRAvg:          p.totals.KRAvg,
		CurKRAvg:           cur.Totals.KRAvg,
		PrevTasksCompleted: p.totals.TasksCompleted7d,
		CurTasksCompleted:  cur.Totals.TasksCompleted7d,
		Wellbeing:          cur.Vector[features.Wellbeing],
		Burnout:            cur.Vector[features.Burnout],
	})
	rec.Reward = bd.Total
	rec.Components = &bd

	proposed := update.Update(e.store.Table(), update.Transition{
		PrevState:  p.key,
		PrevAction: p.action,
		CurState:   cur.Key,
		Reward:     bd.Total,
	}, cfg.Learning())
	rec.QBefore = proposed.OldValue
	rec.QAfter = proposed.OldValue
	rec.BestNextValue = proposed.BestNext
	rec.TDError = proposed.TDError

	nextEps := update.DecayEpsilon(cfg.Epsilon, cfg.EpsilonMin, cfg.EpsilonDecay)
	decision := e.gate.Evaluate(proposed, nextEps)
	if decision.Vetoed {
		rec.Skipped = decision.Reason
		e.logger.Warn("update rejected",
			zap.Int("step", rec.Step),
			zap.String("state", p.key),
			zap.String("action", string(p.action)),
			zap.String("reason", decision.Reason),
		)
		return metrics.OutcomeRejected, nil
	}

	if cfg.Verbose {
		e.logger.Debug("update",
			zap.Int("step", rec.Step),
			zap.String("decision", proposed.Decision.Action),
			zap.String("reason", proposed.Decision.Reason),
			zap.Float64("td_error", proposed.TDError),
		)
	}
	undo := e.commit(proposed, nextEps)
	rec.QAfter = proposed.NewValue
	rec.EpsilonAfter = nextEps
	rec.Learned = true
	return metrics.OutcomeLearned, undo
}

// commit writes the new value and decayed epsilon in one block and returns
// the inverse.
func (e *Engine) commit(r update.Result, nextEps float64) func() {
	table := e.store.Table()
	tr := r.Transition
	prevEps := e.store.Config().Epsilon
	_, existed := table[tr.PrevState][tr.PrevAction]

	table.Set(tr.PrevState, tr.PrevAction, r.NewValue)
	e.store.SetEpsilon(nextEps)

	return func() {
		if existed {
			table.Set(tr.PrevState, tr.PrevAction, r.OldValue)
		} else {
			table.Delete(tr.PrevState, tr.PrevAction)
		}
		e.store.SetEpsilon(prevEps)
	}
}

// save persists the committed state; failures only mark the record.
func (e *Engine) save(rec *recorder.StepRecord) {
	if err := e.store.Save(); err != nil {
		rec.SaveError = err.Error()
		e.metrics.IncSaveFailure()
		e.logger.Warn("qstore save failed, continuing in memory",
			zap.Int("step", rec.Step),
			zap.Error(err),
		)
		return
	}
	rec.Saved = true
}

func (e *Engine) observe(rec recorder.StepRecord, outcome string) {
	e.metrics.ObserveStep(outcome)
	if rec.Learned {
		e.metrics.ObserveReward(rec.Reward)
	}
	e.metrics.SetEpsilon(rec.EpsilonAfter)
	e.metrics.SetStates(len(e.store.Table()))

	if e.store.Config().Verbose {
		e.logger.Debug("step",
			zap.Int("step", rec.Step),
			zap.String("state", rec.StateKey),
			zap.String("action", string(rec.Action)),
			zap.Bool("explored", rec.Explored),
			zap.Float64("reward", rec.Reward),
			zap.Float64("q_before", rec.QBefore),
			zap.Float64("q_after", rec.QAfter),
			zap.Float64("td_error", rec.TDError),
			zap.Float64("epsilon", rec.EpsilonAfter),
			zap.Bool("saved", rec.Saved),
		)
	}
}

// #endregion

// #region observability

// Subscribe registers fn for every future step record.
func (e *Engine) Subscribe(fn recorder.Listener) func() {
	return e.recorder.Subscribe(fn)
}

// RecentLogs returns up to the last 300 step records, newest first.
func (e *Engine) RecentLogs() []recorder.StepRecord {
	return e.recorder.Recent()
}

// ClearLogs empties the step record buffer. The value table is untouched.
func (e *Engine) ClearLogs() {
	e.recorder.Clear()
}

// SetVerbose toggles per-step debug tracing. The flag is persisted with the
// next save.
func (e *Engine) SetVerbose(v bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.SetVerbose(v)
}

// Epsilon returns the current exploration rate.
func (e *Engine) Epsilon() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Config().Epsilon
}

// Export returns a deep copy of {valueTable, config}.
func (e *Engine) Export() state.Bundle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Export()
}

// Reset clears the value table in place and persists the empty table.
// The returned error only reports the save; the reset itself always happens.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Reset()
	e.metrics.SetStates(0)
	e.logger.Info("value table reset")
	if !e.enabled {
		return nil
	}
	return e.store.Save()
}

// Restore replaces the table and config with b and persists them.
func (e *Engine) Restore(b state.Bundle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Restore(b); err != nil {
		return err
	}
	cfg := e.store.Config()
	e.metrics.SetEpsilon(cfg.Epsilon)
	e.metrics.SetStates(len(e.store.Table()))
	if !e.enabled {
		return nil
	}
	return e.store.Save()
}

// Summary describes the value table: counts, distribution and the topN entries.
func (e *Engine) Summary(topN int) eval.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return eval.Summarize(e.store.Table(), topN)
}

// Close stops subscriber delivery.
func (e *Engine) Close() {
	e.recorder.Close()
}

// #endregion
