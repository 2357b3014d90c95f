// Package driver invokes the engine on a cron cadence. The engine itself has
// no timer; this is the external caller that decides when a step happens.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/adaptive-coach/internal/recorder"
	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
)

// ErrSkipped is returned by RunOnce when the engine declined to step.
var ErrSkipped = errors.New("engine did not step")

// cronParser accepts standard 5-field expressions and descriptors like "@every 15m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Stepper is the part of the engine the driver needs.
type Stepper interface {
	Step(snapshot.Snapshot) (recorder.StepRecord, bool)
}

// Config holds the dependencies for the driver.
type Config struct {
	Engine   Stepper
	Source   snapshot.Source
	Schedule string
	Logger   *zap.Logger
	// Timeout bounds reading one snapshot; 0 means 30s.
	Timeout time.Duration
}

// Driver reads a snapshot and steps the engine on every cron tick.
type Driver struct {
	engine   Stepper
	source   snapshot.Source
	spec     string
	schedule cronlib.Schedule
	logger   *zap.Logger
	timeout  time.Duration

	mu   sync.Mutex
	cron *cronlib.Cron
}

// New validates the schedule and dependencies.
func New(cfg Config) (*Driver, error) {
	if cfg.Engine == nil {
		return nil, errors.New("driver: engine is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("driver: snapshot source is required")
	}
	sched, err := cronParser.Parse(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("driver: parse schedule %q: %w", cfg.Schedule, err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Driver{
		engine:   cfg.Engine,
		source:   cfg.Source,
		spec:     cfg.Schedule,
		schedule: sched,
		logger:   logger,
		timeout:  timeout,
	}, nil
}

// RunOnce reads one snapshot and steps the engine.
func (d *Driver) RunOnce(ctx context.Context) (recorder.StepRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	snap, err := d.source.Snapshot(ctx)
	if err != nil {
		return recorder.StepRecord{}, fmt.Errorf("read snapshot: %w", err)
	}
	if snap == nil {
		return recorder.StepRecord{}, errors.New("read snapshot: source returned nil")
	}
	rec, ok := d.engine.Step(snap)
	if !ok {
		return recorder.StepRecord{}, ErrSkipped
	}
	return rec, nil
}

// Start schedules RunOnce and returns immediately. Overlapping ticks are
// skipped. ctx is passed to every snapshot read.
func (d *Driver) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cron != nil {
		return
	}

	l := cronLogger{s: d.logger.Sugar()}
	d.cron = cronlib.New(
		cronlib.WithParser(cronParser),
		cronlib.WithLogger(l),
		cronlib.WithChain(cronlib.Recover(l), cronlib.SkipIfStillRunning(l)),
	)
	d.cron.Schedule(d.schedule, cronlib.FuncJob(func() { d.tick(ctx) }))
	d.cron.Start()
	d.logger.Info("driver started", zap.String("schedule", d.spec))
}

// Stop halts scheduling and waits for a running step to finish.
func (d *Driver) Stop() {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	d.logger.Info("driver stopped")
}

// NextRun returns the first tick after t.
func (d *Driver) NextRun(t time.Time) time.Time {
	return d.schedule.Next(t)
}

func (d *Driver) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	rec, err := d.RunOnce(ctx)
	if err != nil {
		d.logger.Warn("scheduled step failed", zap.Error(err))
		return
	}
	d.logger.Info("scheduled step",
		zap.Int("step", rec.Step),
		zap.String("state", rec.StateKey),
		zap.String("action", string(rec.Action)),
		zap.Float64("reward", rec.Reward),
	)
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
