package snapshot

import (
	"context"
	"time"
)

// #region records
// KeyResult is a measurable outcome attached to a goal.
type KeyResult struct {
	ID      string
	GoalID  string
	Current float64
	Target  float64
}

// Goal groups key results under a life pillar.
type Goal struct {
	ID         string
	Title      string
	Pillar     string
	KeyResults []KeyResult
}

// WeeklyTask is a task scheduled for the week starting at WeekOf.
type WeeklyTask struct {
	ID        string
	WeekOf    time.Time
	Completed bool
}

// WeeklyReview is a completed planning review.
type WeeklyReview struct {
	ID   string
	Date time.Time
}

// CheckIn is a self-reported energy/focus reading on a 1-5 scale.
type CheckIn struct {
	ID        string
	Timestamp time.Time
	Energy    int
	Focus     int
}

// #endregion records

// #region snapshot-interface
// Snapshot is the read-only view of application state the engine consumes.
// Implementations are owned by the CRUD layer; the engine never mutates them.
type Snapshot interface {
	Goals() []Goal
	WeeklyTasks() []WeeklyTask
	WeeklyReviews() []WeeklyReview
	CheckIns() []CheckIn
}

// Source produces the current snapshot on demand (used by the periodic driver).
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// #endregion snapshot-interface

// #region static
// Static is a value-backed Snapshot.
type Static struct {
	GoalList    []Goal
	TaskList    []WeeklyTask
	ReviewList  []WeeklyReview
	CheckInList []CheckIn
}

func (s Static) Goals() []Goal                 { return s.GoalList }
func (s Static) WeeklyTasks() []WeeklyTask     { return s.TaskList }
func (s Static) WeeklyReviews() []WeeklyReview { return s.ReviewList }
func (s Static) CheckIns() []CheckIn           { return s.CheckInList }

// StaticSource always returns the same snapshot.
type StaticSource struct {
	Snap Snapshot
}

// Snapshot implements Source.
func (s StaticSource) Snapshot(_ context.Context) (Snapshot, error) {
	return s.Snap, nil
}

// #endregion static
