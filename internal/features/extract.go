package features

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
)

// #region constants
const (
	// KeySeparator joins bucket levels into a state key.
	KeySeparator = "|"
	// Levels is the number of discretization buckets per feature.
	Levels = 5

	taskWindow   = 7 * 24 * time.Hour
	reviewWindow = 28 * 24 * time.Hour

	velocitySwing     = 0.1
	taskScale         = 10.0
	burnoutTaskScale  = 20.0
	reviewTarget      = 4.0
	defaultWellbeing  = 0.5
	checkInScale      = 5.0
	burnoutWellWeight = 0.6
	burnoutLoadWeight = 0.4
)

// #endregion constants

// #region extract
// Extract computes the feature vector, state key and raw totals for snap at now.
// prevKRAvg is the previous step's KR-progress average; nil means no previous
// step, in which case velocity is computed against the current average.
func Extract(snap snapshot.Snapshot, prevKRAvg *float64, now time.Time) Result {
	krAvg := keyResultAverage(snap.Goals())
	prev := krAvg
	if prevKRAvg != nil {
		prev = *prevKRAvg
	}

	completed, scheduled := taskCounts(snap.WeeklyTasks(), now)
	reviews := reviewCount(snap.WeeklyReviews(), now)
	wellbeing := latestWellbeing(snap.CheckIns())

	var v Vector
	v[KRProgress] = clip01(krAvg)
	v[KRVelocity] = clip01((krAvg - prev + velocitySwing) / (2 * velocitySwing))
	v[TasksCompleted7d] = clip01(completed / taskScale)
	v[TaskDensity7d] = clip01(scheduled / taskScale)
	v[Wellbeing] = clip01(wellbeing)
	v[Burnout] = clip01(burnoutWellWeight*(1-v[Wellbeing]) + burnoutLoadWeight*math.Min(1, scheduled/burnoutTaskScale))
	v[PlanningConsistency] = clip01(math.Min(1, reviews/reviewTarget))

	return Result{
		Vector: v,
		Key:    Key(v),
		Totals: Totals{
			KRAvg:             krAvg,
			TasksCompleted7d:  completed,
			TasksScheduled7d:  scheduled,
			ReviewsTrailing28: reviews,
		},
	}
}

// #endregion extract

// #region discretize
// Level buckets a [0,1] value into 0..Levels-1.
func Level(v float64) int {
	return int(math.Round(clip01(v) * (Levels - 1)))
}

// Key is the deterministic state key for v: bucket levels joined by KeySeparator.
func Key(v Vector) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(Level(x))
	}
	return strings.Join(parts, KeySeparator)
}

// #endregion discretize

// #region helpers
// keyResultAverage is the mean of current/target across all key results.
func keyResultAverage(goals []snapshot.Goal) float64 {
	var sum float64
	var n int
	for _, g := range goals {
		for _, kr := range g.KeyResults {
			sum += kr.Current / math.Max(kr.Target, 1)
			n++
		}
	}
	return sum / math.Max(float64(n), 1)
}

// taskCounts returns completed and scheduled task counts within the trailing week.
// Tasks dated after now still count as scheduled.
func taskCounts(tasks []snapshot.WeeklyTask, now time.Time) (completed, scheduled float64) {
	cutoff := now.Add(-taskWindow)
	for _, t := range tasks {
		if t.WeekOf.Before(cutoff) {
			continue
		}
		scheduled++
		if t.Completed {
			completed++
		}
	}
	return completed, scheduled
}

func reviewCount(reviews []snapshot.WeeklyReview, now time.Time) float64 {
	cutoff := now.Add(-reviewWindow)
	var n float64
	for _, r := range reviews {
		if !r.Date.Before(cutoff) {
			n++
		}
	}
	return n
}

// latestWellbeing averages energy/5 and focus/5 of the most recent check-in.
func latestWellbeing(checkIns []snapshot.CheckIn) float64 {
	if len(checkIns) == 0 {
		return defaultWellbeing
	}
	latest := checkIns[0]
	for _, c := range checkIns[1:] {
		if c.Timestamp.After(latest.Timestamp) {
			latest = c
		}
	}
	return (float64(latest.Energy)/checkInScale + float64(latest.Focus)/checkInScale) / 2
}

// clip01 restricts v to [0, 1]. NaN maps to 0.
func clip01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}

// #endregion helpers
