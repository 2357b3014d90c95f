package features

// #region vector
// Feature indices within a Vector.
const (
	KRProgress = iota
	KRVelocity
	TasksCompleted7d
	TaskDensity7d
	Wellbeing
	Burnout
	PlanningConsistency

	Size
)

// Names labels each feature index, in order.
var Names = [Size]string{
	"kr_progress",
	"kr_velocity",
	"tasks_completed_7d",
	"task_density_7d",
	"wellbeing",
	"burnout",
	"planning_consistency",
}

// Vector is the normalized feature vector; every entry lies in [0,1].
type Vector [Size]float64

// #endregion vector

// #region totals
// Totals are the un-clipped quantities the reward is computed from.
type Totals struct {
	KRAvg             float64 `json:"krAvg"`
	TasksCompleted7d  float64 `json:"tasksCompleted7d"`
	TasksScheduled7d  float64 `json:"tasksScheduled7d"`
	ReviewsTrailing28 float64 `json:"reviews28d"`
}

// #endregion totals

// #region result
// Result is the output of one extraction.
type Result struct {
	Vector Vector
	Key    string
	Totals Totals
}

// #endregion result
