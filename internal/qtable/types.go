package qtable

// #region action
// Action is a symbolic coaching action the engine can recommend.
type Action string

const (
	SuggestTask          Action = "SUGGEST_TASK"
	PrioritizePillar     Action = "PRIORITIZE_PILLAR"
	SuggestTimeBlock     Action = "SUGGEST_TIME_BLOCK"
	SuggestRest          Action = "SUGGEST_REST"
	SuggestLowEffort     Action = "SUGGEST_LOW_EFFORT"
	SuggestSocial        Action = "SUGGEST_SOCIAL"
	PromptReflection     Action = "PROMPT_REFLECTION"
	InitiateWeeklyReview Action = "INITIATE_WEEKLY_REVIEW"
)

// Actions is the closed action set in declaration order.
// Exploitation ties resolve to the lowest index in this slice.
var Actions = []Action{
	SuggestTask,
	PrioritizePillar,
	SuggestTimeBlock,
	SuggestRest,
	SuggestLowEffort,
	SuggestSocial,
	PromptReflection,
	InitiateWeeklyReview,
}

// Index returns the declaration position of a, or -1 if a is not a known action.
func Index(a Action) int {
	for i, x := range Actions {
		if x == a {
			return i
		}
	}
	return -1
}

// Valid reports whether a belongs to the action set.
func (a Action) Valid() bool {
	return Index(a) >= 0
}

// #endregion action
