package qtable

import "sort"

// #region value-table
// ValueTable maps a state key to per-action value estimates.
// Absent states and actions read as 0. The table never evicts.
type ValueTable map[string]map[Action]float64

// Get returns Q[state][action], defaulting to 0.
func (t ValueTable) Get(state string, a Action) float64 {
	row, ok := t[state]
	if !ok {
		return 0
	}
	return row[a]
}

// Set writes Q[state][action], creating the row when needed.
func (t ValueTable) Set(state string, a Action, v float64) {
	row, ok := t[state]
	if !ok {
		row = make(map[Action]float64, len(Actions))
		t[state] = row
	}
	row[a] = v
}

// Delete removes Q[state][action], dropping the row once it is empty.
func (t ValueTable) Delete(state string, a Action) {
	row, ok := t[state]
	if !ok {
		return
	}
	delete(row, a)
	if len(row) == 0 {
		delete(t, state)
	}
}

// MaxValue returns max over the fixed action set of Q[state][a], absent entries as 0.
func (t ValueTable) MaxValue(state string) float64 {
	best := t.Get(state, Actions[0])
	for _, a := range Actions[1:] {
		if v := t.Get(state, a); v > best {
			best = v
		}
	}
	return best
}

// Entries returns the number of recorded (state, action) values.
func (t ValueTable) Entries() int {
	n := 0
	for _, row := range t {
		n += len(row)
	}
	return n
}

// States returns the recorded state keys in lexicographic order.
func (t ValueTable) States() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (t ValueTable) Clone() ValueTable {
	out := make(ValueTable, len(t))
	for state, row := range t {
		cp := make(map[Action]float64, len(row))
		for a, v := range row {
			cp[a] = v
		}
		out[state] = cp
	}
	return out
}

// Clear removes every entry in place.
func (t ValueTable) Clear() {
	for k := range t {
		delete(t, k)
	}
}

// #endregion value-table
