package eval

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
)

// #region summarize
// Summarize computes counts, mean, p50, p90, max and the topN entries of table.
// Entries are visited in a fixed order (states lexicographic, actions in
// declaration order) and the top list is a stable descending sort over that
// order, so equal values keep their visiting order. An empty table yields a
// zero Summary with an empty, non-nil Top.
func Summarize(table qtable.ValueTable, topN int) Summary {
	entries := collect(table)
	s := Summary{
		UniqueStates: len(table),
		TotalEntries: len(entries),
		Top:          []Entry{},
	}
	if len(entries) == 0 {
		return s
	}

	values := make([]float64, len(entries))
	var sum float64
	for i, e := range entries {
		values[i] = e.Value
		sum += e.Value
	}
	sort.Float64s(values)

	s.Mean = sum / float64(len(values))
	s.P50 = percentile(values, 0.5)
	s.P90 = percentile(values, 0.9)
	s.Max = values[len(values)-1]

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Value > entries[j].Value })
	if topN > len(entries) {
		topN = len(entries)
	}
	if topN > 0 {
		s.Top = append(s.Top, entries[:topN]...)
	}
	return s
}

// #endregion summarize

// #region helpers
func collect(table qtable.ValueTable) []Entry {
	var out []Entry
	for _, state := range table.States() {
		row := table[state]
		for _, a := range qtable.Actions {
			if v, ok := row[a]; ok {
				out = append(out, Entry{State: state, Action: a, Value: v})
			}
		}
	}
	return out
}

// percentile picks the element at floor(p*(n-1)) of an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	return sorted[idx]
}

// #endregion helpers
