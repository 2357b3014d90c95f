package snapshot

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// #region file-types
// File is the on-disk shape of a snapshot (YAML or JSON).
// Dates are RFC3339 strings.
type File struct {
	Goals    []FileGoal    `yaml:"goals" json:"goals"`
	Tasks    []FileTask    `yaml:"tasks" json:"tasks"`
	Reviews  []FileReview  `yaml:"reviews" json:"reviews"`
	CheckIns []FileCheckIn `yaml:"check_ins" json:"check_ins"`
}

type FileGoal struct {
	ID         string          `yaml:"id" json:"id"`
	Title      string          `yaml:"title" json:"title"`
	Pillar     string          `yaml:"pillar" json:"pillar"`
	KeyResults []FileKeyResult `yaml:"key_results" json:"key_results"`
}

type FileKeyResult struct {
	ID      string  `yaml:"id" json:"id"`
	Current float64 `yaml:"current" json:"current"`
	Target  float64 `yaml:"target" json:"target"`
}

type FileTask struct {
	ID        string `yaml:"id" json:"id"`
	WeekOf    string `yaml:"week_of" json:"week_of"`
	Completed bool   `yaml:"completed" json:"completed"`
}

type FileReview struct {
	ID   string `yaml:"id" json:"id"`
	Date string `yaml:"date" json:"date"`
}

type FileCheckIn struct {
	ID        string `yaml:"id" json:"id"`
	Timestamp string `yaml:"timestamp" json:"timestamp"`
	Energy    int    `yaml:"energy" json:"energy"`
	Focus     int    `yaml:"focus" json:"focus"`
}

// #endregion file-types

// #region conversion
// ToStatic converts the file representation into a Static snapshot.
func (f *File) ToStatic() (Static, error) {
	var s Static
	for _, g := range f.Goals {
		goal := Goal{ID: g.ID, Title: g.Title, Pillar: g.Pillar}
		for _, kr := range g.KeyResults {
			goal.KeyResults = append(goal.KeyResults, KeyResult{
				ID:      kr.ID,
				GoalID:  g.ID,
				Current: kr.Current,
				Target:  kr.Target,
			})
		}
		s.GoalList = append(s.GoalList, goal)
	}
	for _, t := range f.Tasks {
		at, err := parseTime(t.WeekOf)
		if err != nil {
			return Static{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
		s.TaskList = append(s.TaskList, WeeklyTask{ID: t.ID, WeekOf: at, Completed: t.Completed})
	}
	for _, r := range f.Reviews {
		at, err := parseTime(r.Date)
		if err != nil {
			return Static{}, fmt.Errorf("review %s: %w", r.ID, err)
		}
		s.ReviewList = append(s.ReviewList, WeeklyReview{ID: r.ID, Date: at})
	}
	for _, c := range f.CheckIns {
		at, err := parseTime(c.Timestamp)
		if err != nil {
			return Static{}, fmt.Errorf("check-in %s: %w", c.ID, err)
		}
		s.CheckInList = append(s.CheckInList, CheckIn{ID: c.ID, Timestamp: at, Energy: c.Energy, Focus: c.Focus})
	}
	return s, nil
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", v, err)
	}
	return t, nil
}

// #endregion conversion

// #region loader
// LoadFile reads a YAML (or JSON) snapshot file.
func LoadFile(path string) (Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Static{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Static{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return f.ToStatic()
}

// FileSource re-reads a snapshot file on every call, so edits are picked up
// at the next step.
type FileSource struct {
	Path string
}

// Snapshot implements Source.
func (s FileSource) Snapshot(_ context.Context) (Snapshot, error) {
	return LoadFile(s.Path)
}

// #endregion loader
