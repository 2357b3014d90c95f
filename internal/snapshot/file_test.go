package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
goals:
  - id: g1
    title: Run a marathon
    pillar: health
    key_results:
      - id: kr1
        current: 20
        target: 42
tasks:
  - id: t1
    week_of: "2026-10-12"
    completed: true
  - id: t2
    week_of: "2026-10-12T00:00:00Z"
reviews:
  - id: r1
    date: "2026-10-11"
check_ins:
  - id: c1
    timestamp: "2026-10-15T08:30:00Z"
    energy: 4
    focus: 3
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	s, err := LoadFile(writeFile(t, "snap.yaml", sampleYAML))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(s.Goals()) != 1 || len(s.Goals()[0].KeyResults) != 1 {
		t.Fatalf("unexpected goals: %+v", s.Goals())
	}
	if s.Goals()[0].KeyResults[0].GoalID != "g1" {
		t.Fatalf("expected key result to carry goal id, got %q", s.Goals()[0].KeyResults[0].GoalID)
	}
	if len(s.WeeklyTasks()) != 2 || !s.WeeklyTasks()[0].Completed {
		t.Fatalf("unexpected tasks: %+v", s.WeeklyTasks())
	}
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	if !s.WeeklyTasks()[0].WeekOf.Equal(want) {
		t.Fatalf("expected %v, got %v", want, s.WeeklyTasks()[0].WeekOf)
	}
	if len(s.CheckIns()) != 1 || s.CheckIns()[0].Energy != 4 {
		t.Fatalf("unexpected check-ins: %+v", s.CheckIns())
	}
}

func TestLoadFileJSON(t *testing.T) {
	body := `{"goals":[],"tasks":[{"id":"t1","week_of":"2026-10-12","completed":false}],"reviews":[],"check_ins":[]}`
	s, err := LoadFile(writeFile(t, "snap.json", body))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(s.WeeklyTasks()) != 1 {
		t.Fatalf("expected 1 task, got %d", len(s.WeeklyTasks()))
	}
}

func TestLoadFileBadDate(t *testing.T) {
	body := "tasks:\n  - id: t1\n    week_of: someday\n"
	if _, err := LoadFile(writeFile(t, "bad.yaml", body)); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestFileSourceRereads(t *testing.T) {
	path := writeFile(t, "snap.yaml", "tasks: []\n")
	src := FileSource{Path: path}
	s, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(s.WeeklyTasks()) != 0 {
		t.Fatalf("expected no tasks, got %d", len(s.WeeklyTasks()))
	}
	if err := os.WriteFile(path, []byte("tasks:\n  - id: t1\n    week_of: \"2026-10-12\"\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	s, err = src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(s.WeeklyTasks()) != 1 {
		t.Fatalf("expected 1 task after rewrite, got %d", len(s.WeeklyTasks()))
	}
}
