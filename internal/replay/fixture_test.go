package replay

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// #region fixture-tests

// TestFixture_CoachingWeek replays the coaching_week fixture and compares each
// frame's outcome (and action, where given) against the expectation.
func TestFixture_CoachingWeek(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "coaching_week.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	frames, err := f.ToFrames()
	if err != nil {
		t.Fatalf("ToFrames: %v", err)
	}

	results, final := Replay(frames, f.ToReplayConfig(), nil)

	if len(results) != len(f.ExpectedResults) {
		t.Fatalf("expected %d results, got %d", len(f.ExpectedResults), len(results))
	}
	for i, expected := range f.ExpectedResults {
		actual := results[i]
		if actual.FrameID != expected.FrameID {
			t.Errorf("frame %d: expected id=%s, got %s", i, expected.FrameID, actual.FrameID)
		}
		if actual.Outcome != expected.Outcome {
			t.Errorf("frame %d (%s): expected outcome=%s, got %s (skipped: %s)",
				i, expected.FrameID, expected.Outcome, actual.Outcome, actual.Record.Skipped)
		}
		if expected.Action != "" && string(actual.Record.Action) != expected.Action {
			t.Errorf("frame %d (%s): expected action=%s, got %s",
				i, expected.FrameID, expected.Action, actual.Record.Action)
		}
		if actual.Record.Explored {
			t.Errorf("frame %d (%s): epsilon is 0, expected no exploration", i, expected.FrameID)
		}
	}

	if got := final.Config.Epsilon; got != 0 {
		t.Errorf("expected epsilon to stay at the zero floor, got %f", got)
	}
	if final.ValueTable.Entries() == 0 {
		t.Error("expected learned entries in the final table")
	}
}

func TestFixture_DefaultsAndFrameTimes(t *testing.T) {
	f, err := LoadFixture(filepath.Join("testdata", "coaching_week.json"))
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if f.Hyperparameters.Alpha != 0.3 || f.Hyperparameters.W4 != 2.0 {
		t.Errorf("expected missing hyperparameters to keep defaults, got %+v", f.Hyperparameters)
	}
	if f.Seed != 42 {
		t.Errorf("expected seed 42, got %d", f.Seed)
	}

	frames, err := f.ToFrames()
	if err != nil {
		t.Fatalf("ToFrames: %v", err)
	}
	want := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	if !frames[2].At.Equal(want) {
		t.Errorf("expected frame 3 at %v, got %v", want, frames[2].At)
	}
}

func TestLoadFixture_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFixture(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"frames": [`), 0o644)
	if _, err := LoadFixture(bad); err == nil {
		t.Error("expected error for malformed json")
	}

	invalid := filepath.Join(dir, "invalid.json")
	os.WriteFile(invalid, []byte(`{"hyperparameters": {"alpha": 0}}`), 0o644)
	if _, err := LoadFixture(invalid); err == nil {
		t.Error("expected error for invalid hyperparameters")
	}
}

func TestToFrames_BadDates(t *testing.T) {
	f := &Fixture{Start: "yesterday", Interval: "24h"}
	if _, err := f.ToFrames(); err == nil {
		t.Error("expected error for bad start")
	}

	f = &Fixture{Start: "2026-03-02T09:00:00Z", Interval: "daily"}
	if _, err := f.ToFrames(); err == nil {
		t.Error("expected error for bad interval")
	}

	f = &Fixture{Start: "2026-03-02T09:00:00Z", Interval: "24h", Frames: []FixtureFrame{{ID: "x", At: "noon"}}}
	if _, err := f.ToFrames(); err == nil {
		t.Error("expected error for bad frame time")
	}
}

// #endregion fixture-tests
