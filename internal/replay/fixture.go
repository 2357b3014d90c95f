package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/danielpatrickdp/adaptive-coach/internal/gate"
	"github.com/danielpatrickdp/adaptive-coach/internal/snapshot"
	"github.com/danielpatrickdp/adaptive-coach/internal/state"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description     string                  `json:"description"`
	Seed            uint64                  `json:"seed"`
	Start           string                  `json:"start"`
	Interval        string                  `json:"interval"`
	Hyperparameters state.Config            `json:"hyperparameters"`
	Gate            FixtureGateConfig       `json:"gate"`
	Frames          []FixtureFrame          `json:"frames"`
	ExpectedResults []FixtureExpectedResult `json:"expected_results"`
}

// FixtureGateConfig mirrors gate.GateConfig with JSON tags.
type FixtureGateConfig struct {
	MaxAbsValue float64 `json:"max_abs_value"`
}

// FixtureFrame is one snapshot. At defaults to Start + index*Interval.
type FixtureFrame struct {
	ID       string        `json:"id"`
	At       string        `json:"at,omitempty"`
	Snapshot snapshot.File `json:"snapshot"`
}

// FixtureExpectedResult captures the expected outcome per frame. An empty
// Action is not checked.
type FixtureExpectedResult struct {
	FrameID string `json:"frame_id"`
	Outcome string `json:"outcome"`
	Action  string `json:"action,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file. Hyperparameters missing
// from the file keep their defaults.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	f := Fixture{
		Seed:            1,
		Interval:        "24h",
		Hyperparameters: state.DefaultConfig(),
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if !f.Hyperparameters.Valid() {
		return nil, fmt.Errorf("fixture %s: invalid hyperparameters %+v", path, f.Hyperparameters)
	}
	return &f, nil
}

// ToFrames converts fixture frames to domain frames.
func (f *Fixture) ToFrames() ([]Frame, error) {
	start, err := time.Parse(time.RFC3339, f.Start)
	if err != nil {
		return nil, fmt.Errorf("fixture start: %w", err)
	}
	interval, err := time.ParseDuration(f.Interval)
	if err != nil {
		return nil, fmt.Errorf("fixture interval: %w", err)
	}

	frames := make([]Frame, 0, len(f.Frames))
	for i, ff := range f.Frames {
		at := start.Add(time.Duration(i) * interval)
		if ff.At != "" {
			if at, err = time.Parse(time.RFC3339, ff.At); err != nil {
				return nil, fmt.Errorf("frame %s: %w", ff.ID, err)
			}
		}
		snap, err := ff.Snapshot.ToStatic()
		if err != nil {
			return nil, fmt.Errorf("frame %s: %w", ff.ID, err)
		}
		frames = append(frames, Frame{ID: ff.ID, At: at, Snapshot: snap})
	}
	return frames, nil
}

// ToReplayConfig converts the fixture settings to a domain Config.
func (f *Fixture) ToReplayConfig() Config {
	return Config{
		Seed:            f.Seed,
		Hyperparameters: f.Hyperparameters,
		Gate:            gate.GateConfig{MaxAbsValue: f.Gate.MaxAbsValue},
	}
}

// #endregion fixture-loader
