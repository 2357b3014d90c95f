package state

import (
	"encoding/json"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/sebdah/goldie/v2"

	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
)

// #region helpers

type failingBackend struct {
	getErr error
	putErr error
	panics bool
}

func (f *failingBackend) Get(string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return nil, ErrNotFound
}

func (f *failingBackend) Put(string, []byte) error {
	if f.panics {
		panic("quota exceeded")
	}
	return f.putErr
}

func sampleTable() qtable.ValueTable {
	tbl := qtable.ValueTable{}
	tbl.Set("2|2|1|1|3|1|2", qtable.SuggestTask, 0.3)
	tbl.Set("2|2|1|1|3|1|2", qtable.SuggestRest, -0.15)
	return tbl
}

// #endregion helpers

// #region load-tests

func TestOpen_DefaultsWhenAbsent(t *testing.T) {
	q := Open(NewMemoryBackend(), "", DefaultConfig(), nil)
	if q.Config() != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", q.Config())
	}
	if len(q.Table()) != 0 {
		t.Fatalf("expected empty table, got %d states", len(q.Table()))
	}
	if q.Key() != DefaultRecordKey {
		t.Fatalf("expected default key, got %q", q.Key())
	}
}

func TestOpen_DefaultValues(t *testing.T) {
	c := DefaultConfig()
	want := Config{Alpha: 0.3, Gamma: 0.9, Epsilon: 0.2, EpsilonMin: 0.02, EpsilonDecay: 0.995, W1: 3, W2: 1, W3: 1.5, W4: 2}
	if c != want {
		t.Fatalf("defaults drifted: %+v", c)
	}
}

func TestOpen_MalformedFallsBack(t *testing.T) {
	cases := map[string]string{
		"not-json":        "{{{",
		"bad-alpha":       `{"valueTable":{},"config":{"alpha":0,"gamma":0.9,"epsilon":0.2,"epsilonMin":0.02,"epsilonDecay":0.995}}`,
		"wrong-shape":     `{"valueTable":[1,2,3],"config":{}}`,
		"negative-weight": `{"valueTable":{},"config":{"alpha":0.3,"gamma":0.9,"epsilon":0.2,"epsilonMin":0.02,"epsilonDecay":0.995,"w1":-1}}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			b := NewMemoryBackend()
			b.Put(DefaultRecordKey, []byte(payload))
			q := Open(b, DefaultRecordKey, DefaultConfig(), nil)
			if q.Config() != DefaultConfig() {
				t.Fatalf("expected defaults, got %+v", q.Config())
			}
			if len(q.Table()) != 0 {
				t.Fatal("expected empty table")
			}
		})
	}
}

func TestOpen_BackendErrorFallsBack(t *testing.T) {
	q := Open(&failingBackend{getErr: errors.New("unavailable")}, "k", DefaultConfig(), nil)
	if q.Config() != DefaultConfig() {
		t.Fatalf("expected defaults, got %+v", q.Config())
	}
}

func TestOpen_DropsUnknownActions(t *testing.T) {
	b := NewMemoryBackend()
	payload := `{"valueTable":{"s":{"SUGGEST_TASK":1.5,"DANCE":9}},"config":{"alpha":0.3,"gamma":0.9,"epsilon":0.1,"epsilonMin":0.02,"epsilonDecay":0.995,"w1":3,"w2":1,"w3":1.5,"w4":2}}`
	b.Put("k", []byte(payload))
	q := Open(b, "k", DefaultConfig(), nil)
	if q.Table().Get("s", qtable.SuggestTask) != 1.5 {
		t.Fatal("expected known action to load")
	}
	if q.Table().Entries() != 1 {
		t.Fatalf("expected unknown action dropped, got %d entries", q.Table().Entries())
	}
	if q.Config().Epsilon != 0.1 {
		t.Fatalf("expected persisted epsilon 0.1, got %f", q.Config().Epsilon)
	}
}

// #endregion load-tests

// #region save-tests

func TestSave_RoundTripThroughSQLite(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "q.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	q := Open(s, "k", DefaultConfig(), nil)
	q.Table().Set("a", qtable.SuggestSocial, 0.42)
	q.SetEpsilon(0.15)
	if err := q.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	q2 := Open(s, "k", DefaultConfig(), nil)
	if q2.Table().Get("a", qtable.SuggestSocial) != 0.42 {
		t.Fatalf("expected persisted value, got %f", q2.Table().Get("a", qtable.SuggestSocial))
	}
	if q2.Config().Epsilon != 0.15 {
		t.Fatalf("expected persisted epsilon, got %f", q2.Config().Epsilon)
	}
}

func TestSave_ErrorsAreReturned(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
	}{
		{"put-error", &failingBackend{putErr: errors.New("disk full")}},
		{"put-panic", &failingBackend{panics: true}},
		{"no-backend", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Open(tt.backend, "k", DefaultConfig(), nil)
			q.Table().Set("s", qtable.SuggestTask, 1)
			if err := q.Save(); err == nil {
				t.Fatal("expected save error")
			}
			if q.Table().Get("s", qtable.SuggestTask) != 1 {
				t.Fatal("in-memory table must survive a failed save")
			}
		})
	}
}

func TestSave_SerializationError(t *testing.T) {
	q := Open(NewMemoryBackend(), "k", DefaultConfig(), nil)
	q.Table().Set("s", qtable.SuggestTask, math.Inf(1))
	if err := q.Save(); err == nil {
		t.Fatal("expected marshal error for +Inf")
	}
}

// #endregion save-tests

// #region export-tests

func TestExport_IsDeepCopy(t *testing.T) {
	q := Open(nil, "k", DefaultConfig(), nil)
	q.Table().Set("s", qtable.SuggestTask, 1)
	b := q.Export()
	b.ValueTable.Set("s", qtable.SuggestTask, 99)
	if q.Table().Get("s", qtable.SuggestTask) != 1 {
		t.Fatal("export shares state with store")
	}
}

func TestExportResetRestore(t *testing.T) {
	q := Open(nil, "k", DefaultConfig(), nil)
	live := q.Table()
	for k, row := range sampleTable() {
		for a, v := range row {
			live.Set(k, a, v)
		}
	}
	exported := q.Export()

	q.Reset()
	if len(q.Table()) != 0 {
		t.Fatal("expected empty table after reset")
	}
	if len(live) != 0 {
		t.Fatal("reset must clear the table in place")
	}

	// Round trip through JSON the way an external tool would.
	data, err := json.Marshal(exported)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Bundle
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := q.Restore(restored); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if diff := cmp.Diff(exported, q.Export(), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Fatalf("restored bundle differs (-want +got):\n%s", diff)
	}
}

func TestRestore_RejectsInvalidConfig(t *testing.T) {
	q := Open(nil, "k", DefaultConfig(), nil)
	q.Table().Set("s", qtable.SuggestTask, 1)
	err := q.Restore(Bundle{ValueTable: qtable.ValueTable{}, Config: Config{}})
	if err == nil {
		t.Fatal("expected error for zero config")
	}
	if q.Table().Get("s", qtable.SuggestTask) != 1 {
		t.Fatal("failed restore must leave the table unchanged")
	}
}

func TestExport_Golden(t *testing.T) {
	q := Open(nil, "k", DefaultConfig(), nil)
	for k, row := range sampleTable() {
		for a, v := range row {
			q.Table().Set(k, a, v)
		}
	}
	data, err := json.MarshalIndent(q.Export(), "", "  ")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, "export_bundle", data)
}

// #endregion export-tests
