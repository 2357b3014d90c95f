package recorder

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/danielpatrickdp/adaptive-coach/internal/features"
	"github.com/danielpatrickdp/adaptive-coach/internal/policy"
	"github.com/danielpatrickdp/adaptive-coach/internal/qtable"
	"github.com/danielpatrickdp/adaptive-coach/internal/update"
)

func record(step int) StepRecord {
	return StepRecord{
		Step:       step,
		StateKey:   "2|2|1|1|3|1|2",
		Action:     qtable.SuggestTask,
		Components: &update.Breakdown{Total: float64(step)},
		TopActions: []policy.ActionValue{{Action: qtable.SuggestTask, Value: 0.1}},
	}
}

func TestRecentNewestFirst(t *testing.T) {
	r := New(DefaultOptions(), nil)
	defer r.Close()

	for i := 1; i <= 3; i++ {
		r.Emit(record(i))
	}
	got := r.Recent()
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Step)
	assert.Equal(t, 2, got[1].Step)
	assert.Equal(t, 1, got[2].Step)
}

func TestRingEvictsOldestAtCapacity(t *testing.T) {
	r := New(DefaultOptions(), nil)
	defer r.Close()

	for i := 1; i <= 300; i++ {
		r.Emit(record(i))
	}
	require.Equal(t, 300, r.Len())
	assert.Equal(t, 1, r.Recent()[299].Step)

	for i := 301; i <= 450; i++ {
		r.Emit(record(i))
		recent := r.Recent()
		require.Len(t, recent, 300)
		assert.Equal(t, i, recent[0].Step)
		assert.Equal(t, i-299, recent[299].Step, "oldest after emitting %d", i)
	}
}

func TestCapacityIsClampedToMax(t *testing.T) {
	r := New(Options{Capacity: 1000}, nil)
	defer r.Close()

	for i := 1; i <= 400; i++ {
		r.Emit(record(i))
	}
	require.Equal(t, MaxCapacity, r.Len())
	assert.Equal(t, 400, r.Recent()[0].Step)
	assert.Equal(t, 101, r.Recent()[MaxCapacity-1].Step)
}

func TestRecentIsDeepCopy(t *testing.T) {
	r := New(DefaultOptions(), nil)
	defer r.Close()

	r.Emit(record(1))
	got := r.Recent()
	got[0].Step = 99
	got[0].Components.Total = 99
	got[0].TopActions[0].Value = 99

	again := r.Recent()
	assert.Equal(t, 1, again[0].Step)
	assert.Equal(t, 1.0, again[0].Components.Total)
	assert.Equal(t, 0.1, again[0].TopActions[0].Value)
}

func TestEmitCopiesInput(t *testing.T) {
	r := New(DefaultOptions(), nil)
	defer r.Close()

	rec := record(1)
	r.Emit(rec)
	rec.Components.Total = 42
	rec.TopActions[0].Value = 42

	got := r.Recent()[0]
	assert.Equal(t, 1.0, got.Components.Total)
	assert.Equal(t, 0.1, got.TopActions[0].Value)
}

func TestClearKeepsSubscribers(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(DefaultOptions(), nil)
	var n atomic.Int32
	r.Subscribe(func(StepRecord) { n.Add(1) })

	r.Emit(record(1))
	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Recent())

	r.Emit(record(2))
	r.Close()
	assert.Equal(t, int32(2), n.Load())
	assert.Equal(t, 2, r.Recent()[0].Step)
}

func TestSubscriberReceivesInOrder(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(DefaultOptions(), nil)
	var mu sync.Mutex
	var steps []int
	r.Subscribe(func(rec StepRecord) {
		mu.Lock()
		steps = append(steps, rec.Step)
		mu.Unlock()
	})

	for i := 1; i <= 5; i++ {
		r.Emit(record(i))
	}
	r.Close()

	assert.Equal(t, []int{1, 2, 3, 4, 5}, steps)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(DefaultOptions(), nil)
	var n atomic.Int32
	unsub := r.Subscribe(func(StepRecord) { n.Add(1) })

	r.Emit(record(1))
	require.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, 5*time.Millisecond)

	unsub()
	unsub()
	for i := 2; i <= 6; i++ {
		r.Emit(record(i))
	}
	r.Close()
	assert.Equal(t, int32(1), n.Load())
}

func TestSlowListenerDoesNotBlockEmit(t *testing.T) {
	defer goleak.VerifyNone(t)

	var drops atomic.Int32
	opts := DefaultOptions()
	opts.SubscriberBuffer = 4
	opts.OnDrop = func() { drops.Add(1) }
	r := New(opts, nil)

	release := make(chan struct{})
	r.Subscribe(func(StepRecord) { <-release })

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 100; i++ {
			r.Emit(record(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a slow listener")
	}

	assert.GreaterOrEqual(t, r.Dropped(), uint64(95))
	assert.Equal(t, uint64(drops.Load()), r.Dropped())
	assert.Equal(t, 100, r.Len())

	close(release)
	r.Close()
}

func TestPanickingListenerIsRecovered(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(DefaultOptions(), nil)
	var got []int
	r.Subscribe(func(rec StepRecord) {
		if rec.Step == 1 {
			panic("boom")
		}
		got = append(got, rec.Step)
	})

	r.Emit(record(1))
	r.Emit(record(2))
	r.Close()

	assert.Equal(t, []int{2}, got)
}

func TestSubscribeAfterCloseIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := New(DefaultOptions(), nil)
	r.Close()
	r.Close()

	called := false
	unsub := r.Subscribe(func(StepRecord) { called = true })
	r.Emit(record(1))
	unsub()

	assert.False(t, called)
	assert.Equal(t, 1, r.Len())
}

func TestCloneNilFields(t *testing.T) {
	c := StepRecord{Step: 1}.Clone()
	assert.Nil(t, c.Components)
	assert.Nil(t, c.TopActions)
	assert.Nil(t, c.PrevFeatures)
}

func TestClonePrevFeaturesIsDeep(t *testing.T) {
	prev := features.Vector{0.5, 0.25}
	r := StepRecord{Step: 2, PrevFeatures: &prev}
	c := r.Clone()
	prev[0] = 1
	require.NotNil(t, c.PrevFeatures)
	assert.Equal(t, 0.5, c.PrevFeatures[0])
}
