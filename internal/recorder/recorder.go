package recorder

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// #region recorder
// Recorder keeps the most recent step records in a fixed ring and fans each
// new record out to subscribers without blocking the emitter.
type Recorder struct {
	opts   Options
	logger *zap.Logger

	mu     sync.Mutex
	ring   []StepRecord
	next   int // slot the next record is written to
	size   int
	subs   map[int]*subscription
	nextID int
	closed bool

	wg      sync.WaitGroup
	dropped atomic.Uint64
}

type subscription struct {
	ch   chan StepRecord
	fn   Listener
	once sync.Once
}

// New creates a recorder. Non-positive sizes fall back to DefaultOptions and
// the capacity never exceeds MaxCapacity.
func New(opts Options, logger *zap.Logger) *Recorder {
	def := DefaultOptions()
	if opts.Capacity <= 0 {
		opts.Capacity = def.Capacity
	}
	opts.Capacity = min(opts.Capacity, MaxCapacity)
	if opts.SubscriberBuffer <= 0 {
		opts.SubscriberBuffer = def.SubscriberBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		opts:   opts,
		logger: logger,
		ring:   make([]StepRecord, opts.Capacity),
		subs:   make(map[int]*subscription),
	}
}

// #endregion recorder

// #region emit
// Emit stores rec as the newest entry, evicting the oldest once the ring is
// full, and enqueues a copy for every subscriber. A full queue drops the
// record for that subscriber only.
func (r *Recorder) Emit(rec StepRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ring[r.next] = rec.Clone()
	r.next = (r.next + 1) % len(r.ring)
	if r.size < len(r.ring) {
		r.size++
	}

	for id, sub := range r.subs {
		select {
		case sub.ch <- rec.Clone():
		default:
			r.dropped.Add(1)
			if r.opts.OnDrop != nil {
				r.opts.OnDrop()
			}
			r.logger.Debug("subscriber queue full, record dropped",
				zap.Int("subscriber", id),
				zap.Int("step", rec.Step),
			)
		}
	}
}

// #endregion emit

// #region subscribe
// Subscribe registers fn and returns a function that removes it. Records
// already queued for fn are still delivered after unsubscribing.
func (r *Recorder) Subscribe(fn Listener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || fn == nil {
		return func() {}
	}

	r.nextID++
	id := r.nextID
	sub := &subscription{
		ch: make(chan StepRecord, r.opts.SubscriberBuffer),
		fn: fn,
	}
	r.subs[id] = sub

	r.wg.Add(1)
	go r.dispatch(id, sub)

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.remove(id)
	}
}

// remove must be called with mu held.
func (r *Recorder) remove(id int) {
	sub, ok := r.subs[id]
	if !ok {
		return
	}
	delete(r.subs, id)
	sub.once.Do(func() { close(sub.ch) })
}

func (r *Recorder) dispatch(id int, sub *subscription) {
	defer r.wg.Done()
	for rec := range sub.ch {
		r.deliver(id, sub.fn, rec)
	}
}

func (r *Recorder) deliver(id int, fn Listener, rec StepRecord) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("step listener panicked",
				zap.Int("subscriber", id),
				zap.Int("step", rec.Step),
				zap.Any("panic", p),
			)
		}
	}()
	fn(rec)
}

// #endregion subscribe

// #region buffer
// Recent returns the buffered records newest first. The result is a deep copy.
func (r *Recorder) Recent() []StepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]StepRecord, 0, r.size)
	for k := 0; k < r.size; k++ {
		i := (r.next - 1 - k + len(r.ring)) % len(r.ring)
		out = append(out, r.ring[i].Clone())
	}
	return out
}

// Len returns the number of buffered records.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Clear empties the buffer. Subscribers are kept.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.ring {
		r.ring[i] = StepRecord{}
	}
	r.next = 0
	r.size = 0
}

// Dropped returns how many subscriber deliveries were dropped.
func (r *Recorder) Dropped() uint64 {
	return r.dropped.Load()
}

// #endregion buffer

// #region close
// Close removes every subscriber and waits for their queues to drain.
// Emit keeps buffering after Close; Subscribe becomes a no-op.
func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	for id := range r.subs {
		r.remove(id)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

// #endregion close
