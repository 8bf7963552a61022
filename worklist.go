package worklist

import (
	"sync"
	"sync/atomic"
)

// DefaultSegmentCapacity is the number of entries per segment when no
// WithSegmentCapacity option is given.
const DefaultSegmentCapacity = 256

// worklistIDs hands out the deterministic two-lock acquisition order used by
// Swap.
var worklistIDs atomic.Uint64

// Worklist is a global worklist based on segments which allows for a
// thread-local producer/consumer pattern with global work stealing.
//
// All methods on the Worklist itself only consider the list of published
// segments. Unpublished work held by Local views is not visible.
type Worklist[E any] struct {
	mu   sync.Mutex
	top  *segment[E]
	size atomic.Int64

	id              uint64
	segmentCapacity int
	sentinel        *segment[E]
	metrics         *Metrics
}

// New creates an empty worklist.
func New[E any](opts ...Option) *Worklist[E] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.segmentCapacity < 1 {
		panic("worklist: segment capacity must be >= 1")
	}
	return &Worklist[E]{
		id:              worklistIDs.Add(1),
		segmentCapacity: cfg.segmentCapacity,
		sentinel:        newSentinel[E](),
		metrics:         cfg.metrics,
	}
}

// IsEmpty reports whether the worklist holds no published segments. May be
// read concurrently for an approximation.
func (w *Worklist[E]) IsEmpty() bool {
	return w.Size() == 0
}

// Size returns the number of published segments. May be read concurrently
// for an approximation: the counter is read without the lock, so segments
// published or stolen by other goroutines may not be visible yet.
func (w *Worklist[E]) Size() int {
	return int(w.size.Load())
}

// SegmentCapacity returns the capacity of segments allocated by Local views
// attached to this worklist.
func (w *Worklist[E]) SegmentCapacity() int {
	return w.segmentCapacity
}

// push links a non-empty, unlinked segment at the head of the list. This is
// the publication point for Local views.
func (w *Worklist[E]) push(seg *segment[E]) {
	if seg.isEmpty() {
		panic("worklist: publish of empty segment")
	}
	w.mu.Lock()
	seg.next = w.top
	w.top = seg
	w.size.Add(1)
	w.mu.Unlock()
	w.metrics.segmentPublished()
}

// pop unlinks and returns the head segment. It reports false, with no state
// change, when the list is empty.
func (w *Worklist[E]) pop() (*segment[E], bool) {
	w.mu.Lock()
	top := w.top
	if top == nil {
		w.mu.Unlock()
		return nil, false
	}
	w.top = top.next
	top.next = nil
	w.size.Add(-1)
	w.mu.Unlock()
	w.metrics.segmentStolen()
	return top, true
}

// Merge moves every segment from other into w, leaving other empty. Merging
// an empty worklist is a no-op that never touches w's lock.
func (w *Worklist[E]) Merge(other *Worklist[E]) {
	if w == other {
		panic("worklist: merge with itself")
	}

	other.mu.Lock()
	if other.top == nil {
		other.mu.Unlock()
		return
	}
	head := other.top
	moved := other.size.Load()
	other.top = nil
	other.size.Store(0)
	other.mu.Unlock()

	// The detached chain is owned by this goroutine alone, so walking it to
	// find the tail needs no lock.
	tail := head
	for tail.next != nil {
		tail = tail.next
	}

	w.mu.Lock()
	tail.next = w.top
	w.top = head
	w.size.Add(moved)
	w.mu.Unlock()
	w.metrics.segmentsMerged(moved)
}

// Swap exchanges the segments of w and other. Both locks are taken in
// creation order so that two goroutines swapping the same pair cannot
// deadlock.
func (w *Worklist[E]) Swap(other *Worklist[E]) {
	if w == other {
		panic("worklist: swap with itself")
	}
	first, second := w, other
	if other.id < w.id {
		first, second = other, w
	}
	first.mu.Lock()
	second.mu.Lock()
	w.top, other.top = other.top, w.top
	wSize := w.size.Load()
	w.size.Store(other.size.Load())
	other.size.Store(wSize)
	second.mu.Unlock()
	first.mu.Unlock()
}

// Clear drops every published segment.
func (w *Worklist[E]) Clear() {
	w.mu.Lock()
	dropped := w.size.Load()
	w.size.Store(0)
	w.top = nil
	w.mu.Unlock()
	w.metrics.segmentsCleared(dropped)
}

// Update applies fn to every published entry. fn returns the replacement
// entry and a keep flag; dropped entries are compacted out and segments that
// become empty are unlinked. The relative order of surviving segments and of
// entries within a segment is preserved.
//
// Update holds the lock for the whole traversal. Callers run it during
// global synchronisation phases, not concurrently with active workers.
func (w *Worklist[E]) Update(fn func(E) (E, bool)) {
	w.mu.Lock()
	var prev *segment[E]
	var evicted int64
	for cur := w.top; cur != nil; {
		cur.update(fn)
		next := cur.next
		if cur.isEmpty() {
			evicted++
			if prev == nil {
				w.top = next
			} else {
				prev.next = next
			}
			cur.next = nil
		} else {
			prev = cur
		}
		cur = next
	}
	w.size.Add(-evicted)
	w.mu.Unlock()
	w.metrics.segmentsEvicted(evicted)
}

// Iterate calls fn with every published entry, head segment first. Like
// Update it holds the lock for the whole traversal.
func (w *Worklist[E]) Iterate(fn func(E)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for cur := w.top; cur != nil; cur = cur.next {
		cur.iterate(fn)
	}
}

// Dispose asserts the destruction contract: a worklist must be drained or
// cleared before it is discarded.
func (w *Worklist[E]) Dispose() {
	if !w.IsEmpty() {
		panic("worklist: disposed while non-empty")
	}
}
