package worklist

// Local is a thread-local view on a worklist. Work pushed through a Local is
// invisible to other workers until it is published, either explicitly via
// Publish or implicitly when the push segment fills up.
//
// A Local holds two segment slots: a push segment that fills up on Push and
// a pop segment that drains on Pop. When the pop segment runs dry, the two
// slots are swapped first, so a worker consuming its own work never touches
// the shared list; only after that does Pop steal a segment from the pool.
//
// A Local is owned by exactly one goroutine and must not be copied;
// ownership moves by handing the pointer over. The zero value is unusable;
// construct views with NewLocal.
type Local[E any] struct {
	noCopy noCopy

	worklist *Worklist[E]
	pushSeg  *segment[E]
	popSeg   *segment[E]
}

// noCopy is the sync package convention for flagging copies under go vet.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NewLocal attaches a fresh view to w. Both slots start at the sentinel; no
// segment is allocated until the first Push.
func NewLocal[E any](w *Worklist[E]) *Local[E] {
	return &Local[E]{
		worklist: w,
		pushSeg:  w.sentinel,
		popSeg:   w.sentinel,
	}
}

// Push adds e to the local push segment, publishing the segment to the
// shared list first if it is full. The sentinel reports full, so the
// cold-start allocation rides the same branch as a regular publication.
func (l *Local[E]) Push(e E) {
	if l.pushSeg.isFull() {
		l.publishPushSegment()
	}
	l.pushSeg.push(e)
}

// Pop removes the top entry of the pop segment. An empty pop segment is
// first swapped with a non-empty push segment; when both local slots are
// drained it steals a single segment from the shared list; false means no
// work was visible anywhere. Entries pushed after a swap wait in the push
// segment until the pop segment is drained. Pops never allocate.
func (l *Local[E]) Pop() (E, bool) {
	if l.popSeg.isEmpty() {
		if !l.pushSeg.isEmpty() {
			l.pushSeg, l.popSeg = l.popSeg, l.pushSeg
		} else if !l.stealPopSegment() {
			var zero E
			return zero, false
		}
	}
	return l.popSeg.pop(), true
}

// IsLocalEmpty reports whether both local slots are drained.
func (l *Local[E]) IsLocalEmpty() bool {
	return l.pushSeg.isEmpty() && l.popSeg.isEmpty()
}

// IsGlobalEmpty reports whether the shared list is empty. Approximate under
// concurrency, like Worklist.IsEmpty.
func (l *Local[E]) IsGlobalEmpty() bool {
	return l.worklist.IsEmpty()
}

// IsLocalAndGlobalEmpty is the termination probe. Workers must Publish
// before relying on it: work still sitting in another view's slots is
// invisible here.
func (l *Local[E]) IsLocalAndGlobalEmpty() bool {
	return l.IsLocalEmpty() && l.IsGlobalEmpty()
}

// PushSegmentSize returns the fill of the push segment.
func (l *Local[E]) PushSegmentSize() int {
	return l.pushSeg.size()
}

// Publish hands both non-empty slots to the shared list so other workers can
// steal them. Afterwards IsLocalEmpty reports true. Publishing an
// already-empty view changes nothing.
func (l *Local[E]) Publish() {
	if !l.pushSeg.isEmpty() {
		l.publishPushSegment()
	}
	if !l.popSeg.isEmpty() {
		l.publishPopSegment()
	}
}

// Merge publishes other's local work and then moves every segment of
// other's worklist into this view's worklist. Views attached to the same
// worklist are already merged once published.
func (l *Local[E]) Merge(other *Local[E]) {
	other.Publish()
	if l.worklist != other.worklist {
		l.worklist.Merge(other.worklist)
	}
}

// Clear resets the fill of both slots in place without publishing. The
// segments are kept for reuse.
func (l *Local[E]) Clear() {
	if l.pushSeg != l.worklist.sentinel {
		l.pushSeg.clear()
	}
	if l.popSeg != l.worklist.sentinel {
		l.popSeg.clear()
	}
}

// Dispose asserts the destruction contract: a view must be drained, cleared
// or published before it is discarded. The view is left detached in the
// unusable zero state. Disposing a zero-value or already-disposed view is a
// no-op: a never-attached view holds nothing.
func (l *Local[E]) Dispose() {
	if l.worklist == nil {
		return
	}
	if !l.IsLocalEmpty() {
		panic("worklist: local view disposed while non-empty")
	}
	l.worklist = nil
	l.pushSeg = nil
	l.popSeg = nil
}

func (l *Local[E]) publishPushSegment() {
	if l.pushSeg != l.worklist.sentinel {
		l.worklist.push(l.pushSeg)
	}
	l.pushSeg = l.newSegment()
}

func (l *Local[E]) publishPopSegment() {
	if l.popSeg != l.worklist.sentinel {
		l.worklist.push(l.popSeg)
	}
	l.popSeg = l.newSegment()
}

// stealPopSegment replaces the drained pop slot with a segment taken from
// the shared list. The IsEmpty probe keeps idle workers off the mutex.
func (l *Local[E]) stealPopSegment() bool {
	if l.worklist.IsEmpty() {
		return false
	}
	if seg, ok := l.worklist.pop(); ok {
		l.popSeg = seg
		return true
	}
	return false
}

func (l *Local[E]) newSegment() *segment[E] {
	l.worklist.metrics.segmentAllocated()
	return newSegment[E](l.worklist.segmentCapacity)
}
