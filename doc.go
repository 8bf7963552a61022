// Package worklist provides a segmented work-stealing worklist for parallel
// producer/consumer workloads such as concurrent marking.
//
// Work accumulates in per-worker Local views and moves to the shared
// Worklist in fixed-capacity segments, so the shared mutex is touched once
// per segment instead of once per entry. Idle workers refill their view by
// stealing whole segments back from the shared list.
//
// The worklist is an unordered pool, not a stack: a run of pushes followed
// by pops through a single Local comes back in LIFO order, but once pushes
// and pops interleave across the view's two segment slots, or entries cross
// the shared list, they may be returned in any order.
//
// Pool layers an errgroup-backed set of workers on top of the structure for
// the common drain-everything case.
package worklist
