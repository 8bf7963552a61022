package worklist_test

import (
	"context"
	"testing"

	"github.com/rubengp99/go-worklist"
	"github.com/valyala/fastrand"
)

// BenchmarkLocalPushPop measures the private-stack fast path: no segment
// ever fills up, so the shared list is never touched.
func BenchmarkLocalPushPop(b *testing.B) {
	w := worklist.New[uint32](worklist.WithSegmentCapacity(256))
	l := worklist.NewLocal(w)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Push(fastrand.Uint32())
		if _, ok := l.Pop(); !ok {
			b.Fatal("pop failed on non-empty view")
		}
	}
}

// BenchmarkPublishSteal measures the segment exchange through the shared
// list: one full segment published, then stolen and drained.
func BenchmarkPublishSteal(b *testing.B) {
	const capacity = 256

	w := worklist.New[uint32](worklist.WithSegmentCapacity(capacity))
	producer := worklist.NewLocal(w)
	consumer := worklist.NewLocal(w)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := 0; j < capacity; j++ {
			producer.Push(fastrand.Uint32())
		}
		producer.Publish()
		for {
			if _, ok := consumer.Pop(); !ok {
				break
			}
		}
	}
}

// BenchmarkPoolDrain measures the full harness over a pre-filled worklist.
func BenchmarkPoolDrain(b *testing.B) {
	const total = 1 << 16

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		w := worklist.New[uint32](worklist.WithSegmentCapacity(256))
		l := worklist.NewLocal(w)
		for j := 0; j < total; j++ {
			l.Push(fastrand.Uint32())
		}
		l.Publish()
		l.Dispose()
		b.StartTimer()

		err := worklist.NewPool(w).WithLimit(4).Run(context.Background(),
			func(e uint32, l *worklist.Local[uint32]) error {
				return nil
			})
		if err != nil {
			b.Fatal(err)
		}
	}
}
