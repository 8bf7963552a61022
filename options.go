package worklist

type config struct {
	segmentCapacity int
	metrics         *Metrics
}

func defaultConfig() config {
	return config{segmentCapacity: DefaultSegmentCapacity}
}

// Option configures a Worklist created by New.
type Option func(*config)

// WithSegmentCapacity sets the number of entries per segment. Larger
// segments amortise the shared-list mutex over more entries.
func WithSegmentCapacity(n int) Option {
	return func(c *config) {
		c.segmentCapacity = n
	}
}

// WithMetrics attaches m to the worklist. Segment-level events are counted
// on it; the per-entry push and pop paths stay untouched.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
