package worklist

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thedevsaddam/retry"
	"github.com/valyala/fastrand"
	"golang.org/x/sync/errgroup"
)

// goschedEvery bounds the randomised yield cadence of idle workers.
const goschedEvery = 64

// Handler processes one entry. The Local it receives belongs to the calling
// worker, so handlers can push follow-up work discovered while processing.
type Handler[E any] func(e E, l *Local[E]) error

// Pool drains a worklist with a group of workers. Each worker attaches its
// own Local view and pops until no work is visible anywhere and no other
// worker can still produce some.
type Pool[E any] struct {
	worklist *Worklist[E]
	limit    int
	retry    *retryConfig
	errors   []error
	mutex    *sync.Mutex
	inflight atomic.Int64
}

type retryConfig struct {
	attempts uint
	sleep    time.Duration
}

// NewPool creates a pool over w with one worker per CPU.
func NewPool[E any](w *Worklist[E]) *Pool[E] {
	return &Pool[E]{
		worklist: w,
		limit:    runtime.NumCPU(),
		mutex:    &sync.Mutex{},
		errors:   []error{},
	}
}

// WithLimit returns a Pool that will run with the given number of workers.
func (p *Pool[E]) WithLimit(limit int) *Pool[E] {
	if limit < 1 {
		panic("worklist: pool needs at least one worker")
	}
	p.limit = limit
	return p
}

// WithRetry returns a Pool that re-runs failing handlers with the provided
// number of attempts and backoff between them.
func (p *Pool[E]) WithRetry(attempts uint, sleep time.Duration) *Pool[E] {
	p.retry = &retryConfig{
		attempts: attempts,
		sleep:    sleep,
	}
	return p
}

// Run drains the worklist through handler and blocks until every entry,
// including handler-produced follow-up work, has been processed. It returns
// the first handler error; on error the remaining workers are cancelled and
// unprocessed local work is published back to the worklist. The entry whose
// handler failed is not put back.
func (p *Pool[E]) Run(ctx context.Context, handler Handler[E]) error {
	group, ctx := errgroup.WithContext(ctx)

	for i := 0; i < p.limit; i++ {
		group.Go(func() error {
			local := NewLocal(p.worklist)
			defer func() {
				local.Publish()
				local.Dispose()
			}()
			return p.work(ctx, local, handler)
		})
	}

	return group.Wait()
}

// Errors returns all errors collected during the run, and a flag indicating
// whether there were any.
func (p *Pool[E]) Errors() ([]error, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.errors, len(p.errors) > 0
}

func (p *Pool[E]) work(ctx context.Context, local *Local[E], handler Handler[E]) error {
	run := handler
	if p.retry != nil {
		attempts, sleep := p.retry.attempts, p.retry.sleep
		run = func(e E, l *Local[E]) error {
			return retry.DoFunc(attempts, sleep, func() error {
				return handler(e, l)
			})
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		// The in-flight claim is held for as long as this worker can still
		// produce work: follow-up entries live in the local view until the
		// push segment overflows into the shared list, so the claim is only
		// dropped once the view and the shared list both look dry.
		p.inflight.Add(1)
		for {
			if err := ctx.Err(); err != nil {
				p.inflight.Add(-1)
				return err
			}
			e, ok := local.Pop()
			if !ok {
				break
			}
			if err := run(e, local); err != nil {
				p.inflight.Add(-1)
				// collect errors separately and prevent race conditions
				p.mutex.Lock()
				p.errors = append(p.errors, err)
				p.mutex.Unlock()
				return err
			}
		}

		if p.inflight.Add(-1) == 0 && local.IsGlobalEmpty() {
			return nil
		}

		// Another worker is still busy and may publish follow-up work.
		// Yield with a randomised cadence so idle workers do not hammer the
		// shared counter in lockstep.
		for n := fastrand.Uint32n(goschedEvery) + 1; n > 0; n-- {
			runtime.Gosched()
		}
	}
}
