// Package strand implements the single-goroutine serializing executor that
// all world-mutating work — API handlers and ticks alike — runs through.
package strand

import "context"

// job is one unit of work submitted to the strand: a closure to run on the
// strand goroutine, plus the channel used to hand its result back.
type job struct {
	fn   func() error
	done chan error
}

// Strand serializes a stream of closures onto a single goroutine, the way
// the teacher's Instance.Run serializes InstanceCommand values onto one
// CommandChan consumer. Submitting a closure blocks the caller until it has
// run to completion on the strand goroutine.
type Strand struct {
	jobs chan job
}

// New creates a Strand with the given submission queue depth.
func New(queueDepth int) *Strand {
	if queueDepth <= 0 {
		queueDepth = 1
	}
	return &Strand{jobs: make(chan job, queueDepth)}
}

// Run starts the strand's consumer loop. It returns when ctx is canceled,
// after draining any job already accepted into the queue.
func (s *Strand) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case j := <-s.jobs:
					j.done <- j.fn()
				default:
					return
				}
			}
		case j := <-s.jobs:
			j.done <- j.fn()
		}
	}
}

// Submit enqueues fn and blocks until it has executed on the strand
// goroutine, returning its error. It returns ctx.Err() without running fn
// if ctx is canceled before fn is accepted onto the queue.
func (s *Strand) Submit(ctx context.Context, fn func() error) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
