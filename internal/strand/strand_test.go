package strand

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubmitRunsOnStrandGoroutine(t *testing.T) {
	s := New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	var n int
	if err := s.Submit(ctx, func() error { n++; return nil }); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected n=1, got %d", n)
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	s := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	want := errors.New("boom")
	if err := s.Submit(ctx, func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestSubmitsAreSerialized(t *testing.T) {
	s := New(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(ctx, func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one job inside the strand at a time, saw %d concurrently", maxSeen)
	}
}

func TestSubmitRespectsCancellation(t *testing.T) {
	s := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Submit(ctx, func() error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
