package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func TestLimiterFirstRequestDoesNotWait(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{BaseInterval: 10 * time.Second, Increment: 100 * time.Millisecond}, WithClock(clock.Now, clock.Sleep))

	waited, err := l.Wait(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if waited != 0 || len(clock.sleeps) != 0 {
		t.Fatalf("expected no wait, got %v (%v)", waited, clock.sleeps)
	}
	if l.Count() != 1 {
		t.Fatalf("expected count 1, got %d", l.Count())
	}
}

func TestLimiterIntervalGrowsWithCount(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{BaseInterval: 10 * time.Second, Increment: 100 * time.Millisecond}, WithClock(clock.Now, clock.Sleep))

	for i := 0; i < 4; i++ {
		if _, err := l.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	expected := []time.Duration{
		10*time.Second + 100*time.Millisecond,
		10*time.Second + 200*time.Millisecond,
		10*time.Second + 300*time.Millisecond,
	}
	if len(clock.sleeps) != len(expected) {
		t.Fatalf("expected %d sleeps, got %v", len(expected), clock.sleeps)
	}
	for i, d := range expected {
		if clock.sleeps[i] != d {
			t.Fatalf("sleep %d: expected %v, got %v", i, d, clock.sleeps[i])
		}
	}

	if got := l.Interval(); got != 10*time.Second+400*time.Millisecond {
		t.Fatalf("unexpected interval: %v", got)
	}
}

func TestLimiterSubtractsElapsedTime(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{BaseInterval: 10 * time.Second}, WithClock(clock.Now, clock.Sleep))

	if _, err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}
	clock.Advance(7 * time.Second)

	waited, err := l.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if waited != 3*time.Second {
		t.Fatalf("expected 3s wait, got %v", waited)
	}

	clock.Advance(time.Minute)
	waited, err = l.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if waited != 0 {
		t.Fatalf("expected no wait after a long pause, got %v", waited)
	}
}

func TestLimiterSerializesConcurrentWaiters(t *testing.T) {
	clock := newFakeClock()
	l := New(Config{BaseInterval: time.Second}, WithClock(clock.Now, clock.Sleep))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Wait(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if l.Count() != 8 {
		t.Fatalf("expected 8 requests, got %d", l.Count())
	}
	if len(clock.sleeps) != 7 {
		t.Fatalf("expected 7 waits, got %d", len(clock.sleeps))
	}
	for _, d := range clock.sleeps {
		if d != time.Second {
			t.Fatalf("expected every gap to be the full interval, got %v", clock.sleeps)
		}
	}
}

func TestLimiterCancelledWait(t *testing.T) {
	l := New(Config{BaseInterval: time.Hour})
	if _, err := l.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if l.Count() != 1 {
		t.Fatalf("cancelled wait must not count as a request, got %d", l.Count())
	}
}
