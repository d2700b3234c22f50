// Package ratelimit implements the self-throttling request gate shared by all
// generation workers of a process.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/spigell/cv-screener/internal/utils"
)

const (
	DefaultBaseInterval = 10 * time.Second
	DefaultIncrement    = 100 * time.Millisecond
)

type Config struct {
	// BaseInterval is the minimum gap between two requests.
	BaseInterval time.Duration
	// Increment is added to the gap for every request already issued.
	Increment time.Duration
}

// Limiter enforces a minimum interval between requests that grows linearly
// with the number of requests issued so far. It is safe for concurrent use;
// waiters are served one at a time.
type Limiter struct {
	cfg Config

	mu    sync.Mutex
	last  time.Time
	count int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*Limiter)

// WithClock replaces the time source and the sleep function.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
		if sleep != nil {
			l.sleep = sleep
		}
	}
}

func New(cfg Config, opts ...Option) *Limiter {
	if cfg.BaseInterval < 0 {
		cfg.BaseInterval = 0
	}
	if cfg.Increment < 0 {
		cfg.Increment = 0
	}

	l := &Limiter{
		cfg:   cfg,
		now:   time.Now,
		sleep: utils.WaitFor,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Wait blocks until the dynamic interval since the previous request has
// elapsed, then records the current request. It returns the time spent waiting.
func (l *Limiter) Wait(ctx context.Context) (time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var waited time.Duration
	if !l.last.IsZero() {
		interval := l.interval()
		if elapsed := l.now().Sub(l.last); elapsed < interval {
			waited = interval - elapsed
			if err := l.sleep(ctx, waited); err != nil {
				return 0, err
			}
		}
	}

	l.last = l.now()
	l.count++
	return waited, nil
}

// Interval returns the gap currently enforced before the next request.
func (l *Limiter) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval()
}

// Count returns the number of requests let through.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

func (l *Limiter) interval() time.Duration {
	return l.cfg.BaseInterval + time.Duration(l.count)*l.cfg.Increment
}
