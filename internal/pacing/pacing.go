// Package pacing slows the bot down to a human pace.
package pacing

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// DefaultJitter is added, uniformly distributed, to every Pause
const DefaultJitter = 500 * time.Millisecond

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer produces jittered pauses and randomised waits between messages
type Pacer struct {
	jitter time.Duration
	tick   time.Duration
	sleep  SleepFunc
	out    io.Writer

	mu  sync.Mutex
	rnd *rand.Rand
}

// Option configures a Pacer
type Option func(*Pacer)

// WithJitter overrides DefaultJitter; zero disables jitter
func WithJitter(d time.Duration) Option {
	return func(p *Pacer) { p.jitter = d }
}

// WithSeed makes the random sequence reproducible
func WithSeed(seed uint64) Option {
	return func(p *Pacer) { p.rnd = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithSleep replaces the real clock
func WithSleep(fn SleepFunc) Option {
	return func(p *Pacer) { p.sleep = fn }
}

// WithWriter sets where the countdown spinner is drawn
func WithWriter(w io.Writer) Option {
	return func(p *Pacer) { p.out = w }
}

// New returns a Pacer using the wall clock and stderr
func New(opts ...Option) *Pacer {
	p := &Pacer{
		jitter: DefaultJitter,
		tick:   time.Second,
		sleep:  Sleep,
		out:    os.Stderr,
		rnd:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid()))),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Sleep waits for d, returning early with ctx.Err() if ctx ends first
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p *Pacer) int64n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd.Int64N(n)
}

// Pause sleeps for d plus up to the configured jitter
func (p *Pacer) Pause(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d+time.Duration(p.int64n(int64(p.jitter))))
}

// Wait sleeps for exactly d
func (p *Pacer) Wait(ctx context.Context, d time.Duration) error {
	return p.sleep(ctx, d)
}

// Pick returns a uniformly random duration in [min, max)
func (p *Pacer) Pick(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.int64n(int64(max-min)))
}

// Between waits a random duration in [min, max) behind a countdown
// spinner and returns the duration chosen
func (p *Pacer) Between(ctx context.Context, min, max time.Duration) (time.Duration, error) {
	wait := p.Pick(min, max)

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(p.out))
	s.Suffix = countdown(wait)
	s.Start()
	defer s.Stop()

	for remaining := wait; remaining > 0; {
		step := p.tick
		if remaining < step {
			step = remaining
		}
		if err := p.sleep(ctx, step); err != nil {
			return wait - remaining, err
		}
		remaining -= step

		s.Lock()
		s.Suffix = countdown(remaining)
		s.Unlock()
	}
	return wait, nil
}

func countdown(remaining time.Duration) string {
	return fmt.Sprintf(" next message in %s", remaining.Round(time.Second))
}
