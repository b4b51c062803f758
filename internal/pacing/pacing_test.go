package pacing

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a SleepFunc that returns immediately and sums the requested time
type recorder struct {
	total time.Duration
	calls int
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.total += d
	r.calls++
	return nil
}

func TestPauseAddsJitter(t *testing.T) {
	rec := &recorder{}
	p := New(WithSleep(rec.sleep), WithSeed(1), WithWriter(&bytes.Buffer{}))

	for i := 0; i < 50; i++ {
		before := rec.total
		require.NoError(t, p.Pause(context.Background(), 2*time.Second))
		got := rec.total - before
		assert.GreaterOrEqual(t, got, 2*time.Second)
		assert.Less(t, got, 2*time.Second+DefaultJitter)
	}
}

func TestPauseWithoutJitter(t *testing.T) {
	rec := &recorder{}
	p := New(WithSleep(rec.sleep), WithJitter(0))

	require.NoError(t, p.Pause(context.Background(), time.Second))
	assert.Equal(t, time.Second, rec.total)
}

func TestWaitIgnoresJitter(t *testing.T) {
	rec := &recorder{}
	p := New(WithSleep(rec.sleep), WithWriter(&bytes.Buffer{}))

	require.NoError(t, p.Wait(context.Background(), 500*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond, rec.total)
}

func TestPick(t *testing.T) {
	p := New(WithSeed(42))

	for i := 0; i < 200; i++ {
		d := p.Pick(30*time.Second, 90*time.Second)
		assert.GreaterOrEqual(t, d, 30*time.Second)
		assert.Less(t, d, 90*time.Second)
	}
	assert.Equal(t, 5*time.Second, p.Pick(5*time.Second, 5*time.Second))
	assert.Equal(t, 5*time.Second, p.Pick(5*time.Second, time.Second))
}

func TestBetween(t *testing.T) {
	rec := &recorder{}
	p := New(WithSleep(rec.sleep), WithSeed(7), WithWriter(&bytes.Buffer{}))

	waited, err := p.Between(context.Background(), 3*time.Second, 6*time.Second)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, waited, 3*time.Second)
	assert.Less(t, waited, 6*time.Second)
	assert.Equal(t, waited, rec.total, "the countdown must sleep exactly the chosen duration")
	assert.GreaterOrEqual(t, rec.calls, 3)
}

func TestBetweenCancelled(t *testing.T) {
	rec := &recorder{}
	p := New(WithSleep(rec.sleep), WithWriter(&bytes.Buffer{}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Between(ctx, time.Second, 2*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)

	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
	assert.NoError(t, Sleep(context.Background(), 0))
}
