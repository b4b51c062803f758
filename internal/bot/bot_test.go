package bot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/referral/internal/pacing"
	"github.com/go-scripts/referral/internal/progress"
	"github.com/go-scripts/referral/internal/session"
	"github.com/go-scripts/referral/internal/tracker"
	"github.com/go-scripts/referral/internal/types"
)

var (
	connA = types.NewConnection("https://www.linkedin.com/in/a/", "Asha Rao")
	connB = types.NewConnection("https://www.linkedin.com/in/b/", "Bo Chen")
	connC = types.NewConnection("https://www.linkedin.com/in/c/", "Cy Diaz")
)

type fakeSession struct{ err error }

func (f *fakeSession) Login(context.Context) error { return f.err }

type fakeScraper struct{ conns []types.Connection }

func (f *fakeScraper) Connections(context.Context) []types.Connection { return f.conns }

// fakeSender succeeds unless the URL is listed in fail, in which case it
// records the failure the way the real actor does
type fakeSender struct {
	fail     map[string]bool
	failures *tracker.Record
	cancel   context.CancelFunc
	sent     []string
	closed   int
}

func (f *fakeSender) Send(_ context.Context, conn types.Connection) bool {
	f.sent = append(f.sent, conn.ProfileURL)
	if f.cancel != nil {
		f.cancel()
	}
	if f.fail[conn.ProfileURL] {
		_ = f.failures.Save(conn.ProfileURL)
		return false
	}
	return true
}

func (f *fakeSender) CloseThread(context.Context) error {
	f.closed++
	return errors.New("no thread")
}

type fakeBrowser struct{ closed bool }

func (f *fakeBrowser) Close() error {
	f.closed = true
	return nil
}

type fixture struct {
	dir      string
	success  *tracker.Record
	failures *tracker.Record
	session  *fakeSession
	scraper  *fakeScraper
	sender   *fakeSender
	browser  *fakeBrowser
	waits    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:      dir,
		success:  tracker.NewRecord(filepath.Join(dir, "sent.txt")),
		failures: tracker.NewRecord(filepath.Join(dir, "failed.txt")),
		session:  &fakeSession{},
		scraper:  &fakeScraper{},
		browser:  &fakeBrowser{},
	}
	f.sender = &fakeSender{fail: map[string]bool{}, failures: f.failures}
	return f
}

func (f *fixture) bot() *Bot {
	sleep := func(ctx context.Context, _ time.Duration) error {
		f.waits++
		return ctx.Err()
	}
	return New(Config{
		Session:  f.session,
		Scraper:  f.scraper,
		Sender:   f.sender,
		Browser:  f.browser,
		Success:  f.success,
		Failures: f.failures,
		Pacer:    pacing.New(pacing.WithSleep(sleep), pacing.WithWriter(io.Discard)),
		Progress: progress.New(io.Discard),
		MinDelay: 2 * time.Second,
		MaxDelay: 3 * time.Second,
		Logger:   log.New(io.Discard),
	})
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	var data []byte
	for _, l := range lines {
		data = append(data, l+"\n"...)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func items(t *testing.T, r *tracker.Record) []string {
	t.Helper()
	set, err := r.Load()
	require.NoError(t, err)
	return set.Items()
}

func TestRunSkipsMessagedConnections(t *testing.T) {
	f := newFixture(t)
	writeLines(t, f.success.Path(), connA.ProfileURL)
	f.scraper.conns = []types.Connection{connA, connB}

	require.NoError(t, f.bot().Run(context.Background()))

	assert.Equal(t, []string{connB.ProfileURL}, f.sender.sent)
	assert.Equal(t, []string{connA.ProfileURL, connB.ProfileURL}, items(t, f.success))
	assert.Equal(t, 1, f.sender.closed)
	assert.True(t, f.browser.closed)
}

func TestRunRecordsFailures(t *testing.T) {
	f := newFixture(t)
	f.scraper.conns = []types.Connection{connA, connC, connB}
	f.sender.fail[connC.ProfileURL] = true

	require.NoError(t, f.bot().Run(context.Background()))

	assert.Equal(t, []string{connA.ProfileURL, connC.ProfileURL, connB.ProfileURL}, f.sender.sent)
	assert.Equal(t, []string{connA.ProfileURL, connB.ProfileURL}, items(t, f.success))
	assert.Equal(t, []string{connC.ProfileURL}, items(t, f.failures))
}

func TestRunWaitsBetweenMessages(t *testing.T) {
	f := newFixture(t)
	f.scraper.conns = []types.Connection{connA, connB}

	require.NoError(t, f.bot().Run(context.Background()))

	// One wait of 2-3s after the first message, ticked once per second.
	assert.GreaterOrEqual(t, f.waits, 2)
	assert.LessOrEqual(t, f.waits, 3)
}

func TestRunReconcilesFailures(t *testing.T) {
	f := newFixture(t)
	writeLines(t, f.success.Path(), "y")
	writeLines(t, f.failures.Path(), "x", "y")

	require.NoError(t, f.bot().Run(context.Background()))

	assert.Equal(t, []string{"x"}, items(t, f.failures))
}

func TestRunRetriedFailureIsPruned(t *testing.T) {
	f := newFixture(t)
	writeLines(t, f.failures.Path(), connA.ProfileURL)
	f.scraper.conns = []types.Connection{connA}

	require.NoError(t, f.bot().Run(context.Background()))

	assert.Equal(t, []string{connA.ProfileURL}, items(t, f.success))
	_, err := os.Stat(f.failures.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestRunLoginFailure(t *testing.T) {
	f := newFixture(t)
	f.session.err = session.ErrLoginFailed
	f.scraper.conns = []types.Connection{connA}
	writeLines(t, f.success.Path(), "y")
	writeLines(t, f.failures.Path(), "x", "y")

	err := f.bot().Run(context.Background())

	assert.ErrorIs(t, err, session.ErrLoginFailed)
	assert.Empty(t, f.sender.sent)
	assert.True(t, f.browser.closed)
	assert.Equal(t, []string{"x"}, items(t, f.failures))
}

func TestRunNoConnections(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.bot().Run(context.Background()))

	assert.Empty(t, f.sender.sent)
	assert.Zero(t, f.waits)
	_, err := os.Stat(f.success.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	f.scraper.conns = []types.Connection{connA, connB}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.sender.cancel = cancel

	err := f.bot().Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{connA.ProfileURL}, f.sender.sent)
	assert.Equal(t, []string{connA.ProfileURL}, items(t, f.success))
	assert.True(t, f.browser.closed)
}
