// Package bot runs one outreach pass: log in, find new connections,
// message each of them, and reconcile the tracking files.
package bot

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/referral/internal/pacing"
	"github.com/go-scripts/referral/internal/progress"
	"github.com/go-scripts/referral/internal/queue"
	"github.com/go-scripts/referral/internal/tracker"
	"github.com/go-scripts/referral/internal/types"
)

// Authenticator establishes a logged-in session
type Authenticator interface {
	Login(ctx context.Context) error
}

// Scraper lists the account's connections
type Scraper interface {
	Connections(ctx context.Context) []types.Connection
}

// Sender messages one connection
type Sender interface {
	Send(ctx context.Context, conn types.Connection) bool
	CloseThread(ctx context.Context) error
}

// Config wires the components of a run
type Config struct {
	Session  Authenticator
	Scraper  Scraper
	Sender   Sender
	Browser  io.Closer
	Success  *tracker.Record
	Failures *tracker.Record
	Pacer    *pacing.Pacer
	Progress *progress.ProgressTracker
	MinDelay time.Duration
	MaxDelay time.Duration
	Logger   *log.Logger
}

// Bot is a single outreach run
type Bot struct {
	cfg    Config
	logger *log.Logger
}

// New creates a Bot
func New(cfg Config) *Bot {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Bot{cfg: cfg, logger: logger}
}

// Run performs the outreach pass. Login and tracking-file errors are
// fatal and returned; a failed message only moves on to the next
// connection. The browser is closed and the tracking files reconciled
// however Run ends.
func (b *Bot) Run(ctx context.Context) error {
	defer b.cleanup()

	if err := b.cfg.Session.Login(ctx); err != nil {
		return err
	}

	sent, err := b.cfg.Success.Load()
	if err != nil {
		return fmt.Errorf("loading message record: %w", err)
	}
	b.logger.Info("Loaded previously messaged connections", "count", sent.Len())

	if err := b.cfg.Sender.CloseThread(ctx); err != nil {
		b.logger.Debug("No message thread left open", "err", err)
	}

	q := queue.New(sent)
	for _, conn := range b.cfg.Scraper.Connections(ctx) {
		q.Add(conn)
	}
	b.logger.Info("Connections to message", "new", q.Len(), "already_messaged", q.Skipped())
	b.cfg.Progress.SetTotal(q.Len())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, ok := q.Next()
		if !ok {
			break
		}

		b.cfg.Progress.Start(conn)
		ok = b.cfg.Sender.Send(ctx, conn)
		b.cfg.Progress.Finish(conn, ok)
		if !ok {
			continue
		}

		if err := b.cfg.Success.Save(conn.ProfileURL); err != nil {
			return fmt.Errorf("recording %s: %w", conn.ProfileURL, err)
		}
		if q.Len() == 0 {
			break
		}
		wait, err := b.cfg.Pacer.Between(ctx, b.cfg.MinDelay, b.cfg.MaxDelay)
		if err != nil {
			return err
		}
		b.logger.Debug("Waited before next message", "wait", wait)
	}

	summary := b.cfg.Progress.Summary()
	b.logger.Info("Outreach finished", "sent", summary.Sent, "failed", summary.Failed)
	b.cfg.Progress.Report()
	return nil
}

func (b *Bot) cleanup() {
	if b.cfg.Browser != nil {
		if err := b.cfg.Browser.Close(); err != nil {
			b.logger.Error("Failed to close browser", "err", err)
		}
	}

	remaining, err := tracker.Reconcile(b.cfg.Success, b.cfg.Failures)
	if err != nil {
		b.logger.Error("Failed to reconcile tracking files", "err", err)
		return
	}
	if remaining.Len() > 0 {
		b.logger.Warn("Connections still unmessaged", "count", remaining.Len(), "file", b.cfg.Failures.Path())
	}
}
