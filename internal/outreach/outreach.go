// Package outreach sends the referral message to a single connection.
package outreach

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/chromedp/kb"

	"github.com/go-scripts/referral/internal/browser"
	"github.com/go-scripts/referral/internal/locator"
	"github.com/go-scripts/referral/internal/message"
	"github.com/go-scripts/referral/internal/pacing"
	"github.com/go-scripts/referral/internal/site"
	"github.com/go-scripts/referral/internal/tracker"
	"github.com/go-scripts/referral/internal/types"
)

const (
	DefaultStepTimeout   = 15 * time.Second
	OverlayTimeout       = 3 * time.Second
	MaxOverlayDismissals = 3
	UploadTimeout        = 15 * time.Second
	UploadPoll           = 250 * time.Millisecond
	ThreadCloseTimeout   = 5 * time.Second
	TypeDelay            = 50 * time.Millisecond

	beforeOpenDelay = 2 * time.Second
	openDelay       = 3 * time.Second
	dismissDelay    = time.Second
	clearDelay      = 500 * time.Millisecond
	sentDelay       = 2 * time.Second
)

// ErrOverlayPersistent is returned when an upsell overlay keeps covering
// the composer after MaxOverlayDismissals dismissals
var ErrOverlayPersistent = errors.New("messaging overlay persists after dismissal")

// Options configures an Actor
type Options struct {
	Template   message.Template
	ResumePath string
	// Failures receives the profile URL of every connection Send fails on
	Failures    *tracker.Record
	StepTimeout time.Duration
}

// Actor drives the messaging flow of a profile page
type Actor struct {
	page   browser.Page
	site   site.Site
	pacer  *pacing.Pacer
	logger *log.Logger
	opts   Options
}

// New creates an Actor
func New(page browser.Page, s site.Site, pacer *pacing.Pacer, opts Options, logger *log.Logger) *Actor {
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	return &Actor{
		page:   page,
		site:   s,
		pacer:  pacer,
		logger: logger,
		opts:   opts,
	}
}

// Send messages conn and reports whether the message went out. A failed
// attempt is logged and appended to the failure record before returning.
func (a *Actor) Send(ctx context.Context, conn types.Connection) bool {
	a.logger.Info("Sending message", "name", conn.FirstName, "url", conn.ProfileURL)

	if err := a.deliver(ctx, conn); err != nil {
		a.logger.Error("Failed to send message", "name", conn.FirstName, "url", conn.ProfileURL, "err", err)
		if err := a.opts.Failures.Save(conn.ProfileURL); err != nil {
			a.logger.Error("Failed to record failed connection", "url", conn.ProfileURL, "err", err)
		}
		return false
	}

	a.logger.Info("Message sent", "name", conn.FirstName)
	return true
}

func (a *Actor) deliver(ctx context.Context, conn types.Connection) error {
	if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		return a.page.Navigate(ctx, conn.ProfileURL)
	}); err != nil {
		return fmt.Errorf("opening profile: %w", err)
	}

	if err := a.openComposer(ctx); err != nil {
		return err
	}
	if err := a.clearComposer(ctx); err != nil {
		return fmt.Errorf("clearing composer: %w", err)
	}

	text := a.opts.Template.Render(conn.FirstName)
	typing := a.opts.StepTimeout + time.Duration(len([]rune(text)))*TypeDelay
	if err := a.step(ctx, typing, func(ctx context.Context) error {
		return a.page.Type(ctx, a.site.Composer, text, TypeDelay)
	}); err != nil {
		return fmt.Errorf("typing message: %w", err)
	}

	if err := a.attachResume(ctx); err != nil {
		return fmt.Errorf("attaching resume: %w", err)
	}

	if err := a.page.WaitFor(ctx, a.site.SendButton, a.opts.StepTimeout); err != nil {
		return fmt.Errorf("waiting for send button: %w", err)
	}
	if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		return a.page.Click(ctx, a.site.SendButton, 1)
	}); err != nil {
		return fmt.Errorf("sending: %w", err)
	}

	if err := a.pacer.Pause(ctx, sentDelay); err != nil {
		return err
	}
	if err := a.CloseThread(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("Could not close message thread", "err", err)
	}
	return nil
}

type composerState int

const (
	requested composerState = iota
	overlayShown
	reopened
	ready
)

// openComposer clicks the messaging entry point until the composer is
// reachable, dismissing at most MaxOverlayDismissals upsell overlays
func (a *Actor) openComposer(ctx context.Context) error {
	state := requested
	dismissals := 0

	for state != ready {
		switch state {
		case requested, reopened:
			if err := a.clickMessageButton(ctx); err != nil {
				return err
			}
			shown, err := a.overlayShown(ctx)
			if err != nil {
				return err
			}
			if shown {
				state = overlayShown
			} else {
				state = ready
			}

		case overlayShown:
			if dismissals == MaxOverlayDismissals {
				return ErrOverlayPersistent
			}
			a.logger.Info("Dismissing messaging overlay", "attempt", dismissals+1)
			if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
				return a.page.Click(ctx, a.site.Overlay, 1)
			}); err != nil {
				return fmt.Errorf("dismissing overlay: %w", err)
			}
			dismissals++
			if err := a.pacer.Pause(ctx, dismissDelay); err != nil {
				return err
			}
			state = reopened
		}
	}
	return nil
}

func (a *Actor) clickMessageButton(ctx context.Context) error {
	if err := a.page.WaitFor(ctx, a.site.MessageButton, a.opts.StepTimeout); err != nil {
		return fmt.Errorf("waiting for message button: %w", err)
	}
	if err := a.pacer.Pause(ctx, beforeOpenDelay); err != nil {
		return err
	}
	if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		return a.page.Click(ctx, a.site.MessageButton, 1)
	}); err != nil {
		return fmt.Errorf("opening conversation: %w", err)
	}
	return a.pacer.Pause(ctx, openDelay)
}

func (a *Actor) overlayShown(ctx context.Context) (bool, error) {
	err := a.page.WaitFor(ctx, a.site.Overlay, OverlayTimeout)
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case locator.IsNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("checking for overlay: %w", err)
	}
}

// clearComposer selects any draft left in the composer and deletes it
func (a *Actor) clearComposer(ctx context.Context) error {
	if err := a.page.WaitFor(ctx, a.site.Composer, a.opts.StepTimeout); err != nil {
		return err
	}
	if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		if err := a.page.Click(ctx, a.site.Composer, 3); err != nil {
			return err
		}
		return a.page.PressKey(ctx, kb.Backspace)
	}); err != nil {
		return err
	}
	return a.pacer.Pause(ctx, clearDelay)
}

// attachResume uploads the resume and waits for one more attachment
// preview than the composer showed before the upload. A preview that never
// appears is only a warning; the enabled send button is the remaining
// signal that the upload finished.
func (a *Actor) attachResume(ctx context.Context) error {
	before, err := a.previews(ctx)
	if err != nil {
		return err
	}

	if err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		return a.page.Upload(ctx, a.site.FileInput, a.opts.ResumePath)
	}); err != nil {
		return err
	}

	polls := int(UploadTimeout / UploadPoll)
	for i := 0; ; i++ {
		n, err := a.previews(ctx)
		if err != nil {
			return err
		}
		if n > before {
			return nil
		}
		if i == polls {
			break
		}
		if err := a.pacer.Wait(ctx, UploadPoll); err != nil {
			return err
		}
	}

	a.logger.Warn("No attachment preview appeared, continuing", "timeout", UploadTimeout, "previews", before)
	return nil
}

func (a *Actor) previews(ctx context.Context) (int, error) {
	var n int
	err := a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		var err error
		n, err = a.page.Count(ctx, a.site.AttachmentPreview)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("counting attachment previews: %w", err)
	}
	return n, nil
}

// CloseThread closes the floating conversation window if one is open
func (a *Actor) CloseThread(ctx context.Context) error {
	if err := a.page.WaitFor(ctx, a.site.ThreadClose, ThreadCloseTimeout); err != nil {
		return err
	}
	return a.step(ctx, a.opts.StepTimeout, func(ctx context.Context) error {
		return a.page.Click(ctx, a.site.ThreadClose, 1)
	})
}

// step runs fn with its own deadline
func (a *Actor) step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}
