// Package session establishes an authenticated LinkedIn session.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/go-scripts/referral/internal/browser"
	"github.com/go-scripts/referral/internal/locator"
	"github.com/go-scripts/referral/internal/site"
)

const (
	SessionCheckTimeout = 10 * time.Second
	LoginFormTimeout    = 10 * time.Second
	LoginTimeout        = 20 * time.Second
	NavigateTimeout     = 30 * time.Second
)

var (
	ErrLoginFailed = errors.New("login failed")
	// ErrChallenge means LinkedIn asked for a captcha or a security check
	// that has to be completed by hand in the browser window.
	ErrChallenge = errors.New("security challenge requires manual action")
)

// Credentials are the account used when no session is stored
type Credentials struct {
	Email    string
	Password string
}

// Manager logs in, reusing the browser profile's session when it is still valid
type Manager struct {
	page   browser.Page
	site   site.Site
	creds  Credentials
	logger *log.Logger

	// Deadlines of a page load and of each login form step
	navigateTimeout time.Duration
	stepTimeout     time.Duration
}

// New creates a Manager
func New(page browser.Page, s site.Site, creds Credentials, logger *log.Logger) *Manager {
	return &Manager{
		page:   page,
		site:   s,
		creds:  creds,
		logger: logger,

		navigateTimeout: NavigateTimeout,
		stepTimeout:     LoginFormTimeout,
	}
}

// Login ensures the page is signed in. Credentials are only submitted
// when the feed does not show the logged-in navigation bar.
func (m *Manager) Login(ctx context.Context) error {
	m.logger.Info("Checking login status...")

	if err := m.step(ctx, m.navigateTimeout, func(ctx context.Context) error {
		return m.page.Navigate(ctx, m.site.FeedURL)
	}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: opening feed: %w", ErrLoginFailed, err)
	}
	if err := m.page.WaitFor(ctx, m.site.LoggedIn, SessionCheckTimeout); err == nil {
		m.logger.Info("Already logged in")
		return nil
	} else if ctx.Err() != nil {
		return ctx.Err()
	}

	m.logger.Info("Not logged in, logging in...")
	if err := m.submit(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if m.challenged(ctx) {
			return fmt.Errorf("%w: %w: %w", ErrLoginFailed, ErrChallenge, err)
		}
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	m.logger.Info("Logged in successfully")
	return nil
}

func (m *Manager) submit(ctx context.Context) error {
	if err := m.step(ctx, m.navigateTimeout, func(ctx context.Context) error {
		return m.page.Navigate(ctx, m.site.LoginURL)
	}); err != nil {
		return err
	}
	if err := m.page.WaitFor(ctx, m.site.Username, m.stepTimeout); err != nil {
		return err
	}

	steps := []func(ctx context.Context) error{
		func(ctx context.Context) error { return m.page.Type(ctx, m.site.Username, m.creds.Email, 0) },
		func(ctx context.Context) error { return m.page.Type(ctx, m.site.Password, m.creds.Password, 0) },
		func(ctx context.Context) error { return m.page.Click(ctx, m.site.Submit, 1) },
	}
	for _, fn := range steps {
		if err := m.step(ctx, m.stepTimeout, fn); err != nil {
			return err
		}
	}

	// The navigation bar only renders once the post-login redirect is done.
	return m.page.WaitFor(ctx, m.site.LoggedIn, LoginTimeout)
}

// step runs fn with its own deadline
func (m *Manager) step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

func (m *Manager) challenged(ctx context.Context) bool {
	for _, l := range []locator.Locator{m.site.Captcha, m.site.Challenge} {
		var n int
		err := m.step(ctx, m.stepTimeout, func(ctx context.Context) error {
			var err error
			n, err = m.page.Count(ctx, l)
			return err
		})
		if err != nil {
			m.logger.Debug("Challenge probe failed", "locator", l.Name, "err", err)
			continue
		}
		if n > 0 {
			m.logger.Warn("LinkedIn is asking for verification, complete it in the browser window", "locator", l.Name)
			return true
		}
	}
	return false
}
