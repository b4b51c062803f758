// Package browser defines the browser capabilities the bot relies on and
// provides a chromedp-backed implementation.
package browser

import (
	"context"
	"time"

	"github.com/go-scripts/referral/internal/locator"
	"github.com/go-scripts/referral/internal/types"
)

// Page is a single controllable browser tab.
//
// Operations that look up an element wait for it until ctx is done and
// report a missing element as a *locator.NotFoundError.
type Page interface {
	// Navigate loads url and waits for the document body
	Navigate(ctx context.Context, url string) error
	// WaitFor waits up to timeout for loc to match
	WaitFor(ctx context.Context, loc locator.Locator, timeout time.Duration) error
	// Count returns the current number of matches for loc without waiting
	Count(ctx context.Context, loc locator.Locator) (int, error)
	// Click clicks the element; clicks=3 selects the element's text
	Click(ctx context.Context, loc locator.Locator, clicks int) error
	// Type focuses the element and types text one key at a time
	Type(ctx context.Context, loc locator.Locator, text string, perKey time.Duration) error
	// PressKey sends a single key to the focused element
	PressKey(ctx context.Context, key string) error
	// Upload sets the files of a file input element
	Upload(ctx context.Context, loc locator.Locator, path string) error
	// ScrollToBottom scrolls the element's content to its end
	ScrollToBottom(ctx context.Context, loc locator.Locator) error
	// Extract returns every item match inside scope
	Extract(ctx context.Context, scope, item locator.Locator, attributes []string) ([]types.ExtractedContent, error)
}

// Browser is a Page that owns the underlying browser process
type Browser interface {
	Page
	Close() error
}
