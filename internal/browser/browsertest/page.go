// Package browsertest provides a scriptable in-memory browser.Page.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-scripts/referral/internal/browser"
	"github.com/go-scripts/referral/internal/locator"
	"github.com/go-scripts/referral/internal/types"
)

// Page is a fake browser tab. Elements are addressed by locator name.
//
// An element is present when Present[name] is true or Budget[name] is
// positive; clicking an element with a budget consumes one unit, which
// models overlays that go away when dismissed and may come back.
type Page struct {
	mu sync.Mutex

	Present map[string]bool
	Budget  map[string]int
	// Counts overrides the match count of a present element, for
	// locators that match several elements
	Counts map[string]int
	// Extracted maps an item locator name to the elements Extract returns
	Extracted map[string][]types.ExtractedContent
	// NavigateErr fails navigation to the given URL
	NavigateErr map[string]error
	// OnClick runs after a successful click on the named element
	OnClick map[string]func(p *Page)
	// OnNavigate runs after a successful navigation to the given URL
	OnNavigate map[string]func(p *Page)
	// OnUpload runs after a successful upload into the named element
	OnUpload map[string]func(p *Page)

	Calls    []string
	Typed    map[string]string
	Keys     []string
	Uploads  map[string]string
	Scrolls  int
	URL      string
	Closed   bool
	CloseErr error
}

var _ browser.Browser = (*Page)(nil)

// New returns an empty fake page
func New() *Page {
	return &Page{
		Present:     make(map[string]bool),
		Budget:      make(map[string]int),
		Counts:      make(map[string]int),
		Extracted:   make(map[string][]types.ExtractedContent),
		NavigateErr: make(map[string]error),
		OnClick:     make(map[string]func(p *Page)),
		OnNavigate:  make(map[string]func(p *Page)),
		OnUpload:    make(map[string]func(p *Page)),
		Typed:       make(map[string]string),
		Uploads:     make(map[string]string),
	}
}

// Show marks the named locators as present
func (p *Page) Show(locs ...locator.Locator) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range locs {
		p.Present[l.Name] = true
	}
	return p
}

// Hide marks the named locators as absent
func (p *Page) Hide(locs ...locator.Locator) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, l := range locs {
		delete(p.Present, l.Name)
		delete(p.Budget, l.Name)
	}
	return p
}

// CallsWith returns the recorded calls starting with prefix
func (p *Page) CallsWith(prefix string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, c := range p.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (p *Page) present(l locator.Locator) bool {
	return p.Present[l.Name] || p.Budget[l.Name] > 0
}

func (p *Page) record(format string, args ...any) {
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("navigate %s", url)
	if err := p.NavigateErr[url]; err != nil {
		p.mu.Unlock()
		return err
	}
	p.URL = url
	hook := p.OnNavigate[url]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) WaitFor(ctx context.Context, l locator.Locator, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait %s", l.Name)
	if !p.present(l) {
		return locator.NotFound(l, context.DeadlineExceeded)
	}
	return nil
}

func (p *Page) Count(ctx context.Context, l locator.Locator) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("count %s", l.Name)
	if n := p.Counts[l.Name]; n > 0 {
		return n, nil
	}
	if p.present(l) {
		return 1, nil
	}
	return 0, nil
}

func (p *Page) Click(ctx context.Context, l locator.Locator, clicks int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("click %s x%d", l.Name, clicks)
	if !p.present(l) {
		p.mu.Unlock()
		return locator.NotFound(l, context.DeadlineExceeded)
	}
	if p.Budget[l.Name] > 0 {
		p.Budget[l.Name]--
	}
	hook := p.OnClick[l.Name]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Type(ctx context.Context, l locator.Locator, text string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("type %s", l.Name)
	if !p.present(l) {
		return locator.NotFound(l, context.DeadlineExceeded)
	}
	p.Typed[l.Name] += text
	return nil
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("key %q", key)
	p.Keys = append(p.Keys, key)
	return nil
}

func (p *Page) Upload(ctx context.Context, l locator.Locator, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("upload %s", l.Name)
	if !p.present(l) {
		p.mu.Unlock()
		return locator.NotFound(l, context.DeadlineExceeded)
	}
	p.Uploads[l.Name] = path
	hook := p.OnUpload[l.Name]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) ScrollToBottom(ctx context.Context, l locator.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("scroll %s", l.Name)
	if !p.present(l) {
		return locator.NotFound(l, nil)
	}
	p.Scrolls++
	return nil
}

func (p *Page) Extract(ctx context.Context, scope, item locator.Locator, _ []string) ([]types.ExtractedContent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("extract %s", item.Name)
	if !p.present(scope) {
		return nil, locator.NotFound(scope, nil)
	}
	return p.Extracted[item.Name], nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("close")
	p.Closed = true
	return p.CloseErr
}
