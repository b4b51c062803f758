// Package connections reads the accepted connections of the logged-in account.
package connections

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"github.com/go-scripts/referral/internal/browser"
	"github.com/go-scripts/referral/internal/pacing"
	"github.com/go-scripts/referral/internal/site"
	"github.com/go-scripts/referral/internal/types"
)

const (
	ListTimeout     = 20 * time.Second
	NavigateTimeout = 30 * time.Second
	StepTimeout     = 15 * time.Second
	SettleDelay     = 3 * time.Second
	ScrollDelay     = 2 * time.Second
	DefaultPasses   = 3
)

// Scraper collects connections from the "My Network" connections page
type Scraper struct {
	page   browser.Page
	site   site.Site
	pacer  *pacing.Pacer
	logger *log.Logger
	passes int

	navigateTimeout time.Duration
	stepTimeout     time.Duration
}

// New creates a Scraper that scrolls passes times to lazy-load cards
func New(page browser.Page, s site.Site, pacer *pacing.Pacer, passes int, logger *log.Logger) *Scraper {
	if passes < 0 {
		passes = DefaultPasses
	}
	return &Scraper{
		page:   page,
		site:   s,
		pacer:  pacer,
		logger: logger,
		passes: passes,

		navigateTimeout: NavigateTimeout,
		stepTimeout:     StepTimeout,
	}
}

// Connections returns the valid connections on the page in page order.
// Any failure is logged and yields an empty list.
func (s *Scraper) Connections(ctx context.Context) []types.Connection {
	s.logger.Info("Navigating to connections page...")

	conns, err := s.scrape(ctx)
	if err != nil {
		s.logger.Error("Failed to get connections", "err", err)
		return []types.Connection{}
	}

	s.logger.Info("Found connections", "count", len(conns))
	return conns
}

func (s *Scraper) scrape(ctx context.Context) ([]types.Connection, error) {
	if err := s.step(ctx, s.navigateTimeout, func(ctx context.Context) error {
		return s.page.Navigate(ctx, s.site.ConnectionsURL)
	}); err != nil {
		return nil, fmt.Errorf("opening connections page: %w", err)
	}
	if err := s.page.WaitFor(ctx, s.site.ConnectionsList, ListTimeout); err != nil {
		return nil, err
	}
	if err := s.pacer.Pause(ctx, SettleDelay); err != nil {
		return nil, err
	}

	for i := 0; i < s.passes; i++ {
		if err := s.step(ctx, s.stepTimeout, func(ctx context.Context) error {
			return s.page.ScrollToBottom(ctx, s.site.Workspace)
		}); err != nil {
			return nil, fmt.Errorf("scroll pass %d: %w", i+1, err)
		}
		if err := s.pacer.Pause(ctx, ScrollDelay); err != nil {
			return nil, err
		}
	}

	var cards []types.ExtractedContent
	if err := s.step(ctx, s.stepTimeout, func(ctx context.Context) error {
		var err error
		cards, err = s.page.Extract(ctx, s.site.ConnectionsList, s.site.ConnectionCard, []string{"href"})
		return err
	}); err != nil {
		return nil, fmt.Errorf("reading connection cards: %w", err)
	}

	conns := make([]types.Connection, 0, len(cards))
	for _, card := range cards {
		conn, err := s.parseCard(card)
		if err != nil {
			s.logger.Debug("Skipping connection card", "err", err)
			continue
		}
		if !conn.Valid() {
			s.logger.Debug("Skipping incomplete connection card", "url", conn.ProfileURL, "name", conn.FullName)
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

// step runs fn with its own deadline
func (s *Scraper) step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(stepCtx)
}

// parseCard reads the profile link and display name of one card
func (s *Scraper) parseCard(card types.ExtractedContent) (types.Connection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(card.HTML))
	if err != nil {
		return types.Connection{}, fmt.Errorf("parsing card: %w", err)
	}
	name := doc.Find(s.site.CardName).First().Text()

	href := strings.TrimSpace(card.Attributes["href"])
	if href == "" {
		return types.NewConnection("", name), nil
	}
	profileURL, err := normalizeURL(s.site.BaseURL, href)
	if err != nil {
		return types.Connection{}, fmt.Errorf("profile link %q: %w", href, err)
	}
	return types.NewConnection(profileURL, name), nil
}

// normalizeURL resolves href against baseURL
func normalizeURL(baseURL, href string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	reference, err := url.Parse(href)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(reference).String(), nil
}
