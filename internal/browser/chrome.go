package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/go-scripts/referral/internal/locator"
	"github.com/go-scripts/referral/internal/types"
)

// Options configures the Chrome process
type Options struct {
	// UserDataDir persists cookies and local storage between runs
	UserDataDir string
	Headless    bool
	NoSandbox   bool
	Width       int
	Height      int
	ExecPath    string
	Logger      *log.Logger
}

// Chrome drives one tab of a locally launched Chrome through chromedp
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	logger      *log.Logger
}

var _ Browser = (*Chrome)(nil)

// Launch starts Chrome with the given options and opens a tab
func Launch(opts Options) (*Chrome, error) {
	if opts.Width == 0 || opts.Height == 0 {
		opts.Width, opts.Height = 1280, 800
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.DisableGPU,
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(logger.Debugf))

	// Running with no actions starts the browser and attaches the tab.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	logger.Debug("Chrome started", "headless", opts.Headless, "user_data_dir", opts.UserDataDir)
	return &Chrome{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		logger:      logger,
	}, nil
}

// Close shuts down the browser
func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	c.allocCancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// bind derives a context of the browser tab that also ends when ctx ends
func (c *Chrome) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	tabCtx, cancel := context.WithCancel(c.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		tabCtx, cancelDeadline = context.WithDeadline(tabCtx, deadline)
		cancelTab := cancel
		cancel = func() {
			cancelDeadline()
			cancelTab()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return tabCtx, func() {
		stop()
		cancel()
	}
}

func queryBy(l locator.Locator) chromedp.QueryOption {
	if l.Strategy == locator.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

// visiblePoll is how often resolve rechecks a Visible locator whose
// matches are all hidden
const visiblePoll = 100 * time.Millisecond

// resolve waits for l and returns the picked node. Visibility is decided
// per match, so hidden duplicates never mask a rendered element.
func (c *Chrome) resolve(ctx context.Context, l locator.Locator) (*cdp.Node, error) {
	for {
		var nodes []*cdp.Node
		if err := chromedp.Run(ctx, chromedp.Nodes(l.Query, &nodes, queryBy(l))); err != nil {
			return nil, locator.NotFound(l, err)
		}
		if l.Visible {
			nodes = visibleNodes(ctx, nodes)
		}

		if len(nodes) > 0 {
			if l.Pick == locator.Last {
				return nodes[len(nodes)-1], nil
			}
			return nodes[0], nil
		}
		if !l.Visible {
			return nil, locator.NotFound(l, nil)
		}

		select {
		case <-ctx.Done():
			return nil, locator.NotFound(l, ctx.Err())
		case <-time.After(visiblePoll):
		}
	}
}

// visibleNodes keeps the nodes that have a layout box
func visibleNodes(ctx context.Context, nodes []*cdp.Node) []*cdp.Node {
	out := make([]*cdp.Node, 0, len(nodes))
	for _, n := range nodes {
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
			return err
		}))
		if err == nil {
			out = append(out, n)
		}
	}
	return out
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) WaitFor(ctx context.Context, l locator.Locator, timeout time.Duration) error {
	timeoutCtx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	tabCtx, cancel := c.bind(timeoutCtx)
	defer cancel()

	_, err := c.resolve(tabCtx, l)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Count(ctx context.Context, l locator.Locator) (int, error) {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	var n int
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(jsCount(l), &n)); err != nil {
		return 0, fmt.Errorf("counting %s: %w", l.Name, err)
	}
	return n, nil
}

func (c *Chrome) Click(ctx context.Context, l locator.Locator, clicks int) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	node, err := c.resolve(tabCtx, l)
	if err != nil {
		return err
	}
	if clicks < 1 {
		clicks = 1
	}
	if err := chromedp.Run(tabCtx, chromedp.MouseClickNode(node, chromedp.ClickCount(clicks))); err != nil {
		return fmt.Errorf("clicking %s: %w", l.Name, err)
	}
	return nil
}

func (c *Chrome) Type(ctx context.Context, l locator.Locator, text string, perKey time.Duration) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	node, err := c.resolve(tabCtx, l)
	if err != nil {
		return err
	}
	if err := chromedp.Run(tabCtx, chromedp.Focus([]cdp.NodeID{node.NodeID}, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("focusing %s: %w", l.Name, err)
	}

	for _, r := range text {
		if err := chromedp.Run(tabCtx, chromedp.KeyEvent(string(r))); err != nil {
			return fmt.Errorf("typing into %s: %w", l.Name, err)
		}
		if perKey <= 0 {
			continue
		}
		select {
		case <-tabCtx.Done():
			return tabCtx.Err()
		case <-time.After(perKey):
		}
	}
	return nil
}

func (c *Chrome) PressKey(ctx context.Context, key string) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	return chromedp.Run(tabCtx, chromedp.KeyEvent(key))
}

func (c *Chrome) Upload(ctx context.Context, l locator.Locator, path string) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	node, err := c.resolve(tabCtx, l)
	if err != nil {
		return err
	}
	if err := chromedp.Run(tabCtx,
		chromedp.SetUploadFiles([]cdp.NodeID{node.NodeID}, []string{path}, chromedp.ByNodeID),
	); err != nil {
		return fmt.Errorf("uploading %s: %w", path, err)
	}
	return nil
}

func (c *Chrome) ScrollToBottom(ctx context.Context, l locator.Locator) error {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	var found bool
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(jsScrollToBottom(l), &found)); err != nil {
		return fmt.Errorf("scrolling %s: %w", l.Name, err)
	}
	if !found {
		return locator.NotFound(l, nil)
	}
	return nil
}

func (c *Chrome) Extract(ctx context.Context, scope, item locator.Locator, attributes []string) ([]types.ExtractedContent, error) {
	tabCtx, cancel := c.bind(ctx)
	defer cancel()

	var raw string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(jsExtract(scope, item, attributes), &raw)); err != nil {
		return nil, fmt.Errorf("extracting %s: %w", item.Name, err)
	}

	var result extraction
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parsing %s extraction: %w", item.Name, err)
	}
	if !result.Found {
		return nil, locator.NotFound(scope, nil)
	}

	contents := make([]types.ExtractedContent, 0, len(result.Items))
	for _, it := range result.Items {
		contents = append(contents, types.ExtractedContent{
			HTML:       it.HTML,
			Text:       it.Text,
			Attributes: it.Attributes,
		})
	}
	return contents, nil
}
