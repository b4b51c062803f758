package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/referral/internal/locator"
)

const testPage = `<!doctype html>
<html><body>
<div id="workspace" style="height:50px;overflow:auto"><div style="height:500px"></div></div>
<div id="workspace" style="height:50px;overflow:auto"><div style="height:500px"></div></div>
<section componentKey="list">
  <section componentKey="list">
    <a data-view-name="connections-profile" href="/in/asha"><p><span>Asha Rao</span></p></a>
    <a data-view-name="connections-profile" href="/in/bo"><p><span>Bo Chen</span></p></a>
  </section>
</section>
<button aria-label="Dismiss" style="display:none">x</button>
<input type="file" style="display:none">
</body></html>`

// setupChrome starts a real Chrome; it needs REFERRAL_CHROME_TESTS=1
func setupChrome(t *testing.T) (*Chrome, string) {
	t.Helper()
	if os.Getenv("REFERRAL_CHROME_TESTS") != "1" {
		t.Skip("set REFERRAL_CHROME_TESTS=1 to run against a local Chrome")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testPage)
	}))
	t.Cleanup(server.Close)

	chrome, err := Launch(Options{
		UserDataDir: t.TempDir(),
		Headless:    true,
		NoSandbox:   true,
		ExecPath:    os.Getenv("CHROME_PATH"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = chrome.Close() })

	return chrome, server.URL
}

func TestChromePage(t *testing.T) {
	chrome, url := setupChrome(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, chrome.Navigate(ctx, url))

	workspace := locator.NewCSS("workspace", "#workspace").Last()
	require.NoError(t, chrome.WaitFor(ctx, workspace, 5*time.Second))
	assert.NoError(t, chrome.ScrollToBottom(ctx, workspace))

	n, err := chrome.Count(ctx, workspace)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list := locator.NewCSS("list", `[componentKey="list"]`).Last()
	card := locator.NewCSS("card", `[data-view-name="connections-profile"]`)
	items, err := chrome.Extract(ctx, list, card, []string{"href"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "/in/asha", items[0].Attributes["href"])
	assert.Equal(t, "Asha Rao", items[0].Text)

	hidden := locator.NewCSS("overlay", `button[aria-label="Dismiss"]`).WhenVisible()
	err = chrome.WaitFor(ctx, hidden, 500*time.Millisecond)
	assert.True(t, locator.IsNotFound(err))

	// A rendered overlay is found even while a hidden one is also attached.
	require.NoError(t, chromedp.Run(chrome.ctx, chromedp.Evaluate(`(() => {
		const b = document.createElement("button");
		b.setAttribute("aria-label", "Dismiss");
		b.textContent = "x";
		document.body.appendChild(b);
		return true;
	})()`, nil)))
	assert.NoError(t, chrome.WaitFor(ctx, hidden, 5*time.Second))
	n, err = chrome.Count(ctx, hidden)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, chrome.Click(ctx, hidden, 1))

	missing := locator.NewCSS("missing", "#nope")
	_, err = chrome.Extract(ctx, missing, card, nil)
	assert.True(t, locator.IsNotFound(err))
}
