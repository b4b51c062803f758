package site

import (
	"github.com/go-scripts/referral/internal/locator"
)

// Site holds the URLs and element locators of the target site.
// The markup is owned by LinkedIn and changes without notice; this is the
// only place that knows about it.
type Site struct {
	BaseURL        string
	FeedURL        string
	LoginURL       string
	ConnectionsURL string

	// Session
	LoggedIn  locator.Locator
	Username  locator.Locator
	Password  locator.Locator
	Submit    locator.Locator
	Captcha   locator.Locator
	Challenge locator.Locator

	// Connections page
	ConnectionsList locator.Locator
	Workspace       locator.Locator
	ConnectionCard  locator.Locator
	// CardName is a CSS query evaluated against a card's inner HTML
	CardName string

	// Messaging
	MessageButton     locator.Locator
	Overlay           locator.Locator
	Composer          locator.Locator
	FileInput         locator.Locator
	AttachmentPreview locator.Locator
	SendButton        locator.Locator
	ThreadClose       locator.Locator
}

// LinkedIn returns the locators for www.linkedin.com
func LinkedIn() Site {
	return Site{
		BaseURL:        "https://www.linkedin.com",
		FeedURL:        "https://www.linkedin.com/feed",
		LoginURL:       "https://www.linkedin.com/login",
		ConnectionsURL: "https://www.linkedin.com/mynetwork/invite-connect/connections/",

		LoggedIn:  locator.NewCSS("global-nav", "#global-nav"),
		Username:  locator.NewCSS("username", "#username"),
		Password:  locator.NewCSS("password", "#password"),
		Submit:    locator.NewCSS("login-submit", `button[type="submit"]`),
		Captcha:   locator.NewCSS("captcha", `iframe[src*="captcha"], iframe[src*="challenge"]`),
		Challenge: locator.NewCSS("checkpoint-challenge", `[data-theme="home.verifyButton"], form[action*="/checkpoint/challenge"]`),

		// The list container is rendered twice, nested; the inner one holds the cards.
		ConnectionsList: locator.NewCSS("connections-list", `[componentKey="ConnectionsPage_ConnectionsList"]`).Last(),
		// Several #workspace elements exist; the scrollable one is the innermost.
		Workspace:      locator.NewCSS("workspace", "#workspace").Last(),
		ConnectionCard: locator.NewCSS("connection-card", `[data-view-name="connections-profile"]`),
		CardName:       "p a",

		MessageButton:     locator.NewCSS("message-button", `a[href*="/messaging/thread/"]`),
		Overlay:           locator.NewCSS("upsell-overlay", `button[aria-label="Dismiss"]`).WhenVisible(),
		Composer:          locator.NewCSS("composer", "div.msg-form__contenteditable"),
		FileInput:         locator.NewCSS("file-input", `input[type="file"]`),
		AttachmentPreview: locator.NewCSS("attachment-preview", `.msg-form [class*="attachment"]`),
		SendButton:        locator.NewCSS("send-button", "button.msg-form__send-button:not(:disabled)"),
		ThreadClose: locator.NewXPath("thread-close",
			`//button[contains(@class, 'msg-overlay-bubble-header__control') and .//*[name()='svg' and @data-test-icon='close-small']]`),
	}
}
