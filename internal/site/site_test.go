package site

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/referral/internal/locator"
)

func TestLinkedInLocators(t *testing.T) {
	s := LinkedIn()

	locs := []locator.Locator{
		s.LoggedIn, s.Username, s.Password, s.Submit, s.Captcha, s.Challenge,
		s.ConnectionsList, s.Workspace, s.ConnectionCard,
		s.MessageButton, s.Overlay, s.Composer, s.FileInput, s.AttachmentPreview, s.SendButton, s.ThreadClose,
	}
	names := map[string]bool{}
	for _, l := range locs {
		assert.NotEmpty(t, l.Name)
		assert.NotEmpty(t, l.Query, l.Name)
		assert.False(t, names[l.Name], "duplicate locator name %s", l.Name)
		names[l.Name] = true
	}

	assert.Equal(t, locator.Last, s.ConnectionsList.Pick)
	assert.Equal(t, locator.Last, s.Workspace.Pick)
	assert.True(t, s.Overlay.Visible)
	assert.Equal(t, locator.XPath, s.ThreadClose.Strategy)

	for _, u := range []string{s.FeedURL, s.LoginURL, s.ConnectionsURL} {
		assert.True(t, strings.HasPrefix(u, s.BaseURL), u)
	}
}
