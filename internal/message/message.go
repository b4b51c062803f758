package message

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Placeholder is replaced by the recipient's first name
const Placeholder = "{name}"

// ErrNoPlaceholder is returned for templates that never mention the recipient
var ErrNoPlaceholder = errors.New("message template has no " + Placeholder + " placeholder")

//go:embed default.txt
var defaultText string

// Template is an outreach message with a first-name placeholder
type Template struct {
	text string
}

// New validates text and returns it as a Template
func New(text string) (Template, error) {
	if !strings.Contains(text, Placeholder) {
		return Template{}, ErrNoPlaceholder
	}
	return Template{text: text}, nil
}

// Default returns the built-in referral request
func Default() Template {
	return Template{text: defaultText}
}

// Load reads a template from path, or returns Default when path is empty
func Load(path string) (Template, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read message template: %w", err)
	}
	tmpl, err := New(string(data))
	if err != nil {
		return Template{}, fmt.Errorf("%s: %w", path, err)
	}
	return tmpl, nil
}

// Render substitutes firstName for the first placeholder only
func (t Template) Render(firstName string) string {
	return strings.Replace(t.text, Placeholder, firstName, 1)
}
