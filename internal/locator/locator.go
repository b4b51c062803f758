// Package locator names the page elements the bot interacts with.
//
// Every structural assumption about the target site is expressed as a
// Locator, so that a changed page surfaces as a NotFoundError carrying the
// locator's name rather than as an anonymous selector failure.
package locator

import (
	"errors"
	"fmt"
)

// Strategy selects the query language of a Locator
type Strategy int

const (
	CSS Strategy = iota
	XPath
)

func (s Strategy) String() string {
	if s == XPath {
		return "xpath"
	}
	return "css"
}

// Pick selects which match is used when a query matches several elements
type Pick int

const (
	First Pick = iota
	Last
)

// Locator is a named element query
type Locator struct {
	Name     string
	Query    string
	Strategy Strategy
	Pick     Pick
	// Visible requires the element to be rendered, not merely attached
	Visible bool
}

// NewCSS returns a CSS locator picking the first match
func NewCSS(name, query string) Locator {
	return Locator{Name: name, Query: query, Strategy: CSS}
}

// NewXPath returns an XPath locator picking the first match
func NewXPath(name, query string) Locator {
	return Locator{Name: name, Query: query, Strategy: XPath}
}

// Last returns a copy of l that picks the last match
func (l Locator) Last() Locator {
	l.Pick = Last
	return l
}

// WhenVisible returns a copy of l that only matches rendered elements
func (l Locator) WhenVisible() Locator {
	l.Visible = true
	return l
}

func (l Locator) String() string {
	return fmt.Sprintf("%s (%s %q)", l.Name, l.Strategy, l.Query)
}

// NotFoundError reports that a locator matched nothing in time
type NotFoundError struct {
	Locator Locator
	Err     error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("element %s not found: %v", e.Locator.Name, e.Err)
	}
	return fmt.Sprintf("element %s not found", e.Locator.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// NotFound wraps cause into a NotFoundError for l
func NotFound(l Locator, cause error) error {
	return &NotFoundError{Locator: l, Err: cause}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
