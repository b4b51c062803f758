package types

import "strings"

// Connection is one accepted connection scraped from the network page
type Connection struct {
	ProfileURL string
	FullName   string
	FirstName  string
}

// NewConnection builds a Connection, deriving the first name from the full name
func NewConnection(profileURL, fullName string) Connection {
	fullName = strings.TrimSpace(fullName)
	return Connection{
		ProfileURL: profileURL,
		FullName:   fullName,
		FirstName:  FirstName(fullName),
	}
}

// FirstName returns the first whitespace-separated token of name
func FirstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Valid reports whether both the profile URL and a first name are present
func (c Connection) Valid() bool {
	return c.ProfileURL != "" && c.FirstName != ""
}

// ExtractedContent holds the content extracted from a single page element
type ExtractedContent struct {
	HTML       string            `json:"html"`
	Text       string            `json:"text"`
	Attributes map[string]string `json:"attributes"`
}
