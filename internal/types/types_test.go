package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConnection(t *testing.T) {
	testCases := []struct {
		name      string
		fullName  string
		wantFull  string
		wantFirst string
	}{
		{name: "two words", fullName: "Asha Rao", wantFull: "Asha Rao", wantFirst: "Asha"},
		{name: "surrounding whitespace", fullName: "  Asha  Rao \n", wantFull: "Asha  Rao", wantFirst: "Asha"},
		{name: "single word", fullName: "Cher", wantFull: "Cher", wantFirst: "Cher"},
		{name: "empty", fullName: "   ", wantFull: "", wantFirst: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewConnection("https://www.linkedin.com/in/a", tc.fullName)
			assert.Equal(t, tc.wantFull, c.FullName)
			assert.Equal(t, tc.wantFirst, c.FirstName)
		})
	}
}

func TestConnectionValid(t *testing.T) {
	assert.True(t, NewConnection("https://www.linkedin.com/in/a", "Asha").Valid())
	assert.False(t, NewConnection("", "Asha").Valid())
	assert.False(t, NewConnection("https://www.linkedin.com/in/a", "").Valid())
}
