package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-scripts/referral/internal/types"
)

func TestProgressTracker(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)

	p.SetTotal(4)
	a := types.NewConnection("https://site/in/a", "Asha Rao")
	b := types.NewConnection("https://site/in/b", "Bo Chen")

	p.Start(a)
	p.Finish(a, true)
	p.Start(b)
	p.Finish(b, false)

	assert.Equal(t, Summary{Total: 4, Sent: 1, Failed: 1}, p.Summary())

	text := out.String()
	assert.Contains(t, text, "Processing: Asha (https://site/in/a)")
	assert.Contains(t, text, "1/4 connections")
	assert.Contains(t, text, "2/4 connections")
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	p := New(&out)
	p.SetTotal(2)
	a := types.NewConnection("https://site/in/a", "Asha Rao")
	p.Finish(a, true)
	out.Reset()

	p.Report()

	text := out.String()
	assert.Contains(t, text, "Outreach Summary")
	assert.Contains(t, text, "100.0%")
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "01:02:03", formatElapsed(time.Hour+2*time.Minute+3*time.Second))
}
