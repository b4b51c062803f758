package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/go-scripts/referral/internal/types"
)

// Summary tallies the outcome of a run
type Summary struct {
	Total  int
	Sent   int
	Failed int
}

// ProgressTracker draws an outreach progress bar
type ProgressTracker struct {
	bar    progress.Model
	out    io.Writer
	total  int
	sent   int
	failed int
	start  time.Time
	mu     sync.Mutex
}

// New creates a new ProgressTracker writing to out
func New(out io.Writer) *ProgressTracker {
	return &ProgressTracker{
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		out:   out,
		start: time.Now(),
	}
}

// SetTotal sets the number of connections to message
func (p *ProgressTracker) SetTotal(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = total
}

// Start announces that conn is being processed
func (p *ProgressTracker) Start(conn types.Connection) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\nProcessing: %s (%s)\n", conn.FirstName, conn.ProfileURL)
}

// Finish records the outcome for conn and redraws the bar
func (p *ProgressTracker) Finish(conn types.Connection, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ok {
		p.sent++
	} else {
		p.failed++
	}

	done := p.sent + p.failed
	if p.total > 0 {
		fmt.Fprintf(p.out, "\rProgress: %s %d/%d connections\n",
			p.bar.ViewAs(float64(done)/float64(p.total)),
			done,
			p.total)
	}
}

// Summary returns the tallies so far
func (p *ProgressTracker) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{Total: p.total, Sent: p.sent, Failed: p.failed}
}

// Report draws the summary panel
func (p *ProgressTracker) Report() {
	summary := p.Summary()
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, summary.View(time.Since(p.start)))
}
