package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner wraps an indeterminate progress indicator for long-running
// phases (extraction, dependency resolution) whose length is unknown.
type Spinner struct {
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner with the given description
func NewSpinner(description string) *Spinner {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionThrottle(100*time.Millisecond),
	)
	return &Spinner{bar: bar}
}

// Tick advances the spinner one frame
func (s *Spinner) Tick() {
	_ = s.bar.Add(1)
}

// Describe updates the spinner label
func (s *Spinner) Describe(description string) {
	s.bar.Describe(description)
}

// Finish stops the spinner and clears the line
func (s *Spinner) Finish() {
	_ = s.bar.Finish()
	_ = s.bar.Clear()
}

// PhaseTracker reports named phases of a multi-step operation,
// e.g. the stages of a native package install.
type PhaseTracker struct {
	total   int
	current int
	out     io.Writer
}

// NewPhaseTracker creates a tracker for a fixed number of phases
func NewPhaseTracker(total int) *PhaseTracker {
	return &PhaseTracker{total: total, out: os.Stdout}
}

// Start announces the next phase
func (p *PhaseTracker) Start(name string) {
	p.current++
	fmt.Fprintf(p.out, "%s [%d/%d] %s\n", Arrow, p.current, p.total, name)
}

// Done marks the current phase complete
func (p *PhaseTracker) Done(detail string) {
	if detail != "" {
		fmt.Fprintf(p.out, "%s %s\n", CheckMark, detail)
	}
}
