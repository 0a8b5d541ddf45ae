// Package progress draws a percentage progress bar on a terminal, or
// plain status lines when the output is not a terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	barFilled      = "█"
	barEmpty       = "░"
	carriageReturn = "\r"

	// defaultWidth is the bar width in characters
	defaultWidth = 20

	// lineStep is the percentage step between status lines on a non-terminal
	lineStep = 10
)

// Bar tracks a percentage from 0 to 100. It is safe for concurrent use.
type Bar struct {
	mu         sync.Mutex
	w          io.Writer
	message    string
	width      int
	isTTY      bool
	percent    int
	lastLine   int
	lastOutput int
	start      time.Time
	done       bool
}

// New returns a bar writing to w, detecting whether w is a terminal.
func New(w io.Writer, message string) *Bar {
	return NewWithTTY(w, message, isTerminalWriter(w))
}

// NewWithTTY returns a bar with terminal rendering forced on or off.
func NewWithTTY(w io.Writer, message string, isTTY bool) *Bar {
	return &Bar{
		w:        w,
		message:  message,
		width:    defaultWidth,
		isTTY:    isTTY,
		lastLine: -1,
		start:    time.Now(),
	}
}

// isTerminalWriter reports whether w is an *os.File attached to a terminal.
func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Percent returns the last reported percentage.
func (b *Bar) Percent() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.percent
}

// Update records percent, clamped to [0, 100], and redraws the bar.
func (b *Bar) Update(percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	percent = max(0, min(100, percent))
	b.percent = percent

	if b.isTTY {
		b.clearAndWrite(b.buildOutput())
		return
	}

	// One line per step keeps logs readable
	if step := percent / lineStep; step > b.lastLine {
		b.lastLine = step
		fmt.Fprintln(b.w, b.buildOutput())
	}
}

// Done finishes the bar, moving a terminal to the next line.
func (b *Bar) Done() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.done = true
	if b.isTTY && b.lastOutput > 0 {
		fmt.Fprintln(b.w)
	}
}

// buildOutput renders "Message [████░░░░] 40% (1.2s)". Caller holds mu.
func (b *Bar) buildOutput() string {
	filled := b.percent * b.width / 100
	var sb strings.Builder
	if b.message != "" {
		sb.WriteString(b.message)
		sb.WriteString(" ")
	}
	sb.WriteString("[")
	sb.WriteString(strings.Repeat(barFilled, filled))
	sb.WriteString(strings.Repeat(barEmpty, b.width-filled))
	sb.WriteString("]")
	fmt.Fprintf(&sb, " %d%% (%.1fs)", b.percent, time.Since(b.start).Seconds())
	return sb.String()
}

// clearAndWrite overwrites the previous output. Caller holds mu.
func (b *Bar) clearAndWrite(output string) {
	if b.lastOutput > 0 {
		fmt.Fprint(b.w, carriageReturn+strings.Repeat(" ", b.lastOutput)+carriageReturn)
	}
	fmt.Fprint(b.w, output)
	b.lastOutput = len([]rune(output))
}
