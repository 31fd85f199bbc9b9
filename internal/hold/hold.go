package hold

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// DefaultTick is how often the countdown line is re-rendered.
const DefaultTick = 500 * time.Millisecond

// lineStyle renders the countdown faint so it reads as transient status
// rather than log output.
var lineStyle = lipgloss.NewStyle().Faint(true)

// Holder blocks for a fixed duration while showing a countdown.
type Holder struct {
	// Out receives the countdown line. It should be the diagnostic
	// stream (stderr), never primary output.
	Out io.Writer

	// Clock is the time source. Defaults to RealClock.
	Clock Clock

	// Tick is the re-render interval. Defaults to DefaultTick.
	Tick time.Duration
}

// New creates a Holder writing to out. A nil clock means RealClock and a
// non-positive tick means DefaultTick.
func New(out io.Writer, clock Clock, tick time.Duration) *Holder {
	if clock == nil {
		clock = RealClock{}
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Holder{Out: out, Clock: clock, Tick: tick}
}

// Hold blocks for total, re-rendering "<label>: <n>s remaining" every
// tick, then clears the line. A non-positive total returns immediately.
func (h *Holder) Hold(label string, total time.Duration) {
	if total <= 0 {
		return
	}

	clock := h.Clock
	if clock == nil {
		clock = RealClock{}
	}
	tick := h.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	start := clock.Now()
	deadline := start.Add(total)
	width := 0

	for now := start; now.Before(deadline); now = clock.Now() {
		remaining := int(math.Floor(deadline.Sub(now).Seconds()))
		line := fmt.Sprintf("%s: %5ds remaining", label, remaining)
		if len(line) > width {
			width = len(line)
		}
		h.write(lineStyle.Render(line) + "\r")

		// Never sleep past the deadline, so the hold ends within one tick
		// of total rather than up to a full tick late.
		step := tick
		if left := deadline.Sub(now); left < step {
			step = left
		}
		clock.Sleep(step)
	}

	h.write(strings.Repeat(" ", width) + "\r")
}

func (h *Holder) write(s string) {
	if h.Out == nil {
		return
	}
	_, _ = io.WriteString(h.Out, s)
}
