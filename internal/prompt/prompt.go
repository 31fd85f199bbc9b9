// Package prompt implements the interactive review steps of a release:
// showing an edited file in the operator's pager and asking a y/N
// question before an irreversible action.
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shinji-kodama/release-runner/internal/model"
	"github.com/shinji-kodama/release-runner/internal/runner"
)

// Confirmer asks the operator a yes/no question.
type Confirmer interface {
	Confirm(question string) (bool, error)
}

// Terminal reads answers from In and writes questions to Out.
type Terminal struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewTerminal creates a Terminal over in/out (usually stdin/stderr).
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: bufio.NewReader(in), Out: out}
}

// Confirm prints "<question> [y/N]: " and reads one line.
//
// An empty answer means no. Only the first letter is considered: y/Y is
// yes and n/N is no. Anything else is an unrecognized answer and aborts
// with a usage error rather than guessing.
func (t *Terminal) Confirm(question string) (bool, error) {
	fmt.Fprintf(t.Out, "%s [y/N]: ", question)

	line, err := t.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return false, nil
	}
	switch strings.ToLower(answer[:1]) {
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		return false, fmt.Errorf("%w: unrecognized answer %q", model.ErrUsage, answer)
	}
}

// AssumeYes is a Confirmer that answers yes without asking (--yes).
type AssumeYes struct{}

// Confirm always returns true.
func (AssumeYes) Confirm(string) (bool, error) { return true, nil }

// DefaultPager returns $PAGER, falling back to less.
func DefaultPager() string {
	if p := os.Getenv("PAGER"); p != "" {
		return p
	}
	return "less"
}

// Pager shows files to the operator with an external pager program.
type Pager struct {
	Command string
	Run     runner.Runner
	Log     zerolog.Logger
}

// Show opens path in the pager. Failure is tolerated: a missing or
// broken pager must not abort a release, the operator can still answer
// the confirmation prompt.
func (p *Pager) Show(ctx context.Context, path string) {
	if p.Command == "" {
		return
	}
	if _, err := p.Run.Run(ctx, p.Command, path); err != nil {
		p.Log.Warn().Err(err).Str("pager", p.Command).Msg("pager failed, continuing")
	}
}
