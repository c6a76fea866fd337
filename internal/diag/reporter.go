package diag

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints a *Error the way kanso's error reporter prints a
// CompilerError: a colored "kind: message" header followed by detail, with
// no source-position pointer line since this compiler promises none
// (source-position diagnostics are an explicit Non-goal).
type Reporter struct {
	out io.Writer
}

// NewReporter builds a Reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{out: w}
}

// Report writes a single formatted error, Rust-error-style but without a
// location pointer.
func (r *Reporter) Report(err *Error) {
	bold := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(r.out, "%s: %s\n", bold(err.Kind.String()), err.Message)
	if err.Detail != "" {
		fmt.Fprintf(r.out, "  %s %s\n", dim("-->"), err.Detail)
	}
}
