// Package console prints the pass/fail lines and the summary of a
// validation run.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/optimade-validator/internal/constants"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Printer writes coloured result lines to a writer.
type Printer struct {
	w       io.Writer
	profile termenv.Profile
}

// Option configures a Printer.
type Option func(*Printer)

// WithNoColor forces plain output.
func WithNoColor(noColor bool) Option {
	return func(p *Printer) {
		if noColor {
			p.profile = termenv.Ascii
		}
	}
}

// WithProfile sets the colour profile explicitly.
func WithProfile(profile termenv.Profile) Option {
	return func(p *Printer) {
		p.profile = profile
	}
}

// NewPrinter creates a printer writing to w. Colours are enabled only when w
// is a terminal.
func NewPrinter(w io.Writer, opts ...Option) *Printer {
	p := &Printer{
		w:       w,
		profile: termenv.Ascii,
	}

	if isTerminal(w) {
		p.profile = termenv.ColorProfile()
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Discard returns a printer that writes nothing.
func Discard() *Printer {
	return NewPrinter(io.Discard)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd()))
}

// Success prints "✔: <request> - <message>" in green.
func (p *Printer) Success(request, message string) {
	line := fmt.Sprintf("%s: %s - %s", constants.SuccessSymbol, request, message)
	p.println(p.profile.String(line).Foreground(p.profile.Color("2")).String())
}

// Failure prints "✖: <request> - failed with error" in red.
func (p *Printer) Failure(request string) {
	line := fmt.Sprintf("%s: %s - failed with error", constants.FailureSymbol, request)
	p.println(p.profile.String(line).Foreground(p.profile.Color("1")).String())
}

// Warning prints every line of message indented with a tab, in yellow.
func (p *Printer) Warning(message string) {
	for _, line := range strings.Split(message, "\n") {
		p.println(p.profile.String("\t" + line).Foreground(p.profile.Color("3")).String())
	}
}

// Plain prints message unstyled.
func (p *Printer) Plain(message string) {
	p.println(message)
}

// Summary prints the final summary line in bold.
func (p *Printer) Summary(line string) {
	p.println(p.profile.String(line).Bold().String())
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}
