package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/juju/ansiterm"

	"github.com/Adda-Baaj/gink-client/pkg/gink"
)

var (
	errorColor = ansiterm.Foreground(ansiterm.Red).SetStyle(ansiterm.Bold)
	usageColor = ansiterm.Foreground(ansiterm.White).SetStyle(ansiterm.Bold)
	noteColor  = ansiterm.Foreground(ansiterm.Cyan)

	lineBreaks = regexp.MustCompile(`(\r\n|\r|\n)+`)
)

// NewWriter wraps w for colored output. color is one of auto, always and
// never; auto colors only terminals.
func NewWriter(w io.Writer, color string) *ansiterm.Writer {
	aw := ansiterm.NewWriter(w)
	switch color {
	case "always":
		aw.SetColorCapable(true)
	case "never":
		aw.SetColorCapable(false)
	}
	return aw
}

// Printer writes messages to the terminal, coloring each line by what it
// says: errors red, usage lines white, notes cyan.
type Printer struct {
	w    *ansiterm.Writer
	prog string
}

// NewPrinter returns a Printer for the program named prog.
func NewPrinter(w io.Writer, prog, color string) *Printer {
	return &Printer{w: NewWriter(w, color), prog: prog}
}

// Message writes msg line by line. Empty lines are dropped.
func (p *Printer) Message(msg string) {
	for _, line := range lineBreaks.Split(strings.TrimRight(msg, "\r\n"), -1) {
		if ctx := p.colorFor(line); ctx != nil {
			ctx.Fprintf(p.w, "%s", line)
			fmt.Fprintln(p.w)
			continue
		}
		fmt.Fprintln(p.w, line)
	}
}

func (p *Printer) colorFor(line string) *ansiterm.Context {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "error"):
		return errorColor
	case strings.Contains(lower, "usage"), p.prog != "" && strings.HasPrefix(line, p.prog+" "):
		return usageColor
	case strings.HasPrefix(lower, "note"):
		return noteColor
	}
	return nil
}

// Dump writes the service object of a failed call as indented JSON. An HTML
// error page in the body is replaced by its summary.
func (p *Printer) Dump(res *gink.Result) {
	if res == nil {
		return
	}
	obj := res.Object()
	if summary := Summarize(res.Body); summary != "" {
		obj.Set("body", gink.String(summary))
	}

	var out strings.Builder
	enc := json.NewEncoder(&out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		fmt.Fprintf(p.w, "%v\n", obj)
		return
	}
	fmt.Fprint(p.w, out.String())
}

// Fatal reports err on stderr and exits with its code.
func Fatal(prog, color string, err error) {
	if err == nil {
		return
	}
	p := NewPrinter(os.Stderr, prog, color)
	var failed *CallError
	if errors.As(err, &failed) {
		p.Dump(failed.Result)
	}
	p.Message(err.Error())
	os.Exit(ExitCode(err))
}
