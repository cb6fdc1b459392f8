package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"typeweave/internal/diag"
)

type palette struct {
	err, warn, info, code, path, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.FgHiBlack),
		path: color.New(color.Bold),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.path, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>: <SEV> <CODE>: <subject>: <Message>
// затем Notes с отступом.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		if err := writeDiagnostic(w, p, d, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeDiagnostic(w io.Writer, p palette, d diag.Diagnostic, opts PrettyOpts) error {
	var prefix string
	if path := formatPath(d.Primary.Path, opts.PathMode, opts.BaseDir); path != "" {
		prefix = p.path.Sprint(path) + ": "
	}
	msg := d.Message
	if d.Primary.Subject != "" {
		msg = d.Primary.Subject + ": " + msg
	}
	if _, err := fmt.Fprintf(w, "%s%s %s: %s\n", prefix, p.severity(d.Severity).Sprint(d.Severity.String()), p.code.Sprint(d.Code.ID()), msg); err != nil {
		return err
	}
	if !opts.ShowNotes && d.Code != diag.ObsTimings {
		return nil
	}
	for _, n := range d.Notes {
		at := diag.Location{Path: formatPath(n.At.Path, opts.PathMode, opts.BaseDir), Subject: n.At.Subject}.String()
		if at != "" {
			at += ": "
		}
		if _, err := fmt.Fprintf(w, "  %s %s%s\n", p.note.Sprint("note:"), at, n.Msg); err != nil {
			return err
		}
	}
	return nil
}

// Summary renders "N errors, M warnings" for a bag; empty when both are zero.
func Summary(bag *diag.Bag) string {
	errs := bag.CountErrors()
	warns := 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			warns++
		}
	}
	switch {
	case errs == 0 && warns == 0:
		return ""
	case warns == 0:
		return plural(errs, "error")
	case errs == 0:
		return plural(warns, "warning")
	default:
		return plural(errs, "error") + ", " + plural(warns, "warning")
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
