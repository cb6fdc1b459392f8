package backend

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"typeweave/internal/meta"
	"typeweave/internal/model"
)

// TextBackend renders a readable build plan of a type model instead of
// emitting code. Member rows are buffered and written with aligned columns
// when the type is finished.
type TextBackend struct {
	w    io.Writer
	p    meta.Provider
	rows [][]string

	header *color.Color
	kind   *color.Color
	note   *color.Color
}

// NewTextBackend writes plans to w. colorize forces ANSI colours on or off.
func NewTextBackend(w io.Writer, colorize bool) *TextBackend {
	tb := &TextBackend{
		w:      w,
		header: color.New(color.FgYellow, color.Bold),
		kind:   color.New(color.FgCyan),
		note:   color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{tb.header, tb.kind, tb.note} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return tb
}

func (tb *TextBackend) DefineType(_ context.Context, tc *TypeContext) error {
	tm := tc.Model
	tb.p = tm.Provider()
	tb.rows = tb.rows[:0]

	kw := "class"
	if tm.IsAbstract() {
		kw = "abstract class"
	}
	line := fmt.Sprintf("%s %s : %s", kw, tm.FullName(), meta.TypeName(tb.p, tm.BaseType()))
	if _, err := fmt.Fprintln(tb.w, tb.header.Sprint(line)); err != nil {
		return err
	}
	for _, attr := range tm.CustomAttributes() {
		tb.rows = append(tb.rows, []string{"attribute", meta.TypeName(tb.p, attr.Type), formatArgs(attr.Args), ""})
	}
	for _, m := range tc.Mappings {
		for i, slot := range m.InterfaceMethods {
			target := "<unimplemented>"
			if t := m.TargetMethods[i]; !t.IsZero() {
				target = t.Name()
				if !t.IsAdded() {
					target = meta.MethodName(tb.p, t.ID())
				}
			}
			tb.rows = append(tb.rows, []string{"map", meta.TypeName(tb.p, m.Interface), meta.MethodName(tb.p, slot) + " -> " + target, ""})
		}
		if len(m.InterfaceMethods) == 0 {
			tb.rows = append(tb.rows, []string{"implements", meta.TypeName(tb.p, m.Interface), "", ""})
		}
	}
	for _, f := range tc.Fields {
		if !f.IsAdded() {
			continue
		}
		tb.rows = append(tb.rows, []string{"field", lowerFlags(f.Attributes().Strings()), meta.TypeName(tb.p, f.FieldType()) + " " + f.Name(), ""})
	}
	return nil
}

func (tb *TextBackend) BuildConstructor(_ context.Context, cc *ConstructorContext) error {
	exprs, err := cc.Bodies()
	if err != nil {
		return err
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = FormatExpr(tb.p, e)
	}
	if cc.IsTypeInitializer() {
		tb.rows = append(tb.rows, []string{meta.TypeInitializerName, "static", "()", strings.Join(parts, "; ")})
		return nil
	}
	c := cc.Constructor
	tb.rows = append(tb.rows, []string{meta.ConstructorName, lowerFlags(c.Attributes().Strings()), formatParams(tb.p, c.Parameters()), strings.Join(parts, "; ")})
	return nil
}

func (tb *TextBackend) BuildMethod(_ context.Context, mc *MethodContext) error {
	m := mc.Method
	sig := meta.TypeName(tb.p, m.ReturnType()) + " " + m.Name() + formatParams(tb.p, m.Parameters())
	if base, ok := m.BaseMethod(); ok {
		sig += " overrides " + meta.MethodName(tb.p, base.ID())
	}
	for _, eb := range m.ExplicitBaseDefinitions() {
		sig += " implements " + meta.MethodName(tb.p, eb.ID())
	}
	detail := "abstract"
	if m.Body() != nil {
		e, err := mc.Body()
		if err != nil {
			return err
		}
		detail = FormatExpr(tb.p, e)
	}
	tb.rows = append(tb.rows, []string{"method", lowerFlags(m.Attributes().Strings()), sig, detail})
	return nil
}

func (tb *TextBackend) FinishType(context.Context, *TypeContext) error {
	widths := make([]int, 3)
	for _, row := range tb.rows {
		for i := range widths {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}
	for _, row := range tb.rows {
		var b strings.Builder
		b.WriteString("  ")
		b.WriteString(tb.kind.Sprint(runewidth.FillRight(row[0], widths[0])))
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(row[1], widths[1]))
		b.WriteString("  ")
		if row[3] == "" {
			b.WriteString(row[2])
		} else {
			b.WriteString(runewidth.FillRight(row[2], widths[2]))
			b.WriteString("  ")
			b.WriteString(tb.note.Sprint(row[3]))
		}
		if _, err := fmt.Fprintln(tb.w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	tb.rows = tb.rows[:0]
	return nil
}

func formatArgs(args []model.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		var b strings.Builder
		writeConst(&b, a.Data)
		parts[i] = b.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

var (
	_ Backend     = (*TextBackend)(nil)
	_ TypeDefiner = (*TextBackend)(nil)
)
