package backend

import (
	"fmt"
	"strconv"
	"strings"

	"typeweave/internal/body"
	"typeweave/internal/meta"
	"typeweave/internal/model"
)

// FormatExpr renders a body tree on one line. Non-virtual calls print as
// "call", dispatched calls as "callvirt".
func FormatExpr(p meta.Provider, e body.Expr) string {
	var b strings.Builder
	writeExpr(&b, p, e)
	return b.String()
}

func writeExpr(b *strings.Builder, p meta.Provider, e body.Expr) {
	switch n := e.(type) {
	case nil:
		b.WriteString("<nil>")
	case *body.This:
		b.WriteString("this")
	case *body.Param:
		b.WriteString(n.Name)
	case *body.Const:
		writeConst(b, n.Value)
	case *body.Default:
		b.WriteString("default(")
		b.WriteString(meta.TypeName(p, n.T))
		b.WriteByte(')')
	case *body.Call:
		if n.NonVirtual {
			b.WriteString("call ")
		} else {
			b.WriteString("callvirt ")
		}
		b.WriteString(methodLabel(p, n.Method))
		b.WriteByte('(')
		first := true
		if n.Receiver != nil {
			writeExpr(b, p, n.Receiver)
			first = false
		}
		for _, arg := range n.Args {
			if !first {
				b.WriteString(", ")
			}
			first = false
			writeExpr(b, p, arg)
		}
		b.WriteByte(')')
	case *body.FieldGet:
		writeFieldTarget(b, p, n.Receiver, n.Field)
	case *body.FieldSet:
		writeFieldTarget(b, p, n.Receiver, n.Field)
		b.WriteString(" = ")
		writeExpr(b, p, n.Value)
	case *body.Block:
		if len(n.Exprs) == 0 {
			b.WriteString("{}")
			return
		}
		b.WriteString("{ ")
		for i, inner := range n.Exprs {
			if i > 0 {
				b.WriteString("; ")
			}
			writeExpr(b, p, inner)
		}
		b.WriteString(" }")
	case *body.Return:
		b.WriteString("return")
		if n.Value != nil {
			b.WriteByte(' ')
			writeExpr(b, p, n.Value)
		}
	case *body.Throw:
		b.WriteString("throw ")
		b.WriteString(strconv.Quote(n.Message))
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

func writeConst(b *strings.Builder, v any) {
	switch c := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(c))
	default:
		fmt.Fprint(b, c)
	}
}

func writeFieldTarget(b *strings.Builder, p meta.Provider, recv body.Expr, f body.Field) {
	if recv != nil {
		writeExpr(b, p, recv)
		b.WriteByte('.')
	}
	b.WriteString(f.Name())
}

func methodLabel(p meta.Provider, m body.Method) string {
	if ref, ok := m.(model.MethodRef); ok && !ref.IsAdded() && ref.Info() != nil {
		return meta.MethodName(p, ref.ID())
	}
	return m.Name()
}

// formatParams renders "(Type name, ...)".
func formatParams(p meta.Provider, params []model.Parameter) string {
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = meta.TypeName(p, param.Type) + " " + param.Name
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func lowerFlags(flags []string) string {
	return strings.ToLower(strings.Join(flags, " "))
}
