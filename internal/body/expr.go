// Package body is the opaque body language attached to constructors,
// methods and initializers of a type model. Bodies are built lazily by a
// Provider when the code-generation backend asks for them.
package body

import (
	"typeweave/internal/meta"
)

// Method is the view of a callable member a body can reference.
type Method interface {
	Name() string
	Signature() meta.Signature
	IsStatic() bool
}

// Field is the view of a field a body can reference.
type Field interface {
	Name() string
	FieldType() meta.TypeID
	IsStatic() bool
}

// Expr is a node of a body tree. Type returns meta.NoTypeID for statements
// and for references to the type under construction.
type Expr interface {
	Type() meta.TypeID
	exprNode()
}

// This is the receiver of an instance member.
type This struct {
	T meta.TypeID
}

// Param references a parameter of the member being built.
type Param struct {
	Index int
	Name  string
	T     meta.TypeID
}

// Const is a literal value of a builtin type, or null when Value is nil.
type Const struct {
	T     meta.TypeID
	Value any
}

// Default is the zero value of a type.
type Default struct {
	T meta.TypeID
}

// Call invokes Method. NonVirtual calls bypass dynamic dispatch.
type Call struct {
	Method     Method
	Receiver   Expr
	Args       []Expr
	NonVirtual bool
}

// FieldGet reads a field; Receiver is nil for static fields.
type FieldGet struct {
	Field    Field
	Receiver Expr
}

// FieldSet writes a field; Receiver is nil for static fields.
type FieldSet struct {
	Field    Field
	Receiver Expr
	Value    Expr
}

// Block evaluates its expressions in order and yields the last one.
type Block struct {
	Exprs []Expr
}

// Return leaves the member, optionally with a value.
type Return struct {
	Value Expr
}

// Throw aborts the member with an exception carrying Message.
type Throw struct {
	Message string
}

func (e *This) Type() meta.TypeID { return e.T }
func (e *Param) Type() meta.TypeID { return e.T }
func (e *Const) Type() meta.TypeID { return e.T }
func (e *Default) Type() meta.TypeID { return e.T }
func (e *Call) Type() meta.TypeID { return e.Method.Signature().Return }
func (e *FieldGet) Type() meta.TypeID { return e.Field.FieldType() }
func (e *FieldSet) Type() meta.TypeID { return meta.NoTypeID }
func (e *Block) Type() meta.TypeID {
	if len(e.Exprs) == 0 {
		return meta.NoTypeID
	}
	return e.Exprs[len(e.Exprs)-1].Type()
}
func (e *Return) Type() meta.TypeID { return meta.NoTypeID }
func (e *Throw) Type() meta.TypeID { return meta.NoTypeID }

func (*This) exprNode() {}
func (*Param) exprNode() {}
func (*Const) exprNode() {}
func (*Default) exprNode() {}
func (*Call) exprNode() {}
func (*FieldGet) exprNode() {}
func (*FieldSet) exprNode() {}
func (*Block) exprNode() {}
func (*Return) exprNode() {}
func (*Throw) exprNode() {}

// Walk visits e and its children depth-first. Returning false from visit
// skips the children of the current node.
func Walk(e Expr, visit func(Expr) bool) {
	if e == nil || !visit(e) {
		return
	}
	switch n := e.(type) {
	case *Call:
		Walk(n.Receiver, visit)
		for _, a := range n.Args {
			Walk(a, visit)
		}
	case *FieldGet:
		Walk(n.Receiver, visit)
	case *FieldSet:
		Walk(n.Receiver, visit)
		Walk(n.Value, visit)
	case *Block:
		for _, x := range n.Exprs {
			Walk(x, visit)
		}
	case *Return:
		Walk(n.Value, visit)
	}
}
