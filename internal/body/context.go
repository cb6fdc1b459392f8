package body

import (
	"errors"
	"fmt"

	"typeweave/internal/meta"
)

var (
	ErrNoBaseMethod = errors.New("member does not override a base method")
	ErrArity        = errors.New("argument count does not match the signature")
	ErrReceiver     = errors.New("receiver does not match the member kind")
	ErrNoParameter  = errors.New("parameter index out of range")
)

// Provider builds a body on demand. It is called by the backend, never by
// the type model itself.
type Provider func(*Context) (Expr, error)

// Context is handed to a Provider. It exposes the member's own parameters,
// the receiver and, for overrides, the base method being overridden.
type Context struct {
	// This is nil for static members and type initializers.
	This       Expr
	Parameters []*Param
	// ReturnType is NoTypeID for void members.
	ReturnType meta.TypeID
	BaseMethod Method
}

// NewContext builds a context for a member with the given parameters.
func NewContext(static bool, params []*Param, ret meta.TypeID, base Method) *Context {
	ctx := &Context{Parameters: params, ReturnType: ret, BaseMethod: base}
	if !static {
		ctx.This = &This{}
	}
	return ctx
}

// IsStatic reports whether the member has no receiver.
func (c *Context) IsStatic() bool { return c.This == nil }

// Parameter returns parameter i.
func (c *Context) Parameter(i int) (*Param, error) {
	if i < 0 || i >= len(c.Parameters) {
		return nil, fmt.Errorf("%w: %d of %d", ErrNoParameter, i, len(c.Parameters))
	}
	return c.Parameters[i], nil
}

// Args returns the parameters as call arguments, in order.
func (c *Context) Args() []Expr {
	args := make([]Expr, len(c.Parameters))
	for i, p := range c.Parameters {
		args[i] = p
	}
	return args
}

// DelegateToBase builds a direct, non-virtual call of the base method with
// the member's own receiver and parameters.
func (c *Context) DelegateToBase() (Expr, error) {
	if c.BaseMethod == nil {
		return nil, ErrNoBaseMethod
	}
	call, err := NewCall(c.BaseMethod, c.This, true, c.Args()...)
	if err != nil {
		return nil, err
	}
	return call, nil
}

// NewCall builds a call and checks the argument count and the receiver
// against the method.
func NewCall(m Method, receiver Expr, nonVirtual bool, args ...Expr) (*Call, error) {
	sig := m.Signature()
	if len(args) != len(sig.Params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, m.Name(), len(sig.Params), len(args))
	}
	if m.IsStatic() != (receiver == nil) {
		return nil, fmt.Errorf("%w: %s", ErrReceiver, m.Name())
	}
	return &Call{Method: m, Receiver: receiver, Args: args, NonVirtual: nonVirtual}, nil
}

// ReturnDefault is a Provider that returns the default value of the
// member's return type.
func ReturnDefault(ctx *Context) (Expr, error) {
	if !ctx.ReturnType.IsValid() {
		return &Return{}, nil
	}
	return &Return{Value: &Default{T: ctx.ReturnType}}, nil
}

// Empty is a Provider for members that do nothing.
func Empty(*Context) (Expr, error) { return &Block{}, nil }

// ThrowNotImplemented returns a Provider that throws with message.
func ThrowNotImplemented(message string) Provider {
	return func(*Context) (Expr, error) { return &Throw{Message: message}, nil }
}

// Delegate is a Provider that forwards to the base method.
func Delegate(ctx *Context) (Expr, error) { return ctx.DelegateToBase() }
