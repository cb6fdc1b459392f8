// Package backend is the contract between a finished type model and the
// code generator that materializes it. Walk drives a Backend over a model;
// bodies are built lazily, only when the backend asks for them.
package backend

import (
	"context"
	"errors"
	"fmt"

	"typeweave/internal/body"
	"typeweave/internal/meta"
	"typeweave/internal/model"
)

// ErrNoBody reports a body request for an abstract method.
var ErrNoBody = errors.New("member has no body")

// TypeContext describes the type header: descriptor, interfaces with their
// mappings, fields and custom attributes.
type TypeContext struct {
	Model    *model.TypeModel
	Mappings []model.InterfaceMapping
	Fields   []model.FieldRef
}

// ConstructorContext is handed to BuildConstructor. Constructor is nil for
// the type initializer, which runs the type initializer bodies in order.
type ConstructorContext struct {
	Model        *model.TypeModel
	Constructor  *model.MutableConstructor
	Context      *body.Context
	Initializers []body.Provider
}

// IsTypeInitializer reports whether the context describes the static
// type initializer.
func (c *ConstructorContext) IsTypeInitializer() bool { return c.Constructor == nil }

// Bodies builds the initializer bodies followed by the constructor body.
func (c *ConstructorContext) Bodies() ([]body.Expr, error) {
	out := make([]body.Expr, 0, len(c.Initializers)+1)
	for i, init := range c.Initializers {
		e, err := init(c.Context)
		if err != nil {
			return nil, fmt.Errorf("initializer %d: %w", i, err)
		}
		out = append(out, e)
	}
	if c.Constructor == nil {
		return out, nil
	}
	e, err := c.Constructor.Body()(c.Context)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", meta.ConstructorName, err)
	}
	return append(out, e), nil
}

// MethodContext is handed to BuildMethod.
type MethodContext struct {
	Model   *model.TypeModel
	Method  *model.MutableMethod
	Context *body.Context
}

// Body builds the method body. Abstract methods fail with ErrNoBody.
func (c *MethodContext) Body() (body.Expr, error) {
	b := c.Method.Body()
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoBody, c.Method.Name())
	}
	e, err := b(c.Context)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Method.Name(), err)
	}
	return e, nil
}

// Backend materializes a type model.
type Backend interface {
	BuildConstructor(ctx context.Context, cc *ConstructorContext) error
	BuildMethod(ctx context.Context, mc *MethodContext) error
}

// TypeDefiner is implemented by backends that emit a type header before the
// members and need a final step afterwards.
type TypeDefiner interface {
	DefineType(ctx context.Context, tc *TypeContext) error
	FinishType(ctx context.Context, tc *TypeContext) error
}

// Options tune Walk.
type Options struct {
	// AllowPartial accepts interface mappings with unimplemented slots.
	AllowPartial bool
}

// Walk hands the model to b: header, type initializer, constructors in
// insertion order, then added methods in insertion order. It stops at the
// first error or when ctx is cancelled.
func Walk(ctx context.Context, tm *model.TypeModel, b Backend, opts Options) error {
	mappings, err := tm.Mappings(opts.AllowPartial)
	if err != nil {
		return err
	}
	tc := &TypeContext{Model: tm, Mappings: mappings, Fields: tm.AllFields()}
	definer, _ := b.(TypeDefiner)
	if definer != nil {
		if err := definer.DefineType(ctx, tc); err != nil {
			return err
		}
	}

	if inits := tm.TypeInitializers(); len(inits) > 0 {
		cc := &ConstructorContext{Model: tm, Context: tm.InitializerContext(true), Initializers: inits}
		if err := build(ctx, func() error { return b.BuildConstructor(ctx, cc) }); err != nil {
			return err
		}
	}
	for _, ref := range tm.AllConstructors() {
		c := ref.Added()
		cc := &ConstructorContext{
			Model:        tm,
			Constructor:  c,
			Context:      tm.ConstructorContext(c),
			Initializers: tm.InstanceInitializers(),
		}
		if err := build(ctx, func() error { return b.BuildConstructor(ctx, cc) }); err != nil {
			return err
		}
	}
	for _, m := range tm.AddedMethods() {
		mc := &MethodContext{Model: tm, Method: m, Context: tm.MethodContext(m)}
		if err := build(ctx, func() error { return b.BuildMethod(ctx, mc) }); err != nil {
			return err
		}
	}

	if definer != nil {
		return definer.FinishType(ctx, tc)
	}
	return nil
}

func build(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn()
}
