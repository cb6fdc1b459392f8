package recipe

import (
	"strings"

	"typeweave/internal/binding"
	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/model"
)

// shape is what a body may rely on from the member it belongs to.
type shape struct {
	subject string
	static  bool
	params  []model.ParameterDeclaration
	// ret is Void for members returning nothing.
	ret     meta.TypeID
	hasBase bool
}

func (sh shape) param(name string) (int, bool) {
	for i, p := range sh.params {
		if p.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (sh shape) paramTypes() []meta.TypeID {
	out := make([]meta.TypeID, len(sh.params))
	for i, p := range sh.params {
		out[i] = p.Type
	}
	return out
}

// receiver returns the receiver for accessing a member of the new type.
func receiver(ctx *body.Context, static bool) body.Expr {
	if static {
		return nil
	}
	return ctx.This
}

// provider turns spec into a body provider for a member of shape sh. Names
// are resolved against the model now, so the provider only assembles nodes.
func (s *session) provider(spec *BodySpec, fallback string, sh shape) (body.Provider, error) {
	kind := fallback
	if spec != nil && strings.TrimSpace(spec.Kind) != "" {
		kind = strings.ToLower(strings.TrimSpace(spec.Kind))
	}
	void := s.p.Builtins().Void
	switch kind {
	case "empty":
		return body.Empty, nil
	case "default":
		return body.ReturnDefault, nil
	case "delegate", "base":
		if !sh.hasBase {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "delegate body needs a base method")
		}
		return body.Delegate, nil
	case "throw":
		msg := spec.Message
		if msg == "" {
			msg = "not implemented"
		}
		return body.ThrowNotImplemented(msg), nil
	case "return-param":
		idx, ok := sh.param(spec.Param)
		if !ok {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "no parameter %q", spec.Param)
		}
		if !meta.IsAssignableTo(s.p, sh.params[idx].Type, sh.ret) {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "parameter %q is not assignable to %s", spec.Param, meta.TypeName(s.p, sh.ret))
		}
		return func(ctx *body.Context) (body.Expr, error) {
			p, err := ctx.Parameter(idx)
			if err != nil {
				return nil, err
			}
			return &body.Return{Value: p}, nil
		}, nil
	case "return-const":
		if sh.ret == void {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "void members cannot return a value")
		}
		v, err := convertValue(s.p, s.types, spec.Value, sh.ret)
		if err != nil {
			return nil, errorf(diag.RcpInvalidValue, sh.subject, "%v", err)
		}
		c := &body.Const{T: v.Type, Value: v.Data}
		return func(*body.Context) (body.Expr, error) { return &body.Return{Value: c}, nil }, nil
	case "get-field":
		f, err := s.field(spec.Field, sh)
		if err != nil {
			return nil, err
		}
		if !meta.IsAssignableTo(s.p, f.FieldType(), sh.ret) {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "field %q is not assignable to %s", spec.Field, meta.TypeName(s.p, sh.ret))
		}
		return func(ctx *body.Context) (body.Expr, error) {
			return &body.Return{Value: &body.FieldGet{Field: f, Receiver: receiver(ctx, f.IsStatic())}}, nil
		}, nil
	case "set-field":
		return s.setField(spec, sh)
	case "call":
		return s.call(spec, sh)
	default:
		return nil, errorf(diag.RcpInvalidBody, sh.subject, "unknown body kind %q", kind)
	}
}

func (s *session) field(name string, sh shape) (model.FieldRef, error) {
	f, ok, err := s.tm.SelectField(binding.Default, name)
	if err != nil {
		return model.FieldRef{}, errorf(diag.ModelAmbiguousMatch, sh.subject, "%v", err)
	}
	if !ok {
		return model.FieldRef{}, errorf(diag.RcpUnknownMember, sh.subject, "no field %q", name)
	}
	if sh.static && !f.IsStatic() {
		return model.FieldRef{}, errorf(diag.RcpInvalidBody, sh.subject, "static member cannot use instance field %q", name)
	}
	return f, nil
}

func (s *session) setField(spec *BodySpec, sh shape) (body.Provider, error) {
	f, err := s.field(spec.Field, sh)
	if err != nil {
		return nil, err
	}
	if f.Attributes()&meta.FieldLiteral != 0 {
		return nil, errorf(diag.RcpInvalidBody, sh.subject, "field %q is a constant", spec.Field)
	}
	var value func(*body.Context) (body.Expr, error)
	switch {
	case spec.Value != nil:
		v, err := convertValue(s.p, s.types, spec.Value, f.FieldType())
		if err != nil {
			return nil, errorf(diag.RcpInvalidValue, sh.subject, "%v", err)
		}
		c := &body.Const{T: v.Type, Value: v.Data}
		value = func(*body.Context) (body.Expr, error) { return c, nil }
	default:
		idx := len(sh.params) - 1
		if spec.Param != "" {
			var ok bool
			if idx, ok = sh.param(spec.Param); !ok {
				return nil, errorf(diag.RcpInvalidBody, sh.subject, "no parameter %q", spec.Param)
			}
		}
		if idx < 0 {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "set-field needs a value or a parameter")
		}
		if !meta.IsAssignableTo(s.p, sh.params[idx].Type, f.FieldType()) {
			return nil, errorf(diag.RcpInvalidBody, sh.subject, "parameter %q is not assignable to field %q", sh.params[idx].Name, spec.Field)
		}
		value = func(ctx *body.Context) (body.Expr, error) {
			p, err := ctx.Parameter(idx)
			if err != nil {
				return nil, err
			}
			return p, nil
		}
	}
	return func(ctx *body.Context) (body.Expr, error) {
		v, err := value(ctx)
		if err != nil {
			return nil, err
		}
		set := &body.FieldSet{Field: f, Receiver: receiver(ctx, f.IsStatic()), Value: v}
		return &body.Block{Exprs: []body.Expr{set, &body.Return{}}}, nil
	}, nil
}

// call forwards the member's parameters to a method of the new type with
// the same parameter types.
func (s *session) call(spec *BodySpec, sh shape) (body.Provider, error) {
	m, ok, err := s.tm.SelectMethod(binding.Default, spec.Method, sh.paramTypes(), nil)
	if err != nil {
		return nil, errorf(diag.ModelAmbiguousMatch, sh.subject, "%v", err)
	}
	if !ok {
		return nil, errorf(diag.RcpUnknownMember, sh.subject, "no method %s", meta.FormatSignature(s.p, spec.Method, meta.Signature{Return: sh.ret, Params: sh.paramTypes()}))
	}
	if sh.static && !m.IsStatic() {
		return nil, errorf(diag.RcpInvalidBody, sh.subject, "static member cannot call instance method %q", spec.Method)
	}
	ret := m.Signature().Return
	void := s.p.Builtins().Void
	if sh.ret != void && !meta.IsAssignableTo(s.p, ret, sh.ret) {
		return nil, errorf(diag.RcpInvalidBody, sh.subject, "%s returns %s, want %s", spec.Method, meta.TypeName(s.p, ret), meta.TypeName(s.p, sh.ret))
	}
	return func(ctx *body.Context) (body.Expr, error) {
		call, err := body.NewCall(m, receiver(ctx, m.IsStatic()), false, ctx.Args()...)
		if err != nil {
			return nil, err
		}
		if ret == void || sh.ret == void {
			return &body.Block{Exprs: []body.Expr{call, &body.Return{}}}, nil
		}
		return &body.Return{Value: call}, nil
	}, nil
}
