package recipe

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"typeweave/internal/diag"
	"typeweave/internal/library"
	"typeweave/internal/meta"
	"typeweave/internal/model"
	"typeweave/internal/trace"
)

// Error is a problem of the recipe itself, as opposed to a mutation the
// model rejected.
type Error struct {
	Code    diag.Code
	Subject string
	Message string
}

func (e *Error) Error() string {
	if e.Subject == "" {
		return e.Message
	}
	return e.Subject + ": " + e.Message
}

func errorf(code diag.Code, subject, format string, args ...any) *Error {
	return &Error{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Result summarizes one applied recipe.
type Result struct {
	// Model is nil when the type itself could not be created.
	Model   *model.TypeModel
	Applied int
	Failed  int
}

type session struct {
	ctx   context.Context
	p     meta.Provider
	types meta.TypeResolver
	tm    *model.TypeModel
	path  string
	r     diag.Reporter

	applied int
	failed  int
}

type attributeTarget interface {
	AddCustomAttribute(*model.CustomAttributeDeclaration) error
}

// Apply builds the type model described by rc. Type references resolve
// through types; path locates diagnostics. Every rejected entry is reported
// to r and skipped.
func Apply(ctx context.Context, p meta.Provider, types meta.TypeResolver, rc *Recipe, path string, r diag.Reporter, opts ...model.Option) Result {
	s := &session{ctx: ctx, p: p, types: types, path: path, r: r}
	ctx, span := trace.Start(ctx, trace.ScopeSession, "recipe "+rc.Type.FullName())
	s.ctx = ctx

	if !s.step("type "+rc.Type.FullName(), func() error { return s.newModel(&rc.Type, opts) }) {
		span.End("failed")
		return Result{Failed: 1}
	}
	for _, iface := range rc.Type.Interfaces {
		s.step("interface "+iface, func() error {
			id, err := s.resolve(iface, rc.Type.FullName())
			if err != nil {
				return err
			}
			return s.tm.AddInterface(id)
		})
	}
	s.attributes(s.tm, rc.Type.CustomAttributes, s.tm.FullName())
	for i := range rc.Fields {
		s.step("field "+rc.Fields[i].Name, func() error { return s.addField(&rc.Fields[i]) })
	}
	for i := range rc.Constructors {
		s.step(meta.ConstructorName, func() error { return s.addConstructor(&rc.Constructors[i]) })
	}
	for i := range rc.Methods {
		s.step("method "+rc.Methods[i].Name, func() error { return s.addMethod(&rc.Methods[i]) })
	}
	for i := range rc.Overrides {
		s.step("override "+rc.Overrides[i].Method, func() error { return s.addOverride(&rc.Overrides[i]) })
	}
	for i := range rc.ExplicitOverrides {
		eo := &rc.ExplicitOverrides[i]
		s.step("explicit override "+eo.Method+" -> "+eo.Target, func() error { return s.addExplicitOverride(eo) })
	}
	for i := range rc.Properties {
		s.step("property "+rc.Properties[i].Name, func() error { return s.addProperty(&rc.Properties[i]) })
	}
	for i := range rc.Events {
		s.step("event "+rc.Events[i].Name, func() error { return s.addEvent(&rc.Events[i]) })
	}
	for i := range rc.Initializers {
		s.step("initializer", func() error { return s.addInitializer(&rc.Initializers[i]) })
	}

	span.WithExtra("applied", fmt.Sprint(s.applied)).WithExtra("failed", fmt.Sprint(s.failed))
	span.End("")
	return Result{Model: s.tm, Applied: s.applied, Failed: s.failed}
}

// step runs one mutation in its own span and reports its error.
func (s *session) step(name string, fn func() error) bool {
	_, span := trace.Start(s.ctx, trace.ScopeMutation, name)
	err := fn()
	if err == nil {
		s.applied++
		span.End("ok")
		return true
	}
	s.failed++
	s.report(err)
	span.End(err.Error())
	return false
}

func (s *session) report(err error) {
	var (
		ce *model.ConfigError
		re *Error
	)
	switch {
	case errors.As(err, &ce):
		d := ce.Diagnostic(s.path)
		diag.ReportError(s.r, d.Code, d.Primary, d.Message).Emit()
	case errors.As(err, &re):
		diag.ReportError(s.r, re.Code, diag.Location{Path: s.path, Subject: re.Subject}, re.Message).Emit()
	case errors.Is(err, model.ErrAmbiguousMatch):
		diag.ReportError(s.r, diag.ModelAmbiguousMatch, diag.Location{Path: s.path}, err.Error()).Emit()
	default:
		diag.ReportError(s.r, diag.RcpInvalidValue, diag.Location{Path: s.path}, err.Error()).Emit()
	}
}

func (s *session) resolve(ref, subject string) (meta.TypeID, error) {
	id, err := s.types.ResolveRef(ref)
	if err != nil {
		return meta.NoTypeID, errorf(diag.RcpUnknownType, subject, "%v", err)
	}
	return id, nil
}

func (s *session) newModel(spec *TypeSpec, opts []model.Option) error {
	subject := spec.FullName()
	attrs, err := meta.ParseTypeAttributes(spec.Attributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	desc := model.TypeDescriptor{Name: spec.Name, Namespace: spec.Namespace, Attributes: attrs}
	if strings.TrimSpace(spec.Base) != "" {
		if desc.Base, err = s.resolve(spec.Base, subject); err != nil {
			return err
		}
	}
	tm, err := model.NewTypeModel(s.p, desc, opts...)
	if err != nil {
		return err
	}
	s.tm = tm
	return nil
}

func (s *session) params(decls []library.ParamDecl, subject string) ([]model.ParameterDeclaration, error) {
	out := make([]model.ParameterDeclaration, len(decls))
	for i, d := range decls {
		typ, err := s.resolve(d.Type, subject)
		if err != nil {
			return nil, err
		}
		attrs, err := meta.ParseParameterAttributes(d.Attributes)
		if err != nil {
			return nil, errorf(diag.RcpInvalidAttribute, subject, "%v", err)
		}
		out[i] = model.ParameterDeclaration{Name: d.Name, Type: typ, Attributes: attrs}
	}
	return out, nil
}

func (s *session) typeList(refs []string, subject string) ([]meta.TypeID, error) {
	out := make([]meta.TypeID, len(refs))
	for i, ref := range refs {
		id, err := s.resolve(ref, subject)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func (s *session) member(name string) string { return s.tm.FullName() + "." + name }

func (s *session) addField(spec *FieldSpec) error {
	subject := s.member(spec.Name)
	typ, err := s.resolve(spec.Type, subject)
	if err != nil {
		return err
	}
	attrs, err := meta.ParseFieldAttributes(spec.Attributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	f, err := s.tm.AddField(spec.Name, typ, attrs)
	if err != nil {
		return err
	}
	s.attributes(f, spec.CustomAttributes, subject)
	return nil
}

func (s *session) addConstructor(spec *ConstructorSpec) error {
	subject := s.member(meta.ConstructorName)
	attrs, err := meta.ParseMethodAttributes(spec.Attributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	params, err := s.params(spec.Params, subject)
	if err != nil {
		return err
	}
	b, err := s.provider(spec.Body, "empty", shape{subject: subject, params: params, ret: s.p.Builtins().Void})
	if err != nil {
		return err
	}
	c, err := s.tm.AddConstructor(attrs, params, b)
	if err != nil {
		return err
	}
	s.attributes(c, spec.CustomAttributes, subject)
	return nil
}

func (s *session) addMethod(spec *MethodSpec) error {
	subject := s.member(spec.Name)
	attrs, err := meta.ParseMethodAttributes(spec.Attributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	ret := s.p.Builtins().Void
	if strings.TrimSpace(spec.Returns) != "" {
		if ret, err = s.resolve(spec.Returns, subject); err != nil {
			return err
		}
	}
	params, err := s.params(spec.Params, subject)
	if err != nil {
		return err
	}

	var m *model.MutableMethod
	if attrs.IsAbstract() {
		if spec.Body != nil {
			return errorf(diag.RcpInvalidBody, subject, "abstract methods take no body")
		}
		m, err = s.tm.AddAbstractMethod(spec.Name, attrs, ret, params)
	} else {
		sh := shape{
			subject: subject,
			static:  attrs.IsStatic(),
			params:  params,
			ret:     ret,
			hasBase: attrs.IsVirtual() && !attrs.IsNewSlot(),
		}
		b, perr := s.provider(spec.Body, "default", sh)
		if perr != nil {
			return perr
		}
		m, err = s.tm.AddMethod(spec.Name, attrs, ret, params, b)
	}
	if err != nil {
		return err
	}
	s.attributes(m, spec.CustomAttributes, subject)
	return nil
}

// lookupMethod resolves "Namespace.Type.Method" among the methods Type
// declares. params selects an overload; it may be omitted when the name is
// unique.
func (s *session) lookupMethod(ref string, params []string, subject string) (meta.MethodID, error) {
	dot := strings.LastIndexByte(ref, '.')
	if dot <= 0 || dot == len(ref)-1 {
		return meta.NoMethodID, errorf(diag.RcpUnknownMember, subject, "malformed method reference %q, want Namespace.Type.Method", ref)
	}
	typ, err := s.resolve(ref[:dot], subject)
	if err != nil {
		return meta.NoMethodID, err
	}
	var want []meta.TypeID
	if params != nil {
		if want, err = s.typeList(params, subject); err != nil {
			return meta.NoMethodID, err
		}
	}
	var hits []meta.MethodID
	for _, id := range s.p.DeclaredMethods(typ) {
		m := s.p.Method(id)
		if m.Name != ref[dot+1:] {
			continue
		}
		if want != nil && !m.Signature.ParamsEqual(want) {
			continue
		}
		hits = append(hits, id)
	}
	switch len(hits) {
	case 0:
		return meta.NoMethodID, errorf(diag.RcpUnknownMember, subject, "%s declares no method %s", meta.TypeName(s.p, typ), ref[dot+1:])
	case 1:
		return hits[0], nil
	default:
		return meta.NoMethodID, errorf(diag.ModelAmbiguousMatch, subject, "%s is overloaded, select one with params", ref)
	}
}

func (s *session) addOverride(spec *OverrideSpec) error {
	subject := s.member(spec.Method)
	target, err := s.lookupMethod(spec.Method, spec.Params, subject)
	if err != nil {
		return err
	}
	m, _, err := s.tm.GetOrAddOverride(target)
	if err != nil {
		return err
	}
	subject = s.member(m.Name())
	if spec.Body != nil {
		params := make([]model.ParameterDeclaration, 0, len(m.Parameters()))
		for _, p := range m.Parameters() {
			params = append(params, model.ParameterDeclaration{Name: p.Name, Type: p.Type, Attributes: p.Attributes})
		}
		sh := shape{subject: subject, params: params, ret: m.ReturnType(), hasBase: !m.IsAbstract()}
		if info := s.p.Method(target); info != nil && info.Attributes.IsAbstract() {
			sh.hasBase = false
		}
		b, err := s.provider(spec.Body, "delegate", sh)
		if err != nil {
			return err
		}
		if err := m.SetBody(b); err != nil {
			return err
		}
	}
	s.attributes(m, spec.CustomAttributes, subject)
	return nil
}

func (s *session) addExplicitOverride(spec *ExplicitOverrideSpec) error {
	subject := s.member(spec.Method)
	var want []meta.TypeID
	if spec.Params != nil {
		var err error
		if want, err = s.typeList(spec.Params, subject); err != nil {
			return err
		}
	}
	var hits []*model.MutableMethod
	for _, m := range s.tm.AddedMethods() {
		if m.Name() == spec.Method && (want == nil || m.Signature().ParamsEqual(want)) {
			hits = append(hits, m)
		}
	}
	switch len(hits) {
	case 0:
		return errorf(diag.RcpUnknownMember, subject, "no added method %q", spec.Method)
	case 1:
	default:
		return errorf(diag.ModelAmbiguousMatch, subject, "added method %q is overloaded, select one with params", spec.Method)
	}
	target, err := s.lookupMethod(spec.Target, spec.TargetParams, subject)
	if err != nil {
		return err
	}
	return s.tm.AddExplicitOverride(hits[0], target)
}

func (s *session) addProperty(spec *PropertySpec) error {
	subject := s.member(spec.Name)
	typ, err := s.resolve(spec.Type, subject)
	if err != nil {
		return err
	}
	attrs, err := meta.ParseMethodAttributes(spec.AccessorAttributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	index, err := s.params(spec.Index, subject)
	if err != nil {
		return err
	}
	decl := model.PropertyDeclaration{Name: spec.Name, Type: typ, Index: index, AccessorAttributes: attrs}
	if spec.Getter != nil {
		sh := shape{subject: subject + ".get", static: attrs.IsStatic(), params: index, ret: typ}
		if decl.Getter, err = s.provider(spec.Getter, "default", sh); err != nil {
			return err
		}
	}
	if spec.Setter != nil {
		params := append(slices.Clone(index), model.Param("value", typ))
		sh := shape{subject: subject + ".set", static: attrs.IsStatic(), params: params, ret: s.p.Builtins().Void}
		if decl.Setter, err = s.provider(spec.Setter, "empty", sh); err != nil {
			return err
		}
	}
	prop, err := s.tm.AddProperty(decl)
	if err != nil {
		return err
	}
	s.attributes(prop, spec.CustomAttributes, subject)
	return nil
}

func (s *session) addEvent(spec *EventSpec) error {
	subject := s.member(spec.Name)
	handler, err := s.resolve(spec.Handler, subject)
	if err != nil {
		return err
	}
	attrs, err := meta.ParseMethodAttributes(spec.AccessorAttributes)
	if err != nil {
		return errorf(diag.RcpInvalidAttribute, subject, "%v", err)
	}
	decl := model.EventDeclaration{Name: spec.Name, HandlerType: handler, AccessorAttributes: attrs}
	params := []model.ParameterDeclaration{model.Param("value", handler)}
	void := s.p.Builtins().Void
	if decl.Add, err = s.provider(spec.Add, "empty", shape{subject: subject + ".add", static: attrs.IsStatic(), params: params, ret: void}); err != nil {
		return err
	}
	if decl.Remove, err = s.provider(spec.Remove, "empty", shape{subject: subject + ".remove", static: attrs.IsStatic(), params: params, ret: void}); err != nil {
		return err
	}
	ev, err := s.tm.AddEvent(decl)
	if err != nil {
		return err
	}
	s.attributes(ev, spec.CustomAttributes, subject)
	return nil
}

func (s *session) addInitializer(spec *InitializerSpec) error {
	name := meta.ConstructorName
	if spec.Static {
		name = meta.TypeInitializerName
	}
	b, err := s.provider(spec.Body, "empty", shape{subject: s.member(name), static: spec.Static, ret: s.p.Builtins().Void})
	if err != nil {
		return err
	}
	if spec.Static {
		return s.tm.AddTypeInitializer(b)
	}
	return s.tm.AddInstanceInitializer(b)
}

func (s *session) attributes(target attributeTarget, specs []AttributeSpec, subject string) {
	for i := range specs {
		spec := &specs[i]
		s.step("attribute "+spec.Type+" on "+subject, func() error {
			decl, err := s.customAttribute(spec, subject)
			if err != nil {
				return err
			}
			return target.AddCustomAttribute(decl)
		})
	}
}

// customAttribute picks the only public constructor of the attribute type
// whose parameters accept Args, then converts the named arguments to the
// type of the field or property they set.
func (s *session) customAttribute(spec *AttributeSpec, subject string) (*model.CustomAttributeDeclaration, error) {
	typ, err := s.resolve(spec.Type, subject)
	if err != nil {
		return nil, err
	}
	var (
		ctors []meta.MethodID
		args  [][]model.Value
	)
	for _, id := range s.p.DeclaredConstructors(typ) {
		info := s.p.Method(id)
		if info.Attributes.IsStatic() || !info.Attributes.IsPublic() || len(info.Signature.Params) != len(spec.Args) {
			continue
		}
		vals := make([]model.Value, len(spec.Args))
		ok := true
		for i, raw := range spec.Args {
			v, err := convertValue(s.p, s.types, raw, info.Signature.Params[i])
			if err != nil {
				ok = false
				break
			}
			vals[i] = v
		}
		if ok {
			ctors = append(ctors, id)
			args = append(args, vals)
		}
	}
	switch len(ctors) {
	case 0:
		return nil, errorf(diag.RcpInvalidValue, subject, "no public constructor of %s accepts %d such arguments", meta.TypeName(s.p, typ), len(spec.Args))
	case 1:
	default:
		return nil, errorf(diag.ModelAmbiguousMatch, subject, "%d constructors of %s accept these arguments", len(ctors), meta.TypeName(s.p, typ))
	}

	named := make([]model.NamedArgument, 0, len(spec.Named))
	for _, name := range slices.Sorted(maps.Keys(spec.Named)) {
		target, ok := s.namedTarget(typ, name)
		if !ok {
			return nil, errorf(diag.RcpUnknownMember, subject, "%s has no field or property %q", meta.TypeName(s.p, typ), name)
		}
		v, err := convertValue(s.p, s.types, spec.Named[name], target)
		if err != nil {
			return nil, errorf(diag.RcpInvalidValue, subject, "named argument %q: %v", name, err)
		}
		named = append(named, model.Named(name, v))
	}
	return model.NewCustomAttribute(s.p, ctors[0], args[0], named...)
}

func (s *session) namedTarget(typ meta.TypeID, name string) (meta.TypeID, bool) {
	for _, t := range meta.Ancestors(s.p, typ) {
		for _, id := range s.p.DeclaredFields(t) {
			if f := s.p.Field(id); f.Name == name {
				return f.Type, true
			}
		}
		for _, id := range s.p.DeclaredProperties(t) {
			if prop := s.p.Property(id); prop.Name == name {
				return prop.Type, true
			}
		}
	}
	return meta.NoTypeID, false
}
