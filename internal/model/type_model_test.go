package model

import (
	"errors"
	"strings"
	"testing"

	"typeweave/internal/binding"
	"typeweave/internal/body"
	"typeweave/internal/meta"
)

func TestNewTypeModelRejectsInvalidBase(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		name string
		desc TypeDescriptor
	}{
		{"empty name", TypeDescriptor{Namespace: "Gen"}},
		{"sealed base", TypeDescriptor{Name: "X", Base: f.str}},
		{"interface base", TypeDescriptor{Name: "X", Base: f.disposable}},
		{"value type base", TypeDescriptor{Name: "X", Base: f.int32}},
		{"interface model", TypeDescriptor{Name: "X", Attributes: meta.TypeInterface}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTypeModel(f.u, tc.desc)
			if !errors.Is(err, ErrInvalidType) || !errors.Is(err, ErrConfiguration) {
				t.Fatalf("want invalid type configuration error, got %v", err)
			}
		})
	}
	tm, err := NewTypeModel(f.u, TypeDescriptor{Name: "Fresh"})
	if err != nil {
		t.Fatalf("from-scratch type: %v", err)
	}
	if tm.BaseType() != f.object {
		t.Fatalf("zero base must derive from Object, got %d", tm.BaseType())
	}
}

func TestDuplicateFieldRejected(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	first, err := tm.AddField("_x", f.int32, meta.FieldAttributes(meta.AccessPrivate))
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err = tm.AddField("_x", f.int32, meta.FieldAttributes(meta.AccessPrivate))
	if !errors.Is(err, ErrDuplicateMember) || !errors.Is(err, ErrConfiguration) {
		t.Fatalf("second add must fail with duplicate member, got %v", err)
	}
	fields := tm.AllFields()
	if len(fields) != 1 || fields[0].Added() != first {
		t.Fatalf("first field must remain alone, got %d fields", len(fields))
	}
	if _, err := tm.AddField("_x", f.int64, meta.FieldAttributes(meta.AccessPrivate)); err != nil {
		t.Fatalf("same name with another type is a distinct field: %v", err)
	}
}

func TestFieldValidation(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	if _, err := tm.AddField("lit", f.int32, meta.FieldLiteral); !errors.Is(err, ErrInvalidAttributes) || !strings.Contains(err.Error(), "Literal") {
		t.Fatalf("literal field: %v", err)
	}
	if _, err := tm.AddField("v", f.void, 0); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("void field: %v", err)
	}
}

func TestInheritedFields(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.b)
	fields := tm.AllFields()
	if len(fields) != 1 || fields[0].ID() != f.aCount {
		t.Fatalf("family field of A must be inherited, got %d fields", len(fields))
	}
	ref, err := tm.GetField(f.aCount)
	if err != nil || ref.IsAdded() || ref.ID() != f.aCount {
		t.Fatalf("GetField pass-through: %+v %v", ref, err)
	}
}

func TestConstructorFlagValidation(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	cases := []struct {
		attrs meta.MethodAttributes
		want  string
	}{
		{meta.MethodPublic() | meta.MethodAbstract, "Abstract"},
		{meta.MethodPublic() | meta.MethodVirtual, "Virtual"},
		{meta.MethodPublic() | meta.MethodHideBySig, "HideBySig"},
		{meta.MethodPublic() | meta.MethodPinvokeImpl, "PinvokeImpl"},
		{meta.MethodPublic() | meta.MethodRequireSecObject, "RequireSecObject"},
		{meta.MethodPublic() | meta.MethodUnmanagedExport, "UnmanagedExport"},
	}
	for _, tc := range cases {
		_, err := tm.AddConstructor(tc.attrs, nil, body.Empty)
		if !errors.Is(err, ErrInvalidAttributes) {
			t.Fatalf("%s: want invalid attributes, got %v", tc.want, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("error %q must name %s", err, tc.want)
		}
	}
	if _, err := tm.AddConstructor(meta.MethodPublic()|meta.MethodStatic, nil, body.Empty); !errors.Is(err, ErrStaticConstructor) {
		t.Fatalf("static constructor: %v", err)
	}
	if len(tm.AllConstructors()) != 0 {
		t.Fatalf("rejected constructors must not be added")
	}

	c, err := tm.AddConstructor(meta.MethodPublic(), []ParameterDeclaration{Param("x", f.int32), {Type: f.str}}, body.Empty)
	if err != nil {
		t.Fatalf("valid constructor: %v", err)
	}
	if c.Attributes()&(meta.MethodSpecialName|meta.MethodRTSpecialName) == 0 {
		t.Fatalf("constructor must be special-named: %v", c.Attributes().Strings())
	}
	params := c.Parameters()
	if params[0].Position != 0 || params[1].Position != 1 || params[1].Name != "arg1" {
		t.Fatalf("parameters = %+v", params)
	}
	if _, err := tm.AddConstructor(meta.MethodPublic(), []ParameterDeclaration{Param("y", f.int32), Param("z", f.str)}, body.Empty); !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("constructor with same parameter types: %v", err)
	}
	if _, ok, err := tm.SelectConstructor(binding.Default, []meta.TypeID{f.int32, f.str}, nil); err != nil || !ok {
		t.Fatalf("SelectConstructor: ok=%v err=%v", ok, err)
	}
}

func TestMethodFlagValidation(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	cases := []struct {
		name  string
		attrs meta.MethodAttributes
		body  body.Provider
		want  error
	}{
		{"pinvoke", meta.MethodPublic() | meta.MethodPinvokeImpl, body.Empty, ErrInvalidAttributes},
		{"newslot without virtual", meta.MethodPublic() | meta.MethodNewSlot, body.Empty, ErrInvalidAttributes},
		{"static virtual", meta.MethodPublic() | meta.MethodStatic | meta.MethodVirtual, body.Empty, ErrInvalidAttributes},
		{"abstract with body", meta.MethodPublic() | meta.MethodVirtual | meta.MethodAbstract, body.Empty, ErrInvalidBody},
		{"missing body", meta.MethodPublic(), nil, ErrInvalidBody},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tm.AddMethod("M", tc.attrs, f.void, nil, tc.body); !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	out := ParameterDeclaration{Name: "result", Type: f.int32, Attributes: meta.ParamOut}
	if _, err := tm.AddMethod("Try", meta.MethodPublic(), f.void, []ParameterDeclaration{out}, body.Empty); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("out parameter without by-ref type: %v", err)
	}
	if len(tm.AddedMethods()) != 0 {
		t.Fatalf("rejected methods must not be added")
	}
}

func TestOverrideCallsMostDerivedNonVirtually(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.b)

	m, created, err := tm.GetOrAddOverride(f.aF)
	if err != nil || !created {
		t.Fatalf("GetOrAddOverride(A.F): created=%v err=%v", created, err)
	}
	if m.Name() != "F" || m.Attributes().IsNewSlot() || !m.IsVirtual() {
		t.Fatalf("override attrs = %v name %s", m.Attributes().Strings(), m.Name())
	}
	base, ok := m.BaseMethod()
	if !ok || base.ID() != f.bF {
		t.Fatalf("override must link B.F, got %d", base.ID())
	}

	expr, err := m.Body()(tm.MethodContext(m))
	if err != nil {
		t.Fatalf("default body: %v", err)
	}
	call, ok := expr.(*body.Call)
	if !ok {
		t.Fatalf("default body is %T, want *body.Call", expr)
	}
	target, ok := call.Method.(MethodRef)
	if !ok || target.ID() != f.bF || !call.NonVirtual {
		t.Fatalf("default body must call B.F non-virtually, got %v nonvirtual=%v", target.ID(), call.NonVirtual)
	}
}

func TestGetOrAddOverrideIsIdempotent(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.b)
	first, created, err := tm.GetOrAddOverride(f.aF)
	if err != nil || !created {
		t.Fatalf("first call: %v", err)
	}
	second, created, err := tm.GetOrAddOverride(f.bF)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if created || second != first {
		t.Fatalf("second request of the same slot must return the same method")
	}
	if n := len(tm.AddedMethods()); n != 1 {
		t.Fatalf("added methods = %d, want 1", n)
	}
}

func TestOverrideTransitivity(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.c)

	got, ok := tm.Resolver().FindMostDerivedVirtualMethod("F", meta.Signature{Return: f.void}, f.c)
	if !ok || got != f.cF {
		t.Fatalf("most derived F from C = %d, want %d", got, f.cF)
	}
	methods := tm.AllMethods()
	if hasExisting(methods, f.aF) || hasExisting(methods, f.bF) {
		t.Fatalf("overridden ancestors must not be enumerated")
	}
	if !hasExisting(methods, f.cF) {
		t.Fatalf("C.F must be enumerated before it is overridden")
	}

	m, _, err := tm.GetOrAddOverride(f.aF)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if base, _ := m.BaseMethod(); base.ID() != f.cF {
		t.Fatalf("override must link C.F, got %d", base.ID())
	}
	methods = tm.AllMethods()
	if hasExisting(methods, f.cF) {
		t.Fatalf("C.F must be omitted once overridden")
	}
	ref, err := tm.GetMethod(f.cF)
	if err != nil || ref.Added() != m {
		t.Fatalf("GetMethod(C.F) must resolve to the override, got %v", err)
	}
}

func TestShadowedBaseGetsExplicitOverride(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.s)

	m, created, err := tm.GetOrAddOverride(f.aF)
	if err != nil || !created {
		t.Fatalf("override of shadowed A.F: %v", err)
	}
	if m.Name() != "Demo.A.F" {
		t.Fatalf("name = %q, want Demo.A.F", m.Name())
	}
	if !m.Attributes().IsNewSlot() || m.Attributes().Access() != meta.AccessPrivate {
		t.Fatalf("attrs = %v", m.Attributes().Strings())
	}
	if _, linked := m.BaseMethod(); linked {
		t.Fatalf("shadowed definition must not become a base method link")
	}
	explicit := m.ExplicitBaseDefinitions()
	if len(explicit) != 1 || explicit[0].ID() != f.aF {
		t.Fatalf("explicit bases = %v", explicit)
	}
	if !hasExisting(tm.AllMethods(), f.sF) {
		t.Fatalf("S.F must stay visible")
	}
	ctx := tm.MethodContext(m)
	if ref, ok := ctx.BaseMethod.(MethodRef); !ok || ref.ID() != f.aF {
		t.Fatalf("context base method = %v", ctx.BaseMethod)
	}
}

func TestPrivateAncestorMethodDoesNotShadow(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.privateHider)

	m, created, err := tm.GetOrAddOverride(f.aF)
	if err != nil || !created {
		t.Fatalf("override of A.F below private PH.F: %v", err)
	}
	if m.Name() != "F" || m.Attributes().IsNewSlot() {
		t.Fatalf("override = %s %v, want reuse-slot F", m.Name(), m.Attributes().Strings())
	}
	if got := m.Attributes().Access(); got != meta.AccessPublic {
		t.Fatalf("access = %v, want Public", got)
	}
	base, linked := m.BaseMethod()
	if !linked || base.ID() != f.aF {
		t.Fatalf("base method = %v, linked = %v", base, linked)
	}
	if len(m.ExplicitBaseDefinitions()) != 0 {
		t.Fatalf("explicit bases = %v", m.ExplicitBaseDefinitions())
	}
}

func TestAddedMemberShadowsBaseDefinition(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.a)
	hide, err := tm.AddMethod("F", meta.MethodPublic()|meta.MethodHideBySig, f.void, nil, body.Empty)
	if err != nil {
		t.Fatalf("hiding method: %v", err)
	}
	if hasExisting(tm.AllMethods(), f.aF) {
		t.Fatalf("A.F must be hidden by the added F")
	}
	ref, err := tm.GetMethod(f.aF)
	if err != nil || ref.Added() != hide {
		t.Fatalf("GetMethod(A.F) = %v, %v", ref.Name(), err)
	}
	m, _, err := tm.GetOrAddOverride(f.aF)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if m.Name() != "Demo.A.F" || !m.Attributes().IsNewSlot() {
		t.Fatalf("override of hidden A.F = %s %v", m.Name(), m.Attributes().Strings())
	}
}

func TestFamORAssemCollapsesToFamily(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.q)
	m, _, err := tm.GetOrAddOverride(f.qQ)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if got := m.Attributes().Access(); got != meta.AccessFamily {
		t.Fatalf("access = %v, want Family", got)
	}
}

func TestOverrideRejections(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.b)
	cases := []struct {
		name   string
		method meta.MethodID
		want   error
	}{
		{"final override", f.bH, ErrFinalOverride},
		{"slot sealed below", f.aH, ErrFinalOverride},
		{"unrelated class", f.unrelatedF, ErrOutsideHierarchy},
		{"interface method", f.disposeM, ErrOutsideHierarchy},
		{"non-virtual", f.objectMethod(t, "GetType"), ErrNotVirtual},
		{"unknown", meta.MethodID(9999), ErrUnknownMember},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := tm.GetOrAddOverride(tc.method); !errors.Is(err, tc.want) || !errors.Is(err, ErrConfiguration) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
	if _, err := tm.AddMethod("H", meta.MethodPublic()|meta.MethodVirtual|meta.MethodHideBySig, f.void, nil, body.Empty); !errors.Is(err, ErrFinalOverride) {
		t.Fatalf("reuse-slot H over final B.H: %v", err)
	}
}

func TestAbstractOverride(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.z)
	if !tm.IsAbstract() {
		t.Fatalf("unimplemented abstract M makes the type abstract")
	}
	m, _, err := tm.GetOrAddOverride(f.zM)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if !m.IsAbstract() || m.Body() != nil {
		t.Fatalf("override of abstract method must stay abstract without a body")
	}
	if p := m.Parameters(); len(p) != 1 || p[0].Name != "text" || p[0].Type != f.str {
		t.Fatalf("parameters = %+v", p)
	}
	if err := m.SetBody(body.ReturnDefault); err != nil {
		t.Fatalf("SetBody: %v", err)
	}
	if m.IsAbstract() || tm.IsAbstract() {
		t.Fatalf("concrete body must clear Abstract")
	}
}

func TestAddedInterfaceMapping(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID, f.disposable)

	_, err := tm.GetInterfaceMapping(f.disposable, false)
	if !errors.Is(err, ErrUnimplemented) || !strings.Contains(err.Error(), "Dispose") {
		t.Fatalf("unimplemented IDisposable must name Dispose, got %v", err)
	}
	partial, err := tm.GetInterfaceMapping(f.disposable, true)
	if err != nil || len(partial.TargetMethods) != 1 || !partial.TargetMethods[0].IsZero() || partial.Complete() {
		t.Fatalf("partial mapping = %+v, %v", partial, err)
	}

	impl, err := tm.AddMethod("Dispose", meta.MethodPublic()|meta.MethodVirtual|meta.MethodHideBySig|meta.MethodNewSlot, f.void, nil, body.Empty)
	if err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	mapping, err := tm.GetInterfaceMapping(f.disposable, false)
	if err != nil {
		t.Fatalf("complete mapping: %v", err)
	}
	if mapping.InterfaceMethods[0] != f.disposeM || mapping.TargetMethods[0].Added() != impl {
		t.Fatalf("Dispose must map to the added method")
	}
}

func TestExplicitOverrideWinsOverImplicit(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID, f.extended)
	if _, err := tm.AddMethod("Dispose", meta.MethodPublic(), f.void, nil, body.Empty); err != nil {
		t.Fatalf("implicit candidate: %v", err)
	}
	explicit, err := tm.AddMethod("Demo.IDisposable.Dispose",
		meta.MethodAttributes(meta.AccessPrivate)|meta.MethodVirtual|meta.MethodNewSlot|meta.MethodHideBySig, f.void, nil, body.Empty)
	if err != nil {
		t.Fatalf("explicit candidate: %v", err)
	}
	if err := tm.AddExplicitOverride(explicit, f.disposeM); err != nil {
		t.Fatalf("AddExplicitOverride: %v", err)
	}
	if err := tm.AddExplicitOverride(explicit, f.disposeM); !errors.Is(err, ErrExplicitOverride) {
		t.Fatalf("repeated explicit override: %v", err)
	}
	mapping, err := tm.GetInterfaceMapping(f.disposable, false)
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	if mapping.TargetMethods[0].Added() != explicit {
		t.Fatalf("explicit implementation must win, got %s", mapping.TargetMethods[0].Name())
	}
	all, err := tm.Mappings(false)
	if err != nil || len(all) != 2 {
		t.Fatalf("Mappings = %d, %v", len(all), err)
	}
}

func TestExplicitOverrideRejections(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.b)
	virt := meta.MethodAttributes(meta.AccessPrivate) | meta.MethodVirtual | meta.MethodNewSlot | meta.MethodHideBySig
	m, err := tm.AddMethod("Demo.A.G", virt, f.void, nil, body.Empty)
	if err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	if err := tm.AddExplicitOverride(m, f.disposeM); !errors.Is(err, ErrOutsideHierarchy) {
		t.Fatalf("interface not implemented: %v", err)
	}
	if err := tm.AddExplicitOverride(m, f.bH); !errors.Is(err, ErrFinalOverride) {
		t.Fatalf("final target: %v", err)
	}
	if err := tm.AddExplicitOverride(m, f.zM); !errors.Is(err, ErrOutsideHierarchy) {
		t.Fatalf("unrelated target: %v", err)
	}
	if err := tm.AddExplicitOverride(m, f.aG); err != nil {
		t.Fatalf("valid explicit override: %v", err)
	}
	if again, created, err := tm.GetOrAddOverride(f.aG); err != nil || created || again != m {
		t.Fatalf("slot already filled explicitly must be reused: created=%v err=%v", created, err)
	}

	reuse, _, err := tm.GetOrAddOverride(f.aF)
	if err != nil {
		t.Fatalf("override F: %v", err)
	}
	if err := tm.AddExplicitOverride(reuse, f.aF); !errors.Is(err, ErrExplicitOverride) {
		t.Fatalf("slot link and explicit base for the same slot must be exclusive: %v", err)
	}

	other := f.model(t, f.b)
	if err := other.AddExplicitOverride(m, f.aG); !errors.Is(err, ErrExplicitOverride) {
		t.Fatalf("foreign method: %v", err)
	}
}

func TestInheritedInterfaceMapping(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.impl)
	mapping, err := tm.GetInterfaceMapping(f.disposable, false)
	if err != nil {
		t.Fatalf("mapping: %v", err)
	}
	if target := mapping.TargetMethods[0]; target.IsAdded() || target.ID() != f.implDispose {
		t.Fatalf("inherited mapping must keep Impl.Dispose")
	}
	m, _, err := tm.GetOrAddOverride(f.implDispose)
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	mapping, err = tm.GetInterfaceMapping(f.disposable, false)
	if err != nil || mapping.TargetMethods[0].Added() != m {
		t.Fatalf("override must take the inherited slot: %v", err)
	}
}

func TestInterfaceErrors(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.impl)
	if err := tm.AddInterface(f.str); !errors.Is(err, ErrNotInterface) {
		t.Fatalf("class as interface: %v", err)
	}
	if err := tm.AddInterface(f.disposable); !errors.Is(err, ErrAlreadyImplemented) {
		t.Fatalf("inherited interface added again: %v", err)
	}
	if _, err := tm.GetInterfaceMapping(f.extended, true); !errors.Is(err, ErrInterfaceNotFound) {
		t.Fatalf("mapping of unimplemented interface: %v", err)
	}
	if _, err := tm.GetInterfaceMapping(f.a, true); !errors.Is(err, ErrNotInterface) {
		t.Fatalf("mapping of class: %v", err)
	}
	if err := tm.AddInterface(f.extended); err != nil {
		t.Fatalf("AddInterface: %v", err)
	}
	got := tm.AllInterfaces()
	if len(got) != 2 || got[0] != f.disposable || got[1] != f.extended {
		t.Fatalf("AllInterfaces = %v", got)
	}
}

func TestGetInterfaceByName(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.impl, f.extended)
	cases := []struct {
		name       string
		ignoreCase bool
		want       meta.TypeID
		found      bool
	}{
		{"IDisposable", false, f.disposable, true},
		{"Demo.IResource", false, f.extended, true},
		{"idisposable", false, meta.NoTypeID, false},
		{"idisposable", true, f.disposable, true},
		{"IMissing", true, meta.NoTypeID, false},
	}
	for _, tc := range cases {
		got, ok, err := tm.GetInterface(tc.name, tc.ignoreCase)
		if err != nil || ok != tc.found || got != tc.want {
			t.Fatalf("GetInterface(%q, %v) = %d %v %v", tc.name, tc.ignoreCase, got, ok, err)
		}
	}
}

func TestGetMethodCannotModifyUntracked(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.a)
	if _, err := tm.GetMethod(f.aP); !errors.Is(err, ErrCannotModify) {
		t.Fatalf("private method of the base must not be addressable: %v", err)
	}
	toString := f.objectMethod(t, "ToString")
	ref, err := tm.GetMethod(toString)
	if err != nil || ref.IsAdded() || ref.ID() != toString {
		t.Fatalf("ToString pass-through: %v", err)
	}
}

func TestPropertiesAndEvents(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	prop, err := tm.AddProperty(PropertyDeclaration{
		Name:               "Count",
		Type:               f.int32,
		AccessorAttributes: meta.MethodPublic(),
		Getter:             body.ReturnDefault,
		Setter:             body.Empty,
	})
	if err != nil {
		t.Fatalf("AddProperty: %v", err)
	}
	if prop.Getter().Name() != "get_Count" || prop.Setter().Name() != "set_Count" {
		t.Fatalf("accessor names = %s, %s", prop.Getter().Name(), prop.Setter().Name())
	}
	if p := prop.Setter().Parameters(); len(p) != 1 || p[0].Name != "value" || p[0].Type != f.int32 {
		t.Fatalf("setter parameters = %+v", p)
	}
	before := len(tm.AddedMethods())
	if _, err := tm.AddProperty(PropertyDeclaration{Name: "Count", Type: f.int32, Getter: body.ReturnDefault}); !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("duplicate property: %v", err)
	}
	if _, err := tm.AddProperty(PropertyDeclaration{Name: "Empty", Type: f.int32}); !errors.Is(err, ErrInvalidProperty) {
		t.Fatalf("property without accessors: %v", err)
	}
	if len(tm.AddedMethods()) != before {
		t.Fatalf("failed property adds must not leave accessors behind")
	}

	ev, err := tm.AddEvent(EventDeclaration{
		Name:               "Changed",
		HandlerType:        f.handler,
		AccessorAttributes: meta.MethodPublic(),
		Add:                body.Empty,
		Remove:             body.Empty,
	})
	if err != nil {
		t.Fatalf("AddEvent: %v", err)
	}
	if ev.AddMethod().Name() != "add_Changed" || ev.RemoveMethod().Name() != "remove_Changed" {
		t.Fatalf("event accessors = %s, %s", ev.AddMethod().Name(), ev.RemoveMethod().Name())
	}
	if _, err := tm.AddEvent(EventDeclaration{Name: "Bad", HandlerType: f.int32, Add: body.Empty, Remove: body.Empty}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("non-delegate handler: %v", err)
	}
	if len(tm.AllProperties()) != 1 || len(tm.AllEvents()) != 1 {
		t.Fatalf("properties=%d events=%d", len(tm.AllProperties()), len(tm.AllEvents()))
	}
	kinds := map[MemberKind]int{}
	for _, m := range tm.AllMembers() {
		kinds[m.Kind()]++
	}
	if kinds[MemberProperty] != 1 || kinds[MemberEvent] != 1 || kinds[MemberMethod] < 4 {
		t.Fatalf("member kinds = %v", kinds)
	}
}

func TestSelectMethodAmbiguity(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	for _, typ := range []meta.TypeID{f.int32, f.int64} {
		if _, err := tm.AddMethod("Run", meta.MethodPublic(), f.void, []ParameterDeclaration{Param("n", typ)}, body.Empty); err != nil {
			t.Fatalf("AddMethod: %v", err)
		}
	}
	if _, _, err := tm.SelectMethod(binding.Default, "Run", nil, nil); !errors.Is(err, ErrAmbiguousMatch) {
		t.Fatalf("name-only lookup must be ambiguous: %v", err)
	}
	m, ok, err := tm.SelectMethod(binding.Default, "Run", []meta.TypeID{f.int64}, nil)
	if err != nil || !ok || m.Signature().Params[0] != f.int64 {
		t.Fatalf("typed lookup: ok=%v err=%v", ok, err)
	}
	if _, ok, err := tm.SelectMethod(binding.Default, "run", nil, nil); ok || err != nil {
		t.Fatalf("lookup is case-sensitive: ok=%v err=%v", ok, err)
	}
}

func TestInitializers(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, meta.NoTypeID)
	if err := tm.AddTypeInitializer(nil); !errors.Is(err, ErrInvalidBody) {
		t.Fatalf("nil type initializer: %v", err)
	}
	if err := tm.AddTypeInitializer(body.Empty); err != nil {
		t.Fatalf("AddTypeInitializer: %v", err)
	}
	if err := tm.AddInstanceInitializer(body.Empty); err != nil {
		t.Fatalf("AddInstanceInitializer: %v", err)
	}
	if len(tm.TypeInitializers()) != 1 || len(tm.InstanceInitializers()) != 1 {
		t.Fatalf("initializers not recorded")
	}
	if !tm.InitializerContext(true).IsStatic() || tm.InitializerContext(false).IsStatic() {
		t.Fatalf("initializer context staticness")
	}
}
