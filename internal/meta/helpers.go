package meta

import (
	"fmt"
	"slices"
)

// maxOverrideDepth bounds override-chain walks over malformed providers.
const maxOverrideDepth = 1 << 16

// Ancestors returns start followed by its base types up to the root. The walk
// is iterative and stops at the first repeated type, so a malformed provider
// with a base cycle still yields a finite chain.
func Ancestors(p Provider, start TypeID) []TypeID {
	if p.Type(start) == nil {
		return nil
	}
	chain := make([]TypeID, 0, 8)
	seen := make(map[TypeID]struct{}, 8)
	for id := start; id.IsValid(); id = p.BaseType(id) {
		if _, dup := seen[id]; dup {
			break
		}
		seen[id] = struct{}{}
		chain = append(chain, id)
	}
	return chain
}

// IsSubclassOf reports whether typ strictly derives from base.
func IsSubclassOf(p Provider, typ, base TypeID) bool {
	if typ == base || !base.IsValid() {
		return false
	}
	chain := Ancestors(p, typ)
	return len(chain) > 1 && slices.Contains(chain[1:], base)
}

// IsAssignableTo reports whether a value of type from can be stored in a
// location of type to. There is no array covariance.
func IsAssignableTo(p Provider, from, to TypeID) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	ft, tt := p.Type(from), p.Type(to)
	if ft == nil || tt == nil || ft.Kind == KindByRef || tt.Kind == KindByRef {
		return false
	}
	if tt.IsInterface() {
		return slices.Contains(p.Interfaces(from), to)
	}
	if ft.IsInterface() {
		return to == p.Builtins().Object
	}
	return IsSubclassOf(p, from, to)
}

// BaseDefinition follows the override chain of m to the method that first
// introduced its slot.
func BaseDefinition(p Provider, m MethodID) MethodID {
	cur := m
	for range maxOverrideDepth {
		info := p.Method(cur)
		if info == nil || !info.Base.IsValid() {
			return cur
		}
		cur = info.Base
	}
	return cur
}

func fullName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// FullName joins a namespace and a type name.
func FullName(namespace, name string) string { return fullName(namespace, name) }

// TypeName renders the namespace-qualified name of a type, with "&" for
// by-ref types and "[]" for arrays.
func TypeName(p Provider, id TypeID) string {
	t := p.Type(id)
	if t == nil {
		return "<none>"
	}
	switch t.Kind {
	case KindByRef:
		return TypeName(p, t.Elem) + "&"
	case KindArray:
		return TypeName(p, t.Elem) + "[]"
	default:
		return fullName(t.Namespace, t.Name)
	}
}

// MethodName renders "Namespace.Type.Name" for a method.
func MethodName(p Provider, id MethodID) string {
	m := p.Method(id)
	if m == nil {
		return "<none>"
	}
	return TypeName(p, m.DeclaringType) + "." + m.Name
}

// DescribeMethod renders the declaring type and full signature of a method.
func DescribeMethod(p Provider, id MethodID) string {
	m := p.Method(id)
	if m == nil {
		return "<none>"
	}
	return TypeName(p, m.DeclaringType) + "::" + FormatSignature(p, m.Name, m.Signature)
}

// declaredInterfaces expands the interfaces a single type declares, following
// interface inheritance but not the base class chain.
func declaredInterfaces(p Provider, id TypeID, into []TypeID) []TypeID {
	t := p.Type(id)
	if t == nil {
		return into
	}
	work := slices.Clone(t.Interfaces)
	for len(work) > 0 {
		iface := work[0]
		work = work[1:]
		if slices.Contains(into, iface) {
			continue
		}
		into = append(into, iface)
		if it := p.Type(iface); it != nil {
			work = append(work, it.Interfaces...)
		}
	}
	return into
}

// CollectInterfaces returns the transitive interface set of id, most-derived
// declarations first.
func CollectInterfaces(p Provider, id TypeID) []TypeID {
	var out []TypeID
	for _, typ := range Ancestors(p, id) {
		out = declaredInterfaces(p, typ, out)
	}
	return out
}

// InterfaceMethods returns the instance methods declared by an interface.
func InterfaceMethods(p Provider, iface TypeID) []MethodID {
	declared := p.DeclaredMethods(iface)
	out := make([]MethodID, 0, len(declared))
	for _, id := range declared {
		if m := p.Method(id); m != nil && !m.Attributes.IsStatic() {
			out = append(out, id)
		}
	}
	return out
}

// ComputeInterfaceMap builds the interface map of typ for iface from
// provider data alone. Explicit MethodImpl rows win over name matching;
// implicit matches resolve to the most-derived override visible from typ.
func ComputeInterfaceMap(p Provider, typ, iface TypeID) (InterfaceMap, error) {
	it := p.Type(iface)
	if !it.IsInterface() {
		return InterfaceMap{}, fmt.Errorf("%w: %s", ErrNotInterface, TypeName(p, iface))
	}
	tt := p.Type(typ)
	if tt == nil || tt.IsInterface() || !slices.Contains(p.Interfaces(typ), iface) {
		return InterfaceMap{}, fmt.Errorf("%w: %s does not implement %s", ErrInterfaceNotImplemented, TypeName(p, typ), TypeName(p, iface))
	}

	chain := Ancestors(p, typ)
	implementor := len(chain) - 1
	for i, t := range chain {
		if slices.Contains(declaredInterfaces(p, t, nil), iface) {
			implementor = i
			break
		}
	}

	methods := InterfaceMethods(p, iface)
	out := InterfaceMap{
		Interface:        iface,
		Type:             typ,
		InterfaceMethods: methods,
		TargetMethods:    make([]MethodID, len(methods)),
	}
	for i, im := range methods {
		if target := explicitImplementation(p, chain, im); target.IsValid() {
			out.TargetMethods[i] = target
			continue
		}
		out.TargetMethods[i] = implicitImplementation(p, chain, implementor, im)
	}
	return out, nil
}

func explicitImplementation(p Provider, chain []TypeID, decl MethodID) MethodID {
	for _, t := range chain {
		for _, id := range p.DeclaredMethods(t) {
			if m := p.Method(id); m != nil && slices.Contains(m.ExplicitOverrides, decl) {
				return id
			}
		}
	}
	return NoMethodID
}

func implicitImplementation(p Provider, chain []TypeID, from int, decl MethodID) MethodID {
	want := p.Method(decl)
	if want == nil {
		return NoMethodID
	}
	for _, t := range chain[from:] {
		for _, id := range p.DeclaredMethods(t) {
			m := p.Method(id)
			if m == nil || m.Name != want.Name || !m.Attributes.IsPublic() || m.Attributes.IsStatic() {
				continue
			}
			if !m.Signature.Equal(want.Signature) {
				continue
			}
			if !m.Attributes.IsVirtual() {
				return id
			}
			return mostDerivedOverride(p, chain, BaseDefinition(p, id))
		}
	}
	return NoMethodID
}

func mostDerivedOverride(p Provider, chain []TypeID, root MethodID) MethodID {
	for _, t := range chain {
		for _, id := range p.DeclaredMethods(t) {
			if BaseDefinition(p, id) == root {
				return id
			}
		}
	}
	return root
}
