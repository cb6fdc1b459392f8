package model

import (
	"slices"
	"strings"

	"typeweave/internal/diag"
	"typeweave/internal/meta"
)

// InterfaceMapper supplies the interface maps of pre-existing types.
// meta.Provider implements it.
type InterfaceMapper interface {
	InterfaceMap(typ, iface meta.TypeID) (meta.InterfaceMap, error)
}

// InterfaceMapping pairs every method of an interface with the method that
// implements it on the type under construction. A zero target is an
// unimplemented slot and only appears in partial mappings.
type InterfaceMapping struct {
	Interface        meta.TypeID
	InterfaceMethods []meta.MethodID
	TargetMethods    []MethodRef
}

// Complete reports whether every slot has a target.
func (m InterfaceMapping) Complete() bool {
	for _, t := range m.TargetMethods {
		if t.IsZero() {
			return false
		}
	}
	return true
}

// ComputeMapping builds the mapping of iface for tm. Interfaces inherited
// from the base start from the base type's map; added interfaces are matched
// by name and signature. Explicit base definitions of added methods win in
// both cases.
func ComputeMapping(tm *TypeModel, mapper InterfaceMapper, iface meta.TypeID, allowPartial bool) (InterfaceMapping, error) {
	p := tm.p
	subject := meta.TypeName(p, iface)
	if !p.Type(iface).IsInterface() {
		return InterfaceMapping{}, configErr(diag.MapNotInterface, ErrNotInterface, subject, "type is not an interface")
	}
	if !slices.Contains(tm.AllInterfaces(), iface) {
		return InterfaceMapping{}, configErr(diag.MapInterfaceNotFound, ErrInterfaceNotFound, subject, "interface is not implemented by %s", tm.FullName())
	}

	slots := meta.InterfaceMethods(p, iface)
	out := InterfaceMapping{
		Interface:        iface,
		InterfaceMethods: slots,
		TargetMethods:    make([]MethodRef, len(slots)),
	}

	added := tm.methods.Added()
	for i, slot := range slots {
		for _, m := range added {
			if m.explicitlyOverrides(slot) {
				out.TargetMethods[i] = AddedMethod(m)
				break
			}
		}
	}

	if slices.Contains(p.Interfaces(tm.base), iface) {
		baseMap, err := mapper.InterfaceMap(tm.base, iface)
		if err != nil {
			return InterfaceMapping{}, configErr(diag.MapInterfaceNotFound, ErrInterfaceNotFound, subject, "base mapping unavailable: %v", err)
		}
		for i, slot := range slots {
			if !out.TargetMethods[i].IsZero() {
				continue
			}
			j := slices.Index(baseMap.InterfaceMethods, slot)
			if j < 0 || !baseMap.TargetMethods[j].IsValid() {
				continue
			}
			out.TargetMethods[i] = tm.inheritedImplementation(baseMap.TargetMethods[j])
		}
	}

	for i, slot := range slots {
		if out.TargetMethods[i].IsZero() {
			out.TargetMethods[i] = tm.implicitImplementation(p.Method(slot))
		}
	}

	if allowPartial {
		return out, nil
	}
	var missing []string
	for i, t := range out.TargetMethods {
		if t.IsZero() {
			im := p.Method(slots[i])
			missing = append(missing, meta.FormatSignature(p, im.Name, im.Signature))
		}
	}
	if len(missing) > 0 {
		return InterfaceMapping{}, configErr(diag.MapUnimplemented, ErrUnimplemented, subject,
			"%s does not implement: %s", tm.FullName(), strings.Join(missing, ", "))
	}
	return out, nil
}

// inheritedImplementation maps a base implementation onto the model: an
// added override of its slot, or an added member with the same signature,
// or the base implementation itself.
func (tm *TypeModel) inheritedImplementation(impl meta.MethodID) MethodRef {
	info := tm.p.Method(impl)
	if info.Attributes.IsVirtual() {
		if m, ok := tm.overrides[meta.BaseDefinition(tm.p, impl)]; ok {
			return AddedMethod(m)
		}
	}
	if m, passThrough, err := tm.methods.Resolve(impl); err == nil && !passThrough {
		return AddedMethod(m)
	}
	return ExistingMethod(tm.p, impl)
}

// implicitImplementation finds a public instance method with the slot's
// name and signature, added members first, then inherited ones.
func (tm *TypeModel) implicitImplementation(slot *meta.MethodInfo) MethodRef {
	matches := func(r MethodRef) bool {
		return r.Name() == slot.Name && r.IsPublic() && !r.IsStatic() && r.Signature().Equal(slot.Signature)
	}
	for _, m := range tm.methods.Added() {
		if r := AddedMethod(m); matches(r) {
			return r
		}
	}
	for _, id := range tm.methods.VisibleExisting() {
		if r := ExistingMethod(tm.p, id); matches(r) {
			return r
		}
	}
	return MethodRef{}
}
