package model

import (
	"fmt"

	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/override"
)

// GetOrCreateOverride returns the added override of baseMethod's slot,
// creating it on first request. created is false when an earlier call (or an
// added method linked to the same slot) already produced it.
//
// A regular override keeps the base name, reuses the slot and narrows
// FamORAssem to Family. When a member between the base definition and the
// new type shadows the definition, the override becomes a private new-slot
// method named Namespace.Type.Name that explicitly implements the most-derived
// override instead.
func (f *Factory) GetOrCreateOverride(tm *TypeModel, baseMethod meta.MethodID) (m *MutableMethod, created bool, err error) {
	info := f.p.Method(baseMethod)
	if info == nil || info.IsConstructor() {
		return nil, false, configErr(diag.ModelUnknownMember, ErrUnknownMember, tm.FullName(), "method %d is not an overridable method", baseMethod)
	}
	subject := meta.MethodName(f.p, baseMethod)
	if err := f.resolver.CheckOverridable(baseMethod, tm.base); err != nil {
		return nil, false, resolverErr(subject, err)
	}

	root := meta.BaseDefinition(f.p, baseMethod)
	if existing, ok := tm.overrides[root]; ok {
		return existing, false, nil
	}

	mostDerived := f.resolver.FindMostDerivedOverride(root, tm.base)
	md := f.p.Method(mostDerived)
	if md.Attributes.IsFinal() {
		return nil, false, resolverErr(subject, fmt.Errorf("%w: %s", override.ErrFinalOverride, meta.MethodName(f.p, mostDerived)))
	}

	candidates := append(f.resolver.ExistingCandidates(tm.base), tm.addedCandidates()...)
	shadowed := f.resolver.IsShadowed(root, candidates)

	m = &MutableMethod{
		owner:      tm.id,
		returnType: md.Signature.Return,
		params:     parametersFromInfo(md),
	}
	if shadowed {
		m.name = meta.TypeName(f.p, md.DeclaringType) + "." + md.Name
		m.attributes = meta.MethodAttributes(0).WithAccess(meta.AccessPrivate) |
			meta.MethodVirtual | meta.MethodHideBySig | meta.MethodNewSlot
		m.explicitBases = []MethodRef{ExistingMethod(f.p, mostDerived)}
	} else {
		keep := md.Attributes & (meta.MethodSpecialName | meta.MethodHideBySig)
		m.name = md.Name
		m.attributes = (keep | meta.MethodVirtual | meta.MethodHideBySig).
			WithAccess(md.Attributes.Access().AdjustForAssemblyBoundary()).
			WithLayout(meta.MethodReuseSlot)
		m.baseMethod = ExistingMethod(f.p, mostDerived)
	}
	if md.Attributes.IsAbstract() {
		m.attributes |= meta.MethodAbstract
	} else {
		m.body = body.Delegate
	}

	if err := tm.methods.Add(m); err != nil {
		return nil, false, err
	}
	tm.overrides[root] = m
	return m, true, nil
}
