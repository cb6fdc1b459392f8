// Package override resolves virtual slots over a base-type chain: the
// most-derived virtual method for a shape, the most-derived override of a
// base definition, and whether a base definition is shadowed.
package override

import (
	"errors"
	"fmt"
	"slices"

	"typeweave/internal/meta"
)

var (
	ErrOutsideHierarchy = errors.New("method is not declared in the ancestor chain")
	ErrFinalOverride    = errors.New("final method cannot be overridden")
	ErrNotVirtual       = errors.New("method is not virtual")
)

// Candidate is a method that may shadow a base definition. DeclaringType is
// meta.NoTypeID for members of the type under construction.
type Candidate struct {
	Name           string
	Signature      meta.Signature
	Attributes     meta.MethodAttributes
	DeclaringType  meta.TypeID
	BaseDefinition meta.MethodID
}

// Resolver answers slot queries over a provider.
type Resolver struct {
	p     meta.Provider
	cache *Cache
}

// NewResolver creates a resolver. A nil cache selects DefaultCache.
func NewResolver(p meta.Provider, cache *Cache) *Resolver {
	if cache == nil {
		cache = DefaultCache
	}
	return &Resolver{p: p, cache: cache}
}

// Provider returns the provider the resolver reads.
func (r *Resolver) Provider() meta.Provider { return r.p }

// FindMostDerivedVirtualMethod walks the chain from start and returns the
// first virtual instance method matching name and signature exactly.
func (r *Resolver) FindMostDerivedVirtualMethod(name string, sig meta.Signature, start meta.TypeID) (meta.MethodID, bool) {
	key := cacheKey{provider: r.p, op: opMostDerivedVirtual, start: start, shape: sig.FullKey(name)}
	id := r.cache.lookupOrFill(key, func() meta.MethodID {
		for _, typ := range meta.Ancestors(r.p, start) {
			for _, mid := range r.p.DeclaredMethods(typ) {
				m := r.p.Method(mid)
				if m == nil || m.Name != name || !m.Attributes.IsVirtual() || m.Attributes.IsStatic() {
					continue
				}
				if m.Signature.Equal(sig) {
					return mid
				}
			}
		}
		return meta.NoMethodID
	})
	return id, id.IsValid()
}

// FindMostDerivedOverride returns the first method up the chain from start
// whose root definition is baseDefinition, or baseDefinition itself.
func (r *Resolver) FindMostDerivedOverride(baseDefinition meta.MethodID, start meta.TypeID) meta.MethodID {
	key := cacheKey{provider: r.p, op: opMostDerivedOverride, start: start, def: baseDefinition}
	return r.cache.lookupOrFill(key, func() meta.MethodID {
		for _, typ := range meta.Ancestors(r.p, start) {
			for _, mid := range r.p.DeclaredMethods(typ) {
				if meta.BaseDefinition(r.p, mid) == baseDefinition {
					return mid
				}
			}
		}
		return baseDefinition
	})
}

// IsShadowed reports whether some candidate with the base definition's name
// and signature, declared below it, hides the definition instead of
// overriding it: it is non-virtual, new-slot, or roots a different chain.
func (r *Resolver) IsShadowed(baseDefinition meta.MethodID, candidates []Candidate) bool {
	def := r.p.Method(baseDefinition)
	if def == nil {
		return false
	}
	for _, c := range candidates {
		if c.Name != def.Name || !c.Signature.Equal(def.Signature) {
			continue
		}
		if c.DeclaringType.IsValid() && !meta.IsSubclassOf(r.p, c.DeclaringType, def.DeclaringType) {
			continue
		}
		if !c.Attributes.IsVirtual() || c.Attributes.IsNewSlot() || c.BaseDefinition != baseDefinition {
			return true
		}
	}
	return false
}

// ExistingCandidates lists the non-constructor methods declared along the
// chain from start, most-derived first. Private methods are invisible to a
// deriving type and never hide anything from it.
func (r *Resolver) ExistingCandidates(start meta.TypeID) []Candidate {
	var out []Candidate
	for _, typ := range meta.Ancestors(r.p, start) {
		for _, mid := range r.p.DeclaredMethods(typ) {
			m := r.p.Method(mid)
			if m == nil || m.IsConstructor() {
				continue
			}
			if acc := m.Attributes.Access(); acc == meta.AccessPrivate || acc == meta.AccessPrivateScope {
				continue
			}
			out = append(out, Candidate{
				Name:           m.Name,
				Signature:      m.Signature,
				Attributes:     m.Attributes,
				DeclaringType:  typ,
				BaseDefinition: meta.BaseDefinition(r.p, mid),
			})
		}
	}
	return out
}

// CheckOverridable validates that method may be overridden by a type whose
// base is start.
func (r *Resolver) CheckOverridable(method meta.MethodID, start meta.TypeID) error {
	m := r.p.Method(method)
	if m == nil || m.IsConstructor() {
		return fmt.Errorf("%w: method %d", ErrOutsideHierarchy, method)
	}
	if !slices.Contains(meta.Ancestors(r.p, start), m.DeclaringType) {
		return fmt.Errorf("%w: %s is declared on %s", ErrOutsideHierarchy, m.Name, meta.TypeName(r.p, m.DeclaringType))
	}
	if !m.Attributes.IsVirtual() || m.Attributes.IsStatic() {
		return fmt.Errorf("%w: %s", ErrNotVirtual, meta.MethodName(r.p, method))
	}
	if m.Attributes.IsFinal() {
		return fmt.Errorf("%w: %s", ErrFinalOverride, meta.MethodName(r.p, method))
	}
	return nil
}
