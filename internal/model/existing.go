package model

import (
	"typeweave/internal/meta"
)

// Existing member sets seen from a type deriving from base: the chain is
// walked most-derived first, private ancestor members are skipped and the
// first member with a given key wins.

func inheritable(acc meta.Access) bool {
	return acc != meta.AccessPrivate && acc != meta.AccessPrivateScope
}

func existingMethods(p meta.Provider, base meta.TypeID) []meta.MethodID {
	var out []meta.MethodID
	seen := make(map[string]struct{})
	for _, typ := range meta.Ancestors(p, base) {
		for _, id := range p.DeclaredMethods(typ) {
			m := p.Method(id)
			if m == nil || m.IsConstructor() || !inheritable(m.Attributes.Access()) {
				continue
			}
			key := m.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func existingFields(p meta.Provider, base meta.TypeID) []meta.FieldID {
	var out []meta.FieldID
	seen := make(map[string]struct{})
	for _, typ := range meta.Ancestors(p, base) {
		for _, id := range p.DeclaredFields(typ) {
			f := p.Field(id)
			if f == nil || !inheritable(f.Attributes.Access()) {
				continue
			}
			key := f.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func accessorsInheritable(p meta.Provider, ids ...meta.MethodID) bool {
	for _, id := range ids {
		if m := p.Method(id); m != nil && inheritable(m.Attributes.Access()) {
			return true
		}
	}
	return false
}

func existingProperties(p meta.Provider, base meta.TypeID) []meta.PropertyID {
	var out []meta.PropertyID
	seen := make(map[string]struct{})
	for _, typ := range meta.Ancestors(p, base) {
		for _, id := range p.DeclaredProperties(typ) {
			prop := p.Property(id)
			if prop == nil || !accessorsInheritable(p, prop.Getter, prop.Setter) {
				continue
			}
			key := prop.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func existingEvents(p meta.Provider, base meta.TypeID) []meta.EventID {
	var out []meta.EventID
	seen := make(map[string]struct{})
	for _, typ := range meta.Ancestors(p, base) {
		for _, id := range p.DeclaredEvents(typ) {
			ev := p.Event(id)
			if ev == nil || !accessorsInheritable(p, ev.Add, ev.Remove) {
				continue
			}
			if _, dup := seen[ev.Name]; dup {
				continue
			}
			seen[ev.Name] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func methodKey(p meta.Provider) func(meta.MethodID) string {
	return func(id meta.MethodID) string { return p.Method(id).Key() }
}

func fieldKey(p meta.Provider) func(meta.FieldID) string {
	return func(id meta.FieldID) string { return p.Field(id).Key() }
}

func propertyKey(p meta.Provider) func(meta.PropertyID) string {
	return func(id meta.PropertyID) string { return p.Property(id).Key() }
}

func eventKey(p meta.Provider) func(meta.EventID) string {
	return func(id meta.EventID) string { return p.Event(id).Name }
}
