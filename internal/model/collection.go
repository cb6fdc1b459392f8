package model

import (
	"fmt"
	"slices"

	"typeweave/internal/diag"
)

// addable is an added member a Collection can hold.
type addable[ID comparable] interface {
	comparable
	collectionKey() string
	replacedMember() (ID, bool)
}

// Collection partitions the members of one kind into existing members,
// supplied by the provider, and members added to the model. Keys are
// signature identities; no two added members share one.
type Collection[ID comparable, M addable[ID]] struct {
	kind     MemberKind
	existing []ID
	keyOf    func(ID) string
	tracked  map[ID]struct{}
	added    []M
	byKey    map[string]M
	replaced map[ID]M
}

func newCollection[ID comparable, M addable[ID]](kind MemberKind, existing []ID, keyOf func(ID) string) *Collection[ID, M] {
	tracked := make(map[ID]struct{}, len(existing))
	for _, id := range existing {
		tracked[id] = struct{}{}
	}
	return &Collection[ID, M]{
		kind:     kind,
		existing: existing,
		keyOf:    keyOf,
		tracked:  tracked,
		byKey:    make(map[string]M),
		replaced: make(map[ID]M),
	}
}

// Contains reports whether an added member already uses key.
func (c *Collection[ID, M]) Contains(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Lookup returns the added member with the given key.
func (c *Collection[ID, M]) Lookup(key string) (M, bool) {
	m, ok := c.byKey[key]
	return m, ok
}

// Add appends m. A key collision leaves the collection untouched.
func (c *Collection[ID, M]) Add(m M) error {
	key := m.collectionKey()
	if _, dup := c.byKey[key]; dup {
		return configErr(diag.ModelDuplicateMember, ErrDuplicateMember, key, "%s %s is already declared", c.kind, key)
	}
	c.added = append(c.added, m)
	c.byKey[key] = m
	if id, ok := c.replacedMember(m); ok {
		c.replaced[id] = m
	}
	return nil
}

func (c *Collection[ID, M]) replacedMember(m M) (ID, bool) {
	id, ok := m.replacedMember()
	if !ok {
		return id, false
	}
	if _, known := c.tracked[id]; !known {
		return id, false
	}
	return id, true
}

// Existing returns every tracked existing member, including replaced ones.
func (c *Collection[ID, M]) Existing() []ID { return slices.Clone(c.existing) }

// VisibleExisting returns the existing members not replaced by an override
// and not hidden by an added member with the same key.
func (c *Collection[ID, M]) VisibleExisting() []ID {
	out := make([]ID, 0, len(c.existing))
	for _, id := range c.existing {
		if _, gone := c.replaced[id]; gone {
			continue
		}
		if _, hidden := c.byKey[c.keyOf(id)]; hidden {
			continue
		}
		out = append(out, id)
	}
	return out
}

// Added returns the added members in insertion order.
func (c *Collection[ID, M]) Added() []M { return slices.Clone(c.added) }

// Len counts the members the enumeration yields.
func (c *Collection[ID, M]) Len() int { return len(c.VisibleExisting()) + len(c.added) }

// Resolve maps an existing member to what the model exposes for it: the
// added member that replaces or hides it, or the member itself when
// pass-through is true. Untracked members fail with ErrCannotModify.
func (c *Collection[ID, M]) Resolve(id ID) (m M, passThrough bool, err error) {
	if _, ok := c.tracked[id]; !ok {
		var zero M
		return zero, false, configErr(diag.ModelCannotModify, ErrCannotModify, fmt.Sprint(id), "%s %v is not part of the model", c.kind, id)
	}
	if r, ok := c.replaced[id]; ok {
		return r, false, nil
	}
	if r, ok := c.byKey[c.keyOf(id)]; ok {
		return r, false, nil
	}
	var zero M
	return zero, true, nil
}
