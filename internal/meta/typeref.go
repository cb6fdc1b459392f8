package meta

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType reports a type reference that names no type.
var ErrUnknownType = errors.New("unknown type")

// TypeResolver resolves textual type references such as "Demo.A",
// "System.Int32[]", "string&" or the keyword aliases "void", "bool", "int",
// "long", "double", "string" and "object".
type TypeResolver interface {
	ResolveRef(ref string) (TypeID, error)
}

var _ TypeResolver = (*Universe)(nil)

func (u *Universe) alias(name string) (TypeID, bool) {
	b := u.builtins
	switch name {
	case "void":
		return b.Void, true
	case "bool":
		return b.Boolean, true
	case "int":
		return b.Int32, true
	case "long":
		return b.Int64, true
	case "double":
		return b.Double, true
	case "string":
		return b.String, true
	case "object":
		return b.Object, true
	}
	return NoTypeID, false
}

// SplitRef strips array and by-ref suffixes from ref and returns the element
// name. byRef is only allowed as the outermost suffix.
func SplitRef(ref string) (elem string, ranks int, byRef bool, err error) {
	ref = strings.TrimSpace(ref)
	if strings.HasSuffix(ref, "&") {
		byRef = true
		ref = strings.TrimSuffix(ref, "&")
	}
	for strings.HasSuffix(ref, "[]") {
		ranks++
		ref = strings.TrimSuffix(ref, "[]")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.ContainsAny(ref, "&[] ") {
		return "", 0, false, fmt.Errorf("malformed type reference %q", ref)
	}
	return ref, ranks, byRef, nil
}

// LookupRef resolves the element name of a reference without creating
// composite types.
func (u *Universe) LookupRef(name string) (TypeID, bool) {
	if id, ok := u.alias(name); ok {
		return id, true
	}
	return u.Lookup(name)
}

// ResolveRef resolves a type reference. Array and by-ref types are created
// while the universe is open; once frozen only already interned ones resolve.
func (u *Universe) ResolveRef(ref string) (TypeID, error) {
	name, ranks, byRef, err := SplitRef(ref)
	if err != nil {
		return NoTypeID, err
	}
	id, ok := u.LookupRef(name)
	if !ok {
		return NoTypeID, fmt.Errorf("%w %q", ErrUnknownType, name)
	}
	if u.builtins.Void == id && (ranks > 0 || byRef) {
		return NoTypeID, fmt.Errorf("malformed type reference %q: void cannot be composed", ref)
	}
	for range ranks {
		if id, err = u.composite(u.arrays, id, u.ArrayOf, ref); err != nil {
			return NoTypeID, err
		}
	}
	if byRef {
		if id, err = u.composite(u.byRef, id, u.ByRef, ref); err != nil {
			return NoTypeID, err
		}
	}
	return id, nil
}

func (u *Universe) composite(interned map[TypeID]TypeID, elem TypeID, create func(TypeID) TypeID, ref string) (TypeID, error) {
	if id, ok := interned[elem]; ok {
		return id, nil
	}
	if u.frozen {
		return NoTypeID, fmt.Errorf("%w %q: composite type was not declared by any library", ErrUnknownType, ref)
	}
	return create(elem), nil
}
