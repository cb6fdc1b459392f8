package meta

import (
	"slices"
	"strconv"
	"strings"
)

// Signature is the shape of a method, constructor or indexed property.
// Fields use Return only. By-ref parameters are expressed with by-ref types.
type Signature struct {
	Return TypeID
	Params []TypeID
}

// Equal reports whether both signatures have the same return and parameter types.
func (s Signature) Equal(other Signature) bool {
	return s.Return == other.Return && slices.Equal(s.Params, other.Params)
}

// ParamsEqual compares only the parameter lists.
func (s Signature) ParamsEqual(params []TypeID) bool {
	return slices.Equal(s.Params, params)
}

// Clone returns a copy that does not alias the parameter slice.
func (s Signature) Clone() Signature {
	return Signature{Return: s.Return, Params: slices.Clone(s.Params)}
}

// Key renders the identity of a method or constructor: name plus parameter
// type IDs. The return type is not part of the identity.
func (s Signature) Key(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2 + len(s.Params)*4)
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range s.Params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	b.WriteByte(')')
	return b.String()
}

// FullKey is Key plus the return type. Interface slots and the override
// resolver match on it.
func (s Signature) FullKey(name string) string {
	return s.Key(name) + ":" + strconv.FormatUint(uint64(s.Return), 10)
}

// FieldKey renders the identity of a field: name plus field type.
func FieldKey(name string, typ TypeID) string {
	return name + ":" + strconv.FormatUint(uint64(typ), 10)
}

// PropertyKey renders the identity of a property: name plus index parameter
// types. Non-indexed properties are identified by name alone.
func PropertyKey(name string, index []TypeID) string {
	if len(index) == 0 {
		return name
	}
	return Signature{Params: index}.Key(name)
}

// FormatSignature renders a human-readable signature such as
// "Int32 Add(Int32, Int32)".
func FormatSignature(p Provider, name string, sig Signature) string {
	var b strings.Builder
	b.WriteString(TypeName(p, sig.Return))
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteByte('(')
	for i, param := range sig.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(TypeName(p, param))
	}
	b.WriteByte(')')
	return b.String()
}
