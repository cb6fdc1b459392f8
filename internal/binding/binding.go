// Package binding filters member candidates by visibility, staticness, name
// and parameter types, the way reflection lookups resolve "get member" queries.
package binding

import (
	"errors"
	"strings"

	"typeweave/internal/meta"
)

// Flags is the search mask of a member lookup.
type Flags uint16

const (
	Instance Flags = 1 << iota
	Static
	Public
	NonPublic
	DeclaredOnly
	IgnoreCase

	Default = Instance | Static | Public | NonPublic
	All     = Default
)

var flagLabels = []struct {
	flag  Flags
	label string
}{
	{Instance, "Instance"},
	{Static, "Static"},
	{Public, "Public"},
	{NonPublic, "NonPublic"},
	{DeclaredOnly, "DeclaredOnly"},
	{IgnoreCase, "IgnoreCase"},
}

// Strings returns textual labels of the set flags.
func (f Flags) Strings() []string {
	labels := make([]string, 0, 4)
	for _, entry := range flagLabels {
		if f&entry.flag != 0 {
			labels = append(labels, entry.label)
		}
	}
	return labels
}

func (f Flags) String() string {
	if f == 0 {
		return "None"
	}
	return strings.Join(f.Strings(), "|")
}

var (
	// ErrAmbiguousMatch reports more than one equally good candidate.
	ErrAmbiguousMatch = errors.New("ambiguous match found")
	// ErrUsage reports an inconsistent lookup request.
	ErrUsage = errors.New("invalid member lookup")
)

// Member is the minimal view of a candidate the filter needs.
type Member interface {
	MemberName() string
	IsPublic() bool
	IsStatic() bool
}

// Callable is a member with a parameter list.
type Callable interface {
	Member
	ParameterTypes() []meta.TypeID
}

// HasRightVisibility reports whether a member with the given visibility and
// staticness matches mask. Both a visibility bit and a staticness bit must
// match.
func HasRightVisibility(public, static bool, mask Flags) bool {
	visible := (public && mask&Public != 0) || (!public && mask&NonPublic != 0)
	if !visible {
		return false
	}
	return (static && mask&Static != 0) || (!static && mask&Instance != 0)
}

func matches[M Member](m M, mask Flags) bool {
	return HasRightVisibility(m.IsPublic(), m.IsStatic(), mask)
}

// Select filters candidates by mask, preserving order.
func Select[M Member](candidates []M, mask Flags) []M {
	out := make([]M, 0, len(candidates))
	for _, c := range candidates {
		if matches(c, mask) {
			out = append(out, c)
		}
	}
	return out
}

// SelectFields filters field candidates by mask.
func SelectFields[M Member](candidates []M, mask Flags) []M { return Select(candidates, mask) }

// SelectMethods filters method candidates by mask.
func SelectMethods[M Callable](candidates []M, mask Flags) []M { return Select(candidates, mask) }

// SelectConstructors filters constructor candidates by mask.
func SelectConstructors[M Callable](candidates []M, mask Flags) []M { return Select(candidates, mask) }
