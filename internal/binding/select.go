package binding

import (
	"fmt"
	"slices"

	"golang.org/x/text/cases"

	"typeweave/internal/meta"
)

// ParameterModifier carries per-parameter by-ref hints of a lookup. The
// selector only checks that modifiers line up with the parameter list.
type ParameterModifier []bool

func checkModifiers(paramTypes []meta.TypeID, modifiers []ParameterModifier) error {
	if len(modifiers) == 0 {
		return nil
	}
	if paramTypes == nil {
		return fmt.Errorf("%w: parameter modifiers require parameter types", ErrUsage)
	}
	for i, mod := range modifiers {
		if len(mod) != len(paramTypes) {
			return fmt.Errorf("%w: modifier %d has %d entries, want %d", ErrUsage, i, len(mod), len(paramTypes))
		}
	}
	return nil
}

// pickOne returns the only element of matches. Zero matches is a not-found
// result, more than one is ambiguous.
func pickOne[M any](matches []M, what string) (M, bool, error) {
	var zero M
	switch len(matches) {
	case 0:
		return zero, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return zero, false, fmt.Errorf("%w: %d candidates for %s", ErrAmbiguousMatch, len(matches), what)
	}
}

// SelectSingleField finds the field called name among candidates visible
// under mask. Names are case-sensitive.
func SelectSingleField[M Member](candidates []M, mask Flags, name string) (M, bool, error) {
	var hits []M
	for _, c := range candidates {
		if c.MemberName() == name && matches(c, mask) {
			hits = append(hits, c)
		}
	}
	return pickOne(hits, name)
}

// SelectSingleMethod finds the method called name among candidates visible
// under mask. A nil paramTypes omits the parameter filter; exactly one
// visible candidate with that name must then exist.
func SelectSingleMethod[M Callable](candidates []M, mask Flags, name string, paramTypes []meta.TypeID, modifiers []ParameterModifier) (M, bool, error) {
	var zero M
	if err := checkModifiers(paramTypes, modifiers); err != nil {
		return zero, false, err
	}
	var hits []M
	for _, c := range candidates {
		if c.MemberName() != name || !matches(c, mask) {
			continue
		}
		if paramTypes != nil && !slices.Equal(c.ParameterTypes(), paramTypes) {
			continue
		}
		hits = append(hits, c)
	}
	return pickOne(hits, name)
}

// SelectSingleConstructor is SelectSingleMethod without the name filter.
func SelectSingleConstructor[M Callable](candidates []M, mask Flags, paramTypes []meta.TypeID, modifiers []ParameterModifier) (M, bool, error) {
	var zero M
	if err := checkModifiers(paramTypes, modifiers); err != nil {
		return zero, false, err
	}
	var hits []M
	for _, c := range candidates {
		if !matches(c, mask) {
			continue
		}
		if paramTypes != nil && !slices.Equal(c.ParameterTypes(), paramTypes) {
			continue
		}
		hits = append(hits, c)
	}
	return pickOne(hits, "constructor")
}

// SelectByName finds a candidate by name regardless of visibility. With
// ignoreCase the comparison uses Unicode case folding and more than one
// folded match is ambiguous.
func SelectByName[T any](candidates []T, nameOf func(T) string, name string, ignoreCase bool) (T, bool, error) {
	var hits []T
	if !ignoreCase {
		for _, c := range candidates {
			if nameOf(c) == name {
				hits = append(hits, c)
			}
		}
		return pickOne(hits, name)
	}
	fold := cases.Fold()
	want := fold.String(name)
	for _, c := range candidates {
		if fold.String(nameOf(c)) == want {
			hits = append(hits, c)
		}
	}
	return pickOne(hits, name)
}
