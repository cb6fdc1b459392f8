package meta

import (
	"fmt"
	"strings"
)

// Attribute words are the lower-case names libraries and recipes use for
// flags, e.g. ["public", "virtual", "newslot"]. At most one access word is
// allowed; a missing one leaves the access bits at PrivateScope.

var methodWords = map[string]MethodAttributes{
	"static":                MethodStatic,
	"final":                 MethodFinal,
	"sealed":                MethodFinal,
	"virtual":               MethodVirtual,
	"hidebysig":             MethodHideBySig,
	"newslot":               MethodNewSlot,
	"abstract":              MethodAbstract,
	"specialname":           MethodSpecialName,
	"rtspecialname":         MethodRTSpecialName,
	"pinvokeimpl":           MethodPinvokeImpl,
	"unmanagedexport":       MethodUnmanagedExport,
	"checkaccessonoverride": MethodCheckAccessOnOverride,
	"hassecurity":           MethodHasSecurity,
	"requiresecobject":      MethodRequireSecObject,
}

var fieldWords = map[string]FieldAttributes{
	"static":          FieldStatic,
	"initonly":        FieldInitOnly,
	"readonly":        FieldInitOnly,
	"literal":         FieldLiteral,
	"notserialized":   FieldNotSerialized,
	"hasfieldrva":     FieldHasFieldRVA,
	"specialname":     FieldSpecialName,
	"rtspecialname":   FieldRTSpecialName,
	"hasfieldmarshal": FieldHasFieldMarshal,
	"pinvokeimpl":     FieldPinvokeImpl,
	"hasdefault":      FieldHasDefault,
}

var typeWords = map[string]TypeAttributes{
	"public":      TypePublic,
	"notpublic":   TypeNotPublic,
	"internal":    TypeNotPublic,
	"abstract":    TypeAbstract,
	"sealed":      TypeSealed,
	"specialname": TypeSpecialName,
}

var paramWords = map[string]ParameterAttributes{
	"in":       ParamIn,
	"out":      ParamOut,
	"optional": ParamOptional,
}

func normalizeWord(w string) string { return strings.ToLower(strings.TrimSpace(w)) }

func parseAccessWords[F ~uint16 | ~uint32](words []string, table map[string]F) (Access, bool, F, error) {
	var (
		acc     Access
		hasAcc  bool
		flags   F
		unknown []string
	)
	for _, w := range words {
		if a, ok := ParseAccess(normalizeWord(w)); ok {
			if hasAcc && a != acc {
				return 0, false, 0, fmt.Errorf("conflicting access %q and %q", acc, a)
			}
			acc, hasAcc = a, true
			continue
		}
		f, ok := table[normalizeWord(w)]
		if !ok {
			unknown = append(unknown, w)
			continue
		}
		flags |= f
	}
	if len(unknown) > 0 {
		return 0, false, 0, fmt.Errorf("unknown attribute %s", quoteAll(unknown))
	}
	return acc, hasAcc, flags, nil
}

// ParseMethodAttributes converts attribute words of a method or constructor.
func ParseMethodAttributes(words []string) (MethodAttributes, error) {
	acc, _, flags, err := parseAccessWords(words, methodWords)
	if err != nil {
		return 0, err
	}
	return flags.WithAccess(acc), nil
}

// ParseFieldAttributes converts attribute words of a field.
func ParseFieldAttributes(words []string) (FieldAttributes, error) {
	acc, _, flags, err := parseAccessWords(words, fieldWords)
	if err != nil {
		return 0, err
	}
	return flags.WithAccess(acc), nil
}

// ParseTypeAttributes converts attribute words of a type definition.
func ParseTypeAttributes(words []string) (TypeAttributes, error) {
	var (
		attrs   TypeAttributes
		unknown []string
	)
	for _, w := range words {
		f, ok := typeWords[normalizeWord(w)]
		if !ok {
			unknown = append(unknown, w)
			continue
		}
		attrs |= f
	}
	if len(unknown) > 0 {
		return 0, fmt.Errorf("unknown attribute %s", quoteAll(unknown))
	}
	return attrs, nil
}

// ParseParameterAttributes converts a parameter direction such as "out".
func ParseParameterAttributes(words []string) (ParameterAttributes, error) {
	var (
		attrs   ParameterAttributes
		unknown []string
	)
	for _, w := range words {
		f, ok := paramWords[normalizeWord(w)]
		if !ok {
			unknown = append(unknown, w)
			continue
		}
		attrs |= f
	}
	if len(unknown) > 0 {
		return 0, fmt.Errorf("unknown parameter attribute %s", quoteAll(unknown))
	}
	return attrs, nil
}

func quoteAll(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = fmt.Sprintf("%q", w)
	}
	return strings.Join(quoted, ", ")
}
