package meta

// Access is the member access level shared by fields and methods. The numeric
// values match the member access mask of the CLI metadata tables.
type Access uint8

const (
	AccessPrivateScope Access = iota
	AccessPrivate
	AccessFamANDAssem
	AccessAssembly
	AccessFamily
	AccessFamORAssem
	AccessPublic
)

const accessMask = 0x0007

func (a Access) String() string {
	switch a {
	case AccessPrivateScope:
		return "PrivateScope"
	case AccessPrivate:
		return "Private"
	case AccessFamANDAssem:
		return "FamANDAssem"
	case AccessAssembly:
		return "Assembly"
	case AccessFamily:
		return "Family"
	case AccessFamORAssem:
		return "FamORAssem"
	case AccessPublic:
		return "Public"
	default:
		return "Access(?)"
	}
}

// ParseAccess converts the textual access name used by libraries and recipes.
func ParseAccess(s string) (Access, bool) {
	switch s {
	case "privatescope", "PrivateScope":
		return AccessPrivateScope, true
	case "private", "Private":
		return AccessPrivate, true
	case "famandassem", "FamANDAssem", "private protected":
		return AccessFamANDAssem, true
	case "assembly", "Assembly", "internal":
		return AccessAssembly, true
	case "family", "Family", "protected":
		return AccessFamily, true
	case "famorassem", "FamORAssem", "protected internal":
		return AccessFamORAssem, true
	case "public", "Public":
		return AccessPublic, true
	default:
		return AccessPrivateScope, false
	}
}

// AdjustForAssemblyBoundary maps an access level to the one a member
// overriding it from another module may use. FamORAssem collapses to Family;
// every other level passes through unchanged.
func (a Access) AdjustForAssemblyBoundary() Access {
	if a == AccessFamORAssem {
		return AccessFamily
	}
	return a
}

type flagLabel[F ~uint16 | ~uint32] struct {
	flag  F
	label string
}

func flagStrings[F ~uint16 | ~uint32](f F, table []flagLabel[F]) []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, entry := range table {
		if f&entry.flag == entry.flag && entry.flag != 0 {
			labels = append(labels, entry.label)
		}
	}
	return labels
}

// TypeAttributes describe a type definition.
type TypeAttributes uint32

const (
	TypeNotPublic   TypeAttributes = 0x0000
	TypePublic      TypeAttributes = 0x0001
	TypeVisibility  TypeAttributes = 0x0007
	TypeInterface   TypeAttributes = 0x0020
	TypeAbstract    TypeAttributes = 0x0080
	TypeSealed      TypeAttributes = 0x0100
	TypeSpecialName TypeAttributes = 0x0400
)

var typeAttrLabels = []flagLabel[TypeAttributes]{
	{TypePublic, "Public"},
	{TypeInterface, "Interface"},
	{TypeAbstract, "Abstract"},
	{TypeSealed, "Sealed"},
	{TypeSpecialName, "SpecialName"},
}

// Strings returns textual labels of the set flags.
func (a TypeAttributes) Strings() []string { return flagStrings(a, typeAttrLabels) }

// MethodAttributes describe a method or constructor definition.
type MethodAttributes uint32

const (
	MethodMemberAccessMask      MethodAttributes = accessMask
	MethodUnmanagedExport       MethodAttributes = 0x0008
	MethodStatic                MethodAttributes = 0x0010
	MethodFinal                 MethodAttributes = 0x0020
	MethodVirtual               MethodAttributes = 0x0040
	MethodHideBySig             MethodAttributes = 0x0080
	MethodVtableLayoutMask      MethodAttributes = 0x0100
	MethodReuseSlot             MethodAttributes = 0x0000
	MethodNewSlot               MethodAttributes = 0x0100
	MethodCheckAccessOnOverride MethodAttributes = 0x0200
	MethodAbstract              MethodAttributes = 0x0400
	MethodSpecialName           MethodAttributes = 0x0800
	MethodRTSpecialName         MethodAttributes = 0x1000
	MethodPinvokeImpl           MethodAttributes = 0x2000
	MethodHasSecurity           MethodAttributes = 0x4000
	MethodRequireSecObject      MethodAttributes = 0x8000
)

var methodAttrLabels = []flagLabel[MethodAttributes]{
	{MethodUnmanagedExport, "UnmanagedExport"},
	{MethodStatic, "Static"},
	{MethodFinal, "Final"},
	{MethodVirtual, "Virtual"},
	{MethodHideBySig, "HideBySig"},
	{MethodNewSlot, "NewSlot"},
	{MethodCheckAccessOnOverride, "CheckAccessOnOverride"},
	{MethodAbstract, "Abstract"},
	{MethodSpecialName, "SpecialName"},
	{MethodRTSpecialName, "RTSpecialName"},
	{MethodPinvokeImpl, "PinvokeImpl"},
	{MethodHasSecurity, "HasSecurity"},
	{MethodRequireSecObject, "RequireSecObject"},
}

// Strings returns the access level followed by the labels of the set flags.
func (a MethodAttributes) Strings() []string {
	return append([]string{a.Access().String()}, flagStrings(a&^MethodMemberAccessMask, methodAttrLabels)...)
}

// Access extracts the member access level.
func (a MethodAttributes) Access() Access { return Access(a & MethodMemberAccessMask) }

// WithAccess replaces the member access level.
func (a MethodAttributes) WithAccess(acc Access) MethodAttributes {
	return a&^MethodMemberAccessMask | MethodAttributes(acc)
}

// WithLayout replaces the vtable layout bits (MethodReuseSlot or MethodNewSlot).
func (a MethodAttributes) WithLayout(layout MethodAttributes) MethodAttributes {
	return a&^MethodVtableLayoutMask | layout&MethodVtableLayoutMask
}

func (a MethodAttributes) IsPublic() bool { return a.Access() == AccessPublic }
func (a MethodAttributes) IsStatic() bool { return a&MethodStatic != 0 }
func (a MethodAttributes) IsVirtual() bool { return a&MethodVirtual != 0 }
func (a MethodAttributes) IsFinal() bool { return a&MethodFinal != 0 }
func (a MethodAttributes) IsAbstract() bool { return a&MethodAbstract != 0 }
func (a MethodAttributes) IsNewSlot() bool { return a&MethodVtableLayoutMask == MethodNewSlot }

// FieldAttributes describe a field definition.
type FieldAttributes uint16

const (
	FieldAccessMask      FieldAttributes = accessMask
	FieldStatic          FieldAttributes = 0x0010
	FieldInitOnly        FieldAttributes = 0x0020
	FieldLiteral         FieldAttributes = 0x0040
	FieldNotSerialized   FieldAttributes = 0x0080
	FieldHasFieldRVA     FieldAttributes = 0x0100
	FieldSpecialName     FieldAttributes = 0x0200
	FieldRTSpecialName   FieldAttributes = 0x0400
	FieldHasFieldMarshal FieldAttributes = 0x1000
	FieldPinvokeImpl     FieldAttributes = 0x2000
	FieldHasDefault      FieldAttributes = 0x8000
)

var fieldAttrLabels = []flagLabel[FieldAttributes]{
	{FieldStatic, "Static"},
	{FieldInitOnly, "InitOnly"},
	{FieldLiteral, "Literal"},
	{FieldNotSerialized, "NotSerialized"},
	{FieldHasFieldRVA, "HasFieldRVA"},
	{FieldSpecialName, "SpecialName"},
	{FieldRTSpecialName, "RTSpecialName"},
	{FieldHasFieldMarshal, "HasFieldMarshal"},
	{FieldPinvokeImpl, "PinvokeImpl"},
	{FieldHasDefault, "HasDefault"},
}

// Strings returns the access level followed by the labels of the set flags.
func (a FieldAttributes) Strings() []string {
	return append([]string{a.Access().String()}, flagStrings(a&^FieldAccessMask, fieldAttrLabels)...)
}

// Access extracts the field access level.
func (a FieldAttributes) Access() Access { return Access(a & FieldAccessMask) }

// WithAccess replaces the field access level.
func (a FieldAttributes) WithAccess(acc Access) FieldAttributes {
	return a&^FieldAccessMask | FieldAttributes(acc)
}

func (a FieldAttributes) IsPublic() bool { return a.Access() == AccessPublic }
func (a FieldAttributes) IsStatic() bool { return a&FieldStatic != 0 }

// ParameterAttributes carry the direction flags of a parameter. ByRef is not
// a metadata flag; it is derived from the parameter type being a by-ref type.
type ParameterAttributes uint16

const (
	ParamNone     ParameterAttributes = 0x0000
	ParamIn       ParameterAttributes = 0x0001
	ParamOut      ParameterAttributes = 0x0002
	ParamOptional ParameterAttributes = 0x0010
)

var paramAttrLabels = []flagLabel[ParameterAttributes]{
	{ParamIn, "In"},
	{ParamOut, "Out"},
	{ParamOptional, "Optional"},
}

// Strings returns textual labels of the set flags.
func (a ParameterAttributes) Strings() []string { return flagStrings(a, paramAttrLabels) }

// PropertyAttributes describe a property definition.
type PropertyAttributes uint16

const (
	PropertyNone          PropertyAttributes = 0x0000
	PropertySpecialName   PropertyAttributes = 0x0200
	PropertyRTSpecialName PropertyAttributes = 0x0400
	PropertyHasDefault    PropertyAttributes = 0x1000
)

// EventAttributes describe an event definition.
type EventAttributes uint16

const (
	EventNone          EventAttributes = 0x0000
	EventSpecialName   EventAttributes = 0x0200
	EventRTSpecialName EventAttributes = 0x0400
)
