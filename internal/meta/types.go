package meta

// TypeKind enumerates the type shapes a Universe can hold.
type TypeKind uint8

const (
	KindInvalid TypeKind = iota
	KindClass
	KindValueType
	KindInterface
	KindByRef
	KindArray
)

func (k TypeKind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindClass:
		return "class"
	case KindValueType:
		return "valuetype"
	case KindInterface:
		return "interface"
	case KindByRef:
		return "byref"
	case KindArray:
		return "array"
	default:
		return "TypeKind(?)"
	}
}

// TypeInfo describes a pre-existing type.
type TypeInfo struct {
	Kind       TypeKind
	Name       string
	Namespace  string
	Module     string
	Attributes TypeAttributes
	Base       TypeID
	// Elem is the element type of by-ref and array types.
	Elem TypeID
	// Interfaces lists the directly declared interfaces.
	Interfaces   []TypeID
	Fields       []FieldID
	Constructors []MethodID
	Methods      []MethodID
	Properties   []PropertyID
	Events       []EventID
}

// IsInterface reports whether the type is an interface.
func (t *TypeInfo) IsInterface() bool { return t != nil && t.Kind == KindInterface }

// IsAbstract reports whether the type is declared abstract. Interfaces are
// always abstract.
func (t *TypeInfo) IsAbstract() bool {
	return t != nil && (t.Attributes&TypeAbstract != 0 || t.Kind == KindInterface)
}

// IsSealed reports whether the type may not be derived from.
func (t *TypeInfo) IsSealed() bool { return t != nil && t.Attributes&TypeSealed != 0 }

// IsValueType reports whether values of the type are copied by value.
func (t *TypeInfo) IsValueType() bool { return t != nil && t.Kind == KindValueType }

// MethodKind separates constructors from ordinary methods.
type MethodKind uint8

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
)

func (k MethodKind) String() string {
	switch k {
	case MethodOrdinary:
		return "method"
	case MethodConstructor:
		return "constructor"
	default:
		return "MethodKind(?)"
	}
}

// MethodInfo describes a pre-existing method or constructor.
type MethodInfo struct {
	Kind          MethodKind
	Name          string
	DeclaringType TypeID
	Attributes    MethodAttributes
	Signature     Signature
	ParamNames    []string
	ParamAttrs    []ParameterAttributes
	// Base is the virtual method this one overrides (reuse slot), if any.
	Base MethodID
	// ExplicitOverrides lists the methods this one implements through
	// MethodImpl rows instead of name matching.
	ExplicitOverrides []MethodID
}

// IsConstructor reports whether the method is an instance or type constructor.
func (m *MethodInfo) IsConstructor() bool { return m != nil && m.Kind == MethodConstructor }

// Key returns the name-plus-parameters identity of the method.
func (m *MethodInfo) Key() string { return m.Signature.Key(m.Name) }

// FieldInfo describes a pre-existing field.
type FieldInfo struct {
	Name          string
	DeclaringType TypeID
	Type          TypeID
	Attributes    FieldAttributes
}

// Key returns the name-plus-type identity of the field.
func (f *FieldInfo) Key() string { return FieldKey(f.Name, f.Type) }

// PropertyInfo describes a pre-existing property and its accessors.
type PropertyInfo struct {
	Name          string
	DeclaringType TypeID
	Type          TypeID
	Attributes    PropertyAttributes
	IndexParams   []TypeID
	Getter        MethodID
	Setter        MethodID
}

// Key returns the name-plus-index identity of the property.
func (p *PropertyInfo) Key() string { return PropertyKey(p.Name, p.IndexParams) }

// EventInfo describes a pre-existing event and its accessors.
type EventInfo struct {
	Name          string
	DeclaringType TypeID
	HandlerType   TypeID
	Attributes    EventAttributes
	Add           MethodID
	Remove        MethodID
	Raise         MethodID
}

// Key returns the identity of the event.
func (e *EventInfo) Key() string { return e.Name }

// InterfaceMap pairs every method of an interface with the method of a
// class that implements it. TargetMethods[i] is NoMethodID when slot i is
// not implemented (abstract classes).
type InterfaceMap struct {
	Interface        TypeID
	Type             TypeID
	InterfaceMethods []MethodID
	TargetMethods    []MethodID
}
