package meta

import "errors"

const (
	// ConstructorName is the metadata name of instance constructors.
	ConstructorName = ".ctor"
	// TypeInitializerName is the metadata name of type initializers.
	TypeInitializerName = ".cctor"
)

var (
	ErrNotInterface            = errors.New("type is not an interface")
	ErrInterfaceNotImplemented = errors.New("interface is not implemented by type")
)

// Provider supplies descriptors of pre-existing types. Implementations must be
// pure and stable for the duration of a build session; returned descriptors
// are shared and must not be modified.
type Provider interface {
	Type(id TypeID) *TypeInfo
	Method(id MethodID) *MethodInfo
	Field(id FieldID) *FieldInfo
	Property(id PropertyID) *PropertyInfo
	Event(id EventID) *EventInfo

	BaseType(id TypeID) TypeID
	DeclaredFields(id TypeID) []FieldID
	DeclaredConstructors(id TypeID) []MethodID
	DeclaredMethods(id TypeID) []MethodID
	DeclaredProperties(id TypeID) []PropertyID
	DeclaredEvents(id TypeID) []EventID

	// Interfaces returns the full, transitive interface set of a type.
	Interfaces(id TypeID) []TypeID
	// InterfaceMap returns the implementation of iface by typ.
	InterfaceMap(typ, iface TypeID) (InterfaceMap, error)

	Builtins() Builtins
}

// Freezable is implemented by providers that can promise immutability.
// Derived-artifact caches only memoize results of frozen providers.
type Freezable interface {
	Frozen() bool
}

var _ Provider = (*Universe)(nil)
var _ Freezable = (*Universe)(nil)
