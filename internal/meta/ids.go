package meta

// TypeID identifies a type inside a Universe.
type TypeID uint32

// NoTypeID marks the absence of a type ("none" base type, unresolved reference).
const NoTypeID TypeID = 0

// IsValid reports whether the ID refers to an allocated type.
func (id TypeID) IsValid() bool { return id != NoTypeID }

// FieldID identifies a field declared on some type of a Universe.
type FieldID uint32

// NoFieldID marks the absence of a field.
const NoFieldID FieldID = 0

// IsValid reports whether the ID refers to an allocated field.
func (id FieldID) IsValid() bool { return id != NoFieldID }

// MethodID identifies a method or a constructor. Both live in the same arena
// and are told apart by MethodInfo.Kind.
type MethodID uint32

// NoMethodID marks the absence of a method.
const NoMethodID MethodID = 0

// IsValid reports whether the ID refers to an allocated method.
func (id MethodID) IsValid() bool { return id != NoMethodID }

// PropertyID identifies a property.
type PropertyID uint32

// NoPropertyID marks the absence of a property.
const NoPropertyID PropertyID = 0

// IsValid reports whether the ID refers to an allocated property.
func (id PropertyID) IsValid() bool { return id != NoPropertyID }

// EventID identifies an event.
type EventID uint32

// NoEventID marks the absence of an event.
const NoEventID EventID = 0

// IsValid reports whether the ID refers to an allocated event.
func (id EventID) IsValid() bool { return id != NoEventID }
