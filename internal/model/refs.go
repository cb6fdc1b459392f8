package model

import (
	"typeweave/internal/meta"
)

// MemberKind is the closed set of member kinds a type model holds.
type MemberKind uint8

const (
	MemberField MemberKind = iota + 1
	MemberConstructor
	MemberMethod
	MemberProperty
	MemberEvent
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberConstructor:
		return "constructor"
	case MemberMethod:
		return "method"
	case MemberProperty:
		return "property"
	case MemberEvent:
		return "event"
	default:
		return "MemberKind(?)"
	}
}

// Member is implemented by FieldRef, ConstructorRef, MethodRef, PropertyRef
// and EventRef only. Switch on the concrete type or on Kind.
type Member interface {
	Kind() MemberKind
	Name() string
	IsAdded() bool
	CustomAttributes() []*CustomAttributeDeclaration
	isMember()
}

// MethodRef is either an existing method of the provider or an added method.
// The zero value refers to nothing.
type MethodRef struct {
	id    meta.MethodID
	info  *meta.MethodInfo
	added *MutableMethod
}

// ExistingMethod wraps a provider method. It returns the zero ref for an
// unknown ID.
func ExistingMethod(p meta.Provider, id meta.MethodID) MethodRef {
	info := p.Method(id)
	if info == nil {
		return MethodRef{}
	}
	return MethodRef{id: id, info: info}
}

// AddedMethod wraps an added method.
func AddedMethod(m *MutableMethod) MethodRef {
	if m == nil {
		return MethodRef{}
	}
	return MethodRef{added: m}
}

func (r MethodRef) IsZero() bool { return r.info == nil && r.added == nil }
func (r MethodRef) IsAdded() bool { return r.added != nil }
func (r MethodRef) Kind() MemberKind { return MemberMethod }
func (MethodRef) isMember() {}

// ID returns the provider ID of an existing method.
func (r MethodRef) ID() meta.MethodID { return r.id }

// Added returns the added method, or nil for existing ones.
func (r MethodRef) Added() *MutableMethod { return r.added }

// Info returns the descriptor of an existing method, or nil.
func (r MethodRef) Info() *meta.MethodInfo { return r.info }

func (r MethodRef) Name() string {
	switch {
	case r.added != nil:
		return r.added.Name()
	case r.info != nil:
		return r.info.Name
	default:
		return ""
	}
}

func (r MethodRef) Attributes() meta.MethodAttributes {
	switch {
	case r.added != nil:
		return r.added.Attributes()
	case r.info != nil:
		return r.info.Attributes
	default:
		return 0
	}
}

func (r MethodRef) Signature() meta.Signature {
	switch {
	case r.added != nil:
		return r.added.Signature()
	case r.info != nil:
		return r.info.Signature
	default:
		return meta.Signature{}
	}
}

func (r MethodRef) Parameters() []Parameter {
	switch {
	case r.added != nil:
		return r.added.Parameters()
	case r.info != nil:
		return parametersFromInfo(r.info)
	default:
		return nil
	}
}

// Key returns the name-plus-parameters identity.
func (r MethodRef) Key() string { return r.Signature().Key(r.Name()) }

func (r MethodRef) IsStatic() bool { return r.Attributes().IsStatic() }
func (r MethodRef) IsPublic() bool { return r.Attributes().IsPublic() }
func (r MethodRef) IsVirtual() bool { return r.Attributes().IsVirtual() }
func (r MethodRef) IsAbstract() bool { return r.Attributes().IsAbstract() }

func (r MethodRef) MemberName() string { return r.Name() }
func (r MethodRef) ParameterTypes() []meta.TypeID { return r.Signature().Params }

func (r MethodRef) CustomAttributes() []*CustomAttributeDeclaration {
	if r.added != nil {
		return r.added.CustomAttributes()
	}
	return nil
}

// ConstructorRef is either an existing constructor or an added one.
type ConstructorRef struct {
	id    meta.MethodID
	info  *meta.MethodInfo
	added *MutableConstructor
}

func (r ConstructorRef) IsZero() bool { return r.info == nil && r.added == nil }
func (r ConstructorRef) IsAdded() bool { return r.added != nil }
func (r ConstructorRef) Kind() MemberKind { return MemberConstructor }
func (ConstructorRef) isMember() {}
func (r ConstructorRef) ID() meta.MethodID { return r.id }
func (r ConstructorRef) Added() *MutableConstructor { return r.added }

func (r ConstructorRef) Name() string {
	if r.info != nil {
		return r.info.Name
	}
	return meta.ConstructorName
}

func (r ConstructorRef) Attributes() meta.MethodAttributes {
	switch {
	case r.added != nil:
		return r.added.Attributes()
	case r.info != nil:
		return r.info.Attributes
	default:
		return 0
	}
}

func (r ConstructorRef) Signature() meta.Signature {
	switch {
	case r.added != nil:
		return r.added.Signature()
	case r.info != nil:
		return r.info.Signature
	default:
		return meta.Signature{}
	}
}

func (r ConstructorRef) IsStatic() bool { return r.Attributes().IsStatic() }
func (r ConstructorRef) IsPublic() bool { return r.Attributes().IsPublic() }
func (r ConstructorRef) MemberName() string { return r.Name() }
func (r ConstructorRef) ParameterTypes() []meta.TypeID { return r.Signature().Params }

func (r ConstructorRef) CustomAttributes() []*CustomAttributeDeclaration {
	if r.added != nil {
		return r.added.CustomAttributes()
	}
	return nil
}

// FieldRef is either an existing field or an added one.
type FieldRef struct {
	id    meta.FieldID
	info  *meta.FieldInfo
	added *MutableField
}

// ExistingField wraps a provider field.
func ExistingField(p meta.Provider, id meta.FieldID) FieldRef {
	info := p.Field(id)
	if info == nil {
		return FieldRef{}
	}
	return FieldRef{id: id, info: info}
}

func (r FieldRef) IsZero() bool { return r.info == nil && r.added == nil }
func (r FieldRef) IsAdded() bool { return r.added != nil }
func (r FieldRef) Kind() MemberKind { return MemberField }
func (FieldRef) isMember() {}
func (r FieldRef) ID() meta.FieldID { return r.id }
func (r FieldRef) Added() *MutableField { return r.added }

func (r FieldRef) Name() string {
	switch {
	case r.added != nil:
		return r.added.Name()
	case r.info != nil:
		return r.info.Name
	default:
		return ""
	}
}

func (r FieldRef) FieldType() meta.TypeID {
	switch {
	case r.added != nil:
		return r.added.Type()
	case r.info != nil:
		return r.info.Type
	default:
		return meta.NoTypeID
	}
}

func (r FieldRef) Attributes() meta.FieldAttributes {
	switch {
	case r.added != nil:
		return r.added.Attributes()
	case r.info != nil:
		return r.info.Attributes
	default:
		return 0
	}
}

func (r FieldRef) IsStatic() bool { return r.Attributes().IsStatic() }
func (r FieldRef) IsPublic() bool { return r.Attributes().IsPublic() }
func (r FieldRef) MemberName() string { return r.Name() }
func (r FieldRef) Key() string { return meta.FieldKey(r.Name(), r.FieldType()) }

func (r FieldRef) CustomAttributes() []*CustomAttributeDeclaration {
	if r.added != nil {
		return r.added.CustomAttributes()
	}
	return nil
}

// PropertyRef is either an existing property or an added one.
type PropertyRef struct {
	id    meta.PropertyID
	info  *meta.PropertyInfo
	added *MutableProperty
}

func (r PropertyRef) IsZero() bool { return r.info == nil && r.added == nil }
func (r PropertyRef) IsAdded() bool { return r.added != nil }
func (r PropertyRef) Kind() MemberKind { return MemberProperty }
func (PropertyRef) isMember() {}
func (r PropertyRef) ID() meta.PropertyID { return r.id }
func (r PropertyRef) Added() *MutableProperty { return r.added }

func (r PropertyRef) Name() string {
	switch {
	case r.added != nil:
		return r.added.Name()
	case r.info != nil:
		return r.info.Name
	default:
		return ""
	}
}

func (r PropertyRef) PropertyType() meta.TypeID {
	switch {
	case r.added != nil:
		return r.added.Type()
	case r.info != nil:
		return r.info.Type
	default:
		return meta.NoTypeID
	}
}

func (r PropertyRef) CustomAttributes() []*CustomAttributeDeclaration {
	if r.added != nil {
		return r.added.CustomAttributes()
	}
	return nil
}

// EventRef is either an existing event or an added one.
type EventRef struct {
	id    meta.EventID
	info  *meta.EventInfo
	added *MutableEvent
}

func (r EventRef) IsZero() bool { return r.info == nil && r.added == nil }
func (r EventRef) IsAdded() bool { return r.added != nil }
func (r EventRef) Kind() MemberKind { return MemberEvent }
func (EventRef) isMember() {}
func (r EventRef) ID() meta.EventID { return r.id }
func (r EventRef) Added() *MutableEvent { return r.added }

func (r EventRef) Name() string {
	switch {
	case r.added != nil:
		return r.added.Name()
	case r.info != nil:
		return r.info.Name
	default:
		return ""
	}
}

func (r EventRef) HandlerType() meta.TypeID {
	switch {
	case r.added != nil:
		return r.added.HandlerType()
	case r.info != nil:
		return r.info.HandlerType
	default:
		return meta.NoTypeID
	}
}

func (r EventRef) CustomAttributes() []*CustomAttributeDeclaration {
	if r.added != nil {
		return r.added.CustomAttributes()
	}
	return nil
}

var (
	_ Member = MethodRef{}
	_ Member = ConstructorRef{}
	_ Member = FieldRef{}
	_ Member = PropertyRef{}
	_ Member = EventRef{}
)
