package model

import (
	"slices"

	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
)

// MutableField is a field added to a type model.
type MutableField struct {
	customAttributes
	owner      ModelID
	name       string
	typ        meta.TypeID
	attributes meta.FieldAttributes
}

func (f *MutableField) Owner() ModelID { return f.owner }
func (f *MutableField) Name() string { return f.name }
func (f *MutableField) Type() meta.TypeID { return f.typ }
func (f *MutableField) Attributes() meta.FieldAttributes { return f.attributes }
func (f *MutableField) Key() string { return meta.FieldKey(f.name, f.typ) }

func (f *MutableField) collectionKey() string { return f.Key() }
func (f *MutableField) replacedMember() (meta.FieldID, bool) { return meta.NoFieldID, false }

// MutableConstructor is an instance constructor added to a type model.
type MutableConstructor struct {
	customAttributes
	owner      ModelID
	attributes meta.MethodAttributes
	void       meta.TypeID
	params     []Parameter
	body       body.Provider
}

func (c *MutableConstructor) Owner() ModelID { return c.owner }
func (c *MutableConstructor) Name() string { return meta.ConstructorName }
func (c *MutableConstructor) Attributes() meta.MethodAttributes { return c.attributes }
func (c *MutableConstructor) Parameters() []Parameter { return slices.Clone(c.params) }
func (c *MutableConstructor) Body() body.Provider { return c.body }

func (c *MutableConstructor) Signature() meta.Signature {
	return meta.Signature{Return: c.void, Params: parameterTypes(c.params)}
}

func (c *MutableConstructor) Key() string { return c.Signature().Key(meta.ConstructorName) }

// SetBody replaces the constructor body.
func (c *MutableConstructor) SetBody(b body.Provider) error {
	if b == nil {
		return configErr(diag.ModelInvalidBody, ErrInvalidBody, meta.ConstructorName, "constructor body must not be nil")
	}
	c.body = b
	return nil
}

func (c *MutableConstructor) collectionKey() string { return c.Key() }
func (c *MutableConstructor) replacedMember() (meta.MethodID, bool) { return meta.NoMethodID, false }

// MutableMethod is a method added to a type model. An override carries a
// BaseMethodLink (reuse slot) or explicit base definitions (new slot), never
// both for the same slot.
type MutableMethod struct {
	customAttributes
	owner         ModelID
	name          string
	attributes    meta.MethodAttributes
	returnType    meta.TypeID
	params        []Parameter
	body          body.Provider
	baseMethod    MethodRef
	explicitBases []MethodRef
}

func (m *MutableMethod) Owner() ModelID { return m.owner }
func (m *MutableMethod) Name() string { return m.name }
func (m *MutableMethod) Attributes() meta.MethodAttributes { return m.attributes }
func (m *MutableMethod) ReturnType() meta.TypeID { return m.returnType }
func (m *MutableMethod) Parameters() []Parameter { return slices.Clone(m.params) }
func (m *MutableMethod) Body() body.Provider { return m.body }
func (m *MutableMethod) IsStatic() bool { return m.attributes.IsStatic() }
func (m *MutableMethod) IsVirtual() bool { return m.attributes.IsVirtual() }
func (m *MutableMethod) IsAbstract() bool { return m.attributes.IsAbstract() }

func (m *MutableMethod) Signature() meta.Signature {
	return meta.Signature{Return: m.returnType, Params: parameterTypes(m.params)}
}

func (m *MutableMethod) Key() string { return m.Signature().Key(m.name) }

// BaseMethod returns the method whose slot this one reuses, if any.
func (m *MutableMethod) BaseMethod() (MethodRef, bool) { return m.baseMethod, !m.baseMethod.IsZero() }

// ExplicitBaseDefinitions returns the methods this one implements explicitly.
func (m *MutableMethod) ExplicitBaseDefinitions() []MethodRef { return slices.Clone(m.explicitBases) }

// IsOverride reports whether the method fills an inherited or interface slot.
func (m *MutableMethod) IsOverride() bool { return !m.baseMethod.IsZero() || len(m.explicitBases) > 0 }

func (m *MutableMethod) explicitlyOverrides(target meta.MethodID) bool {
	for _, b := range m.explicitBases {
		if b.ID() == target {
			return true
		}
	}
	return false
}

// SetBody replaces the body. A method made concrete this way loses Abstract.
func (m *MutableMethod) SetBody(b body.Provider) error {
	if b == nil {
		return configErr(diag.ModelInvalidBody, ErrInvalidBody, m.name, "method body must not be nil")
	}
	m.body = b
	m.attributes &^= meta.MethodAbstract
	return nil
}

func (m *MutableMethod) collectionKey() string { return m.Key() }

func (m *MutableMethod) replacedMember() (meta.MethodID, bool) {
	if m.baseMethod.IsAdded() || m.baseMethod.IsZero() {
		return meta.NoMethodID, false
	}
	return m.baseMethod.ID(), true
}

// MutableProperty is a property added to a type model. Its accessors are
// regular added methods.
type MutableProperty struct {
	customAttributes
	owner      ModelID
	name       string
	typ        meta.TypeID
	attributes meta.PropertyAttributes
	index      []Parameter
	getter     *MutableMethod
	setter     *MutableMethod
}

func (p *MutableProperty) Owner() ModelID { return p.owner }
func (p *MutableProperty) Name() string { return p.name }
func (p *MutableProperty) Type() meta.TypeID { return p.typ }
func (p *MutableProperty) Attributes() meta.PropertyAttributes { return p.attributes }
func (p *MutableProperty) IndexParameters() []Parameter { return slices.Clone(p.index) }
func (p *MutableProperty) Getter() *MutableMethod { return p.getter }
func (p *MutableProperty) Setter() *MutableMethod { return p.setter }
func (p *MutableProperty) Key() string {
	return meta.PropertyKey(p.name, parameterTypes(p.index))
}

func (p *MutableProperty) collectionKey() string { return p.Key() }
func (p *MutableProperty) replacedMember() (meta.PropertyID, bool) { return meta.NoPropertyID, false }

// MutableEvent is an event added to a type model.
type MutableEvent struct {
	customAttributes
	owner      ModelID
	name       string
	handler    meta.TypeID
	attributes meta.EventAttributes
	add        *MutableMethod
	remove     *MutableMethod
	raise      *MutableMethod
}

func (e *MutableEvent) Owner() ModelID { return e.owner }
func (e *MutableEvent) Name() string { return e.name }
func (e *MutableEvent) HandlerType() meta.TypeID { return e.handler }
func (e *MutableEvent) Attributes() meta.EventAttributes { return e.attributes }
func (e *MutableEvent) AddMethod() *MutableMethod { return e.add }
func (e *MutableEvent) RemoveMethod() *MutableMethod { return e.remove }
func (e *MutableEvent) RaiseMethod() *MutableMethod { return e.raise }
func (e *MutableEvent) Key() string { return e.name }

func (e *MutableEvent) collectionKey() string { return e.name }
func (e *MutableEvent) replacedMember() (meta.EventID, bool) { return meta.NoEventID, false }
