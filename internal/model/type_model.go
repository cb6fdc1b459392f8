// Package model builds the description of a new type on top of a base type
// supplied by a meta.Provider. A TypeModel is mutated during one build phase
// and then read by a code-generation backend.
package model

import (
	"errors"
	"slices"
	"strings"

	"typeweave/internal/binding"
	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/override"
)

// TypeDescriptor is the immutable header of a new type. A zero Base derives
// the type directly from Object.
type TypeDescriptor struct {
	Name       string
	Namespace  string
	Base       meta.TypeID
	Interfaces []meta.TypeID
	Attributes meta.TypeAttributes
}

// Option configures a TypeModel.
type Option func(*options)

type options struct {
	cache    *override.Cache
	resolver *override.Resolver
}

// WithCache selects the resolver cache. The default is override.DefaultCache.
func WithCache(c *override.Cache) Option {
	return func(o *options) { o.cache = c }
}

// WithResolver shares a resolver between models over the same provider.
func WithResolver(r *override.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// TypeModel is the mutable description of one new type. It is not safe for
// concurrent use; independent models may be built concurrently over a frozen
// provider.
type TypeModel struct {
	customAttributes

	id       ModelID
	desc     TypeDescriptor
	p        meta.Provider
	resolver *override.Resolver
	factory  *Factory
	base     meta.TypeID

	fields       *Collection[meta.FieldID, *MutableField]
	constructors *Collection[meta.MethodID, *MutableConstructor]
	methods      *Collection[meta.MethodID, *MutableMethod]
	properties   *Collection[meta.PropertyID, *MutableProperty]
	events       *Collection[meta.EventID, *MutableEvent]

	addedInterfaces []meta.TypeID
	typeInit        []body.Provider
	instanceInit    []body.Provider

	// overrides maps a base definition to the added method occupying its slot.
	overrides map[meta.MethodID]*MutableMethod
}

// NewTypeModel validates desc and creates an empty model.
func NewTypeModel(p meta.Provider, desc TypeDescriptor, opts ...Option) (*TypeModel, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if desc.Name == "" {
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, desc.Namespace, "type name must not be empty")
	}
	full := meta.FullName(desc.Namespace, desc.Name)
	if desc.Attributes&meta.TypeInterface != 0 {
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, full, "interfaces cannot be built as type models")
	}
	base := desc.Base
	if !base.IsValid() {
		base = p.Builtins().Object
	}
	bt := p.Type(base)
	switch {
	case bt == nil:
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, full, "base type %d does not exist", base)
	case bt.Kind != meta.KindClass:
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, full, "base type %s is not a class", meta.TypeName(p, base))
	case bt.IsSealed():
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, full, "base type %s is sealed", meta.TypeName(p, base))
	}

	resolver := o.resolver
	if resolver == nil {
		resolver = override.NewResolver(p, o.cache)
	}
	tm := &TypeModel{
		id:        nextModelID(),
		desc:      desc,
		p:         p,
		resolver:  resolver,
		factory:   NewFactory(p, resolver),
		base:      base,
		overrides: make(map[meta.MethodID]*MutableMethod),
	}
	tm.desc.Base = base
	tm.desc.Interfaces = nil
	tm.fields = newCollection[meta.FieldID, *MutableField](MemberField, existingFields(p, base), fieldKey(p))
	tm.constructors = newCollection[meta.MethodID, *MutableConstructor](MemberConstructor, nil, methodKey(p))
	tm.methods = newCollection[meta.MethodID, *MutableMethod](MemberMethod, existingMethods(p, base), methodKey(p))
	tm.properties = newCollection[meta.PropertyID, *MutableProperty](MemberProperty, existingProperties(p, base), propertyKey(p))
	tm.events = newCollection[meta.EventID, *MutableEvent](MemberEvent, existingEvents(p, base), eventKey(p))

	for _, iface := range desc.Interfaces {
		if err := tm.AddInterface(iface); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

func (tm *TypeModel) ID() ModelID { return tm.id }
func (tm *TypeModel) Name() string { return tm.desc.Name }
func (tm *TypeModel) Namespace() string { return tm.desc.Namespace }
func (tm *TypeModel) FullName() string { return meta.FullName(tm.desc.Namespace, tm.desc.Name) }
func (tm *TypeModel) BaseType() meta.TypeID { return tm.base }
func (tm *TypeModel) Attributes() meta.TypeAttributes { return tm.desc.Attributes }
func (tm *TypeModel) Provider() meta.Provider { return tm.p }
func (tm *TypeModel) Resolver() *override.Resolver { return tm.resolver }
func (tm *TypeModel) TypeInitializers() []body.Provider { return slices.Clone(tm.typeInit) }
func (tm *TypeModel) InstanceInitializers() []body.Provider { return slices.Clone(tm.instanceInit) }

// AddField adds a field.
func (tm *TypeModel) AddField(name string, typ meta.TypeID, attrs meta.FieldAttributes) (*MutableField, error) {
	f, err := tm.factory.CreateField(tm, name, typ, attrs)
	if err != nil {
		return nil, err
	}
	if err := tm.fields.Add(f); err != nil {
		return nil, err
	}
	return f, nil
}

// AddConstructor adds an instance constructor.
func (tm *TypeModel) AddConstructor(attrs meta.MethodAttributes, params []ParameterDeclaration, b body.Provider) (*MutableConstructor, error) {
	c, err := tm.factory.CreateConstructor(tm, attrs, params, b)
	if err != nil {
		return nil, err
	}
	if err := tm.constructors.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddMethod adds a method with a body.
func (tm *TypeModel) AddMethod(name string, attrs meta.MethodAttributes, ret meta.TypeID, params []ParameterDeclaration, b body.Provider) (*MutableMethod, error) {
	return tm.addMethod(MethodRequest{Name: name, Attributes: attrs, ReturnType: ret, Params: params, Body: b})
}

// AddAbstractMethod adds a virtual method without a body.
func (tm *TypeModel) AddAbstractMethod(name string, attrs meta.MethodAttributes, ret meta.TypeID, params []ParameterDeclaration) (*MutableMethod, error) {
	attrs |= meta.MethodAbstract | meta.MethodVirtual
	return tm.addMethod(MethodRequest{Name: name, Attributes: attrs, ReturnType: ret, Params: params})
}

func (tm *TypeModel) addMethod(req MethodRequest) (*MutableMethod, error) {
	m, err := tm.factory.CreateMethod(tm, req)
	if err != nil {
		return nil, err
	}
	if err := tm.methods.Add(m); err != nil {
		return nil, err
	}
	if !m.baseMethod.IsZero() {
		tm.overrides[meta.BaseDefinition(tm.p, m.baseMethod.ID())] = m
	}
	return m, nil
}

// AddProperty adds a property and its accessor methods.
func (tm *TypeModel) AddProperty(decl PropertyDeclaration) (*MutableProperty, error) {
	prop, err := tm.factory.CreateProperty(tm, decl)
	if err != nil {
		return nil, err
	}
	accessors := make([]*MutableMethod, 0, 2)
	for _, m := range []*MutableMethod{prop.getter, prop.setter} {
		if m != nil {
			accessors = append(accessors, m)
		}
	}
	if err := tm.addAccessors(accessors); err != nil {
		return nil, err
	}
	if err := tm.properties.Add(prop); err != nil {
		return nil, err
	}
	return prop, nil
}

// AddEvent adds an event and its add and remove methods.
func (tm *TypeModel) AddEvent(decl EventDeclaration) (*MutableEvent, error) {
	ev, err := tm.factory.CreateEvent(tm, decl)
	if err != nil {
		return nil, err
	}
	if err := tm.addAccessors([]*MutableMethod{ev.add, ev.remove}); err != nil {
		return nil, err
	}
	if err := tm.events.Add(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// addAccessors inserts all accessors or none.
func (tm *TypeModel) addAccessors(ms []*MutableMethod) error {
	seen := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		if _, dup := seen[m.Key()]; dup || tm.methods.Contains(m.Key()) {
			return duplicate(MemberMethod, tm.FullName()+"."+m.name, m.Key())
		}
		seen[m.Key()] = struct{}{}
	}
	for _, m := range ms {
		if err := tm.methods.Add(m); err != nil {
			return err
		}
		if !m.baseMethod.IsZero() {
			tm.overrides[meta.BaseDefinition(tm.p, m.baseMethod.ID())] = m
		}
	}
	return nil
}

// AddInterface declares that the type implements iface.
func (tm *TypeModel) AddInterface(iface meta.TypeID) error {
	subject := meta.TypeName(tm.p, iface)
	if !tm.p.Type(iface).IsInterface() {
		return configErr(diag.MapNotInterface, ErrNotInterface, subject, "type is not an interface")
	}
	if slices.Contains(tm.AllInterfaces(), iface) {
		return configErr(diag.MapAlreadyImplemented, ErrAlreadyImplemented, subject, "%s already implements the interface", tm.FullName())
	}
	tm.addedInterfaces = append(tm.addedInterfaces, iface)
	return nil
}

// AddTypeInitializer appends a body run once when the type is initialized.
func (tm *TypeModel) AddTypeInitializer(b body.Provider) error {
	if b == nil {
		return configErr(diag.ModelInvalidBody, ErrInvalidBody, tm.FullName(), "type initializer must not be nil")
	}
	tm.typeInit = append(tm.typeInit, b)
	return nil
}

// AddInstanceInitializer appends a body run by every constructor before its
// own body.
func (tm *TypeModel) AddInstanceInitializer(b body.Provider) error {
	if b == nil {
		return configErr(diag.ModelInvalidBody, ErrInvalidBody, tm.FullName(), "instance initializer must not be nil")
	}
	tm.instanceInit = append(tm.instanceInit, b)
	return nil
}

// GetOrAddOverride returns the override of baseMethod's slot, creating it on
// the first request.
func (tm *TypeModel) GetOrAddOverride(baseMethod meta.MethodID) (*MutableMethod, bool, error) {
	return tm.factory.GetOrCreateOverride(tm, baseMethod)
}

// AddExplicitOverride makes m implement target explicitly. target is a
// virtual method of the base chain or a method of an implemented interface;
// each slot gets at most one implementation strategy.
func (tm *TypeModel) AddExplicitOverride(m *MutableMethod, target meta.MethodID) error {
	if m == nil || m.owner != tm.id {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, tm.FullName(), "method does not belong to this type")
	}
	if got, ok := tm.methods.Lookup(m.Key()); !ok || got != m {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, m.name, "method is not part of this type")
	}
	subject := tm.FullName() + "." + m.name
	if !m.IsVirtual() || m.IsStatic() {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "explicit overrides must be virtual instance methods")
	}
	info := tm.p.Method(target)
	if info == nil || info.IsConstructor() {
		return configErr(diag.ModelUnknownMember, ErrUnknownMember, subject, "method %d is not an overridable method", target)
	}
	targetName := meta.MethodName(tm.p, target)
	onInterface := tm.p.Type(info.DeclaringType).IsInterface()
	if onInterface {
		if !slices.Contains(tm.AllInterfaces(), info.DeclaringType) {
			return configErr(diag.ModelOutsideHierarchy, ErrOutsideHierarchy, subject, "%s is declared on an interface the type does not implement", targetName)
		}
	} else if err := tm.resolver.CheckOverridable(target, tm.base); err != nil {
		return resolverErr(subject, err)
	}
	if !m.Signature().Equal(info.Signature) {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "signature does not match %s", targetName)
	}
	if m.explicitlyOverrides(target) {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "%s is already an explicit base definition", targetName)
	}
	root := meta.BaseDefinition(tm.p, target)
	if !m.baseMethod.IsZero() && meta.BaseDefinition(tm.p, m.baseMethod.ID()) == root {
		return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "method already overrides %s through its slot", targetName)
	}
	for _, other := range tm.methods.Added() {
		if other != m && other.explicitlyOverrides(target) {
			return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "%s is already implemented by %s", targetName, other.name)
		}
	}
	if !onInterface {
		if prev, ok := tm.overrides[root]; ok && prev != m {
			return configErr(diag.ModelExplicitOverride, ErrExplicitOverride, subject, "%s is already overridden by %s", targetName, prev.name)
		}
		tm.overrides[root] = m
	}
	m.explicitBases = append(m.explicitBases, ExistingMethod(tm.p, target))
	return nil
}

func (tm *TypeModel) addedCandidates() []override.Candidate {
	added := tm.methods.Added()
	out := make([]override.Candidate, 0, len(added))
	for _, m := range added {
		def := meta.NoMethodID
		if !m.baseMethod.IsZero() {
			def = meta.BaseDefinition(tm.p, m.baseMethod.ID())
		}
		out = append(out, override.Candidate{
			Name:           m.name,
			Signature:      m.Signature(),
			Attributes:     m.attributes,
			BaseDefinition: def,
		})
	}
	return out
}

// AllInterfaces returns the inherited interfaces followed by the added ones
// and the interfaces they extend, without duplicates.
func (tm *TypeModel) AllInterfaces() []meta.TypeID {
	out := slices.Clone(tm.p.Interfaces(tm.base))
	push := func(id meta.TypeID) {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	for _, iface := range tm.addedInterfaces {
		push(iface)
		for _, ext := range tm.p.Interfaces(iface) {
			push(ext)
		}
	}
	return out
}

// AddedInterfaces returns the interfaces added to the model.
func (tm *TypeModel) AddedInterfaces() []meta.TypeID { return slices.Clone(tm.addedInterfaces) }

// AllFields returns the visible inherited fields followed by the added ones.
func (tm *TypeModel) AllFields() []FieldRef {
	existing := tm.fields.VisibleExisting()
	added := tm.fields.Added()
	out := make([]FieldRef, 0, len(existing)+len(added))
	for _, id := range existing {
		out = append(out, ExistingField(tm.p, id))
	}
	for _, f := range added {
		out = append(out, FieldRef{added: f})
	}
	return out
}

// AllConstructors returns the added constructors. Constructors are never
// inherited.
func (tm *TypeModel) AllConstructors() []ConstructorRef {
	added := tm.constructors.Added()
	out := make([]ConstructorRef, 0, len(added))
	for _, c := range added {
		out = append(out, ConstructorRef{added: c})
	}
	return out
}

// AllMethods returns the inherited methods that are neither overridden nor
// hidden, followed by the added methods.
func (tm *TypeModel) AllMethods() []MethodRef {
	existing := tm.methods.VisibleExisting()
	added := tm.methods.Added()
	out := make([]MethodRef, 0, len(existing)+len(added))
	for _, id := range existing {
		out = append(out, ExistingMethod(tm.p, id))
	}
	for _, m := range added {
		out = append(out, AddedMethod(m))
	}
	return out
}

func (tm *TypeModel) AllProperties() []PropertyRef {
	existing := tm.properties.VisibleExisting()
	added := tm.properties.Added()
	out := make([]PropertyRef, 0, len(existing)+len(added))
	for _, id := range existing {
		out = append(out, PropertyRef{id: id, info: tm.p.Property(id)})
	}
	for _, prop := range added {
		out = append(out, PropertyRef{added: prop})
	}
	return out
}

func (tm *TypeModel) AllEvents() []EventRef {
	existing := tm.events.VisibleExisting()
	added := tm.events.Added()
	out := make([]EventRef, 0, len(existing)+len(added))
	for _, id := range existing {
		out = append(out, EventRef{id: id, info: tm.p.Event(id)})
	}
	for _, ev := range added {
		out = append(out, EventRef{added: ev})
	}
	return out
}

// AllMembers returns every member, grouped by kind.
func (tm *TypeModel) AllMembers() []Member {
	var out []Member
	for _, f := range tm.AllFields() {
		out = append(out, f)
	}
	for _, c := range tm.AllConstructors() {
		out = append(out, c)
	}
	for _, m := range tm.AllMethods() {
		out = append(out, m)
	}
	for _, prop := range tm.AllProperties() {
		out = append(out, prop)
	}
	for _, ev := range tm.AllEvents() {
		out = append(out, ev)
	}
	return out
}

// AddedMethods returns the added methods in insertion order.
func (tm *TypeModel) AddedMethods() []*MutableMethod { return tm.methods.Added() }

// GetMethod resolves an inherited method to what the model exposes for it:
// the added override or hiding method, or the inherited method itself.
func (tm *TypeModel) GetMethod(id meta.MethodID) (MethodRef, error) {
	m, passThrough, err := tm.methods.Resolve(id)
	if err != nil {
		return MethodRef{}, err
	}
	if passThrough {
		return ExistingMethod(tm.p, id), nil
	}
	return AddedMethod(m), nil
}

// GetField resolves an inherited field like GetMethod.
func (tm *TypeModel) GetField(id meta.FieldID) (FieldRef, error) {
	f, passThrough, err := tm.fields.Resolve(id)
	if err != nil {
		return FieldRef{}, err
	}
	if passThrough {
		return ExistingField(tm.p, id), nil
	}
	return FieldRef{added: f}, nil
}

// GetInterface finds an implemented interface by name. A name containing a
// dot is compared with the full name, otherwise with the simple name.
func (tm *TypeModel) GetInterface(name string, ignoreCase bool) (meta.TypeID, bool, error) {
	nameOf := func(id meta.TypeID) string {
		if strings.Contains(name, ".") {
			return meta.TypeName(tm.p, id)
		}
		return tm.p.Type(id).Name
	}
	return binding.SelectByName(tm.AllInterfaces(), nameOf, name, ignoreCase)
}

// SelectMethod resolves a single method by name and, optionally, parameter
// types.
func (tm *TypeModel) SelectMethod(mask binding.Flags, name string, paramTypes []meta.TypeID, modifiers []binding.ParameterModifier) (MethodRef, bool, error) {
	return binding.SelectSingleMethod(tm.AllMethods(), mask, name, paramTypes, modifiers)
}

// SelectField resolves a single field by name.
func (tm *TypeModel) SelectField(mask binding.Flags, name string) (FieldRef, bool, error) {
	return binding.SelectSingleField(tm.AllFields(), mask, name)
}

// SelectConstructor resolves a single constructor by parameter types.
func (tm *TypeModel) SelectConstructor(mask binding.Flags, paramTypes []meta.TypeID, modifiers []binding.ParameterModifier) (ConstructorRef, bool, error) {
	return binding.SelectSingleConstructor(tm.AllConstructors(), mask, paramTypes, modifiers)
}

// GetInterfaceMapping computes the mapping of iface using the provider's
// interface maps for inherited implementations.
func (tm *TypeModel) GetInterfaceMapping(iface meta.TypeID, allowPartial bool) (InterfaceMapping, error) {
	return ComputeMapping(tm, tm.p, iface, allowPartial)
}

// Mappings computes the mapping of every implemented interface. Failures are
// joined; successful mappings are still returned.
func (tm *TypeModel) Mappings(allowPartial bool) ([]InterfaceMapping, error) {
	var (
		out  []InterfaceMapping
		errs []error
	)
	for _, iface := range tm.AllInterfaces() {
		m, err := tm.GetInterfaceMapping(iface, allowPartial)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errors.Join(errs...)
}

// IsAbstract reports whether the type is declared abstract or still has an
// abstract method.
func (tm *TypeModel) IsAbstract() bool {
	if tm.desc.Attributes&meta.TypeAbstract != 0 {
		return true
	}
	for _, m := range tm.AllMethods() {
		if m.IsAbstract() {
			return true
		}
	}
	return false
}

// MethodContext builds the body context of an added method. Overrides see
// the method they override as the context's base method.
func (tm *TypeModel) MethodContext(m *MutableMethod) *body.Context {
	ret := m.returnType
	if ret == tm.p.Builtins().Void {
		ret = meta.NoTypeID
	}
	var base body.Method
	if !m.baseMethod.IsZero() {
		base = m.baseMethod
	} else {
		for _, eb := range m.explicitBases {
			if !tm.p.Type(eb.Info().DeclaringType).IsInterface() {
				base = eb
				break
			}
		}
	}
	return body.NewContext(m.IsStatic(), bodyParams(m.params), ret, base)
}

// ConstructorContext builds the body context of an added constructor.
func (tm *TypeModel) ConstructorContext(c *MutableConstructor) *body.Context {
	return body.NewContext(false, bodyParams(c.params), meta.NoTypeID, nil)
}

// InitializerContext builds the context of a type or instance initializer.
func (tm *TypeModel) InitializerContext(static bool) *body.Context {
	return body.NewContext(static, nil, meta.NoTypeID, nil)
}
