package model

import (
	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
	"typeweave/internal/override"
)

type namedFlag[F ~uint16 | ~uint32] struct {
	flag F
	name string
}

var disallowedConstructorFlags = []namedFlag[meta.MethodAttributes]{
	{meta.MethodAbstract, "Abstract"},
	{meta.MethodVirtual, "Virtual"},
	{meta.MethodHideBySig, "HideBySig"},
	{meta.MethodPinvokeImpl, "PinvokeImpl"},
	{meta.MethodRequireSecObject, "RequireSecObject"},
	{meta.MethodUnmanagedExport, "UnmanagedExport"},
}

var disallowedMethodFlags = []namedFlag[meta.MethodAttributes]{
	{meta.MethodPinvokeImpl, "PinvokeImpl"},
	{meta.MethodRequireSecObject, "RequireSecObject"},
	{meta.MethodUnmanagedExport, "UnmanagedExport"},
}

var disallowedFieldFlags = []namedFlag[meta.FieldAttributes]{
	{meta.FieldLiteral, "Literal"},
	{meta.FieldHasFieldMarshal, "HasFieldMarshal"},
	{meta.FieldHasDefault, "HasDefault"},
	{meta.FieldHasFieldRVA, "HasFieldRVA"},
	{meta.FieldPinvokeImpl, "PinvokeImpl"},
}

func checkFlags[F ~uint16 | ~uint32](subject, kind string, attrs F, table []namedFlag[F]) error {
	for _, f := range table {
		if attrs&f.flag != 0 {
			return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "%s is not allowed for %s", f.name, kind)
		}
	}
	return nil
}

// Factory creates member descriptors for a type model. It validates flag
// combinations and signature uniqueness but never inserts anything; the
// model does that once every check has passed.
type Factory struct {
	p        meta.Provider
	resolver *override.Resolver
}

// NewFactory builds a factory over the provider and resolver of a model.
func NewFactory(p meta.Provider, resolver *override.Resolver) *Factory {
	return &Factory{p: p, resolver: resolver}
}

// CreateField validates a field request.
func (f *Factory) CreateField(tm *TypeModel, name string, typ meta.TypeID, attrs meta.FieldAttributes) (*MutableField, error) {
	if name == "" {
		return nil, configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, tm.FullName(), "field name must not be empty")
	}
	if err := checkFlags(name, "fields", attrs, disallowedFieldFlags); err != nil {
		return nil, err
	}
	if t := f.p.Type(typ); t == nil || typ == f.p.Builtins().Void {
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, name, "field type %s is not valid", meta.TypeName(f.p, typ))
	}
	key := meta.FieldKey(name, typ)
	if tm.fields.Contains(key) {
		return nil, duplicate(MemberField, name, key)
	}
	return &MutableField{owner: tm.id, name: name, typ: typ, attributes: attrs}, nil
}

// CreateConstructor validates an instance constructor request. Static
// constructors are rejected; type initializers are bodies, not members.
func (f *Factory) CreateConstructor(tm *TypeModel, attrs meta.MethodAttributes, params []ParameterDeclaration, b body.Provider) (*MutableConstructor, error) {
	subject := tm.FullName() + "." + meta.ConstructorName
	if err := checkFlags(subject, "constructors", attrs, disallowedConstructorFlags); err != nil {
		return nil, err
	}
	if attrs.IsStatic() {
		return nil, configErr(diag.ModelStaticConstructor, ErrStaticConstructor, subject, "static constructors cannot be added; use a type initializer")
	}
	if err := validateParameters(f.p, subject, params); err != nil {
		return nil, err
	}
	if b == nil {
		return nil, configErr(diag.ModelInvalidBody, ErrInvalidBody, subject, "constructor requires a body")
	}
	void := f.p.Builtins().Void
	c := &MutableConstructor{
		owner:      tm.id,
		attributes: attrs | meta.MethodSpecialName | meta.MethodRTSpecialName,
		void:       void,
		params:     newParameters(params),
		body:       b,
	}
	if tm.constructors.Contains(c.Key()) {
		return nil, duplicate(MemberConstructor, subject, c.Key())
	}
	return c, nil
}

// MethodRequest describes a method to create.
type MethodRequest struct {
	Name       string
	Attributes meta.MethodAttributes
	ReturnType meta.TypeID
	Params     []ParameterDeclaration
	Body       body.Provider
}

// CreateMethod validates a method request. A virtual method with the
// reuse-slot layout is linked to the most-derived virtual method of the base
// chain with the same signature, like the runtime type loader does.
func (f *Factory) CreateMethod(tm *TypeModel, req MethodRequest) (*MutableMethod, error) {
	if req.Name == "" {
		return nil, configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, tm.FullName(), "method name must not be empty")
	}
	attrs := req.Attributes
	subject := tm.FullName() + "." + req.Name
	if err := checkFlags(subject, "methods", attrs, disallowedMethodFlags); err != nil {
		return nil, err
	}
	if err := checkMethodShape(subject, attrs); err != nil {
		return nil, err
	}
	if attrs.IsAbstract() && req.Body != nil {
		return nil, configErr(diag.ModelInvalidBody, ErrInvalidBody, subject, "abstract method cannot have a body")
	}
	if !attrs.IsAbstract() && req.Body == nil {
		return nil, configErr(diag.ModelInvalidBody, ErrInvalidBody, subject, "non-abstract method requires a body")
	}
	if f.p.Type(req.ReturnType) == nil {
		return nil, configErr(diag.ModelInvalidType, ErrInvalidType, subject, "return type %s is not valid", meta.TypeName(f.p, req.ReturnType))
	}
	if err := validateParameters(f.p, subject, req.Params); err != nil {
		return nil, err
	}

	m := &MutableMethod{
		owner:      tm.id,
		name:       req.Name,
		attributes: attrs,
		returnType: req.ReturnType,
		params:     newParameters(req.Params),
		body:       req.Body,
	}
	if tm.methods.Contains(m.Key()) {
		return nil, duplicate(MemberMethod, subject, m.Key())
	}
	if attrs.IsVirtual() && !attrs.IsNewSlot() {
		if base, ok := f.resolver.FindMostDerivedVirtualMethod(m.name, m.Signature(), tm.base); ok {
			if info := f.p.Method(base); info.Attributes.IsFinal() {
				return nil, configErr(diag.ModelFinalOverride, ErrFinalOverride, subject, "%s is final and cannot be overridden", meta.MethodName(f.p, base))
			}
			root := meta.BaseDefinition(f.p, base)
			if prev, dup := tm.overrides[root]; dup {
				return nil, configErr(diag.ModelDuplicateMember, ErrDuplicateMember, subject, "%s is already overridden by %s", meta.MethodName(f.p, root), prev.Name())
			}
			m.baseMethod = ExistingMethod(f.p, base)
		}
	}
	return m, nil
}

func checkMethodShape(subject string, attrs meta.MethodAttributes) error {
	if !attrs.IsVirtual() {
		switch {
		case attrs.IsNewSlot():
			return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "NewSlot requires Virtual")
		case attrs.IsAbstract():
			return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "Abstract requires Virtual")
		case attrs.IsFinal():
			return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "Final requires Virtual")
		}
	}
	if attrs.IsStatic() && attrs.IsVirtual() {
		return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "Static cannot be combined with Virtual")
	}
	if attrs.IsAbstract() && attrs.IsFinal() {
		return configErr(diag.ModelInvalidAttributes, ErrInvalidAttributes, subject, "Abstract cannot be combined with Final")
	}
	return nil
}

func duplicate(kind MemberKind, subject, key string) *ConfigError {
	return configErr(diag.ModelDuplicateMember, ErrDuplicateMember, subject, "%s %s is already declared", kind, key)
}

// PropertyDeclaration describes a property and the accessors to synthesize.
// At least one of Getter and Setter must be set.
type PropertyDeclaration struct {
	Name       string
	Type       meta.TypeID
	Index      []ParameterDeclaration
	Attributes meta.PropertyAttributes
	// AccessorAttributes apply to both accessors; SpecialName and HideBySig
	// are always added.
	AccessorAttributes meta.MethodAttributes
	Getter             body.Provider
	Setter             body.Provider
}

// CreateProperty validates a property request and synthesizes its accessors.
// Nothing is inserted; the caller adds the accessors and the property.
func (f *Factory) CreateProperty(tm *TypeModel, decl PropertyDeclaration) (*MutableProperty, error) {
	subject := tm.FullName() + "." + decl.Name
	if decl.Name == "" {
		return nil, configErr(diag.ModelInvalidProperty, ErrInvalidProperty, tm.FullName(), "property name must not be empty")
	}
	if decl.Getter == nil && decl.Setter == nil {
		return nil, configErr(diag.ModelInvalidProperty, ErrInvalidProperty, subject, "property needs a getter or a setter")
	}
	if t := f.p.Type(decl.Type); t == nil || decl.Type == f.p.Builtins().Void {
		return nil, configErr(diag.ModelInvalidProperty, ErrInvalidProperty, subject, "property type %s is not valid", meta.TypeName(f.p, decl.Type))
	}
	if err := validateParameters(f.p, subject, decl.Index); err != nil {
		return nil, err
	}
	prop := &MutableProperty{
		owner:      tm.id,
		name:       decl.Name,
		typ:        decl.Type,
		attributes: decl.Attributes,
		index:      newParameters(decl.Index),
	}
	if tm.properties.Contains(prop.Key()) {
		return nil, duplicate(MemberProperty, subject, prop.Key())
	}

	accessor := decl.AccessorAttributes | meta.MethodSpecialName | meta.MethodHideBySig
	var err error
	if decl.Getter != nil {
		prop.getter, err = f.CreateMethod(tm, MethodRequest{
			Name:       "get_" + decl.Name,
			Attributes: accessor,
			ReturnType: decl.Type,
			Params:     decl.Index,
			Body:       decl.Getter,
		})
		if err != nil {
			return nil, err
		}
	}
	if decl.Setter != nil {
		params := append(append([]ParameterDeclaration(nil), decl.Index...), Param("value", decl.Type))
		prop.setter, err = f.CreateMethod(tm, MethodRequest{
			Name:       "set_" + decl.Name,
			Attributes: accessor,
			ReturnType: f.p.Builtins().Void,
			Params:     params,
			Body:       decl.Setter,
		})
		if err != nil {
			return nil, err
		}
	}
	return prop, nil
}

// EventDeclaration describes an event and its add and remove accessors.
type EventDeclaration struct {
	Name               string
	HandlerType        meta.TypeID
	Attributes         meta.EventAttributes
	AccessorAttributes meta.MethodAttributes
	Add                body.Provider
	Remove             body.Provider
}

// CreateEvent validates an event request and synthesizes its accessors.
func (f *Factory) CreateEvent(tm *TypeModel, decl EventDeclaration) (*MutableEvent, error) {
	subject := tm.FullName() + "." + decl.Name
	if decl.Name == "" {
		return nil, configErr(diag.ModelInvalidEvent, ErrInvalidEvent, tm.FullName(), "event name must not be empty")
	}
	if !meta.IsSubclassOf(f.p, decl.HandlerType, f.p.Builtins().Delegate) {
		return nil, configErr(diag.ModelInvalidEvent, ErrInvalidEvent, subject, "handler type %s is not a delegate", meta.TypeName(f.p, decl.HandlerType))
	}
	if decl.Add == nil || decl.Remove == nil {
		return nil, configErr(diag.ModelInvalidEvent, ErrInvalidEvent, subject, "event needs add and remove bodies")
	}
	if tm.events.Contains(decl.Name) {
		return nil, duplicate(MemberEvent, subject, decl.Name)
	}
	ev := &MutableEvent{owner: tm.id, name: decl.Name, handler: decl.HandlerType, attributes: decl.Attributes}
	accessor := decl.AccessorAttributes | meta.MethodSpecialName | meta.MethodHideBySig
	void := f.p.Builtins().Void
	var err error
	ev.add, err = f.CreateMethod(tm, MethodRequest{
		Name:       "add_" + decl.Name,
		Attributes: accessor,
		ReturnType: void,
		Params:     []ParameterDeclaration{Param("value", decl.HandlerType)},
		Body:       decl.Add,
	})
	if err != nil {
		return nil, err
	}
	ev.remove, err = f.CreateMethod(tm, MethodRequest{
		Name:       "remove_" + decl.Name,
		Attributes: accessor,
		ReturnType: void,
		Params:     []ParameterDeclaration{Param("value", decl.HandlerType)},
		Body:       decl.Remove,
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}
