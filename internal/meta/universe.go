package meta

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs of the types every Universe is seeded with.
type Builtins struct {
	Object       TypeID
	Void         TypeID
	Boolean      TypeID
	Int32        TypeID
	Int64        TypeID
	Double       TypeID
	String       TypeID
	Type         TypeID
	Attribute    TypeID
	Delegate     TypeID
	EventHandler TypeID
}

// SystemNamespace hosts the builtin types.
const SystemNamespace = "System"

// Universe owns every pre-existing type and member in compact arenas. It is
// populated once (by a library loader or a test fixture), then frozen and
// shared read-only between build sessions.
type Universe struct {
	types      []TypeInfo
	methods    []MethodInfo
	fields     []FieldInfo
	properties []PropertyInfo
	events     []EventInfo

	byName   map[string]TypeID
	byRef    map[TypeID]TypeID
	arrays   map[TypeID]TypeID
	builtins Builtins
	frozen   bool
}

// NewUniverse constructs a universe seeded with the builtin System types.
func NewUniverse() *Universe {
	u := &Universe{
		types:      make([]TypeInfo, 1, 64), // index 0 reserved for NoTypeID
		methods:    make([]MethodInfo, 1, 128),
		fields:     make([]FieldInfo, 1, 64),
		properties: make([]PropertyInfo, 1, 16),
		events:     make([]EventInfo, 1, 8),
		byName:     make(map[string]TypeID, 64),
		byRef:      make(map[TypeID]TypeID),
		arrays:     make(map[TypeID]TypeID),
	}
	u.seedBuiltins()
	return u
}

func (u *Universe) seedBuiltins() {
	b := &u.builtins
	b.Object = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "Object", Attributes: TypePublic})
	value := func(name string) TypeID {
		return u.defineType(TypeInfo{Kind: KindValueType, Namespace: SystemNamespace, Name: name, Attributes: TypePublic | TypeSealed, Base: b.Object})
	}
	b.Void = value("Void")
	b.Boolean = value("Boolean")
	b.Int32 = value("Int32")
	b.Int64 = value("Int64")
	b.Double = value("Double")
	b.String = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "String", Attributes: TypePublic | TypeSealed, Base: b.Object})
	b.Type = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "Type", Attributes: TypePublic | TypeAbstract, Base: b.Object})
	b.Attribute = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "Attribute", Attributes: TypePublic | TypeAbstract, Base: b.Object})
	b.Delegate = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "Delegate", Attributes: TypePublic | TypeAbstract, Base: b.Object})
	b.EventHandler = u.defineType(TypeInfo{Kind: KindClass, Namespace: SystemNamespace, Name: "EventHandler", Attributes: TypePublic | TypeSealed, Base: b.Delegate})

	public := MethodPublic()
	u.DefineConstructor(b.Object, public, nil)
	u.DefineMethod(b.Object, "ToString", public|MethodVirtual|MethodHideBySig|MethodNewSlot, Signature{Return: b.String})
	u.DefineMethod(b.Object, "Equals", public|MethodVirtual|MethodHideBySig|MethodNewSlot, Signature{Return: b.Boolean, Params: []TypeID{b.Object}}, "obj")
	u.DefineMethod(b.Object, "GetHashCode", public|MethodVirtual|MethodHideBySig|MethodNewSlot, Signature{Return: b.Int32})
	u.DefineMethod(b.Object, "Finalize", MethodAttributes(AccessFamily)|MethodVirtual|MethodHideBySig|MethodNewSlot, Signature{Return: b.Void})
	u.DefineMethod(b.Object, "GetType", public|MethodHideBySig, Signature{Return: b.Type})
	u.DefineConstructor(b.Attribute, MethodAttributes(AccessFamily), nil)
}

// MethodPublic returns the attribute set of a plain public method.
func MethodPublic() MethodAttributes { return MethodAttributes(AccessPublic) }

// Builtins returns the TypeIDs of the builtin System types.
func (u *Universe) Builtins() Builtins { return u.builtins }

// Freeze forbids further definitions. A frozen universe is safe for
// concurrent reads.
func (u *Universe) Freeze() { u.frozen = true }

// Frozen reports whether Freeze has been called.
func (u *Universe) Frozen() bool { return u.frozen }

func (u *Universe) mustMutate() {
	if u.frozen {
		panic("meta: universe is frozen")
	}
}

func nextIndex(n int, what string) uint32 {
	value, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("%s arena overflow: %w", what, err))
	}
	return value
}

func (u *Universe) defineType(info TypeInfo) TypeID {
	u.mustMutate()
	id := TypeID(nextIndex(len(u.types), "types"))
	u.types = append(u.types, info)
	if info.Kind != KindByRef && info.Kind != KindArray {
		u.byName[fullName(info.Namespace, info.Name)] = id
	}
	return id
}

func (u *Universe) mustType(id TypeID) *TypeInfo {
	t := u.Type(id)
	if t == nil {
		panic(fmt.Sprintf("meta: invalid TypeID %d", id))
	}
	return t
}

// DefineClass adds a class. A NoTypeID base derives from Object.
func (u *Universe) DefineClass(namespace, name string, base TypeID, attrs TypeAttributes) TypeID {
	if !base.IsValid() {
		base = u.builtins.Object
	}
	if bt := u.mustType(base); bt.Kind != KindClass {
		panic(fmt.Sprintf("meta: %s cannot be a base class", TypeName(u, base)))
	}
	return u.defineType(TypeInfo{Kind: KindClass, Namespace: namespace, Name: name, Base: base, Attributes: attrs &^ TypeInterface})
}

// DefineValueType adds a sealed value type deriving from Object.
func (u *Universe) DefineValueType(namespace, name string, attrs TypeAttributes) TypeID {
	return u.defineType(TypeInfo{Kind: KindValueType, Namespace: namespace, Name: name, Base: u.builtins.Object, Attributes: attrs | TypeSealed})
}

// DefineInterface adds an interface extending the given interfaces.
func (u *Universe) DefineInterface(namespace, name string, attrs TypeAttributes, extends ...TypeID) TypeID {
	id := u.defineType(TypeInfo{Kind: KindInterface, Namespace: namespace, Name: name, Attributes: attrs | TypeInterface | TypeAbstract})
	for _, iface := range extends {
		u.AddInterface(id, iface)
	}
	return id
}

// AddInterface records that typ directly declares iface.
func (u *Universe) AddInterface(typ, iface TypeID) {
	u.mustMutate()
	if !u.mustType(iface).IsInterface() {
		panic(fmt.Sprintf("meta: %s is not an interface", TypeName(u, iface)))
	}
	t := u.mustType(typ)
	if slices.Contains(t.Interfaces, iface) {
		return
	}
	t.Interfaces = append(t.Interfaces, iface)
}

// ByRef returns the interned by-ref type of elem.
func (u *Universe) ByRef(elem TypeID) TypeID {
	if id, ok := u.byRef[elem]; ok {
		return id
	}
	u.mustType(elem)
	id := u.defineType(TypeInfo{Kind: KindByRef, Elem: elem})
	u.byRef[elem] = id
	return id
}

// ArrayOf returns the interned single-dimension array type of elem.
func (u *Universe) ArrayOf(elem TypeID) TypeID {
	if id, ok := u.arrays[elem]; ok {
		return id
	}
	u.mustType(elem)
	id := u.defineType(TypeInfo{Kind: KindArray, Elem: elem, Base: u.builtins.Object, Attributes: TypePublic | TypeSealed})
	u.arrays[elem] = id
	return id
}

// Lookup finds a named type by its namespace-qualified name.
func (u *Universe) Lookup(full string) (TypeID, bool) {
	id, ok := u.byName[full]
	return id, ok
}

// DefineField adds a field to owner.
func (u *Universe) DefineField(owner TypeID, name string, typ TypeID, attrs FieldAttributes) FieldID {
	u.mustMutate()
	u.mustType(typ)
	t := u.mustType(owner)
	id := FieldID(nextIndex(len(u.fields), "fields"))
	u.fields = append(u.fields, FieldInfo{Name: name, DeclaringType: owner, Type: typ, Attributes: attrs})
	t.Fields = append(t.Fields, id)
	return id
}

// DefineMethod adds a method to owner. Interface methods are forced abstract
// virtual new-slot. A virtual reuse-slot method is linked to the most-derived
// virtual method of the base chain with the same name and signature, the way
// a runtime type loader assigns override slots.
func (u *Universe) DefineMethod(owner TypeID, name string, attrs MethodAttributes, sig Signature, paramNames ...string) MethodID {
	u.mustMutate()
	t := u.mustType(owner)
	if t.IsInterface() && !attrs.IsStatic() {
		attrs |= MethodVirtual | MethodAbstract | MethodNewSlot
	}
	info := MethodInfo{
		Kind:          MethodOrdinary,
		Name:          name,
		DeclaringType: owner,
		Attributes:    attrs,
		Signature:     sig.Clone(),
		ParamNames:    paramNamesFor(sig, paramNames),
		ParamAttrs:    make([]ParameterAttributes, len(sig.Params)),
	}
	if attrs.IsVirtual() && !attrs.IsStatic() && !attrs.IsNewSlot() && !t.IsInterface() {
		info.Base = u.findVirtual(t.Base, name, sig)
	}
	id := MethodID(nextIndex(len(u.methods), "methods"))
	u.methods = append(u.methods, info)
	t.Methods = append(t.Methods, id)
	return id
}

// DefineConstructor adds an instance constructor (".ctor") or, when attrs
// carries Static, a type initializer (".cctor").
func (u *Universe) DefineConstructor(owner TypeID, attrs MethodAttributes, params []TypeID, paramNames ...string) MethodID {
	u.mustMutate()
	t := u.mustType(owner)
	name := ConstructorName
	if attrs.IsStatic() {
		name = TypeInitializerName
	}
	sig := Signature{Return: u.builtins.Void, Params: slices.Clone(params)}
	id := MethodID(nextIndex(len(u.methods), "methods"))
	u.methods = append(u.methods, MethodInfo{
		Kind:          MethodConstructor,
		Name:          name,
		DeclaringType: owner,
		Attributes:    attrs | MethodSpecialName | MethodRTSpecialName,
		Signature:     sig,
		ParamNames:    paramNamesFor(sig, paramNames),
		ParamAttrs:    make([]ParameterAttributes, len(params)),
	})
	t.Constructors = append(t.Constructors, id)
	return id
}

// SetParamAttributes replaces the direction flags of parameter pos.
func (u *Universe) SetParamAttributes(m MethodID, pos int, attrs ParameterAttributes) {
	u.mustMutate()
	info := u.Method(m)
	if info == nil || pos < 0 || pos >= len(info.ParamAttrs) {
		panic(fmt.Sprintf("meta: invalid parameter %d of method %d", pos, m))
	}
	info.ParamAttrs[pos] = attrs
}

// DefineMethodImpl records that body explicitly implements decl.
func (u *Universe) DefineMethodImpl(body, decl MethodID) {
	u.mustMutate()
	info := u.Method(body)
	if info == nil || u.Method(decl) == nil {
		panic(fmt.Sprintf("meta: invalid MethodImpl %d -> %d", body, decl))
	}
	if !slices.Contains(info.ExplicitOverrides, decl) {
		info.ExplicitOverrides = append(info.ExplicitOverrides, decl)
	}
}

// DefineProperty adds a property whose accessors were defined beforehand.
func (u *Universe) DefineProperty(owner TypeID, name string, typ TypeID, getter, setter MethodID, index ...TypeID) PropertyID {
	u.mustMutate()
	t := u.mustType(owner)
	id := PropertyID(nextIndex(len(u.properties), "properties"))
	u.properties = append(u.properties, PropertyInfo{
		Name:          name,
		DeclaringType: owner,
		Type:          typ,
		IndexParams:   slices.Clone(index),
		Getter:        getter,
		Setter:        setter,
	})
	t.Properties = append(t.Properties, id)
	return id
}

// DefineEvent adds an event whose accessors were defined beforehand.
func (u *Universe) DefineEvent(owner TypeID, name string, handler TypeID, add, remove MethodID) EventID {
	u.mustMutate()
	t := u.mustType(owner)
	id := EventID(nextIndex(len(u.events), "events"))
	u.events = append(u.events, EventInfo{
		Name:          name,
		DeclaringType: owner,
		HandlerType:   handler,
		Add:           add,
		Remove:        remove,
	})
	t.Events = append(t.Events, id)
	return id
}

func paramNamesFor(sig Signature, names []string) []string {
	out := make([]string, len(sig.Params))
	for i := range out {
		if i < len(names) && names[i] != "" {
			out[i] = names[i]
			continue
		}
		out[i] = fmt.Sprintf("arg%d", i)
	}
	return out
}

// findVirtual walks the chain from start and returns the first virtual
// instance method with the same name, parameters and return type.
func (u *Universe) findVirtual(start TypeID, name string, sig Signature) MethodID {
	for _, typ := range Ancestors(u, start) {
		for _, id := range u.types[typ].Methods {
			m := &u.methods[id]
			if m.Name == name && m.Attributes.IsVirtual() && !m.Attributes.IsStatic() && m.Signature.Equal(sig) {
				return id
			}
		}
	}
	return NoMethodID
}

// Type returns the type descriptor or nil if the ID is invalid.
func (u *Universe) Type(id TypeID) *TypeInfo {
	if !id.IsValid() || int(id) >= len(u.types) {
		return nil
	}
	return &u.types[id]
}

// Method returns the method descriptor or nil if the ID is invalid.
func (u *Universe) Method(id MethodID) *MethodInfo {
	if !id.IsValid() || int(id) >= len(u.methods) {
		return nil
	}
	return &u.methods[id]
}

// Field returns the field descriptor or nil if the ID is invalid.
func (u *Universe) Field(id FieldID) *FieldInfo {
	if !id.IsValid() || int(id) >= len(u.fields) {
		return nil
	}
	return &u.fields[id]
}

// Property returns the property descriptor or nil if the ID is invalid.
func (u *Universe) Property(id PropertyID) *PropertyInfo {
	if !id.IsValid() || int(id) >= len(u.properties) {
		return nil
	}
	return &u.properties[id]
}

// Event returns the event descriptor or nil if the ID is invalid.
func (u *Universe) Event(id EventID) *EventInfo {
	if !id.IsValid() || int(id) >= len(u.events) {
		return nil
	}
	return &u.events[id]
}

// BaseType returns the direct base type, NoTypeID for Object and interfaces.
func (u *Universe) BaseType(id TypeID) TypeID {
	if t := u.Type(id); t != nil {
		return t.Base
	}
	return NoTypeID
}

func (u *Universe) DeclaredFields(id TypeID) []FieldID {
	if t := u.Type(id); t != nil {
		return t.Fields
	}
	return nil
}

func (u *Universe) DeclaredConstructors(id TypeID) []MethodID {
	if t := u.Type(id); t != nil {
		return t.Constructors
	}
	return nil
}

func (u *Universe) DeclaredMethods(id TypeID) []MethodID {
	if t := u.Type(id); t != nil {
		return t.Methods
	}
	return nil
}

func (u *Universe) DeclaredProperties(id TypeID) []PropertyID {
	if t := u.Type(id); t != nil {
		return t.Properties
	}
	return nil
}

func (u *Universe) DeclaredEvents(id TypeID) []EventID {
	if t := u.Type(id); t != nil {
		return t.Events
	}
	return nil
}

// Interfaces returns the full interface set of a type: directly declared
// interfaces, interfaces they extend and everything inherited from the base
// chain, without duplicates.
func (u *Universe) Interfaces(id TypeID) []TypeID {
	return CollectInterfaces(u, id)
}

// InterfaceMap computes the runtime interface map of typ for iface.
func (u *Universe) InterfaceMap(typ, iface TypeID) (InterfaceMap, error) {
	return ComputeInterfaceMap(u, typ, iface)
}

// Len reports the number of types excluding the sentinel.
func (u *Universe) Len() int { return len(u.types) - 1 }

// TypeIDs returns every allocated type ID in definition order.
func (u *Universe) TypeIDs() []TypeID {
	ids := make([]TypeID, 0, len(u.types)-1)
	for i := 1; i < len(u.types); i++ {
		ids = append(ids, TypeID(nextIndex(i, "types")))
	}
	return ids
}
