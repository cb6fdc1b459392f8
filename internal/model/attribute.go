package model

import (
	"fmt"
	"math"

	"typeweave/internal/diag"
	"typeweave/internal/meta"
)

// Value is a constant used as a custom attribute argument. A nil Data with
// meta.NoTypeID is the null reference; arrays carry []Value.
type Value struct {
	Type meta.TypeID
	Data any
}

// Null is the null reference.
var Null = Value{}

// NamedArgument assigns a field or property of the attribute instance. The
// member is resolved when the declaration is created.
type NamedArgument struct {
	Name     string
	Value    Value
	Field    meta.FieldID
	Property meta.PropertyID
}

// Named builds an unresolved named argument.
func Named(name string, v Value) NamedArgument { return NamedArgument{Name: name, Value: v} }

// CustomAttributeDeclaration is a custom attribute attached to the type or a
// member: the attribute constructor, type-checked positional arguments and
// resolved named arguments.
type CustomAttributeDeclaration struct {
	Type        meta.TypeID
	Constructor meta.MethodID
	Args        []Value
	Named       []NamedArgument
}

// NewCustomAttribute validates and builds a declaration. The constructor must
// be public and belong to a non-abstract type deriving from Attribute.
func NewCustomAttribute(p meta.Provider, ctor meta.MethodID, args []Value, named ...NamedArgument) (*CustomAttributeDeclaration, error) {
	info := p.Method(ctor)
	if info == nil || !info.IsConstructor() || info.Attributes.IsStatic() {
		return nil, attrErr("", "attribute constructor %d is not an instance constructor", ctor)
	}
	attrType := info.DeclaringType
	subject := meta.TypeName(p, attrType)
	if !meta.IsSubclassOf(p, attrType, p.Builtins().Attribute) {
		return nil, attrErr(subject, "type does not derive from %s", meta.TypeName(p, p.Builtins().Attribute))
	}
	if p.Type(attrType).IsAbstract() {
		return nil, attrErr(subject, "attribute type is abstract")
	}
	if !info.Attributes.IsPublic() {
		return nil, attrErr(subject, "attribute constructor is not public")
	}
	if len(args) != len(info.Signature.Params) {
		return nil, attrErr(subject, "constructor takes %d arguments, got %d", len(info.Signature.Params), len(args))
	}
	for i, v := range args {
		if err := checkValue(p, v, info.Signature.Params[i]); err != nil {
			return nil, attrErr(subject, "argument %d: %v", i, err)
		}
	}
	resolved := make([]NamedArgument, 0, len(named))
	for _, n := range named {
		r, err := resolveNamed(p, attrType, n)
		if err != nil {
			return nil, attrErr(subject, "named argument %q: %v", n.Name, err)
		}
		resolved = append(resolved, r)
	}
	return &CustomAttributeDeclaration{
		Type:        attrType,
		Constructor: ctor,
		Args:        append([]Value(nil), args...),
		Named:       resolved,
	}, nil
}

func attrErr(subject, format string, args ...any) *ConfigError {
	return configErr(diag.ModelInvalidCustomAttribute, ErrInvalidCustomAttribute, subject, format, args...)
}

func resolveNamed(p meta.Provider, attrType meta.TypeID, n NamedArgument) (NamedArgument, error) {
	for _, typ := range meta.Ancestors(p, attrType) {
		for _, fid := range p.DeclaredFields(typ) {
			f := p.Field(fid)
			if f.Name != n.Name {
				continue
			}
			if !f.Attributes.IsPublic() || f.Attributes.IsStatic() || f.Attributes&(meta.FieldInitOnly|meta.FieldLiteral) != 0 {
				return n, fmt.Errorf("field is not a writable public instance field")
			}
			if err := checkValue(p, n.Value, f.Type); err != nil {
				return n, err
			}
			n.Field = fid
			return n, nil
		}
		for _, pid := range p.DeclaredProperties(typ) {
			prop := p.Property(pid)
			if prop.Name != n.Name {
				continue
			}
			setter := p.Method(prop.Setter)
			if setter == nil || !setter.Attributes.IsPublic() || setter.Attributes.IsStatic() || len(prop.IndexParams) > 0 {
				return n, fmt.Errorf("property has no public instance setter")
			}
			if err := checkValue(p, n.Value, prop.Type); err != nil {
				return n, err
			}
			n.Property = pid
			return n, nil
		}
	}
	return n, fmt.Errorf("no field or property with that name")
}

// checkValue verifies that v can be stored in a location of type target.
func checkValue(p meta.Provider, v Value, target meta.TypeID) error {
	tt := p.Type(target)
	if tt == nil {
		return fmt.Errorf("invalid target type")
	}
	if !v.Type.IsValid() {
		if v.Data != nil {
			return fmt.Errorf("untyped non-null value")
		}
		if tt.IsValueType() {
			return fmt.Errorf("null is not assignable to %s", meta.TypeName(p, target))
		}
		return nil
	}
	if !meta.IsAssignableTo(p, v.Type, target) {
		return fmt.Errorf("%s is not assignable to %s", meta.TypeName(p, v.Type), meta.TypeName(p, target))
	}
	return checkData(p, v)
}

func checkData(p meta.Provider, v Value) error {
	b := p.Builtins()
	ok := true
	switch v.Type {
	case b.Boolean:
		_, ok = v.Data.(bool)
	case b.Int32:
		switch d := v.Data.(type) {
		case int32:
		case int:
			ok = d >= math.MinInt32 && d <= math.MaxInt32
		default:
			ok = false
		}
	case b.Int64:
		switch v.Data.(type) {
		case int64, int:
		default:
			ok = false
		}
	case b.Double:
		_, ok = v.Data.(float64)
	case b.String:
		_, isString := v.Data.(string)
		ok = isString || v.Data == nil
	case b.Type:
		_, ok = v.Data.(meta.TypeID)
	default:
		if t := p.Type(v.Type); t != nil && t.Kind == meta.KindArray {
			elems, isSlice := v.Data.([]Value)
			if !isSlice {
				return fmt.Errorf("array value must hold []Value")
			}
			for i, e := range elems {
				if err := checkValue(p, e, t.Elem); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
		}
	}
	if !ok {
		return fmt.Errorf("value %v does not match type %s", v.Data, meta.TypeName(p, v.Type))
	}
	return nil
}

// customAttributes is the ordered list of declarations owned by the type or
// a member.
type customAttributes struct {
	list []*CustomAttributeDeclaration
}

// AddCustomAttribute appends a declaration.
func (c *customAttributes) AddCustomAttribute(decl *CustomAttributeDeclaration) error {
	if decl == nil {
		return attrErr("", "nil custom attribute declaration")
	}
	c.list = append(c.list, decl)
	return nil
}

// CustomAttributes returns the declarations in insertion order.
func (c *customAttributes) CustomAttributes() []*CustomAttributeDeclaration { return c.list }
