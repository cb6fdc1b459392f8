package model

import (
	"strconv"

	"typeweave/internal/body"
	"typeweave/internal/diag"
	"typeweave/internal/meta"
)

// ParameterDeclaration is a requested parameter, before a position is assigned.
type ParameterDeclaration struct {
	Name       string
	Type       meta.TypeID
	Attributes meta.ParameterAttributes
}

// Param is a shorthand for an in parameter declaration.
func Param(name string, typ meta.TypeID) ParameterDeclaration {
	return ParameterDeclaration{Name: name, Type: typ}
}

// Parameter is a parameter of an added member. Positions are 0-based and
// contiguous; parameters are fixed at creation.
type Parameter struct {
	Position   int
	Name       string
	Type       meta.TypeID
	Attributes meta.ParameterAttributes
}

// IsByRef reports whether the parameter is passed by reference.
func (p Parameter) IsByRef(prov meta.Provider) bool {
	t := prov.Type(p.Type)
	return t != nil && t.Kind == meta.KindByRef
}

func validateParameters(p meta.Provider, owner string, decls []ParameterDeclaration) error {
	void := p.Builtins().Void
	for i, d := range decls {
		t := p.Type(d.Type)
		if t == nil || d.Type == void {
			return configErr(diag.ModelInvalidParameter, ErrInvalidParameter, owner, "parameter %d has invalid type %s", i, meta.TypeName(p, d.Type))
		}
		if d.Attributes&meta.ParamOut != 0 && t.Kind != meta.KindByRef {
			return configErr(diag.ModelInvalidParameter, ErrInvalidParameter, owner, "out parameter %d must have a by-ref type", i)
		}
	}
	return nil
}

func newParameters(decls []ParameterDeclaration) []Parameter {
	params := make([]Parameter, len(decls))
	for i, d := range decls {
		name := d.Name
		if name == "" {
			name = defaultParamName(i)
		}
		params[i] = Parameter{Position: i, Name: name, Type: d.Type, Attributes: d.Attributes}
	}
	return params
}

func parametersFromInfo(info *meta.MethodInfo) []Parameter {
	params := make([]Parameter, len(info.Signature.Params))
	for i, typ := range info.Signature.Params {
		params[i] = Parameter{Position: i, Name: info.ParamNames[i], Type: typ, Attributes: info.ParamAttrs[i]}
	}
	return params
}

func parameterTypes(params []Parameter) []meta.TypeID {
	types := make([]meta.TypeID, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return types
}

func bodyParams(params []Parameter) []*body.Param {
	out := make([]*body.Param, len(params))
	for i, p := range params {
		out[i] = &body.Param{Index: p.Position, Name: p.Name, T: p.Type}
	}
	return out
}

func defaultParamName(i int) string {
	return "arg" + strconv.Itoa(i)
}
