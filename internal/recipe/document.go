// Package recipe reads *.recipe.toml files and applies them to a type
// model. A recipe names the base type, the interfaces and every member the
// new type adds; each entry becomes one mutation of the model, and a rejected
// mutation is reported without stopping the rest of the recipe.
package recipe

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"typeweave/internal/diag"
	"typeweave/internal/library"
)

// Extension is the file suffix of recipes.
const Extension = ".recipe.toml"

// Recipe is one decoded recipe file.
type Recipe struct {
	Type              TypeSpec               `toml:"type"`
	Fields            []FieldSpec            `toml:"field"`
	Constructors      []ConstructorSpec      `toml:"constructor"`
	Methods           []MethodSpec           `toml:"method"`
	Overrides         []OverrideSpec         `toml:"override"`
	ExplicitOverrides []ExplicitOverrideSpec `toml:"explicit_override"`
	Properties        []PropertySpec         `toml:"property"`
	Events            []EventSpec            `toml:"event"`
	Initializers      []InitializerSpec      `toml:"initializer"`
}

// TypeSpec is the [type] table.
type TypeSpec struct {
	Namespace        string          `toml:"namespace"`
	Name             string          `toml:"name"`
	Base             string          `toml:"base"`
	Attributes       []string        `toml:"attributes"`
	Interfaces       []string        `toml:"interfaces"`
	CustomAttributes []AttributeSpec `toml:"custom_attribute"`
}

// FullName returns the namespace-qualified name of the new type.
func (t *TypeSpec) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// AttributeSpec applies a custom attribute. The constructor is picked by
// the number and types of Args.
type AttributeSpec struct {
	Type  string         `toml:"type"`
	Args  []any          `toml:"args"`
	Named map[string]any `toml:"named"`
}

type FieldSpec struct {
	Name             string          `toml:"name"`
	Type             string          `toml:"type"`
	Attributes       []string        `toml:"attributes"`
	CustomAttributes []AttributeSpec `toml:"custom_attribute"`
}

type ConstructorSpec struct {
	Attributes       []string            `toml:"attributes"`
	Params           []library.ParamDecl `toml:"params"`
	Body             *BodySpec           `toml:"body"`
	CustomAttributes []AttributeSpec     `toml:"custom_attribute"`
}

// MethodSpec adds a method. Methods with the abstract attribute take no body;
// others default to returning the default value of their return type.
type MethodSpec struct {
	Name             string              `toml:"name"`
	Returns          string              `toml:"returns"`
	Attributes       []string            `toml:"attributes"`
	Params           []library.ParamDecl `toml:"params"`
	Body             *BodySpec           `toml:"body"`
	CustomAttributes []AttributeSpec     `toml:"custom_attribute"`
}

// OverrideSpec overrides "Namespace.Type.Method" of the base chain. Params
// selects an overload by parameter types. Without a body the override
// delegates to the base method.
type OverrideSpec struct {
	Method           string          `toml:"method"`
	Params           []string        `toml:"params"`
	Body             *BodySpec       `toml:"body"`
	CustomAttributes []AttributeSpec `toml:"custom_attribute"`
}

// ExplicitOverrideSpec makes an added method implement Target explicitly.
type ExplicitOverrideSpec struct {
	Method       string   `toml:"method"`
	Params       []string `toml:"params"`
	Target       string   `toml:"target"`
	TargetParams []string `toml:"target_params"`
}

type PropertySpec struct {
	Name               string              `toml:"name"`
	Type               string              `toml:"type"`
	AccessorAttributes []string            `toml:"accessor_attributes"`
	Index              []library.ParamDecl `toml:"index"`
	Getter             *BodySpec           `toml:"getter"`
	Setter             *BodySpec           `toml:"setter"`
	CustomAttributes   []AttributeSpec     `toml:"custom_attribute"`
}

// EventSpec adds an event. Accessors without a body do nothing.
type EventSpec struct {
	Name               string          `toml:"name"`
	Handler            string          `toml:"handler"`
	AccessorAttributes []string        `toml:"accessor_attributes"`
	Add                *BodySpec       `toml:"add"`
	Remove             *BodySpec       `toml:"remove"`
	CustomAttributes   []AttributeSpec `toml:"custom_attribute"`
}

type InitializerSpec struct {
	Static bool      `toml:"static"`
	Body   *BodySpec `toml:"body"`
}

// BodySpec describes a member body. Kind is one of empty, default, delegate,
// throw, return-param, return-const, get-field, set-field and call.
type BodySpec struct {
	Kind    string `toml:"kind"`
	Message string `toml:"message"`
	Param   string `toml:"param"`
	Field   string `toml:"field"`
	Method  string `toml:"method"`
	Value   any    `toml:"value"`
}

// Decode parses a recipe. Syntax errors and a missing [type].name yield nil.
func Decode(path string, data []byte, r diag.Reporter) *Recipe {
	var rc Recipe
	md, err := toml.Decode(string(data), &rc)
	if err != nil {
		library.ReportParseError(r, diag.RcpParseError, path, err)
		return nil
	}
	library.ReportUndecoded(r, diag.RcpParseError, path, md)
	if strings.TrimSpace(rc.Type.Name) == "" {
		diag.ReportError(r, diag.RcpMissingName, diag.Location{Path: path}, "missing [type].name").Emit()
		return nil
	}
	if err := checkTypeName(rc.Type.Namespace, rc.Type.Name); err != nil {
		diag.ReportError(r, diag.RcpInvalidName, diag.Location{Path: path, Subject: rc.Type.FullName()}, err.Error()).Emit()
		return nil
	}
	return &rc
}

// checkTypeName accepts a dotted namespace and a simple name. Both end up in
// plan file names, so separators and empty segments are rejected.
func checkTypeName(namespace, name string) error {
	if strings.ContainsAny(name, `./\`) || strings.TrimSpace(name) != name {
		return fmt.Errorf("invalid type name %q", name)
	}
	if namespace == "" {
		return nil
	}
	for _, seg := range strings.Split(namespace, ".") {
		if seg == "" || strings.ContainsAny(seg, `/\`) || strings.TrimSpace(seg) != seg {
			return fmt.Errorf("invalid namespace %q", namespace)
		}
	}
	return nil
}

// Read loads and decodes the recipe at path.
func Read(path, display string, r diag.Reporter) *Recipe {
	if display == "" {
		display = path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		diag.ReportError(r, diag.IOLoadFileError, diag.Location{Path: display}, fmt.Sprintf("failed to read recipe: %v", err)).Emit()
		return nil
	}
	return Decode(display, data, r)
}
