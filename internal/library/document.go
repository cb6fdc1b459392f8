// Package library loads type libraries: TOML files describing the
// pre-existing types a project builds on. Decoded documents are cached on
// disk, and all libraries of a project are declared into one frozen
// meta.Universe.
package library

// Extension is the file suffix of type libraries.
const Extension = ".lib.toml"

// Document is one decoded library file.
type Document struct {
	Library Header     `toml:"library"`
	Types   []TypeDecl `toml:"type"`
}

// Header names the library. Names must be unique within a project.
type Header struct {
	Name string `toml:"name"`
}

// TypeDecl is a [[type]] table.
type TypeDecl struct {
	Namespace  string   `toml:"namespace"`
	Name       string   `toml:"name"`
	Kind       string   `toml:"kind"` // class, interface or struct
	Base       string   `toml:"base"`
	Attributes []string `toml:"attributes"`
	Interfaces []string `toml:"interfaces"`

	Fields       []FieldDecl       `toml:"field"`
	Constructors []ConstructorDecl `toml:"constructor"`
	Methods      []MethodDecl      `toml:"method"`
	Properties   []PropertyDecl    `toml:"property"`
	Events       []EventDecl       `toml:"event"`
}

// FullName returns the namespace-qualified name.
func (t *TypeDecl) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

type ParamDecl struct {
	Name       string   `toml:"name"`
	Type       string   `toml:"type"`
	Attributes []string `toml:"attributes"`
}

type FieldDecl struct {
	Name       string   `toml:"name"`
	Type       string   `toml:"type"`
	Attributes []string `toml:"attributes"`
}

type ConstructorDecl struct {
	Attributes []string    `toml:"attributes"`
	Params     []ParamDecl `toml:"params"`
}

type MethodDecl struct {
	Name       string      `toml:"name"`
	Returns    string      `toml:"returns"`
	Attributes []string    `toml:"attributes"`
	Params     []ParamDecl `toml:"params"`
	// Implements lists "Namespace.Type.Method" declarations this method
	// explicitly overrides.
	Implements []string `toml:"implements"`
}

// PropertyDecl names accessor methods declared on the same type.
type PropertyDecl struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Getter string `toml:"getter"`
	Setter string `toml:"setter"`
}

// EventDecl names accessor methods declared on the same type.
type EventDecl struct {
	Name    string `toml:"name"`
	Handler string `toml:"handler"`
	Add     string `toml:"add"`
	Remove  string `toml:"remove"`
}
