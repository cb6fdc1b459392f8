package model

import (
	"errors"
	"testing"

	"typeweave/internal/meta"
)

func TestCustomAttributeDeclaration(t *testing.T) {
	f := newFixture(t)
	label := Value{Type: f.str, Data: "proxy"}
	three := Value{Type: f.int32, Data: int32(3)}
	objectCtors := f.u.DeclaredConstructors(f.object)
	if len(objectCtors) == 0 {
		t.Fatalf("System.Object has no constructor")
	}

	cases := []struct {
		name    string
		ctor    meta.MethodID
		args    []Value
		named   []NamedArgument
		wantErr bool
	}{
		{name: "positional string", ctor: f.markerCtor, args: []Value{label}},
		{name: "null string", ctor: f.markerCtor, args: []Value{Null}},
		{name: "int literal", ctor: f.markerLevelCtor, args: []Value{{Type: f.int32, Data: 7}}},
		{name: "writable field", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Level", three)}},
		{name: "writable property", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Tag", label)}},
		{name: "missing argument", ctor: f.markerCtor, wantErr: true},
		{name: "extra argument", ctor: f.markerCtor, args: []Value{label, label}, wantErr: true},
		{name: "wrong argument type", ctor: f.markerCtor, args: []Value{three}, wantErr: true},
		{name: "null to value type", ctor: f.markerLevelCtor, args: []Value{Null}, wantErr: true},
		{name: "data does not match type", ctor: f.markerLevelCtor, args: []Value{{Type: f.int32, Data: "3"}}, wantErr: true},
		{name: "init-only field", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Fixed", three)}, wantErr: true},
		{name: "static field", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Shared", three)}, wantErr: true},
		{name: "private field", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("hidden", three)}, wantErr: true},
		{name: "read-only property", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Name", label)}, wantErr: true},
		{name: "unknown member", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Missing", three)}, wantErr: true},
		{name: "named value type mismatch", ctor: f.markerCtor, args: []Value{label}, named: []NamedArgument{Named("Level", label)}, wantErr: true},
		{name: "not an attribute", ctor: objectCtors[0], wantErr: true},
		{name: "abstract attribute", ctor: f.abstractCtor, wantErr: true},
		{name: "not a constructor", ctor: f.aF, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decl, err := NewCustomAttribute(f.u, tc.ctor, tc.args, tc.named...)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidCustomAttribute) || !errors.Is(err, ErrConfiguration) {
					t.Fatalf("want invalid custom attribute error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewCustomAttribute: %v", err)
			}
			if decl.Type != f.marker || decl.Constructor != tc.ctor || len(decl.Args) != len(tc.args) {
				t.Fatalf("declaration = %+v", decl)
			}
			for _, n := range decl.Named {
				if !n.Field.IsValid() && !n.Property.IsValid() {
					t.Fatalf("named argument %q left unresolved", n.Name)
				}
			}
		})
	}
}

func TestCustomAttributeAttachesToModel(t *testing.T) {
	f := newFixture(t)
	tm := f.model(t, f.a)
	decl, err := NewCustomAttribute(f.u, f.markerCtor, []Value{{Type: f.str, Data: "proxy"}}, Named("Level", Value{Type: f.int32, Data: int32(1)}))
	if err != nil {
		t.Fatalf("NewCustomAttribute: %v", err)
	}
	if err := tm.AddCustomAttribute(decl); err != nil {
		t.Fatalf("AddCustomAttribute: %v", err)
	}
	if err := tm.AddCustomAttribute(nil); !errors.Is(err, ErrInvalidCustomAttribute) {
		t.Fatalf("nil declaration: %v", err)
	}
	got := tm.CustomAttributes()
	if len(got) != 1 || got[0] != decl || got[0].Named[0].Field == meta.NoFieldID {
		t.Fatalf("custom attributes = %+v", got)
	}
}
