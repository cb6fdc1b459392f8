package backend

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"typeweave/internal/body"
	"typeweave/internal/meta"
	"typeweave/internal/model"
)

type world struct {
	u          *meta.Universe
	a, b, z    meta.TypeID
	bF, zM     meta.MethodID
	disposable meta.TypeID
}

func newWorld(t *testing.T) world {
	t.Helper()
	u := meta.NewUniverse()
	void := u.Builtins().Void
	virt := meta.MethodPublic() | meta.MethodVirtual | meta.MethodHideBySig
	w := world{u: u}
	w.a = u.DefineClass("Demo", "A", meta.NoTypeID, meta.TypePublic)
	u.DefineMethod(w.a, "F", virt|meta.MethodNewSlot, meta.Signature{Return: void})
	w.b = u.DefineClass("Demo", "B", w.a, meta.TypePublic)
	w.bF = u.DefineMethod(w.b, "F", virt, meta.Signature{Return: void})
	w.z = u.DefineClass("Demo", "Z", meta.NoTypeID, meta.TypePublic|meta.TypeAbstract)
	w.zM = u.DefineMethod(w.z, "M", virt|meta.MethodNewSlot|meta.MethodAbstract, meta.Signature{Return: void})
	w.disposable = u.DefineInterface("Demo", "IDisposable", meta.TypePublic)
	u.DefineMethod(w.disposable, "Dispose", meta.MethodPublic()|meta.MethodVirtual|meta.MethodAbstract, meta.Signature{Return: void})
	u.Freeze()
	return w
}

func (w world) model(t *testing.T, base meta.TypeID, ifaces ...meta.TypeID) *model.TypeModel {
	t.Helper()
	tm, err := model.NewTypeModel(w.u, model.TypeDescriptor{
		Name:       "Proxy",
		Namespace:  "Gen",
		Base:       base,
		Interfaces: ifaces,
		Attributes: meta.TypePublic,
	})
	if err != nil {
		t.Fatalf("NewTypeModel: %v", err)
	}
	return tm
}

type recorder struct {
	events []string
	failOn string
}

func (r *recorder) DefineType(_ context.Context, tc *TypeContext) error {
	r.events = append(r.events, "define "+tc.Model.FullName())
	return nil
}

func (r *recorder) FinishType(context.Context, *TypeContext) error {
	r.events = append(r.events, "finish")
	return nil
}

func (r *recorder) BuildConstructor(_ context.Context, cc *ConstructorContext) error {
	if cc.IsTypeInitializer() {
		r.events = append(r.events, meta.TypeInitializerName)
		return nil
	}
	if _, err := cc.Bodies(); err != nil {
		return err
	}
	r.events = append(r.events, meta.ConstructorName)
	return nil
}

func (r *recorder) BuildMethod(_ context.Context, mc *MethodContext) error {
	if mc.Method.Name() == r.failOn {
		_, err := mc.Body()
		return err
	}
	r.events = append(r.events, "method "+mc.Method.Name())
	return nil
}

func TestWalkOrder(t *testing.T) {
	w := newWorld(t)
	tm := w.model(t, w.b)
	void := w.u.Builtins().Void
	if _, err := tm.AddMethod("Extra", meta.MethodPublic(), void, nil, body.Empty); err != nil {
		t.Fatalf("AddMethod: %v", err)
	}
	if _, err := tm.AddConstructor(meta.MethodPublic(), nil, body.Empty); err != nil {
		t.Fatalf("AddConstructor: %v", err)
	}
	if _, _, err := tm.GetOrAddOverride(w.bF); err != nil {
		t.Fatalf("GetOrAddOverride: %v", err)
	}
	if err := tm.AddTypeInitializer(body.Empty); err != nil {
		t.Fatalf("AddTypeInitializer: %v", err)
	}

	r := &recorder{}
	if err := Walk(context.Background(), tm, r, Options{}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	want := []string{"define Gen.Proxy", ".cctor", ".ctor", "method Extra", "method F", "finish"}
	if strings.Join(r.events, "|") != strings.Join(want, "|") {
		t.Fatalf("events = %v, want %v", r.events, want)
	}
}

func TestWalkAbstractBody(t *testing.T) {
	w := newWorld(t)
	tm := w.model(t, w.z)
	if _, _, err := tm.GetOrAddOverride(w.zM); err != nil {
		t.Fatalf("GetOrAddOverride: %v", err)
	}
	err := Walk(context.Background(), tm, &recorder{failOn: "M"}, Options{})
	if !errors.Is(err, ErrNoBody) {
		t.Fatalf("Walk error = %v, want ErrNoBody", err)
	}
}

func TestWalkUnimplementedInterface(t *testing.T) {
	w := newWorld(t)
	tm := w.model(t, w.a, w.disposable)
	if err := Walk(context.Background(), tm, &recorder{}, Options{}); !errors.Is(err, model.ErrUnimplemented) {
		t.Fatalf("Walk error = %v, want ErrUnimplemented", err)
	}
	r := &recorder{}
	if err := Walk(context.Background(), tm, r, Options{AllowPartial: true}); err != nil {
		t.Fatalf("partial Walk: %v", err)
	}
}

func TestWalkCancelled(t *testing.T) {
	w := newWorld(t)
	tm := w.model(t, w.b)
	if _, _, err := tm.GetOrAddOverride(w.bF); err != nil {
		t.Fatalf("GetOrAddOverride: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &recorder{}
	if err := Walk(ctx, tm, r, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Walk error = %v, want context.Canceled", err)
	}
	for _, e := range r.events {
		if strings.HasPrefix(e, "method") {
			t.Fatalf("method built after cancel: %v", r.events)
		}
	}
}

func TestTextBackendPlan(t *testing.T) {
	w := newWorld(t)
	tm := w.model(t, w.b)
	if _, err := tm.AddField("_count", w.u.Builtins().Int32, meta.FieldAttributes(meta.AccessPrivate)); err != nil {
		t.Fatalf("AddField: %v", err)
	}
	if _, _, err := tm.GetOrAddOverride(w.bF); err != nil {
		t.Fatalf("GetOrAddOverride: %v", err)
	}

	var buf bytes.Buffer
	if err := Walk(context.Background(), tm, NewTextBackend(&buf, false), Options{}); err != nil {
		t.Fatalf("Walk: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"class Gen.Proxy : Demo.B",
		"_count",
		"overrides Demo.B.F",
		"call Demo.B.F(this)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("plan missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plan contains colour codes with colour disabled:\n%s", out)
	}
}

func TestFormatExpr(t *testing.T) {
	w := newWorld(t)
	p := w.u
	str := p.Builtins().String
	tests := []struct {
		name string
		expr body.Expr
		want string
	}{
		{"null", &body.Const{}, "null"},
		{"string", &body.Const{T: str, Value: "hi"}, `"hi"`},
		{"default", &body.Default{T: str}, "default(System.String)"},
		{"empty block", &body.Block{}, "{}"},
		{"return", &body.Return{Value: &body.Param{Name: "x"}}, "return x"},
		{"throw", &body.Throw{Message: "nope"}, `throw "nope"`},
		{"block", &body.Block{Exprs: []body.Expr{&body.This{}, &body.Return{}}}, "{ this; return }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatExpr(p, tt.expr); got != tt.want {
				t.Fatalf("FormatExpr = %q, want %q", got, tt.want)
			}
		})
	}
}
