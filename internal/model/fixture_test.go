package model

import (
	"testing"

	"typeweave/internal/meta"
)

// fixture is a frozen universe with the hierarchies the model tests use:
//
//	A (F, G, H, private P) <- B (F override, H final) <- C (F override)
//	A <- S (non-virtual F hiding A.F)
//	A <- PH (private non-virtual F)
//	Z (abstract M)
//	Q (FamORAssem virtual Q)
//	Impl : IDisposable (virtual Dispose)
type fixture struct {
	u *meta.Universe

	a, b, c, s, z, q, impl, unrelated meta.TypeID
	privateHider                      meta.TypeID
	aF, aG, aH, aP                    meta.MethodID
	bF, bH, cF, sF                    meta.MethodID
	zM, qQ, implDispose, unrelatedF   meta.MethodID
	aCount                            meta.FieldID

	disposable meta.TypeID
	disposeM   meta.MethodID
	extended   meta.TypeID

	marker          meta.TypeID
	markerCtor      meta.MethodID
	markerLevelCtor meta.MethodID
	abstractMarker  meta.TypeID
	abstractCtor    meta.MethodID
	object     meta.TypeID
	void       meta.TypeID
	int32      meta.TypeID
	int64      meta.TypeID
	str        meta.TypeID
	handler    meta.TypeID
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	u := meta.NewUniverse()
	b := u.Builtins()
	f := fixture{u: u, object: b.Object, void: b.Void, int32: b.Int32, int64: b.Int64, str: b.String, handler: b.EventHandler}
	virt := meta.MethodPublic() | meta.MethodVirtual | meta.MethodHideBySig
	voidSig := meta.Signature{Return: f.void}

	f.a = u.DefineClass("Demo", "A", meta.NoTypeID, meta.TypePublic)
	f.aF = u.DefineMethod(f.a, "F", virt|meta.MethodNewSlot, voidSig)
	f.aG = u.DefineMethod(f.a, "G", virt|meta.MethodNewSlot, voidSig)
	f.aH = u.DefineMethod(f.a, "H", virt|meta.MethodNewSlot, voidSig)
	f.aP = u.DefineMethod(f.a, "P", meta.MethodAttributes(meta.AccessPrivate), voidSig)
	f.aCount = u.DefineField(f.a, "count", f.int32, meta.FieldAttributes(meta.AccessFamily))

	f.b = u.DefineClass("Demo", "B", f.a, meta.TypePublic)
	f.bF = u.DefineMethod(f.b, "F", virt, voidSig)
	f.bH = u.DefineMethod(f.b, "H", virt|meta.MethodFinal, voidSig)

	f.c = u.DefineClass("Demo", "C", f.b, meta.TypePublic)
	f.cF = u.DefineMethod(f.c, "F", virt, voidSig)

	f.s = u.DefineClass("Demo", "S", f.a, meta.TypePublic)
	f.sF = u.DefineMethod(f.s, "F", meta.MethodPublic()|meta.MethodHideBySig, voidSig)

	f.privateHider = u.DefineClass("Demo", "PH", f.a, meta.TypePublic)
	u.DefineMethod(f.privateHider, "F", meta.MethodAttributes(meta.AccessPrivate)|meta.MethodHideBySig, voidSig)

	f.z = u.DefineClass("Demo", "Z", meta.NoTypeID, meta.TypePublic|meta.TypeAbstract)
	f.zM = u.DefineMethod(f.z, "M", virt|meta.MethodNewSlot|meta.MethodAbstract, meta.Signature{Return: f.int32, Params: []meta.TypeID{f.str}}, "text")

	f.q = u.DefineClass("Demo", "Q", meta.NoTypeID, meta.TypePublic)
	f.qQ = u.DefineMethod(f.q, "Q", meta.MethodAttributes(meta.AccessFamORAssem)|meta.MethodVirtual|meta.MethodHideBySig|meta.MethodNewSlot, voidSig)

	f.disposable = u.DefineInterface("Demo", "IDisposable", meta.TypePublic)
	f.disposeM = u.DefineMethod(f.disposable, "Dispose", meta.MethodPublic(), voidSig)
	f.extended = u.DefineInterface("Demo", "IResource", meta.TypePublic, f.disposable)

	f.impl = u.DefineClass("Demo", "Impl", meta.NoTypeID, meta.TypePublic)
	u.AddInterface(f.impl, f.disposable)
	f.implDispose = u.DefineMethod(f.impl, "Dispose", virt|meta.MethodNewSlot, voidSig)

	f.unrelated = u.DefineClass("Other", "U", meta.NoTypeID, meta.TypePublic)
	f.unrelatedF = u.DefineMethod(f.unrelated, "F", virt|meta.MethodNewSlot, voidSig)

	f.marker = u.DefineClass("Demo", "MarkerAttribute", b.Attribute, meta.TypePublic|meta.TypeSealed)
	f.markerCtor = u.DefineConstructor(f.marker, meta.MethodPublic(), []meta.TypeID{f.str}, "label")
	u.DefineField(f.marker, "Level", f.int32, meta.FieldAttributes(meta.AccessPublic))
	u.DefineField(f.marker, "Fixed", f.int32, meta.FieldAttributes(meta.AccessPublic)|meta.FieldInitOnly)
	f.markerLevelCtor = u.DefineConstructor(f.marker, meta.MethodPublic(), []meta.TypeID{f.int32}, "level")
	u.DefineField(f.marker, "Shared", f.int32, meta.FieldAttributes(meta.AccessPublic)|meta.FieldStatic)
	u.DefineField(f.marker, "hidden", f.int32, meta.FieldAttributes(meta.AccessPrivate))
	setTag := u.DefineMethod(f.marker, "set_Tag", meta.MethodPublic()|meta.MethodSpecialName, meta.Signature{Return: f.void, Params: []meta.TypeID{f.str}}, "value")
	u.DefineProperty(f.marker, "Tag", f.str, meta.NoMethodID, setTag)
	getName := u.DefineMethod(f.marker, "get_Name", meta.MethodPublic()|meta.MethodSpecialName, meta.Signature{Return: f.str})
	u.DefineProperty(f.marker, "Name", f.str, getName, meta.NoMethodID)

	f.abstractMarker = u.DefineClass("Demo", "BaseMarkerAttribute", b.Attribute, meta.TypePublic|meta.TypeAbstract)
	f.abstractCtor = u.DefineConstructor(f.abstractMarker, meta.MethodAttributes(meta.AccessFamily), nil)

	u.Freeze()
	return f
}

func (f fixture) model(t *testing.T, base meta.TypeID, ifaces ...meta.TypeID) *TypeModel {
	t.Helper()
	tm, err := NewTypeModel(f.u, TypeDescriptor{
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

func (f fixture) objectMethod(t *testing.T, name string) meta.MethodID {
	t.Helper()
	for _, id := range f.u.DeclaredMethods(f.object) {
		if f.u.Method(id).Name == name {
			return id
		}
	}
	t.Fatalf("System.Object has no method %s", name)
	return meta.NoMethodID
}

func hasExisting(refs []MethodRef, id meta.MethodID) bool {
	for _, r := range refs {
		if !r.IsAdded() && r.ID() == id {
			return true
		}
	}
	return false
}
