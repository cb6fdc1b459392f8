package override

import (
	"errors"
	"sync"
	"testing"

	"typeweave/internal/meta"
)

type chainFixture struct {
	u                *meta.Universe
	a, b, c, shadow  meta.TypeID
	privateHider     meta.TypeID
	aF, bF, aG, aH   meta.MethodID
	shadowF, sealedH meta.MethodID
}

// newChainFixture builds A <- B <- C plus A <- S where S hides A.F and
// A <- P where a private P.F has A.F's signature.
func newChainFixture() chainFixture {
	u := meta.NewUniverse()
	void := u.Builtins().Void
	virt := meta.MethodPublic() | meta.MethodVirtual | meta.MethodHideBySig
	var f chainFixture
	f.u = u
	f.a = u.DefineClass("Demo", "A", meta.NoTypeID, meta.TypePublic)
	f.aF = u.DefineMethod(f.a, "F", virt|meta.MethodNewSlot, meta.Signature{Return: void})
	f.aG = u.DefineMethod(f.a, "G", virt|meta.MethodNewSlot, meta.Signature{Return: void})
	f.aH = u.DefineMethod(f.a, "H", virt|meta.MethodNewSlot, meta.Signature{Return: void})
	f.b = u.DefineClass("Demo", "B", f.a, meta.TypePublic)
	f.bF = u.DefineMethod(f.b, "F", virt, meta.Signature{Return: void})
	f.sealedH = u.DefineMethod(f.b, "H", virt|meta.MethodFinal, meta.Signature{Return: void})
	f.c = u.DefineClass("Demo", "C", f.b, meta.TypePublic)
	f.shadow = u.DefineClass("Demo", "S", f.a, meta.TypePublic)
	f.shadowF = u.DefineMethod(f.shadow, "F", meta.MethodPublic()|meta.MethodHideBySig, meta.Signature{Return: void})
	f.privateHider = u.DefineClass("Demo", "P", f.a, meta.TypePublic)
	u.DefineMethod(f.privateHider, "F", meta.MethodAttributes(meta.AccessPrivate)|meta.MethodHideBySig, meta.Signature{Return: void})
	u.Freeze()
	return f
}

func TestFindMostDerivedVirtualMethod(t *testing.T) {
	f := newChainFixture()
	r := NewResolver(f.u, NewCache())
	void := f.u.Builtins().Void

	got, ok := r.FindMostDerivedVirtualMethod("F", meta.Signature{Return: void}, f.c)
	if !ok || got != f.bF {
		t.Fatalf("most derived F from C = %d, want %d", got, f.bF)
	}
	if _, ok := r.FindMostDerivedVirtualMethod("F", meta.Signature{Return: void, Params: []meta.TypeID{void}}, f.c); ok {
		t.Fatalf("signature mismatch must not match")
	}
	got, ok = r.FindMostDerivedVirtualMethod("F", meta.Signature{Return: void}, f.shadow)
	if !ok || got != f.aF {
		t.Fatalf("non-virtual S.F must be skipped, got %d", got)
	}
}

func TestFindMostDerivedOverride(t *testing.T) {
	f := newChainFixture()
	r := NewResolver(f.u, NewCache())
	if got := r.FindMostDerivedOverride(f.aF, f.c); got != f.bF {
		t.Fatalf("override of A.F from C = %d, want %d", got, f.bF)
	}
	if got := r.FindMostDerivedOverride(f.aG, f.c); got != f.aG {
		t.Fatalf("unoverridden G must resolve to itself, got %d", got)
	}
}

func TestIsShadowed(t *testing.T) {
	f := newChainFixture()
	r := NewResolver(f.u, NewCache())
	if r.IsShadowed(f.aF, r.ExistingCandidates(f.c)) {
		t.Fatalf("A.F is overridden, not shadowed, below C")
	}
	if !r.IsShadowed(f.aF, r.ExistingCandidates(f.shadow)) {
		t.Fatalf("S.F hides A.F")
	}
	if r.IsShadowed(f.aF, r.ExistingCandidates(f.privateHider)) {
		t.Fatalf("private P.F must not hide A.F from types deriving from P")
	}
	for _, c := range r.ExistingCandidates(f.privateHider) {
		if c.DeclaringType == f.privateHider {
			t.Fatalf("private P.F listed as candidate")
		}
	}
	added := []Candidate{{
		Name:           "G",
		Signature:      meta.Signature{Return: f.u.Builtins().Void},
		Attributes:     meta.MethodPublic() | meta.MethodVirtual | meta.MethodNewSlot,
		BaseDefinition: meta.NoMethodID,
	}}
	if !r.IsShadowed(f.aG, added) {
		t.Fatalf("an added new-slot G must shadow A.G")
	}
}

func TestCheckOverridable(t *testing.T) {
	f := newChainFixture()
	r := NewResolver(f.u, NewCache())
	if err := r.CheckOverridable(f.aF, f.c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.CheckOverridable(f.sealedH, f.c); !errors.Is(err, ErrFinalOverride) {
		t.Fatalf("expected ErrFinalOverride, got %v", err)
	}
	if err := r.CheckOverridable(f.shadowF, f.c); !errors.Is(err, ErrOutsideHierarchy) {
		t.Fatalf("expected ErrOutsideHierarchy, got %v", err)
	}
	if err := r.CheckOverridable(f.shadowF, f.shadow); !errors.Is(err, ErrNotVirtual) {
		t.Fatalf("expected ErrNotVirtual, got %v", err)
	}
}

func TestCacheSharedAcrossGoroutines(t *testing.T) {
	f := newChainFixture()
	cache := NewCache()
	void := f.u.Builtins().Void

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := NewResolver(f.u, cache)
			if got, _ := r.FindMostDerivedVirtualMethod("F", meta.Signature{Return: void}, f.c); got != f.bF {
				t.Errorf("concurrent lookup = %d, want %d", got, f.bF)
			}
		}()
	}
	wg.Wait()

	if cache.Len() != 1 {
		t.Fatalf("cache entries = %d, want 1", cache.Len())
	}
	hits, misses := cache.Stats()
	if misses != 1 || hits != 15 {
		t.Fatalf("hits=%d misses=%d, want 15/1", hits, misses)
	}
	cache.Reset()
	if cache.Len() != 0 {
		t.Fatalf("reset must drop entries")
	}
}

func TestCacheSkipsUnfrozenProviders(t *testing.T) {
	u := meta.NewUniverse()
	cache := NewCache()
	r := NewResolver(u, cache)
	r.FindMostDerivedOverride(meta.NoMethodID, u.Builtins().Object)
	if cache.Len() != 0 {
		t.Fatalf("unfrozen provider results must not be cached")
	}
}
