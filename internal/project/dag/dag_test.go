package dag

import (
	"testing"

	"typeweave/internal/diag"
)

func at(subject string) diag.Location { return diag.Location{Path: "demo.lib.toml", Subject: subject} }

func node(name string, deps ...string) Node {
	n := Node{Name: name, At: at(name)}
	for _, d := range deps {
		n.Deps = append(n.Deps, Dep{Name: d, At: at(name)})
	}
	return n
}

func idsToNames(idx Index, ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.IDToName[int(id)]
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildIndexIncludesDeps(t *testing.T) {
	idx := BuildIndex([]Node{node("Demo.B", "Demo.A", "Demo.I"), node("Demo.A")})
	want := []string{"Demo.A", "Demo.B", "Demo.I"}
	if !equal(idx.IDToName, want) {
		t.Fatalf("IDToName = %v, want %v", idx.IDToName, want)
	}
	for i, name := range want {
		if idx.NameToID[name] != NodeID(i) {
			t.Fatalf("NameToID[%q] = %d, want %d", name, idx.NameToID[name], i)
		}
	}
}

func TestToposortDependenciesFirst(t *testing.T) {
	nodes := []Node{
		node("Demo.C", "Demo.B"),
		node("Demo.B", "Demo.A", "Demo.IDisposable"),
		node("Demo.A"),
		node("Demo.IDisposable"),
	}
	idx := BuildIndex(nodes)
	g, _ := BuildGraph(idx, nodes, nil)
	topo := ToposortKahn(g)
	if topo.Cyclic {
		t.Fatalf("unexpected cycle: %v", idsToNames(idx, topo.Cycles))
	}
	want := []string{"Demo.A", "Demo.IDisposable", "Demo.B", "Demo.C"}
	if got := idsToNames(idx, topo.Order); !equal(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if len(topo.Batches) != 3 || len(topo.Batches[0]) != 2 {
		t.Fatalf("batches = %v", topo.Batches)
	}
}

func TestBuildGraphReportsProblems(t *testing.T) {
	nodes := []Node{
		node("Demo.A", "Demo.Missing"),
		node("Demo.A"),
		node("Demo.S", "Demo.S"),
	}
	bag := diag.NewBag(10)
	idx := BuildIndex(nodes)
	g, slots := BuildGraph(idx, nodes, diag.BagReporter{Bag: bag})

	codes := map[diag.Code]int{}
	for _, d := range bag.Items() {
		codes[d.Code]++
	}
	if codes[diag.LibDuplicateType] != 1 || codes[diag.LibUnknownType] != 1 || codes[diag.LibInheritanceCycle] != 1 {
		t.Fatalf("diagnostics = %v", bag.Items())
	}
	if g.Present[idx.NameToID["Demo.Missing"]] {
		t.Fatalf("referenced-only node marked present")
	}
	if len(slots[idx.NameToID["Demo.A"]].Node.Deps) != 1 {
		t.Fatalf("slot should keep the first declaration")
	}
	if topo := ToposortKahn(g); topo.Cyclic {
		t.Fatalf("dropped edges left a cycle")
	}
}

func TestReportCycles(t *testing.T) {
	nodes := []Node{
		node("Demo.A", "Demo.B"),
		node("Demo.B", "Demo.A"),
		node("Demo.C", "Demo.A"),
		node("Demo.D"),
	}
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	idx := BuildIndex(nodes)
	g, slots := BuildGraph(idx, nodes, r)
	topo := ToposortKahn(g)
	if !topo.Cyclic {
		t.Fatalf("expected a cycle")
	}
	if got := idsToNames(idx, topo.Order); !equal(got, []string{"Demo.D"}) {
		t.Fatalf("order = %v", got)
	}
	ReportCycles(idx, slots, topo, r)
	if bag.Len() != 3 {
		t.Fatalf("diagnostics = %v, want 3", bag.Items())
	}
	for _, d := range bag.Items() {
		if d.Code != diag.LibInheritanceCycle {
			t.Fatalf("code = %v", d.Code)
		}
	}
}
