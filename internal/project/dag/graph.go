package dag

import (
	"fmt"
	"slices"
	"strings"

	"typeweave/internal/diag"
)

type Graph struct {
	Edges   [][]NodeID // Edges[dep] = nodes that depend on dep
	Indeg   []int      // number of present dependencies
	Present []bool     // declared, not only referenced
}

type Slot struct {
	Node    Node
	Present bool
}

// BuildGraph links nodes to their dependencies. Duplicate declarations, self
// references and references to undeclared names are reported to r and left
// out of the graph.
func BuildGraph(idx Index, nodes []Node, r diag.Reporter) (Graph, []Slot) {
	count := len(idx.IDToName)
	g := Graph{
		Edges:   make([][]NodeID, count),
		Indeg:   make([]int, count),
		Present: make([]bool, count),
	}
	slots := make([]Slot, count)
	for i, name := range idx.IDToName {
		slots[i].Node.Name = name
	}

	for _, n := range nodes {
		if n.Name == "" {
			continue
		}
		id, ok := idx.NameToID[n.Name]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			diag.ReportError(r, diag.LibDuplicateType, n.At, fmt.Sprintf("duplicate type %q", n.Name)).
				WithNote(slot.Node.At, fmt.Sprintf("previous declaration of %q", n.Name)).
				Emit()
			continue
		}
		slot.Node = n
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present {
			continue
		}
		seen := make(map[NodeID]struct{}, len(slot.Node.Deps))
		for _, dep := range slot.Node.Deps {
			depID, ok := idx.NameToID[dep.Name]
			if !ok {
				continue
			}
			if depID == NodeID(from) {
				diag.ReportError(r, diag.LibInheritanceCycle, dep.At, fmt.Sprintf("type %q depends on itself", slot.Node.Name)).Emit()
				continue
			}
			if !g.Present[int(depID)] {
				diag.ReportError(r, diag.LibUnknownType, dep.At, fmt.Sprintf("type %q references unknown type %q", slot.Node.Name, dep.Name)).Emit()
				continue
			}
			if _, dup := seen[depID]; dup {
				continue
			}
			seen[depID] = struct{}{}
			g.Edges[int(depID)] = append(g.Edges[int(depID)], NodeID(from))
			g.Indeg[from]++
		}
	}
	for i := range g.Edges {
		slices.Sort(g.Edges[i])
	}
	return g, slots
}

// ReportCycles reports every node that could not be ordered, whether it is
// on a cycle or depends on one.
func ReportCycles(idx Index, slots []Slot, topo *Topo, r diag.Reporter) {
	if !topo.Cyclic || len(topo.Cycles) == 0 {
		return
	}
	names := make([]string, 0, len(topo.Cycles))
	for _, id := range topo.Cycles {
		names = append(names, idx.IDToName[int(id)])
	}
	summary := strings.Join(names, ", ")
	for _, id := range topo.Cycles {
		slot := slots[int(id)]
		if !slot.Present {
			continue
		}
		msg := fmt.Sprintf("type %q cannot be ordered, inheritance cycle among: %s", slot.Node.Name, summary)
		diag.ReportError(r, diag.LibInheritanceCycle, slot.Node.At, msg).Emit()
	}
}
