// Package dag orders named declarations that depend on each other: types of
// the loaded libraries, whose base types and interfaces must be declared
// before them.
package dag

import (
	"slices"

	"typeweave/internal/diag"
)

type NodeID uint32

// Dep is a dependency of a node, with the place that introduced it.
type Dep struct {
	Name string
	At   diag.Location
}

// Node is one declaration.
type Node struct {
	Name string
	At   diag.Location
	Deps []Dep
}

type Index struct {
	NameToID map[string]NodeID
	IDToName []string
}

// BuildIndex collects the names of nodes and their dependencies, sorts them
// and assigns IDs in order.
func BuildIndex(nodes []Node) Index {
	uniq := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		if n.Name != "" {
			uniq[n.Name] = struct{}{}
		}
		for _, dep := range n.Deps {
			if dep.Name != "" {
				uniq[dep.Name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(uniq))
	for name := range uniq {
		names = append(names, name)
	}
	slices.Sort(names)

	nameToID := make(map[string]NodeID, len(names))
	for i, name := range names {
		nameToID[name] = NodeID(i)
	}
	return Index{NameToID: nameToID, IDToName: names}
}
