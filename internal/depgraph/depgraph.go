// Package depgraph offers an optional pre-pack validation: when a
// container file embeds more than one UDF-backed virtual dataset, and a
// UDF's declared inputs (from internal/scan) name another virtual
// dataset in the same file, this checks the resulting dependency graph
// for cycles, via topological ordering, before any of the UDFs are
// packed. It does not change scan()'s own per-file contract; it is
// additive.
package depgraph

import (
	"golang.org/x/xerrors"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// UDF names one virtual dataset a UDF produces and the dataset names it
// declares as inputs (typically internal/scan's output for that UDF's
// source).
type UDF struct {
	Produces  string
	DependsOn []string
}

// CheckAcyclic builds a directed graph with an edge from each dependency
// to its dependent and returns an error if the UDF set is not orderable.
// A UDF that depends on its own output is reported by dataset name; a
// longer cycle is reported through topo.Sort's error, which lists the
// cyclic components by graph node ID. A dependency that names no UDF in
// udfs (an input dataset stored as plain data, not synthesized) is a
// harmless leaf node.
func CheckAcyclic(udfs []UDF) error {
	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(udfs))

	nodeFor := func(name string) graph.Node {
		if id, ok := ids[name]; ok {
			return simple.Node(id)
		}
		n := g.NewNode()
		ids[name] = n.ID()
		g.AddNode(n)
		return n
	}

	for _, u := range udfs {
		producer := nodeFor(u.Produces)
		for _, dep := range u.DependsOn {
			if dep == u.Produces {
				// simple.DirectedGraph rejects self edges, so a self-loop
				// is reported here rather than through topo.Sort.
				return xerrors.Errorf("depgraph: dataset dependencies are not acyclic: %q depends on itself", dep)
			}
			g.SetEdge(g.NewEdge(nodeFor(dep), producer))
		}
	}

	if _, err := topo.Sort(g); err != nil {
		return xerrors.Errorf("depgraph: dataset dependencies are not acyclic: %w", err)
	}
	return nil
}
