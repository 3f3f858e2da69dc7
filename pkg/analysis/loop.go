package analysis

import (
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

// CheckClosedLoop fails when open switches leave some source's positive
// terminal without a conducting path to ground. Closed switches and every
// non-source component conduct; sources do not conduct internally. The
// error names the open switches that would restore the path, or all open
// switches when none does on its own.
func CheckClosedLoop(g *circuit.Graph, components []circuit.Component) error {
	var open []*circuit.Component
	for i := range components {
		c := &components[i]
		if c.Type == circuit.Switch && !c.IsClosed() {
			open = append(open, c)
		}
	}
	if len(open) == 0 {
		return nil
	}

	base := conductionGraph(g, components, nil)
	broken := brokenSources(g, components, base)
	if len(broken) == 0 {
		return nil
	}

	var culprits []string
	for _, sw := range open {
		withSwitch := conductionGraph(g, components, sw)
		if len(brokenSources(g, components, withSwitch)) < len(broken) {
			culprits = append(culprits, sw.ID)
		}
	}
	if len(culprits) == 0 {
		for _, sw := range open {
			culprits = append(culprits, sw.ID)
		}
	}
	slices.Sort(culprits)

	return fmt.Errorf("%w: %s (source %s has no path to ground)",
		ErrOpenSwitch, strings.Join(culprits, ", "), strings.Join(broken, ", "))
}

// graphID maps an MNA node index onto a gonum node id; ground is 0.
func graphID(index int) int64 { return int64(index + 1) }

// conductionGraph links the nodes of every conducting component. closeSw,
// when set, is an open switch treated as closed.
func conductionGraph(g *circuit.Graph, components []circuit.Component, closeSw *circuit.Component) *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for _, n := range g.Nodes {
		id := graphID(n.Index)
		if ug.Node(id) == nil {
			ug.AddNode(simple.Node(id))
		}
	}

	for i := range components {
		c := &components[i]
		switch {
		case c.Type == circuit.Ground, c.Type.IsSource():
			continue
		case c.Type == circuit.Switch && !c.IsClosed() && c != closeSw:
			continue
		}

		nodes := g.ComponentNodes(c.ID)
		for a := 0; a < len(nodes); a++ {
			for b := a + 1; b < len(nodes); b++ {
				u, v := graphID(g.NodeIndex[nodes[a]]), graphID(g.NodeIndex[nodes[b]])
				if u == v {
					continue
				}
				ug.SetEdge(ug.NewEdge(simple.Node(u), simple.Node(v)))
			}
		}
	}
	return ug
}

// brokenSources lists the sources whose positive terminal cannot reach ground.
func brokenSources(g *circuit.Graph, components []circuit.Component, ug *simple.UndirectedGraph) []string {
	ground := graphID(g.NodeIndex[consts.GroundNodeID])
	var out []string
	for _, c := range components {
		if !c.Type.IsSource() {
			continue
		}
		nodes := g.ComponentNodes(c.ID)
		if len(nodes) == 0 {
			continue
		}
		pos := graphID(g.NodeIndex[nodes[0]])
		if pos == ground {
			continue
		}
		if !topo.PathExistsIn(ug, simple.Node(pos), simple.Node(ground)) {
			out = append(out, c.ID)
		}
	}
	return out
}
