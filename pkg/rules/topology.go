package rules

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/device"
)

// topology is the node view shared by all rules. zero groups nodes joined
// through effectively 0 Ω elements, a coarser partition than the electrical
// nodes themselves.
type topology struct {
	graph *circuit.Graph
	comps []circuit.Component
	nodes []string         // node ids, ground included, in build order
	ids   map[string]int64 // node id -> gonum node id
	zero  *circuit.UnionFind
}

type link struct{ a, b string }

func newTopology(components []circuit.Component, wires []circuit.Wire) *topology {
	g := circuit.Build(components, wires)
	t := &topology{
		graph: g,
		comps: components,
		ids:   make(map[string]int64),
		zero:  circuit.NewUnionFind(),
	}
	for _, n := range g.Nodes {
		t.addNode(n.ID)
	}
	// gate ports link to ground even when no ground component exists
	t.addNode(consts.GroundNodeID)

	for i := range components {
		c := &components[i]
		if !isZeroOhm(c) {
			continue
		}
		if ls := t.links(c); len(ls) == 1 {
			t.zero.Union(ls[0].a, ls[0].b)
		}
	}
	return t
}

func (t *topology) addNode(id string) {
	if _, ok := t.ids[id]; ok {
		return
	}
	t.ids[id] = int64(len(t.nodes))
	t.nodes = append(t.nodes, id)
	t.zero.Add(id)
}

// isZeroOhm: switches and ammeters always, resistors at or below the
// threshold. Inductors are never counted.
func isZeroOhm(c *circuit.Component) bool {
	switch c.Type {
	case circuit.Switch, circuit.Ammeter:
		return true
	case circuit.Resistor:
		return c.Value <= consts.ZeroOhmThreshold
	}
	return false
}

// links returns the node pairs a component connects. Transistors link
// base-emitter and collector-emitter; gate ports each link to ground
// through the output source or the input termination.
func (t *topology) links(c *circuit.Component) []link {
	nodes := t.graph.ComponentNodes(c.ID)
	switch {
	case c.Type == circuit.Ground:
		return nil
	case c.Type.IsTwoTerminal():
		if len(nodes) < 2 {
			return nil
		}
		return []link{{nodes[0], nodes[1]}}
	case c.Type.IsTransistor():
		if len(nodes) < 3 {
			return nil
		}
		b, col, e := circuit.TransistorPorts(c)
		return []link{{nodes[b], nodes[e]}, {nodes[col], nodes[e]}}
	case c.Type.IsGate():
		out := make([]link, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, link{n, consts.GroundNodeID})
		}
		return out
	}
	return nil
}

// terminals returns the positive and negative node of a two-terminal part.
func (t *topology) terminals(c *circuit.Component) (pos, neg string, ok bool) {
	nodes := t.graph.ComponentNodes(c.ID)
	if len(nodes) < 2 {
		return "", "", false
	}
	return nodes[0], nodes[1], true
}

func (t *topology) sameGroup(a, b string) bool { return t.zero.Same(a, b) }

func (t *topology) sources() []*circuit.Component {
	var out []*circuit.Component
	for i := range t.comps {
		if t.comps[i].Type.IsSource() {
			out = append(out, &t.comps[i])
		}
	}
	return out
}

// reach builds an undirected graph over every node, linking the nodes of
// each component not excluded by skip.
func (t *topology) reach(skip func(*circuit.Component) bool) *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for _, id := range t.nodes {
		ug.AddNode(simple.Node(t.ids[id]))
	}
	for i := range t.comps {
		c := &t.comps[i]
		if skip != nil && skip(c) {
			continue
		}
		for _, l := range t.links(c) {
			u, v := t.ids[l.a], t.ids[l.b]
			if u == v {
				continue
			}
			ug.SetEdge(ug.NewEdge(simple.Node(u), simple.Node(v)))
		}
	}
	return ug
}

func (t *topology) connected(ug *simple.UndirectedGraph, a, b string) bool {
	if a == b {
		return true
	}
	return topo.PathExistsIn(ug, simple.Node(t.ids[a]), simple.Node(t.ids[b]))
}

// limits reports whether c holds at least rMin of DC resistance.
// Capacitors block DC and count as limiting.
func limits(c *circuit.Component, rMin float64) bool {
	if c.Type == circuit.Capacitor {
		return true
	}
	r, ok := device.ComponentResistance(c)
	return ok && r >= rMin
}
