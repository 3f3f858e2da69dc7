package circuit

import (
	"log/slog"
	"strings"

	"github.com/edp1096/toy-circuit/internal/consts"
)

// Stamp is the solver-facing projection of one component. Node indices are
// -1 for ground, else dense in [0, NodeCount). CurrentVar indexes the
// branch-current namespace; use Graph.BranchUnknown for the MNA row.
type Stamp struct {
	ComponentID string
	Type        ComponentType

	Node1 int // port 0: positive, anode, gate output, collector
	Node2 int // port 1: negative, cathode, emitter
	Aux   int // transistor base, -1 otherwise

	Inputs     []int    // gate input nodes, -1 when unwired
	InputPorts []string // gate input port ids, parallel to Inputs
	InputWired []bool

	Value      float64
	CurrentVar int

	Frequency    float64
	Phase        float64
	Offset       float64
	Waveform     Waveform
	SwitchClosed bool
	LEDColor     string
}

// Node is an electrical node: one union-find class of ports.
type Node struct {
	ID    string
	Index int // -1 for ground
	Ports []PortRef
}

type Graph struct {
	Nodes       []*Node
	NodeIndex   map[string]int // node id -> unknown index, -1 for ground
	Stamps      []Stamp
	NodeCount   int
	BranchCount int
	HasGround   bool

	nodeByID  map[string]*Node
	portNode  map[string]string
	stampByID map[string]int
	compNodes map[string][]string
}

// Size is the MNA system dimension.
func (g *Graph) Size() int { return g.NodeCount + g.BranchCount }

// BranchUnknown maps a stamp's branch variable onto the solution vector.
func (g *Graph) BranchUnknown(s *Stamp) int {
	if s.CurrentVar < 0 {
		return -1
	}
	return g.NodeCount + s.CurrentVar
}

// NodeOf returns the node id a port resolved to.
func (g *Graph) NodeOf(componentID, portID string) (string, bool) {
	id, ok := g.portNode[PortKey(componentID, portID)]
	return id, ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) *Node { return g.nodeByID[id] }

// ComponentNodes returns the node id of each port of a component, in port order.
func (g *Graph) ComponentNodes(componentID string) []string {
	return g.compNodes[componentID]
}

// StampFor returns the stamp of a component, if it produced one.
func (g *Graph) StampFor(componentID string) (*Stamp, bool) {
	i, ok := g.stampByID[componentID]
	if !ok {
		return nil, false
	}
	return &g.Stamps[i], true
}

// GroundConnected reports whether the ground node also holds a port of a
// non-ground component.
func (g *Graph) GroundConnected(components []Component) bool {
	n := g.nodeByID[consts.GroundNodeID]
	if n == nil {
		return false
	}
	types := make(map[string]ComponentType, len(components))
	for _, c := range components {
		types[c.ID] = c.Type
	}
	for _, p := range n.Ports {
		if types[p.ComponentID] != Ground {
			return true
		}
	}
	return false
}

// Build resolves ports into electrical nodes and emits one stamp per
// electrical component. The same input always yields the same indices.
func Build(components []Component, wires []Wire) *Graph {
	uf := NewUnionFind()
	for _, c := range components {
		for _, p := range c.Ports {
			uf.Add(PortKey(c.ID, p.ID))
		}
	}
	for _, w := range wires {
		from := PortKey(w.FromComponentID, w.FromPortID)
		to := PortKey(w.ToComponentID, w.ToPortID)
		if !uf.Union(from, to) {
			slog.Debug("wire references unknown port", "wire", w.ID, "from", from, "to", to)
		}
	}

	groundRoots := make(map[string]bool)
	for _, c := range components {
		if c.Type != Ground {
			continue
		}
		for _, p := range c.Ports {
			groundRoots[uf.Find(PortKey(c.ID, p.ID))] = true
		}
	}

	g := &Graph{
		NodeIndex: make(map[string]int),
		HasGround: len(groundRoots) > 0,
		nodeByID:  make(map[string]*Node),
		portNode:  make(map[string]string),
		stampByID: make(map[string]int),
		compNodes: make(map[string][]string),
	}

	nodeID := func(root string) string {
		if groundRoots[root] {
			return consts.GroundNodeID
		}
		return root
	}

	for _, c := range components {
		ids := make([]string, len(c.Ports))
		for i, p := range c.Ports {
			key := PortKey(c.ID, p.ID)
			id := nodeID(uf.Find(key))
			ids[i] = id
			g.portNode[key] = id

			n, ok := g.nodeByID[id]
			if !ok {
				n = &Node{ID: id, Index: -1}
				if id != consts.GroundNodeID {
					n.Index = g.NodeCount
					g.NodeCount++
				}
				g.nodeByID[id] = n
				g.Nodes = append(g.Nodes, n)
				g.NodeIndex[id] = n.Index
			}
			n.Ports = append(n.Ports, PortRef{ComponentID: c.ID, PortID: p.ID})
		}
		g.compNodes[c.ID] = ids
	}

	for _, c := range components {
		s, ok := g.stamp(&c)
		if !ok {
			continue
		}
		if c.Type.NeedsBranchCurrent() {
			s.CurrentVar = g.BranchCount
			g.BranchCount++
		}
		g.stampByID[c.ID] = len(g.Stamps)
		g.Stamps = append(g.Stamps, s)
	}

	return g
}

func (g *Graph) index(componentID string, port int) int {
	ids := g.compNodes[componentID]
	if port < 0 || port >= len(ids) {
		return -1
	}
	return g.NodeIndex[ids[port]]
}

func (g *Graph) stamp(c *Component) (Stamp, bool) {
	s := Stamp{
		ComponentID:  c.ID,
		Type:         c.Type,
		Node1:        -1,
		Node2:        -1,
		Aux:          -1,
		Value:        c.Value,
		CurrentVar:   -1,
		Frequency:    c.Frequency,
		Phase:        c.Phase,
		Offset:       c.Offset,
		Waveform:     c.Waveform,
		SwitchClosed: c.IsClosed(),
		LEDColor:     c.LEDColor,
	}

	switch {
	case c.Type == Ground:
		return s, false

	case c.Type.IsTwoTerminal():
		if len(c.Ports) < 2 {
			slog.Debug("component has fewer than two ports", "component", c.ID)
			return s, false
		}
		s.Node1 = g.index(c.ID, 0)
		s.Node2 = g.index(c.ID, 1)

	case c.Type.IsTransistor():
		if len(c.Ports) < 3 {
			slog.Debug("transistor needs base, collector and emitter", "component", c.ID)
			return s, false
		}
		b, col, e := transistorPorts(c)
		s.Aux = g.index(c.ID, b)
		s.Node1 = g.index(c.ID, col)
		s.Node2 = g.index(c.ID, e)

	case c.Type.IsGate():
		if len(c.Ports) < 2 {
			return s, false
		}
		out := gateOutputPort(c)
		s.Node1 = g.index(c.ID, out)
		for i, p := range c.Ports {
			if i == out {
				continue
			}
			s.Inputs = append(s.Inputs, g.index(c.ID, i))
			s.InputPorts = append(s.InputPorts, p.ID)
			n := g.nodeByID[g.compNodes[c.ID][i]]
			s.InputWired = append(s.InputWired, n != nil && len(n.Ports) > 1)
		}
		if c.LogicOutput {
			s.Value = consts.LogicHigh
		} else {
			s.Value = consts.LogicLow
		}

	default:
		return s, false
	}
	return s, true
}

// GateOutputPort returns the index of a gate's output port: a port named
// "out"/"output"/"y"/"q", else the last port.
func GateOutputPort(c *Component) int { return gateOutputPort(c) }

func gateOutputPort(c *Component) int {
	for i, p := range c.Ports {
		switch strings.ToLower(p.ID) {
		case "out", "output", "y", "q":
			return i
		}
	}
	return len(c.Ports) - 1
}

// TransistorPorts returns base, collector and emitter port positions.
func TransistorPorts(c *Component) (base, collector, emitter int) { return transistorPorts(c) }

// transistorPorts returns base, collector and emitter port positions,
// matching ids when they are named and falling back to positional order.
func transistorPorts(c *Component) (base, collector, emitter int) {
	base, collector, emitter = 0, 1, 2
	found := 0
	for i, p := range c.Ports {
		switch strings.ToLower(p.ID) {
		case "b", "base":
			base = i
			found++
		case "c", "collector":
			collector = i
			found++
		case "e", "emitter":
			emitter = i
			found++
		}
	}
	if found != 3 {
		return 0, 1, 2
	}
	return base, collector, emitter
}
