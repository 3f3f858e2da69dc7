package circuit

import (
	"reflect"
	"testing"
)

func twoPort(id string, typ ComponentType, value float64) Component {
	return Component{ID: id, Type: typ, Value: value, Ports: []Port{{ID: "p1"}, {ID: "p2"}}}
}

func gnd(id string) Component {
	return Component{ID: id, Type: Ground, Ports: []Port{{ID: "g"}}}
}

func wire(fc, fp, tc, tp string) Wire {
	return Wire{FromComponentID: fc, FromPortID: fp, ToComponentID: tc, ToPortID: tp}
}

// V1 -> R1 -> R2 -> ground
func divider() ([]Component, []Wire) {
	comps := []Component{
		twoPort("V1", DCSource, 10),
		twoPort("R1", Resistor, 1000),
		twoPort("R2", Resistor, 1000),
		gnd("G"),
	}
	wires := []Wire{
		wire("V1", "p1", "R1", "p1"),
		wire("R1", "p2", "R2", "p1"),
		wire("R2", "p2", "G", "g"),
		wire("V1", "p2", "G", "g"),
	}
	return comps, wires
}

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind()
	for _, k := range []string{"a", "b", "c", "d"} {
		uf.Add(k)
	}
	uf.Union("c", "d")
	uf.Union("b", "d")

	if !uf.Same("b", "c") {
		t.Errorf("expected b and c in one class")
	}
	if uf.Same("a", "b") {
		t.Errorf("expected a separate")
	}
	if got := uf.Find("d"); got != "b" {
		t.Errorf("expected first inserted member b as root, got %q", got)
	}
	if uf.Union("a", "missing") {
		t.Errorf("union with unknown key should report false")
	}
	if uf.Find("missing") != "" {
		t.Errorf("unknown key should have no root")
	}
}

func TestBuildDivider(t *testing.T) {
	comps, wires := divider()
	g := Build(comps, wires)

	if !g.HasGround {
		t.Fatalf("expected ground")
	}
	if g.NodeCount != 2 {
		t.Errorf("expected 2 non-ground nodes, got %d", g.NodeCount)
	}
	if g.BranchCount != 1 {
		t.Errorf("expected 1 branch variable, got %d", g.BranchCount)
	}
	if g.Size() != 3 {
		t.Errorf("expected system size 3, got %d", g.Size())
	}
	if len(g.Stamps) != 3 {
		t.Fatalf("expected 3 stamps, got %d", len(g.Stamps))
	}

	v1, ok := g.StampFor("V1")
	if !ok {
		t.Fatalf("missing V1 stamp")
	}
	if v1.Node2 != -1 {
		t.Errorf("V1 negative terminal should be ground, got %d", v1.Node2)
	}
	if g.BranchUnknown(v1) != 2 {
		t.Errorf("expected branch unknown 2, got %d", g.BranchUnknown(v1))
	}

	r2, _ := g.StampFor("R2")
	r1, _ := g.StampFor("R1")
	if r1.Node2 != r2.Node1 {
		t.Errorf("R1 and R2 should share a node")
	}
	if id, _ := g.NodeOf("R2", "p2"); id != "0" {
		t.Errorf("expected R2.p2 on ground node, got %q", id)
	}
	if !g.GroundConnected(comps) {
		t.Errorf("ground should be connected")
	}
}

func TestBuildDeterministic(t *testing.T) {
	comps, wires := divider()
	a := Build(comps, wires)
	b := Build(comps, wires)

	if !reflect.DeepEqual(a.NodeIndex, b.NodeIndex) {
		t.Errorf("node indices differ: %v vs %v", a.NodeIndex, b.NodeIndex)
	}
	if !reflect.DeepEqual(a.Stamps, b.Stamps) {
		t.Errorf("stamps differ between builds")
	}
}

func TestBuildIsolatedGround(t *testing.T) {
	comps := []Component{twoPort("R1", Resistor, 1), gnd("G")}
	g := Build(comps, nil)

	if !g.HasGround {
		t.Fatalf("expected ground present")
	}
	if g.GroundConnected(comps) {
		t.Errorf("ground with no wires should not be connected")
	}
	if g.NodeCount != 2 {
		t.Errorf("expected 2 floating nodes, got %d", g.NodeCount)
	}
}

func TestBuildBranchVariables(t *testing.T) {
	comps := []Component{
		twoPort("V1", DCSource, 5),
		twoPort("L1", Inductor, 1e-3),
		twoPort("C1", Capacitor, 1e-6),
		twoPort("D1", Diode, 0.7),
		twoPort("S1", Switch, 0),
		{ID: "Q1", Type: NPNTransistor, Ports: []Port{{ID: "c"}, {ID: "b"}, {ID: "e"}}},
		{ID: "U1", Type: NotGate, Ports: []Port{{ID: "a"}, {ID: "out"}}},
		gnd("G"),
	}
	g := Build(comps, nil)

	want := map[string]int{"V1": 0, "L1": 1, "C1": -1, "D1": 2, "S1": -1, "Q1": 3, "U1": 4}
	for id, cv := range want {
		s, ok := g.StampFor(id)
		if !ok {
			t.Errorf("missing stamp for %s", id)
			continue
		}
		if s.CurrentVar != cv {
			t.Errorf("%s: expected current var %d, got %d", id, cv, s.CurrentVar)
		}
	}
	if _, ok := g.StampFor("G"); ok {
		t.Errorf("ground should not be stamped")
	}

	q, _ := g.StampFor("Q1")
	nodes := g.ComponentNodes("Q1")
	if q.Aux != g.NodeIndex[nodes[1]] || q.Node1 != g.NodeIndex[nodes[0]] {
		t.Errorf("transistor ports should be matched by name")
	}

	u, _ := g.StampFor("U1")
	if len(u.Inputs) != 1 || u.InputPorts[0] != "a" {
		t.Errorf("expected one gate input 'a', got %v", u.InputPorts)
	}
	if u.InputWired[0] {
		t.Errorf("unwired gate input reported as wired")
	}
}

func TestSwitchDefaultsClosed(t *testing.T) {
	c := twoPort("S1", Switch, 0)
	if !c.IsClosed() {
		t.Errorf("nil switch state should be closed")
	}
	c.SwitchClosed = Bool(false)
	if c.IsClosed() {
		t.Errorf("expected open switch")
	}
}
