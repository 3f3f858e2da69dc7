package rules

import (
	"slices"
	"strings"
	"testing"

	"github.com/edp1096/toy-circuit/pkg/circuit"
)

type sketch struct {
	comps []circuit.Component
	wires []circuit.Wire
}

func (s *sketch) part(id string, typ circuit.ComponentType, value float64) *sketch {
	c := circuit.Component{ID: id, Type: typ, Value: value, Ports: []circuit.Port{{ID: "p"}, {ID: "n"}}}
	if typ == circuit.Ground {
		c.Ports = []circuit.Port{{ID: "g"}}
	}
	s.comps = append(s.comps, c)
	return s
}

// wire joins "ID.port" references.
func (s *sketch) wire(from, to string) *sketch {
	f := strings.SplitN(from, ".", 2)
	d := strings.SplitN(to, ".", 2)
	s.wires = append(s.wires, circuit.Wire{FromComponentID: f[0], FromPortID: f[1], ToComponentID: d[0], ToPortID: d[1]})
	return s
}

func (s *sketch) eval(opts Options) []Violation { return Evaluate(s.comps, s.wires, opts) }

func byRule(vs []Violation, id string) []Violation {
	var out []Violation
	for _, v := range vs {
		if v.RuleID == id {
			out = append(out, v)
		}
	}
	return out
}

func series() *sketch {
	s := &sketch{}
	return s.part("V1", circuit.DCSource, 5).
		part("R1", circuit.Resistor, 1000).
		part("GND", circuit.Ground, 0).
		wire("V1.p", "R1.p").
		wire("R1.n", "GND.g").
		wire("V1.n", "GND.g")
}

func TestEvaluateCleanCircuit(t *testing.T) {
	if vs := series().eval(Options{}); len(vs) != 0 {
		t.Errorf("expected no violations, got %+v", vs)
	}
}

func TestNoGround(t *testing.T) {
	s := (&sketch{}).part("V1", circuit.DCSource, 5).part("R1", circuit.Resistor, 100).
		wire("V1.p", "R1.p").wire("R1.n", "V1.n")

	vs := byRule(s.eval(Options{}), RuleNoGround)
	if len(vs) != 1 {
		t.Fatalf("expected one %s, got %d", RuleNoGround, len(vs))
	}
	if vs[0].Severity != SeverityError {
		t.Errorf("expected ERROR, got %s", vs[0].Severity)
	}
}

func TestShortedSource(t *testing.T) {
	tests := []struct {
		name string
		s    *sketch
	}{
		{"terminals wired together", (&sketch{}).part("V1", circuit.DCSource, 5).wire("V1.p", "V1.n")},
		{"closed switch across", series().part("S1", circuit.Switch, 0).wire("S1.p", "V1.p").wire("S1.n", "V1.n")},
		{"ammeter across", series().part("A1", circuit.Ammeter, 0).wire("A1.p", "V1.p").wire("A1.n", "GND.g")},
		{"zero ohm resistor", series().part("R0", circuit.Resistor, 0.005).wire("R0.p", "V1.p").wire("R0.n", "V1.n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := byRule(tt.s.eval(Options{}), RuleShortedSource)
			if len(vs) != 1 || vs[0].Severity != SeverityError || vs[0].ComponentIDs[0] != "V1" {
				t.Errorf("expected one ERROR on V1, got %+v", vs)
			}
		})
	}

	// an inductor is not a short for this rule
	ind := series().part("L1", circuit.Inductor, 1e-3).wire("L1.p", "V1.p").wire("L1.n", "V1.n")
	if vs := byRule(ind.eval(Options{}), RuleShortedSource); len(vs) != 0 {
		t.Errorf("inductor should not count as 0 Ω, got %+v", vs)
	}
}

func TestNoReturnPath(t *testing.T) {
	s := (&sketch{}).part("V1", circuit.DCSource, 5).
		part("R1", circuit.Resistor, 100).
		part("GND", circuit.Ground, 0).
		wire("V1.p", "R1.p").
		wire("V1.n", "GND.g")

	vs := byRule(s.eval(Options{}), RuleNoReturnPath)
	if len(vs) != 1 || vs[0].ComponentIDs[0] != "V1" {
		t.Errorf("expected %s on V1, got %+v", RuleNoReturnPath, vs)
	}
	if !HasBlockingErrors(vs) {
		t.Errorf("a missing return path must block simulation")
	}
}

func TestReactiveAcrossSource(t *testing.T) {
	tests := []struct {
		name string
		typ  circuit.ComponentType
		rule string
	}{
		{"capacitor", circuit.Capacitor, RuleCapacitorOnSource},
		{"inductor", circuit.Inductor, RuleInductorOnSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// through an ammeter, which still counts as a direct connection
			s := series().part("X1", tt.typ, 1e-6).part("A1", circuit.Ammeter, 0).
				wire("V1.p", "A1.p").wire("A1.n", "X1.p").wire("X1.n", "GND.g")

			vs := byRule(s.eval(Options{}), tt.rule)
			if len(vs) != 1 {
				t.Fatalf("expected one %s, got %+v", tt.rule, vs)
			}
			if vs[0].Severity != SeverityWarning || !slices.Equal(vs[0].ComponentIDs, []string{"X1", "V1"}) {
				t.Errorf("unexpected violation %+v", vs[0])
			}
		})
	}

	limited := series().part("C1", circuit.Capacitor, 1e-6).part("R2", circuit.Resistor, 100).
		wire("V1.p", "R2.p").wire("R2.n", "C1.p").wire("C1.n", "GND.g")
	if vs := byRule(limited.eval(Options{}), RuleCapacitorOnSource); len(vs) != 0 {
		t.Errorf("series resistance should silence the rule, got %+v", vs)
	}
}

func ledLoop(r float64) *sketch {
	s := &sketch{}
	s.part("V1", circuit.DCSource, 5).part("LED1", circuit.LED, 2).part("GND", circuit.Ground, 0)
	if r > 0 {
		s.part("R1", circuit.Resistor, r).wire("V1.p", "R1.p").wire("R1.n", "LED1.p")
	} else {
		s.wire("V1.p", "LED1.p")
	}
	return s.wire("LED1.n", "V1.n").wire("V1.n", "GND.g")
}

func TestUnlimitedLED(t *testing.T) {
	tests := []struct {
		name   string
		s      *sketch
		opts   Options
		errors int
	}{
		{"220 Ω limits", ledLoop(220), Options{}, 0},
		{"direct drive", ledLoop(0), Options{}, 1},
		{"5 Ω below default minimum", ledLoop(5), Options{}, 1},
		{"5 Ω with lowered minimum", ledLoop(5), Options{RMinOhms: 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := byRule(tt.s.eval(tt.opts), RuleUnlimitedLED)
			if len(vs) != tt.errors {
				t.Fatalf("expected %d %s, got %+v", tt.errors, RuleUnlimitedLED, vs)
			}
			if tt.errors > 0 && (vs[0].Severity != SeverityError || vs[0].ComponentIDs[0] != "LED1") {
				t.Errorf("unexpected violation %+v", vs[0])
			}
		})
	}

	// reverse-biased LED cannot be driven
	rev := (&sketch{}).part("V1", circuit.DCSource, 5).part("LED1", circuit.LED, 2).part("GND", circuit.Ground, 0).
		wire("V1.p", "LED1.n").wire("LED1.p", "V1.n").wire("V1.n", "GND.g")
	if vs := byRule(rev.eval(Options{}), RuleUnlimitedLED); len(vs) != 0 {
		t.Errorf("reverse LED should not fire, got %+v", vs)
	}
}

func TestUnlimitedJunction(t *testing.T) {
	s := series().part("D1", circuit.Diode, 0.7).wire("D1.p", "V1.p").wire("D1.n", "GND.g")
	vs := byRule(s.eval(Options{}), RuleUnlimitedJunction)
	if len(vs) != 1 || vs[0].Severity != SeverityWarning || vs[0].ComponentIDs[0] != "D1" {
		t.Errorf("expected one WARNING on D1, got %+v", vs)
	}

	limited := series().part("D1", circuit.Diode, 0.7).part("R2", circuit.Resistor, 100).
		wire("V1.p", "R2.p").wire("R2.n", "D1.p").wire("D1.n", "GND.g")
	if vs := byRule(limited.eval(Options{}), RuleUnlimitedJunction); len(vs) != 0 {
		t.Errorf("expected none with a series resistor, got %+v", vs)
	}
}

func TestDanglingNode(t *testing.T) {
	t.Run("open terminal", func(t *testing.T) {
		s := series().part("R2", circuit.Resistor, 100).wire("R2.p", "V1.p")
		vs := byRule(s.eval(Options{}), RuleDanglingNode)
		if len(vs) == 0 {
			t.Fatalf("expected %s", RuleDanglingNode)
		}
		found := false
		for _, v := range vs {
			if v.Severity == SeverityWarning && slices.Contains(v.ComponentIDs, "R2") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected a WARNING naming R2, got %+v", vs)
		}
	})

	t.Run("branch off the loop", func(t *testing.T) {
		// R2 and R3 hang off the loop: their shared node has two
		// components but every link through it is a bridge.
		s := series().part("R2", circuit.Resistor, 100).part("R3", circuit.Resistor, 100).
			wire("R2.p", "V1.p").wire("R2.n", "R3.p")

		vs := byRule(s.eval(Options{}), RuleDanglingNode)
		var mid *Violation
		for i := range vs {
			if slices.Equal(vs[i].ComponentIDs, []string{"R2", "R3"}) {
				mid = &vs[i]
			}
		}
		if mid == nil {
			t.Errorf("expected the R2/R3 node to be reported, got %+v", vs)
		}
	})

	t.Run("parallel parts form a loop", func(t *testing.T) {
		s := series().part("R2", circuit.Resistor, 100).part("R3", circuit.Resistor, 100).
			wire("R2.p", "V1.p").wire("R2.n", "R3.p").wire("R3.n", "GND.g")
		if vs := byRule(s.eval(Options{}), RuleDanglingNode); len(vs) != 0 {
			t.Errorf("expected none, got %+v", vs)
		}
	})
}

func TestBridges(t *testing.T) {
	// triangle 0-1-2 with a tail 2-3 and a doubled edge 3-4
	m := &multigraph{adj: make([][]halfEdge, 5)}
	m.addEdge(0, 1, 0)
	m.addEdge(1, 2, 1)
	m.addEdge(2, 0, 2)
	m.addEdge(2, 3, 3)
	m.addEdge(3, 4, 4)
	m.addEdge(3, 4, 5)

	got := m.bridges()
	if len(got) != 1 || !got[3] {
		t.Errorf("expected only edge 3 to be a bridge, got %v", got)
	}
}

func TestCheckLEDEmission(t *testing.T) {
	comps := []circuit.Component{
		{ID: "LED1", Type: circuit.LED},
		{ID: "LED2", Type: circuit.LED},
		{ID: "LED3", Type: circuit.LED},
		{ID: "R1", Type: circuit.Resistor},
	}
	currents := map[string]float64{"LED1": 0.5e-3, "LED2": 5e-3, "LED3": -1e-9, "R1": 1e-4}

	vs := CheckLEDEmission(comps, currents, Options{})
	if len(vs) != 1 || vs[0].ComponentIDs[0] != "LED1" || vs[0].Severity != SeverityInfo {
		t.Fatalf("expected one INFO on LED1, got %+v", vs)
	}

	vs = CheckLEDEmission(comps, currents, Options{TeachingMode: true})
	if len(vs) != 1 || vs[0].Severity != SeverityWarning {
		t.Errorf("teaching mode should promote to WARNING, got %+v", vs)
	}
	if HasBlockingErrors(vs) {
		t.Errorf("LED emission is never blocking")
	}
}

func TestFilter(t *testing.T) {
	vs := []Violation{
		{RuleID: "A", Severity: SeverityError},
		{RuleID: "B", Severity: SeverityWarning},
		{RuleID: "C", Severity: SeverityError},
	}
	if got := Filter(vs, SeverityError); len(got) != 2 || got[1].RuleID != "C" {
		t.Errorf("expected A and C, got %+v", got)
	}
	if HasBlockingErrors(Filter(vs, SeverityWarning)) {
		t.Errorf("warnings must not block")
	}
}
