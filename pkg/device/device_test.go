package device

import (
	"math"
	"testing"

	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

func TestWaveformValue(t *testing.T) {
	const f = 50.0
	quarter := 1 / (4 * f)

	tests := []struct {
		name string
		w    circuit.Waveform
		t    float64
		want float64
	}{
		{"sine at zero", circuit.Sine, 0, 0},
		{"sine at peak", circuit.Sine, quarter, 2},
		{"default is sine", "", quarter, 2},
		{"square first half", circuit.Square, quarter, 2},
		{"square second half", circuit.Square, 3 * quarter, -2},
		{"triangle peak", circuit.Triangle, quarter, 2},
		{"triangle midway", circuit.Triangle, quarter / 2, 1},
		{"sawtooth start", circuit.Sawtooth, 0, -2},
		{"sawtooth middle", circuit.Sawtooth, 2 * quarter, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WaveformValue(tt.w, tt.t, 2, f, 0)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	// 90 degree phase turns a sine into a cosine
	if got := WaveformValue(circuit.Sine, 0, 1, f, 90); math.Abs(got-1) > 1e-12 {
		t.Errorf("phase shift: expected 1, got %v", got)
	}
}

func TestNextJunctionState(t *testing.T) {
	tests := []struct {
		name    string
		state   JunctionState
		drop    float64
		current float64
		want    JunctionState
	}{
		{"off below threshold", JunctionOff, 0.5, 0, JunctionOff},
		{"off at threshold", JunctionOff, 0.7, 0, JunctionOff},
		{"off turns on", JunctionOff, 0.71, 0, JunctionOn},
		{"on forward current", JunctionOn, 0.7, 1e-3, JunctionOn},
		{"on within tolerance", JunctionOn, 0.7, -1e-10, JunctionOn},
		{"on reverses", JunctionOn, 0, -1e-6, JunctionOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextJunctionState(tt.state, tt.drop, tt.current, 0.7); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestForwardVoltage(t *testing.T) {
	tests := []struct {
		stamp circuit.Stamp
		want  float64
	}{
		{circuit.Stamp{Type: circuit.Diode}, 0.7},
		{circuit.Stamp{Type: circuit.Diode, Value: 0.3}, 0.3},
		{circuit.Stamp{Type: circuit.LED, LEDColor: "Blue"}, 3.0},
		{circuit.Stamp{Type: circuit.LED, LEDColor: "infrared"}, 2.0},
		{circuit.Stamp{Type: circuit.NPNTransistor}, 0.7},
	}
	for _, tt := range tests {
		if got := ForwardVoltage(&tt.stamp); got != tt.want {
			t.Errorf("%s %q: expected %v, got %v", tt.stamp.Type, tt.stamp.LEDColor, tt.want, got)
		}
	}
}

func TestJunctionNodes(t *testing.T) {
	npn := circuit.Stamp{Type: circuit.NPNTransistor, Aux: 0, Node1: 1, Node2: 2}
	if a, k := JunctionNodes(&npn); a != 0 || k != 2 {
		t.Errorf("npn: expected base->emitter (0,2), got (%d,%d)", a, k)
	}
	pnp := circuit.Stamp{Type: circuit.PNPTransistor, Aux: 0, Node1: 1, Node2: 2}
	if a, k := JunctionNodes(&pnp); a != 2 || k != 0 {
		t.Errorf("pnp: expected emitter->base (2,0), got (%d,%d)", a, k)
	}
}

func TestEffectiveResistance(t *testing.T) {
	tests := []struct {
		typ    circuit.ComponentType
		value  float64
		closed bool
		want   float64
		ok     bool
	}{
		{circuit.Resistor, 220, true, 220, true},
		{circuit.Resistor, 0, true, 1e-6, true},
		{circuit.Switch, 0, true, 0.01, true},
		{circuit.Switch, 0, false, 1e12, true},
		{circuit.Ammeter, 0, true, 0.001, true},
		{circuit.Voltmeter, 0, true, 1e12, true},
		{circuit.Capacitor, 1e-6, true, 0, false},
	}
	for _, tt := range tests {
		got, ok := EffectiveResistance(tt.typ, tt.value, tt.closed)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: expected (%v,%v), got (%v,%v)", tt.typ, tt.want, tt.ok, got, ok)
		}
	}
}

func build(comps []circuit.Component, wires []circuit.Wire) *circuit.Graph {
	return circuit.Build(comps, wires)
}

func twoPort(id string, typ circuit.ComponentType, value float64) circuit.Component {
	return circuit.Component{ID: id, Type: typ, Value: value, Ports: []circuit.Port{{ID: "p1"}, {ID: "p2"}}}
}

// C1 between node a and ground, nothing else
func capacitorGraph() *circuit.Graph {
	return build([]circuit.Component{
		twoPort("C1", circuit.Capacitor, 1e-6),
		{ID: "G", Type: circuit.Ground, Ports: []circuit.Port{{ID: "g"}}},
	}, []circuit.Wire{{FromComponentID: "C1", FromPortID: "p2", ToComponentID: "G", ToPortID: "g"}})
}

func TestCapacitorCompanion(t *testing.T) {
	g := capacitorGraph()
	sys := linalg.NewDenseSystem(g.Size())
	status := &CircuitStatus{
		Mode:     TransientAnalysis,
		TimeStep: 1e-5,
		Dynamic:  NewDynamicState().With("C1", circuit.Capacitor, 2),
	}
	if err := StampAll(sys, g, status); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	geq := 1e-6 / 1e-5
	if got := sys.Matrix().At(0, 0); math.Abs(got-geq) > 1e-12 {
		t.Errorf("G_eq: expected %v, got %v", geq, got)
	}
	if got := sys.RHS().AtVec(0); math.Abs(got-geq*2) > 1e-12 {
		t.Errorf("I_eq: expected %v, got %v", geq*2, got)
	}

	// the companion alone holds the previous voltage
	x, err := sys.Solve()
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if math.Abs(x[0]-2) > 1e-9 {
		t.Errorf("expected 2 V held, got %v", x[0])
	}
}

func TestInductorCompanion(t *testing.T) {
	g := build([]circuit.Component{
		twoPort("L1", circuit.Inductor, 1e-3),
		{ID: "G", Type: circuit.Ground, Ports: []circuit.Port{{ID: "g"}}},
	}, []circuit.Wire{{FromComponentID: "L1", FromPortID: "p2", ToComponentID: "G", ToPortID: "g"}})

	sys := linalg.NewDenseSystem(g.Size())
	status := &CircuitStatus{
		Mode:     TransientAnalysis,
		TimeStep: 1e-4,
		Dynamic:  NewDynamicState().With("L1", circuit.Inductor, 0.5),
	}
	if err := StampAll(sys, g, status); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	// unknowns [v_a, i_L]; row 1 is the branch equation
	req := 1e-3 / 1e-4
	if got := sys.Matrix().At(1, 1); math.Abs(got+req) > 1e-12 {
		t.Errorf("branch diagonal: expected %v, got %v", -req, got)
	}
	if got := sys.RHS().AtVec(1); math.Abs(got+req*0.5) > 1e-12 {
		t.Errorf("branch rhs: expected %v, got %v", -req*0.5, got)
	}
}

func TestDynamicStateAdvance(t *testing.T) {
	g := capacitorGraph()
	d0 := NewDynamicState()
	d1 := d0.Advance(g, []float64{3.5})

	if d1.CapacitorVoltage("C1") != 3.5 {
		t.Errorf("expected 3.5, got %v", d1.CapacitorVoltage("C1"))
	}
	if d0.CapacitorVoltage("C1") != 0 {
		t.Errorf("advance must not mutate the previous state")
	}

	var nilState *DynamicState
	if nilState.InductorCurrent("L1") != 0 {
		t.Errorf("nil state should read zero")
	}
}

func TestUpdateJunctions(t *testing.T) {
	g := build([]circuit.Component{
		twoPort("D1", circuit.Diode, 0.7),
		{ID: "G", Type: circuit.Ground, Ports: []circuit.Port{{ID: "g"}}},
	}, []circuit.Wire{{FromComponentID: "D1", FromPortID: "p2", ToComponentID: "G", ToPortID: "g"}})

	// unknowns [v_anode, i_D]
	states := JunctionStates{}
	next, changed := UpdateJunctions(g, []float64{1.2, 0}, states)
	if next["D1"] != JunctionOn || len(changed) != 1 {
		t.Errorf("expected D1 to turn on, got %v %v", next["D1"], changed)
	}
	if states["D1"] != JunctionOff {
		t.Errorf("input states must not be mutated")
	}

	next, changed = UpdateJunctions(g, []float64{0.7, -1e-3}, next)
	if next["D1"] != JunctionOff || len(changed) != 1 {
		t.Errorf("expected D1 to turn off, got %v %v", next["D1"], changed)
	}
}

func TestGateOutputVoltage(t *testing.T) {
	s := circuit.Stamp{ComponentID: "U1", Type: circuit.NotGate, Value: 5}
	if got := GateOutputVoltage(&s, nil); got != 5 {
		t.Errorf("expected stored level 5, got %v", got)
	}
	status := &CircuitStatus{GateOutputs: map[string]float64{"U1": 0}}
	if got := GateOutputVoltage(&s, status); got != 0 {
		t.Errorf("expected override 0, got %v", got)
	}
}
