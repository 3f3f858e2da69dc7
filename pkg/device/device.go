package device

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

type AnalysisMode int

const (
	OperatingPointAnalysis AnalysisMode = iota
	TransientAnalysis
	ACAnalysis
)

func (m AnalysisMode) String() string {
	switch m {
	case OperatingPointAnalysis:
		return "op"
	case TransientAnalysis:
		return "tran"
	case ACAnalysis:
		return "ac"
	}
	return fmt.Sprintf("AnalysisMode(%d)", int(m))
}

// CircuitStatus is everything a stamp may depend on besides the graph.
// Junctions, Dynamic and GateOutputs are read only.
type CircuitStatus struct {
	Mode      AnalysisMode
	Time      float64
	TimeStep  float64
	Frequency float64

	Junctions   JunctionStates
	Dynamic     *DynamicState
	GateOutputs map[string]float64 // component id -> synthetic output voltage
}

func (st *CircuitStatus) Omega() float64 { return 2 * math.Pi * st.Frequency }

func (st *CircuitStatus) junction(id string) JunctionState {
	if st == nil || st.Junctions == nil {
		return JunctionOff
	}
	return st.Junctions[id]
}

// Voltage reads an unknown from a solution vector; ground and out-of-range
// indices read as 0.
func Voltage(x []float64, idx int) float64 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}

func complexVoltage(x []complex128, idx int) complex128 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	return x[idx]
}

// Stamp adds one component's contribution for an operating point or a
// transient step.
func Stamp(m linalg.RealStamper, g *circuit.Graph, s *circuit.Stamp, status *CircuitStatus) error {
	b := g.BranchUnknown(s)

	switch s.Type {
	case circuit.Resistor, circuit.Switch, circuit.Ammeter, circuit.Voltmeter:
		r, _ := EffectiveResistance(s.Type, s.Value, s.SwitchClosed)
		stampConductance(m, s.Node1, s.Node2, 1/r)
	case circuit.Capacitor:
		stampCapacitor(m, s, status)
	case circuit.Inductor:
		stampInductor(m, s, b, status)
	case circuit.DCSource, circuit.ACSource:
		stampVoltageSource(m, s.Node1, s.Node2, b, SourceVoltage(s, status))
	case circuit.Diode, circuit.LED:
		anode, cathode := JunctionNodes(s)
		stampJunction(m, anode, cathode, b, ForwardVoltage(s), status.junction(s.ComponentID))
	case circuit.NPNTransistor, circuit.PNPTransistor:
		stampTransistor(m, s, b, status)
	case circuit.AndGate, circuit.OrGate, circuit.NotGate, circuit.NandGate,
		circuit.NorGate, circuit.XorGate, circuit.XnorGate:
		stampGate(m, s, b, status)
	case circuit.Ground:
	default:
		return fmt.Errorf("stamping %s: unknown component type %q", s.ComponentID, s.Type)
	}
	return nil
}

// StampAll stamps every component of g.
func StampAll(m linalg.RealStamper, g *circuit.Graph, status *CircuitStatus) error {
	for i := range g.Stamps {
		if err := Stamp(m, g, &g.Stamps[i], status); err != nil {
			return err
		}
	}
	return nil
}

// StampAC adds one component's phasor contribution at status.Frequency.
func StampAC(m linalg.ComplexStamper, g *circuit.Graph, s *circuit.Stamp, status *CircuitStatus) error {
	b := g.BranchUnknown(s)
	omega := status.Omega()

	switch s.Type {
	case circuit.Resistor, circuit.Switch, circuit.Ammeter, circuit.Voltmeter:
		r, _ := EffectiveResistance(s.Type, s.Value, s.SwitchClosed)
		stampComplexAdmittance(m, s.Node1, s.Node2, complex(1/r, 0))
	case circuit.Capacitor:
		stampComplexAdmittance(m, s.Node1, s.Node2, capacitorAdmittance(s.Value, omega))
	case circuit.Inductor:
		stampComplexBranch(m, s.Node1, s.Node2, b, complex(0, -omega*s.Value), 0)
	case circuit.DCSource, circuit.ACSource:
		stampComplexBranch(m, s.Node1, s.Node2, b, 0, SourcePhasor(s))
	case circuit.Diode, circuit.LED:
		anode, cathode := JunctionNodes(s)
		stampComplexAdmittance(m, anode, cathode, complex(1/diodeACOhms, 0))
		m.AddComplexElement(b, b, 1)
	case circuit.NPNTransistor, circuit.PNPTransistor:
		anode, cathode := JunctionNodes(s)
		stampComplexAdmittance(m, anode, cathode, complex(1/diodeACOhms, 0))
		m.AddComplexElement(b, b, 1)
		stampComplexAdmittance(m, s.Node1, s.Node2, complex(1/openCircuitOhms, 0))
	case circuit.AndGate, circuit.OrGate, circuit.NotGate, circuit.NandGate,
		circuit.NorGate, circuit.XorGate, circuit.XnorGate:
		// A static logic level is an AC ground at the output.
		stampComplexBranch(m, s.Node1, -1, b, 0, 0)
		for i, in := range s.Inputs {
			if s.InputWired[i] {
				stampComplexAdmittance(m, in, -1, complex(1/gateInputOhms, 0))
			}
		}
	case circuit.Ground:
	default:
		return fmt.Errorf("stamping %s: unknown component type %q", s.ComponentID, s.Type)
	}
	return nil
}

func StampAllAC(m linalg.ComplexStamper, g *circuit.Graph, status *CircuitStatus) error {
	for i := range g.Stamps {
		if err := StampAC(m, g, &g.Stamps[i], status); err != nil {
			return err
		}
	}
	return nil
}

// BranchCurrent is the current through a component from port 0 to port 1.
// Sources, inductors, gate outputs and conducting junctions read their
// branch unknown; everything else uses Ohm's law on the stamped model.
func BranchCurrent(g *circuit.Graph, s *circuit.Stamp, x []float64, status *CircuitStatus) float64 {
	vd := Voltage(x, s.Node1) - Voltage(x, s.Node2)
	b := g.BranchUnknown(s)

	switch s.Type {
	case circuit.Resistor, circuit.Switch, circuit.Ammeter, circuit.Voltmeter:
		r, _ := EffectiveResistance(s.Type, s.Value, s.SwitchClosed)
		return vd / r
	case circuit.Capacitor:
		return capacitorCurrent(s, vd, status)
	case circuit.Inductor, circuit.DCSource, circuit.ACSource,
		circuit.AndGate, circuit.OrGate, circuit.NotGate, circuit.NandGate,
		circuit.NorGate, circuit.XorGate, circuit.XnorGate:
		return Voltage(x, b)
	case circuit.Diode, circuit.LED:
		if status.junction(s.ComponentID) == JunctionOn {
			return Voltage(x, b)
		}
		return vd / diodeOffOhms
	case circuit.NPNTransistor, circuit.PNPTransistor:
		return vd / collectorEmitterOhms(status.junction(s.ComponentID))
	}
	return 0
}

// BranchCurrentAC is the phasor counterpart of BranchCurrent.
func BranchCurrentAC(g *circuit.Graph, s *circuit.Stamp, x []complex128, status *CircuitStatus) complex128 {
	vd := complexVoltage(x, s.Node1) - complexVoltage(x, s.Node2)
	b := g.BranchUnknown(s)

	switch s.Type {
	case circuit.Resistor, circuit.Switch, circuit.Ammeter, circuit.Voltmeter:
		r, _ := EffectiveResistance(s.Type, s.Value, s.SwitchClosed)
		return vd / complex(r, 0)
	case circuit.Capacitor:
		return vd * capacitorAdmittance(s.Value, status.Omega())
	case circuit.Inductor, circuit.DCSource, circuit.ACSource,
		circuit.AndGate, circuit.OrGate, circuit.NotGate, circuit.NandGate,
		circuit.NorGate, circuit.XorGate, circuit.XnorGate:
		return complexVoltage(x, b)
	case circuit.Diode, circuit.LED:
		return vd / complex(diodeACOhms, 0)
	case circuit.NPNTransistor, circuit.PNPTransistor:
		return vd / complex(openCircuitOhms, 0)
	}
	return 0
}

func stampConductance(m linalg.RealStamper, n1, n2 int, g float64) {
	m.AddElement(n1, n1, g)
	m.AddElement(n2, n2, g)
	m.AddElement(n1, n2, -g)
	m.AddElement(n2, n1, -g)
}

func stampComplexAdmittance(m linalg.ComplexStamper, n1, n2 int, y complex128) {
	m.AddComplexElement(n1, n1, y)
	m.AddComplexElement(n2, n2, y)
	m.AddComplexElement(n1, n2, -y)
	m.AddComplexElement(n2, n1, -y)
}

// stampBranchIncidence couples a branch unknown b into KCL at n1/n2 and
// writes V(n1) - V(n2) into row b.
func stampBranchIncidence(m linalg.RealStamper, n1, n2, b int) {
	m.AddElement(n1, b, 1)
	m.AddElement(n2, b, -1)
	m.AddElement(b, n1, 1)
	m.AddElement(b, n2, -1)
}

// stampVoltageSource enforces V(n1) - V(n2) = v.
func stampVoltageSource(m linalg.RealStamper, n1, n2, b int, v float64) {
	stampBranchIncidence(m, n1, n2, b)
	m.AddRHS(b, v)
}

// stampComplexBranch enforces V(n1) - V(n2) + z*i = v.
func stampComplexBranch(m linalg.ComplexStamper, n1, n2, b int, z, v complex128) {
	m.AddComplexElement(n1, b, 1)
	m.AddComplexElement(n2, b, -1)
	m.AddComplexElement(b, n1, 1)
	m.AddComplexElement(b, n2, -1)
	if z != 0 {
		m.AddComplexElement(b, b, z)
	}
	m.AddComplexRHS(b, v)
}
