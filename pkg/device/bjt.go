package device

import (
	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// The transistor is a switch driven by its base-emitter junction: the
// junction follows the diode state machine and the collector-emitter path
// is a low resistance when it conducts.
func stampTransistor(m linalg.RealStamper, s *circuit.Stamp, b int, status *CircuitStatus) {
	state := status.junction(s.ComponentID)
	anode, cathode := JunctionNodes(s)

	stampJunction(m, anode, cathode, b, ForwardVoltage(s), state)
	stampConductance(m, s.Node1, s.Node2, 1/collectorEmitterOhms(state))
}

func collectorEmitterOhms(state JunctionState) float64 {
	if state == JunctionOn {
		return consts.TransistorOnOhms
	}
	return consts.TransistorOffOhms
}

// BaseCurrent is the base-emitter junction current of a transistor stamp,
// positive in the junction's forward direction.
func BaseCurrent(g *circuit.Graph, s *circuit.Stamp, x []float64, status *CircuitStatus) float64 {
	if status.junction(s.ComponentID) == JunctionOn {
		return Voltage(x, g.BranchUnknown(s))
	}
	anode, cathode := JunctionNodes(s)
	return (Voltage(x, anode) - Voltage(x, cathode)) / diodeOffOhms
}
