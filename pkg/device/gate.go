package device

import (
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// GateOutputVoltage is the synthetic level driving a gate output: the
// evaluated override when present, else the stored logic output.
func GateOutputVoltage(s *circuit.Stamp, status *CircuitStatus) float64 {
	if status != nil {
		if v, ok := status.GateOutputs[s.ComponentID]; ok {
			return v
		}
	}
	return s.Value
}

// A gate output is an ideal source to ground; each wired input is a high
// impedance load. Unwired inputs are left out so they cannot leave a
// floating node held only by the input resistance.
func stampGate(m linalg.RealStamper, s *circuit.Stamp, b int, status *CircuitStatus) {
	stampVoltageSource(m, s.Node1, -1, b, GateOutputVoltage(s, status))
	for i, in := range s.Inputs {
		if s.InputWired[i] {
			stampConductance(m, in, -1, 1/gateInputOhms)
		}
	}
}
