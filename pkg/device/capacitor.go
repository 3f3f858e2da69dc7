package device

import (
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// Operating point: open circuit. Transient: Backward-Euler companion
// G = C/dt in parallel with G*Vc(t-dt).
func stampCapacitor(m linalg.RealStamper, s *circuit.Stamp, status *CircuitStatus) {
	n1, n2 := s.Node1, s.Node2

	switch status.Mode {
	case TransientAnalysis:
		if status.TimeStep <= 0 {
			stampConductance(m, n1, n2, 1/openCircuitOhms)
			return
		}
		geq := s.Value / status.TimeStep
		ceq := geq * status.Dynamic.CapacitorVoltage(s.ComponentID)

		stampConductance(m, n1, n2, geq)
		m.AddRHS(n1, ceq)
		m.AddRHS(n2, -ceq)

	default:
		stampConductance(m, n1, n2, 1/openCircuitOhms)
	}
}

func capacitorCurrent(s *circuit.Stamp, vd float64, status *CircuitStatus) float64 {
	if status.Mode == TransientAnalysis && status.TimeStep > 0 {
		geq := s.Value / status.TimeStep
		return geq * (vd - status.Dynamic.CapacitorVoltage(s.ComponentID))
	}
	return vd / openCircuitOhms
}

// capacitorAdmittance is jωC, falling back to the open-circuit leak at DC.
func capacitorAdmittance(c, omega float64) complex128 {
	if c*omega == 0 {
		return complex(1/openCircuitOhms, 0)
	}
	return complex(0, omega*c)
}
