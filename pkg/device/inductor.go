package device

import (
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// Operating point: 0 V source. Transient: Backward-Euler companion
// V(n1) - V(n2) - (L/dt)*i = -(L/dt)*I(t-dt) on the branch row.
func stampInductor(m linalg.RealStamper, s *circuit.Stamp, b int, status *CircuitStatus) {
	stampBranchIncidence(m, s.Node1, s.Node2, b)

	if status.Mode != TransientAnalysis || status.TimeStep <= 0 {
		return
	}

	req := s.Value / status.TimeStep
	m.AddElement(b, b, -req)
	m.AddRHS(b, -req*status.Dynamic.InductorCurrent(s.ComponentID))
}
