package device

import (
	"maps"
	"strings"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// JunctionState is the regime of a piecewise-linear junction. Diodes, LEDs
// and transistor base-emitter junctions all start OFF.
type JunctionState int

const (
	JunctionOff JunctionState = iota
	JunctionOn
)

func (s JunctionState) String() string {
	if s == JunctionOn {
		return "ON"
	}
	return "OFF"
}

// JunctionStates maps component id to junction regime. A missing entry is OFF.
type JunctionStates map[string]JunctionState

func (j JunctionStates) Clone() JunctionStates {
	if j == nil {
		return JunctionStates{}
	}
	return maps.Clone(j)
}

// Typical LED forward voltages by color.
var ledForwardVolts = map[string]float64{
	"red":    1.8,
	"orange": 2.0,
	"yellow": 2.1,
	"green":  2.2,
	"blue":   3.0,
	"white":  3.0,
}

const defaultLEDForwardVolt = 2.0

// ForwardVoltage is the junction threshold: the component value when set,
// else a per-type default (LED color aware).
func ForwardVoltage(s *circuit.Stamp) float64 {
	if s.Value > 0 {
		return s.Value
	}
	if s.Type == circuit.LED {
		if v, ok := ledForwardVolts[strings.ToLower(s.LEDColor)]; ok {
			return v
		}
		return defaultLEDForwardVolt
	}
	return consts.DefaultForwardVolt
}

// JunctionNodes returns the anode and cathode node indices of the junction.
// For a PNP transistor the base-emitter junction points emitter to base.
func JunctionNodes(s *circuit.Stamp) (anode, cathode int) {
	switch s.Type {
	case circuit.NPNTransistor:
		return s.Aux, s.Node2
	case circuit.PNPTransistor:
		return s.Node2, s.Aux
	}
	return s.Node1, s.Node2
}

// NextJunctionState applies the transition rule once: OFF turns ON when the
// drop exceeds vf, ON turns OFF when the current reverses past tolerance.
func NextJunctionState(state JunctionState, drop, current, vf float64) JunctionState {
	switch state {
	case JunctionOff:
		if drop > vf {
			return JunctionOn
		}
	case JunctionOn:
		if current < consts.ReverseCurrentTol {
			return JunctionOff
		}
	}
	return state
}

// UpdateJunctions evaluates every junction against solution x. It returns
// the next states and the ids whose state changed.
func UpdateJunctions(g *circuit.Graph, x []float64, states JunctionStates) (JunctionStates, []string) {
	next := states.Clone()
	var changed []string

	for i := range g.Stamps {
		s := &g.Stamps[i]
		if !s.Type.IsNonLinear() {
			continue
		}
		anode, cathode := JunctionNodes(s)
		drop := Voltage(x, anode) - Voltage(x, cathode)
		current := Voltage(x, g.BranchUnknown(s))

		cur := states[s.ComponentID]
		ns := NextJunctionState(cur, drop, current, ForwardVoltage(s))
		if ns != cur {
			next[s.ComponentID] = ns
			changed = append(changed, s.ComponentID)
		}
	}
	return next, changed
}

// ON: V(a) - V(k) - Rs*i = Vf through branch b. OFF: leakage resistance with
// the branch row pinned to i = 0.
func stampJunction(m linalg.RealStamper, anode, cathode, b int, vf float64, state JunctionState) {
	if state == JunctionOn {
		stampBranchIncidence(m, anode, cathode, b)
		m.AddElement(b, b, -consts.DiodeSeriesOhms)
		m.AddRHS(b, vf)
		return
	}

	stampConductance(m, anode, cathode, 1/diodeOffOhms)
	m.AddElement(b, b, 1)
}
