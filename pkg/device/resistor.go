package device

import (
	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

const (
	openCircuitOhms = consts.OpenCircuitOhms
	diodeOffOhms    = consts.DiodeOffOhms
	diodeACOhms     = consts.DiodeACOhms
	gateInputOhms   = consts.GateInputOhms
)

// EffectiveResistance returns the fixed resistance a purely resistive type
// is stamped with in every analysis. ok is false for types that are not
// modeled as a plain resistor.
func EffectiveResistance(t circuit.ComponentType, value float64, closed bool) (ohms float64, ok bool) {
	switch t {
	case circuit.Resistor:
		if value < consts.MinResistanceOhms {
			return consts.MinResistanceOhms, true
		}
		return value, true
	case circuit.Switch:
		if closed {
			return consts.ClosedSwitchOhms, true
		}
		return consts.OpenCircuitOhms, true
	case circuit.Ammeter:
		return consts.AmmeterOhms, true
	case circuit.Voltmeter:
		return consts.VoltmeterOhms, true
	}
	return 0, false
}

// ComponentResistance is EffectiveResistance for a schematic component.
func ComponentResistance(c *circuit.Component) (float64, bool) {
	return EffectiveResistance(c.Type, c.Value, c.IsClosed())
}
