package device

import (
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/complexnum"
)

// Impedance is the analytic small-signal impedance of a passive stamp at
// omega. ok is false for sources, gates and transistors.
func Impedance(s *circuit.Stamp, omega float64) (complex128, bool) {
	switch s.Type {
	case circuit.Resistor, circuit.Switch, circuit.Ammeter, circuit.Voltmeter:
		r, _ := EffectiveResistance(s.Type, s.Value, s.SwitchClosed)
		return complexnum.ResistorImpedance(r), true
	case circuit.Capacitor:
		return complexnum.CapacitorImpedance(s.Value, omega, openCircuitOhms), true
	case circuit.Inductor:
		return complexnum.InductorImpedance(s.Value, omega), true
	case circuit.Diode, circuit.LED:
		return complexnum.ResistorImpedance(diodeACOhms), true
	}
	return 0, false
}
