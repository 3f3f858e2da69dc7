package device

import (
	"maps"

	"github.com/edp1096/toy-circuit/pkg/circuit"
)

// DynamicState is the memory of energy-storage elements between transient
// steps: capacitor voltage and inductor current at t-dt. Values are never
// mutated in place; Advance returns a new state.
type DynamicState struct {
	capVoltage map[string]float64
	indCurrent map[string]float64
}

func NewDynamicState() *DynamicState {
	return &DynamicState{
		capVoltage: make(map[string]float64),
		indCurrent: make(map[string]float64),
	}
}

func (d *DynamicState) CapacitorVoltage(id string) float64 {
	if d == nil {
		return 0
	}
	return d.capVoltage[id]
}

func (d *DynamicState) InductorCurrent(id string) float64 {
	if d == nil {
		return 0
	}
	return d.indCurrent[id]
}

// With returns a copy with one capacitor voltage or inductor current set,
// used to seed initial conditions.
func (d *DynamicState) With(id string, t circuit.ComponentType, value float64) *DynamicState {
	next := d.clone()
	switch t {
	case circuit.Capacitor:
		next.capVoltage[id] = value
	case circuit.Inductor:
		next.indCurrent[id] = value
	}
	return next
}

// Advance reads the accepted solution of a step into a new state.
func (d *DynamicState) Advance(g *circuit.Graph, x []float64) *DynamicState {
	next := d.clone()
	for i := range g.Stamps {
		s := &g.Stamps[i]
		switch s.Type {
		case circuit.Capacitor:
			next.capVoltage[s.ComponentID] = Voltage(x, s.Node1) - Voltage(x, s.Node2)
		case circuit.Inductor:
			next.indCurrent[s.ComponentID] = Voltage(x, g.BranchUnknown(s))
		}
	}
	return next
}

func (d *DynamicState) clone() *DynamicState {
	if d == nil {
		return NewDynamicState()
	}
	return &DynamicState{
		capVoltage: maps.Clone(d.capVoltage),
		indCurrent: maps.Clone(d.indCurrent),
	}
}
