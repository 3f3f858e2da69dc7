// Package logic evaluates combinational logic gates over a schematic.
// Inputs are read from node voltages when wired, otherwise from the gate's
// manual input properties.
package logic

import (
	"maps"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

type Options struct {
	Threshold   float64 `toml:"threshold" json:"threshold"`
	HighVoltage float64 `toml:"high_voltage" json:"highVoltage"`
	LowVoltage  float64 `toml:"low_voltage" json:"lowVoltage"`
}

func DefaultOptions() Options {
	return Options{
		Threshold:   consts.LogicThreshold,
		HighVoltage: consts.LogicHigh,
		LowVoltage:  consts.LogicLow,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Threshold == 0 {
		o.Threshold = d.Threshold
	}
	if o.HighVoltage == 0 {
		o.HighVoltage = d.HighVoltage
	}
	return o
}

// Voltage maps a level onto its synthetic output voltage. ok is false for
// Unknown.
func (o Options) Voltage(l Level) (v float64, ok bool) {
	switch l {
	case High:
		return o.HighVoltage, true
	case Low:
		return o.LowVoltage, true
	}
	return 0, false
}

type GateResult struct {
	ComponentID   string                `json:"componentId"`
	Type          circuit.ComponentType `json:"type"`
	Inputs        map[string]Level      `json:"inputs"`
	Output        Level                 `json:"output"`
	OutputVoltage *float64              `json:"outputVoltage,omitempty"`
}

type Result struct {
	Gates   map[string]*GateResult `json:"gates"`
	Order   []string               `json:"order"` // gate ids in schematic order
	Passes  int                    `json:"passes"`
	Settled bool                   `json:"settled"`
}

// OutputVoltages returns the synthetic voltage of every gate whose output
// is known.
func (r *Result) OutputVoltages() map[string]float64 {
	out := make(map[string]float64, len(r.Gates))
	for id, gr := range r.Gates {
		if gr.OutputVoltage != nil {
			out[id] = *gr.OutputVoltage
		}
	}
	return out
}

// Simulator is stateless between calls.
type Simulator struct {
	opts Options
}

func NewSimulator(opts Options) *Simulator {
	return &Simulator{opts: opts.withDefaults()}
}

func (s *Simulator) Options() Options { return s.opts }

// Simulate evaluates the gates on their own. Wired inputs read the node
// they share with a gate output, a grounded DC source or ground itself;
// gate chains are propagated until no output changes.
func (s *Simulator) Simulate(components []circuit.Component, wires []circuit.Wire) *Result {
	g := circuit.Build(components, wires)
	fixed := drivenNodes(g, components)

	gates := gateStamps(g)
	outputs := make(map[string]Level, len(gates))
	for _, gs := range gates {
		outputs[gs.ComponentID] = Unknown
	}

	var res *Result
	limit := len(gates) + 1
	for pass := 1; pass <= limit; pass++ {
		voltages := maps.Clone(fixed)
		for _, gs := range gates {
			if v, ok := s.opts.Voltage(outputs[gs.ComponentID]); ok {
				voltages[g.ComponentNodes(gs.ComponentID)[outputPort(components, gs.ComponentID)]] = v
			}
		}

		res = s.evaluate(g, components, gates, voltages)
		res.Passes = pass

		changed := false
		for id, gr := range res.Gates {
			if outputs[id] != gr.Output {
				outputs[id] = gr.Output
				changed = true
			}
		}
		if !changed {
			res.Settled = true
			break
		}
	}
	return res
}

// SimulateWithVoltages evaluates every gate once against solved node
// voltages, keyed by node id.
func (s *Simulator) SimulateWithVoltages(components []circuit.Component, wires []circuit.Wire, nodeVoltages map[string]float64) *Result {
	g := circuit.Build(components, wires)
	res := s.evaluate(g, components, gateStamps(g), nodeVoltages)
	res.Passes = 1
	res.Settled = true
	return res
}

func (s *Simulator) evaluate(g *circuit.Graph, components []circuit.Component, gates []*circuit.Stamp, voltages map[string]float64) *Result {
	byID := make(map[string]*circuit.Component, len(components))
	for i := range components {
		byID[components[i].ID] = &components[i]
	}

	res := &Result{Gates: make(map[string]*GateResult, len(gates))}
	for _, gs := range gates {
		c := byID[gs.ComponentID]
		nodes := g.ComponentNodes(gs.ComponentID)

		gr := &GateResult{
			ComponentID: gs.ComponentID,
			Type:        gs.Type,
			Inputs:      make(map[string]Level, len(gs.InputPorts)),
		}
		levels := make([]Level, len(gs.InputPorts))
		inputIdx := 0
		out := circuit.GateOutputPort(c)
		for i, p := range c.Ports {
			if i == out {
				continue
			}
			l := s.resolveInput(c, p.ID, nodes[i], gs.InputWired[inputIdx], voltages)
			levels[inputIdx] = l
			gr.Inputs[p.ID] = l
			inputIdx++
		}

		gr.Output = Evaluate(gs.Type, levels)
		if v, ok := s.opts.Voltage(gr.Output); ok {
			gr.OutputVoltage = &v
		}
		res.Gates[gs.ComponentID] = gr
		res.Order = append(res.Order, gs.ComponentID)
	}
	return res
}

// resolveInput reads a wired port from its node voltage (UNKNOWN when the
// node has none) and an unwired port from the manual input, default LOW.
func (s *Simulator) resolveInput(c *circuit.Component, portID, nodeID string, wired bool, voltages map[string]float64) Level {
	if wired {
		v, ok := voltages[nodeID]
		if !ok {
			return Unknown
		}
		return FromVoltage(v, s.opts.Threshold)
	}
	if b, ok := c.LogicInputs[portID]; ok {
		return FromBool(b)
	}
	return Low
}

func gateStamps(g *circuit.Graph) []*circuit.Stamp {
	var out []*circuit.Stamp
	for i := range g.Stamps {
		if g.Stamps[i].Type.IsGate() {
			out = append(out, &g.Stamps[i])
		}
	}
	return out
}

func outputPort(components []circuit.Component, id string) int {
	for i := range components {
		if components[i].ID == id {
			return circuit.GateOutputPort(&components[i])
		}
	}
	return 0
}

// drivenNodes are the node voltages known without solving: ground, and the
// positive terminal of a DC source whose negative terminal is grounded.
func drivenNodes(g *circuit.Graph, components []circuit.Component) map[string]float64 {
	out := make(map[string]float64)
	if g.HasGround {
		out[consts.GroundNodeID] = 0
	}
	for _, c := range components {
		if c.Type != circuit.DCSource {
			continue
		}
		nodes := g.ComponentNodes(c.ID)
		if len(nodes) == 2 && nodes[1] == consts.GroundNodeID && nodes[0] != consts.GroundNodeID {
			out[nodes[0]] = c.Value
		}
	}
	return out
}
