package analysis

import (
	"log/slog"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/device"
	"github.com/edp1096/toy-circuit/pkg/linalg"
	"github.com/edp1096/toy-circuit/pkg/logic"
)

type DCOptions struct {
	Solver        linalg.Backend `json:"solver,omitempty"`
	MaxIterations int            `json:"maxIterations,omitempty"`
	Logic         logic.Options  `json:"logic"`
}

type DCResult struct {
	NodeVoltages   map[string]float64     `json:"nodeVoltages"`
	BranchCurrents map[string]float64     `json:"branchCurrents"`
	MeterReadings  map[string]float64     `json:"meterReadings,omitempty"`
	JunctionStates map[string]string      `json:"junctionStates,omitempty"`
	LogicLevels    map[string]logic.Level `json:"logicLevels,omitempty"`
	LogicSettled   bool                   `json:"logicSettled"`
	Iterations     int                    `json:"iterations"`
	Converged      bool                   `json:"converged"`
	Success        bool                   `json:"success"`
	Error          string                 `json:"error,omitempty"`
	Err            error                  `json:"-"`
}

func newDCResult() *DCResult {
	return &DCResult{
		NodeVoltages:   make(map[string]float64),
		BranchCurrents: make(map[string]float64),
	}
}

func (r *DCResult) fail(err error) *DCResult {
	r.Success = false
	r.Err = err
	r.Error = errorString(err)
	return r
}

// RunDC computes the operating point: junctions iterate to a fixed point,
// and when logic gates are present their outputs are re-evaluated against
// the solved voltages until they settle.
func RunDC(components []circuit.Component, wires []circuit.Wire, opts DCOptions) *DCResult {
	g, err := Validate(components, wires)
	if err != nil {
		return newDCResult().fail(err)
	}
	return solveDC(g, components, wires, opts)
}

func solveDC(g *circuit.Graph, components []circuit.Component, wires []circuit.Wire, opts DCOptions) *DCResult {
	res := newDCResult()

	status := device.CircuitStatus{
		Mode:        device.OperatingPointAnalysis,
		Junctions:   device.JunctionStates{},
		GateOutputs: make(map[string]float64),
	}
	gates := gateEvaluator{sim: logic.NewSimulator(opts.Logic), components: components, wires: wires}

	sol, err := solveMixed(g, opts.Solver, status, maxIterations(opts.MaxIterations), gates)
	if err != nil {
		return res.fail(err)
	}
	status.Junctions = sol.Junctions
	status.GateOutputs = sol.GateOutputs

	res.NodeVoltages, res.BranchCurrents = extract(g, sol.X, &status)
	res.MeterReadings = meterReadings(g, sol.X, res.BranchCurrents)
	res.JunctionStates = junctionStrings(g, sol.Junctions)
	res.LogicLevels = sol.levelMap()
	res.LogicSettled = sol.Settled
	res.Iterations = sol.TotalIterations
	res.Converged = sol.Converged
	res.Success = true
	return res
}

// gateEvaluator re-reads gate inputs from a solved operating point.
type gateEvaluator struct {
	sim        *logic.Simulator
	components []circuit.Component
	wires      []circuit.Wire
}

// mixedSolution is a junction fixed point together with the gate outputs
// it was stamped with.
type mixedSolution struct {
	nonlinearSolution
	GateOutputs     map[string]float64
	Levels          *logic.Result // levels matching GateOutputs, nil without gates
	Settled         bool
	TotalIterations int
}

func (m *mixedSolution) levelMap() map[string]logic.Level {
	if m.Levels == nil {
		return nil
	}
	out := make(map[string]logic.Level, len(m.Levels.Gates))
	for id, gr := range m.Levels.Gates {
		out[id] = gr.Output
	}
	return out
}

// solveMixed runs the junction loop and, when gates are present, feeds the
// evaluated gate outputs back as source voltages until they stop changing
// or MaxLogicPasses is spent. On exhaustion the returned levels are the
// ones the last solve was stamped with, not the newer evaluation.
func solveMixed(g *circuit.Graph, backend linalg.Backend, status device.CircuitStatus, maxIter int, gates gateEvaluator) (mixedSolution, error) {
	var out mixedSolution
	if !hasGates(g) {
		sol, err := solveNonlinear(g, backend, status, maxIter)
		out.nonlinearSolution, out.GateOutputs = sol, status.GateOutputs
		out.Settled, out.TotalIterations = true, sol.Iterations
		return out, err
	}

	var stamped *logic.Result
	for pass := 1; pass <= consts.MaxLogicPasses; pass++ {
		sol, err := solveNonlinear(g, backend, status, maxIter)
		if err != nil {
			return out, err
		}
		out.nonlinearSolution = sol
		out.GateOutputs = status.GateOutputs
		out.TotalIterations += sol.Iterations
		status.Junctions = sol.Junctions

		voltages, _ := extract(g, sol.X, &status)
		levels := gates.sim.SimulateWithVoltages(gates.components, gates.wires, voltages)
		next, changed := nextGateOutputs(g, &status, levels)
		if !changed {
			out.Levels, out.Settled = levels, true
			return out, nil
		}
		stamped = levels
		status.GateOutputs = next
	}

	slog.Warn("gate outputs did not settle", "passes", consts.MaxLogicPasses, "mode", status.Mode.String(), "time", status.Time)
	out.Levels = stamped
	return out, nil
}

func hasGates(g *circuit.Graph) bool {
	for i := range g.Stamps {
		if g.Stamps[i].Type.IsGate() {
			return true
		}
	}
	return false
}

// nextGateOutputs keeps the stamped voltage of any gate whose evaluated
// output is unknown.
func nextGateOutputs(g *circuit.Graph, status *device.CircuitStatus, levels *logic.Result) (map[string]float64, bool) {
	next := make(map[string]float64)
	changed := false
	for i := range g.Stamps {
		s := &g.Stamps[i]
		if !s.Type.IsGate() {
			continue
		}
		cur := device.GateOutputVoltage(s, status)
		v := cur
		if gr, ok := levels.Gates[s.ComponentID]; ok && gr.OutputVoltage != nil {
			v = *gr.OutputVoltage
		}
		next[s.ComponentID] = v
		if v != cur {
			changed = true
		}
	}
	return next, changed
}

// meterReadings: ammeters report their current, voltmeters the difference
// across their terminals.
func meterReadings(g *circuit.Graph, x []float64, currents map[string]float64) map[string]float64 {
	var out map[string]float64
	for i := range g.Stamps {
		s := &g.Stamps[i]
		var v float64
		switch s.Type {
		case circuit.Ammeter:
			v = currents[s.ComponentID]
		case circuit.Voltmeter:
			v = device.Voltage(x, s.Node1) - device.Voltage(x, s.Node2)
		default:
			continue
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[s.ComponentID] = v
	}
	return out
}

func junctionStrings(g *circuit.Graph, states device.JunctionStates) map[string]string {
	var out map[string]string
	for i := range g.Stamps {
		s := &g.Stamps[i]
		if !s.Type.IsNonLinear() {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[s.ComponentID] = states[s.ComponentID].String()
	}
	return out
}
