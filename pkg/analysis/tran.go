package analysis

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/device"
	"github.com/edp1096/toy-circuit/pkg/linalg"
	"github.com/edp1096/toy-circuit/pkg/logic"
)

type TransientOptions struct {
	StartTime     float64        `json:"startTime"`
	EndTime       float64        `json:"endTime"`
	TimeStep      float64        `json:"timeStep,omitempty"` // 0 selects automatically
	MaxIterations int            `json:"maxIterations,omitempty"`
	Solver        linalg.Backend `json:"solver,omitempty"`
	Logic         logic.Options  `json:"logic"`
}

func (o TransientOptions) withDefaults() TransientOptions {
	if o.EndTime <= 0 {
		o.EndTime = consts.DefaultEndTime
	}
	if o.StartTime < 0 {
		o.StartTime = 0
	}
	o.MaxIterations = maxIterations(o.MaxIterations)
	return o
}

type TransientResult struct {
	TimePoints           []float64                `json:"timePoints"`
	NodeVoltageHistory   map[string][]float64     `json:"nodeVoltageHistory"`
	BranchCurrentHistory map[string][]float64     `json:"branchCurrentHistory"`
	LogicLevelHistory    map[string][]logic.Level `json:"logicLevelHistory,omitempty"`
	NonConvergedSteps    int                      `json:"nonConvergedSteps,omitempty"`
	Success              bool                     `json:"success"`
	Error                string                   `json:"error,omitempty"`
	Err                  error                    `json:"-"`
	Options              TransientOptions         `json:"options"`
}

// TransientState is the only memory carried between steps.
type TransientState struct {
	Time        float64
	Dynamic     *device.DynamicState
	Junctions   device.JunctionStates
	GateOutputs map[string]float64 // nil until a step has evaluated the gates
}

// InitialState is every capacitor discharged, every inductor at rest and
// every junction OFF, at t = 0.
func InitialState() TransientState {
	return TransientState{Dynamic: device.NewDynamicState(), Junctions: device.JunctionStates{}}
}

// StreamingPoint is the accepted solution of one time step.
type StreamingPoint struct {
	Time           float64                `json:"time"`
	NodeVoltages   map[string]float64     `json:"nodeVoltages"`
	BranchCurrents map[string]float64     `json:"branchCurrents"`
	LogicLevels    map[string]logic.Level `json:"logicLevels,omitempty"`
	Converged      bool                   `json:"converged"`
}

type stepConfig struct {
	Solver        linalg.Backend
	MaxIterations int
	TimeStep      float64
	Gates         gateEvaluator
}

func newStepConfig(components []circuit.Component, wires []circuit.Wire, opts TransientOptions) stepConfig {
	return stepConfig{
		Solver:        opts.Solver,
		MaxIterations: opts.MaxIterations,
		TimeStep:      opts.TimeStep,
		Gates: gateEvaluator{
			sim:        logic.NewSimulator(opts.Logic),
			components: slices.Clone(components),
			wires:      slices.Clone(wires),
		},
	}
}

// Step advances state by one Backward-Euler step. It does not modify state;
// the returned state is the input to the next step.
func Step(g *circuit.Graph, state TransientState, cfg stepConfig) (TransientState, StreamingPoint, error) {
	t := state.Time + cfg.TimeStep
	status := device.CircuitStatus{
		Mode:        device.TransientAnalysis,
		Time:        t,
		TimeStep:    cfg.TimeStep,
		Junctions:   state.Junctions,
		Dynamic:     state.Dynamic,
		GateOutputs: state.GateOutputs,
	}

	sol, err := solveMixed(g, cfg.Solver, status, cfg.MaxIterations, cfg.Gates)
	if err != nil {
		return state, StreamingPoint{}, fmt.Errorf("t=%g: %w", t, err)
	}
	status.Junctions = sol.Junctions
	status.GateOutputs = sol.GateOutputs

	voltages, currents := extract(g, sol.X, &status)
	next := TransientState{
		Time:        t,
		Dynamic:     state.Dynamic.Advance(g, sol.X),
		Junctions:   sol.Junctions,
		GateOutputs: sol.GateOutputs,
	}
	pt := StreamingPoint{
		Time:           t,
		NodeVoltages:   voltages,
		BranchCurrents: currents,
		LogicLevels:    sol.levelMap(),
		Converged:      sol.Converged,
	}
	return next, pt, nil
}

// SelectTimeStep picks period/100 of the fastest AC source, or the display
// cadence when there is none. maxFrequency is 0 without AC sources.
func SelectTimeStep(components []circuit.Component) (dt, maxFrequency float64) {
	for _, c := range components {
		if c.Type == circuit.ACSource && c.Frequency > maxFrequency {
			maxFrequency = c.Frequency
		}
	}
	if maxFrequency > 0 {
		return 1 / (maxFrequency * consts.StepsPerACPeriod), maxFrequency
	}
	return consts.DefaultTimeStep, 0
}

// prepareTransient runs the DC checks plus the open-switch loop check and
// resolves the time step.
func prepareTransient(components []circuit.Component, wires []circuit.Wire, opts TransientOptions) (*circuit.Graph, TransientOptions, float64, error) {
	opts = opts.withDefaults()

	g, err := Validate(components, wires)
	if err != nil {
		return nil, opts, 0, err
	}
	if err := CheckClosedLoop(g, components); err != nil {
		return nil, opts, 0, err
	}

	dt, maxFreq := SelectTimeStep(components)
	if opts.TimeStep > 0 {
		dt = opts.TimeStep
	}
	opts.TimeStep = dt
	return g, opts, maxFreq, nil
}

// RunTransient steps from t = 0 to EndTime and records every point at or
// after StartTime. A singular step fails the run and keeps the history
// recorded so far.
func RunTransient(components []circuit.Component, wires []circuit.Wire, opts TransientOptions) *TransientResult {
	res := &TransientResult{
		NodeVoltageHistory:   make(map[string][]float64),
		BranchCurrentHistory: make(map[string][]float64),
		Options:              opts,
	}

	g, opts, _, err := prepareTransient(components, wires, opts)
	res.Options = opts
	if err != nil {
		res.Err, res.Error = err, errorString(err)
		return res
	}

	cfg := newStepConfig(components, wires, opts)
	steps := int(math.Floor(opts.EndTime/opts.TimeStep + 1e-9))
	slog.Debug("transient", "steps", steps, "dt", opts.TimeStep, "end", opts.EndTime)

	state := InitialState()
	for i := 0; i < steps; i++ {
		next, pt, err := Step(g, state, cfg)
		if err != nil {
			res.Err, res.Error = err, errorString(err)
			return res
		}
		state = next
		if !pt.Converged {
			res.NonConvergedSteps++
		}
		if pt.Time+1e-12 < opts.StartTime {
			continue
		}
		res.record(pt)
	}

	res.Success = true
	return res
}

func (r *TransientResult) record(pt StreamingPoint) {
	r.TimePoints = append(r.TimePoints, pt.Time)
	for id, v := range pt.NodeVoltages {
		r.NodeVoltageHistory[id] = append(r.NodeVoltageHistory[id], v)
	}
	for id, i := range pt.BranchCurrents {
		r.BranchCurrentHistory[id] = append(r.BranchCurrentHistory[id], i)
	}
	for id, l := range pt.LogicLevels {
		if r.LogicLevelHistory == nil {
			r.LogicLevelHistory = make(map[string][]logic.Level)
		}
		r.LogicLevelHistory[id] = append(r.LogicLevelHistory[id], l)
	}
}
