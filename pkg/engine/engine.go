// Package engine sequences a simulation the way an application should:
// design rules first, the solver only when no rule ERROR fires, and the
// post-solve LED check after a successful operating point.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
	"github.com/edp1096/toy-circuit/pkg/logic"
	"github.com/edp1096/toy-circuit/pkg/rules"
)

// ErrRuleViolation wraps the blocking rule errors of a schematic.
var ErrRuleViolation = errors.New("design rule violation")

type Options struct {
	Solver        linalg.Backend
	MaxIterations int
	Rules         rules.Options
	Logic         logic.Options
}

type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

type DCReport struct {
	*analysis.DCResult
	RuleViolations []rules.Violation `json:"ruleViolations,omitempty"`
}

type TransientReport struct {
	*analysis.TransientResult
	RuleViolations []rules.Violation `json:"ruleViolations,omitempty"`
}

type ACReport struct {
	*analysis.ACSweepResult
	RuleViolations []rules.Violation `json:"ruleViolations,omitempty"`
}

// Check runs the pre-simulation rules and returns the violations together
// with an error when any of them blocks simulation.
func (e *Engine) Check(components []circuit.Component, wires []circuit.Wire) ([]rules.Violation, error) {
	vs := rules.Evaluate(components, wires, e.opts.Rules)

	var blocking []string
	for _, v := range vs {
		switch v.Severity {
		case rules.SeverityError:
			blocking = append(blocking, v.RuleID+": "+v.Message)
		case rules.SeverityWarning:
			slog.Debug("design rule warning", "rule", v.RuleID, "components", v.ComponentIDs)
		}
	}
	if len(blocking) > 0 {
		return vs, fmt.Errorf("%w: %s", ErrRuleViolation, strings.Join(blocking, "; "))
	}
	return vs, nil
}

func (e *Engine) SimulateDC(components []circuit.Component, wires []circuit.Wire) *DCReport {
	vs, err := e.Check(components, wires)
	if err != nil {
		res := &analysis.DCResult{
			NodeVoltages:   map[string]float64{},
			BranchCurrents: map[string]float64{},
			Err:            err,
			Error:          err.Error(),
		}
		return &DCReport{DCResult: res, RuleViolations: vs}
	}

	res := analysis.RunDC(components, wires, analysis.DCOptions{
		Solver:        e.opts.Solver,
		MaxIterations: e.opts.MaxIterations,
		Logic:         e.opts.Logic,
	})
	if res.Success {
		vs = append(vs, rules.CheckLEDEmission(components, res.BranchCurrents, e.opts.Rules)...)
	}
	return &DCReport{DCResult: res, RuleViolations: vs}
}

func (e *Engine) SimulateTransient(components []circuit.Component, wires []circuit.Wire, opts analysis.TransientOptions) *TransientReport {
	opts = e.transientOptions(opts)

	vs, err := e.Check(components, wires)
	if err != nil {
		res := &analysis.TransientResult{
			NodeVoltageHistory:   map[string][]float64{},
			BranchCurrentHistory: map[string][]float64{},
			Err:                  err,
			Error:                err.Error(),
			Options:              opts,
		}
		return &TransientReport{TransientResult: res, RuleViolations: vs}
	}
	return &TransientReport{TransientResult: analysis.RunTransient(components, wires, opts), RuleViolations: vs}
}

func (e *Engine) SimulateAC(components []circuit.Component, wires []circuit.Wire, opts analysis.ACSweepOptions) *ACReport {
	if opts.Solver == "" {
		opts.Solver = e.opts.Solver
	}

	vs, err := e.Check(components, wires)
	if err != nil {
		res := &analysis.ACSweepResult{
			ImpedanceData: map[string]*analysis.ImpedanceCurve{},
			Err:           err,
			Error:         err.Error(),
			Options:       opts,
		}
		return &ACReport{ACSweepResult: res, RuleViolations: vs}
	}
	return &ACReport{ACSweepResult: analysis.RunACSweep(components, wires, opts), RuleViolations: vs}
}

// NewStreamer initializes a streaming transient run once the rules pass.
func (e *Engine) NewStreamer(components []circuit.Component, wires []circuit.Wire, opts analysis.TransientOptions) (*analysis.Streamer, []rules.Violation, error) {
	vs, err := e.Check(components, wires)
	if err != nil {
		return nil, vs, err
	}
	st := analysis.NewStreamer()
	if init := st.Initialize(components, wires, e.transientOptions(opts)); !init.Success {
		st.Dispose()
		return nil, vs, init.Err
	}
	return st, vs, nil
}

func (e *Engine) transientOptions(opts analysis.TransientOptions) analysis.TransientOptions {
	if opts.Solver == "" {
		opts.Solver = e.opts.Solver
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = e.opts.MaxIterations
	}
	if opts.Logic == (logic.Options{}) {
		opts.Logic = e.opts.Logic
	}
	return opts
}

// Logic evaluates the gates of a schematic without an analog solve.
func (e *Engine) Logic(components []circuit.Component, wires []circuit.Wire) *logic.Result {
	return logic.NewSimulator(e.opts.Logic).Simulate(components, wires)
}
