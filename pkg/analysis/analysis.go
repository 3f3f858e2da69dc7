// Package analysis runs the MNA solvers: operating point, DC sweep,
// transient (batch and streaming) and AC sweep. Every entry point takes the
// schematic as components and wires and returns a result value; structural
// and numerical failures are reported on the result, never panicked.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/device"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

var (
	ErrEmptyCircuit       = errors.New("circuit is empty")
	ErrNoGround           = errors.New("circuit has no ground")
	ErrGroundNotConnected = errors.New("ground is not connected to the circuit")
	ErrNoSource           = errors.New("circuit has no voltage source")
	ErrNoWires            = errors.New("circuit has no wires")
	ErrOpenSwitch         = errors.New("circuit broken by open switch")
	ErrUnsolvable         = errors.New("circuit unsolvable: check for open or shorted paths")
)

// Validate runs the structural pre-checks shared by every solver and
// returns the built graph. Checks run in order: non-empty, ground present,
// ground connected, source present, wires present.
func Validate(components []circuit.Component, wires []circuit.Wire) (*circuit.Graph, error) {
	if len(components) == 0 {
		return nil, ErrEmptyCircuit
	}

	hasGround, hasSource := false, false
	for _, c := range components {
		switch {
		case c.Type == circuit.Ground:
			hasGround = true
		case c.Type.IsSource():
			hasSource = true
		}
	}
	if !hasGround {
		return nil, ErrNoGround
	}
	g := circuit.Build(components, wires)
	if !g.GroundConnected(components) {
		return nil, ErrGroundNotConnected
	}
	if !hasSource {
		return nil, ErrNoSource
	}
	// Implied by a connected ground.
	if len(wires) == 0 {
		return nil, ErrNoWires
	}
	return g, nil
}

// errorString renders err for the Error field of a result.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func maxIterations(n int) int {
	if n <= 0 {
		return consts.MaxIterations
	}
	return n
}

// nonlinearSolution is one fixed point of the junction state machine.
type nonlinearSolution struct {
	X          []float64
	Junctions  device.JunctionStates // states the solution was stamped with
	Iterations int
	Converged  bool
	Pending    []string // junctions that still wanted to switch
}

// solveNonlinear re-stamps and re-solves until no junction changes state or
// maxIter passes are spent. On exhaustion the last iterate is returned with
// Converged false.
func solveNonlinear(g *circuit.Graph, backend linalg.Backend, status device.CircuitStatus, maxIter int) (nonlinearSolution, error) {
	states := status.Junctions.Clone()
	var sol nonlinearSolution

	for iter := 1; iter <= maxIter; iter++ {
		status.Junctions = states

		sys := linalg.NewRealSystem(backend, g.Size())
		if err := device.StampAll(sys, g, &status); err != nil {
			return sol, err
		}
		x, err := sys.Solve()
		if err != nil {
			if errors.Is(err, linalg.ErrSingular) {
				return sol, fmt.Errorf("%w: %v", ErrUnsolvable, err)
			}
			return sol, err
		}

		next, changed := device.UpdateJunctions(g, x, states)
		sol = nonlinearSolution{X: x, Junctions: states, Iterations: iter, Converged: len(changed) == 0, Pending: changed}
		if sol.Converged {
			return sol, nil
		}
		states = next
	}

	slog.Warn("junction iteration did not converge",
		"iterations", maxIter,
		"mode", status.Mode.String(),
		"time", status.Time,
		"components", sol.Pending)
	return sol, nil
}

// extract reads node voltages and branch currents out of a solution.
func extract(g *circuit.Graph, x []float64, status *device.CircuitStatus) (map[string]float64, map[string]float64) {
	voltages := make(map[string]float64, len(g.Nodes))
	for _, n := range g.Nodes {
		voltages[n.ID] = device.Voltage(x, n.Index)
	}
	currents := make(map[string]float64, len(g.Stamps))
	for i := range g.Stamps {
		s := &g.Stamps[i]
		currents[s.ComponentID] = device.BranchCurrent(g, s, x, status)
	}
	return voltages, currents
}
