package analysis

import (
	"fmt"
	"slices"

	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

// SweepSource steps the value of one DC source from Start to Stop.
type SweepSource struct {
	SourceID string  `json:"sourceId"`
	Start    float64 `json:"start"`
	Stop     float64 `json:"stop"`
	Step     float64 `json:"step"`
}

func (s SweepSource) values() ([]float64, error) {
	if s.Step == 0 || (s.Stop-s.Start)/s.Step < 0 {
		return nil, fmt.Errorf("sweep %s: step %g does not reach %g from %g", s.SourceID, s.Step, s.Stop, s.Start)
	}
	n := int((s.Stop-s.Start)/s.Step + 1e-9)
	vals := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		vals = append(vals, s.Start+float64(i)*s.Step)
	}
	return vals, nil
}

type DCSweepOptions struct {
	Sources       []SweepSource  `json:"sources"` // one or two; the second is the inner loop
	Solver        linalg.Backend `json:"solver,omitempty"`
	MaxIterations int            `json:"maxIterations,omitempty"`
}

type DCSweepResult struct {
	Sweep          [][]float64          `json:"sweep"` // per sweep source, one value per point
	NodeVoltages   map[string][]float64 `json:"nodeVoltages"`
	BranchCurrents map[string][]float64 `json:"branchCurrents"`
	Success        bool                 `json:"success"`
	Error          string               `json:"error,omitempty"`
	Err            error                `json:"-"`
}

// RunDCSweep re-solves the operating point for every combination of sweep
// values. The schematic passed in is not modified.
func RunDCSweep(components []circuit.Component, wires []circuit.Wire, opts DCSweepOptions) *DCSweepResult {
	res := &DCSweepResult{
		NodeVoltages:   make(map[string][]float64),
		BranchCurrents: make(map[string][]float64),
	}
	fail := func(err error) *DCSweepResult {
		res.Err, res.Error = err, errorString(err)
		return res
	}

	if len(opts.Sources) == 0 || len(opts.Sources) > 2 {
		return fail(fmt.Errorf("unsupported number of sweep sources: %d", len(opts.Sources)))
	}

	if _, err := Validate(components, wires); err != nil {
		return fail(err)
	}

	comps := slices.Clone(components)
	index := make([]int, len(opts.Sources))
	grid := make([][]float64, len(opts.Sources))
	for k, src := range opts.Sources {
		index[k] = slices.IndexFunc(comps, func(c circuit.Component) bool {
			return c.ID == src.SourceID && c.Type == circuit.DCSource
		})
		if index[k] < 0 {
			return fail(fmt.Errorf("source %s not found", src.SourceID))
		}
		vals, err := src.values()
		if err != nil {
			return fail(err)
		}
		grid[k] = vals
	}
	res.Sweep = make([][]float64, len(opts.Sources))

	dcOpts := DCOptions{Solver: opts.Solver, MaxIterations: opts.MaxIterations}
	solve := func(vals ...float64) error {
		for k, v := range vals {
			comps[index[k]].Value = v
		}
		// Values live on the stamps, so the graph is rebuilt per point.
		dc := solveDC(circuit.Build(comps, wires), comps, wires, dcOpts)
		if !dc.Success {
			return fmt.Errorf("at %v: %w", vals, dc.Err)
		}
		for k, v := range vals {
			res.Sweep[k] = append(res.Sweep[k], v)
		}
		for id, v := range dc.NodeVoltages {
			res.NodeVoltages[id] = append(res.NodeVoltages[id], v)
		}
		for id, i := range dc.BranchCurrents {
			res.BranchCurrents[id] = append(res.BranchCurrents[id], i)
		}
		return nil
	}

	for _, v1 := range grid[0] {
		if len(grid) == 1 {
			if err := solve(v1); err != nil {
				return fail(err)
			}
			continue
		}
		for _, v2 := range grid[1] {
			if err := solve(v1, v2); err != nil {
				return fail(err)
			}
		}
	}

	res.Success = true
	return res
}
