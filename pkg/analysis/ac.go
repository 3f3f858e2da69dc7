package analysis

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/complexnum"
	"github.com/edp1096/toy-circuit/pkg/device"
	"github.com/edp1096/toy-circuit/pkg/linalg"
)

type SweepType string

const (
	Logarithmic SweepType = "logarithmic"
	Linear      SweepType = "linear"
)

type ACSweepOptions struct {
	StartFrequency  float64        `json:"startFrequency"`
	EndFrequency    float64        `json:"endFrequency"`
	PointsPerDecade int            `json:"pointsPerDecade"` // point count for linear sweeps
	SweepType       SweepType      `json:"sweepType"`
	Solver          linalg.Backend `json:"solver,omitempty"`
}

func (o ACSweepOptions) withDefaults() ACSweepOptions {
	if o.StartFrequency <= 0 {
		o.StartFrequency = consts.DefaultStartFreq
	}
	if o.EndFrequency <= 0 {
		o.EndFrequency = consts.DefaultEndFreq
	}
	if o.PointsPerDecade <= 0 {
		o.PointsPerDecade = consts.DefaultPointsPerD
	}
	if o.SweepType == "" {
		o.SweepType = Logarithmic
	}
	return o
}

// Phasor is a complex quantity with its magnitude and phase in degrees.
type Phasor struct {
	Magnitude float64    `json:"magnitude"`
	Phase     float64    `json:"phase"`
	Value     complex128 `json:"-"`
}

func NewPhasor(z complex128) Phasor {
	return Phasor{Magnitude: complexnum.Magnitude(z), Phase: complexnum.PhaseDeg(z), Value: z}
}

type FrequencyPoint struct {
	Frequency      float64           `json:"frequency"`
	NodeVoltages   map[string]Phasor `json:"nodeVoltages"`
	BranchCurrents map[string]Phasor `json:"branchCurrents"`
	Impedances     map[string]Phasor `json:"impedances"`
}

// ImpedanceCurve is one component's impedance across the sweep, aligned
// with ACSweepResult.Frequencies. Points where the impedance is undefined
// hold NaN.
type ImpedanceCurve struct {
	ComponentID string    `json:"componentId"`
	Magnitude   []float64 `json:"magnitude"`
	Phase       []float64 `json:"phase"`
}

// MarshalJSON writes undefined points as null; encoding/json rejects NaN.
func (c ImpedanceCurve) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ComponentID string     `json:"componentId"`
		Magnitude   []*float64 `json:"magnitude"`
		Phase       []*float64 `json:"phase"`
	}{c.ComponentID, nullable(c.Magnitude), nullable(c.Phase)})
}

func nullable(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		if !math.IsNaN(vals[i]) && !math.IsInf(vals[i], 0) {
			out[i] = &vals[i]
		}
	}
	return out
}

type ACSweepResult struct {
	FrequencyPoints []FrequencyPoint           `json:"frequencyPoints"`
	Frequencies     []float64                  `json:"frequencies"`
	ImpedanceData   map[string]*ImpedanceCurve `json:"impedanceData"`
	Resonances      []Resonance                `json:"resonances"`
	Success         bool                       `json:"success"`
	Error           string                     `json:"error,omitempty"`
	Err             error                      `json:"-"`
	Options         ACSweepOptions             `json:"options"`
}

// GenerateFrequencyPoints returns the sweep grid. Logarithmic sweeps place
// PointsPerDecade points per decade from StartFrequency and stop at
// EndFrequency; linear sweeps split the range into PointsPerDecade steps.
func GenerateFrequencyPoints(opts ACSweepOptions) []float64 {
	start, end, ppd := opts.StartFrequency, opts.EndFrequency, opts.PointsPerDecade
	if ppd <= 0 || end < start {
		return nil
	}

	var freqs []float64
	switch opts.SweepType {
	case Linear:
		if start < 0 {
			return nil
		}
		step := (end - start) / float64(ppd)
		if step == 0 {
			return []float64{start}
		}
		for i := 0; i <= ppd; i++ {
			freqs = append(freqs, math.Min(start+float64(i)*step, end))
		}

	default:
		if start <= 0 {
			return nil
		}
		limit := end * (1 + 1e-12)
		for i := 0; ; i++ {
			f := start * math.Pow(10, float64(i)/float64(ppd))
			if f > limit {
				break
			}
			freqs = append(freqs, math.Min(f, end))
		}
	}
	return freqs
}

// RunACSweep solves the small-signal phasor system at every sweep point.
// A singular point fails the run and keeps the points solved before it.
func RunACSweep(components []circuit.Component, wires []circuit.Wire, opts ACSweepOptions) *ACSweepResult {
	opts = opts.withDefaults()
	res := &ACSweepResult{ImpedanceData: make(map[string]*ImpedanceCurve), Options: opts}

	g, err := Validate(components, wires)
	if err != nil {
		res.Err, res.Error = err, errorString(err)
		return res
	}

	freqs := GenerateFrequencyPoints(opts)
	if len(freqs) == 0 {
		err := fmt.Errorf("invalid sweep range %g..%g Hz", opts.StartFrequency, opts.EndFrequency)
		res.Err, res.Error = err, err.Error()
		return res
	}

	for i := range g.Stamps {
		if s := &g.Stamps[i]; hasImpedance(s) {
			res.ImpedanceData[s.ComponentID] = &ImpedanceCurve{ComponentID: s.ComponentID}
		}
	}

	for _, f := range freqs {
		pt, err := solveACPoint(g, opts.Solver, f)
		if err != nil {
			slog.Debug("ac point failed", "frequency", f, "err", err)
			err = fmt.Errorf("f=%g Hz: %w", f, err)
			res.Err, res.Error = err, err.Error()
			res.Resonances = DetectResonances(res.Frequencies, res.ImpedanceData)
			return res
		}

		res.Frequencies = append(res.Frequencies, f)
		res.FrequencyPoints = append(res.FrequencyPoints, pt)
		for id, curve := range res.ImpedanceData {
			z, ok := pt.Impedances[id]
			if !ok {
				curve.Magnitude = append(curve.Magnitude, math.NaN())
				curve.Phase = append(curve.Phase, math.NaN())
				continue
			}
			curve.Magnitude = append(curve.Magnitude, z.Magnitude)
			curve.Phase = append(curve.Phase, z.Phase)
		}
	}

	res.Resonances = DetectResonances(res.Frequencies, res.ImpedanceData)
	res.Success = true
	return res
}

func solveACPoint(g *circuit.Graph, backend linalg.Backend, f float64) (FrequencyPoint, error) {
	status := device.CircuitStatus{Mode: device.ACAnalysis, Frequency: f}

	sys := linalg.NewComplexSystem(backend, g.Size())
	if err := device.StampAllAC(sys, g, &status); err != nil {
		return FrequencyPoint{}, err
	}
	x, err := sys.Solve()
	if err != nil {
		return FrequencyPoint{}, fmt.Errorf("%w: %v", ErrUnsolvable, err)
	}

	pt := FrequencyPoint{
		Frequency:      f,
		NodeVoltages:   make(map[string]Phasor, len(g.Nodes)),
		BranchCurrents: make(map[string]Phasor, len(g.Stamps)),
		Impedances:     make(map[string]Phasor, len(g.Stamps)),
	}
	for _, n := range g.Nodes {
		var v complex128
		if n.Index >= 0 {
			v = x[n.Index]
		}
		pt.NodeVoltages[n.ID] = NewPhasor(v)
	}

	omega := status.Omega()
	for i := range g.Stamps {
		s := &g.Stamps[i]
		cur := device.BranchCurrentAC(g, s, x, &status)
		pt.BranchCurrents[s.ComponentID] = NewPhasor(cur)

		if z, ok := trackedImpedance(s, omega, x, cur); ok {
			pt.Impedances[s.ComponentID] = NewPhasor(z)
		}
	}
	return pt, nil
}

// hasImpedance reports whether trackedImpedance can serve s: passive
// elements always, AC sources while they deliver current.
func hasImpedance(s *circuit.Stamp) bool {
	if _, ok := device.Impedance(s, 0); ok {
		return true
	}
	return s.Type == circuit.ACSource
}

// trackedImpedance is analytic for passive elements, so their phase never
// crosses zero spuriously. A source reports the driving-point impedance of
// the network it feeds, V / -I.
func trackedImpedance(s *circuit.Stamp, omega float64, x []complex128, cur complex128) (complex128, bool) {
	if z, ok := device.Impedance(s, omega); ok {
		return z, true
	}
	if !s.Type.IsSource() || s.Type == circuit.DCSource {
		return 0, false
	}

	var v1, v2 complex128
	if s.Node1 >= 0 {
		v1 = x[s.Node1]
	}
	if s.Node2 >= 0 {
		v2 = x[s.Node2]
	}
	z, err := complexnum.Div(v1-v2, -cur)
	if err != nil {
		return 0, false
	}
	return z, true
}
