package analysis

import (
	"math"
	"slices"
)

type ResonanceType string

const (
	SeriesResonance   ResonanceType = "series"
	ParallelResonance ResonanceType = "parallel"
)

type Resonance struct {
	ComponentID string        `json:"componentId"`
	Frequency   float64       `json:"frequency"`
	Type        ResonanceType `json:"type"`
	QFactor     float64       `json:"qFactor"`
	Bandwidth   float64       `json:"bandwidth"`
}

// DetectResonances scans each impedance phase curve for sign changes and
// interpolates the zero crossing linearly. Negative to non-negative is a
// series resonance, positive to non-positive a parallel one. Q is the
// coarse f / (sweep max - sweep min) estimate and bandwidth is f / Q.
// Jumps wider than 180 degrees are phase wraps, not crossings.
func DetectResonances(freqs []float64, curves map[string]*ImpedanceCurve) []Resonance {
	if len(freqs) < 2 {
		return nil
	}
	span := freqs[len(freqs)-1] - freqs[0]

	ids := make([]string, 0, len(curves))
	for id := range curves {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var out []Resonance
	for _, id := range ids {
		phase := curves[id].Phase
		n := min(len(phase), len(freqs))
		for i := 0; i+1 < n; i++ {
			p0, p1 := phase[i], phase[i+1]
			if math.IsNaN(p0) || math.IsNaN(p1) || math.Abs(p1-p0) > 180 {
				continue
			}

			var typ ResonanceType
			switch {
			case p0 < 0 && p1 >= 0:
				typ = SeriesResonance
			case p0 > 0 && p1 <= 0:
				typ = ParallelResonance
			default:
				continue
			}

			f0, f1 := freqs[i], freqs[i+1]
			f := f0
			if p1 != p0 {
				f = f0 + (0-p0)*(f1-f0)/(p1-p0)
			}

			r := Resonance{ComponentID: id, Frequency: f, Type: typ}
			if span > 0 && f > 0 {
				r.QFactor = f / span
				r.Bandwidth = f / r.QFactor
			}
			out = append(out, r)
		}
	}
	return out
}
