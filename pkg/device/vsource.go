package device

import (
	"math"

	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/complexnum"
)

// SourceVoltage is the value a voltage source is stamped with. An AC source
// contributes only its offset at the operating point and follows its
// waveform in transient analysis.
func SourceVoltage(s *circuit.Stamp, status *CircuitStatus) float64 {
	switch s.Type {
	case circuit.DCSource:
		return s.Value
	case circuit.ACSource:
		if status.Mode == TransientAnalysis {
			return s.Offset + WaveformValue(s.Waveform, status.Time, s.Value, s.Frequency, s.Phase)
		}
		return s.Offset
	}
	return 0
}

// SourcePhasor is the small-signal excitation: amplitude at phase for an
// AC source, 0 V (a short) for a DC source.
func SourcePhasor(s *circuit.Stamp) complex128 {
	if s.Type != circuit.ACSource {
		return 0
	}
	return complexnum.FromPolar(s.Value, s.Phase)
}

// WaveformValue evaluates a periodic source shape at time t. phaseDeg
// shifts every shape by the same fraction of a period. An empty waveform
// is a sine.
func WaveformValue(w circuit.Waveform, t, amplitude, freq, phaseDeg float64) float64 {
	theta := 2*math.Pi*freq*t + phaseDeg*math.Pi/180.0

	switch w {
	case circuit.Square:
		if math.Sin(theta) >= 0 {
			return amplitude
		}
		return -amplitude
	case circuit.Triangle:
		return amplitude * 2 / math.Pi * math.Asin(math.Sin(theta))
	case circuit.Sawtooth:
		cycle := theta / (2 * math.Pi)
		frac := cycle - math.Floor(cycle)
		return amplitude * (2*frac - 1)
	default:
		return amplitude * math.Sin(theta)
	}
}
