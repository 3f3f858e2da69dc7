// Package complexnum holds the scalar phasor arithmetic used by the AC sweep:
// guarded division, polar conversion and the impedance of ideal R, L and C
// elements at an angular frequency.
package complexnum

import (
	"errors"
	"math"
	"math/cmplx"
)

var ErrDivideByZero = errors.New("complexnum: division by zero")

// Epsilon is the magnitude below which a divisor is treated as zero.
const Epsilon = 1e-300

func Add(a, b complex128) complex128 { return a + b }

func Sub(a, b complex128) complex128 { return a - b }

func Mul(a, b complex128) complex128 { return a * b }

func Scale(a complex128, k float64) complex128 { return complex(real(a)*k, imag(a)*k) }

// Div returns a/b, or ErrDivideByZero when |b| is zero.
func Div(a, b complex128) (complex128, error) {
	if Magnitude(b) < Epsilon {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}

// Reciprocal returns 1/z, falling back to fallback when z is zero.
func Reciprocal(z complex128, fallback complex128) complex128 {
	r, err := Div(1, z)
	if err != nil {
		return fallback
	}
	return r
}

func Magnitude(z complex128) float64 { return cmplx.Abs(z) }

// Phase returns the argument of z in radians, in (-pi, pi].
func Phase(z complex128) float64 { return cmplx.Phase(z) }

// PhaseDeg returns the argument of z in degrees.
func PhaseDeg(z complex128) float64 { return cmplx.Phase(z) * 180.0 / math.Pi }

// FromPolar builds mag*e^(j*phaseDeg).
func FromPolar(mag, phaseDeg float64) complex128 {
	return cmplx.Rect(mag, phaseDeg*math.Pi/180.0)
}

// Omega converts a frequency in Hz to rad/s.
func Omega(freq float64) float64 { return 2 * math.Pi * freq }

func ResistorImpedance(r float64) complex128 { return complex(r, 0) }

// InductorImpedance is jωL.
func InductorImpedance(l, omega float64) complex128 { return complex(0, omega*l) }

// CapacitorImpedance is 1/(jωC). At ω=0 or C=0 the capacitor is open and the
// returned impedance is a very large real value.
func CapacitorImpedance(c, omega float64, open float64) complex128 {
	if c*omega == 0 {
		return complex(open, 0)
	}
	return complex(0, -1/(omega*c))
}

// CapacitorAdmittance is jωC.
func CapacitorAdmittance(c, omega float64) complex128 { return complex(0, omega*c) }
