package util

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/constraints"
)

// prefixes are the SI multipliers used in result tables, largest first.
var prefixes = []struct {
	scale  float64
	symbol string
}{
	{1e6, "M"}, {1e3, "k"}, {1, ""}, {1e-3, "m"}, {1e-6, "u"}, {1e-9, "n"}, {1e-12, "p"},
}

// engineering scales v by the largest prefix in [lo, hi] not above |v|.
// ok is false when |v| is below lo; zero takes the unit prefix.
func engineering(v, lo, hi float64) (scaled float64, symbol string, ok bool) {
	abs := math.Abs(v)
	if abs == 0 {
		return 0, "", true
	}
	for _, p := range prefixes {
		if p.scale > hi || p.scale < lo {
			continue
		}
		if abs >= p.scale {
			return v / p.scale, p.symbol, true
		}
	}
	return v, "", false
}

func FormatValueFactor[T constraints.Float](value T, unit string) string {
	scaled, symbol, ok := engineering(float64(value), 1e-12, 1e6)
	if !ok {
		return fmt.Sprintf("%.3e %s", float64(value), unit)
	}
	return fmt.Sprintf("%.3f %s%s", scaled, symbol, unit)
}

// FormatFrequency pads to a fixed width for table columns; below 1 Hz it
// stays in Hz.
func FormatFrequency(freq float64) string {
	scaled, symbol, ok := engineering(freq, 1, 1e6)
	if !ok {
		scaled = freq
	}
	return fmt.Sprintf("%7.3f %-3s", scaled, symbol+"Hz")
}

func FormatMagnitude(value float64) string {
	if math.IsNaN(value) {
		return fmt.Sprintf("%8s", "-")
	}
	if value >= 1000 || (value < 0.001 && value != 0) {
		return fmt.Sprintf("%8.2e", value) // "1.00e+03" or "5.43e-05"
	}
	return fmt.Sprintf("%8.3g", value) // "  732.5 "
}

func FormatPhase(value float64) string {
	return fmt.Sprintf("%6.1f", value) // "  90.0"
}

func FormatMagnitudePhase(name string, value, phase float64) string {
	return fmt.Sprintf("%s=%s<%sdeg", name, FormatMagnitude(value), FormatPhase(phase))
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
