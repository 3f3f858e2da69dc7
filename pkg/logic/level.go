package logic

import (
	"fmt"

	"github.com/edp1096/toy-circuit/pkg/circuit"
)

// Level is a three-valued logic level. Unknown is never guessed: it wins
// over every other input.
type Level int

const (
	Low Level = iota
	High
	Unknown
)

func (l Level) String() string {
	switch l {
	case Low:
		return "LOW"
	case High:
		return "HIGH"
	case Unknown:
		return "UNKNOWN"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func FromBool(b bool) Level {
	if b {
		return High
	}
	return Low
}

// FromVoltage compares v against threshold; at or above is HIGH.
func FromVoltage(v, threshold float64) Level {
	if v >= threshold {
		return High
	}
	return Low
}

func Not(l Level) Level {
	switch l {
	case Low:
		return High
	case High:
		return Low
	}
	return Unknown
}

func And(in ...Level) Level {
	if len(in) == 0 || hasUnknown(in) {
		return Unknown
	}
	for _, l := range in {
		if l == Low {
			return Low
		}
	}
	return High
}

func Or(in ...Level) Level {
	if len(in) == 0 || hasUnknown(in) {
		return Unknown
	}
	for _, l := range in {
		if l == High {
			return High
		}
	}
	return Low
}

// Xor is HIGH when an odd number of inputs are HIGH.
func Xor(in ...Level) Level {
	if len(in) == 0 || hasUnknown(in) {
		return Unknown
	}
	odd := false
	for _, l := range in {
		if l == High {
			odd = !odd
		}
	}
	return FromBool(odd)
}

// Evaluate applies the truth table of a gate type. NAND, NOR and XNOR are
// the negations of AND, OR and XOR; NOT reads its first input.
func Evaluate(t circuit.ComponentType, in []Level) Level {
	switch t {
	case circuit.AndGate:
		return And(in...)
	case circuit.OrGate:
		return Or(in...)
	case circuit.XorGate:
		return Xor(in...)
	case circuit.NandGate:
		return Not(And(in...))
	case circuit.NorGate:
		return Not(Or(in...))
	case circuit.XnorGate:
		return Not(Xor(in...))
	case circuit.NotGate:
		if len(in) == 0 {
			return Unknown
		}
		return Not(in[0])
	}
	return Unknown
}

func hasUnknown(in []Level) bool {
	for _, l := range in {
		if l == Unknown {
			return true
		}
	}
	return false
}
