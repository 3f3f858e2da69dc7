package schematic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

// kindAliases maps short netlist kinds onto component types.
var kindAliases = map[string]circuit.ComponentType{
	"r":    circuit.Resistor,
	"c":    circuit.Capacitor,
	"l":    circuit.Inductor,
	"v":    circuit.DCSource,
	"dc":   circuit.DCSource,
	"vac":  circuit.ACSource,
	"ac":   circuit.ACSource,
	"d":    circuit.Diode,
	"sw":   circuit.Switch,
	"am":   circuit.Ammeter,
	"vm":   circuit.Voltmeter,
	"and":  circuit.AndGate,
	"or":   circuit.OrGate,
	"not":  circuit.NotGate,
	"nand": circuit.NandGate,
	"nor":  circuit.NorGate,
	"xor":  circuit.XorGate,
	"xnor": circuit.XnorGate,
	"npn":  circuit.NPNTransistor,
	"pnp":  circuit.PNPTransistor,
}

func componentType(kind string) (circuit.ComponentType, error) {
	k := strings.ToLower(kind)
	if t := circuit.ComponentType(k); t.Valid() {
		return t, nil
	}
	if t, ok := kindAliases[k]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown component kind: %s", kind)
}

// defaultPorts names positional ports.
func defaultPorts(t circuit.ComponentType, n int) []string {
	switch {
	case t.IsTransistor():
		return []string{"b", "c", "e"}
	case t.IsGate():
		if n < 2 {
			n = 2
		}
		names := make([]string, 0, n)
		for i := 0; i < n-1; i++ {
			names = append(names, string(rune('a'+i)))
		}
		return append(names, "out")
	case t == circuit.Ground:
		return []string{"g"}
	}
	return []string{"p", "n"}
}

// IsGroundNet reports whether a net name denotes the reference node.
func IsGroundNet(net string) bool {
	switch strings.ToLower(net) {
	case "0", "gnd", "ground":
		return true
	}
	return false
}

type netBuilder struct {
	order []string
	ports map[string][]circuit.PortRef
}

func (b *netBuilder) add(net string, ref circuit.PortRef) {
	if IsGroundNet(net) {
		net = "0"
	}
	if _, ok := b.ports[net]; !ok {
		b.order = append(b.order, net)
	}
	b.ports[net] = append(b.ports[net], ref)
}

func buildSchematic(ast *netlistAST) (*Schematic, error) {
	s := &Schematic{}
	nets := &netBuilder{ports: make(map[string][]circuit.PortRef)}
	seen := make(map[string]bool)

	for _, line := range ast.Lines {
		switch {
		case line.Directive != nil:
			if err := s.applyDirective(line.Directive); err != nil {
				return nil, fmt.Errorf("%s: %w", line.Directive.Pos, err)
			}
		case line.Element != nil:
			c, err := buildComponent(line.Element, nets)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", line.Element.Pos, err)
			}
			if seen[c.ID] {
				return nil, fmt.Errorf("%s: duplicate component %s", line.Element.Pos, c.ID)
			}
			seen[c.ID] = true
			s.Components = append(s.Components, c)
		}
	}

	if refs, ok := nets.ports["0"]; ok && !hasGroundOn(s.Components, refs) {
		id := "GND"
		for i := 1; seen[id]; i++ {
			id = fmt.Sprintf("GND%d", i)
		}
		s.Components = append(s.Components, circuit.Component{ID: id, Type: circuit.Ground, Ports: []circuit.Port{{ID: "g"}}})
		nets.ports["0"] = append([]circuit.PortRef{{ComponentID: id, PortID: "g"}}, refs...)
	}

	// Each net becomes a chain of wires between its ports.
	for _, net := range nets.order {
		refs := nets.ports[net]
		for i := 1; i < len(refs); i++ {
			s.Wires = append(s.Wires, circuit.Wire{
				ID:              fmt.Sprintf("w%d", len(s.Wires)+1),
				FromComponentID: refs[i-1].ComponentID,
				FromPortID:      refs[i-1].PortID,
				ToComponentID:   refs[i].ComponentID,
				ToPortID:        refs[i].PortID,
			})
		}
	}
	return s, nil
}

func hasGroundOn(components []circuit.Component, refs []circuit.PortRef) bool {
	types := make(map[string]circuit.ComponentType, len(components))
	for _, c := range components {
		types[c.ID] = c.Type
	}
	for _, r := range refs {
		if types[r.ComponentID] == circuit.Ground {
			return true
		}
	}
	return false
}

func buildComponent(e *elementAST, nets *netBuilder) (circuit.Component, error) {
	typ, err := componentType(e.Kind)
	if err != nil {
		return circuit.Component{}, err
	}
	c := circuit.Component{ID: e.Name, Type: typ}

	names := defaultPorts(typ, len(e.Ports))
	for i, p := range e.Ports {
		id := p.Port
		if id == "" {
			if i >= len(names) {
				return c, fmt.Errorf("%s: too many ports for %s", e.Name, typ)
			}
			id = names[i]
		}
		if _, dup := c.Port(id); dup {
			return c, fmt.Errorf("%s: port %s listed twice", e.Name, id)
		}
		c.Ports = append(c.Ports, circuit.Port{ID: id})
		nets.add(p.Net, circuit.PortRef{ComponentID: c.ID, PortID: id})
	}

	if e.Value != "" {
		if c.Value, err = ParseValue(e.Value); err != nil {
			return c, fmt.Errorf("%s: %w", e.Name, err)
		}
	}
	for _, p := range e.Params {
		if err := applyParam(&c, p.Key, p.Value); err != nil {
			return c, fmt.Errorf("%s: %w", e.Name, err)
		}
	}
	return c, nil
}

func applyParam(c *circuit.Component, key, val string) error {
	var err error
	switch strings.ToLower(key) {
	case "value":
		c.Value, err = ParseValue(val)
	case "freq", "frequency":
		c.Frequency, err = ParseValue(val)
	case "phase":
		c.Phase, err = ParseValue(val)
	case "offset":
		c.Offset, err = ParseValue(val)
	case "wave", "waveform":
		c.Waveform = circuit.Waveform(strings.ToLower(val))
	case "closed":
		var b bool
		b, err = parseBool(val)
		c.SwitchClosed = circuit.Bool(b)
	case "color":
		c.LEDColor = strings.ToLower(val)
	case "output":
		c.LogicOutput, err = parseBool(val)
	default:
		if !c.Type.IsGate() {
			return fmt.Errorf("unknown parameter %s", key)
		}
		// gate manual input, e.g. a=high
		var b bool
		if b, err = parseBool(val); err == nil {
			if c.LogicInputs == nil {
				c.LogicInputs = make(map[string]bool)
			}
			c.LogicInputs[key] = b
		}
	}
	if err != nil {
		return fmt.Errorf("parameter %s: %w", key, err)
	}
	return nil
}

func parseBool(val string) (bool, error) {
	switch strings.ToLower(val) {
	case "high", "on", "h":
		return true, nil
	case "low", "off", "l":
		return false, nil
	}
	return strconv.ParseBool(val)
}

func (s *Schematic) applyDirective(d *directiveAST) error {
	nums := func(args []string) ([]float64, error) {
		out := make([]float64, len(args))
		for i, a := range args {
			v, err := ParseValue(a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	switch strings.ToLower(d.Name) {
	case ".title":
		s.Title = strings.Join(d.Args, " ")

	case ".op":
		s.Analysis.OP = true

	case ".tran":
		// .tran tstep tstop [tstart]
		if len(d.Args) < 2 {
			return fmt.Errorf(".tran needs tstep and tstop")
		}
		v, err := nums(d.Args)
		if err != nil {
			return err
		}
		opts := &analysis.TransientOptions{TimeStep: v[0], EndTime: v[1]}
		if len(v) > 2 {
			opts.StartTime = v[2]
		}
		s.Analysis.Transient = opts

	case ".ac":
		// .ac dec|lin points fstart fstop
		if len(d.Args) != 4 {
			return fmt.Errorf(".ac needs sweep type, points, fstart and fstop")
		}
		v, err := nums(d.Args[1:])
		if err != nil {
			return err
		}
		opts := &analysis.ACSweepOptions{
			PointsPerDecade: int(v[0]),
			StartFrequency:  v[1],
			EndFrequency:    v[2],
		}
		switch strings.ToLower(d.Args[0]) {
		case "dec":
			opts.SweepType = analysis.Logarithmic
		case "lin":
			opts.SweepType = analysis.Linear
		default:
			return fmt.Errorf("unsupported sweep type %s", d.Args[0])
		}
		s.Analysis.AC = opts

	case ".dc":
		// .dc src start stop step [src2 start2 stop2 step2]
		if len(d.Args) != 4 && len(d.Args) != 8 {
			return fmt.Errorf(".dc needs one or two source sweeps")
		}
		for i := 0; i < len(d.Args); i += 4 {
			v, err := nums(d.Args[i+1 : i+4])
			if err != nil {
				return err
			}
			s.Analysis.DCSweep = append(s.Analysis.DCSweep, analysis.SweepSource{
				SourceID: d.Args[i], Start: v[0], Stop: v[1], Step: v[2],
			})
		}

	case ".end":
	default:
		return fmt.Errorf("unknown directive %s", d.Name)
	}
	return nil
}
