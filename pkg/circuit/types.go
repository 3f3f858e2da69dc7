package circuit

// ComponentType is the closed set of schematic elements the engine knows.
type ComponentType string

const (
	Resistor      ComponentType = "resistor"
	Capacitor     ComponentType = "capacitor"
	Inductor      ComponentType = "inductor"
	DCSource      ComponentType = "dc_source"
	ACSource      ComponentType = "ac_source"
	Diode         ComponentType = "diode"
	LED           ComponentType = "led"
	Switch        ComponentType = "switch"
	Ammeter       ComponentType = "ammeter"
	Voltmeter     ComponentType = "voltmeter"
	Ground        ComponentType = "ground"
	AndGate       ComponentType = "and_gate"
	OrGate        ComponentType = "or_gate"
	NotGate       ComponentType = "not_gate"
	NandGate      ComponentType = "nand_gate"
	NorGate       ComponentType = "nor_gate"
	XorGate       ComponentType = "xor_gate"
	XnorGate      ComponentType = "xnor_gate"
	NPNTransistor ComponentType = "npn_transistor"
	PNPTransistor ComponentType = "pnp_transistor"
)

// ComponentTypes lists every known type in declaration order.
var ComponentTypes = []ComponentType{
	Resistor, Capacitor, Inductor, DCSource, ACSource, Diode, LED, Switch,
	Ammeter, Voltmeter, Ground, AndGate, OrGate, NotGate, NandGate, NorGate,
	XorGate, XnorGate, NPNTransistor, PNPTransistor,
}

func (t ComponentType) Valid() bool {
	for _, k := range ComponentTypes {
		if k == t {
			return true
		}
	}
	return false
}

func (t ComponentType) IsSource() bool { return t == DCSource || t == ACSource }

func (t ComponentType) IsJunction() bool { return t == Diode || t == LED }

func (t ComponentType) IsTransistor() bool { return t == NPNTransistor || t == PNPTransistor }

func (t ComponentType) IsGate() bool {
	switch t {
	case AndGate, OrGate, NotGate, NandGate, NorGate, XorGate, XnorGate:
		return true
	}
	return false
}

// IsNonLinear reports the devices solved through the ON/OFF state machine.
func (t ComponentType) IsNonLinear() bool { return t.IsJunction() || t.IsTransistor() }

// IsTwoTerminal reports the types stamped between exactly two nodes.
func (t ComponentType) IsTwoTerminal() bool {
	switch t {
	case Resistor, Capacitor, Inductor, DCSource, ACSource, Diode, LED, Switch, Ammeter, Voltmeter:
		return true
	}
	return false
}

// NeedsBranchCurrent reports whether the type gets an extra MNA unknown.
// Inductors always get one: a 0 V source in DC, a companion source in
// transient and a jωL branch in AC.
func (t ComponentType) NeedsBranchCurrent() bool {
	switch {
	case t.IsSource(), t == Inductor, t.IsJunction(), t.IsTransistor(), t.IsGate():
		return true
	}
	return false
}

// Waveform selects the AC source shape in transient analysis.
type Waveform string

const (
	Sine     Waveform = "sine"
	Square   Waveform = "square"
	Triangle Waveform = "triangle"
	Sawtooth Waveform = "sawtooth"
)

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Port is a terminal of one component. Offset is geometry only.
type Port struct {
	ID     string `json:"id" yaml:"id"`
	Offset Point  `json:"offset,omitempty" yaml:"offset,omitempty"`
}

// Component is a placed schematic element. Value is ohms, farads, henries,
// volts (source amplitude) or forward voltage depending on Type. Port order
// matters: [positive, negative] for sources, [anode, cathode] for diodes,
// [base, collector, emitter] for transistors.
type Component struct {
	ID       string        `json:"id" yaml:"id"`
	Type     ComponentType `json:"type" yaml:"type"`
	Position Point         `json:"position,omitempty" yaml:"position,omitempty"`
	Rotation float64       `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Value    float64       `json:"value" yaml:"value"`
	Ports    []Port        `json:"ports" yaml:"ports"`

	// AC source
	Frequency float64  `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Phase     float64  `json:"phase,omitempty" yaml:"phase,omitempty"` // degrees
	Offset    float64  `json:"offset,omitempty" yaml:"offset,omitempty"`
	Waveform  Waveform `json:"waveformType,omitempty" yaml:"waveformType,omitempty"`

	// Switch; nil means closed
	SwitchClosed *bool `json:"switchClosed,omitempty" yaml:"switchClosed,omitempty"`

	// Logic gates
	LogicInputs map[string]bool `json:"logicInputs,omitempty" yaml:"logicInputs,omitempty"`
	LogicOutput bool            `json:"logicOutput,omitempty" yaml:"logicOutput,omitempty"`

	LEDColor string `json:"ledColor,omitempty" yaml:"ledColor,omitempty"`
}

// IsClosed reports the switch state, defaulting to closed.
func (c *Component) IsClosed() bool {
	return c.SwitchClosed == nil || *c.SwitchClosed
}

// Port returns the port with the given id.
func (c *Component) Port(id string) (Port, bool) {
	for _, p := range c.Ports {
		if p.ID == id {
			return p, true
		}
	}
	return Port{}, false
}

// Wire joins two ports. It carries no electrical value.
type Wire struct {
	ID              string `json:"id,omitempty" yaml:"id,omitempty"`
	FromComponentID string `json:"fromComponentId" yaml:"fromComponentId"`
	FromPortID      string `json:"fromPortId" yaml:"fromPortId"`
	ToComponentID   string `json:"toComponentId" yaml:"toComponentId"`
	ToPortID        string `json:"toPortId" yaml:"toPortId"`
}

// PortRef identifies a port as (componentId, portId).
type PortRef struct {
	ComponentID string `json:"componentId" yaml:"componentId"`
	PortID      string `json:"portId" yaml:"portId"`
}

func (p PortRef) Key() string { return PortKey(p.ComponentID, p.PortID) }

// PortKey is the union-find key of a port.
func PortKey(componentID, portID string) string { return componentID + ":" + portID }

// Bool returns a pointer to v, for SwitchClosed literals.
func Bool(v bool) *bool { return &v }
