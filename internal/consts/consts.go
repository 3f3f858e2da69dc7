package consts

// Stamped resistances (ohm)
const (
	OpenCircuitOhms    = 1e12 // Capacitor in DC, open switch, voltmeter
	ClosedSwitchOhms   = 0.01 // Closed switch
	AmmeterOhms        = 0.001
	VoltmeterOhms      = 1e12
	DiodeOffOhms       = 1e9 // Reverse leakage
	DiodeSeriesOhms    = 0.1 // Series resistance of a conducting junction
	DiodeACOhms        = 100 // Small-signal resistance in AC sweep
	TransistorOnOhms   = 1.0 // Collector-emitter when the junction conducts
	TransistorOffOhms  = 1e9
	GateInputOhms      = 1e12
	ZeroOhmThreshold   = 0.01 // Design rules: at or below this counts as a short
	DefaultRMinOhms    = 10.0 // Design rules: minimum current-limiting resistance
	DefaultForwardVolt = 0.7  // Junction forward voltage when value is unset
	MinResistanceOhms  = 1e-6 // Floor for non-positive resistor values
)

// Iteration and numeric limits
const (
	MaxIterations     = 20    // Diode/LED state machine passes
	MaxLogicPasses    = 10    // Gate re-evaluation passes in mixed-signal DC
	PivotEpsilon      = 1e-12 // Singular pivot magnitude
	ReverseCurrentTol = -1e-9 // ON -> OFF when branch current falls below
	KCLTolerance      = 1e-6
)

// Timing
const (
	DefaultTimeStep   = 1.0 / 60.0 // Display cadence when no AC source exists
	StepsPerACPeriod  = 100
	DefaultEndTime    = 0.1
	DefaultStartFreq  = 1.0
	DefaultEndFreq    = 1e6
	DefaultPointsPerD = 10
)

// Logic levels (V)
const (
	LogicThreshold = 2.5
	LogicHigh      = 5.0
	LogicLow       = 0.0
)

// LEDEmitMinAmps is the current below which a conducting LED is not visibly lit.
const LEDEmitMinAmps = 1e-3

// GroundNodeID is the reference node (0 V).
const GroundNodeID = "0"
