package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/edp1096/toy-circuit/pkg/circuit"
	"github.com/edp1096/toy-circuit/pkg/logic"
)

// V1 5 V -> R1 1k -> C1 1u -> ground, tau = 1 ms
func rcCharge() *schematic {
	s := &schematic{}
	s.add("V1", circuit.DCSource, 5)
	s.add("R1", circuit.Resistor, 1000)
	s.add("C1", circuit.Capacitor, 1e-6)
	s.ground()
	s.wire("V1.p", "R1.p")
	s.wire("R1.n", "C1.p")
	s.wire("C1.n", "GND.g")
	s.wire("V1.n", "GND.g")
	return s
}

func TestRunTransientRC(t *testing.T) {
	s := rcCharge()
	res := RunTransient(s.comps, s.wires, TransientOptions{EndTime: 5e-3, TimeStep: 1e-5})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.TimePoints) != 500 {
		t.Fatalf("expected 500 points, got %d", len(res.TimePoints))
	}
	if res.TimePoints[0] <= 0 {
		t.Errorf("t = 0 must not be recorded, first point %v", res.TimePoints[0])
	}

	vc := res.NodeVoltageHistory[s.node(t, "C1.p")]
	for i := 1; i < len(vc); i++ {
		if vc[i] < vc[i-1] {
			t.Fatalf("charging curve not monotonic at step %d: %v < %v", i, vc[i], vc[i-1])
		}
		if vc[i] > 5 {
			t.Fatalf("capacitor overshot the source at step %d: %v", i, vc[i])
		}
	}

	want := 5 * (1 - math.Exp(-5))
	if got := vc[len(vc)-1]; math.Abs(got-want)/want > 0.02 {
		t.Errorf("at 5 ms: expected about %v, got %v", want, got)
	}
}

func TestRunTransientStartTime(t *testing.T) {
	s := rcCharge()
	res := RunTransient(s.comps, s.wires, TransientOptions{StartTime: 2e-3, EndTime: 4e-3, TimeStep: 1e-4})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	if len(res.TimePoints) == 0 || res.TimePoints[0] < 2e-3-1e-12 {
		t.Errorf("expected recording to begin at 2 ms, got %v", res.TimePoints)
	}
}

func TestRunTransientOpenSwitch(t *testing.T) {
	s := &schematic{}
	s.add("V1", circuit.DCSource, 5)
	sw := s.add("S1", circuit.Switch, 0)
	sw.SwitchClosed = circuit.Bool(false)
	s.add("R1", circuit.Resistor, 1000)
	s.ground()
	s.wire("V1.p", "S1.p")
	s.wire("S1.n", "R1.p")
	s.wire("R1.n", "GND.g")
	s.wire("V1.n", "GND.g")

	res := RunTransient(s.comps, s.wires, TransientOptions{EndTime: 1e-3})
	if res.Success {
		t.Fatalf("expected failure")
	}
	if !errors.Is(res.Err, ErrOpenSwitch) {
		t.Errorf("expected ErrOpenSwitch, got %v", res.Err)
	}
	if !strings.Contains(res.Error, "S1") {
		t.Errorf("error should name S1: %s", res.Error)
	}

	// the operating point tolerates the open switch
	if dc := RunDC(s.comps, s.wires, DCOptions{}); !dc.Success {
		t.Errorf("DC should solve with an open switch: %s", dc.Error)
	}
}

func TestSelectTimeStep(t *testing.T) {
	tests := []struct {
		name    string
		freqs   []float64
		dt      float64
		maxFreq float64
	}{
		{"no ac", nil, 1.0 / 60, 0},
		{"single", []float64{50}, 1.0 / 5000, 50},
		{"fastest wins", []float64{50, 1000}, 1e-5, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var comps []circuit.Component
			for _, f := range tt.freqs {
				comps = append(comps, circuit.Component{Type: circuit.ACSource, Value: 1, Frequency: f})
			}
			dt, mf := SelectTimeStep(comps)
			if math.Abs(dt-tt.dt) > 1e-15 || mf != tt.maxFreq {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.dt, tt.maxFreq, dt, mf)
			}
		})
	}
}

func TestStreamer(t *testing.T) {
	s := rcCharge()
	st := NewStreamer()

	if _, err := st.StepBatch(1); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("expected ErrNotInitialized, got %v", err)
	}

	init := st.Initialize(s.comps, s.wires, TransientOptions{TimeStep: 1e-5})
	if !init.Success || init.TimeStep != 1e-5 {
		t.Fatalf("unexpected init result %+v", init)
	}

	first, err := st.StepBatch(10)
	if err != nil || len(first) != 10 {
		t.Fatalf("expected 10 points, got %d (%v)", len(first), err)
	}
	if math.Abs(st.Time()-1e-4) > 1e-15 {
		t.Errorf("expected t = 1e-4, got %v", st.Time())
	}

	st.Reset()
	if st.Time() != 0 {
		t.Errorf("reset should rewind to 0, got %v", st.Time())
	}
	again, err := st.StepBatch(10)
	if err != nil {
		t.Fatal(err)
	}
	node := s.node(t, "C1.p")
	for i := range first {
		if first[i].NodeVoltages[node] != again[i].NodeVoltages[node] {
			t.Errorf("step %d: expected %v after reset, got %v", i, first[i].NodeVoltages[node], again[i].NodeVoltages[node])
		}
	}

	// streamed points match the batch run
	batch := RunTransient(s.comps, s.wires, TransientOptions{EndTime: 1e-4, TimeStep: 1e-5})
	hist := batch.NodeVoltageHistory[node]
	if len(hist) != len(first) {
		t.Fatalf("expected %d batch points, got %d", len(first), len(hist))
	}
	for i := range hist {
		if hist[i] != first[i].NodeVoltages[node] {
			t.Errorf("step %d: batch %v, streamed %v", i, hist[i], first[i].NodeVoltages[node])
		}
	}

	st.Dispose()
	if _, err := st.StepBatch(1); !errors.Is(err, ErrDisposed) {
		t.Errorf("expected ErrDisposed, got %v", err)
	}
	if r := st.Initialize(s.comps, s.wires, TransientOptions{}); r.Success || !errors.Is(r.Err, ErrDisposed) {
		t.Errorf("initialize after dispose should fail, got %+v", r)
	}
}

// U1 NOT with its input grounded drives RL; V1/R1 keep the analog side valid.
func inverterLoad() *schematic {
	s := &schematic{}
	s.add("V1", circuit.DCSource, 5)
	s.add("R1", circuit.Resistor, 1000)
	s.comps = append(s.comps, circuit.Component{
		ID: "U1", Type: circuit.NotGate,
		Ports: []circuit.Port{{ID: "a"}, {ID: "out"}},
	})
	s.add("RL", circuit.Resistor, 1000)
	s.ground()
	s.wire("V1.p", "R1.p")
	s.wire("R1.n", "GND.g")
	s.wire("V1.n", "GND.g")
	s.wire("U1.a", "GND.g")
	s.wire("U1.out", "RL.p")
	s.wire("RL.n", "GND.g")
	return s
}

func TestRunTransientLogicGate(t *testing.T) {
	s := inverterLoad()
	out := s.node(t, "U1.out")

	dc := RunDC(s.comps, s.wires, DCOptions{})
	if !dc.Success {
		t.Fatalf("unexpected DC failure: %s", dc.Error)
	}
	if v := dc.NodeVoltages[out]; !near(v, 5, 1e-9) {
		t.Fatalf("DC gate output: expected 5 V, got %v", v)
	}

	res := RunTransient(s.comps, s.wires, TransientOptions{EndTime: 3e-3, TimeStep: 1e-3})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	hist := res.NodeVoltageHistory[out]
	if len(hist) != 3 {
		t.Fatalf("expected 3 points, got %d", len(hist))
	}
	for i, v := range hist {
		if !near(v, dc.NodeVoltages[out], 1e-9) {
			t.Errorf("step %d: expected %v as in DC, got %v", i, dc.NodeVoltages[out], v)
		}
	}
	for i, l := range res.LogicLevelHistory["U1"] {
		if l != logic.High {
			t.Errorf("step %d: expected HIGH, got %v", i, l)
		}
	}
	if i := res.BranchCurrentHistory["RL"]; len(i) != 3 || !near(i[2], 0.005, 1e-9) {
		t.Errorf("load: expected 5 mA, got %v", i)
	}

	// the streamed run sees the same gate output
	st := NewStreamer()
	if init := st.Initialize(s.comps, s.wires, TransientOptions{TimeStep: 1e-3}); !init.Success {
		t.Fatalf("unexpected init failure: %s", init.Error)
	}
	pts, err := st.StepBatch(3)
	if err != nil {
		t.Fatal(err)
	}
	for i, pt := range pts {
		if !near(pt.NodeVoltages[out], 5, 1e-9) || pt.LogicLevels["U1"] != logic.High {
			t.Errorf("streamed step %d: expected 5 V HIGH, got %v %v", i, pt.NodeVoltages[out], pt.LogicLevels["U1"])
		}
	}
}

func TestRunTransientGateFollowsInput(t *testing.T) {
	// input driven by a square wave: the inverter output must track it
	s := &schematic{}
	src := s.add("V1", circuit.ACSource, 5)
	src.Frequency = 100
	src.Waveform = circuit.Square
	s.comps = append(s.comps, circuit.Component{
		ID: "U1", Type: circuit.NotGate,
		Ports: []circuit.Port{{ID: "a"}, {ID: "out"}},
	})
	s.add("RL", circuit.Resistor, 1000)
	s.ground()
	s.wire("V1.p", "U1.a")
	s.wire("V1.n", "GND.g")
	s.wire("U1.out", "RL.p")
	s.wire("RL.n", "GND.g")

	res := RunTransient(s.comps, s.wires, TransientOptions{EndTime: 0.01})
	if !res.Success {
		t.Fatalf("unexpected failure: %s", res.Error)
	}
	in, out := s.node(t, "U1.a"), s.node(t, "U1.out")
	for i := range res.TimePoints {
		vin, vout := res.NodeVoltageHistory[in][i], res.NodeVoltageHistory[out][i]
		want := 5.0
		if vin > 2.5 {
			want = 0
		}
		if !near(vout, want, 1e-9) {
			t.Errorf("t=%v: input %v, expected output %v, got %v", res.TimePoints[i], vin, want, vout)
		}
	}
}
