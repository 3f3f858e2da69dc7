package analysis

import (
	"errors"
	"log/slog"

	"github.com/edp1096/toy-circuit/pkg/circuit"
)

var (
	ErrNotInitialized = errors.New("streamer not initialized")
	ErrDisposed       = errors.New("streamer disposed")
)

type InitResult struct {
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
	Err          error   `json:"-"`
	TimeStep     float64 `json:"timeStep"`
	MaxFrequency float64 `json:"maxFrequency"`
}

// Streamer advances a transient simulation a batch of steps at a time for
// live display. It is owned by one caller; it is not safe for concurrent use.
type Streamer struct {
	graph    *circuit.Graph
	cfg      stepConfig
	state    TransientState
	ready    bool
	disposed bool
}

func NewStreamer() *Streamer { return &Streamer{} }

// Initialize validates the schematic and rewinds to t = 0. It may be called
// again to load a new schematic.
func (s *Streamer) Initialize(components []circuit.Component, wires []circuit.Wire, opts TransientOptions) InitResult {
	if s.disposed {
		return InitResult{Err: ErrDisposed, Error: ErrDisposed.Error()}
	}
	s.ready = false

	g, opts, maxFreq, err := prepareTransient(components, wires, opts)
	if err != nil {
		return InitResult{Err: err, Error: errorString(err)}
	}

	s.graph = g
	s.cfg = newStepConfig(components, wires, opts)
	s.state = InitialState()
	s.ready = true
	return InitResult{Success: true, TimeStep: opts.TimeStep, MaxFrequency: maxFreq}
}

// StepBatch advances n steps. On a failed step it returns the points
// accepted before it together with the error.
func (s *Streamer) StepBatch(n int) ([]StreamingPoint, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	if !s.ready {
		return nil, ErrNotInitialized
	}

	points := make([]StreamingPoint, 0, n)
	for range n {
		next, pt, err := Step(s.graph, s.state, s.cfg)
		if err != nil {
			return points, err
		}
		s.state = next
		points = append(points, pt)
	}
	slog.Debug("stream batch", "steps", n, "time", s.state.Time)
	return points, nil
}

// Time is the time of the last accepted step.
func (s *Streamer) Time() float64 { return s.state.Time }

func (s *Streamer) TimeStep() float64 { return s.cfg.TimeStep }

// Reset rewinds dynamic state to t = 0 without replaying history.
func (s *Streamer) Reset() {
	if s.ready {
		s.state = InitialState()
	}
}

func (s *Streamer) Dispose() {
	s.graph = nil
	s.state = TransientState{}
	s.ready = false
	s.disposed = true
}
