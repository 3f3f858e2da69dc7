// Package config loads the simulator settings file. Every table is
// optional; missing keys keep the values from Default.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/edp1096/toy-circuit/internal/consts"
	"github.com/edp1096/toy-circuit/internal/util"
	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/linalg"
	"github.com/edp1096/toy-circuit/pkg/logic"
	"github.com/edp1096/toy-circuit/pkg/rules"
)

type Solver struct {
	Backend       string `toml:"backend"` // dense or sparse
	MaxIterations int    `toml:"max_iterations"`
}

type Transient struct {
	StartTime float64 `toml:"start_time"`
	EndTime   float64 `toml:"end_time"`
	TimeStep  float64 `toml:"time_step"` // 0 picks one from the sources
	BatchSize int     `toml:"batch_size"`
}

type AC struct {
	StartFrequency  float64 `toml:"start_frequency"`
	EndFrequency    float64 `toml:"end_frequency"`
	PointsPerDecade int     `toml:"points_per_decade"`
	SweepType       string  `toml:"sweep_type"`
}

type Config struct {
	Solver    Solver        `toml:"solver"`
	Transient Transient     `toml:"transient"`
	AC        AC            `toml:"ac"`
	Rules     rules.Options `toml:"rules"`
	Logic     logic.Options `toml:"logic"`
}

func Default() Config {
	return Config{
		Solver: Solver{
			Backend:       string(linalg.BackendDense),
			MaxIterations: consts.MaxIterations,
		},
		Transient: Transient{
			EndTime:   consts.DefaultEndTime,
			BatchSize: 100,
		},
		AC: AC{
			StartFrequency:  consts.DefaultStartFreq,
			EndFrequency:    consts.DefaultEndFreq,
			PointsPerDecade: consts.DefaultPointsPerD,
			SweepType:       string(analysis.Logarithmic),
		},
		Rules: rules.DefaultOptions(),
		Logic: logic.DefaultOptions(),
	}
}

// Load decodes path over Default. Unknown keys are an error so typos do
// not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// LoadOptional is Load when path names an existing file, else Default.
func LoadOptional(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func (c *Config) Validate() error {
	if _, err := linalg.ParseBackend(c.Solver.Backend); err != nil {
		return err
	}
	switch analysis.SweepType(c.AC.SweepType) {
	case analysis.Logarithmic, analysis.Linear:
	default:
		return fmt.Errorf("unknown sweep type %q", c.AC.SweepType)
	}
	if c.Transient.EndTime <= 0 {
		return fmt.Errorf("transient end_time must be positive")
	}
	if c.AC.EndFrequency < c.AC.StartFrequency {
		return fmt.Errorf("ac end_frequency is below start_frequency")
	}
	c.AC.PointsPerDecade = util.Clamp(c.AC.PointsPerDecade, 1, 1000)
	c.Transient.BatchSize = util.Clamp(c.Transient.BatchSize, 1, 100000)
	return nil
}

func (c Config) Backend() linalg.Backend {
	b, _ := linalg.ParseBackend(c.Solver.Backend)
	return b
}

func (c Config) DCOptions() analysis.DCOptions {
	return analysis.DCOptions{Solver: c.Backend(), MaxIterations: c.Solver.MaxIterations, Logic: c.Logic}
}

func (c Config) TransientOptions() analysis.TransientOptions {
	return analysis.TransientOptions{
		StartTime:     c.Transient.StartTime,
		EndTime:       c.Transient.EndTime,
		TimeStep:      c.Transient.TimeStep,
		MaxIterations: c.Solver.MaxIterations,
		Solver:        c.Backend(),
		Logic:         c.Logic,
	}
}

func (c Config) ACOptions() analysis.ACSweepOptions {
	return analysis.ACSweepOptions{
		StartFrequency:  c.AC.StartFrequency,
		EndFrequency:    c.AC.EndFrequency,
		PointsPerDecade: c.AC.PointsPerDecade,
		SweepType:       analysis.SweepType(c.AC.SweepType),
		Solver:          c.Backend(),
	}
}
