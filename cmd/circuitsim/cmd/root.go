package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edp1096/toy-circuit/internal/config"
	"github.com/edp1096/toy-circuit/pkg/engine"
	"github.com/edp1096/toy-circuit/pkg/linalg"
	"github.com/edp1096/toy-circuit/pkg/schematic"
)

var (
	// Global flags
	verbose    bool
	configPath string
	solverFlag string
	jsonOutput bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "circuitsim",
	Short: "circuitsim - educational circuit simulator",
	Long: `circuitsim solves schematics with modified nodal analysis.

Schematics are read from JSON, YAML or text netlists (.cir, .net, .sp).

Examples:
  circuitsim rules divider.cir            # Check design rules
  circuitsim dc divider.cir               # Operating point
  circuitsim tran rc.yaml --end 0.005     # Transient analysis
  circuitsim ac filter.cir --ppd 20       # AC sweep with resonances
  circuitsim sweep divider.cir --source V1 --to 10  # DC sweep of V1
  circuitsim plot bode filter.cir -n C1.p # Bode plot of the node at C1.p`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		var err error
		if cfg, err = config.LoadOptional(configPath); err != nil {
			return err
		}
		if cmd.Flags().Changed("solver") {
			if _, err := linalg.ParseBackend(solverFlag); err != nil {
				return err
			}
			cfg.Solver.Backend = solverFlag
		}
		slog.Debug("configuration", "config", configPath, "solver", cfg.Solver.Backend)
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "circuitsim.toml", "settings file (TOML)")
	rootCmd.PersistentFlags().StringVar(&solverFlag, "solver", "dense", "linear solver backend: dense or sparse")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func newEngine() *engine.Engine {
	return engine.New(engine.Options{
		Solver:        cfg.Backend(),
		MaxIterations: cfg.Solver.MaxIterations,
		Rules:         cfg.Rules,
		Logic:         cfg.Logic,
	})
}

func loadSchematic(path string) (*schematic.Schematic, error) {
	s, err := schematic.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading schematic: %w", err)
	}
	slog.Debug("schematic loaded", "path", path, "components", len(s.Components), "wires", len(s.Wires))
	return s, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resultError turns an unsuccessful result into the command's error.
func resultError(success bool, msg string) error {
	if success {
		return nil
	}
	return fmt.Errorf("simulation failed: %s", msg)
}
