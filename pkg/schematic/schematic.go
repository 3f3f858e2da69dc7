// Package schematic loads and saves schematics: JSON and YAML documents of
// components and wires, and a line-oriented text netlist.
package schematic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/edp1096/toy-circuit/pkg/analysis"
	"github.com/edp1096/toy-circuit/pkg/circuit"
)

type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatNetlist Format = "netlist"
)

// Analyses holds the analysis requests a schematic carries with it.
type Analyses struct {
	OP        bool                       `json:"op,omitempty" yaml:"op,omitempty"`
	Transient *analysis.TransientOptions `json:"transient,omitempty" yaml:"transient,omitempty"`
	AC        *analysis.ACSweepOptions   `json:"ac,omitempty" yaml:"ac,omitempty"`
	DCSweep   []analysis.SweepSource     `json:"dcSweep,omitempty" yaml:"dcSweep,omitempty"`
}

type Schematic struct {
	Title      string              `json:"title,omitempty" yaml:"title,omitempty"`
	Components []circuit.Component `json:"components" yaml:"components"`
	Wires      []circuit.Wire      `json:"wires" yaml:"wires"`
	Analysis   Analyses            `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cir", ".net", ".sp", ".txt":
		return FormatNetlist, nil
	}
	return "", fmt.Errorf("unknown schematic format: %s", path)
}

// Load reads a schematic, choosing the format by extension.
func Load(path string) (*Schematic, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schematic: %w", err)
	}
	defer f.Close()

	s, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Decode(r io.Reader, format Format) (*Schematic, error) {
	switch format {
	case FormatNetlist:
		p, err := NewNetlistParser()
		if err != nil {
			return nil, err
		}
		return p.Parse(r)

	case FormatJSON:
		var s Schematic
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return &s, s.check()

	case FormatYAML:
		var s Schematic
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return &s, s.check()
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

// check rejects unknown component types and duplicate ids; structural
// problems are left to the design rules.
func (s *Schematic) check() error {
	seen := make(map[string]bool, len(s.Components))
	for _, c := range s.Components {
		if !c.Type.Valid() {
			return fmt.Errorf("component %s: unknown type %q", c.ID, c.Type)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate component %s", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

func Encode(w io.Writer, s *Schematic, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("cannot encode %q", format)
}

// Save writes a schematic as JSON or YAML, by extension.
func Save(path string, s *Schematic) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, s, format); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
