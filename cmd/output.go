package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nanomed-sim/nanomed-sim/sim"
)

// ValidOutputFormats lists the accepted --output values.
var ValidOutputFormats = map[string]bool{
	"json": true,
	"yaml": true,
}

// reporter prints a "✓" header line followed by a structured report.
type reporter struct {
	w      io.Writer
	format string
}

func (r reporter) report(header string, v any) error {
	if _, err := fmt.Fprintf(r.w, "✓ %s\n", header); err != nil {
		return err
	}
	switch r.format {
	case "yaml":
		enc := yaml.NewEncoder(r.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json report: %w", err)
		}
		_, err = fmt.Fprintln(r.w, string(data))
		return err
	}
}

// concentrationReport renders each tissue concentration as "12.34 μg/mL".
func concentrationReport(dist sim.Biodistribution) map[string]string {
	out := make(map[string]string, len(dist.Tissues))
	for _, t := range dist.Tissues {
		out[t.Tissue] = fmt.Sprintf("%.2f μg/mL", t.ConcentrationUgMl)
	}
	return out
}
