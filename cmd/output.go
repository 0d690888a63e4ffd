package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/epidemic-sim/epidemic-sim/sim"
)

// writeResult prints the curve, the trace lines and the summary of a run.
func writeResult(w io.Writer, result *sim.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text", "":
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown output format %q; valid: text, json", format)
	}
}

func writeText(w io.Writer, result *sim.Result) error {
	if _, err := fmt.Fprintf(w, "Infection Curve: %v\n", result.Curve); err != nil {
		return err
	}
	for _, line := range result.Trace {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	s := result.Summary
	fmt.Fprintln(w, "=== Simulation Summary ===")
	fmt.Fprintf(w, "Outcome              : %s\n", s.Outcome)
	fmt.Fprintf(w, "Days                 : %d\n", s.Days)
	fmt.Fprintf(w, "Total Infected       : %d of %d\n", s.TotalInfected, s.Population)
	fmt.Fprintf(w, "Attack Rate          : %.1f%%\n", 100*s.AttackRate)
	fmt.Fprintf(w, "Peak Infected        : %d (day %d)\n", s.PeakInfected, s.PeakDay)
	fmt.Fprintf(w, "Mean Active          : %.2f\n", s.MeanInfected)
	for _, stage := range slices.Sorted(maps.Keys(s.FinalStages)) {
		fmt.Fprintf(w, "Final %-14s : %d\n", stage, s.FinalStages[stage])
	}
	_, err := fmt.Fprintf(w, "Seed                 : %d\n", s.Seed)
	return err
}

func writeParamsToStdout(params map[string]any) {
	data, err := yaml.Marshal(params)
	if err != nil {
		logrus.Fatalf("YAML marshal failed: %v", err)
	}
	fmt.Print(string(data))
}
