package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/epidemic-sim/epidemic-sim/sim"
)

var (
	// CLI flags for the run command
	configPath   string   // YAML configuration file
	logLevel     string   // Log verbosity level
	outputFormat string   // text or json
	mixingRows   []string // per-group mixing weights, "g=w0,w1,..."
)

// paramFlags maps run flags onto configuration keys. Only flags the user
// actually set override the configuration file.
var paramFlags = []struct {
	flag string
	key  string
}{
	{"population", sim.KeyPopulation},
	{"initial-infected", sim.KeyInitialInfected},
	{"max-contacts", sim.KeyMaxContacts},
	{"exposed-days", sim.KeyExposedDays},
	{"infected-days", sim.KeyInfectedDays},
	{"tpe", sim.KeyExposedTransmission},
	{"tpi", sim.KeyInfectedTransmission},
	{"recovery-prob", sim.KeyRecoveryProb},
	{"vaccination-prob", sim.KeyVaccinationProb},
	{"masking-prob", sim.KeyMaskingProb},
	{"asymptomatic-prob", sim.KeyAsymptomaticProb},
	{"isolation-prob", sim.KeyIsolationProb},
	{"max-days", sim.KeyMaxDays},
	{"verbose", sim.KeyVerbose},
	{"seed", sim.KeySeed},
	{"attenuation", sim.KeyAttenuation},
	{"trace-level", sim.KeyTraceLevel},
}

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "epidemic-sim",
	Short: "Agent-based epidemic simulator",
}

// runCmd executes the simulation using parameters from the config file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the epidemic simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(logLevel)

		raw, err := collectParams(cmd, configPath, mixingRows)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		cfg, issues := sim.Resolve(raw)
		if len(issues) > 0 {
			logrus.Warnf("%d configuration value(s) replaced by defaults", len(issues))
		}

		logrus.Infof("Starting simulation with N=%v, I=%v, m=%d, de=%d, di=%d, max=%d",
			cfg.GroupSizes, cfg.InitialInfected, cfg.MaxContacts, cfg.ExposedDays, cfg.InfectedDays, cfg.MaxDays)

		result, err := sim.RunSimulation(cfg)
		if err != nil {
			logrus.Fatalf("Could not start simulation: %v", err)
		}
		if err := writeResult(os.Stdout, result, outputFormat); err != nil {
			logrus.Fatalf("Writing result failed: %v", err)
		}

		logrus.Info("Simulation complete.")
	},
}

// defaultsCmd prints the default configuration as a YAML file
var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Print the default configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		writeParamsToStdout(sim.DefaultConfig().Params())
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setLogLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", name)
	}
	logrus.SetLevel(level)
}

// collectParams layers explicitly-set flags over the configuration file.
// Flag values are passed as strings; Resolve casts them like file values.
func collectParams(cmd *cobra.Command, path string, rows []string) (map[string]any, error) {
	raw := make(map[string]any)
	if path != "" {
		fileParams, err := sim.LoadParamsFile(path)
		if err != nil {
			return nil, err
		}
		raw = fileParams
	}

	for _, pf := range paramFlags {
		if cmd.Flags().Changed(pf.flag) {
			raw[pf.key] = cmd.Flags().Lookup(pf.flag).Value.String()
		}
	}

	for _, row := range rows {
		group, weights, ok := strings.Cut(row, "=")
		if !ok {
			return nil, fmt.Errorf("--mixing %q: want GROUP=W0,W1,...", row)
		}
		raw[strings.TrimSpace(group)] = weights
	}
	return raw, nil
}

// init sets up CLI flags and subcommands
func init() {
	d := sim.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text, json)")

	// Population structure
	runCmd.Flags().String("population", fmt.Sprint(sim.DefaultPopulation), "Population size, or comma-separated group sizes")
	runCmd.Flags().String("initial-infected", fmt.Sprint(sim.DefaultInitialInfected), "Initial infections, or comma-separated per-group counts")
	runCmd.Flags().StringArrayVar(&mixingRows, "mixing", nil, "Mixing weights in percent for one source group, GROUP=W0,W1,... (repeatable)")

	// Disease model
	runCmd.Flags().Int("max-contacts", d.MaxContacts, "Maximum daily contacts per infectious agent")
	runCmd.Flags().Int("exposed-days", d.ExposedDays, "Days in the exposed (pre-symptomatic) state")
	runCmd.Flags().Int("infected-days", d.InfectedDays, "Days in the infected (symptomatic) state")
	runCmd.Flags().Float64("tpe", d.ExposedTransmission, "Transmission probability while exposed")
	runCmd.Flags().Float64("tpi", d.InfectedTransmission, "Transmission probability while infected")
	runCmd.Flags().Float64("recovery-prob", d.RecoveryProb, "Probability of immunity at the end of an infection")

	// Behavior
	runCmd.Flags().Float64("vaccination-prob", d.VaccinationProb, "Probability an agent vaccinates")
	runCmd.Flags().Float64("masking-prob", d.MaskingProb, "Probability an agent masks")
	runCmd.Flags().Float64("asymptomatic-prob", d.AsymptomaticProb, "Probability an infection is asymptomatic")
	runCmd.Flags().Float64("isolation-prob", d.IsolationProb, "Probability a symptomatic agent isolates")
	runCmd.Flags().String("attenuation", string(sim.AttenuationNone), "Transmission attenuation (none, behavioral)")

	// Run control
	runCmd.Flags().Int("max-days", d.MaxDays, "Failsafe simulation limit in days")
	runCmd.Flags().Int64("seed", 0, "Random seed (unset = clock-seeded)")
	runCmd.Flags().Bool("verbose", false, "Record per-day and per-infection trace lines")
	runCmd.Flags().String("trace-level", "none", "Trace level (none, days, infections)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(defaultsCmd)
}
