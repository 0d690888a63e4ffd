package sim

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/epidemic-sim/epidemic-sim/sim/trace"
)

// GroupCounts is a count that is either a single value for the whole
// population or one value per subpopulation group. Both forms normalize to a
// slice (length 1 for a scalar), so the engine never branches on the form
// except where the form itself selects behavior (sampling modes).
type GroupCounts struct {
	values   []int
	perGroup bool
}

// Scalar returns a homogeneous count.
func Scalar(n int) GroupCounts {
	return GroupCounts{values: []int{n}}
}

// PerGroup returns one count per group, in group order.
func PerGroup(ns ...int) GroupCounts {
	return GroupCounts{values: slices.Clone(ns), perGroup: true}
}

// IsPerGroup reports whether the count was given per group.
func (c GroupCounts) IsPerGroup() bool { return c.perGroup }

// Len returns the number of entries (1 for a scalar).
func (c GroupCounts) Len() int { return len(c.values) }

// At returns entry i.
func (c GroupCounts) At(i int) int { return c.values[i] }

// Values returns a copy of the normalized entries.
func (c GroupCounts) Values() []int { return slices.Clone(c.values) }

// Total returns the sum of all entries.
func (c GroupCounts) Total() int {
	total := 0
	for _, v := range c.values {
		total += v
	}
	return total
}

// Equal reports whether c and o have the same form and entries.
func (c GroupCounts) Equal(o GroupCounts) bool {
	return c.perGroup == o.perGroup && slices.Equal(c.values, o.values)
}

func (c GroupCounts) String() string {
	if !c.perGroup && len(c.values) == 1 {
		return fmt.Sprint(c.values[0])
	}
	return fmt.Sprint(c.values)
}

// value returns the scalar or slice form for serialization.
func (c GroupCounts) value() any {
	if !c.perGroup && len(c.values) == 1 {
		return c.values[0]
	}
	return slices.Clone(c.values)
}

// MarshalJSON writes a scalar as a number and a per-group count as an array.
func (c GroupCounts) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value())
}

// MarshalYAML writes a scalar as an int node and a per-group count as a sequence.
func (c GroupCounts) MarshalYAML() (any, error) {
	return c.value(), nil
}

// UnmarshalYAML accepts an int, a sequence of ints, or the comma-separated
// string form "5,5,5".
func (c *GroupCounts) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := castGroupCounts(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// UnmarshalJSON accepts a number or an array of numbers.
func (c *GroupCounts) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := castGroupCounts(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Attenuation names a TransmissionGate implementation.
type Attenuation string

const (
	// AttenuationNone gates transmission on disease state alone.
	AttenuationNone Attenuation = "none"
	// AttenuationBehavioral also flips the mask, vaccine and isolation coins.
	AttenuationBehavioral Attenuation = "behavioral"
)

// validAttenuations maps accepted attenuation names.
var validAttenuations = map[Attenuation]bool{
	AttenuationNone:       true,
	AttenuationBehavioral: true,
	"":                    true, // empty defaults to none
}

// IsValidAttenuation returns true if the given name is a recognized attenuation.
func IsValidAttenuation(name string) bool {
	return validAttenuations[Attenuation(name)]
}

// Config is the fully resolved configuration of one run. Build it with
// DefaultConfig or Resolve; the simulator keeps its own deep copy, so later
// changes to a Config value never reach a running simulation.
type Config struct {
	GroupSizes           GroupCounts // N: population size, or one size per group
	InitialInfected      GroupCounts // I: initial infections, total or per group
	MaxContacts          int         // m: daily contacts drawn uniformly from 0..m
	ExposedDays          int         // de: days in the exposed (pre-symptomatic) range
	InfectedDays         int         // di: days in the infected (symptomatic) range
	ExposedTransmission  float64     // tpe: shedding probability while exposed
	InfectedTransmission float64     // tpi: shedding probability while infected
	RecoveryProb         float64     // rp: probability of immunity at end of infection
	VaccinationProb      float64     // vp: probability an agent vaccinates
	MaskingProb          float64     // mp: probability an agent masks
	AsymptomaticProb     float64     // ap: probability a new infection is asymptomatic
	IsolationProb        float64     // ip: probability a symptomatic agent isolates
	MaxDays              int         // max: failsafe day limit
	Verbose              bool
	Seed                 *int64 // nil = clock-seeded run

	// Mixing maps a source group to its contact weights (percent) over all
	// target groups. Groups with no row mix homogeneously.
	Mixing map[int][]float64

	Attenuation Attenuation
	TraceLevel  trace.TraceLevel
}

// Default values for every configuration key.
const (
	DefaultPopulation           = 100
	DefaultInitialInfected      = 1
	DefaultMaxContacts          = 4
	DefaultExposedDays          = 3
	DefaultInfectedDays         = 5
	DefaultExposedTransmission  = 0.01
	DefaultInfectedTransmission = 0.02
	DefaultRecoveryProb         = 0.5
	DefaultVaccinationProb      = 0.9
	DefaultMaskingProb          = 0.3
	DefaultAsymptomaticProb     = 0.3
	DefaultIsolationProb        = 0.4
	DefaultMaxDays              = 100
)

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		GroupSizes:           Scalar(DefaultPopulation),
		InitialInfected:      Scalar(DefaultInitialInfected),
		MaxContacts:          DefaultMaxContacts,
		ExposedDays:          DefaultExposedDays,
		InfectedDays:         DefaultInfectedDays,
		ExposedTransmission:  DefaultExposedTransmission,
		InfectedTransmission: DefaultInfectedTransmission,
		RecoveryProb:         DefaultRecoveryProb,
		VaccinationProb:      DefaultVaccinationProb,
		MaskingProb:          DefaultMaskingProb,
		AsymptomaticProb:     DefaultAsymptomaticProb,
		IsolationProb:        DefaultIsolationProb,
		MaxDays:              DefaultMaxDays,
		Attenuation:          AttenuationNone,
		TraceLevel:           trace.TraceLevelNone,
	}
}

// WithSeed returns a copy of c seeded with seed.
func (c Config) WithSeed(seed int64) Config {
	c.Seed = &seed
	return c
}

// NumGroups returns the number of subpopulation groups (1 when homogeneous).
func (c Config) NumGroups() int {
	return c.GroupSizes.Len()
}

// Stratified reports whether the population is split into more than one group.
func (c Config) Stratified() bool {
	return c.GroupSizes.Len() > 1
}

// NewInfectionState is the transient state assigned at the moment of infection.
func (c Config) NewInfectionState() int {
	return c.InfectedDays + c.ExposedDays + 1
}

// EffectiveTraceLevel folds the verbose flag into the trace level.
func (c Config) EffectiveTraceLevel() trace.TraceLevel {
	if c.Verbose && (c.TraceLevel == "" || c.TraceLevel == trace.TraceLevelNone) {
		return trace.TraceLevelInfections
	}
	if c.TraceLevel == "" {
		return trace.TraceLevelNone
	}
	return c.TraceLevel
}

// clone returns a deep copy of c.
func (c Config) clone() Config {
	out := c
	out.GroupSizes = GroupCounts{values: c.GroupSizes.Values(), perGroup: c.GroupSizes.perGroup}
	out.InitialInfected = GroupCounts{values: c.InitialInfected.Values(), perGroup: c.InitialInfected.perGroup}
	if c.Seed != nil {
		seed := *c.Seed
		out.Seed = &seed
	}
	if c.Mixing != nil {
		out.Mixing = make(map[int][]float64, len(c.Mixing))
		for g, row := range c.Mixing {
			out.Mixing[g] = slices.Clone(row)
		}
	}
	return out
}

// Validate checks the internal consistency of the configuration.
func (c Config) Validate() error {
	if c.GroupSizes.Len() == 0 {
		return fmt.Errorf("N must name at least one group")
	}
	for g, n := range c.GroupSizes.values {
		if n < 0 {
			return fmt.Errorf("N[%d] must be non-negative, got %d", g, n)
		}
	}
	if c.GroupSizes.Total() == 0 {
		return fmt.Errorf("population must contain at least one agent")
	}
	for g, k := range c.InitialInfected.values {
		if k < 0 {
			return fmt.Errorf("I[%d] must be non-negative, got %d", g, k)
		}
	}
	if c.InitialInfected.IsPerGroup() {
		if c.InitialInfected.Len() != c.GroupSizes.Len() {
			return fmt.Errorf("I has %d groups but N has %d: %w",
				c.InitialInfected.Len(), c.GroupSizes.Len(), ErrShapeMismatch)
		}
		for g := range c.InitialInfected.values {
			if c.InitialInfected.At(g) > c.GroupSizes.At(g) {
				return fmt.Errorf("I[%d]=%d exceeds group size %d: %w",
					g, c.InitialInfected.At(g), c.GroupSizes.At(g), ErrSampleTooLarge)
			}
		}
	} else if c.InitialInfected.Len() != 1 {
		return fmt.Errorf("I must be a single count or per-group counts")
	} else if c.InitialInfected.Total() > c.GroupSizes.Total() {
		return fmt.Errorf("I=%d exceeds population size %d: %w",
			c.InitialInfected.Total(), c.GroupSizes.Total(), ErrSampleTooLarge)
	}
	if c.MaxContacts < 0 {
		return fmt.Errorf("m must be non-negative, got %d", c.MaxContacts)
	}
	if c.ExposedDays < 0 {
		return fmt.Errorf("de must be non-negative, got %d", c.ExposedDays)
	}
	if c.InfectedDays < 1 {
		return fmt.Errorf("di must be at least 1, got %d", c.InfectedDays)
	}
	if c.MaxDays < 0 {
		return fmt.Errorf("max must be non-negative, got %d", c.MaxDays)
	}
	probs := []struct {
		name string
		val  float64
	}{
		{"tpe", c.ExposedTransmission},
		{"tpi", c.InfectedTransmission},
		{"rp", c.RecoveryProb},
		{"vp", c.VaccinationProb},
		{"mp", c.MaskingProb},
		{"ap", c.AsymptomaticProb},
		{"ip", c.IsolationProb},
	}
	for _, p := range probs {
		if err := validateProbability(p.name, p.val); err != nil {
			return err
		}
	}
	for _, g := range slices.Sorted(maps.Keys(c.Mixing)) {
		if err := validateMixingRow(g, c.Mixing[g], c.NumGroups()); err != nil {
			return err
		}
	}
	if !validAttenuations[c.Attenuation] {
		return fmt.Errorf("unknown attenuation %q; valid: none, behavioral", c.Attenuation)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q; valid: none, days, infections", c.TraceLevel)
	}
	return nil
}

func validateProbability(name string, val float64) error {
	if val != val || val < 0 || val > 1 {
		return fmt.Errorf("%s must be a probability in [0, 1], got %v", name, val)
	}
	return nil
}

func validateMixingRow(g int, row []float64, groups int) error {
	if g < 0 || g >= groups {
		return fmt.Errorf("mixing row for group %d but population has %d groups", g, groups)
	}
	if len(row) != groups {
		return fmt.Errorf("mixing row %d has %d weights, want %d: %w", g, len(row), groups, ErrShapeMismatch)
	}
	for target, w := range row {
		if w != w || w < 0 {
			return fmt.Errorf("mixing weight %d->%d must be non-negative, got %v", g, target, w)
		}
	}
	return nil
}

// Params renders c with the configuration-file key names, suitable for
// writing back out as YAML or JSON and for feeding Resolve.
func (c Config) Params() map[string]any {
	params := map[string]any{
		KeyPopulation:           c.GroupSizes.value(),
		KeyInitialInfected:      c.InitialInfected.value(),
		KeyMaxContacts:          c.MaxContacts,
		KeyExposedDays:          c.ExposedDays,
		KeyInfectedDays:         c.InfectedDays,
		KeyExposedTransmission:  c.ExposedTransmission,
		KeyInfectedTransmission: c.InfectedTransmission,
		KeyRecoveryProb:         c.RecoveryProb,
		KeyVaccinationProb:      c.VaccinationProb,
		KeyMaskingProb:          c.MaskingProb,
		KeyAsymptomaticProb:     c.AsymptomaticProb,
		KeyIsolationProb:        c.IsolationProb,
		KeyMaxDays:              c.MaxDays,
		KeyVerbose:              c.Verbose,
		KeyAttenuation:          string(c.Attenuation),
		KeyTraceLevel:           string(c.TraceLevel),
	}
	if c.Seed != nil {
		params[KeySeed] = *c.Seed
	}
	for g, row := range c.Mixing {
		params[fmt.Sprint(g)] = slices.Clone(row)
	}
	return params
}
