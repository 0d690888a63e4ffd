package sim

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/epidemic-sim/epidemic-sim/sim/trace"
)

// Configuration keys, as used by configuration files and the HTTP API.
const (
	KeyPopulation           = "N"
	KeyInitialInfected      = "I"
	KeyMaxContacts          = "m"
	KeyExposedDays          = "de"
	KeyInfectedDays         = "di"
	KeyExposedTransmission  = "tpe"
	KeyInfectedTransmission = "tpi"
	KeyRecoveryProb         = "rp"
	KeyVaccinationProb      = "vp"
	KeyMaskingProb          = "mp"
	KeyAsymptomaticProb     = "ap"
	KeyIsolationProb        = "ip"
	KeyMaxDays              = "max"
	KeyVerbose              = "verbose"
	KeySeed                 = "seed"
	KeyAttenuation          = "attenuation"
	KeyTraceLevel           = "trace"
)

// ConfigIssue reports one configuration value that was rejected and replaced
// by its default.
type ConfigIssue struct {
	Key    string `json:"key"`
	Value  any    `json:"value,omitempty"`
	Reason string `json:"reason"`
}

func (i ConfigIssue) Error() string {
	if i.Value == nil {
		return fmt.Sprintf("%s: %s", i.Key, i.Reason)
	}
	return fmt.Sprintf("%s=%v: %s", i.Key, i.Value, i.Reason)
}

// resolver accumulates issues while casting raw values.
type resolver struct {
	raw    map[string]any
	issues []ConfigIssue
}

func (r *resolver) report(key string, value any, format string, args ...any) {
	issue := ConfigIssue{Key: key, Value: value, Reason: fmt.Sprintf(format, args...)}
	logrus.Warnf("config: %v; using default", issue)
	r.issues = append(r.issues, issue)
}

// Resolve merges raw with the defaults and returns the resolved configuration.
// Every unknown key, value that cannot be cast, or value outside its domain is
// reported as a ConfigIssue (and logged) and replaced by its default; Resolve
// itself never fails. Integer keys ("0", "1", ...) carry per-group mixing
// weights. Cross-field consistency (I against N) is left to Config.Validate.
func Resolve(raw map[string]any) (Config, []ConfigIssue) {
	cfg := DefaultConfig()
	r := &resolver{raw: raw}

	if v, ok := raw[KeyPopulation]; ok {
		if gc, err := castGroupCounts(v); err != nil {
			r.report(KeyPopulation, v, "%v", err)
		} else if err := validateGroupSizes(gc); err != nil {
			r.report(KeyPopulation, v, "%v", err)
		} else {
			cfg.GroupSizes = gc
		}
	}
	if v, ok := raw[KeyInitialInfected]; ok {
		if gc, err := castGroupCounts(v); err != nil {
			r.report(KeyInitialInfected, v, "%v", err)
		} else if slices.ContainsFunc(gc.values, func(k int) bool { return k < 0 }) {
			r.report(KeyInitialInfected, v, "counts must be non-negative")
		} else {
			cfg.InitialInfected = gc
		}
	}

	r.intField(KeyMaxContacts, &cfg.MaxContacts, 0)
	r.intField(KeyExposedDays, &cfg.ExposedDays, 0)
	r.intField(KeyInfectedDays, &cfg.InfectedDays, 1)
	r.intField(KeyMaxDays, &cfg.MaxDays, 0)

	r.probField(KeyExposedTransmission, &cfg.ExposedTransmission)
	r.probField(KeyInfectedTransmission, &cfg.InfectedTransmission)
	r.probField(KeyRecoveryProb, &cfg.RecoveryProb)
	r.probField(KeyVaccinationProb, &cfg.VaccinationProb)
	r.probField(KeyMaskingProb, &cfg.MaskingProb)
	r.probField(KeyAsymptomaticProb, &cfg.AsymptomaticProb)
	r.probField(KeyIsolationProb, &cfg.IsolationProb)

	if v, ok := raw[KeyVerbose]; ok {
		if b, err := castBool(v); err != nil {
			r.report(KeyVerbose, v, "%v", err)
		} else {
			cfg.Verbose = b
		}
	}
	if v, ok := raw[KeySeed]; ok && v != nil {
		if seed, err := castInt64(v); err != nil {
			r.report(KeySeed, v, "%v", err)
		} else {
			cfg.Seed = &seed
		}
	}
	if v, ok := raw[KeyAttenuation]; ok {
		if s, isString := v.(string); !isString || !IsValidAttenuation(s) {
			r.report(KeyAttenuation, v, "valid: none, behavioral")
		} else if s != "" {
			cfg.Attenuation = Attenuation(s)
		}
	}
	if v, ok := raw[KeyTraceLevel]; ok {
		if s, isString := v.(string); !isString || !trace.IsValidTraceLevel(s) {
			r.report(KeyTraceLevel, v, "valid: none, days, infections")
		} else if s != "" {
			cfg.TraceLevel = trace.TraceLevel(s)
		}
	}

	known := map[string]bool{
		KeyPopulation: true, KeyInitialInfected: true, KeyMaxContacts: true,
		KeyExposedDays: true, KeyInfectedDays: true, KeyExposedTransmission: true,
		KeyInfectedTransmission: true, KeyRecoveryProb: true, KeyVaccinationProb: true,
		KeyMaskingProb: true, KeyAsymptomaticProb: true, KeyIsolationProb: true,
		KeyMaxDays: true, KeyVerbose: true, KeySeed: true, KeyAttenuation: true,
		KeyTraceLevel: true,
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if known[key] {
			continue
		}
		g, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			r.report(key, nil, "unknown configuration key")
			continue
		}
		row, err := castFloatSlice(raw[key])
		if err != nil {
			r.report(key, raw[key], "mixing row: %v", err)
			continue
		}
		if err := validateMixingRow(g, row, cfg.NumGroups()); err != nil {
			r.report(key, raw[key], "%v", err)
			continue
		}
		if cfg.Mixing == nil {
			cfg.Mixing = make(map[int][]float64)
		}
		cfg.Mixing[g] = row
	}

	return cfg, r.issues
}

func (r *resolver) intField(key string, dst *int, min int) {
	v, ok := r.raw[key]
	if !ok {
		return
	}
	n, err := castInt(v)
	if err != nil {
		r.report(key, v, "%v", err)
		return
	}
	if n < min {
		r.report(key, v, "must be at least %d", min)
		return
	}
	*dst = n
}

func (r *resolver) probField(key string, dst *float64) {
	v, ok := r.raw[key]
	if !ok {
		return
	}
	p, err := castFloat(v)
	if err != nil {
		r.report(key, v, "%v", err)
		return
	}
	if err := validateProbability(key, p); err != nil {
		r.report(key, v, "%v", err)
		return
	}
	*dst = p
}

func validateGroupSizes(gc GroupCounts) error {
	if gc.Len() == 0 {
		return fmt.Errorf("at least one group is required")
	}
	if slices.ContainsFunc(gc.values, func(n int) bool { return n < 0 }) {
		return fmt.Errorf("group sizes must be non-negative")
	}
	if gc.Total() == 0 {
		return fmt.Errorf("population must contain at least one agent")
	}
	return nil
}

// === casting ===

func castInt(v any) (int, error) {
	n, err := castInt64(v)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return 0, fmt.Errorf("integer %d out of range", n)
	}
	return int(n), nil
}

func castInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("integer %d out of range", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.Abs(x) > 1<<53 {
			return 0, fmt.Errorf("expected an integer, got %v", x)
		}
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func castFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func castBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("expected true or false, got %q", x)
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

// castGroupCounts accepts an integer (scalar), a list of integers, or a
// comma-separated string (per group).
func castGroupCounts(v any) (GroupCounts, error) {
	switch x := v.(type) {
	case []int:
		return PerGroup(x...), nil
	case []any:
		ns := make([]int, len(x))
		for i, item := range x {
			n, err := castInt(item)
			if err != nil {
				return GroupCounts{}, fmt.Errorf("entry %d: %w", i, err)
			}
			ns[i] = n
		}
		return PerGroup(ns...), nil
	case string:
		if !strings.Contains(x, ",") {
			n, err := castInt(x)
			if err != nil {
				return GroupCounts{}, err
			}
			return Scalar(n), nil
		}
		parts := strings.Split(x, ",")
		ns := make([]int, len(parts))
		for i, part := range parts {
			n, err := castInt(part)
			if err != nil {
				return GroupCounts{}, fmt.Errorf("entry %d: %w", i, err)
			}
			ns[i] = n
		}
		return PerGroup(ns...), nil
	default:
		n, err := castInt(v)
		if err != nil {
			return GroupCounts{}, err
		}
		return Scalar(n), nil
	}
}

func castFloatSlice(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return slices.Clone(x), nil
	case []any:
		out := make([]float64, len(x))
		for i, item := range x {
			f, err := castFloat(item)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	case string:
		parts := strings.Split(x, ",")
		out := make([]float64, len(parts))
		for i, part := range parts {
			f, err := castFloat(part)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of weights, got %T", v)
	}
}
