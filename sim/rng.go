package sim

import (
	"hash/fnv"
	"math/rand/v2"
	"time"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical curves and final population states.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// KeyFromConfig returns the key for cfg. An unseeded configuration gets a
// clock-derived key; the key is reported in the run summary so the run can
// still be replayed.
func KeyFromConfig(cfg Config) SimulationKey {
	if cfg.Seed != nil {
		return NewSimulationKey(*cfg.Seed)
	}
	return NewSimulationKey(time.Now().UnixNano())
}

// === Subsystem Constants ===

const (
	// SubsystemPopulation drives agent attributes and initial infections.
	SubsystemPopulation = "population"

	// SubsystemProgression drives end-of-infection recovery draws.
	SubsystemProgression = "progression"

	// SubsystemContacts drives daily contact counts and contact selection.
	SubsystemContacts = "contacts"

	// SubsystemTransmission drives transmission coin flips and the
	// asymptomatic/isolation draws of newly infected agents.
	SubsystemTransmission = "transmission"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName), with the name
// hash as the PCG stream selector.
//
// Thread-safety: NOT thread-safe. A run owns its PartitionedRNG exclusively;
// concurrent runs each hold their own.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	nameHash := fnv1a64(name)
	derivedSeed := int64(p.key) ^ nameHash

	rng := rand.New(rand.NewPCG(uint64(derivedSeed), uint64(nameHash)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
