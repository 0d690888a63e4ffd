package sim

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
)

// Population is the fixed-size agent collection of one run. Stratified
// populations are laid out as contiguous group blocks in group order.
type Population struct {
	Agents     []Agent
	groupSizes GroupCounts
	offsets    []int // offsets[g] = first index of group g; offsets[len] = size
}

// Size returns the number of agents.
func (p *Population) Size() int { return len(p.Agents) }

// NumGroups returns the number of groups (1 when homogeneous).
func (p *Population) NumGroups() int { return len(p.offsets) - 1 }

// GroupSizes returns the group sizes in per-group form.
func (p *Population) GroupSizes() GroupCounts { return p.groupSizes }

// GroupRange returns the half-open index range [start, end) of group g.
func (p *Population) GroupRange(g int) (start, end int) {
	return p.offsets[g], p.offsets[g+1]
}

// GroupOf recovers the group of flat index i from the group sizes.
func (p *Population) GroupOf(i int) int {
	return sort.SearchInts(p.offsets, i+1) - 1
}

// StageCounts tallies agents per disease stage.
func (p *Population) StageCounts(cfg Config) map[Stage]int {
	counts := map[Stage]int{
		StageSusceptible: 0,
		StageRecovered:   0,
		StageExposed:     0,
		StageInfected:    0,
	}
	for i := range p.Agents {
		counts[p.Agents[i].Stage(cfg)]++
	}
	return counts
}

func newPopulationLayout(sizes GroupCounts) *Population {
	offsets := make([]int, sizes.Len()+1)
	for g := 0; g < sizes.Len(); g++ {
		offsets[g+1] = offsets[g] + sizes.At(g)
	}
	return &Population{
		Agents:     make([]Agent, 0, sizes.Total()),
		groupSizes: PerGroup(sizes.Values()...),
		offsets:    offsets,
	}
}

// NewPopulation builds the initial agents and selects the initial infections.
// Agents are allocated group by group; each independently adopts vaccination
// (vp) and masking (mp). Per-group initial infections are drawn from each
// group's block; a scalar count is drawn from the whole population. A request
// for more infections than agents is an error, never a silent truncation.
func NewPopulation(cfg Config, rng *rand.Rand) (*Population, *InfectedSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	pop := newPopulationLayout(cfg.GroupSizes)
	stratified := cfg.Stratified()
	for g := 0; g < cfg.GroupSizes.Len(); g++ {
		group := NoGroup
		if stratified {
			group = g
		}
		for n := 0; n < cfg.GroupSizes.At(g); n++ {
			pop.Agents = append(pop.Agents, Agent{
				State:                StateSusceptible,
				VaccineEffectiveness: Adopt(rng, cfg.VaccinationProb),
				MaskFrequency:        Adopt(rng, cfg.MaskingProb),
				SocialIsolation:      IsolationUnset,
				Group:                group,
			})
		}
	}

	var initial []int
	var err error
	if cfg.InitialInfected.IsPerGroup() && cfg.InitialInfected.Len() == pop.NumGroups() {
		initial, err = StratifiedSample(rng, cfg.InitialInfected, pop.GroupSizes())
	} else {
		initial, err = StratifiedSample(rng, Scalar(cfg.InitialInfected.Total()), Scalar(pop.Size()))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("selecting initial infections: %w", err)
	}

	// Ascending order keeps the isolation draws independent of sampler order.
	slices.Sort(initial)
	for _, i := range initial {
		pop.Agents[i].infect(cfg, rng)
	}
	return pop, newInfectedSet(initial), nil
}

// InfectedSet holds the indices of agents with state > 0 in ascending order.
// It is maintained incrementally by AdvanceDay and Spread, never rebuilt by
// scanning the population.
type InfectedSet struct {
	members []int
}

func newInfectedSet(idx []int) *InfectedSet {
	members := slices.Clone(idx)
	slices.Sort(members)
	return &InfectedSet{members: slices.Compact(members)}
}

// Len returns the number of infectious agents.
func (s *InfectedSet) Len() int { return len(s.members) }

// Members returns the indices in ascending order.
func (s *InfectedSet) Members() []int { return slices.Clone(s.members) }

// Contains reports whether agent i is in the set.
func (s *InfectedSet) Contains(i int) bool {
	_, found := slices.BinarySearch(s.members, i)
	return found
}

// merge adds newly infected indices, which are disjoint from the set.
func (s *InfectedSet) merge(idx []int) {
	if len(idx) == 0 {
		return
	}
	s.members = append(s.members, idx...)
	slices.Sort(s.members)
}
