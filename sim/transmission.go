package sim

import (
	"math"
	"math/rand/v2"
)

// InfectionFunc observes one transmission from source to target.
type InfectionFunc func(source, target int)

// Spread runs one day of contacts over the infected set. Members are visited
// in ascending index order; each draws a contact count uniformly from 0..m and
// that many distinct contacts, and every contact is evaluated for
// transmission. New infections are merged into inf only after all members have
// been processed, so nobody infected today transmits today. Returns the newly
// infected indices in infection order.
func (p *Population) Spread(inf *InfectedSet, cfg Config, gate TransmissionGate, rngs *PartitionedRNG, observe InfectionFunc) []int {
	contactRNG := rngs.ForSubsystem(SubsystemContacts)
	transmissionRNG := rngs.ForSubsystem(SubsystemTransmission)

	var newInf []int
	for _, i := range inf.members {
		src := &p.Agents[i]
		for _, j := range p.contacts(i, cfg, contactRNG) {
			dst := &p.Agents[j]
			if !transmits(src, dst, cfg, gate, transmissionRNG) {
				continue
			}
			dst.infect(cfg, transmissionRNG)
			newInf = append(newInf, j)
			if observe != nil {
				observe(i, j)
			}
		}
	}
	inf.merge(newInf)
	return newInf
}

// transmits evaluates
// infectious(i) && susceptible(j) && ((exposed(i) && flip(tpe)) || (infected(i) && flip(tpi))).
func transmits(src, dst *Agent, cfg Config, gate TransmissionGate, rng *rand.Rand) bool {
	if !gate.Sheds(rng, src) || !gate.Receptive(rng, dst) {
		return false
	}
	if src.Exposed(cfg) && Flip(rng, cfg.ExposedTransmission) {
		return true
	}
	return src.Symptomatic(cfg) && Flip(rng, cfg.InfectedTransmission)
}

// contacts draws agent i's contacts for the day. The count is uniform on 0..m,
// capped at the population size. When i's group has a mixing row, the count is
// split across target groups by percentage weight (floored, capped at each
// group's size) and drawn per group; otherwise contacts are drawn uniformly
// from the whole population.
func (p *Population) contacts(i int, cfg Config, rng *rand.Rand) []int {
	c := min(rng.IntN(cfg.MaxContacts+1), p.Size())

	if cfg.Stratified() {
		if row, ok := cfg.Mixing[p.Agents[i].Group]; ok && len(row) == p.NumGroups() {
			ks := make([]int, len(row))
			for g, weight := range row {
				start, end := p.GroupRange(g)
				ks[g] = min(int(math.Floor(float64(c)*weight/100)), end-start)
			}
			draw, _ := StratifiedSample(rng, PerGroup(ks...), p.GroupSizes())
			return draw
		}
	}

	draw, _ := StratifiedSample(rng, Scalar(c), Scalar(p.Size()))
	return draw
}
