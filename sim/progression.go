package sim

import "math/rand/v2"

// AdvanceDay runs the beginning-of-day disease update over the infected set.
// Agents at state 1 leave the set: recovered (0) with probability rp,
// otherwise susceptible again (-1). Every other member counts down by one.
// Only members are touched; call once per day before that day's transmissions.
// Returns the indices that left the set.
func (p *Population) AdvanceDay(inf *InfectedSet, cfg Config, rng *rand.Rand) []int {
	var left []int
	kept := inf.members[:0]
	for _, i := range inf.members {
		agent := &p.Agents[i]
		switch {
		case agent.State == 1:
			if Flip(rng, cfg.RecoveryProb) {
				agent.State = StateRecovered
			} else {
				agent.State = StateSusceptible
			}
			left = append(left, i)
		case agent.State > 1:
			agent.State--
			kept = append(kept, i)
		}
	}
	inf.members = kept
	return left
}
