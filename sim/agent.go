// Defines the Agent struct that models one simulated individual.
// Tracks the disease countdown and the behavioral attributes that feed the
// optional transmission attenuation.

package sim

import "math/rand/v2"

// Disease countdown values outside the infectious range.
const (
	StateSusceptible = -1
	StateRecovered   = 0
)

// Sentinels for optional agent fields.
const (
	// NoGroup marks agents of a homogeneous (single-group) population.
	NoGroup = -1
	// IsolationUnset marks agents that have never been infected.
	IsolationUnset = -1.0
)

// Stage is the disease stage implied by an agent's countdown state.
type Stage string

const (
	StageSusceptible Stage = "susceptible"
	StageRecovered   Stage = "recovered"
	StageExposed     Stage = "exposed"
	StageInfected    Stage = "infected"
)

// Agent is one simulated individual.
//
// State is a daily countdown:
//
//	-1          susceptible
//	 0          recovered (immune)
//	 1..di      infected: symptomatic, sheds at tpi
//	di+1..di+de exposed: pre-symptomatic, sheds at tpe
//	di+de+1     infected today; enters the exposed range at the next update
type Agent struct {
	State                int
	VaccineEffectiveness float64 // 0 if the agent declined vaccination
	MaskFrequency        float64 // 0 if the agent does not mask
	SocialIsolation      float64 // IsolationUnset until first infection; 0 if asymptomatic
	Group                int     // NoGroup unless the population is stratified
}

// Susceptible reports whether the agent can be infected.
func (a *Agent) Susceptible() bool { return a.State == StateSusceptible }

// Recovered reports whether the agent is immune.
func (a *Agent) Recovered() bool { return a.State == StateRecovered }

// Infectious reports whether the agent is exposed or infected.
func (a *Agent) Infectious() bool { return a.State > 0 }

// Exposed reports whether the agent is pre-symptomatic.
func (a *Agent) Exposed(cfg Config) bool {
	return cfg.InfectedDays < a.State && a.State <= cfg.InfectedDays+cfg.ExposedDays
}

// Symptomatic reports whether the agent is in the infected (symptomatic) range.
func (a *Agent) Symptomatic(cfg Config) bool {
	return 0 < a.State && a.State <= cfg.InfectedDays
}

// Stage classifies the agent's state. The transient just-infected value
// counts as exposed.
func (a *Agent) Stage(cfg Config) Stage {
	switch {
	case a.State < 0:
		return StageSusceptible
	case a.State == StateRecovered:
		return StageRecovered
	case a.State <= cfg.InfectedDays:
		return StageInfected
	default:
		return StageExposed
	}
}

// infect moves a susceptible agent into the just-infected state and draws its
// isolation behavior: asymptomatic agents never isolate, the rest adopt
// isolation with probability ip at a uniform intensity.
func (a *Agent) infect(cfg Config, rng *rand.Rand) {
	a.State = cfg.NewInfectionState()
	if Flip(rng, cfg.AsymptomaticProb) {
		a.SocialIsolation = 0
	} else {
		a.SocialIsolation = Adopt(rng, cfg.IsolationProb)
	}
}
