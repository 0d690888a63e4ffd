// Package trace provides day-by-day recording of an epidemic run.
// It has no dependencies on sim/ and stores plain data types only.
package trace

// DayRecord captures the state of a run after one day's disease update.
type DayRecord struct {
	Day           int `json:"day"`
	Infected      int `json:"infected"`       // infected-set size after the update
	Resolved      int `json:"resolved"`       // agents that left the set this day
	NewInfections int `json:"new_infections"` // transmissions later the same day
	Population    int `json:"population"`
}

// InfectionRecord captures a single transmission.
type InfectionRecord struct {
	Day             int     `json:"day"`
	Source          int     `json:"source"`
	Target          int     `json:"target"`
	SocialIsolation float64 `json:"social_isolation"` // drawn for the target at infection
}

// Outcome names how a run ended.
type Outcome string

const (
	// OutcomeExtinguished means the infected set emptied.
	OutcomeExtinguished Outcome = "extinguished"
	// OutcomePersisted means the failsafe day limit stopped the run.
	OutcomePersisted Outcome = "persisted"
)

// OutcomeRecord captures the end of a run.
type OutcomeRecord struct {
	Outcome       Outcome `json:"outcome"`
	Days          int     `json:"days"`
	TotalInfected int     `json:"total_infected"`
	Population    int     `json:"population"`
}

// AttackRate returns the fraction of the population ever infected.
func (o OutcomeRecord) AttackRate() float64 {
	if o.Population == 0 {
		return 0
	}
	return float64(o.TotalInfected) / float64(o.Population)
}
