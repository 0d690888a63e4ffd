// Summarizes a run for final reporting: outcome, attack rate and the shape of
// the infection curve.

package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/epidemic-sim/epidemic-sim/sim/trace"
)

// Summary aggregates statistics about a run.
type Summary struct {
	Outcome       trace.Outcome `json:"outcome"`
	Days          int           `json:"days"`
	TotalInfected int           `json:"total_infected"`
	Population    int           `json:"population"`
	AttackRate    float64       `json:"attack_rate"`
	PeakInfected  int           `json:"peak_infected"`
	PeakDay       int           `json:"peak_day"`
	MeanInfected  float64       `json:"mean_infected"`
	Seed          int64         `json:"seed"`
	FinalStages   map[Stage]int `json:"final_stages"`
}

// NewSummary computes the summary of s at its current day.
func NewSummary(s *Simulator) Summary {
	o := s.Outcome()
	sum := Summary{
		Outcome:       o.Outcome,
		Days:          o.Days,
		TotalInfected: o.TotalInfected,
		Population:    o.Population,
		AttackRate:    o.AttackRate(),
		Seed:          int64(s.Key),
		FinalStages:   s.Population.StageCounts(s.Config),
	}
	if len(s.Curve) > 0 {
		curve := make([]float64, len(s.Curve))
		for i, v := range s.Curve {
			curve[i] = float64(v)
		}
		sum.PeakDay = floats.MaxIdx(curve)
		sum.PeakInfected = s.Curve[sum.PeakDay]
		sum.MeanInfected = stat.Mean(curve, nil)
	}
	return sum
}
