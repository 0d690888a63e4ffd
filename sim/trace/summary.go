package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDays          int
	TotalTransmissions int
	PeakNewInfections  int
	PeakDay            int
	MeanNewInfections  float64
	UniqueSpreaders    int
	SpreadDistribution map[int]int // source agent → count of agents it infected
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		SpreadDistribution: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalDays = len(st.Days)
	if len(st.Days) > 0 {
		total := 0
		for _, d := range st.Days {
			total += d.NewInfections
			if d.NewInfections > summary.PeakNewInfections {
				summary.PeakNewInfections = d.NewInfections
				summary.PeakDay = d.Day
			}
		}
		summary.MeanNewInfections = float64(total) / float64(len(st.Days))
	}

	for _, inf := range st.Infections {
		summary.SpreadDistribution[inf.Source]++
	}
	summary.TotalTransmissions = len(st.Infections)
	summary.UniqueSpreaders = len(summary.SpreadDistribution)

	return summary
}
