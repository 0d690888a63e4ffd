package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalDays != 0 || summary.TotalTransmissions != 0 {
		t.Error("expected zero counts for nil trace")
	}
	if summary.SpreadDistribution == nil {
		t.Error("expected non-nil spread distribution")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelInfections})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalDays != 0 {
		t.Errorf("expected 0 days, got %d", summary.TotalDays)
	}
	if summary.MeanNewInfections != 0 || summary.PeakNewInfections != 0 {
		t.Error("expected 0 new-infection statistics")
	}
	if summary.UniqueSpreaders != 0 || len(summary.SpreadDistribution) != 0 {
		t.Error("expected no spreaders")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN three days of transmissions from two spreaders
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelInfections})
	st.RecordDay(DayRecord{Day: 1, NewInfections: 1})
	st.RecordInfection(InfectionRecord{Day: 1, Source: 0, Target: 4})
	st.RecordDay(DayRecord{Day: 2, NewInfections: 3})
	st.RecordInfection(InfectionRecord{Day: 2, Source: 0, Target: 5})
	st.RecordInfection(InfectionRecord{Day: 2, Source: 4, Target: 6})
	st.RecordInfection(InfectionRecord{Day: 2, Source: 4, Target: 7})
	st.RecordDay(DayRecord{Day: 3, NewInfections: 0})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalDays != 3 {
		t.Errorf("expected 3 days, got %d", summary.TotalDays)
	}
	if summary.TotalTransmissions != 4 {
		t.Errorf("expected 4 transmissions, got %d", summary.TotalTransmissions)
	}
	if summary.PeakNewInfections != 3 || summary.PeakDay != 2 {
		t.Errorf("expected peak 3 on day 2, got %d on day %d", summary.PeakNewInfections, summary.PeakDay)
	}
	if summary.MeanNewInfections < 1.33 || summary.MeanNewInfections > 1.34 {
		t.Errorf("expected mean ~1.333, got %f", summary.MeanNewInfections)
	}
	if summary.UniqueSpreaders != 2 {
		t.Errorf("expected 2 spreaders, got %d", summary.UniqueSpreaders)
	}
	if summary.SpreadDistribution[0] != 2 || summary.SpreadDistribution[4] != 2 {
		t.Errorf("expected 2 infections each from agents 0 and 4, got %v", summary.SpreadDistribution)
	}
}

func TestOutcomeRecord_AttackRate(t *testing.T) {
	if got := (OutcomeRecord{TotalInfected: 5, Population: 20}).AttackRate(); got != 0.25 {
		t.Errorf("expected 0.25, got %f", got)
	}
	if got := (OutcomeRecord{}).AttackRate(); got != 0 {
		t.Errorf("expected 0 for empty population, got %f", got)
	}
}
