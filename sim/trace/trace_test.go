package trace

import (
	"testing"
)

func TestSimulationTrace_RecordDay_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for days
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDays})

	// WHEN a day record is recorded
	st.RecordDay(DayRecord{Day: 1, Infected: 3, Resolved: 0, Population: 10})

	// THEN the trace contains one day record with correct data
	if len(st.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(st.Days))
	}
	if st.Days[0].Infected != 3 {
		t.Errorf("expected 3 infected, got %d", st.Days[0].Infected)
	}
}

func TestSimulationTrace_LevelNone_RecordsNothing(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})
	st.RecordDay(DayRecord{Day: 1})
	st.RecordInfection(InfectionRecord{Day: 1, Source: 0, Target: 1})
	st.RecordOutcome(OutcomeRecord{Outcome: OutcomeExtinguished})

	if st.Enabled() {
		t.Error("expected trace to be disabled")
	}
	if len(st.Days) != 0 || len(st.Infections) != 0 || st.Outcome != nil {
		t.Error("expected no records at level none")
	}
	if lines := st.Lines(); len(lines) != 0 {
		t.Errorf("expected no lines, got %v", lines)
	}
}

func TestSimulationTrace_LevelDays_SkipsInfections(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDays})
	st.RecordDay(DayRecord{Day: 1})
	st.RecordInfection(InfectionRecord{Day: 1, Source: 0, Target: 1})

	if len(st.Infections) != 0 {
		t.Errorf("expected no infection records at level days, got %d", len(st.Infections))
	}
}

func TestSimulationTrace_SetNewInfections_UpdatesLastDay(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDays})
	st.SetNewInfections(4) // no days yet: ignored
	st.RecordDay(DayRecord{Day: 1})
	st.RecordDay(DayRecord{Day: 2})
	st.SetNewInfections(4)

	if st.Days[0].NewInfections != 0 || st.Days[1].NewInfections != 4 {
		t.Errorf("expected new infections [0 4], got [%d %d]", st.Days[0].NewInfections, st.Days[1].NewInfections)
	}
}

func TestSimulationTrace_Lines_InterleavesInfections(t *testing.T) {
	// GIVEN two days with transmissions on each
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelInfections})
	st.RecordDay(DayRecord{Day: 1, Infected: 1, Population: 10})
	st.RecordInfection(InfectionRecord{Day: 1, Source: 3, Target: 7, SocialIsolation: 0.25})
	st.RecordDay(DayRecord{Day: 2, Infected: 2, Population: 10})
	st.RecordInfection(InfectionRecord{Day: 2, Source: 7, Target: 2})
	st.RecordOutcome(OutcomeRecord{Outcome: OutcomePersisted, Days: 2, TotalInfected: 3, Population: 10})

	// WHEN rendered
	lines := st.Lines()

	// THEN each day is followed by its own transmissions, then the outcome
	want := []string{
		"Day 1: 1 of 10 agents infected.",
		"  Agent 7 infected by agent 3 [si=0.250].",
		"Day 2: 2 of 10 agents infected.",
		"  Agent 2 infected by agent 7 [si=0.000].",
		"Pandemic persists: 2 days, 3 infecteds, attack rate is 30.0%.",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		record OutcomeRecord
		want   string
	}{
		{OutcomeRecord{Outcome: OutcomeExtinguished, Days: 9, TotalInfected: 1, Population: 10},
			"Pandemic extinguished: 9 days, 1 infecteds, attack rate is 10.0%."},
		{OutcomeRecord{Outcome: OutcomePersisted, Days: 100, TotalInfected: 2, Population: 3},
			"Pandemic persists: 100 days, 2 infecteds, attack rate is 66.7%."},
		{OutcomeRecord{Outcome: OutcomeExtinguished},
			"Pandemic extinguished: 0 days, 0 infecteds, attack rate is 0.0%."},
	}
	for _, tt := range tests {
		if got := FormatOutcome(tt.record); got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, got)
		}
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	for _, level := range []string{"", "none", "days", "infections"} {
		if !IsValidTraceLevel(level) {
			t.Errorf("expected %q to be valid", level)
		}
	}
	for _, level := range []string{"all", "decisions", "DAYS"} {
		if IsValidTraceLevel(level) {
			t.Errorf("expected %q to be invalid", level)
		}
	}
}
