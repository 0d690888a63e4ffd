package trace

import "fmt"

// TraceLevel controls the verbosity of run tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDays captures one record per day plus the outcome.
	TraceLevelDays TraceLevel = "days"
	// TraceLevelInfections additionally captures every transmission.
	TraceLevelInfections TraceLevel = "infections"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:       true,
	TraceLevelDays:       true,
	TraceLevelInfections: true,
	"":                   true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects records during a run.
type SimulationTrace struct {
	Config     TraceConfig
	Days       []DayRecord
	Infections []InfectionRecord
	Outcome    *OutcomeRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:     config,
		Days:       make([]DayRecord, 0),
		Infections: make([]InfectionRecord, 0),
	}
}

// Enabled reports whether anything is recorded.
func (st *SimulationTrace) Enabled() bool {
	return st.Config.Level == TraceLevelDays || st.Config.Level == TraceLevelInfections
}

// RecordDay appends a day record.
func (st *SimulationTrace) RecordDay(record DayRecord) {
	if st.Enabled() {
		st.Days = append(st.Days, record)
	}
}

// SetNewInfections updates the new-infection count of the most recent day.
func (st *SimulationTrace) SetNewInfections(n int) {
	if len(st.Days) > 0 {
		st.Days[len(st.Days)-1].NewInfections = n
	}
}

// RecordInfection appends a transmission record at the infections level.
func (st *SimulationTrace) RecordInfection(record InfectionRecord) {
	if st.Config.Level == TraceLevelInfections {
		st.Infections = append(st.Infections, record)
	}
}

// RecordOutcome stores the end-of-run record.
func (st *SimulationTrace) RecordOutcome(record OutcomeRecord) {
	if st.Enabled() {
		st.Outcome = &record
	}
}

// Lines renders the trace as human-readable lines: each day, followed by the
// transmissions of that day, followed by the outcome.
func (st *SimulationTrace) Lines() []string {
	lines := make([]string, 0, len(st.Days)+len(st.Infections)+1)
	next := 0
	for _, d := range st.Days {
		lines = append(lines, fmt.Sprintf("Day %d: %d of %d agents infected.", d.Day, d.Infected, d.Population))
		for next < len(st.Infections) && st.Infections[next].Day <= d.Day {
			inf := st.Infections[next]
			lines = append(lines, fmt.Sprintf("  Agent %d infected by agent %d [si=%.3f].", inf.Target, inf.Source, inf.SocialIsolation))
			next++
		}
	}
	if st.Outcome != nil {
		lines = append(lines, FormatOutcome(*st.Outcome))
	}
	return lines
}

// FormatOutcome renders the end-of-run summary line.
func FormatOutcome(o OutcomeRecord) string {
	verb := "extinguished"
	if o.Outcome == OutcomePersisted {
		verb = "persists"
	}
	return fmt.Sprintf("Pandemic %s: %d days, %d infecteds, attack rate is %3.1f%%.",
		verb, o.Days, o.TotalInfected, 100*o.AttackRate())
}
