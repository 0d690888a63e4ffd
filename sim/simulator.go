// sim/simulator.go
package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/epidemic-sim/epidemic-sim/sim/trace"
)

// Simulator is the core object that holds the day counter, the population
// state, and the day loop of one run. It owns its generator; independent
// simulators can run concurrently.
type Simulator struct {
	Config     Config
	Key        SimulationKey
	RNG        *PartitionedRNG
	Population *Population
	Infected   *InfectedSet
	Gate       TransmissionGate
	Trace      *trace.SimulationTrace

	// Curve[d] is the infected-set size after day d's update; Curve[0] is the
	// initial infection count.
	Curve []int
	// Day is the number of completed day updates (len(Curve)-1).
	Day int
	// TotalInfected counts every infection event, initial ones included.
	TotalInfected int

	observers []func(trace.DayRecord)
}

// NewSimulator validates cfg, seeds the run and initializes the population.
// The simulator works on a private copy of cfg.
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg = cfg.clone()

	key := KeyFromConfig(cfg)
	rng := NewPartitionedRNG(key)
	pop, inf, err := NewPopulation(cfg, rng.ForSubsystem(SubsystemPopulation))
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		Config:        cfg,
		Key:           key,
		RNG:           rng,
		Population:    pop,
		Infected:      inf,
		Gate:          NewTransmissionGate(cfg.Attenuation),
		Trace:         trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.EffectiveTraceLevel()}),
		Curve:         []int{inf.Len()},
		TotalInfected: inf.Len(),
	}
	logrus.Debugf("[day %04d] %d of %d agents infected (seed=%d)", 0, inf.Len(), pop.Size(), int64(key))
	return s, nil
}

// OnDay registers fn to be called synchronously after every simulated day.
func (s *Simulator) OnDay(fn func(trace.DayRecord)) {
	s.observers = append(s.observers, fn)
}

// Done reports whether the run reached a terminal state: no infections left,
// or the failsafe day limit reached.
func (s *Simulator) Done() bool {
	return s.Infected.Len() == 0 || s.Day >= s.Config.MaxDays
}

// Step simulates one day: the disease update, then, unless the epidemic just
// died out, the day's contacts and transmissions. Returns false without doing
// anything once the run is done.
func (s *Simulator) Step() bool {
	if s.Done() {
		return false
	}
	s.Day++
	day := s.Day

	resolved := s.Population.AdvanceDay(s.Infected, s.Config, s.RNG.ForSubsystem(SubsystemProgression))
	s.Curve = append(s.Curve, s.Infected.Len())

	record := trace.DayRecord{
		Day:        day,
		Infected:   s.Infected.Len(),
		Resolved:   len(resolved),
		Population: s.Population.Size(),
	}
	s.Trace.RecordDay(record)
	logrus.Debugf("[day %04d] %d of %d agents infected", day, record.Infected, record.Population)

	if s.Infected.Len() > 0 {
		newInf := s.Population.Spread(s.Infected, s.Config, s.Gate, s.RNG, func(source, target int) {
			si := s.Population.Agents[target].SocialIsolation
			logrus.Tracef("[day %04d] agent %d infected by agent %d [si=%.3f]", day, target, source, si)
			s.Trace.RecordInfection(trace.InfectionRecord{Day: day, Source: source, Target: target, SocialIsolation: si})
		})
		s.TotalInfected += len(newInf)
		record.NewInfections = len(newInf)
		s.Trace.SetNewInfections(len(newInf))
	}

	for _, fn := range s.observers {
		fn(record)
	}
	return true
}

// Run steps until the run is done and returns its result.
func (s *Simulator) Run() *Result {
	for s.Step() {
	}
	outcome := s.Outcome()
	s.Trace.RecordOutcome(outcome)
	logrus.Info(trace.FormatOutcome(outcome))
	return s.Result()
}

// Outcome describes the current terminal (or in-progress) state.
func (s *Simulator) Outcome() trace.OutcomeRecord {
	o := trace.OutcomeRecord{
		Outcome:       trace.OutcomePersisted,
		Days:          s.Day,
		TotalInfected: s.TotalInfected,
		Population:    s.Population.Size(),
	}
	if s.Infected.Len() == 0 {
		o.Outcome = trace.OutcomeExtinguished
	}
	return o
}

// Result is what a run hands to the presentation layer. Consumers must treat
// it as read-only.
type Result struct {
	Curve   []int                  `json:"infection_curve"`
	Trace   []string               `json:"verbose_logs"`
	Summary Summary                `json:"summary"`
	Records *trace.SimulationTrace `json:"-"`
}

// Result snapshots the run's curve, trace lines and summary.
func (s *Simulator) Result() *Result {
	curve := make([]int, len(s.Curve))
	copy(curve, s.Curve)
	return &Result{
		Curve:   curve,
		Trace:   s.Trace.Lines(),
		Summary: NewSummary(s),
		Records: s.Trace,
	}
}

// RunSimulation runs cfg to completion.
func RunSimulation(cfg Config) (*Result, error) {
	s, err := NewSimulator(cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(), nil
}
