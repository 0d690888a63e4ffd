// Package sim provides the agent-based epidemic engine.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - agent.go: the per-agent disease countdown and its stage ranges
//   - population.go: population layout, initial infections, the infected set
//   - simulator.go: the day loop, curve accumulation and termination
//
// # Architecture
//
// One day is two phases over the infected set, always in this order:
//   - progression.go: AdvanceDay counts every infection down and resolves
//     agents at the end of their infection (recovered or susceptible again)
//   - transmission.go: Spread draws each infectious agent's contacts and
//     evaluates transmission; new infections join the set at the end of the day
//
// Configuration is resolved once (config.go, params.go, params_file.go) into
// an immutable Config. All randomness flows from one PartitionedRNG per run
// (rng.go), split into population, progression, contacts and transmission
// streams, so equal seeds replay identically.
//
// # Key Interfaces
//
//   - TransmissionGate: decides whether the ends of a contact can take part
//     in a transmission (pure state ranges, or behavioral attenuation)
//
// Sub-packages:
//   - sim/trace/: per-day and per-transmission recording
package sim
