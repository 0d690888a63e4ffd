package sim

import "math/rand/v2"

// TransmissionGate decides whether the two ends of a contact can take part in
// a transmission at all. The per-stage shedding coin (tpe/tpi) is flipped by
// the engine after both ends pass the gate.
type TransmissionGate interface {
	// Sheds reports whether the source can transmit on this contact.
	Sheds(rng *rand.Rand, src *Agent) bool
	// Receptive reports whether the target can be infected on this contact.
	Receptive(rng *rand.Rand, dst *Agent) bool
}

// NewTransmissionGate returns the gate for the named attenuation.
// Unknown or empty names get StateGate.
func NewTransmissionGate(a Attenuation) TransmissionGate {
	if a == AttenuationBehavioral {
		return BehavioralGate{}
	}
	return StateGate{}
}

// StateGate checks disease state ranges only and draws nothing.
type StateGate struct{}

func (StateGate) Sheds(_ *rand.Rand, src *Agent) bool     { return src.Infectious() }
func (StateGate) Receptive(_ *rand.Rand, dst *Agent) bool { return dst.Susceptible() }

// BehavioralGate additionally flips coins at contact time: the source is
// blocked by its masking or social isolation, the target by its vaccine or
// masking. Coins are only flipped when the state check passes.
type BehavioralGate struct{}

func (BehavioralGate) Sheds(rng *rand.Rand, src *Agent) bool {
	return src.Infectious() &&
		!Flip(rng, src.MaskFrequency) &&
		!Flip(rng, max(src.SocialIsolation, 0))
}

func (BehavioralGate) Receptive(rng *rand.Rand, dst *Agent) bool {
	return dst.Susceptible() &&
		!Flip(rng, dst.VaccineEffectiveness) &&
		!Flip(rng, dst.MaskFrequency)
}
