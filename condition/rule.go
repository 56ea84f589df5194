package condition

import "github.com/zond/anatomy"

// Blow describes an applied hit, as seen by the layer deciding which injury it leaves.
type Blow struct {
	Sharp  bool
	Blunt  bool
	Pierce bool
	Burn   bool
	Freeze bool
	// Fraction is the applied damage divided by the MaxHealth of the part.
	Fraction float64
}

// Rule decides which condition, if any, a blow inflicts.
type Rule func(b Blow) Condition

const (
	minInjuryFraction = 0.02
	breakFraction     = 0.4
)

// DefaultRule inflicts an injury whose severity is the fraction of the part that the blow removed.
// Blows removing less than 2% of the part, and blows of no physical or thermal nature, leave nothing.
func DefaultRule(b Blow) Condition {
	if b.Fraction < minInjuryFraction {
		return nil
	}
	severity := anatomy.Clamp(b.Fraction, 0, 1)
	switch {
	case b.Burn:
		return NewInjury(Burn, severity)
	case b.Freeze:
		return NewInjury(Frostbite, severity)
	case b.Sharp || b.Pierce:
		return NewInjury(Cut, severity)
	case b.Blunt && b.Fraction >= breakFraction:
		return NewInjury(Break, severity)
	case b.Blunt:
		return NewInjury(Bruise, severity)
	}
	return nil
}
