package body

import (
	"github.com/pkg/errors"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/condition"
)

// PartState is the mutable state of one part.
type PartState struct {
	Name       string
	Health     float64
	Conditions []condition.State
}

// Snapshot is the mutable state of a body, for an external save layer.
// The tree structure itself comes from the species that built the body.
type Snapshot struct {
	BodyFat              float64
	Muscle               float64
	BaseWeight           float64
	CoreTemperature      float64
	TargetMetabolismRate float64
	Parts                []PartState
}

type stater interface {
	State() condition.State
}

// Snapshot captures the body. Conditions that can't report a condition.State are left out.
func (b *Body) Snapshot() Snapshot {
	s := Snapshot{
		BodyFat:              b.bodyFat,
		Muscle:               b.muscle,
		BaseWeight:           b.baseWeight,
		CoreTemperature:      b.coreTemperature,
		TargetMetabolismRate: b.targetMetabolismRate,
	}
	for p := range b.root.Walk() {
		ps := PartState{
			Name:   p.name,
			Health: p.health,
		}
		for _, c := range p.conditions {
			if st, ok := c.(stater); ok {
				ps.Conditions = append(ps.Conditions, st.State())
			}
		}
		s.Parts = append(s.Parts, ps)
	}
	return s
}

// Restore overwrites the body with s. Parts missing from s keep their state.
func (b *Body) Restore(s Snapshot) error {
	for _, ps := range s.Parts {
		if b.Part(ps.Name) == nil {
			return errors.Wrapf(ErrUnknownPart, "restoring %q", ps.Name)
		}
	}
	if s.BaseWeight < 0 {
		return errors.Errorf("negative base weight %v", s.BaseWeight)
	}
	b.SetBodyFat(s.BodyFat)
	b.SetMuscle(s.Muscle)
	b.baseWeight = s.BaseWeight
	b.coreTemperature = s.CoreTemperature
	b.targetMetabolismRate = s.TargetMetabolismRate
	for _, ps := range s.Parts {
		p := b.Part(ps.Name)
		p.health = anatomy.Clamp(ps.Health, 0, p.maxHealth)
		p.conditions = nil
		for _, cs := range ps.Conditions {
			p.conditions = append(p.conditions, condition.FromState(cs))
		}
	}
	return nil
}
