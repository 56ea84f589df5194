package body

import (
	"math"

	"github.com/zond/anatomy/capacity"
)

// Abilities are the derived attributes consumed by combat, survival and AI.
type Abilities struct {
	Strength       float64
	Speed          float64
	Vitality       float64
	Perception     float64
	ColdResistance float64
}

func (b *Body) Abilities() Abilities {
	return Abilities{
		Strength:       b.Strength(),
		Speed:          b.Speed(),
		Vitality:       b.Vitality(),
		Perception:     b.Perception(),
		ColdResistance: b.ColdResistance(),
	}
}

func (b *Body) Strength() float64 {
	musclePct := b.MusclePct()
	var muscleContribution float64
	switch {
	case musclePct < 0.2:
		muscleContribution = musclePct * 2.5
	case musclePct < 0.4:
		muscleContribution = 0.5 + (musclePct-0.2)*1.0
	default:
		muscleContribution = 0.7 + (musclePct-0.4)*0.5
	}
	energyFactor := min(b.Capacity(capacity.BloodPumping), 1.0)
	fatPenalty := 0.0
	if fatPct := b.FatPct(); fatPct < 0.05 {
		fatPenalty = (0.05 - fatPct) * 3.0
	}
	return b.Capacity(capacity.Manipulation) * (0.3 + muscleContribution*energyFactor - fatPenalty)
}

func (b *Body) Speed() float64 {
	muscleBonus := min(b.MusclePct()*0.5, 0.2)
	fatPenalty := 0.0
	if fatPct := b.FatPct(); fatPct > 0.1 {
		fatPenalty = (fatPct - 0.1) * 1.2
	}
	weightRatio := 0.0
	if w := b.Weight(); w > 0 {
		weightRatio = b.baseWeight / w
	}
	return b.Capacity(capacity.Moving) * (1 + muscleBonus - fatPenalty) * math.Pow(weightRatio, 0.7)
}

func (b *Body) Vitality() float64 {
	fatPct := b.FatPct()
	var fatContribution float64
	switch {
	case fatPct < 0.1:
		fatContribution = fatPct * 0.5
	case fatPct <= 0.25:
		fatContribution = 0.05
	default:
		fatContribution = 0.05 - (fatPct-0.25)*0.1
	}
	organs := (b.Capacity(capacity.Breathing) + b.Capacity(capacity.BloodPumping) + b.Capacity(capacity.Digestion)) / 3
	return organs * (0.7 + 0.25*b.MusclePct() + fatContribution)
}

func (b *Body) Perception() float64 {
	return (b.Capacity(capacity.Sight) + b.Capacity(capacity.Hearing)) / 2
}

func (b *Body) ColdResistance() float64 {
	fatPct := b.FatPct()
	var fatInsulation float64
	switch {
	case fatPct < 0.05:
		fatInsulation = (fatPct / 0.05) * 0.1
	case fatPct <= 0.15:
		fatInsulation = 0.1 + ((fatPct-0.05)/0.1)*0.15
	default:
		fatInsulation = 0.25 + (fatPct-0.15)*0.15
	}
	return b.baseColdResistance + fatInsulation
}
