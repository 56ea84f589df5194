package species

import (
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/capacity"
)

var none = capacity.Values{}

func full(kinds ...capacity.Kind) capacity.Values {
	result := capacity.Values{}
	for _, k := range kinds {
		result[k] = 1
	}
	return result
}

func limb(name string, maxHealth, coverage float64, c capacity.Values, parts ...PartConfig) PartConfig {
	return PartConfig{
		Name:       name,
		MaxHealth:  maxHealth,
		Coverage:   coverage,
		Capacities: c,
		Parts:      parts,
	}
}

func organ(name string, maxHealth, coverage float64, vital bool, c capacity.Values) PartConfig {
	return PartConfig{
		Name:       name,
		MaxHealth:  maxHealth,
		Coverage:   coverage,
		Vital:      vital,
		Internal:   true,
		Capacities: c,
	}
}

func vital(p PartConfig) PartConfig {
	p.Vital = true
	return p
}

func head(coverage float64, jaw capacity.Values) PartConfig {
	return vital(limb("Head", 25, coverage, none,
		organ("Brain", 10, 10, true, full(capacity.Consciousness)),
		limb("LeftEye", 5, 7, full(capacity.Sight)),
		limb("RightEye", 5, 7, full(capacity.Sight)),
		limb("LeftEar", 8, 7, full(capacity.Hearing)),
		limb("RightEar", 8, 7, full(capacity.Hearing)),
		limb("Nose", 10, 10, none),
		limb("Jaw", 15, 15, jaw),
	))
}

// Human is an adult of 70 kg at 15% body fat and 30% muscle.
func Human() Config {
	legCaps := full(capacity.Moving)
	return Config{
		Name: "human",
		Root: limb("Body", 100, 0, none,
			vital(limb("Torso", 40, 40, none,
				organ("Heart", 15, 10, true, full(capacity.BloodPumping)),
				organ("LeftLung", 15, 8, false, full(capacity.Breathing)),
				organ("RightLung", 15, 8, false, full(capacity.Breathing)),
				organ("Stomach", 20, 8, false, full(capacity.Digestion)),
				organ("Liver", 20, 8, true, full(capacity.BloodFiltration, capacity.Digestion)),
				organ("LeftKidney", 15, 5, false, full(capacity.BloodFiltration)),
				organ("RightKidney", 15, 5, false, full(capacity.BloodFiltration)),
			)),
			vital(limb("Neck", 25, 8, full(capacity.Eating, capacity.Talking, capacity.Breathing),
				head(80, full(capacity.Eating, capacity.Talking)),
			)),
			limb("LeftArm", 30, 13, none,
				limb("LeftHand", 20, 25, full(capacity.Manipulation)),
			),
			limb("RightArm", 30, 13, none,
				limb("RightHand", 20, 25, full(capacity.Manipulation)),
			),
			limb("LeftLeg", 30, 13, legCaps, limb("LeftFoot", 20, 25, none)),
			limb("RightLeg", 30, 13, legCaps, limb("RightFoot", 20, 25, none)),
		),
		Composition: body.Composition{Weight: 70, BodyFat: 10.5, Muscle: 21},
	}
}

func quadruped(name string, torso, neck, leg, tail float64, jaw capacity.Values, comp body.Composition, coldResistance float64) Config {
	legCaps := full(capacity.Moving)
	return Config{
		Name: name,
		Root: limb("Body", 100, 0, none,
			vital(limb("Torso", 40, torso, none,
				organ("Heart", 15, 10, true, full(capacity.BloodPumping)),
				organ("LeftLung", 15, 10, false, full(capacity.Breathing)),
				organ("RightLung", 15, 10, false, full(capacity.Breathing)),
				organ("Stomach", 20, 10, false, full(capacity.Digestion)),
				organ("Liver", 20, 8, true, full(capacity.BloodFiltration, capacity.Digestion)),
				organ("Kidneys", 15, 6, false, full(capacity.BloodFiltration)),
			)),
			vital(limb("Neck", 25, neck, full(capacity.Eating, capacity.Breathing),
				head(75, jaw),
			)),
			limb("FrontLeftLeg", 25, leg, legCaps),
			limb("FrontRightLeg", 25, leg, legCaps),
			limb("HindLeftLeg", 25, leg, legCaps),
			limb("HindRightLeg", 25, leg, legCaps),
			limb("Tail", 10, tail, none),
		),
		Composition:    comp,
		ColdResistance: coldResistance,
	}
}

// Wolf carries and fights with its jaw.
func Wolf() Config {
	return quadruped("wolf", 45, 10, 10, 5,
		capacity.Of(map[capacity.Kind]float64{capacity.Eating: 1.0, capacity.Manipulation: 0.5, capacity.Talking: 0.2}),
		body.Composition{Weight: 40, BodyFat: 4, Muscle: 16}, 0.4)
}

func Deer() Config {
	return quadruped("deer", 50, 10, 9, 4,
		capacity.Of(map[capacity.Kind]float64{capacity.Eating: 1.0, capacity.Manipulation: 0.3}),
		body.Composition{Weight: 70, BodyFat: 7, Muscle: 28}, 0.3)
}

// Builtin returns fresh copies of every built in species.
func Builtin() []Config {
	return []Config{Human(), Wolf(), Deer()}
}
