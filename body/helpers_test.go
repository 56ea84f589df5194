package body

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/zond/anatomy/capacity"
)

func assertClose(t *testing.T, f1, f2, delta float64) {
	t.Helper()
	if math.Abs(f1-f2) > delta {
		t.Errorf("got %v, want %v", f1, f2)
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func caps(k capacity.Kind) capacity.Values {
	return capacity.Of(map[capacity.Kind]float64{k: 1})
}

func attach(t *testing.T, parent *Part, children ...*Part) *Part {
	t.Helper()
	for _, child := range children {
		if err := parent.AddPart(child); err != nil {
			t.Fatal(err)
		}
	}
	return parent
}

// testTree builds a small humanoid:
//
//	Body
//	├── Torso 40 (Heart 10, Lungs 10, Stomach 5)
//	├── Head 10 (LeftEye 10, RightEye 10, Ear 10)
//	├── LeftArm 10, RightArm 10
//	└── LeftLeg 15, RightLeg 15
func testTree(t *testing.T, seed uint64) *Part {
	t.Helper()
	root := NewPart(Attrs{Name: "Body", MaxHealth: 100})
	torso := attach(t, NewPart(Attrs{Name: "Torso", MaxHealth: 40, Coverage: 40, Vital: true}),
		NewPart(Attrs{Name: "Heart", MaxHealth: 15, Coverage: 10, Vital: true, Internal: true, Capacities: caps(capacity.BloodPumping)}),
		NewPart(Attrs{Name: "Lungs", MaxHealth: 15, Coverage: 10, Internal: true, Capacities: caps(capacity.Breathing)}),
		NewPart(Attrs{Name: "Stomach", MaxHealth: 10, Coverage: 5, Internal: true, Capacities: caps(capacity.Digestion)}),
	)
	head := attach(t, NewPart(Attrs{Name: "Head", MaxHealth: 25, Coverage: 10, Vital: true}),
		NewPart(Attrs{Name: "LeftEye", MaxHealth: 5, Coverage: 10, Capacities: caps(capacity.Sight)}),
		NewPart(Attrs{Name: "RightEye", MaxHealth: 5, Coverage: 10, Capacities: caps(capacity.Sight)}),
		NewPart(Attrs{Name: "Ear", MaxHealth: 5, Coverage: 10, Capacities: caps(capacity.Hearing)}),
	)
	attach(t, root,
		torso,
		head,
		NewPart(Attrs{Name: "LeftArm", MaxHealth: 20, Coverage: 10, Capacities: caps(capacity.Manipulation)}),
		NewPart(Attrs{Name: "RightArm", MaxHealth: 20, Coverage: 10, Capacities: caps(capacity.Manipulation)}),
		NewPart(Attrs{Name: "LeftLeg", MaxHealth: 30, Coverage: 15, Capacities: caps(capacity.Moving)}),
		NewPart(Attrs{Name: "RightLeg", MaxHealth: 30, Coverage: 15, Capacities: caps(capacity.Moving)}),
	)
	root.SetRand(seeded(seed))
	root.CalculateEffectiveCoverage()
	return root
}

// baseline is 70 kg with 15% fat and 30% muscle.
var baseline = Composition{Weight: 70, BodyFat: 10.5, Muscle: 21}

func testBody(t *testing.T, seed uint64, opts ...Option) *Body {
	t.Helper()
	b, err := New(testTree(t, seed), baseline, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func mustFind(t *testing.T, root *Part, name string) *Part {
	t.Helper()
	p := root.Find(name)
	if p == nil {
		t.Fatalf("no part %q", name)
	}
	return p
}
