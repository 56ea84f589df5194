package body

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/anatomy/capacity"
	"github.com/zond/anatomy/condition"
	"github.com/zond/anatomy/weighted"
)

func TestAddPartStructuralErrors(t *testing.T) {
	root := NewPart(Attrs{Name: "Root", MaxHealth: 10})
	child := NewPart(Attrs{Name: "Child", MaxHealth: 10, Coverage: 50})
	grandchild := NewPart(Attrs{Name: "Grandchild", MaxHealth: 10, Coverage: 50})
	attach(t, child, grandchild)
	attach(t, root, child)

	if err := root.AddPart(root); !errors.Is(err, ErrCycle) {
		t.Errorf("attaching to self: got %v, want ErrCycle", err)
	}
	if err := grandchild.AddPart(root); !errors.Is(err, ErrCycle) {
		t.Errorf("attaching an ancestor: got %v, want ErrCycle", err)
	}
	if err := root.AddPart(grandchild); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("reattaching within the tree: got %v, want ErrAlreadyAttached", err)
	}
	other := NewPart(Attrs{Name: "Other", MaxHealth: 10})
	if err := other.AddPart(child); !errors.Is(err, ErrAlreadyAttached) {
		t.Errorf("stealing a child: got %v, want ErrAlreadyAttached", err)
	}
	if err := root.AddPart(NewPart(Attrs{Name: "Child", MaxHealth: 1})); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("duplicate name: got %v, want ErrDuplicateName", err)
	}
	if err := root.AddPart(nil); err == nil {
		t.Errorf("attaching nil should fail")
	}
	if grandchild.Parent() != child || child.Parent() != root || root.Parent() != nil {
		t.Errorf("failed attachments corrupted the parent links")
	}
	if len(root.Children()) != 1 || len(child.Children()) != 1 {
		t.Errorf("failed attachments corrupted the child lists")
	}
}

func TestAddPartMergesArena(t *testing.T) {
	root := testTree(t, 1)
	seen := map[PartID]bool{}
	count := 0
	for p := range root.Walk() {
		if p.Root() != root {
			t.Errorf("%q has root %q", p.Name(), p.Root().Name())
		}
		if seen[p.ID()] {
			t.Errorf("duplicate id %v", p.ID())
		}
		seen[p.ID()] = true
		count++
		for _, c := range p.Children() {
			if c.Parent() != p {
				t.Errorf("%q lists %q as child, but its parent is %v", p.Name(), c.Name(), c.Parent())
			}
		}
	}
	if count != 13 {
		t.Errorf("walked %v parts, want 13", count)
	}
	if got := mustFind(t, root, "Heart").Parent().Name(); got != "Torso" {
		t.Errorf("Heart parent is %q, want Torso", got)
	}
}

func TestEffectiveCoverage(t *testing.T) {
	root := testTree(t, 1)
	if root.EffectiveCoverage() != 1 {
		t.Errorf("root effective coverage %v, want 1", root.EffectiveCoverage())
	}
	for p := range root.Walk() {
		if parent := p.Parent(); parent != nil {
			assertClose(t, p.EffectiveCoverage(), p.Coverage()/100*parent.EffectiveCoverage(), 1e-12)
		}
	}
	assertClose(t, mustFind(t, root, "Heart").EffectiveCoverage(), 0.04, 1e-12)
}

func TestHitChoicesSumToOne(t *testing.T) {
	root := testTree(t, 1)
	for p := range root.Walk() {
		for _, factor := range []float64{1, missCoverageFactor} {
			sum := 0.0
			for _, prob := range weighted.Probabilities(p.hitChoices(factor)) {
				sum += prob
			}
			assertClose(t, sum, 1, 1e-9)
		}
	}
	crowded := NewPart(Attrs{Name: "Crowded", MaxHealth: 10})
	attach(t, crowded,
		NewPart(Attrs{Name: "A", MaxHealth: 1, Coverage: 80}),
		NewPart(Attrs{Name: "B", MaxHealth: 1, Coverage: 80}),
	)
	choices := crowded.hitChoices(1)
	if self := choices[len(choices)-1]; self.Item != crowded || self.Weight != 0 {
		t.Errorf("overfull children should leave no weight for self, got %+v", self)
	}
}

func TestInternalDamageHalved(t *testing.T) {
	root := testTree(t, 1)
	heart := mustFind(t, root, "Heart")
	heart.Damage(NewDamage(10, Physical))
	assertClose(t, heart.Health(), 10, 1e-9)

	penetrating := NewDamage(4, Physical)
	penetrating.Penetrating = true
	heart.Damage(penetrating)
	assertClose(t, heart.Health(), 6, 1e-9)

	arm := mustFind(t, root, "LeftArm")
	arm.Damage(NewDamage(10, Physical))
	assertClose(t, arm.Health(), 10, 1e-9)
}

func TestHealthClamps(t *testing.T) {
	root := testTree(t, 1)
	arm := mustFind(t, root, "LeftArm")
	result := arm.Damage(NewDamage(500, Physical))
	if arm.Health() != 0 || !arm.IsDestroyed() {
		t.Errorf("got health %v, want destroyed at 0", arm.Health())
	}
	if len(result.Hits) != 1 || result.Hits[0].Amount != 20 || !result.Hits[0].Destroyed {
		t.Errorf("unexpected hits %+v", result.Hits)
	}
	if result.Cascades() != 0 {
		t.Errorf("non vital part cascaded")
	}
	arm.Heal(HealingInfo{Amount: 500})
	if arm.Health() != arm.MaxHealth() {
		t.Errorf("healing should clamp at max, got %v", arm.Health())
	}
}

func TestVitalCascade(t *testing.T) {
	root := testTree(t, 1)
	heart := mustFind(t, root, "Heart")
	torso := mustFind(t, root, "Torso")

	killing := NewDamage(15, Physical)
	killing.Penetrating = true
	killing.Source = "spear"
	result := heart.Damage(killing)
	if result.Cascades() != 1 {
		t.Fatalf("got %v cascades, want 1", result.Cascades())
	}
	assertClose(t, torso.Health(), 20, 1e-9)
	last := result.Hits[len(result.Hits)-1]
	if last.Part != torso || !last.Cascade || last.Amount != 20 {
		t.Errorf("unexpected cascade hit %+v", last)
	}
	assertClose(t, result.Total(), 35, 1e-9)

	// Hitting the already destroyed heart doesn't cascade again.
	if again := heart.Damage(killing); again.Cascades() != 0 {
		t.Errorf("destroyed part cascaded again")
	}
	assertClose(t, torso.Health(), 20, 1e-9)
}

func TestVitalCascadeKeepsKind(t *testing.T) {
	root := testTree(t, 1)
	root.SetInjuryRule(condition.DefaultRule)
	torso := mustFind(t, root, "Torso")

	scorching := NewDamage(100, Thermal)
	scorching.TargetPart = "Heart"
	scorching.Accuracy = 1
	scorching.Penetrating = true
	result := torso.Damage(scorching)
	if len(result.Hits) != 2 {
		t.Fatalf("got %v hits, want heart and torso", len(result.Hits))
	}
	last := result.Hits[1]
	if last.Part != torso || !last.Cascade {
		t.Fatalf("unexpected cascade hit %+v", last)
	}
	if last.Inflicted == nil || last.Inflicted.Kind() != condition.Burn {
		t.Errorf("thermal cascade should burn the torso, got %v", last.Inflicted)
	}
}

func TestVitalCascadeChains(t *testing.T) {
	root := testTree(t, 1)
	torso := mustFind(t, root, "Torso")
	heart := mustFind(t, root, "Heart")

	aimed := NewDamage(25, Physical)
	aimed.TargetPart = "Torso"
	aimed.Accuracy = 1
	torso.Damage(aimed)
	assertClose(t, torso.Health(), 15, 1e-9)

	killing := NewDamage(15, Physical)
	killing.Penetrating = true
	result := heart.Damage(killing)
	if result.Cascades() != 2 {
		t.Fatalf("got %v cascades, want 2", result.Cascades())
	}
	if !torso.IsDestroyed() {
		t.Errorf("torso should be destroyed")
	}
	assertClose(t, root.Health(), 50, 1e-9)
	if got := len(result.Destroyed()); got != 2 {
		t.Errorf("got %v destroyed parts, want heart and torso", got)
	}
}

func TestUntargetedDistribution(t *testing.T) {
	root := testTree(t, 7)
	counts := map[string]int{}
	count := 20000
	tiny := NewDamage(1e-9, Physical)
	for range count {
		result := root.Damage(tiny)
		if len(result.Hits) != 1 {
			t.Fatalf("got %v hits", len(result.Hits))
		}
		hit := result.Hits[0].Part
		for hit.Parent() != root {
			hit = hit.Parent()
		}
		counts[hit.Name()]++
	}
	assertClose(t, float64(counts["Torso"])/float64(count), 0.4, 0.02)
	assertClose(t, float64(counts["Head"])/float64(count), 0.1, 0.01)
	assertClose(t, float64(counts["LeftLeg"])/float64(count), 0.15, 0.015)
	if counts["Body"] != 0 {
		t.Errorf("children cover the whole root, yet it was hit %v times", counts["Body"])
	}
}

func TestTargetedLeafAlwaysLands(t *testing.T) {
	root := testTree(t, 3)
	leg := mustFind(t, root, "LeftLeg")
	aimed := NewDamage(1, Physical)
	aimed.TargetPart = "LeftLeg"
	aimed.Accuracy = 1
	for range 20 {
		result := root.Damage(aimed)
		if result.Hits[0].Part != leg {
			t.Fatalf("hit %q, want LeftLeg", result.Hits[0].Part.Name())
		}
	}
	// A leaf aimed at directly ignores accuracy.
	aimed.Accuracy = 1e-9
	for range 20 {
		if result := leg.Damage(aimed); result.Hits[0].Part != leg {
			t.Fatalf("hit %q, want LeftLeg", result.Hits[0].Part.Name())
		}
	}
	assertClose(t, leg.Health(), 0, 1e-9)
}

func TestCalledShotMissRedistributes(t *testing.T) {
	root := testTree(t, 5)
	torso := mustFind(t, root, "Torso")
	aimed := NewDamage(1e-9, Physical)
	aimed.TargetPart = "Torso"
	aimed.Accuracy = 1e-9
	counts := map[string]int{}
	count := 20000
	for range count {
		counts[torso.Damage(aimed).Hits[0].Part.Name()]++
	}
	// Children cover 25 at 0.75 each, torso keeps the remaining 81.25.
	assertClose(t, float64(counts["Torso"])/float64(count), 0.8125, 0.02)
	assertClose(t, float64(counts["Heart"])/float64(count), 0.075, 0.01)
	assertClose(t, float64(counts["Stomach"])/float64(count), 0.0375, 0.01)

	aimed.Accuracy = 1
	for range 20 {
		if got := torso.Damage(aimed).Hits[0].Part; got != torso {
			t.Fatalf("accurate called shot hit %q", got.Name())
		}
	}
}

func TestCalledShotMissDecaysAccuracy(t *testing.T) {
	torso := NewPart(Attrs{Name: "Torso", MaxHealth: 100})
	chest := attach(t, NewPart(Attrs{Name: "Chest", MaxHealth: 100, Coverage: 100}),
		NewPart(Attrs{Name: "Heart", MaxHealth: 100, Coverage: 100}),
	)
	attach(t, torso, chest)
	torso.SetRand(seeded(13))
	torso.CalculateEffectiveCoverage()

	aimed := NewDamage(1e-9, Physical)
	aimed.TargetPart = "Torso"
	aimed.Accuracy = 0.5
	counts := map[string]int{}
	count := 40000
	for range count {
		counts[torso.Damage(aimed).Hits[0].Part.Name()]++
	}
	// A miss drifts to Chest 75% of the time, now aimed at Chest with accuracy 0.4.
	// Without the decay Chest would get 0.234 and Heart 0.141.
	assertClose(t, float64(counts["Torso"])/float64(count), 0.625, 0.01)
	assertClose(t, float64(counts["Chest"])/float64(count), 0.20625, 0.01)
	assertClose(t, float64(counts["Heart"])/float64(count), 0.16875, 0.01)
}

func TestMissedDescendantLosesForce(t *testing.T) {
	root := NewPart(Attrs{Name: "Root", MaxHealth: 100})
	attach(t, root,
		NewPart(Attrs{Name: "A", MaxHealth: 100, Coverage: 50}),
		NewPart(Attrs{Name: "B", MaxHealth: 100, Coverage: 50}),
	)
	root.SetRand(seeded(11))
	for _, tc := range []struct {
		name     string
		target   string
		accuracy float64
	}{
		{"unknown target", "Nowhere", 1},
		{"failed roll", "A", 1e-9},
	} {
		t.Run(tc.name, func(t *testing.T) {
			aimed := NewDamage(10, Physical)
			aimed.TargetPart = tc.target
			aimed.Accuracy = tc.accuracy
			result := root.Damage(aimed)
			if len(result.Hits) != 1 {
				t.Fatalf("got %v hits", len(result.Hits))
			}
			assertClose(t, result.Hits[0].Amount, 7, 1e-9)
			if result.Hits[0].Part == root {
				t.Errorf("fully covered root shouldn't be hit")
			}
		})
	}
}

func TestHealTargeted(t *testing.T) {
	root := testTree(t, 1)
	heart := mustFind(t, root, "Heart")
	lungs := mustFind(t, root, "Lungs")
	penetrating := NewDamage(12, Physical)
	penetrating.Penetrating = true
	heart.Damage(penetrating)
	lungs.Damage(penetrating)

	healed := root.Heal(HealingInfo{Amount: 5, TargetPart: "Heart", Quality: 1.5})
	if healed != heart {
		t.Fatalf("healed %v, want Heart", healed)
	}
	assertClose(t, heart.Health(), 3+7.5, 1e-9)
	assertClose(t, lungs.Health(), 3, 1e-9)

	root.Heal(HealingInfo{Amount: 10, TargetPart: "Heart"})
	assertClose(t, heart.Health(), 15, 1e-9)

	if got := root.Heal(HealingInfo{Amount: 10, TargetPart: "Tail"}); got != nil {
		t.Errorf("healing an unknown part healed %q", got.Name())
	}
	if got := lungs.Heal(HealingInfo{Amount: 10, TargetPart: "Heart"}); got != nil {
		t.Errorf("healing a part outside the subtree healed %q", got.Name())
	}
	assertClose(t, lungs.Health(), 3, 1e-9)
}

func TestHealPrefersDamagedChild(t *testing.T) {
	root := testTree(t, 1)
	leg := mustFind(t, root, "RightLeg")
	leg.Damage(NewDamage(10, Physical))
	for range 5 {
		if healed := root.Heal(HealingInfo{Amount: 1}); healed != leg {
			t.Fatalf("healed %q, want RightLeg", healed.Name())
		}
	}
	assertClose(t, leg.Health(), 25, 1e-9)
}

func TestHealUndamagedTree(t *testing.T) {
	root := testTree(t, 9)
	selfHeals := 0
	count := 2000
	for range count {
		healed := root.Heal(HealingInfo{Amount: 1})
		if healed == nil {
			t.Fatal("untargeted healing should always pick a part")
		}
		if healed == root {
			selfHeals++
		}
	}
	assertClose(t, float64(selfHeals)/float64(count), 0.5, 0.05)
}

func TestPartCapacity(t *testing.T) {
	root := testTree(t, 1)
	leg := mustFind(t, root, "LeftLeg")
	if got := leg.Capacity(capacity.Sight); got != 0 {
		t.Errorf("unregistered capacity gave %v", got)
	}
	leg.Damage(NewDamage(15, Physical))
	assertClose(t, leg.Capacity(capacity.Moving), 0.5, 1e-9)
	leg.AddCondition(condition.NewCustomInjury(condition.Break, 0.5, 0, caps(capacity.Moving)))
	leg.AddCondition(condition.NewCustomInjury(condition.Cut, 1, 0, capacity.Of(map[capacity.Kind]float64{capacity.Moving: 0.5})))
	assertClose(t, leg.Capacity(capacity.Moving), 0.5*0.5*0.5, 1e-9)
}

func TestUpdateDropsHealedConditions(t *testing.T) {
	root := testTree(t, 1)
	leg := mustFind(t, root, "LeftLeg")
	eye := mustFind(t, root, "LeftEye")
	leg.AddCondition(condition.NewCustomInjury(condition.Bruise, 0.1, 1, caps(capacity.Moving)))
	leg.AddCondition(condition.NewCustomInjury(condition.Break, 0.9, 0.1, caps(capacity.Moving)))
	eye.AddCondition(condition.NewCustomInjury(condition.Burn, 0.2, 1, caps(capacity.Sight)))
	root.Update(24 * time.Hour)
	if got := leg.Conditions(); len(got) != 1 || got[0].Kind() != condition.Break {
		t.Errorf("leg should only keep the break, got %v", got)
	}
	if got := eye.Conditions(); len(got) != 0 {
		t.Errorf("healed burn on a grandchild should be gone, got %v", got)
	}
}

func TestTreat(t *testing.T) {
	root := testTree(t, 1)
	leg := mustFind(t, root, "LeftLeg")
	leg.AddCondition(condition.NewInjury(condition.Cut, 0.5))
	leg.AddCondition(condition.NewInjury(condition.Break, 0.5))
	if got := leg.Treat(condition.Treatment{Kind: condition.Splint}); got != 1 {
		t.Errorf("splint treated %v conditions, want 1", got)
	}
	if got := leg.Treat(condition.Treatment{Kind: condition.Antibiotics}); got != 0 {
		t.Errorf("antibiotics treated %v conditions, want 0", got)
	}
}

func TestInjuryRule(t *testing.T) {
	root := testTree(t, 1)
	root.SetInjuryRule(condition.DefaultRule)
	arm := mustFind(t, root, "LeftArm")
	slash := NewDamage(5, Physical)
	slash.Sharp = true
	result := arm.Damage(slash)
	if result.Hits[0].Inflicted == nil || result.Hits[0].Inflicted.Kind() != condition.Cut {
		t.Fatalf("slash should inflict a cut, got %+v", result.Hits[0])
	}
	assertClose(t, result.Hits[0].Inflicted.Severity(), 0.25, 1e-9)
	if len(arm.Conditions()) != 1 {
		t.Errorf("cut should be attached to the arm")
	}
	burn := NewDamage(5, Thermal)
	if got := arm.Damage(burn).Hits[0].Inflicted; got == nil || got.Kind() != condition.Burn {
		t.Errorf("thermal damage should burn, got %v", got)
	}
}
