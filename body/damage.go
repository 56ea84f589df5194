package body

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/condition"
	"github.com/zond/anatomy/weighted"
)

type DamageKind int

const (
	Physical DamageKind = iota
	Thermal
	Cold
	Poison
	Electric
)

var damageKindNames = map[DamageKind]string{
	Physical: "physical",
	Thermal:  "thermal",
	Cold:     "cold",
	Poison:   "poison",
	Electric: "electric",
}

func (k DamageKind) String() string {
	if name, found := damageKindNames[k]; found {
		return name
	}
	return "unknown"
}

func ParseDamageKind(s string) (DamageKind, error) {
	for k, name := range damageKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown damage kind %q", s)
}

const (
	DefaultAccuracy = 0.9

	// Called shots that land somewhere else spread over a smaller child surface.
	missCoverageFactor = 0.75
	// Aim decays every time a missed called shot is redirected.
	missAccuracyFactor = 0.8
	// Called shots that miss entirely lose some of their force.
	missAmountFactor = 0.7
	// A destroyed vital part deals this fraction of its parent's MaxHealth to the parent.
	cascadeFactor = 0.5
)

// DamageInfo is a request to damage a body.
type DamageInfo struct {
	Amount float64
	Kind   DamageKind
	Source string
	// TargetPart names the part aimed at. Empty means untargeted.
	TargetPart string
	// Penetrating damage is not halved by the tissue around internal parts.
	Penetrating bool
	Blunt       bool
	Sharp       bool
	Pierce      bool
	// Accuracy is the chance that a called shot lands where aimed. Zero means DefaultAccuracy.
	Accuracy float64
}

func NewDamage(amount float64, kind DamageKind) DamageInfo {
	return DamageInfo{
		Amount:   amount,
		Kind:     kind,
		Accuracy: DefaultAccuracy,
	}
}

func (d DamageInfo) accuracy() float64 {
	if d.Accuracy == 0 {
		return DefaultAccuracy
	}
	return anatomy.Clamp(d.Accuracy, 0, 1)
}

func (d DamageInfo) blow(applied, maxHealth float64) condition.Blow {
	return condition.Blow{
		Sharp:    d.Sharp,
		Blunt:    d.Blunt,
		Pierce:   d.Pierce,
		Burn:     d.Kind == Thermal,
		Freeze:   d.Kind == Cold,
		Fraction: applied / maxHealth,
	}
}

// Hit is damage that was applied to one part.
type Hit struct {
	Part *Part
	// Amount is the health the part lost.
	Amount    float64
	Destroyed bool
	// Cascade is true if the hit came from a destroyed vital child.
	Cascade   bool
	Inflicted condition.Condition
}

// DamageResult lists the hits a damage request resolved to, in the order they were applied.
type DamageResult struct {
	Hits []Hit
}

func (r *DamageResult) Total() float64 {
	total := 0.0
	for _, h := range r.Hits {
		total += h.Amount
	}
	return total
}

// Destroyed returns the parts destroyed by the request.
func (r *DamageResult) Destroyed() []*Part {
	result := []*Part{}
	for _, h := range r.Hits {
		if h.Destroyed {
			result = append(result, h.Part)
		}
	}
	return result
}

// Cascades counts the hits caused by destroyed vital parts.
func (r *DamageResult) Cascades() int {
	count := 0
	for _, h := range r.Hits {
		if h.Cascade {
			count++
		}
	}
	return count
}

func (p *Part) roll(chance float64) bool {
	return p.tree.rng.Float64() < chance
}

// Damage resolves info starting at p.
//
// Untargeted damage picks a child by Coverage, or p itself with the remainder,
// and recurses. Damage aimed at p lands on leaves unconditionally, and on inner
// parts with probability Accuracy, otherwise it drifts to a child with decayed
// accuracy. Damage aimed at a descendant jumps straight there with probability
// Accuracy, otherwise it loses some force and continues untargeted from p.
func (p *Part) Damage(info DamageInfo) *DamageResult {
	result := &DamageResult{}
	p.damage(info, result, false)
	return result
}

func (p *Part) damage(info DamageInfo, result *DamageResult, cascade bool) {
	switch {
	case info.TargetPart == "":
		p.damageUntargeted(info, result, cascade)
	case info.TargetPart == p.name:
		p.damageSelf(info, result, cascade)
	default:
		if found := p.findDescendant(info.TargetPart); found != nil && p.roll(info.accuracy()) {
			found.damage(info, result, cascade)
			return
		}
		info.Amount *= missAmountFactor
		info.TargetPart = ""
		p.damageUntargeted(info, result, cascade)
	}
}

// hitChoices weighs each child by its coverage times factor, and p by the remainder.
func (p *Part) hitChoices(factor float64) []weighted.Choice[*Part] {
	choices := make([]weighted.Choice[*Part], 0, len(p.children)+1)
	used := 0.0
	for _, child := range p.Children() {
		w := child.coverage * factor
		used += w
		choices = append(choices, weighted.Choice[*Part]{Item: child, Weight: w})
	}
	return append(choices, weighted.Choice[*Part]{Item: p, Weight: weighted.Remainder(100, used)})
}

func (p *Part) damageUntargeted(info DamageInfo, result *DamageResult, cascade bool) {
	if p.IsLeaf() {
		p.applyDamage(info, result, cascade)
		return
	}
	picked, ok := weighted.Pick(p.tree.rng, p.hitChoices(1))
	if !ok || picked == p {
		p.applyDamage(info, result, cascade)
		return
	}
	picked.damage(info, result, cascade)
}

func (p *Part) damageSelf(info DamageInfo, result *DamageResult, cascade bool) {
	if p.IsLeaf() || p.roll(info.accuracy()) {
		p.applyDamage(info, result, cascade)
		return
	}
	picked, ok := weighted.Pick(p.tree.rng, p.hitChoices(missCoverageFactor))
	if !ok || picked == p {
		p.applyDamage(info, result, cascade)
		return
	}
	info.TargetPart = picked.name
	info.Accuracy = info.accuracy() * missAccuracyFactor
	picked.damage(info, result, cascade)
}

func (p *Part) applyDamage(info DamageInfo, result *DamageResult, cascade bool) {
	amount := info.Amount
	if amount <= 0 {
		return
	}
	if p.internal && !info.Penetrating {
		amount /= 2
	}
	wasDestroyed := p.IsDestroyed()
	applied := min(amount, p.health)
	p.health = max(0, p.health-amount)

	hit := Hit{
		Part:      p,
		Amount:    applied,
		Destroyed: !wasDestroyed && p.IsDestroyed(),
		Cascade:   cascade,
	}
	if p.tree.rule != nil && applied > 0 {
		if c := p.tree.rule(info.blow(applied, p.maxHealth)); c != nil {
			p.AddCondition(c)
			hit.Inflicted = c
		}
	}
	result.Hits = append(result.Hits, hit)

	if hit.Destroyed && p.vital {
		if parent := p.Parent(); parent != nil {
			parent.damage(DamageInfo{
				Amount:      parent.maxHealth * cascadeFactor,
				Source:      info.Source,
				Kind:        info.Kind,
				TargetPart:  parent.name,
				Penetrating: true,
				Accuracy:    1,
			}, result, true)
		}
	}
}
