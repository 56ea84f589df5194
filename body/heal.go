package body

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/zond/anatomy"
)

type HealingKind int

const (
	Natural HealingKind = iota
	Medical
	Magical
)

var healingKindNames = map[HealingKind]string{
	Natural: "natural",
	Medical: "medical",
	Magical: "magical",
}

func (k HealingKind) String() string {
	if name, found := healingKindNames[k]; found {
		return name
	}
	return "unknown"
}

func ParseHealingKind(s string) (HealingKind, error) {
	for k, name := range healingKindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown healing kind %q", s)
}

// HealingInfo is a request to heal a body.
type HealingInfo struct {
	Amount float64
	Kind   HealingKind
	// TargetPart names the part to heal. Empty lets the tree pick.
	TargetPart string
	// Quality scales Amount. Zero means 1.
	Quality float64
	Source  string
}

func (h HealingInfo) quality() float64 {
	if h.Quality == 0 {
		return 1
	}
	return h.Quality
}

// Heal resolves info starting at p and returns the part that was healed.
//
// A named target is searched for below p; if it can't be found nothing is
// healed and nil is returned. Without a target, inner parts prefer a random
// damaged child, and otherwise flip a coin between a random child and
// themselves.
func (p *Part) Heal(info HealingInfo) *Part {
	if info.TargetPart != "" {
		if info.TargetPart == p.name {
			return p.applyHealing(info)
		}
		if found := p.findDescendant(info.TargetPart); found != nil {
			return found.Heal(info)
		}
		return nil
	}
	if p.IsLeaf() {
		return p.applyHealing(info)
	}
	children := p.Children()
	damaged := []*Part{}
	for _, child := range children {
		if child.IsDamaged() {
			damaged = append(damaged, child)
		}
	}
	if len(damaged) > 0 {
		return damaged[p.tree.rng.IntN(len(damaged))].Heal(info)
	}
	if p.roll(0.5) {
		return children[p.tree.rng.IntN(len(children))].Heal(info)
	}
	return p.applyHealing(info)
}

func (p *Part) applyHealing(info HealingInfo) *Part {
	p.health = anatomy.Clamp(p.health+info.Amount*info.quality(), 0, p.maxHealth)
	return p
}
