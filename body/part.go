package body

import (
	"iter"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/anatomy/capacity"
	"github.com/zond/anatomy/condition"
)

var (
	ErrAlreadyAttached = errors.New("part already attached to a tree")
	ErrCycle           = errors.New("attaching part would create a cycle")
	ErrDuplicateName   = errors.New("duplicate part name")
)

// PartID indexes a part within the arena of its tree.
type PartID int

const noPart PartID = -1

// tree is the arena owning every part of one body. Parts refer to each other by PartID.
type tree struct {
	parts  []*Part
	byName map[string]PartID
	rng    *rand.Rand
	rule   condition.Rule
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Attrs describes a part to create.
type Attrs struct {
	Name      string
	MaxHealth float64
	// Coverage is the percent of the parent's hit surface the part occupies.
	Coverage   float64
	Vital      bool
	Internal   bool
	Capacities capacity.Values
}

// Part is one node of a body tree.
type Part struct {
	name       string
	health     float64
	maxHealth  float64
	vital      bool
	internal   bool
	coverage   float64
	effective  float64
	capacities capacity.Values
	conditions []condition.Condition

	tree     *tree
	id       PartID
	parent   PartID
	children []PartID
}

// NewPart creates a part at full health, as the root of its own single node tree.
func NewPart(s Attrs) *Part {
	p := &Part{
		name:       s.Name,
		health:     s.MaxHealth,
		maxHealth:  s.MaxHealth,
		vital:      s.Vital,
		internal:   s.Internal,
		coverage:   s.Coverage,
		effective:  1,
		capacities: s.Capacities,
		id:         0,
		parent:     noPart,
	}
	p.tree = &tree{
		parts:  []*Part{p},
		byName: map[string]PartID{s.Name: 0},
		rng:    newRand(),
	}
	return p
}

func (p *Part) Name() string {
	return p.name
}

func (p *Part) Health() float64 {
	return p.health
}

func (p *Part) MaxHealth() float64 {
	return p.maxHealth
}

func (p *Part) IsVital() bool {
	return p.vital
}

func (p *Part) IsInternal() bool {
	return p.internal
}

func (p *Part) IsDestroyed() bool {
	return p.health <= 0
}

func (p *Part) IsDamaged() bool {
	return p.health < p.maxHealth
}

// Coverage is the percent of the parent's surface this part occupies.
func (p *Part) Coverage() float64 {
	return p.coverage
}

// EffectiveCoverage is the fraction of the whole body this part occupies.
// Only valid after CalculateEffectiveCoverage.
func (p *Part) EffectiveCoverage() float64 {
	return p.effective
}

func (p *Part) BaseCapacity(k capacity.Kind) float64 {
	return p.capacities.Get(k)
}

func (p *Part) BaseCapacities() capacity.Values {
	return p.capacities
}

func (p *Part) Conditions() []condition.Condition {
	return append([]condition.Condition(nil), p.conditions...)
}

func (p *Part) ID() PartID {
	return p.id
}

// Parent returns nil for the root.
func (p *Part) Parent() *Part {
	if p.parent == noPart {
		return nil
	}
	return p.tree.parts[p.parent]
}

func (p *Part) Children() []*Part {
	result := make([]*Part, len(p.children))
	for i, id := range p.children {
		result[i] = p.tree.parts[id]
	}
	return result
}

func (p *Part) IsLeaf() bool {
	return len(p.children) == 0
}

// Root returns the root of the tree this part belongs to.
func (p *Part) Root() *Part {
	return p.tree.parts[0]
}

// SetRand replaces the random source used by the whole tree.
func (p *Part) SetRand(rng *rand.Rand) {
	p.tree.rng = rng
}

// SetInjuryRule decides which conditions applied damage leaves anywhere in the tree. Nil disables injuries.
func (p *Part) SetInjuryRule(rule condition.Rule) {
	p.tree.rule = rule
}

func (p *Part) hasAncestor(other *Part) bool {
	for cur := p.Parent(); cur != nil; cur = cur.Parent() {
		if cur == other {
			return true
		}
	}
	return false
}

// AddPart attaches child, and any parts below it, under p.
// child must be the root of a tree of its own. The random source and injury
// rule of the child's tree are discarded.
func (p *Part) AddPart(child *Part) error {
	if child == nil {
		return errors.New("can't attach nil part")
	}
	if child.tree == p.tree {
		if child == p || p.hasAncestor(child) {
			return errors.Wrapf(ErrCycle, "attaching %q under %q", child.name, p.name)
		}
		return errors.Wrapf(ErrAlreadyAttached, "%q is already part of this tree", child.name)
	}
	if child.parent != noPart {
		return errors.Wrapf(ErrAlreadyAttached, "%q already has parent %q", child.name, child.Parent().name)
	}
	for _, q := range child.tree.parts {
		if _, found := p.tree.byName[q.name]; found {
			return errors.Wrapf(ErrDuplicateName, "%q", q.name)
		}
	}
	offset := PartID(len(p.tree.parts))
	for _, q := range child.tree.parts {
		q.id += offset
		if q.parent != noPart {
			q.parent += offset
		}
		for i := range q.children {
			q.children[i] += offset
		}
		q.tree = p.tree
		p.tree.parts = append(p.tree.parts, q)
		p.tree.byName[q.name] = q.id
	}
	child.parent = p.id
	p.children = append(p.children, child.id)
	return nil
}

// CalculateEffectiveCoverage recomputes EffectiveCoverage top down from p.
// The root is seeded with 1.
func (p *Part) CalculateEffectiveCoverage() {
	if parent := p.Parent(); parent == nil {
		p.effective = 1
	} else {
		p.effective = p.coverage / 100 * parent.effective
	}
	for _, child := range p.Children() {
		child.CalculateEffectiveCoverage()
	}
}

// Walk iterates over p and everything below it in pre-order.
func (p *Part) Walk() iter.Seq[*Part] {
	return func(yield func(*Part) bool) {
		p.walk(yield)
	}
}

func (p *Part) walk(yield func(*Part) bool) bool {
	if !yield(p) {
		return false
	}
	for _, id := range p.children {
		if !p.tree.parts[id].walk(yield) {
			return false
		}
	}
	return true
}

// Find searches p and its descendants depth first for a part named name.
func (p *Part) Find(name string) *Part {
	for part := range p.Walk() {
		if part.name == name {
			return part
		}
	}
	return nil
}

func (p *Part) findDescendant(name string) *Part {
	for _, child := range p.Children() {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Capacity returns the contribution of this part to k: the base value scaled by
// health, then by each condition in order. Unregistered capacities are 0.
func (p *Part) Capacity(k capacity.Kind) float64 {
	base := p.capacities.Get(k)
	if base <= 0 {
		return 0
	}
	result := base * p.health / p.maxHealth
	for _, c := range p.conditions {
		result = c.ModifyCapacity(k, result)
	}
	return result
}

func (p *Part) AddCondition(c condition.Condition) {
	p.conditions = append(p.conditions, c)
}

// Treat applies t to every condition of the part and returns how many it affected.
func (p *Part) Treat(t condition.Treatment) int {
	treated := 0
	for _, c := range p.conditions {
		if c.ApplyTreatment(t) {
			treated++
		}
	}
	return treated
}

// Update advances the conditions of p and its descendants, dropping healed ones.
func (p *Part) Update(elapsed time.Duration) {
	kept := p.conditions[:0]
	for _, c := range p.conditions {
		c.Update(elapsed)
		if !c.IsHealed() {
			kept = append(kept, c)
		}
	}
	for i := len(kept); i < len(p.conditions); i++ {
		p.conditions[i] = nil
	}
	p.conditions = kept
	for _, child := range p.Children() {
		child.Update(elapsed)
	}
}
