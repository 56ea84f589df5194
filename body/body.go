// Package body models a living body as a tree of parts that take damage, heal,
// carry conditions, and contribute to body wide capacities.
//
// A Body and its parts are not safe for concurrent use.
package body

import (
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/anatomy/capacity"
	"github.com/zond/anatomy/condition"
)

var (
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrAccuracyRange  = errors.New("accuracy must be within [0, 1]")
	ErrQualityRange   = errors.New("quality must not be negative")
	ErrUnknownPart    = errors.New("unknown part")
)

const (
	DefaultCoreTemperature = 98.6
	HypothermiaThreshold   = 97.0
	HyperthermiaThreshold  = 100.0

	kcalPerKgFat       = 7700.0
	muscleSpillFactor  = 0.8
	shiveringFactor    = 1.2
	insulationBase     = 0.1
	temperatureDamping = 5.0
)

// Effects is the external effect system folding modifiers into capacity queries.
// Modifiers are fractions: 0.1 means 10% more, -1 removes the capacity.
type Effects interface {
	BodyCapacityModifier(k capacity.Kind) float64
	PartCapacityModifier(k capacity.Kind, part *Part) float64
}

type noEffects struct{}

func (noEffects) BodyCapacityModifier(capacity.Kind) float64 { return 0 }

func (noEffects) PartCapacityModifier(capacity.Kind, *Part) float64 { return 0 }

// Composition is the initial mass of a body in kg.
type Composition struct {
	Weight  float64
	BodyFat float64
	Muscle  float64
}

// Environment is what a body is exposed to between updates.
type Environment struct {
	// Temperature in °F.
	Temperature float64
	// EquipmentWarmth adds to the natural insulation of body fat.
	EquipmentWarmth float64
	// ActivityLevel multiplies the basal calorie burn.
	ActivityLevel float64
}

type Body struct {
	root                 *Part
	bodyFat              float64
	muscle               float64
	baseWeight           float64
	coreTemperature      float64
	targetMetabolismRate float64
	baseColdResistance   float64
	effects              Effects
}

type Option func(*Body)

// WithRand makes damage and healing resolution draw from rng.
func WithRand(rng *rand.Rand) Option {
	return func(b *Body) {
		b.root.SetRand(rng)
	}
}

func WithEffects(e Effects) Option {
	return func(b *Body) {
		if e == nil {
			e = noEffects{}
		}
		b.effects = e
	}
}

// WithColdResistance sets the species specific base cold resistance.
func WithColdResistance(base float64) Option {
	return func(b *Body) {
		b.baseColdResistance = base
	}
}

func WithCoreTemperature(fahrenheit float64) Option {
	return func(b *Body) {
		b.coreTemperature = fahrenheit
	}
}

// WithInjuryRule makes applied damage attach conditions chosen by rule.
func WithInjuryRule(rule condition.Rule) Option {
	return func(b *Body) {
		b.root.SetInjuryRule(rule)
	}
}

// New creates a body owning root. Everything that isn't muscle or fat in
// comp.Weight becomes the fixed base weight.
func New(root *Part, comp Composition, opts ...Option) (*Body, error) {
	if root == nil {
		return nil, errors.New("body needs a root part")
	}
	if root.Parent() != nil {
		return nil, errors.Wrapf(ErrAlreadyAttached, "root %q has a parent", root.name)
	}
	if comp.BodyFat < 0 || comp.Muscle < 0 {
		return nil, errors.Errorf("negative composition %+v", comp)
	}
	baseWeight := comp.Weight - comp.BodyFat - comp.Muscle
	if baseWeight < 0 {
		return nil, errors.Errorf("fat and muscle exceed weight in %+v", comp)
	}
	b := &Body{
		root:            root,
		bodyFat:         comp.BodyFat,
		muscle:          comp.Muscle,
		baseWeight:      baseWeight,
		coreTemperature: DefaultCoreTemperature,
		effects:         noEffects{},
	}
	for _, opt := range opts {
		opt(b)
	}
	root.CalculateEffectiveCoverage()
	b.targetMetabolismRate = b.BasalMetabolicRate()
	return b, nil
}

func (b *Body) Root() *Part {
	return b.root
}

// Part finds a part by name, or returns nil.
func (b *Body) Part(name string) *Part {
	if id, found := b.root.tree.byName[name]; found {
		return b.root.tree.parts[id]
	}
	return nil
}

// Parts returns every part in pre-order.
func (b *Body) Parts() []*Part {
	result := []*Part{}
	for p := range b.root.Walk() {
		result = append(result, p)
	}
	return result
}

// IsDead is true once the root is destroyed.
func (b *Body) IsDead() bool {
	return b.root.IsDestroyed()
}

func (b *Body) Damage(info DamageInfo) (*DamageResult, error) {
	if info.Amount < 0 {
		return nil, errors.Wrapf(ErrNegativeAmount, "damage %v", info.Amount)
	}
	if info.Accuracy < 0 || info.Accuracy > 1 {
		return nil, errors.Wrapf(ErrAccuracyRange, "accuracy %v", info.Accuracy)
	}
	return b.root.Damage(info), nil
}

// Heal returns the healed part, or nil if the named target couldn't be found.
func (b *Body) Heal(info HealingInfo) (*Part, error) {
	if info.Amount < 0 {
		return nil, errors.Wrapf(ErrNegativeAmount, "healing %v", info.Amount)
	}
	if info.Quality < 0 {
		return nil, errors.Wrapf(ErrQualityRange, "quality %v", info.Quality)
	}
	return b.root.Heal(info), nil
}

// Treat applies t to the conditions of the named part and returns how many it affected.
func (b *Body) Treat(partName string, t condition.Treatment) (int, error) {
	part := b.Part(partName)
	if part == nil {
		return 0, errors.Wrapf(ErrUnknownPart, "%q", partName)
	}
	return part.Treat(t), nil
}

func (b *Body) BodyFat() float64 {
	return b.bodyFat
}

func (b *Body) SetBodyFat(kg float64) {
	b.bodyFat = max(0, kg)
}

func (b *Body) Muscle() float64 {
	return b.muscle
}

func (b *Body) SetMuscle(kg float64) {
	b.muscle = max(0, kg)
}

func (b *Body) BaseWeight() float64 {
	return b.baseWeight
}

func (b *Body) Weight() float64 {
	return b.baseWeight + b.bodyFat + b.muscle
}

func (b *Body) FatPct() float64 {
	if w := b.Weight(); w > 0 {
		return b.bodyFat / w
	}
	return 0
}

func (b *Body) MusclePct() float64 {
	if w := b.Weight(); w > 0 {
		return b.muscle / w
	}
	return 0
}

func (b *Body) CoreTemperature() float64 {
	return b.coreTemperature
}

func (b *Body) TargetMetabolismRate() float64 {
	return b.targetMetabolismRate
}

// Hypothermic is true while the core is below HypothermiaThreshold.
func (b *Body) Hypothermic() bool {
	return b.coreTemperature < HypothermiaThreshold
}

// Overheated is true while the core is above HyperthermiaThreshold. Sweating
// and hydration are left to the caller.
func (b *Body) Overheated() bool {
	return b.coreTemperature > HyperthermiaThreshold
}

// BasalMetabolicRate is in kcal/day. Lean tissue dominates, and an injured body burns up to 20% more.
func (b *Body) BasalMetabolicRate() float64 {
	healthRatio := b.root.health / b.root.maxHealth
	return (500 + 22*b.muscle + 4.5*b.bodyFat) * (1 + 0.2*(1-healthRatio))
}

// Update advances temperature, metabolism and conditions by elapsed.
func (b *Body) Update(elapsed time.Duration, env Environment) {
	if elapsed <= 0 {
		return
	}
	hours := elapsed.Hours()

	insulation := insulationBase + b.FatPct()/2 + env.EquipmentWarmth
	hourlyChange := (env.Temperature - b.coreTemperature) * (1 - insulation) / temperatureDamping
	b.coreTemperature += hourlyChange * hours

	bmr := b.BasalMetabolicRate()
	if b.Hypothermic() {
		b.targetMetabolismRate = bmr * shiveringFactor
	} else {
		b.targetMetabolismRate = bmr
	}

	calories := bmr / 24 * env.ActivityLevel * hours
	fatLoss := calories / kcalPerKgFat
	if fatLoss > b.bodyFat {
		spill := fatLoss - b.bodyFat
		b.SetBodyFat(0)
		b.SetMuscle(b.muscle - spill*muscleSpillFactor)
	} else {
		b.SetBodyFat(b.bodyFat - fatLoss)
	}

	b.root.Update(elapsed)
}

// EffectivePartCapacity is the contribution of part to k including part level
// effects, or 0 if the part is destroyed.
func (b *Body) EffectivePartCapacity(k capacity.Kind, part *Part) float64 {
	if part.IsDestroyed() {
		return 0
	}
	return max(0, part.Capacity(k)*(1+b.effects.PartCapacityModifier(k, part)))
}

// Capacity combines the contributions of every part registering k using the
// rule of k, then applies body wide effects.
func (b *Body) Capacity(k capacity.Kind) float64 {
	values := []float64{}
	for part := range b.root.Walk() {
		if !part.capacities.Has(k) {
			continue
		}
		values = append(values, b.EffectivePartCapacity(k, part))
	}
	return max(0, k.Combine(values)*(1+b.effects.BodyCapacityModifier(k)))
}

// Capacities evaluates every kind.
func (b *Body) Capacities() capacity.Values {
	result := capacity.Values{}
	for _, k := range capacity.All() {
		result[k] = b.Capacity(k)
	}
	return result
}
