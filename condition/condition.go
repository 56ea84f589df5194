// Package condition models time-evolving, severity-scored ailments that reduce
// the capacities of the body part they are attached to.
package condition

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/anatomy"
	"github.com/zond/anatomy/capacity"
)

type Kind int

const (
	Cut Kind = iota
	Bruise
	Break
	Burn
	Frostbite
	Infection
)

var kindNames = map[Kind]string{
	Cut:       "cut",
	Bruise:    "bruise",
	Break:     "break",
	Burn:      "burn",
	Frostbite: "frostbite",
	Infection: "infection",
}

// Kinds returns every condition kind in declaration order.
func Kinds() []Kind {
	return []Kind{Cut, Bruise, Break, Burn, Frostbite, Infection}
}

func (k Kind) String() string {
	if name, found := kindNames[k]; found {
		return name
	}
	return "unknown"
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown condition %q", s)
}

// Condition is anything attached to a part that changes over time and scales its capacities.
type Condition interface {
	Kind() Kind
	Severity() float64
	IsHealed() bool
	Update(elapsed time.Duration)
	// ApplyTreatment returns false if the treatment doesn't match the condition.
	ApplyTreatment(t Treatment) bool
	ModifyCapacity(k capacity.Kind, base float64) float64
}

// State is the persisted form of an Injury.
type State struct {
	Kind      Kind
	Severity  float64
	HealRate  float64
	Treated   bool
	Modifiers capacity.Values
}

type defaults struct {
	healRate float64
	modifier float64
}

// Heal rates are severity per day. Modifiers are the capacity reduction at full severity.
var kindDefaults = map[Kind]defaults{
	Cut:       {healRate: 0.1, modifier: 0.3},
	Bruise:    {healRate: 0.2, modifier: 0.2},
	Break:     {healRate: 0.03, modifier: 0.8},
	Burn:      {healRate: 0.07, modifier: 0.4},
	Frostbite: {healRate: 0.05, modifier: 0.5},
	Infection: {healRate: -0.05, modifier: 0.4},
}

func uniform(modifier float64) capacity.Values {
	v := capacity.Values{}
	for i := range v {
		v[i] = modifier
	}
	return v
}

// Injury is the stock Condition implementation.
type Injury struct {
	kind      Kind
	severity  float64
	healRate  float64
	treated   bool
	modifiers capacity.Values
}

// NewInjury creates an injury with the default heal rate and modifiers of its kind.
func NewInjury(kind Kind, severity float64) *Injury {
	d := kindDefaults[kind]
	return NewCustomInjury(kind, severity, d.healRate, uniform(d.modifier))
}

func NewCustomInjury(kind Kind, severity, healRate float64, modifiers capacity.Values) *Injury {
	return &Injury{
		kind:      kind,
		severity:  anatomy.Clamp(severity, 0, 1),
		healRate:  healRate,
		modifiers: modifiers,
	}
}

func FromState(s State) *Injury {
	i := NewCustomInjury(s.Kind, s.Severity, s.HealRate, s.Modifiers)
	i.treated = s.Treated
	return i
}

func (i *Injury) State() State {
	return State{
		Kind:      i.kind,
		Severity:  i.severity,
		HealRate:  i.healRate,
		Treated:   i.treated,
		Modifiers: i.modifiers,
	}
}

func (i *Injury) Kind() Kind {
	return i.kind
}

func (i *Injury) Severity() float64 {
	return i.severity
}

func (i *Injury) HealRate() float64 {
	return i.healRate
}

func (i *Injury) Treated() bool {
	return i.treated
}

func (i *Injury) IsHealed() bool {
	return i.severity <= 0
}

func (i *Injury) Update(elapsed time.Duration) {
	days := elapsed.Hours() / 24
	i.severity = anatomy.Clamp(i.severity-i.healRate*days, 0, 1)
}

func (i *Injury) ApplyTreatment(t Treatment) bool {
	effectiveness, found := t.effectiveness(i.kind)
	if !found {
		return false
	}
	i.severity = anatomy.Clamp(i.severity-effectiveness*t.quality(), 0, 1)
	i.treated = true
	if i.healRate < 0 {
		i.healRate = -i.healRate
	}
	return true
}

func (i *Injury) ModifyCapacity(k capacity.Kind, base float64) float64 {
	modifier := i.modifiers.Get(k)
	if modifier == 0 {
		return base
	}
	return base * (1 - modifier*i.severity)
}

func (i *Injury) String() string {
	return i.kind.String()
}
