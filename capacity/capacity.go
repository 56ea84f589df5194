// Package capacity enumerates the functional abilities contributed by body
// parts and how each one combines across a whole body.
package capacity

import (
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type Kind int

const (
	Moving Kind = iota
	Manipulation
	Breathing
	Consciousness
	BloodPumping
	Digestion
	Eating
	Talking
	Sight
	Hearing
	BloodFiltration

	NumKinds int = iota
)

var names = [NumKinds]string{
	Moving:          "Moving",
	Manipulation:    "Manipulation",
	Breathing:       "Breathing",
	Consciousness:   "Consciousness",
	BloodPumping:    "BloodPumping",
	Digestion:       "Digestion",
	Eating:          "Eating",
	Talking:         "Talking",
	Sight:           "Sight",
	Hearing:         "Hearing",
	BloodFiltration: "BloodFiltration",
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Unknown"
	}
	return names[k]
}

func (k Kind) Valid() bool {
	return k >= 0 && int(k) < NumKinds
}

// All returns every kind in declaration order.
func All() []Kind {
	result := make([]Kind, NumKinds)
	for i := range result {
		result[i] = Kind(i)
	}
	return result
}

// ParseKind finds a kind by case-insensitive name.
func ParseKind(s string) (Kind, error) {
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return Kind(i), nil
		}
	}
	return 0, errors.Errorf("unknown capacity %q", s)
}

// Rule decides how the per-part values of a capacity merge into one body value.
type Rule int

const (
	// Min lets a single crippled critical part cap the whole body.
	Min Rule = iota
	// Average blends paired or redundant organs.
	Average
)

func (r Rule) String() string {
	if r == Average {
		return "average"
	}
	return "min"
}

func (k Kind) Rule() Rule {
	switch k {
	case Sight, Hearing, BloodFiltration:
		return Average
	default:
		return Min
	}
}

// Combine merges contributions according to the rule of k. No contributions yields 0.
func (k Kind) Combine(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch k.Rule() {
	case Average:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum / float64(len(values))
	default:
		result := values[0]
		for _, v := range values[1:] {
			if v < result {
				result = v
			}
		}
		return result
	}
}

// Values holds one magnitude per kind. A zero entry means the kind is not registered.
type Values [NumKinds]float64

// Of builds Values from a sparse map.
func Of(m map[Kind]float64) Values {
	v := Values{}
	for k, val := range m {
		if k.Valid() {
			v[k] = val
		}
	}
	return v
}

func (v Values) Get(k Kind) float64 {
	if !k.Valid() {
		return 0
	}
	return v[k]
}

func (v Values) Has(k Kind) bool {
	return v.Get(k) > 0
}

// Kinds returns the registered kinds in declaration order.
func (v Values) Kinds() []Kind {
	result := []Kind{}
	for i, val := range v {
		if val > 0 {
			result = append(result, Kind(i))
		}
	}
	return result
}

func (v Values) MarshalJSON() ([]byte, error) {
	m := map[string]float64{}
	for i, val := range v {
		if val != 0 {
			m[names[i]] = val
		}
	}
	return json.Marshal(m)
}

func (v *Values) UnmarshalJSON(b []byte) error {
	m := map[string]float64{}
	if err := json.Unmarshal(b, &m); err != nil {
		return errors.WithStack(err)
	}
	*v = Values{}
	for name, val := range m {
		k, err := ParseKind(name)
		if err != nil {
			return err
		}
		v[k] = val
	}
	return nil
}
