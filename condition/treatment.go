package condition

import (
	"strings"

	"github.com/pkg/errors"
)

type TreatmentKind int

const (
	Bandage TreatmentKind = iota
	Splint
	Antibiotics
	Warmth
)

var treatmentNames = map[TreatmentKind]string{
	Bandage:     "bandage",
	Splint:      "splint",
	Antibiotics: "antibiotics",
	Warmth:      "warmth",
}

func (k TreatmentKind) String() string {
	if name, found := treatmentNames[k]; found {
		return name
	}
	return "unknown"
}

func ParseTreatmentKind(s string) (TreatmentKind, error) {
	for k, name := range treatmentNames {
		if strings.EqualFold(name, s) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown treatment %q", s)
}

// Treatment is a medical intervention applied to the conditions of one part.
type Treatment struct {
	Kind TreatmentKind
	// Quality scales effectiveness. Zero means 1.
	Quality float64
	Source  string
}

// effectivenessTable is the severity removed by a treatment of quality 1.
var effectivenessTable = map[TreatmentKind]map[Kind]float64{
	Bandage: {
		Cut:  0.3,
		Burn: 0.2,
	},
	Splint: {
		Break: 0.25,
	},
	Antibiotics: {
		Infection: 0.4,
	},
	Warmth: {
		Frostbite: 0.3,
	},
}

func (t Treatment) quality() float64 {
	if t.Quality == 0 {
		return 1
	}
	return t.Quality
}

func (t Treatment) effectiveness(k Kind) (float64, bool) {
	e, found := effectivenessTable[t.Kind][k]
	return e, found
}

// Treats returns whether the treatment has any effect on conditions of kind k.
func (t Treatment) Treats(k Kind) bool {
	_, found := t.effectiveness(k)
	return found
}
