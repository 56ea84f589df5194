// Package species assembles body trees from static per species data.
package species

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/capacity"

	goccy "github.com/goccy/go-json"
)

var (
	ErrInvalidPart = errors.New("invalid part config")
)

// PartConfig describes a part and everything below it.
type PartConfig struct {
	Name      string
	MaxHealth float64
	// Coverage is the percent of the parent's surface. Siblings don't have to
	// sum to 100, the remainder is the parent's own hit chance.
	Coverage   float64
	Vital      bool    `json:",omitempty"`
	Internal   bool    `json:",omitempty"`
	Capacities capacity.Values
	Parts      []PartConfig `json:",omitempty"`
}

// Config is everything needed to create a body of one species.
type Config struct {
	Name           string
	Root           PartConfig
	Composition    body.Composition
	ColdResistance float64
}

func (pc PartConfig) validate() error {
	if strings.TrimSpace(pc.Name) == "" {
		return errors.Wrap(ErrInvalidPart, "empty name")
	}
	if pc.MaxHealth <= 0 {
		return errors.Wrapf(ErrInvalidPart, "%q has MaxHealth %v", pc.Name, pc.MaxHealth)
	}
	if pc.Coverage < 0 || pc.Coverage > 100 {
		return errors.Wrapf(ErrInvalidPart, "%q has Coverage %v", pc.Name, pc.Coverage)
	}
	return nil
}

// Build creates the tree described by pc, with effective coverage calculated.
func Build(pc PartConfig) (*body.Part, error) {
	root, err := build(pc)
	if err != nil {
		return nil, err
	}
	root.CalculateEffectiveCoverage()
	return root, nil
}

func build(pc PartConfig) (*body.Part, error) {
	if err := pc.validate(); err != nil {
		return nil, err
	}
	part := body.NewPart(body.Attrs{
		Name:       pc.Name,
		MaxHealth:  pc.MaxHealth,
		Coverage:   pc.Coverage,
		Vital:      pc.Vital,
		Internal:   pc.Internal,
		Capacities: pc.Capacities,
	})
	for _, childConfig := range pc.Parts {
		child, err := build(childConfig)
		if err != nil {
			return nil, err
		}
		if err := part.AddPart(child); err != nil {
			return nil, errors.Wrapf(err, "building %q", pc.Name)
		}
	}
	return part, nil
}

// Validate checks that c describes a buildable body.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("species without name")
	}
	if _, err := Build(c.Root); err != nil {
		return errors.Wrapf(err, "species %q", c.Name)
	}
	if c.Composition.Weight <= 0 {
		return errors.Errorf("species %q has weight %v", c.Name, c.Composition.Weight)
	}
	return nil
}

// NewBody builds a fresh body of the species. opts are applied after the species defaults.
func (c Config) NewBody(opts ...body.Option) (*body.Body, error) {
	root, err := Build(c.Root)
	if err != nil {
		return nil, errors.Wrapf(err, "species %q", c.Name)
	}
	return body.New(root, c.Composition, append([]body.Option{body.WithColdResistance(c.ColdResistance)}, opts...)...)
}

// Count returns the number of parts in the tree.
func (pc PartConfig) Count() int {
	result := 1
	for _, child := range pc.Parts {
		result += child.Count()
	}
	return result
}

// Load decodes a JSON array of configs from r and validates each of them.
func Load(r io.Reader) ([]Config, error) {
	result := []Config{}
	if err := goccy.NewDecoder(r).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decoding species")
	}
	for _, c := range result {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Dump encodes configs the way Load expects them.
func Dump(w io.Writer, configs []Config) error {
	enc := goccy.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WithStack(enc.Encode(configs))
}
