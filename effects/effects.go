// Package effects tracks timed capacity modifiers, like drugs, buffs or
// environmental hazards, and exposes them to bodies.
package effects

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/zond/anatomy/body"
	"github.com/zond/anatomy/capacity"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

// Effect modifies one capacity. Modifier is a fraction: 0.1 adds 10%, -1 removes the capacity.
type Effect struct {
	Name     string
	Capacity capacity.Kind
	Modifier float64
	// Part limits the effect to the named part. Empty means the whole body.
	Part string
}

func (e Effect) String() string {
	where := "body"
	if e.Part != "" {
		where = e.Part
	}
	return fmt.Sprintf("%s (%v %+.0f%% on %s)", e.Name, e.Capacity, e.Modifier*100, where)
}

const permanent = 100 * 365 * 24 * time.Hour

// Registry holds effects until they expire. It is safe for concurrent use.
type Registry struct {
	effects cache.Cache[string, Effect]
}

// NewRegistry creates a registry where effects added without a duration last defaultTTL.
// A zero defaultTTL makes such effects permanent.
func NewRegistry(defaultTTL time.Duration) *Registry {
	if defaultTTL <= 0 {
		defaultTTL = permanent
	}
	return &Registry{effects: cache.NewCache[string, Effect]().WithTTL(defaultTTL)}
}

// Add replaces any effect with the same name. A zero ttl uses the registry default.
func (r *Registry) Add(e Effect, ttl time.Duration) error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("effect without name")
	}
	if !e.Capacity.Valid() {
		return errors.Errorf("effect %q has invalid capacity %v", e.Name, int(e.Capacity))
	}
	if ttl < 0 {
		return errors.Errorf("effect %q has negative duration %v", e.Name, ttl)
	}
	r.effects.Set(e.Name, e, ttl)
	return nil
}

func (r *Registry) Remove(name string) {
	r.effects.Invalidate(name)
}

// Active returns the unexpired effects sorted by name.
func (r *Registry) Active() []Effect {
	result := []Effect{}
	for _, name := range r.effects.Keys() {
		if e, found := r.effects.Get(name); found {
			result = append(result, e)
		}
	}
	slices.SortFunc(result, func(a, b Effect) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result
}

func (r *Registry) sum(k capacity.Kind, part string) float64 {
	total := 0.0
	for _, e := range r.Active() {
		if e.Capacity == k && e.Part == part {
			total += e.Modifier
		}
	}
	return total
}

// BodyCapacityModifier sums the body wide effects on k.
func (r *Registry) BodyCapacityModifier(k capacity.Kind) float64 {
	return r.sum(k, "")
}

// PartCapacityModifier sums the effects on k limited to part.
func (r *Registry) PartCapacityModifier(k capacity.Kind, part *body.Part) float64 {
	return r.sum(k, part.Name())
}

var _ body.Effects = (*Registry)(nil)
