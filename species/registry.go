package species

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

var ErrUnknownSpecies = errors.New("unknown species")

// Registry holds species configs by case insensitive name with thread-safe access.
type Registry struct {
	mu      sync.RWMutex
	configs map[string]Config
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NewRegistry creates a registry holding configs. Later configs replace earlier ones with the same name.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{
		configs: make(map[string]Config, len(configs)),
	}
	for _, c := range configs {
		r.configs[key(c.Name)] = c
	}
	return r
}

// Get returns the config for name, or ErrUnknownSpecies.
func (r *Registry) Get(name string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, found := r.configs[key(name)]
	if !found {
		return Config{}, errors.Wrapf(ErrUnknownSpecies, "%q", name)
	}
	return c, nil
}

// Set validates and stores c.
func (r *Registry) Set(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[key(c.Name)] = c
	return nil
}

func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.configs, key(name))
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.configs))
}

// Snapshot returns a copy of every config for serialization, sorted by name.
func (r *Registry) Snapshot() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Config, 0, len(r.configs))
	for _, name := range slices.Sorted(maps.Keys(r.configs)) {
		result = append(result, r.configs[name])
	}
	return result
}
