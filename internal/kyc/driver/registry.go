package driver

import (
	"fmt"
	"sort"

	dErrors "kycore/pkg/domain-errors"
)

// Registry maps driver names to drivers. It is built once at startup and read-only
// afterwards.
type Registry struct {
	drivers     map[string]Driver
	defaultName string
}

// NewRegistry registers drivers under their Name. The default driver must be one of them.
func NewRegistry(defaultName string, drivers ...Driver) (*Registry, error) {
	r := &Registry{drivers: make(map[string]Driver, len(drivers)), defaultName: defaultName}
	for _, d := range drivers {
		name := d.Name()
		if _, exists := r.drivers[name]; exists {
			return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("driver %s already registered", name))
		}
		r.drivers[name] = d
	}
	if _, ok := r.drivers[defaultName]; !ok {
		return nil, dErrors.New(dErrors.CodeConfiguration, fmt.Sprintf("default driver %s is not registered", defaultName))
	}
	return r, nil
}

// Get resolves name, or the default driver when name is empty.
func (r *Registry) Get(name string) (Driver, error) {
	if name == "" {
		name = r.defaultName
	}
	d, ok := r.drivers[name]
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnknownDriver, fmt.Sprintf("driver [%s] is not configured", name)).
			With("driver", name)
	}
	if !d.Enabled() {
		return nil, dErrors.New(dErrors.CodeDriverDisabled, fmt.Sprintf("driver [%s] is not enabled", name)).
			With("driver", name)
	}
	return d, nil
}

// Lookup returns a registered driver regardless of its enabled flag.
func (r *Registry) Lookup(name string) (Driver, bool) {
	d, ok := r.drivers[name]
	return d, ok
}

func (r *Registry) Default() string {
	return r.defaultName
}

// Names returns every registered driver name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnabledNames returns the names of enabled drivers, sorted.
func (r *Registry) EnabledNames() []string {
	var names []string
	for _, name := range r.Names() {
		if r.drivers[name].Enabled() {
			names = append(names, name)
		}
	}
	return names
}
