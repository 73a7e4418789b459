package model

import (
	"fmt"
	"slices"
)

// Registry holds every configured model. It is read-only after NewRegistry returns.
type Registry struct {
	byName map[string]*Model
	order  []*Model
}

// NewRegistry validates the configs and builds the registry.
// Associations are resolved after every model exists, so targets may be declared in any order.
func NewRegistry(cfgs ...Config) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Model, len(cfgs))}

	for _, c := range cfgs {
		m, err := newModel(c)
		if err != nil {
			return nil, err
		}
		if _, dup := r.byName[m.name]; dup {
			return nil, fmt.Errorf("%w: duplicate model %q", ErrInvalidConfig, m.name)
		}
		r.byName[m.name] = m
		r.order = append(r.order, m)
	}

	for i, c := range cfgs {
		m := r.order[i]
		for _, ac := range c.Associations {
			a, err := ac.build(m.name, r.byName)
			if err != nil {
				return nil, err
			}
			if _, dup := m.Association(a.name); dup {
				return nil, fmt.Errorf("%w: %s: duplicate association %q", ErrInvalidConfig, m.name, a.name)
			}
			m.associations = append(m.associations, a)
		}
	}

	return r, nil
}

// Lookup returns the model registered under name.
func (r *Registry) Lookup(name string) (*Model, error) {
	m, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return m, nil
}

// Models returns every model in registration order.
func (r *Registry) Models() []*Model {
	return slices.Clone(r.order)
}
