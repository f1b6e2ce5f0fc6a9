package tools

import (
	"fmt"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// Registry is the read-only-after-startup catalog of tool descriptors (spec
// §4.5 "Registration"). Safe for concurrent reads once built.
type Registry struct {
	byName map[string]Descriptor
	order  []string
}

// NewRegistry registers every descriptor in order. Two descriptors with the
// same name fail registration (spec §4.5: "Descriptors with names that
// would collide fail startup").
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if _, exists := r.byName[d.Name]; exists {
			return nil, opserrors.NewInvalidArgumentError(
				fmt.Sprintf("duplicate tool descriptor name %q", d.Name), nil)
		}
		r.byName[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	return r, nil
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All returns every registered descriptor in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Filter returns the descriptors visible under the given scope filter, in
// registration order.
func (r *Registry) Filter(scope map[string]struct{}) []Descriptor {
	out := make([]Descriptor, 0, len(scope))
	for _, name := range r.order {
		if _, ok := scope[name]; ok {
			out = append(out, r.byName[name])
		}
	}
	return out
}

// ComputeScopeFilter resolves a config.Scope against the registry: "core" is
// every core-tagged tool; "standard" adds every standard-tagged tool to
// core's set; "all" adds every all-tagged tool to standard's set; an
// explicit list is validated against registered names (spec §4.5's Filter
// rule — "standard is a strict superset of core; all is a strict superset
// of standard").
func (r *Registry) ComputeScopeFilter(scope config.Scope) (map[string]struct{}, error) {
	if len(scope.Explicit) > 0 {
		out := make(map[string]struct{}, len(scope.Explicit))
		for _, name := range scope.Explicit {
			if _, ok := r.byName[name]; !ok {
				return nil, opserrors.NewInvalidArgumentError(
					fmt.Sprintf("explicit scope references unknown tool %q", name), nil)
			}
			out[name] = struct{}{}
		}
		return out, nil
	}

	tiers := map[string]int{ScopeCore: 0, ScopeStandard: 1, ScopeAll: 2}
	want, ok := tiers[scope.Tier]
	if !ok {
		return nil, opserrors.NewInvalidArgumentError(
			fmt.Sprintf("unknown scope tier %q", scope.Tier), nil)
	}

	out := make(map[string]struct{})
	for _, d := range r.order {
		desc := r.byName[d]
		if tier, known := tiers[desc.ScopeTag]; known && tier <= want {
			out[d] = struct{}{}
		}
	}
	return out, nil
}
