// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"slices"
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownOperator is returned (wrapped) when a Qualname is not in a Registry.
var ErrUnknownOperator = errors.New("unknown operator")

// Schema describes one registered operator overload.
type Schema struct {
	Name Qualname

	// NumInputs is the number of tensor inputs, NumOutputs the number of tensor outputs.
	NumInputs, NumOutputs int

	// Doc is a one-line signature description.
	Doc string
}

// Registry holds the operators a backend knows about, indexed by namespace, base name and overload.
type Registry struct {
	schemas map[Qualname]*Schema
	bases   map[string]map[string][]string // namespace -> base -> overloads (registration order)
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		schemas: make(map[Qualname]*Schema),
		bases:   make(map[string]map[string][]string),
	}
}

// Register adds the schema. Registering the same name twice replaces the schema.
func (r *Registry) Register(schema Schema) {
	q := schema.Name
	if _, found := r.schemas[q]; !found {
		if r.bases[q.Namespace] == nil {
			r.bases[q.Namespace] = make(map[string][]string)
		}
		r.bases[q.Namespace][q.Base] = append(r.bases[q.Namespace][q.Base], q.Overload)
	}
	r.schemas[q] = &schema
}

// Lookup returns the schema of q, or an error wrapping ErrUnknownOperator.
func (r *Registry) Lookup(q Qualname) (*Schema, error) {
	schema, found := r.schemas[q]
	if !found {
		return nil, errors.Wrapf(ErrUnknownOperator, "operator %q not registered", q)
	}
	return schema, nil
}

// Has returns whether q is registered.
func (r *Registry) Has(q Qualname) bool {
	_, found := r.schemas[q]
	return found
}

// HasBase returns whether any overload of namespace::base is registered.
func (r *Registry) HasBase(namespace, base string) bool {
	_, found := r.bases[namespace][base]
	return found
}

// Overloads returns the overload names registered for namespace::base, in registration order.
func (r *Registry) Overloads(namespace, base string) []string {
	return slices.Clone(r.bases[namespace][base])
}

// All returns every registered operator, sorted by name.
func (r *Registry) All() []Qualname {
	all := make([]Qualname, 0, len(r.schemas))
	for q := range r.schemas {
		all = append(all, q)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].String() < all[j].String() })
	return all
}

// Len returns the number of registered overloads.
func (r *Registry) Len() int {
	return len(r.schemas)
}
