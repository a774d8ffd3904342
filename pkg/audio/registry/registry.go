package registry

import (
	"fmt"
	"sort"
)

type entry[F any] struct {
	Name     string
	Priority int
	Factory  F
}

type factoryRegistry[F any] struct {
	kind    string
	entries map[string]entry[F]
}

func newFactoryRegistry[F any](kind string) *factoryRegistry[F] {
	return &factoryRegistry[F]{
		kind:    kind,
		entries: map[string]entry[F]{},
	}
}

func (r *factoryRegistry[F]) register(name string, priority int, factory F) {
	if _, ok := r.entries[name]; ok {
		panic(fmt.Errorf("there is already registered a factory of %s with name %q", r.kind, name))
	}
	r.entries[name] = entry[F]{
		Name:     name,
		Priority: priority,
		Factory:  factory,
	}
}

func (r *factoryRegistry[F]) sorted() []entry[F] {
	var result []entry[F]
	for _, e := range r.entries {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Priority != result[j].Priority {
			return result[i].Priority > result[j].Priority
		}
		return result[i].Name < result[j].Name
	})
	return result
}
