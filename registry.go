package oaz

import "github.com/shopstic/oaz/schema"

type definitionKind int

const (
	defSchema definitionKind = iota
	defParameter
	defRoute
	defComponent
)

// Definition is one registered declaration: a named schema, a named
// parameter, a route, or a raw component object.
type Definition struct {
	kind definitionKind

	name   string
	schema *schema.Schema

	route Route

	componentKind string
	object        any
}

// Builder accumulates definitions and is finalized into an immutable
// Registry with Build. It is a plain value threaded through registration
// code; there is no process-wide registry.
type Builder struct {
	defs []Definition
}

// NewBuilder returns an empty definition builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Schema registers a named schema. The schema becomes referenceable from
// other definitions; later registrations under the same name win.
func (b *Builder) Schema(name string, s *schema.Schema) *Builder {
	b.defs = append(b.defs, Definition{kind: defSchema, name: name, schema: s})
	return b
}

// Parameter registers a named parameter schema. The schema's metadata must
// carry the parameter name and location.
func (b *Builder) Parameter(name string, s *schema.Schema) *Builder {
	b.defs = append(b.defs, Definition{kind: defParameter, name: name, schema: s})
	return b
}

// Route registers a route definition.
func (b *Builder) Route(r Route) *Builder {
	b.defs = append(b.defs, Definition{kind: defRoute, route: r})
	return b
}

// Component registers a raw component object verbatim under the given
// component kind (for example "securitySchemes") and name.
func (b *Builder) Component(kind, name string, object any) *Builder {
	b.defs = append(b.defs, Definition{kind: defComponent, componentKind: kind, name: name, object: object})
	return b
}

// Build snapshots the accumulated definitions into an immutable Registry.
// The builder may keep accumulating; the snapshot is unaffected.
func (b *Builder) Build() *Registry {
	defs := make([]Definition, len(b.defs))
	copy(defs, b.defs)
	return &Registry{defs: defs}
}

// Registry is an immutable, ordered collection of definitions. It is the
// single source of truth consumed by the document generator, the router,
// and the outbound client.
type Registry struct {
	defs []Definition
}

// Routes returns the registered route definitions in registration order.
func (r *Registry) Routes() []Route {
	var routes []Route
	for _, d := range r.defs {
		if d.kind == defRoute {
			routes = append(routes, d.route)
		}
	}
	return routes
}
