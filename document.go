package oaz

import "encoding/json"

// Document is the generated API specification: info, paths, and the
// component tables built from the registry.
type Document struct {
	OpenAPI    string              `json:"openapi"`
	Info       Info                `json:"info"`
	Servers    []Server            `json:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths"`
	Components *Components         `json:"components,omitempty"`

	// Extra holds passthrough top-level config fields, spliced into the
	// marshalled document alongside the struct fields.
	Extra map[string]any `json:"-"`
}

// MarshalJSON merges Extra fields into the top-level object.
func (d *Document) MarshalJSON() ([]byte, error) {
	type doc Document
	if len(d.Extra) == 0 {
		return json.Marshal((*doc)(d))
	}
	base, err := json.Marshal((*doc)(d))
	if err != nil {
		return nil, err
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}
	return json.Marshal(merged)
}

// Info holds API metadata.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// Server describes an API server base URL.
type Server struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// Components holds the generated schema and parameter reference tables plus
// any raw component kinds registered verbatim.
type Components struct {
	Schemas    map[string]*SchemaNode    `json:"schemas,omitempty"`
	Parameters map[string]*ParameterNode `json:"parameters,omitempty"`

	// Raw maps component kind (securitySchemes, examples, ...) to name to
	// the registered object. Raw entries for the schemas and parameters
	// kinds are merged into the tables above during generation.
	Raw map[string]map[string]any `json:"-"`
}

// MarshalJSON merges raw component kinds alongside the generated tables.
// Name collisions between raw and generated entries are resolved during
// generation (last registration wins), so the maps are disjoint here.
func (c *Components) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 2+len(c.Raw))
	if len(c.Schemas) > 0 {
		out["schemas"] = anyMap(c.Schemas)
	}
	if len(c.Parameters) > 0 {
		out["parameters"] = anyMap(c.Parameters)
	}
	for kind, entries := range c.Raw {
		if len(entries) == 0 {
			continue
		}
		existing, ok := out[kind].(map[string]any)
		if !ok {
			existing = make(map[string]any, len(entries))
			out[kind] = existing
		}
		for name, obj := range entries {
			existing[name] = obj
		}
	}
	return json.Marshal(out)
}

func anyMap[V any](m map[string]V) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PathItem maps lowercased HTTP methods to operations.
type PathItem map[string]*Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string                   `json:"summary,omitempty"`
	Description string                   `json:"description,omitempty"`
	Tags        []string                 `json:"tags,omitempty"`
	OperationID string                   `json:"operationId,omitempty"`
	Deprecated  bool                     `json:"deprecated,omitempty"`
	Parameters  []*ParameterNode         `json:"parameters,omitempty"`
	RequestBody *RequestBody             `json:"requestBody,omitempty"`
	Responses   map[string]*ResponseNode `json:"responses"`
}

// ParameterNode describes an operation parameter, or a $ref to a registered
// one (in which case only Ref is set).
type ParameterNode struct {
	Ref         string      `json:"$ref,omitempty"`
	Name        string      `json:"name,omitempty"`
	In          string      `json:"in,omitempty"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Schema      *SchemaNode `json:"schema,omitempty"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                  `json:"required,omitempty"`
	Content  map[string]*MediaNode `json:"content"`
}

// MediaNode is a media type entry with an optional schema.
type MediaNode struct {
	Schema *SchemaNode `json:"schema,omitempty"`
}

// ResponseNode describes a single response status.
type ResponseNode struct {
	Description string                `json:"description"`
	Content     map[string]*MediaNode `json:"content,omitempty"`

	// Headers values are either *HeaderNode (converted from a schema) or a
	// raw object registered verbatim.
	Headers map[string]any `json:"headers,omitempty"`
}

// HeaderNode describes a response header.
type HeaderNode struct {
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required,omitempty"`
	Schema      *SchemaNode `json:"schema,omitempty"`
}

// Discriminator names the tag field of a discriminated union.
type Discriminator struct {
	PropertyName string `json:"propertyName"`
}

// SchemaNode is a normalized document schema (a JSON Schema subset). A node
// with Ref set is a reference to a registered component schema.
type SchemaNode struct {
	Ref string `json:"$ref,omitempty"`

	Type    string `json:"type,omitempty"`
	Format  string `json:"format,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Enum    []any  `json:"enum,omitempty"`

	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	MinItems  *int     `json:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty"`

	Items      *SchemaNode            `json:"items,omitempty"`
	Properties map[string]*SchemaNode `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`

	// AdditionalProperties is either the bool true or a *SchemaNode.
	AdditionalProperties any `json:"additionalProperties,omitempty"`

	AnyOf         []*SchemaNode  `json:"anyOf,omitempty"`
	OneOf         []*SchemaNode  `json:"oneOf,omitempty"`
	AllOf         []*SchemaNode  `json:"allOf,omitempty"`
	Discriminator *Discriminator `json:"discriminator,omitempty"`

	Description string `json:"description,omitempty"`
	Example     any    `json:"example,omitempty"`
}

const (
	schemaRefPrefix    = "#/components/schemas/"
	parameterRefPrefix = "#/components/parameters/"
)

// SchemaRef returns a bare reference node to the named component schema.
func SchemaRef(name string) *SchemaNode {
	return &SchemaNode{Ref: schemaRefPrefix + name}
}

// ParameterRef returns a bare reference node to the named component parameter.
func ParameterRef(name string) *ParameterNode {
	return &ParameterNode{Ref: parameterRefPrefix + name}
}
