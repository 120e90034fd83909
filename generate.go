package oaz

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shopstic/oaz/schema"
)

// DocumentConfig holds the non-derived parts of a generated document.
type DocumentConfig struct {
	Info    Info
	Servers []Server

	// Extra fields are passed through to the top level of the document.
	Extra map[string]any
}

// Generate compiles the registry's definitions into a normalized document.
// Definitions are processed in a fixed priority order regardless of
// insertion order: named schemas, then named parameters, then routes, then
// raw components, so routes can reference anything registered.
//
// Generation is all-or-nothing: any conflict, missing parameter metadata, or
// unconvertible schema aborts with an error and no partial document.
func Generate(reg *Registry, cfg DocumentConfig) (*Document, error) {
	g := &generator{
		schemas:   make(map[string]*SchemaNode),
		refNames:  make(map[*schema.Schema]string),
		schemaSeq: make(map[string]int),
		params:    make(map[string]*ParameterNode),
		paramRefs: make(map[*schema.Schema]string),
		paramSeq:  make(map[string]int),
		raw:       make(map[string]map[string]any),
		paths:     make(map[string]PathItem),
	}

	for i, d := range reg.defs {
		if d.kind == defSchema {
			if err := g.addSchemaDef(d.name, d.schema); err != nil {
				return nil, err
			}
			g.schemaSeq[d.name] = i
		}
	}
	for i, d := range reg.defs {
		if d.kind == defParameter {
			if err := g.addParameterDef(d.name, d.schema); err != nil {
				return nil, err
			}
			g.paramSeq[d.name] = i
		}
	}
	for _, d := range reg.defs {
		if d.kind == defRoute {
			if err := g.addRoute(d.route); err != nil {
				return nil, err
			}
		}
	}
	// Raw components share a namespace with the generated tables per kind;
	// identical (kind, name) pairs resolve last-registration-wins.
	for i, d := range reg.defs {
		if d.kind != defComponent {
			continue
		}
		switch d.componentKind {
		case "schemas":
			if seq, ok := g.schemaSeq[d.name]; ok {
				if seq > i {
					continue
				}
				delete(g.schemas, d.name)
			}
		case "parameters":
			if seq, ok := g.paramSeq[d.name]; ok {
				if seq > i {
					continue
				}
				delete(g.params, d.name)
			}
		}
		bucket := g.raw[d.componentKind]
		if bucket == nil {
			bucket = make(map[string]any)
			g.raw[d.componentKind] = bucket
		}
		bucket[d.name] = d.object
	}

	doc := &Document{
		OpenAPI: "3.1.0",
		Info:    cfg.Info,
		Servers: cfg.Servers,
		Paths:   g.paths,
		Extra:   cfg.Extra,
	}
	if len(g.schemas) > 0 || len(g.params) > 0 || len(g.raw) > 0 {
		doc.Components = &Components{
			Schemas:    g.schemas,
			Parameters: g.params,
			Raw:        g.raw,
		}
	}
	return doc, nil
}

type generator struct {
	schemas   map[string]*SchemaNode
	refNames  map[*schema.Schema]string // unwrapped schema → registered name
	schemaSeq map[string]int            // name → registry index of last schema registration

	params    map[string]*ParameterNode
	paramRefs map[*schema.Schema]string // unwrapped parameter schema → registered name
	paramSeq  map[string]int            // name → registry index of last parameter registration

	raw   map[string]map[string]any
	paths map[string]PathItem
}

// addSchemaDef registers a named schema. Re-registering a name is
// last-write-wins: the later definition replaces the earlier entry and all
// later citations resolve to it.
func (g *generator) addSchemaDef(name string, s *schema.Schema) error {
	u := schema.Unwrap(s)

	// A definition that is just another name for an already registered
	// schema is emitted as a reference, not re-expanded.
	if existing, ok := g.refNames[u.Schema]; ok && existing != name {
		g.schemas[name] = refWithMeta(existing, citationMeta(u))
		return nil
	}

	// Register the name before converting so self-referential schemas
	// resolve to a $ref instead of recursing forever.
	g.refNames[u.Schema] = name

	node, err := g.convert(s, name, true)
	if err != nil {
		return err
	}
	g.schemas[name] = node
	return nil
}

// addParameterDef registers a named parameter. The schema's metadata must
// name the parameter and its location.
func (g *generator) addParameterDef(name string, s *schema.Schema) error {
	u := schema.Unwrap(s)
	pm := u.Meta.Param
	if pm == nil || pm.Name == "" {
		return &MissingParameterDataError{Name: name, Key: "name"}
	}
	if pm.In == "" {
		return &MissingParameterDataError{Name: name, Key: "in"}
	}

	node, err := g.convert(u.Schema, name, false)
	if err != nil {
		return err
	}
	g.params[name] = &ParameterNode{
		Name:        pm.Name,
		In:          pm.In,
		Description: u.Meta.Description,
		Required:    !(u.Optional || u.Nullable),
		Schema:      node,
	}
	g.paramRefs[u.Schema] = name
	return nil
}

func (g *generator) addRoute(r Route) error {
	op := &Operation{
		Summary:     r.Summary,
		Description: r.Description,
		Tags:        r.Tags,
		OperationID: r.OperationID,
		Deprecated:  r.Deprecated,
		Responses:   make(map[string]*ResponseNode, len(r.Responses)),
	}

	if r.Request != nil {
		for _, section := range []struct {
			in     string
			fields []boundField
		}{
			{"path", sortedFields(r.Request.Params)},
			{"query", sortedFields(r.Request.Query)},
			{"header", sortedFields(r.Request.Headers)},
		} {
			for _, f := range section.fields {
				p, err := g.resolveParameter(f.name, section.in, f.schema)
				if err != nil {
					return err
				}
				op.Parameters = append(op.Parameters, p)
			}
		}

		if r.Request.Body != nil {
			u := schema.Unwrap(r.Request.Body)
			node, err := g.convert(r.Request.Body, "", false)
			if err != nil {
				return err
			}
			op.RequestBody = &RequestBody{
				Required: !u.Optional,
				Content:  map[string]*MediaNode{"application/json": {Schema: node}},
			}
		}
	}

	for status, spec := range r.Responses {
		rn, err := g.convertResponse(status, spec)
		if err != nil {
			return err
		}
		op.Responses[strconv.Itoa(status)] = rn
	}

	item := g.paths[r.Path]
	if item == nil {
		item = make(PathItem)
		g.paths[r.Path] = item
	}
	// Duplicate (method, path) pairs are a router-construction error, not
	// a generation error; here the later route wins.
	item[strings.ToLower(r.Method)] = op
	return nil
}

// resolveParameter emits either a $ref to a registered named parameter or
// an inline parameter object for one (key, schema) pair of a route channel.
func (g *generator) resolveParameter(key, in string, s *schema.Schema) (*ParameterNode, error) {
	u := schema.Unwrap(s)

	if name, ok := g.paramRefs[u.Schema]; ok {
		declared := g.params[name]
		if declared.Name != key {
			return nil, &ConflictError{Name: name, Key: "name", Declared: declared.Name, Used: key}
		}
		if declared.In != in {
			return nil, &ConflictError{Name: name, Key: "in", Declared: declared.In, Used: in}
		}
		return ParameterRef(name), nil
	}

	node, err := g.convert(u.Schema, "", false)
	if err != nil {
		return nil, err
	}
	return &ParameterNode{
		Name:        key,
		In:          in,
		Description: u.Meta.Description,
		Required:    !(u.Optional || u.Nullable),
		Schema:      node,
	}, nil
}

func (g *generator) convertResponse(status int, spec ResponseSpec) (*ResponseNode, error) {
	rn := &ResponseNode{Description: spec.Description}
	if rn.Description == "" {
		rn.Description = http.StatusText(status)
	}

	for mediaType, body := range spec.Content {
		if rn.Content == nil {
			rn.Content = make(map[string]*MediaNode, len(spec.Content))
		}
		media := &MediaNode{}
		if body != nil {
			node, err := g.convert(body, "", false)
			if err != nil {
				return nil, err
			}
			media.Schema = node
		}
		rn.Content[mediaType] = media
	}

	for name, hv := range spec.Headers {
		if rn.Headers == nil {
			rn.Headers = make(map[string]any, len(spec.Headers))
		}
		hs, ok := hv.(*schema.Schema)
		if !ok {
			// Already a literal document object; stored verbatim.
			rn.Headers[name] = hv
			continue
		}
		u := schema.Unwrap(hs)
		node, err := g.convert(u.Schema, "", false)
		if err != nil {
			return nil, err
		}
		rn.Headers[name] = &HeaderNode{
			Description: u.Meta.Description,
			Required:    !(u.Optional || u.Nullable),
			Schema:      node,
		}
	}

	return rn, nil
}

// convert turns a schema into a normalized node. defName names the
// containing definition for error reporting. skipRef suppresses reference
// lookup for the outermost schema so a definition's own body is expanded
// rather than emitted as a self-reference.
func (g *generator) convert(s *schema.Schema, defName string, skipRef bool) (*SchemaNode, error) {
	u := schema.Unwrap(s)

	if !skipRef {
		if name, ok := g.refNames[u.Schema]; ok {
			return refWithMeta(name, citationMeta(u)), nil
		}
	}

	d := schema.Introspect(u.Schema)
	var (
		node *SchemaNode
		err  error
	)

	switch d.Kind {
	case schema.KindNull:
		node = &SchemaNode{Type: "null"}

	case schema.KindString:
		node = &SchemaNode{
			Type:      "string",
			Format:    inferFormat(d.Formats),
			MinLength: d.MinLength,
			MaxLength: d.MaxLength,
		}
		if d.Pattern != nil {
			node.Pattern = d.Pattern.String()
		}

	case schema.KindNumber:
		typ := "number"
		if d.Integer {
			typ = "integer"
		}
		node = &SchemaNode{Type: typ, Minimum: d.Minimum, Maximum: d.Maximum}

	case schema.KindBool:
		node = &SchemaNode{Type: "boolean"}

	case schema.KindDate:
		node = &SchemaNode{Type: "string", Format: "date-time"}

	case schema.KindLiteral:
		node = &SchemaNode{Type: jsonTypeOf(d.Literal), Enum: []any{d.Literal}}

	case schema.KindEnum:
		values := make([]any, len(d.Enum))
		for i, v := range d.Enum {
			values[i] = v
		}
		node = &SchemaNode{Type: "string", Enum: values}

	case schema.KindValueEnum:
		// Members are stringified, including numeric ones.
		values := make([]any, len(d.Values))
		for i, v := range d.Values {
			values[i] = stringify(v)
		}
		node = &SchemaNode{Type: "string", Enum: values}

	case schema.KindArray:
		items, cerr := g.convert(d.Elem, defName, false)
		if cerr != nil {
			return nil, cerr
		}
		node = &SchemaNode{Type: "array", Items: items, MinItems: d.MinItems, MaxItems: d.MaxItems}

	case schema.KindRecord:
		value, cerr := g.convert(d.Value, defName, false)
		if cerr != nil {
			return nil, cerr
		}
		node = &SchemaNode{Type: "object", AdditionalProperties: value}

	case schema.KindUnion:
		branches, cerr := g.convertBranches(flattenVariants(u.Schema, schema.KindUnion, g.refNames), defName)
		if cerr != nil {
			return nil, cerr
		}
		node = &SchemaNode{AnyOf: branches}

	case schema.KindIntersection:
		branches, cerr := g.convertBranches(flattenVariants(u.Schema, schema.KindIntersection, g.refNames), defName)
		if cerr != nil {
			return nil, cerr
		}
		node = &SchemaNode{AllOf: branches}

	case schema.KindDiscriminatedUnion:
		// Variants stay direct branches; no flattening.
		branches, cerr := g.convertBranches(d.Variants, defName)
		if cerr != nil {
			return nil, cerr
		}
		node = &SchemaNode{
			OneOf:         branches,
			Discriminator: &Discriminator{PropertyName: d.Discriminator},
		}

	case schema.KindObject:
		node, err = g.convertObject(d, defName)
		if err != nil {
			return nil, err
		}

	case schema.KindUnknown:
		node = &SchemaNode{}

	default:
		return nil, &UnknownSchemaKindError{Kind: d.Kind, Definition: defName}
	}

	applyMeta(node, u.Meta)
	return node, nil
}

func (g *generator) convertBranches(variants []*schema.Schema, defName string) ([]*SchemaNode, error) {
	nodes := make([]*SchemaNode, len(variants))
	for i, v := range variants {
		node, err := g.convert(v, defName, false)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}
	return nodes, nil
}

// convertObject builds an object node, diffing against the parent when the
// object extends a registered named schema.
func (g *generator) convertObject(d schema.Descriptor, defName string) (*SchemaNode, error) {
	props := make(map[string]*SchemaNode, len(d.Fields))
	var required []string
	for _, f := range d.Fields {
		fu := schema.Unwrap(f.Schema)
		node, err := g.convert(f.Schema, defName, false)
		if err != nil {
			return nil, err
		}
		props[f.Name] = node
		if !fu.Optional {
			required = append(required, f.Name)
		}
	}

	if d.Extends == nil {
		node := &SchemaNode{Type: "object", Properties: props, Required: required}
		if len(props) == 0 {
			node.Properties = nil
		}
		if d.Passthrough {
			node.AdditionalProperties = true
		}
		return node, nil
	}

	parentName, ok := g.refNames[schema.Unwrap(d.Extends).Schema]
	if !ok {
		return nil, &ExtendError{Definition: defName}
	}
	parentProps, parentRequired := emittedObjectShape(g.schemas[parentName])

	// Properties structurally identical to the parent's are inherited via
	// the reference and omitted here; likewise keys the parent already
	// requires.
	diffed := make(map[string]*SchemaNode)
	for name, node := range props {
		if parent, ok := parentProps[name]; ok && reflect.DeepEqual(parent, node) {
			continue
		}
		diffed[name] = node
	}
	var diffedRequired []string
	for _, name := range required {
		if !containsString(parentRequired, name) {
			diffedRequired = append(diffedRequired, name)
		}
	}

	own := &SchemaNode{Type: "object", Required: diffedRequired}
	if len(diffed) > 0 {
		own.Properties = diffed
	}
	if d.Passthrough {
		own.AdditionalProperties = true
	}
	return &SchemaNode{AllOf: []*SchemaNode{SchemaRef(parentName), own}}, nil
}

// emittedObjectShape extracts the properties and required list from an
// already-emitted object node, looking inside allOf chains for the member
// carrying the properties.
func emittedObjectShape(node *SchemaNode) (map[string]*SchemaNode, []string) {
	if node == nil {
		return nil, nil
	}
	if len(node.AllOf) > 0 {
		for i := len(node.AllOf) - 1; i >= 0; i-- {
			if node.AllOf[i].Properties != nil || node.AllOf[i].Type == "object" {
				return node.AllOf[i].Properties, node.AllOf[i].Required
			}
		}
	}
	return node.Properties, node.Required
}

// flattenVariants recursively flattens nested unions (or intersections)
// into a single branch list. Registered named schemas stay intact so they
// can be emitted as references.
func flattenVariants(s *schema.Schema, kind schema.Kind, refNames map[*schema.Schema]string) []*schema.Schema {
	var out []*schema.Schema
	for _, v := range schema.Introspect(s).Variants {
		inner := schema.Unwrap(v).Schema
		if _, named := refNames[inner]; !named && schema.Introspect(inner).Kind == kind {
			out = append(out, flattenVariants(inner, kind, refNames)...)
			continue
		}
		out = append(out, v)
	}
	return out
}

// citationMeta returns the metadata a citation carries beyond what the
// registered schema already holds. Unwrap merges the innermost schema's
// metadata into every citation, so fields matching the registered schema's
// own metadata are stripped; only wrapper-layer additions survive.
func citationMeta(u schema.Unwrapped) schema.Meta {
	own := schema.Introspect(u.Schema).Meta
	m := u.Meta
	if m.Description == own.Description {
		m.Description = ""
	}
	if reflect.DeepEqual(m.Example, own.Example) {
		m.Example = nil
	}
	return m
}

// refWithMeta returns a bare reference, or an allOf combining the reference
// with metadata the citation carries beyond the reference itself.
func refWithMeta(name string, m schema.Meta) *SchemaNode {
	ref := SchemaRef(name)
	if m.Description == "" && m.Example == nil {
		return ref
	}
	extra := &SchemaNode{Description: m.Description, Example: m.Example}
	return &SchemaNode{AllOf: []*SchemaNode{ref, extra}}
}

func applyMeta(node *SchemaNode, m schema.Meta) {
	if node.Ref != "" {
		return
	}
	if m.Description != "" && node.Description == "" {
		node.Description = m.Description
	}
	if m.Example != nil && node.Example == nil {
		node.Example = m.Example
	}
}

func inferFormat(formats []string) string {
	for _, want := range []string{schema.FormatUUID, schema.FormatEmail, schema.FormatURL} {
		for _, f := range formats {
			if f == want {
				if want == schema.FormatURL {
					return "uri"
				}
				return want
			}
		}
	}
	return ""
}

func jsonTypeOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int32, int64, float32, float64:
		return "number"
	case nil:
		return "null"
	default:
		return ""
	}
}

// stringify renders an enum member the same way validation compares it.
func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case int, int32, int64, float32, float64:
		return strconv.FormatFloat(mustFloat(v), 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func mustFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		return 0
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
