package oaz

import (
	"sort"
	"strings"

	"github.com/shopstic/oaz/schema"
)

// boundField is one (key, schema) pair of a request channel.
type boundField struct {
	name   string
	schema *schema.Schema
}

// responseVariant is the declared shape of one (status, media type) pair.
type responseVariant struct {
	body    *schema.Schema
	headers map[string]*schema.Schema
}

// endpoint is the resolved, flattened view of a Route: ordered field lists
// per channel and a status → media type → variant table. Built once at
// router or client construction and immutable thereafter.
type endpoint struct {
	method string
	path   string

	pathParams   []boundField
	queryParams  []boundField
	headerParams []boundField
	body         *schema.Schema

	responses map[int]map[string]*responseVariant
}

// key returns the stable endpoint identifier used for cache maps.
func (e *endpoint) key() string {
	return e.method + " " + e.path
}

func newEndpoint(r Route) *endpoint {
	e := &endpoint{
		method:    strings.ToUpper(r.Method),
		path:      r.Path,
		responses: make(map[int]map[string]*responseVariant, len(r.Responses)),
	}
	if r.Request != nil {
		e.pathParams = sortedFields(r.Request.Params)
		e.queryParams = sortedFields(r.Request.Query)
		e.headerParams = sortedFields(r.Request.Headers)
		e.body = r.Request.Body
	}
	for status, spec := range r.Responses {
		byMedia := make(map[string]*responseVariant, len(spec.Content))
		for mediaType, body := range spec.Content {
			v := &responseVariant{body: body}
			for name, hs := range spec.Headers {
				if s, ok := hs.(*schema.Schema); ok {
					if v.headers == nil {
						v.headers = make(map[string]*schema.Schema)
					}
					v.headers[strings.ToLower(name)] = s
				}
			}
			byMedia[mediaType] = v
		}
		if len(byMedia) == 0 {
			// Status declared with no content (e.g. 204).
			byMedia[""] = &responseVariant{}
		}
		e.responses[status] = byMedia
	}
	return e
}

// declares reports whether the endpoint declares the given status and media
// type pair. A status registered without content matches the empty media type.
func (e *endpoint) declares(status int, mediaType string) bool {
	byMedia, ok := e.responses[status]
	if !ok {
		return false
	}
	_, ok = byMedia[mediaType]
	return ok
}

// sortedFields flattens a schema map into a deterministic (key, schema) list.
func sortedFields(m map[string]*schema.Schema) []boundField {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]boundField, len(keys))
	for i, k := range keys {
		fields[i] = boundField{name: k, schema: m[k]}
	}
	return fields
}
