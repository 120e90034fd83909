package oaz

import (
	"github.com/shopstic/oaz/schema"
)

// Methods accepted by Route.Method.
var allowedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// Route declares one operation: its method and path template, the schemas
// for each request channel, the declared responses, and the handler.
type Route struct {
	// Method is one of GET, POST, PUT, PATCH, DELETE.
	Method string

	// Path is the template, with {name} placeholders for path parameters.
	Path string

	// Operation metadata, passed through to the generated document.
	Summary     string
	Description string
	Tags        []string
	OperationID string
	Deprecated  bool

	// Request declares the input schemas. Nil means the route takes no
	// validated input.
	Request *RequestSpec

	// Responses maps status code to the declared response shape. Replies
	// outside this map are rejected at reply-build time.
	Responses map[int]ResponseSpec

	// Handler is invoked with the validated request values.
	Handler HandlerFunc

	// OnError overrides the router's validation-failure writer for this
	// route. Nil uses the router default.
	OnError ErrorHandler
}

// RequestSpec declares per-channel request schemas. Map keys are the
// parameter or header names; for Params they must match the {name}
// placeholders in the path template. The body, when declared, is a JSON
// body validated against Body.
type RequestSpec struct {
	Params  map[string]*schema.Schema
	Query   map[string]*schema.Schema
	Headers map[string]*schema.Schema
	Body    *schema.Schema
}

// ResponseSpec declares one response status: its per-media-type body
// schemas and per-header schemas.
type ResponseSpec struct {
	Description string

	// Content maps media type to body schema. A nil schema declares the
	// media type with no body validation.
	Content map[string]*schema.Schema

	// Headers maps header name to either a *schema.Schema (converted and
	// validated) or a raw document node emitted verbatim.
	Headers map[string]any
}
