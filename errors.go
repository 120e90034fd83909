package oaz

import (
	"fmt"

	"github.com/shopstic/oaz/schema"
)

// ConflictError reports two competing values for the same logical field,
// such as a named parameter registered for one location and referenced from
// another.
type ConflictError struct {
	// Name identifies the conflicting entity (schema or parameter name).
	Name string
	// Key is the conflicting field ("name" or "in").
	Key string
	// Declared and Used are the competing values.
	Declared string
	Used     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting %q for parameter %q: declared %q, used as %q",
		e.Key, e.Name, e.Declared, e.Used)
}

// MissingParameterDataError reports a standalone parameter schema whose
// metadata lacks a required field.
type MissingParameterDataError struct {
	// Name is the registration name of the parameter definition.
	Name string
	// Key is the missing metadata field ("name" or "in").
	Key string
}

func (e *MissingParameterDataError) Error() string {
	return fmt.Sprintf("parameter %q is missing %q metadata", e.Name, e.Key)
}

// UnknownSchemaKindError reports a schema kind the generator has no
// conversion rule for.
type UnknownSchemaKindError struct {
	Kind schema.Kind
	// Definition names the containing definition when known.
	Definition string
}

func (e *UnknownSchemaKindError) Error() string {
	if e.Definition != "" {
		return fmt.Sprintf("no conversion rule for schema kind %s in definition %q", e.Kind, e.Definition)
	}
	return fmt.Sprintf("no conversion rule for schema kind %s", e.Kind)
}

// ExtendError reports an object schema extending a schema that was never
// registered under a name.
type ExtendError struct {
	// Definition names the child definition.
	Definition string
}

func (e *ExtendError) Error() string {
	return fmt.Sprintf("definition %q extends a schema that is not registered as a named schema", e.Definition)
}

// DuplicateRouteError reports two routes registered for the same method and
// path template. It is fatal at router construction.
type DuplicateRouteError struct {
	Method string
	Path   string
}

func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("duplicate route registration for %s %s", e.Method, e.Path)
}

// RouteError reports an invalid route definition (unsupported method,
// malformed path template, missing handler).
type RouteError struct {
	Method string
	Path   string
	Reason string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("invalid route %s %s: %s", e.Method, e.Path, e.Reason)
}

// Request validation channels, in validation order.
const (
	SourceParams  = "params"
	SourceQuery   = "query"
	SourceHeaders = "headers"
	SourceBody    = "body"
)

// RequestValidationError is a request-time validation failure on one input
// channel. Validation is fail-fast: the error carries the first failing
// channel only.
type RequestValidationError struct {
	// Source is one of params, query, headers, body.
	Source string
	// Violations is the structured failure list from the schema.
	Violations schema.Violations
}

func (e *RequestValidationError) Error() string {
	return fmt.Sprintf("request validation failed in %s: %s", e.Source, e.Violations.Error())
}

// ReplyBodyTypeError reports a reply for a non-JSON media type built with a
// body that is neither a string nor a byte slice.
type ReplyBodyTypeError struct {
	MediaType string
}

func (e *ReplyBodyTypeError) Error() string {
	return fmt.Sprintf("reply body for media type %q must be a string or []byte", e.MediaType)
}

// UndeclaredReplyError reports a handler building a reply with a status and
// media type pair the endpoint does not declare.
type UndeclaredReplyError struct {
	Method    string
	Path      string
	Status    int
	MediaType string
}

func (e *UndeclaredReplyError) Error() string {
	return fmt.Sprintf("%s %s does not declare a %d response with media type %q",
		e.Method, e.Path, e.Status, e.MediaType)
}
