package oaz

import (
	"context"
	"net/http"
	"strings"
)

// HandlerFunc is the route handler signature. The framework owns parsing,
// validation, and serialization; handlers receive validated values and
// build replies through the endpoint-scoped builder on Call.
type HandlerFunc func(ctx context.Context, c *Call) (*Reply, error)

// Call carries the validated request values for one dispatched request.
// Values hold the schema-coerced output of validation, not the raw input.
type Call struct {
	params  map[string]any
	query   map[string]any
	headers map[string]any
	body    any

	endpoint *endpoint
	request  *http.Request
}

// Param returns the validated path parameter, or nil when absent.
func (c *Call) Param(name string) any { return c.params[name] }

// Query returns the validated query parameter, or nil when absent.
func (c *Call) Query(name string) any { return c.query[name] }

// Header returns the validated header parameter, or nil when absent.
func (c *Call) Header(name string) any { return c.headers[name] }

// Body returns the validated request body, or nil when the route declares none.
func (c *Call) Body() any { return c.body }

// Request returns the underlying HTTP request, for escape hatches such as
// reading unvalidated headers.
func (c *Call) Request() *http.Request { return c.request }

// Reply builds a response for a declared (status, media type) pair. Pairs
// the route does not declare are rejected with an UndeclaredReplyError.
//
// For JSON media types the body is marshalled; for other media types the
// body must be a string or []byte and is written verbatim.
func (c *Call) Reply(status int, mediaType string, body any) (*Reply, error) {
	if !c.endpoint.declares(status, mediaType) {
		return nil, &UndeclaredReplyError{
			Method:    c.endpoint.method,
			Path:      c.endpoint.path,
			Status:    status,
			MediaType: mediaType,
		}
	}
	if body != nil && mediaType != "" && !isJSONMediaType(mediaType) {
		switch body.(type) {
		case string, []byte:
		default:
			return nil, &ReplyBodyTypeError{MediaType: mediaType}
		}
	}
	return &Reply{status: status, mediaType: mediaType, body: body}, nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// NoContent builds a bodyless reply for a status declared without content.
func (c *Call) NoContent(status int) (*Reply, error) {
	return c.Reply(status, "", nil)
}

// Reply is a response under construction: a declared status and media type,
// the body value, and any response headers.
type Reply struct {
	status    int
	mediaType string
	body      any
	header    http.Header
}

// SetHeader sets a response header on the reply and returns it.
func (r *Reply) SetHeader(key, value string) *Reply {
	if r.header == nil {
		r.header = make(http.Header)
	}
	r.header.Set(key, value)
	return r
}
