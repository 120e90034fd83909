package oaz

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopstic/oaz/schema"
)

// MissingPathParameterError reports a path template placeholder with no
// value supplied in the call input.
type MissingPathParameterError struct {
	Template string
	Key      string
}

func (e *MissingPathParameterError) Error() string {
	return fmt.Sprintf("missing value for path parameter %q in template %s", e.Key, e.Template)
}

// UnexpectedResponseError reports a response the endpoint does not declare:
// a missing content type, an unparsable body, or a status and media type
// pair outside the declared set. It carries the parsed body and the
// underlying response for caller inspection.
type UnexpectedResponseError struct {
	StatusCode int
	MediaType  string
	Body       any
	Response   *http.Response
	Reason     string
}

func (e *UnexpectedResponseError) Error() string {
	var b strings.Builder
	b.WriteString("unexpected response")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " %d", e.StatusCode)
	}
	if e.MediaType != "" {
		fmt.Fprintf(&b, " (%s)", e.MediaType)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// ResponseHeaderError reports a declared response header failing validation.
type ResponseHeaderError struct {
	Header     string
	Value      string
	Violations schema.Violations
}

func (e *ResponseHeaderError) Error() string {
	return fmt.Sprintf("response header %q with value %q failed validation: %s",
		e.Header, e.Value, e.Violations.Error())
}

// ResponseBodyError reports a response body failing validation against the
// declared schema. It carries the raw body text and the response.
type ResponseBodyError struct {
	Response   *http.Response
	Body       string
	Violations schema.Violations
}

func (e *ResponseBodyError) Error() string {
	return fmt.Sprintf("response body failed validation: %s", e.Violations.Error())
}
