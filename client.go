package oaz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Client builds, sends, and validates requests against the same route
// definitions the router serves. The endpoint index and per-endpoint accept
// headers are built once at construction and read-only afterwards.
type Client struct {
	base      string
	http      *http.Client
	endpoints map[string]*endpoint
	accept    map[string]string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying HTTP client. The default is
// http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient builds a client for the registry's routes, rooted at baseURL.
func NewClient(reg *Registry, baseURL string, opts ...ClientOption) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	c := &Client{
		base:      strings.TrimSuffix(baseURL, "/"),
		http:      http.DefaultClient,
		endpoints: make(map[string]*endpoint),
		accept:    make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, r := range reg.Routes() {
		ep := newEndpoint(r)
		key := ep.key()
		if _, ok := c.endpoints[key]; ok {
			return nil, &DuplicateRouteError{Method: ep.method, Path: ep.path}
		}
		c.endpoints[key] = ep
		c.accept[key] = acceptHeader(ep)
	}
	return c, nil
}

// acceptHeader is the union of all declared response media types across all
// statuses of the endpoint, computed once per endpoint.
func acceptHeader(ep *endpoint) string {
	set := make(map[string]bool)
	for _, byMedia := range ep.responses {
		for mediaType := range byMedia {
			if mediaType != "" {
				set[mediaType] = true
			}
		}
	}
	if len(set) == 0 {
		return ""
	}
	types := make([]string, 0, len(set))
	for mt := range set {
		types = append(types, mt)
	}
	sort.Strings(types)
	return strings.Join(types, ", ")
}

// CallInput holds the values for one outbound call.
type CallInput struct {
	Params  map[string]any
	Query   map[string]any
	Headers map[string]any

	// Body, when non-nil, is marshalled as JSON and the content type is
	// set automatically.
	Body any
}

// ClientResponse is a classified, validated response.
type ClientResponse struct {
	Status    int
	MediaType string

	// Data is the validated body (schema output), or the parsed body when
	// the declared media type carries no schema.
	Data any

	// Headers holds the response headers (first value each, lowercase
	// keys), with declared headers replaced by their validated values.
	Headers map[string]any

	// OK reflects the transport's success flag (2xx status).
	OK bool

	// Response is the underlying HTTP response. Its body is consumed.
	Response *http.Response
}

// Call sends one request for the (method, path template) endpoint and
// validates the response against the declared status and media type table.
// It performs no retries; any retry policy belongs to the caller.
func (c *Client) Call(ctx context.Context, method, path string, in CallInput) (*ClientResponse, error) {
	method = strings.ToUpper(method)
	ep, ok := c.endpoints[method+" "+path]
	if !ok {
		return nil, fmt.Errorf("no endpoint registered for %s %s", method, path)
	}

	req, err := c.buildRequest(ctx, ep, in)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return classifyResponse(ep, resp, data)
}

func (c *Client) buildRequest(ctx context.Context, ep *endpoint, in CallInput) (*http.Request, error) {
	rendered, err := renderPath(ep.path, in.Params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if in.Body != nil {
		encoded, err := json.Marshal(in.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, c.base+rendered, body)
	if err != nil {
		return nil, err
	}

	if len(in.Query) > 0 {
		q := req.URL.Query()
		for key, value := range in.Query {
			rv := reflect.ValueOf(value)
			if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
				for i := 0; i < rv.Len(); i++ {
					q.Add(key, formatValue(rv.Index(i).Interface()))
				}
				continue
			}
			q.Add(key, formatValue(value))
		}
		req.URL.RawQuery = q.Encode()
	}

	for key, value := range in.Headers {
		req.Header.Set(key, formatValue(value))
	}
	if in.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept := c.accept[ep.key()]; accept != "" {
		req.Header.Set("Accept", accept)
	}
	return req, nil
}

// renderPath substitutes placeholders with percent-encoded values. Every
// placeholder must have a value.
func renderPath(template string, params map[string]any) (string, error) {
	var buf strings.Builder
	i := 0
	for i < len(template) {
		if template[i] != '{' {
			buf.WriteByte(template[i])
			i++
			continue
		}
		end := strings.Index(template[i:], "}")
		if end == -1 {
			return "", fmt.Errorf("unclosed placeholder in template %s", template)
		}
		name := template[i+1 : i+end]
		value, ok := params[name]
		if !ok {
			return "", &MissingPathParameterError{Template: template, Key: name}
		}
		buf.WriteString(url.PathEscape(formatValue(value)))
		i += end + 1
	}
	return buf.String(), nil
}

// formatValue serializes a parameter value: dates as RFC 3339, everything
// else string-cast.
func formatValue(v any) string {
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// classifyResponse parses the body by media type, looks up the declared
// (status, media type) variant, and validates headers then body against it.
func classifyResponse(ep *endpoint, resp *http.Response, data []byte) (*ClientResponse, error) {
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return nil, &UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Response:   resp,
			Reason:     "missing content type",
		}
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, &UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
			Response:   resp,
			Reason:     "unparsable content type " + contentType,
		}
	}

	parsed, perr := parseResponseBody(mediaType, data)
	if perr != nil {
		return nil, &UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			MediaType:  mediaType,
			Body:       string(data),
			Response:   resp,
			Reason:     perr.Error(),
		}
	}

	variant, ok := ep.responses[resp.StatusCode][mediaType]
	if !ok {
		return nil, &UnexpectedResponseError{
			StatusCode: resp.StatusCode,
			MediaType:  mediaType,
			Body:       parsed,
			Response:   resp,
			Reason:     "status and media type are not declared for " + ep.key(),
		}
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[strings.ToLower(key)] = resp.Header.Get(key)
	}
	// Declared headers are validated before the body.
	for name, hs := range variant.headers {
		var raw any
		if vs := resp.Header.Values(name); len(vs) > 0 {
			raw = vs[0]
		}
		val, verr := hs.Validate(raw)
		if verr != nil {
			return nil, &ResponseHeaderError{
				Header:     name,
				Value:      resp.Header.Get(name),
				Violations: asViolations(verr),
			}
		}
		headers[name] = val
	}

	out := parsed
	if variant.body != nil {
		out, err = variant.body.Validate(parsed)
		if err != nil {
			return nil, &ResponseBodyError{
				Response:   resp,
				Body:       string(data),
				Violations: asViolations(err),
			}
		}
	}

	return &ClientResponse{
		Status:    resp.StatusCode,
		MediaType: mediaType,
		Data:      out,
		Headers:   headers,
		OK:        resp.StatusCode >= 200 && resp.StatusCode < 300,
		Response:  resp,
	}, nil
}

// parseResponseBody applies the fixed content-type parsing table:
// application/json (and +json suffixes) parse as JSON, text/* as plain
// text, anything else stays raw bytes.
func parseResponseBody(mediaType string, data []byte) (any, error) {
	switch {
	case isJSONMediaType(mediaType):
		if len(data) == 0 {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("malformed JSON body: %w", err)
		}
		return v, nil
	case strings.HasPrefix(mediaType, "text/"):
		return string(data), nil
	default:
		return data, nil
	}
}
