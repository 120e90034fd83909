package oaz

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shopstic/oaz/schema"
)

// ErrorHandler writes the response for a request-time validation failure.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, verr *RequestValidationError)

// Router dispatches requests against the registry's routes, validating each
// input channel before the handler runs. It implements http.Handler.
//
// All dispatch state is built at construction and read-only afterwards;
// routes are fixed for the process lifetime.
type Router struct {
	registry *Registry
	methods  map[string]*methodTable

	middleware []Middleware

	docCfg      DocumentConfig
	docPath     string
	docYAMLPath string
	docsPath    string
	onError     ErrorHandler

	doc    atomic.Pointer[Document]
	flight singleflight.Group
}

// methodTable holds one method's routes: exact templates first, then
// pattern templates in registration order.
type methodTable struct {
	exact    map[string]*boundRoute
	patterns []*boundRoute
}

type boundRoute struct {
	route    Route
	endpoint *endpoint
	pattern  *pathPattern // nil for exact templates
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithDocumentConfig sets the info, servers, and passthrough fields of the
// generated document.
func WithDocumentConfig(cfg DocumentConfig) RouterOption {
	return func(rt *Router) {
		rt.docCfg = cfg
	}
}

// WithDocumentPath sets the path serving the generated document as JSON.
// The default is /openapi.json.
func WithDocumentPath(path string) RouterOption {
	return func(rt *Router) {
		rt.docPath = path
	}
}

// WithDocumentYAMLPath additionally serves the document as YAML at the
// given path.
func WithDocumentYAMLPath(path string) RouterOption {
	return func(rt *Router) {
		rt.docYAMLPath = path
	}
}

// WithErrorHandler sets the router-wide validation-failure writer.
func WithErrorHandler(h ErrorHandler) RouterOption {
	return func(rt *Router) {
		rt.onError = h
	}
}

// NewRouter builds the dispatch table from the registry's routes. Invalid
// definitions (an unsupported method, a malformed template, a missing
// handler, or two routes sharing a (method, path) pair) fail construction;
// the router never starts serving an invalid definition set.
func NewRouter(reg *Registry, opts ...RouterOption) (*Router, error) {
	rt := &Router{
		registry: reg,
		methods:  make(map[string]*methodTable),
		docPath:  "/openapi.json",
	}
	for _, opt := range opts {
		opt(rt)
	}

	seen := make(map[string]bool)
	for _, r := range reg.Routes() {
		method := strings.ToUpper(r.Method)
		if !allowedMethods[method] {
			return nil, &RouteError{Method: r.Method, Path: r.Path, Reason: "unsupported method"}
		}
		if r.Handler == nil {
			return nil, &RouteError{Method: method, Path: r.Path, Reason: "missing handler"}
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, &RouteError{Method: method, Path: r.Path, Reason: "path template must start with /"}
		}
		if method == http.MethodGet && rt.reservedPath(r.Path) {
			return nil, &RouteError{Method: method, Path: r.Path, Reason: "path is reserved for the generated document"}
		}
		key := method + " " + r.Path
		if seen[key] {
			return nil, &DuplicateRouteError{Method: method, Path: r.Path}
		}
		seen[key] = true

		br := &boundRoute{route: r, endpoint: newEndpoint(r)}
		mt := rt.methods[method]
		if mt == nil {
			mt = &methodTable{exact: make(map[string]*boundRoute)}
			rt.methods[method] = mt
		}
		if isExactPath(r.Path) {
			mt.exact[r.Path] = br
			continue
		}
		pattern, err := compilePattern(r.Path)
		if err != nil {
			return nil, &RouteError{Method: method, Path: r.Path, Reason: err.Error()}
		}
		br.pattern = pattern
		mt.patterns = append(mt.patterns, br)
	}

	return rt, nil
}

// Use adds middleware to the router. Middleware is applied in the order added.
func (rt *Router) Use(mw ...Middleware) {
	rt.middleware = append(rt.middleware, mw...)
}

// ServeHTTP implements http.Handler.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handler := http.Handler(http.HandlerFunc(rt.dispatch))
	for i := len(rt.middleware) - 1; i >= 0; i-- {
		handler = rt.middleware[i](handler)
	}
	handler.ServeHTTP(w, r)
}

// ListenAndServe starts an HTTP server on the given address. It blocks
// until the context is cancelled, then shuts down gracefully.
func (rt *Router) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           rt,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// reservedPath reports whether a path is claimed by one of the document
// endpoints. Routes may not register over them.
func (rt *Router) reservedPath(path string) bool {
	return path == rt.docPath ||
		(rt.docYAMLPath != "" && path == rt.docYAMLPath) ||
		(rt.docsPath != "" && path == rt.docsPath)
}

// dispatch matches the request to a route. Exact templates win over pattern
// templates; pattern templates are tried in registration order.
func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	method := strings.ToUpper(r.Method)
	path := r.URL.Path

	if method == http.MethodGet {
		switch {
		case path == rt.docPath:
			rt.serveDocument(w, documentJSON)
			return
		case rt.docYAMLPath != "" && path == rt.docYAMLPath:
			rt.serveDocument(w, documentYAML)
			return
		case rt.docsPath != "" && path == rt.docsPath:
			rt.serveDocs(w)
			return
		}
	}

	mt := rt.methods[method]
	if mt == nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if br, ok := mt.exact[path]; ok {
		rt.handle(w, r, br, nil)
		return
	}
	for _, br := range mt.patterns {
		if captures, ok := br.pattern.match(path); ok {
			rt.handle(w, r, br, captures)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// handle runs the validation pipeline and the route handler. Channels are
// validated in a fixed order (params, query, headers, body) and the first
// failure short-circuits with an error response.
func (rt *Router) handle(w http.ResponseWriter, r *http.Request, br *boundRoute, captures map[string]string) {
	ep := br.endpoint
	call := &Call{
		params:   make(map[string]any, len(ep.pathParams)),
		query:    make(map[string]any, len(ep.queryParams)),
		headers:  make(map[string]any, len(ep.headerParams)),
		endpoint: ep,
		request:  r,
	}

	for _, f := range ep.pathParams {
		// A missing capture validates nil so optional or defaulted path
		// parameters still succeed.
		var raw any
		if v, ok := captures[f.name]; ok {
			raw = v
		}
		val, err := f.schema.Validate(raw)
		if err != nil {
			rt.fail(w, r, br, SourceParams, err)
			return
		}
		call.params[f.name] = val
	}

	queryValues := r.URL.Query()
	for _, f := range ep.queryParams {
		var raw any
		if vs, ok := queryValues[f.name]; ok && len(vs) > 0 {
			if isArraySchema(f.schema) {
				raw = vs
			} else {
				raw = vs[0]
			}
		}
		val, err := f.schema.Validate(raw)
		if err != nil {
			rt.fail(w, r, br, SourceQuery, err)
			return
		}
		call.query[f.name] = val
	}

	for _, f := range ep.headerParams {
		var raw any
		if vs := r.Header.Values(f.name); len(vs) > 0 {
			raw = vs[0]
		}
		val, err := f.schema.Validate(raw)
		if err != nil {
			rt.fail(w, r, br, SourceHeaders, err)
			return
		}
		call.headers[f.name] = val
	}

	if ep.body != nil {
		raw, verr := readJSONBody(r)
		if verr != nil {
			rt.fail(w, r, br, SourceBody, verr)
			return
		}
		val, err := ep.body.Validate(raw)
		if err != nil {
			rt.fail(w, r, br, SourceBody, err)
			return
		}
		call.body = val
	}

	reply, err := br.route.Handler(r.Context(), call)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
		return
	}
	writeReply(w, reply)
}

// readJSONBody parses the request body. Malformed JSON is its own failure,
// distinct from a schema mismatch; an empty body validates as absent.
func readJSONBody(r *http.Request) (any, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, schema.Violations{{Message: "reading request body: " + err.Error()}}
	}
	if len(data) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, schema.Violations{{Message: "malformed JSON body: " + err.Error()}}
	}
	return raw, nil
}

// fail writes the validation-failure response through the route override,
// the router handler, or the default writer.
func (rt *Router) fail(w http.ResponseWriter, r *http.Request, br *boundRoute, source string, err error) {
	verr := &RequestValidationError{Source: source, Violations: asViolations(err)}
	switch {
	case br.route.OnError != nil:
		br.route.OnError(w, r, verr)
	case rt.onError != nil:
		rt.onError(w, r, verr)
	default:
		WriteValidationError(w, verr)
	}
}

// WriteValidationError is the default validation-failure writer: a 400
// response naming the failed channel with the structured violation list.
func WriteValidationError(w http.ResponseWriter, verr *RequestValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"message": "Request validation failed",
		"source":  verr.Source,
		"errors":  verr.Violations,
	})
}

func asViolations(err error) schema.Violations {
	if vs, ok := err.(schema.Violations); ok {
		return vs
	}
	return schema.Violations{{Message: err.Error()}}
}

func isArraySchema(s *schema.Schema) bool {
	return schema.Introspect(schema.Unwrap(s).Schema).Kind == schema.KindArray
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort after WriteHeader
	json.NewEncoder(w).Encode(v)
}

// writeReply writes a handler reply: headers, content type, status, body.
func writeReply(w http.ResponseWriter, reply *Reply) {
	for key, values := range reply.header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if reply.mediaType != "" {
		w.Header().Set("Content-Type", reply.mediaType)
	}
	w.WriteHeader(reply.status)
	if reply.body == nil {
		return
	}
	switch body := reply.body.(type) {
	case string:
		//nolint:errcheck,gosec // best-effort after WriteHeader
		io.WriteString(w, body)
	case []byte:
		//nolint:errcheck,gosec // best-effort after WriteHeader
		w.Write(body)
	default:
		//nolint:errcheck,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(body)
	}
}
