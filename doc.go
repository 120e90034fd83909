// Package oaz derives an HTTP service's whole surface from one set of
// schema-annotated route definitions: a normalized OpenAPI 3.1 document, a
// request router that validates and dispatches incoming traffic, and an
// outbound client that builds and validates calls against the same
// definitions.
//
// Definitions are accumulated on a Builder and frozen into an immutable
// Registry before anything consumes them:
//
//	item := schema.Object(
//	    schema.F("id", schema.String().UUID()),
//	    schema.F("name", schema.String().MinLen(1)),
//	).Meta(schema.Meta{Ref: "Item"})
//
//	reg := oaz.NewBuilder().
//	    Schema("Item", item).
//	    Route(oaz.Route{
//	        Method: http.MethodGet,
//	        Path:   "/items/{id}",
//	        Request: &oaz.RequestSpec{
//	            Params: map[string]*schema.Schema{"id": schema.String().UUID()},
//	        },
//	        Responses: map[int]oaz.ResponseSpec{
//	            200: {Content: map[string]*schema.Schema{"application/json": item}},
//	        },
//	        Handler: getItem,
//	    }).
//	    Build()
//
// The router validates each request channel in a fixed order (path
// parameters, query, headers, body) and hands the handler the coerced
// values plus a reply builder scoped to the declared responses:
//
//	rt, err := oaz.NewRouter(reg, oaz.WithDocumentConfig(cfg))
//	http.ListenAndServe(":8080", rt)
//
// The generated document is served at /openapi.json by default, computed
// once and shared. The client side mirrors the router:
//
//	cl, err := oaz.NewClient(reg, "https://api.example.com")
//	resp, err := cl.Call(ctx, "GET", "/items/{id}", oaz.CallInput{
//	    Params: map[string]any{"id": id},
//	})
//
// Middleware uses the standard func(http.Handler) http.Handler signature,
// so the entire Go middleware ecosystem works natively.
package oaz
