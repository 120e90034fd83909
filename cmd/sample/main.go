// Command sample demonstrates the oaz library with a small item store.
//
// Run:
//
//	go run ./cmd/sample
//
// Generate the document:
//
//	go run ./cmd/sample -spec                 (print to stdout)
//	go run ./cmd/sample -spec -o openapi.json (write to file)
//
// Then explore:
//
//	GET    http://localhost:8080/openapi.json
//	GET    http://localhost:8080/docs
//	GET    http://localhost:8080/items?tag=a&tag=b
//	POST   http://localhost:8080/items
//	GET    http://localhost:8080/items/{id}
//	DELETE http://localhost:8080/items/{id}
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"

	"github.com/google/uuid"

	"github.com/shopstic/oaz"
	"github.com/shopstic/oaz/schema"
)

func main() {
	specFlag := flag.Bool("spec", false, "Print the generated document to stdout and exit")
	outFlag := flag.String("o", "", "Output file for the document (requires -spec)")
	flag.Parse()

	rt, err := newRouter()
	if err != nil {
		slog.Error("router construction failed", "err", err)
		os.Exit(1)
	}

	if *specFlag {
		if err := writeSpec(rt, *outFlag); err != nil {
			slog.Error("document generation failed", "err", err)
			os.Exit(1)
		}
		return
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	slog.Info("starting server", "addr", ":8080", "spec", "http://localhost:8080/openapi.json")

	if err := rt.ListenAndServe(ctx, ":8080"); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "err", err)
	}

	slog.Info("server stopped")
}

func writeSpec(rt *oaz.Router, out string) error {
	if out == "" {
		return rt.WriteDocument(os.Stdout)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return rt.WriteDocument(f)
}

type store struct {
	mu    sync.RWMutex
	items map[string]map[string]any
}

func newRouter() (*oaz.Router, error) {
	st := &store{items: make(map[string]map[string]any)}

	itemSchema := schema.Object(
		schema.F("id", schema.String().UUID()),
		schema.F("name", schema.String().MinLen(1)),
		schema.F("tags", schema.Array(schema.String()).Optional()),
	).Meta(schema.Meta{Ref: "Item", Description: "A stored item"})

	createSchema := schema.Object(
		schema.F("name", schema.String().MinLen(1)),
		schema.F("tags", schema.Array(schema.String()).Optional()),
	).Meta(schema.Meta{Ref: "CreateItem"})

	idParam := schema.String().UUID()
	jsonContent := func(s *schema.Schema) map[string]*schema.Schema {
		return map[string]*schema.Schema{"application/json": s}
	}

	reg := oaz.NewBuilder().
		Schema("Item", itemSchema).
		Schema("CreateItem", createSchema).
		Route(oaz.Route{
			Method:  http.MethodGet,
			Path:    "/items",
			Summary: "List items",
			Tags:    []string{"items"},
			Request: &oaz.RequestSpec{
				Query: map[string]*schema.Schema{
					"tag":   schema.Array(schema.String()).Optional(),
					"limit": schema.Number().Int().Min(1).Max(100).Default(float64(20)),
				},
			},
			Responses: map[int]oaz.ResponseSpec{
				200: {Description: "Item list", Content: jsonContent(schema.Array(itemSchema))},
			},
			Handler: st.list,
		}).
		Route(oaz.Route{
			Method:  http.MethodPost,
			Path:    "/items",
			Summary: "Create an item",
			Tags:    []string{"items"},
			Request: &oaz.RequestSpec{Body: createSchema},
			Responses: map[int]oaz.ResponseSpec{
				201: {Description: "Created item", Content: jsonContent(itemSchema)},
			},
			Handler: st.create,
		}).
		Route(oaz.Route{
			Method:  http.MethodGet,
			Path:    "/items/{id}",
			Summary: "Get an item",
			Tags:    []string{"items"},
			Request: &oaz.RequestSpec{
				Params: map[string]*schema.Schema{"id": idParam},
			},
			Responses: map[int]oaz.ResponseSpec{
				200: {Description: "The item", Content: jsonContent(itemSchema)},
				404: {Description: "Not found", Content: jsonContent(schema.Object(
					schema.F("message", schema.String()),
				))},
			},
			Handler: st.get,
		}).
		Route(oaz.Route{
			Method:  http.MethodDelete,
			Path:    "/items/{id}",
			Summary: "Delete an item",
			Tags:    []string{"items"},
			Request: &oaz.RequestSpec{
				Params: map[string]*schema.Schema{"id": idParam},
			},
			Responses: map[int]oaz.ResponseSpec{
				204: {Description: "Deleted"},
			},
			Handler: st.remove,
		}).
		Build()

	rt, err := oaz.NewRouter(reg,
		oaz.WithDocumentConfig(oaz.DocumentConfig{
			Info: oaz.Info{Title: "Sample API", Version: "1.0.0"},
		}),
		oaz.WithDocumentYAMLPath("/openapi.yaml"),
		oaz.WithDocsPath("/docs"),
	)
	if err != nil {
		return nil, err
	}

	rt.Use(oaz.Recovery(), oaz.RequestID(), oaz.RequestLogger(slog.Default()))
	rt.Use(oaz.RateLimit(oaz.RateLimitConfig{Rate: 50, Burst: 100}))
	return rt, nil
}

func (st *store) list(_ context.Context, c *oaz.Call) (*oaz.Reply, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var tags []any
	if v, ok := c.Query("tag").([]any); ok {
		tags = v
	}
	out := make([]map[string]any, 0, len(st.items))
	for _, item := range st.items {
		if len(tags) > 0 && !hasAnyTag(item, tags) {
			continue
		}
		out = append(out, item)
	}
	return c.Reply(http.StatusOK, "application/json", out)
}

func (st *store) create(_ context.Context, c *oaz.Call) (*oaz.Reply, error) {
	body := c.Body().(map[string]any)
	item := map[string]any{
		"id":   uuid.NewString(),
		"name": body["name"],
	}
	if tags, ok := body["tags"]; ok {
		item["tags"] = tags
	}

	st.mu.Lock()
	st.items[item["id"].(string)] = item
	st.mu.Unlock()

	return c.Reply(http.StatusCreated, "application/json", item)
}

func (st *store) get(_ context.Context, c *oaz.Call) (*oaz.Reply, error) {
	st.mu.RLock()
	item, ok := st.items[c.Param("id").(string)]
	st.mu.RUnlock()

	if !ok {
		return c.Reply(http.StatusNotFound, "application/json", map[string]any{"message": "item not found"})
	}
	return c.Reply(http.StatusOK, "application/json", item)
}

func (st *store) remove(_ context.Context, c *oaz.Call) (*oaz.Reply, error) {
	st.mu.Lock()
	delete(st.items, c.Param("id").(string))
	st.mu.Unlock()
	return c.NoContent(http.StatusNoContent)
}

func hasAnyTag(item map[string]any, tags []any) bool {
	itemTags, ok := item["tags"].([]any)
	if !ok {
		return false
	}
	for _, want := range tags {
		for _, have := range itemTags {
			if have == want {
				return true
			}
		}
	}
	return false
}
