package oaz_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstic/oaz"
	"github.com/shopstic/oaz/schema"
)

func TestBuilder_snapshotIsImmutable(t *testing.T) {
	t.Parallel()

	b := oaz.NewBuilder().
		Route(oaz.Route{Method: http.MethodGet, Path: "/a", Responses: map[int]oaz.ResponseSpec{204: {}}})

	snapshot := b.Build()
	b.Route(oaz.Route{Method: http.MethodGet, Path: "/b", Responses: map[int]oaz.ResponseSpec{204: {}}})

	require.Len(t, snapshot.Routes(), 1, "later registrations do not leak into the snapshot")
	assert.Equal(t, "/a", snapshot.Routes()[0].Path)
	assert.Len(t, b.Build().Routes(), 2)
}

func TestRegistry_routesKeepRegistrationOrder(t *testing.T) {
	t.Parallel()

	reg := oaz.NewBuilder().
		Schema("X", schema.String()).
		Route(oaz.Route{Method: http.MethodGet, Path: "/first", Responses: map[int]oaz.ResponseSpec{204: {}}}).
		Route(oaz.Route{Method: http.MethodGet, Path: "/second", Responses: map[int]oaz.ResponseSpec{204: {}}}).
		Build()

	routes := reg.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, "/first", routes[0].Path)
	assert.Equal(t, "/second", routes[1].Path)
}
