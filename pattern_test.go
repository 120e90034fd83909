package oaz_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstic/oaz"
)

func TestIsExactPath(t *testing.T) {
	t.Parallel()

	assert.True(t, oaz.IsExactPath("/users/list"))
	assert.False(t, oaz.IsExactPath("/users/{id}"))
}

func TestCompilePattern(t *testing.T) {
	t.Parallel()

	p, err := oaz.CompilePattern("/users/{id}/posts/{postID}")
	require.NoError(t, err)

	captures, ok := p.Match("/users/42/posts/abc")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42", "postID": "abc"}, captures)

	_, ok = p.Match("/users/42/posts")
	assert.False(t, ok, "missing segment")

	_, ok = p.Match("/users/42/posts/a/b")
	assert.False(t, ok, "placeholders match a single segment")

	_, ok = p.Match("/users/42/posts/abc/")
	assert.False(t, ok, "trailing slash is not part of the template")
}

func TestCompilePattern_escapesRegexMetacharacters(t *testing.T) {
	t.Parallel()

	p, err := oaz.CompilePattern("/v1.0/files/{name}")
	require.NoError(t, err)

	_, ok := p.Match("/v1x0/files/a")
	assert.False(t, ok, "the dot is literal")

	captures, ok := p.Match("/v1.0/files/a")
	require.True(t, ok)
	assert.Equal(t, "a", captures["name"])
}

func TestCompilePattern_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		template string
		wantErr  string
	}{
		{template: "/x/{id", wantErr: "unclosed placeholder"},
		{template: "/x/{}", wantErr: "empty placeholder"},
		{template: "/x/{id}/{id}", wantErr: "duplicate placeholder"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.template, func(t *testing.T) {
			t.Parallel()
			_, err := oaz.CompilePattern(tt.template)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRenderPath(t *testing.T) {
	t.Parallel()

	rendered, err := oaz.RenderPath("/users/{id}/files/{name}", map[string]any{
		"id":   7,
		"name": "report q1.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "/users/7/files/report%20q1.pdf", rendered)

	_, err = oaz.RenderPath("/users/{id}", map[string]any{})
	var missing *oaz.MissingPathParameterError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "id", missing.Key)
}
