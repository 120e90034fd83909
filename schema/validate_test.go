package schema_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstic/oaz/schema"
)

func TestValidate_primitives(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		schema  *schema.Schema
		raw     any
		want    any
		wantErr string
	}{
		{name: "string ok", schema: schema.String(), raw: "hello", want: "hello"},
		{name: "string wrong type", schema: schema.String(), raw: 42, wantErr: "expected string"},
		{name: "string too short", schema: schema.String().MinLen(3), raw: "ab", wantErr: "at least 3"},
		{name: "string too long", schema: schema.String().MaxLen(2), raw: "abc", wantErr: "at most 2"},
		{name: "string pattern ok", schema: schema.String().Pattern(`^[a-z]+$`), raw: "abc", want: "abc"},
		{name: "string pattern fail", schema: schema.String().Pattern(`^[a-z]+$`), raw: "ABC", wantErr: "must match pattern"},
		{name: "uuid ok", schema: schema.String().UUID(), raw: "550e8400-e29b-41d4-a716-446655440000", want: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "uuid fail", schema: schema.String().UUID(), raw: "nope", wantErr: "valid UUID"},
		{name: "email ok", schema: schema.String().Email(), raw: "a@example.com", want: "a@example.com"},
		{name: "email fail", schema: schema.String().Email(), raw: "not-an-email", wantErr: "valid email"},
		{name: "url ok", schema: schema.String().URL(), raw: "https://example.com/x", want: "https://example.com/x"},
		{name: "url fail", schema: schema.String().URL(), raw: "/relative", wantErr: "valid URL"},

		{name: "number ok", schema: schema.Number(), raw: 3.5, want: 3.5},
		{name: "number from string", schema: schema.Number(), raw: "42", want: 42.0},
		{name: "number bad string", schema: schema.Number(), raw: "x42", wantErr: "expected number"},
		{name: "integer ok", schema: schema.Number().Int(), raw: 7, want: 7.0},
		{name: "integer fail", schema: schema.Number().Int(), raw: 7.5, wantErr: "expected integer"},
		{name: "number min", schema: schema.Number().Min(10), raw: 9, wantErr: "at least 10"},
		{name: "number max", schema: schema.Number().Max(10), raw: 11, wantErr: "at most 10"},

		{name: "bool ok", schema: schema.Bool(), raw: true, want: true},
		{name: "bool from string", schema: schema.Bool(), raw: "true", want: true},
		{name: "bool bad", schema: schema.Bool(), raw: "maybe", wantErr: "expected boolean"},

		{name: "null ok", schema: schema.Null(), raw: nil, want: nil},
		{name: "null fail", schema: schema.Null(), raw: "x", wantErr: "expected null"},

		{name: "literal string", schema: schema.Literal("sword"), raw: "sword", want: "sword"},
		{name: "literal mismatch", schema: schema.Literal("sword"), raw: "bow", wantErr: "expected literal"},
		{name: "literal numeric coercion", schema: schema.Literal(1), raw: 1.0, want: 1},

		{name: "enum ok", schema: schema.Enum("a", "b"), raw: "b", want: "b"},
		{name: "enum fail", schema: schema.Enum("a", "b"), raw: "c", wantErr: "one of"},
		{name: "value enum numeric", schema: schema.ValueEnum(1, 2), raw: "2", want: 2},

		{name: "unknown passes anything", schema: schema.Unknown(), raw: map[string]any{"x": 1}, want: map[string]any{"x": 1}},
		{name: "missing required", schema: schema.String(), raw: nil, wantErr: "required"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tt.schema.Validate(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate_date(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	got, err := schema.Date().Validate(now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = schema.Date().Validate("2024-05-01T12:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, now, got)

	_, err = schema.Date().Validate("yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC 3339")
}

func TestValidate_array(t *testing.T) {
	t.Parallel()

	s := schema.Array(schema.Number()).MinItems(1).MaxItems(3)

	got, err := s.Validate([]any{1, "2"})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, got)

	// String slices validate too; channel readers produce []string.
	got, err = schema.Array(schema.String()).Validate([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, got)

	_, err = s.Validate([]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 1")

	_, err = s.Validate([]any{1, 2, 3, 4})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at most 3")

	_, err = s.Validate([]any{1, "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1: expected number")
}

func TestValidate_object(t *testing.T) {
	t.Parallel()

	s := schema.Object(
		schema.F("name", schema.String()),
		schema.F("age", schema.Number().Int().Optional()),
	)

	got, err := s.Validate(map[string]any{"name": "ada", "age": 36, "extra": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada", "age": 36.0}, got)

	_, err = s.Validate(map[string]any{"age": 36})
	require.Error(t, err)

	var vs schema.Violations
	require.ErrorAs(t, err, &vs)
	require.Len(t, vs, 1)
	assert.Equal(t, []string{"name"}, vs[0].Path)
	assert.Equal(t, "required", vs[0].Message)
}

func TestValidate_object_passthrough(t *testing.T) {
	t.Parallel()

	s := schema.Object(schema.F("name", schema.String())).Passthrough()
	got, err := s.Validate(map[string]any{"name": "ada", "extra": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "ada", "extra": true}, got)
}

func TestValidate_object_extend(t *testing.T) {
	t.Parallel()

	parent := schema.Object(schema.F("a", schema.String()))
	child := schema.Object(schema.F("b", schema.Number())).Extend(parent)

	got, err := child.Validate(map[string]any{"a": "x", "b": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x", "b": 1.0}, got)

	_, err = child.Validate(map[string]any{"b": 1})
	require.Error(t, err, "inherited fields stay required")
}

func TestValidate_record(t *testing.T) {
	t.Parallel()

	s := schema.Record(schema.Number())
	got, err := s.Validate(map[string]any{"a": 1, "b": "2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0, "b": 2.0}, got)

	_, err = s.Validate(map[string]any{"a": "x"})
	require.Error(t, err)
}

func TestValidate_union(t *testing.T) {
	t.Parallel()

	s := schema.Union(schema.Number(), schema.Bool())

	got, err := s.Validate(true)
	require.NoError(t, err)
	assert.Equal(t, true, got)

	_, err = s.Validate(map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "union variants")
}

func TestValidate_discriminatedUnion(t *testing.T) {
	t.Parallel()

	sword := schema.Object(
		schema.F("type", schema.Literal("sword")),
		schema.F("damage", schema.Number()),
	)
	bow := schema.Object(
		schema.F("type", schema.Literal("bow")),
		schema.F("range", schema.Number()),
	)
	s := schema.DiscriminatedUnion("type", sword, bow)

	got, err := s.Validate(map[string]any{"type": "bow", "range": 100})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "bow", "range": 100.0}, got)

	_, err = s.Validate(map[string]any{"type": "axe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized discriminator")

	_, err = s.Validate(map[string]any{"range": 100})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestValidate_intersection(t *testing.T) {
	t.Parallel()

	s := schema.Intersection(
		schema.Object(schema.F("a", schema.String())).Passthrough(),
		schema.Object(schema.F("b", schema.Number())).Passthrough(),
	)

	got, err := s.Validate(map[string]any{"a": "x", "b": 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "x", "b": 2.0}, got)

	_, err = s.Validate(map[string]any{"a": "x"})
	require.Error(t, err)
}

func TestValidate_wrappers(t *testing.T) {
	t.Parallel()

	opt := schema.String().Optional()
	got, err := opt.Validate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	def := schema.Number().Default(5.0)
	got, err = def.Validate(nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)

	got, err = def.Validate("7")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got)

	nullable := schema.String().Nullable()
	got, err = nullable.Validate(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	even := schema.Number().Int().Refine(func(v any) error {
		if int(v.(float64))%2 != 0 {
			return errors.New("odd")
		}
		return nil
	}, "must be even")
	_, err = even.Validate(3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be even")

	trimmed := schema.Number().Preprocess(func(v any) any {
		if s, ok := v.(string); ok && s == "" {
			return nil
		}
		return v
	}).Optional()
	_, err = trimmed.Validate("12")
	require.NoError(t, err)
}

func TestViolations_Error(t *testing.T) {
	t.Parallel()

	vs := schema.Violations{
		{Path: []string{"user", "name"}, Message: "required"},
		{Path: []string{"user", "age"}, Message: "expected number"},
	}
	assert.Equal(t, "user.name: required (and 1 more)", vs.Error())
	assert.Equal(t, "validation failed", schema.Violations{}.Error())
}

func TestValidate_coercedOutputNotRawInput(t *testing.T) {
	t.Parallel()

	// The output is the schema's coerced value, not the raw input.
	s := schema.Object(schema.F("when", schema.Date()))
	got, err := s.Validate(map[string]any{"when": "2024-01-02T03:04:05Z"})
	require.NoError(t, err)

	when, ok := got.(map[string]any)["when"].(time.Time)
	require.True(t, ok, "expected time.Time, got %T", got.(map[string]any)["when"])
	assert.Equal(t, "2024-01-02T03:04:05Z", when.Format(time.RFC3339))
}

func ExampleSchema_Validate() {
	s := schema.Object(
		schema.F("name", schema.String().MinLen(1)),
		schema.F("count", schema.Number().Int().Default(1.0)),
	)
	out, _ := s.Validate(map[string]any{"name": "widget"})
	fmt.Println(out.(map[string]any)["count"])
	// Output: 1
}
