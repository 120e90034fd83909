package schema

import (
	"fmt"
	"regexp"
)

// maxWrapperDepth bounds Unwrap. Wrapper chains are written by hand and are
// a few levels deep in practice; a chain this long is a defect.
const maxWrapperDepth = 64

// Descriptor is a read-only view of a schema's structure. It is the single
// introspection surface: consumers switch on Kind and read only the fields
// that kind populates.
type Descriptor struct {
	Kind Kind

	// KindString
	MinLength *int
	MaxLength *int
	Pattern   *regexp.Regexp
	Formats   []string

	// KindNumber
	Integer bool
	Minimum *float64
	Maximum *float64

	// KindLiteral
	Literal any

	// KindEnum / KindValueEnum
	Enum   []string
	Values []any

	// KindArray
	Elem     *Schema
	MinItems *int
	MaxItems *int

	// KindObject
	Fields      []Field
	Extends     *Schema
	Passthrough bool

	// KindRecord
	Value *Schema

	// KindUnion / KindDiscriminatedUnion / KindIntersection
	Variants      []*Schema
	Discriminator string

	// Wrapper kinds
	Inner   *Schema
	Default any

	Meta Meta
}

// Introspect returns the descriptor for s. It does not unwrap: a wrapped
// schema reports its wrapper kind with Inner set.
func Introspect(s *Schema) Descriptor {
	return Descriptor{
		Kind:          s.kind,
		MinLength:     s.minLen,
		MaxLength:     s.maxLen,
		Pattern:       s.pattern,
		Formats:       s.formats,
		Integer:       s.integer,
		Minimum:       s.min,
		Maximum:       s.max,
		Literal:       s.literal,
		Enum:          s.enumValues,
		Values:        s.rawValues,
		Elem:          s.elem,
		MinItems:      s.minItems,
		MaxItems:      s.maxItems,
		Fields:        s.fields,
		Extends:       s.extends,
		Passthrough:   s.passthrough,
		Value:         s.value,
		Variants:      s.variants,
		Discriminator: s.discriminator,
		Inner:         s.inner,
		Default:       s.defaultValue,
		Meta:          s.meta,
	}
}

// Unwrapped is the result of collapsing a schema's wrapper chain.
type Unwrapped struct {
	// Schema is the innermost non-wrapper schema.
	Schema *Schema

	// Optional is true when any layer was Optional or Default.
	Optional bool

	// Nullable is true when any layer was Nullable.
	Nullable bool

	// Meta is the merged metadata of the chain; for each field the
	// outermost non-empty value wins.
	Meta Meta
}

// Unwrap collapses Optional/Nullable/Default/Refine/Preprocess layers and
// returns the innermost schema together with the aggregated flags. It is
// idempotent: unwrapping an already-unwrapped schema returns it unchanged.
func Unwrap(s *Schema) Unwrapped {
	u := Unwrapped{Schema: s}
	for depth := 0; ; depth++ {
		if depth > maxWrapperDepth {
			panic(fmt.Sprintf("schema: wrapper chain deeper than %d levels", maxWrapperDepth))
		}
		u.Meta = mergeMeta(u.Meta, u.Schema.meta)
		switch u.Schema.kind {
		case KindOptional:
			u.Optional = true
		case KindDefault:
			u.Optional = true
		case KindNullable:
			u.Nullable = true
		case KindRefine, KindPreprocess:
			// transparent
		default:
			return u
		}
		u.Schema = u.Schema.inner
	}
}

// mergeMeta overlays inner onto outer, keeping outer's non-empty fields.
func mergeMeta(outer, inner Meta) Meta {
	if outer.Ref == "" {
		outer.Ref = inner.Ref
	}
	if outer.Description == "" {
		outer.Description = inner.Description
	}
	if outer.Example == nil {
		outer.Example = inner.Example
	}
	if outer.Param == nil {
		outer.Param = inner.Param
	}
	return outer
}
