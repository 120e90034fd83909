package schema

import (
	"fmt"
	"regexp"
)

// Kind identifies the variant of a Schema. The set is closed: consumers
// dispatch with an exhaustive switch over Kind rather than probing for
// capabilities.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindDate
	KindNull
	KindLiteral
	KindEnum
	KindValueEnum
	KindArray
	KindObject
	KindRecord
	KindUnion
	KindDiscriminatedUnion
	KindIntersection
	KindUnknown

	// Wrapper kinds. They contribute no structure of their own and are
	// collapsed by Unwrap.
	KindOptional
	KindNullable
	KindDefault
	KindRefine
	KindPreprocess
)

// String returns the kind name as used in error messages.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindNull:
		return "null"
	case KindLiteral:
		return "literal"
	case KindEnum:
		return "enum"
	case KindValueEnum:
		return "value-enum"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindRecord:
		return "record"
	case KindUnion:
		return "union"
	case KindDiscriminatedUnion:
		return "discriminated-union"
	case KindIntersection:
		return "intersection"
	case KindUnknown:
		return "unknown"
	case KindOptional:
		return "optional"
	case KindNullable:
		return "nullable"
	case KindDefault:
		return "default"
	case KindRefine:
		return "refine"
	case KindPreprocess:
		return "preprocess"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Format identifiers inferred for string schemas, in inference priority order.
const (
	FormatUUID  = "uuid"
	FormatEmail = "email"
	FormatURL   = "url"
)

// Meta carries documentation and reference metadata attached to a schema.
// All fields are optional; the zero value means "no metadata".
type Meta struct {
	// Ref is the component name this schema is (or should be) registered
	// under in a generated document.
	Ref string

	// Description and Example are emitted verbatim on the generated node.
	Description string
	Example     any

	// Param names the parameter and its location (path, query, header)
	// when the schema is registered as a standalone named parameter.
	Param *ParamMeta
}

// ParamMeta identifies a named parameter.
type ParamMeta struct {
	Name string
	In   string
}

func (m Meta) empty() bool {
	return m.Ref == "" && m.Description == "" && m.Example == nil && m.Param == nil
}

// Field is one named property of an object schema. Field order is preserved.
type Field struct {
	Name   string
	Schema *Schema
}

// F is a shorthand Field constructor for building object schemas inline.
func F(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// Schema is a declarative description of a value shape. A Schema can
// validate candidate values (Validate) and be introspected (Introspect)
// without knowledge of how it was constructed.
//
// Schemas are built with the package-level constructors and refined with
// chainable methods:
//
//	user := schema.Object(
//	    schema.F("id", schema.String().UUID()),
//	    schema.F("name", schema.String().MinLen(1)),
//	    schema.F("age", schema.Number().Int().Min(0).Optional()),
//	)
//
// Construction is not safe for concurrent use; once built, a Schema is
// immutable and safe to share.
type Schema struct {
	kind Kind

	// string
	minLen, maxLen *int
	pattern        *regexp.Regexp
	formats        []string // declared format checks, in declaration order

	// number
	integer  bool
	min, max *float64

	// literal / enum
	literal    any
	enumValues []string
	rawValues  []any

	// array
	elem               *Schema
	minItems, maxItems *int

	// object
	fields      []Field
	extends     *Schema
	passthrough bool

	// record
	value *Schema

	// union / intersection / discriminated union
	variants      []*Schema
	discriminator string

	// wrappers
	inner        *Schema
	defaultValue any
	refineFn     func(any) error
	refineMsg    string
	preprocessFn func(any) any

	meta Meta
}

// String returns a string schema.
func String() *Schema { return &Schema{kind: KindString} }

// Number returns a number schema. Use Int to constrain it to integers.
func Number() *Schema { return &Schema{kind: KindNumber} }

// Bool returns a boolean schema.
func Bool() *Schema { return &Schema{kind: KindBool} }

// Date returns a schema accepting time.Time values or RFC 3339 strings,
// producing time.Time.
func Date() *Schema { return &Schema{kind: KindDate} }

// Null returns a schema accepting only null.
func Null() *Schema { return &Schema{kind: KindNull} }

// Literal returns a schema accepting exactly the given value.
func Literal(v any) *Schema { return &Schema{kind: KindLiteral, literal: v} }

// Enum returns a schema accepting one of the given strings.
func Enum(values ...string) *Schema {
	return &Schema{kind: KindEnum, enumValues: values}
}

// ValueEnum returns a schema accepting one of the given values compared by
// their string form. Generated documents stringify the members.
func ValueEnum(values ...any) *Schema {
	return &Schema{kind: KindValueEnum, rawValues: values}
}

// Array returns a schema for arrays of elem.
func Array(elem *Schema) *Schema { return &Schema{kind: KindArray, elem: elem} }

// Object returns an object schema with the given fields, in order.
func Object(fields ...Field) *Schema {
	return &Schema{kind: KindObject, fields: fields}
}

// Record returns a schema for string-keyed maps whose values match value.
func Record(value *Schema) *Schema { return &Schema{kind: KindRecord, value: value} }

// Union returns a schema accepting values matching any of the variants.
func Union(variants ...*Schema) *Schema {
	return &Schema{kind: KindUnion, variants: variants}
}

// DiscriminatedUnion returns a union of object variants distinguished by the
// literal (or enum) value of the shared tag field.
func DiscriminatedUnion(tag string, variants ...*Schema) *Schema {
	return &Schema{kind: KindDiscriminatedUnion, discriminator: tag, variants: variants}
}

// Intersection returns a schema accepting values matching all of the variants.
func Intersection(variants ...*Schema) *Schema {
	return &Schema{kind: KindIntersection, variants: variants}
}

// Unknown returns a schema accepting any value.
func Unknown() *Schema { return &Schema{kind: KindUnknown} }

// MinLen sets the minimum length of a string schema.
func (s *Schema) MinLen(n int) *Schema { s.minLen = &n; return s }

// MaxLen sets the maximum length of a string schema.
func (s *Schema) MaxLen(n int) *Schema { s.maxLen = &n; return s }

// Pattern constrains a string schema to match the given regular expression.
// It panics if the expression does not compile; patterns are author-supplied
// constants, so a bad one is a construction-time defect.
func (s *Schema) Pattern(expr string) *Schema {
	s.pattern = regexp.MustCompile(expr)
	return s
}

// UUID adds a UUID format check to a string schema.
func (s *Schema) UUID() *Schema { s.formats = append(s.formats, FormatUUID); return s }

// Email adds an email format check to a string schema.
func (s *Schema) Email() *Schema { s.formats = append(s.formats, FormatEmail); return s }

// URL adds a URL format check to a string schema.
func (s *Schema) URL() *Schema { s.formats = append(s.formats, FormatURL); return s }

// Int constrains a number schema to integer values.
func (s *Schema) Int() *Schema { s.integer = true; return s }

// Min sets the minimum of a number schema.
func (s *Schema) Min(n float64) *Schema { s.min = &n; return s }

// Max sets the maximum of a number schema.
func (s *Schema) Max(n float64) *Schema { s.max = &n; return s }

// MinItems sets the minimum length of an array schema.
func (s *Schema) MinItems(n int) *Schema { s.minItems = &n; return s }

// MaxItems sets the maximum length of an array schema.
func (s *Schema) MaxItems(n int) *Schema { s.maxItems = &n; return s }

// Extend declares that an object schema inherits the fields of parent.
// The parent must be registered as a named schema before any definition
// using the child is generated.
func (s *Schema) Extend(parent *Schema) *Schema { s.extends = parent; return s }

// Passthrough allows unknown keys on an object schema. Validated output
// retains them and generated documents set additionalProperties: true.
func (s *Schema) Passthrough() *Schema { s.passthrough = true; return s }

// Optional wraps the schema so that an absent value is accepted.
func (s *Schema) Optional() *Schema { return &Schema{kind: KindOptional, inner: s} }

// Nullable wraps the schema so that null is accepted.
func (s *Schema) Nullable() *Schema { return &Schema{kind: KindNullable, inner: s} }

// Default wraps the schema so that an absent value validates to v.
// A defaulted schema is treated as optional on input.
func (s *Schema) Default(v any) *Schema {
	return &Schema{kind: KindDefault, inner: s, defaultValue: v}
}

// Refine wraps the schema with a custom check run after the inner schema
// validates. A non-nil error from fn is reported as msg (or the error text
// when msg is empty).
func (s *Schema) Refine(fn func(any) error, msg string) *Schema {
	return &Schema{kind: KindRefine, inner: s, refineFn: fn, refineMsg: msg}
}

// Preprocess wraps the schema with a transform applied to the raw value
// before the inner schema validates it.
func (s *Schema) Preprocess(fn func(any) any) *Schema {
	return &Schema{kind: KindPreprocess, inner: s, preprocessFn: fn}
}

// Meta attaches metadata to the schema and returns it.
func (s *Schema) Meta(m Meta) *Schema { s.meta = m; return s }

// effectiveFields returns the object's fields including inherited ones,
// parents first, own fields overriding by name.
func (s *Schema) effectiveFields() []Field {
	if s.extends == nil {
		return s.fields
	}
	parent := Unwrap(s.extends).Schema
	var merged []Field
	if parent.kind == KindObject {
		merged = append(merged, parent.effectiveFields()...)
	}
	for _, f := range s.fields {
		replaced := false
		for i, m := range merged {
			if m.Name == f.Name {
				merged[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, f)
		}
	}
	return merged
}
