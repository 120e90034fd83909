package schema

import (
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Violation is a single validation failure at a path within the value.
type Violation struct {
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

// Violations is the structured failure list returned by Validate.
// It implements error.
type Violations []Violation

// Error summarizes the violation list.
func (vs Violations) Error() string {
	if len(vs) == 0 {
		return "validation failed"
	}
	v := vs[0]
	msg := v.Message
	if len(v.Path) > 0 {
		msg = strings.Join(v.Path, ".") + ": " + msg
	}
	if len(vs) > 1 {
		msg += fmt.Sprintf(" (and %d more)", len(vs)-1)
	}
	return msg
}

func (vs Violations) prefix(seg string) Violations {
	out := make(Violations, len(vs))
	for i, v := range vs {
		out[i] = Violation{Path: append([]string{seg}, v.Path...), Message: v.Message}
	}
	return out
}

func fail(format string, args ...any) Violations {
	return Violations{{Message: fmt.Sprintf(format, args...)}}
}

// Validate checks raw against the schema and returns the coerced output
// value. String inputs are coerced where the schema kind allows it (numbers,
// booleans, dates), so values read from URL or header channels validate
// naturally. On failure the returned error is a Violations list.
func (s *Schema) Validate(raw any) (any, error) {
	switch s.kind {
	case KindOptional:
		if raw == nil {
			return nil, nil
		}
		return s.inner.Validate(raw)

	case KindNullable:
		if raw == nil {
			return nil, nil
		}
		return s.inner.Validate(raw)

	case KindDefault:
		if raw == nil {
			return s.defaultValue, nil
		}
		return s.inner.Validate(raw)

	case KindRefine:
		out, err := s.inner.Validate(raw)
		if err != nil {
			return nil, err
		}
		if rerr := s.refineFn(out); rerr != nil {
			msg := s.refineMsg
			if msg == "" {
				msg = rerr.Error()
			}
			return nil, fail("%s", msg)
		}
		return out, nil

	case KindPreprocess:
		return s.inner.Validate(s.preprocessFn(raw))

	case KindNull:
		if raw != nil {
			return nil, fail("expected null")
		}
		return nil, nil

	case KindUnknown:
		return raw, nil
	}

	if raw == nil {
		return nil, fail("required")
	}

	switch s.kind {
	case KindString:
		return s.validateString(raw)
	case KindNumber:
		return s.validateNumber(raw)
	case KindBool:
		return validateBool(raw)
	case KindDate:
		return validateDate(raw)
	case KindLiteral:
		return s.validateLiteral(raw)
	case KindEnum:
		return s.validateEnum(raw)
	case KindValueEnum:
		return s.validateValueEnum(raw)
	case KindArray:
		return s.validateArray(raw)
	case KindObject:
		return s.validateObject(raw)
	case KindRecord:
		return s.validateRecord(raw)
	case KindUnion:
		return s.validateUnion(raw)
	case KindDiscriminatedUnion:
		return s.validateDiscriminatedUnion(raw)
	case KindIntersection:
		return s.validateIntersection(raw)
	default:
		return nil, fail("unsupported schema kind %s", s.kind)
	}
}

func (s *Schema) validateString(raw any) (any, error) {
	str, ok := raw.(string)
	if !ok {
		return nil, fail("expected string, got %s", typeName(raw))
	}
	if s.minLen != nil && len(str) < *s.minLen {
		return nil, fail("must be at least %d characters", *s.minLen)
	}
	if s.maxLen != nil && len(str) > *s.maxLen {
		return nil, fail("must be at most %d characters", *s.maxLen)
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		return nil, fail("must match pattern %s", s.pattern.String())
	}
	for _, f := range s.formats {
		if err := checkFormat(f, str); err != nil {
			return nil, Violations{{Message: err.Error()}}
		}
	}
	return str, nil
}

func checkFormat(format, str string) error {
	switch format {
	case FormatUUID:
		if err := uuid.Validate(str); err != nil {
			return fmt.Errorf("must be a valid UUID")
		}
	case FormatEmail:
		if _, err := mail.ParseAddress(str); err != nil {
			return fmt.Errorf("must be a valid email address")
		}
	case FormatURL:
		u, err := url.Parse(str)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("must be a valid URL")
		}
	}
	return nil
}

func (s *Schema) validateNumber(raw any) (any, error) {
	n, ok := toFloat(raw)
	if !ok {
		return nil, fail("expected number, got %s", typeName(raw))
	}
	if s.integer && n != math.Trunc(n) {
		return nil, fail("expected integer")
	}
	if s.min != nil && n < *s.min {
		return nil, fail("must be at least %v", *s.min)
	}
	if s.max != nil && n > *s.max {
		return nil, fail("must be at most %v", *s.max)
	}
	return n, nil
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func validateBool(raw any) (any, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fail("expected boolean")
		}
		return b, nil
	default:
		return nil, fail("expected boolean, got %s", typeName(raw))
	}
}

func validateDate(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fail("expected RFC 3339 timestamp")
		}
		return t, nil
	default:
		return nil, fail("expected date, got %s", typeName(raw))
	}
}

func (s *Schema) validateLiteral(raw any) (any, error) {
	if ln, ok := toComparable(s.literal); ok {
		if rn, rok := toComparable(raw); rok && ln == rn {
			return s.literal, nil
		}
	} else if reflect.DeepEqual(raw, s.literal) {
		return s.literal, nil
	}
	return nil, fail("expected literal %v", s.literal)
}

// toComparable normalizes numeric values so 1, int64(1), and 1.0 compare equal.
func toComparable(v any) (any, bool) {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		n, _ := toFloat(v)
		return n, true
	case string, bool:
		return v, true
	default:
		return nil, false
	}
}

func (s *Schema) validateEnum(raw any) (any, error) {
	str, ok := raw.(string)
	if !ok {
		return nil, fail("expected string, got %s", typeName(raw))
	}
	for _, v := range s.enumValues {
		if v == str {
			return str, nil
		}
	}
	return nil, fail("must be one of [%s]", strings.Join(s.enumValues, ", "))
}

func (s *Schema) validateValueEnum(raw any) (any, error) {
	rs := fmt.Sprint(raw)
	for _, v := range s.rawValues {
		if fmt.Sprint(v) == rs {
			return v, nil
		}
	}
	return nil, fail("invalid enum value %v", raw)
}

func (s *Schema) validateArray(raw any) (any, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fail("expected array, got %s", typeName(raw))
	}
	n := rv.Len()
	if s.minItems != nil && n < *s.minItems {
		return nil, fail("must have at least %d items", *s.minItems)
	}
	if s.maxItems != nil && n > *s.maxItems {
		return nil, fail("must have at most %d items", *s.maxItems)
	}
	out := make([]any, n)
	var errs Violations
	for i := 0; i < n; i++ {
		v, err := s.elem.Validate(rv.Index(i).Interface())
		if err != nil {
			errs = append(errs, asViolations(err).prefix(strconv.Itoa(i))...)
			continue
		}
		out[i] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (s *Schema) validateObject(raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fail("expected object, got %s", typeName(raw))
	}
	fields := s.effectiveFields()
	out := make(map[string]any, len(fields))
	var errs Violations
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
		rawField, present := m[f.Name]
		if !present {
			rawField = nil
		}
		u := Unwrap(f.Schema)
		if !present && !u.Optional && !u.Nullable {
			errs = append(errs, Violation{Path: []string{f.Name}, Message: "required"})
			continue
		}
		v, err := f.Schema.Validate(rawField)
		if err != nil {
			errs = append(errs, asViolations(err).prefix(f.Name)...)
			continue
		}
		if v != nil || present {
			out[f.Name] = v
		}
	}
	if s.passthrough {
		for k, v := range m {
			if !known[k] {
				out[k] = v
			}
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (s *Schema) validateRecord(raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fail("expected object, got %s", typeName(raw))
	}
	out := make(map[string]any, len(m))
	var errs Violations
	for k, rawVal := range m {
		v, err := s.value.Validate(rawVal)
		if err != nil {
			errs = append(errs, asViolations(err).prefix(k)...)
			continue
		}
		out[k] = v
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func (s *Schema) validateUnion(raw any) (any, error) {
	for _, variant := range s.variants {
		if v, err := variant.Validate(raw); err == nil {
			return v, nil
		}
	}
	return nil, fail("value does not match any of %d union variants", len(s.variants))
}

func (s *Schema) validateDiscriminatedUnion(raw any) (any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fail("expected object, got %s", typeName(raw))
	}
	tag, ok := m[s.discriminator]
	if !ok {
		return nil, Violations{{Path: []string{s.discriminator}, Message: "required"}}
	}
	for _, variant := range s.variants {
		if variantMatchesTag(variant, s.discriminator, tag) {
			return variant.Validate(raw)
		}
	}
	return nil, Violations{{
		Path:    []string{s.discriminator},
		Message: fmt.Sprintf("unrecognized discriminator value %v", tag),
	}}
}

// variantMatchesTag reports whether the variant's discriminator field
// accepts the given tag value. The field must be a literal or string enum.
func variantMatchesTag(variant *Schema, field string, tag any) bool {
	obj := Unwrap(variant).Schema
	if obj.kind != KindObject {
		return false
	}
	for _, f := range obj.effectiveFields() {
		if f.Name != field {
			continue
		}
		fs := Unwrap(f.Schema).Schema
		switch fs.kind {
		case KindLiteral:
			_, err := fs.validateLiteral(tag)
			return err == nil
		case KindEnum:
			_, err := fs.validateEnum(tag)
			return err == nil
		}
	}
	return false
}

func (s *Schema) validateIntersection(raw any) (any, error) {
	var merged map[string]any
	var last any
	for _, variant := range s.variants {
		v, err := variant.Validate(raw)
		if err != nil {
			return nil, err
		}
		last = v
		if m, ok := v.(map[string]any); ok {
			if merged == nil {
				merged = make(map[string]any)
			}
			for k, mv := range m {
				merged[k] = mv
			}
		}
	}
	if merged != nil {
		return merged, nil
	}
	return last, nil
}

func asViolations(err error) Violations {
	if vs, ok := err.(Violations); ok {
		return vs
	}
	return Violations{{Message: err.Error()}}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return reflect.TypeOf(v).String()
}
