// Package schema provides declarative validation schemas: values that
// describe the shape and constraints of data, validate candidate values with
// structured violation reporting, and expose their own structure for
// introspection.
//
// Schemas are composed from constructors and chainable refinements:
//
//	item := schema.Object(
//	    schema.F("id", schema.String().UUID()),
//	    schema.F("tags", schema.Array(schema.String()).MaxItems(10).Optional()),
//	)
//
// Validation coerces string inputs where unambiguous (numbers, booleans,
// RFC 3339 dates), so values read from URLs and headers validate without a
// separate parsing step:
//
//	out, err := item.Validate(map[string]any{"id": "..."})
//
// Introspection is a single call returning a closed tagged-variant
// descriptor; consumers dispatch on Descriptor.Kind:
//
//	d := schema.Introspect(s)
//	switch d.Kind {
//	case schema.KindString: ...
//	}
//
// Wrapper layers (Optional, Nullable, Default, Refine, Preprocess) are
// collapsed with Unwrap, which also aggregates optionality flags and merged
// metadata.
package schema
