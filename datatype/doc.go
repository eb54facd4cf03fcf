// Package datatype implements the SECoP datatype system: typed value
// definitions with validation, coercion and canonical JSON wire encoding.
//
// Each DataType defines four conversions:
//
//   - Validate: coerce and range-check a value on the external write and
//     command-argument path. Out-of-range numbers, over-length strings,
//     blobs and arrays, and unknown enum members are rejected.
//   - Coerce: type conversion without range checks, used for values coming
//     from trusted internal read callbacks.
//   - Export: convert a typed value into its JSON-compatible wire form
//     (enums encode as integers, blobs as base64, tuples as positional
//     arrays, structs as objects).
//   - Import: convert a decoded JSON value back into the typed form.
//
// For every value v accepted by Validate, Import(Export(v)) == v.
//
// Compound types are bounded: nesting is limited to depth 3 and arrays may
// only contain basic types or tuples. Both rules are enforced when a type is
// constructed, not on every message.
//
// Usage Example:
//
//	dt := datatype.NewDouble(0, 100)
//	dt.Unit = "K"
//
//	v, err := dt.Validate(50.0) // ok
//	_, err = dt.Validate(150.0) // BadValue
package datatype
