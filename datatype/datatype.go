package datatype

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// SECoP datatype names as they appear in the descriptive data.
const (
	DoubleType = "double"
	IntType    = "int"
	BoolType   = "bool"
	EnumType   = "enum"
	StringType = "string"
	BlobType   = "blob"
	ArrayType  = "array"
	TupleType  = "tuple"
	StructType = "struct"
)

// MaxDepth is the maximum nesting depth of compound datatypes.
const MaxDepth = 3

// DataType describes one SECoP datatype variant.
//
// Implementations are immutable after construction and safe for concurrent
// use. The dynamic types of values handled by the conversion methods are:
// float64 (double), int64 (int, enum), bool, string, []byte (blob),
// []any (array, tuple) and map[string]any (struct).
type DataType interface {
	// Type returns the SECoP datatype name, e.g. "double".
	Type() string

	// Validate coerces and range-checks a value for the external write path.
	Validate(v any) (any, error)

	// Coerce converts a value to the canonical typed form without range
	// checks. Used for values originating from trusted read callbacks.
	Coerce(v any) (any, error)

	// Export converts a typed value into its JSON-compatible wire form.
	Export(v any) (any, error)

	// Import converts a decoded JSON value into the canonical typed form.
	Import(v any) (any, error)

	// Describe returns the datainfo structure for the describing message.
	Describe() map[string]any

	// depth returns the nesting depth, 1 for basic types.
	depth() int
}

func badValue(format string, args ...any) error {
	return secop.Errorf(secop.ClassBadValue, format, args...)
}

// checkMemberDepth verifies the depth bound for a compound type built from
// the given members.
func checkMemberDepth(kind string, members ...DataType) error {
	for _, m := range members {
		if m == nil {
			return secop.Errorf(secop.ClassInternalError, "%s member type is nil", kind)
		}
		if m.depth()+1 > MaxDepth {
			return secop.Errorf(secop.ClassInternalError,
				"%s exceeds maximum nesting depth %d", kind, MaxDepth)
		}
	}
	return nil
}
