package datatype

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// Array is a length-restricted homogeneous sequence. Array members are
// limited to basic types and tuples; nested arrays and structs are rejected
// at construction time.
type Array struct {
	Member DataType
	MinLen int
	MaxLen int
}

// NewArray creates an Array of the given member type restricted to
// [minLen, maxLen] elements.
func NewArray(member DataType, minLen, maxLen int) (*Array, error) {
	if err := checkMemberDepth("array", member); err != nil {
		return nil, err
	}
	switch member.Type() {
	case ArrayType, StructType:
		return nil, secop.Errorf(secop.ClassInternalError,
			"array members may only be basic types or tuples, not %s", member.Type())
	}
	return &Array{Member: member, MinLen: minLen, MaxLen: maxLen}, nil
}

// MustArray is like NewArray but panics on error.
func MustArray(member DataType, minLen, maxLen int) *Array {
	a, err := NewArray(member, minLen, maxLen)
	if err != nil {
		panic(err)
	}
	return a
}

func (d *Array) Type() string { return ArrayType }

func (d *Array) depth() int { return d.Member.depth() + 1 }

func (d *Array) each(v any, conv func(any) (any, error)) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, badValue("can not convert %v to an array", v)
	}
	out := make([]any, len(seq))
	for i, elem := range seq {
		cv, err := conv(elem)
		if err != nil {
			return nil, badValue("array element %d: %v", i, secop.AsError(err).Message)
		}
		out[i] = cv
	}
	return out, nil
}

func (d *Array) Coerce(v any) (any, error) {
	return d.each(v, d.Member.Coerce)
}

func (d *Array) Validate(v any) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, badValue("can not convert %v to an array", v)
	}
	if len(seq) < d.MinLen || len(seq) > d.MaxLen {
		return nil, badValue("array length %d must be between %d and %d", len(seq), d.MinLen, d.MaxLen)
	}
	return d.each(v, d.Member.Validate)
}

func (d *Array) Export(v any) (any, error) {
	return d.each(v, d.Member.Export)
}

func (d *Array) Import(v any) (any, error) {
	return d.each(v, d.Member.Import)
}

func (d *Array) Describe() map[string]any {
	return map[string]any{
		"type":    ArrayType,
		"members": d.Member.Describe(),
		"minlen":  d.MinLen,
		"maxlen":  d.MaxLen,
	}
}
