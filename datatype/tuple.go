package datatype

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// Tuple is a fixed-length heterogeneous sequence, encoded as a positional
// JSON array.
type Tuple struct {
	Members []DataType
}

// NewTuple creates a Tuple of the given member types.
func NewTuple(members ...DataType) (*Tuple, error) {
	if len(members) == 0 {
		return nil, secop.Errorf(secop.ClassInternalError, "tuple needs at least one member")
	}
	if err := checkMemberDepth("tuple", members...); err != nil {
		return nil, err
	}
	return &Tuple{Members: members}, nil
}

// MustTuple is like NewTuple but panics on error.
func MustTuple(members ...DataType) *Tuple {
	t, err := NewTuple(members...)
	if err != nil {
		panic(err)
	}
	return t
}

func (d *Tuple) Type() string { return TupleType }

func (d *Tuple) depth() int {
	max := 0
	for _, m := range d.Members {
		if md := m.depth(); md > max {
			max = md
		}
	}
	return max + 1
}

func (d *Tuple) each(v any, conv func(DataType, any) (any, error)) (any, error) {
	seq, ok := v.([]any)
	if !ok {
		return nil, badValue("can not convert %v to a tuple", v)
	}
	if len(seq) != len(d.Members) {
		return nil, badValue("tuple needs %d elements, got %d", len(d.Members), len(seq))
	}
	out := make([]any, len(seq))
	for i, elem := range seq {
		cv, err := conv(d.Members[i], elem)
		if err != nil {
			return nil, badValue("tuple element %d: %v", i, secop.AsError(err).Message)
		}
		out[i] = cv
	}
	return out, nil
}

func (d *Tuple) Coerce(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Coerce(e) })
}

func (d *Tuple) Validate(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Validate(e) })
}

func (d *Tuple) Export(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Export(e) })
}

func (d *Tuple) Import(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Import(e) })
}

func (d *Tuple) Describe() map[string]any {
	members := make([]any, len(d.Members))
	for i, m := range d.Members {
		members[i] = m.Describe()
	}
	return map[string]any{"type": TupleType, "members": members}
}
