package datatype

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// Struct is a named-member compound type, encoded as a JSON object.
type Struct struct {
	Members map[string]DataType
}

// NewStruct creates a Struct from a member name to type mapping. Member
// names must be valid SECoP identifiers.
func NewStruct(members map[string]DataType) (*Struct, error) {
	if len(members) == 0 {
		return nil, secop.Errorf(secop.ClassInternalError, "struct needs at least one member")
	}
	for name, m := range members {
		if !secop.ValidName(name) {
			return nil, secop.Errorf(secop.ClassInternalError, "invalid struct member name %q", name)
		}
		if err := checkMemberDepth("struct", m); err != nil {
			return nil, err
		}
	}
	return &Struct{Members: members}, nil
}

// MustStruct is like NewStruct but panics on error.
func MustStruct(members map[string]DataType) *Struct {
	s, err := NewStruct(members)
	if err != nil {
		panic(err)
	}
	return s
}

func (d *Struct) Type() string { return StructType }

func (d *Struct) depth() int {
	max := 0
	for _, m := range d.Members {
		if md := m.depth(); md > max {
			max = md
		}
	}
	return max + 1
}

func (d *Struct) each(v any, conv func(DataType, any) (any, error)) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, badValue("can not convert %v to a struct", v)
	}
	out := make(map[string]any, len(d.Members))
	for name, m := range d.Members {
		elem, ok := obj[name]
		if !ok {
			return nil, badValue("struct member %q is missing", name)
		}
		cv, err := conv(m, elem)
		if err != nil {
			return nil, badValue("struct member %q: %v", name, secop.AsError(err).Message)
		}
		out[name] = cv
	}
	for name := range obj {
		if _, ok := d.Members[name]; !ok {
			return nil, badValue("unknown struct member %q", name)
		}
	}
	return out, nil
}

func (d *Struct) Coerce(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Coerce(e) })
}

func (d *Struct) Validate(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Validate(e) })
}

func (d *Struct) Export(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Export(e) })
}

func (d *Struct) Import(v any) (any, error) {
	return d.each(v, func(m DataType, e any) (any, error) { return m.Import(e) })
}

func (d *Struct) Describe() map[string]any {
	members := make(map[string]any, len(d.Members))
	for name, m := range d.Members {
		members[name] = m.Describe()
	}
	return map[string]any{"type": StructType, "members": members}
}
