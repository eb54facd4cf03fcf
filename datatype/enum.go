package datatype

import (
	"github.com/SampleEnvironment/frappy/secop"
)

// Enum is a closed mapping of member names to integer codes. On the wire an
// enum value is encoded as its integer code; member names are accepted as
// input for convenience.
type Enum struct {
	members map[string]int64
	names   map[int64]string
}

// NewEnum creates an Enum from a name to code mapping. Member names must be
// valid SECoP identifiers and codes must be unique.
func NewEnum(members map[string]int64) (*Enum, error) {
	if len(members) == 0 {
		return nil, secop.Errorf(secop.ClassInternalError, "enum needs at least one member")
	}

	e := &Enum{
		members: make(map[string]int64, len(members)),
		names:   make(map[int64]string, len(members)),
	}
	for name, code := range members {
		if !secop.ValidName(name) {
			return nil, secop.Errorf(secop.ClassInternalError, "invalid enum member name %q", name)
		}
		if other, ok := e.names[code]; ok {
			return nil, secop.Errorf(secop.ClassInternalError,
				"enum members %q and %q share code %d", other, name, code)
		}
		e.members[name] = code
		e.names[code] = name
	}

	return e, nil
}

// MustEnum is like NewEnum but panics on error. Intended for statically
// known schemas.
func MustEnum(members map[string]int64) *Enum {
	e, err := NewEnum(members)
	if err != nil {
		panic(err)
	}
	return e
}

func (d *Enum) Type() string { return EnumType }

func (d *Enum) depth() int { return 1 }

// Name returns the member name for a code, or the empty string.
func (d *Enum) Name(code int64) string {
	return d.names[code]
}

// Coerce accepts integer codes and member names.
func (d *Enum) Coerce(v any) (any, error) {
	if s, ok := v.(string); ok {
		if code, ok := d.members[s]; ok {
			return code, nil
		}
		return nil, badValue("%q is not a member of this enum", s)
	}

	code, err := toInt(v)
	if err != nil {
		return nil, badValue("can not convert %v to an enum member", v)
	}
	if _, ok := d.names[code]; !ok {
		return nil, badValue("%d is not a member of this enum", code)
	}
	return code, nil
}

func (d *Enum) Validate(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Enum) Export(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Enum) Import(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Enum) Describe() map[string]any {
	members := make(map[string]any, len(d.members))
	for name, code := range d.members {
		members[name] = code
	}
	return map[string]any{"type": EnumType, "members": members}
}
