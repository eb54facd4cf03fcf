package datatype

// Bool is the SECoP boolean type.
type Bool struct{}

// NewBool creates a Bool datatype.
func NewBool() *Bool { return &Bool{} }

func (d *Bool) Type() string { return BoolType }

func (d *Bool) depth() int { return 1 }

// Coerce accepts booleans and the numbers 0 and 1.
func (d *Bool) Coerce(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case int64:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	case int:
		if b == 0 || b == 1 {
			return b == 1, nil
		}
	}
	return nil, badValue("can not convert %v to a bool", v)
}

func (d *Bool) Validate(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Bool) Export(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Bool) Import(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Bool) Describe() map[string]any {
	return map[string]any{"type": BoolType}
}
