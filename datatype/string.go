package datatype

// String is a length-restricted UTF-8 string type. Lengths are counted in
// bytes, matching the limits a client sees in the descriptive data.
type String struct {
	MinLen int
	MaxLen int
}

// DefaultMaxStringLength bounds strings without an explicit limit.
const DefaultMaxStringLength = 255

// NewString creates a String restricted to [minLen, maxLen] bytes.
func NewString(minLen, maxLen int) *String {
	return &String{MinLen: minLen, MaxLen: maxLen}
}

// NewText creates an unrestricted-purpose String with the default limit.
func NewText() *String {
	return &String{MinLen: 0, MaxLen: DefaultMaxStringLength}
}

func (d *String) Type() string { return StringType }

func (d *String) depth() int { return 1 }

// Coerce accepts strings only; no length check.
func (d *String) Coerce(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, badValue("can not convert %v to a string", v)
	}
	return s, nil
}

func (d *String) Validate(v any) (any, error) {
	cv, err := d.Coerce(v)
	if err != nil {
		return nil, err
	}
	s := cv.(string)
	if len(s) < d.MinLen || len(s) > d.MaxLen {
		return nil, badValue("string length %d must be between %d and %d", len(s), d.MinLen, d.MaxLen)
	}
	return s, nil
}

func (d *String) Export(v any) (any, error) {
	return d.Coerce(v)
}

func (d *String) Import(v any) (any, error) {
	return d.Coerce(v)
}

func (d *String) Describe() map[string]any {
	info := map[string]any{"type": StringType, "maxchars": d.MaxLen}
	if d.MinLen > 0 {
		info["minchars"] = d.MinLen
	}
	return info
}
