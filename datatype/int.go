package datatype

import (
	"math"
)

// Int is a range-restricted integer type.
type Int struct {
	Min int64
	Max int64
}

// NewInt creates an Int restricted to [min, max].
func NewInt(min, max int64) *Int {
	return &Int{Min: min, Max: max}
}

func (d *Int) Type() string { return IntType }

func (d *Int) depth() int { return 1 }

// Coerce accepts integers, booleans and whole-number floats, but not strings.
func (d *Int) Coerce(v any) (any, error) {
	return toInt(v)
}

func (d *Int) Validate(v any) (any, error) {
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	if n < d.Min || n > d.Max {
		return nil, badValue("%d must be between %d and %d", n, d.Min, d.Max)
	}
	return n, nil
}

func (d *Int) Export(v any) (any, error) {
	return toInt(v)
}

func (d *Int) Import(v any) (any, error) {
	return toInt(v)
}

func (d *Int) Describe() map[string]any {
	return map[string]any{"type": IntType, "min": d.Min, "max": d.Max}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, badValue("%d overflows an int", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, badValue("%v should be an int", n)
		}
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, badValue("can not convert %v to an int", v)
	}
}
