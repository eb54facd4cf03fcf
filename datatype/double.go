package datatype

import (
	"math"

	"github.com/SampleEnvironment/frappy/secop"
)

// defaultRelativeResolution matches the resolution of a float32, which is
// what most instrument firmware reports.
const defaultRelativeResolution = 1.2e-7

// Double is a (possibly range-restricted) floating point type.
type Double struct {
	Min  float64
	Max  float64
	Unit string

	// AbsoluteResolution and RelativeResolution define the precision slack
	// allowed when checking limits: a value outside the range by no more
	// than the resolution is silently clamped instead of rejected.
	AbsoluteResolution float64
	RelativeResolution float64
}

// NewDouble creates a Double restricted to [min, max].
func NewDouble(min, max float64) *Double {
	return &Double{Min: min, Max: max, RelativeResolution: defaultRelativeResolution}
}

// NewUnboundedDouble creates a Double without range restriction.
func NewUnboundedDouble() *Double {
	return NewDouble(-math.MaxFloat64, math.MaxFloat64)
}

func (d *Double) Type() string { return DoubleType }

func (d *Double) depth() int { return 1 }

// Coerce accepts floats, integers and booleans, but not strings.
// Infinities are mapped to the largest representable magnitude.
func (d *Double) Coerce(v any) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, badValue("can not convert %v to a double", v)
	}
	if math.IsNaN(f) {
		return nil, badValue("NaN is not a valid double")
	}
	return clampFloat(f, -math.MaxFloat64, math.MaxFloat64), nil
}

func (d *Double) Validate(v any) (any, error) {
	cv, err := d.Coerce(v)
	if err != nil {
		return nil, err
	}
	f := cv.(float64)

	prec := math.Max(math.Abs(f)*d.RelativeResolution, d.AbsoluteResolution)
	if f < d.Min-prec || f > d.Max+prec {
		return nil, badValue("%.14g must be between %g and %g", f, d.Min, d.Max)
	}
	// values outside by no more than prec are clamped silently
	return clampFloat(f, d.Min, d.Max), nil
}

// Export returns the float value for serialisation. The SECoP wire format is
// JSON, which has no representation for non-finite numbers, so those fail.
func (d *Double) Export(v any) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, badValue("can not export %v as double", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, secop.Errorf(secop.ClassInternalError, "non-finite value %v can not be encoded", f)
	}
	return f, nil
}

func (d *Double) Import(v any) (any, error) {
	return d.Coerce(v)
}

func (d *Double) Describe() map[string]any {
	info := map[string]any{"type": DoubleType}
	if d.Min > -math.MaxFloat64 {
		info["min"] = d.Min
	}
	if d.Max < math.MaxFloat64 {
		info["max"] = d.Max
	}
	if d.Unit != "" {
		info["unit"] = d.Unit
	}
	if d.AbsoluteResolution != 0 {
		info["absolute_resolution"] = d.AbsoluteResolution
	}
	return info
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, badValue("not a number")
	}
}

func clampFloat(v, min, max float64) float64 {
	return math.Max(min, math.Min(max, v))
}
