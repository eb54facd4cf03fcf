package datatype

import (
	"encoding/base64"
)

// Blob is a length-restricted binary type. On the wire a blob is encoded as
// a base64 string.
type Blob struct {
	MinLen int
	MaxLen int
}

// NewBlob creates a Blob restricted to [minLen, maxLen] bytes.
func NewBlob(minLen, maxLen int) *Blob {
	return &Blob{MinLen: minLen, MaxLen: maxLen}
}

func (d *Blob) Type() string { return BlobType }

func (d *Blob) depth() int { return 1 }

// Coerce accepts byte slices and strings; no length check.
func (d *Blob) Coerce(v any) (any, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, badValue("can not convert %v to a blob", v)
	}
}

func (d *Blob) Validate(v any) (any, error) {
	cv, err := d.Coerce(v)
	if err != nil {
		return nil, err
	}
	b := cv.([]byte)
	if len(b) < d.MinLen || len(b) > d.MaxLen {
		return nil, badValue("blob length %d must be between %d and %d", len(b), d.MinLen, d.MaxLen)
	}
	return b, nil
}

func (d *Blob) Export(v any) (any, error) {
	cv, err := d.Coerce(v)
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.EncodeToString(cv.([]byte)), nil
}

func (d *Blob) Import(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, badValue("blob wire value must be a base64 string")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, badValue("invalid base64 blob: %v", err)
	}
	return b, nil
}

func (d *Blob) Describe() map[string]any {
	info := map[string]any{"type": BlobType, "maxbytes": d.MaxLen}
	if d.MinLen > 0 {
		info["minbytes"] = d.MinLen
	}
	return info
}
