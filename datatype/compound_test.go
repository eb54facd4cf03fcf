package datatype

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayValidate(t *testing.T) {
	dt := MustArray(NewDouble(0, 10), 1, 3)

	v, err := dt.Validate([]any{1.0, 2.0})
	require.NoError(t, err)
	require.Equal(t, []any{1.0, 2.0}, v)

	_, err = dt.Validate([]any{})
	require.Error(t, err, "below minimum length")

	_, err = dt.Validate([]any{1.0, 2.0, 3.0, 4.0})
	require.Error(t, err, "above maximum length")

	_, err = dt.Validate([]any{1.0, 20.0})
	require.Error(t, err, "element out of range")
}

func TestArrayConstruction(t *testing.T) {
	inner := MustArray(NewBool(), 0, 4)

	_, err := NewArray(inner, 0, 4)
	require.Error(t, err, "nested arrays are rejected")

	_, err = NewArray(MustStruct(map[string]DataType{"x": NewBool()}), 0, 4)
	require.Error(t, err, "array of struct is rejected")

	// array of tuple is allowed
	_, err = NewArray(MustTuple(NewDouble(0, 1), NewBool()), 0, 4)
	require.NoError(t, err)
}

func TestNestingDepthBound(t *testing.T) {
	// depth 3 is the limit: struct > tuple > basic is fine
	level2 := MustTuple(NewBool())
	_, err := NewStruct(map[string]DataType{"a": level2})
	require.NoError(t, err)

	// a fourth level is rejected at construction time
	level3 := MustStruct(map[string]DataType{"a": level2})
	_, err = NewTuple(level3)
	require.Error(t, err)
}

func TestTupleValidate(t *testing.T) {
	dt := MustTuple(NewStatusEnum(), NewText())

	v, err := dt.Validate([]any{100.0, "all fine"})
	require.NoError(t, err)
	require.Equal(t, []any{int64(100), "all fine"}, v)

	_, err = dt.Validate([]any{100.0})
	require.Error(t, err, "wrong arity")

	_, err = dt.Validate([]any{123.0, "bogus code"})
	require.Error(t, err, "element outside enum")
}

func TestStructValidate(t *testing.T) {
	dt := MustStruct(map[string]DataType{
		"x": NewDouble(-1, 1),
		"y": NewDouble(-1, 1),
	})

	v, err := dt.Validate(map[string]any{"x": 0.5, "y": -0.5})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"x": 0.5, "y": -0.5}, v)

	_, err = dt.Validate(map[string]any{"x": 0.5})
	require.Error(t, err, "missing member")

	_, err = dt.Validate(map[string]any{"x": 0.5, "y": 0.5, "z": 1.0})
	require.Error(t, err, "unknown member")
}

func TestDescribe(t *testing.T) {
	dt := NewDouble(0, 100)
	dt.Unit = "K"

	info := dt.Describe()
	require.Equal(t, "double", info["type"])
	require.Equal(t, 0.0, info["min"])
	require.Equal(t, 100.0, info["max"])
	require.Equal(t, "K", info["unit"])

	status := NewStatusType().Describe()
	require.Equal(t, "tuple", status["type"])
	members := status["members"].([]any)
	require.Len(t, members, 2)
	require.Equal(t, "enum", members[0].(map[string]any)["type"])
}
