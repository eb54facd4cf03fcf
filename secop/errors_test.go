package secop

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorf(t *testing.T) {
	err := Errorf(ClassNoSuchModule, "module %q does not exist", "t1")
	require.Equal(t, ClassNoSuchModule, err.Class)
	require.Equal(t, `NoSuchModule: module "t1" does not exist`, err.Error())
}

func TestAsError(t *testing.T) {
	perr := Errorf(ClassReadOnly, "parameter is readonly")
	require.Same(t, perr, AsError(perr))

	wrapped := fmt.Errorf("handling request: %w", perr)
	require.Equal(t, ClassReadOnly, AsError(wrapped).Class)

	plain := errors.New("boom")
	converted := AsError(plain)
	require.Equal(t, ClassInternalError, converted.Class)
	require.Equal(t, "boom", converted.Message)
}

func TestValidName(t *testing.T) {
	tests := []struct {
		description string
		name        string
		valid       bool
	}{
		{"simple lowercase", "t1", true},
		{"underscore start", "_hidden", true},
		{"single letter", "x", true},
		{"digits after first char", "temp_42", true},
		{"empty", "", false},
		{"leading digit", "1temp", false},
		{"uppercase", "Temp", false},
		{"colon", "t1:value", false},
		{"too long", string(make([]byte, 64)), false},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			require.Equal(t, test.valid, ValidName(test.name))
		})
	}
}

func TestSplitSpecifier(t *testing.T) {
	mod, param := SplitSpecifier("t1:value")
	require.Equal(t, "t1", mod)
	require.Equal(t, "value", param)

	mod, param = SplitSpecifier("t1")
	require.Equal(t, "t1", mod)
	require.Equal(t, "", param)
}
