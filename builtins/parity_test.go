package builtins

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

// TestIntrinsicByNameParity exercises spec property 5: for every
// registered intrinsic id, calling it by id and calling its by-name
// twin with the same inputs must produce equal outputs. defID makes
// this true by construction (both entries share one closure), so this
// test is a regression guard against a future registration splitting
// the two paths rather than a search for divergence.
func TestIntrinsicByNameParity(t *testing.T) {
	r := NewRegistry(nil, values.NewStringTable())
	cases := map[string][]values.Value{
		"length":     {values.NewList([]values.Value{values.Int(1), values.Int(2)})},
		"upper":      {values.Str("abc")},
		"abs":        {values.Int(-5)},
		"sha256":     {values.Str("hello")},
		"bytes_len":  {values.Bin([]byte{1, 2, 3})},
		"regex_find_all": {values.Str(`\d+`), values.Str("a1 b22")},
	}
	for _, id := range r.IntrinsicIDs() {
		name, ok := r.IntrinsicName(id)
		require.True(t, ok)
		args, known := cases[name]
		if !known {
			continue
		}
		byName, err1 := r.CallByName(name, args)
		byID, err2 := r.CallIntrinsic(id, args)
		require.Equal(t, err1, err2, "intrinsic %s (id %d): error mismatch", name, id)
		if err1 == nil {
			require.Equal(t, byName, byID, "intrinsic %s (id %d): result mismatch", name, id)
		}
	}
}

func TestCallByNameUnknownReturnsError(t *testing.T) {
	r := NewRegistry(nil, values.NewStringTable())
	_, err := r.CallByName("no_such_builtin", nil)
	require.Error(t, err)
}

func TestCallIntrinsicUnknownReturnsError(t *testing.T) {
	r := NewRegistry(nil, values.NewStringTable())
	_, err := r.CallIntrinsic(999999, nil)
	require.Error(t, err)
}
