package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestBiCloneIsIndependent(t *testing.T) {
	r := newTestRegistry()
	orig := intList(1, 2, 3)
	cloned, err := r.CallByName("clone", []values.Value{orig})
	require.NoError(t, err)
	assert.Equal(t, orig.Data.(*values.ListBox).Len(), cloned.Data.(*values.ListBox).Len())
	assert.NotSame(t, orig.Data, cloned.Data)
}

func TestBiTypeOf(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("type_of", []values.Value{values.Int(1)})
	require.NoError(t, err)
	s, _ := v.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "Int", resolved)
}

func TestBiAssertPassesAndFails(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("assert", []values.Value{values.Bool(true)})
	require.NoError(t, err)

	_, err = r.CallByName("assert", []values.Value{values.Bool(false), values.Str("must be true")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be true")
}

func TestBiAssertEqNe(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("assert_eq", []values.Value{values.Int(1), values.Int(1)})
	require.NoError(t, err)

	_, err = r.CallByName("assert_eq", []values.Value{values.Int(1), values.Int(2)})
	require.Error(t, err)

	_, err = r.CallByName("assert_ne", []values.Value{values.Int(1), values.Int(2)})
	require.NoError(t, err)
}

func TestBiAssertContainsString(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("assert_contains", []values.Value{values.Str("hello world"), values.Str("wor")})
	require.NoError(t, err)

	_, err = r.CallByName("assert_contains", []values.Value{values.Str("hello"), values.Str("xyz")})
	require.Error(t, err)
}

func TestBiAssertContainsList(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("assert_contains", []values.Value{intList(1, 2, 3), values.Int(2)})
	require.NoError(t, err)

	_, err = r.CallByName("assert_contains", []values.Value{intList(1, 2, 3), values.Int(9)})
	require.Error(t, err)
}
