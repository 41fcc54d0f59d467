package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestResultHelpers(t *testing.T) {
	r := newTestRegistry()
	ok := values.NewUnion("Ok", values.Int(5))
	errV := values.NewUnion("Err", values.Str("bad"))

	isOk, err := r.CallByName("is_ok", []values.Value{ok})
	require.NoError(t, err)
	b, _ := isOk.AsBool()
	assert.True(t, b)

	isErr, err := r.CallByName("is_err", []values.Value{errV})
	require.NoError(t, err)
	b2, _ := isErr.AsBool()
	assert.True(t, b2)

	unwrapped, err := r.CallByName("unwrap", []values.Value{ok})
	require.NoError(t, err)
	n, _ := unwrapped.AsInt()
	assert.Equal(t, int64(5), n)

	_, err = r.CallByName("unwrap", []values.Value{errV})
	require.Error(t, err)

	fallback, err := r.CallByName("unwrap_or", []values.Value{errV, values.Int(99)})
	require.NoError(t, err)
	n2, _ := fallback.AsInt()
	assert.Equal(t, int64(99), n2)
}
