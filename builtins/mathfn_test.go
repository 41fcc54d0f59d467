package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestBiPowIntegerResultStaysInt(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("pow", []values.Value{values.Int(2), values.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, values.KindInt, v.Kind)
	n, _ := v.AsInt()
	assert.Equal(t, int64(1024), n)
}

func TestBiPowFractionalExponentStaysFloat(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("pow", []values.Value{values.Int(2), values.Float(0.5)})
	require.NoError(t, err)
	assert.Equal(t, values.KindFloat, v.Kind)
}

func TestBiClamp(t *testing.T) {
	r := newTestRegistry()
	below, _ := r.CallByName("clamp", []values.Value{values.Int(-5), values.Int(0), values.Int(10)})
	n, _ := below.AsInt()
	assert.Equal(t, int64(0), n)

	above, _ := r.CallByName("clamp", []values.Value{values.Int(15), values.Int(0), values.Int(10)})
	n2, _ := above.AsInt()
	assert.Equal(t, int64(10), n2)

	within, _ := r.CallByName("clamp", []values.Value{values.Int(5), values.Int(0), values.Int(10)})
	n3, _ := within.AsInt()
	assert.Equal(t, int64(5), n3)
}

func TestBiWrappingAddOverflowsSilently(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("wrapping_add", []values.Value{values.Int(9223372036854775807), values.Int(1)})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(-9223372036854775808), n)
}

func TestBiParseIntErrUnion(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("parse_int", []values.Value{values.Str("not a number")})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	assert.Equal(t, "Err", u.Tag)
}

func TestBiParseIntOkUnion(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("parse_int", []values.Value{values.Str("42")})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	assert.Equal(t, "Ok", u.Tag)
	n, _ := u.Payload.AsInt()
	assert.Equal(t, int64(42), n)
}
