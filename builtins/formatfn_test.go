package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func formatStr(t *testing.T, r *Registry, template string, args ...values.Value) string {
	t.Helper()
	call := append([]values.Value{values.Str(template)}, args...)
	v, err := r.CallByName("format", call)
	require.NoError(t, err)
	ref, ok := v.AsStringRef()
	require.True(t, ok)
	s, rerr := ref.Resolve(r.Strings)
	require.NoError(t, rerr)
	return s
}

func TestFormatBarePlaceholder(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "hello {}", values.Str("world"))
	assert.Equal(t, "hello world", got)
}

func TestFormatAlignmentWithFill(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "[{:*>6}]", values.Int(7))
	assert.Equal(t, "[*****7]", got)
}

func TestFormatLeftAlign(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "[{:<5}]", values.Str("ab"))
	assert.Equal(t, "[ab   ]", got)
}

func TestFormatFloatPrecision(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "{:.2f}", values.Float(3.14159))
	assert.Equal(t, "3.14", got)
}

func TestFormatHexRadix(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "{:x}", values.Int(255))
	assert.Equal(t, "0xff", got)
}

func TestFormatRadixMismatchErrors(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("format", []values.Value{values.Str("{:x}"), values.Float(1.5)})
	require.Error(t, err)
}

func TestFormatEscapedBraces(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "{{literal}} {}", values.Int(1))
	assert.Equal(t, "{literal} 1", got)
}

func TestFormatZeroPad(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "{:05}", values.Int(42))
	assert.Equal(t, "00042", got)
}

func TestFormatComma(t *testing.T) {
	r := newTestRegistry()
	got := formatStr(t, r, "{:,}", values.Int(1234567))
	assert.Equal(t, "1,234,567", got)
}
