package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

// TestBiSliceUnicodeSafe is scenario S4: slicing "Hello, 世界" at
// character offsets 7..9 must yield "世界", not a byte-split result.
func TestBiSliceUnicodeSafe(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("slice", []values.Value{values.Str("Hello, 世界"), values.Int(7), values.Int(9)})
	require.NoError(t, err)
	s, ok := v.AsStringRef()
	require.True(t, ok)
	resolved, rerr := s.Resolve(r.Strings)
	require.NoError(t, rerr)
	assert.Equal(t, "世界", resolved)
}

func TestBiIndexOfUnicodeSafe(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("index_of", []values.Value{values.Str("Hello, 世界"), values.Str("世")})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(7), n)
}

func TestBiSnakeCase(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("snake_case", []values.Value{values.Str("HelloWorld Foo-bar")})
	require.NoError(t, err)
	s, _ := v.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "hello_world_foo_bar", resolved)
}

func TestBiCamelCase(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("camel_case", []values.Value{values.Str("hello_world-foo bar")})
	require.NoError(t, err)
	s, _ := v.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "helloWorldFooBar", resolved)
}

func TestBiPadLeftDefaultFill(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("pad_left", []values.Value{values.Str("7"), values.Int(3)})
	require.NoError(t, err)
	s, _ := v.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "  7", resolved)
}
