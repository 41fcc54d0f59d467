package builtins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestBiWriteReadFileRoundTrip(t *testing.T) {
	r := newTestRegistry()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")

	_, err := r.CallByName("write_file", []values.Value{values.Str(path), values.Str("hello")})
	require.NoError(t, err)

	v, err := r.CallByName("read_file", []values.Value{values.Str(path)})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	require.Equal(t, "Ok", u.Tag)
	s, _ := u.Payload.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "hello", resolved)
}

func TestBiReadFileMissingReturnsErr(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("read_file", []values.Value{values.Str("/no/such/path/xyz")})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	assert.Equal(t, "Err", u.Tag)
}

func TestBiExists(t *testing.T) {
	r := newTestRegistry()
	dir := t.TempDir()
	v, err := r.CallByName("exists", []values.Value{values.Str(dir)})
	require.NoError(t, err)
	b, _ := v.AsBool()
	assert.True(t, b)

	v2, err := r.CallByName("exists", []values.Value{values.Str(filepath.Join(dir, "nope"))})
	require.NoError(t, err)
	b2, _ := v2.AsBool()
	assert.False(t, b2)
}

func TestBiPathHelpers(t *testing.T) {
	r := newTestRegistry()
	path := "/a/b/c.txt"

	ext, _ := r.CallByName("extension", []values.Value{values.Str(path)})
	s, _ := ext.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "txt", resolved)

	stem, _ := r.CallByName("stem", []values.Value{values.Str(path)})
	s2, _ := stem.AsStringRef()
	resolved2, _ := s2.Resolve(r.Strings)
	assert.Equal(t, "c", resolved2)

	name, _ := r.CallByName("filename", []values.Value{values.Str(path)})
	s3, _ := name.AsStringRef()
	resolved3, _ := s3.Resolve(r.Strings)
	assert.Equal(t, "c.txt", resolved3)
}

func TestBiGlobMatchesSimplePattern(t *testing.T) {
	r := newTestRegistry()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "three.md"), []byte("x"), 0o644))

	v, err := r.CallByName("glob", []values.Value{values.Str(filepath.Join(dir, "*.txt"))})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	require.Equal(t, "Ok", u.Tag)
	assert.Equal(t, 2, u.Payload.Data.(*values.ListBox).Len())
}

func TestBiGetSetEnv(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("set_env", []values.Value{values.Str("LUMEN_BUILTINS_TEST"), values.Str("v1")})
	require.NoError(t, err)
	v, err := r.CallByName("get_env", []values.Value{values.Str("LUMEN_BUILTINS_TEST")})
	require.NoError(t, err)
	s, _ := v.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "v1", resolved)
}
