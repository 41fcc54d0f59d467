package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestBase64RoundTrip(t *testing.T) {
	r := newTestRegistry()
	enc, err := r.CallByName("base64_encode", []values.Value{values.Bin([]byte("hello"))})
	require.NoError(t, err)
	s, _ := enc.AsStringRef()
	encoded, _ := s.Resolve(r.Strings)

	dec, err := r.CallByName("base64_decode", []values.Value{values.Str(encoded)})
	require.NoError(t, err)
	u := dec.Data.(*values.Union)
	require.Equal(t, "Ok", u.Tag)
	b, _ := u.Payload.AsBytes()
	assert.Equal(t, []byte("hello"), b)
}

func TestJSONRoundTrip(t *testing.T) {
	r := newTestRegistry()
	m := values.NewMap()
	m.Set("name", values.Str("ok"))
	m.Set("count", values.Int(3))
	orig := values.Value{Kind: values.KindMap, Data: m}

	enc, err := r.CallByName("json_encode", []values.Value{orig})
	require.NoError(t, err)
	s, _ := enc.AsStringRef()
	encoded, _ := s.Resolve(r.Strings)

	dec, err := r.CallByName("json_parse", []values.Value{values.Str(encoded)})
	require.NoError(t, err)
	u := dec.Data.(*values.Union)
	require.Equal(t, "Ok", u.Tag)
	mb := u.Payload.Data.(*values.MapBox)
	name, _ := mb.Get("name")
	s2, _ := name.AsStringRef()
	resolved, _ := s2.Resolve(r.Strings)
	assert.Equal(t, "ok", resolved)
	count, _ := mb.Get("count")
	n, _ := count.AsInt()
	assert.Equal(t, int64(3), n)
}

func TestTOMLRoundTrip(t *testing.T) {
	r := newTestRegistry()
	m := values.NewMap()
	m.Set("title", values.Str("demo"))
	sub := values.NewMap()
	sub.Set("port", values.Int(8080))
	m.Set("server", values.Value{Kind: values.KindMap, Data: sub})
	orig := values.Value{Kind: values.KindMap, Data: m}

	enc, err := r.CallByName("toml_encode", []values.Value{orig})
	require.NoError(t, err)
	s, _ := enc.AsStringRef()
	encoded, _ := s.Resolve(r.Strings)

	dec, err := r.CallByName("toml_parse", []values.Value{values.Str(encoded)})
	require.NoError(t, err)
	u := dec.Data.(*values.Union)
	require.Equal(t, "Ok", u.Tag)
	mb := u.Payload.Data.(*values.MapBox)
	title, _ := mb.Get("title")
	s2, _ := title.AsStringRef()
	resolved, _ := s2.Resolve(r.Strings)
	assert.Equal(t, "demo", resolved)

	serverV, ok := mb.Get("server")
	require.True(t, ok)
	serverMap := serverV.Data.(*values.MapBox)
	port, _ := serverMap.Get("port")
	n, _ := port.AsInt()
	assert.Equal(t, int64(8080), n)
}

func TestRegexMatchAndReplace(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("regex_match", []values.Value{values.Str(`(\d+)-(\d+)`), values.Str("x 12-34 y")})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	require.Len(t, items, 3)
	whole, _ := items[0].AsStringRef()
	w, _ := whole.Resolve(r.Strings)
	assert.Equal(t, "12-34", w)

	replaced, err := r.CallByName("regex_replace_all", []values.Value{values.Str(`\d+`), values.Str("a1 b22"), values.Str("N")})
	require.NoError(t, err)
	s, _ := replaced.AsStringRef()
	resolved, _ := s.Resolve(r.Strings)
	assert.Equal(t, "aN bN", resolved)
}
