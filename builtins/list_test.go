package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func newTestRegistry() *Registry {
	return NewRegistry(nil, values.NewStringTable())
}

func intList(xs ...int64) values.Value {
	items := make([]values.Value, len(xs))
	for i, x := range xs {
		items[i] = values.Int(x)
	}
	return values.NewList(items)
}

func TestBiLength(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("length", []values.Value{intList(1, 2, 3)})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(3), n)
}

func TestBiReverse(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("reverse", []values.Value{intList(1, 2, 3)})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(items))
	for i, it := range items {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{3, 2, 1}, got)
}

func TestBiTakeDropClampToLength(t *testing.T) {
	r := newTestRegistry()
	taken, err := r.CallByName("take", []values.Value{intList(1, 2), values.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, 2, taken.Data.(*values.ListBox).Len())

	dropped, err := r.CallByName("drop", []values.Value{intList(1, 2), values.Int(10)})
	require.NoError(t, err)
	assert.Equal(t, 0, dropped.Data.(*values.ListBox).Len())
}

func TestBiUniquePreservesFirstOccurrence(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("unique", []values.Value{intList(1, 2, 1, 3, 2)})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(items))
	for i, it := range items {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestBiSortDesc(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("sort_desc", []values.Value{intList(3, 1, 2)})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(items))
	for i, it := range items {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{3, 2, 1}, got)
}

func TestBiRemoveMapDoesNotMutateOriginal(t *testing.T) {
	r := newTestRegistry()
	mb := values.NewMap()
	mb.Set("a", values.Int(1))
	mb.Set("b", values.Int(2))
	orig := values.Value{Kind: values.KindMap, Data: mb}

	out, err := r.CallByName("remove", []values.Value{orig, values.Str("a")})
	require.NoError(t, err)

	_, stillHasA := mb.Get("a")
	assert.True(t, stillHasA, "original map must be untouched by COW remove")

	resultMap := out.Data.(*values.MapBox)
	_, hasA := resultMap.Get("a")
	assert.False(t, hasA)
	_, hasB := resultMap.Get("b")
	assert.True(t, hasB)
}

func TestBiChunk(t *testing.T) {
	r := newTestRegistry()
	v, err := r.CallByName("chunk", []values.Value{intList(1, 2, 3, 4, 5), values.Int(2)})
	require.NoError(t, err)
	chunks := v.Data.(*values.ListBox).Items()
	require.Len(t, chunks, 3)
	assert.Equal(t, 2, chunks[0].Data.(*values.ListBox).Len())
	assert.Equal(t, 1, chunks[2].Data.(*values.ListBox).Len())
}

func TestBiBinarySearch(t *testing.T) {
	r := newTestRegistry()
	found, err := r.CallByName("binary_search", []values.Value{intList(1, 3, 5, 7), values.Int(5)})
	require.NoError(t, err)
	n, _ := found.AsInt()
	assert.Equal(t, int64(2), n)

	missing, err := r.CallByName("binary_search", []values.Value{intList(1, 3, 5, 7), values.Int(4)})
	require.NoError(t, err)
	n2, _ := missing.AsInt()
	assert.Equal(t, int64(-1), n2)
}
