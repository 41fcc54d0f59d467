package builtins

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

// fakeCaller is a minimal CellCaller stand-in for unit-testing
// higher-order and concurrency builtins without a running VM:
// CallValue dispatches on the callee string to one of a small set of
// named Go closures, and SpawnValue/AwaitValue run synchronously.
type fakeCaller struct {
	fns map[string]func([]values.Value) (values.Value, error)
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{fns: map[string]func([]values.Value) (values.Value, error){
		"double": func(args []values.Value) (values.Value, error) {
			n, _ := args[0].AsInt()
			return values.Int(n * 2), nil
		},
		"is_even": func(args []values.Value) (values.Value, error) {
			n, _ := args[0].AsInt()
			return values.Bool(n%2 == 0), nil
		},
		"sum": func(args []values.Value) (values.Value, error) {
			a, _ := args[0].AsInt()
			b, _ := args[1].AsInt()
			return values.Int(a + b), nil
		},
		"fail": func(args []values.Value) (values.Value, error) {
			return values.Value{}, fmt.Errorf("boom")
		},
	}}
}

func (f *fakeCaller) CallValue(callee values.Value, args []values.Value) (values.Value, error) {
	name, ok := callee.AsStringRef()
	if !ok {
		return values.Value{}, fmt.Errorf("fakeCaller: callee must be a string tag")
	}
	tag, _ := name.Resolve(nil)
	fn, ok := f.fns[tag]
	if !ok {
		return values.Value{}, fmt.Errorf("fakeCaller: no such function %q", tag)
	}
	return fn(args)
}

func (f *fakeCaller) SpawnValue(callee values.Value, args []values.Value) (values.Value, error) {
	return f.CallValue(callee, args)
}

func (f *fakeCaller) AwaitValue(v values.Value) (values.Value, error) {
	return v, nil
}

func newTestRegistryWithCaller(c CellCaller) *Registry {
	return NewRegistry(c, values.NewStringTable())
}

func TestBiMap(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("map", []values.Value{intList(1, 2, 3), values.Str("double")})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(items))
	for i, it := range items {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{2, 4, 6}, got)
}

func TestBiFilter(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("filter", []values.Value{intList(1, 2, 3, 4), values.Str("is_even")})
	require.NoError(t, err)
	items := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(items))
	for i, it := range items {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{2, 4}, got)
}

func TestBiReduce(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("reduce", []values.Value{intList(1, 2, 3, 4), values.Str("sum"), values.Int(0)})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(10), n)
}

func TestBiAnyAll(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	anyEven, err := r.CallByName("any", []values.Value{intList(1, 3, 4), values.Str("is_even")})
	require.NoError(t, err)
	b, _ := anyEven.AsBool()
	assert.True(t, b)

	allEven, err := r.CallByName("all", []values.Value{intList(1, 3, 4), values.Str("is_even")})
	require.NoError(t, err)
	b2, _ := allEven.AsBool()
	assert.False(t, b2)
}

func TestBiFindPosition(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	found, err := r.CallByName("find", []values.Value{intList(1, 3, 4, 6), values.Str("is_even")})
	require.NoError(t, err)
	n, _ := found.AsInt()
	assert.Equal(t, int64(4), n)

	pos, err := r.CallByName("position", []values.Value{intList(1, 3, 4, 6), values.Str("is_even")})
	require.NoError(t, err)
	idx, _ := pos.AsInt()
	assert.Equal(t, int64(2), idx)
}

func TestBiPartition(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("partition", []values.Value{intList(1, 2, 3, 4), values.Str("is_even")})
	require.NoError(t, err)
	parts := v.Data.(*values.TupleBox).Items()
	require.Len(t, parts, 2)
	assert.Equal(t, 2, parts[0].Data.(*values.ListBox).Len())
	assert.Equal(t, 2, parts[1].Data.(*values.ListBox).Len())
}

func TestBiMapPropagatesCalleeError(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	_, err := r.CallByName("map", []values.Value{intList(1), values.Str("fail")})
	require.Error(t, err)
}

func TestBiMapWithNoCallerErrors(t *testing.T) {
	r := newTestRegistry()
	_, err := r.CallByName("map", []values.Value{intList(1), values.Str("double")})
	require.Error(t, err)
}
