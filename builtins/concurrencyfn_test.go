package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestBiParallelCollectsAllResults(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	items := values.NewList([]values.Value{
		values.NewTuple([]values.Value{values.Str("double"), values.Int(1)}),
		values.NewTuple([]values.Value{values.Str("double"), values.Int(2)}),
	})
	v, err := r.CallByName("parallel", []values.Value{items})
	require.NoError(t, err)
	results := v.Data.(*values.ListBox).Items()
	got := make([]int64, len(results))
	for i, it := range results {
		got[i], _ = it.AsInt()
	}
	assert.Equal(t, []int64{2, 4}, got)
}

func TestBiVotePicksMajority(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	items := values.NewList([]values.Value{
		values.NewTuple([]values.Value{values.Str("double"), values.Int(1)}),
		values.NewTuple([]values.Value{values.Str("double"), values.Int(1)}),
		values.NewTuple([]values.Value{values.Str("double"), values.Int(5)}),
	})
	v, err := r.CallByName("vote", []values.Value{items})
	require.NoError(t, err)
	n, _ := v.AsInt()
	assert.Equal(t, int64(2), n)
}

func TestBiTimeoutWrapsErrorAsResult(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("timeout", []values.Value{values.Int(100), values.Str("fail")})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	assert.Equal(t, "Err", u.Tag)
}

func TestBiTimeoutOkOnSuccess(t *testing.T) {
	r := newTestRegistryWithCaller(newFakeCaller())
	v, err := r.CallByName("timeout", []values.Value{values.Int(100), values.Str("double"), values.Int(3)})
	require.NoError(t, err)
	u := v.Data.(*values.Union)
	assert.Equal(t, "Ok", u.Tag)
	n, _ := u.Payload.AsInt()
	assert.Equal(t, int64(6), n)
}
