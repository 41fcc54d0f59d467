package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func completedFuture(v *VM, value values.Value) values.Value {
	id := v.nextFutureID
	v.nextFutureID++
	v.futures[id] = &futureState{status: values.FutureCompleted, value: value}
	return values.NewFuture(id, values.FutureCompleted)
}

func TestAwaitValueRecursiveResolvesFuturesInsideSet(t *testing.T) {
	v := New()
	v.futures = make(map[uint64]*futureState)
	cmp := values.NewComparator(v.Strings)
	set := values.NewSetValue([]values.Value{
		completedFuture(v, values.Int(1)),
		completedFuture(v, values.Int(2)),
	}, cmp)

	resolved, done, err := v.awaitValueRecursive(set)
	require.NoError(t, err)
	require.True(t, done)
	sb := resolved.Data.(*values.SetBox)
	assert.ElementsMatch(t, []values.Value{values.Int(1), values.Int(2)}, sb.Items())
}

func TestAwaitValueRecursiveResolvesFuturesInsideRecord(t *testing.T) {
	v := New()
	v.futures = make(map[uint64]*futureState)
	rec := values.NewRecord("Point")
	rb := rec.Data.(*values.RecordBox)
	rb.Rec.Fields.Set("x", completedFuture(v, values.Int(3)))
	rb.Rec.Fields.Set("y", completedFuture(v, values.Int(4)))

	resolved, done, err := v.awaitValueRecursive(rec)
	require.NoError(t, err)
	require.True(t, done)
	out := resolved.Data.(*values.RecordBox)
	x, _ := out.Rec.Fields.Get("x")
	y, _ := out.Rec.Fields.Get("y")
	assert.Equal(t, values.Int(3), x)
	assert.Equal(t, values.Int(4), y)
}

func TestAwaitValueRecursiveSetShortCircuitsOnPendingFuture(t *testing.T) {
	v := New()
	v.futures = make(map[uint64]*futureState)
	pendingID := v.nextFutureID
	v.nextFutureID++
	v.futures[pendingID] = &futureState{status: values.FuturePending}
	cmp := values.NewComparator(v.Strings)
	set := values.NewSetValue([]values.Value{
		completedFuture(v, values.Int(1)),
		values.NewFuture(pendingID, values.FuturePending),
	}, cmp)

	_, done, err := v.awaitValueRecursive(set)
	require.Error(t, err)
	assert.False(t, done)
}
