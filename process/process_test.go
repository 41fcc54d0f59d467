package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/values"
)

func TestMachineStepsUntilGuardFails(t *testing.T) {
	g := &MachineGraph{
		Initial: "counting",
		States: map[string]StateDef{
			"counting": {
				Params: []Param{{Name: "count", Type: "Int"}},
				Guard: &Expr{
					Kind: ExprCompare, Op: "<",
					Left:  &Expr{Kind: ExprParamRef, Param: "count"},
					Right: &Expr{Kind: ExprLiteral, Literal: values.Int(3)},
				},
				TransitionTo: "counting",
				TransitionArgs: []*Expr{{
					Kind: ExprArith, Op: "+",
					Left:  &Expr{Kind: ExprParamRef, Param: "count"},
					Right: &Expr{Kind: ExprLiteral, Literal: values.Int(1)},
				}},
			},
			"done": {Terminal: true},
		},
	}

	m := values.NewMap()
	m.Set("count", values.Int(0))
	inst := &MachineInstance{Graph: g}
	inst.Start(values.Value{Kind: values.KindMap, Data: m})

	steps := 0
	for {
		progressed, err := inst.Step()
		require.NoError(t, err)
		if !progressed {
			break
		}
		steps++
		require.Less(t, steps, 10, "machine should converge")
	}
	assert.Equal(t, "counting", inst.State)
	payload := inst.Payload.Data.(*values.MapBox)
	count, _ := payload.Get("count")
	n, _ := count.AsInt()
	assert.Equal(t, int64(3), n)
}

func TestMapMemoryStoreAppendAndRecent(t *testing.T) {
	store := NewMapMemoryStore()
	require.NoError(t, store.Append(values.Str("a")))
	require.NoError(t, store.Append(values.Str("b")))
	require.NoError(t, store.Append(values.Str("c")))

	recent, err := store.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	r0, _ := recent[0].AsStringRef()
	r1, _ := recent[1].AsStringRef()
	assert.Equal(t, "b", r0.Owned)
	assert.Equal(t, "c", r1.Owned)
}

func TestMapMemoryStoreUpsertGet(t *testing.T) {
	store := NewMapMemoryStore()
	require.NoError(t, store.Upsert("k1", values.Int(42)))
	v, ok, err := store.Get("k1")
	require.NoError(t, err)
	require.True(t, ok)
	n, _ := v.AsInt()
	assert.Equal(t, int64(42), n)

	require.NoError(t, store.Upsert("k1", values.Int(43)))
	v2, ok2, err := store.Get("k1")
	require.NoError(t, err)
	require.True(t, ok2)
	n2, _ := v2.AsInt()
	assert.Equal(t, int64(43), n2)

	_, ok3, err := store.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok3)
}

func TestRunPipelineThreadsStages(t *testing.T) {
	invoke := func(stage string, arg values.Value) (values.Value, error) {
		n, _ := arg.AsInt()
		switch stage {
		case "double":
			return values.Int(n * 2), nil
		case "increment":
			return values.Int(n + 1), nil
		}
		return values.Null(), nil
	}
	out, err := RunPipeline([]string{"double", "increment"}, values.Int(5), invoke)
	require.NoError(t, err)
	n, _ := out.AsInt()
	assert.Equal(t, int64(11), n)
}

func TestRunOrchestrationFansOut(t *testing.T) {
	invoke := func(stage string, arg values.Value) (values.Value, error) {
		n, _ := arg.AsInt()
		switch stage {
		case "double":
			return values.Int(n * 2), nil
		case "square":
			return values.Int(n * n), nil
		}
		return values.Null(), nil
	}
	out, err := RunOrchestration([]string{"double", "square"}, values.Int(4), invoke)
	require.NoError(t, err)
	lb := out.Data.(*values.ListBox)
	items := lb.Items()
	require.Len(t, items, 2)
	a, _ := items[0].AsInt()
	b, _ := items[1].AsInt()
	assert.Equal(t, int64(8), a)
	assert.Equal(t, int64(16), b)
}

func TestExtractPatternCaptures(t *testing.T) {
	captures, ok := ExtractPatternCaptures("Hello {name}, you are {age} years old", "Hello Ada, you are 30 years old")
	require.True(t, ok)
	assert.Equal(t, "Ada", captures["name"])
	assert.Equal(t, "30", captures["age"])
}

func TestExtractPatternCapturesNoMatch(t *testing.T) {
	_, ok := ExtractPatternCaptures("Result: {code}", "this does not match")
	assert.False(t, ok)
}

func TestRegistryMintsIncreasingInstanceIDs(t *testing.T) {
	r := NewRegistry()
	id1 := r.NewInstanceID()
	id2 := r.NewInstanceID()
	assert.Equal(t, uint64(1), id1)
	assert.Equal(t, uint64(2), id2)
}

func TestRegistryDefaultsToMapMemoryStore(t *testing.T) {
	r := NewRegistry()
	id := r.NewInstanceID()
	backend := r.MemoryInstance(id, "notes")
	_, ok := backend.(*MapMemoryStore)
	assert.True(t, ok)

	// Fetching the same instance id returns the same backend.
	again := r.MemoryInstance(id, "notes")
	assert.Same(t, backend, again)
}
