package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/opcodes"
	"github.com/lumenforge/lumen/values"
)

// worker builds a cell that emits name then returns null, used by the
// two scheduling tests below to observe spawn/await ordering through
// vm.Output rather than through internal scheduler state.
func worker(name string, nameConst values.Value) *ir.Cell {
	return &ir.Cell{
		Name:      name,
		Registers: 2,
		Constants: []values.Value{nameConst},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_EMIT, 0, 0, 0),
			ir.NewABC(opcodes.OP_LOAD_NIL, 0, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
}

// spawnThenAwaitReverse spawns "a" then "b" in program order but awaits
// them b-then-a, so the two schedule modes can be told apart purely by
// the resulting vm.Output order.
func spawnThenAwaitReverse() *ir.Cell {
	return &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("a"), values.Str("b")},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0), // r0 = "a"
			ir.NewABC(opcodes.OP_SPAWN, 0, 0, 0),   // r0 = future(a), spawned first
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1), // r1 = "b"
			ir.NewABC(opcodes.OP_SPAWN, 1, 1, 0),   // r1 = future(b), spawned second
			ir.NewABC(opcodes.OP_AWAIT, 1, 0, 0),   // await b first
			ir.NewABC(opcodes.OP_AWAIT, 0, 0, 0),   // await a second
			ir.NewABC(opcodes.OP_LOAD_NIL, 2, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
}

func TestFutureScheduleEagerRunsInSpawnOrder(t *testing.T) {
	main := spawnThenAwaitReverse()
	m := moduleWithMain(main, worker("a", values.Str("A")), worker("b", values.Str("B")))
	v := New()
	v.SetFutureSchedule(ScheduleEager)
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, v.Output, "eager scheduling starts futures at SPAWN, in program order")
}

func TestFutureScheduleDeferredFIFORunsInAwaitOrder(t *testing.T) {
	main := spawnThenAwaitReverse()
	m := moduleWithMain(main, worker("a", values.Str("A")), worker("b", values.Str("B")))
	v := New()
	v.SetFutureSchedule(ScheduleDeferredFIFO)
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, v.Output, "deferred scheduling starts futures at AWAIT, so the reversed await order wins")
}

// TestExecuteTailCallReusesFrame recurses past maxCallDepth through
// TAIL_CALL alone; a regular CALL of this depth would hit
// KindStackOverflow (enterCell's depth check), so a clean result
// proves reuseFrameForCell never grows vm.frames.
func TestExecuteTailCallReusesFrame(t *testing.T) {
	countdown := &ir.Cell{
		Name:      "countdown",
		Registers: 6,
		Params:    []ir.Param{{Name: "n", Register: 0}},
		Constants: []values.Value{values.Int(0), values.Int(1), values.Str("countdown")},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 0),    // r1 = 0
			ir.NewABC(opcodes.OP_LE, 2, 0, 1),          // r2 = (n <= 0)
			ir.NewABC(opcodes.OP_TEST, 2, 0, 0),        // skip next (the JMP) while n > 0
			ir.NewSbx(opcodes.OP_JMP, 0, 4),            // taken only when n <= 0: jump to RETURN
			ir.NewAbx(opcodes.OP_LOAD_CONST, 4, 1),     // r4 = 1
			ir.NewABC(opcodes.OP_SUB, 4, 0, 4),         // r4 = n - 1
			ir.NewAbx(opcodes.OP_LOAD_CONST, 3, 2),     // r3 = "countdown"
			ir.NewABC(opcodes.OP_TAIL_CALL, 3, 1, 0),   // tail-call countdown(n-1)
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),      // base case: return n (<= 0)
		},
	}
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("countdown"), values.Int(300)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 0), // r1 = "countdown"
			ir.NewAbx(opcodes.OP_LOAD_CONST, 2, 1), // r2 = 300
			ir.NewABC(opcodes.OP_CALL, 1, 1, 0),    // call countdown(300), depth 300 if not reused
			ir.NewABC(opcodes.OP_RETURN, 1, 0, 0),
		},
	}
	m := moduleWithMain(main, countdown)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err, "300 nested tail calls must not overflow the %d-deep call stack", maxCallDepth)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(0), i)
}

// TestStackTraceInnermostFrameIsLast nests main -> b -> c, where c
// divides by zero, and asserts the captured trace's last frame names
// the innermost cell -- captureStackTrace's own "innermost last"
// contract (vm/vm.go).
func TestStackTraceInnermostFrameIsLast(t *testing.T) {
	cellC := &ir.Cell{
		Name:      "c",
		Registers: 4,
		Constants: []values.Value{values.Int(10), values.Int(0)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_FLOOR_DIV, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	cellB := &ir.Cell{
		Name:      "b",
		Registers: 4,
		Constants: []values.Value{values.Str("c")},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_CALL, 0, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("b")},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_CALL, 0, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := moduleWithMain(main, cellB, cellC)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, IsDivisionByZero(err))

	frames := StackFrames(err)
	require.Len(t, frames, 3)
	assert.Equal(t, "main", frames[0].CellName, "outermost frame is first")
	assert.Equal(t, "c", frames[len(frames)-1].CellName, "innermost frame is last")
}
