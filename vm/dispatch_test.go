package vm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/opcodes"
	"github.com/lumenforge/lumen/values"
)

func moduleWithMain(cell *ir.Cell, extra ...*ir.Cell) *ir.Module {
	cell.Name = "main"
	cells := append([]*ir.Cell{cell}, extra...)
	return &ir.Module{DocHash: "test-doc", Cells: cells}
}

func TestExecuteAddsTwoConstants(t *testing.T) {
	cell := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(2), values.Int(3)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_ADD, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(cell)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(5), i)
}

func TestExecuteArithmeticOverflowLeavesRegisterUnchanged(t *testing.T) {
	cell := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(1 << 62), values.Int(1 << 62), values.Int(-1)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 2, 2),
			ir.NewABC(opcodes.OP_ADD, 2, 0, 1), // overflow: must not clobber r2
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(cell)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, IsArithmeticOverflow(err))

	r2, ok := v.regs.get(2)
	require.True(t, ok)
	i, ok := r2.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(-1), i, "register 2 must retain its pre-overflow value")
}

func TestExecuteDivisionByZero(t *testing.T) {
	cell := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(10), values.Int(0)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_FLOOR_DIV, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(cell)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, IsDivisionByZero(err))
}

func TestExecuteCallsNamedCell(t *testing.T) {
	callee := &ir.Cell{
		Name:      "double",
		Registers: 4,
		Params:    []ir.Param{{Name: "x", Register: 0}},
		Instructions: []ir.Instruction{
			ir.NewABC(opcodes.OP_ADD, 1, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 1, 0, 0),
		},
	}
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("double"), values.Int(21)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_CALL, 0, 1, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := moduleWithMain(main, callee)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)
}

func TestExecuteCallWithFewerArgsThanFixedParamsBeforeVariadic(t *testing.T) {
	variadic := &ir.Cell{
		Name:      "variadic",
		Registers: 4,
		Params: []ir.Param{
			{Name: "a", Register: 0},
			{Name: "b", Register: 1},
			{Name: "rest", Register: 2, Variadic: true},
		},
		Instructions: []ir.Instruction{
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0), // return rest
		},
	}
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("variadic"), values.Int(1)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0), // r0 = "variadic"
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1), // r1 = 1 (only arg, "a")
			ir.NewABC(opcodes.OP_CALL, 0, 1, 0),    // call variadic(1) -- short of "b"
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := moduleWithMain(main, variadic)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	lb := result.Data.(*values.ListBox)
	assert.Equal(t, 0, lb.Len(), "rest must pack to an empty list, not panic, when args run short")
}

func TestExecuteClosureCapturesRegister(t *testing.T) {
	adder := &ir.Cell{
		Name:      "adder",
		Registers: 4,
		Params:    []ir.Param{{Name: "captured", Register: 0}, {Name: "x", Register: 1}},
		Instructions: []ir.Instruction{
			ir.NewABC(opcodes.OP_ADD, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	main := &ir.Cell{
		Registers: 6,
		Constants: []values.Value{values.Int(10), values.Int(5)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),    // r0 = 10, capture source
			ir.NewABC(opcodes.OP_CLOSURE, 1, 0, 0),    // r1 = closure(adder, captures=[])
			ir.NewABC(opcodes.OP_SET_UPVAL, 0, 0, 1),  // r1's capture slot 0 = r0 (10)
			ir.NewAbx(opcodes.OP_LOAD_CONST, 2, 1),    // r2 = 5
			ir.NewABC(opcodes.OP_CALL, 1, 1, 0),
			ir.NewABC(opcodes.OP_RETURN, 1, 0, 0),
		},
	}
	main.Instructions[1].Bx16 = int32(1) // cell index of adder
	m := moduleWithMain(main, adder)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(15), i)
}

func TestExecuteSpawnAndAwaitEager(t *testing.T) {
	worker := &ir.Cell{
		Name:      "worker",
		Registers: 2,
		Constants: []values.Value{values.Int(99)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Str("worker")},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_SPAWN, 0, 0, 0),
			ir.NewABC(opcodes.OP_AWAIT, 0, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := moduleWithMain(main, worker)
	v := New()
	v.SetFutureSchedule(ScheduleEager)
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(99), i)
}

func TestExecuteHandlePushPerformResume(t *testing.T) {
	// Index 0: HANDLE_PUSH installs a Fail.raise handler whose body
	// starts at index 3 (IP is already advanced past HANDLE_PUSH
	// itself, to 1, when the offset is applied: 1+2=3).
	// Index 1: PERFORM Fail.raise, result lands in r1 on resume.
	// Index 2: RETURN r1 -- resumes here after Resume restores IP=2.
	// Index 3-4: handler body, resumes the performer with 7.
	main := &ir.Cell{
		Registers: 6,
		Constants: []values.Value{values.Int(7), values.Str("Fail"), values.Str("raise")},
		EffectHandlerMetas: []ir.EffectHandlerMeta{
			{EffectName: "Fail", Operation: "raise"},
		},
		Instructions: []ir.Instruction{
			ir.NewSbx(opcodes.OP_HANDLE_PUSH, 0, 2),
			ir.NewABC(opcodes.OP_PERFORM, 1, 1, 2),
			ir.NewABC(opcodes.OP_RETURN, 1, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 3, 0),
			ir.NewABC(opcodes.OP_RESUME, 3, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(7), i)
}

func TestExecuteForInSumsAList(t *testing.T) {
	main := &ir.Cell{
		Registers: 8,
		Instructions: []ir.Instruction{
			ir.NewSbx(opcodes.OP_LOAD_INT, 4, 1),
			ir.NewSbx(opcodes.OP_LOAD_INT, 5, 2),
			ir.NewSbx(opcodes.OP_LOAD_INT, 6, 3),
			ir.NewABC(opcodes.OP_NEW_LIST, 0, 4, 3),
			ir.NewSbx(opcodes.OP_LOAD_INT, 1, 0),
			ir.NewSbx(opcodes.OP_LOAD_INT, 3, 0),
			{Op: opcodes.OP_FOR_IN, A: 1, B: 0, C: 2, Bx16: 2},
			ir.NewABC(opcodes.OP_ADD, 3, 3, 2),
			ir.NewSbx(opcodes.OP_JMP, 0, -3),
			ir.NewABC(opcodes.OP_RETURN, 3, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(6), i)
}

func TestExecuteForInOverMapYieldsKeyValueTuples(t *testing.T) {
	main := &ir.Cell{
		Registers: 9,
		Constants: []values.Value{values.Str("a"), values.Int(10), values.Str("b"), values.Int(20)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0), // r0 = "a"
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1), // r1 = 10
			ir.NewAbx(opcodes.OP_LOAD_CONST, 2, 2), // r2 = "b"
			ir.NewAbx(opcodes.OP_LOAD_CONST, 3, 3), // r3 = 20
			ir.NewABC(opcodes.OP_NEW_MAP, 4, 0, 2), // r4 = {"a": 10, "b": 20}
			ir.NewSbx(opcodes.OP_LOAD_INT, 5, 0),   // r5 = idx
			ir.NewSbx(opcodes.OP_LOAD_INT, 7, 0),   // r7 = sum accumulator
			{Op: opcodes.OP_FOR_IN, A: 5, B: 4, C: 6, Bx16: 3},
			ir.NewABC(opcodes.OP_GET_TUPLE, 8, 6, 1), // r8 = value half of (key, value)
			ir.NewABC(opcodes.OP_ADD, 7, 7, 8),
			ir.NewSbx(opcodes.OP_JMP, 0, -4),
			ir.NewABC(opcodes.OP_RETURN, 7, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(30), i, "FOR_IN over a map must yield (key, value) tuples")
}

func TestArithIntPowWithinRange(t *testing.T) {
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(2), values.Int(10)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_POW, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	i, ok := result.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(1024), i)
}

func TestArithIntPowExponentOutOfRangeErrors(t *testing.T) {
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(2), values.Int(64)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_POW, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, MessageContains(err, "exponent out of range"))
}

func TestArithIntMulMinInt64ByNegOneOverflows(t *testing.T) {
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(math.MinInt64), values.Int(-1)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewAbx(opcodes.OP_LOAD_CONST, 1, 1),
			ir.NewABC(opcodes.OP_MUL, 2, 0, 1),
			ir.NewABC(opcodes.OP_RETURN, 2, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, IsArithmeticOverflow(err))
}

func TestExecuteToolCallWithoutDispatcherWritesSentinel(t *testing.T) {
	main := &ir.Cell{
		Registers: 4,
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_TOOL_CALL, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := &ir.Module{
		DocHash: "test-doc",
		Cells:   []*ir.Cell{main},
		Tools:   []ir.Tool{{Alias: "search", ToolID: "web.search", Version: "v1"}},
	}
	main.Name = "main"
	v := New()
	require.NoError(t, v.Load(m))

	result, err := v.Execute("main", nil)
	require.NoError(t, err)
	ref, ok := result.AsStringRef()
	require.True(t, ok)
	s, _ := ref.Resolve(v.Strings)
	assert.Contains(t, s, "search")
}

func TestExecuteCallNonCallableIsTypeError(t *testing.T) {
	main := &ir.Cell{
		Registers: 4,
		Constants: []values.Value{values.Int(5)},
		Instructions: []ir.Instruction{
			ir.NewAbx(opcodes.OP_LOAD_CONST, 0, 0),
			ir.NewABC(opcodes.OP_CALL, 0, 0, 0),
			ir.NewABC(opcodes.OP_RETURN, 0, 0, 0),
		},
	}
	m := moduleWithMain(main)
	v := New()
	require.NoError(t, v.Load(m))

	_, err := v.Execute("main", nil)
	require.Error(t, err)
	assert.True(t, IsTypeError(err))
}
