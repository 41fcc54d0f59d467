package vm

import (
	"fmt"

	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/opcodes"
	"github.com/lumenforge/lumen/values"
)

// Execute resolves cellName, copies args 1:1 into its parameter
// registers, and runs the dispatch loop to completion. Grounded on
// original_source/rust/lumen-vm/src/vm/mod.rs's execute(): unlike a
// CALL opcode, the top-level entry point does not pack a trailing
// variadic parameter from extra args.
func (vm *VM) Execute(cellName string, args []values.Value) (values.Value, error) {
	if vm.module == nil {
		return values.Value{}, NewError(KindNoModule, "no module loaded")
	}
	idx, ok := vm.module.CellIndex(cellName)
	if !ok {
		return values.Value{}, NewError(KindUndefinedCell, "no such cell %q", cellName)
	}
	cell := vm.module.Cells[idx]

	vm.regs = newRegisterFile()
	want := cell.Registers
	if want < minWorkingRegisters*32 {
		want = minWorkingRegisters * 32
	}
	vm.regs.ensure(want)
	for i, arg := range args {
		if i >= len(cell.Params) {
			break
		}
		if err := vm.setRegAbs(cell.Params[i].Register, arg); err != nil {
			return values.Value{}, err
		}
	}

	vm.instructionCount = 0
	vm.traceSeq = 0
	vm.frames = []CallFrame{{CellIndex: idx, BaseRegister: 0, IP: 0}}

	result, err := vm.run()
	if err != nil {
		return values.Value{}, WithStackTrace(err, vm.captureStackTrace())
	}
	return result, nil
}

// run drives the fetch-decode-execute loop until the frame stack
// empties (normal return) or an error crosses the outermost frame.
func (vm *VM) run() (values.Value, error) {
	for {
		if len(vm.frames) == 0 {
			return values.Null(), nil
		}
		frame := &vm.frames[len(vm.frames)-1]
		cell := vm.module.Cells[frame.CellIndex]

		if frame.IP >= len(cell.Instructions) {
			finished, result, err := vm.returnFromFrame(values.Null())
			if err != nil {
				if vm.failCurrentFuture(err) {
					continue
				}
				return values.Value{}, err
			}
			if finished {
				return result, nil
			}
			continue
		}

		vm.instructionCount++
		if vm.instructionCount > vm.maxInstructions {
			return values.Value{}, NewError(KindInstructionLimitExceeded, "exceeded instruction limit %d", vm.maxInstructions)
		}
		if vm.fuel != nil {
			if *vm.fuel == 0 {
				return values.Value{}, NewError(KindFuelExhausted, "fuel exhausted")
			}
			*vm.fuel--
		}

		instr := cell.Instructions[frame.IP]
		vm.emit(DebugEvent{Kind: "Step", Cell: cell.Name, IP: frame.IP, Opcode: instr.Op.String()})
		frame.IP++

		finished, result, err := vm.step(frame, cell, instr)
		if err != nil {
			if vm.failCurrentFuture(err) {
				continue
			}
			return values.Value{}, err
		}
		if finished {
			return result, nil
		}
	}
}

// returnFromFrame pops the active frame, completing its future (if
// it was a spawned task) or writing the value into the caller's
// return register. The outermost frame's return value becomes
// Execute's result.
func (vm *VM) returnFromFrame(v values.Value) (finished bool, result values.Value, err error) {
	f := vm.frames[len(vm.frames)-1]
	vm.frames = vm.frames[:len(vm.frames)-1]

	if f.FutureID != nil {
		vm.futures[*f.FutureID] = &futureState{status: values.FutureCompleted, value: v}
	}
	if len(vm.frames) == 0 || f.ReturnRegister == externalReturnRegister {
		return true, v, nil
	}
	if f.FutureID == nil {
		if e := vm.setRegAbs(f.ReturnRegister, v); e != nil {
			return false, values.Value{}, e
		}
	}
	return false, values.Value{}, nil
}

// failCurrentFuture demotes an otherwise-propagating error into a
// recorded Error future state when the active frame belongs to a
// spawned task, for ANY opcode's failure during that frame's
// execution -- not just explicit await/return handling. Grounded on
// original_source's fail_current_future.
func (vm *VM) failCurrentFuture(err error) bool {
	if len(vm.frames) == 0 {
		return false
	}
	f := vm.frames[len(vm.frames)-1]
	if f.FutureID == nil {
		return false
	}
	vm.frames = vm.frames[:len(vm.frames)-1]
	msg := err.Error()
	if base, ok := AsError(err); ok {
		msg = base.Message
	}
	vm.futures[*f.FutureID] = &futureState{status: values.FutureError, errMsg: msg}
	return true
}

// step executes one already-fetched instruction. finished/result
// mirror returnFromFrame's outermost-return signal.
func (vm *VM) step(frame *CallFrame, cell *ir.Cell, instr ir.Instruction) (finished bool, result values.Value, err error) {
	switch instr.Op {
	case opcodes.OP_NOP:
		return false, values.Value{}, nil

	case opcodes.OP_LOAD_CONST:
		v, err := vm.constant(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v)
	case opcodes.OP_LOAD_NIL:
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Null())
	case opcodes.OP_LOAD_BOOL:
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Bool(instr.B != 0))
	case opcodes.OP_LOAD_INT:
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Int(int64(instr.Sbx())))
	case opcodes.OP_MOVE:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v)

	case opcodes.OP_NEW_LIST:
		items, err := vm.regSlice(frame, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.NewList(items))
	case opcodes.OP_NEW_TUPLE:
		items, err := vm.regSlice(frame, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.NewTuple(items))
	case opcodes.OP_NEW_SET:
		items, err := vm.regSlice(frame, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.NewSetValue(items, values.NewComparator(vm.Strings)))
	case opcodes.OP_NEW_MAP:
		mb := values.NewMap()
		for i := 0; i < int(instr.C); i++ {
			k, err := vm.reg(frame, instr.B+uint8(2*i))
			if err != nil {
				return false, values.Value{}, err
			}
			v, err := vm.reg(frame, instr.B+uint8(2*i+1))
			if err != nil {
				return false, values.Value{}, err
			}
			key, ok := vm.asMapKey(k)
			if !ok {
				return false, values.Value{}, NewError(KindTypeError, "map key must be a string, got %s", k.TypeName())
			}
			mb.Set(key, v)
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Value{Kind: values.KindMap, Data: mb})
	case opcodes.OP_NEW_RECORD:
		typeName, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		rec, err := vm.buildRecord(frame, typeName, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, rec)
	case opcodes.OP_NEW_UNION:
		tagName, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		payload, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.NewUnion(tagName, payload))

	case opcodes.OP_GET_FIELD:
		obj, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		name, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		v, err := vm.getField(obj, name)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v)
	case opcodes.OP_SET_FIELD:
		obj, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		name, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		val, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		updated, err := vm.setField(obj, name, val)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, updated)
	case opcodes.OP_GET_INDEX:
		obj, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		idx, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		v, err := vm.getIndex(obj, idx)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v)
	case opcodes.OP_SET_INDEX:
		obj, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		idx, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		val, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		updated, err := vm.setIndex(obj, idx, val)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, updated)
	case opcodes.OP_GET_TUPLE:
		obj, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		if obj.Kind != values.KindTuple {
			return false, values.Value{}, NewError(KindTypeError, "GET_TUPLE requires a tuple, got %s", obj.TypeName())
		}
		tb := obj.Data.(*values.TupleBox)
		i := int(instr.C)
		if i < 0 || i >= tb.Len() {
			return false, values.Value{}, NewError(KindRuntime, "tuple index %d out of bounds", i)
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, tb.Items()[i])

	case opcodes.OP_ADD, opcodes.OP_SUB, opcodes.OP_MUL, opcodes.OP_DIV,
		opcodes.OP_FLOOR_DIV, opcodes.OP_MOD, opcodes.OP_POW:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := arith(arithSymbol(instr.Op), a, b)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_NEG:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := negate(v)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)

	case opcodes.OP_BAND, opcodes.OP_BOR, opcodes.OP_BXOR, opcodes.OP_SHL, opcodes.OP_SHR:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := bitwise(bitwiseSymbol(instr.Op), a, b)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_BNOT:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := bitwiseNot(v)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)

	case opcodes.OP_EQ, opcodes.OP_LT, opcodes.OP_LE:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		var result values.Value
		switch instr.Op {
		case opcodes.OP_EQ:
			result = vm.compareEq(a, b)
		case opcodes.OP_LT:
			result = vm.compareLt(a, b)
		default:
			result = vm.compareLe(a, b)
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_NOT:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, vm.logicalNot(v))
	case opcodes.OP_AND, opcodes.OP_OR:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		var result values.Value
		if instr.Op == opcodes.OP_AND {
			result = vm.logicalAnd(a, b)
		} else {
			result = vm.logicalOr(a, b)
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_IN:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := vm.inContainer(a, b)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_IS:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		typeName, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, vm.isType(v, typeName))
	case opcodes.OP_NULL_COALESCE:
		a, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		if a.Kind != values.KindNull {
			return false, values.Value{}, vm.setReg(frame, instr.A, a)
		}
		b, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, b)
	case opcodes.OP_TEST:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		if values.Truthy(v, vm.Strings) == (instr.C != 0) {
			frame.IP++
		}
		return false, values.Value{}, nil

	case opcodes.OP_JMP:
		frame.IP += int(instr.Sbx())
		return false, values.Value{}, nil
	case opcodes.OP_FOR_PREP:
		return false, values.Value{}, vm.forPrep(frame, instr)
	case opcodes.OP_FOR_LOOP:
		return false, values.Value{}, vm.forLoop(frame, instr)
	case opcodes.OP_FOR_IN:
		return false, values.Value{}, vm.forIn(frame, instr)
	case opcodes.OP_LOOP_COUNTER:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		i, ok := v.AsInt()
		if !ok {
			return false, values.Value{}, NewError(KindTypeError, "LOOP_COUNTER requires an integer")
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Int(i+1))

	case opcodes.OP_CALL:
		if err := vm.dispatchCall(frame.BaseRegister, int(instr.A), int(instr.B)); err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, nil
	case opcodes.OP_TAIL_CALL:
		if err := vm.dispatchTailCall(frame.BaseRegister, int(instr.A), int(instr.B)); err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, nil
	case opcodes.OP_RETURN:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		finished, result, err := vm.returnFromFrame(v)
		return finished, result, err
	case opcodes.OP_HALT:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		msg := values.Display(v, vm.Strings)
		return false, values.Value{}, NewError(KindHalt, "%s", msg)

	case opcodes.OP_CLOSURE:
		cl := values.NewClosure(int(instr.Bx()))
		return false, values.Value{}, vm.setReg(frame, instr.A, cl)
	case opcodes.OP_GET_UPVAL:
		// Captures sit at the bottom of the callee's register window,
		// so reading an upvalue is register access in disguise.
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v)
	case opcodes.OP_SET_UPVAL:
		src, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		closureVal, err := vm.reg(frame, instr.C)
		if err != nil {
			return false, values.Value{}, err
		}
		cl, ok := closureVal.Data.(*values.Closure)
		if !ok {
			return false, values.Value{}, NewError(KindTypeError, "SET_UPVAL target is not a closure")
		}
		slot := int(instr.B)
		for len(cl.Captures) <= slot {
			cl.Captures = append(cl.Captures, values.Null())
		}
		cl.Captures[slot] = src
		return false, values.Value{}, nil

	case opcodes.OP_INTRINSIC:
		if vm.Builtins == nil {
			return false, values.Value{}, NewError(KindUndefinedCell, "no builtin provider configured")
		}
		args, err := vm.regSlice(frame, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := vm.Builtins.CallIntrinsic(int(instr.Bx()), args)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)

	case opcodes.OP_HANDLE_PUSH:
		return false, values.Value{}, vm.handlePush(int(instr.A), int(instr.Sbx()))
	case opcodes.OP_HANDLE_POP:
		return false, values.Value{}, vm.handlePop()
	case opcodes.OP_PERFORM:
		effectName, err := vm.constString(cell, int(instr.B))
		if err != nil {
			return false, values.Value{}, err
		}
		operation, err := vm.constString(cell, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.perform(int(instr.A), effectName, operation, frame.BaseRegister+int(instr.A))
	case opcodes.OP_RESUME:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.resume(v)

	case opcodes.OP_TOOL_CALL:
		if err := vm.toolCall(frame.BaseRegister, int(instr.A), int(instr.Bx())); err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, nil

	case opcodes.OP_SCHEMA:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		typeName, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		valid := vm.isType(v, typeName)
		validBool, _ := valid.AsBool()
		vm.emit(DebugEvent{Kind: "SchemaValidate", Schema: typeName, Valid: validBool})
		return false, values.Value{}, vm.setReg(frame, instr.B, valid)
	case opcodes.OP_EMIT:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		vm.Output = append(vm.Output, values.Display(v, vm.Strings))
		return false, values.Value{}, nil
	case opcodes.OP_TRACE_REF:
		return false, values.Value{}, vm.setReg(frame, instr.A, vm.nextTraceRef())
	case opcodes.OP_SPAWN:
		callee, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		args, err := vm.regSlice(frame, instr.B, int(instr.C))
		if err != nil {
			return false, values.Value{}, err
		}
		target, err := vm.resolveFutureTarget(callee)
		if err != nil {
			return false, values.Value{}, err
		}
		result, err := vm.spawnFuture(target, args)
		if err != nil {
			return false, values.Value{}, err
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, result)
	case opcodes.OP_AWAIT:
		v, err := vm.reg(frame, instr.A)
		if err != nil {
			return false, values.Value{}, err
		}
		resolved, done, err := vm.awaitValueRecursive(v)
		if err != nil {
			return false, values.Value{}, err
		}
		if !done {
			if vm.awaitFuel == 0 {
				return false, values.Value{}, NewError(KindFuelExhausted, "await retry budget exhausted")
			}
			vm.awaitFuel--
			frame.IP--
			return false, values.Value{}, nil
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, resolved)
	case opcodes.OP_IS_VARIANT:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		tag, err := vm.constString(cell, int(instr.Bx()))
		if err != nil {
			return false, values.Value{}, err
		}
		isVariant := v.Kind == values.KindUnion && v.Data.(*values.Union).Tag == tag
		return false, values.Value{}, vm.setReg(frame, instr.A, values.Bool(isVariant))
	case opcodes.OP_UNBOX:
		v, err := vm.reg(frame, instr.B)
		if err != nil {
			return false, values.Value{}, err
		}
		if v.Kind != values.KindUnion {
			return false, values.Value{}, NewError(KindTypeError, "UNBOX requires a union value, got %s", v.TypeName())
		}
		return false, values.Value{}, vm.setReg(frame, instr.A, v.Data.(*values.Union).Payload)

	default:
		return false, values.Value{}, NewError(KindRuntime, "unimplemented opcode %s", instr.Op)
	}
}

func arithSymbol(op opcodes.Opcode) string {
	switch op {
	case opcodes.OP_ADD:
		return "+"
	case opcodes.OP_SUB:
		return "-"
	case opcodes.OP_MUL:
		return "*"
	case opcodes.OP_DIV:
		return "/"
	case opcodes.OP_FLOOR_DIV:
		return "//"
	case opcodes.OP_MOD:
		return "%"
	case opcodes.OP_POW:
		return "**"
	}
	return ""
}

func bitwiseSymbol(op opcodes.Opcode) string {
	switch op {
	case opcodes.OP_BAND:
		return "&"
	case opcodes.OP_BOR:
		return "|"
	case opcodes.OP_BXOR:
		return "^"
	case opcodes.OP_SHL:
		return "<<"
	case opcodes.OP_SHR:
		return ">>"
	}
	return ""
}

func (vm *VM) regSlice(frame *CallFrame, start uint8, count int) ([]values.Value, error) {
	out := make([]values.Value, count)
	for i := 0; i < count; i++ {
		v, err := vm.reg(frame, start+uint8(i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (vm *VM) constString(cell *ir.Cell, idx int) (string, error) {
	v, err := vm.constant(cell, idx)
	if err != nil {
		return "", err
	}
	ref, ok := v.AsStringRef()
	if !ok {
		return "", NewError(KindTypeError, "constant %d is not a string", idx)
	}
	return ref.Resolve(vm.Strings)
}

func (vm *VM) buildRecord(frame *CallFrame, typeName string, start uint8, pairs int) (values.Value, error) {
	rec := values.NewRecord(typeName)
	rb := rec.Data.(*values.RecordBox)
	for i := 0; i < pairs; i++ {
		k, err := vm.reg(frame, start+uint8(2*i))
		if err != nil {
			return values.Value{}, err
		}
		v, err := vm.reg(frame, start+uint8(2*i+1))
		if err != nil {
			return values.Value{}, err
		}
		key, ok := vm.asMapKey(k)
		if !ok {
			return values.Value{}, NewError(KindTypeError, "record field name must be a string, got %s", k.TypeName())
		}
		rb.Rec.Fields.Set(key, v)
	}
	return rec, nil
}

func (vm *VM) getField(obj values.Value, name string) (values.Value, error) {
	switch obj.Kind {
	case values.KindRecord:
		rb := obj.Data.(*values.RecordBox)
		v, ok := rb.Rec.Fields.Get(name)
		if !ok {
			return values.Value{}, NewError(KindRuntime, "record %s has no field %q", rb.Rec.TypeName, name)
		}
		return v, nil
	case values.KindMap:
		mb := obj.Data.(*values.MapBox)
		v, ok := mb.Get(name)
		if !ok {
			return values.Null(), nil
		}
		return v, nil
	default:
		return values.Value{}, NewError(KindTypeError, "cannot get field %q of %s", name, obj.TypeName())
	}
}

func (vm *VM) setField(obj values.Value, name string, val values.Value) (values.Value, error) {
	switch obj.Kind {
	case values.KindRecord:
		rb := obj.Data.(*values.RecordBox).MakeMut()
		rb.Rec.Fields.Set(name, val)
		return values.Value{Kind: values.KindRecord, Data: rb}, nil
	case values.KindMap:
		mb := obj.Data.(*values.MapBox).MakeMut()
		mb.Set(name, val)
		return values.Value{Kind: values.KindMap, Data: mb}, nil
	default:
		return values.Value{}, NewError(KindTypeError, "cannot set field %q of %s", name, obj.TypeName())
	}
}

func (vm *VM) getIndex(obj, idx values.Value) (values.Value, error) {
	switch obj.Kind {
	case values.KindList:
		lb := obj.Data.(*values.ListBox)
		i, ok := idx.AsInt()
		if !ok || i < 0 || int(i) >= lb.Len() {
			return values.Value{}, NewError(KindRuntime, "list index out of bounds")
		}
		return lb.Items()[i], nil
	case values.KindTuple:
		tb := obj.Data.(*values.TupleBox)
		i, ok := idx.AsInt()
		if !ok || i < 0 || int(i) >= tb.Len() {
			return values.Value{}, NewError(KindRuntime, "tuple index out of bounds")
		}
		return tb.Items()[i], nil
	case values.KindMap:
		key, ok := vm.asMapKey(idx)
		if !ok {
			return values.Value{}, NewError(KindTypeError, "map index must be a string")
		}
		mb := obj.Data.(*values.MapBox)
		v, found := mb.Get(key)
		if !found {
			return values.Null(), nil
		}
		return v, nil
	case values.KindRecord:
		key, ok := vm.asMapKey(idx)
		if !ok {
			return values.Value{}, NewError(KindTypeError, "record index must be a string")
		}
		return vm.getField(obj, key)
	default:
		return values.Value{}, NewError(KindTypeError, "cannot index into %s", obj.TypeName())
	}
}

func (vm *VM) setIndex(obj, idx, val values.Value) (values.Value, error) {
	switch obj.Kind {
	case values.KindList:
		lb := obj.Data.(*values.ListBox).MakeMut()
		i, ok := idx.AsInt()
		if !ok || i < 0 || int(i) >= lb.Len() {
			return values.Value{}, NewError(KindRuntime, "list index out of bounds")
		}
		items := lb.Items()
		items[i] = val
		lb.Set(items)
		return values.Value{Kind: values.KindList, Data: lb}, nil
	case values.KindMap:
		key, ok := vm.asMapKey(idx)
		if !ok {
			return values.Value{}, NewError(KindTypeError, "map index must be a string")
		}
		mb := obj.Data.(*values.MapBox).MakeMut()
		mb.Set(key, val)
		return values.Value{Kind: values.KindMap, Data: mb}, nil
	case values.KindRecord:
		key, ok := vm.asMapKey(idx)
		if !ok {
			return values.Value{}, NewError(KindTypeError, "record index must be a string")
		}
		return vm.setField(obj, key, val)
	default:
		return values.Value{}, NewError(KindTypeError, "cannot assign into %s", obj.TypeName())
	}
}

func (vm *VM) forInItems(container values.Value) ([]values.Value, error) {
	switch container.Kind {
	case values.KindList:
		return container.Data.(*values.ListBox).Items(), nil
	case values.KindTuple:
		return container.Data.(*values.TupleBox).Items(), nil
	case values.KindSet:
		return container.Data.(*values.SetBox).Items(), nil
	case values.KindMap:
		mb := container.Data.(*values.MapBox)
		keys := mb.Keys()
		items := make([]values.Value, 0, len(keys))
		for _, k := range keys {
			v, _ := mb.Get(k)
			items = append(items, values.NewTuple([]values.Value{values.Str(k), v}))
		}
		return items, nil
	default:
		return nil, NewError(KindTypeError, "cannot iterate over %s", container.TypeName())
	}
}

// forPrep/forLoop implement a Lua-inspired numeric for-loop register
// pair: R(A)=counter, R(A+1)=limit, R(A+2)=step, R(A+3)=loop
// variable. FOR_PREP skips the loop body entirely when the range is
// already empty; FOR_LOOP advances and branches back while in range.
func (vm *VM) forPrep(frame *CallFrame, instr ir.Instruction) error {
	start, err := vm.regInt(frame, instr.A)
	if err != nil {
		return err
	}
	limit, err := vm.regInt(frame, instr.A+1)
	if err != nil {
		return err
	}
	step, err := vm.regInt(frame, instr.A+2)
	if err != nil {
		return err
	}
	if step == 0 {
		return NewError(KindRuntime, "for-loop step cannot be zero")
	}
	if (step > 0 && start > limit) || (step < 0 && start < limit) {
		frame.IP += int(instr.Sbx())
		return nil
	}
	return vm.setReg(frame, instr.A+3, values.Int(start))
}

func (vm *VM) forLoop(frame *CallFrame, instr ir.Instruction) error {
	counter, err := vm.regInt(frame, instr.A)
	if err != nil {
		return err
	}
	step, err := vm.regInt(frame, instr.A+2)
	if err != nil {
		return err
	}
	limit, err := vm.regInt(frame, instr.A+1)
	if err != nil {
		return err
	}
	next := counter + step
	if (step > 0 && next > limit) || (step < 0 && next < limit) {
		return nil
	}
	if err := vm.setReg(frame, instr.A, values.Int(next)); err != nil {
		return err
	}
	if err := vm.setReg(frame, instr.A+3, values.Int(next)); err != nil {
		return err
	}
	frame.IP += int(instr.Sbx())
	return nil
}

// forIn implements for-each iteration over a List/Tuple/Set, or a Map
// as (key, value) tuples: R(A) holds the next index to consume, R(B)
// the container, R(C) the loop variable; Sbx is the relative offset
// to jump when exhausted.
func (vm *VM) forIn(frame *CallFrame, instr ir.Instruction) error {
	idxVal, err := vm.reg(frame, instr.A)
	if err != nil {
		return err
	}
	idx, ok := idxVal.AsInt()
	if !ok {
		idx = 0
	}
	container, err := vm.reg(frame, instr.B)
	if err != nil {
		return err
	}
	items, err := vm.forInItems(container)
	if err != nil {
		return err
	}
	if int(idx) >= len(items) {
		frame.IP += int(instr.Sbx())
		return nil
	}
	if err := vm.setReg(frame, instr.C, items[idx]); err != nil {
		return err
	}
	return vm.setReg(frame, instr.A, values.Int(idx+1))
}

func (vm *VM) regInt(frame *CallFrame, i uint8) (int64, error) {
	v, err := vm.reg(frame, i)
	if err != nil {
		return 0, err
	}
	n, ok := v.AsInt()
	if !ok {
		return 0, NewError(KindTypeError, "expected integer register, got %s", v.TypeName())
	}
	return n, nil
}

func (vm *VM) resolveFutureTarget(callee values.Value) (futureTarget, error) {
	switch callee.Kind {
	case values.KindString:
		name, err := vm.resolveCallName(callee)
		if err != nil {
			return futureTarget{}, err
		}
		idx, ok := vm.module.CellIndex(name)
		if !ok {
			return futureTarget{}, NewError(KindUndefinedCell, "no such cell %q", name)
		}
		return futureTarget{cellIndex: idx}, nil
	case values.KindClosure:
		return futureTarget{isClosure: true, closure: callee.Data.(*values.Closure)}, nil
	default:
		return futureTarget{}, NewError(KindTypeError, "cannot spawn a value of type %s", callee.TypeName())
	}
}

func (vm *VM) nextTraceRef() values.Value {
	vm.traceSeq++
	base := vm.traceID
	if base == "" {
		base = "doc:" + vm.module.DocHash
	}
	return values.Str(fmt.Sprintf("%s#%d", base, vm.traceSeq))
}
