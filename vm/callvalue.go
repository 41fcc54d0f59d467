package vm

import "github.com/lumenforge/lumen/values"

// CallValue invokes a closure or cell-name value synchronously and
// runs it to completion, for use by higher-order builtins (map,
// filter, reduce, sort-by, ...) that need to call back into VM code
// without going through a CALL opcode's register window. Grounded on
// the teacher's builtinContext.CallUserFunction (vm/builtin_context.go),
// generalized from its save/restore-VM-state approach to this VM's
// shared register file and frame stack: the callee's frame is pushed
// with a sentinel ReturnRegister so returnFromFrame hands the result
// straight back here instead of writing into an unrelated register.
func (vm *VM) CallValue(callee values.Value, args []values.Value) (values.Value, error) {
	cellIdx, captures, err := vm.resolveCallableTarget(callee)
	if err != nil {
		return values.Value{}, err
	}
	if len(vm.frames) >= maxCallDepth {
		return values.Value{}, NewError(KindStackOverflow, "call depth exceeded %d", maxCallDepth)
	}
	cell := vm.module.Cells[cellIdx]
	newBase := len(vm.regs.regs)
	want := cell.Registers
	if want < minWorkingRegisters*32 {
		want = minWorkingRegisters * 32
	}
	vm.regs.ensure(newBase + want)

	argBase := len(vm.regs.regs)
	for i, a := range args {
		if err := vm.setRegAbs(argBase+i, a); err != nil {
			return values.Value{}, err
		}
	}
	if err := vm.copyCapturesAndArgs(cell, newBase, argBase, len(args), captures); err != nil {
		return values.Value{}, err
	}

	vm.frames = append(vm.frames, CallFrame{
		CellIndex:      cellIdx,
		BaseRegister:   newBase,
		IP:             0,
		ReturnRegister: externalReturnRegister,
	})
	vm.emit(DebugEvent{Kind: "CallEnter", Cell: cell.Name})
	return vm.run()
}

func (vm *VM) resolveCallableTarget(callee values.Value) (int, []values.Value, error) {
	switch callee.Kind {
	case values.KindString:
		name, err := vm.resolveCallName(callee)
		if err != nil {
			return 0, nil, err
		}
		idx, ok := vm.module.CellIndex(name)
		if !ok {
			return 0, nil, NewError(KindUndefinedCell, "no such cell %q", name)
		}
		return idx, nil, nil
	case values.KindClosure:
		cl := callee.Data.(*values.Closure)
		return cl.CellIndex, cl.Captures, nil
	default:
		return 0, nil, NewError(KindTypeError, "cannot call a value of type %s", callee.TypeName())
	}
}

// SpawnValue spawns callee as a future task, for the `spawn`/`parallel`/
// `race`/`vote` builtins (spec section 4.9 "Concurrency"), reusing the
// Spawn opcode's target resolution and scheduling.
func (vm *VM) SpawnValue(callee values.Value, args []values.Value) (values.Value, error) {
	target, err := vm.resolveFutureTarget(callee)
	if err != nil {
		return values.Value{}, err
	}
	return vm.spawnFuture(target, args)
}

// AwaitValue drives a future (or a container of futures) to
// completion, retrying until resolved or the retry budget is spent --
// the builtin-surface analogue of the Await opcode's IP-frozen retry.
func (vm *VM) AwaitValue(v values.Value) (values.Value, error) {
	for i := 0; i < maxAwaitRetries; i++ {
		result, done, err := vm.awaitValueRecursive(v)
		if err != nil {
			return values.Value{}, err
		}
		if done {
			return result, nil
		}
	}
	return values.Value{}, NewError(KindFuelExhausted, "await retries exhausted")
}
