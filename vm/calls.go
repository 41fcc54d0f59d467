package vm

import (
	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/values"
)

// dispatchCall implements the CALL opcode: R(A) holds the callee
// before the call; after the call R(A) holds the result. Arguments
// occupy R(A+1)..R(A+nargs). Resolution order is cell name, then
// closure, then builtin dispatch, then TypeError -- grounded on
// original_source/rust/lumen-vm/src/vm/mod.rs's dispatch_call.
func (vm *VM) dispatchCall(base, a, nargs int) error {
	callee, err := vm.regs.getChecked(base + a)
	if err != nil {
		return err
	}
	switch callee.Kind {
	case values.KindString:
		name, err := vm.resolveCallName(callee)
		if err != nil {
			return err
		}
		if idx, ok := vm.module.CellIndex(name); ok {
			return vm.enterCell(idx, base, a, nargs, nil)
		}
		result, err := vm.callBuiltinByName(name, base, a, nargs)
		if err != nil {
			return err
		}
		return vm.setRegAbs(base+a, result)
	case values.KindClosure:
		cl := callee.Data.(*values.Closure)
		return vm.enterCell(cl.CellIndex, base, a, nargs, cl.Captures)
	default:
		return NewError(KindTypeError, "cannot call a value of type %s", callee.TypeName())
	}
}

// dispatchTailCall reuses the current frame instead of pushing a new
// one, per original_source's dispatch_tailcall.
func (vm *VM) dispatchTailCall(base, a, nargs int) error {
	callee, err := vm.regs.getChecked(base + a)
	if err != nil {
		return err
	}
	switch callee.Kind {
	case values.KindString:
		name, err := vm.resolveCallName(callee)
		if err != nil {
			return err
		}
		if idx, ok := vm.module.CellIndex(name); ok {
			return vm.reuseFrameForCell(idx, base, a, nargs, nil)
		}
		result, err := vm.callBuiltinByName(name, base, a, nargs)
		if err != nil {
			return err
		}
		return vm.setRegAbs(base+a, result)
	case values.KindClosure:
		cl := callee.Data.(*values.Closure)
		return vm.reuseFrameForCell(cl.CellIndex, base, a, nargs, cl.Captures)
	default:
		return NewError(KindTypeError, "cannot tail-call a value of type %s", callee.TypeName())
	}
}

func (vm *VM) resolveCallName(callee values.Value) (string, error) {
	ref, _ := callee.AsStringRef()
	s, err := ref.Resolve(vm.Strings)
	if err != nil {
		return "", NewError(KindRuntime, "unresolvable call target: %v", err)
	}
	return s, nil
}

func (vm *VM) callBuiltinByName(name string, base, a, nargs int) (values.Value, error) {
	if vm.Builtins == nil {
		return values.Value{}, NewError(KindUndefinedCell, "no cell or builtin named %q", name)
	}
	args := make([]values.Value, nargs)
	for i := 0; i < nargs; i++ {
		v, err := vm.regs.getChecked(base + a + 1 + i)
		if err != nil {
			return values.Value{}, err
		}
		args[i] = v
	}
	return vm.Builtins.CallByName(name, args)
}

// enterCell pushes a new frame at a fresh register-file extent for
// cellIdx, copying captures (if any, for a closure call) then
// call-site args into the callee's parameter registers.
func (vm *VM) enterCell(cellIdx, base, a, nargs int, captures []values.Value) error {
	if len(vm.frames) >= maxCallDepth {
		return NewError(KindStackOverflow, "call depth exceeded %d", maxCallDepth)
	}
	cell := vm.module.Cells[cellIdx]
	newBase := len(vm.regs.regs)
	want := cell.Registers
	if want < minWorkingRegisters*32 {
		want = minWorkingRegisters * 32
	}
	vm.regs.ensure(newBase + want)

	if err := vm.copyCapturesAndArgs(cell, newBase, base+a+1, nargs, captures); err != nil {
		return err
	}

	vm.frames = append(vm.frames, CallFrame{
		CellIndex:      cellIdx,
		BaseRegister:   newBase,
		IP:             0,
		ReturnRegister: base + a,
	})
	vm.emit(DebugEvent{Kind: "CallEnter", Cell: cell.Name})
	return nil
}

func (vm *VM) reuseFrameForCell(cellIdx, base, a, nargs int, captures []values.Value) error {
	cell := vm.module.Cells[cellIdx]
	if err := vm.copyCapturesAndArgs(cell, base, base+a+1, nargs, captures); err != nil {
		return err
	}
	f := &vm.frames[len(vm.frames)-1]
	f.CellIndex = cellIdx
	f.IP = 0
	return nil
}

// copyCapturesAndArgs fills paramOffset 0..len(captures)-1 from
// captures then the remaining parameters from the nargs call-site
// registers starting at argBase, packing any trailing variadic
// parameter into a list.
func (vm *VM) copyCapturesAndArgs(cell *ir.Cell, newBase, argBase, nargs int, captures []values.Value) error {
	for i, cap := range captures {
		if err := vm.setRegAbs(newBase+i, cap); err != nil {
			return err
		}
	}
	return vm.copyArgsToParams(cell.Params, newBase, argBase, nargs, len(captures))
}

func (vm *VM) copyArgsToParams(params []ir.Param, newBase, argBase, nargs, paramOffset int) error {
	if paramOffset >= len(params) {
		return nil
	}
	variadicIdx := -1
	for i := paramOffset; i < len(params); i++ {
		if params[i].Variadic {
			variadicIdx = i
			break
		}
	}
	if variadicIdx >= 0 {
		fixedCount := variadicIdx - paramOffset
		for i := 0; i < fixedCount && i < nargs; i++ {
			v, err := vm.regs.getChecked(argBase + i)
			if err != nil {
				return err
			}
			if err := vm.setRegAbs(newBase+params[paramOffset+i].Register, v); err != nil {
				return err
			}
		}
		variadicCap := nargs - fixedCount
		if variadicCap < 0 {
			variadicCap = 0
		}
		variadicArgs := make([]values.Value, 0, variadicCap)
		for i := fixedCount; i < nargs; i++ {
			v, err := vm.regs.getChecked(argBase + i)
			if err != nil {
				return err
			}
			variadicArgs = append(variadicArgs, v)
		}
		return vm.setRegAbs(newBase+params[variadicIdx].Register, values.NewList(variadicArgs))
	}
	for i := 0; i < nargs; i++ {
		if paramOffset+i >= len(params) {
			break
		}
		v, err := vm.regs.getChecked(argBase + i)
		if err != nil {
			return err
		}
		if err := vm.setRegAbs(newBase+params[paramOffset+i].Register, v); err != nil {
			return err
		}
	}
	return nil
}

func (vm *VM) setRegAbs(idx int, v values.Value) error {
	if !vm.regs.set(idx, v) {
		return NewError(KindRegisterOutOfBounds, "register index %d out of bounds", idx)
	}
	return nil
}
