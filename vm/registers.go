package vm

import (
	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/values"
)

// reg/setReg resolve a frame-relative register index to the shared
// register file -- every opcode handler reads/writes registers
// through these two methods so the bounds check in spec section 4.1
// ("per-instruction register-bounds validation") is centralized once.
// The bound is the shared register file, not the active cell's
// declared register count: reg fails past the file's end, and setReg
// grows the file for any non-negative index.
func (vm *VM) reg(frame *CallFrame, i uint8) (values.Value, error) {
	idx := frame.BaseRegister + int(i)
	v, ok := vm.regs.get(idx)
	if !ok {
		return values.Value{}, NewError(KindRegisterOutOfBounds, "register r%d out of bounds", i)
	}
	return v, nil
}

func (vm *VM) setReg(frame *CallFrame, i uint8, v values.Value) error {
	idx := frame.BaseRegister + int(i)
	if !vm.regs.set(idx, v) {
		return NewError(KindRegisterOutOfBounds, "register r%d out of bounds", i)
	}
	return nil
}

func (vm *VM) constant(cell *ir.Cell, idx int) (values.Value, error) {
	if idx < 0 || idx >= len(cell.Constants) {
		return values.Value{}, NewError(KindRegisterOutOfBounds, "constant index %d out of bounds", idx)
	}
	return cell.Constants[idx], nil
}
