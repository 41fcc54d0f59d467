package vm

import "github.com/lumenforge/lumen/values"

// minWorkingRegisters pads a newly opened frame's register window so
// small cells don't repeatedly trigger register-file growth.
const minWorkingRegisters = 8

// externalReturnRegister marks a frame pushed by CallValue: its return
// value is handed back directly to the Go caller instead of being
// written into another frame's register, since there is no VM-side
// caller register for a synchronous call made from a builtin.
const externalReturnRegister = -1

// CallFrame is one activation record on the VM's frame stack.
type CallFrame struct {
	CellIndex     int
	BaseRegister  int
	IP            int
	ReturnRegister int
	FutureID      *uint64
}

// registerFile is the VM's single growable vector of registers shared
// by every frame; a frame's local register i lives at
// BaseRegister+i.
type registerFile struct {
	regs []values.Value
}

func newRegisterFile() *registerFile {
	return &registerFile{regs: make([]values.Value, 0, 256)}
}

func (r *registerFile) ensure(n int) {
	for len(r.regs) < n {
		r.regs = append(r.regs, values.Null())
	}
}

func (r *registerFile) get(i int) (values.Value, bool) {
	if i < 0 || i >= len(r.regs) {
		return values.Value{}, false
	}
	return r.regs[i], true
}

func (r *registerFile) set(i int, v values.Value) bool {
	if i < 0 {
		return false
	}
	r.ensure(i + 1)
	r.regs[i] = v
	return true
}

// getChecked is get with a VM-style *Error on out-of-bounds access,
// used by call-site argument copying where a bare bool isn't
// convenient to propagate.
func (r *registerFile) getChecked(i int) (values.Value, error) {
	v, ok := r.get(i)
	if !ok {
		return values.Value{}, NewError(KindRegisterOutOfBounds, "register index %d out of bounds", i)
	}
	return v, nil
}
