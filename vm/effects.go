package vm

import "github.com/lumenforge/lumen/values"

// handlePush installs an effect scope from the current cell's
// EffectHandlerMetas[metaIdx], jumping the handler to handlerIP on a
// matching Perform. Grounded on original_source's HandlePush, which
// reads effect/operation names from handler metadata (not constants).
func (vm *VM) handlePush(metaIdx int, bxOffset int) error {
	frame := &vm.frames[len(vm.frames)-1]
	cell := vm.module.Cells[frame.CellIndex]
	if metaIdx < 0 || metaIdx >= len(cell.EffectHandlerMetas) {
		return NewError(KindRuntime, "effect handler metadata index %d out of range", metaIdx)
	}
	meta := cell.EffectHandlerMetas[metaIdx]
	vm.effectHandlers = append(vm.effectHandlers, EffectScope{
		HandlerIP:    frame.IP + bxOffset,
		FrameIndex:   len(vm.frames) - 1,
		BaseRegister: frame.BaseRegister,
		CellIndex:    frame.CellIndex,
		EffectName:   meta.EffectName,
		Operation:    meta.Operation,
	})
	return nil
}

func (vm *VM) handlePop() error {
	if len(vm.effectHandlers) == 0 {
		return NewError(KindRuntime, "HandlePop with no installed effect handler")
	}
	vm.effectHandlers = vm.effectHandlers[:len(vm.effectHandlers)-1]
	return nil
}

// perform implements the Perform opcode: effect/op names come from
// constants b/c (not handler metadata, unlike HandlePush). It searches
// the handler stack top-to-bottom, snapshots a one-shot continuation,
// and transfers control to the matching handler's own frame.
func (vm *VM) perform(a, effectName, operation string, resultBase int) error {
	for i := len(vm.effectHandlers) - 1; i >= 0; i-- {
		scope := vm.effectHandlers[i]
		if scope.EffectName != effectName || scope.Operation != operation {
			continue
		}

		framesCopy := make([]CallFrame, len(vm.frames))
		copy(framesCopy, vm.frames)
		regsCopy := make([]values.Value, len(vm.regs.regs))
		copy(regsCopy, vm.regs.regs)

		vm.suspended = &SuspendedContinuation{
			Frames:           framesCopy,
			Registers:        regsCopy,
			ResumeIP:         vm.frames[len(vm.frames)-1].IP,
			ResumeFrameCount: len(vm.frames),
			ResultRegister:   resultBase,
		}

		handlerFrame := &vm.frames[scope.FrameIndex]
		handlerFrame.IP = scope.HandlerIP
		// Unwind any frames pushed after the handler's own frame --
		// the handler runs with the handler's call stack, not the
		// performer's.
		vm.frames = vm.frames[:scope.FrameIndex+1]
		return nil
	}
	return NewError(KindRuntime, "no handler installed for effect %s.%s", effectName, operation)
}

// resume restores the snapshotted continuation exactly once; a second
// Resume without an intervening Perform errors because the
// continuation was already consumed.
func (vm *VM) resume(value values.Value) error {
	if vm.suspended == nil {
		return NewError(KindRuntime, "resume called outside of effect handler")
	}
	cont := vm.suspended
	vm.suspended = nil

	vm.frames = make([]CallFrame, len(cont.Frames))
	copy(vm.frames, cont.Frames)
	vm.regs.regs = make([]values.Value, len(cont.Registers))
	copy(vm.regs.regs, cont.Registers)

	if cont.ResumeFrameCount > 0 && cont.ResumeFrameCount <= len(vm.frames) {
		vm.frames[cont.ResumeFrameCount-1].IP = cont.ResumeIP
	}
	return vm.setRegAbs(cont.ResultRegister, value)
}
