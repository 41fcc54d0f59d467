package vm

import "github.com/lumenforge/lumen/values"

// spawnFuture mints a future id, records it as pending, and builds a
// task for the cell or closure target that is started at once under
// ScheduleEager or enqueued under ScheduleDeferredFIFO, grounded on
// spawn_future/FutureTarget in
// original_source/rust/lumen-vm/src/vm/mod.rs.
func (vm *VM) spawnFuture(target futureTarget, args []values.Value) (values.Value, error) {
	id := vm.nextFutureID
	vm.nextFutureID++

	invalid := false
	if target.isClosure {
		invalid = target.closure.CellIndex < 0 || target.closure.CellIndex >= len(vm.module.Cells)
	} else {
		invalid = target.cellIndex < 0 || target.cellIndex >= len(vm.module.Cells)
	}
	if invalid {
		vm.futures[id] = &futureState{status: values.FutureError, errMsg: "spawn target cell not found"}
		return values.Value{Kind: values.KindFuture, Data: &values.FutureHandle{ID: id, Status: values.FutureError}}, nil
	}

	vm.futures[id] = &futureState{status: values.FuturePending}
	task := &futureTask{futureID: id, target: target, args: args}

	switch vm.schedule {
	case ScheduleEager:
		if err := vm.startFutureTask(task); err != nil {
			return values.Value{}, err
		}
	case ScheduleDeferredFIFO:
		vm.scheduled.PushBack(task)
	}
	return values.Value{Kind: values.KindFuture, Data: &values.FutureHandle{ID: id, Status: values.FuturePending}}, nil
}

func (vm *VM) startFutureTask(task *futureTask) error {
	if len(vm.frames) >= maxCallDepth {
		return NewError(KindStackOverflow, "call depth exceeded %d", maxCallDepth)
	}
	var cellIdx int
	var captures []values.Value
	if task.target.isClosure {
		cellIdx = task.target.closure.CellIndex
		captures = task.target.closure.Captures
	} else {
		cellIdx = task.target.cellIndex
	}
	cell := vm.module.Cells[cellIdx]
	newBase := len(vm.regs.regs)
	want := cell.Registers
	if want < minWorkingRegisters*32 {
		want = minWorkingRegisters * 32
	}
	vm.regs.ensure(newBase + want)
	if err := vm.copyCapturesAndArgs(cell, newBase, 0, 0, captures); err != nil {
		return err
	}
	for i, arg := range task.args {
		idx := len(captures) + i
		if idx >= len(cell.Params) {
			break
		}
		if err := vm.setRegAbs(newBase+cell.Params[idx].Register, arg); err != nil {
			return err
		}
	}
	vm.frames = append(vm.frames, CallFrame{
		CellIndex:    cellIdx,
		BaseRegister: newBase,
		IP:           0,
		FutureID:     &task.futureID,
	})
	return nil
}

// startScheduledFuture starts the queued task for id, if any, used by
// await on a Deferred-FIFO-scheduled pending future.
func (vm *VM) startScheduledFuture(id uint64) (bool, error) {
	for e := vm.scheduled.Front(); e != nil; e = e.Next() {
		task := e.Value.(*futureTask)
		if task.futureID == id {
			vm.scheduled.Remove(e)
			if err := vm.startFutureTask(task); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

func (vm *VM) hasScheduledTask(id uint64) bool {
	for e := vm.scheduled.Front(); e != nil; e = e.Next() {
		if e.Value.(*futureTask).futureID == id {
			return true
		}
	}
	return false
}

// awaitFutureValue resolves one future handle: returns (value, true)
// if completed, (zero, false) if still pending with a runnable task
// started, or an error if pending with nothing to run or errored.
func (vm *VM) awaitFutureValue(h *values.FutureHandle) (values.Value, bool, error) {
	st, ok := vm.futures[h.ID]
	if !ok {
		return values.Value{}, false, NewError(KindRuntime, "unknown future id %d", h.ID)
	}
	switch st.status {
	case values.FutureCompleted:
		return st.value, true, nil
	case values.FutureError:
		return values.Value{}, false, NewError(KindRuntime, "await failed for future %d: %s", h.ID, st.errMsg)
	default: // Pending
		if vm.hasScheduledTask(h.ID) {
			if _, err := vm.startScheduledFuture(h.ID); err != nil {
				return values.Value{}, false, err
			}
			return values.Value{}, false, nil
		}
		return values.Value{}, false, NewError(KindRuntime, "future %d is pending with no runnable task", h.ID)
	}
}

// awaitValueRecursive resolves futures nested inside containers too,
// matching await_value_recursive: a List/Tuple/Set/Map/Record of
// futures awaits element-wise, short-circuiting on the first still-
// pending element.
func (vm *VM) awaitValueRecursive(v values.Value) (values.Value, bool, error) {
	switch v.Kind {
	case values.KindFuture:
		return vm.awaitFutureValue(v.Data.(*values.FutureHandle))
	case values.KindList:
		lb := v.Data.(*values.ListBox)
		out := make([]values.Value, 0, lb.Len())
		for _, item := range lb.Items() {
			resolved, done, err := vm.awaitValueRecursive(item)
			if err != nil || !done {
				return values.Value{}, false, err
			}
			out = append(out, resolved)
		}
		return values.NewList(out), true, nil
	case values.KindTuple:
		tb := v.Data.(*values.TupleBox)
		out := make([]values.Value, 0, tb.Len())
		for _, item := range tb.Items() {
			resolved, done, err := vm.awaitValueRecursive(item)
			if err != nil || !done {
				return values.Value{}, false, err
			}
			out = append(out, resolved)
		}
		return values.NewTuple(out), true, nil
	case values.KindMap:
		mb := v.Data.(*values.MapBox)
		out := values.NewMap()
		for _, k := range mb.Keys() {
			item, _ := mb.Get(k)
			resolved, done, err := vm.awaitValueRecursive(item)
			if err != nil || !done {
				return values.Value{}, false, err
			}
			out.Set(k, resolved)
		}
		return values.Value{Kind: values.KindMap, Data: out}, true, nil
	case values.KindSet:
		sb := v.Data.(*values.SetBox)
		out := make([]values.Value, 0, sb.Len())
		for _, item := range sb.Items() {
			resolved, done, err := vm.awaitValueRecursive(item)
			if err != nil || !done {
				return values.Value{}, false, err
			}
			out = append(out, resolved)
		}
		return values.NewSetValue(out, values.NewComparator(vm.Strings)), true, nil
	case values.KindRecord:
		rb := v.Data.(*values.RecordBox).MakeMut()
		for _, k := range rb.Rec.Fields.Keys() {
			item, _ := rb.Rec.Fields.Get(k)
			resolved, done, err := vm.awaitValueRecursive(item)
			if err != nil || !done {
				return values.Value{}, false, err
			}
			rb.Rec.Fields.Set(k, resolved)
		}
		return values.Value{Kind: values.KindRecord, Data: rb}, true, nil
	default:
		return v, true, nil
	}
}
