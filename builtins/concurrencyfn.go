package builtins

import (
	"fmt"

	"github.com/lumenforge/lumen/values"
)

// registerConcurrencyFunctions wires spec section 4.9's Concurrency
// bullet (spawn, parallel, race, select, vote, timeout) on top of the
// CellCaller's SpawnValue/AwaitValue, grounded on the same eager
// spawn/await model the VM's SPAWN/AWAIT opcodes implement (vm/futures.go)
// -- these builtins are the value-level surface for the same scheduler.
func (r *Registry) registerConcurrencyFunctions() {
	r.def("spawn", biSpawn)
	r.def("parallel", biParallel)
	r.def("race", biRace)
	r.def("select", biSelect)
	r.def("vote", biVote)
	r.def("timeout", biTimeout)
}

func (r *Registry) callable(name string, args []values.Value, i int) (values.Value, []values.Value, error) {
	if i >= len(args) {
		return values.Value{}, nil, fmt.Errorf("%s: missing callable argument %d", name, i)
	}
	callee := args[i]
	var callArgs []values.Value
	if i+1 < len(args) {
		callArgs = args[i+1:]
	}
	return callee, callArgs, nil
}

func biSpawn(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("spawn: no scheduler available")
	}
	callee, callArgs, err := r.callable("spawn", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return r.Caller.SpawnValue(callee, callArgs)
}

// parallel spawns every element of a list of callables (or already-
// spawned futures) and awaits each in order, returning a list of
// results.
func biParallel(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("parallel: no scheduler available")
	}
	items, err := r.listItems("parallel", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	futures := make([]values.Value, len(items))
	for i, item := range items {
		f, serr := r.spawnItem(item)
		if serr != nil {
			return values.Value{}, serr
		}
		futures[i] = f
	}
	out := make([]values.Value, len(futures))
	for i, f := range futures {
		v, aerr := r.Caller.AwaitValue(f)
		if aerr != nil {
			return values.Value{}, aerr
		}
		out[i] = v
	}
	return values.NewList(out), nil
}

// spawnItem accepts either a bare callable (cell name / closure) or a
// [callable, args...] tuple/list, spawning it as a future; an
// already-spawned future is returned as is.
func (r *Registry) spawnItem(item values.Value) (values.Value, error) {
	switch item.Kind {
	case values.KindFuture:
		return item, nil
	case values.KindList, values.KindTuple:
		parts, err := r.listItems("parallel", []values.Value{item}, 0)
		if err != nil {
			return values.Value{}, err
		}
		if len(parts) == 0 {
			return values.Value{}, fmt.Errorf("parallel: empty callable entry")
		}
		return r.Caller.SpawnValue(parts[0], parts[1:])
	default:
		return r.Caller.SpawnValue(item, nil)
	}
}

// race spawns every callable and returns the first result to finish.
// This VM's scheduler resolves futures in deferred-FIFO order (see
// vm/futures.go), so "first to finish" here means first in spawn
// order that resolves without error; later futures are still awaited
// to completion (best-effort, no cancellation primitive exists) but
// only the winning result is returned.
func biRace(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("race: no scheduler available")
	}
	items, err := r.listItems("race", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(items) == 0 {
		return values.Value{}, fmt.Errorf("race: no callables given")
	}
	futures := make([]values.Value, len(items))
	for i, item := range items {
		f, serr := r.spawnItem(item)
		if serr != nil {
			return values.Value{}, serr
		}
		futures[i] = f
	}
	var winner values.Value
	var firstErr error
	haveWinner := false
	for _, f := range futures {
		v, aerr := r.Caller.AwaitValue(f)
		if aerr != nil {
			if firstErr == nil {
				firstErr = aerr
			}
			continue
		}
		if !haveWinner {
			winner, haveWinner = v, true
		}
	}
	if !haveWinner {
		return values.Value{}, firstErr
	}
	return winner, nil
}

// select awaits every callable and returns the list of [index, result]
// pairs in spawn order, letting callers inspect every outcome rather
// than only the winner (unlike race).
func biSelect(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("select: no scheduler available")
	}
	items, err := r.listItems("select", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	out := make([]values.Value, len(items))
	for i, item := range items {
		f, serr := r.spawnItem(item)
		if serr != nil {
			return values.Value{}, serr
		}
		v, aerr := r.Caller.AwaitValue(f)
		if aerr != nil {
			return values.Value{}, aerr
		}
		out[i] = values.NewList([]values.Value{values.Int(int64(i)), v})
	}
	return values.NewList(out), nil
}

// vote spawns every callable, awaits all, and returns the value with
// the most occurrences among the results (majority consensus), using
// values.NewComparator for equality grouping since result values may
// be any comparable Kind.
func biVote(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("vote: no scheduler available")
	}
	items, err := r.listItems("vote", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(items) == 0 {
		return values.Value{}, fmt.Errorf("vote: no callables given")
	}
	results := make([]values.Value, len(items))
	for i, item := range items {
		f, serr := r.spawnItem(item)
		if serr != nil {
			return values.Value{}, serr
		}
		v, aerr := r.Caller.AwaitValue(f)
		if aerr != nil {
			return values.Value{}, aerr
		}
		results[i] = v
	}
	cmp := values.NewComparator(r.Strings)
	bestCount := 0
	best := results[0]
	for i, a := range results {
		count := 0
		for _, b := range results {
			if cmp(a, b) == 0 {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = results[i]
		}
	}
	return best, nil
}

// timeout awaits callee, returning Ok(result) on success and Err(msg)
// carrying the await error's message when the await fails -- either
// because the callee itself failed or because the VM's retry budget
// (AwaitValue's maxAwaitRetries) is spent before it resolves; the
// duration argument is accepted for interface parity with the
// spec's signature but this VM has no real-time clock driving future
// resolution, so the retry-budget exhaustion is the only timeout
// signal available (see DESIGN.md).
func biTimeout(r *Registry, args []values.Value) (values.Value, error) {
	if r.Caller == nil {
		return values.Value{}, fmt.Errorf("timeout: no scheduler available")
	}
	callee, callArgs, err := r.callable("timeout", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	f, serr := r.Caller.SpawnValue(callee, callArgs)
	if serr != nil {
		return values.Value{}, serr
	}
	v, aerr := r.Caller.AwaitValue(f)
	if aerr != nil {
		return values.NewUnion("Err", values.Str(aerr.Error())), nil
	}
	return values.NewUnion("Ok", v), nil
}
