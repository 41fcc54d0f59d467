package builtins

import (
	"fmt"

	"github.com/lumenforge/lumen/values"
)

// registerHigherOrderFunctions wires spec section 4.9's higher-order
// helper bullet: every one of these accepts either a closure value or
// a string cell name (CallValue resolves both, see vm/callvalue.go),
// matching the spec's "implicit closure creation with no captures for
// a bare cell name" convenience.
func (r *Registry) registerHigherOrderFunctions() {
	r.def("map", biMap)
	r.def("filter", biFilter)
	r.def("reduce", biReduce)
	r.def("flat_map", biFlatMap)
	r.def("any", biAny)
	r.def("all", biAll)
	r.def("find", biFind)
	r.def("position", biPosition)
	r.def("partition", biPartition)
	r.def("group_by", biGroupBy)
	r.def("sort_by", biSortBy)
}

func (r *Registry) requireCaller(name string) error {
	if r.Caller == nil {
		return fmt.Errorf("%s: no cell caller configured", name)
	}
	return nil
}

func biMap(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("map"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("map", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("map", 2, len(args))
	}
	fn := args[1]
	out := make([]values.Value, len(items))
	for i, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		out[i] = res
	}
	return values.NewList(out), nil
}

func biFilter(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("filter"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("filter", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("filter", 2, len(args))
	}
	fn := args[1]
	var out []values.Value
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if values.Truthy(res, r.Strings) {
			out = append(out, v)
		}
	}
	return values.NewList(out), nil
}

func biReduce(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("reduce"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("reduce", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 3 {
		return values.Value{}, argErr("reduce", 3, len(args))
	}
	fn := args[1]
	acc := args[2]
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{acc, v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		acc = res
	}
	return acc, nil
}

func biFlatMap(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("flat_map"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("flat_map", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("flat_map", 2, len(args))
	}
	fn := args[1]
	var out []values.Value
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if res.Kind == values.KindList {
			out = append(out, res.Data.(*values.ListBox).Items()...)
		} else {
			out = append(out, res)
		}
	}
	return values.NewList(out), nil
}

func biAny(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("any"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("any", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("any", 2, len(args))
	}
	fn := args[1]
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if values.Truthy(res, r.Strings) {
			return values.Bool(true), nil
		}
	}
	return values.Bool(false), nil
}

func biAll(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("all"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("all", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("all", 2, len(args))
	}
	fn := args[1]
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if !values.Truthy(res, r.Strings) {
			return values.Bool(false), nil
		}
	}
	return values.Bool(true), nil
}

func biFind(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("find"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("find", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("find", 2, len(args))
	}
	fn := args[1]
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if values.Truthy(res, r.Strings) {
			return v, nil
		}
	}
	return values.Null(), nil
}

func biPosition(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("position"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("position", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("position", 2, len(args))
	}
	fn := args[1]
	for i, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if values.Truthy(res, r.Strings) {
			return values.Int(int64(i)), nil
		}
	}
	return values.Int(-1), nil
}

func biPartition(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("partition"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("partition", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("partition", 2, len(args))
	}
	fn := args[1]
	var yes, no []values.Value
	for _, v := range items {
		res, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		if values.Truthy(res, r.Strings) {
			yes = append(yes, v)
		} else {
			no = append(no, v)
		}
	}
	return values.NewTuple([]values.Value{values.NewList(yes), values.NewList(no)}), nil
}

func biGroupBy(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("group_by"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("group_by", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("group_by", 2, len(args))
	}
	fn := args[1]
	groups := values.NewMap()
	for _, v := range items {
		key, cerr := r.Caller.CallValue(fn, []values.Value{v})
		if cerr != nil {
			return values.Value{}, cerr
		}
		keyStr := values.Display(key, r.Strings)
		existing, ok := groups.Get(keyStr)
		if !ok {
			groups.Set(keyStr, values.NewList([]values.Value{v}))
			continue
		}
		bucket := append(append([]values.Value(nil), existing.Data.(*values.ListBox).Items()...), v)
		groups.Set(keyStr, values.NewList(bucket))
	}
	return values.Value{Kind: values.KindMap, Data: groups}, nil
}

func biSortBy(r *Registry, args []values.Value) (values.Value, error) {
	if err := r.requireCaller("sort_by"); err != nil {
		return values.Value{}, err
	}
	items, err := r.listItems("sort_by", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("sort_by", 2, len(args))
	}
	sorted, serr := r.sortBy(items, args[1])
	if serr != nil {
		return values.Value{}, serr
	}
	return values.NewList(sorted), nil
}
