package builtins

import (
	"fmt"
	"sort"

	"github.com/lumenforge/lumen/values"
)

// registerListFunctions wires spec section 4.9's list/map op bullet,
// grounded on the teacher's runtime/array.go (PHP's array_* family)
// generalized to this VM's List/Tuple/Set/Map kinds and COW
// containers.
func (r *Registry) registerListFunctions() {
	r.defID("length", 1, biLength)
	r.defID("len", 2, biLength)
	r.defID("push", 3, biPush)
	r.defID("append", 4, biPush)
	r.defID("first", 5, biFirst)
	r.defID("last", 6, biLast)
	r.defID("take", 7, biTake)
	r.defID("drop", 8, biDrop)
	r.defID("reverse", 9, biReverse)
	r.defID("flatten", 10, biFlatten)
	r.defID("unique", 11, biUnique)
	r.defID("sort", 12, biSort)
	r.defID("sort_asc", 13, biSort)
	r.defID("sort_desc", 14, biSortDesc)
	r.defID("enumerate", 15, biEnumerate)
	r.defID("zip", 16, biZip)
	r.defID("chunk", 17, biChunk)
	r.defID("window", 18, biWindow)
	r.defID("binary_search", 19, biBinarySearch)
	r.defID("to_list", 20, biToList)
	r.defID("to_set", 21, biToSet)
	r.defID("has_key", 22, biHasKey)
	r.defID("remove", 23, biRemove)
	r.defID("entries", 24, biEntries)
	r.defID("merge", 25, biMerge)
}

func biLength(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("length", 1, len(args))
	}
	switch args[0].Kind {
	case values.KindList:
		return values.Int(int64(args[0].Data.(*values.ListBox).Len())), nil
	case values.KindTuple:
		return values.Int(int64(args[0].Data.(*values.TupleBox).Len())), nil
	case values.KindSet:
		return values.Int(int64(args[0].Data.(*values.SetBox).Len())), nil
	case values.KindMap:
		return values.Int(int64(args[0].Data.(*values.MapBox).Len())), nil
	case values.KindString:
		s, err := r.str("length", args, 0)
		if err != nil {
			return values.Value{}, err
		}
		return values.Int(int64(len([]rune(s)))), nil
	case values.KindBytes:
		b, _ := args[0].AsBytes()
		return values.Int(int64(len(b))), nil
	default:
		return values.Value{}, fmt.Errorf("length: unsupported type %s", args[0].TypeName())
	}
}

func biPush(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("push", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	out := append(append([]values.Value(nil), items...), args[1:]...)
	return values.NewList(out), nil
}

func biFirst(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("first", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(items) == 0 {
		return values.Null(), nil
	}
	return items[0], nil
}

func biLast(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("last", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(items) == 0 {
		return values.Null(), nil
	}
	return items[len(items)-1], nil
}

func biTake(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("take", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	n, err := r.intArg("take", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(items) {
		n = int64(len(items))
	}
	out := append([]values.Value(nil), items[:n]...)
	return values.NewList(out), nil
}

func biDrop(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("drop", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	n, err := r.intArg("drop", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	if n < 0 {
		n = 0
	}
	if int(n) > len(items) {
		n = int64(len(items))
	}
	out := append([]values.Value(nil), items[n:]...)
	return values.NewList(out), nil
}

func biReverse(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("reverse", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	out := make([]values.Value, len(items))
	for i, v := range items {
		out[len(items)-1-i] = v
	}
	return values.NewList(out), nil
}

func biFlatten(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("flatten", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	var out []values.Value
	for _, v := range items {
		if v.Kind == values.KindList {
			out = append(out, v.Data.(*values.ListBox).Items()...)
		} else {
			out = append(out, v)
		}
	}
	return values.NewList(out), nil
}

func biUnique(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("unique", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	cmp := values.NewComparator(r.Strings)
	var out []values.Value
	for _, v := range items {
		dup := false
		for _, seen := range out {
			if cmp(v, seen) == 0 {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return values.NewList(out), nil
}

func biSort(r *Registry, args []values.Value) (values.Value, error) {
	return sortList(r, args, false)
}

func biSortDesc(r *Registry, args []values.Value) (values.Value, error) {
	return sortList(r, args, true)
}

func sortList(r *Registry, args []values.Value, desc bool) (values.Value, error) {
	items, err := r.listItems("sort", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	out := append([]values.Value(nil), items...)
	cmp := values.NewComparator(r.Strings)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return values.NewList(out), nil
}

// sortBy sorts items by the scalar a caller-supplied closure/cell-name
// projects each element to.
func (r *Registry) sortBy(items []values.Value, keyFn values.Value) ([]values.Value, error) {
	if r.Caller == nil {
		return nil, fmt.Errorf("sort_by: no cell caller configured")
	}
	keys := make([]values.Value, len(items))
	for i, v := range items {
		k, err := r.Caller.CallValue(keyFn, []values.Value{v})
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	cmp := values.NewComparator(r.Strings)
	sort.SliceStable(idx, func(i, j int) bool { return cmp(keys[idx[i]], keys[idx[j]]) < 0 })
	out := make([]values.Value, len(items))
	for i, j := range idx {
		out[i] = items[j]
	}
	return out, nil
}

func biEnumerate(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("enumerate", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	out := make([]values.Value, len(items))
	for i, v := range items {
		out[i] = values.NewTuple([]values.Value{values.Int(int64(i)), v})
	}
	return values.NewList(out), nil
}

func biZip(r *Registry, args []values.Value) (values.Value, error) {
	a, err := r.listItems("zip", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, err := r.listItems("zip", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	out := make([]values.Value, n)
	for i := 0; i < n; i++ {
		out[i] = values.NewTuple([]values.Value{a[i], b[i]})
	}
	return values.NewList(out), nil
}

func biChunk(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("chunk", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	size, err := r.intArg("chunk", args, 1)
	if err != nil || size <= 0 {
		return values.Value{}, fmt.Errorf("chunk: size must be a positive Int")
	}
	var out []values.Value
	for i := 0; i < len(items); i += int(size) {
		end := i + int(size)
		if end > len(items) {
			end = len(items)
		}
		out = append(out, values.NewList(append([]values.Value(nil), items[i:end]...)))
	}
	return values.NewList(out), nil
}

func biWindow(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("window", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	size, err := r.intArg("window", args, 1)
	if err != nil || size <= 0 {
		return values.Value{}, fmt.Errorf("window: size must be a positive Int")
	}
	var out []values.Value
	for i := 0; i+int(size) <= len(items); i++ {
		out = append(out, values.NewList(append([]values.Value(nil), items[i:i+int(size)]...)))
	}
	return values.NewList(out), nil
}

func biBinarySearch(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("binary_search", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, argErr("binary_search", 2, len(args))
	}
	target := args[1]
	cmp := values.NewComparator(r.Strings)
	idx := sort.Search(len(items), func(i int) bool { return cmp(items[i], target) >= 0 })
	if idx < len(items) && cmp(items[idx], target) == 0 {
		return values.Int(int64(idx)), nil
	}
	return values.Int(-1), nil
}

func biToList(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("to_list", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.NewList(append([]values.Value(nil), items...)), nil
}

func biToSet(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("to_set", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.NewSetValue(items, values.NewComparator(r.Strings)), nil
}

func biHasKey(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 2 {
		return values.Value{}, argErr("has_key", 2, len(args))
	}
	key, err := r.str("has_key", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	switch args[0].Kind {
	case values.KindMap:
		_, ok := args[0].Data.(*values.MapBox).Get(key)
		return values.Bool(ok), nil
	case values.KindRecord:
		_, ok := args[0].Data.(*values.RecordBox).Rec.Fields.Get(key)
		return values.Bool(ok), nil
	default:
		return values.Value{}, fmt.Errorf("has_key: argument 0 must be a Map or Record, got %s", args[0].TypeName())
	}
}

func biRemove(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 2 {
		return values.Value{}, argErr("remove", 2, len(args))
	}
	switch args[0].Kind {
	case values.KindMap:
		key, err := r.str("remove", args, 1)
		if err != nil {
			return values.Value{}, err
		}
		mb := args[0].Data.(*values.MapBox).Clone().MakeMut()
		mb.Delete(key)
		return values.Value{Kind: values.KindMap, Data: mb}, nil
	case values.KindList:
		idx, err := r.intArg("remove", args, 1)
		if err != nil {
			return values.Value{}, err
		}
		items := args[0].Data.(*values.ListBox).Items()
		if idx < 0 || int(idx) >= len(items) {
			return values.Value{}, fmt.Errorf("remove: index %d out of range", idx)
		}
		out := make([]values.Value, 0, len(items)-1)
		out = append(out, items[:idx]...)
		out = append(out, items[idx+1:]...)
		return values.NewList(out), nil
	default:
		return values.Value{}, fmt.Errorf("remove: unsupported type %s", args[0].TypeName())
	}
}

func biEntries(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 || args[0].Kind != values.KindMap {
		return values.Value{}, fmt.Errorf("entries: argument 0 must be a Map")
	}
	mb := args[0].Data.(*values.MapBox)
	var out []values.Value
	for _, k := range mb.Keys() {
		v, _ := mb.Get(k)
		out = append(out, values.NewTuple([]values.Value{values.Str(k), v}))
	}
	return values.NewList(out), nil
}

func biMerge(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 2 {
		return values.Value{}, argErr("merge", 2, len(args))
	}
	switch args[0].Kind {
	case values.KindMap:
		if args[1].Kind != values.KindMap {
			return values.Value{}, fmt.Errorf("merge: both arguments must be Maps")
		}
		out := values.NewMap()
		a := args[0].Data.(*values.MapBox)
		b := args[1].Data.(*values.MapBox)
		for _, k := range a.Keys() {
			v, _ := a.Get(k)
			out.Set(k, v)
		}
		for _, k := range b.Keys() {
			v, _ := b.Get(k)
			out.Set(k, v)
		}
		return values.Value{Kind: values.KindMap, Data: out}, nil
	case values.KindList:
		aItems, err := r.listItems("merge", args, 0)
		if err != nil {
			return values.Value{}, err
		}
		bItems, err := r.listItems("merge", args, 1)
		if err != nil {
			return values.Value{}, err
		}
		out := append(append([]values.Value(nil), aItems...), bItems...)
		return values.NewList(out), nil
	default:
		return values.Value{}, fmt.Errorf("merge: unsupported type %s", args[0].TypeName())
	}
}
