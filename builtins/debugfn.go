package builtins

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/lumenforge/lumen/values"
)

// registerDebugFunctions wires spec section 4.9's Debug bullet: debug,
// print/emit, clone, sizeof, type_of, assert/assert_eq/assert_ne/
// assert_contains. Assertion failures return a plain Go error, which
// vm.WithStackTrace wraps as KindRuntime automatically (see
// vm/errors.go), matching the spec's "raise Runtime with message".
func (r *Registry) registerDebugFunctions() {
	r.def("debug", biDebug)
	r.def("print", biPrint)
	r.def("emit", biPrint)
	r.def("clone", biClone)
	r.def("sizeof", biSizeof)
	r.def("type_of", biTypeOf)
	r.def("assert", biAssert)
	r.def("assert_eq", biAssertEq)
	r.def("assert_ne", biAssertNe)
	r.def("assert_contains", biAssertContains)
}

func biDebug(r *Registry, args []values.Value) (values.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%s(%s)", a.TypeName(), values.Display(a, r.Strings))
	}
	fmt.Fprintln(os.Stderr, strings.Join(parts, ", "))
	if len(args) == 1 {
		return args[0], nil
	}
	return values.NewList(args), nil
}

func biPrint(r *Registry, args []values.Value) (values.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = values.Display(a, r.Strings)
	}
	fmt.Println(strings.Join(parts, " "))
	return values.Null(), nil
}

func biClone(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("clone", 1, len(args))
	}
	return values.MakeMut(args[0].Clone()), nil
}

// sizeof reports an informational, human-readable estimate of a
// value's in-memory footprint (container element counts and string
// byte lengths), via humanize.Bytes (SPEC_FULL.md section B) -- it is
// not a precise memory accounting tool.
func biSizeof(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("sizeof", 1, len(args))
	}
	n := estimateSize(args[0], r.Strings)
	return values.Str(humanize.Bytes(uint64(n))), nil
}

func estimateSize(v values.Value, t *values.StringTable) int64 {
	const wordSize = 8
	switch v.Kind {
	case values.KindString:
		if ref, ok := v.AsStringRef(); ok {
			if resolved, rerr := ref.Resolve(t); rerr == nil {
				return int64(len(resolved))
			}
		}
		return wordSize
	case values.KindBytes:
		b, _ := v.AsBytes()
		return int64(len(b))
	case values.KindList:
		var total int64
		for _, item := range v.Data.(*values.ListBox).Items() {
			total += estimateSize(item, t)
		}
		return total + wordSize
	case values.KindMap:
		mb := v.Data.(*values.MapBox)
		var total int64
		for _, k := range mb.Keys() {
			val, _ := mb.Get(k)
			total += int64(len(k)) + estimateSize(val, t)
		}
		return total + wordSize
	default:
		return wordSize
	}
}

func biTypeOf(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("type_of", 1, len(args))
	}
	return values.Str(args[0].TypeName()), nil
}

func biAssert(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) < 1 {
		return values.Value{}, argErr("assert", 1, len(args))
	}
	if !values.Truthy(args[0], r.Strings) {
		msg := "assertion failed"
		if len(args) > 1 {
			m, err := r.str("assert", args, 1)
			if err == nil {
				msg = m
			}
		}
		return values.Value{}, fmt.Errorf("%s", msg)
	}
	return values.Null(), nil
}

func biAssertEq(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) < 2 {
		return values.Value{}, argErr("assert_eq", 2, len(args))
	}
	if !values.Equal(args[0], args[1], r.Strings) {
		return values.Value{}, fmt.Errorf("assertion failed: %s != %s",
			values.Display(args[0], r.Strings), values.Display(args[1], r.Strings))
	}
	return values.Null(), nil
}

func biAssertNe(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) < 2 {
		return values.Value{}, argErr("assert_ne", 2, len(args))
	}
	if values.Equal(args[0], args[1], r.Strings) {
		return values.Value{}, fmt.Errorf("assertion failed: %s == %s",
			values.Display(args[0], r.Strings), values.Display(args[1], r.Strings))
	}
	return values.Null(), nil
}

func biAssertContains(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) < 2 {
		return values.Value{}, argErr("assert_contains", 2, len(args))
	}
	switch args[0].Kind {
	case values.KindString:
		haystack, err := r.str("assert_contains", args, 0)
		if err != nil {
			return values.Value{}, err
		}
		needle, err := r.str("assert_contains", args, 1)
		if err != nil {
			return values.Value{}, err
		}
		if !strings.Contains(haystack, needle) {
			return values.Value{}, fmt.Errorf("assertion failed: %q does not contain %q", haystack, needle)
		}
		return values.Null(), nil
	case values.KindList, values.KindTuple, values.KindSet:
		items, err := r.listItems("assert_contains", args, 0)
		if err != nil {
			return values.Value{}, err
		}
		for _, item := range items {
			if values.Equal(item, args[1], r.Strings) {
				return values.Null(), nil
			}
		}
		return values.Value{}, fmt.Errorf("assertion failed: %s does not contain %s",
			values.Display(args[0], r.Strings), values.Display(args[1], r.Strings))
	default:
		return values.Value{}, fmt.Errorf("assert_contains: unsupported type %s", args[0].TypeName())
	}
}
