package builtins

import (
	"fmt"

	"github.com/lumenforge/lumen/values"
)

// registerResultFunctions wires spec section 4.9's Result-type helper
// bullet: is_ok, is_err, unwrap (raise on Err), unwrap_or.
func (r *Registry) registerResultFunctions() {
	r.def("is_ok", biIsOk)
	r.def("is_err", biIsErr)
	r.def("unwrap", biUnwrap)
	r.def("unwrap_or", biUnwrapOr)
}

func asUnion(name string, args []values.Value, i int) (*values.Union, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: missing Result argument %d", name, i)
	}
	if args[i].Kind != values.KindUnion {
		return nil, fmt.Errorf("%s: argument %d must be a Result, got %s", name, i, args[i].TypeName())
	}
	return args[i].Data.(*values.Union), nil
}

func biIsOk(r *Registry, args []values.Value) (values.Value, error) {
	u, err := asUnion("is_ok", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(u.Tag == "Ok"), nil
}

func biIsErr(r *Registry, args []values.Value) (values.Value, error) {
	u, err := asUnion("is_err", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(u.Tag == "Err"), nil
}

func biUnwrap(r *Registry, args []values.Value) (values.Value, error) {
	u, err := asUnion("unwrap", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if u.Tag == "Err" {
		return values.Value{}, fmt.Errorf("unwrap: called on Err(%s)", values.Display(u.Payload, r.Strings))
	}
	return u.Payload, nil
}

func biUnwrapOr(r *Registry, args []values.Value) (values.Value, error) {
	u, err := asUnion("unwrap_or", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	if len(args) < 2 {
		return values.Value{}, fmt.Errorf("unwrap_or: missing default argument")
	}
	if u.Tag == "Err" {
		return args[1], nil
	}
	return u.Payload, nil
}
