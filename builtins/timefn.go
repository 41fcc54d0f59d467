package builtins

import (
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/lumenforge/lumen/values"
)

// registerTimeFunctions wires spec section 4.9's Time bullet: hrtime
// (monotonic nanoseconds since first use) and format_time (ISO 8601
// default, %Y %m %d %H %M %S substitutions via ncruces/go-strftime,
// SPEC_FULL.md section B).
func (r *Registry) registerTimeFunctions() {
	r.def("hrtime", biHrtime)
	r.def("format_time", biFormatTime)
}

func biHrtime(r *Registry, args []values.Value) (values.Value, error) {
	return values.Int(time.Since(r.start).Nanoseconds()), nil
}

func biFormatTime(r *Registry, args []values.Value) (values.Value, error) {
	epoch, err := r.intArg("format_time", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	t := time.Unix(epoch, 0).UTC()
	if len(args) < 2 {
		return values.Str(t.Format(time.RFC3339)), nil
	}
	layout, err := r.str("format_time", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strftime.Format(layout, t)), nil
}
