package builtins

import (
	"math"
	"strconv"

	"github.com/lumenforge/lumen/values"
)

// registerMathFunctions wires spec section 4.9's math and integer-
// helper bullets, grounded on the teacher's runtime/math.go
// generalized from PHP's loosely-typed numerics to this VM's
// Int/Float split.
func (r *Registry) registerMathFunctions() {
	r.defID("abs", 60, biAbs)
	r.defID("min", 61, biMin)
	r.defID("max", 62, biMax)
	r.defID("clamp", 63, biClamp)
	r.defID("round", 64, biRound)
	r.defID("ceil", 65, biCeil)
	r.defID("floor", 66, biFloor)
	r.defID("trunc", 67, biTrunc)
	r.defID("sqrt", 68, biSqrt)
	r.defID("pow", 69, biPow)
	r.defID("log", 70, biLog)
	r.defID("log2", 71, biLog2)
	r.defID("log10", 72, biLog10)
	r.defID("exp", 73, biExp)
	r.defID("sin", 74, biSin)
	r.defID("cos", 75, biCos)
	r.defID("tan", 76, biTan)
	r.defID("is_nan", 77, biIsNaN)
	r.defID("is_infinite", 78, biIsInfinite)
	r.defID("math_pi", 79, biMathPi)
	r.defID("math_e", 80, biMathE)
	r.defID("wrapping_add", 81, biWrappingAdd)
	r.defID("wrapping_sub", 82, biWrappingSub)
	r.defID("wrapping_mul", 83, biWrappingMul)
	r.defID("parse_int", 84, biParseInt)
	r.defID("parse_float", 85, biParseFloat)
}

func biAbs(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("abs", 1, len(args))
	}
	if n, ok := args[0].AsInt(); ok {
		if n < 0 {
			n = -n
		}
		return values.Int(n), nil
	}
	f, err := r.floatArg("abs", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Abs(f)), nil
}

func biMin(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.Value{}, argErr("min", 1, 0)
	}
	best := args[0]
	cmp := values.NewComparator(r.Strings)
	for _, v := range args[1:] {
		if cmp(v, best) < 0 {
			best = v
		}
	}
	return best, nil
}

func biMax(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) == 0 {
		return values.Value{}, argErr("max", 1, 0)
	}
	best := args[0]
	cmp := values.NewComparator(r.Strings)
	for _, v := range args[1:] {
		if cmp(v, best) > 0 {
			best = v
		}
	}
	return best, nil
}

func biClamp(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 3 {
		return values.Value{}, argErr("clamp", 3, len(args))
	}
	cmp := values.NewComparator(r.Strings)
	v, lo, hi := args[0], args[1], args[2]
	if cmp(v, lo) < 0 {
		return lo, nil
	}
	if cmp(v, hi) > 0 {
		return hi, nil
	}
	return v, nil
}

func biRound(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("round", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	precision := int64(0)
	if len(args) > 1 {
		precision, err = r.intArg("round", args, 1)
		if err != nil {
			return values.Value{}, err
		}
	}
	mult := math.Pow(10, float64(precision))
	rounded := math.Round(f*mult) / mult
	if precision == 0 {
		return values.Int(int64(rounded)), nil
	}
	return values.Float(rounded), nil
}

func biCeil(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("ceil", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(math.Ceil(f))), nil
}

func biFloor(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("floor", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(math.Floor(f))), nil
}

func biTrunc(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("trunc", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(math.Trunc(f))), nil
}

func biSqrt(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("sqrt", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Sqrt(f)), nil
}

func biPow(r *Registry, args []values.Value) (values.Value, error) {
	base, err := r.floatArg("pow", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	exp, err := r.floatArg("pow", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	result := math.Pow(base, exp)
	_, baseIsInt := args[0].AsInt()
	expVal, expIsInt := args[1].AsInt()
	if baseIsInt && expIsInt && expVal >= 0 && result == math.Trunc(result) {
		return values.Int(int64(result)), nil
	}
	return values.Float(result), nil
}

func biLog(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("log", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Log(f)), nil
}

func biLog2(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("log2", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Log2(f)), nil
}

func biLog10(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("log10", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Log10(f)), nil
}

func biExp(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("exp", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Exp(f)), nil
}

func biSin(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("sin", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Sin(f)), nil
}

func biCos(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("cos", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Cos(f)), nil
}

func biTan(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("tan", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Float(math.Tan(f)), nil
}

func biIsNaN(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("is_nan", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(math.IsNaN(f)), nil
}

func biIsInfinite(r *Registry, args []values.Value) (values.Value, error) {
	f, err := r.floatArg("is_infinite", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(math.IsInf(f, 0)), nil
}

func biMathPi(r *Registry, args []values.Value) (values.Value, error) { return values.Float(math.Pi), nil }
func biMathE(r *Registry, args []values.Value) (values.Value, error)  { return values.Float(math.E), nil }

// wrapping* helpers use Go's defined-overflow-wraps semantics for
// fixed-width signed integers, the deliberate counterpart to the
// VM's ADD/SUB/MUL opcodes which raise ArithmeticOverflow instead.
func biWrappingAdd(r *Registry, args []values.Value) (values.Value, error) {
	a, err := r.intArg("wrapping_add", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, err := r.intArg("wrapping_add", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(uint64(a) + uint64(b))), nil
}

func biWrappingSub(r *Registry, args []values.Value) (values.Value, error) {
	a, err := r.intArg("wrapping_sub", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, err := r.intArg("wrapping_sub", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(uint64(a) - uint64(b))), nil
}

func biWrappingMul(r *Registry, args []values.Value) (values.Value, error) {
	a, err := r.intArg("wrapping_mul", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, err := r.intArg("wrapping_mul", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Int(int64(uint64(a) * uint64(b))), nil
}

// parse_int/parse_float return Ok/Err unions per spec 4.9, matching
// the Result-helpers bullet's is_ok/is_err/unwrap/unwrap_or surface.
func biParseInt(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("parse_int", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	n, perr := strconv.ParseInt(s, 10, 64)
	if perr != nil {
		return values.NewUnion("Err", values.Str(perr.Error())), nil
	}
	return values.NewUnion("Ok", values.Int(n)), nil
}

func biParseFloat(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("parse_float", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	f, perr := strconv.ParseFloat(s, 64)
	if perr != nil {
		return values.NewUnion("Err", values.Str(perr.Error())), nil
	}
	return values.NewUnion("Ok", values.Float(f)), nil
}
