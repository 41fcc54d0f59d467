package vm

import (
	"math"
	"math/big"

	"github.com/lumenforge/lumen/values"
)

// arith implements the checked binary arithmetic opcodes (spec
// section 4.1/4.8): integer operations overflow into BigInt promotion
// is explicitly NOT performed -- spec property 4 requires that
// boundary overflow raises ArithmeticOverflow and leaves the register
// file unchanged, so Int+Int that would overflow is an error, not an
// implicit promotion. Mixed Int/Float promotes to Float. BigInt
// operands use math/big's arbitrary precision.
func arith(op string, a, b values.Value) (values.Value, error) {
	if a.Kind == values.KindBigInt || b.Kind == values.KindBigInt {
		return arithBig(op, a, b)
	}
	ai, aIsInt := a.AsInt()
	bi, bIsInt := b.AsInt()
	if aIsInt && bIsInt {
		return arithInt(op, ai, bi)
	}
	af, aok := toFloatOperand(a)
	bf, bok := toFloatOperand(b)
	if !aok || !bok {
		return values.Value{}, NewError(KindTypeError, "arithmetic %s: incompatible operand types", op)
	}
	return arithFloat(op, af, bf)
}

func toFloatOperand(v values.Value) (float64, bool) {
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	return 0, false
}

func arithInt(op string, a, b int64) (values.Value, error) {
	switch op {
	case "+":
		sum := a + b
		if (b > 0 && sum < a) || (b < 0 && sum > a) {
			return values.Value{}, NewError(KindArithmeticOverflow, "integer addition overflow")
		}
		return values.Int(sum), nil
	case "-":
		diff := a - b
		if (b < 0 && diff < a) || (b > 0 && diff > a) {
			return values.Value{}, NewError(KindArithmeticOverflow, "integer subtraction overflow")
		}
		return values.Int(diff), nil
	case "*":
		if a == 0 || b == 0 {
			return values.Int(0), nil
		}
		// a*MinInt64 has no positive counterpart, so it wraps back to
		// MinInt64 in two's complement; dividing that wrapped product by
		// -1 wraps again to MinInt64 per the Go spec, so the general
		// prod/a != b check below can't see the overflow when a == -1.
		if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
			return values.Value{}, NewError(KindArithmeticOverflow, "integer multiplication overflow")
		}
		prod := a * b
		if prod/a != b {
			return values.Value{}, NewError(KindArithmeticOverflow, "integer multiplication overflow")
		}
		return values.Int(prod), nil
	case "/":
		if b == 0 {
			return values.Value{}, NewError(KindDivisionByZero, "integer division by zero")
		}
		return values.Float(float64(a) / float64(b)), nil
	case "//":
		if b == 0 {
			return values.Value{}, NewError(KindDivisionByZero, "integer floor division by zero")
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return values.Int(q), nil
	case "%":
		if b == 0 {
			return values.Value{}, NewError(KindDivisionByZero, "integer modulo by zero")
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return values.Int(m), nil
	case "**":
		if b < 0 {
			return values.Float(math.Pow(float64(a), float64(b))), nil
		}
		if b >= 64 {
			return values.Value{}, NewError(KindRuntime, "exponent out of range: %d", b)
		}
		result := big.NewInt(1)
		base := big.NewInt(a)
		exp := big.NewInt(b)
		result.Exp(base, exp, nil)
		if result.IsInt64() {
			return values.Int(result.Int64()), nil
		}
		return values.Big(result), nil
	}
	return values.Value{}, NewError(KindTypeError, "unknown arithmetic operator %q", op)
}

func arithFloat(op string, a, b float64) (values.Value, error) {
	switch op {
	case "+":
		return values.Float(a + b), nil
	case "-":
		return values.Float(a - b), nil
	case "*":
		return values.Float(a * b), nil
	case "/":
		return values.Float(a / b), nil
	case "//":
		return values.Float(math.Floor(a / b)), nil
	case "%":
		return values.Float(math.Mod(a, b)), nil
	case "**":
		return values.Float(math.Pow(a, b)), nil
	}
	return values.Value{}, NewError(KindTypeError, "unknown arithmetic operator %q", op)
}

func arithBig(op string, a, b values.Value) (values.Value, error) {
	ab, aok := a.AsBigInt()
	bb, bok := b.AsBigInt()
	if !aok {
		if i, ok := a.AsInt(); ok {
			ab = big.NewInt(i)
			aok = true
		}
	}
	if !bok {
		if i, ok := b.AsInt(); ok {
			bb = big.NewInt(i)
			bok = true
		}
	}
	if !aok || !bok {
		af, aok2 := toFloatOperand(a)
		bf, bok2 := toFloatOperand(b)
		if aok2 && bok2 {
			return arithFloat(op, af, bf)
		}
		return values.Value{}, NewError(KindTypeError, "arithmetic %s: incompatible operand types", op)
	}
	result := new(big.Int)
	switch op {
	case "+":
		result.Add(ab, bb)
	case "-":
		result.Sub(ab, bb)
	case "*":
		result.Mul(ab, bb)
	case "/", "//":
		if bb.Sign() == 0 {
			return values.Value{}, NewError(KindDivisionByZero, "big integer division by zero")
		}
		result.Div(ab, bb)
	case "%":
		if bb.Sign() == 0 {
			return values.Value{}, NewError(KindDivisionByZero, "big integer modulo by zero")
		}
		result.Mod(ab, bb)
	case "**":
		if bb.Sign() < 0 {
			return values.Value{}, NewError(KindTypeError, "big integer exponent must be non-negative")
		}
		result.Exp(ab, bb, nil)
	default:
		return values.Value{}, NewError(KindTypeError, "unknown arithmetic operator %q", op)
	}
	if result.IsInt64() {
		return values.Int(result.Int64()), nil
	}
	return values.Big(result), nil
}

func negate(v values.Value) (values.Value, error) {
	switch v.Kind {
	case values.KindInt:
		i, _ := v.AsInt()
		if i == math.MinInt64 {
			return values.Value{}, NewError(KindArithmeticOverflow, "integer negation overflow")
		}
		return values.Int(-i), nil
	case values.KindFloat:
		f, _ := v.AsFloat()
		return values.Float(-f), nil
	case values.KindBigInt:
		b, _ := v.AsBigInt()
		return values.Big(new(big.Int).Neg(b)), nil
	default:
		return values.Value{}, NewError(KindTypeError, "cannot negate a %s", v.TypeName())
	}
}

// bitwise implements BAND/BOR/BXOR/SHL/SHR -- integer-only operations,
// per spec section 4.1's separate "Bitwise" opcode family.
func bitwise(op string, a, b values.Value) (values.Value, error) {
	ai, aok := a.AsInt()
	bi, bok := b.AsInt()
	if !aok || !bok {
		return values.Value{}, NewError(KindTypeError, "bitwise %s requires integer operands", op)
	}
	switch op {
	case "&":
		return values.Int(ai & bi), nil
	case "|":
		return values.Int(ai | bi), nil
	case "^":
		return values.Int(ai ^ bi), nil
	case "<<":
		if bi < 0 || bi >= 64 {
			return values.Value{}, NewError(KindTypeError, "shift amount %d out of range", bi)
		}
		return values.Int(ai << uint(bi)), nil
	case ">>":
		if bi < 0 || bi >= 64 {
			return values.Value{}, NewError(KindTypeError, "shift amount %d out of range", bi)
		}
		return values.Int(ai >> uint(bi)), nil
	}
	return values.Value{}, NewError(KindTypeError, "unknown bitwise operator %q", op)
}

func bitwiseNot(v values.Value) (values.Value, error) {
	i, ok := v.AsInt()
	if !ok {
		return values.Value{}, NewError(KindTypeError, "bitwise not requires an integer operand")
	}
	return values.Int(^i), nil
}
