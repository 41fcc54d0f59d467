// Package smt provides an SMT expression IR, an SMT-LIB2 serializer, and a
// small family of solver backends (external subprocess and a built-in
// interval-reasoning fallback) used by the verification pass to discharge
// satisfiability queries generated from compiled constraints.
package smt

import (
	"fmt"
	"strconv"
	"strings"
)

// Sort identifies the SMT universe a value or expression belongs to.
type Sort struct {
	kind Sortkind
	// width is the bit width for BitVec sorts.
	width uint32
	// index and elem are the key/value sorts of an Array sort.
	index, elem *Sort
	// name is the symbolic name for an Uninterpreted sort.
	name string
}

// Sortkind enumerates the tags of Sort.
type Sortkind int

const (
	SortBool Sortkind = iota
	SortInt
	SortReal
	SortString
	SortBitVec
	SortArray
	SortUninterpreted
)

func (s Sortkind) String() string {
	switch s {
	case SortBool:
		return "Bool"
	case SortInt:
		return "Int"
	case SortReal:
		return "Real"
	case SortString:
		return "String"
	case SortBitVec:
		return "BitVec"
	case SortArray:
		return "Array"
	default:
		return "Uninterpreted"
	}
}

var (
	Bool   = Sort{kind: SortBool}
	Int    = Sort{kind: SortInt}
	Real   = Sort{kind: SortReal}
	String = Sort{kind: SortString}
)

// BitVec builds a fixed-width bitvector sort.
func BitVec(width uint32) Sort { return Sort{kind: SortBitVec, width: width} }

// Array builds an array sort from an index sort and an element sort.
func Array(index, elem Sort) Sort {
	return Sort{kind: SortArray, index: &index, elem: &elem}
}

// Uninterpreted builds a named opaque sort.
func Uninterpreted(name string) Sort {
	return Sort{kind: SortUninterpreted, name: name}
}

// Kind reports the sort's tag.
func (s Sort) Kind() Sortkind { return s.kind }

func (s Sort) String() string {
	switch s.kind {
	case SortBitVec:
		return fmt.Sprintf("(_ BitVec %d)", s.width)
	case SortArray:
		return fmt.Sprintf("(Array %s %s)", s.index, s.elem)
	case SortUninterpreted:
		return s.name
	default:
		return s.kind.String()
	}
}

// exprKind tags the variant carried by an Expr.
type exprKind int

const (
	exIntConst exprKind = iota
	exBoolConst
	exRealConst
	exStringConst
	exVar
	exAdd
	exSub
	exMul
	exDiv
	exMod
	exNeg
	exEq
	exNe
	exLt
	exLe
	exGt
	exGe
	exAnd
	exOr
	exNot
	exImplies
	exIff
	exForAll
	exExists
	exArraySelect
	exArrayStore
	exBvAnd
	exBvOr
	exBvShl
	exBvLshr
	exIte
	exApply
)

// Binding names a quantified variable and its sort.
type Binding struct {
	Name string
	Sort Sort
}

// Expr is an SMT-LIB2-compatible expression tree. Zero value is invalid;
// construct expressions with the package-level constructor functions.
type Expr struct {
	kind exprKind

	intVal    int64
	boolVal   bool
	realVal   float64
	stringVal string

	varName string
	varSort Sort

	a, b, c *Expr
	list    []Expr

	bindings []Binding
	fn       string
}

// IntConst builds an integer literal.
func IntConst(v int64) Expr { return Expr{kind: exIntConst, intVal: v} }

// BoolConst builds a boolean literal.
func BoolConst(v bool) Expr { return Expr{kind: exBoolConst, boolVal: v} }

// RealConst builds a real (floating point) literal.
func RealConst(v float64) Expr { return Expr{kind: exRealConst, realVal: v} }

// StringConst builds a string literal.
func StringConst(v string) Expr { return Expr{kind: exStringConst, stringVal: v} }

// Var builds a free variable reference with an explicit sort.
func Var(name string, sort Sort) Expr { return Expr{kind: exVar, varName: name, varSort: sort} }

func bin(k exprKind, a, b Expr) Expr { return Expr{kind: k, a: &a, b: &b} }

func Add(a, b Expr) Expr { return bin(exAdd, a, b) }
func Sub(a, b Expr) Expr { return bin(exSub, a, b) }
func Mul(a, b Expr) Expr { return bin(exMul, a, b) }
func Div(a, b Expr) Expr { return bin(exDiv, a, b) }
func Mod(a, b Expr) Expr { return bin(exMod, a, b) }
func Neg(a Expr) Expr     { return Expr{kind: exNeg, a: &a} }

func Eq(a, b Expr) Expr { return bin(exEq, a, b) }
func Ne(a, b Expr) Expr { return bin(exNe, a, b) }
func Lt(a, b Expr) Expr { return bin(exLt, a, b) }
func Le(a, b Expr) Expr { return bin(exLe, a, b) }
func Gt(a, b Expr) Expr { return bin(exGt, a, b) }
func Ge(a, b Expr) Expr { return bin(exGe, a, b) }

// And builds an n-ary conjunction. Zero parts renders to true.
func And(parts ...Expr) Expr { return Expr{kind: exAnd, list: parts} }

// Or builds an n-ary disjunction. Zero parts renders to false.
func Or(parts ...Expr) Expr { return Expr{kind: exOr, list: parts} }

func Not(a Expr) Expr          { return Expr{kind: exNot, a: &a} }
func Implies(a, b Expr) Expr   { return bin(exImplies, a, b) }
func Iff(a, b Expr) Expr       { return bin(exIff, a, b) }

// ForAll builds a universally quantified expression.
func ForAll(bindings []Binding, body Expr) Expr {
	return Expr{kind: exForAll, bindings: bindings, a: &body}
}

// Exists builds an existentially quantified expression.
func Exists(bindings []Binding, body Expr) Expr {
	return Expr{kind: exExists, bindings: bindings, a: &body}
}

func ArraySelect(arr, idx Expr) Expr { return bin(exArraySelect, arr, idx) }
func ArrayStore(arr, idx, val Expr) Expr {
	return Expr{kind: exArrayStore, a: &arr, b: &idx, c: &val}
}

func BvAnd(a, b Expr) Expr  { return bin(exBvAnd, a, b) }
func BvOr(a, b Expr) Expr   { return bin(exBvOr, a, b) }
func BvShl(a, b Expr) Expr  { return bin(exBvShl, a, b) }
func BvLshr(a, b Expr) Expr { return bin(exBvLshr, a, b) }

// Ite builds an if-then-else expression.
func Ite(cond, then, els Expr) Expr {
	return Expr{kind: exIte, a: &cond, b: &then, c: &els}
}

// Apply builds an uninterpreted function application.
func Apply(fn string, args ...Expr) Expr { return Expr{kind: exApply, fn: fn, list: args} }

// String renders the expression as SMT-LIB2 text.
func (e Expr) String() string { return e.ToSMTLIB2() }

// ToSMTLIB2 renders the expression tree to an SMT-LIB2 s-expression.
func (e Expr) ToSMTLIB2() string {
	switch e.kind {
	case exIntConst:
		if e.intVal < 0 {
			return fmt.Sprintf("(- %d)", -e.intVal)
		}
		return strconv.FormatInt(e.intVal, 10)
	case exBoolConst:
		if e.boolVal {
			return "true"
		}
		return "false"
	case exRealConst:
		if e.realVal < 0 {
			return fmt.Sprintf("(- %s)", formatReal(-e.realVal))
		}
		return formatReal(e.realVal)
	case exStringConst:
		escaped := strings.ReplaceAll(e.stringVal, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	case exVar:
		return e.varName
	case exAdd:
		return e.binop("+")
	case exSub:
		return e.binop("-")
	case exMul:
		return e.binop("*")
	case exDiv:
		return e.binop("div")
	case exMod:
		return e.binop("mod")
	case exNeg:
		return fmt.Sprintf("(- %s)", e.a.ToSMTLIB2())
	case exEq:
		return e.binop("=")
	case exNe:
		return fmt.Sprintf("(not (= %s %s))", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exLt:
		return e.binop("<")
	case exLe:
		return e.binop("<=")
	case exGt:
		return e.binop(">")
	case exGe:
		return e.binop(">=")
	case exAnd:
		return e.nary("and", "true")
	case exOr:
		return e.nary("or", "false")
	case exNot:
		return fmt.Sprintf("(not %s)", e.a.ToSMTLIB2())
	case exImplies:
		return fmt.Sprintf("(=> %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exIff:
		return e.binop("=")
	case exForAll:
		return e.quantifier("forall")
	case exExists:
		return e.quantifier("exists")
	case exArraySelect:
		return fmt.Sprintf("(select %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exArrayStore:
		return fmt.Sprintf("(store %s %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2(), e.c.ToSMTLIB2())
	case exBvAnd:
		return fmt.Sprintf("(bvand %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exBvOr:
		return fmt.Sprintf("(bvor %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exBvShl:
		return fmt.Sprintf("(bvshl %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exBvLshr:
		return fmt.Sprintf("(bvlshr %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
	case exIte:
		return fmt.Sprintf("(ite %s %s %s)", e.a.ToSMTLIB2(), e.b.ToSMTLIB2(), e.c.ToSMTLIB2())
	case exApply:
		if len(e.list) == 0 {
			return e.fn
		}
		parts := make([]string, len(e.list))
		for i, a := range e.list {
			parts[i] = a.ToSMTLIB2()
		}
		return fmt.Sprintf("(%s %s)", e.fn, strings.Join(parts, " "))
	default:
		return "?"
	}
}

func (e Expr) binop(op string) string {
	return fmt.Sprintf("(%s %s %s)", op, e.a.ToSMTLIB2(), e.b.ToSMTLIB2())
}

func (e Expr) nary(op, identity string) string {
	if len(e.list) == 0 {
		return identity
	}
	if len(e.list) == 1 {
		return e.list[0].ToSMTLIB2()
	}
	parts := make([]string, len(e.list))
	for i, p := range e.list {
		parts[i] = p.ToSMTLIB2()
	}
	return fmt.Sprintf("(%s %s)", op, strings.Join(parts, " "))
}

func (e Expr) quantifier(kw string) string {
	parts := make([]string, len(e.bindings))
	for i, b := range e.bindings {
		parts[i] = fmt.Sprintf("(%s %s)", b.Name, b.Sort)
	}
	return fmt.Sprintf("(%s (%s) %s)", kw, strings.Join(parts, " "), e.a.ToSMTLIB2())
}

func formatReal(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d.0", int64(v))
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// CollectVars walks the expression and returns every distinct free variable,
// in first-encountered order.
func (e Expr) CollectVars() []Binding {
	var out []Binding
	seen := make(map[string]bool)
	e.collectVars(&out, seen)
	return out
}

func (e Expr) collectVars(out *[]Binding, seen map[string]bool) {
	switch e.kind {
	case exVar:
		if !seen[e.varName] {
			seen[e.varName] = true
			*out = append(*out, Binding{Name: e.varName, Sort: e.varSort})
		}
	case exAdd, exSub, exMul, exDiv, exMod, exEq, exNe, exLt, exLe, exGt, exGe,
		exImplies, exIff, exBvAnd, exBvOr, exBvShl, exBvLshr, exArraySelect:
		e.a.collectVars(out, seen)
		e.b.collectVars(out, seen)
	case exArrayStore, exIte:
		e.a.collectVars(out, seen)
		e.b.collectVars(out, seen)
		e.c.collectVars(out, seen)
	case exNeg, exNot:
		e.a.collectVars(out, seen)
	case exAnd, exOr:
		for _, p := range e.list {
			p.collectVars(out, seen)
		}
	case exForAll, exExists:
		e.a.collectVars(out, seen)
	case exApply:
		for _, a := range e.list {
			a.collectVars(out, seen)
		}
	}
}
