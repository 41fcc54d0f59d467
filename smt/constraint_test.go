package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslateIntComparison(t *testing.T) {
	c := ConstraintIntComparison("x", CmpLtEq, 10)
	e := Translate(c)
	assert.Equal(t, "(<= x 10)", e.ToSMTLIB2())
}

func TestTranslateArithmetic(t *testing.T) {
	c := ConstraintArithmetic("x", ArithAdd, 3, CmpLtEq, 10)
	e := Translate(c)
	assert.Equal(t, "(<= (+ x 3) 10)", e.ToSMTLIB2())
}

func TestTranslateEffectBudget(t *testing.T) {
	c := ConstraintEffectBudget(4, 10)
	e := Translate(c)
	assert.Equal(t, "(<= 4 10)", e.ToSMTLIB2())
}

func TestTranslateAndOrNot(t *testing.T) {
	c := ConstraintAnd(
		ConstraintIntComparison("x", CmpGt, 0),
		ConstraintNot(ConstraintBoolVar("flag")),
	)
	e := Translate(c)
	assert.Equal(t, "(and (> x 0) (not flag))", e.ToSMTLIB2())
}

func TestTranslateVarComparison(t *testing.T) {
	c := ConstraintVarComparison("x", CmpEq, "y")
	e := Translate(c)
	assert.Equal(t, "(= x y)", e.ToSMTLIB2())
}

func TestTranslateAllAndFeedsBuiltinSolver(t *testing.T) {
	constraints := []Constraint{
		ConstraintIntComparison("x", CmpGt, 0),
		ConstraintIntComparison("x", CmpLt, 100),
	}
	exprs := TranslateAll(constraints)
	s := NewBuiltinSolver()
	result := s.CheckSat(exprs)
	assert.Equal(t, Sat, result.Kind)
}
