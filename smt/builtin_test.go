package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinSolverSimpleSat(t *testing.T) {
	s := NewBuiltinSolver()
	result := s.CheckSat([]Expr{Gt(Var("x", Int), IntConst(0))})
	assert.Equal(t, Sat, result.Kind)
}

func TestBuiltinSolverIntervalUnsat(t *testing.T) {
	s := NewBuiltinSolver()
	result := s.CheckSat([]Expr{
		Gt(Var("x", Int), IntConst(10)),
		Lt(Var("x", Int), IntConst(5)),
	})
	assert.Equal(t, Unsat, result.Kind)
}

func TestBuiltinSolverEqualityAndNeq(t *testing.T) {
	s := NewBuiltinSolver()
	result := s.CheckSat([]Expr{
		Eq(Var("x", Int), IntConst(5)),
		Ne(Var("x", Int), IntConst(5)),
	})
	assert.Equal(t, Unsat, result.Kind)
}

func TestBuiltinSolverLinearShift(t *testing.T) {
	s := NewBuiltinSolver()
	// (x + 3) <= 10 and x > 10  ==>  x <= 7 and x > 10 ==> unsat
	result := s.CheckSat([]Expr{
		Le(Add(Var("x", Int), IntConst(3)), IntConst(10)),
		Gt(Var("x", Int), IntConst(10)),
	})
	assert.Equal(t, Unsat, result.Kind)
}

func TestBuiltinSolverUnknownForQuantifiers(t *testing.T) {
	s := NewBuiltinSolver()
	result := s.CheckSat([]Expr{ForAll([]Binding{{Name: "x", Sort: Int}}, Ge(Var("x", Int), IntConst(0)))})
	assert.Equal(t, Unknown, result.Kind)
}

func TestBuiltinSolverModelForSat(t *testing.T) {
	s := NewBuiltinSolver()
	result, model := s.CheckSatWithModel([]Expr{
		Ge(Var("x", Int), IntConst(3)),
		Le(Var("x", Int), IntConst(7)),
	})
	assert.Equal(t, Sat, result.Kind)
	assert_model_x_in_range(t, model, 3, 7)
}

func assert_model_x_in_range(t *testing.T, model *Model, lo, hi int64) {
	t.Helper()
	v, ok := model.Get("x")
	if !ok {
		t.Fatalf("model missing assignment for x")
	}
	if v.Int < lo || v.Int > hi {
		t.Fatalf("x=%d out of range [%d,%d]", v.Int, lo, hi)
	}
}

func TestBuiltinSolverPushPop(t *testing.T) {
	s := NewBuiltinSolver()
	s.Assert(Gt(Var("x", Int), IntConst(0)))
	s.Push()
	s.Assert(Lt(Var("x", Int), IntConst(0)))
	assert.Equal(t, Unsat, s.CheckSat(nil).Kind)
	s.Pop()
	assert.Equal(t, Sat, s.CheckSat(nil).Kind)
}

func TestBuiltinSolverEmptyIsSat(t *testing.T) {
	s := NewBuiltinSolver()
	assert.Equal(t, Sat, s.CheckSat(nil).Kind)
}

func TestBuiltinSolverSupportsTheory(t *testing.T) {
	s := NewBuiltinSolver()
	assert.True(t, s.Supports(QfLia))
	assert.False(t, s.Supports(QfBv))
	assert.Equal(t, "builtin", s.Name())
}
