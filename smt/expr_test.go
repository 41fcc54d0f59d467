package smt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSMTLIB2Basics(t *testing.T) {
	assert.Equal(t, "(- 5)", IntConst(-5).ToSMTLIB2())
	assert.Equal(t, "7", IntConst(7).ToSMTLIB2())
	assert.Equal(t, "true", BoolConst(true).ToSMTLIB2())
	assert.Equal(t, "5.0", RealConst(5).ToSMTLIB2())
	assert.Equal(t, `"a\"b\\c"`, StringConst(`a"b\c`).ToSMTLIB2())
}

func TestToSMTLIB2Compound(t *testing.T) {
	e := Add(Var("x", Int), IntConst(3))
	assert.Equal(t, "(+ x 3)", e.ToSMTLIB2())

	cmp := Le(e, IntConst(10))
	assert.Equal(t, "(<= (+ x 3) 10)", cmp.ToSMTLIB2())
}

func TestAndOrIdentities(t *testing.T) {
	assert.Equal(t, "true", And().ToSMTLIB2())
	assert.Equal(t, "false", Or().ToSMTLIB2())
	single := And(Var("b", Bool))
	assert.Equal(t, "b", single.ToSMTLIB2())
}

func TestCollectVars(t *testing.T) {
	e := And(Gt(Var("x", Int), IntConst(0)), Lt(Var("y", Int), Var("x", Int)))
	vars := e.CollectVars()
	require.Len(t, vars, 2)
	assert.Equal(t, "x", vars[0].Name)
	assert.Equal(t, "y", vars[1].Name)
}

func TestSerializeParseRoundTrip(t *testing.T) {
	vars := map[string]Sort{"x": Int, "y": Int, "b": Bool}
	cases := []Expr{
		IntConst(42),
		IntConst(-42),
		BoolConst(true),
		RealConst(3.5),
		StringConst(`hi "there"`),
		Var("x", Int),
		Add(Var("x", Int), IntConst(3)),
		Eq(Var("x", Int), Var("y", Int)),
		Ne(Var("x", Int), IntConst(0)),
		And(Gt(Var("x", Int), IntConst(0)), Lt(Var("x", Int), IntConst(100))),
		Or(Var("b", Bool), Not(Var("b", Bool))),
		Implies(Var("b", Bool), Gt(Var("x", Int), IntConst(0))),
		Ite(Var("b", Bool), IntConst(1), IntConst(2)),
	}

	for _, original := range cases {
		text := original.ToSMTLIB2()
		parsed, err := Parse(text, vars)
		require.NoError(t, err, "parsing %q", text)
		assert.Equal(t, text, parsed.ToSMTLIB2(), "round trip of %q", text)
	}
}

func TestParseForAll(t *testing.T) {
	e := ForAll([]Binding{{Name: "x", Sort: Int}}, Ge(Var("x", Int), IntConst(0)))
	text := e.ToSMTLIB2()
	parsed, err := Parse(text, map[string]Sort{"x": Int})
	require.NoError(t, err)
	assert.Equal(t, text, parsed.ToSMTLIB2())
}

func TestSortStrings(t *testing.T) {
	assert.Equal(t, "Bool", Bool.String())
	assert.Equal(t, "(_ BitVec 32)", BitVec(32).String())
	assert.Equal(t, "(Array Int Int)", Array(Int, Int).String())
	assert.Equal(t, "widget", Uninterpreted("widget").String())
}
