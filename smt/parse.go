package smt

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads an SMT-LIB2 expression back into an Expr tree. vars supplies
// the sort of every free variable the expression may reference (the same
// declarations a caller would have emitted as declare-const/declare-fun
// lines); a variable with no entry defaults to Int. Parse is the inverse of
// Expr.ToSMTLIB2 on the subset of expressions this package constructs.
func Parse(src string, vars map[string]Sort) (Expr, error) {
	toks := tokenize(src)
	p := &parser{toks: toks, vars: vars}
	e, err := p.parseExpr()
	if err != nil {
		return Expr{}, err
	}
	if p.pos != len(p.toks) {
		return Expr{}, fmt.Errorf("smt: trailing tokens after expression: %v", p.toks[p.pos:])
	}
	return e, nil
}

func tokenize(src string) []string {
	var toks []string
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '(' || c == ')':
			toks = append(toks, string(c))
			i++
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '"':
			j := i + 1
			var sb strings.Builder
			for j < len(src) {
				if src[j] == '\\' && j+1 < len(src) {
					sb.WriteByte(src[j+1])
					j += 2
					continue
				}
				if src[j] == '"' {
					break
				}
				sb.WriteByte(src[j])
				j++
			}
			toks = append(toks, `"`+sb.String()+`"`)
			i = j + 1
		default:
			j := i
			for j < len(src) && src[j] != '(' && src[j] != ')' && src[j] != ' ' && src[j] != '\t' && src[j] != '\n' && src[j] != '\r' {
				j++
			}
			toks = append(toks, src[i:j])
			i = j
		}
	}
	return toks
}

type parser struct {
	toks []string
	pos  int
	vars map[string]Sort
}

func (p *parser) peek() (string, bool) {
	if p.pos >= len(p.toks) {
		return "", false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (string, error) {
	t, ok := p.peek()
	if !ok {
		return "", fmt.Errorf("smt: unexpected end of input")
	}
	p.pos++
	return t, nil
}

func (p *parser) expect(tok string) error {
	t, err := p.next()
	if err != nil {
		return err
	}
	if t != tok {
		return fmt.Errorf("smt: expected %q, got %q", tok, t)
	}
	return nil
}

func (p *parser) parseExpr() (Expr, error) {
	t, err := p.next()
	if err != nil {
		return Expr{}, err
	}
	if t != "(" {
		return p.parseAtom(t)
	}
	head, err := p.next()
	if err != nil {
		return Expr{}, err
	}
	switch head {
	case "-":
		// (- N) is either unary negation of a constant or Neg of a sub-expr;
		// (- a b) is Sub.
		inner, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if t, ok := p.peek(); ok && t != ")" {
			rhs, err := p.parseExpr()
			if err != nil {
				return Expr{}, err
			}
			if err := p.expect(")"); err != nil {
				return Expr{}, err
			}
			return Sub(inner, rhs), nil
		}
		if err := p.expect(")"); err != nil {
			return Expr{}, err
		}
		if inner.kind == exIntConst {
			return IntConst(-inner.intVal), nil
		}
		if inner.kind == exRealConst {
			return RealConst(-inner.realVal), nil
		}
		return Neg(inner), nil
	case "+":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Add(a, b), nil
	case "*":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Mul(a, b), nil
	case "div":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Div(a, b), nil
	case "mod":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Mod(a, b), nil
	case "=":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Eq(a, b), nil
	case "<":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Lt(a, b), nil
	case "<=":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Le(a, b), nil
	case ">":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Gt(a, b), nil
	case ">=":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Ge(a, b), nil
	case "and":
		parts, err := p.parseRest()
		if err != nil {
			return Expr{}, err
		}
		return And(parts...), nil
	case "or":
		parts, err := p.parseRest()
		if err != nil {
			return Expr{}, err
		}
		return Or(parts...), nil
	case "not":
		// (not (= a b)) round-trips as Ne when the inner is an equality;
		// otherwise it is a plain Not.
		inner, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if err := p.expect(")"); err != nil {
			return Expr{}, err
		}
		if inner.kind == exEq {
			return Ne(*inner.a, *inner.b), nil
		}
		return Not(inner), nil
	case "=>":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return Implies(a, b), nil
	case "select":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return ArraySelect(a, b), nil
	case "store":
		a, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		b, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		c, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if err := p.expect(")"); err != nil {
			return Expr{}, err
		}
		return ArrayStore(a, b, c), nil
	case "bvand":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return BvAnd(a, b), nil
	case "bvor":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return BvOr(a, b), nil
	case "bvshl":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return BvShl(a, b), nil
	case "bvlshr":
		a, b, err := p.parseBinArgs()
		if err != nil {
			return Expr{}, err
		}
		return BvLshr(a, b), nil
	case "ite":
		cond, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		then, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if err := p.expect(")"); err != nil {
			return Expr{}, err
		}
		return Ite(cond, then, els), nil
	case "forall", "exists":
		bindings, err := p.parseBindings()
		if err != nil {
			return Expr{}, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return Expr{}, err
		}
		if err := p.expect(")"); err != nil {
			return Expr{}, err
		}
		if head == "forall" {
			return ForAll(bindings, body), nil
		}
		return Exists(bindings, body), nil
	default:
		// Uninterpreted function application: (fn arg...)
		args, err := p.parseRest()
		if err != nil {
			return Expr{}, err
		}
		return Apply(head, args...), nil
	}
}

func (p *parser) parseBinArgs() (Expr, Expr, error) {
	a, err := p.parseExpr()
	if err != nil {
		return Expr{}, Expr{}, err
	}
	b, err := p.parseExpr()
	if err != nil {
		return Expr{}, Expr{}, err
	}
	if err := p.expect(")"); err != nil {
		return Expr{}, Expr{}, err
	}
	return a, b, nil
}

func (p *parser) parseRest() ([]Expr, error) {
	var out []Expr
	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("smt: unexpected end of input in argument list")
		}
		if t == ")" {
			p.pos++
			return out, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (p *parser) parseBindings() ([]Binding, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var out []Binding
	for {
		t, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("smt: unexpected end of input in bindings")
		}
		if t == ")" {
			p.pos++
			return out, nil
		}
		if err := p.expect("("); err != nil {
			return nil, err
		}
		name, err := p.next()
		if err != nil {
			return nil, err
		}
		sortTok, err := p.next()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		out = append(out, Binding{Name: name, Sort: sortFromToken(sortTok)})
	}
}

func sortFromToken(tok string) Sort {
	switch tok {
	case "Bool":
		return Bool
	case "Int":
		return Int
	case "Real":
		return Real
	case "String":
		return String
	default:
		return Uninterpreted(tok)
	}
}

func (p *parser) parseAtom(t string) (Expr, error) {
	switch t {
	case "true":
		return BoolConst(true), nil
	case "false":
		return BoolConst(false), nil
	}
	if strings.HasPrefix(t, `"`) {
		return StringConst(strings.TrimSuffix(strings.TrimPrefix(t, `"`), `"`)), nil
	}
	if v, err := strconv.ParseInt(t, 10, 64); err == nil {
		return IntConst(v), nil
	}
	if strings.HasSuffix(t, ".0") {
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			return RealConst(v), nil
		}
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return RealConst(v), nil
	}
	sort, ok := p.vars[t]
	if !ok {
		sort = Int
	}
	return Var(t, sort), nil
}
