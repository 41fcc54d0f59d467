package process

import (
	"fmt"

	"github.com/lumenforge/lumen/values"
)

// Param describes one named, typed parameter of a machine state.
type Param struct {
	Name string
	Type string
}

// ExprKind tags the small pure sub-language guards and transition-arg
// expressions are built from (spec section 4.7): literals, parameter
// refs, arithmetic (sharing the main VM's overflow/zero-divide
// errors), comparisons, and logical combinators.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprParamRef
	ExprArith
	ExprCompare
	ExprLogical
	ExprNot
)

type Expr struct {
	Kind    ExprKind
	Literal values.Value
	Param   string
	Op      string // "+","-","*","/","%","<","<=",">",">=","==","!=","and","or"
	Left    *Expr
	Right   *Expr
}

// Eval evaluates e against a state's current parameter bindings,
// reusing the same checked-arithmetic error kinds the main VM raises
// (division/modulo by zero, integer overflow) so guard failures are
// indistinguishable in kind from ordinary arithmetic errors.
func Eval(e *Expr, params map[string]values.Value) (values.Value, error) {
	if e == nil {
		return values.Bool(true), nil
	}
	switch e.Kind {
	case ExprLiteral:
		return e.Literal, nil
	case ExprParamRef:
		v, ok := params[e.Param]
		if !ok {
			return values.Value{}, fmt.Errorf("machine expression: undefined parameter %q", e.Param)
		}
		return v, nil
	case ExprNot:
		l, err := Eval(e.Left, params)
		if err != nil {
			return values.Value{}, err
		}
		b, _ := l.AsBool()
		return values.Bool(!b), nil
	case ExprArith:
		return evalArith(e, params)
	case ExprCompare:
		return evalCompare(e, params)
	case ExprLogical:
		return evalLogical(e, params)
	default:
		return values.Value{}, fmt.Errorf("machine expression: unknown kind %d", e.Kind)
	}
}

func evalArith(e *Expr, params map[string]values.Value) (values.Value, error) {
	l, err := Eval(e.Left, params)
	if err != nil {
		return values.Value{}, err
	}
	r, err := Eval(e.Right, params)
	if err != nil {
		return values.Value{}, err
	}
	li, lok := l.AsInt()
	ri, rok := r.AsInt()
	if lok && rok {
		switch e.Op {
		case "+":
			sum := li + ri
			if (ri > 0 && sum < li) || (ri < 0 && sum > li) {
				return values.Value{}, fmt.Errorf("arithmetic overflow")
			}
			return values.Int(sum), nil
		case "-":
			diff := li - ri
			if (ri < 0 && diff < li) || (ri > 0 && diff > li) {
				return values.Value{}, fmt.Errorf("arithmetic overflow")
			}
			return values.Int(diff), nil
		case "*":
			prod := li * ri
			if li != 0 && prod/li != ri {
				return values.Value{}, fmt.Errorf("arithmetic overflow")
			}
			return values.Int(prod), nil
		case "/":
			if ri == 0 {
				return values.Value{}, fmt.Errorf("division by zero")
			}
			return values.Int(li / ri), nil
		case "%":
			if ri == 0 {
				return values.Value{}, fmt.Errorf("division by zero")
			}
			return values.Int(li % ri), nil
		}
	}
	lf := toF(l)
	rf := toF(r)
	switch e.Op {
	case "+":
		return values.Float(lf + rf), nil
	case "-":
		return values.Float(lf - rf), nil
	case "*":
		return values.Float(lf * rf), nil
	case "/":
		return values.Float(lf / rf), nil
	}
	return values.Value{}, fmt.Errorf("machine expression: unsupported arithmetic op %q", e.Op)
}

func toF(v values.Value) float64 {
	if f, ok := v.AsFloat(); ok {
		return f
	}
	if i, ok := v.AsInt(); ok {
		return float64(i)
	}
	return 0
}

func evalCompare(e *Expr, params map[string]values.Value) (values.Value, error) {
	l, err := Eval(e.Left, params)
	if err != nil {
		return values.Value{}, err
	}
	r, err := Eval(e.Right, params)
	if err != nil {
		return values.Value{}, err
	}
	c := values.Compare(l, r, nil)
	switch e.Op {
	case "<":
		return values.Bool(c < 0), nil
	case "<=":
		return values.Bool(c <= 0), nil
	case ">":
		return values.Bool(c > 0), nil
	case ">=":
		return values.Bool(c >= 0), nil
	case "==":
		return values.Bool(values.Equal(l, r, nil)), nil
	case "!=":
		return values.Bool(!values.Equal(l, r, nil)), nil
	}
	return values.Value{}, fmt.Errorf("machine expression: unsupported comparison op %q", e.Op)
}

func evalLogical(e *Expr, params map[string]values.Value) (values.Value, error) {
	l, err := Eval(e.Left, params)
	if err != nil {
		return values.Value{}, err
	}
	lb, _ := l.AsBool()
	if e.Op == "and" && !lb {
		return values.Bool(false), nil
	}
	if e.Op == "or" && lb {
		return values.Bool(true), nil
	}
	r, err := Eval(e.Right, params)
	if err != nil {
		return values.Value{}, err
	}
	rb, _ := r.AsBool()
	return values.Bool(rb), nil
}

// StateDef is one node of a machine's state graph.
type StateDef struct {
	Params         []Param
	Terminal       bool
	Guard          *Expr
	TransitionTo   string
	TransitionArgs []*Expr
}

// MachineGraph is a named state machine's full declaration.
type MachineGraph struct {
	Initial string
	States  map[string]StateDef
}

// MachineInstance is the live runtime state of one machine instance:
// its current state name, payload, and a reference to the graph it
// walks.
type MachineInstance struct {
	Graph   *MachineGraph
	State   string
	Payload values.Value
}

func (m *MachineInstance) Start(payload values.Value) {
	m.State = m.Graph.Initial
	m.Payload = payload
}

// Step evaluates the current state's guard and, if true, follows its
// transition, binding TransitionArgs against the outgoing state's
// declared Params to build the next payload.
func (m *MachineInstance) Step() (bool, error) {
	def, ok := m.Graph.States[m.State]
	if !ok {
		return false, fmt.Errorf("machine: unknown state %q", m.State)
	}
	if def.Terminal {
		return false, nil
	}
	params := paramsFromPayload(def.Params, m.Payload)
	if def.Guard != nil {
		g, err := Eval(def.Guard, params)
		if err != nil {
			return false, err
		}
		ok, _ := g.AsBool()
		if !ok {
			return false, nil
		}
	}
	if def.TransitionTo == "" {
		return false, nil
	}
	next, ok := m.Graph.States[def.TransitionTo]
	if !ok {
		return false, fmt.Errorf("machine: transition to unknown state %q", def.TransitionTo)
	}
	args := make([]values.Value, len(def.TransitionArgs))
	for i, a := range def.TransitionArgs {
		v, err := Eval(a, params)
		if err != nil {
			return false, err
		}
		args[i] = v
	}
	m.Payload = buildPayload(next.Params, args)
	m.State = def.TransitionTo
	return true, nil
}

func (m *MachineInstance) IsTerminal() bool {
	def, ok := m.Graph.States[m.State]
	return ok && def.Terminal
}

// CurrentState returns a {name, payload} record-shaped pair for the
// `current_state()` method.
func (m *MachineInstance) CurrentState() (string, values.Value) {
	return m.State, m.Payload
}

func paramsFromPayload(defs []Param, payload values.Value) map[string]values.Value {
	out := make(map[string]values.Value, len(defs))
	if payload.Kind != values.KindMap && payload.Kind != values.KindRecord {
		if len(defs) == 1 {
			out[defs[0].Name] = payload
		}
		return out
	}
	var fields *values.MapBox
	if payload.Kind == values.KindRecord {
		fields = payload.Data.(*values.RecordBox).Rec.Fields
	} else {
		fields = payload.Data.(*values.MapBox)
	}
	for _, d := range defs {
		if v, ok := fields.Get(d.Name); ok {
			out[d.Name] = v
		}
	}
	return out
}

func buildPayload(defs []Param, args []values.Value) values.Value {
	m := values.NewMap()
	for i, d := range defs {
		if i < len(args) {
			m.Set(d.Name, args[i])
		}
	}
	return values.Value{Kind: values.KindMap, Data: m}
}
