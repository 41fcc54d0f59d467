package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/lumenforge/lumen/smt"
)

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "Check a constraint set (effect budgets, schema bounds) for satisfiability",
	ArgsUsage: "<constraints.json>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "solver",
			Usage: "Solver backend: auto, z3, cvc5, or builtin",
			Value: "auto",
		},
	},
	Action: func(ctx context.Context, cmd *cli.Command) error {
		path := cmd.Args().First()
		if path == "" {
			return fmt.Errorf("verify: a constraints file is required")
		}

		constraints, err := loadConstraintsFile(path)
		if err != nil {
			return err
		}
		exprs := smt.TranslateAll(constraints)

		solver, err := pickSolver(cmd.String("solver"))
		if err != nil {
			return err
		}

		result, model := solver.CheckSatWithModel(exprs)
		fmt.Printf("%s: %s\n", solver.Name(), result.String())
		if result.IsSat() && model != nil {
			for name, val := range model.Assignments {
				fmt.Printf("  %s = %s\n", name, val.String())
			}
		}
		if result.Kind == smt.Error {
			return fmt.Errorf("verify: %s", result.Message)
		}
		return nil
	},
}

func pickSolver(name string) (smt.Solver, error) {
	switch name {
	case "auto", "":
		return smt.CreateBestAvailable(), nil
	case "z3":
		s := smt.NewZ3Solver(smt.DefaultTimeout)
		if s == nil {
			return nil, fmt.Errorf("verify: z3 is not installed")
		}
		return s, nil
	case "cvc5":
		s := smt.NewCvc5Solver(smt.DefaultTimeout)
		if s == nil {
			return nil, fmt.Errorf("verify: cvc5 is not installed")
		}
		return s, nil
	case "builtin":
		return smt.NewBuiltinSolver(), nil
	default:
		return nil, fmt.Errorf("verify: unknown solver %q", name)
	}
}

// constraintDoc is the on-disk shape of one smt.Constraint -- free-form
// enough to cover every constructor in smt/constraint.go, the same
// tagged-JSON style vm/process.go uses to decode addon expression
// trees (exprJSON/parseExprJSON) for guard/literal payloads.
type constraintDoc struct {
	Kind        string          `json:"kind"`
	Bool        bool            `json:"bool,omitempty"`
	Name        string          `json:"var,omitempty"`
	Left        string          `json:"left,omitempty"`
	Right       string          `json:"right,omitempty"`
	Cmp         string          `json:"cmp,omitempty"`
	Int         int64           `json:"int,omitempty"`
	Float       float64         `json:"float,omitempty"`
	ArithOp     string          `json:"arith_op,omitempty"`
	ArithConst  int64           `json:"arith_const,omitempty"`
	CmpValue    int64           `json:"cmp_value,omitempty"`
	ActualCalls int64           `json:"actual_calls,omitempty"`
	MaxCalls    int64           `json:"max_calls,omitempty"`
	Parts       []constraintDoc `json:"parts,omitempty"`
	Inner       *constraintDoc  `json:"inner,omitempty"`
}

func loadConstraintsFile(path string) ([]smt.Constraint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verify: reading %s: %w", path, err)
	}
	var docs []constraintDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("verify: parsing %s: %w", path, err)
	}
	out := make([]smt.Constraint, len(docs))
	for i, d := range docs {
		c, err := decodeConstraintDoc(d)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func decodeConstraintDoc(d constraintDoc) (smt.Constraint, error) {
	switch d.Kind {
	case "bool_const":
		return smt.ConstraintBoolConst(d.Bool), nil
	case "bool_var":
		return smt.ConstraintBoolVar(d.Name), nil
	case "var":
		return smt.ConstraintVar(d.Name), nil
	case "int_cmp":
		cmp, err := parseCmpOp(d.Cmp)
		if err != nil {
			return smt.Constraint{}, err
		}
		return smt.ConstraintIntComparison(d.Name, cmp, d.Int), nil
	case "float_cmp":
		cmp, err := parseCmpOp(d.Cmp)
		if err != nil {
			return smt.Constraint{}, err
		}
		return smt.ConstraintFloatComparison(d.Name, cmp, d.Float), nil
	case "var_cmp":
		cmp, err := parseCmpOp(d.Cmp)
		if err != nil {
			return smt.Constraint{}, err
		}
		return smt.ConstraintVarComparison(d.Left, cmp, d.Right), nil
	case "and", "or":
		parts := make([]smt.Constraint, len(d.Parts))
		for i, p := range d.Parts {
			c, err := decodeConstraintDoc(p)
			if err != nil {
				return smt.Constraint{}, err
			}
			parts[i] = c
		}
		if d.Kind == "and" {
			return smt.ConstraintAnd(parts...), nil
		}
		return smt.ConstraintOr(parts...), nil
	case "not":
		if d.Inner == nil {
			return smt.Constraint{}, fmt.Errorf("verify: \"not\" constraint missing \"inner\"")
		}
		inner, err := decodeConstraintDoc(*d.Inner)
		if err != nil {
			return smt.Constraint{}, err
		}
		return smt.ConstraintNot(inner), nil
	case "arithmetic":
		cmp, err := parseCmpOp(d.Cmp)
		if err != nil {
			return smt.Constraint{}, err
		}
		arithOp, err := parseArithOp(d.ArithOp)
		if err != nil {
			return smt.Constraint{}, err
		}
		return smt.ConstraintArithmetic(d.Name, arithOp, d.ArithConst, cmp, d.CmpValue), nil
	case "effect_budget":
		return smt.ConstraintEffectBudget(d.ActualCalls, d.MaxCalls), nil
	default:
		return smt.Constraint{}, fmt.Errorf("verify: unknown constraint kind %q", d.Kind)
	}
}

func parseCmpOp(s string) (smt.CmpOp, error) {
	switch s {
	case "eq":
		return smt.CmpEq, nil
	case "ne":
		return smt.CmpNotEq, nil
	case "lt":
		return smt.CmpLt, nil
	case "lt_eq":
		return smt.CmpLtEq, nil
	case "gt":
		return smt.CmpGt, nil
	case "gt_eq":
		return smt.CmpGtEq, nil
	default:
		return 0, fmt.Errorf("verify: unknown comparison operator %q", s)
	}
}

func parseArithOp(s string) (smt.ArithOp, error) {
	switch s {
	case "add":
		return smt.ArithAdd, nil
	case "sub":
		return smt.ArithSub, nil
	case "mul":
		return smt.ArithMul, nil
	default:
		return 0, fmt.Errorf("verify: unknown arithmetic operator %q", s)
	}
}
