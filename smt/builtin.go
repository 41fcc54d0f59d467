package smt

// BuiltinSolver is an always-available fallback solver handling
// quantifier-free linear integer arithmetic and boolean combinations
// without any external dependency. It decides satisfiability via interval
// reasoning over each variable's >, >=, <, <=, =, and != constraints;
// anything outside that fragment (bitvectors, arrays, quantifiers,
// nonlinear arithmetic, uninterpreted functions) reports Unknown.
type BuiltinSolver struct {
	scopeStack []int
	assertions []Expr
}

// NewBuiltinSolver returns a fresh builtin solver with no accumulated
// assertions.
func NewBuiltinSolver() *BuiltinSolver {
	return &BuiltinSolver{}
}

func (s *BuiltinSolver) CheckSat(assertions []Expr) Result {
	if len(assertions) == 0 && len(s.assertions) == 0 {
		return ResultSat()
	}
	all := make([]Expr, 0, len(s.assertions)+len(assertions))
	all = append(all, s.assertions...)
	all = append(all, assertions...)
	if len(all) == 1 {
		return s.evaluate(all[0])
	}
	return s.evaluateConjunction(all)
}

func (s *BuiltinSolver) CheckSatWithModel(assertions []Expr) (Result, *Model) {
	result := s.CheckSat(assertions)
	if result.Kind != Sat {
		return result, nil
	}
	all := make([]Expr, 0, len(s.assertions)+len(assertions))
	all = append(all, s.assertions...)
	all = append(all, assertions...)
	return result, s.buildModel(all)
}

func (s *BuiltinSolver) Push() { s.scopeStack = append(s.scopeStack, len(s.assertions)) }

func (s *BuiltinSolver) Pop() {
	if len(s.scopeStack) == 0 {
		return
	}
	n := len(s.scopeStack) - 1
	mark := s.scopeStack[n]
	s.scopeStack = s.scopeStack[:n]
	s.assertions = s.assertions[:mark]
}

func (s *BuiltinSolver) Reset() {
	s.assertions = nil
	s.scopeStack = nil
}

func (s *BuiltinSolver) Name() string { return "builtin" }

func (s *BuiltinSolver) Supports(t Theory) bool {
	return t == QfLia || t == QfLra
}

// Assert permanently adds an assertion to the solver's persistent set
// (used by Push/Pop scoping); CheckSat always folds these in.
func (s *BuiltinSolver) Assert(e Expr) { s.assertions = append(s.assertions, e) }

func (s *BuiltinSolver) evaluate(e Expr) Result {
	switch e.kind {
	case exBoolConst:
		if e.boolVal {
			return ResultSat()
		}
		return ResultUnsat()
	case exVar:
		return ResultSat()
	case exIntConst, exRealConst, exStringConst:
		return ResultUnknown("non-boolean constant")
	case exNot:
		switch s.evaluate(*e.a).Kind {
		case Sat:
			if e.a.kind == exBoolConst && e.a.boolVal {
				return ResultUnsat()
			}
			if e.a.kind == exBoolConst && !e.a.boolVal {
				return ResultSat()
			}
			return ResultUnknown("negation of satisfiable formula")
		case Unsat:
			return ResultSat()
		default:
			return s.evaluate(*e.a)
		}
	case exAnd:
		if len(e.list) == 0 {
			return ResultSat()
		}
		return s.evaluateConjunction(e.list)
	case exOr:
		if len(e.list) == 0 {
			return ResultUnsat()
		}
		anySat, allUnsat := false, true
		for _, p := range e.list {
			switch s.evaluate(p).Kind {
			case Sat:
				anySat = true
				allUnsat = false
			case Unsat:
			default:
				allUnsat = false
			}
		}
		switch {
		case anySat:
			return ResultSat()
		case allUnsat:
			return ResultUnsat()
		default:
			return ResultUnknown("disjunction with unknown branches")
		}
	case exImplies:
		return s.evaluate(Or(Not(*e.a), *e.b))
	case exIff:
		return s.evaluate(And(Implies(*e.a, *e.b), Implies(*e.b, *e.a)))
	case exEq, exNe, exLt, exLe, exGt, exGe:
		if r, ok := s.tryEvalComparison(e); ok {
			return r
		}
		return s.evaluateConjunction([]Expr{e})
	case exIte:
		switch s.evaluate(*e.a).Kind {
		case Sat:
			return s.evaluate(*e.b)
		case Unsat:
			return s.evaluate(*e.c)
		default:
			return ResultUnknown("ite with unknown condition")
		}
	case exForAll, exExists:
		return ResultUnknown("quantifiers not supported by builtin solver")
	case exArraySelect, exArrayStore:
		return ResultUnknown("array theory not supported by builtin solver")
	case exBvAnd, exBvOr, exBvShl, exBvLshr:
		return ResultUnknown("bitvector theory not supported by builtin solver")
	case exAdd, exSub, exMul, exDiv, exMod, exNeg:
		return ResultUnknown("bare arithmetic expression")
	case exApply:
		return ResultUnknown("uninterpreted functions not supported by builtin solver")
	default:
		return ResultUnknown("unsupported expression")
	}
}

func (s *BuiltinSolver) tryEvalComparison(e Expr) (Result, bool) {
	switch e.kind {
	case exEq:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l == r }, func(l, r float64) bool { return l == r })
	case exNe:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l != r }, func(l, r float64) bool { return l != r })
	case exLt:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l < r }, func(l, r float64) bool { return l < r })
	case exLe:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l <= r }, func(l, r float64) bool { return l <= r })
	case exGt:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l > r }, func(l, r float64) bool { return l > r })
	case exGe:
		return constCmp(*e.a, *e.b, func(l, r int64) bool { return l >= r }, func(l, r float64) bool { return l >= r })
	default:
		return Result{}, false
	}
}

func constCmp(a, b Expr, intCmp func(int64, int64) bool, realCmp func(float64, float64) bool) (Result, bool) {
	if a.kind == exIntConst && b.kind == exIntConst {
		if intCmp(a.intVal, b.intVal) {
			return ResultSat(), true
		}
		return ResultUnsat(), true
	}
	if a.kind == exRealConst && b.kind == exRealConst {
		if realCmp(a.realVal, b.realVal) {
			return ResultSat(), true
		}
		return ResultUnsat(), true
	}
	if a.kind == exBoolConst && b.kind == exBoolConst {
		av, bv := int64(0), int64(0)
		if a.boolVal {
			av = 1
		}
		if b.boolVal {
			bv = 1
		}
		if intCmp(av, bv) {
			return ResultSat(), true
		}
		return ResultUnsat(), true
	}
	return Result{}, false
}

// extractVarInt recognizes patterns `(var cmp const)` and the linear shifts
// `(var + c) cmp const` / `(var - c) cmp const`, returning the variable name
// and the constant folded onto the opposite side.
func extractVarInt(varSide, constSide Expr) (string, int64, bool) {
	constVal, ok := constSide.intVal, constSide.kind == exIntConst
	if !ok {
		return "", 0, false
	}
	switch varSide.kind {
	case exVar:
		return varSide.varName, constVal, true
	case exAdd:
		if varSide.a.kind == exVar && varSide.b.kind == exIntConst {
			return varSide.a.varName, constVal - varSide.b.intVal, true
		}
	case exSub:
		if varSide.a.kind == exVar && varSide.b.kind == exIntConst {
			return varSide.a.varName, constVal + varSide.b.intVal, true
		}
	}
	return "", 0, false
}

func (s *BuiltinSolver) evaluateConjunction(parts []Expr) Result {
	bounds := make(map[string]*intBounds)
	hasUnknown := false

	boundOf := func(name string) *intBounds {
		b, ok := bounds[name]
		if !ok {
			b = newIntBounds()
			bounds[name] = b
		}
		return b
	}

	var visit func(e Expr) (unsat bool)
	visit = func(e Expr) bool {
		switch e.kind {
		case exBoolConst:
			if !e.boolVal {
				return true
			}
		case exGt, exGe, exLt, exLe, exEq, exNe:
			if name, val, ok := extractVarInt(*e.a, *e.b); ok {
				applyDirect(boundOf(name), e.kind, val)
				return false
			}
			if name, val, ok := extractVarInt(*e.b, *e.a); ok {
				applyFlipped(boundOf(name), e.kind, val)
				return false
			}
			if r, ok := s.tryEvalComparison(e); ok {
				if r.Kind == Unsat {
					return true
				}
				if r.Kind != Sat {
					hasUnknown = true
				}
				return false
			}
			hasUnknown = true
		case exNot:
			inner := *e.a
			switch inner.kind {
			case exBoolConst:
				if inner.boolVal {
					return true
				}
			case exGt, exGe, exLt, exLe, exEq:
				negated := negateCmp(inner.kind)
				if name, val, ok := extractVarInt(*inner.a, *inner.b); ok {
					applyDirect(boundOf(name), negated, val)
					return false
				}
				if name, val, ok := extractVarInt(*inner.b, *inner.a); ok {
					applyFlipped(boundOf(name), negated, val)
					return false
				}
				hasUnknown = true
			default:
				hasUnknown = true
			}
		case exAnd:
			for _, p := range e.list {
				if visit(p) {
					return true
				}
			}
		case exOr:
			switch s.evaluate(e).Kind {
			case Unsat:
				return true
			case Sat:
			default:
				hasUnknown = true
			}
		case exVar:
			if e.varSort.kind != SortBool {
				hasUnknown = true
			}
		default:
			switch s.evaluate(e).Kind {
			case Unsat:
				return true
			case Sat:
			default:
				hasUnknown = true
			}
		}
		return false
	}

	for _, part := range parts {
		if visit(part) {
			return ResultUnsat()
		}
	}

	for _, b := range bounds {
		if !b.satisfiable() {
			return ResultUnsat()
		}
	}

	if hasUnknown {
		return ResultUnknown("some sub-expressions not decidable")
	}
	return ResultSat()
}

// negateCmp returns the comparison kind equivalent to `not (a <kind> b)`.
func negateCmp(k exprKind) exprKind {
	switch k {
	case exGt:
		return exLe
	case exGe:
		return exLt
	case exLt:
		return exGe
	case exLe:
		return exGt
	case exEq:
		return exNe
	default:
		return k
	}
}

func applyDirect(b *intBounds, k exprKind, val int64) {
	switch k {
	case exGt:
		b.applyGt(val)
	case exGe:
		b.applyGe(val)
	case exLt:
		b.applyLt(val)
	case exLe:
		b.applyLe(val)
	case exEq:
		b.applyEq(val)
	case exNe:
		b.applyNeq(val)
	}
}

// applyFlipped applies a comparison whose variable was found on the
// constant-comparison's right-hand side, e.g. `5 > x` means `x < 5`.
func applyFlipped(b *intBounds, k exprKind, val int64) {
	switch k {
	case exGt:
		b.applyLt(val)
	case exGe:
		b.applyLe(val)
	case exLt:
		b.applyGt(val)
	case exLe:
		b.applyGe(val)
	case exEq:
		b.applyEq(val)
	case exNe:
		b.applyNeq(val)
	}
}

func (s *BuiltinSolver) buildModel(assertions []Expr) *Model {
	bounds := make(map[string]*intBounds)
	boolVars := make(map[string]bool)

	var collect func(e Expr)
	collect = func(e Expr) {
		switch e.kind {
		case exGt, exGe, exLt, exLe, exEq:
			if name, val, ok := extractVarInt(*e.a, *e.b); ok {
				b, present := bounds[name]
				if !present {
					b = newIntBounds()
					bounds[name] = b
				}
				applyDirect(b, e.kind, val)
			}
		case exVar:
			if e.varSort.kind == SortBool {
				if _, ok := boolVars[e.varName]; !ok {
					boolVars[e.varName] = true
				}
			}
		case exAnd:
			for _, p := range e.list {
				collect(p)
			}
		}
	}
	for _, a := range assertions {
		collect(a)
	}

	model := NewModel()
	for name, b := range bounds {
		model.Assignments[name] = Value{Kind: ValInt, Int: b.pick()}
	}
	for name, v := range boolVars {
		model.Assignments[name] = Value{Kind: ValBool, Bool: v}
	}
	for _, a := range assertions {
		for _, binding := range a.CollectVars() {
			if _, ok := model.Assignments[binding.Name]; ok {
				continue
			}
			switch binding.Sort.kind {
			case SortInt:
				model.Assignments[binding.Name] = Value{Kind: ValInt, Int: 0}
			case SortBool:
				model.Assignments[binding.Name] = Value{Kind: ValBool, Bool: true}
			case SortReal:
				model.Assignments[binding.Name] = Value{Kind: ValReal, Real: 0}
			case SortString:
				model.Assignments[binding.Name] = Value{Kind: ValString, Str: ""}
			default:
				model.Assignments[binding.Name] = Value{Kind: ValInt, Int: 0}
			}
		}
	}
	if len(model.Assignments) == 0 {
		return nil
	}
	return model
}

// intBounds tracks the interval a variable is constrained to by a
// conjunction of comparisons against integer constants.
type intBounds struct {
	lower, lowerEq *int64
	upper, upperEq *int64
	eq             *int64
	neq            []int64
}

func newIntBounds() *intBounds { return &intBounds{} }

func ref(v int64) *int64 { return &v }

func (b *intBounds) applyGt(v int64) {
	if b.lower == nil || v > *b.lower {
		b.lower = ref(v)
	}
}

func (b *intBounds) applyGe(v int64) {
	if b.lowerEq == nil || v > *b.lowerEq {
		b.lowerEq = ref(v)
	}
}

func (b *intBounds) applyLt(v int64) {
	if b.upper == nil || v < *b.upper {
		b.upper = ref(v)
	}
}

func (b *intBounds) applyLe(v int64) {
	if b.upperEq == nil || v < *b.upperEq {
		b.upperEq = ref(v)
	}
}

func (b *intBounds) applyEq(v int64) { b.eq = ref(v) }

func (b *intBounds) applyNeq(v int64) { b.neq = append(b.neq, v) }

func (b *intBounds) effectiveLower() (int64, bool) {
	switch {
	case b.lower != nil && b.lowerEq != nil:
		gt := *b.lower + 1
		if gt > *b.lowerEq {
			return gt, true
		}
		return *b.lowerEq, true
	case b.lower != nil:
		return *b.lower + 1, true
	case b.lowerEq != nil:
		return *b.lowerEq, true
	default:
		return 0, false
	}
}

func (b *intBounds) effectiveUpper() (int64, bool) {
	switch {
	case b.upper != nil && b.upperEq != nil:
		lt := *b.upper - 1
		if lt < *b.upperEq {
			return lt, true
		}
		return *b.upperEq, true
	case b.upper != nil:
		return *b.upper - 1, true
	case b.upperEq != nil:
		return *b.upperEq, true
	default:
		return 0, false
	}
}

func (b *intBounds) satisfiable() bool {
	lo, hasLo := b.effectiveLower()
	hi, hasHi := b.effectiveUpper()

	if b.eq != nil {
		v := *b.eq
		if hasLo && v < lo {
			return false
		}
		if hasHi && v > hi {
			return false
		}
		for _, n := range b.neq {
			if n == v {
				return false
			}
		}
		return true
	}

	if hasLo && hasHi {
		if lo > hi {
			return false
		}
		rangeSize := hi - lo + 1
		if rangeSize > 0 && rangeSize <= int64(len(b.neq)) {
			allForbidden := true
			for v := lo; v <= hi; v++ {
				found := false
				for _, n := range b.neq {
					if n == v {
						found = true
						break
					}
				}
				if !found {
					allForbidden = false
					break
				}
			}
			if allForbidden {
				return false
			}
		}
	}
	return true
}

func (b *intBounds) pick() int64 {
	if b.eq != nil {
		return *b.eq
	}
	lo, hasLo := b.effectiveLower()
	if !hasLo {
		lo = 0
	}
	hi, hasHi := b.effectiveUpper()
	if !hasHi {
		hi = lo + 100
	}
	for v := lo; v <= hi; v++ {
		forbidden := false
		for _, n := range b.neq {
			if n == v {
				forbidden = true
				break
			}
		}
		if !forbidden {
			return v
		}
	}
	return lo
}
