package values

import (
	"math/big"
)

// Comparator returns <0, 0, >0 under the total order spec section 3
// requires of every container element type (used by Set dedup, map
// keys, sort builtins, and the `vote` tally). It must resolve interned
// strings via the supplied table before comparing bytes.
type Comparator func(a, b Value) int

// NewComparator returns a Comparator bound to a VM's string table, so
// interned string refs compare by resolved content.
func NewComparator(t *StringTable) Comparator {
	return func(a, b Value) int { return Compare(a, b, t) }
}

func kindRank(k Kind) int {
	// Numeric kinds share a rank so cross-type numeric comparisons work;
	// everything else is ordered after, stably, by declaration order.
	switch k {
	case KindInt, KindBigInt, KindFloat:
		return 0
	default:
		return int(k) + 1
	}
}

// Compare implements the total order over values described in spec
// section 3: numeric kinds compare numerically (Int promotes to Float
// on mixed comparisons; NaN sorts after everything per IEEE semantics
// admitted into ordered containers), strings compare lexicographically
// after resolving interned ids, and other kinds fall back to a stable
// type-then-structural order.
func Compare(a, b Value, t *StringTable) int {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		return compareNumeric(a, b)
	}
	if a.Kind != b.Kind {
		ra, rb := kindRank(a.Kind), kindRank(b.Kind)
		if ra != rb {
			if ra < rb {
				return -1
			}
			return 1
		}
	}
	switch a.Kind {
	case KindNull:
		return 0
	case KindBool:
		ab, _ := a.AsBool()
		bb, _ := b.AsBool()
		return boolCmp(ab, bb)
	case KindString:
		as, _ := a.AsStringRef()
		bs, _ := b.AsStringRef()
		sa, _ := as.Resolve(t)
		sb, _ := bs.Resolve(t)
		return stringCmp(sa, sb)
	case KindBytes:
		ab, _ := a.AsBytes()
		bb, _ := b.AsBytes()
		return bytesCmp(ab, bb)
	case KindList, KindTuple:
		return compareSeq(itemsOf(a), itemsOf(b), t)
	case KindSet:
		sa := a.Data.(*SetBox).Items()
		sb := b.Data.(*SetBox).Items()
		return compareSeq(sa, sb, t)
	case KindMap:
		return compareMap(a.Data.(*MapBox), b.Data.(*MapBox), t)
	case KindRecord:
		ra := a.Data.(*RecordBox)
		rb := b.Data.(*RecordBox)
		if ra.Rec.TypeName != rb.Rec.TypeName {
			return stringCmp(ra.Rec.TypeName, rb.Rec.TypeName)
		}
		return compareMap(ra.Rec.Fields, rb.Rec.Fields, t)
	case KindUnion:
		ua := a.Data.(*Union)
		ub := b.Data.(*Union)
		if ua.Tag != ub.Tag {
			return stringCmp(ua.Tag, ub.Tag)
		}
		return Compare(ua.Payload, ub.Payload, t)
	case KindClosure:
		ca, cb := a.Data.(*Closure), b.Data.(*Closure)
		if c := intCmp(ca.CellIndex, cb.CellIndex); c != 0 {
			return c
		}
		return compareSeq(ca.Captures, cb.Captures, t)
	case KindFuture:
		fa, fb := a.Data.(*FutureHandle).ID, b.Data.(*FutureHandle).ID
		return intCmp64(int64(fa), int64(fb))
	case KindTraceRef:
		ta, tb := a.Data.(*TraceRef), b.Data.(*TraceRef)
		if c := stringCmp(ta.TraceID, tb.TraceID); c != 0 {
			return c
		}
		return intCmp64(int64(ta.Sequence), int64(tb.Sequence))
	default:
		return 0
	}
}

func itemsOf(v Value) []Value {
	switch v.Kind {
	case KindList:
		return v.Data.(*ListBox).Items()
	case KindTuple:
		return v.Data.(*TupleBox).Items()
	default:
		return nil
	}
}

func compareSeq(a, b []Value, t *StringTable) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := Compare(a[i], b[i], t); c != 0 {
			return c
		}
	}
	return intCmp(len(a), len(b))
}

func compareMap(a, b *MapBox, t *StringTable) int {
	ea, eb := a.Entries(), b.Entries()
	n := len(ea)
	if len(eb) < n {
		n = len(eb)
	}
	for i := 0; i < n; i++ {
		if c := stringCmp(ea[i].key, eb[i].key); c != 0 {
			return c
		}
		if c := Compare(ea[i].val, eb[i].val, t); c != 0 {
			return c
		}
	}
	return intCmp(len(ea), len(eb))
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindBigInt || k == KindFloat }

func compareNumeric(a, b Value) int {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return floatCmp(toFloat(a), toFloat(b))
	}
	if a.Kind == KindBigInt || b.Kind == KindBigInt {
		return toBig(a).Cmp(toBig(b))
	}
	ai, _ := a.AsInt()
	bi, _ := b.AsInt()
	return intCmp64(ai, bi)
}

func toFloat(v Value) float64 {
	switch v.Kind {
	case KindFloat:
		f, _ := v.AsFloat()
		return f
	case KindInt:
		i, _ := v.AsInt()
		return float64(i)
	case KindBigInt:
		b, _ := v.AsBigInt()
		f, _ := new(big.Float).SetInt(b).Float64()
		return f
	}
	return 0
}

func toBig(v Value) *big.Int {
	switch v.Kind {
	case KindBigInt:
		b, _ := v.AsBigInt()
		return b
	case KindInt:
		i, _ := v.AsInt()
		return big.NewInt(i)
	}
	return big.NewInt(0)
}

func boolCmp(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func intCmp(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func intCmp64(a, b int64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func stringCmp(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func bytesCmp(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return intCmp(len(a), len(b))
}

// floatCmp follows IEEE semantics (NaN != NaN, and sorts after every
// other float so it can still be admitted into ordered containers).
func floatCmp(a, b float64) int {
	aNaN, bNaN := a != a, b != b
	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Equal implements deep value equality (spec section 4.1 `eq`, section
// 4.5): interned and owned strings of equal content compare equal,
// numeric equality follows IEEE rules (NaN != NaN), and containers
// compare element-wise.
func Equal(a, b Value, t *StringTable) bool {
	if isNumeric(a.Kind) && isNumeric(b.Kind) {
		if (a.Kind == KindFloat && isNaN(a)) || (b.Kind == KindFloat && isNaN(b)) {
			return false
		}
		return compareNumeric(a, b) == 0
	}
	return Compare(a, b, t) == 0
}

func isNaN(v Value) bool {
	f, _ := v.AsFloat()
	return f != f
}
