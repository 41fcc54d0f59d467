package values

import (
	"fmt"
	"strconv"
	"strings"
)

// Truthy implements the truthiness rules opcodes Not/And/Or/Test rely
// on: Null and false are falsy; zero int/float and the empty
// string/bytes/container are falsy; everything else is truthy.
func Truthy(v Value, t *StringTable) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		b, _ := v.AsBool()
		return b
	case KindInt:
		i, _ := v.AsInt()
		return i != 0
	case KindFloat:
		f, _ := v.AsFloat()
		return f != 0
	case KindBigInt:
		b, _ := v.AsBigInt()
		return b.Sign() != 0
	case KindString:
		s, _ := v.AsStringRef()
		resolved, _ := s.Resolve(t)
		return resolved != ""
	case KindBytes:
		b, _ := v.AsBytes()
		return len(b) > 0
	case KindList:
		return v.Data.(*ListBox).Len() > 0
	case KindTuple:
		return v.Data.(*TupleBox).Len() > 0
	case KindSet:
		return v.Data.(*SetBox).Len() > 0
	case KindMap:
		return v.Data.(*MapBox).Len() > 0
	default:
		return true
	}
}

// Display renders a value for `debug`/`print`/`emit` and error
// messages. It is not meant to round-trip.
func Display(v Value, t *StringTable) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b)
	case KindInt:
		i, _ := v.AsInt()
		return strconv.FormatInt(i, 10)
	case KindBigInt:
		b, _ := v.AsBigInt()
		return b.String()
	case KindFloat:
		f, _ := v.AsFloat()
		return formatFloat(f)
	case KindString:
		s, _ := v.AsStringRef()
		resolved, _ := s.Resolve(t)
		return resolved
	case KindBytes:
		b, _ := v.AsBytes()
		return fmt.Sprintf("bytes(%d)", len(b))
	case KindList:
		return displaySeq("[", "]", v.Data.(*ListBox).Items(), t)
	case KindTuple:
		return displaySeq("(", ")", v.Data.(*TupleBox).Items(), t)
	case KindSet:
		return displaySeq("{", "}", v.Data.(*SetBox).Items(), t)
	case KindMap:
		return displayMap(v.Data.(*MapBox), t)
	case KindRecord:
		r := v.Data.(*RecordBox)
		return r.Rec.TypeName + displayMap(r.Rec.Fields, t)
	case KindUnion:
		u := v.Data.(*Union)
		if u.Payload.IsNull() {
			return u.Tag
		}
		return u.Tag + "(" + Display(u.Payload, t) + ")"
	case KindClosure:
		c := v.Data.(*Closure)
		return fmt.Sprintf("closure#%d", c.CellIndex)
	case KindFuture:
		f := v.Data.(*FutureHandle)
		return fmt.Sprintf("future#%d", f.ID)
	case KindTraceRef:
		r := v.Data.(*TraceRef)
		return fmt.Sprintf("trace(%s,%d)", r.TraceID, r.Sequence)
	default:
		return "?"
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func displaySeq(open, close string, items []Value, t *StringTable) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Display(it, t)
	}
	return open + strings.Join(parts, ", ") + close
}

func displayMap(m *MapBox, t *StringTable) string {
	entries := m.Entries()
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.key + ": " + Display(e.val, t)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
