// Package values implements the runtime value model: the tagged Value
// union, copy-on-write containers, and the per-VM string table.
package values

import (
	"math/big"
)

// Kind tags the variant stored in a Value.
type Kind byte

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindTuple
	KindSet
	KindMap
	KindRecord
	KindUnion
	KindClosure
	KindFuture
	KindTraceRef
)

// Value is the tagged sum type every VM register holds. Data holds the
// variant-specific payload; see the New* constructors for the expected
// concrete type per Kind.
type Value struct {
	Kind Kind
	Data interface{}
}

// StringRef is either an owned byte string or an index into the VM's
// string table. Equality, membership, and map/set lookups must resolve
// the interned form to its bytes before comparing (see Resolve).
type StringRef struct {
	Owned    string
	Interned int
	IsIntern bool
}

func OwnedString(s string) StringRef { return StringRef{Owned: s} }

func InternedString(id int) StringRef { return StringRef{Interned: id, IsIntern: true} }

// Resolve returns the underlying bytes of a StringRef, consulting the
// string table only when the ref is interned.
func (s StringRef) Resolve(t *StringTable) (string, error) {
	if !s.IsIntern {
		return s.Owned, nil
	}
	return t.Lookup(s.Interned)
}

func Null() Value             { return Value{Kind: KindNull} }
func Bool(b bool) Value       { return Value{Kind: KindBool, Data: b} }
func Int(i int64) Value       { return Value{Kind: KindInt, Data: i} }
func Big(b *big.Int) Value    { return Value{Kind: KindBigInt, Data: b} }
func Float(f float64) Value   { return Value{Kind: KindFloat, Data: f} }
func Str(s string) Value      { return Value{Kind: KindString, Data: OwnedString(s)} }
func InternedStr(id int) Value { return Value{Kind: KindString, Data: InternedString(id)} }
func Bin(b []byte) Value      { return Value{Kind: KindBytes, Data: append([]byte(nil), b...)} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	b, ok := v.Data.(bool)
	return b, ok && v.Kind == KindBool
}

func (v Value) AsInt() (int64, bool) {
	i, ok := v.Data.(int64)
	return i, ok && v.Kind == KindInt
}

func (v Value) AsFloat() (float64, bool) {
	f, ok := v.Data.(float64)
	return f, ok && v.Kind == KindFloat
}

func (v Value) AsBigInt() (*big.Int, bool) {
	b, ok := v.Data.(*big.Int)
	return b, ok && v.Kind == KindBigInt
}

func (v Value) AsStringRef() (StringRef, bool) {
	s, ok := v.Data.(StringRef)
	return s, ok && v.Kind == KindString
}

func (v Value) AsBytes() ([]byte, bool) {
	b, ok := v.Data.([]byte)
	return b, ok && v.Kind == KindBytes
}

// TypeName returns the runtime type name used by `is`, error messages,
// and schema validation failures.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindBigInt:
		return "BigInt"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindBytes:
		return "Bytes"
	case KindList:
		return "List"
	case KindTuple:
		return "Tuple"
	case KindSet:
		return "Set"
	case KindMap:
		return "Map"
	case KindRecord:
		if r, ok := v.Data.(*RecordBox); ok {
			return r.Rec.TypeName
		}
		return "Record"
	case KindUnion:
		return "Union"
	case KindClosure:
		return "Closure"
	case KindFuture:
		return "Future"
	case KindTraceRef:
		return "TraceRef"
	default:
		return "Unknown"
	}
}
