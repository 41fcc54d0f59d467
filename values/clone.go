package values

// Clone returns a Value that can be stored independently of the
// receiver. For containers this is O(1): it shares backing storage and
// bumps a refcount (see containers.go); scalars copy trivially since
// Value itself is a small struct. The first mutation through either
// handle uniquifies via MakeMut.
func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		return Value{Kind: KindList, Data: v.Data.(*ListBox).Clone()}
	case KindTuple:
		return Value{Kind: KindTuple, Data: v.Data.(*TupleBox).Clone()}
	case KindSet:
		return Value{Kind: KindSet, Data: v.Data.(*SetBox).Clone()}
	case KindMap:
		return Value{Kind: KindMap, Data: v.Data.(*MapBox).Clone()}
	case KindRecord:
		return Value{Kind: KindRecord, Data: v.Data.(*RecordBox).Clone()}
	default:
		return v
	}
}

// MakeMut uniquifies a container's backing storage in place if it is
// shared, returning the (possibly new) Value to use going forward.
// Scalars are returned unchanged.
func MakeMut(v Value) Value {
	switch v.Kind {
	case KindList:
		return Value{Kind: KindList, Data: v.Data.(*ListBox).MakeMut()}
	case KindSet:
		return Value{Kind: KindSet, Data: v.Data.(*SetBox).MakeMut()}
	case KindMap:
		return Value{Kind: KindMap, Data: v.Data.(*MapBox).MakeMut()}
	case KindRecord:
		return Value{Kind: KindRecord, Data: v.Data.(*RecordBox).MakeMut()}
	default:
		return v
	}
}
