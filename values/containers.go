package values

// Every container is held behind a shared box with a reference count.
// Value.Clone is O(1): it bumps the refcount. Any mutating operation
// first calls makeMut, which clones the backing storage iff the
// refcount is greater than one, so every handle can be treated as
// private once makeMut returns -- the copy-on-write discipline
// described in spec section 4.5.

type listBox struct {
	refs  int32
	items []Value
}

type ListBox struct{ box *listBox }

func NewList(items []Value) Value {
	return Value{Kind: KindList, Data: &ListBox{box: &listBox{refs: 1, items: items}}}
}

func (l *ListBox) Items() []Value { return l.box.items }
func (l *ListBox) Len() int       { return len(l.box.items) }

// Clone returns a handle sharing the same backing storage.
func (l *ListBox) Clone() *ListBox {
	l.box.refs++
	return &ListBox{box: l.box}
}

// MakeMut returns a handle uniquely owning its backing storage,
// cloning it first if another handle shares it.
func (l *ListBox) MakeMut() *ListBox {
	if l.box.refs <= 1 {
		return l
	}
	l.box.refs--
	items := append([]Value(nil), l.box.items...)
	return &ListBox{box: &listBox{refs: 1, items: items}}
}

func (l *ListBox) Set(items []Value) { l.box.items = items }

type tupleBox struct {
	refs  int32
	items []Value
}

type TupleBox struct{ box *tupleBox }

func NewTuple(items []Value) Value {
	return Value{Kind: KindTuple, Data: &TupleBox{box: &tupleBox{refs: 1, items: items}}}
}

func (t *TupleBox) Items() []Value { return t.box.items }
func (t *TupleBox) Len() int       { return len(t.box.items) }
func (t *TupleBox) Clone() *TupleBox {
	t.box.refs++
	return &TupleBox{box: t.box}
}

type setBox struct {
	refs  int32
	items []Value // deduplicated, insertion order preserved
}

type SetBox struct{ box *setBox }

func NewSet() *SetBox {
	return &SetBox{box: &setBox{refs: 1}}
}

func NewSetValue(items []Value, cmp Comparator) Value {
	s := NewSet()
	for _, it := range items {
		s.Add(it, cmp)
	}
	return Value{Kind: KindSet, Data: s}
}

func (s *SetBox) Items() []Value { return s.box.items }
func (s *SetBox) Len() int       { return len(s.box.items) }
func (s *SetBox) Clone() *SetBox {
	s.box.refs++
	return &SetBox{box: s.box}
}
func (s *SetBox) MakeMut() *SetBox {
	if s.box.refs <= 1 {
		return s
	}
	s.box.refs--
	items := append([]Value(nil), s.box.items...)
	return &SetBox{box: &setBox{refs: 1, items: items}}
}

// Add inserts v if not already present (per cmp), preserving order.
func (s *SetBox) Add(v Value, cmp Comparator) {
	for _, existing := range s.box.items {
		if cmp(existing, v) == 0 {
			return
		}
	}
	s.box.items = append(s.box.items, v)
}

func (s *SetBox) Contains(v Value, cmp Comparator) bool {
	for _, existing := range s.box.items {
		if cmp(existing, v) == 0 {
			return true
		}
	}
	return false
}

// mapEntry preserves insertion order; lookups still use the key map.
type mapEntry struct {
	key string
	val Value
}

type mapBox struct {
	refs    int32
	index   map[string]int // key -> position in entries
	entries []mapEntry
}

type MapBox struct{ box *mapBox }

func NewMap() *MapBox {
	return &MapBox{box: &mapBox{refs: 1, index: make(map[string]int)}}
}

func NewMapValue() Value {
	return Value{Kind: KindMap, Data: NewMap()}
}

func (m *MapBox) Clone() *MapBox {
	m.box.refs++
	return &MapBox{box: m.box}
}

func (m *MapBox) MakeMut() *MapBox {
	if m.box.refs <= 1 {
		return m
	}
	m.box.refs--
	entries := append([]mapEntry(nil), m.box.entries...)
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.key] = i
	}
	return &MapBox{box: &mapBox{refs: 1, index: index, entries: entries}}
}

func (m *MapBox) Get(key string) (Value, bool) {
	i, ok := m.box.index[key]
	if !ok {
		return Value{}, false
	}
	return m.box.entries[i].val, true
}

func (m *MapBox) Set(key string, val Value) {
	if i, ok := m.box.index[key]; ok {
		m.box.entries[i].val = val
		return
	}
	m.box.index[key] = len(m.box.entries)
	m.box.entries = append(m.box.entries, mapEntry{key: key, val: val})
}

func (m *MapBox) Delete(key string) bool {
	i, ok := m.box.index[key]
	if !ok {
		return false
	}
	delete(m.box.index, key)
	m.box.entries = append(m.box.entries[:i], m.box.entries[i+1:]...)
	for k, idx := range m.box.index {
		if idx > i {
			m.box.index[k] = idx - 1
		}
	}
	return true
}

func (m *MapBox) Len() int { return len(m.box.entries) }

// Keys returns keys in key-sorted order: per spec DESIGN.md open-question
// resolution, record/map iteration order is key order, not insertion
// order, since it yields deterministic JSON encoding.
func (m *MapBox) Keys() []string {
	keys := make([]string, len(m.box.entries))
	for i, e := range m.box.entries {
		keys[i] = e.key
	}
	sortStrings(keys)
	return keys
}

// Entries returns (key, value) pairs in key-sorted order.
func (m *MapBox) Entries() []mapEntry {
	keys := m.Keys()
	out := make([]mapEntry, len(keys))
	for i, k := range keys {
		v, _ := m.Get(k)
		out[i] = mapEntry{key: k, val: v}
	}
	return out
}

func sortStrings(s []string) {
	// insertion sort is fine: record/map arities in this runtime are small
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Record is a nominal, ordered-field value. Fields compare by
// TypeName + field contents (see Equal).
type Record struct {
	TypeName string
	Fields   *MapBox
}

type recordRefBox struct {
	refs int32
}

// RecordBox is the shared+COW handle stored in a Value of KindRecord.
type RecordBox struct {
	box *recordRefBox
	Rec Record
}

func NewRecord(typeName string) Value {
	rec := Record{TypeName: typeName, Fields: NewMap()}
	return Value{Kind: KindRecord, Data: &RecordBox{box: &recordRefBox{refs: 1}, Rec: rec}}
}

func (r *RecordBox) Clone() *RecordBox {
	r.box.refs++
	// Fields is shared by pointer, not by value, so its own COW refcount
	// must be bumped in lockstep with box.refs -- otherwise MakeMut later
	// sees an (incorrectly) uniquely-owned Fields map and mutates it in
	// place, corrupting every other RecordBox still sharing this record.
	return &RecordBox{box: r.box, Rec: Record{TypeName: r.Rec.TypeName, Fields: r.Rec.Fields.Clone()}}
}

func (r *RecordBox) MakeMut() *RecordBox {
	if r.box.refs <= 1 {
		return r
	}
	r.box.refs--
	fields := r.Rec.Fields.MakeMut()
	rec := Record{TypeName: r.Rec.TypeName, Fields: fields}
	return &RecordBox{box: &recordRefBox{refs: 1}, Rec: rec}
}

// Union is a tagged-variant value owning exactly one payload.
type Union struct {
	Tag     string
	Payload Value
}

func NewUnion(tag string, payload Value) Value {
	return Value{Kind: KindUnion, Data: &Union{Tag: tag, Payload: payload}}
}

// Closure pairs a cell index with its captured-values vector.
type Closure struct {
	CellIndex int
	Captures  []Value
}

func NewClosure(cellIndex int) Value {
	return Value{Kind: KindClosure, Data: &Closure{CellIndex: cellIndex}}
}

// FutureStatus is the lifecycle state of a spawned task.
type FutureStatus byte

const (
	FuturePending FutureStatus = iota
	FutureCompleted
	FutureError
)

// FutureHandle is the lightweight value a register holds; the
// authoritative state lives in the VM's future table, keyed by ID.
type FutureHandle struct {
	ID     uint64
	Status FutureStatus
}

func NewFuture(id uint64, status FutureStatus) Value {
	return Value{Kind: KindFuture, Data: &FutureHandle{ID: id, Status: status}}
}

// TraceRef is an opaque provenance handle minted by the TraceRef opcode.
type TraceRef struct {
	TraceID  string
	Sequence uint64
}

func NewTraceRef(traceID string, seq uint64) Value {
	return Value{Kind: KindTraceRef, Data: &TraceRef{TraceID: traceID, Sequence: seq}}
}
