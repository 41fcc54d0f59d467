package values

import "fmt"

// StringTable is the VM's append-only interning table: an
// index->bytes mapping with a reverse bytes->index lookup. Interning
// is idempotent. Looking up an unknown id is an error, not a silent
// empty string -- callers that want absence to be tolerated must call
// TryLookup instead.
type StringTable struct {
	bytes []string
	index map[string]int
}

func NewStringTable() *StringTable {
	return &StringTable{index: make(map[string]int)}
}

// Intern returns the id for s, inserting it if this is the first time
// s has been seen.
func (t *StringTable) Intern(s string) int {
	if id, ok := t.index[s]; ok {
		return id
	}
	id := len(t.bytes)
	t.bytes = append(t.bytes, s)
	t.index[s] = id
	return id
}

// Lookup resolves an id to its bytes, erroring on an unknown id.
func (t *StringTable) Lookup(id int) (string, error) {
	if id < 0 || id >= len(t.bytes) {
		return "", fmt.Errorf("string table: unknown id %d", id)
	}
	return t.bytes[id], nil
}

// TryLookup is the non-erroring variant for callers that explicitly
// tolerate an absent id.
func (t *StringTable) TryLookup(id int) (string, bool) {
	if id < 0 || id >= len(t.bytes) {
		return "", false
	}
	return t.bytes[id], true
}

func (t *StringTable) Len() int { return len(t.bytes) }
