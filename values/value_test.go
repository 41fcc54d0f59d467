package values

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCowIsolation(t *testing.T) {
	orig := NewList([]Value{Int(1), Int(2), Int(3)})
	clone := orig.Clone()

	mutated := MakeMut(clone)
	lb := mutated.Data.(*ListBox)
	lb.Set(append(append([]Value(nil), lb.Items()...), Int(4)))

	origItems := orig.Data.(*ListBox).Items()
	require.Len(t, origItems, 3, "mutating the clone must not affect the original")
	assert.Len(t, mutated.Data.(*ListBox).Items(), 4)
}

func TestRecordCloneThenMutateIsolatesFields(t *testing.T) {
	orig := NewRecord("Point")
	origBox := orig.Data.(*RecordBox)
	origBox.Rec.Fields.Set("x", Int(1))

	clone := orig.Clone()
	mutated := MakeMut(clone)
	mb := mutated.Data.(*RecordBox)
	mb.Rec.Fields.Set("x", Int(2))

	origX, _ := origBox.Rec.Fields.Get("x")
	require.Equal(t, Int(1), origX, "mutating the clone's field must not affect the original's")

	mutatedX, _ := mb.Rec.Fields.Get("x")
	assert.Equal(t, Int(2), mutatedX)
}

func TestStringEqualityAcrossRepresentations(t *testing.T) {
	table := NewStringTable()
	id := table.Intern("hello")

	owned := Str("hello")
	interned := InternedStr(id)

	assert.True(t, Equal(owned, interned, table))
	assert.Equal(t, 0, Compare(owned, interned, table))
}

func TestNumericEqualityIEEE(t *testing.T) {
	table := NewStringTable()
	nan := Float(nanValue())
	assert.False(t, Equal(nan, nan, table), "NaN must not equal itself")
	assert.True(t, Equal(Int(2), Float(2.0), table), "mixed int/float equality promotes to float")
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestSetDeduplicatesOnInsert(t *testing.T) {
	table := NewStringTable()
	cmp := NewComparator(table)
	s := NewSet()
	s.Add(Int(1), cmp)
	s.Add(Int(1), cmp)
	s.Add(Int(2), cmp)
	assert.Equal(t, 2, s.Len())
}

func TestMapKeyOrderIsSorted(t *testing.T) {
	m := NewMap()
	m.Set("zeta", Int(1))
	m.Set("alpha", Int(2))
	keys := m.Keys()
	assert.Equal(t, []string{"alpha", "zeta"}, keys)
}
