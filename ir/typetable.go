package ir

import "sync"

// TypeTable is the VM's registry of user-declared record and enum
// shapes, built at module load from Module.Types. It's consulted by
// schema-validation opcodes and (indirectly, via Record.TypeName) by
// record equality.
type TypeTable struct {
	mu    sync.RWMutex
	types map[string]TypeDecl
}

func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[string]TypeDecl)}
}

func (t *TypeTable) Register(decl TypeDecl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types[decl.Name] = decl
}

func (t *TypeTable) Lookup(name string) (TypeDecl, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.types[name]
	return d, ok
}

func (t *TypeTable) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.types = make(map[string]TypeDecl)
}

// LoadFrom populates the table from a module's type declarations,
// called once at VM.Load (mirrors the original VM's `load()` doing
// the same reset-then-repopulate dance for every per-module table).
func (t *TypeTable) LoadFrom(decls []TypeDecl) {
	t.Reset()
	for _, d := range decls {
		t.Register(d)
	}
}
