// Package ir defines the linear-IR module format the VM consumes: the
// fully-lowered output of the (out-of-scope, §1) parser and type
// checker. It is grounded on the teacher's registry package (which
// held the analogous Function/Class/Parameter shapes for a different
// domain) generalized to cells, tools, policies, effects, and addons.
package ir

import "github.com/lumenforge/lumen/values"

// Module is a fully-lowered program ready for the VM to execute.
type Module struct {
	Version      string
	DocHash      string
	Strings      []string
	Types        []TypeDecl
	Cells        []*Cell
	Tools        []Tool
	Policies     []Policy
	Agents       []Agent
	Effects      []EffectDecl
	EffectBinds  []EffectBind
	Handlers     []HandlerDecl
	Addons       []Addon
	cellIndex    map[string]int
}

// CellIndex resolves a cell by name, building (and caching) the lookup
// index on first use.
func (m *Module) CellIndex(name string) (int, bool) {
	if m.cellIndex == nil {
		m.cellIndex = make(map[string]int, len(m.Cells))
		for i, c := range m.Cells {
			m.cellIndex[c.Name] = i
		}
	}
	i, ok := m.cellIndex[name]
	return i, ok
}

// TypeDecl is a user-declared record or enum shape.
type TypeDecl struct {
	Name     string
	Kind     string // "record" | "enum"
	Fields   []FieldDecl
	Variants []VariantDecl
}

type FieldDecl struct {
	Name string
	Type string
}

type VariantDecl struct {
	Name    string
	Payload string
}

// Param describes one cell parameter.
type Param struct {
	Name      string
	Register  int
	Variadic  bool
	HasDefault bool
	Default   values.Value
}

// EffectHandlerMeta is one entry of a cell's effect_handler_metas: it
// names the effect+operation a HandlePush installs a scope for.
type EffectHandlerMeta struct {
	EffectName   string
	Operation    string
	ParamCount   int
	HandlerIP    int
}

// Cell is a callable unit: the analogue of a function.
type Cell struct {
	Name               string
	Params             []Param
	Returns            bool
	Registers          int
	Constants          []values.Value
	Instructions       []Instruction
	EffectHandlerMetas []EffectHandlerMeta
}

// Tool describes one tool alias bound at load time.
type Tool struct {
	Alias   string
	ToolID  string
	Version string
	URL     string
}

// Policy is a JSON-like record of constraints merged per tool alias.
type Policy struct {
	Alias string
	Rules map[string]interface{}
}

type Agent struct {
	Name   string
	Config map[string]interface{}
}

type EffectDecl struct {
	Name       string
	Operations []string
}

type EffectBind struct {
	Effect    string
	Operation string
	CellName  string
}

type HandlerDecl struct {
	Name     string
	Effect   string
	CellName string
}

// Addon is free-form key/value metadata: pipeline stages, state
// machine graphs, process configs, scheduler directives.
type Addon struct {
	Kind  string
	Name  string
	Value string
}
