// Package process interprets the higher-level process shapes a module
// declares as addon metadata (spec section 4.7): pipelines,
// orchestrations, state machines, and memory instances. It holds only
// pure definitions and per-instance runtime state; the VM is
// responsible for invoking cells/builtins as pipeline/orchestration
// stages and for routing a record's method calls here once it
// recognizes the record's type_name as a registered process kind.
package process

import (
	"sync"

	"github.com/lumenforge/lumen/values"
)

// Kind is the addon-declared process shape.
type Kind string

const (
	KindPipeline      Kind = "pipeline"
	KindOrchestration Kind = "orchestration"
	KindMachine       Kind = "machine"
	KindMemory        Kind = "memory"
	KindGuardrail     Kind = "guardrail"
	KindEval          Kind = "eval"
	KindPattern       Kind = "pattern"
)

// Registry holds process definitions parsed from a module's addons
// and the live per-instance state keyed by hidden instance id.
type Registry struct {
	mu sync.Mutex

	Kinds map[string]Kind // process name -> kind

	PipelineStages      map[string][]string
	OrchestrationStages map[string][]string
	Machines            map[string]*MachineGraph
	ProcessConfigs      map[string]map[string]values.Value
	Patterns            map[string]string // process name -> pattern template

	nextInstanceID uint64
	machineState   map[uint64]*MachineInstance
	memoryState    map[uint64]MemoryBackend
	memoryBackendFactory func(processName string) MemoryBackend
}

func NewRegistry() *Registry {
	return &Registry{
		Kinds:                make(map[string]Kind),
		PipelineStages:       make(map[string][]string),
		OrchestrationStages: make(map[string][]string),
		Machines:             make(map[string]*MachineGraph),
		ProcessConfigs:       make(map[string]map[string]values.Value),
		Patterns:             make(map[string]string),
		nextInstanceID:       1,
		machineState:         make(map[uint64]*MachineInstance),
		memoryState:          make(map[uint64]MemoryBackend),
	}
}

// SetMemoryBackendFactory overrides how a new Memory instance's
// backend store is created (default: an in-process MapMemoryStore).
// Used to back a Memory instance with process.SQLMemoryStore per
// config (see process_config addon "Process.backend"=SQL DSN).
func (r *Registry) SetMemoryBackendFactory(f func(processName string) MemoryBackend) {
	r.memoryBackendFactory = f
}

// NewInstanceID mints a fresh, monotonically increasing hidden
// instance id, used as the record's __instance_id field.
func (r *Registry) NewInstanceID() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextInstanceID
	r.nextInstanceID++
	return id
}

func (r *Registry) MachineInstance(id uint64) *MachineInstance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machineState[id]
}

func (r *Registry) SetMachineInstance(id uint64, inst *MachineInstance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machineState[id] = inst
}

func (r *Registry) MemoryInstance(id uint64, processName string) MemoryBackend {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.memoryState[id]; ok {
		return m
	}
	var m MemoryBackend
	if r.memoryBackendFactory != nil {
		m = r.memoryBackendFactory(processName)
	} else {
		m = NewMapMemoryStore()
	}
	r.memoryState[id] = m
	return m
}
