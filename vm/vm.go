// Package vm implements the register-based bytecode interpreter:
// dispatch loop, call/closure engine, future scheduler, algebraic
// effects, tool dispatch, and process runtime described in spec
// sections 4.1-4.8. It is grounded on the teacher repo's vm package
// (VirtualMachine/ExecutionContext/CallFrame/errors.go) generalized
// from a Zend-style PHP VM to the register machine this spec
// describes, and on original_source/rust/lumen-vm/src/vm/mod.rs for
// the exact VM struct shape, error predicates, and load()
// bookkeeping.
package vm

import (
	"container/list"
	"log"
	"os"

	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/process"
	"github.com/lumenforge/lumen/toolhost"
	"github.com/lumenforge/lumen/values"
)

// DebugEvent mirrors the teacher's DebugLevel-gated debug events
// (vm.recordDebug) and the original VM's DebugEvent enum (§6).
type DebugEvent struct {
	Kind     string // "Step" | "CallEnter" | "CallExit" | "ToolCall" | "SchemaValidate"
	Cell     string
	IP       int
	Opcode   string
	Result   string
	ToolID   string
	Version  string
	LatencyMs int64
	Success  bool
	Message  string
	Schema   string
	Valid    bool
}

// DebugCallback receives one DebugEvent per instrumented event.
type DebugCallback func(DebugEvent)

// FutureSchedule selects how Spawn enqueues work (spec section 4.3).
type FutureSchedule int

const (
	ScheduleEager FutureSchedule = iota
	ScheduleDeferredFIFO
)

type futureState struct {
	status values.FutureStatus
	value  values.Value
	errMsg string
}

type futureTarget struct {
	isClosure bool
	cellIndex int
	closure   *values.Closure
}

type futureTask struct {
	futureID uint64
	target   futureTarget
	args     []values.Value
}

// EffectScope is an installed effect handler awaiting its matching
// Perform (spec section 4.4).
type EffectScope struct {
	HandlerIP    int
	FrameIndex   int
	BaseRegister int
	CellIndex    int
	EffectName   string
	Operation    string
}

// SuspendedContinuation is a full one-shot snapshot of the VM's
// execution state at the point a Perform transferred control to a
// handler.
type SuspendedContinuation struct {
	Frames           []CallFrame
	Registers        []values.Value
	ResumeIP         int
	ResumeFrameCount int
	ResultRegister   int
}

const maxCallDepth = 256
const defaultMaxInstructions = 10_000_000
const maxAwaitRetries = 10_000

// VM is the register-based bytecode interpreter.
type VM struct {
	Strings *values.StringTable
	Types   *ir.TypeTable

	module *ir.Module

	regs   *registerFile
	frames []CallFrame

	Output []string

	ToolDispatcher toolhost.Dispatcher
	DebugCallback  DebugCallback

	nextFutureID uint64
	futures      map[uint64]*futureState
	scheduled    *list.List // queue of *futureTask
	schedule     FutureSchedule
	scheduleSet  bool

	effectHandlers []EffectScope
	suspended      *SuspendedContinuation

	maxInstructions  uint64
	instructionCount uint64
	fuel             *uint64

	awaitFuel uint32

	traceID  string
	traceSeq uint64

	processKinds map[string]string
	Processes    *process.Registry

	Builtins BuiltinProvider

	logger *log.Logger
}

// BuiltinProvider resolves by-name and by-id (intrinsic) calls that
// don't name a declared cell -- spec section 4.9's two entry points
// into the same builtin catalogue. Implemented by the builtins
// package; the interface lives here (not there) so neither package
// needs to import the other.
type BuiltinProvider interface {
	CallByName(name string, args []values.Value) (values.Value, error)
	CallIntrinsic(id int, args []values.Value) (values.Value, error)
}

func (vm *VM) SetBuiltins(b BuiltinProvider) { vm.Builtins = b }

// New constructs a VM with the default instruction limit and no fuel
// cap, matching the teacher's NewVirtualMachine default-instrumentation
// constructor.
func New() *VM {
	return &VM{
		Strings:         values.NewStringTable(),
		Types:           ir.NewTypeTable(),
		regs:            newRegisterFile(),
		futures:         make(map[uint64]*futureState),
		scheduled:       list.New(),
		nextFutureID:    1,
		maxInstructions: defaultMaxInstructions,
		awaitFuel:       maxAwaitRetries,
		processKinds:    make(map[string]string),
		logger:          log.New(os.Stderr, "vm: ", log.LstdFlags),
	}
}

func (vm *VM) SetInstructionLimit(n uint64) { vm.maxInstructions = n }
func (vm *VM) SetFuel(n uint64)             { f := n; vm.fuel = &f }
func (vm *VM) SetFutureSchedule(s FutureSchedule) {
	vm.schedule = s
	vm.scheduleSet = true
}
func (vm *VM) FutureSchedule() FutureSchedule { return vm.schedule }

func (vm *VM) SetTraceID(id string) {
	vm.traceID = id
	vm.traceSeq = 0
}

func (vm *VM) emit(ev DebugEvent) {
	if vm.DebugCallback != nil {
		vm.DebugCallback(ev)
	}
}

// Load installs a module into the VM, interning its strings,
// registering its types, resetting per-module runtime state (future
// table, effect stack, suspended continuation, instruction counter,
// await fuel, process metadata) and parsing its addons -- mirroring
// the original VM's load().
func (vm *VM) Load(m *ir.Module) error {
	for _, s := range m.Strings {
		vm.Strings.Intern(s)
	}
	if !vm.scheduleSet {
		vm.schedule = scheduleFromAddons(m.Addons)
	}

	vm.nextFutureID = 1
	vm.futures = make(map[uint64]*futureState)
	vm.scheduled = list.New()
	vm.awaitFuel = maxAwaitRetries
	vm.effectHandlers = nil
	vm.suspended = nil
	vm.instructionCount = 0
	vm.processKinds = make(map[string]string)

	vm.Types.LoadFrom(m.Types)

	if err := loadProcessAddons(vm, m.Addons); err != nil {
		return err
	}

	vm.module = m
	return nil
}

// Module returns the currently loaded module, or nil.
func (vm *VM) Module() *ir.Module { return vm.module }

func scheduleFromAddons(addons []ir.Addon) FutureSchedule {
	for _, a := range addons {
		if a.Kind == "directive" && a.Name == "deterministic=true" {
			return ScheduleDeferredFIFO
		}
		// also accept key=value style stored in Value per spec §6.
		if a.Kind == "directive" && a.Value == "deterministic=true" {
			return ScheduleDeferredFIFO
		}
	}
	return ScheduleEager
}

// captureStackTrace snapshots the active cell stack (innermost last),
// used to decorate the first error that crosses the dispatch-loop
// boundary.
func (vm *VM) captureStackTrace() []StackFrameInfo {
	if vm.module == nil {
		return nil
	}
	out := make([]StackFrameInfo, 0, len(vm.frames))
	for _, f := range vm.frames {
		name := "<unknown>"
		if f.CellIndex >= 0 && f.CellIndex < len(vm.module.Cells) {
			name = vm.module.Cells[f.CellIndex].Name
		}
		out = append(out, StackFrameInfo{CellName: name, IP: f.IP})
	}
	return out
}
