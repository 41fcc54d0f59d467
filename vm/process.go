package vm

import (
	"encoding/json"
	"fmt"

	"github.com/lumenforge/lumen/ir"
	"github.com/lumenforge/lumen/process"
	"github.com/lumenforge/lumen/values"
)

// loadProcessAddons parses a module's addon metadata into the VM's
// process registry, recognizing the payload encodings spec section
// 6 enumerates: pipeline.stages, orchestration.stages, machine.initial,
// machine.state, process.config, memory, guardrail, eval, pattern.
// Unrecognized addon kinds (e.g. "directive", already handled by
// scheduleFromAddons) are ignored here.
func loadProcessAddons(vm *VM, addons []ir.Addon) error {
	vm.Processes = process.NewRegistry()

	for _, a := range addons {
		switch a.Kind {
		case "pipeline.stages":
			var stages []string
			if err := json.Unmarshal([]byte(a.Value), &stages); err != nil {
				return fmt.Errorf("vm: parsing pipeline.stages addon %q: %w", a.Name, err)
			}
			vm.Processes.PipelineStages[a.Name] = stages
			vm.Processes.Kinds[a.Name] = process.KindPipeline
			vm.processKinds[a.Name] = string(process.KindPipeline)

		case "orchestration.stages":
			var stages []string
			if err := json.Unmarshal([]byte(a.Value), &stages); err != nil {
				return fmt.Errorf("vm: parsing orchestration.stages addon %q: %w", a.Name, err)
			}
			vm.Processes.OrchestrationStages[a.Name] = stages
			vm.Processes.Kinds[a.Name] = process.KindOrchestration
			vm.processKinds[a.Name] = string(process.KindOrchestration)

		case "machine.initial":
			g := vm.machineGraph(a.Name)
			g.Initial = a.Value
			vm.Processes.Kinds[a.Name] = process.KindMachine
			vm.processKinds[a.Name] = string(process.KindMachine)

		case "machine.state":
			if err := vm.loadMachineState(a.Value); err != nil {
				return fmt.Errorf("vm: parsing machine.state addon: %w", err)
			}

		case "process.config":
			cfg, err := decodeJSONValue(a.Value)
			if err != nil {
				return fmt.Errorf("vm: parsing process.config addon %q: %w", a.Name, err)
			}
			if vm.Processes.ProcessConfigs[a.Name] == nil {
				vm.Processes.ProcessConfigs[a.Name] = make(map[string]values.Value)
			}
			vm.Processes.ProcessConfigs[a.Name][a.Name] = cfg

		case "memory":
			vm.Processes.Kinds[a.Name] = process.KindMemory
			vm.processKinds[a.Name] = string(process.KindMemory)

		case "guardrail":
			vm.Processes.Kinds[a.Name] = process.KindGuardrail
			vm.processKinds[a.Name] = string(process.KindGuardrail)

		case "eval":
			vm.Processes.Kinds[a.Name] = process.KindEval
			vm.processKinds[a.Name] = string(process.KindEval)

		case "pattern":
			vm.Processes.Kinds[a.Name] = process.KindPattern
			vm.Processes.Patterns[a.Name] = a.Value
			vm.processKinds[a.Name] = string(process.KindPattern)
		}
	}
	return nil
}

func (vm *VM) machineGraph(name string) *process.MachineGraph {
	g, ok := vm.Processes.Machines[name]
	if !ok {
		g = &process.MachineGraph{States: make(map[string]process.StateDef)}
		vm.Processes.Machines[name] = g
	}
	return g
}

// machineStateJSON mirrors the machine.state addon's JSON object shape
// (spec section 6): machine, state, optional terminal, transition_to,
// params, guard, transition_args.
type machineStateJSON struct {
	Machine        string          `json:"machine"`
	State          string          `json:"state"`
	Terminal       bool            `json:"terminal"`
	TransitionTo   string          `json:"transition_to"`
	Params         []paramJSON     `json:"params"`
	Guard          json.RawMessage `json:"guard"`
	TransitionArgs []json.RawMessage `json:"transition_args"`
}

type paramJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (vm *VM) loadMachineState(payload string) error {
	var msg machineStateJSON
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return err
	}
	g := vm.machineGraph(msg.Machine)
	vm.Processes.Kinds[msg.Machine] = process.KindMachine
	vm.processKinds[msg.Machine] = string(process.KindMachine)

	params := make([]process.Param, len(msg.Params))
	for i, p := range msg.Params {
		params[i] = process.Param{Name: p.Name, Type: p.Type}
	}

	var guard *process.Expr
	if len(msg.Guard) > 0 {
		e, err := parseExprJSON(msg.Guard)
		if err != nil {
			return fmt.Errorf("guard: %w", err)
		}
		guard = e
	}

	args := make([]*process.Expr, len(msg.TransitionArgs))
	for i, raw := range msg.TransitionArgs {
		e, err := parseExprJSON(raw)
		if err != nil {
			return fmt.Errorf("transition_args[%d]: %w", i, err)
		}
		args[i] = e
	}

	g.States[msg.State] = process.StateDef{
		Params:         params,
		Terminal:       msg.Terminal,
		Guard:          guard,
		TransitionTo:   msg.TransitionTo,
		TransitionArgs: args,
	}
	return nil
}

// exprJSON is the guard/transition-arg expression wire shape: a
// "kind" discriminator ("lit", "param", "not", "arith", "compare",
// "logical") plus kind-specific fields.
type exprJSON struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
	Name  string          `json:"name"`
	Op    string          `json:"op"`
	Left  json.RawMessage `json:"left"`
	Right json.RawMessage `json:"right"`
}

func parseExprJSON(raw json.RawMessage) (*process.Expr, error) {
	var node exprJSON
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, err
	}
	switch node.Kind {
	case "lit":
		v, err := decodeJSONValue(string(node.Value))
		if err != nil {
			return nil, err
		}
		return &process.Expr{Kind: process.ExprLiteral, Literal: v}, nil
	case "param":
		return &process.Expr{Kind: process.ExprParamRef, Param: node.Name}, nil
	case "not":
		l, err := parseExprJSON(node.Left)
		if err != nil {
			return nil, err
		}
		return &process.Expr{Kind: process.ExprNot, Left: l}, nil
	case "arith", "compare", "logical":
		l, err := parseExprJSON(node.Left)
		if err != nil {
			return nil, err
		}
		r, err := parseExprJSON(node.Right)
		if err != nil {
			return nil, err
		}
		kind := process.ExprArith
		if node.Kind == "compare" {
			kind = process.ExprCompare
		} else if node.Kind == "logical" {
			kind = process.ExprLogical
		}
		return &process.Expr{Kind: kind, Op: node.Op, Left: l, Right: r}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", node.Kind)
	}
}

// decodeJSONValue decodes a JSON scalar/array/object literal into a
// values.Value, used for process.config payloads and guard/literal
// expression nodes.
func decodeJSONValue(raw string) (values.Value, error) {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return values.Value{}, err
	}
	return jsonToValue(v), nil
}

func jsonToValue(raw interface{}) values.Value {
	switch t := raw.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return values.Int(int64(t))
		}
		return values.Float(t)
	case string:
		return values.Str(t)
	case []interface{}:
		items := make([]values.Value, len(t))
		for i, item := range t {
			items[i] = jsonToValue(item)
		}
		return values.NewList(items)
	case map[string]interface{}:
		m := values.NewMap()
		for k, item := range t {
			m.Set(k, jsonToValue(item))
		}
		return values.Value{Kind: values.KindMap, Data: m}
	default:
		return values.Null()
	}
}
