package vm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lumenforge/lumen/toolhost"
	"github.com/lumenforge/lumen/values"
)

// toolCall implements the ToolCall opcode: bx names the tool index in
// module.Tools. It probes R(A) then R(A+1) for a Map of call
// arguments, merges applicable policies for the tool's alias,
// validates, dispatches, and converts the JSON-shaped outputs back
// into R(A). With no dispatcher configured it writes a sentinel
// string instead of raising, per spec section 4.6 step 6.
func (vm *VM) toolCall(base, a, bx int) error {
	if bx < 0 || bx >= len(vm.module.Tools) {
		return NewError(KindRuntime, "tool index %d out of range", bx)
	}
	tool := vm.module.Tools[bx]

	argsVal, err := vm.probeArgsMap(base, a)
	if err != nil {
		return err
	}
	args, err := vm.mapValueToJSONable(argsVal)
	if err != nil {
		return err
	}

	policy := vm.mergedPolicyForTool(tool.Alias)
	if violated := toolhost.ValidatePolicy(policy, args); violated != "" {
		return NewError(KindToolError, "%s", toolhost.ViolationMessage(tool.Alias, violated))
	}

	if vm.ToolDispatcher == nil {
		vm.emit(DebugEvent{Kind: "ToolCall", ToolID: tool.ToolID, Version: tool.Version, Success: false, Message: "no dispatcher configured"})
		return vm.setRegAbs(base+a, values.Str(fmt.Sprintf("<unresolved tool call: %s>", tool.Alias)))
	}

	resp, err := vm.ToolDispatcher.Dispatch(context.Background(), toolhost.Request{
		ToolID:  tool.ToolID,
		Version: tool.Version,
		Args:    args,
		Policy:  policy,
	})
	if err != nil {
		vm.emit(DebugEvent{Kind: "ToolCall", ToolID: tool.ToolID, Version: tool.Version, Success: false, Message: err.Error()})
		return NewError(KindToolError, "%v", err)
	}
	vm.emit(DebugEvent{Kind: "ToolCall", ToolID: tool.ToolID, Version: tool.Version, Success: true, LatencyMs: int64(resp.LatencyMs)})

	out := jsonableToValue(resp.Outputs)
	return vm.setRegAbs(base+a, out)
}

// probeArgsMap looks at R(A) then R(A+1) for a Map value, matching
// the "args may be the callee register or the first argument
// register" allowance original_source's tool-call opcode makes for
// zero-arg tool invocations.
func (vm *VM) probeArgsMap(base, a int) (values.Value, error) {
	v, err := vm.regs.getChecked(base + a)
	if err == nil && v.Kind == values.KindMap {
		return v, nil
	}
	v2, err2 := vm.regs.getChecked(base + a + 1)
	if err2 == nil && v2.Kind == values.KindMap {
		return v2, nil
	}
	return values.Value{Kind: values.KindMap, Data: values.NewMap()}, nil
}

func (vm *VM) mergedPolicyForTool(alias string) map[string]interface{} {
	var rules []map[string]interface{}
	for _, p := range vm.module.Policies {
		if p.Alias == alias {
			rules = append(rules, p.Rules)
		}
	}
	return toolhost.MergePolicies(rules...)
}

func (vm *VM) mapValueToJSONable(v values.Value) (map[string]interface{}, error) {
	if v.Kind != values.KindMap {
		return map[string]interface{}{}, nil
	}
	mb := v.Data.(*values.MapBox)
	out := make(map[string]interface{}, mb.Len())
	for _, k := range mb.Keys() {
		val, _ := mb.Get(k)
		jv, err := vm.valueToJSONable(val)
		if err != nil {
			return nil, err
		}
		out[k] = jv
	}
	return out, nil
}

func (vm *VM) valueToJSONable(v values.Value) (interface{}, error) {
	switch v.Kind {
	case values.KindNull:
		return nil, nil
	case values.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case values.KindInt:
		i, _ := v.AsInt()
		return i, nil
	case values.KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case values.KindString:
		ref, _ := v.AsStringRef()
		s, err := ref.Resolve(vm.Strings)
		if err != nil {
			return nil, err
		}
		return s, nil
	case values.KindList:
		lb := v.Data.(*values.ListBox)
		out := make([]interface{}, 0, lb.Len())
		for _, item := range lb.Items() {
			jv, err := vm.valueToJSONable(item)
			if err != nil {
				return nil, err
			}
			out = append(out, jv)
		}
		return out, nil
	case values.KindMap:
		return vm.mapValueToJSONable(v)
	default:
		return values.Display(v, vm.Strings), nil
	}
}

// jsonableToValue converts a Dispatcher response's generic JSON tree
// back into a Value, mirroring json.Unmarshal's interface{} shape
// (map[string]interface{}, []interface{}, float64, string, bool, nil).
func jsonableToValue(raw interface{}) values.Value {
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
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return values.Int(i)
		}
		f, _ := t.Float64()
		return values.Float(f)
	case string:
		return values.Str(t)
	case []interface{}:
		items := make([]values.Value, len(t))
		for i, e := range t {
			items[i] = jsonableToValue(e)
		}
		return values.NewList(items)
	case map[string]interface{}:
		mb := values.NewMap()
		for k, e := range t {
			mb.Set(k, jsonableToValue(e))
		}
		return values.Value{Kind: values.KindMap, Data: mb}
	default:
		return values.Null()
	}
}
