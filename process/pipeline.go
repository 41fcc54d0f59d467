package process

import "github.com/lumenforge/lumen/values"

// StageInvoker calls one pipeline/orchestration stage (a cell name or
// builtin name) with a single argument and returns its result. The VM
// supplies the concrete invoker since only it can resolve cell
// indices and builtin dispatch.
type StageInvoker func(stageName string, arg values.Value) (values.Value, error)

// RunPipeline computes P.run(x) = s_n(...s_1(x)), threading each
// stage's result into the next in declaration order.
func RunPipeline(stages []string, input values.Value, invoke StageInvoker) (values.Value, error) {
	cur := input
	for _, stage := range stages {
		out, err := invoke(stage, cur)
		if err != nil {
			return values.Value{}, err
		}
		cur = out
	}
	return cur, nil
}

// RunOrchestration computes O.run(x): every stage runs against the
// same input x and the results are collected positionally into a
// list, matching the fan-out semantics of orchestration addons (as
// opposed to a pipeline's sequential threading).
func RunOrchestration(stages []string, input values.Value, invoke StageInvoker) (values.Value, error) {
	out := make([]values.Value, len(stages))
	for i, stage := range stages {
		v, err := invoke(stage, input)
		if err != nil {
			return values.Value{}, err
		}
		out[i] = v
	}
	return values.NewList(out), nil
}
