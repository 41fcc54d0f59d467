// Package toolhost implements the tool-call side of spec section 4.6:
// policy merge/validation and the pluggable dispatcher interface the
// VM's ToolCall opcode hands off to. Grounded on the teacher's
// pkg/pdo-style "interface + concrete provider registry" shape and on
// original_source/rust/lumen-vm/src/tools.rs's Dispatcher trait.
package toolhost

import "context"

// Request is one tool invocation: the resolved tool_id/version, its
// JSON-shaped args, and the merged policy that constrained it.
type Request struct {
	ToolID  string
	Version string
	Args    map[string]interface{}
	Policy  map[string]interface{}
}

// Response is a successful dispatch result: JSON-shaped outputs plus
// the measured latency.
type Response struct {
	Outputs   map[string]interface{}
	LatencyMs uint64
}

// Dispatcher sends a Request to wherever a tool alias's tool_id
// actually resolves -- an HTTP API, a subprocess, an in-process
// provider. Implementations should be safe for concurrent use: the
// future scheduler may dispatch from multiple spawned tasks.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (Response, error)
}
