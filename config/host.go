// Package config decodes the host-facing YAML configuration a lumen
// embedder supplies: instruction and fuel budgets, future-scheduling
// policy, the default trace-id root, and per-tool-alias policy
// overrides. This replaces the teacher's PHP-style .ini configuration
// (runtime/ini.go) with a single declarative document, per SPEC_FULL.md
// section A.3.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumenforge/lumen/vm"
)

// Host is the decoded shape of a lumen.yaml document.
type Host struct {
	// InstructionLimit caps the per-execute instruction counter before
	// InstructionLimitExceeded is raised. Zero means "use the VM's
	// built-in default".
	InstructionLimit uint64 `yaml:"instruction_limit"`
	// Fuel is an optional user-facing budget; nil (absent from the
	// document) means uncapped.
	Fuel *uint64 `yaml:"fuel"`
	// Scheduler selects the future-spawn policy: "eager" or
	// "deferred_fifo". Empty defers to the loaded module's addons.
	Scheduler string `yaml:"scheduler"`
	// TraceRoot seeds the VM's trace-id when the module's own
	// doc_hash isn't used as the root.
	TraceRoot string `yaml:"trace_root"`
	// ToolPolicies maps a tool alias to its policy entry (spec section
	// 4.6): max_* limits, a domain glob, timeout_ms, etc.
	ToolPolicies map[string]map[string]interface{} `yaml:"tool_policies"`
}

// Load reads and decodes a lumen.yaml host configuration file.
func Load(path string) (*Host, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var h Host
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &h, nil
}

// Default returns a Host with every field at its zero value, which
// ApplyTo interprets as "leave the VM's own defaults in place".
func Default() *Host { return &Host{} }

// ApplyTo wires this configuration onto a freshly constructed VM:
// instruction limit, fuel, future schedule, and trace-id root.
// ToolPolicies is not applied here since it is keyed by alias and
// merged against a module's own declared policies at tool-dispatch
// time (toolhost.MergePolicies) rather than pushed into the VM eagerly.
func (h *Host) ApplyTo(v *vm.VM) error {
	if h.InstructionLimit > 0 {
		v.SetInstructionLimit(h.InstructionLimit)
	}
	if h.Fuel != nil {
		v.SetFuel(*h.Fuel)
	}
	if h.Scheduler != "" {
		schedule, err := parseSchedule(h.Scheduler)
		if err != nil {
			return err
		}
		v.SetFutureSchedule(schedule)
	}
	if h.TraceRoot != "" {
		v.SetTraceID(h.TraceRoot)
	}
	return nil
}

func parseSchedule(name string) (vm.FutureSchedule, error) {
	switch name {
	case "eager":
		return vm.ScheduleEager, nil
	case "deferred_fifo":
		return vm.ScheduleDeferredFIFO, nil
	default:
		return 0, fmt.Errorf("config: unknown scheduler %q (want \"eager\" or \"deferred_fifo\")", name)
	}
}

// PolicyFor returns the configured policy override for a tool alias, or
// nil if none was configured.
func (h *Host) PolicyFor(alias string) map[string]interface{} {
	return h.ToolPolicies[alias]
}
