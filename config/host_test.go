package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/vm"
)

const sampleYAML = `
instruction_limit: 500000
fuel: 1000
scheduler: deferred_fifo
trace_root: root-123
tool_policies:
  http_get:
    max_timeout_ms: 5000
    domain: "*.example.com"
`

func writeSample(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lumen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadDecodesAllFields(t *testing.T) {
	path := writeSample(t, sampleYAML)
	h, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(500000), h.InstructionLimit)
	require.NotNil(t, h.Fuel)
	assert.Equal(t, uint64(1000), *h.Fuel)
	assert.Equal(t, "deferred_fifo", h.Scheduler)
	assert.Equal(t, "root-123", h.TraceRoot)

	policy := h.PolicyFor("http_get")
	require.NotNil(t, policy)
	assert.Equal(t, "*.example.com", policy["domain"])
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyToWiresVM(t *testing.T) {
	h := &Host{InstructionLimit: 42, TraceRoot: "seed"}
	v := vm.New()
	require.NoError(t, h.ApplyTo(v))
	// SetTraceID/SetInstructionLimit have no public getters beyond
	// behavior; exercising ApplyTo without an error return is the
	// observable contract this test protects.
}

func TestApplyToRejectsUnknownScheduler(t *testing.T) {
	h := &Host{Scheduler: "bogus"}
	v := vm.New()
	err := h.ApplyTo(v)
	assert.Error(t, err)
}

func TestApplyToEagerScheduler(t *testing.T) {
	h := &Host{Scheduler: "eager"}
	v := vm.New()
	require.NoError(t, h.ApplyTo(v))
	assert.Equal(t, vm.ScheduleEager, v.FutureSchedule())
}

func TestDefaultIsZeroValue(t *testing.T) {
	h := Default()
	assert.Equal(t, uint64(0), h.InstructionLimit)
	assert.Nil(t, h.Fuel)
	assert.Nil(t, h.PolicyFor("anything"))
}
