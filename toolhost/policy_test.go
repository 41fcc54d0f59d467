package toolhost

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergePoliciesLaterOverridesEarlier(t *testing.T) {
	merged := MergePolicies(
		map[string]interface{}{"max_results": 10, "domain": "*.example.com"},
		map[string]interface{}{"max_results": 5},
	)
	assert.Equal(t, 5, merged["max_results"])
	assert.Equal(t, "*.example.com", merged["domain"])
}

func TestValidatePolicyMaxLimit(t *testing.T) {
	policy := map[string]interface{}{"max_results": 10}
	assert.Equal(t, "", ValidatePolicy(policy, map[string]interface{}{"results": 10}))
	assert.Equal(t, "max_results", ValidatePolicy(policy, map[string]interface{}{"results": 11}))
}

func TestValidatePolicyDomain(t *testing.T) {
	policy := map[string]interface{}{"domain": "*.example.com"}
	assert.Equal(t, "", ValidatePolicy(policy, map[string]interface{}{"url": "https://api.example.com/v1"}))
	assert.Equal(t, "domain", ValidatePolicy(policy, map[string]interface{}{"url": "https://evil.com/v1"}))
}

func TestValidatePolicyUnknownKeysIgnored(t *testing.T) {
	policy := map[string]interface{}{"some_unknown_key": "whatever"}
	assert.Equal(t, "", ValidatePolicy(policy, map[string]interface{}{}))
}

func TestProviderRegistryMissingProviderError(t *testing.T) {
	reg := NewProviderRegistry()
	_, err := reg.Dispatch(context.Background(), Request{ToolID: "search"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestProviderRegistryDispatchesRegisteredProvider(t *testing.T) {
	reg := NewProviderRegistry()
	reg.Register("search", ProviderFunc(func(ctx context.Context, req Request) (Response, error) {
		return Response{Outputs: map[string]interface{}{"ok": true}, LatencyMs: 1}, nil
	}))
	resp, err := reg.Dispatch(context.Background(), Request{ToolID: "search"})
	require.NoError(t, err)
	assert.Equal(t, true, resp.Outputs["ok"])
}
