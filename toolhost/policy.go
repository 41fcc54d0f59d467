package toolhost

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// MergePolicies merges a tool alias's applicable policy entries in
// declaration order, later entries overriding earlier ones on
// conflicting keys (spec section 4.6 step 3).
func MergePolicies(policies ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, p := range policies {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

// ValidatePolicy checks args against a merged policy per spec section
// 4.6 step 4: max_* keys cap same-named integer args, domain matches
// the host of any url arg, timeout_ms constrains an arg of the same
// name, and unknown keys are ignored. It returns the violated key's
// description on failure, or "" if the call is allowed.
func ValidatePolicy(policy, args map[string]interface{}) string {
	for key, limit := range policy {
		switch {
		case strings.HasPrefix(key, "max_"):
			argName := strings.TrimPrefix(key, "max_")
			if violated := checkMax(argName, limit, args); violated {
				return key
			}
		case key == "domain":
			if violated := checkDomain(limit, args); violated {
				return key
			}
		case key == "timeout_ms":
			if violated := checkMax("timeout_ms", limit, args); violated {
				return key
			}
		}
	}
	return ""
}

func asInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

func checkMax(argName string, limit interface{}, args map[string]interface{}) bool {
	limitInt, ok := asInt(limit)
	if !ok {
		return false
	}
	raw, present := args[argName]
	if !present {
		return false
	}
	argInt, ok := asInt(raw)
	if !ok {
		return false
	}
	return argInt > limitInt
}

func checkDomain(pattern interface{}, args map[string]interface{}) bool {
	glob, ok := pattern.(string)
	if !ok {
		return false
	}
	raw, present := args["url"]
	if !present {
		return false
	}
	rawURL, ok := raw.(string)
	if !ok {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	matched, err := path.Match(glob, u.Hostname())
	if err != nil || !matched {
		return true
	}
	return false
}

// ViolationMessage renders the ToolError message spec section 7
// requires: "policy violation for '<Alias>': <key>".
func ViolationMessage(alias, key string) string {
	return fmt.Sprintf("policy violation for '%s': %s", alias, key)
}
