package builtins

import (
	"regexp"

	"github.com/lumenforge/lumen/values"
)

// registerRegexFunctions wires spec section 4.9's Regex bullet, using
// stdlib regexp -- no pack example imports a richer regex engine, and
// Go's RE2 dialect is the one grounded choice available (see
// DESIGN.md).
func (r *Registry) registerRegexFunctions() {
	r.defID("regex_match", 130, biRegexMatch)
	r.defID("regex_replace_all", 131, biRegexReplaceAll)
	r.defID("regex_find_all", 132, biRegexFindAll)
}

func biRegexMatch(r *Registry, args []values.Value) (values.Value, error) {
	pattern, err := r.str("regex_match", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	s, err := r.str("regex_match", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	re, cerr := regexp.Compile(pattern)
	if cerr != nil {
		return values.NewUnion("Err", values.Str(cerr.Error())), nil
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return values.Null(), nil
	}
	groups := make([]values.Value, len(m))
	for i, g := range m {
		groups[i] = values.Str(g)
	}
	return values.NewList(groups), nil
}

func biRegexReplaceAll(r *Registry, args []values.Value) (values.Value, error) {
	pattern, err := r.str("regex_replace_all", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	s, err := r.str("regex_replace_all", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	repl, err := r.str("regex_replace_all", args, 2)
	if err != nil {
		return values.Value{}, err
	}
	re, cerr := regexp.Compile(pattern)
	if cerr != nil {
		return values.NewUnion("Err", values.Str(cerr.Error())), nil
	}
	return values.Str(re.ReplaceAllString(s, repl)), nil
}

func biRegexFindAll(r *Registry, args []values.Value) (values.Value, error) {
	pattern, err := r.str("regex_find_all", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	s, err := r.str("regex_find_all", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	re, cerr := regexp.Compile(pattern)
	if cerr != nil {
		return values.NewUnion("Err", values.Str(cerr.Error())), nil
	}
	matches := re.FindAllString(s, -1)
	out := make([]values.Value, len(matches))
	for i, m := range matches {
		out[i] = values.Str(m)
	}
	return values.NewList(out), nil
}
