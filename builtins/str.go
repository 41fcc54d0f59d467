package builtins

import (
	"strings"
	"unicode"

	"github.com/lumenforge/lumen/values"
)

// registerStringFunctions wires spec section 4.9's string-ops bullet.
// Index-of and slice operate on Unicode character index, not byte
// offset, matching scenario S4 (slicing "Hello, 世界" at char offsets
// 7..9 must yield "世界", not a split code point).
func (r *Registry) registerStringFunctions() {
	r.defID("upper", 30, biUpper)
	r.defID("lower", 31, biLower)
	r.defID("capitalize", 32, biCapitalize)
	r.defID("title", 33, biTitle)
	r.defID("snake_case", 34, biSnakeCase)
	r.defID("camel_case", 35, biCamelCase)
	r.defID("trim", 36, biTrim)
	r.defID("trim_start", 37, biTrimStart)
	r.defID("trim_end", 38, biTrimEnd)
	r.defID("split", 39, biSplit)
	r.defID("join", 40, biJoin)
	r.defID("replace", 41, biReplace)
	r.defID("starts_with", 42, biStartsWith)
	r.defID("ends_with", 43, biEndsWith)
	r.defID("index_of", 44, biIndexOf)
	r.defID("pad_left", 45, biPadLeft)
	r.defID("pad_right", 46, biPadRight)
	r.defID("chars", 47, biChars)
	r.defID("slice", 48, biSlice)
}

func biUpper(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("upper", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.ToUpper(s)), nil
}

func biLower(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("lower", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.ToLower(s)), nil
}

func biCapitalize(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("capitalize", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return values.Str(""), nil
	}
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return values.Str(string(runes)), nil
}

func biTitle(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("title", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
			for j := 1; j < len(runes); j++ {
				runes[j] = unicode.ToLower(runes[j])
			}
		}
		words[i] = string(runes)
	}
	return values.Str(strings.Join(words, " ")), nil
}

func biSnakeCase(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("snake_case", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	var b strings.Builder
	afterSep := true
	for _, ru := range s {
		if unicode.IsUpper(ru) {
			if !afterSep {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(ru))
			afterSep = false
			continue
		}
		if ru == ' ' || ru == '-' {
			b.WriteByte('_')
			afterSep = true
			continue
		}
		b.WriteRune(ru)
		afterSep = ru == '_'
	}
	return values.Str(b.String()), nil
}

func biCamelCase(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("camel_case", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	parts := strings.FieldsFunc(s, func(ru rune) bool { return ru == '_' || ru == '-' || ru == ' ' })
	var b strings.Builder
	for i, p := range parts {
		runes := []rune(strings.ToLower(p))
		if len(runes) == 0 {
			continue
		}
		if i > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return values.Str(b.String()), nil
}

func biTrim(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("trim", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.TrimSpace(s)), nil
}

func biTrimStart(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("trim_start", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.TrimLeft(s, " \t\n\r")), nil
}

func biTrimEnd(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("trim_end", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.TrimRight(s, " \t\n\r")), nil
}

func biSplit(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("split", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	sep, err := r.str("split", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	parts := strings.Split(s, sep)
	out := make([]values.Value, len(parts))
	for i, p := range parts {
		out[i] = values.Str(p)
	}
	return values.NewList(out), nil
}

func biJoin(r *Registry, args []values.Value) (values.Value, error) {
	items, err := r.listItems("join", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	sep, err := r.str("join", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = values.Display(v, r.Strings)
	}
	return values.Str(strings.Join(parts, sep)), nil
}

func biReplace(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("replace", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	old, err := r.str("replace", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	newS, err := r.str("replace", args, 2)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(strings.ReplaceAll(s, old, newS)), nil
}

func biStartsWith(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("starts_with", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	prefix, err := r.str("starts_with", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(strings.HasPrefix(s, prefix)), nil
}

func biEndsWith(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("ends_with", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	suffix, err := r.str("ends_with", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	return values.Bool(strings.HasSuffix(s, suffix)), nil
}

// indexOf returns the Unicode character index of the first occurrence
// of needle in s, or -1.
func biIndexOf(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("index_of", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	needle, err := r.str("index_of", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	byteIdx := strings.Index(s, needle)
	if byteIdx < 0 {
		return values.Int(-1), nil
	}
	return values.Int(int64(len([]rune(s[:byteIdx])))), nil
}

func biPadLeft(r *Registry, args []values.Value) (values.Value, error) {
	return padString(r, args, true)
}

func biPadRight(r *Registry, args []values.Value) (values.Value, error) {
	return padString(r, args, false)
}

func padString(r *Registry, args []values.Value, left bool) (values.Value, error) {
	s, err := r.str("pad", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	width, err := r.intArg("pad", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	fill := " "
	if len(args) > 2 {
		fill, err = r.str("pad", args, 2)
		if err != nil {
			return values.Value{}, err
		}
	}
	if fill == "" {
		fill = " "
	}
	runes := []rune(s)
	need := int(width) - len(runes)
	if need <= 0 {
		return values.Str(s), nil
	}
	fillRunes := []rune(fill)
	padding := make([]rune, need)
	for i := range padding {
		padding[i] = fillRunes[i%len(fillRunes)]
	}
	if left {
		return values.Str(string(padding) + s), nil
	}
	return values.Str(s + string(padding)), nil
}

func biChars(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("chars", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	runes := []rune(s)
	out := make([]values.Value, len(runes))
	for i, ru := range runes {
		out[i] = values.Str(string(ru))
	}
	return values.NewList(out), nil
}

// slice is Unicode-safe: start/end are character offsets, never byte
// offsets, so a surrogate/multi-byte code point is never split (S4).
func biSlice(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("slice", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	start, err := r.intArg("slice", args, 1)
	if err != nil {
		return values.Value{}, err
	}
	runes := []rune(s)
	end := int64(len(runes))
	if len(args) > 2 {
		end, err = r.intArg("slice", args, 2)
		if err != nil {
			return values.Value{}, err
		}
	}
	if start < 0 {
		start = 0
	}
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	if start > end {
		return values.Str(""), nil
	}
	return values.Str(string(runes[start:end])), nil
}
