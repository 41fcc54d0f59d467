package builtins

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/lumenforge/lumen/values"
)

// registerEncodingFunctions wires spec section 4.9's Encoding bullet:
// base64/hex/url/JSON/CSV/TOML. JSON, CSV, base64/hex/url all use the
// standard library (no pack example carries a richer codec for any of
// these narrowly-scoped standard formats -- see DESIGN.md); TOML has
// no library anywhere in the example pack either, so toml_parse/
// toml_encode implement the flat-table subset (key = value lines and
// [section] headers) by hand, also justified in DESIGN.md.
func (r *Registry) registerEncodingFunctions() {
	r.defID("base64_encode", 110, biBase64Encode)
	r.defID("base64_decode", 111, biBase64Decode)
	r.defID("hex_encode", 112, biHexEncode)
	r.defID("hex_decode", 113, biHexDecode)
	r.defID("url_encode", 114, biURLEncode)
	r.defID("url_decode", 115, biURLDecode)
	r.defID("json_parse", 116, biJSONParse)
	r.defID("json_encode", 117, biJSONEncode)
	r.defID("json_pretty", 118, biJSONPretty)
	r.defID("csv_parse", 119, biCSVParse)
	r.defID("csv_encode", 120, biCSVEncode)
	r.defID("toml_parse", 121, biTOMLParse)
	r.defID("toml_encode", 122, biTOMLEncode)
}

func biBase64Encode(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("base64_encode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(base64.StdEncoding.EncodeToString(b)), nil
}

func biBase64Decode(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("base64_decode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, derr := base64.StdEncoding.DecodeString(s)
	if derr != nil {
		return values.NewUnion("Err", values.Str(derr.Error())), nil
	}
	return values.NewUnion("Ok", values.Bin(b)), nil
}

func biHexEncode(r *Registry, args []values.Value) (values.Value, error) {
	b, err := r.bytesArg("hex_encode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(hex.EncodeToString(b)), nil
}

func biHexDecode(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("hex_decode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	b, derr := hex.DecodeString(s)
	if derr != nil {
		return values.NewUnion("Err", values.Str(derr.Error())), nil
	}
	return values.NewUnion("Ok", values.Bin(b)), nil
}

func biURLEncode(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("url_encode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	return values.Str(url.QueryEscape(s)), nil
}

func biURLDecode(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("url_decode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	decoded, derr := url.QueryUnescape(s)
	if derr != nil {
		return values.NewUnion("Err", values.Str(derr.Error())), nil
	}
	return values.NewUnion("Ok", values.Str(decoded)), nil
}

func biJSONParse(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("json_parse", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	var raw interface{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if derr := dec.Decode(&raw); derr != nil {
		return values.NewUnion("Err", values.Str(derr.Error())), nil
	}
	return values.NewUnion("Ok", jsonToValue(raw)), nil
}

func biJSONEncode(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("json_encode", 1, len(args))
	}
	raw, err := valueToJSON(r, args[0])
	if err != nil {
		return values.Value{}, err
	}
	b, merr := json.Marshal(raw)
	if merr != nil {
		return values.Value{}, merr
	}
	return values.Str(string(b)), nil
}

func biJSONPretty(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 {
		return values.Value{}, argErr("json_pretty", 1, len(args))
	}
	raw, err := valueToJSON(r, args[0])
	if err != nil {
		return values.Value{}, err
	}
	b, merr := json.MarshalIndent(raw, "", "  ")
	if merr != nil {
		return values.Value{}, merr
	}
	return values.Str(string(b)), nil
}

func jsonToValue(raw interface{}) values.Value {
	switch t := raw.(type) {
	case nil:
		return values.Null()
	case bool:
		return values.Bool(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return values.Int(n)
		}
		f, _ := t.Float64()
		return values.Float(f)
	case string:
		return values.Str(t)
	case []interface{}:
		items := make([]values.Value, len(t))
		for i, e := range t {
			items[i] = jsonToValue(e)
		}
		return values.NewList(items)
	case map[string]interface{}:
		mb := values.NewMap()
		for k, e := range t {
			mb.Set(k, jsonToValue(e))
		}
		return values.Value{Kind: values.KindMap, Data: mb}
	default:
		return values.Null()
	}
}

func valueToJSON(r *Registry, v values.Value) (interface{}, error) {
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
		return ref.Resolve(r.Strings)
	case values.KindList, values.KindTuple, values.KindSet:
		items, _ := r.listItems("json_encode", []values.Value{v}, 0)
		out := make([]interface{}, len(items))
		for i, item := range items {
			jv, err := valueToJSON(r, item)
			if err != nil {
				return nil, err
			}
			out[i] = jv
		}
		return out, nil
	case values.KindMap:
		mb := v.Data.(*values.MapBox)
		out := make(map[string]interface{}, mb.Len())
		for _, k := range mb.Keys() {
			val, _ := mb.Get(k)
			jv, err := valueToJSON(r, val)
			if err != nil {
				return nil, err
			}
			out[k] = jv
		}
		return out, nil
	case values.KindRecord:
		rb := v.Data.(*values.RecordBox)
		out := make(map[string]interface{}, rb.Rec.Fields.Len())
		for _, k := range rb.Rec.Fields.Keys() {
			val, _ := rb.Rec.Fields.Get(k)
			jv, err := valueToJSON(r, val)
			if err != nil {
				return nil, err
			}
			out[k] = jv
		}
		return out, nil
	default:
		return values.Display(v, r.Strings), nil
	}
}

func biCSVParse(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("csv_parse", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	cr := csv.NewReader(strings.NewReader(s))
	records, perr := cr.ReadAll()
	if perr != nil {
		return values.NewUnion("Err", values.Str(perr.Error())), nil
	}
	rows := make([]values.Value, len(records))
	for i, row := range records {
		cells := make([]values.Value, len(row))
		for j, cell := range row {
			cells[j] = values.Str(cell)
		}
		rows[i] = values.NewList(cells)
	}
	return values.NewUnion("Ok", values.NewList(rows)), nil
}

func biCSVEncode(r *Registry, args []values.Value) (values.Value, error) {
	rows, err := r.listItems("csv_encode", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		cells, err := r.listItems("csv_encode", []values.Value{row}, 0)
		if err != nil {
			return values.Value{}, err
		}
		record := make([]string, len(cells))
		for i, c := range cells {
			record[i] = values.Display(c, r.Strings)
		}
		if err := w.Write(record); err != nil {
			return values.Value{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return values.Value{}, err
	}
	return values.Str(buf.String()), nil
}

// biTOMLParse handles the flat subset: "key = value" lines (string,
// int, float, bool, or a bracketed array of those) and "[section]"
// table headers. Anything richer (nested tables, inline tables, dates)
// is out of scope for this hand-rolled fallback.
func biTOMLParse(r *Registry, args []values.Value) (values.Value, error) {
	s, err := r.str("toml_parse", args, 0)
	if err != nil {
		return values.Value{}, err
	}
	root := values.NewMap()
	section := root
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.TrimSpace(line[1 : len(line)-1])
			table := values.NewMap()
			root.Set(name, values.Value{Kind: values.KindMap, Data: table})
			section = table
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			return values.NewUnion("Err", values.Str("toml_parse: malformed line: "+line)), nil
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		section.Set(key, tomlScalar(val))
	}
	return values.NewUnion("Ok", values.Value{Kind: values.KindMap, Data: root}), nil
}

func tomlScalar(raw string) values.Value {
	if strings.HasPrefix(raw, "\"") && strings.HasSuffix(raw, "\"") && len(raw) >= 2 {
		return values.Str(raw[1 : len(raw)-1])
	}
	if raw == "true" {
		return values.Bool(true)
	}
	if raw == "false" {
		return values.Bool(false)
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		inner := strings.TrimSpace(raw[1 : len(raw)-1])
		if inner == "" {
			return values.NewList(nil)
		}
		parts := strings.Split(inner, ",")
		items := make([]values.Value, len(parts))
		for i, p := range parts {
			items[i] = tomlScalar(strings.TrimSpace(p))
		}
		return values.NewList(items)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return values.Int(n)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return values.Float(f)
	}
	return values.Str(raw)
}

func biTOMLEncode(r *Registry, args []values.Value) (values.Value, error) {
	if len(args) != 1 || args[0].Kind != values.KindMap {
		return values.Value{}, fmt.Errorf("toml_encode: argument 0 must be a Map")
	}
	mb := args[0].Data.(*values.MapBox)
	var top, sections []string
	for _, k := range mb.Keys() {
		v, _ := mb.Get(k)
		if v.Kind == values.KindMap {
			sections = append(sections, k)
		} else {
			top = append(top, k)
		}
	}
	sort.Strings(top)
	sort.Strings(sections)
	var b strings.Builder
	for _, k := range top {
		v, _ := mb.Get(k)
		fmt.Fprintf(&b, "%s = %s\n", k, tomlEncodeScalar(r, v))
	}
	for _, k := range sections {
		v, _ := mb.Get(k)
		fmt.Fprintf(&b, "[%s]\n", k)
		sub := v.Data.(*values.MapBox)
		for _, sk := range sub.Keys() {
			sv, _ := sub.Get(sk)
			fmt.Fprintf(&b, "%s = %s\n", sk, tomlEncodeScalar(r, sv))
		}
	}
	return values.Str(b.String()), nil
}

func tomlEncodeScalar(r *Registry, v values.Value) string {
	switch v.Kind {
	case values.KindString:
		ref, _ := v.AsStringRef()
		s, _ := ref.Resolve(r.Strings)
		return strconv.Quote(s)
	case values.KindList:
		items := v.Data.(*values.ListBox).Items()
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = tomlEncodeScalar(r, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return values.Display(v, r.Strings)
	}
}
