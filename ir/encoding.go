package ir

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"

	"github.com/lumenforge/lumen/opcodes"
	"github.com/lumenforge/lumen/values"
)

// The wire format mirrors spec section 4's "Module format (the IR)":
// a serializable record of version, doc_hash, strings, types, cells,
// tools, policies, agents, effects, effect_binds, handlers, addons.
// encoding/json is used directly, the same way vm/process.go and
// vm/tools.go decode addon payloads and probe-args maps -- no
// third-party serialization library is imported anywhere in the pack
// for a generic tagged-union format like this one (see DESIGN.md).
type moduleDoc struct {
	Version     string        `json:"version"`
	DocHash     string        `json:"doc_hash"`
	Strings     []string      `json:"strings"`
	Types       []typeDoc     `json:"types"`
	Cells       []cellDoc     `json:"cells"`
	Tools       []Tool        `json:"tools"`
	Policies    []Policy      `json:"policies"`
	Agents      []Agent       `json:"agents"`
	Effects     []EffectDecl  `json:"effects"`
	EffectBinds []EffectBind  `json:"effect_binds"`
	Handlers    []HandlerDecl `json:"handlers"`
	Addons      []Addon       `json:"addons"`
}

type typeDoc struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Fields   []FieldDecl  `json:"fields,omitempty"`
	Variants []VariantDecl `json:"variants,omitempty"`
}

type cellDoc struct {
	Name               string              `json:"name"`
	Params             []paramDoc          `json:"params"`
	Returns            bool                `json:"returns"`
	Registers          int                 `json:"registers"`
	Constants          []constDoc          `json:"constants"`
	Instructions       []instructionDoc    `json:"instructions"`
	EffectHandlerMetas []EffectHandlerMeta `json:"effect_handler_metas,omitempty"`
}

type paramDoc struct {
	Name       string    `json:"name"`
	Register   int       `json:"register"`
	Variadic   bool      `json:"variadic,omitempty"`
	HasDefault bool      `json:"has_default,omitempty"`
	Default    *constDoc `json:"default,omitempty"`
}

type instructionDoc struct {
	Op  string `json:"op"`
	A   uint8  `json:"a,omitempty"`
	B   uint8  `json:"b,omitempty"`
	C   uint8  `json:"c,omitempty"`
	Bx  int32  `json:"bx,omitempty"`
}

// constDoc is a scalar-only encoding of values.Value: the constant
// pool of a compiled cell holds literals (null/bool/int/bigint/float/
// string/bytes), never containers or closures -- those are always
// built at runtime by NEW_LIST/NEW_MAP/CLOSURE and friends.
type constDoc struct {
	Kind   string `json:"kind"`
	Bool   bool   `json:"bool,omitempty"`
	Int    int64  `json:"int,omitempty"`
	BigInt string `json:"bigint,omitempty"`
	Float  float64 `json:"float,omitempty"`
	Str    string `json:"str,omitempty"`
	Bytes  []byte `json:"bytes,omitempty"`
}

func encodeConst(v values.Value) (constDoc, error) {
	switch v.Kind {
	case values.KindNull:
		return constDoc{Kind: "null"}, nil
	case values.KindBool:
		b, _ := v.AsBool()
		return constDoc{Kind: "bool", Bool: b}, nil
	case values.KindInt:
		i, _ := v.AsInt()
		return constDoc{Kind: "int", Int: i}, nil
	case values.KindBigInt:
		b, _ := v.AsBigInt()
		return constDoc{Kind: "bigint", BigInt: b.String()}, nil
	case values.KindFloat:
		f, _ := v.AsFloat()
		return constDoc{Kind: "float", Float: f}, nil
	case values.KindString:
		ref, _ := v.AsStringRef()
		if ref.IsIntern {
			return constDoc{}, fmt.Errorf("ir: cannot encode interned string constant")
		}
		return constDoc{Kind: "string", Str: ref.Owned}, nil
	case values.KindBytes:
		b, _ := v.AsBytes()
		return constDoc{Kind: "bytes", Bytes: b}, nil
	default:
		return constDoc{}, fmt.Errorf("ir: constant kind %q is not scalar-encodable", v.TypeName())
	}
}

func decodeConst(d constDoc) (values.Value, error) {
	switch d.Kind {
	case "null", "":
		return values.Null(), nil
	case "bool":
		return values.Bool(d.Bool), nil
	case "int":
		return values.Int(d.Int), nil
	case "bigint":
		b, ok := new(big.Int).SetString(d.BigInt, 10)
		if !ok {
			return values.Value{}, fmt.Errorf("ir: invalid bigint constant %q", d.BigInt)
		}
		return values.Big(b), nil
	case "float":
		return values.Float(d.Float), nil
	case "string":
		return values.Str(d.Str), nil
	case "bytes":
		return values.Bin(d.Bytes), nil
	default:
		return values.Value{}, fmt.Errorf("ir: unknown constant kind %q", d.Kind)
	}
}

func encodeInstruction(i Instruction) instructionDoc {
	return instructionDoc{Op: i.Op.String(), A: i.A, B: i.B, C: i.C, Bx: i.Bx16}
}

func decodeInstruction(d instructionDoc) (Instruction, error) {
	op, ok := opcodes.FromName(d.Op)
	if !ok {
		return Instruction{}, fmt.Errorf("ir: unknown opcode mnemonic %q", d.Op)
	}
	return Instruction{Op: op, A: d.A, B: d.B, C: d.C, Bx16: d.Bx}, nil
}

// EncodeModule writes m to w in the module-format JSON the spec
// describes. Used by the `lumen fmt`-adjacent tooling and by anything
// that needs to persist a compiled module between CLI invocations.
func EncodeModule(w io.Writer, m *Module) error {
	doc := moduleDoc{
		Version:     m.Version,
		DocHash:     m.DocHash,
		Strings:     m.Strings,
		Tools:       m.Tools,
		Policies:    m.Policies,
		Agents:      m.Agents,
		Effects:     m.Effects,
		EffectBinds: m.EffectBinds,
		Handlers:    m.Handlers,
		Addons:      m.Addons,
	}
	for _, t := range m.Types {
		doc.Types = append(doc.Types, typeDoc{Name: t.Name, Kind: t.Kind, Fields: t.Fields, Variants: t.Variants})
	}
	for _, c := range m.Cells {
		cd := cellDoc{
			Name:               c.Name,
			Returns:            c.Returns,
			Registers:          c.Registers,
			EffectHandlerMetas: c.EffectHandlerMetas,
		}
		for _, p := range c.Params {
			pd := paramDoc{Name: p.Name, Register: p.Register, Variadic: p.Variadic, HasDefault: p.HasDefault}
			if p.HasDefault {
				dv, err := encodeConst(p.Default)
				if err != nil {
					return fmt.Errorf("ir: encoding cell %q param %q default: %w", c.Name, p.Name, err)
				}
				pd.Default = &dv
			}
			cd.Params = append(cd.Params, pd)
		}
		for _, cst := range c.Constants {
			cv, err := encodeConst(cst)
			if err != nil {
				return fmt.Errorf("ir: encoding cell %q constant: %w", c.Name, err)
			}
			cd.Constants = append(cd.Constants, cv)
		}
		for _, instr := range c.Instructions {
			cd.Instructions = append(cd.Instructions, encodeInstruction(instr))
		}
		doc.Cells = append(doc.Cells, cd)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DecodeModule reads a module-format JSON document, the inverse of
// EncodeModule.
func DecodeModule(r io.Reader) (*Module, error) {
	var doc moduleDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("ir: decoding module: %w", err)
	}

	m := &Module{
		Version:     doc.Version,
		DocHash:     doc.DocHash,
		Strings:     doc.Strings,
		Tools:       doc.Tools,
		Policies:    doc.Policies,
		Agents:      doc.Agents,
		Effects:     doc.Effects,
		EffectBinds: doc.EffectBinds,
		Handlers:    doc.Handlers,
		Addons:      doc.Addons,
	}
	for _, t := range doc.Types {
		m.Types = append(m.Types, TypeDecl{Name: t.Name, Kind: t.Kind, Fields: t.Fields, Variants: t.Variants})
	}
	for _, cd := range doc.Cells {
		c := &Cell{
			Name:               cd.Name,
			Returns:            cd.Returns,
			Registers:          cd.Registers,
			EffectHandlerMetas: cd.EffectHandlerMetas,
		}
		for _, pd := range cd.Params {
			p := Param{Name: pd.Name, Register: pd.Register, Variadic: pd.Variadic, HasDefault: pd.HasDefault}
			if pd.Default != nil {
				dv, err := decodeConst(*pd.Default)
				if err != nil {
					return nil, fmt.Errorf("ir: cell %q param %q: %w", cd.Name, pd.Name, err)
				}
				p.Default = dv
			}
			c.Params = append(c.Params, p)
		}
		for _, cv := range cd.Constants {
			v, err := decodeConst(cv)
			if err != nil {
				return nil, fmt.Errorf("ir: cell %q: %w", cd.Name, err)
			}
			c.Constants = append(c.Constants, v)
		}
		for _, id := range cd.Instructions {
			instr, err := decodeInstruction(id)
			if err != nil {
				return nil, fmt.Errorf("ir: cell %q: %w", cd.Name, err)
			}
			c.Instructions = append(c.Instructions, instr)
		}
		m.Cells = append(m.Cells, c)
	}
	return m, nil
}
