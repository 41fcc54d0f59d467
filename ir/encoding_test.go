package ir

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenforge/lumen/opcodes"
	"github.com/lumenforge/lumen/values"
)

func sampleModule() *Module {
	bigConst, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	main := &Cell{
		Name:      "main",
		Returns:   true,
		Registers: 4,
		Params:    []Param{{Name: "x", Register: 0, HasDefault: true, Default: values.Int(7)}},
		Constants: []values.Value{
			values.Null(),
			values.Bool(true),
			values.Int(2),
			values.Big(bigConst),
			values.Float(1.5),
			values.Str("hi"),
			values.Bin([]byte{1, 2, 3}),
		},
		Instructions: []Instruction{
			ir0(opcodes.OP_LOAD_CONST, 0, 2),
			ir0(opcodes.OP_RETURN, 0, 0),
		},
	}
	return &Module{
		Version: "1",
		DocHash: "abc123",
		Strings: []string{"s1"},
		Types:   []TypeDecl{{Name: "Point", Kind: "record", Fields: []FieldDecl{{Name: "x", Type: "Int"}}}},
		Cells:   []*Cell{main},
		Tools:   []Tool{{Alias: "http", ToolID: "http.get", Version: "1"}},
		Policies: []Policy{{Alias: "http", Rules: map[string]interface{}{"max_timeout_ms": float64(5000)}}},
		Agents:  []Agent{{Name: "a1", Config: map[string]interface{}{"model": "x"}}},
		Addons:  []Addon{{Kind: "pipeline.stages", Name: "p1", Value: `["a","b"]`}},
	}
}

func ir0(op opcodes.Opcode, a uint8, bx uint16) Instruction {
	return NewAbx(op, a, bx)
}

func TestEncodeDecodeModuleRoundTrip(t *testing.T) {
	m := sampleModule()
	var buf bytes.Buffer
	require.NoError(t, EncodeModule(&buf, m))

	decoded, err := DecodeModule(&buf)
	require.NoError(t, err)

	assert.Equal(t, m.Version, decoded.Version)
	assert.Equal(t, m.DocHash, decoded.DocHash)
	assert.Equal(t, m.Strings, decoded.Strings)
	require.Len(t, decoded.Cells, 1)

	got := decoded.Cells[0]
	assert.Equal(t, "main", got.Name)
	assert.True(t, got.Returns)
	require.Len(t, got.Params, 1)
	assert.True(t, got.Params[0].HasDefault)
	i, ok := got.Params[0].Default.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	require.Len(t, got.Constants, 7)
	assert.True(t, got.Constants[0].IsNull())
	b, _ := got.Constants[1].AsBool()
	assert.True(t, b)
	n, _ := got.Constants[2].AsInt()
	assert.Equal(t, int64(2), n)
	big2, _ := got.Constants[3].AsBigInt()
	assert.Equal(t, "123456789012345678901234567890", big2.String())
	f, _ := got.Constants[4].AsFloat()
	assert.Equal(t, 1.5, f)
	sref, _ := got.Constants[5].AsStringRef()
	assert.Equal(t, "hi", sref.Owned)
	bs, _ := got.Constants[6].AsBytes()
	assert.Equal(t, []byte{1, 2, 3}, bs)

	require.Len(t, got.Instructions, 2)
	assert.Equal(t, opcodes.OP_LOAD_CONST, got.Instructions[0].Op)
	assert.Equal(t, uint16(2), got.Instructions[0].Bx())

	require.Len(t, decoded.Tools, 1)
	assert.Equal(t, "http.get", decoded.Tools[0].ToolID)
	require.Len(t, decoded.Addons, 1)
	assert.Equal(t, "pipeline.stages", decoded.Addons[0].Kind)
}

func TestDecodeModuleRejectsUnknownOpcode(t *testing.T) {
	src := `{"version":"1","doc_hash":"x","cells":[{"name":"main","instructions":[{"op":"NOT_AN_OPCODE"}]}]}`
	_, err := DecodeModule(bytes.NewReader([]byte(src)))
	assert.Error(t, err)
}

func TestEncodeModuleRejectsContainerConstant(t *testing.T) {
	m := &Module{Cells: []*Cell{{Name: "main", Constants: []values.Value{values.NewList(nil)}}}}
	var buf bytes.Buffer
	err := EncodeModule(&buf, m)
	assert.Error(t, err)
}
