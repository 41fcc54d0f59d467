package ir

import "github.com/lumenforge/lumen/opcodes"

// Instruction is the fixed-width (op, a, b, c) triple described in
// spec section 3, with helpers for the wide (abx) and signed (sbx,
// sax) forms the compiler uses for constant indices and jump offsets
// that don't fit in a single byte operand. The exact widths are an
// implementation choice (spec section 9 Open Questions); this port
// fixes them once, here. Neither the decoder nor the VM loader checks
// immediates against these bounds.
type Instruction struct {
	Op opcodes.Opcode
	A  uint8
	B  uint8
	C  uint8
	// Bx16 carries a 16-bit immediate for wide forms (Abx/Sbx/Sax);
	// zero for plain (a,b,c) instructions.
	Bx16 int32
}

// NewABC builds a plain triple instruction.
func NewABC(op opcodes.Opcode, a, b, c uint8) Instruction {
	return Instruction{Op: op, A: a, B: b, C: c}
}

// NewAbx builds a wide-immediate instruction: a plus an unsigned
// 16-bit immediate, used for constant-table indices beyond 255.
func NewAbx(op opcodes.Opcode, a uint8, bx uint16) Instruction {
	return Instruction{Op: op, A: a, Bx16: int32(bx)}
}

// NewSbx builds a signed 16-bit immediate instruction, used for
// relative jump offsets (Jmp, ForPrep/ForLoop/ForIn, HandlePush) and
// signed integer immediates (LoadInt).
func NewSbx(op opcodes.Opcode, a uint8, sbx int32) Instruction {
	return Instruction{Op: op, A: a, Bx16: sbx}
}

// NewSax is the signed-offset form reserved for Break/Continue, kept
// distinct from Jmp's Sbx per spec section 9's Open Question so a
// reimplementation can special-case the two without ambiguity (both
// currently occupy the same 16-bit signed immediate).
func NewSax(op opcodes.Opcode, a uint8, sax int32) Instruction {
	return Instruction{Op: op, A: a, Bx16: sax}
}

func (i Instruction) Bx() uint16 { return uint16(i.Bx16) }
func (i Instruction) Sbx() int32 { return i.Bx16 }
func (i Instruction) Sax() int32 { return i.Bx16 }

// MaxBx is the largest constant-table / wide index the encoding can
// address; modules whose cells exceed it are not rejected at load.
const MaxBx = 1<<16 - 1

// MaxSbx/MinSbx bound relative jump offsets.
const (
	MaxSbx = 1<<15 - 1
	MinSbx = -(1 << 15)
)
