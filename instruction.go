// instruction.go - the Decoder's output type
//
// Tagged sum types rather than a class hierarchy, per spec.md §9: one
// enum tag per opcode family, one per addressing form. Dispatch in the
// interpreter is a single switch over Op; there is no inheritance.

package main

// Op identifies an instruction family. Most Ops are width-polymorphic:
// the same Op covers the 8/16/32-bit forms, distinguished by the width
// carried on the instruction's Parameters.
type Op int

const (
	OpInvalid Op = iota
	OpNop
	OpHlt

	// Data movement
	OpMov
	OpMovsx
	OpMovzx
	OpLea
	OpXchg
	OpLds
	OpLes
	OpXlat

	// Stack
	OpPush
	OpPop
	OpPusha
	OpPopa
	OpPushf
	OpPopf

	// Arithmetic
	OpAdd
	OpAdc
	OpSub
	OpSbb
	OpCmp
	OpInc
	OpDec
	OpNeg
	OpMul
	OpImul
	OpDiv
	OpIdiv

	// Logical
	OpAnd
	OpOr
	OpXor
	OpNot
	OpTest

	// Shift/rotate
	OpShl
	OpShr
	OpSar
	OpRol
	OpRor
	OpRcl
	OpRcr
	OpShld
	OpShrd

	// BCD adjust
	OpAaa
	OpAas
	OpAam
	OpAad
	OpDaa
	OpDas

	// Sign/zero extension of the accumulator
	OpCbw
	OpCwd
	OpCwde

	// Flag instructions
	OpClc
	OpStc
	OpCmc
	OpCld
	OpStd
	OpCli
	OpSti
	OpLahf
	OpSahf
	OpSalc
	OpSetcc

	// Control transfer
	OpCallNear
	OpCallFar
	OpRetNear
	OpRetFar
	OpJmpShort
	OpJmpNear
	OpJmpFar
	OpJmpIndirect
	OpJcc
	OpLoop
	OpLoope
	OpLoopne
	OpJcxz
	OpInt
	OpInto
	OpIret

	// String primitives
	OpMovs
	OpCmps
	OpScas
	OpLods
	OpStos
	OpIns
	OpOuts

	// I/O
	OpIn
	OpOut

	// Misc bit ops used by in-scope programs
	OpBt
	OpBsf
	OpSldt
)

// Width is the operand width an instruction (or one of its parameters) acts at.
type Width int

const (
	Width8 Width = iota
	Width16
	Width32
)

// ParamKind tags what a Parameter actually holds.
type ParamKind int

const (
	PKNone ParamKind = iota
	PKReg        // general-purpose register, index+Width select which
	PKSegReg     // segment register, index 0-5 (ES,CS,SS,DS,FS,GS)
	PKImm        // immediate, zero-extended to Width
	PKImm8Signed // immediate8 sign-extended to the instruction's Width
	PKMem        // memory operand, resolved via AMode+Disp at execute time
	PKRelJump    // relative branch displacement, already added to the post-instruction IP
)

// AMode enumerates effective-address base forms: the 16-bit classic
// table, the 32-bit direct-register bases, and the two "no base,
// absolute displacement" special cases (mod=00,rm=6 / mod=00,rm=5).
type AMode int

const (
	AModeNone AMode = iota
	AModeBXSI
	AModeBXDI
	AModeBPSI
	AModeBPDI
	AModeSI
	AModeDI
	AModeBP
	AModeBX
	AModeDisp16
	AModeEAX
	AModeECX
	AModeEDX
	AModeEBX
	AModeESP
	AModeEBP
	AModeESI
	AModeEDI
	AModeDisp32
)

// SegOverride names which segment an Instruction's memory operand uses,
// or Default to mean "resolve by the addressing mode's own base rule".
type SegOverride int

const (
	SegDefault SegOverride = iota
	SegCS
	SegDS
	SegES
	SegFS
	SegGS
	SegSS
)

// RepMode tags the REP/REPE/REPNE prefix, if any.
type RepMode int

const (
	RepNone RepMode = iota
	RepPlain
	RepE
	RepNE
)

// Parameter is one operand of a decoded Instruction.
type Parameter struct {
	Kind  ParamKind
	Width Width
	Reg   byte   // register index (PKReg/PKSegReg)
	Imm   uint32 // immediate value (PKImm/PKImm8Signed, already sign/zero extended into uint32)
	Mode  AMode  // addressing mode (PKMem)
	Disp  int32  // displacement (PKMem, and the resolved target for PKRelJump)
}

// ParameterSet groups an Instruction's up-to-three operands. Most ops
// use only Dst/Src; the three-operand IMUL and SHLD/SHRD use Src2.
type ParameterSet struct {
	Dst  Parameter
	Src  Parameter
	Src2 Parameter
}

// Instruction is the Decoder's immutable output: everything the
// Interpreter needs to execute one instruction, with no reference back
// to the bytes it came from.
type Instruction struct {
	Op      Op
	Params  ParameterSet
	Seg     SegOverride
	Rep     RepMode
	Lock    bool
	Len     int
	Width   Width // operand width this instruction acts at
	AddrW32 bool  // true when address-size is 32-bit (0x67 prefix in effect)

	// Cond carries the condition-code index (0-15, Intel Jcc/SETcc
	// encoding order) for OpJcc/OpSetcc/OpLoope/OpLoopne.
	Cond int

	// InvalidBytes carries the faulting byte(s) when Op == OpInvalid.
	InvalidBytes []byte
}
