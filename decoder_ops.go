// decoder_ops.go - the one-byte opcode map
//
// Grounded on the teacher's cpu_x86.go opcode switch/jump table, walked
// opcode-by-opcode against the Intel SDM's one-byte map and trimmed to
// the Op set instruction.go actually declares.

package main

var aluOps = [8]Op{OpAdd, OpOr, OpAdc, OpSbb, OpAnd, OpSub, OpXor, OpCmp}

// segRegIdx are the segReg-order indices (ES,CS,SS,DS,FS,GS) used by
// both MOV Sreg forms and the standalone PUSH/POP-segment opcodes.
const (
	segIdxES = 0
	segIdxCS = 1
	segIdxSS = 2
	segIdxDS = 3
	segIdxFS = 4
	segIdxGS = 5
)

func decodeOpcode(c *decodeCursor, opcode byte) Instruction {
	// ALU family: 0x00-0x3D, six opcodes per operator, in reg-order
	// OpAdd/Or/Adc/Sbb/And/Sub/Xor/Cmp (teacher's grp "alu8/alu16" switch
	// cases, generalized into one table-driven path).
	if opcode < 0x40 {
		idx := opcode / 8
		rem := opcode % 8
		if rem <= 5 {
			return decodeALU(c, aluOps[idx], rem)
		}
		switch opcode {
		case 0x06:
			return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxES)}, Width: Width16}
		case 0x07:
			return Instruction{Op: OpPop, Params: ParameterSet{Dst: segParam(segIdxES)}, Width: Width16}
		case 0x0E:
			return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxCS)}, Width: Width16}
		case 0x0F:
			return decode0F(c)
		case 0x16:
			return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxSS)}, Width: Width16}
		case 0x17:
			return Instruction{Op: OpPop, Params: ParameterSet{Dst: segParam(segIdxSS)}, Width: Width16}
		case 0x1E:
			return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxDS)}, Width: Width16}
		case 0x1F:
			return Instruction{Op: OpPop, Params: ParameterSet{Dst: segParam(segIdxDS)}, Width: Width16}
		}
	}

	switch {
	case opcode >= 0x40 && opcode <= 0x47:
		w := c.opWidth()
		r := regParam(opcode-0x40, w)
		return Instruction{Op: OpInc, Params: ParameterSet{Dst: r}, Width: w}
	case opcode >= 0x48 && opcode <= 0x4F:
		w := c.opWidth()
		r := regParam(opcode-0x48, w)
		return Instruction{Op: OpDec, Params: ParameterSet{Dst: r}, Width: w}
	case opcode >= 0x50 && opcode <= 0x57:
		w := c.opWidth()
		return Instruction{Op: OpPush, Params: ParameterSet{Dst: regParam(opcode-0x50, w)}, Width: w}
	case opcode >= 0x58 && opcode <= 0x5F:
		w := c.opWidth()
		return Instruction{Op: OpPop, Params: ParameterSet{Dst: regParam(opcode-0x58, w)}, Width: w}
	case opcode >= 0x70 && opcode <= 0x7F:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpJcc, Cond: int(opcode - 0x70), Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	}

	switch opcode {
	case 0x60:
		return Instruction{Op: OpPusha, Width: c.opWidth()}
	case 0x61:
		return Instruction{Op: OpPopa, Width: c.opWidth()}
	case 0x68:
		w := c.opWidth()
		if w == Width32 {
			return Instruction{Op: OpPush, Params: ParameterSet{Dst: imm32(c.fetch32())}, Width: w}
		}
		return Instruction{Op: OpPush, Params: ParameterSet{Dst: imm16(c.fetch16())}, Width: w}
	case 0x69:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		var immP Parameter
		if w == Width32 {
			immP = imm32(c.fetch32())
		} else {
			immP = imm16(c.fetch16())
		}
		return Instruction{Op: OpImul, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm, Src2: immP}}
	case 0x6A:
		w := c.opWidth()
		return Instruction{Op: OpPush, Params: ParameterSet{Dst: imm8signed(c.fetch8(), w)}, Width: w}
	case 0x9A:
		off := c.fetch16()
		seg := c.fetch16()
		return Instruction{Op: OpCallFar, Params: ParameterSet{Dst: imm16(off), Src: imm16(seg)}}
	case 0x6B:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		imm := imm8signed(c.fetch8(), w)
		return Instruction{Op: OpImul, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm, Src2: imm}}

	case 0x80: // Group1 Eb, Ib
		reg, rm := decodeModRM(c, Width8)
		imm := imm8(c.fetch8())
		return Instruction{Op: aluOps[reg&7], Width: Width8, Params: ParameterSet{Dst: rm, Src: imm}}
	case 0x81: // Group1 Ev, Iz
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		var imm Parameter
		if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: aluOps[reg&7], Width: w, Params: ParameterSet{Dst: rm, Src: imm}}
	case 0x82: // alias of 0x80
		reg, rm := decodeModRM(c, Width8)
		imm := imm8(c.fetch8())
		return Instruction{Op: aluOps[reg&7], Width: Width8, Params: ParameterSet{Dst: rm, Src: imm}}
	case 0x83: // Group1 Ev, Ib (sign-extended)
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		imm := imm8signed(c.fetch8(), w)
		return Instruction{Op: aluOps[reg&7], Width: w, Params: ParameterSet{Dst: rm, Src: imm}}

	case 0x84:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpTest, Width: Width8, Params: ParameterSet{Dst: rm, Src: regParam(reg, Width8)}}
	case 0x85:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpTest, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w)}}
	case 0x86:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpXchg, Width: Width8, Params: ParameterSet{Dst: rm, Src: regParam(reg, Width8)}}
	case 0x87:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpXchg, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w)}}

	case 0x88:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{Dst: rm, Src: regParam(reg, Width8)}}
	case 0x89:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w)}}
	case 0x8A:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{Dst: regParam(reg, Width8), Src: rm}}
	case 0x8B:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0x8C:
		_, rm := decodeModRM(c, Width16)
		reg := c.regField() & 7
		if reg > 5 {
			return invalid(0x8C, c.modrm)
		}
		return Instruction{Op: OpMov, Width: Width16, Params: ParameterSet{Dst: rm, Src: segParam(reg)}}
	case 0x8D:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpLea, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0x8E:
		_, rm := decodeModRM(c, Width16)
		reg := c.regField() & 7
		if reg > 5 {
			return invalid(0x8E, c.modrm)
		}
		return Instruction{Op: OpMov, Width: Width16, Params: ParameterSet{Dst: segParam(reg), Src: rm}}
	case 0x8F:
		w := c.opWidth()
		_, rm := decodeModRM(c, w)
		return Instruction{Op: OpPop, Width: w, Params: ParameterSet{Dst: rm}}

	case 0x6C:
		return Instruction{Op: OpIns, Width: Width8, Rep: c.rep}
	case 0x6D:
		return Instruction{Op: OpIns, Width: c.opWidth(), Rep: c.rep}
	case 0x6E:
		return Instruction{Op: OpOuts, Width: Width8, Rep: c.rep}
	case 0x6F:
		return Instruction{Op: OpOuts, Width: c.opWidth(), Rep: c.rep}

	case 0x90:
		return Instruction{Op: OpNop}
	case 0x91, 0x92, 0x93, 0x94, 0x95, 0x96, 0x97:
		w := c.opWidth()
		return Instruction{Op: OpXchg, Width: w, Params: ParameterSet{Dst: regParam(0, w), Src: regParam(opcode-0x90, w)}}
	case 0x98:
		if c.opSize32 {
			return Instruction{Op: OpCwde}
		}
		return Instruction{Op: OpCbw}
	case 0x99:
		return Instruction{Op: OpCwd, Width: c.opWidth()}
	case 0x9C:
		return Instruction{Op: OpPushf, Width: c.opWidth()}
	case 0x9D:
		return Instruction{Op: OpPopf, Width: c.opWidth()}
	case 0x9E:
		return Instruction{Op: OpSahf}
	case 0x9F:
		return Instruction{Op: OpLahf}

	case 0xA0:
		off := c.fetch16()
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{
			Dst: regParam(0, Width8),
			Src: Parameter{Kind: PKMem, Width: Width8, Mode: AModeDisp16, Disp: int32(off)},
		}}
	case 0xA1:
		w := c.opWidth()
		off := c.fetch16()
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{
			Dst: regParam(0, w),
			Src: Parameter{Kind: PKMem, Width: w, Mode: AModeDisp16, Disp: int32(off)},
		}}
	case 0xA2:
		off := c.fetch16()
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{
			Dst: Parameter{Kind: PKMem, Width: Width8, Mode: AModeDisp16, Disp: int32(off)},
			Src: regParam(0, Width8),
		}}
	case 0xA3:
		w := c.opWidth()
		off := c.fetch16()
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{
			Dst: Parameter{Kind: PKMem, Width: w, Mode: AModeDisp16, Disp: int32(off)},
			Src: regParam(0, w),
		}}
	case 0xA4:
		return Instruction{Op: OpMovs, Width: Width8, Rep: c.rep}
	case 0xA5:
		return Instruction{Op: OpMovs, Width: c.opWidth(), Rep: c.rep}
	case 0xA6:
		return Instruction{Op: OpCmps, Width: Width8, Rep: c.rep}
	case 0xA7:
		return Instruction{Op: OpCmps, Width: c.opWidth(), Rep: c.rep}
	case 0xA8:
		return Instruction{Op: OpTest, Width: Width8, Params: ParameterSet{Dst: regParam(0, Width8), Src: imm8(c.fetch8())}}
	case 0xA9:
		w := c.opWidth()
		var imm Parameter
		if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: OpTest, Width: w, Params: ParameterSet{Dst: regParam(0, w), Src: imm}}
	case 0xAA:
		return Instruction{Op: OpStos, Width: Width8, Rep: c.rep}
	case 0xAB:
		return Instruction{Op: OpStos, Width: c.opWidth(), Rep: c.rep}
	case 0xAC:
		return Instruction{Op: OpLods, Width: Width8, Rep: c.rep}
	case 0xAD:
		return Instruction{Op: OpLods, Width: c.opWidth(), Rep: c.rep}
	case 0xAE:
		return Instruction{Op: OpScas, Width: Width8, Rep: c.rep}
	case 0xAF:
		return Instruction{Op: OpScas, Width: c.opWidth(), Rep: c.rep}
	}

	if opcode >= 0xB0 && opcode <= 0xB7 {
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{Dst: regParam(opcode-0xB0, Width8), Src: imm8(c.fetch8())}}
	}
	if opcode >= 0xB8 && opcode <= 0xBF {
		w := c.opWidth()
		var imm Parameter
		if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{Dst: regParam(opcode-0xB8, w), Src: imm}}
	}

	switch opcode {
	case 0xC0:
		return decodeShiftGroup(c, Width8, false)
	case 0xC1:
		return decodeShiftGroup(c, c.opWidth(), false)
	case 0xC2:
		imm := c.fetch16()
		return Instruction{Op: OpRetNear, Params: ParameterSet{Dst: imm16(imm)}}
	case 0xC3:
		return Instruction{Op: OpRetNear}
	case 0xC4:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpLes, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xC5:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpLds, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xC6:
		_, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpMov, Width: Width8, Params: ParameterSet{Dst: rm, Src: imm8(c.fetch8())}}
	case 0xC7:
		w := c.opWidth()
		_, rm := decodeModRM(c, w)
		var imm Parameter
		if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: OpMov, Width: w, Params: ParameterSet{Dst: rm, Src: imm}}
	case 0xCA:
		imm := c.fetch16()
		return Instruction{Op: OpRetFar, Params: ParameterSet{Dst: imm16(imm)}}
	case 0xCB:
		return Instruction{Op: OpRetFar}
	case 0xCC:
		return Instruction{Op: OpInt, Params: ParameterSet{Dst: imm8(3)}}
	case 0xCD:
		return Instruction{Op: OpInt, Params: ParameterSet{Dst: imm8(c.fetch8())}}
	case 0xCE:
		return Instruction{Op: OpInto}
	case 0xCF:
		return Instruction{Op: OpIret}

	case 0xD0:
		return decodeShiftGroupBy1(c, Width8)
	case 0xD1:
		return decodeShiftGroupBy1(c, c.opWidth())
	case 0xD2:
		return decodeShiftGroup(c, Width8, true)
	case 0xD3:
		return decodeShiftGroup(c, c.opWidth(), true)
	case 0xD4:
		c.fetch8() // base, always 0x0A for in-scope programs
		return Instruction{Op: OpAam}
	case 0xD5:
		c.fetch8()
		return Instruction{Op: OpAad}
	case 0xD6:
		return Instruction{Op: OpSalc}
	case 0xD7:
		return Instruction{Op: OpXlat}

	case 0xE0:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpLoopne, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xE1:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpLoope, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xE2:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpLoop, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xE3:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpJcxz, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xE4:
		return Instruction{Op: OpIn, Width: Width8, Params: ParameterSet{Src: imm8(c.fetch8())}}
	case 0xE5:
		return Instruction{Op: OpIn, Width: c.opWidth(), Params: ParameterSet{Src: imm8(c.fetch8())}}
	case 0xE6:
		return Instruction{Op: OpOut, Width: Width8, Params: ParameterSet{Dst: imm8(c.fetch8())}}
	case 0xE7:
		return Instruction{Op: OpOut, Width: c.opWidth(), Params: ParameterSet{Dst: imm8(c.fetch8())}}
	case 0xE8:
		rel := int32(int16(c.fetch16()))
		return Instruction{Op: OpCallNear, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xE9:
		rel := int32(int16(c.fetch16()))
		return Instruction{Op: OpJmpNear, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xEA:
		off := c.fetch16()
		seg := c.fetch16()
		return Instruction{Op: OpJmpFar, Params: ParameterSet{Dst: imm16(off), Src: imm16(seg)}}
	case 0xEB:
		rel := int32(int8(c.fetch8()))
		return Instruction{Op: OpJmpShort, Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case 0xEC:
		return Instruction{Op: OpIn, Width: Width8, Params: ParameterSet{Src: regParam(2, Width16)}}
	case 0xED:
		return Instruction{Op: OpIn, Width: c.opWidth(), Params: ParameterSet{Src: regParam(2, Width16)}}
	case 0xEE:
		return Instruction{Op: OpOut, Width: Width8, Params: ParameterSet{Dst: regParam(2, Width16)}}
	case 0xEF:
		return Instruction{Op: OpOut, Width: c.opWidth(), Params: ParameterSet{Dst: regParam(2, Width16)}}

	case 0xF4:
		return Instruction{Op: OpHlt}
	case 0xF5:
		return Instruction{Op: OpCmc}
	case 0xF6:
		return decodeGroup3(c, Width8)
	case 0xF7:
		return decodeGroup3(c, c.opWidth())
	case 0xF8:
		return Instruction{Op: OpClc}
	case 0xF9:
		return Instruction{Op: OpStc}
	case 0xFA:
		return Instruction{Op: OpCli}
	case 0xFB:
		return Instruction{Op: OpSti}
	case 0xFC:
		return Instruction{Op: OpCld}
	case 0xFD:
		return Instruction{Op: OpStd}
	case 0xFE:
		return decodeGroup45(c, Width8)
	case 0xFF:
		return decodeGroup45(c, c.opWidth())
	}

	return invalid(opcode)
}

func decodeALU(c *decodeCursor, op Op, rem byte) Instruction {
	switch rem {
	case 0:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: op, Width: Width8, Params: ParameterSet{Dst: rm, Src: regParam(reg, Width8)}}
	case 1:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: op, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w)}}
	case 2:
		reg, rm := decodeModRM(c, Width8)
		return Instruction{Op: op, Width: Width8, Params: ParameterSet{Dst: regParam(reg, Width8), Src: rm}}
	case 3:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: op, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 4:
		return Instruction{Op: op, Width: Width8, Params: ParameterSet{Dst: regParam(0, Width8), Src: imm8(c.fetch8())}}
	default: // 5
		w := c.opWidth()
		var imm Parameter
		if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: op, Width: w, Params: ParameterSet{Dst: regParam(0, w), Src: imm}}
	}
}

var shiftOps = [8]Op{OpRol, OpRor, OpRcl, OpRcr, OpShl, OpShr, OpShl, OpSar}

// decodeShiftGroup decodes Group2 (C0/C1/D2/D3): shift/rotate by either
// an imm8 count or CL, selected by byCL.
func decodeShiftGroup(c *decodeCursor, w Width, byCL bool) Instruction {
	reg, rm := decodeModRM(c, w)
	op := shiftOps[reg&7]
	var count Parameter
	if byCL {
		count = regParam(1, Width8) // CL
	} else {
		count = imm8(c.fetch8())
	}
	return Instruction{Op: op, Width: w, Params: ParameterSet{Dst: rm, Src: count}}
}

// decodeShiftGroupBy1 decodes D0/D1: shift/rotate by an implicit count of 1.
func decodeShiftGroupBy1(c *decodeCursor, w Width) Instruction {
	reg, rm := decodeModRM(c, w)
	op := shiftOps[reg&7]
	return Instruction{Op: op, Width: w, Params: ParameterSet{Dst: rm, Src: imm8(1)}}
}

// decodeGroup3 decodes F6/F7: TEST/NOT/NEG/MUL/IMUL/DIV/IDIV, selected
// by the ModR/M reg field.
func decodeGroup3(c *decodeCursor, w Width) Instruction {
	reg, rm := decodeModRM(c, w)
	switch reg & 7 {
	case 0, 1:
		var imm Parameter
		if w == Width8 {
			imm = imm8(c.fetch8())
		} else if w == Width32 {
			imm = imm32(c.fetch32())
		} else {
			imm = imm16(c.fetch16())
		}
		return Instruction{Op: OpTest, Width: w, Params: ParameterSet{Dst: rm, Src: imm}}
	case 2:
		return Instruction{Op: OpNot, Width: w, Params: ParameterSet{Dst: rm}}
	case 3:
		return Instruction{Op: OpNeg, Width: w, Params: ParameterSet{Dst: rm}}
	case 4:
		return Instruction{Op: OpMul, Width: w, Params: ParameterSet{Dst: rm}}
	case 5:
		return Instruction{Op: OpImul, Width: w, Params: ParameterSet{Dst: rm}}
	case 6:
		return Instruction{Op: OpDiv, Width: w, Params: ParameterSet{Dst: rm}}
	default:
		return Instruction{Op: OpIdiv, Width: w, Params: ParameterSet{Dst: rm}}
	}
}

// decodeGroup45 decodes FE/FF: INC/DEC r/m (Group4, FE always 8-bit),
// plus, for FF only, CALL/JMP/PUSH r/m.
func decodeGroup45(c *decodeCursor, w Width) Instruction {
	reg, rm := decodeModRM(c, w)
	switch reg & 7 {
	case 0:
		return Instruction{Op: OpInc, Width: w, Params: ParameterSet{Dst: rm}}
	case 1:
		return Instruction{Op: OpDec, Width: w, Params: ParameterSet{Dst: rm}}
	case 2:
		return Instruction{Op: OpCallNear, Width: w, Params: ParameterSet{Dst: rm}}
	case 3:
		return Instruction{Op: OpCallFar, Width: w, Params: ParameterSet{Dst: rm}}
	case 4:
		return Instruction{Op: OpJmpIndirect, Width: w, Params: ParameterSet{Dst: rm}}
	case 5:
		return Instruction{Op: OpJmpFar, Width: w, Params: ParameterSet{Dst: rm}}
	case 6:
		return Instruction{Op: OpPush, Width: w, Params: ParameterSet{Dst: rm}}
	default:
		return invalid(0xFF, reg)
	}
}
