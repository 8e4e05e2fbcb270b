// decoder_0f.go - the two-byte (0x0F escape) opcode map
//
// Limited to the subset of the 0F map that instruction.go actually
// declares Ops for (near Jcc/SETcc, MOVZX/MOVSX, SHLD/SHRD, and the
// handful of bit instructions in-scope programs use); anything else
// decodes as invalid
// rather than silently misreading bytes as something else.

package main

func decode0F(c *decodeCursor) Instruction {
	opcode := c.fetch8()

	switch {
	case opcode >= 0x80 && opcode <= 0x8F:
		var rel int32
		if c.opSize32 {
			rel = int32(c.fetch32())
		} else {
			rel = int32(int16(c.fetch16()))
		}
		return Instruction{Op: OpJcc, Cond: int(opcode - 0x80), Params: ParameterSet{Dst: Parameter{Kind: PKRelJump, Disp: rel}}}
	case opcode >= 0x90 && opcode <= 0x9F:
		_, rm := decodeModRM(c, Width8)
		return Instruction{Op: OpSetcc, Cond: int(opcode - 0x90), Width: Width8, Params: ParameterSet{Dst: rm}}
	}

	switch opcode {
	case 0x00:
		reg, rm := decodeModRM(c, Width16)
		if reg&7 == 0 {
			return Instruction{Op: OpSldt, Width: Width16, Params: ParameterSet{Dst: rm}}
		}
		return invalid(0x0F, 0x00, c.modrm)
	case 0xA0:
		return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxFS)}, Width: Width16}
	case 0xA1:
		return Instruction{Op: OpPop, Params: ParameterSet{Dst: segParam(segIdxFS)}, Width: Width16}
	case 0xA8:
		return Instruction{Op: OpPush, Params: ParameterSet{Dst: segParam(segIdxGS)}, Width: Width16}
	case 0xA9:
		return Instruction{Op: OpPop, Params: ParameterSet{Dst: segParam(segIdxGS)}, Width: Width16}
	case 0xA3:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpBt, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w)}}
	case 0xA4:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpShld, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w), Src2: imm8(c.fetch8())}}
	case 0xA5:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpShld, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w), Src2: regParam(1, Width8)}}
	case 0xAC:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpShrd, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w), Src2: imm8(c.fetch8())}}
	case 0xAD:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpShrd, Width: w, Params: ParameterSet{Dst: rm, Src: regParam(reg, w), Src2: regParam(1, Width8)}}
	case 0xAF:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpImul, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: regParam(reg, w), Src2: rm}}
	case 0xBA:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		if reg&7 == 4 {
			return Instruction{Op: OpBt, Width: w, Params: ParameterSet{Dst: rm, Src: imm8(c.fetch8())}}
		}
		return invalid(0x0F, 0xBA, c.modrm)
	case 0xB6:
		reg, rm := decodeModRM(c, Width8)
		w := c.opWidth()
		return Instruction{Op: OpMovzx, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xB7:
		reg, rm := decodeModRM(c, Width16)
		w := c.opWidth()
		return Instruction{Op: OpMovzx, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xBC:
		w := c.opWidth()
		reg, rm := decodeModRM(c, w)
		return Instruction{Op: OpBsf, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xBE:
		reg, rm := decodeModRM(c, Width8)
		w := c.opWidth()
		return Instruction{Op: OpMovsx, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	case 0xBF:
		reg, rm := decodeModRM(c, Width16)
		w := c.opWidth()
		return Instruction{Op: OpMovsx, Width: w, Params: ParameterSet{Dst: regParam(reg, w), Src: rm}}
	}

	return invalid(0x0F, opcode)
}
