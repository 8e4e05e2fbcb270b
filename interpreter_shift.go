// interpreter_shift.go - SHL/SHR/SAR/ROL/ROR/RCL/RCR/SHLD/SHRD
//
// Grounded on the teacher's shift-group handler in cpu_x86_grp.go.
// Resolves two of spec.md's Open Questions (see SPEC_FULL.md §7): OF is
// left unchanged for any shift count other than 1 (the documented
// deliberate simplification, not a bug), and RCL/RCR treat the carry
// bit as an extra bit of a 9/17/33-bit rotation window.

package main

func execShift(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	w := inst.Width
	bits := widthBits(w)

	a := readParam(mach, seg, addrW32, inst.Params.Dst)
	count := readParam(mach, seg, addrW32, inst.Params.Src) & 0x1F

	if count == 0 {
		return nil
	}

	var result uint32
	switch inst.Op {
	case OpShl:
		result = execShl(r, w, a, count, bits)
	case OpShr:
		result = execShr(r, w, a, count, bits)
	case OpSar:
		result = execSar(r, w, a, count, bits)
	case OpRol:
		result = execRol(r, a, count, bits)
	case OpRor:
		result = execRor(r, a, count, bits)
	case OpRcl:
		result = execRcl(r, a, count, bits)
	case OpRcr:
		result = execRcr(r, a, count, bits)
	}

	writeParam(mach, seg, addrW32, inst.Params.Dst, maskWidth(result, w))
	return nil
}

func widthBits(w Width) uint32 {
	switch w {
	case Width8:
		return 8
	case Width16:
		return 16
	default:
		return 32
	}
}

func execShl(r *Registers, w Width, a, count, bits uint32) uint32 {
	result := a << count
	if count <= bits {
		last := (a >> (bits - count)) & 1
		r.SetCF(last != 0)
	}
	if count == 1 {
		r.SetOF((result>>(bits-1))&1 != (a>>(bits-1))&1)
	}
	setLogicFlags(r, w, maskWidth(result, w))
	return result
}

func execShr(r *Registers, w Width, a, count, bits uint32) uint32 {
	msb := (a >> (bits - 1)) & 1
	result := a >> count
	if count >= 1 && count <= bits {
		last := (a >> (count - 1)) & 1
		r.SetCF(last != 0)
	}
	if count == 1 {
		r.SetOF(msb != 0)
	}
	setLogicFlags(r, w, result)
	return result
}

func execSar(r *Registers, w Width, a, count, bits uint32) uint32 {
	signBit := (a >> (bits - 1)) & 1
	var signExt uint32
	if signBit != 0 {
		signExt = ^uint32(0) << bits
	}
	extended := a | signExt
	signedVal := int64(int32(extended))
	result := uint32(signedVal>>count) & widthMask(bits)
	if count >= 1 && count <= bits {
		last := (a >> (count - 1)) & 1
		r.SetCF(last != 0)
	}
	if count == 1 {
		r.SetOF(false)
	}
	setLogicFlags(r, w, result)
	return result
}

func widthMask(bits uint32) uint32 {
	if bits == 32 {
		return 0xFFFFFFFF
	}
	return 1<<bits - 1
}

func execRol(r *Registers, a, count, bits uint32) uint32 {
	c := count % bits
	result := ((a << c) | (a >> (bits - c))) & widthMask(bits)
	r.SetCF(result&1 != 0)
	if count == 1 {
		r.SetOF((result>>(bits-1))&1 != (result & 1))
	}
	return result
}

func execRor(r *Registers, a, count, bits uint32) uint32 {
	c := count % bits
	result := ((a >> c) | (a << (bits - c))) & widthMask(bits)
	r.SetCF((result>>(bits-1))&1 != 0)
	if count == 1 {
		r.SetOF((result>>(bits-1))&1 != (result>>(bits-2))&1)
	}
	return result
}

// execRcl/execRcr rotate through CF using a (bits+1)-wide window, per
// the DAA/DAS-adjacent Open Question resolution in SPEC_FULL.md: a
// 32-bit RCL/RCR uses a 33-bit window exactly like the 9/17-bit 8/16-bit windows.
func execRcl(r *Registers, a, count, bits uint32) uint32 {
	window := bits + 1
	cf := uint32(0)
	if r.CF() {
		cf = 1
	}
	val := (a & widthMask(bits)) | (cf << bits)
	c := count % window
	result := ((val << c) | (val >> (window - c))) & (1<<window - 1)
	newCF := (result >> bits) & 1
	r.SetCF(newCF != 0)
	out := result & widthMask(bits)
	if count == 1 {
		r.SetOF((out>>(bits-1))&1 != newCF)
	}
	return out
}

func execRcr(r *Registers, a, count, bits uint32) uint32 {
	window := bits + 1
	cf := uint32(0)
	if r.CF() {
		cf = 1
	}
	val := (a & widthMask(bits)) | (cf << bits)
	c := count % window
	result := ((val >> c) | (val << (window - c))) & (1<<window - 1)
	newCF := (result >> bits) & 1
	r.SetCF(newCF != 0)
	out := result & widthMask(bits)
	if count == 1 {
		r.SetOF((out>>(bits-1))&1 != (out>>(bits-2))&1)
	}
	return out
}

// execDoubleShift implements SHLD/SHRD: shift Dst by count bits, filling
// the vacated bits from Src.
func execDoubleShift(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	w := inst.Width
	bits := widthBits(w)

	dst := readParam(mach, seg, addrW32, inst.Params.Dst)
	src := readParam(mach, seg, addrW32, inst.Params.Src)
	count := readParam(mach, seg, addrW32, inst.Params.Src2) % bits
	if count == 0 {
		return nil
	}

	var result uint32
	var cf bool
	if inst.Op == OpShld {
		result = (dst << count) | (src >> (bits - count))
		cf = (dst>>(bits-count))&1 != 0
	} else {
		result = (dst >> count) | (src << (bits - count))
		cf = (dst>>(count-1))&1 != 0
	}
	result &= widthMask(bits)
	r.SetCF(cf)
	setLogicFlags(r, w, result)
	writeParam(mach, seg, addrW32, inst.Params.Dst, result)
	return nil
}
