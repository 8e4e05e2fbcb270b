// interpreter_addr.go - turning a decoded Parameter into a value or a memory write
//
// Grounded on the teacher's calcEffectiveAddress16/32, which combines a
// ModR/M base/index with the current register file to produce a
// physical address; reused here almost verbatim for the base-register
// sums, but operating against the Interpreter's own segment-default
// rule (SS for any BP-based form, DS otherwise, both overridable) since
// the teacher's flat memory model has no segment concept to default.

package main

// defaultSegment picks DS, unless the addressing mode's base includes
// BP/EBP (the classic "BP defaults to SS" rule), or an explicit
// override is present.
func defaultSegment(r *Registers, mode AMode, override SegOverride) uint16 {
	if override != SegDefault {
		return segVal(r, override)
	}
	switch mode {
	case AModeBPSI, AModeBPDI, AModeBP, AModeEBP:
		return r.SS()
	default:
		return r.DS()
	}
}

func segVal(r *Registers, s SegOverride) uint16 {
	switch s {
	case SegCS:
		return r.CS()
	case SegDS:
		return r.DS()
	case SegES:
		return r.ES()
	case SegFS:
		return r.FS()
	case SegGS:
		return r.GS()
	case SegSS:
		return r.SS()
	default:
		return r.DS()
	}
}

// effectiveOffset sums an AMode's base register(s) with the decoded
// displacement, per spec.md §4.3's addressing rules.
func effectiveOffset(r *Registers, mode AMode, disp int32, addrW32 bool) uint16 {
	var base uint32
	switch mode {
	case AModeBXSI:
		base = uint32(r.BX()) + uint32(r.SI())
	case AModeBXDI:
		base = uint32(r.BX()) + uint32(r.DI())
	case AModeBPSI:
		base = uint32(r.BP()) + uint32(r.SI())
	case AModeBPDI:
		base = uint32(r.BP()) + uint32(r.DI())
	case AModeSI:
		base = uint32(r.SI())
	case AModeDI:
		base = uint32(r.DI())
	case AModeBP:
		base = uint32(r.BP())
	case AModeBX:
		base = uint32(r.BX())
	case AModeDisp16:
		base = 0
	case AModeEAX:
		base = r.EAX()
	case AModeECX:
		base = r.get32(regECX)
	case AModeEDX:
		base = r.get32(regEDX)
	case AModeEBX:
		base = r.get32(regEBX)
	case AModeESP:
		base = r.get32(regESP)
	case AModeEBP:
		base = r.get32(regEBP)
	case AModeESI:
		base = r.get32(regESI)
	case AModeEDI:
		base = r.get32(regEDI)
	case AModeDisp32:
		base = 0
	}
	sum := base + uint32(disp)
	if addrW32 {
		return uint16(sum)
	}
	return uint16(uint16(sum))
}

// resolveMem returns the concrete segment:offset a PKMem Parameter
// refers to against the current register file.
func resolveMem(r *Registers, seg SegOverride, p Parameter, addrW32 bool) (segv, offv uint16) {
	segv = defaultSegment(r, p.Mode, seg)
	offv = effectiveOffset(r, p.Mode, p.Disp, addrW32)
	return segv, offv
}

// readParam evaluates any Parameter to its numeric value, zero-extended
// into a uint32. Memory and register widths are honored; immediates
// already carry their sign/zero-extended value from the decoder.
func readParam(mach *Machine, seg SegOverride, addrW32 bool, p Parameter) uint32 {
	r := mach.CPU.Regs
	switch p.Kind {
	case PKReg:
		switch p.Width {
		case Width8:
			return uint32(r.getReg8(p.Reg))
		case Width32:
			return r.getReg32(p.Reg)
		default:
			return uint32(r.getReg16(p.Reg))
		}
	case PKSegReg:
		return uint32(r.getSeg(segReg(p.Reg)))
	case PKImm, PKImm8Signed:
		return p.Imm
	case PKMem:
		segv, offv := resolveMem(r, seg, p, addrW32)
		switch p.Width {
		case Width8:
			return uint32(mach.Mem.ReadU8(segv, offv))
		case Width32:
			return mach.Mem.ReadU32(segv, offv)
		default:
			return uint32(mach.Mem.ReadU16(segv, offv))
		}
	}
	return 0
}

// writeParam stores v into a register or memory Parameter. Writing to
// PKImm/PKRelJump is a programming error in the interpreter, not a
// guest-reachable condition, so it silently no-ops.
func writeParam(mach *Machine, seg SegOverride, addrW32 bool, p Parameter, v uint32) {
	r := mach.CPU.Regs
	switch p.Kind {
	case PKReg:
		switch p.Width {
		case Width8:
			r.setReg8(p.Reg, byte(v))
		case Width32:
			r.setReg32(p.Reg, v)
		default:
			r.setReg16(p.Reg, uint16(v))
		}
	case PKSegReg:
		r.setSeg(segReg(p.Reg), uint16(v))
	case PKMem:
		segv, offv := resolveMem(r, seg, p, addrW32)
		switch p.Width {
		case Width8:
			mach.Mem.WriteU8(segv, offv, byte(v))
		case Width32:
			mach.Mem.WriteU32(segv, offv, v)
		default:
			mach.Mem.WriteU16(segv, offv, uint16(v))
		}
	}
}
