// interpreter_string.go - MOVS/CMPS/SCAS/LODS/STOS/INS/OUTS
//
// Grounded on the teacher's string-op handlers. REP/REPE/REPNE looping
// happens as a Go for-loop inside one Execute call rather than by
// rewinding IP across repeated Machine.ExecuteInstruction calls, so a
// single decoded Instruction's REP prefix fully drains before control
// returns to the caller, per the architecture decision in
// SPEC_FULL.md §4.4.

package main

func advance(df bool, off uint16, size uint16) uint16 {
	if df {
		return off - size
	}
	return off + size
}

func sizeOf(w Width) uint16 {
	switch w {
	case Width8:
		return 1
	case Width32:
		return 4
	default:
		return 2
	}
}

// execString runs MOVS/CMPS/SCAS/LODS/STOS, looping internally when a
// REP/REPE/REPNE prefix is present.
func execString(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	sz := sizeOf(inst.Width)
	df := r.DF()

	srcSeg := defaultSegmentOverride(r, seg, r.DS())

	iterate := func() bool {
		switch inst.Op {
		case OpMovs:
			v := readAt(mach, srcSeg, r.SI(), inst.Width)
			writeAt(mach, r.ES(), r.DI(), inst.Width, v)
			r.SetSI(advance(df, r.SI(), sz))
			r.SetDI(advance(df, r.DI(), sz))
		case OpCmps:
			a := readAt(mach, srcSeg, r.SI(), inst.Width)
			b := readAt(mach, r.ES(), r.DI(), inst.Width)
			setArithFlags(r, inst.Width, a, b, 0, true)
			r.SetSI(advance(df, r.SI(), sz))
			r.SetDI(advance(df, r.DI(), sz))
		case OpScas:
			a := readAccForWidth(r, inst.Width)
			b := readAt(mach, r.ES(), r.DI(), inst.Width)
			setArithFlags(r, inst.Width, a, b, 0, true)
			r.SetDI(advance(df, r.DI(), sz))
		case OpLods:
			v := readAt(mach, srcSeg, r.SI(), inst.Width)
			writeAccForWidth(r, inst.Width, v)
			r.SetSI(advance(df, r.SI(), sz))
		case OpStos:
			v := readAccForWidth(r, inst.Width)
			writeAt(mach, r.ES(), r.DI(), inst.Width, v)
			r.SetDI(advance(df, r.DI(), sz))
		}
		return true
	}

	switch inst.Rep {
	case RepNone:
		iterate()
	case RepE: // REP for MOVS/LODS/STOS, REPE for CMPS/SCAS
		for r.CX() != 0 {
			iterate()
			r.SetCX(r.CX() - 1)
			if (inst.Op == OpCmps || inst.Op == OpScas) && !r.ZF() {
				break
			}
		}
	case RepNE:
		for r.CX() != 0 {
			iterate()
			r.SetCX(r.CX() - 1)
			if (inst.Op == OpCmps || inst.Op == OpScas) && r.ZF() {
				break
			}
		}
	}
	return nil
}

func readAt(mach *Machine, seg, off uint16, w Width) uint32 {
	switch w {
	case Width8:
		return uint32(mach.Mem.ReadU8(seg, off))
	case Width32:
		return mach.Mem.ReadU32(seg, off)
	default:
		return uint32(mach.Mem.ReadU16(seg, off))
	}
}

func writeAt(mach *Machine, seg, off uint16, w Width, v uint32) {
	switch w {
	case Width8:
		mach.Mem.WriteU8(seg, off, byte(v))
	case Width32:
		mach.Mem.WriteU32(seg, off, v)
	default:
		mach.Mem.WriteU16(seg, off, uint16(v))
	}
}

func readAccForWidth(r *Registers, w Width) uint32 {
	switch w {
	case Width8:
		return uint32(r.AL())
	case Width32:
		return r.EAX()
	default:
		return uint32(r.AX())
	}
}

func writeAccForWidth(r *Registers, w Width, v uint32) {
	switch w {
	case Width8:
		r.SetAL(byte(v))
	case Width32:
		r.SetEAX(v)
	default:
		r.SetAX(uint16(v))
	}
}

// execStringIO implements INS/OUTS: move a byte/word between an I/O
// port named by DX and the guest memory string pointer.
func execStringIO(mach *Machine, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	sz := sizeOf(inst.Width)
	df := r.DF()
	port := r.DX()

	iterate := func() {
		switch inst.Op {
		case OpIns:
			var v uint32
			if inst.Width == Width8 {
				b, ok := mach.Bus.InU8(port)
				if !ok {
					b = 0xFF
				}
				v = uint32(b)
			} else {
				w, ok := mach.Bus.InU16(port)
				if !ok {
					w = 0xFFFF
				}
				v = uint32(w)
			}
			writeAt(mach, r.ES(), r.DI(), inst.Width, v)
			r.SetDI(advance(df, r.DI(), sz))
		case OpOuts:
			v := readAt(mach, r.DS(), r.SI(), inst.Width)
			if inst.Width == Width8 {
				mach.Bus.OutU8(port, byte(v))
			} else {
				mach.Bus.OutU16(port, uint16(v))
			}
			r.SetSI(advance(df, r.SI(), sz))
		}
	}

	switch inst.Rep {
	case RepNone:
		iterate()
	default:
		for r.CX() != 0 {
			iterate()
			r.SetCX(r.CX() - 1)
		}
	}
	return nil
}
