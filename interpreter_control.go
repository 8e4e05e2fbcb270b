// interpreter_control.go - CALL/RET/JMP/Jcc/LOOP*/INT/IRET/SETcc
//
// Grounded on the teacher's branch/call dispatch and its condition-code
// predicate table; the conditions themselves follow the Intel Jcc/SETcc
// encoding order (0=JO..15=JG) spec.md §4.4 specifies.

package main

// evalCond evaluates one of the 16 Jcc/SETcc conditions against FLAGS.
func evalCond(r *Registers, cond int) bool {
	switch cond {
	case 0: // JO
		return r.OF()
	case 1: // JNO
		return !r.OF()
	case 2: // JB/JC
		return r.CF()
	case 3: // JAE/JNC
		return !r.CF()
	case 4: // JE/JZ
		return r.ZF()
	case 5: // JNE/JNZ
		return !r.ZF()
	case 6: // JBE
		return r.CF() || r.ZF()
	case 7: // JA
		return !r.CF() && !r.ZF()
	case 8: // JS
		return r.SF()
	case 9: // JNS
		return !r.SF()
	case 10: // JP/JPE
		return r.PF()
	case 11: // JNP/JPO
		return !r.PF()
	case 12: // JL
		return r.SF() != r.OF()
	case 13: // JGE
		return r.SF() == r.OF()
	case 14: // JLE
		return r.ZF() || (r.SF() != r.OF())
	default: // JG
		return !r.ZF() && (r.SF() == r.OF())
	}
}

func execControl(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs

	switch inst.Op {
	case OpJmpShort, OpJmpNear:
		r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
	case OpJmpFar:
		if inst.Params.Src.Kind == PKImm {
			r.SetIP(uint16(inst.Params.Dst.Imm))
			r.SetCS(uint16(inst.Params.Src.Imm))
		} else {
			segv, offv := resolveMem(r, seg, inst.Params.Dst, addrW32)
			off := mach.Mem.ReadU16(segv, offv)
			newSeg := mach.Mem.ReadU16(segv, offv+2)
			r.SetIP(off)
			r.SetCS(newSeg)
		}
	case OpJmpIndirect:
		target := readParam(mach, seg, addrW32, inst.Params.Dst)
		r.SetIP(uint16(target))

	case OpJcc:
		if evalCond(r, inst.Cond) {
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		}
	case OpSetcc:
		v := byte(0)
		if evalCond(r, inst.Cond) {
			v = 1
		}
		writeParam(mach, seg, addrW32, inst.Params.Dst, uint32(v))

	case OpLoop:
		r.SetCX(r.CX() - 1)
		if r.CX() != 0 {
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		}
	case OpLoope:
		r.SetCX(r.CX() - 1)
		if r.CX() != 0 && r.ZF() {
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		}
	case OpLoopne:
		r.SetCX(r.CX() - 1)
		if r.CX() != 0 && !r.ZF() {
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		}
	case OpJcxz:
		if r.CX() == 0 {
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		}

	case OpCallNear:
		if inst.Params.Dst.Kind == PKRelJump {
			pushRet(mach, r.IP())
			r.SetIP(uint16(int32(r.IP()) + inst.Params.Dst.Disp))
		} else {
			target := readParam(mach, seg, addrW32, inst.Params.Dst)
			pushRet(mach, r.IP())
			r.SetIP(uint16(target))
		}
	case OpCallFar:
		var off, newSeg uint16
		if inst.Params.Src.Kind == PKImm {
			off = uint16(inst.Params.Dst.Imm)
			newSeg = uint16(inst.Params.Src.Imm)
		} else {
			segv, offv := resolveMem(r, seg, inst.Params.Dst, addrW32)
			off = mach.Mem.ReadU16(segv, offv)
			newSeg = mach.Mem.ReadU16(segv, offv+2)
		}
		pushRet(mach, r.CS())
		pushRet(mach, r.IP())
		r.SetCS(newSeg)
		r.SetIP(off)

	case OpRetNear:
		ip := popRet(mach)
		r.SetIP(ip)
		if inst.Params.Dst.Kind == PKImm {
			r.SetSP(r.SP() + uint16(inst.Params.Dst.Imm))
		}
	case OpRetFar:
		ip := popRet(mach)
		cs := popRet(mach)
		r.SetIP(ip)
		r.SetCS(cs)
		if inst.Params.Dst.Kind == PKImm {
			r.SetSP(r.SP() + uint16(inst.Params.Dst.Imm))
		}

	case OpInt:
		mach.RaiseInterrupt(byte(inst.Params.Dst.Imm))
	case OpInto:
		if r.OF() {
			mach.RaiseInterrupt(4)
		}
	case OpIret:
		mach.Iret()
	}
	return nil
}

func pushRet(mach *Machine, v uint16) {
	r := mach.CPU.Regs
	sp := r.SP() - 2
	mach.Mem.WriteU16(r.SS(), sp, v)
	r.SetSP(sp)
}

func popRet(mach *Machine) uint16 {
	r := mach.CPU.Regs
	sp := r.SP()
	v := mach.Mem.ReadU16(r.SS(), sp)
	r.SetSP(sp + 2)
	return v
}
