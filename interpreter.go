// interpreter.go - executing a decoded Instruction against a Machine
//
// Grounded on the teacher's cpu_x86_ops.go/cpu_x86_grp.go op handlers,
// which each read operands straight out of CPU_X86's own fetch/decode
// step; generalized here to operate on an already-decoded Instruction
// so the same op handlers never need to know whether Decode ran a
// moment ago (normal execution) or minutes ago (the Program Tracer
// replaying a worklist). One switch over Op, exactly as spec.md §9
// calls for instead of a handler-per-type hierarchy.

package main

// Execute runs one decoded Instruction against mach, mutating its CPU
// and Memory. The caller (Machine.ExecuteInstruction) has already
// advanced IP past the instruction's bytes; control-transfer handlers
// overwrite IP/CS themselves.
func Execute(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	seg := inst.Seg
	addrW32 := inst.AddrW32

	switch inst.Op {
	case OpNop:
		return nil
	case OpHlt:
		// With no asynchronous interrupt sources to wake on, HLT degrades
		// to a no-op rather than wedging the frame loop.
		return nil

	case OpMov:
		v := readParam(mach, seg, addrW32, inst.Params.Src)
		writeParam(mach, seg, addrW32, inst.Params.Dst, v)
		return nil
	case OpMovzx:
		v := readSrcNarrow(mach, seg, addrW32, inst.Params.Src)
		writeParam(mach, seg, addrW32, inst.Params.Dst, v)
		return nil
	case OpMovsx:
		v := readSrcNarrowSigned(mach, seg, addrW32, inst.Params.Src)
		writeParam(mach, seg, addrW32, inst.Params.Dst, v)
		return nil
	case OpLea:
		segv, offv := resolveMem(r, seg, inst.Params.Src, addrW32)
		_ = segv
		writeParam(mach, seg, addrW32, inst.Params.Dst, uint32(offv))
		return nil
	case OpXchg:
		a := readParam(mach, seg, addrW32, inst.Params.Dst)
		b := readParam(mach, seg, addrW32, inst.Params.Src)
		writeParam(mach, seg, addrW32, inst.Params.Dst, b)
		writeParam(mach, seg, addrW32, inst.Params.Src, a)
		return nil
	case OpLds, OpLes:
		segv, offv := resolveMem(r, seg, inst.Params.Src, addrW32)
		off := mach.Mem.ReadU16(segv, offv)
		newSeg := mach.Mem.ReadU16(segv, offv+2)
		writeParam(mach, seg, addrW32, inst.Params.Dst, uint32(off))
		if inst.Op == OpLds {
			r.SetDS(newSeg)
		} else {
			r.SetES(newSeg)
		}
		return nil
	case OpXlat:
		addr := uint16(uint32(r.BX()) + uint32(r.AL()))
		v := mach.Mem.ReadU8(defaultSegmentOverride(r, seg, r.DS()), addr)
		r.SetAL(v)
		return nil

	case OpPush:
		return execPush(mach, seg, addrW32, inst)
	case OpPop:
		return execPop(mach, seg, addrW32, inst)
	case OpPusha:
		return execPusha(mach, inst)
	case OpPopa:
		return execPopa(mach, inst)
	case OpPushf:
		sp := r.SP() - 2
		mach.Mem.WriteU16(r.SS(), sp, uint16(r.Flags()))
		r.SetSP(sp)
		return nil
	case OpPopf:
		sp := r.SP()
		v := mach.Mem.ReadU16(r.SS(), sp)
		r.SetFlags(uint32(v) | 0x0002)
		r.SetSP(sp + 2)
		return nil

	case OpClc:
		r.SetCF(false)
		return nil
	case OpStc:
		r.SetCF(true)
		return nil
	case OpCmc:
		r.SetCF(!r.CF())
		return nil
	case OpCld:
		r.SetDF(false)
		return nil
	case OpStd:
		r.SetDF(true)
		return nil
	case OpCli:
		r.SetIF(false)
		return nil
	case OpSti:
		r.SetIF(true)
		return nil
	case OpLahf:
		r.SetAH(byte(r.Flags()))
		return nil
	case OpSahf:
		mask := uint32(flagCF | flagPF | flagAF | flagZF | flagSF)
		r.SetFlags((r.Flags() &^ mask) | (uint32(r.AH()) & mask))
		return nil
	case OpSalc:
		if r.CF() {
			r.SetAL(0xFF)
		} else {
			r.SetAL(0x00)
		}
		return nil

	case OpAdd, OpAdc, OpSub, OpSbb, OpCmp, OpAnd, OpOr, OpXor, OpTest:
		return execALU(mach, seg, addrW32, inst)
	case OpInc, OpDec, OpNeg, OpNot:
		return execUnary(mach, seg, addrW32, inst)
	case OpMul, OpImul, OpDiv, OpIdiv:
		return execMulDiv(mach, seg, addrW32, inst)
	case OpCbw, OpCwd, OpCwde:
		return execSignExtendAcc(mach, inst)
	case OpBt:
		return execBt(mach, seg, addrW32, inst)
	case OpBsf:
		return execBsf(mach, seg, addrW32, inst)
	case OpSldt:
		writeParam(mach, seg, addrW32, inst.Params.Dst, 0)
		return nil

	case OpShl, OpShr, OpSar, OpRol, OpRor, OpRcl, OpRcr:
		return execShift(mach, seg, addrW32, inst)
	case OpShld, OpShrd:
		return execDoubleShift(mach, seg, addrW32, inst)

	case OpAaa, OpAas, OpAam, OpAad, OpDaa, OpDas:
		return execBCD(mach, inst)

	case OpMovs, OpCmps, OpScas, OpLods, OpStos:
		return execString(mach, seg, addrW32, inst)
	case OpIns, OpOuts:
		return execStringIO(mach, addrW32, inst)

	case OpIn:
		return execIn(mach, inst)
	case OpOut:
		return execOut(mach, inst)

	case OpCallNear, OpCallFar, OpRetNear, OpRetFar,
		OpJmpShort, OpJmpNear, OpJmpFar, OpJmpIndirect,
		OpJcc, OpLoop, OpLoope, OpLoopne, OpJcxz,
		OpInt, OpInto, OpIret, OpSetcc:
		return execControl(mach, seg, addrW32, inst)
	}

	return nil
}

// readSrcNarrow reads a Src Parameter whose decoded Width is the
// *narrow* source width, zero-extending to the Dst width the caller
// will write (MOVZX's defining property).
func readSrcNarrow(mach *Machine, seg SegOverride, addrW32 bool, src Parameter) uint32 {
	return readParam(mach, seg, addrW32, src)
}

// readSrcNarrowSigned is readSrcNarrow's MOVSX counterpart: the narrow
// value is sign-extended, not zero-extended.
func readSrcNarrowSigned(mach *Machine, seg SegOverride, addrW32 bool, src Parameter) uint32 {
	v := readParam(mach, seg, addrW32, src)
	switch src.Width {
	case Width8:
		return uint32(int32(int8(v)))
	default:
		return uint32(int32(int16(v)))
	}
}

func defaultSegmentOverride(r *Registers, seg SegOverride, fallback uint16) uint16 {
	if seg == SegDefault {
		return fallback
	}
	return segVal(r, seg)
}
