// interpreter_stack.go - PUSH/POP/PUSHA/POPA
//
// Grounded on the teacher's stack op handlers in cpu_x86_ops.go, which
// always move SP by 2 or 4 depending on the instruction's own operand
// width rather than the current stack-segment's default, matching how
// real 16-bit-mode PUSH/POP behave regardless of 0x66.

package main

func pushSize(inst Instruction) uint16 {
	if inst.Width == Width32 {
		return 4
	}
	return 2
}

func execPush(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	v := readParam(mach, seg, addrW32, inst.Params.Dst)
	sz := pushSize(inst)
	sp := r.SP() - sz
	if sz == 4 {
		mach.Mem.WriteU32(r.SS(), sp, v)
	} else {
		mach.Mem.WriteU16(r.SS(), sp, uint16(v))
	}
	r.SetSP(sp)
	return nil
}

func execPop(mach *Machine, seg SegOverride, addrW32 bool, inst Instruction) error {
	r := mach.CPU.Regs
	sp := r.SP()
	sz := pushSize(inst)
	var v uint32
	if sz == 4 {
		v = mach.Mem.ReadU32(r.SS(), sp)
	} else {
		v = uint32(mach.Mem.ReadU16(r.SS(), sp))
	}
	r.SetSP(sp + sz)
	writeParam(mach, seg, addrW32, inst.Params.Dst, v)
	return nil
}

// pushaOrder is the 8086 PUSHA/POPA register order: AX,CX,DX,BX, the
// pre-push SP, BP,SI,DI. PUSHAD/POPAD (operand-size override 0x66)
// generalize the same order to the 32-bit register halves.
func execPusha(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	if inst.Width == Width32 {
		sp0 := r.ESP()
		vals := []uint32{r.EAX(), r.ECX(), r.EDX(), r.EBX(), sp0, r.EBP(), r.ESI(), r.EDI()}
		sp := sp0
		for _, v := range vals {
			sp -= 4
			mach.Mem.WriteU32(r.SS(), uint16(sp), v)
		}
		r.SetESP(sp)
		return nil
	}
	sp0 := r.SP()
	vals := []uint16{r.AX(), r.CX(), r.DX(), r.BX(), sp0, r.BP(), r.SI(), r.DI()}
	sp := sp0
	for _, v := range vals {
		sp -= 2
		mach.Mem.WriteU16(r.SS(), sp, v)
	}
	r.SetSP(sp)
	return nil
}

func execPopa(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	if inst.Width == Width32 {
		sp := r.ESP()
		di := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		si := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		bp := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		sp += 4 // discard the saved ESP slot
		bx := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		dx := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		cx := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		ax := mach.Mem.ReadU32(r.SS(), uint16(sp))
		sp += 4
		r.SetEDI(di)
		r.SetESI(si)
		r.SetEBP(bp)
		r.SetEBX(bx)
		r.SetEDX(dx)
		r.SetECX(cx)
		r.SetEAX(ax)
		r.SetESP(sp)
		return nil
	}
	sp := r.SP()
	di := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	si := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	bp := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	sp += 2 // discard the saved SP slot
	bx := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	dx := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	cx := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	ax := mach.Mem.ReadU16(r.SS(), sp)
	sp += 2
	r.SetDI(di)
	r.SetSI(si)
	r.SetBP(bp)
	r.SetBX(bx)
	r.SetDX(dx)
	r.SetCX(cx)
	r.SetAX(ax)
	r.SetSP(sp)
	return nil
}
