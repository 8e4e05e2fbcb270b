// interpreter_io.go - IN/OUT
//
// Grounded on the teacher's port I/O dispatch in machine_bus.go, routed
// here through the same ComponentBus the interrupt dispatcher uses.

package main

func execIn(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	port := uint16(readParam(mach, inst.Seg, inst.AddrW32, inst.Params.Src))
	if inst.Width == Width8 {
		v, ok := mach.Bus.InU8(port)
		if !ok {
			v = 0xFF // floating bus
		}
		r.SetAL(v)
	} else {
		v, ok := mach.Bus.InU16(port)
		if !ok {
			v = 0xFFFF
		}
		r.SetAX(v)
	}
	return nil
}

func execOut(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	port := uint16(readParam(mach, inst.Seg, inst.AddrW32, inst.Params.Dst))
	if inst.Width == Width8 {
		mach.Bus.OutU8(port, r.AL())
	} else {
		mach.Bus.OutU16(port, r.AX())
	}
	return nil
}
