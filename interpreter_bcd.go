// interpreter_bcd.go - AAA/AAS/AAM/AAD/DAA/DAS
//
// Grounded on the teacher's BCD-adjust handlers, but DAA/DAS follow the
// Intel SDM pseudocode exactly rather than the teacher's own 0x0079/
// 0x0035-flavored deviation, per the Open Question resolution recorded
// in SPEC_FULL.md §7.

package main

func execBCD(mach *Machine, inst Instruction) error {
	r := mach.CPU.Regs
	switch inst.Op {
	case OpAaa:
		if (r.AL()&0x0F) > 9 || r.AF() {
			r.SetAX(r.AX() + 0x106)
			r.SetAF(true)
			r.SetCF(true)
		} else {
			r.SetAF(false)
			r.SetCF(false)
		}
		r.SetAL(r.AL() & 0x0F)
	case OpAas:
		if (r.AL()&0x0F) > 9 || r.AF() {
			r.SetAX(r.AX() - 6)
			r.SetAH(r.AH() - 1)
			r.SetAF(true)
			r.SetCF(true)
		} else {
			r.SetAF(false)
			r.SetCF(false)
		}
		r.SetAL(r.AL() & 0x0F)
	case OpAam:
		base := byte(10)
		al := r.AL()
		r.SetAH(al / base)
		r.SetAL(al % base)
		r.setFlagsLogic8(r.AL())
	case OpAad:
		base := byte(10)
		result := r.AH()*base + r.AL()
		r.SetAL(result)
		r.SetAH(0)
		r.setFlagsLogic8(result)
	case OpDaa:
		al := r.AL()
		oldAL := al
		oldCF := r.CF()
		cf := false
		if (al&0x0F) > 9 || r.AF() {
			carry := al > 0xF9
			al += 6
			r.SetAF(true)
			cf = oldCF || carry
		} else {
			r.SetAF(false)
		}
		if oldAL > 0x99 || oldCF {
			al += 0x60
			cf = true
		}
		r.SetCF(cf)
		r.SetAL(al)
		setFlagsSZP8(r, al)
	case OpDas:
		al := r.AL()
		oldAL := al
		oldCF := r.CF()
		cf := false
		if (al&0x0F) > 9 || r.AF() {
			carry := al < 6
			al -= 6
			r.SetAF(true)
			cf = oldCF || carry
		} else {
			r.SetAF(false)
		}
		if oldAL > 0x99 || oldCF {
			al -= 0x60
			cf = true
		}
		r.SetCF(cf)
		r.SetAL(al)
		setFlagsSZP8(r, al)
	}
	return nil
}

// setFlagsSZP8 sets SF/ZF/PF without disturbing CF/AF/OF, matching how
// DAA/DAS report their result flags per the Intel SDM.
func setFlagsSZP8(r *Registers, v byte) {
	r.SetZF(v == 0)
	r.SetSF(v&0x80 != 0)
	r.SetPF(parity(v))
}
