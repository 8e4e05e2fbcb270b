// registers.go - register file and FLAGS
//
// Grounded on the teacher's cpu_x86.go register-access section: eight
// GPRs stored as 32-bit cells with masking accessors for the 8/16-bit
// aliased views (AL/AH/AX all read through EAX, etc.), plus the
// teacher's setFlagsArith8/16/32 and setFlagsLogic8/16/32 helpers. The
// teacher keeps these as methods directly on CPU_X86; here they move
// onto a standalone Registers type so the Decoder never needs a *CPU
// and the Tracer can keep its own shadow copy with the same API.

package main

// gpr names the eight aliasable general-purpose register slots, in
// ModR/M encoding order: EAX, ECX, EDX, EBX, ESP, EBP, ESI, EDI.
type gpr int

const (
	regEAX gpr = iota
	regECX
	regEDX
	regEBX
	regESP
	regEBP
	regESI
	regEDI
)

// segReg names the six segment registers, in the order spec.md's
// SegOverride enumerates them after Default.
type segReg int

const (
	segES segReg = iota
	segCS
	segSS
	segDS
	segFS
	segGS
)

// Flag bit positions within the 16 low bits of FLAGS that this engine models.
const (
	flagCF = 1 << 0
	flagPF = 1 << 2
	flagAF = 1 << 4
	flagZF = 1 << 6
	flagSF = 1 << 7
	flagTF = 1 << 8
	flagIF = 1 << 9
	flagDF = 1 << 10
	flagOF = 1 << 11
)

// Registers holds the eight GPRs, six segment registers, EIP, and FLAGS.
type Registers struct {
	gprs  [8]uint32
	segs  [6]uint16
	eip   uint32
	flags uint32
}

// NewRegisters returns a Registers in its post-reset state: FLAGS clears to
// the reserved bit 1 only set, matching real 8086 power-on FLAGS=0x0002.
func NewRegisters() *Registers {
	r := &Registers{}
	r.flags = 0x0002
	return r
}

// --- 32-bit GPR access ---

func (r *Registers) get32(g gpr) uint32 { return r.gprs[g] }
func (r *Registers) set32(g gpr, v uint32) { r.gprs[g] = v }

// --- 16-bit GPR access (low half; high half of the 32-bit cell is preserved) ---

func (r *Registers) get16(g gpr) uint16 { return uint16(r.gprs[g]) }
func (r *Registers) set16(g gpr, v uint16) {
	r.gprs[g] = (r.gprs[g] &^ 0xFFFF) | uint32(v)
}

// --- 8-bit GPR access (only AX/CX/DX/BX have low/high byte aliases) ---

func (r *Registers) get8Low(g gpr) byte  { return byte(r.gprs[g]) }
func (r *Registers) get8High(g gpr) byte { return byte(r.gprs[g] >> 8) }
func (r *Registers) set8Low(g gpr, v byte) {
	r.gprs[g] = (r.gprs[g] &^ 0xFF) | uint32(v)
}
func (r *Registers) set8High(g gpr, v byte) {
	r.gprs[g] = (r.gprs[g] &^ 0xFF00) | uint32(v)<<8
}

// getReg8 returns an 8-bit register by ModR/M index (0-7: AL,CL,DL,BL,AH,CH,DH,BH).
func (r *Registers) getReg8(idx byte) byte {
	if idx < 4 {
		return r.get8Low(gpr(idx))
	}
	return r.get8High(gpr(idx - 4))
}

func (r *Registers) setReg8(idx byte, v byte) {
	if idx < 4 {
		r.set8Low(gpr(idx), v)
	} else {
		r.set8High(gpr(idx-4), v)
	}
}

func (r *Registers) getReg16(idx byte) uint16   { return r.get16(gpr(idx & 7)) }
func (r *Registers) setReg16(idx byte, v uint16) { r.set16(gpr(idx&7), v) }
func (r *Registers) getReg32(idx byte) uint32    { return r.get32(gpr(idx & 7)) }
func (r *Registers) setReg32(idx byte, v uint32) { r.set32(gpr(idx&7), v) }

// Named accessors for the interpreter/tracer's everyday use.
func (r *Registers) AX() uint16 { return r.get16(regEAX) }
func (r *Registers) CX() uint16 { return r.get16(regECX) }
func (r *Registers) DX() uint16 { return r.get16(regEDX) }
func (r *Registers) BX() uint16 { return r.get16(regEBX) }
func (r *Registers) SP() uint16 { return r.get16(regESP) }
func (r *Registers) BP() uint16 { return r.get16(regEBP) }
func (r *Registers) SI() uint16 { return r.get16(regESI) }
func (r *Registers) DI() uint16 { return r.get16(regEDI) }

func (r *Registers) SetAX(v uint16) { r.set16(regEAX, v) }
func (r *Registers) SetCX(v uint16) { r.set16(regECX, v) }
func (r *Registers) SetDX(v uint16) { r.set16(regEDX, v) }
func (r *Registers) SetBX(v uint16) { r.set16(regEBX, v) }
func (r *Registers) SetSP(v uint16) { r.set16(regESP, v) }
func (r *Registers) SetBP(v uint16) { r.set16(regEBP, v) }
func (r *Registers) SetSI(v uint16) { r.set16(regESI, v) }
func (r *Registers) SetDI(v uint16) { r.set16(regEDI, v) }

func (r *Registers) AL() byte { return r.get8Low(regEAX) }
func (r *Registers) AH() byte { return r.get8High(regEAX) }
func (r *Registers) SetAL(v byte) { r.set8Low(regEAX, v) }
func (r *Registers) SetAH(v byte) { r.set8High(regEAX, v) }

func (r *Registers) CL() byte { return r.get8Low(regECX) }
func (r *Registers) CH() byte { return r.get8High(regECX) }
func (r *Registers) SetCL(v byte) { r.set8Low(regECX, v) }
func (r *Registers) SetCH(v byte) { r.set8High(regECX, v) }

func (r *Registers) DL() byte { return r.get8Low(regEDX) }
func (r *Registers) DH() byte { return r.get8High(regEDX) }
func (r *Registers) SetDL(v byte) { r.set8Low(regEDX, v) }
func (r *Registers) SetDH(v byte) { r.set8High(regEDX, v) }

func (r *Registers) BL() byte { return r.get8Low(regEBX) }
func (r *Registers) BH() byte { return r.get8High(regEBX) }
func (r *Registers) SetBL(v byte) { r.set8Low(regEBX, v) }
func (r *Registers) SetBH(v byte) { r.set8High(regEBX, v) }

func (r *Registers) EAX() uint32 { return r.get32(regEAX) }
func (r *Registers) ECX() uint32 { return r.get32(regECX) }
func (r *Registers) EDX() uint32 { return r.get32(regEDX) }
func (r *Registers) EBX() uint32 { return r.get32(regEBX) }
func (r *Registers) ESP() uint32 { return r.get32(regESP) }
func (r *Registers) EBP() uint32 { return r.get32(regEBP) }
func (r *Registers) ESI() uint32 { return r.get32(regESI) }
func (r *Registers) EDI() uint32 { return r.get32(regEDI) }

func (r *Registers) SetEAX(v uint32) { r.set32(regEAX, v) }
func (r *Registers) SetECX(v uint32) { r.set32(regECX, v) }
func (r *Registers) SetEDX(v uint32) { r.set32(regEDX, v) }
func (r *Registers) SetEBX(v uint32) { r.set32(regEBX, v) }
func (r *Registers) SetESP(v uint32) { r.set32(regESP, v) }
func (r *Registers) SetEBP(v uint32) { r.set32(regEBP, v) }
func (r *Registers) SetESI(v uint32) { r.set32(regESI, v) }
func (r *Registers) SetEDI(v uint32) { r.set32(regEDI, v) }

// IP returns the low 16 bits of EIP.
func (r *Registers) IP() uint16 { return uint16(r.eip) }

// SetIP sets the low 16 bits of EIP, leaving the high bits untouched -
// real-mode code never runs with a nonzero high half, but this mirrors
// the same low/high split every other 16-bit alias uses.
func (r *Registers) SetIP(v uint16) { r.eip = (r.eip &^ 0xFFFF) | uint32(v) }

func (r *Registers) EIP() uint32     { return r.eip }
func (r *Registers) SetEIP(v uint32) { r.eip = v }

// --- Segment registers ---

func (r *Registers) getSeg(s segReg) uint16   { return r.segs[s] }
func (r *Registers) setSeg(s segReg, v uint16) { r.segs[s] = v }

func (r *Registers) CS() uint16 { return r.segs[segCS] }
func (r *Registers) DS() uint16 { return r.segs[segDS] }
func (r *Registers) ES() uint16 { return r.segs[segES] }
func (r *Registers) SS() uint16 { return r.segs[segSS] }
func (r *Registers) FS() uint16 { return r.segs[segFS] }
func (r *Registers) GS() uint16 { return r.segs[segGS] }

func (r *Registers) SetCS(v uint16) { r.segs[segCS] = v }
func (r *Registers) SetDS(v uint16) { r.segs[segDS] = v }
func (r *Registers) SetES(v uint16) { r.segs[segES] = v }
func (r *Registers) SetSS(v uint16) { r.segs[segSS] = v }
func (r *Registers) SetFS(v uint16) { r.segs[segFS] = v }
func (r *Registers) SetGS(v uint16) { r.segs[segGS] = v }

// --- FLAGS ---

func (r *Registers) Flags() uint32     { return r.flags }
func (r *Registers) SetFlags(v uint32) { r.flags = v }

func (r *Registers) getFlag(mask uint32) bool { return r.flags&mask != 0 }
func (r *Registers) setFlag(mask uint32, v bool) {
	if v {
		r.flags |= mask
	} else {
		r.flags &^= mask
	}
}

func (r *Registers) CF() bool { return r.getFlag(flagCF) }
func (r *Registers) PF() bool { return r.getFlag(flagPF) }
func (r *Registers) AF() bool { return r.getFlag(flagAF) }
func (r *Registers) ZF() bool { return r.getFlag(flagZF) }
func (r *Registers) SF() bool { return r.getFlag(flagSF) }
func (r *Registers) TF() bool { return r.getFlag(flagTF) }
func (r *Registers) IF() bool { return r.getFlag(flagIF) }
func (r *Registers) DF() bool { return r.getFlag(flagDF) }
func (r *Registers) OF() bool { return r.getFlag(flagOF) }

func (r *Registers) SetCF(v bool) { r.setFlag(flagCF, v) }
func (r *Registers) SetPF(v bool) { r.setFlag(flagPF, v) }
func (r *Registers) SetAF(v bool) { r.setFlag(flagAF, v) }
func (r *Registers) SetZF(v bool) { r.setFlag(flagZF, v) }
func (r *Registers) SetSF(v bool) { r.setFlag(flagSF, v) }
func (r *Registers) SetTF(v bool) { r.setFlag(flagTF, v) }
func (r *Registers) SetIF(v bool) { r.setFlag(flagIF, v) }
func (r *Registers) SetDF(v bool) { r.setFlag(flagDF, v) }
func (r *Registers) SetOF(v bool) { r.setFlag(flagOF, v) }

// parity reports true (PF=1) when the low byte of v has an even number
// of set bits, exactly as the hardware parity flag is defined.
func parity(v byte) bool {
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 == 0
}

// setFlagsArith8 derives CF/ZF/SF/PF/AF/OF from an 8-bit add/sub.
// carry is the ADC/SBB carry-in (0 otherwise), threaded separately so
// the nibble-level AF test sees the ripple it produces instead of a
// pre-combined operand truncated back to the width.
func (r *Registers) setFlagsArith8(a, b, carry byte, sub bool) {
	var res byte
	if sub {
		res = a - b - carry
		r.SetCF(uint16(a) < uint16(b)+uint16(carry))
		r.SetAF(a&0x0F < b&0x0F+carry)
		r.SetOF(((a^b)&(a^res))&0x80 != 0)
	} else {
		wide := uint16(a) + uint16(b) + uint16(carry)
		res = byte(wide)
		r.SetCF(wide > 0xFF)
		r.SetAF(a&0x0F+b&0x0F+carry > 0x0F)
		r.SetOF((^(a^b)&(a^res))&0x80 != 0)
	}
	r.SetZF(res == 0)
	r.SetSF(res&0x80 != 0)
	r.SetPF(parity(res))
}

// setFlagsArith16 derives CF/ZF/SF/PF/AF/OF from a 16-bit add/sub.
func (r *Registers) setFlagsArith16(a, b, carry uint16, sub bool) {
	var res uint16
	if sub {
		res = a - b - carry
		r.SetCF(uint32(a) < uint32(b)+uint32(carry))
		r.SetAF(a&0x0F < b&0x0F+carry)
		r.SetOF(((a^b)&(a^res))&0x8000 != 0)
	} else {
		wide := uint32(a) + uint32(b) + uint32(carry)
		res = uint16(wide)
		r.SetCF(wide > 0xFFFF)
		r.SetAF(a&0x0F+b&0x0F+carry > 0x0F)
		r.SetOF((^(a^b)&(a^res))&0x8000 != 0)
	}
	r.SetZF(res == 0)
	r.SetSF(res&0x8000 != 0)
	r.SetPF(parity(byte(res)))
}

// setFlagsArith32 derives CF/ZF/SF/PF/AF/OF from a 32-bit add/sub.
func (r *Registers) setFlagsArith32(a, b, carry uint32, sub bool) {
	var res uint32
	if sub {
		res = a - b - carry
		r.SetCF(uint64(a) < uint64(b)+uint64(carry))
		r.SetAF(a&0x0F < b&0x0F+carry)
		r.SetOF(((a^b)&(a^res))&0x80000000 != 0)
	} else {
		wide := uint64(a) + uint64(b) + uint64(carry)
		res = uint32(wide)
		r.SetCF(wide > 0xFFFFFFFF)
		r.SetAF(a&0x0F+b&0x0F+carry > 0x0F)
		r.SetOF((^(a^b)&(a^res))&0x80000000 != 0)
	}
	r.SetZF(res == 0)
	r.SetSF(res&0x80000000 != 0)
	r.SetPF(parity(byte(res)))
}

// setFlagsLogic8/16/32 clear CF/OF and set SF/ZF/PF; AF is left undefined.
func (r *Registers) setFlagsLogic8(result byte) {
	r.SetCF(false)
	r.SetOF(false)
	r.SetZF(result == 0)
	r.SetSF(result&0x80 != 0)
	r.SetPF(parity(result))
}

func (r *Registers) setFlagsLogic16(result uint16) {
	r.SetCF(false)
	r.SetOF(false)
	r.SetZF(result == 0)
	r.SetSF(result&0x8000 != 0)
	r.SetPF(parity(byte(result)))
}

func (r *Registers) setFlagsLogic32(result uint32) {
	r.SetCF(false)
	r.SetOF(false)
	r.SetZF(result == 0)
	r.SetSF(result&0x80000000 != 0)
	r.SetPF(parity(byte(result)))
}

// String renders FLAGS in the canonical 8086 mnemonic order, for diagnostics.
func (r *Registers) String() string {
	bits := []struct {
		name string
		set  bool
	}{
		{"OF", r.OF()}, {"DF", r.DF()}, {"IF", r.IF()}, {"TF", r.TF()},
		{"SF", r.SF()}, {"ZF", r.ZF()}, {"AF", r.AF()}, {"PF", r.PF()}, {"CF", r.CF()},
	}
	out := make([]byte, 0, 32)
	for _, b := range bits {
		if b.set {
			out = append(out, b.name...)
			out = append(out, ' ')
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return string(out[:len(out)-1])
}
