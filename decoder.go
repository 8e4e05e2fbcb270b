// decoder.go - byte stream -> Instruction
//
// Grounded on the teacher's cpu_x86.go prefix loop, fetchModRM/fetchSIB
// caching, and calcEffectiveAddress16/32, but reshaped into the pure,
// non-executing form spec.md §4.3 requires: the teacher's Step() fetches
// one opcode byte and immediately calls a dispatch-table function that
// both decodes and executes against live CPU state; here Decode only
// ever touches Memory and its own cursor; resolving a Parameter into an
// actual address or value is the Interpreter's job (interpreter.go), so
// the same Decode also powers the non-executing Program Tracer (tracer.go).

package main

// decodeCursor walks a byte stream from a fixed code segment without
// touching any CPU register.
type decodeCursor struct {
	mem *Memory
	cs  uint16
	off uint16

	segOverride SegOverride
	rep         RepMode
	lock        bool
	opSize32    bool // 0x66 seen: operand size flips from the real-mode default of 16
	addrSize32  bool // 0x67 seen: address size flips from the real-mode default of 16

	modrm       byte
	modrmLoaded bool
}

func (c *decodeCursor) fetch8() byte {
	v := c.mem.ReadU8(c.cs, c.off)
	c.off++
	return v
}

func (c *decodeCursor) fetch16() uint16 {
	v := c.mem.ReadU16(c.cs, c.off)
	c.off += 2
	return v
}

func (c *decodeCursor) fetch32() uint32 {
	v := c.mem.ReadU32(c.cs, c.off)
	c.off += 4
	return v
}

func (c *decodeCursor) fetchModRM() byte {
	if !c.modrmLoaded {
		c.modrm = c.fetch8()
		c.modrmLoaded = true
	}
	return c.modrm
}

func (c *decodeCursor) modField() byte { return (c.fetchModRM() >> 6) & 3 }
func (c *decodeCursor) regField() byte { return (c.fetchModRM() >> 3) & 7 }
func (c *decodeCursor) rmField() byte  { return c.fetchModRM() & 7 }

// opWidth returns the default-vs-overridden operand width: 16-bit real
// mode unless 0x66 was seen, in which case 32-bit.
func (c *decodeCursor) opWidth() Width {
	if c.opSize32 {
		return Width32
	}
	return Width16
}

// Decode produces one Instruction from the byte stream at cs:ip. It
// never fails: unrecognized encodings come back as Op==OpInvalid
// carrying the offending bytes, per spec.md §4.3/§4.4.
func Decode(mem *Memory, cs, ip uint16) Instruction {
	c := &decodeCursor{mem: mem, cs: cs, off: ip, segOverride: SegDefault}
	start := ip

	var opcode byte
prefixLoop:
	for {
		opcode = c.fetch8()
		switch opcode {
		case 0x26:
			c.segOverride = SegES
		case 0x2E:
			c.segOverride = SegCS
		case 0x36:
			c.segOverride = SegSS
		case 0x3E:
			c.segOverride = SegDS
		case 0x64:
			c.segOverride = SegFS
		case 0x65:
			c.segOverride = SegGS
		case 0x66:
			c.opSize32 = true
		case 0x67:
			c.addrSize32 = true
		case 0xF0:
			c.lock = true
		case 0xF2:
			c.rep = RepNE
		case 0xF3:
			c.rep = RepE
		default:
			break prefixLoop
		}
	}

	inst := decodeOpcode(c, opcode)
	inst.Seg = c.segOverride
	inst.Rep = c.rep
	inst.Lock = c.lock
	inst.AddrW32 = c.addrSize32
	inst.Len = int(c.off - start)
	return inst
}

func invalid(bytes ...byte) Instruction {
	return Instruction{Op: OpInvalid, InvalidBytes: append([]byte(nil), bytes...)}
}

// decodeModRM fetches (if needed) the ModR/M byte and resolves its
// reg and rm fields. The rm field becomes either a register Parameter
// (mod==3) or a memory Parameter via decodeEA. width is the operand
// width to stamp onto a register-form rm; memory-form Parameters carry
// the same width so the interpreter knows how many bytes to access.
func decodeModRM(c *decodeCursor, width Width) (reg byte, rm Parameter) {
	reg = c.regField()
	if c.modField() == 3 {
		rm = Parameter{Kind: PKReg, Width: width, Reg: c.rmField()}
		return reg, rm
	}
	rm = decodeEA(c, width)
	return reg, rm
}

var ea16Modes = [8]AMode{AModeBXSI, AModeBXDI, AModeBPSI, AModeBPDI, AModeSI, AModeDI, AModeBP, AModeBX}
var ea32Modes = [8]AMode{AModeEAX, AModeECX, AModeEDX, AModeEBX, AModeESP, AModeEBP, AModeESI, AModeEDI}

// decodeEA resolves a memory-form ModR/M rm into an AMode + displacement,
// per spec.md §4.3 step 3: the classic 16-bit table, or the simplified
// SIB-less 32-bit direct-base forms.
func decodeEA(c *decodeCursor, width Width) Parameter {
	mod := c.modField()
	rm := c.rmField()

	if !c.addrSize32 {
		mode := ea16Modes[rm]
		var disp int32
		if rm == 6 && mod == 0 {
			mode = AModeDisp16
			disp = int32(int16(c.fetch16()))
		} else {
			switch mod {
			case 1:
				disp = int32(int8(c.fetch8()))
			case 2:
				disp = int32(int16(c.fetch16()))
			}
		}
		return Parameter{Kind: PKMem, Width: width, Mode: mode, Disp: disp}
	}

	mode := ea32Modes[rm]
	var disp int32
	if rm == 5 && mod == 0 {
		mode = AModeDisp32
		disp = int32(c.fetch32())
	} else {
		switch mod {
		case 1:
			disp = int32(int8(c.fetch8()))
		case 2:
			disp = int32(c.fetch32())
		}
	}
	return Parameter{Kind: PKMem, Width: width, Mode: mode, Disp: disp}
}

func regParam(idx byte, w Width) Parameter { return Parameter{Kind: PKReg, Width: w, Reg: idx} }
func segParam(idx byte) Parameter          { return Parameter{Kind: PKSegReg, Reg: idx} }
func imm8(v byte) Parameter                { return Parameter{Kind: PKImm, Width: Width8, Imm: uint32(v)} }
func imm16(v uint16) Parameter             { return Parameter{Kind: PKImm, Width: Width16, Imm: uint32(v)} }
func imm32(v uint32) Parameter             { return Parameter{Kind: PKImm, Width: Width32, Imm: v} }
func imm8signed(v byte, w Width) Parameter {
	return Parameter{Kind: PKImm8Signed, Width: w, Imm: uint32(int32(int8(v)))}
}
