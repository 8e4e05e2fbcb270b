// decoder_test.go - byte stream -> Instruction decoding

package main

import "testing"

func loadCode(mem *Memory, seg, off uint16, bytes []byte) {
	for i, b := range bytes {
		mem.WriteU8(seg, off+uint16(i), b)
	}
}

// TestDecode_IsPure checks spec.md §4.3's purity contract: decoding the
// same bytes twice in a row produces identical Instructions and never
// mutates memory.
func TestDecode_IsPure(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0x0100, []byte{0x01, 0xD8}) // ADD AX, BX
	before := append([]byte(nil), mem.Read(0x1000, 0x0100, 2)...)

	first := Decode(mem, 0x1000, 0x0100)
	second := Decode(mem, 0x1000, 0x0100)

	if first.Op != second.Op || first.Params != second.Params || first.Len != second.Len {
		t.Errorf("decoding the same bytes twice gave different results: %+v vs %+v", first, second)
	}
	after := mem.Read(0x1000, 0x0100, 2)
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("Decode mutated memory at offset %d: %02X -> %02X", i, before[i], after[i])
		}
	}
}

// TestDecode_ModRMEffectiveAddressForms checks spec.md §4.3 step 3's
// 16-bit EA table across the mod=00/01/10/11 cases.
func TestDecode_ModRMEffectiveAddressForms(t *testing.T) {
	mem := NewMemory()
	cases := []struct {
		name     string
		bytes    []byte
		wantMode AMode
		wantDisp int32
	}{
		{"mod00 [BX+SI]", []byte{0x8B, 0x00}, AModeBXSI, 0},
		{"mod00 rm6 disp16", []byte{0x8B, 0x06, 0x34, 0x12}, AModeDisp16, 0x1234},
		{"mod01 [BP+DI+disp8]", []byte{0x8B, 0x43, 0x10}, AModeBPDI, 0x10},
		{"mod01 [BP+DI-disp8]", []byte{0x8B, 0x43, 0xF0}, AModeBPDI, -16},
		{"mod10 [SI+disp16]", []byte{0x8B, 0x84, 0x00, 0x01}, AModeSI, 0x0100},
		{"mod11 register", []byte{0x8B, 0xC3}, AModeNone, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			loadCode(mem, 0x1000, 0, c.bytes)
			inst := Decode(mem, 0x1000, 0)
			if inst.Op != OpMov {
				t.Fatalf("Op = %v, want OpMov", inst.Op)
			}
			if c.wantMode == AModeNone {
				if inst.Params.Src.Kind != PKReg {
					t.Errorf("Src.Kind = %v, want PKReg", inst.Params.Src.Kind)
				}
				return
			}
			if inst.Params.Src.Mode != c.wantMode {
				t.Errorf("Src.Mode = %v, want %v", inst.Params.Src.Mode, c.wantMode)
			}
			if inst.Params.Src.Disp != c.wantDisp {
				t.Errorf("Src.Disp = %d, want %d", inst.Params.Src.Disp, c.wantDisp)
			}
			if int(inst.Len) != len(c.bytes) {
				t.Errorf("Len = %d, want %d", inst.Len, len(c.bytes))
			}
		})
	}
}

// TestDecode_SegmentOverridePrefixes checks every one-byte segment
// override prefix resolves to the right SegOverride.
func TestDecode_SegmentOverridePrefixes(t *testing.T) {
	cases := []struct {
		prefix byte
		want   SegOverride
	}{
		{0x26, SegES}, {0x2E, SegCS}, {0x36, SegSS}, {0x3E, SegDS}, {0x64, SegFS}, {0x65, SegGS},
	}
	mem := NewMemory()
	for _, c := range cases {
		loadCode(mem, 0x1000, 0, []byte{c.prefix, 0x90}) // prefix + NOP
		inst := Decode(mem, 0x1000, 0)
		if inst.Seg != c.want {
			t.Errorf("prefix 0x%02X: Seg = %v, want %v", c.prefix, inst.Seg, c.want)
		}
		if inst.Len != 2 {
			t.Errorf("prefix 0x%02X: Len = %d, want 2", c.prefix, inst.Len)
		}
	}
}

// TestDecode_RepPrefixes checks F2/F3 decode into RepNE/RepE.
func TestDecode_RepPrefixes(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0xF3, 0xA4}) // REP MOVSB
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpMovs || inst.Rep != RepE {
		t.Errorf("REP MOVSB decoded as Op=%v Rep=%v", inst.Op, inst.Rep)
	}

	loadCode(mem, 0x1000, 0, []byte{0xF2, 0xAE}) // REPNE SCASB
	inst = Decode(mem, 0x1000, 0)
	if inst.Op != OpScas || inst.Rep != RepNE {
		t.Errorf("REPNE SCASB decoded as Op=%v Rep=%v", inst.Op, inst.Rep)
	}
}

// TestDecode_RelativeJumpSignExtension checks spec.md §4.3's edge case:
// short-jump displacements are sign-extended 8-bit values.
func TestDecode_RelativeJumpSignExtension(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0xEB, 0xFE}) // JMP short -2 (infinite loop to self)
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpJmpShort {
		t.Fatalf("Op = %v, want OpJmpShort", inst.Op)
	}
	if inst.Params.Dst.Disp != -2 {
		t.Errorf("Disp = %d, want -2", inst.Params.Dst.Disp)
	}
}

// TestDecode_UnknownEncodingReturnsInvalid checks spec.md §4.3/§7: an
// unrecognized two-byte encoding decodes to OpInvalid, never panics.
func TestDecode_UnknownEncodingReturnsInvalid(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xFF})
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpInvalid {
		t.Errorf("Op = %v, want OpInvalid", inst.Op)
	}
	if len(inst.InvalidBytes) == 0 {
		t.Error("InvalidBytes is empty, want the faulting bytes recorded")
	}
}

// TestDecode_TwoByteOpcodeMap spot-checks a Jcc-near and a MOVZX form
// from the 0x0F escape map.
func TestDecode_TwoByteOpcodeMap(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0x0F, 0x84, 0x10, 0x00}) // JZ near +0x10
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpJcc || inst.Cond != 4 {
		t.Errorf("JZ near decoded as Op=%v Cond=%d", inst.Op, inst.Cond)
	}

	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xB6, 0xC0}) // MOVZX AX, AL
	inst = Decode(mem, 0x1000, 0)
	if inst.Op != OpMovzx {
		t.Errorf("Op = %v, want OpMovzx", inst.Op)
	}
}

// TestDecode_XchgAccumulatorForms checks the one-byte 0x91-0x97 XCHG
// AX,reg encodings (0x90, the AX,AX form, stays NOP).
func TestDecode_XchgAccumulatorForms(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0x93}) // XCHG AX, BX
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpXchg || inst.Params.Dst.Reg != 0 || inst.Params.Src.Reg != 3 {
		t.Errorf("XCHG AX,BX decoded as Op=%v Dst.Reg=%d Src.Reg=%d",
			inst.Op, inst.Params.Dst.Reg, inst.Params.Src.Reg)
	}

	loadCode(mem, 0x1000, 0, []byte{0x90})
	if inst = Decode(mem, 0x1000, 0); inst.Op != OpNop {
		t.Errorf("0x90 decoded as %v, want OpNop", inst.Op)
	}
}

// TestDecode_StringIOForms checks 0x6C-0x6F INS/OUTS with and without REP.
func TestDecode_StringIOForms(t *testing.T) {
	mem := NewMemory()
	cases := []struct {
		bytes []byte
		op    Op
		width Width
		rep   RepMode
	}{
		{[]byte{0x6C}, OpIns, Width8, RepNone},
		{[]byte{0x6D}, OpIns, Width16, RepNone},
		{[]byte{0x6E}, OpOuts, Width8, RepNone},
		{[]byte{0xF3, 0x6F}, OpOuts, Width16, RepE},
	}
	for _, c := range cases {
		loadCode(mem, 0x1000, 0, c.bytes)
		inst := Decode(mem, 0x1000, 0)
		if inst.Op != c.op || inst.Width != c.width || inst.Rep != c.rep {
			t.Errorf("% X decoded as Op=%v Width=%v Rep=%v, want Op=%v Width=%v Rep=%v",
				c.bytes, inst.Op, inst.Width, inst.Rep, c.op, c.width, c.rep)
		}
	}
}

// TestDecode_DoubleShiftForms checks the 0F A4/A5/AC/AD SHLD/SHRD
// encodings carry a third operand (imm8 or CL).
func TestDecode_DoubleShiftForms(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xA4, 0xD8, 0x04}) // SHLD AX, BX, 4
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpShld || inst.Params.Src2.Kind != PKImm || inst.Params.Src2.Imm != 4 {
		t.Errorf("SHLD imm decoded as Op=%v Src2=%+v", inst.Op, inst.Params.Src2)
	}

	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xAD, 0xD8}) // SHRD AX, BX, CL
	inst = Decode(mem, 0x1000, 0)
	if inst.Op != OpShrd || inst.Params.Src2.Kind != PKReg || inst.Params.Src2.Reg != 1 {
		t.Errorf("SHRD CL decoded as Op=%v Src2=%+v", inst.Op, inst.Params.Src2)
	}
}

// TestDecode_BitTestImmediate checks the 0F BA /4 BT r/m, imm8 group form.
func TestDecode_BitTestImmediate(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xBA, 0xE3, 0x05}) // BT BX, 5
	inst := Decode(mem, 0x1000, 0)
	if inst.Op != OpBt || inst.Params.Src.Imm != 5 {
		t.Errorf("BT imm decoded as Op=%v Src=%+v", inst.Op, inst.Params.Src)
	}

	loadCode(mem, 0x1000, 0, []byte{0x0F, 0xBA, 0xFB, 0x05}) // /7 is not BT
	if inst = Decode(mem, 0x1000, 0); inst.Op != OpInvalid {
		t.Errorf("0F BA /7 decoded as %v, want OpInvalid", inst.Op)
	}
}

// TestDecode_Salc checks the undocumented-but-ubiquitous 0xD6 encoding.
func TestDecode_Salc(t *testing.T) {
	mem := NewMemory()
	loadCode(mem, 0x1000, 0, []byte{0xD6})
	if inst := Decode(mem, 0x1000, 0); inst.Op != OpSalc {
		t.Errorf("0xD6 decoded as %v, want OpSalc", inst.Op)
	}
}
