// memory_test.go - MMU read/write round-trip laws and IVT/flags helpers

package main

import "testing"

// TestMemory_ReadWriteRoundTrip checks spec.md §8's memory round-trip
// law across all three widths at a handful of seg:off pairs.
func TestMemory_ReadWriteRoundTrip(t *testing.T) {
	mem := NewMemory()
	cases := []struct{ seg, off uint16 }{
		{0x0000, 0x0000}, {0x07C0, 0x0100}, {0xF000, 0xFFF0}, {0x1000, 0x8000},
	}
	for _, c := range cases {
		mem.WriteU8(c.seg, c.off, 0xAB)
		if got := mem.ReadU8(c.seg, c.off); got != 0xAB {
			t.Errorf("u8 %04X:%04X: got %02X, want AB", c.seg, c.off, got)
		}
		mem.WriteU16(c.seg, c.off, 0xBEEF)
		if got := mem.ReadU16(c.seg, c.off); got != 0xBEEF {
			t.Errorf("u16 %04X:%04X: got %04X, want BEEF", c.seg, c.off, got)
		}
		mem.WriteU32(c.seg, c.off, 0xDEADBEEF)
		if got := mem.ReadU32(c.seg, c.off); got != 0xDEADBEEF {
			t.Errorf("u32 %04X:%04X: got %08X, want DEADBEEF", c.seg, c.off, got)
		}
	}
}

// TestMemory_IVTVectorRoundTrip checks spec.md §3's IVT layout: vector n
// lives at linear n*4, low word offset then high word segment.
func TestMemory_IVTVectorRoundTrip(t *testing.T) {
	mem := NewMemory()
	mem.WriteVec(0x21, 0x1234, 0x5678)
	seg, off := mem.ReadVec(0x21)
	if seg != 0x1234 || off != 0x5678 {
		t.Errorf("vector 0x21 = %04X:%04X, want 1234:5678", seg, off)
	}
	// Cross-check raw byte layout directly: low word = offset, high word = segment.
	base := uint32(0x21) * 4
	if mem.bytes[base] != 0x78 || mem.bytes[base+1] != 0x56 {
		t.Errorf("vector low word bytes wrong: %02X %02X", mem.bytes[base], mem.bytes[base+1])
	}
	if mem.bytes[base+2] != 0x34 || mem.bytes[base+3] != 0x12 {
		t.Errorf("vector high word bytes wrong: %02X %02X", mem.bytes[base+2], mem.bytes[base+3])
	}
}

// TestMemory_SetFlagRequiresPendingInterrupt checks spec.md §4.1's
// NoPendingInterruptFlags failure mode.
func TestMemory_SetFlagRequiresPendingInterrupt(t *testing.T) {
	mem := NewMemory()
	if err := mem.SetFlag(flagCF, flagCF); err != ErrNoPendingInterruptFlags {
		t.Fatalf("SetFlag with no pending address: got %v, want ErrNoPendingInterruptFlags", err)
	}

	mem.SetFlagsAddress(NewAddress(0x1000, 0x0010))
	mem.WriteU16(0x1000, 0x0010, 0x0000)
	if err := mem.SetFlag(flagCF, flagCF); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if v := mem.ReadU16(0x1000, 0x0010); v&flagCF == 0 {
		t.Errorf("FLAGS word after SetFlag = %04X, want CF bit set", v)
	}
}

// TestMemory_ReadDollarStopsAtTerminator checks the DOS AH=0x09 string
// convention: read up to but excluding the terminating '$'.
func TestMemory_ReadDollarStopsAtTerminator(t *testing.T) {
	mem := NewMemory()
	msg := "Hello$"
	for i, c := range []byte(msg) {
		mem.WriteU8(0x1000, uint16(i), c)
	}
	got := mem.ReadDollar(0x1000, 0, 100)
	if string(got) != "Hello" {
		t.Errorf("ReadDollar = %q, want %q", got, "Hello")
	}
}

// TestMemory_WriteU16IncAdvancesCursor checks the cursor-style write
// helper spec.md §4.1 and §9 call out as replacing pointer arithmetic.
func TestMemory_WriteU16IncAdvancesCursor(t *testing.T) {
	mem := NewMemory()
	cursor := NewAddress(0x2000, 0x0000)
	mem.WriteU16Inc(&cursor, 0x1111)
	mem.WriteU16Inc(&cursor, 0x2222)

	if cursor.Offset() != 4 {
		t.Fatalf("cursor offset after two WriteU16Inc = %04X, want 4", cursor.Offset())
	}
	if mem.ReadU16(0x2000, 0) != 0x1111 || mem.ReadU16(0x2000, 2) != 0x2222 {
		t.Errorf("values at 0/2 = %04X/%04X, want 1111/2222", mem.ReadU16(0x2000, 0), mem.ReadU16(0x2000, 2))
	}
}

// TestAddress_LinearOrderingAndEquality checks spec.md §3's Address
// type: ordering/equality are defined on linear form.
func TestAddress_LinearOrderingAndEquality(t *testing.T) {
	a := NewAddress(0x1000, 0x0010) // linear 0x10010
	b := NewAddress(0x1001, 0x0000) // linear 0x10010
	c := NewAddress(0x1000, 0x0020) // linear 0x10020

	if !a.Equal(b) {
		t.Errorf("addresses with equal linear form should be Equal")
	}
	if !a.Less(c) {
		t.Errorf("%v should be Less than %v", a, c)
	}
	if !UnsetAddress().Equal(UnsetAddress()) {
		t.Errorf("two Unset addresses should be Equal")
	}
	if a.Equal(UnsetAddress()) {
		t.Errorf("a set Address should never equal Unset")
	}
}
