// components_test.go - DOS/BIOS service components and I/O port devices

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// runUntilHalt executes instructions until the machine halts or the
// step budget runs out, for programs ending in a DOS terminate call.
func runUntilHalt(t *testing.T, mach *Machine, budget int) {
	t.Helper()
	for i := 0; i < budget && !mach.CPU.Halted; i++ {
		if err := mach.ExecuteInstruction(); err != nil {
			return
		}
	}
}

func dosOf(t *testing.T, mach *Machine) *DOSComponent {
	t.Helper()
	for _, c := range mach.Bus.components {
		if d, ok := c.(*DOSComponent); ok {
			return d
		}
	}
	t.Fatal("no DOSComponent attached")
	return nil
}

func consoleOf(t *testing.T, mach *Machine) *ConsoleComponent {
	t.Helper()
	for _, c := range mach.Bus.components {
		if cc, ok := c.(*ConsoleComponent); ok {
			return cc
		}
	}
	t.Fatal("no ConsoleComponent attached")
	return nil
}

func videoOf(t *testing.T, mach *Machine) *VideoComponent {
	t.Helper()
	v, ok := findVideo(mach)
	if !ok {
		t.Fatal("no VideoComponent attached")
	}
	return v
}

func TestDOS_PrintDollarString(t *testing.T) {
	// MOV AH,09; MOV DX,0x010B; INT 21; MOV AH,4C; INT 21; "hi$"
	code := []byte{
		0xB4, 0x09,
		0xBA, 0x0B, 0x01,
		0xCD, 0x21,
		0xB4, 0x4C,
		0xCD, 0x21,
		'h', 'i', '$',
	}
	mach := newTestMachine(t, code)
	var out bytes.Buffer
	dosOf(t, mach).Out = &out

	runUntilHalt(t, mach, 10)
	assert.True(t, mach.CPU.Halted)
	assert.Equal(t, "hi", out.String())
}

func TestDOS_CharacterOutput(t *testing.T) {
	// MOV AH,02; MOV DL,'A'; INT 21; int 20
	code := []byte{0xB4, 0x02, 0xB2, 'A', 0xCD, 0x21, 0xCD, 0x20}
	mach := newTestMachine(t, code)
	var out bytes.Buffer
	dosOf(t, mach).Out = &out

	runUntilHalt(t, mach, 10)
	assert.Equal(t, "A", out.String())
	assert.Equal(t, byte('A'), mach.CPU.Regs.AL())
}

func TestDOS_TerminateRecordsExitCode(t *testing.T) {
	// MOV AX,0x4C2A; INT 21
	mach := newTestMachine(t, []byte{0xB8, 0x2A, 0x4C, 0xCD, 0x21})
	runUntilHalt(t, mach, 5)
	assert.True(t, mach.CPU.Halted)

	// A follow-up AH=0x4D query reads the recorded code back.
	mach.CPU.Halted = false
	mach.CPU.Regs.SetAH(0x4D)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, byte(0x2A), mach.CPU.Regs.AL())
}

func TestDOS_InterruptVectorRoundTrip(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	// AH=0x25: set vector 0x80 to DS:DX.
	r.SetAH(0x25)
	r.SetAL(0x80)
	r.SetDX(0x1234)
	mach.Bus.Int(0x21, mach)

	// AH=0x35: read it back into ES:BX.
	r.SetAH(0x35)
	r.SetAL(0x80)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, r.DS(), r.ES())
	assert.Equal(t, uint16(0x1234), r.BX())
}

func TestDOS_FileOpenReadClose(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs
	dos := dosOf(t, mach)
	dos.AddFile("DATA.BIN", []byte{0xDE, 0xAD, 0xBE, 0xEF})

	// Write the ASCIIZ name into guest memory at DS:0x0200.
	name := "DATA.BIN\x00"
	for i := 0; i < len(name); i++ {
		mach.Mem.WriteU8(r.DS(), 0x0200+uint16(i), name[i])
	}

	r.SetAH(0x3D)
	r.SetAL(0x00)
	r.SetDX(0x0200)
	mach.Bus.Int(0x21, mach)
	assert.False(t, r.CF())
	handle := r.AX()
	assert.GreaterOrEqual(t, handle, uint16(5))

	r.SetAH(0x3F)
	r.SetBX(handle)
	r.SetCX(4)
	r.SetDX(0x0300)
	mach.Bus.Int(0x21, mach)
	assert.False(t, r.CF())
	assert.Equal(t, uint16(4), r.AX())
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, mach.Mem.Read(r.DS(), 0x0300, 4))

	r.SetAH(0x3E)
	r.SetBX(handle)
	mach.Bus.Int(0x21, mach)
	assert.False(t, r.CF())

	// Reading a closed handle fails with "invalid handle".
	r.SetAH(0x3F)
	r.SetBX(handle)
	r.SetCX(1)
	mach.Bus.Int(0x21, mach)
	assert.True(t, r.CF())
	assert.Equal(t, uint16(dosErrInvalidHandle), r.AX())
}

func TestDOS_OpenMissingFileFails(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs
	mach.Mem.WriteU8(r.DS(), 0x0200, 'X')
	mach.Mem.WriteU8(r.DS(), 0x0201, 0)

	r.SetAH(0x3D)
	r.SetAL(0x00)
	r.SetDX(0x0200)
	mach.Bus.Int(0x21, mach)
	assert.True(t, r.CF())
	assert.Equal(t, uint16(dosErrFileNotFound), r.AX())
}

func TestDOS_WriteToFileAndStdout(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs
	dos := dosOf(t, mach)
	var out bytes.Buffer
	dos.Out = &out

	payload := []byte("log line")
	for i, b := range payload {
		mach.Mem.WriteU8(r.DS(), 0x0400+uint16(i), b)
	}

	// Handle 1 is stdout.
	r.SetAH(0x40)
	r.SetBX(1)
	r.SetCX(uint16(len(payload)))
	r.SetDX(0x0400)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, "log line", out.String())

	// A created file receives the same bytes.
	mach.Mem.WriteU8(r.DS(), 0x0200, 'F')
	mach.Mem.WriteU8(r.DS(), 0x0201, 0)
	r.SetAH(0x3D)
	r.SetAL(0x02) // read/write: creates when missing
	r.SetDX(0x0200)
	mach.Bus.Int(0x21, mach)
	handle := r.AX()

	r.SetAH(0x40)
	r.SetBX(handle)
	r.SetCX(uint16(len(payload)))
	r.SetDX(0x0400)
	mach.Bus.Int(0x21, mach)
	data, ok := dos.FileData("F")
	assert.True(t, ok)
	assert.Equal(t, payload, data)
}

func TestDOS_VersionDriveAndPSP(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAH(0x30)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, byte(5), r.AL())

	r.SetAH(0x19)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, byte(2), r.AL())

	r.SetAH(0x51)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, uint16(0x1000), r.BX()) // newTestMachine loads at 0x1000

	r.SetAH(0x50)
	r.SetBX(0x2345)
	mach.Bus.Int(0x21, mach)
	r.SetAH(0x51)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, uint16(0x2345), r.BX())
}

func TestDOS_AllocateParagraphs(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAH(0x48)
	r.SetBX(0x0100)
	mach.Bus.Int(0x21, mach)
	assert.False(t, r.CF())
	first := r.AX()

	r.SetAH(0x48)
	r.SetBX(0x0100)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, first+0x0100, r.AX())

	// An impossible request fails with code 8 and reports what's left.
	r.SetAH(0x48)
	r.SetBX(0xF000)
	mach.Bus.Int(0x21, mach)
	assert.True(t, r.CF())
	assert.Equal(t, uint16(dosErrInsufficientMem), r.AX())
}

func TestDOS_InputStatusAndDTA(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAH(0x0B)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, byte(0), r.AL())

	consoleOf(t, mach).Feed([]byte{'x'})
	r.SetAH(0x0B)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, byte(0xFF), r.AL())

	r.SetAH(0x1A)
	r.SetDX(0x0500)
	mach.Bus.Int(0x21, mach)
	r.SetAH(0x2F)
	mach.Bus.Int(0x21, mach)
	assert.Equal(t, r.DS(), r.ES())
	assert.Equal(t, uint16(0x0500), r.BX())
}

func TestVideo_TeletypeAdvancesCursorAndTextMemory(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs
	var out bytes.Buffer
	videoOf(t, mach).Out = &out

	for _, ch := range []byte{'o', 'k'} {
		r.SetAH(0x0E)
		r.SetAL(ch)
		mach.Bus.Int(0x10, mach)
	}

	assert.Equal(t, "ok", out.String())
	assert.Equal(t, byte('o'), mach.Mem.ReadU8(textSegment, 0))
	assert.Equal(t, byte('k'), mach.Mem.ReadU8(textSegment, 2))
	assert.Equal(t, uint16(0x0002), mach.Mem.ReadU16(bdaSegment, bdaCursorPos))
}

func TestVideo_SetAndGetMode(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAH(0x00)
	r.SetAL(0x13)
	mach.Bus.Int(0x10, mach)
	assert.Equal(t, byte(0x13), mach.Mem.ReadU8(bdaSegment, bdaVideoMode))

	r.SetAH(0x0F)
	mach.Bus.Int(0x10, mach)
	assert.Equal(t, byte(0x13), r.AL())
}

func TestVideo_CursorPositionRoundTrip(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAH(0x02)
	r.SetDH(5)
	r.SetDL(12)
	mach.Bus.Int(0x10, mach)

	r.SetAH(0x03)
	r.SetDX(0)
	mach.Bus.Int(0x10, mach)
	assert.Equal(t, byte(5), r.DH())
	assert.Equal(t, byte(12), r.DL())
}

func TestVideo_WriteStringService(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs
	var out bytes.Buffer
	videoOf(t, mach).Out = &out

	msg := "boot"
	for i := 0; i < len(msg); i++ {
		mach.Mem.WriteU8(r.ES(), 0x0600+uint16(i), msg[i])
	}
	r.SetAH(0x13)
	r.SetAL(0x00)
	r.SetCX(uint16(len(msg)))
	r.SetDH(0)
	r.SetDL(0)
	r.SetBP(0x0600)
	mach.Bus.Int(0x10, mach)
	assert.Equal(t, "boot", out.String())
}

func TestVideo_RetraceStatusToggles(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	v := videoOf(t, mach)

	seenRetrace, seenActive := false, false
	for i := 0; i < linesPerFrame; i++ {
		status, ok := v.InU8(0x3DA)
		assert.True(t, ok)
		if status&0x08 != 0 {
			seenRetrace = true
		} else {
			seenActive = true
		}
		v.Tick(mach)
	}
	assert.True(t, seenRetrace)
	assert.True(t, seenActive)
}

func TestVideo_DACPaletteRoundTrip(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	v := videoOf(t, mach)

	v.OutU8(0x3C8, 7) // write index 7
	v.OutU8(0x3C9, 10)
	v.OutU8(0x3C9, 20)
	v.OutU8(0x3C9, 30)

	v.OutU8(0x3C7, 7) // read index 7
	r1, _ := v.InU8(0x3C9)
	r2, _ := v.InU8(0x3C9)
	r3, _ := v.InU8(0x3C9)
	assert.Equal(t, []byte{10, 20, 30}, []byte{r1, r2, r3})
}

func TestPIT_LatchAndRead(t *testing.T) {
	p := NewPITComponent()
	mach := newTestMachine(t, []byte{0x90})

	p.OutU8(0x43, 0x34) // counter 0, lobyte/hibyte, mode 2
	p.OutU8(0x40, 0x34)
	p.OutU8(0x40, 0x12) // reload = 0x1234
	p.Tick(mach)
	p.OutU8(0x43, 0x00) // latch counter 0
	lo, _ := p.InU8(0x40)
	hi, _ := p.InU8(0x40)
	assert.Equal(t, uint16(0x1233), uint16(hi)<<8|uint16(lo))
}

func TestPIT_TickAdvancesBIOSCounter(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	before := mach.Mem.ReadU32(bdaSegment, bdaTickCount)
	for i := 0; i < 3; i++ {
		NewPITComponent().Tick(mach)
	}
	assert.Equal(t, before+3, mach.Mem.ReadU32(bdaSegment, bdaTickCount))
}

func TestPIC_MaskRegisterRoundTrip(t *testing.T) {
	p := NewPICComponent()
	p.OutU8(0x21, 0xFC)
	p.OutU8(0xA1, 0x55)
	m, _ := p.InU8(0x21)
	s, _ := p.InU8(0xA1)
	assert.Equal(t, byte(0xFC), m)
	assert.Equal(t, byte(0x55), s)
}

func TestKeyboardController_PortsReflectQueue(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	cc := consoleOf(t, mach)

	status, _ := cc.InU8(0x64)
	assert.Equal(t, byte(0), status&0x01)

	cc.Feed([]byte{0x1C})
	status, _ = cc.InU8(0x64)
	assert.Equal(t, byte(1), status&0x01)

	data, _ := cc.InU8(0x60)
	assert.Equal(t, byte(0x1C), data)
}

func TestJoystick_ReportsNoStick(t *testing.T) {
	j := NewJoystickComponent()
	v, ok := j.InU8(0x201)
	assert.True(t, ok)
	assert.Equal(t, byte(0xF0), v)
	_, ok = j.InU8(0x200)
	assert.False(t, ok)
}

func TestMouse_ResetAndPosition(t *testing.T) {
	mach := newTestMachine(t, []byte{0x90})
	r := mach.CPU.Regs

	r.SetAX(0x0000)
	assert.True(t, mach.Bus.Int(0x33, mach))
	assert.Equal(t, uint16(0xFFFF), r.AX())
	assert.Equal(t, uint16(2), r.BX())

	for _, c := range mach.Bus.components {
		if m, ok := c.(*MouseComponent); ok {
			m.X, m.Y, m.Buttons = 160, 100, 1
		}
	}
	r.SetAX(0x0003)
	mach.Bus.Int(0x33, mach)
	assert.Equal(t, uint16(1), r.BX())
	assert.Equal(t, uint16(160), r.CX())
	assert.Equal(t, uint16(100), r.DX())
}

func TestBus_UnclaimedPortReadsFloatHigh(t *testing.T) {
	// IN AL, 0xE7: no component claims the port; AL reads 0xFF.
	mach := newTestMachine(t, []byte{0xE4, 0xE7})
	stepN(t, mach, 1)
	assert.Equal(t, byte(0xFF), mach.CPU.Regs.AL())
}

func TestBIOSDataArea_Seeded(t *testing.T) {
	mach := NewMachine()
	assert.Equal(t, byte(0x03), mach.Mem.ReadU8(bdaSegment, bdaVideoMode))
	assert.Equal(t, uint16(80), mach.Mem.ReadU16(bdaSegment, bdaColumns))
	assert.Equal(t, uint16(0x3D4), mach.Mem.ReadU16(bdaSegment, bdaCRTCBase))
	assert.Equal(t, uint16(640), mach.Mem.ReadU16(bdaSegment, bdaMemorySize))
}

func TestMachine_AuxClockAdvancesPITTick(t *testing.T) {
	// A long run of NOPs crosses several aux-clock boundaries; the BIOS
	// tick counter at 0040:006C moves without any guest code touching it.
	code := make([]byte, 512)
	for i := range code {
		code[i] = 0x90
	}
	mach := newTestMachine(t, code)
	stepN(t, mach, 500)
	assert.Equal(t, uint32(5), mach.Mem.ReadU32(bdaSegment, bdaTickCount))
}
