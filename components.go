// components.go - keyboard console, disk stub, and clock devices
//
// ConsoleComponent is grounded on the teacher's terminal_io.go
// TerminalMMIO: a small ring buffer of pending input bytes drained by
// BIOS keyboard polling, generalized here from the teacher's
// memory-mapped registers to the int 0x16 responder and the 0x60/0x64
// controller ports, since this engine has no MMIO path.
// DiskStubComponent is grounded on the teacher's file_io.go
// FileIODevice status/error-code field shape, trimmed to the reset call
// in-scope programs issue. ClockComponent is grounded on the DOS/BIOS
// time contract SPEC_FULL.md §4.6 documents.

package main

// ConsoleComponent answers the BIOS keyboard interrupt (int 0x16
// AH=0x00/0x01) and the 8042-style controller ports 0x60/0x64 from a
// queued byte buffer, standing in for a real keyboard.
type ConsoleComponent struct {
	input []byte
}

// NewConsoleComponent returns a ConsoleComponent with an empty input queue.
func NewConsoleComponent() *ConsoleComponent {
	return &ConsoleComponent{}
}

func (c *ConsoleComponent) Name() string { return "console" }

// Feed queues bytes for a subsequent int 0x16 AH=0x00 read, the guest-
// facing equivalent of typing at a keyboard.
func (c *ConsoleComponent) Feed(b []byte) {
	c.input = append(c.input, b...)
}

func (c *ConsoleComponent) InU8(port uint16) (byte, bool) {
	switch port {
	case 0x60:
		if len(c.input) == 0 {
			return 0, true
		}
		b := c.input[0]
		c.input = c.input[1:]
		return b, true
	case 0x64:
		var status byte = 0x10 // keyboard enabled
		if len(c.input) > 0 {
			status |= 0x01 // output buffer full
		}
		return status, true
	}
	return 0, false
}

func (c *ConsoleComponent) InU16(port uint16) (uint16, bool) {
	if v, ok := c.InU8(port); ok {
		return uint16(v), true
	}
	return 0, false
}

func (c *ConsoleComponent) OutU8(port uint16, v byte) bool {
	// Controller commands (LED state, typematic rate) are accepted and
	// ignored; there is no physical keyboard to configure.
	return port == 0x60 || port == 0x64
}

func (c *ConsoleComponent) OutU16(port uint16, v uint16) bool { return c.OutU8(port, byte(v)) }

func (c *ConsoleComponent) Int(n byte, mach *Machine) bool {
	if n != 0x16 {
		return false
	}
	r := mach.CPU.Regs
	switch r.AH() {
	case 0x00:
		if len(c.input) == 0 {
			r.SetAX(0)
			return true
		}
		b := c.input[0]
		c.input = c.input[1:]
		r.SetAL(b)
		r.SetAH(0)
		return true
	case 0x01:
		if len(c.input) == 0 {
			r.SetZF(true)
		} else {
			r.SetAL(c.input[0])
			r.SetAH(0)
			r.SetZF(false)
		}
		return true
	}
	return false
}

// DiskStubComponent answers int 0x13 AH=0x00 (reset disk system) with
// success and every other sub-function with "unsupported", enough for
// programs that probe for a disk but never actually read one, per
// spec.md's Non-goal excluding real disk image backing.
type DiskStubComponent struct{}

func NewDiskStubComponent() *DiskStubComponent { return &DiskStubComponent{} }

func (d *DiskStubComponent) Name() string { return "disk-stub" }

func (d *DiskStubComponent) InU8(port uint16) (byte, bool)    { return 0, false }
func (d *DiskStubComponent) InU16(port uint16) (uint16, bool) { return 0, false }
func (d *DiskStubComponent) OutU8(port uint16, v byte) bool   { return false }
func (d *DiskStubComponent) OutU16(port uint16, v uint16) bool { return false }

func (d *DiskStubComponent) Int(n byte, mach *Machine) bool {
	if n != 0x13 {
		return false
	}
	r := mach.CPU.Regs
	if r.AH() == 0x00 {
		r.SetAH(0)
		r.SetCF(false)
		return true
	}
	r.SetAH(0x01) // AH=0x01: invalid function
	r.SetCF(true)
	return true
}

// ClockComponent answers int 0x1A (BIOS time-of-day) and int 0x21
// AH=0x2C (DOS get time) with zero in Deterministic mode, and with a
// monotonically advancing tick counter otherwise, so a program polling
// for elapsed ticks still eventually sees one without the engine
// depending on the real wall clock.
type ClockComponent struct {
	ticks uint32
}

func NewClockComponent() *ClockComponent { return &ClockComponent{} }

func (cl *ClockComponent) Name() string { return "clock" }

func (cl *ClockComponent) InU8(port uint16) (byte, bool)    { return 0, false }
func (cl *ClockComponent) InU16(port uint16) (uint16, bool) { return 0, false }
func (cl *ClockComponent) OutU8(port uint16, v byte) bool   { return false }
func (cl *ClockComponent) OutU16(port uint16, v uint16) bool { return false }

func (cl *ClockComponent) Int(n byte, mach *Machine) bool {
	r := mach.CPU.Regs
	switch n {
	case 0x1A:
		if r.AH() != 0x00 {
			return false
		}
		ticks := cl.tick(mach)
		r.SetCX(uint16(ticks >> 16))
		r.SetDX(uint16(ticks))
		r.SetAL(0)
		return true
	case 0x21:
		if r.AH() != 0x2C {
			return false
		}
		ticks := cl.tick(mach)
		r.SetCH(byte(ticks >> 24))
		r.SetCL(byte(ticks >> 16))
		r.SetDH(byte(ticks >> 8))
		r.SetDL(byte(ticks))
		return true
	}
	return false
}

func (cl *ClockComponent) tick(mach *Machine) uint32 {
	if mach.CPU.Deterministic {
		return 0
	}
	cl.ticks++
	return cl.ticks
}
