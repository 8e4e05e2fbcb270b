// machine.go - the driver tying CPU, Memory, and the component bus together
//
// Grounded on the teacher's Machine type in machine_bus.go, which owns
// the CPU, the SystemBus, and the list of attached devices, and exposes
// a frame-based run loop for its host adapter to call. Here the frame
// loop is generalized to spec.md §4.8's clock_hz/60 cycle budget, and
// construction wires the four stub Components (components.go) plus the
// default IVT instead of the teacher's GPU/audio adapters.

package main

import "fmt"

// DefaultClockHz is the nominal instruction clock used to size a frame's
// cycle budget when the caller does not specify one.
const DefaultClockHz = 4_770_000

// Machine owns the whole machine: CPU, memory, and the devices attached
// to its component bus.
type Machine struct {
	CPU *CPU
	Mem *Memory
	Bus *ComponentBus

	ClockHz uint64

	// ROMBase/ROMLength delimit the loaded .COM image, for the tracer.
	ROMBase   Address
	ROMLength int
}

// NewMachine builds a Machine with the default stub devices attached,
// the default IVT installed, and the BIOS data area seeded, ready to
// load a .COM image.
func NewMachine() *Machine {
	mem := NewMemory()
	InstallDefaultIVT(mem)
	InstallBIOSDataArea(mem)

	bus := NewComponentBus()
	bus.Attach(NewVideoComponent())
	bus.Attach(NewConsoleComponent())
	bus.Attach(NewDiskStubComponent())
	bus.Attach(NewClockComponent())
	bus.Attach(NewMouseComponent())
	bus.Attach(NewPITComponent())
	bus.Attach(NewPICComponent())
	bus.Attach(NewJoystickComponent())
	bus.Attach(NewDOSComponent())

	return &Machine{
		CPU:     NewCPU(),
		Mem:     mem,
		Bus:     bus,
		ClockHz: DefaultClockHz,
	}
}

// comLoadSegment is the fixed PSP+code segment every .COM binary loads
// into, per spec.md §4.6: 0x0100 within a freshly chosen segment, with
// SP initialized to the top of that same 64K segment.
const comLoadOffset = 0x0100

// LoadExecutable copies a .COM image's bytes to offset 0x0100 of segSeg,
// synthesizes a minimal PSP at offset 0, and points CS:IP/SS:SP at the
// program's entry per the MS-DOS .COM loading convention, seeding the
// full register set spec.md §4.8 specifies (BP/CX/DX/SI/DI included, not
// just the segments and the stack pointer).
func (mach *Machine) LoadExecutable(image []byte, segSeg uint16) error {
	if len(image) > 0x10000-comLoadOffset {
		return fmt.Errorf("machine: image of %d bytes does not fit a .COM segment", len(image))
	}

	for i, b := range image {
		mach.Mem.WriteU8(segSeg, uint16(comLoadOffset+i), b)
	}

	// Minimal PSP: int 0x20 at offset 0 so a stray RET/CALL into the PSP
	// terminates cleanly, and a zeroed command tail at 0x80.
	mach.Mem.WriteU8(segSeg, 0x00, 0xCD)
	mach.Mem.WriteU8(segSeg, 0x01, 0x20)
	mach.Mem.WriteU8(segSeg, 0x80, 0x00)

	r := mach.CPU.Regs
	r.SetCS(segSeg)
	r.SetDS(segSeg)
	r.SetES(segSeg)
	r.SetSS(segSeg)
	r.SetIP(comLoadOffset)
	r.SetSP(0xFFFE)
	r.SetBP(0x091C)
	r.SetCX(0x00FF)
	r.SetDX(segSeg)
	r.SetSI(comLoadOffset)
	r.SetDI(0xFFFE)

	mach.ROMBase = NewAddress(segSeg, comLoadOffset)
	mach.ROMLength = len(image)
	return nil
}

// TraceLoaded runs the static Program Tracer over the image the last
// LoadExecutable placed in memory, without executing it.
func (mach *Machine) TraceLoaded() *TraceResult {
	return TraceProgram(mach.Mem, mach.ROMBase.Segment(), mach.ROMBase.Offset(), mach.ROMLength)
}

// auxClockInterval is how many instructions ExecuteFrame lets pass
// between advancing the Component bus's time-derived state (the PIT
// tick counter, the video scanline), mirroring the teacher's GPU/audio
// "tick every N instructions" scheduling rather than ticking once per
// real instruction.
const auxClockInterval = 100

// clocked is the optional extension a Component implements when it has
// time-derived state the Machine should advance between instruction
// batches.
type clocked interface {
	Tick(mach *Machine)
}

// ExecuteInstruction decodes and executes exactly one instruction at
// the current CS:IP, advancing IP past it (control-transfer Ops set IP
// themselves and this function does not double-advance them).
func (mach *Machine) ExecuteInstruction() error {
	r := mach.CPU.Regs
	cs, ip := r.CS(), r.IP()
	inst := Decode(mach.Mem, cs, ip)

	if inst.Op == OpInvalid {
		err := &DecodeInvalidError{CS: cs, IP: ip, Bytes: inst.InvalidBytes}
		mach.CPU.FatalError = err
		mach.CPU.Halted = true
		return err
	}

	nextIP := ip + uint16(inst.Len)
	r.SetIP(nextIP)

	if err := Execute(mach, inst); err != nil {
		if _, isDivErr := err.(*DivideByZeroError); isDivErr {
			// Divide faults do not advance IP, per spec.md §7: on real
			// hardware the exception frame would point back at the
			// faulting DIV/IDIV, not past it.
			r.SetIP(ip)
		}
		mach.CPU.FatalError = err
		mach.CPU.Halted = true
		return err
	}

	mach.CPU.Cycles++
	if mach.CPU.Cycles%auxClockInterval == 0 {
		for _, comp := range mach.Bus.components {
			if t, ok := comp.(clocked); ok {
				t.Tick(mach)
			}
		}
	}
	return nil
}

// ExecuteFrame runs instructions until either the CPU halts, a fatal
// error occurs, or the frame's cycle budget (ClockHz/60) is spent,
// mirroring the teacher's 60Hz frame-paced run loop.
func (mach *Machine) ExecuteFrame() error {
	budget := mach.ClockHz / 60
	for i := uint64(0); i < budget; i++ {
		if mach.CPU.Halted {
			return mach.CPU.FatalError
		}
		if err := mach.ExecuteInstruction(); err != nil {
			return err
		}
	}
	return nil
}
