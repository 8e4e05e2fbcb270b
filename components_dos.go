// components_dos.go - the int 0x20/0x21 DOS service component
//
// The file-handle machinery is grounded on the teacher's file_io.go
// FileIODevice (an operation-register device with a handle table and a
// status/error-code pair the guest polls), adapted from memory-mapped
// command registers to the int 0x21 register-calling convention and
// backed by an in-memory file store instead of the teacher's host
// filesystem passthrough - actually touching the host disk is the
// loader plumbing spec.md §1 leaves out of scope. Sub-function
// semantics follow the published MS-DOS Interrupt List per spec.md §6.7.

package main

import (
	"io"
	"strings"
)

// DOS error codes returned in AX when CF is set.
const (
	dosErrInvalidFunction = 0x01
	dosErrFileNotFound    = 0x02
	dosErrInvalidHandle   = 0x06
	dosErrInsufficientMem = 0x08
)

// dosFile is one named file in the component's in-memory store.
type dosFile struct {
	name string
	data []byte
}

// dosHandle is an open-file cursor. Handles 0-4 are the DOS standard
// devices and never appear in the table; table index i is handle i+5.
type dosHandle struct {
	file *dosFile
	pos  int
}

// DOSComponent services int 0x20 and the int 0x21 sub-function surface
// spec.md §6.7 lists, against an in-memory file store and the live
// Machine state.
type DOSComponent struct {
	Out io.Writer

	files   map[string]*dosFile
	handles []*dosHandle

	dta       Address
	psp       uint16
	breakFlag byte
	exitCode  byte
	lastError uint16

	// nextAlloc is the next free paragraph AH=0x48 hands out. DOS-style
	// allocation walks upward from above the load segment toward the
	// 0xA000 video boundary.
	nextAlloc uint16
}

func NewDOSComponent() *DOSComponent {
	return &DOSComponent{
		files:     make(map[string]*dosFile),
		nextAlloc: 0x2000,
	}
}

func (d *DOSComponent) Name() string { return "dos" }

// AddFile seeds the in-memory store with a named file, so guest AH=0x3D
// opens have something to find. Names are case-insensitive, as on DOS.
func (d *DOSComponent) AddFile(name string, data []byte) {
	key := strings.ToUpper(name)
	d.files[key] = &dosFile{name: key, data: append([]byte(nil), data...)}
}

// FileData returns the current contents of a stored file, for hosts
// inspecting what a guest wrote.
func (d *DOSComponent) FileData(name string) ([]byte, bool) {
	f, ok := d.files[strings.ToUpper(name)]
	if !ok {
		return nil, false
	}
	return f.data, true
}

func (d *DOSComponent) InU8(port uint16) (byte, bool)    { return 0, false }
func (d *DOSComponent) InU16(port uint16) (uint16, bool) { return 0, false }
func (d *DOSComponent) OutU8(port uint16, v byte) bool   { return false }
func (d *DOSComponent) OutU16(port uint16, v uint16) bool { return false }

func (d *DOSComponent) Int(n byte, mach *Machine) bool {
	switch n {
	case 0x20:
		mach.CPU.Halted = true
		return true
	case 0x21:
		d.service21(mach)
		return true
	}
	return false
}

func (d *DOSComponent) service21(mach *Machine) {
	r := mach.CPU.Regs
	if !d.dta.IsSet() {
		d.dta = NewAddress(r.DS(), 0x0080) // default DTA: PSP command tail
		d.psp = r.DS()
	}

	switch r.AH() {
	case 0x00, 0x4C:
		d.exitCode = r.AL()
		mach.CPU.Halted = true
	case 0x31: // terminate and stay resident
		d.exitCode = r.AL()
		mach.CPU.Halted = true

	case 0x02: // character output
		d.write(r.DL())
		r.SetAL(r.DL())
	case 0x06: // direct console I/O
		if r.DL() != 0xFF {
			d.write(r.DL())
			r.SetAL(r.DL())
			break
		}
		if b, ok := d.consoleRead(mach); ok {
			r.SetAL(b)
			r.SetZF(false)
		} else {
			r.SetAL(0)
			r.SetZF(true)
		}
	case 0x09: // print $-terminated string
		s := mach.Mem.ReadDollar(r.DS(), r.DX(), 4096)
		if d.Out != nil {
			d.Out.Write(s)
		}
		r.SetAL('$')
	case 0x0B: // console input status
		if d.consolePending(mach) {
			r.SetAL(0xFF)
		} else {
			r.SetAL(0x00)
		}
	case 0x0C: // flush input buffer, then optionally re-dispatch
		d.consoleFlush(mach)
		sub := r.AL()
		if sub == 0x01 || sub == 0x06 || sub == 0x07 || sub == 0x08 || sub == 0x0A {
			r.SetAH(sub)
			d.service21(mach)
			r.SetAH(0x0C)
		} else {
			r.SetAL(0)
		}

	case 0x19: // get current drive: 0=A, 2=C
		r.SetAL(0x02)
	case 0x1A: // set DTA
		d.dta = NewAddress(r.DS(), r.DX())
	case 0x2F: // get DTA
		r.SetES(d.dta.Segment())
		r.SetBX(d.dta.Offset())

	case 0x25: // set interrupt vector AL from DS:DX
		mach.Mem.WriteVec(r.AL(), r.DS(), r.DX())
	case 0x35: // get interrupt vector AL into ES:BX
		seg, off := mach.Mem.ReadVec(r.AL())
		r.SetES(seg)
		r.SetBX(off)

	case 0x30: // get version: report DOS 5.00
		r.SetAL(5)
		r.SetAH(0)
		r.SetBX(0)
		r.SetCX(0)
	case 0x33: // ctrl-break flag
		switch r.AL() {
		case 0x00:
			r.SetDL(d.breakFlag)
		case 0x01:
			d.breakFlag = r.DL() & 1
		}

	case 0x3D:
		d.openFile(mach)
	case 0x3E:
		d.closeFile(mach)
	case 0x3F:
		d.readFile(mach)
	case 0x40:
		d.writeFile(mach)
	case 0x43:
		d.fileAttributes(mach)
	case 0x44:
		d.ioctl(mach)

	case 0x47: // get current directory into DS:SI: always the root
		mach.Mem.WriteU8(r.DS(), r.SI(), 0)
		r.SetAX(0x0100)
		r.SetCF(false)

	case 0x48: // allocate BX paragraphs
		want := r.BX()
		avail := uint16(0xA000) - d.nextAlloc
		if want > avail {
			d.fail(r, dosErrInsufficientMem)
			r.SetBX(avail)
			break
		}
		r.SetAX(d.nextAlloc)
		d.nextAlloc += want
		r.SetCF(false)
	case 0x49: // free block: accepted, the bump allocator never reuses
		r.SetCF(false)
	case 0x4A: // resize block
		want := r.BX()
		avail := uint16(0xA000) - r.ES()
		if want > avail {
			d.fail(r, dosErrInsufficientMem)
			r.SetBX(avail)
			break
		}
		r.SetCF(false)

	case 0x4B: // exec: child loading is the loader's concern, not ours
		d.fail(r, dosErrFileNotFound)
	case 0x4D: // get child exit code
		r.SetAL(d.exitCode)
		r.SetAH(0)

	case 0x50: // set current PSP
		d.psp = r.BX()
	case 0x51: // get current PSP
		r.SetBX(d.psp)

	case 0x59: // extended error information
		r.SetAX(d.lastError)
		r.SetBH(0x01) // class: out of resource
		r.SetBL(0x01) // action: retry
		r.SetCH(0x01) // locus: unknown
	default:
		// Remaining listed sub-functions are accepted without effect;
		// full DOS semantics are out of scope per spec.md §1.
		r.SetCF(false)
		r.SetAL(0)
	}
}

func (d *DOSComponent) fail(r *Registers, code uint16) {
	d.lastError = code
	r.SetAX(code)
	r.SetCF(true)
}

func (d *DOSComponent) openFile(mach *Machine) {
	r := mach.CPU.Regs
	name := strings.ToUpper(mach.Mem.ReadASCIIZ(r.DS(), r.DX()))
	f, ok := d.files[name]
	if !ok {
		if r.AL()&0x03 == 0 { // read-only open of a missing file
			d.fail(r, dosErrFileNotFound)
			return
		}
		f = &dosFile{name: name}
		d.files[name] = f
	}
	d.handles = append(d.handles, &dosHandle{file: f})
	r.SetAX(uint16(len(d.handles) - 1 + 5))
	r.SetCF(false)
}

func (d *DOSComponent) lookupHandle(idx uint16) *dosHandle {
	i := int(idx) - 5
	if i < 0 || i >= len(d.handles) {
		return nil
	}
	return d.handles[i]
}

func (d *DOSComponent) closeFile(mach *Machine) {
	r := mach.CPU.Regs
	if r.BX() < 5 { // closing a standard device is a no-op
		r.SetCF(false)
		return
	}
	h := d.lookupHandle(r.BX())
	if h == nil {
		d.fail(r, dosErrInvalidHandle)
		return
	}
	d.handles[int(r.BX())-5] = &dosHandle{} // closed: file detached
	r.SetCF(false)
}

func (d *DOSComponent) readFile(mach *Machine) {
	r := mach.CPU.Regs
	if r.BX() == 0 { // stdin
		n := uint16(0)
		off := r.DX()
		for n < r.CX() {
			b, ok := d.consoleRead(mach)
			if !ok {
				break
			}
			mach.Mem.WriteU8(r.DS(), off+n, b)
			n++
		}
		r.SetAX(n)
		r.SetCF(false)
		return
	}
	h := d.lookupHandle(r.BX())
	if h == nil || h.file == nil {
		d.fail(r, dosErrInvalidHandle)
		return
	}
	n := 0
	off := r.DX()
	for n < int(r.CX()) && h.pos < len(h.file.data) {
		mach.Mem.WriteU8(r.DS(), off+uint16(n), h.file.data[h.pos])
		h.pos++
		n++
	}
	r.SetAX(uint16(n))
	r.SetCF(false)
}

func (d *DOSComponent) writeFile(mach *Machine) {
	r := mach.CPU.Regs
	data := mach.Mem.Read(r.DS(), r.DX(), int(r.CX()))
	if r.BX() == 1 || r.BX() == 2 { // stdout / stderr
		if d.Out != nil {
			d.Out.Write(data)
		}
		r.SetAX(r.CX())
		r.SetCF(false)
		return
	}
	h := d.lookupHandle(r.BX())
	if h == nil || h.file == nil {
		d.fail(r, dosErrInvalidHandle)
		return
	}
	for _, b := range data {
		if h.pos < len(h.file.data) {
			h.file.data[h.pos] = b
		} else {
			h.file.data = append(h.file.data, b)
		}
		h.pos++
	}
	r.SetAX(r.CX())
	r.SetCF(false)
}

func (d *DOSComponent) fileAttributes(mach *Machine) {
	r := mach.CPU.Regs
	name := strings.ToUpper(mach.Mem.ReadASCIIZ(r.DS(), r.DX()))
	if _, ok := d.files[name]; !ok {
		d.fail(r, dosErrFileNotFound)
		return
	}
	switch r.AL() {
	case 0x00:
		r.SetCX(0x0020) // archive
	case 0x01: // set: accepted
	}
	r.SetCF(false)
}

func (d *DOSComponent) ioctl(mach *Machine) {
	r := mach.CPU.Regs
	if r.AL() != 0x00 { // only "get device information" is in scope
		d.fail(r, dosErrInvalidFunction)
		return
	}
	if r.BX() < 5 {
		r.SetDX(0x80D3) // character device: console, supports fast output
	} else if d.lookupHandle(r.BX()) != nil {
		r.SetDX(0x0000) // block-device-backed file
	} else {
		d.fail(r, dosErrInvalidHandle)
		return
	}
	r.SetCF(false)
}

func (d *DOSComponent) write(b byte) {
	if d.Out != nil {
		d.Out.Write([]byte{b})
	}
}

func (d *DOSComponent) console(mach *Machine) *ConsoleComponent {
	for _, comp := range mach.Bus.components {
		if cc, ok := comp.(*ConsoleComponent); ok {
			return cc
		}
	}
	return nil
}

func (d *DOSComponent) consoleRead(mach *Machine) (byte, bool) {
	cc := d.console(mach)
	if cc == nil || len(cc.input) == 0 {
		return 0, false
	}
	b := cc.input[0]
	cc.input = cc.input[1:]
	return b, true
}

func (d *DOSComponent) consolePending(mach *Machine) bool {
	cc := d.console(mach)
	return cc != nil && len(cc.input) > 0
}

func (d *DOSComponent) consoleFlush(mach *Machine) {
	if cc := d.console(mach); cc != nil {
		cc.input = nil
	}
}
