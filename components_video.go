// components_video.go - VGA-class video services and ports
//
// Grounded on the teacher's video_* adapter split: the teacher keeps a
// register-level front end (CRTC/DAC port decode) separate from the
// actual pixel rendering its GUI backends do. Only the front end is in
// scope here per spec.md §1: the component services the int 0x10 BIOS
// contract against the BIOS data area and the text/graphics memory
// windows, claims the VGA ports spec.md §6.5 lists, and leaves turning
// any of that state into pixels to an out-of-scope collaborator.

package main

import "io"

const (
	textSegment     = 0xB800
	graphicsSegment = 0xA000

	// linesPerFrame matches the 480-line visible area plus blanking a
	// VGA CRTC walks each frame; the vertical-retrace status bit guest
	// busy-wait loops poll is derived from it.
	linesPerFrame   = 525
	visibleLines    = 480
)

// VideoComponent answers int 0x10 and the VGA sequencer/DAC/CRTC ports.
// Teletype output additionally lands on Out when one is attached, so a
// host can watch text-mode output without any renderer.
type VideoComponent struct {
	Out io.Writer

	scanline   int
	seqIndex   byte
	seqRegs    [8]byte
	pelMask    byte
	dacRead    byte
	dacWrite   byte
	dacCycle   int
	palette    [256 * 3]byte
	crtcIndex  byte
	crtcRegs   [32]byte
}

// NewVideoComponent returns a VideoComponent in 80x25 color text mode.
func NewVideoComponent() *VideoComponent {
	return &VideoComponent{pelMask: 0xFF}
}

func (v *VideoComponent) Name() string { return "video" }

func (v *VideoComponent) InU8(port uint16) (byte, bool) {
	switch port {
	case 0x3C4:
		return v.seqIndex, true
	case 0x3C5:
		return v.seqRegs[v.seqIndex&7], true
	case 0x3C6:
		return v.pelMask, true
	case 0x3C7:
		return 0, true // DAC state: ready
	case 0x3C9:
		val := v.palette[int(v.dacRead)*3+v.dacCycle]
		v.advanceDAC(&v.dacRead)
		return val, true
	case 0x3D4:
		return v.crtcIndex, true
	case 0x3D5:
		return v.crtcRegs[v.crtcIndex&31], true
	case 0x3DA:
		return v.statusRegister(), true
	}
	return 0, false
}

func (v *VideoComponent) InU16(port uint16) (uint16, bool) {
	if b, ok := v.InU8(port); ok {
		return uint16(b), true
	}
	return 0, false
}

func (v *VideoComponent) OutU8(port uint16, val byte) bool {
	switch port {
	case 0x3C4:
		v.seqIndex = val
	case 0x3C5:
		v.seqRegs[v.seqIndex&7] = val
	case 0x3C6:
		v.pelMask = val
	case 0x3C7:
		v.dacRead = val
		v.dacCycle = 0
	case 0x3C8:
		v.dacWrite = val
		v.dacCycle = 0
	case 0x3C9:
		v.palette[int(v.dacWrite)*3+v.dacCycle] = val
		v.advanceDAC(&v.dacWrite)
	case 0x3D4:
		v.crtcIndex = val
	case 0x3D5:
		v.crtcRegs[v.crtcIndex&31] = val
	default:
		return false
	}
	return true
}

func (v *VideoComponent) OutU16(port uint16, val uint16) bool {
	// The common "OUT DX, AX" CRTC idiom writes index and data in one
	// 16-bit access: low byte selects the register, high byte is the value.
	switch port {
	case 0x3C4:
		v.seqIndex = byte(val)
		v.seqRegs[v.seqIndex&7] = byte(val >> 8)
		return true
	case 0x3D4:
		v.crtcIndex = byte(val)
		v.crtcRegs[v.crtcIndex&31] = byte(val >> 8)
		return true
	}
	return v.OutU8(port, byte(val))
}

func (v *VideoComponent) advanceDAC(index *byte) {
	v.dacCycle++
	if v.dacCycle == 3 {
		v.dacCycle = 0
		*index++
	}
}

// statusRegister builds the input-status-1 byte polled at 0x3DA: bit 3
// is vertical retrace, bit 0 is "display disabled" (any blanking).
func (v *VideoComponent) statusRegister() byte {
	var status byte
	if v.scanline >= visibleLines {
		status |= 0x09
	}
	return status
}

// Tick advances one scanline between instruction batches, so a guest
// busy-waiting on the 0x3DA retrace bit always makes progress.
func (v *VideoComponent) Tick(mach *Machine) {
	v.scanline++
	if v.scanline >= linesPerFrame {
		v.scanline = 0
	}
}

func (v *VideoComponent) Int(n byte, mach *Machine) bool {
	if n != 0x10 {
		return false
	}
	r := mach.CPU.Regs
	mem := mach.Mem

	switch r.AH() {
	case 0x00: // set video mode
		mem.WriteU8(bdaSegment, bdaVideoMode, r.AL()&0x7F)
		mem.WriteU16(bdaSegment, bdaCursorPos, 0)
		if r.AL()&0x80 == 0 {
			v.clearText(mem)
		}
	case 0x01: // set cursor shape: accepted, shape is a renderer concern
	case 0x02: // set cursor position
		mem.WriteU16(bdaSegment, bdaCursorPos, uint16(r.DH())<<8|uint16(r.DL()))
	case 0x03: // read cursor position
		pos := mem.ReadU16(bdaSegment, bdaCursorPos)
		r.SetDH(byte(pos >> 8))
		r.SetDL(byte(pos))
		r.SetCX(0x0607)
	case 0x06:
		v.scroll(mem, int(r.AL()), false, r.CH(), r.CL(), r.DH(), r.DL(), r.BH())
	case 0x07:
		v.scroll(mem, int(r.AL()), true, r.CH(), r.CL(), r.DH(), r.DL(), r.BH())
	case 0x09: // write char + attribute at cursor, CX times
		v.writeCharAtCursor(mem, r.AL(), r.BL(), int(r.CX()), true)
	case 0x0A: // write char only at cursor, CX times
		v.writeCharAtCursor(mem, r.AL(), 0, int(r.CX()), false)
	case 0x0C: // write graphics pixel: AL color, CX column, DX row
		off := uint32(r.DX())*320 + uint32(r.CX())
		mem.WriteU8(graphicsSegment, uint16(off), r.AL())
	case 0x0D: // read graphics pixel
		off := uint32(r.DX())*320 + uint32(r.CX())
		r.SetAL(mem.ReadU8(graphicsSegment, uint16(off)))
	case 0x0E:
		v.teletype(mem, r.AL())
	case 0x0F: // get video mode
		r.SetAL(mem.ReadU8(bdaSegment, bdaVideoMode))
		r.SetAH(byte(mem.ReadU16(bdaSegment, bdaColumns)))
		r.SetBH(mem.ReadU8(bdaSegment, bdaActivePage))
	case 0x10: // palette services
		switch r.AL() {
		case 0x10: // set one DAC register: BX index, DH/CH/CL = r/g/b
			idx := int(r.BX()&0xFF) * 3
			v.palette[idx] = r.DH()
			v.palette[idx+1] = r.CH()
			v.palette[idx+2] = r.CL()
		case 0x12: // set block of DAC registers from ES:DX
			start := int(r.BX())
			count := int(r.CX())
			src := r.DX()
			for i := 0; i < count*3 && start*3+i < len(v.palette); i++ {
				v.palette[start*3+i] = mem.ReadU8(r.ES(), src+uint16(i))
			}
		}
	case 0x11: // character generator: report 8x16 text, 25 rows
		r.SetCX(16)
		r.SetDL(24)
	case 0x13: // write string at ES:BP, length CX, position DH/DL
		mem.WriteU16(bdaSegment, bdaCursorPos, uint16(r.DH())<<8|uint16(r.DL()))
		off := r.BP()
		step := uint16(1)
		if r.AL() >= 2 { // modes 2/3 carry inline attributes
			step = 2
		}
		for i := uint16(0); i < r.CX(); i++ {
			v.teletype(mem, mem.ReadU8(r.ES(), off))
			off += step
		}
	default:
		return false
	}
	return true
}

func (v *VideoComponent) clearText(mem *Memory) {
	for off := uint16(0); off < 80*25*2; off += 2 {
		mem.WriteU8(textSegment, off, ' ')
		mem.WriteU8(textSegment, off+1, 0x07)
	}
}

// teletype writes one character at the BDA cursor, advancing it and
// scrolling at the bottom row, and mirrors the byte to Out.
func (v *VideoComponent) teletype(mem *Memory, ch byte) {
	if v.Out != nil {
		v.Out.Write([]byte{ch})
	}

	pos := mem.ReadU16(bdaSegment, bdaCursorPos)
	row, col := int(pos>>8), int(pos&0xFF)

	switch ch {
	case '\r':
		col = 0
	case '\n':
		row++
	case 0x08:
		if col > 0 {
			col--
		}
	case 0x07: // bell: no cell written
	default:
		off := uint16((row*80 + col) * 2)
		mem.WriteU8(textSegment, off, ch)
		col++
		if col >= 80 {
			col = 0
			row++
		}
	}

	if row > 24 {
		v.scroll(mem, 1, false, 0, 0, 24, 79, 0x07)
		row = 24
	}
	mem.WriteU16(bdaSegment, bdaCursorPos, uint16(row)<<8|uint16(col))
}

func (v *VideoComponent) writeCharAtCursor(mem *Memory, ch, attr byte, count int, withAttr bool) {
	pos := mem.ReadU16(bdaSegment, bdaCursorPos)
	row, col := int(pos>>8), int(pos&0xFF)
	off := uint16((row*80 + col) * 2)
	for i := 0; i < count; i++ {
		mem.WriteU8(textSegment, off, ch)
		if withAttr {
			mem.WriteU8(textSegment, off+1, attr)
		}
		off += 2
	}
}

// scroll moves the text window CH,CL..DH,DL by n rows (n == 0 clears
// it), filling vacated rows with blanks in attribute attr.
func (v *VideoComponent) scroll(mem *Memory, n int, down bool, top, left, bottom, right, attr byte) {
	if n == 0 || n > int(bottom-top)+1 {
		for row := int(top); row <= int(bottom); row++ {
			v.blankRow(mem, row, int(left), int(right), attr)
		}
		return
	}

	rows := make([]int, 0, int(bottom-top)+1)
	if !down {
		for row := int(top); row <= int(bottom); row++ {
			rows = append(rows, row)
		}
	} else {
		for row := int(bottom); row >= int(top); row-- {
			rows = append(rows, row)
		}
	}

	dir := n
	if down {
		dir = -n
	}
	for _, row := range rows {
		src := row + dir
		if src < int(top) || src > int(bottom) {
			v.blankRow(mem, row, int(left), int(right), attr)
			continue
		}
		for col := int(left); col <= int(right); col++ {
			from := uint16((src*80 + col) * 2)
			to := uint16((row*80 + col) * 2)
			mem.WriteU16(textSegment, to, mem.ReadU16(textSegment, from))
		}
	}
}

func (v *VideoComponent) blankRow(mem *Memory, row, left, right int, attr byte) {
	for col := left; col <= right; col++ {
		off := uint16((row*80 + col) * 2)
		mem.WriteU8(textSegment, off, ' ')
		mem.WriteU8(textSegment, off+1, attr)
	}
}
