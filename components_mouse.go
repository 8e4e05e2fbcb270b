// components_mouse.go - int 0x33 mouse services
//
// Grounded on the DOS mouse-driver contract SPEC_FULL.md §6.7 carries
// forward; the host-event side (mapping real pointer movement into
// Position) is the out-of-scope collaborator's job, so the component
// just reports whatever position was last fed to it.

package main

// MouseComponent services the int 0x33 driver calls in-scope programs
// make: driver presence (AX=0000) and position/button polling (AX=0003).
type MouseComponent struct {
	X, Y    uint16
	Buttons uint16
}

func NewMouseComponent() *MouseComponent { return &MouseComponent{} }

func (m *MouseComponent) Name() string { return "mouse" }

func (m *MouseComponent) InU8(port uint16) (byte, bool)    { return 0, false }
func (m *MouseComponent) InU16(port uint16) (uint16, bool) { return 0, false }
func (m *MouseComponent) OutU8(port uint16, v byte) bool   { return false }
func (m *MouseComponent) OutU16(port uint16, v uint16) bool { return false }

func (m *MouseComponent) Int(n byte, mach *Machine) bool {
	if n != 0x33 {
		return false
	}
	r := mach.CPU.Regs
	switch r.AX() {
	case 0x0000: // reset and status: driver present, two buttons
		r.SetAX(0xFFFF)
		r.SetBX(0x0002)
		return true
	case 0x0001, 0x0002: // show/hide cursor: rendering is not ours
		return true
	case 0x0003: // get position and button status
		r.SetBX(m.Buttons)
		r.SetCX(m.X)
		r.SetDX(m.Y)
		return true
	}
	return false
}
