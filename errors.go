// errors.go - emulation-fault error types
//
// Grounded on the teacher's debug_cpu_x86.go fault classification, which
// distinguishes "the decoder hit bytes it doesn't understand" from "the
// executing program did something the CPU itself would fault on" (e.g.
// divide by zero); both satisfy EmulationError so callers can type-switch
// without string-matching error text.

package main

import "fmt"

// EmulationError is any fault the CPU can raise that a caller may want
// to distinguish from an ordinary Go error (a halted CPU, a bad
// executable, an I/O failure).
type EmulationError interface {
	error
	emulationFault()
}

// DecodeInvalidError reports that the decoder could not recognize an
// opcode encoding at a given address.
type DecodeInvalidError struct {
	CS, IP uint16
	Bytes  []byte
}

func (e *DecodeInvalidError) Error() string {
	return fmt.Sprintf("invalid opcode at %04X:%04X: % X", e.CS, e.IP, e.Bytes)
}

func (e *DecodeInvalidError) emulationFault() {}

// DivideByZeroError reports a DIV/IDIV by zero, or a quotient that does
// not fit the destination register.
type DivideByZeroError struct {
	CS, IP uint16
}

func (e *DivideByZeroError) Error() string {
	return fmt.Sprintf("divide error at %04X:%04X", e.CS, e.IP)
}

func (e *DivideByZeroError) emulationFault() {}
