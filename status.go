// status.go - a terminal-width-aware register/flags dump
//
// [EXPANSION]: the teacher uses golang.org/x/term for its interactive
// REPL's raw-mode keyboard reading (terminal_host.go), which is out of
// scope here since this engine drives a .COM loader, not an interactive
// shell. Repurposed instead for the one ambient diagnostic surface this
// engine does need: a register dump that wraps to whatever terminal the
// operator is actually running comrun in, falling back to an 80-column
// assumption when stdout isn't a TTY (piped output, CI logs).

package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const fallbackWidth = 80

// terminalWidth returns the current stdout width, or fallbackWidth if
// stdout isn't a terminal (redirected to a file, a pipe, CI).
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

// RegisterDump renders the CPU's register file and FLAGS, wrapping
// register columns to fit the terminal width rather than a fixed layout.
func RegisterDump(cpu *CPU) string {
	r := cpu.Regs
	fields := []string{
		fmt.Sprintf("AX=%04X", r.AX()), fmt.Sprintf("BX=%04X", r.BX()),
		fmt.Sprintf("CX=%04X", r.CX()), fmt.Sprintf("DX=%04X", r.DX()),
		fmt.Sprintf("SP=%04X", r.SP()), fmt.Sprintf("BP=%04X", r.BP()),
		fmt.Sprintf("SI=%04X", r.SI()), fmt.Sprintf("DI=%04X", r.DI()),
		fmt.Sprintf("CS=%04X", r.CS()), fmt.Sprintf("DS=%04X", r.DS()),
		fmt.Sprintf("ES=%04X", r.ES()), fmt.Sprintf("SS=%04X", r.SS()),
		fmt.Sprintf("IP=%04X", r.IP()),
	}

	width := terminalWidth()
	var b strings.Builder
	lineLen := 0
	for _, f := range fields {
		if lineLen > 0 && lineLen+1+len(f) > width {
			b.WriteByte('\n')
			lineLen = 0
		} else if lineLen > 0 {
			b.WriteByte(' ')
			lineLen++
		}
		b.WriteString(f)
		lineLen += len(f)
	}
	b.WriteByte('\n')
	b.WriteString("FLAGS=")
	b.WriteString(r.String())
	b.WriteByte('\n')

	if cpu.Halted {
		b.WriteString("halted")
		if cpu.FatalError != nil {
			b.WriteString(": ")
			b.WriteString(cpu.FatalError.Error())
		}
		b.WriteByte('\n')
	}
	return b.String()
}
