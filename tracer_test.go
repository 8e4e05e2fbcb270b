// tracer_test.go - static tracer classification, dataflow, and string recovery

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func traceBytes(t *testing.T, code []byte) *TraceResult {
	t.Helper()
	mach := newTestMachine(t, code)
	return mach.TraceLoaded()
}

func TestTracer_RecoversDollarString(t *testing.T) {
	// MOV AH,09; MOV DX,0x010A; INT 21; RET; then "HI!$" at 0x010A.
	code := []byte{
		0xB4, 0x09, // MOV AH, 0x09
		0xBA, 0x0A, 0x01, // MOV DX, 0x010A
		0xCD, 0x21, // INT 0x21
		0xC3,       // RET
		0x00, 0x00, // padding
		'H', 'I', '!', '$',
	}
	res := traceBytes(t, code)

	assert.Equal(t, "HI!", res.Strings[0x010A])
	assert.Equal(t, ClassDollarStringStart, res.Classes[0x010A])
	assert.Equal(t, ClassDollarStringContinuation, res.Classes[0x010B])
	assert.Equal(t, ClassDollarStringContinuation, res.Classes[0x010C])
}

func TestTracer_IntDirtiesRegisters(t *testing.T) {
	// The INT between the two MOVs clobbers the tracer's knowledge of
	// DX, so the second AH=09 call must not be credited with a string.
	code := []byte{
		0xBA, 0x10, 0x01, // MOV DX, 0x0110
		0xCD, 0x72, // INT 0x72 (dirties everything)
		0xB4, 0x09, // MOV AH, 0x09
		0xCD, 0x21, // INT 0x21: DX no longer statically known
		0xC3, // RET
	}
	res := traceBytes(t, code)
	assert.Empty(t, res.Strings)
}

func TestTracer_ArithmeticKeepsRegistersClean(t *testing.T) {
	// DX is derived through MOV+ADD+SUB+INC; the tracer should fold the
	// arithmetic and still resolve DS:DX for the AH=09 call.
	code := []byte{
		0xB4, 0x09, // MOV AH, 0x09
		0xBA, 0x00, 0x01, // MOV DX, 0x0100
		0x81, 0xC2, 0x11, 0x00, // ADD DX, 0x0011
		0x83, 0xEA, 0x02, // SUB DX, 2
		0x42,       // INC DX
		0x42,       // INC DX
		0xCD, 0x21, // INT 0x21 -> DS:0x0111
		0xC3, // RET
		'O', 'K', '$',
	}
	res := traceBytes(t, code)
	assert.Equal(t, "OK", res.Strings[0x0111])
}

func TestTracer_FollowsBothBranchArms(t *testing.T) {
	// JZ over a MOV: both the fallthrough and the target decode.
	code := []byte{
		0x74, 0x03, // JZ +3
		0xB8, 0x01, 0x00, // MOV AX, 1
		0xC3, // RET (branch target)
	}
	res := traceBytes(t, code)
	assert.Equal(t, ClassInstrStart, res.Classes[0x0100])
	assert.Equal(t, ClassInstrStart, res.Classes[0x0102])
	assert.Equal(t, ClassInstrStart, res.Classes[0x0105])
}

func TestTracer_TerminateIntStopsTrace(t *testing.T) {
	// INT 0x21 with AH=0x4C provably never returns; the bytes after it
	// are data, not a fallthrough instruction.
	code := []byte{
		0xB4, 0x4C, // MOV AH, 0x4C
		0xCD, 0x21, // INT 0x21
		0xAA, 0xBB, // never reached
	}
	res := traceBytes(t, code)
	assert.Equal(t, ClassUnknownBytes, res.Classes[0x0104])
	assert.Equal(t, ClassUnknownBytes, res.Classes[0x0105])
}

func TestTracer_DirectMemoryMovMarksVariables(t *testing.T) {
	// MOV AL,[0x0200] and MOV BX,[0x0202]: both targets lie outside the
	// image, so they classify as unset byte/word variables.
	code := []byte{
		0xA0, 0x00, 0x02, // MOV AL, [0x0200]
		0x8B, 0x1E, 0x02, 0x02, // MOV BX, [0x0202]
		0xC3, // RET
	}
	res := traceBytes(t, code)
	assert.Equal(t, ClassMemoryByteUnset, res.Classes[0x0200])
	assert.Equal(t, ClassMemoryWordUnset, res.Classes[0x0202])
}

func TestTracer_UnknownRunsAreBounded(t *testing.T) {
	code := make([]byte, 11)
	code[0] = 0xC3 // RET, then ten unreferenced bytes
	res := traceBytes(t, code)

	runs := res.UnknownRuns()
	total := 0
	for _, r := range runs {
		assert.LessOrEqual(t, int(r[1]-r[0]), maxUnknownRun)
		total += int(r[1] - r[0])
	}
	assert.Equal(t, 10, total)
}

func TestTracer_CallTargetRecordedAsCallSource(t *testing.T) {
	code := []byte{
		0xE8, 0x01, 0x00, // CALL +1 -> 0x0104
		0xC3,       // RET
		0xC3,       // RET (the callee)
	}
	res := traceBytes(t, code)

	sources := res.Seen[0x0104]
	assert.NotEmpty(t, sources)
	assert.Equal(t, UsageCall, sources[0].Kind)
	assert.Equal(t, uint16(0x0100), sources[0].From)
	assert.Equal(t, ClassInstrStart, res.Classes[0x0104])
}

func TestTracer_IsDeterministic(t *testing.T) {
	code := []byte{
		0xB4, 0x09, 0xBA, 0x0C, 0x01, 0x74, 0x02, 0xCD, 0x21, 0xC3, 0x00, 0x00,
		'X', '$',
	}
	a := traceBytes(t, code)
	b := traceBytes(t, code)
	assert.Equal(t, a.Classes, b.Classes)
	assert.Equal(t, a.Strings, b.Strings)
	assert.Equal(t, len(a.Instructions), len(b.Instructions))
}

func TestTracer_DoesNotMutateMemory(t *testing.T) {
	mach := newTestMachine(t, []byte{0xB8, 0x34, 0x12, 0xC3})
	before := append([]byte(nil), mach.Mem.Bytes()...)
	mach.TraceLoaded()
	assert.Equal(t, before, mach.Mem.Bytes())
}
