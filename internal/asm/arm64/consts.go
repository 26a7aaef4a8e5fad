package arm64

import (
	"github.com/ternlabs/tern/internal/asm"
)

// AArch64 registers.
// https://developer.arm.com/documentation/dui0801/a/Overview-of-AArch64-state/Predeclared-core-register-names-in-AArch64-state
// Note: naming convension is exactly the same as Go assembler: https://go.dev/doc/asm
const (
	// Integer registers.

	REG_R0 asm.Register = asm.NilRegister + 1 + iota
	REG_R1
	REG_R2
	REG_R3
	REG_R4
	REG_R5
	REG_R6
	REG_R7
	REG_R8
	REG_R9
	REG_R10
	REG_R11
	REG_R12
	REG_R13
	REG_R14
	REG_R15
	REG_R16
	REG_R17
	REG_R18
	REG_R19
	REG_R20
	REG_R21
	REG_R22
	REG_R23
	REG_R24
	REG_R25
	REG_R26
	REG_R27
	REG_R28
	REG_R29
	REG_R30
	REGZERO

	// The stack pointer shares an encoding with REGZERO. The register
	// allocator never emits it, so it has no golang-asm mapping.
	REGSP

	// Scalar floating point registers.

	REG_F0
	REG_F1
	REG_F2
	REG_F3
	REG_F4
	REG_F5
	REG_F6
	REG_F7
	REG_F8
	REG_F9
	REG_F10
	REG_F11
	REG_F12
	REG_F13
	REG_F14
	REG_F15
	REG_F16
	REG_F17
	REG_F18
	REG_F19
	REG_F20
	REG_F21
	REG_F22
	REG_F23
	REG_F24
	REG_F25
	REG_F26
	REG_F27
	REG_F28
	REG_F29
	REG_F30
	REG_F31
)

// The mnemonics the register allocator emits, plus the pseudo instructions
// which only structure the instruction stream.
//
// Note: naming convension for the real mnemonics follows the ARMv8 reference
// manual forms the allocator cares about: the "imm" variants are the
// unsigned-offset addressing forms.
const (
	// NOP is a no-operation placeholder.
	NOP asm.Instruction = iota
	// RET returns from a procedure.
	RET
	// B is an unconditional branch.
	B
	// ORRX is ORR (shifted register, 64-bit). With XZR as the first source
	// it is the canonical register MOV.
	ORRX
	// EORX is EOR (shifted register, 64-bit).
	EORX
	// FMOVD is FMOV (register, double-precision).
	FMOVD
	// LDRIMMX is LDR (immediate, 64-bit).
	LDRIMMX
	// VLDRIMMD is LDR (immediate, SIMD&FP, double-precision).
	VLDRIMMD
	// STRIMMX is STR (immediate, 64-bit).
	STRIMMX
	// VSTRIMMD is STR (immediate, SIMD&FP, double-precision).
	VSTRIMMD

	// LABEL marks a branch target. It assembles to nothing.
	LABEL
	// PROC marks a procedure entry. It assembles to nothing.
	PROC

	// InstructionCount is the number of mnemonics, not a mnemonic itself.
	InstructionCount
)

// RegisterName returns the name of the given register, for debugging and tracing.
func RegisterName(r asm.Register) string {
	if r < REG_R0 || r > REG_F31 {
		return "nil"
	}
	return registerNames[r]
}

var registerNames = [...]string{
	REG_R0:  "R0",
	REG_R1:  "R1",
	REG_R2:  "R2",
	REG_R3:  "R3",
	REG_R4:  "R4",
	REG_R5:  "R5",
	REG_R6:  "R6",
	REG_R7:  "R7",
	REG_R8:  "R8",
	REG_R9:  "R9",
	REG_R10: "R10",
	REG_R11: "R11",
	REG_R12: "R12",
	REG_R13: "R13",
	REG_R14: "R14",
	REG_R15: "R15",
	REG_R16: "R16",
	REG_R17: "R17",
	REG_R18: "R18",
	REG_R19: "R19",
	REG_R20: "R20",
	REG_R21: "R21",
	REG_R22: "R22",
	REG_R23: "R23",
	REG_R24: "R24",
	REG_R25: "R25",
	REG_R26: "R26",
	REG_R27: "R27",
	REG_R28: "R28",
	REG_R29: "R29",
	REG_R30: "R30",
	REGZERO: "ZR",
	REGSP:   "SP",
	REG_F0:  "F0",
	REG_F1:  "F1",
	REG_F2:  "F2",
	REG_F3:  "F3",
	REG_F4:  "F4",
	REG_F5:  "F5",
	REG_F6:  "F6",
	REG_F7:  "F7",
	REG_F8:  "F8",
	REG_F9:  "F9",
	REG_F10: "F10",
	REG_F11: "F11",
	REG_F12: "F12",
	REG_F13: "F13",
	REG_F14: "F14",
	REG_F15: "F15",
	REG_F16: "F16",
	REG_F17: "F17",
	REG_F18: "F18",
	REG_F19: "F19",
	REG_F20: "F20",
	REG_F21: "F21",
	REG_F22: "F22",
	REG_F23: "F23",
	REG_F24: "F24",
	REG_F25: "F25",
	REG_F26: "F26",
	REG_F27: "F27",
	REG_F28: "F28",
	REG_F29: "F29",
	REG_F30: "F30",
	REG_F31: "F31",
}

// InstructionName returns the name of the given mnemonic.
func InstructionName(i asm.Instruction) string {
	switch i {
	case NOP:
		return "NOP"
	case RET:
		return "RET"
	case B:
		return "B"
	case ORRX:
		return "ORRX"
	case EORX:
		return "EORX"
	case FMOVD:
		return "FMOVD"
	case LDRIMMX:
		return "LDRIMMX"
	case VLDRIMMD:
		return "VLDRIMMD"
	case STRIMMX:
		return "STRIMMX"
	case VSTRIMMD:
		return "VSTRIMMD"
	case LABEL:
		return "LABEL"
	case PROC:
		return "PROC"
	}
	return "Unknown"
}
