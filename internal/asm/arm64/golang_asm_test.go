package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembler_Encode(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	require.NoError(t, a.EncodeTwoRegistersToRegister(ORRX, REGZERO, REG_R2, REG_R1))
	require.NoError(t, a.EncodeTwoRegistersToRegister(EORX, REG_R1, REG_R2, REG_R1))
	require.NoError(t, a.EncodeMemoryToRegister(LDRIMMX, REG_R29, 16, REG_R3))
	require.NoError(t, a.EncodeRegisterToMemory(STRIMMX, REG_R3, REG_R29, 16))
	require.NoError(t, a.EncodeMemoryToRegister(VLDRIMMD, REG_R29, 24, REG_F4))
	require.NoError(t, a.EncodeRegisterToMemory(VSTRIMMD, REG_F4, REG_R29, 24))
	require.NoError(t, a.EncodeRegisterToRegister(FMOVD, REG_F2, REG_F1))

	code, err := a.Assemble()
	require.NoError(t, err)
	// arm64 instructions are four bytes, fixed length; the 28 bytes of
	// the seven instructions are padded to the 16-byte function alignment
	require.Equal(t, 32, len(code))
}

func TestAssembler_UnsupportedMnemonic(t *testing.T) {
	a, err := NewAssembler()
	require.NoError(t, err)

	err = a.EncodeRegisterToRegister(InstructionCount, REG_R0, REG_R1)
	require.Error(t, err)
}

func TestRegisterName(t *testing.T) {
	require.Equal(t, "R0", RegisterName(REG_R0))
	require.Equal(t, "ZR", RegisterName(REGZERO))
	require.Equal(t, "SP", RegisterName(REGSP))
	require.Equal(t, "F31", RegisterName(REG_F31))
	require.Equal(t, "nil", RegisterName(-1))
}

func TestInstructionName(t *testing.T) {
	require.Equal(t, "LDRIMMX", InstructionName(LDRIMMX))
	require.Equal(t, "VSTRIMMD", InstructionName(VSTRIMMD))
	require.Equal(t, "LABEL", InstructionName(LABEL))
	require.Equal(t, "Unknown", InstructionName(InstructionCount))
}
