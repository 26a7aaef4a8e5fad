package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"

	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/codegen"
)

func TestLinkInstruction(t *testing.T) {
	cg := newTestCodeGenerator()

	first := GenerateProcInstruction(cg, NewNode("proc"))
	last := anchor(cg)
	require.Equal(t, first, cg.FirstInstruction())
	require.Equal(t, last, cg.LastInstruction())
	require.Equal(t, last, first.Next())
	require.Equal(t, first, last.Prev())

	// inserting after the same preceding instruction twice reverses the
	// program order of the inserted pair
	a := GenerateTrg1Src1Instruction(cg, asm_arm64.NOP, NewNode("a"), nil, nil, first)
	b := GenerateTrg1Src1Instruction(cg, asm_arm64.NOP, NewNode("b"), nil, nil, first)
	require.Equal(t, b, first.Next())
	require.Equal(t, a, b.Next())
	require.Equal(t, last, a.Next())
	require.Equal(t, a, last.Prev())

	// appending after the tail moves the tail
	c := GenerateTrg1Src1Instruction(cg, asm_arm64.NOP, NewNode("c"), nil, nil, last)
	require.Equal(t, c, cg.LastInstruction())
	require.Equal(t, c, last.Next())
}

func TestRefsRegister(t *testing.T) {
	cg := newTestCodeGenerator()
	v1 := newGPR("v1", 1)
	v2 := newGPR("v2", 1)
	v3 := newGPR("v3", 1)
	other := newGPR("other", 1)

	inst := GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, NewNode("n"), v1, v2, v3, nil)
	require.True(t, inst.RefsRegister(v1))
	require.True(t, inst.RefsRegister(v2))
	require.True(t, inst.RefsRegister(v3))
	require.False(t, inst.RefsRegister(other))
	require.False(t, inst.RefsRegister(nil))
}

func TestInstructionString(t *testing.T) {
	cg := newTestCodeGenerator()
	m := cg.Machine()

	mov := GenerateTrg1Src2Instruction(cg, asm_arm64.ORRX, NewNode("n"),
		m.RealRegister(X1), m.RealRegister(XZR), m.RealRegister(X2), nil)
	require.Equal(t, "ORRX ZR, R2, R1", mov.String())

	slot := cg.AllocateSpill(codegen.SizeOfReferenceAddress, false)
	load := GenerateTrg1MemInstruction(cg, asm_arm64.LDRIMMX, NewNode("n"),
		m.RealRegister(X3), NewSpillSlotMemoryReference(slot), nil)
	require.Equal(t, "LDRIMMX [R29 + 0x0], R3", load.String())
}

func TestLabelSymbol(t *testing.T) {
	cg := newTestCodeGenerator()
	label := NewLabelSymbol("oolEntry")
	inst := GenerateLabelInstruction(cg, NewNode("n"), label, nil)

	require.True(t, inst.IsLabel())
	require.Equal(t, label, inst.LabelSymbol())
	require.False(t, label.IsStartOfColdInstructionStream())
	label.SetStartOfColdInstructionStream()
	require.True(t, label.IsStartOfColdInstructionStream())
}
