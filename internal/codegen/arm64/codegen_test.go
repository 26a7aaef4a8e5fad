package arm64

import (
	"testing"

	"github.com/stretchr/testify/require"

	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/codegen"
)

func TestAssignRegisters_Straightline(t *testing.T) {
	cg := newTestCodeGenerator()
	m := cg.Machine()

	// v1 defined by i1, used twice by i2; v2 defined by i2. Definitions
	// count as uses, so v1 carries three.
	v1 := newGPR("v1", 3)
	v2 := newGPR("v2", 1)
	GenerateProcInstruction(cg, NewNode("proc"))
	i1 := GenerateTrg1Src1Instruction(cg, asm_arm64.ORRX, NewNode("def"), v1, nil, nil)
	i2 := GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, NewNode("use"), v2, v1, v1, nil)

	cg.AssignRegisters()

	// the backward walk sees i2 first; v2 dies there and its register is
	// unlatched, so v1 and v2 share x0
	require.Equal(t, codegen.Register(m.RealRegister(X0)), i2.TargetRegister())
	require.Equal(t, codegen.Register(m.RealRegister(X0)), i2.Source1Register())
	require.Equal(t, codegen.Register(m.RealRegister(X0)), i2.Source2Register())
	require.Equal(t, codegen.Register(m.RealRegister(X0)), i1.TargetRegister())

	require.Equal(t, int32(0), v1.FutureUseCount())
	require.Equal(t, int32(0), v2.FutureUseCount())
	require.Nil(t, v1.AssignedRegister())
	require.Nil(t, v2.AssignedRegister())
}

func TestAssignRegisters_TargetConstraint(t *testing.T) {
	cg := newTestCodeGenerator()
	m := cg.Machine()

	// the ABI requires the result of i2 in x8
	v := newGPR("v", 2)
	GenerateProcInstruction(cg, NewNode("proc"))
	i1 := GenerateTrg1Src1Instruction(cg, asm_arm64.ORRX, NewNode("def"), v, nil, nil)
	i2 := GenerateTrg1Src1Instruction(cg, asm_arm64.ORRX, NewNode("ret"), v, nil, nil)
	i2.SetTargetConstraint(X8)

	cg.AssignRegisters()

	require.Equal(t, codegen.Register(m.RealRegister(X8)), i2.TargetRegister())
	require.Equal(t, codegen.Register(m.RealRegister(X8)), i1.TargetRegister())
	require.Equal(t, int32(0), v.FutureUseCount())
}

func TestOutOfLineCodeSection_AssignRegisters(t *testing.T) {
	cg := newTestCodeGenerator()
	m := cg.Machine()
	inst := anchor(cg)

	// two registers live across the OOL branch
	v1 := newGPR("v1", 3)
	v2 := newGPR("v2", 2)
	m.CoerceRegisterAssignment(inst, v1, X0)
	m.CoerceRegisterAssignment(inst, v2, X1)

	// the cold section uses v1 twice and defines vCold
	for i := 0; i < 2; i++ {
		v1.IncTotalUseCount()
		v1.IncFutureUseCount()
		v1.IncOutOfLineUseCount()
	}
	vCold := newGPR("vCold", 1)
	vCold.IncOutOfLineUseCount()

	entry := GenerateLabelInstruction(cg, NewNode("oolEntry"), NewLabelSymbol("oolEntry"), nil)
	coldUse := GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, NewNode("cold"), vCold, v1, v1, nil)
	section := NewOutOfLineCodeSection(cg, entry, coldUse)

	section.AssignRegisters()
	require.True(t, section.HasBeenRegisterAssigned())

	// the cold use kept v1 in its snapshot register
	require.Equal(t, codegen.Register(m.RealRegister(X0)), coldUse.Source1Register())

	// the entry label pins the live mapping for the rejoin
	deps := entry.DependencyConditions()
	require.NotNil(t, deps)
	post := deps.PostConditions()
	require.Len(t, post, 2)
	require.Equal(t, v1, post[0].Register())
	require.Equal(t, X0, post[0].RealRegisterNumber())
	require.Equal(t, v2, post[1].Register())
	require.Equal(t, X1, post[1].RealRegisterNumber())

	// the main line resumes with the snapshot state
	require.Equal(t, v1, m.RealRegister(X0).AssignedRegister())
	require.Equal(t, v2, m.RealRegister(X1).AssignedRegister())

	// the first-time-live list saw the cold definition
	require.Contains(t, cg.FirstTimeLiveOOLRegisterList(), vCold)
	require.False(t, cg.IsOutOfLineColdPath())
}

func TestEmitBinary(t *testing.T) {
	cg := newTestCodeGenerator()
	m := cg.Machine()

	slot := cg.AllocateSpill(codegen.SizeOfReferenceAddress, false)
	GenerateProcInstruction(cg, NewNode("proc"))
	GenerateTrg1Src2Instruction(cg, asm_arm64.ORRX, NewNode("mov"),
		m.RealRegister(X1), m.RealRegister(XZR), m.RealRegister(X2), nil)
	GenerateTrg1MemInstruction(cg, asm_arm64.LDRIMMX, NewNode("load"),
		m.RealRegister(X3), NewSpillSlotMemoryReference(slot), nil)
	GenerateMemSrc1Instruction(cg, asm_arm64.STRIMMX, NewNode("store"),
		NewSpillSlotMemoryReference(slot), m.RealRegister(X3), nil)
	GenerateTrg1Src1Instruction(cg, asm_arm64.FMOVD, NewNode("fmov"),
		m.RealRegister(V1), m.RealRegister(V2), nil)

	code, err := cg.EmitBinary()
	require.NoError(t, err)
	// four real instructions, four bytes each
	require.Equal(t, 16, len(code))
}

func TestEmitBinary_VirtualOperandFails(t *testing.T) {
	cg := newTestCodeGenerator()

	v := newGPR("v", 1)
	GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, NewNode("n"), v, v, v, nil)

	_, err := cg.EmitBinary()
	require.Error(t, err)
}

func TestSpilledRegisterList(t *testing.T) {
	cg := newTestCodeGenerator()
	v1, v2 := newGPR("v1", 1), newGPR("v2", 1)

	cg.AddSpilledRegister(v1)
	cg.AddSpilledRegister(v2)
	// push-front ordering
	require.Equal(t, []*codegen.VirtualRegister{v2, v1}, cg.SpilledRegisterList())

	cg.RemoveSpilledRegister(v1)
	require.Equal(t, []*codegen.VirtualRegister{v2}, cg.SpilledRegisterList())
	require.True(t, cg.IsSpilledRegister(v2))
	require.False(t, cg.IsSpilledRegister(v1))
}
