package arm64

import (
	"fmt"

	goasm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/arm64"

	"github.com/ternlabs/tern/internal/asm"
)

// Assembler assembles the instruction stream produced by the code generator
// into AArch64 machine code via the golang-asm library.
type Assembler struct {
	b *goasm.Builder
}

// NewAssembler returns a new Assembler for arm64.
func NewAssembler() (*Assembler, error) {
	b, err := goasm.NewBuilder("arm64", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create a new assembly builder: %w", err)
	}
	return &Assembler{b: b}, nil
}

// Assemble produces the final binary for the encoded instructions.
func (a *Assembler) Assemble() ([]byte, error) {
	return a.b.Assemble(), nil
}

// EncodeMemoryToRegister encodes an instruction whose source operand is the
// memory address `sourceBaseReg + sourceOffsetConst` and destination is `destinationReg`.
func (a *Assembler) EncodeMemoryToRegister(instruction asm.Instruction, sourceBaseReg asm.Register, sourceOffsetConst asm.ConstantValue, destinationReg asm.Register) error {
	as, err := castAsGolangAsmInstruction(instruction)
	if err != nil {
		return err
	}
	inst := a.b.NewProg()
	inst.As = as
	inst.From.Type = obj.TYPE_MEM
	inst.From.Reg = castAsGolangAsmRegister[sourceBaseReg]
	inst.From.Offset = sourceOffsetConst
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = castAsGolangAsmRegister[destinationReg]
	a.b.AddInstruction(inst)
	return nil
}

// EncodeRegisterToMemory encodes an instruction whose source operand is
// `sourceReg` and destination is the memory address `destinationBaseReg + destinationOffsetConst`.
func (a *Assembler) EncodeRegisterToMemory(instruction asm.Instruction, sourceReg, destinationBaseReg asm.Register, destinationOffsetConst asm.ConstantValue) error {
	as, err := castAsGolangAsmInstruction(instruction)
	if err != nil {
		return err
	}
	inst := a.b.NewProg()
	inst.As = as
	inst.To.Type = obj.TYPE_MEM
	inst.To.Reg = castAsGolangAsmRegister[destinationBaseReg]
	inst.To.Offset = destinationOffsetConst
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = castAsGolangAsmRegister[sourceReg]
	a.b.AddInstruction(inst)
	return nil
}

// EncodeTwoRegistersToRegister encodes an instruction whose source operands
// are the registers `src1` and `src2` and destination is `destination`.
func (a *Assembler) EncodeTwoRegistersToRegister(instruction asm.Instruction, src1, src2, destination asm.Register) error {
	as, err := castAsGolangAsmInstruction(instruction)
	if err != nil {
		return err
	}
	inst := a.b.NewProg()
	inst.As = as
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = castAsGolangAsmRegister[destination]
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = castAsGolangAsmRegister[src1]
	inst.Reg = castAsGolangAsmRegister[src2]
	a.b.AddInstruction(inst)
	return nil
}

// EncodeRegisterToRegister encodes an instruction whose source and destination
// operands are registers.
func (a *Assembler) EncodeRegisterToRegister(instruction asm.Instruction, from, to asm.Register) error {
	as, err := castAsGolangAsmInstruction(instruction)
	if err != nil {
		return err
	}
	inst := a.b.NewProg()
	inst.As = as
	inst.To.Type = obj.TYPE_REG
	inst.To.Reg = castAsGolangAsmRegister[to]
	inst.From.Type = obj.TYPE_REG
	inst.From.Reg = castAsGolangAsmRegister[from]
	a.b.AddInstruction(inst)
	return nil
}

// EncodeStandAlone encodes an instruction taking no operands.
func (a *Assembler) EncodeStandAlone(instruction asm.Instruction) error {
	as, err := castAsGolangAsmInstruction(instruction)
	if err != nil {
		return err
	}
	inst := a.b.NewProg()
	inst.As = as
	a.b.AddInstruction(inst)
	return nil
}

// castAsGolangAsmRegister maps the registers to golang-asm specific register values.
// REGSP is deliberately unmapped: the allocator never emits it.
var castAsGolangAsmRegister = [...]int16{
	REG_R0:  arm64.REG_R0,
	REG_R1:  arm64.REG_R1,
	REG_R2:  arm64.REG_R2,
	REG_R3:  arm64.REG_R3,
	REG_R4:  arm64.REG_R4,
	REG_R5:  arm64.REG_R5,
	REG_R6:  arm64.REG_R6,
	REG_R7:  arm64.REG_R7,
	REG_R8:  arm64.REG_R8,
	REG_R9:  arm64.REG_R9,
	REG_R10: arm64.REG_R10,
	REG_R11: arm64.REG_R11,
	REG_R12: arm64.REG_R12,
	REG_R13: arm64.REG_R13,
	REG_R14: arm64.REG_R14,
	REG_R15: arm64.REG_R15,
	REG_R16: arm64.REG_R16,
	REG_R17: arm64.REG_R17,
	REG_R18: arm64.REG_R18,
	REG_R19: arm64.REG_R19,
	REG_R20: arm64.REG_R20,
	REG_R21: arm64.REG_R21,
	REG_R22: arm64.REG_R22,
	REG_R23: arm64.REG_R23,
	REG_R24: arm64.REG_R24,
	REG_R25: arm64.REG_R25,
	REG_R26: arm64.REG_R26,
	REG_R27: arm64.REG_R27,
	REG_R28: arm64.REG_R28,
	REG_R29: arm64.REG_R29,
	REG_R30: arm64.REG_R30,
	REGZERO: arm64.REGZERO,
	REG_F0:  arm64.REG_F0,
	REG_F1:  arm64.REG_F1,
	REG_F2:  arm64.REG_F2,
	REG_F3:  arm64.REG_F3,
	REG_F4:  arm64.REG_F4,
	REG_F5:  arm64.REG_F5,
	REG_F6:  arm64.REG_F6,
	REG_F7:  arm64.REG_F7,
	REG_F8:  arm64.REG_F8,
	REG_F9:  arm64.REG_F9,
	REG_F10: arm64.REG_F10,
	REG_F11: arm64.REG_F11,
	REG_F12: arm64.REG_F12,
	REG_F13: arm64.REG_F13,
	REG_F14: arm64.REG_F14,
	REG_F15: arm64.REG_F15,
	REG_F16: arm64.REG_F16,
	REG_F17: arm64.REG_F17,
	REG_F18: arm64.REG_F18,
	REG_F19: arm64.REG_F19,
	REG_F20: arm64.REG_F20,
	REG_F21: arm64.REG_F21,
	REG_F22: arm64.REG_F22,
	REG_F23: arm64.REG_F23,
	REG_F24: arm64.REG_F24,
	REG_F25: arm64.REG_F25,
	REG_F26: arm64.REG_F26,
	REG_F27: arm64.REG_F27,
	REG_F28: arm64.REG_F28,
	REG_F29: arm64.REG_F29,
	REG_F30: arm64.REG_F30,
	REG_F31: arm64.REG_F31,
}

// castAsGolangAsmInstruction maps the mnemonics to golang-asm instruction values.
// The golang-asm MOVD/FMOVD forms select LDR/STR encodings from the operand
// types, so the load and store mnemonics share their Go assembler opcode.
func castAsGolangAsmInstruction(instruction asm.Instruction) (obj.As, error) {
	switch instruction {
	case NOP, LABEL, PROC:
		return obj.ANOP, nil
	case RET:
		return obj.ARET, nil
	case B:
		return arm64.AB, nil
	case ORRX:
		return arm64.AORR, nil
	case EORX:
		return arm64.AEOR, nil
	case FMOVD, VLDRIMMD, VSTRIMMD:
		return arm64.AFMOVD, nil
	case LDRIMMX, STRIMMX:
		return arm64.AMOVD, nil
	}
	return obj.AXXX, fmt.Errorf("unsupported mnemonic: %s", InstructionName(instruction))
}
