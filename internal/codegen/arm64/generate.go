package arm64

import (
	"github.com/ternlabs/tern/internal/asm"
	"github.com/ternlabs/tern/internal/codegen"
)

// The generate helpers build one instruction each and link it into the
// stream. With a nil preceding instruction the new one is appended at the
// end; otherwise it is inserted immediately after preceding in program order.
// The register allocator runs backward, so inserting after the instruction
// being assigned places the new code between it and everything already
// processed.

// GenerateTrg1MemInstruction generates a load-form instruction (memory source,
// one register target).
func GenerateTrg1MemInstruction(cg *CodeGenerator, op asm.Instruction, node *Node, trgReg codegen.Register, mr *MemoryReference, preceding *Instruction) *Instruction {
	i := &Instruction{opCode: op, node: node, trg1: trgReg, memRef: mr}
	cg.linkInstruction(i, preceding)
	return i
}

// GenerateMemSrc1Instruction generates a store-form instruction (one register
// source, memory target).
func GenerateMemSrc1Instruction(cg *CodeGenerator, op asm.Instruction, node *Node, mr *MemoryReference, srcReg codegen.Register, preceding *Instruction) *Instruction {
	i := &Instruction{opCode: op, node: node, src1: srcReg, memRef: mr}
	cg.linkInstruction(i, preceding)
	return i
}

// GenerateTrg1Src2Instruction generates a three-operand register instruction.
func GenerateTrg1Src2Instruction(cg *CodeGenerator, op asm.Instruction, node *Node, trgReg, src1Reg, src2Reg codegen.Register, preceding *Instruction) *Instruction {
	i := &Instruction{opCode: op, node: node, trg1: trgReg, src1: src1Reg, src2: src2Reg}
	cg.linkInstruction(i, preceding)
	return i
}

// GenerateTrg1Src1Instruction generates a two-operand register instruction.
func GenerateTrg1Src1Instruction(cg *CodeGenerator, op asm.Instruction, node *Node, trgReg, srcReg codegen.Register, preceding *Instruction) *Instruction {
	i := &Instruction{opCode: op, node: node, trg1: trgReg, src1: srcReg}
	cg.linkInstruction(i, preceding)
	return i
}

// GenerateLabelInstruction generates a label pseudo instruction.
func GenerateLabelInstruction(cg *CodeGenerator, node *Node, label *LabelSymbol, preceding *Instruction) *Instruction {
	i := &Instruction{opCode: labelOpCode, node: node, label: label}
	cg.linkInstruction(i, preceding)
	return i
}

// GenerateProcInstruction generates the procedure-entry pseudo instruction.
func GenerateProcInstruction(cg *CodeGenerator, node *Node) *Instruction {
	i := &Instruction{opCode: procOpCode, node: node}
	cg.linkInstruction(i, nil)
	return i
}
