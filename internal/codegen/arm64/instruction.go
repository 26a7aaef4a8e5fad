package arm64

import (
	"fmt"
	"strings"

	"github.com/ternlabs/tern/internal/asm"
	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/codegen"
)

// Node is the IL node an instruction was selected for. The allocator only
// threads it through to the instructions it synthesizes.
type Node struct {
	name string
}

// NewNode returns a named IL node.
func NewNode(name string) *Node { return &Node{name: name} }

// String implements fmt.Stringer.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.name
}

// LabelSymbol names a branch target in the instruction stream.
type LabelSymbol struct {
	name              string
	startOfColdStream bool
	endOfColdStream   bool
}

// NewLabelSymbol returns a label with the given name.
func NewLabelSymbol(name string) *LabelSymbol { return &LabelSymbol{name: name} }

// Name returns the label name.
func (l *LabelSymbol) Name() string { return l.name }

// IsStartOfColdInstructionStream reports whether this label is the entry of
// an out-of-line cold section.
func (l *LabelSymbol) IsStartOfColdInstructionStream() bool { return l.startOfColdStream }

// SetStartOfColdInstructionStream marks this label as an out-of-line entry.
func (l *LabelSymbol) SetStartOfColdInstructionStream() { l.startOfColdStream = true }

// IsEndOfColdInstructionStream reports whether this label ends an out-of-line
// cold section.
func (l *LabelSymbol) IsEndOfColdInstructionStream() bool { return l.endOfColdStream }

// SetEndOfColdInstructionStream marks this label as the end of an out-of-line
// cold section.
func (l *LabelSymbol) SetEndOfColdInstructionStream() { l.endOfColdStream = true }

// MemoryReference is a base+displacement memory operand. Spill slots are
// addressed off the frame pointer.
type MemoryReference struct {
	baseReg asm.Register
	offset  asm.ConstantValue
	backing *codegen.BackingStore
}

// NewSpillSlotMemoryReference returns a reference to the given spill slot.
func NewSpillSlotMemoryReference(backing *codegen.BackingStore) *MemoryReference {
	return &MemoryReference{baseReg: asm_arm64.REG_R29, offset: backing.Offset(), backing: backing}
}

// BaseRegister returns the base register of the reference.
func (m *MemoryReference) BaseRegister() asm.Register { return m.baseReg }

// Offset returns the displacement of the reference.
func (m *MemoryReference) Offset() asm.ConstantValue { return m.offset }

// BackingStore returns the spill slot this reference addresses, or nil.
func (m *MemoryReference) BackingStore() *codegen.BackingStore { return m.backing }

// Instruction is one node in the doubly linked instruction stream.
type Instruction struct {
	opCode asm.Instruction
	node   *Node

	prev, next *Instruction

	trg1, src1, src2 codegen.Register
	memRef           *MemoryReference
	label            *LabelSymbol
	deps             *RegisterDependencyConditions

	// trg1Constraint, when set, requires trg1 to land in a specific real
	// register (an ABI or opcode constraint).
	trg1Constraint RegNum
}

// OpCodeValue returns the instruction's mnemonic.
func (i *Instruction) OpCodeValue() asm.Instruction { return i.opCode }

// Node returns the IL node this instruction was generated for.
func (i *Instruction) Node() *Node { return i.node }

// Prev returns the previous instruction in program order, or nil.
func (i *Instruction) Prev() *Instruction { return i.prev }

// Next returns the next instruction in program order, or nil.
func (i *Instruction) Next() *Instruction { return i.next }

// IsLabel reports whether this is a label pseudo instruction.
func (i *Instruction) IsLabel() bool { return i.opCode == asm_arm64.LABEL }

// LabelSymbol returns the label of a label instruction, or nil.
func (i *Instruction) LabelSymbol() *LabelSymbol { return i.label }

// MemoryReference returns the memory operand, or nil.
func (i *Instruction) MemoryReference() *MemoryReference { return i.memRef }

// TargetRegister returns the first target operand, or nil.
func (i *Instruction) TargetRegister() codegen.Register { return i.trg1 }

// SetTargetRegister replaces the first target operand.
func (i *Instruction) SetTargetRegister(r codegen.Register) { i.trg1 = r }

// Source1Register returns the first source operand, or nil.
func (i *Instruction) Source1Register() codegen.Register { return i.src1 }

// SetSource1Register replaces the first source operand.
func (i *Instruction) SetSource1Register(r codegen.Register) { i.src1 = r }

// Source2Register returns the second source operand, or nil.
func (i *Instruction) Source2Register() codegen.Register { return i.src2 }

// SetSource2Register replaces the second source operand.
func (i *Instruction) SetSource2Register(r codegen.Register) { i.src2 = r }

// TargetConstraint returns the required real register of trg1, or NoReg.
func (i *Instruction) TargetConstraint() RegNum { return i.trg1Constraint }

// SetTargetConstraint requires trg1 to be assigned the given real register.
func (i *Instruction) SetTargetConstraint(n RegNum) { i.trg1Constraint = n }

// DependencyConditions returns the conditions attached to this instruction, or nil.
func (i *Instruction) DependencyConditions() *RegisterDependencyConditions { return i.deps }

// SetDependencyConditions attaches dependency conditions to this instruction.
func (i *Instruction) SetDependencyConditions(d *RegisterDependencyConditions) { i.deps = d }

// RefsRegister reports whether any operand of this instruction is reg.
func (i *Instruction) RefsRegister(reg codegen.Register) bool {
	if reg == nil {
		return false
	}
	return i.trg1 == reg || i.src1 == reg || i.src2 == reg
}

// String implements fmt.Stringer. The format is similar to the AT&T assembly
// syntax, for debugging purpose only.
func (i *Instruction) String() string {
	name := asm_arm64.InstructionName(i.opCode)
	var operands []string
	if i.memRef != nil && (i.opCode == asm_arm64.LDRIMMX || i.opCode == asm_arm64.VLDRIMMD) {
		operands = append(operands, fmt.Sprintf("[%s + 0x%x]", asm_arm64.RegisterName(i.memRef.baseReg), i.memRef.offset))
	}
	for _, r := range []codegen.Register{i.src1, i.src2} {
		if r != nil {
			operands = append(operands, r.String())
		}
	}
	if i.trg1 != nil {
		operands = append(operands, i.trg1.String())
	}
	if i.memRef != nil && (i.opCode == asm_arm64.STRIMMX || i.opCode == asm_arm64.VSTRIMMD) {
		operands = append(operands, fmt.Sprintf("[%s + 0x%x]", asm_arm64.RegisterName(i.memRef.baseReg), i.memRef.offset))
	}
	if i.label != nil {
		operands = append(operands, i.label.name)
	}
	if len(operands) == 0 {
		return name
	}
	return name + " " + strings.Join(operands, ", ")
}
