package arm64

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ternlabs/tern/internal/asm"
	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/codegen"
)

const (
	labelOpCode = asm_arm64.LABEL
	procOpCode  = asm_arm64.PROC
)

// RegisterAssignmentFlag records what kind of assignment the allocator is in
// the middle of, for tracing.
type RegisterAssignmentFlag uint8

const (
	NormalAssignment RegisterAssignmentFlag = 1 << iota
	RegisterSpilled
	RegisterReloaded
	IndirectCoercion
)

// CodeGenerator owns the instruction stream of one compilation and the state
// the register allocator shares with the rest of the code generator: the
// spill-slot pool, the out-of-line path flags and the bookkeeping lists.
type CodeGenerator struct {
	options codegen.Options
	tracer  *codegen.Tracer
	pool    *codegen.SpillPool
	machine *Machine

	first, last *Instruction

	outOfLineColdPath bool
	outOfLineHotPath  bool

	// spilledRegisterList holds the registers spilled before entering the OOL
	// cold path; post dependencies at the OOL entry are generated from it.
	spilledRegisterList []*codegen.VirtualRegister
	// firstTimeLiveOOLRegisterList holds registers that became live for the
	// first time while assigning the OOL cold path.
	firstTimeLiveOOLRegisterList []*codegen.VirtualRegister

	outOfLineCodeSections []*OutOfLineCodeSection

	assignmentFlags RegisterAssignmentFlag
}

// NewCodeGenerator returns a CodeGenerator with a freshly initialized
// register file. A nil logger disables TraceCG output regardless of options.
func NewCodeGenerator(options codegen.Options, logger *zap.Logger) *CodeGenerator {
	if !options.TraceCG {
		logger = nil
	}
	cg := &CodeGenerator{
		options: options,
		tracer:  codegen.NewTracer(logger),
		pool:    codegen.NewSpillPool(),
	}
	cg.machine = NewMachine(cg)
	return cg
}

// Machine returns the register allocator.
func (cg *CodeGenerator) Machine() *Machine { return cg.machine }

// Option reports whether the named compilation option is set.
func (cg *CodeGenerator) Option(name string) bool { return cg.options.Option(name) }

// TraceRegisterAssignment records one diagnostic line when TraceCG is set.
func (cg *CodeGenerator) TraceRegisterAssignment(format string, args ...interface{}) {
	cg.tracer.Tracef(format, args...)
}

// SetRegisterAssignmentFlag marks the current assignment activity.
func (cg *CodeGenerator) SetRegisterAssignmentFlag(f RegisterAssignmentFlag) {
	cg.assignmentFlags |= f
}

// ResetRegisterAssignmentFlag clears one assignment activity flag.
func (cg *CodeGenerator) ResetRegisterAssignmentFlag(f RegisterAssignmentFlag) {
	cg.assignmentFlags &^= f
}

// ClearRegisterAssignmentFlags clears all assignment activity flags.
func (cg *CodeGenerator) ClearRegisterAssignmentFlags() { cg.assignmentFlags = 0 }

// FirstInstruction returns the head of the instruction stream, or nil.
func (cg *CodeGenerator) FirstInstruction() *Instruction { return cg.first }

// LastInstruction returns the tail of the instruction stream, or nil.
func (cg *CodeGenerator) LastInstruction() *Instruction { return cg.last }

// linkInstruction inserts i immediately after preceding, or appends it when
// preceding is nil.
func (cg *CodeGenerator) linkInstruction(i *Instruction, preceding *Instruction) {
	if preceding == nil {
		i.prev = cg.last
		if cg.last != nil {
			cg.last.next = i
		} else {
			cg.first = i
		}
		cg.last = i
		return
	}
	i.prev = preceding
	i.next = preceding.next
	if preceding.next != nil {
		preceding.next.prev = i
	} else {
		cg.last = i
	}
	preceding.next = i
}

// IsOutOfLineColdPath reports whether assignment is inside an OOL cold path.
func (cg *CodeGenerator) IsOutOfLineColdPath() bool { return cg.outOfLineColdPath }

// SetIsOutOfLineColdPath flags entry to or exit from an OOL cold path.
func (cg *CodeGenerator) SetIsOutOfLineColdPath(b bool) { cg.outOfLineColdPath = b }

// IsOutOfLineHotPath reports whether assignment is inside an OOL hot path.
func (cg *CodeGenerator) IsOutOfLineHotPath() bool { return cg.outOfLineHotPath }

// SetIsOutOfLineHotPath flags entry to or exit from an OOL hot path.
func (cg *CodeGenerator) SetIsOutOfLineHotPath(b bool) { cg.outOfLineHotPath = b }

// SpilledRegisterList returns the registers spilled before the OOL entry.
func (cg *CodeGenerator) SpilledRegisterList() []*codegen.VirtualRegister {
	return cg.spilledRegisterList
}

// AddSpilledRegister pushes v on the front of the spilled-register list.
func (cg *CodeGenerator) AddSpilledRegister(v *codegen.VirtualRegister) {
	cg.spilledRegisterList = append([]*codegen.VirtualRegister{v}, cg.spilledRegisterList...)
}

// RemoveSpilledRegister removes v from the spilled-register list.
func (cg *CodeGenerator) RemoveSpilledRegister(v *codegen.VirtualRegister) {
	for i, r := range cg.spilledRegisterList {
		if r == v {
			cg.spilledRegisterList = append(cg.spilledRegisterList[:i], cg.spilledRegisterList[i+1:]...)
			return
		}
	}
}

// IsSpilledRegister reports whether v is in the spilled-register list.
func (cg *CodeGenerator) IsSpilledRegister(v *codegen.VirtualRegister) bool {
	for _, r := range cg.spilledRegisterList {
		if r == v {
			return true
		}
	}
	return false
}

// FirstTimeLiveOOLRegisterList returns the registers first seen live inside
// the OOL cold path.
func (cg *CodeGenerator) FirstTimeLiveOOLRegisterList() []*codegen.VirtualRegister {
	return cg.firstTimeLiveOOLRegisterList
}

// AddFirstTimeLiveOOLRegister pushes v on the front of the first-time-live list.
func (cg *CodeGenerator) AddFirstTimeLiveOOLRegister(v *codegen.VirtualRegister) {
	cg.firstTimeLiveOOLRegisterList = append([]*codegen.VirtualRegister{v}, cg.firstTimeLiveOOLRegisterList...)
}

// ResetFirstTimeLiveOOLRegisterList empties the first-time-live list.
func (cg *CodeGenerator) ResetFirstTimeLiveOOLRegisterList() {
	cg.firstTimeLiveOOLRegisterList = nil
}

// AllocateSpill hands out a spill slot from the pool.
func (cg *CodeGenerator) AllocateSpill(size int64, containsCollectedReference bool) *codegen.BackingStore {
	return cg.pool.AllocateSpill(size, containsCollectedReference)
}

// AllocateInternalPointerSpill hands out a spill slot for an internal pointer.
func (cg *CodeGenerator) AllocateInternalPointerSpill(pinningArray *codegen.PinningArray) *codegen.BackingStore {
	return cg.pool.AllocateInternalPointerSpill(pinningArray)
}

// FreeSpill returns a slot to the pool.
func (cg *CodeGenerator) FreeSpill(b *codegen.BackingStore, size int64, offset int64) {
	cg.pool.FreeSpill(b, size, offset)
}

// IsFreeSpillListLocked reports whether the free-spill list is locked. While
// locked, backing storage must not be detached from its virtual even when the
// slot is released.
func (cg *CodeGenerator) IsFreeSpillListLocked() bool { return cg.pool.IsFreeListLocked() }

// LockFreeSpillList sets the free-spill list reentrancy guard.
func (cg *CodeGenerator) LockFreeSpillList() { cg.pool.LockFreeList() }

// UnlockFreeSpillList clears the free-spill list reentrancy guard.
func (cg *CodeGenerator) UnlockFreeSpillList() { cg.pool.UnlockFreeList() }

// SpillPool returns the compile-scoped slot pool.
func (cg *CodeGenerator) SpillPool() *codegen.SpillPool { return cg.pool }

// AddOutOfLineCodeSection registers an OOL section for assignment.
func (cg *CodeGenerator) AddOutOfLineCodeSection(s *OutOfLineCodeSection) {
	cg.outOfLineCodeSections = append(cg.outOfLineCodeSections, s)
}

// AssignRegisters walks the instruction stream in reverse and binds every
// virtual operand to a real register, spilling and shuffling as needed.
func (cg *CodeGenerator) AssignRegisters() {
	for inst := cg.last; inst != nil; inst = inst.prev {
		cg.assignInstructionRegisters(inst)
	}
}

func (cg *CodeGenerator) assignInstructionRegisters(inst *Instruction) {
	m := cg.machine

	if v, ok := inst.trg1.(*codegen.VirtualRegister); ok {
		if inst.trg1Constraint != NoReg {
			m.CoerceRegisterAssignment(inst, v, inst.trg1Constraint)
			m.DecFutureUseCountAndUnlatch(inst, v)
			inst.trg1 = m.RealRegister(inst.trg1Constraint)
		} else {
			inst.trg1 = m.AssignOneRegister(inst, v)
		}
	}
	if v, ok := inst.src1.(*codegen.VirtualRegister); ok {
		inst.src1 = m.AssignOneRegister(inst, v)
	}
	if v, ok := inst.src2.(*codegen.VirtualRegister); ok {
		inst.src2 = m.AssignOneRegister(inst, v)
	}
}

// EmitBinary assembles the (fully assigned) instruction stream into AArch64
// machine code.
func (cg *CodeGenerator) EmitBinary() ([]byte, error) {
	a, err := asm_arm64.NewAssembler()
	if err != nil {
		return nil, err
	}
	for inst := cg.first; inst != nil; inst = inst.next {
		if err := cg.encodeInstruction(a, inst); err != nil {
			return nil, err
		}
	}
	return a.Assemble()
}

func (cg *CodeGenerator) encodeInstruction(a *asm_arm64.Assembler, inst *Instruction) error {
	op := inst.opCode
	switch op {
	case asm_arm64.LABEL, asm_arm64.PROC, asm_arm64.NOP:
		return nil
	case asm_arm64.RET, asm_arm64.B:
		return a.EncodeStandAlone(op)
	case asm_arm64.LDRIMMX, asm_arm64.VLDRIMMD:
		trg, err := operandAsAsmRegister(inst.trg1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		return a.EncodeMemoryToRegister(op, inst.memRef.baseReg, inst.memRef.offset, trg)
	case asm_arm64.STRIMMX, asm_arm64.VSTRIMMD:
		src, err := operandAsAsmRegister(inst.src1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		return a.EncodeRegisterToMemory(op, src, inst.memRef.baseReg, inst.memRef.offset)
	case asm_arm64.ORRX, asm_arm64.EORX:
		trg, err := operandAsAsmRegister(inst.trg1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		src1, err := operandAsAsmRegister(inst.src1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		src2, err := operandAsAsmRegister(inst.src2)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		return a.EncodeTwoRegistersToRegister(op, src1, src2, trg)
	case asm_arm64.FMOVD:
		trg, err := operandAsAsmRegister(inst.trg1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		src, err := operandAsAsmRegister(inst.src1)
		if err != nil {
			return fmt.Errorf("%s: %w", inst, err)
		}
		return a.EncodeRegisterToRegister(op, src, trg)
	}
	return fmt.Errorf("cannot encode %s", inst)
}

func operandAsAsmRegister(reg codegen.Register) (asm.Register, error) {
	r := toRealRegister(reg)
	if r == nil {
		return asm.NilRegister, fmt.Errorf("operand %v is not a real register", reg)
	}
	return r.AsAsmRegister(), nil
}
