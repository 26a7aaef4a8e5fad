package arm64

import (
	"github.com/ternlabs/tern/internal/codegen"
)

// OutOfLineCodeSection is a cold code fragment branched to from the main
// instruction stream and rejoined through the post conditions on its entry
// label. Register assignment walks it with the register file snapshotted, so
// the main line resumes exactly where it left off.
type OutOfLineCodeSection struct {
	cg *CodeGenerator

	entryLabel       *Instruction
	firstInstruction *Instruction
	lastInstruction  *Instruction

	hasBeenRegisterAssigned bool
}

// NewOutOfLineCodeSection wraps the instructions from entryLabel to last as
// an out-of-line section. The entry label is marked as the start of the cold
// instruction stream.
func NewOutOfLineCodeSection(cg *CodeGenerator, entryLabel, last *Instruction) *OutOfLineCodeSection {
	entryLabel.LabelSymbol().SetStartOfColdInstructionStream()
	s := &OutOfLineCodeSection{
		cg:               cg,
		entryLabel:       entryLabel,
		firstInstruction: entryLabel,
		lastInstruction:  last,
	}
	cg.AddOutOfLineCodeSection(s)
	return s
}

// EntryLabel returns the entry label instruction of the section.
func (s *OutOfLineCodeSection) EntryLabel() *Instruction { return s.entryLabel }

// HasBeenRegisterAssigned reports whether AssignRegisters already ran.
func (s *OutOfLineCodeSection) HasBeenRegisterAssigned() bool { return s.hasBeenRegisterAssigned }

// AssignRegisters walks the cold section backward with the register file
// snapshotted, then pins the live mapping at the entry label through a
// dependency condition so the branch from the main line preserves it.
func (s *OutOfLineCodeSection) AssignRegisters() {
	cg := s.cg
	if s.hasBeenRegisterAssigned || cg.Option(codegen.OptionDisableOOL) {
		return
	}
	machine := cg.Machine()

	cg.SetIsOutOfLineColdPath(true)
	machine.TakeRegisterStateSnapshot()
	// The snapshot keeps backing stores alive across the cold walk; slot
	// releases inside it must not detach them from their virtuals.
	cg.LockFreeSpillList()

	for inst := s.lastInstruction; inst != nil; inst = inst.Prev() {
		cg.assignInstructionRegisters(inst)
		if inst == s.firstInstruction {
			break
		}
	}

	// Registers that died inside the cold section are still Unlatched;
	// finalize them to Free before the live mapping is pinned.
	for i := FirstGPR; i < SpilledReg; i++ {
		if reg := machine.RealRegister(i); reg.State() == codegen.Unlatched {
			reg.SetAssignedRegister(nil)
			reg.SetState(codegen.Free)
		}
	}

	deps := machine.CreateDepCondForLiveGPRs(cg.SpilledRegisterList())
	if deps != nil {
		s.entryLabel.SetDependencyConditions(deps)
	}

	cg.UnlockFreeSpillList()
	machine.RestoreRegisterStateFromSnapshot()
	cg.SetIsOutOfLineColdPath(false)
	s.hasBeenRegisterAssigned = true
}
