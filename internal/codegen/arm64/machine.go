package arm64

import (
	"github.com/ternlabs/tern/internal/asm"
	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/buildoptions"
	"github.com/ternlabs/tern/internal/codegen"
)

// Machine is the local register allocator. It owns the real register file and
// rewrites the instruction stream, walked in reverse by the CodeGenerator, so
// that every virtual operand ends up in a real register, with spill and
// reload traffic inserted where the file runs out.
type Machine struct {
	cg *CodeGenerator

	registerFile [NumRegisters]*RealRegister

	registerStatesSnapshot   [NumRegisters]codegen.RegisterState
	assignedRegisterSnapshot [NumRegisters]*codegen.VirtualRegister
	registerFlagsSnapshot    [NumRegisters]RealRegisterFlags
}

// NewMachine returns a Machine with an initialized register file.
func NewMachine(cg *CodeGenerator) *Machine {
	m := &Machine{cg: cg}
	m.initializeRegisterFile()
	return m
}

// initializeRegisterFile populates the descriptors: x0..x29 and lr assignable,
// sp and xzr permanently locked, v0..v31 assignable. All weights start at 0.
func (m *Machine) initializeRegisterFile() {
	for i := FirstGPR; i <= LastAssignableGPR; i++ {
		m.registerFile[i] = NewRealRegister(codegen.GPRKind, 0, codegen.Free, i)
	}
	m.registerFile[SP] = NewRealRegister(codegen.GPRKind, 0, codegen.Locked, SP)
	m.registerFile[XZR] = NewRealRegister(codegen.GPRKind, 0, codegen.Locked, XZR)
	for i := FirstFPR; i <= LastFPR; i++ {
		m.registerFile[i] = NewRealRegister(codegen.FPRKind, 0, codegen.Free, i)
	}
}

// RealRegister returns the descriptor with the given register number.
func (m *Machine) RealRegister(n RegNum) *RealRegister { return m.registerFile[n] }

// RegisterFile returns the descriptor array, indexed by RegNum.
func (m *Machine) RegisterFile() *[NumRegisters]*RealRegister { return &m.registerFile }

func kindRange(rk codegen.RegisterKind, assignableOnly bool) (first, last RegNum) {
	switch rk {
	case codegen.GPRKind:
		if assignableOnly {
			return FirstGPR, LastAssignableGPR
		}
		return FirstGPR, LastGPR
	case codegen.FPRKind:
		return FirstFPR, LastFPR
	}
	codegen.Fatalf(codegen.UnsupportedRegisterKind, "unsupported register kind %d", rk)
	return
}

// FindBestFreeRegister returns the free descriptor of the given kind with the
// lowest weight, or nil. With considerUnlatched, unlatched descriptors also
// qualify and are downgraded to Free in the act of being returned.
func (m *Machine) FindBestFreeRegister(rk codegen.RegisterKind, considerUnlatched bool) *RealRegister {
	first, last := kindRange(rk, true)

	bestWeightSoFar := uint32(0xffffffff)
	var freeRegister *RealRegister
	for i := first; i <= last; i++ {
		reg := m.registerFile[i]
		if (reg.State() == codegen.Free ||
			(considerUnlatched && reg.State() == codegen.Unlatched)) &&
			reg.Weight() < bestWeightSoFar {
			freeRegister = reg
			bestWeightSoFar = reg.Weight()
		}
	}
	if freeRegister != nil && freeRegister.State() == codegen.Unlatched {
		freeRegister.SetAssignedRegister(nil)
		freeRegister.SetState(codegen.Free)
	}
	return freeRegister
}

// FreeBestRegister evicts a currently assigned virtual to memory and returns
// its real register, ready for reassignment. The reload of the victim is
// inserted right after currentInstruction, between it and the already
// assigned (later in program order) uses of the victim. With a non-nil forced
// register the victim is whatever it currently backs; otherwise the victim is
// picked by narrowing the assigned set against currentInstruction and the
// instructions preceding it until one survivor remains.
func (m *Machine) FreeBestRegister(currentInstruction *Instruction, virtualRegister *codegen.VirtualRegister, forced *RealRegister) *RealRegister {
	cg := m.cg
	currentNode := currentInstruction.Node()

	rk := codegen.GPRKind
	if virtualRegister != nil {
		rk = virtualRegister.Kind()
	}

	var best *RealRegister
	var candidates []*codegen.VirtualRegister

	if forced != nil {
		best = forced
		candidates = append(candidates, best.AssignedRegister())
	} else {
		first, last := kindRange(rk, false)
		for i := first; i <= last; i++ {
			realReg := m.registerFile[i]
			if realReg.State() == codegen.Assigned {
				candidates = append(candidates, realReg.AssignedRegister())
			}
		}
		codegen.AssertFatal(len(candidates) != 0, codegen.NoCandidatesToSpill, "all registers are blocked")

		numCandidates := len(candidates)
		cursor := currentInstruction
		for numCandidates > 1 &&
			cursor != nil &&
			cursor.OpCodeValue() != labelOpCode &&
			cursor.OpCodeValue() != procOpCode {
			for i := 0; i < numCandidates; i++ {
				if cursor.RefsRegister(candidates[i]) {
					numCandidates--
					candidates[i] = candidates[numCandidates]
				}
			}
			cursor = cursor.Prev()
		}
		candidates = candidates[:numCandidates]
		best = toRealRegister(candidates[0].AssignedRegister())
	}

	registerToSpill := candidates[0]
	location := registerToSpill.BackingStorage()

	switch rk {
	case codegen.GPRKind:
		if !cg.Option(codegen.OptionDisableOOL) &&
			(cg.IsOutOfLineColdPath() || cg.IsOutOfLineHotPath()) &&
			registerToSpill.BackingStorage() != nil {
			// reuse the spill slot
			cg.TraceRegisterAssignment("OOL: reuse backing store (%v) for %s inside OOL", location, registerToSpill)
		} else if !registerToSpill.ContainsInternalPointer() {
			location = cg.AllocateSpill(codegen.SizeOfReferenceAddress, registerToSpill.ContainsCollectedReference())
			cg.TraceRegisterAssignment("spilling %s to (%v)", registerToSpill, location)
		} else {
			location = cg.AllocateInternalPointerSpill(registerToSpill.PinningArrayPointer())
			cg.TraceRegisterAssignment("spilling internal pointer %s to (%v)", registerToSpill, location)
		}
	case codegen.FPRKind:
		if !cg.Option(codegen.OptionDisableOOL) &&
			(cg.IsOutOfLineColdPath() || cg.IsOutOfLineHotPath()) &&
			registerToSpill.BackingStorage() != nil {
			// reuse the spill slot
			cg.TraceRegisterAssignment("OOL: reuse backing store (%v) for %s inside OOL", location, registerToSpill)
		} else {
			location = cg.AllocateSpill(8, false)
			cg.TraceRegisterAssignment("spilling FPR %s to (%v)", registerToSpill, location)
		}
	}

	registerToSpill.SetBackingStorage(location)

	tmemref := NewSpillSlotMemoryReference(location)

	if !cg.Option(codegen.OptionDisableOOL) {
		if !cg.IsOutOfLineColdPath() {
			// The spilled-register list holds everything spilled before entry
			// to the OOL cold path; the post dependencies at the OOL entry are
			// generated from it. Depth: 3 cold path, 2 hot path, 1 main line.
			// A spill outside the OOL cold/hot path must protect its slot from
			// a reverse spill inside the OOL cold/hot path.
			cg.AddSpilledRegister(registerToSpill)

			if !cg.IsOutOfLineHotPath() {
				location.SetMaxSpillDepth(codegen.SpillDepthMainLine)
			} else {
				// do not overwrite the main line spill depth
				if location.MaxSpillDepth() != codegen.SpillDepthMainLine {
					location.SetMaxSpillDepth(codegen.SpillDepthHotPath)
				}
			}
			cg.TraceRegisterAssignment("OOL: adding %s to the spilled register list, maxSpillDepth = %d",
				registerToSpill, location.MaxSpillDepth())
		} else {
			// Do not overwrite the main line and hot path spill depth. A spill
			// inside the OOL cold path does not protect its slot: the post
			// condition at the OOL entry does not expect this register spilled.
			if location.MaxSpillDepth() != codegen.SpillDepthMainLine &&
				location.MaxSpillDepth() != codegen.SpillDepthHotPath {
				location.SetMaxSpillDepth(codegen.SpillDepthColdPath)
				cg.TraceRegisterAssignment("OOL: in OOL cold path, spilling %s not adding to the spilled register list", registerToSpill)
			}
		}
	}

	if cg.Option(codegen.OptionTraceCG) {
		cg.TraceRegisterAssignment("spilling %s (%s)", registerToSpill, best)
	}

	var loadOp asm.Instruction
	switch rk {
	case codegen.GPRKind:
		loadOp = asm_arm64.LDRIMMX
	case codegen.FPRKind:
		loadOp = asm_arm64.VLDRIMMD
	}
	GenerateTrg1MemInstruction(cg, loadOp, currentNode, best, tmemref, currentInstruction)

	cg.TraceRegisterAssignment("freed %s from %s", best, registerToSpill)

	best.SetAssignedRegister(nil)
	best.SetState(codegen.Free)
	registerToSpill.SetAssignedRegister(nil)
	return best
}

// ReverseSpillState reconstitutes a spilled virtual at a prior (in program
// order) use discovered by the backward walk: the virtual gets a register,
// and the store pairing with the reload emitted further down the stream is
// inserted right after currentInstruction. Slot release follows the depth
// protocol: the main line always frees the slot, the hot path frees only a
// slot spilled on the hot path, and the cold path frees a slot spilled on the
// cold path, a slot already reset to released, or any slot at the OOL entry
// label. Every other slot stays protected.
func (m *Machine) ReverseSpillState(currentInstruction *Instruction, spilledRegister *codegen.VirtualRegister, targetRegister *RealRegister) *RealRegister {
	cg := m.cg
	location := spilledRegister.BackingStorage()
	currentNode := currentInstruction.Node()
	rk := spilledRegister.Kind()

	if targetRegister == nil {
		targetRegister = m.FindBestFreeRegister(rk, false)
		if targetRegister == nil {
			targetRegister = m.FreeBestRegister(currentInstruction, spilledRegister, nil)
		}
		targetRegister.SetState(codegen.Assigned)
	}

	if cg.IsOutOfLineColdPath() {
		// The future and total use counts do not always reflect the spill
		// state here: a new register assignment in the hot path makes them
		// diverge without a slot ever being allocated. Hand out the register
		// and let the hot path or main line attach storage.
		if location == nil {
			cg.TraceRegisterAssignment("OOL: not generating reverse spill for (%s)", spilledRegister)
			return targetRegister
		}
	}

	if cg.Option(codegen.OptionTraceCG) {
		cg.TraceRegisterAssignment("re-assigning spilled %s to %s", spilledRegister, targetRegister)
	}

	tmemref := NewSpillSlotMemoryReference(location)

	var dataSize int64
	var storeOp asm.Instruction
	switch rk {
	case codegen.GPRKind:
		dataSize = codegen.SizeOfReferenceAddress
		storeOp = asm_arm64.STRIMMX
	case codegen.FPRKind:
		dataSize = 8
		storeOp = asm_arm64.VSTRIMMD
	default:
		codegen.Fatalf(codegen.UnsupportedRegisterKind, "unsupported register kind %d", rk)
	}

	if cg.Option(codegen.OptionDisableOOL) {
		cg.FreeSpill(location, dataSize, 0)
		GenerateMemSrc1Instruction(cg, storeOp, currentNode, tmemref, targetRegister, currentInstruction)
		return targetRegister
	}

	if cg.IsOutOfLineColdPath() {
		isOOLentryReverseSpill := false
		if currentInstruction.IsLabel() &&
			currentInstruction.LabelSymbol().IsStartOfColdInstructionStream() {
			// We are at the OOL entry point post conditions. Exiting the cold
			// path (in reverse order) with a reverse spill means the main line
			// expects the virtual in a real register, so the protected backing
			// storage can be released now instead of staying locked for
			// future OOL blocks.
			isOOLentryReverseSpill = true
		}
		// Only free the spill slot if the register was spilled in the same or
		// a less dominant path, i.e. spilled in the cold path and reverse
		// spilled in the cold path as well. Otherwise the register is
		// spilled again at the OOL entry point due to the post conditions, and
		// the same slot must stay protected and be reused. A depth of 0 means
		// the reverse spill already happened on the hot path; this is the last
		// chance to free the slot.
		if location.MaxSpillDepth() == codegen.SpillDepthColdPath ||
			location.MaxSpillDepth() == codegen.SpillDepthReleased ||
			isOOLentryReverseSpill {
			if location.MaxSpillDepth() == codegen.SpillDepthReleased {
				cg.TraceRegisterAssignment("OOL: reverse spill %s on both paths, freeing spill slot (%v)", spilledRegister, location)
			}
			location.SetMaxSpillDepth(codegen.SpillDepthReleased)
			cg.FreeSpill(location, dataSize, 0)
			if !cg.IsFreeSpillListLocked() {
				spilledRegister.SetBackingStorage(nil)
			}
		} else {
			cg.TraceRegisterAssignment("OOL: reverse spill %s in less dominant path (%d / 3), protect spill slot (%v)",
				spilledRegister, location.MaxSpillDepth(), location)
		}
	} else if cg.IsOutOfLineHotPath() {
		// Any register reverse spilled before the OOL entry (in backward
		// order) must come off the spilled-register list so the entry post
		// dependencies no longer expect it in memory.
		cg.TraceRegisterAssignment("OOL: removing %s from the spilled register list", spilledRegister)
		cg.RemoveSpilledRegister(spilledRegister)

		// Resetting the depth here tells the cold path to free the slot, and
		// keeps the slot out of future GC points in the hot path while it is
		// protected.
		originalDepth := location.MaxSpillDepth()
		location.SetMaxSpillDepth(codegen.SpillDepthReleased)
		if originalDepth == codegen.SpillDepthHotPath {
			cg.FreeSpill(location, dataSize, 0)
			if !cg.IsFreeSpillListLocked() {
				spilledRegister.SetBackingStorage(nil)
			}
		} else {
			cg.TraceRegisterAssignment("OOL: reverse spilling %s in less dominant path (%d / 2), protect spill slot (%v)",
				spilledRegister, originalDepth, location)
		}
	} else { // main line
		cg.TraceRegisterAssignment("OOL: removing %s from the spilled register list", spilledRegister)
		cg.RemoveSpilledRegister(spilledRegister)
		location.SetMaxSpillDepth(codegen.SpillDepthReleased)
		cg.FreeSpill(location, dataSize, 0)

		if !cg.IsFreeSpillListLocked() {
			spilledRegister.SetBackingStorage(nil)
		}
	}

	GenerateMemSrc1Instruction(cg, storeOp, currentNode, tmemref, targetRegister, currentInstruction)
	return targetRegister
}

// AssignOneRegister binds virtualRegister for its use at currentInstruction,
// reloading it if it was spilled, and does the use-count bookkeeping.
func (m *Machine) AssignOneRegister(currentInstruction *Instruction, virtualRegister *codegen.VirtualRegister) *RealRegister {
	cg := m.cg
	rk := virtualRegister.Kind()
	assignedRegister := toRealRegister(virtualRegister.AssignedRegister())

	if assignedRegister == nil {
		cg.ClearRegisterAssignmentFlags()
		cg.SetRegisterAssignmentFlag(NormalAssignment)

		if virtualRegister.TotalUseCount() != virtualRegister.FutureUseCount() {
			cg.SetRegisterAssignmentFlag(RegisterReloaded)
			assignedRegister = m.ReverseSpillState(currentInstruction, virtualRegister, nil)
		} else {
			assignedRegister = m.FindBestFreeRegister(rk, true)
			if assignedRegister == nil {
				cg.SetRegisterAssignmentFlag(RegisterSpilled)
				assignedRegister = m.FreeBestRegister(currentInstruction, virtualRegister, nil)
			}
			if !cg.Option(codegen.OptionDisableOOL) && cg.IsOutOfLineColdPath() {
				cg.AddFirstTimeLiveOOLRegister(virtualRegister)
			}
		}

		virtualRegister.SetAssignedRegister(assignedRegister)
		assignedRegister.SetAssignedRegister(virtualRegister)
		assignedRegister.SetState(codegen.Assigned)
		cg.TraceRegisterAssignment("assigned %s to %s", virtualRegister, assignedRegister)
	} else {
		codegen.AssertFatal(assignedRegister.AssignedRegister() != nil,
			codegen.BrokenBinding, "assigned register %s does not have an assigned virtual register", assignedRegister)
	}

	// Do bookkeeping register use count
	m.DecFutureUseCountAndUnlatch(currentInstruction, virtualRegister)

	if buildoptions.CheckInvariants {
		m.checkRegisterFileIntegrity()
	}
	return assignedRegister
}

// registerCopy generates the instruction moving a value between two real
// registers of the given kind, linked after precedingInstruction.
func registerCopy(precedingInstruction *Instruction, rk codegen.RegisterKind, targetReg, sourceReg *RealRegister, cg *CodeGenerator) {
	node := precedingInstruction.Node()
	switch rk {
	case codegen.GPRKind:
		zeroReg := cg.Machine().RealRegister(XZR)
		/* mov (register) */
		GenerateTrg1Src2Instruction(cg, asm_arm64.ORRX, node, targetReg, zeroReg, sourceReg, precedingInstruction)
	case codegen.FPRKind:
		GenerateTrg1Src1Instruction(cg, asm_arm64.FMOVD, node, targetReg, sourceReg, precedingInstruction)
	default:
		codegen.Fatalf(codegen.UnsupportedRegisterKind, "unsupported register kind %d", rk)
	}
}

// registerExchange generates the instructions swapping two real registers.
// GPRs use the three-EOR trick and need no scratch; FPRs move through
// middleReg. All instructions hang off the same preceding instruction, so
// they execute in the reverse of the order generated here.
func registerExchange(precedingInstruction *Instruction, rk codegen.RegisterKind, targetReg, sourceReg, middleReg *RealRegister, cg *CodeGenerator) {
	node := precedingInstruction.Node()
	if rk == codegen.GPRKind {
		GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, node, targetReg, targetReg, sourceReg, precedingInstruction)
		GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, node, sourceReg, targetReg, sourceReg, precedingInstruction)
		GenerateTrg1Src2Instruction(cg, asm_arm64.EORX, node, targetReg, targetReg, sourceReg, precedingInstruction)
	} else {
		registerCopy(precedingInstruction, rk, targetReg, middleReg, cg)
		registerCopy(precedingInstruction, rk, sourceReg, targetReg, cg)
		registerCopy(precedingInstruction, rk, middleReg, sourceReg, cg)
	}
}

func blockVirtual(v *codegen.VirtualRegister) {
	if r := toRealRegister(v.AssignedRegister()); r != nil {
		r.SetState(codegen.Blocked)
	}
}

func unblockVirtual(v *codegen.VirtualRegister) {
	if r := toRealRegister(v.AssignedRegister()); r != nil {
		r.SetState(codegen.Assigned)
	}
}

// CoerceRegisterAssignment makes virtualRegister occupy exactly the real
// register registerNumber, moving, exchanging, or displacing whatever is in
// the way.
func (m *Machine) CoerceRegisterAssignment(currentInstruction *Instruction, virtualRegister *codegen.VirtualRegister, registerNumber RegNum) {
	cg := m.cg
	targetRegister := m.registerFile[registerNumber]
	currentAssignedRegister := toRealRegister(virtualRegister.AssignedRegister())
	rk := virtualRegister.Kind()

	if cg.Option(codegen.OptionTraceCG) {
		if currentAssignedRegister != nil {
			cg.TraceRegisterAssignment("coercing %s from %s to %s", virtualRegister, currentAssignedRegister, targetRegister)
		} else {
			cg.TraceRegisterAssignment("coercing %s to %s", virtualRegister, targetRegister)
		}
	}

	if currentAssignedRegister == targetRegister {
		return
	}

	if targetRegister.State() == codegen.Free || targetRegister.State() == codegen.Unlatched {
		if currentAssignedRegister == nil {
			if virtualRegister.TotalUseCount() != virtualRegister.FutureUseCount() {
				cg.SetRegisterAssignmentFlag(RegisterReloaded)
				m.ReverseSpillState(currentInstruction, virtualRegister, targetRegister)
			} else {
				if !cg.Option(codegen.OptionDisableOOL) && cg.IsOutOfLineColdPath() {
					cg.AddFirstTimeLiveOOLRegister(virtualRegister)
				}
			}
		} else {
			registerCopy(currentInstruction, rk, currentAssignedRegister, targetRegister, cg)
			currentAssignedRegister.SetState(codegen.Free)
			currentAssignedRegister.SetAssignedRegister(nil)
		}
	} else {
		var spareReg *RealRegister
		currentTargetVirtual := targetRegister.AssignedRegister()

		needTemp := rk == codegen.FPRKind // xor is unavailable for register exchange

		if targetRegister.State() == codegen.Blocked {
			if currentAssignedRegister == nil || needTemp {
				spareReg = m.FindBestFreeRegister(rk, false)
				cg.SetRegisterAssignmentFlag(IndirectCoercion)
				if spareReg == nil {
					cg.SetRegisterAssignmentFlag(RegisterSpilled)
					blockVirtual(virtualRegister)
					spareReg = m.FreeBestRegister(currentInstruction, currentTargetVirtual, nil)
					unblockVirtual(virtualRegister)
				}
			}

			if currentAssignedRegister != nil {
				cg.TraceRegisterAssignment("%s swapped to %s", currentTargetVirtual, currentAssignedRegister)
				registerExchange(currentInstruction, rk, targetRegister, currentAssignedRegister, spareReg, cg)
				currentAssignedRegister.SetState(codegen.Blocked)
				currentAssignedRegister.SetAssignedRegister(currentTargetVirtual)
				currentTargetVirtual.SetAssignedRegister(currentAssignedRegister)
				// For non-GPR, spareReg remains FREE.
			} else {
				cg.TraceRegisterAssignment("%s moved to %s", currentTargetVirtual, spareReg)
				registerCopy(currentInstruction, rk, targetRegister, spareReg, cg)
				spareReg.SetState(codegen.Blocked)
				currentTargetVirtual.SetAssignedRegister(spareReg)
				spareReg.SetAssignedRegister(currentTargetVirtual)
				// spareReg is assigned.

				if virtualRegister.TotalUseCount() != virtualRegister.FutureUseCount() {
					cg.SetRegisterAssignmentFlag(RegisterReloaded)
					m.ReverseSpillState(currentInstruction, virtualRegister, targetRegister)
				} else {
					if !cg.Option(codegen.OptionDisableOOL) && cg.IsOutOfLineColdPath() {
						cg.AddFirstTimeLiveOOLRegister(virtualRegister)
					}
				}
			}
		} else if targetRegister.State() == codegen.Assigned {
			if currentAssignedRegister == nil || needTemp {
				spareReg = m.FindBestFreeRegister(rk, false)
			}

			cg.SetRegisterAssignmentFlag(IndirectCoercion)
			if currentAssignedRegister != nil {
				if !needTemp || spareReg != nil {
					cg.TraceRegisterAssignment("%s swapped to %s", currentTargetVirtual, currentAssignedRegister)
					registerExchange(currentInstruction, rk, targetRegister, currentAssignedRegister, spareReg, cg)
					currentAssignedRegister.SetState(codegen.Assigned)
					currentAssignedRegister.SetAssignedRegister(currentTargetVirtual)
					currentTargetVirtual.SetAssignedRegister(currentAssignedRegister)
					// spareReg is still FREE.
				} else {
					m.FreeBestRegister(currentInstruction, currentTargetVirtual, targetRegister)
					cg.TraceRegisterAssignment("%s spilled out of %s", currentTargetVirtual, targetRegister)
					cg.SetRegisterAssignmentFlag(RegisterSpilled)
					registerCopy(currentInstruction, rk, currentAssignedRegister, targetRegister, cg)
					currentAssignedRegister.SetState(codegen.Free)
					currentAssignedRegister.SetAssignedRegister(nil)
				}
			} else {
				if spareReg == nil {
					cg.SetRegisterAssignmentFlag(RegisterSpilled)
					m.FreeBestRegister(currentInstruction, currentTargetVirtual, targetRegister)
				} else {
					cg.TraceRegisterAssignment("%s moved to %s", currentTargetVirtual, spareReg)
					registerCopy(currentInstruction, rk, targetRegister, spareReg, cg)
					spareReg.SetState(codegen.Assigned)
					spareReg.SetAssignedRegister(currentTargetVirtual)
					currentTargetVirtual.SetAssignedRegister(spareReg)
					// spareReg is assigned.
				}

				if virtualRegister.TotalUseCount() != virtualRegister.FutureUseCount() {
					cg.SetRegisterAssignmentFlag(RegisterReloaded)
					m.ReverseSpillState(currentInstruction, virtualRegister, targetRegister)
				} else {
					if !cg.Option(codegen.OptionDisableOOL) && cg.IsOutOfLineColdPath() {
						cg.AddFirstTimeLiveOOLRegister(virtualRegister)
					}
				}
			}
			cg.ResetRegisterAssignmentFlag(IndirectCoercion)
		} else {
			cg.TraceRegisterAssignment("coercion target %s is in state %s", targetRegister, targetRegister.State())
		}
	}

	targetRegister.SetState(codegen.Assigned)
	targetRegister.SetAssignedRegister(virtualRegister)
	virtualRegister.SetAssignedRegister(targetRegister)
	cg.TraceRegisterAssignment("assigned %s to %s", virtualRegister, targetRegister)
}

// DecFutureUseCountAndUnlatch decrements the future use count of the given
// virtual register, and the out-of-line use count when assignment is stepping
// through an OOL cold path. If no future use remains, or all remaining uses
// are out of line while assigning the hot path, the backing real register is
// unlatched: the next free-register search may reclaim it, and if the
// register has OOL uses remaining it is revived when the allocator reaches
// the branch to the outlined code.
func (m *Machine) DecFutureUseCountAndUnlatch(currentInstruction *Instruction, virtualRegister *codegen.VirtualRegister) {
	cg := m.cg

	virtualRegister.DecFutureUseCount()

	codegen.AssertFatal(virtualRegister.FutureUseCount() >= 0,
		codegen.NegativeFutureUseCount,
		"register %s futureUseCount should not be negative (for node %s)",
		virtualRegister, currentInstruction.Node())

	if cg.IsOutOfLineColdPath() {
		virtualRegister.DecOutOfLineUseCount()
	}

	codegen.AssertFatal(virtualRegister.FutureUseCount() >= virtualRegister.OutOfLineUseCount(),
		codegen.UseCountInvariantBroken,
		"register %s future use count (%d) is less than out of line use count (%d)",
		virtualRegister, virtualRegister.FutureUseCount(), virtualRegister.OutOfLineUseCount())

	if virtualRegister.FutureUseCount() == 0 ||
		(cg.IsOutOfLineHotPath() && virtualRegister.FutureUseCount() == virtualRegister.OutOfLineUseCount()) {
		if virtualRegister.FutureUseCount() != 0 {
			cg.TraceRegisterAssignment("OOL: %s's remaining uses are out-of-line, unlatching", virtualRegister)
		}
		assignedRegister := toRealRegister(virtualRegister.AssignedRegister())
		codegen.AssertFatal(assignedRegister != nil,
			codegen.BrokenBinding, "unlatching %s without an assigned real register", virtualRegister)
		assignedRegister.SetAssignedRegister(nil)
		assignedRegister.SetState(codegen.Unlatched)
		virtualRegister.SetAssignedRegister(nil)
	}
}

// TakeRegisterStateSnapshot captures state, assigned virtual and flags of
// every descriptor. SpilledReg is a pseudo register and is skipped.
func (m *Machine) TakeRegisterStateSnapshot() {
	for i := FirstGPR; i < SpilledReg; i++ {
		m.registerStatesSnapshot[i] = m.registerFile[i].State()
		m.assignedRegisterSnapshot[i] = m.registerFile[i].AssignedRegister()
		m.registerFlagsSnapshot[i] = m.registerFile[i].Flags()
	}
}

// RestoreRegisterStateFromSnapshot writes the snapshot back in a single pass.
// Registers whose virtual died since the snapshot collapse to Free: they are
// guaranteed not to be used in the outlined path.
func (m *Machine) RestoreRegisterStateFromSnapshot() {
	for i := FirstGPR; i < SpilledReg; i++ {
		reg := m.registerFile[i]
		reg.SetFlags(m.registerFlagsSnapshot[i])
		reg.SetState(m.registerStatesSnapshot[i])
		if reg.State() == codegen.Free {
			if reg.AssignedRegister() != nil {
				// clear the virt -> real assignment of a register restored to FREE
				reg.AssignedRegister().SetAssignedRegister(nil)
			}
		} else if reg.State() == codegen.Assigned {
			if reg.AssignedRegister() != nil &&
				reg.AssignedRegister() != m.assignedRegisterSnapshot[i] {
				// The virtual currently here was moved in by an earlier
				// iteration of this loop; only break the back-pointer if it
				// still points at this descriptor, otherwise the newer
				// assignment would be destroyed.
				if reg.AssignedRegister().AssignedRegister() == codegen.Register(reg) {
					reg.AssignedRegister().SetAssignedRegister(nil)
				}
			}
		}
		reg.SetAssignedRegister(m.assignedRegisterSnapshot[i])
		if reg.State() == codegen.Assigned {
			reg.AssignedRegister().SetAssignedRegister(reg)
		}
		if reg.State() == codegen.Assigned && reg.AssignedRegister().FutureUseCount() == 0 {
			reg.SetState(codegen.Free)
			reg.AssignedRegister().SetAssignedRegister(nil)
			reg.SetAssignedRegister(nil)
		}
	}
}

// CreateDepCondForLiveGPRs builds the post-conditions for an OOL entry label:
// every live register keeps its real register across the branch, and every
// register on spilledRegisterList is expected in its backing store. The
// caller's bookkeeping only bumps total and out-of-line use counts, so the
// future use count of every pinned register is bumped here.
func (m *Machine) CreateDepCondForLiveGPRs(spilledRegisterList []*codegen.VirtualRegister) *RegisterDependencyConditions {
	c := 0
	for i := FirstGPR; i < SpilledReg; i++ {
		realReg := m.registerFile[i]
		st := realReg.State()
		codegen.AssertFatal(st == codegen.Assigned || st == codegen.Free || st == codegen.Locked,
			codegen.BrokenBinding, "cannot handle real register state %s at OOL entry", st)
		if st == codegen.Assigned {
			c++
		}
	}

	c += len(spilledRegisterList)

	if c == 0 {
		return nil
	}

	deps := NewRegisterDependencyConditions(c)
	for i := FirstGPR; i < SpilledReg; i++ {
		realReg := m.registerFile[i]
		if realReg.State() == codegen.Assigned {
			virtReg := realReg.AssignedRegister()
			for _, spilled := range spilledRegisterList {
				codegen.AssertFatal(spilled != virtReg, codegen.DoubleMembership,
					"%s should not be both assigned and in the spilled register list", virtReg)
			}
			deps.AddPostCondition(virtReg, realReg.RegisterNumber())
			virtReg.IncFutureUseCount()
		}
	}

	for _, virtReg := range spilledRegisterList {
		deps.AddPostCondition(virtReg, SpilledReg)
		virtReg.IncFutureUseCount()
	}

	return deps
}

// checkRegisterFileIntegrity verifies the bidirectional links of the whole
// register file. Only called when built with the tern_checks build tag.
func (m *Machine) checkRegisterFileIntegrity() {
	for i := FirstGPR; i < SpilledReg; i++ {
		reg := m.registerFile[i]
		if reg.State() == codegen.Assigned {
			v := reg.AssignedRegister()
			codegen.AssertFatal(v != nil && v.AssignedRegister() == codegen.Register(reg),
				codegen.BrokenBinding, "%s is Assigned but not doubly linked", reg)
			codegen.AssertFatal(v.FutureUseCount() > 0,
				codegen.UseCountInvariantBroken, "%s is assigned to dead %s", reg, v)
		}
	}
}
