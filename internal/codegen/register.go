package codegen

import "fmt"

// RegisterKind classifies registers by the register file they live in.
type RegisterKind byte

const (
	// GPRKind is the 64-bit general purpose register file.
	GPRKind RegisterKind = iota
	// FPRKind is the scalar floating point register file.
	FPRKind
)

// String implements fmt.Stringer.
func (k RegisterKind) String() (ret string) {
	switch k {
	case GPRKind:
		ret = "GPR"
	case FPRKind:
		ret = "FPR"
	}
	return
}

// RegisterState is the assignment state of a real register.
type RegisterState byte

const (
	// Free means the register is available and holds nothing live.
	Free RegisterState = iota
	// Unlatched means the register is logically free but still wired to its
	// last virtual register. The free-register search resolves it to Free on
	// first reuse.
	Unlatched
	// Assigned means the register is bound to a virtual register.
	Assigned
	// Blocked means the register is temporarily unavailable, e.g. an input of
	// the current instruction that must not be clobbered.
	Blocked
	// Locked means the register is permanently unavailable, e.g. sp and xzr.
	Locked
)

// String implements fmt.Stringer.
func (s RegisterState) String() (ret string) {
	switch s {
	case Free:
		ret = "Free"
	case Unlatched:
		ret = "Unlatched"
	case Assigned:
		ret = "Assigned"
	case Blocked:
		ret = "Blocked"
	case Locked:
		ret = "Locked"
	}
	return
}

// Register is either a virtual register or a real (physical) register
// appearing as an instruction operand.
type Register interface {
	fmt.Stringer
	Kind() RegisterKind
}

// PinningArray identifies the array object an internal pointer is derived
// from. Spill slots of internal pointers are tagged with it so stack walkers
// can re-base the pointer.
type PinningArray struct {
	Name string
}

// VirtualRegister is a symbolic operand produced by instruction selection.
// The register allocator binds it to a real register before emission.
type VirtualRegister struct {
	name string
	kind RegisterKind

	// assignedReal is the real register currently backing this virtual,
	// bidirectional with the real register's assigned virtual.
	assignedReal Register

	totalUseCount     int32
	futureUseCount    int32
	outOfLineUseCount int32

	backingStorage *BackingStore

	containsCollectedReference bool
	pinningArray               *PinningArray
}

// NewVirtualRegister returns a new, unassigned virtual register of the given kind.
func NewVirtualRegister(kind RegisterKind, name string) *VirtualRegister {
	return &VirtualRegister{name: name, kind: kind}
}

// Kind implements Register.Kind.
func (v *VirtualRegister) Kind() RegisterKind { return v.kind }

// String implements fmt.Stringer.
func (v *VirtualRegister) String() string {
	if v.name != "" {
		return v.name
	}
	return fmt.Sprintf("%s_%p", v.kind, v)
}

// AssignedRegister returns the real register backing this virtual, or nil.
func (v *VirtualRegister) AssignedRegister() Register { return v.assignedReal }

// SetAssignedRegister records the real register backing this virtual.
func (v *VirtualRegister) SetAssignedRegister(r Register) { v.assignedReal = r }

// TotalUseCount returns the number of uses of this register in the whole method.
func (v *VirtualRegister) TotalUseCount() int32 { return v.totalUseCount }

// SetTotalUseCount sets the total use count.
func (v *VirtualRegister) SetTotalUseCount(c int32) { v.totalUseCount = c }

// IncTotalUseCount increments the total use count.
func (v *VirtualRegister) IncTotalUseCount() { v.totalUseCount++ }

// FutureUseCount returns the number of uses the backward walk has not consumed yet.
func (v *VirtualRegister) FutureUseCount() int32 { return v.futureUseCount }

// SetFutureUseCount sets the future use count.
func (v *VirtualRegister) SetFutureUseCount(c int32) { v.futureUseCount = c }

// IncFutureUseCount increments the future use count.
func (v *VirtualRegister) IncFutureUseCount() { v.futureUseCount++ }

// DecFutureUseCount decrements the future use count.
func (v *VirtualRegister) DecFutureUseCount() { v.futureUseCount-- }

// OutOfLineUseCount returns the number of remaining uses inside out-of-line
// code sections.
func (v *VirtualRegister) OutOfLineUseCount() int32 { return v.outOfLineUseCount }

// SetOutOfLineUseCount sets the out-of-line use count.
func (v *VirtualRegister) SetOutOfLineUseCount(c int32) { v.outOfLineUseCount = c }

// IncOutOfLineUseCount increments the out-of-line use count.
func (v *VirtualRegister) IncOutOfLineUseCount() { v.outOfLineUseCount++ }

// DecOutOfLineUseCount decrements the out-of-line use count.
func (v *VirtualRegister) DecOutOfLineUseCount() { v.outOfLineUseCount-- }

// BackingStorage returns the spill slot owned by this virtual, or nil.
func (v *VirtualRegister) BackingStorage() *BackingStore { return v.backingStorage }

// SetBackingStorage records the spill slot owned by this virtual.
func (v *VirtualRegister) SetBackingStorage(b *BackingStore) { v.backingStorage = b }

// ContainsCollectedReference reports whether this register holds a managed
// pointer the garbage collector must see.
func (v *VirtualRegister) ContainsCollectedReference() bool { return v.containsCollectedReference }

// SetContainsCollectedReference marks this register as holding a collected reference.
func (v *VirtualRegister) SetContainsCollectedReference(b bool) { v.containsCollectedReference = b }

// ContainsInternalPointer reports whether this register holds a pointer into
// the middle of a pinned array.
func (v *VirtualRegister) ContainsInternalPointer() bool { return v.pinningArray != nil }

// PinningArrayPointer returns the pinning array of an internal pointer, or nil.
func (v *VirtualRegister) PinningArrayPointer() *PinningArray { return v.pinningArray }

// SetPinningArrayPointer marks this register as an internal pointer derived
// from the given array.
func (v *VirtualRegister) SetPinningArrayPointer(p *PinningArray) { v.pinningArray = p }
