package arm64

import (
	"github.com/ternlabs/tern/internal/asm"
	asm_arm64 "github.com/ternlabs/tern/internal/asm/arm64"
	"github.com/ternlabs/tern/internal/codegen"
)

// RegNum is the stable index of a real register in the register file.
type RegNum int16

// Register file layout. The GPR block runs x0..x29, lr, then the two locked
// registers sp and xzr, followed by the FPR block v0..v31. SpilledReg is a
// pseudo register used only inside dependency conditions.
const (
	NoReg RegNum = iota
	X0
	X1
	X2
	X3
	X4
	X5
	X6
	X7
	X8
	X9
	X10
	X11
	X12
	X13
	X14
	X15
	X16
	X17
	X18
	X19
	X20
	X21
	X22
	X23
	X24
	X25
	X26
	X27
	X28
	X29
	LR
	SP
	XZR
	V0
	V1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
	V9
	V10
	V11
	V12
	V13
	V14
	V15
	V16
	V17
	V18
	V19
	V20
	V21
	V22
	V23
	V24
	V25
	V26
	V27
	V28
	V29
	V30
	V31
	SpilledReg
	NumRegisters

	FirstGPR = X0
	// LastAssignableGPR bounds the free-register search; lr is assignable,
	// sp and xzr are not.
	LastAssignableGPR = LR
	LastGPR           = XZR
	FirstFPR          = V0
	LastFPR           = V31
)

// RealRegisterFlags is opaque per-register state preserved across snapshots.
type RealRegisterFlags uint16

// RealRegister is one physical-register descriptor in the register file.
type RealRegister struct {
	kind   codegen.RegisterKind
	number RegNum
	weight uint32
	state  codegen.RegisterState
	flags  RealRegisterFlags

	// assignedVirtual is the virtual register this one backs, bidirectional
	// with the virtual's assigned real register.
	assignedVirtual *codegen.VirtualRegister
}

// NewRealRegister returns a descriptor in the given initial state.
func NewRealRegister(kind codegen.RegisterKind, weight uint32, state codegen.RegisterState, number RegNum) *RealRegister {
	return &RealRegister{kind: kind, weight: weight, state: state, number: number}
}

// Kind implements codegen.Register.Kind.
func (r *RealRegister) Kind() codegen.RegisterKind { return r.kind }

// String implements fmt.Stringer.
func (r *RealRegister) String() string { return asm_arm64.RegisterName(r.AsAsmRegister()) }

// RegisterNumber returns the descriptor's index in the register file.
func (r *RealRegister) RegisterNumber() RegNum { return r.number }

// State returns the descriptor's assignment state.
func (r *RealRegister) State() codegen.RegisterState { return r.state }

// SetState moves the descriptor to the given state.
func (r *RealRegister) SetState(s codegen.RegisterState) { r.state = s }

// Weight returns the tie-break priority; lower is preferred.
func (r *RealRegister) Weight() uint32 { return r.weight }

// SetWeight sets the tie-break priority.
func (r *RealRegister) SetWeight(w uint32) { r.weight = w }

// Flags returns the opaque flag word.
func (r *RealRegister) Flags() RealRegisterFlags { return r.flags }

// SetFlags sets the opaque flag word.
func (r *RealRegister) SetFlags(f RealRegisterFlags) { r.flags = f }

// AssignedRegister returns the virtual register this descriptor backs, or nil.
func (r *RealRegister) AssignedRegister() *codegen.VirtualRegister { return r.assignedVirtual }

// SetAssignedRegister records the virtual register this descriptor backs.
func (r *RealRegister) SetAssignedRegister(v *codegen.VirtualRegister) { r.assignedVirtual = v }

// AsAsmRegister returns the assembler register for this descriptor.
func (r *RealRegister) AsAsmRegister() asm.Register { return regNumToAsmRegister[r.number] }

// toRealRegister narrows an operand to a real register; nil when the operand
// is nil or still virtual.
func toRealRegister(reg codegen.Register) *RealRegister {
	if reg == nil {
		return nil
	}
	r, _ := reg.(*RealRegister)
	return r
}

var regNumToAsmRegister = [NumRegisters]asm.Register{
	X0: asm_arm64.REG_R0, X1: asm_arm64.REG_R1, X2: asm_arm64.REG_R2, X3: asm_arm64.REG_R3,
	X4: asm_arm64.REG_R4, X5: asm_arm64.REG_R5, X6: asm_arm64.REG_R6, X7: asm_arm64.REG_R7,
	X8: asm_arm64.REG_R8, X9: asm_arm64.REG_R9, X10: asm_arm64.REG_R10, X11: asm_arm64.REG_R11,
	X12: asm_arm64.REG_R12, X13: asm_arm64.REG_R13, X14: asm_arm64.REG_R14, X15: asm_arm64.REG_R15,
	X16: asm_arm64.REG_R16, X17: asm_arm64.REG_R17, X18: asm_arm64.REG_R18, X19: asm_arm64.REG_R19,
	X20: asm_arm64.REG_R20, X21: asm_arm64.REG_R21, X22: asm_arm64.REG_R22, X23: asm_arm64.REG_R23,
	X24: asm_arm64.REG_R24, X25: asm_arm64.REG_R25, X26: asm_arm64.REG_R26, X27: asm_arm64.REG_R27,
	X28: asm_arm64.REG_R28, X29: asm_arm64.REG_R29, LR: asm_arm64.REG_R30,
	SP: asm_arm64.REGSP, XZR: asm_arm64.REGZERO,
	V0: asm_arm64.REG_F0, V1: asm_arm64.REG_F1, V2: asm_arm64.REG_F2, V3: asm_arm64.REG_F3,
	V4: asm_arm64.REG_F4, V5: asm_arm64.REG_F5, V6: asm_arm64.REG_F6, V7: asm_arm64.REG_F7,
	V8: asm_arm64.REG_F8, V9: asm_arm64.REG_F9, V10: asm_arm64.REG_F10, V11: asm_arm64.REG_F11,
	V12: asm_arm64.REG_F12, V13: asm_arm64.REG_F13, V14: asm_arm64.REG_F14, V15: asm_arm64.REG_F15,
	V16: asm_arm64.REG_F16, V17: asm_arm64.REG_F17, V18: asm_arm64.REG_F18, V19: asm_arm64.REG_F19,
	V20: asm_arm64.REG_F20, V21: asm_arm64.REG_F21, V22: asm_arm64.REG_F22, V23: asm_arm64.REG_F23,
	V24: asm_arm64.REG_F24, V25: asm_arm64.REG_F25, V26: asm_arm64.REG_F26, V27: asm_arm64.REG_F27,
	V28: asm_arm64.REG_F28, V29: asm_arm64.REG_F29, V30: asm_arm64.REG_F30, V31: asm_arm64.REG_F31,
}
