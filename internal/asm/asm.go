package asm

// Register represents an architecture-specific register.
type Register int16

// NilRegister is the only architecture-independent register, and
// can be used to indicate that no register is specified.
const NilRegister Register = 0

// Instruction represents an architecture-specific instruction mnemonic.
type Instruction int16

// ConstantValue represents a constant operand of an instruction,
// for example a memory displacement.
type ConstantValue = int64
