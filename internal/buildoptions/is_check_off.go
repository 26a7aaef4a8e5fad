//go:build !tern_checks

package buildoptions

// CheckInvariants true if the register-allocator integrity sweeps should run
// after every per-operand assignment. This can be used to insert the expensive assertions
// in the main code as `if buildoptions.CheckInvariants { ... }` block,
// which will be optimized out by the final binary of tern users.
const CheckInvariants = false
