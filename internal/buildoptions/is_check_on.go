//go:build tern_checks

package buildoptions

const CheckInvariants = true
