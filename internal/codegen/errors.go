package codegen

import "fmt"

// Internal-consistency failure kinds. Any of these terminates the compilation:
// there is no user-recoverable path out of a broken register file.
const (
	UnsupportedRegisterKind = "UnsupportedRegisterKind"
	NoCandidatesToSpill     = "NoCandidatesToSpill"
	NegativeFutureUseCount  = "NegativeFutureUseCount"
	UseCountInvariantBroken = "UseCountInvariantBroken"
	BrokenBinding           = "BrokenBinding"
	DoubleMembership        = "DoubleMembership"
)

// InternalError is carried by the panic raised on an internal-consistency
// failure during register assignment.
type InternalError struct {
	Kind    string
	Message string
}

// Error implements error.
func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Fatalf aborts the compilation with an InternalError of the given kind.
func Fatalf(kind, format string, args ...interface{}) {
	panic(&InternalError{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// AssertFatal aborts the compilation unless cond holds.
func AssertFatal(cond bool, kind, format string, args ...interface{}) {
	if !cond {
		Fatalf(kind, format, args...)
	}
}
