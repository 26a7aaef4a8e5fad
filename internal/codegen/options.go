package codegen

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/xyproto/env/v2"
)

// Recognized option names.
const (
	// OptionDisableOOL turns off the out-of-line depth protocol: spill slots
	// are freed eagerly at the reverse spill and no OOL bookkeeping happens.
	OptionDisableOOL = "DisableOOL"
	// OptionTraceCG routes register-assignment decisions to the tracer.
	OptionTraceCG = "TraceCG"
)

// Environment variables overriding the options of the same name.
const (
	envDisableOOL = "TERN_DISABLE_OOL"
	envTraceCG    = "TERN_TRACE_CG"
)

// Options are the compilation options the register allocator consults.
type Options struct {
	DisableOOL bool `toml:"disable_ool"`
	TraceCG    bool `toml:"trace_cg"`
}

// Option reports whether the named option is set. Unknown names read as false.
func (o Options) Option(name string) bool {
	switch name {
	case OptionDisableOOL:
		return o.DisableOOL
	case OptionTraceCG:
		return o.TraceCG
	}
	return false
}

// LoadOptions reads options from a TOML file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read options file: %w", err)
	}
	var o Options
	if err := toml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("failed to parse options file: %w", err)
	}
	return o.WithEnvOverrides(), nil
}

// WithEnvOverrides applies TERN_* environment variables on top of o.
// Unset variables leave the corresponding option untouched.
func (o Options) WithEnvOverrides() Options {
	if _, ok := os.LookupEnv(envDisableOOL); ok {
		o.DisableOOL = env.Bool(envDisableOOL)
	}
	if _, ok := os.LookupEnv(envTraceCG); ok {
		o.TraceCG = env.Bool(envTraceCG)
	}
	return o
}
