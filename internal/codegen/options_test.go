package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptions_Option(t *testing.T) {
	o := Options{DisableOOL: true}
	require.True(t, o.Option(OptionDisableOOL))
	require.False(t, o.Option(OptionTraceCG))
	require.False(t, o.Option("NoSuchOption"))
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tern.toml")
	require.NoError(t, os.WriteFile(path, []byte("disable_ool = true\ntrace_cg = true\n"), 0o600))

	o, err := LoadOptions(path)
	require.NoError(t, err)
	require.True(t, o.DisableOOL)
	require.True(t, o.TraceCG)
}

func TestLoadOptions_Errors(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("disable_ool = {"), 0o600))
	_, err = LoadOptions(path)
	require.Error(t, err)
}

func TestOptions_EnvOverrides(t *testing.T) {
	t.Setenv("TERN_DISABLE_OOL", "1")
	t.Setenv("TERN_TRACE_CG", "false")

	o := Options{TraceCG: true}.WithEnvOverrides()
	require.True(t, o.DisableOOL)
	require.False(t, o.TraceCG)
}
