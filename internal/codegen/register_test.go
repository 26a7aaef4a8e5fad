package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVirtualRegister_UseCounts(t *testing.T) {
	v := NewVirtualRegister(GPRKind, "v")
	v.SetTotalUseCount(3)
	v.SetFutureUseCount(3)
	v.SetOutOfLineUseCount(1)

	v.DecFutureUseCount()
	v.DecOutOfLineUseCount()
	require.Equal(t, int32(3), v.TotalUseCount())
	require.Equal(t, int32(2), v.FutureUseCount())
	require.Equal(t, int32(0), v.OutOfLineUseCount())

	v.IncFutureUseCount()
	v.IncTotalUseCount()
	require.Equal(t, int32(4), v.TotalUseCount())
	require.Equal(t, int32(3), v.FutureUseCount())
}

func TestVirtualRegister_Flags(t *testing.T) {
	v := NewVirtualRegister(GPRKind, "v")
	require.False(t, v.ContainsCollectedReference())
	require.False(t, v.ContainsInternalPointer())

	v.SetContainsCollectedReference(true)
	require.True(t, v.ContainsCollectedReference())

	pin := &PinningArray{Name: "arr"}
	v.SetPinningArrayPointer(pin)
	require.True(t, v.ContainsInternalPointer())
	require.Equal(t, pin, v.PinningArrayPointer())
}

func TestRegisterKindAndStateStrings(t *testing.T) {
	require.Equal(t, "GPR", GPRKind.String())
	require.Equal(t, "FPR", FPRKind.String())
	require.Equal(t, "Free", Free.String())
	require.Equal(t, "Unlatched", Unlatched.String())
	require.Equal(t, "Assigned", Assigned.String())
	require.Equal(t, "Blocked", Blocked.String())
	require.Equal(t, "Locked", Locked.String())
}
