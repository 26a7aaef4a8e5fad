package codegen

// Spill depth encoding for the out-of-line protocol. At a reverse spill the
// main line always releases the slot, the hot path releases only a hot-path
// spill, and the cold path releases a cold-path spill or a slot already reset
// to released; any other slot stays protected.
const (
	// SpillDepthReleased marks a slot whose reverse spill has been emitted.
	SpillDepthReleased = 0
	// SpillDepthMainLine marks a slot spilled on the main line.
	SpillDepthMainLine = 1
	// SpillDepthHotPath marks a slot spilled on the out-of-line hot path.
	SpillDepthHotPath = 2
	// SpillDepthColdPath marks a slot spilled on the out-of-line cold path.
	SpillDepthColdPath = 3
)

// BackingStore is a stack memory slot owned by exactly one virtual register
// at a time.
type BackingStore struct {
	offset int64
	size   int64

	maxSpillDepth int32

	containsCollectedReference bool
	pinningArray               *PinningArray
}

// Offset returns the slot's displacement inside the spill area.
func (b *BackingStore) Offset() int64 { return b.offset }

// Size returns the slot size in bytes.
func (b *BackingStore) Size() int64 { return b.size }

// MaxSpillDepth returns the recorded spill depth.
func (b *BackingStore) MaxSpillDepth() int32 { return b.maxSpillDepth }

// SetMaxSpillDepth records the spill depth.
func (b *BackingStore) SetMaxSpillDepth(d int32) { b.maxSpillDepth = d }

// ContainsCollectedReference reports whether the slot must be visible to GC maps.
func (b *BackingStore) ContainsCollectedReference() bool { return b.containsCollectedReference }

// PinningArrayPointer returns the pinning array for an internal-pointer slot, or nil.
func (b *BackingStore) PinningArrayPointer() *PinningArray { return b.pinningArray }
