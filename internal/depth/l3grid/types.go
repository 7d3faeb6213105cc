package l3grid

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// DefaultCellSize is the voxel edge length in metres. Smaller cells give finer
// boxes at the cost of cubic memory growth.
const DefaultCellSize float32 = 0.02

// DefaultMaxVoxels bounds a dense grid to 64M cells (64 MiB of occupancy).
const DefaultMaxVoxels int64 = 64 << 20

// VoxelIndex addresses one voxel by integer (i, j, k) along (x, y, z).
type VoxelIndex struct {
	I, J, K int
}

func (v VoxelIndex) String() string { return fmt.Sprintf("(%d,%d,%d)", v.I, v.J, v.K) }

// Less orders voxels lexicographically by I, then J, then K: the scan order.
func (v VoxelIndex) Less(o VoxelIndex) bool {
	if v.I != o.I {
		return v.I < o.I
	}
	if v.J != o.J {
		return v.J < o.J
	}
	return v.K < o.K
}

// State is the lifecycle of a grid.
type State int

const (
	StateBuilt State = iota
	StateDraining
	StateDrained
)

func (s State) String() string {
	switch s {
	case StateBuilt:
		return "built"
	case StateDraining:
		return "draining"
	case StateDrained:
		return "drained"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options controls grid construction.
type Options struct {
	CellSize  float32 // Voxel edge length in metres; must be finite and > 0
	MaxVoxels int64   // Budget: grid volume (dense) or occupied voxels (sparse); 0 = unlimited
	Sparse    bool    // Store only occupied voxels in a hash set
}

// DefaultOptions returns production defaults: 2cm dense voxels, 64M cap.
func DefaultOptions() Options {
	return Options{
		CellSize:  DefaultCellSize,
		MaxVoxels: DefaultMaxVoxels,
	}
}

// Grid is a single-use occupancy volume.
type Grid interface {
	// Dims returns the number of cells along x, y and z (each >= 1).
	Dims() [3]int
	// Origin is the world position of voxel (0,0,0)'s lower corner.
	Origin() mgl32.Vec3
	// CellSize is the voxel edge length in metres.
	CellSize() float32
	// Volume is the total number of cells, Dims()[0]*Dims()[1]*Dims()[2].
	Volume() int64
	// IndexOf maps a world position to its (clamped) voxel.
	IndexOf(x, y, z float32) VoxelIndex
	// ToWorld converts index-space coordinates to metres.
	ToWorld(i, j, k float32) mgl32.Vec3
	// BoxToWorld converts the index-space box [lo, hi) to a metric AABB no
	// wider than its cell span.
	BoxToWorld(lo, hi VoxelIndex) l2bounds.AABB
	// InBounds reports whether v addresses a cell of this grid.
	InBounds(v VoxelIndex) bool
	// Occupied reports whether v is in bounds and currently marked.
	Occupied(v VoxelIndex) bool
	// Clear unmarks v and reports whether it was marked. Clearing moves the
	// grid into StateDraining.
	Clear(v VoxelIndex) bool
	// OccupiedCount returns the number of currently marked voxels.
	OccupiedCount() int
	// Scan calls fn for each voxel that is occupied at the moment the scan
	// reaches it, in ascending (I, J, K) order. fn may clear voxels, including
	// ones the scan has not reached yet.
	Scan(fn func(v VoxelIndex))
	// State returns the lifecycle state.
	State() State
	// MarkDrained records that a consumer has finished with the grid.
	MarkDrained()
}
