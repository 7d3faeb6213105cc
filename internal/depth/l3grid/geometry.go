package l3grid

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// maxAxisCells keeps per-axis indices and dense addresses within int range.
const maxAxisCells = math.MaxInt32

// MaxDenseCells is the hard ceiling on a dense grid's volume (4 GiB of
// occupancy). It applies even when Options.MaxVoxels is 0.
const MaxDenseCells int64 = 1 << 32

// geometry maps between world coordinates and voxel indices.
type geometry struct {
	origin   mgl32.Vec3
	cellSize float32
	dims     [3]int
}

// cellsAlong returns max(1, ceil(extent/cellSize)) in float64 so extreme
// extents cannot overflow before they are checked. n*cellSize never falls
// short of the extent, so the last cell always reaches the maximum bound.
func cellsAlong(min, max, cellSize float32) float64 {
	extent := float64(max) - float64(min)
	cs := float64(cellSize)
	n := math.Ceil(extent / cs)
	if n < 1 || math.IsNaN(n) {
		return 1
	}
	if n*cs < extent {
		n++
	}
	return n
}

// newGeometry sizes a grid over bounds. limit is the dense volume budget; 0
// disables it. Only the int-range guard applies to sparse grids.
func newGeometry(bounds l2bounds.AABB, cellSize float32, limit int64) (geometry, error) {
	var counts [3]float64
	volume := 1.0
	for axis := 0; axis < 3; axis++ {
		counts[axis] = cellsAlong(bounds.Min[axis], bounds.Max[axis], cellSize)
		volume *= counts[axis]
	}
	for axis := 0; axis < 3; axis++ {
		if counts[axis] > maxAxisCells {
			return geometry{}, &ResourceLimitError{Requested: volume, Limit: limit}
		}
	}
	if limit > 0 && volume > float64(limit) {
		return geometry{}, &ResourceLimitError{Requested: volume, Limit: limit}
	}

	return geometry{
		origin:   bounds.Min,
		cellSize: cellSize,
		dims:     [3]int{int(counts[0]), int(counts[1]), int(counts[2])},
	}, nil
}

func (g *geometry) Dims() [3]int       { return g.dims }
func (g *geometry) Origin() mgl32.Vec3 { return g.origin }
func (g *geometry) CellSize() float32  { return g.cellSize }

// Volume returns the total number of cells, occupied or not, saturating at
// math.MaxInt64 for very large sparse grids.
func (g *geometry) Volume() int64 {
	v := g.volume()
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}

func (g *geometry) volume() float64 {
	return float64(g.dims[0]) * float64(g.dims[1]) * float64(g.dims[2])
}

func (g *geometry) denseAddr(v VoxelIndex) int {
	return (v.I*g.dims[1]+v.J)*g.dims[2] + v.K
}

// InBounds reports whether v addresses a cell of this grid.
func (g *geometry) InBounds(v VoxelIndex) bool {
	return v.I >= 0 && v.I < g.dims[0] &&
		v.J >= 0 && v.J < g.dims[1] &&
		v.K >= 0 && v.K < g.dims[2]
}

// IndexOf returns the voxel containing (x, y, z):
// floor((coord - origin) / cellSize), clamped to [0, dim-1] per axis. A point
// exactly on the maximum bound can round one cell past the end; clamping puts
// it back in the last cell.
func (g *geometry) IndexOf(x, y, z float32) VoxelIndex {
	return VoxelIndex{
		I: axisIndex(x, g.origin[0], g.cellSize, g.dims[0]),
		J: axisIndex(y, g.origin[1], g.cellSize, g.dims[1]),
		K: axisIndex(z, g.origin[2], g.cellSize, g.dims[2]),
	}
}

func axisIndex(coord, origin, cellSize float32, dim int) int {
	d := float64(coord) - float64(origin)
	cs := float64(cellSize)
	f := math.Floor(d / cs)
	// Keep the voxel's lower corner at or below coord after division rounding.
	if f > 0 && f*cs > d {
		f--
	}
	switch {
	case !(f >= 0):
		return 0
	case f > float64(dim-1):
		return dim - 1
	default:
		return int(f)
	}
}

// VoxelBounds returns the world-space box covered by v.
func (g *geometry) VoxelBounds(v VoxelIndex) l2bounds.AABB {
	return g.BoxToWorld(v, VoxelIndex{v.I + 1, v.J + 1, v.K + 1})
}

// ToWorld converts index-space coordinates to metres:
// cellSize * index + origin, evaluated in float64.
func (g *geometry) ToWorld(i, j, k float32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(float64(g.cellSize)*float64(i) + float64(g.origin[0])),
		float32(float64(g.cellSize)*float64(j) + float64(g.origin[1])),
		float32(float64(g.cellSize)*float64(k) + float64(g.origin[2])),
	}
}

// BoxToWorld converts the index-space box from lo's lower corner to hi's
// lower corner into metres. Corners are computed in float64 and narrowed
// inwards (min up, max down), so a box spanning n cells is never wider than
// n*cellSize in float32 while still holding every point of its voxels.
func (g *geometry) BoxToWorld(lo, hi VoxelIndex) l2bounds.AABB {
	var box l2bounds.AABB
	los := [3]int{lo.I, lo.J, lo.K}
	his := [3]int{hi.I, hi.J, hi.K}
	for axis := 0; axis < 3; axis++ {
		box.Min[axis] = narrowUp(g.world(axis, los[axis]))
		box.Max[axis] = narrowDown(g.world(axis, his[axis]))
	}
	return box
}

func (g *geometry) world(axis, idx int) float64 {
	return float64(g.cellSize)*float64(idx) + float64(g.origin[axis])
}

// narrowUp returns the smallest float32 >= v.
func narrowUp(v float64) float32 {
	f := float32(v)
	if float64(f) < v {
		f = math.Nextafter32(f, float32(math.Inf(1)))
	}
	return f
}

// narrowDown returns the largest float32 <= v.
func narrowDown(v float64) float32 {
	f := float32(v)
	if float64(f) > v {
		f = math.Nextafter32(f, float32(math.Inf(-1)))
	}
	return f
}
