package l4clusters

import (
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
	"github.com/banshee-data/depthcluster/internal/depth/l3grid"
)

// DefaultMinClusterElements keeps every component, including single voxels.
const DefaultMinClusterElements = 1

// neighborOffsets are the six face-adjacent neighbours (no diagonals).
var neighborOffsets = [6]l3grid.VoxelIndex{
	{I: -1}, {I: 1},
	{J: -1}, {J: 1},
	{K: -1}, {K: 1},
}

// Component is one connected set of voxels reduced to its metric box.
type Component struct {
	Box    l2bounds.AABB
	Voxels int
}

// Extractor finds connected components in a grid it exclusively owns.
//
// Extraction is destructive: every voxel is cleared as it is visited, so the
// grid is drained once FindClusters returns. The first call returns all
// clusters; every later call returns an empty list. Build a new grid (and
// extractor) for each frame.
type Extractor struct {
	grid               l3grid.Grid
	minClusterElements int
	done               bool
}

// NewExtractor wraps grid. minClusterElements (>= 1) is the smallest
// component, in voxels, that is reported.
func NewExtractor(grid l3grid.Grid, minClusterElements int) (*Extractor, error) {
	if grid == nil {
		return nil, &l3grid.InvalidInputError{Reason: "nil grid"}
	}
	if minClusterElements < 1 {
		return nil, &l3grid.InvalidInputError{Reason: "min cluster elements must be >= 1"}
	}
	return &Extractor{grid: grid, minClusterElements: minClusterElements}, nil
}

// State reports the lifecycle state of the underlying grid.
func (e *Extractor) State() l3grid.State { return e.grid.State() }

// FindClusters returns one box per connected component of at least
// minClusterElements voxels, in discovery order of the (I, J, K) scan.
// The grid is drained as a side effect; a second call returns an empty,
// non-nil slice.
func (e *Extractor) FindClusters() ([]l2bounds.AABB, error) {
	comps, err := e.FindComponents()
	if err != nil {
		return nil, err
	}
	boxes := make([]l2bounds.AABB, len(comps))
	for i, c := range comps {
		boxes[i] = c.Box
	}
	return boxes, nil
}

// FindComponents is FindClusters with the voxel count of each component.
func (e *Extractor) FindComponents() ([]Component, error) {
	if e.done || e.grid.State() == l3grid.StateDrained {
		e.done = true
		return []Component{}, nil
	}
	e.done = true

	comps := []Component{}
	var stack, members []l3grid.VoxelIndex
	e.grid.Scan(func(seed l3grid.VoxelIndex) {
		stack, members = e.collect(seed, stack[:0], members[:0])
		if len(members) == 0 || len(members) < e.minClusterElements {
			return
		}
		comps = append(comps, Component{Box: e.reduce(members), Voxels: len(members)})
	})
	e.grid.MarkDrained()
	return comps, nil
}

// collect gathers the component containing seed with an explicit stack,
// clearing each voxel as it is pushed so nothing is visited twice. Buffers
// are passed in and returned for reuse across seeds.
func (e *Extractor) collect(seed l3grid.VoxelIndex, stack, members []l3grid.VoxelIndex) ([]l3grid.VoxelIndex, []l3grid.VoxelIndex) {
	if !e.grid.Clear(seed) {
		return stack, members
	}
	stack = append(stack, seed)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, v)

		for _, d := range neighborOffsets {
			n := l3grid.VoxelIndex{I: v.I + d.I, J: v.J + d.J, K: v.K + d.K}
			if e.grid.Clear(n) {
				stack = append(stack, n)
			}
		}
	}
	return stack, members
}

// reduce widens an index-space box with each voxel's lower (i,j,k) and upper
// (i+1,j+1,k+1) corners, then maps both corners to metres.
func (e *Extractor) reduce(members []l3grid.VoxelIndex) l2bounds.AABB {
	lo, hi := members[0], members[0]
	for _, v := range members[1:] {
		lo = l3grid.VoxelIndex{I: min(lo.I, v.I), J: min(lo.J, v.J), K: min(lo.K, v.K)}
		hi = l3grid.VoxelIndex{I: max(hi.I, v.I), J: max(hi.J, v.J), K: max(hi.K, v.K)}
	}
	return e.grid.BoxToWorld(lo, l3grid.VoxelIndex{I: hi.I + 1, J: hi.J + 1, K: hi.K + 1})
}
