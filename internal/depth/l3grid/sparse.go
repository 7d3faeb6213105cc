package l3grid

import (
	"cmp"
	"slices"
)

// SparseGrid stores only occupied voxels. Memory scales with the number of
// occupied cells rather than the volume of the bounds, which suits large,
// mostly empty scenes.
type SparseGrid struct {
	geometry
	cells map[VoxelIndex]struct{}
	state State
}

func newSparseGrid(g geometry, hint int) *SparseGrid {
	return &SparseGrid{
		geometry: g,
		cells:    make(map[VoxelIndex]struct{}, hint),
	}
}

func (s *SparseGrid) mark(v VoxelIndex) {
	s.cells[v] = struct{}{}
}

// Occupied reports whether v is marked.
func (s *SparseGrid) Occupied(v VoxelIndex) bool {
	_, ok := s.cells[v]
	return ok
}

// Clear unmarks v and reports whether it was marked.
func (s *SparseGrid) Clear(v VoxelIndex) bool {
	if _, ok := s.cells[v]; !ok {
		return false
	}
	delete(s.cells, v)
	if s.state == StateBuilt {
		s.state = StateDraining
	}
	return true
}

// OccupiedCount returns the number of marked voxels.
func (s *SparseGrid) OccupiedCount() int { return len(s.cells) }

// Scan snapshots the occupied set, sorts it into (I, J, K) order and visits
// each voxel that is still marked when reached.
func (s *SparseGrid) Scan(fn func(v VoxelIndex)) {
	if len(s.cells) == 0 {
		return
	}
	keys := make([]VoxelIndex, 0, len(s.cells))
	for v := range s.cells {
		keys = append(keys, v)
	}
	slices.SortFunc(keys, compareVoxels)
	for _, v := range keys {
		if _, ok := s.cells[v]; !ok {
			continue
		}
		fn(v)
	}
}

func compareVoxels(a, b VoxelIndex) int {
	if c := cmp.Compare(a.I, b.I); c != 0 {
		return c
	}
	if c := cmp.Compare(a.J, b.J); c != 0 {
		return c
	}
	return cmp.Compare(a.K, b.K)
}

// State returns the lifecycle state.
func (s *SparseGrid) State() State { return s.state }

// MarkDrained drops any remaining voxels and seals the grid.
func (s *SparseGrid) MarkDrained() {
	clear(s.cells)
	s.state = StateDrained
}
