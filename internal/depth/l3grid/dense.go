package l3grid

// DenseGrid stores occupancy as a flat bool per cell, x-major so that
// ascending addresses follow scan order.
type DenseGrid struct {
	geometry
	cells    []bool
	occupied int
	state    State
}

func newDenseGrid(g geometry) *DenseGrid {
	return &DenseGrid{
		geometry: g,
		cells:    make([]bool, g.Volume()),
	}
}

func (d *DenseGrid) mark(v VoxelIndex) {
	addr := d.denseAddr(v)
	if !d.cells[addr] {
		d.cells[addr] = true
		d.occupied++
	}
}

// Occupied reports whether v is in bounds and marked.
func (d *DenseGrid) Occupied(v VoxelIndex) bool {
	return d.InBounds(v) && d.cells[d.denseAddr(v)]
}

// Clear unmarks v and reports whether it was marked.
func (d *DenseGrid) Clear(v VoxelIndex) bool {
	if !d.Occupied(v) {
		return false
	}
	d.cells[d.denseAddr(v)] = false
	d.occupied--
	if d.state == StateBuilt {
		d.state = StateDraining
	}
	return true
}

// OccupiedCount returns the number of marked voxels.
func (d *DenseGrid) OccupiedCount() int { return d.occupied }

// Scan visits occupied cells in address order, re-reading each cell as it is
// reached so voxels cleared by fn are skipped.
func (d *DenseGrid) Scan(fn func(v VoxelIndex)) {
	if d.occupied == 0 {
		return
	}
	dimJ, dimK := d.dims[1], d.dims[2]
	for addr := range d.cells {
		if !d.cells[addr] {
			continue
		}
		fn(VoxelIndex{I: addr / (dimJ * dimK), J: (addr / dimK) % dimJ, K: addr % dimK})
		if d.occupied == 0 {
			return
		}
	}
}

// State returns the lifecycle state.
func (d *DenseGrid) State() State { return d.state }

// MarkDrained clears any remaining voxels and seals the grid.
func (d *DenseGrid) MarkDrained() {
	if d.occupied > 0 {
		clear(d.cells)
		d.occupied = 0
	}
	d.state = StateDrained
}
