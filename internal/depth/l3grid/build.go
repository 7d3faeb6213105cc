package l3grid

import (
	"math"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// Validate checks the options before any point is read.
func (o Options) Validate() error {
	cs := float64(o.CellSize)
	if !(cs > 0) || math.IsInf(cs, 0) {
		return invalidInput("cell size must be finite and > 0, got %v", o.CellSize)
	}
	if o.MaxVoxels < 0 {
		return invalidInput("max voxels must be >= 0, got %d", o.MaxVoxels)
	}
	return nil
}

// Build discretises the usable points of c into a fresh occupancy grid.
//
// Two passes over c: the first estimates bounds (and fails with
// ErrInvalidInput if no point is usable, before anything is allocated), the
// second marks the voxel each usable point falls in. Dense grids fail with
// ErrResourceLimitExceeded when their volume exceeds opts.MaxVoxels, or
// MaxDenseCells when the budget is disabled; sparse grids apply the budget to
// occupied voxels.
//
// c is only read. The returned grid belongs to the caller alone.
func Build(c l1points.Cloud, opts Options) (Grid, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	bounds := l2bounds.Estimate(c)
	if !bounds.Valid() {
		return nil, &InvalidInputError{Reason: ErrNoUsablePoints.Error(), cause: ErrNoUsablePoints}
	}

	denseLimit := opts.MaxVoxels
	if opts.Sparse {
		denseLimit = 0
	}
	geom, err := newGeometry(bounds, opts.CellSize, denseLimit)
	if err != nil {
		return nil, err
	}

	if opts.Sparse {
		return buildSparse(c, geom, opts.MaxVoxels)
	}
	ceiling := MaxDenseCells
	if int64(math.MaxInt) < ceiling {
		ceiling = int64(math.MaxInt)
	}
	if geom.volume() > float64(ceiling) {
		return nil, &ResourceLimitError{Requested: geom.volume(), Limit: ceiling}
	}

	grid := newDenseGrid(geom)
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		if !p.Usable() {
			continue
		}
		grid.mark(grid.IndexOf(p.X, p.Y, p.Z))
	}
	return grid, nil
}

func buildSparse(c l1points.Cloud, geom geometry, limit int64) (Grid, error) {
	grid := newSparseGrid(geom, min(c.Len(), 1<<16))
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		if !p.Usable() {
			continue
		}
		grid.mark(grid.IndexOf(p.X, p.Y, p.Z))
		if limit > 0 && int64(len(grid.cells)) > limit {
			return nil, &ResourceLimitError{Requested: float64(len(grid.cells)), Limit: limit}
		}
	}
	return grid, nil
}
