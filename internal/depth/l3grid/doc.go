// Package l3grid owns Layer 3 (Grid) of the depth data model.
//
// Responsibilities: discretising the confidence-filtered bounds of a point
// cloud into a regular voxel grid, marking occupied voxels, and bounding the
// memory that costs.
// Key types: Grid, DenseGrid, SparseGrid, VoxelIndex, Options.
//
// A grid is built once per clustering call and is owned by exactly one
// consumer. Clearing voxels (see Grid.Clear) is how the cluster extractor
// records visits, so a grid moves Built -> Draining -> Drained and never back.
// Grids are not safe for concurrent use.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
package l3grid
