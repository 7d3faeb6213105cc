// Package l2bounds owns Layer 2 (Bounds) of the depth data model.
//
// Responsibilities: the axis-aligned bounding box accumulator and the
// confidence-filtered bounds estimate over a point cloud.
// Key types: AABB.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2bounds
