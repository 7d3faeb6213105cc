// Package l1points owns Layer 1 (Points) of the depth data model.
//
// Responsibilities: the confidence-weighted point type, read-only views over
// externally owned point buffers, and decoding point dumps from disk.
// Key types: Point, Cloud, Points, FlatBuffer.
//
// Dependency rule: L1 depends on nothing else under internal/depth.
// Nothing in this package retains or mutates a caller's buffer.
package l1points
