// Package l4clusters owns Layer 4 (Clusters) of the depth data model.
//
// Responsibilities: 6-connected component extraction over an occupancy
// grid, reduction of each component to a metric bounding box, per-cluster
// metrics, box meshes for external renderers, and the per-frame and batch
// entry points.
// Key types: Extractor, Clusterer, Frame, ClusterMetrics, Mesh.
//
// Each frame is processed independently on its own grid. Parallelism is only
// available across frames (see ClusterFrames); a single grid is never shared.
//
// Dependency rule: L4 may depend on L1-L3.
package l4clusters
