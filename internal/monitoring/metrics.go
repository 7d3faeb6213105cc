package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Error kinds used as the "kind" label of depth_cluster_errors_total.
const (
	ErrorKindInvalidInput  = "invalid_input"
	ErrorKindResourceLimit = "resource_limit"
	ErrorKindOther         = "other"
)

var (
	framesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depth_cluster_frames_total",
		Help: "Point-cloud frames run through the clustering pipeline.",
	})

	emptyFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depth_cluster_empty_frames_total",
		Help: "Frames with no point of positive confidence.",
	})

	clustersEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "depth_cluster_boxes_total",
		Help: "Bounding boxes emitted across all frames.",
	})

	frameErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depth_cluster_errors_total",
		Help: "Frames that failed, by error kind.",
	}, []string{"kind"})

	gridVoxels = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depth_cluster_grid_voxels",
		Help:    "Total cells of the occupancy grid built for each frame.",
		Buckets: prometheus.ExponentialBuckets(1, 8, 10),
	})

	occupiedVoxels = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depth_cluster_occupied_voxels",
		Help:    "Occupied cells of the occupancy grid built for each frame.",
		Buckets: prometheus.ExponentialBuckets(1, 4, 12),
	})

	frameDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "depth_cluster_frame_duration_seconds",
		Help:    "Wall time to cluster one frame.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
	})
)

// FrameStats summarises one clustering call for RecordFrame.
type FrameStats struct {
	GridVoxels     int64
	OccupiedVoxels int
	Clusters       int
	Elapsed        time.Duration
	Empty          bool
}

// RecordFrame updates the pipeline collectors after a successful frame.
func RecordFrame(s FrameStats) {
	framesProcessed.Inc()
	frameDuration.Observe(s.Elapsed.Seconds())
	if s.Empty {
		emptyFrames.Inc()
		return
	}
	clustersEmitted.Add(float64(s.Clusters))
	gridVoxels.Observe(float64(s.GridVoxels))
	occupiedVoxels.Observe(float64(s.OccupiedVoxels))
}

// RecordError counts a failed frame under kind.
func RecordError(kind string) {
	framesProcessed.Inc()
	frameErrors.WithLabelValues(kind).Inc()
}
