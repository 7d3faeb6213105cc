package l4clusters

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/depthcluster/internal/config"
	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
	"github.com/banshee-data/depthcluster/internal/depth/l3grid"
	"github.com/banshee-data/depthcluster/internal/monitoring"
	"github.com/banshee-data/depthcluster/internal/timeutil"
)

// Params configures a Clusterer.
type Params struct {
	CellSize           float32 `json:"cell_size"`            // Voxel edge in metres
	MinClusterElements int     `json:"min_cluster_elements"` // Smallest reported component, in voxels
	MaxVoxels          int64   `json:"max_voxels"`           // Grid budget; 0 = unlimited
	Sparse             bool    `json:"sparse"`               // Hash-set occupancy instead of a dense volume
}

// DefaultParams returns 2cm voxels, no size filtering and a 64M voxel budget.
func DefaultParams() Params {
	return Params{
		CellSize:           l3grid.DefaultCellSize,
		MinClusterElements: DefaultMinClusterElements,
		MaxVoxels:          l3grid.DefaultMaxVoxels,
	}
}

// ParamsFromTuning builds Params from a loaded TuningConfig.
func ParamsFromTuning(cfg *config.TuningConfig) Params {
	return Params{
		CellSize:           float32(cfg.GetCellSize()),
		MinClusterElements: cfg.GetMinClusterElements(),
		MaxVoxels:          cfg.GetMaxVoxels(),
		Sparse:             cfg.GetSparseGrid(),
	}
}

// GridOptions converts p to grid construction options.
func (p Params) GridOptions() l3grid.Options {
	return l3grid.Options{CellSize: p.CellSize, MaxVoxels: p.MaxVoxels, Sparse: p.Sparse}
}

// Validate checks p without touching any points.
func (p Params) Validate() error {
	if err := p.GridOptions().Validate(); err != nil {
		return err
	}
	if p.MinClusterElements < 1 {
		return &l3grid.InvalidInputError{Reason: fmt.Sprintf("min cluster elements must be >= 1, got %d", p.MinClusterElements)}
	}
	return nil
}

// Frame is the result of clustering one point-cloud snapshot.
type Frame struct {
	ID             string           `json:"id"`
	CreatedAt      time.Time        `json:"created_at"`
	Params         Params           `json:"params"`
	InputPoints    int              `json:"input_points"`
	GridDims       [3]int           `json:"grid_dims"`
	OccupiedVoxels int              `json:"occupied_voxels"`
	Boxes          []l2bounds.AABB  `json:"boxes"`
	Metrics        []ClusterMetrics `json:"metrics"`
	ElapsedNanos   int64            `json:"elapsed_nanos"`
}

// Elapsed returns the processing time of the frame.
func (f *Frame) Elapsed() time.Duration { return time.Duration(f.ElapsedNanos) }

// Clusterer runs the bounds -> grid -> extraction pipeline for one frame at a
// time. Params may be changed between calls; every call builds a fresh grid,
// so one Clusterer can serve many goroutines.
type Clusterer struct {
	mu     sync.RWMutex
	params Params
	clock  timeutil.Clock
}

// NewClusterer creates a Clusterer. Params are validated per call so a bad
// value surfaces as an error on the frame rather than a panic here.
func NewClusterer(params Params) *Clusterer {
	return &Clusterer{params: params, clock: timeutil.RealClock{}}
}

// SetClock replaces the time source used for CreatedAt and ElapsedNanos.
func (c *Clusterer) SetClock(clock timeutil.Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

// GetParams returns the current clustering parameters.
func (c *Clusterer) GetParams() Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParams updates the clustering parameters for subsequent frames.
func (c *Clusterer) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = params
	return nil
}

// Cluster extracts bounding boxes from cloud.
//
// A cloud with no usable point yields a Frame with no boxes and a nil error.
// Invalid params and exceeded voxel budgets are returned as errors
// (l3grid.ErrInvalidInput, l3grid.ErrResourceLimitExceeded); there are no
// partial results. cloud is read, never retained.
func (c *Clusterer) Cluster(cloud l1points.Cloud) (*Frame, error) {
	c.mu.RLock()
	params, clock := c.params, c.clock
	c.mu.RUnlock()
	start := clock.Now()

	frame := &Frame{
		ID:        uuid.NewString(),
		CreatedAt: start,
		Params:    params,
		Boxes:     []l2bounds.AABB{},
		Metrics:   []ClusterMetrics{},
	}
	if cloud != nil {
		frame.InputPoints = cloud.Len()
	}

	if err := params.Validate(); err != nil {
		monitoring.RecordError(monitoring.ErrorKindInvalidInput)
		return nil, err
	}

	grid, err := l3grid.Build(cloud, params.GridOptions())
	switch {
	case errors.Is(err, l3grid.ErrNoUsablePoints):
		frame.ElapsedNanos = clock.Since(start).Nanoseconds()
		monitoring.RecordFrame(monitoring.FrameStats{Empty: true, Elapsed: frame.Elapsed()})
		monitoring.Debugf("frame %s: %d points, none usable", frame.ID, frame.InputPoints)
		return frame, nil
	case err != nil:
		monitoring.RecordError(errorKind(err))
		if errors.Is(err, l3grid.ErrResourceLimitExceeded) {
			monitoring.Logf("depth cluster: frame %s rejected: %v", frame.ID, err)
		}
		return nil, fmt.Errorf("build occupancy grid: %w", err)
	}

	frame.GridDims = grid.Dims()
	frame.OccupiedVoxels = grid.OccupiedCount()
	volume := grid.Volume()

	ex, err := NewExtractor(grid, params.MinClusterElements)
	if err != nil {
		monitoring.RecordError(errorKind(err))
		return nil, err
	}
	comps, err := ex.FindComponents()
	if err != nil {
		monitoring.RecordError(errorKind(err))
		return nil, fmt.Errorf("extract clusters: %w", err)
	}

	frame.Boxes = make([]l2bounds.AABB, len(comps))
	for i, comp := range comps {
		frame.Boxes[i] = comp.Box
	}
	frame.Metrics = Describe(cloud, frame.Boxes)
	for i, comp := range comps {
		frame.Metrics[i].Voxels = comp.Voxels
	}
	frame.ElapsedNanos = clock.Since(start).Nanoseconds()

	monitoring.RecordFrame(monitoring.FrameStats{
		GridVoxels:     volume,
		OccupiedVoxels: frame.OccupiedVoxels,
		Clusters:       len(frame.Boxes),
		Elapsed:        frame.Elapsed(),
	})
	monitoring.Debugf("frame %s: %d points, grid %v, %d occupied, %d clusters in %v",
		frame.ID, frame.InputPoints, frame.GridDims, frame.OccupiedVoxels, len(frame.Boxes), frame.Elapsed())

	return frame, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, l3grid.ErrResourceLimitExceeded):
		return monitoring.ErrorKindResourceLimit
	case errors.Is(err, l3grid.ErrInvalidInput):
		return monitoring.ErrorKindInvalidInput
	default:
		return monitoring.ErrorKindOther
	}
}
