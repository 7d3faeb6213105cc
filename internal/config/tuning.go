package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Fallback values used by the Get* accessors when a field is absent.
const (
	DefaultCellSize           = 0.02
	DefaultMinClusterElements = 1
	DefaultMaxVoxels          = int64(64 << 20)
	DefaultBatchWorkers       = 4
	DefaultListenAddress      = ":8082"
	DefaultPlotPlane          = "xy"
)

// TuningConfig represents the root configuration for clustering parameters.
// Every field is optional; nil means "use the default", so partial files are
// safe and the same JSON can be posted to the debug server.
type TuningConfig struct {
	// Occupancy grid
	CellSize   *float64 `json:"cell_size,omitempty"`   // metres per voxel edge
	MaxVoxels  *int64   `json:"max_voxels,omitempty"`  // 0 disables the budget
	SparseGrid *bool    `json:"sparse_grid,omitempty"` // hash-set occupancy

	// Cluster extraction
	MinClusterElements *int `json:"min_cluster_elements,omitempty"`

	// Batch processing
	BatchWorkers *int `json:"batch_workers,omitempty"`

	// Debug server and plots
	ListenAddress *string `json:"listen_address,omitempty"`
	PlotPlane     *string `json:"plot_plane,omitempty"` // "xy", "xz" or "yz"
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the compiled-in defaults.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		CellSize:           ptrFloat64(DefaultCellSize),
		MaxVoxels:          ptrInt64(DefaultMaxVoxels),
		SparseGrid:         ptrBool(false),
		MinClusterElements: ptrInt(DefaultMinClusterElements),
		BatchWorkers:       ptrInt(DefaultBatchWorkers),
		ListenAddress:      ptrString(DefaultListenAddress),
		PlotPlane:          ptrString(DefaultPlotPlane),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/depth/l4clusters/
		"../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.CellSize != nil {
		if !(*c.CellSize > 0) || math.IsInf(*c.CellSize, 0) || *c.CellSize > math.MaxFloat32 {
			return fmt.Errorf("cell_size must be a finite value > 0, got %v", *c.CellSize)
		}
	}

	if c.MaxVoxels != nil && *c.MaxVoxels < 0 {
		return fmt.Errorf("max_voxels must be non-negative, got %d", *c.MaxVoxels)
	}

	if c.MinClusterElements != nil && *c.MinClusterElements < 1 {
		return fmt.Errorf("min_cluster_elements must be >= 1, got %d", *c.MinClusterElements)
	}

	if c.BatchWorkers != nil && *c.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be >= 1, got %d", *c.BatchWorkers)
	}

	if c.PlotPlane != nil {
		switch strings.ToLower(*c.PlotPlane) {
		case "xy", "xz", "yz":
		default:
			return fmt.Errorf("plot_plane must be one of xy, xz, yz, got %q", *c.PlotPlane)
		}
	}

	return nil
}

// GetCellSize returns the cell_size value or the default.
func (c *TuningConfig) GetCellSize() float64 {
	if c.CellSize == nil {
		return DefaultCellSize
	}
	return *c.CellSize
}

// GetMaxVoxels returns the max_voxels value or the default.
func (c *TuningConfig) GetMaxVoxels() int64 {
	if c.MaxVoxels == nil {
		return DefaultMaxVoxels
	}
	return *c.MaxVoxels
}

// GetSparseGrid returns the sparse_grid value or the default.
func (c *TuningConfig) GetSparseGrid() bool {
	if c.SparseGrid == nil {
		return false // default: dense grid
	}
	return *c.SparseGrid
}

// GetMinClusterElements returns the min_cluster_elements value or the default.
func (c *TuningConfig) GetMinClusterElements() int {
	if c.MinClusterElements == nil {
		return DefaultMinClusterElements
	}
	return *c.MinClusterElements
}

// GetBatchWorkers returns the batch_workers value or the default.
func (c *TuningConfig) GetBatchWorkers() int {
	if c.BatchWorkers == nil {
		return DefaultBatchWorkers
	}
	return *c.BatchWorkers
}

// GetListenAddress returns the listen_address value or the default.
func (c *TuningConfig) GetListenAddress() string {
	if c.ListenAddress == nil || *c.ListenAddress == "" {
		return DefaultListenAddress
	}
	return *c.ListenAddress
}

// GetPlotPlane returns the plot_plane value (lower case) or the default.
func (c *TuningConfig) GetPlotPlane() string {
	if c.PlotPlane == nil || *c.PlotPlane == "" {
		return DefaultPlotPlane
	}
	return strings.ToLower(*c.PlotPlane)
}
