package main

import (
	"github.com/spf13/cobra"

	"github.com/banshee-data/depthcluster/internal/config"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/monitoring"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath         string
	debug              bool
	cellSize           float64
	minClusterElements int
	maxVoxels          int64
	sparse             bool
	workers            int
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "depthcluster",
		Short: "Cluster depth point clouds into bounding boxes",
		Long: `depthcluster turns a frame of (x, y, z, confidence) points into the
axis-aligned boxes of its connected occupied regions.

Tuning comes from a JSON file (--config, see config/tuning.defaults.json)
and any flag given on the command line overrides it.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			monitoring.SetDebug(opts.debug)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to a tuning JSON file")
	pf.BoolVar(&opts.debug, "debug", false, "Log per-frame diagnostics")
	pf.Float64Var(&opts.cellSize, "cell-size", config.DefaultCellSize, "Voxel edge length in metres")
	pf.IntVar(&opts.minClusterElements, "min-cluster", config.DefaultMinClusterElements, "Smallest cluster to report, in voxels")
	pf.Int64Var(&opts.maxVoxels, "max-voxels", config.DefaultMaxVoxels, "Grid voxel budget (0 = unlimited)")
	pf.BoolVar(&opts.sparse, "sparse", false, "Store only occupied voxels")
	pf.IntVar(&opts.workers, "workers", config.DefaultBatchWorkers, "Frames clustered in parallel")

	root.AddCommand(
		newClusterCmd(opts),
		newPlotCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return root
}

// tuning loads --config (or the compiled-in defaults) and applies every
// flag the user set explicitly on top.
func (o *globalOptions) tuning(cmd *cobra.Command) (*config.TuningConfig, error) {
	cfg := config.DefaultTuningConfig()
	if o.configPath != "" {
		loaded, err := config.LoadTuningConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("cell-size") {
		cfg.CellSize = &o.cellSize
	}
	if flags.Changed("min-cluster") {
		cfg.MinClusterElements = &o.minClusterElements
	}
	if flags.Changed("max-voxels") {
		cfg.MaxVoxels = &o.maxVoxels
	}
	if flags.Changed("sparse") {
		cfg.SparseGrid = &o.sparse
	}
	if flags.Changed("workers") {
		cfg.BatchWorkers = &o.workers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *globalOptions) params(cmd *cobra.Command) (l4clusters.Params, *config.TuningConfig, error) {
	cfg, err := o.tuning(cmd)
	if err != nil {
		return l4clusters.Params{}, nil, err
	}
	return l4clusters.ParamsFromTuning(cfg), cfg, nil
}
