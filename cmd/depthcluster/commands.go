package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
	"github.com/banshee-data/depthcluster/internal/depth/monitor"
	"github.com/banshee-data/depthcluster/internal/monitoring"
	"github.com/banshee-data/depthcluster/internal/security"
	"github.com/banshee-data/depthcluster/internal/version"
)

func newClusterCmd(opts *globalOptions) *cobra.Command {
	var (
		withMesh bool
		server   string
	)
	cmd := &cobra.Command{
		Use:   "cluster <file>...",
		Short: "Cluster one or more point files and print the frames as JSON",
		Long: `Reads .bin/.raw (little-endian float32 x,y,z,confidence) or .csv/.txt
point files. One file prints a single frame; several files are clustered in
parallel and printed as a JSON array in argument order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, cfg, err := opts.params(cmd)
			if err != nil {
				return err
			}

			clouds := make([]l1points.Cloud, len(args))
			for i, path := range args {
				pts, err := l1points.ReadFile(path)
				if err != nil {
					return err
				}
				clouds[i] = pts
			}

			if server != "" {
				return clusterRemote(cmd, server, clouds, withMesh)
			}

			frames, err := l4clusters.ClusterFrames(cmd.Context(), clouds, params, cfg.GetBatchWorkers())
			if err != nil {
				return err
			}
			out := make([]monitor.ClusterResponse, len(frames))
			for i, f := range frames {
				out[i] = response(f, withMesh)
				monitoring.Debugf("%s: %d clusters", args[i], len(f.Boxes))
			}
			if len(out) == 1 {
				return writeJSON(cmd.OutOrStdout(), out[0])
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&withMesh, "mesh", false, "Include a triangle mesh for every box")
	cmd.Flags().StringVar(&server, "server", "", "Send frames to a running depthcluster server (e.g. http://localhost:8082)")
	return cmd
}

func clusterRemote(cmd *cobra.Command, server string, clouds []l1points.Cloud, withMesh bool) error {
	client := monitor.NewClient(server, nil)
	out := make([]*monitor.ClusterResponse, len(clouds))
	for i, c := range clouds {
		resp, err := client.Cluster(cmd.Context(), c, withMesh)
		if err != nil {
			return err
		}
		out[i] = resp
	}
	if len(out) == 1 {
		return writeJSON(cmd.OutOrStdout(), out[0])
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func response(f *l4clusters.Frame, withMesh bool) monitor.ClusterResponse {
	resp := monitor.ClusterResponse{Frame: f}
	if withMesh {
		resp.Meshes = make([]l4clusters.Mesh, len(f.Boxes))
		for i, b := range f.Boxes {
			resp.Meshes[i] = l4clusters.BoxMesh(b)
		}
	}
	return resp
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newPlotCmd(opts *globalOptions) *cobra.Command {
	var (
		outPath string
		plane   string
		inches  float64
	)
	cmd := &cobra.Command{
		Use:   "plot <file>",
		Short: "Cluster a point file and draw it as a PNG projection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, cfg, err := opts.params(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("plane") {
				plane = cfg.GetPlotPlane()
			}
			p, err := monitor.ParsePlane(plane)
			if err != nil {
				return err
			}
			if inches < 2 || inches > 20 {
				return fmt.Errorf("--size must be between 2 and 20 inches, got %v", inches)
			}

			pts, err := l1points.ReadFile(args[0])
			if err != nil {
				return err
			}
			frame, err := l4clusters.NewClusterer(params).Cluster(pts)
			if err != nil {
				return err
			}

			if outPath == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				outPath = security.SanitizeFilename(base) + "_" + p.Name + ".png"
			}
			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("failed to create plot file: %w", err)
			}
			title := fmt.Sprintf("%s: %d clusters", filepath.Base(args[0]), len(frame.Boxes))
			if err := monitor.WritePlotPNG(f, pts, frame.Boxes, p, title, vg.Length(inches)*vg.Inch); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to close plot file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d clusters)\n", outPath, len(frame.Boxes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output PNG path (default <file>_<plane>.png)")
	cmd.Flags().StringVar(&plane, "plane", "xy", "Projection plane: xy, xz or yz")
	cmd.Flags().Float64Var(&inches, "size", 8, "Image edge in inches")
	return cmd
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	var listen, dataDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the debug HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, cfg, err := opts.params(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("listen") {
				listen = cfg.GetListenAddress()
			}

			ws, err := monitor.NewWebServer(monitor.WebServerConfig{
				Address:   listen,
				Clusterer: l4clusters.NewClusterer(params),
				PlotPlane: cfg.GetPlotPlane(),
				DataDir:   dataDir,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return ws.Start(ctx)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":8082", "Listen address")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory of point files clusterable via POST /api/depth/file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

