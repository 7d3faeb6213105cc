package l4clusters

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
)

// ClusterFrames clusters independent point-cloud snapshots in parallel, at
// most workers at a time (workers < 1 means one). Results are returned in
// input order. The first failing frame cancels frames not yet started;
// a frame already running always completes.
func ClusterFrames(ctx context.Context, clouds []l1points.Cloud, params Params, workers int) ([]*Frame, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}

	clusterer := NewClusterer(params)
	frames := make([]*Frame, len(clouds))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cloud := range clouds {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			frame, err := clusterer.Cluster(cloud)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			frames[i] = frame
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}
