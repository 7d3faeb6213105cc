package l4clusters

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
	"github.com/banshee-data/depthcluster/internal/depth/l3grid"
)

const eps = 1e-4

func buildGrid(t *testing.T, pts l1points.Points, cellSize float32, sparse bool) l3grid.Grid {
	t.Helper()
	g, err := l3grid.Build(pts, l3grid.Options{CellSize: cellSize, MaxVoxels: l3grid.DefaultMaxVoxels, Sparse: sparse})
	require.NoError(t, err)
	return g
}

func extract(t *testing.T, pts l1points.Points, cellSize float32, sparse bool, minElems int) []l2bounds.AABB {
	t.Helper()
	ex, err := NewExtractor(buildGrid(t, pts, cellSize, sparse), minElems)
	require.NoError(t, err)
	boxes, err := ex.FindClusters()
	require.NoError(t, err)
	return boxes
}

func forEachMode(t *testing.T, fn func(t *testing.T, sparse bool)) {
	t.Helper()
	t.Run("dense", func(t *testing.T) { fn(t, false) })
	t.Run("sparse", func(t *testing.T) { fn(t, true) })
}

func assertBox(t *testing.T, want, got l2bounds.AABB) {
	t.Helper()
	for axis := 0; axis < 3; axis++ {
		assert.InDelta(t, want.Min[axis], got.Min[axis], eps, "min[%d]", axis)
		assert.InDelta(t, want.Max[axis], got.Max[axis], eps, "max[%d]", axis)
	}
}

func TestNewExtractor_Errors(t *testing.T) {
	_, err := NewExtractor(nil, 1)
	assert.ErrorIs(t, err, l3grid.ErrInvalidInput)

	g := buildGrid(t, l1points.Points{{Confidence: 1}}, 0.02, false)
	_, err = NewExtractor(g, 0)
	assert.ErrorIs(t, err, l3grid.ErrInvalidInput)
}

func TestFindClusters_SinglePoint(t *testing.T) {
	forEachMode(t, func(t *testing.T, sparse bool) {
		boxes := extract(t, l1points.Points{{X: 3, Y: -1, Z: 2, Confidence: 0.9}}, 0.02, sparse, 1)
		require.Len(t, boxes, 1)

		box := boxes[0]
		assert.True(t, box.ContainsPoint(mgl32.Vec3{3, -1, 2}))
		for axis, s := range box.Size() {
			assert.LessOrEqual(t, s, float32(0.02)+eps, "axis %d", axis)
			assert.Greater(t, s, float32(0))
		}
	})
}

func TestFindClusters_Connectivity(t *testing.T) {
	cases := []struct {
		name string
		pts  l1points.Points
		want []l2bounds.AABB
	}{
		{
			name: "same voxel",
			pts:  l1points.Points{{Confidence: 1}, {X: 0.5, Y: 0.5, Z: 0.5, Confidence: 1}, {X: 3, Y: 3, Z: 3, Confidence: 1}},
			want: []l2bounds.AABB{
				l2bounds.FromCorners(0, 0, 0, 1, 1, 1),
				l2bounds.FromCorners(2, 2, 2, 3, 3, 3),
			},
		},
		{
			name: "face adjacent",
			pts:  l1points.Points{{Confidence: 1}, {X: 1.5, Confidence: 1}},
			want: []l2bounds.AABB{l2bounds.FromCorners(0, 0, 0, 2, 1, 1)},
		},
		{
			name: "edge diagonal is separate",
			pts:  l1points.Points{{Confidence: 1}, {X: 1.5, Y: 1.5, Confidence: 1}},
			want: []l2bounds.AABB{
				l2bounds.FromCorners(0, 0, 0, 1, 1, 1),
				l2bounds.FromCorners(1, 1, 0, 2, 2, 1),
			},
		},
		{
			name: "corner diagonal is separate",
			pts:  l1points.Points{{Confidence: 1}, {X: 1.5, Y: 1.5, Z: 1.5, Confidence: 1}},
			want: []l2bounds.AABB{
				l2bounds.FromCorners(0, 0, 0, 1, 1, 1),
				l2bounds.FromCorners(1, 1, 1, 2, 2, 2),
			},
		},
		{
			name: "far apart",
			pts:  l1points.Points{{Confidence: 1}, {X: 10, Confidence: 1}},
			want: []l2bounds.AABB{
				l2bounds.FromCorners(0, 0, 0, 1, 1, 1),
				l2bounds.FromCorners(9, 0, 0, 10, 1, 1),
			},
		},
		{
			name: "low confidence gap does not bridge",
			pts: l1points.Points{
				{Confidence: 1}, {X: 1.5, Confidence: 0}, {X: 2.5, Confidence: 1},
			},
			want: []l2bounds.AABB{
				l2bounds.FromCorners(0, 0, 0, 1, 1, 1),
				l2bounds.FromCorners(2, 0, 0, 3, 1, 1),
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			forEachMode(t, func(t *testing.T, sparse bool) {
				got := extract(t, tc.pts, 1, sparse, 1)
				require.Len(t, got, len(tc.want))
				for i := range tc.want {
					assertBox(t, tc.want[i], got[i])
				}
			})
		})
	}
}

func TestFindClusters_ThreePointScenario(t *testing.T) {
	pts := l1points.Points{
		{X: 0, Y: 0, Z: 0, Confidence: 1},
		{X: 0.01, Y: 0, Z: 0, Confidence: 1},
		{X: 5, Y: 5, Z: 5, Confidence: 1},
	}
	forEachMode(t, func(t *testing.T, sparse bool) {
		boxes := extract(t, pts, 0.02, sparse, 1)
		require.Len(t, boxes, 2)

		assertBox(t, l2bounds.FromCorners(0, 0, 0, 0.02, 0.02, 0.02), boxes[0])
		assertBox(t, l2bounds.FromCorners(5, 5, 5, 5.02, 5.02, 5.02), boxes[1])
		for _, s := range boxes[0].Size() {
			assert.LessOrEqual(t, s, float32(0.02)+eps)
		}
	})
}

func TestFindClusters_SecondCallIsEmpty(t *testing.T) {
	forEachMode(t, func(t *testing.T, sparse bool) {
		g := buildGrid(t, l1points.Points{{Confidence: 1}, {X: 10, Confidence: 1}}, 1, sparse)
		ex, err := NewExtractor(g, 1)
		require.NoError(t, err)
		assert.Equal(t, l3grid.StateBuilt, ex.State())

		first, err := ex.FindClusters()
		require.NoError(t, err)
		assert.Len(t, first, 2)
		assert.Equal(t, l3grid.StateDrained, ex.State())
		assert.Zero(t, g.OccupiedCount())

		second, err := ex.FindClusters()
		require.NoError(t, err)
		assert.NotNil(t, second)
		assert.Empty(t, second)

		// A fresh extractor over the drained grid sees nothing either.
		again, err := NewExtractor(g, 1)
		require.NoError(t, err)
		third, err := again.FindClusters()
		require.NoError(t, err)
		assert.NotNil(t, third)
		assert.Empty(t, third)
	})
}

func TestFindClusters_MinClusterElements(t *testing.T) {
	pts := l1points.Points{
		{X: 0, Confidence: 1}, {X: 1, Confidence: 1}, {X: 2, Confidence: 1},
		{X: 10, Confidence: 1},
	}
	forEachMode(t, func(t *testing.T, sparse bool) {
		assert.Len(t, extract(t, pts, 1, sparse, 1), 2)

		boxes := extract(t, pts, 1, sparse, 2)
		require.Len(t, boxes, 1)
		assertBox(t, l2bounds.FromCorners(0, 0, 0, 3, 1, 1), boxes[0])

		none := extract(t, pts, 1, sparse, 4)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestFindComponents_DeepComponent(t *testing.T) {
	const n = 200_000
	pts := make(l1points.Points, n+1)
	for i := range pts {
		pts[i] = l1points.Point{X: float32(i), Confidence: 1}
	}
	forEachMode(t, func(t *testing.T, sparse bool) {
		ex, err := NewExtractor(buildGrid(t, pts, 1, sparse), 1)
		require.NoError(t, err)
		comps, err := ex.FindComponents()
		require.NoError(t, err)
		require.Len(t, comps, 1)
		assert.Equal(t, n, comps[0].Voxels)
		assertBox(t, l2bounds.FromCorners(0, 0, 0, n, 1, 1), comps[0].Box)
	})
}

func TestFindClusters_DiscoveryOrder(t *testing.T) {
	// Seeds are found in (i, j, k) order, not input order.
	pts := l1points.Points{
		{X: 4, Y: 0, Z: 0, Confidence: 1},
		{X: 0, Y: 4, Z: 0, Confidence: 1},
		{X: 0, Y: 0, Z: 4, Confidence: 1},
		{X: 0, Y: 0, Z: 0, Confidence: 1},
	}
	boxes := extract(t, pts, 1, false, 1)
	require.Len(t, boxes, 4)
	assertBox(t, l2bounds.FromCorners(0, 0, 0, 1, 1, 1), boxes[0])
	assertBox(t, l2bounds.FromCorners(0, 0, 3, 1, 1, 4), boxes[1])
	assertBox(t, l2bounds.FromCorners(0, 3, 0, 1, 4, 1), boxes[2])
	assertBox(t, l2bounds.FromCorners(3, 0, 0, 4, 1, 1), boxes[3])
}

func TestFindComponents_DenseSparseAgree(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	pts := make(l1points.Points, 3000)
	for i := range pts {
		pts[i] = l1points.Point{
			X:          rng.Float32() * 2,
			Y:          rng.Float32() * 2,
			Z:          rng.Float32() * 2,
			Confidence: rng.Float32() - 0.2,
		}
	}

	denseGrid := buildGrid(t, pts, 0.1, false)
	sparseGrid := buildGrid(t, pts, 0.1, true)
	occupied := denseGrid.OccupiedCount()
	require.Equal(t, occupied, sparseGrid.OccupiedCount())

	dense, err := NewExtractor(denseGrid, 1)
	require.NoError(t, err)
	sparse, err := NewExtractor(sparseGrid, 1)
	require.NoError(t, err)

	dc, err := dense.FindComponents()
	require.NoError(t, err)
	sc, err := sparse.FindComponents()
	require.NoError(t, err)

	if diff := cmp.Diff(dc, sc); diff != "" {
		t.Errorf("dense and sparse components differ (-dense +sparse):\n%s", diff)
	}

	total := 0
	for _, c := range dc {
		total += c.Voxels
		assert.True(t, c.Box.Valid())
	}
	assert.Equal(t, occupied, total)
}
