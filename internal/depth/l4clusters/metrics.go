package l4clusters

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// ClusterMetrics summarises the points that fall inside one cluster box.
type ClusterMetrics struct {
	Index          int        `json:"index"`
	Voxels         int        `json:"voxels"`
	PointCount     int        `json:"point_count"`
	Centroid       mgl32.Vec3 `json:"centroid"`
	Size           mgl32.Vec3 `json:"size"`
	Volume         float32    `json:"volume"`
	MeanConfidence float32    `json:"mean_confidence"`
	StdConfidence  float32    `json:"std_confidence"`
	HeightP95      float32    `json:"height_p95"` // 95th percentile of point Y
}

// Describe computes per-box statistics over the usable points of cloud. Each
// point is attributed to the first box (in slice order) that contains it.
// Boxes with no attributed point keep zero statistics.
func Describe(cloud l1points.Cloud, boxes []l2bounds.AABB) []ClusterMetrics {
	out := make([]ClusterMetrics, len(boxes))
	if len(boxes) == 0 {
		return out
	}

	type acc struct {
		sumX, sumY, sumZ float64
		conf             []float64
		heights          []float64
	}
	accs := make([]acc, len(boxes))

	if cloud != nil {
		for i := 0; i < cloud.Len(); i++ {
			p := cloud.At(i)
			if !p.Usable() {
				continue
			}
			v := mgl32.Vec3{p.X, p.Y, p.Z}
			for b := range boxes {
				if !boxes[b].ContainsPoint(v) {
					continue
				}
				a := &accs[b]
				a.sumX += float64(p.X)
				a.sumY += float64(p.Y)
				a.sumZ += float64(p.Z)
				a.conf = append(a.conf, float64(p.Confidence))
				a.heights = append(a.heights, float64(p.Y))
				break
			}
		}
	}

	for b, box := range boxes {
		m := ClusterMetrics{
			Index:  b,
			Size:   box.Size(),
			Volume: box.Volume(),
		}
		a := accs[b]
		if n := len(a.conf); n > 0 {
			m.PointCount = n
			m.Centroid = mgl32.Vec3{
				float32(a.sumX / float64(n)),
				float32(a.sumY / float64(n)),
				float32(a.sumZ / float64(n)),
			}
			if n == 1 {
				m.MeanConfidence = float32(a.conf[0])
			} else {
				mean, std := stat.MeanStdDev(a.conf, nil)
				m.MeanConfidence = float32(mean)
				m.StdConfidence = float32(std)
			}
			sort.Float64s(a.heights)
			m.HeightP95 = float32(stat.Quantile(0.95, stat.Empirical, a.heights, nil))
		}
		out[b] = m
	}
	return out
}
