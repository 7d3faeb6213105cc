package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l4clusters"
)

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// maxChartPoints caps the 3D scatter; browsers struggle well before plot does.
const maxChartPoints = 8000

// WriteChartPage renders frame as an HTML page: a 3D scatter of the usable
// points with each cluster's box corners in its own colour, and a bar chart
// of cluster sizes in voxels.
func WriteChartPage(w io.Writer, cloud l1points.Cloud, frame *l4clusters.Frame) error {
	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Depth clusters", Width: "900px", Height: "720px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Depth clusters", Subtitle: fmt.Sprintf("frame=%s points=%d clusters=%d", frame.ID, frame.InputPoints, len(frame.Boxes))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (m)"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (m)"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (m)"}),
	)
	scatter.AddSeries("points", chartPoints(cloud))

	colors := generateColors(len(frame.Boxes))
	for i, b := range frame.Boxes {
		corners := l4clusters.Corners(b)
		data := make([]opts.Chart3DData, 0, len(corners))
		for _, c := range corners {
			data = append(data, opts.Chart3DData{
				Value:     []interface{}{c[0], c[1], c[2]},
				ItemStyle: &opts.ItemStyle{Color: hexColor(colors[i])},
			})
		}
		scatter.AddSeries(fmt.Sprintf("cluster %d", i), data)
	}

	labels := make([]string, len(frame.Boxes))
	sizes := make([]opts.BarData, len(frame.Boxes))
	for i := range frame.Boxes {
		labels[i] = fmt.Sprintf("c%d", i)
		voxels := 0
		if i < len(frame.Metrics) {
			voxels = frame.Metrics[i].Voxels
		}
		sizes[i] = opts.BarData{Value: voxels}
	}
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "360px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Cluster sizes", Subtitle: "voxels per cluster"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("voxels", sizes,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsHost)
	page.AddCharts(scatter, bar)
	return page.Render(w)
}

func chartPoints(cloud l1points.Cloud) []opts.Chart3DData {
	if cloud == nil {
		return nil
	}
	stride := 1
	if n := cloud.Len(); n > maxChartPoints {
		stride = (n + maxChartPoints - 1) / maxChartPoints
	}
	data := make([]opts.Chart3DData, 0, cloud.Len()/stride+1)
	for i := 0; i < cloud.Len(); i += stride {
		p := cloud.At(i)
		if !p.Usable() {
			continue
		}
		data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
	}
	return data
}
