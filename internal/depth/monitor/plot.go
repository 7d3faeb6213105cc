package monitor

import (
	"fmt"
	"image/color"
	"io"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/depthcluster/internal/depth/l1points"
	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// maxPlotPoints caps the scatter layer; larger clouds are strided.
const maxPlotPoints = 20000

// Plane selects the two axes a frame is projected onto.
type Plane struct {
	Name string
	A, B int // axis indices into (x, y, z)
}

var planes = map[string]Plane{
	"xy": {Name: "xy", A: 0, B: 1},
	"xz": {Name: "xz", A: 0, B: 2},
	"yz": {Name: "yz", A: 1, B: 2},
}

var axisNames = [3]string{"X (m)", "Y (m)", "Z (m)"}

// ParsePlane accepts "xy", "xz" or "yz" in any case.
func ParsePlane(s string) (Plane, error) {
	p, ok := planes[strings.ToLower(s)]
	if !ok {
		return Plane{}, fmt.Errorf("unknown plane %q: want xy, xz or yz", s)
	}
	return p, nil
}

func component(p l1points.Point, axis int) float64 {
	switch axis {
	case 0:
		return float64(p.X)
	case 1:
		return float64(p.Y)
	default:
		return float64(p.Z)
	}
}

// WritePlotPNG projects the usable points of cloud and the outlines of boxes
// onto plane and writes a PNG of size x size inches.
func WritePlotPNG(w io.Writer, cloud l1points.Cloud, boxes []l2bounds.AABB, plane Plane, title string, size vg.Length) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = axisNames[plane.A]
	p.Y.Label.Text = axisNames[plane.B]
	p.Add(plotter.NewGrid())

	if pts := projectPoints(cloud, plane); len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
		s.GlyphStyle.Color = color.Gray{Y: 96}
		s.GlyphStyle.Radius = vg.Points(0.8)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	colors := generateColors(len(boxes))
	for i, b := range boxes {
		outline, err := plotter.NewLine(boxOutline(b, plane))
		if err != nil {
			return fmt.Errorf("cluster %d outline: %w", i, err)
		}
		outline.LineStyle.Color = colors[i]
		outline.LineStyle.Width = vg.Points(1.5)
		p.Add(outline)
		if i < 12 {
			p.Legend.Add(fmt.Sprintf("cluster %d", i), outline)
		}
	}

	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write plot: %w", err)
	}
	return nil
}

func projectPoints(cloud l1points.Cloud, plane Plane) plotter.XYs {
	if cloud == nil || cloud.Len() == 0 {
		return nil
	}
	stride := 1
	if n := cloud.Len(); n > maxPlotPoints {
		stride = (n + maxPlotPoints - 1) / maxPlotPoints
	}
	out := make(plotter.XYs, 0, cloud.Len()/stride+1)
	for i := 0; i < cloud.Len(); i += stride {
		pt := cloud.At(i)
		if !pt.Usable() {
			continue
		}
		out = append(out, plotter.XY{X: component(pt, plane.A), Y: component(pt, plane.B)})
	}
	return out
}

// boxOutline is the closed rectangle of b in plane.
func boxOutline(b l2bounds.AABB, plane Plane) plotter.XYs {
	x0, x1 := float64(b.Min[plane.A]), float64(b.Max[plane.A])
	y0, y1 := float64(b.Min[plane.B]), float64(b.Max[plane.B])
	return plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}
}

// generateColors spreads n hues around the wheel at fixed saturation.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hexColor formats c as #rrggbb for the echarts pages.
func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}

// hslToRGB converts HSL in [0,1] to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	switch {
	case t < 0:
		t++
	case t > 1:
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	default:
		return p
	}
}
