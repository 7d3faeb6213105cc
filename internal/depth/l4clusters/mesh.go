package l4clusters

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/banshee-data/depthcluster/internal/depth/l2bounds"
)

// boxIndices triangulates the six faces, two triangles per face.
var boxIndices = [36]uint16{
	0, 1, 2, 2, 1, 3,       // front  (z = max)
	4, 5, 6, 6, 5, 7,       // back   (z = min)
	8, 9, 10, 10, 9, 11,    // left   (x = min)
	12, 13, 14, 14, 13, 15, // right  (x = max)
	16, 17, 18, 18, 17, 19, // top    (y = max)
	20, 21, 22, 22, 21, 23, // bottom (y = min)
}

// Mesh is a triangle list describing one box, ready for a GL-style
// indexed draw. Vertices are grouped four per face.
type Mesh struct {
	Vertices [24]mgl32.Vec3 `json:"vertices"`
	Indices  [36]uint16     `json:"indices"`
}

// BoxMesh builds the renderable mesh for a cluster box.
func BoxMesh(b l2bounds.AABB) Mesh {
	x0, y0, z0 := b.MinX(), b.MinY(), b.MinZ()
	x1, y1, z1 := b.MaxX(), b.MaxY(), b.MaxZ()
	return Mesh{
		Vertices: [24]mgl32.Vec3{
			{x0, y0, z1}, {x1, y0, z1}, {x0, y1, z1}, {x1, y1, z1},
			{x1, y0, z0}, {x0, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
			{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z0}, {x0, y1, z1},
			{x1, y0, z1}, {x1, y0, z0}, {x1, y1, z1}, {x1, y1, z0},
			{x0, y1, z1}, {x1, y1, z1}, {x0, y1, z0}, {x1, y1, z0},
			{x0, y0, z0}, {x1, y0, z0}, {x0, y0, z1}, {x1, y0, z1},
		},
		Indices: boxIndices,
	}
}

// Flatten returns the vertices as packed xyz float32 triples.
func (m Mesh) Flatten() []float32 {
	out := make([]float32, 0, len(m.Vertices)*3)
	for _, v := range m.Vertices {
		out = append(out, v[0], v[1], v[2])
	}
	return out
}

// Triangles returns the mesh as 12 triangles of world-space corners.
func (m Mesh) Triangles() [12][3]mgl32.Vec3 {
	var tris [12][3]mgl32.Vec3
	for t := range tris {
		for c := 0; c < 3; c++ {
			tris[t][c] = m.Vertices[m.Indices[t*3+c]]
		}
	}
	return tris
}

// Corners returns the eight corners of b. Bit 0 of the index selects max x,
// bit 1 max y, bit 2 max z.
func Corners(b l2bounds.AABB) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := range out {
		v := b.Min
		if i&1 != 0 {
			v[0] = b.Max[0]
		}
		if i&2 != 0 {
			v[1] = b.Max[1]
		}
		if i&4 != 0 {
			v[2] = b.Max[2]
		}
		out[i] = v
	}
	return out
}

// edgePairs index into Corners: pairs differing in exactly one bit.
var edgePairs = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along x
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along z
}

// Edges returns the 12 wireframe segments of b.
func Edges(b l2bounds.AABB) [12][2]mgl32.Vec3 {
	c := Corners(b)
	var out [12][2]mgl32.Vec3
	for i, p := range edgePairs {
		out[i] = [2]mgl32.Vec3{c[p[0]], c[p[1]]}
	}
	return out
}
