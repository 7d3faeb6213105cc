package l2bounds

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	posInf = float32(math.Inf(1))
	negInf = float32(math.Inf(-1))
)

// AABB is an axis-aligned bounding box in metres. The zero value is NOT an
// empty box; start accumulators from Empty().
type AABB struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

// Empty returns a box with +Inf minimum and -Inf maximum so the first Update
// sets both corners.
func Empty() AABB {
	return AABB{
		Min: mgl32.Vec3{posInf, posInf, posInf},
		Max: mgl32.Vec3{negInf, negInf, negInf},
	}
}

// FromCorners builds a box from explicit corners.
func FromCorners(minX, minY, minZ, maxX, maxY, maxZ float32) AABB {
	return AABB{Min: mgl32.Vec3{minX, minY, minZ}, Max: mgl32.Vec3{maxX, maxY, maxZ}}
}

// Update widens the box to include (x, y, z). Bounds only ever grow, so the
// result is independent of update order.
func (a *AABB) Update(x, y, z float32) {
	if x < a.Min[0] {
		a.Min[0] = x
	}
	if y < a.Min[1] {
		a.Min[1] = y
	}
	if z < a.Min[2] {
		a.Min[2] = z
	}
	if x > a.Max[0] {
		a.Max[0] = x
	}
	if y > a.Max[1] {
		a.Max[1] = y
	}
	if z > a.Max[2] {
		a.Max[2] = z
	}
}

// UpdateVec is Update for a vector.
func (a *AABB) UpdateVec(v mgl32.Vec3) { a.Update(v[0], v[1], v[2]) }

// Valid reports whether the box has absorbed at least one point, i.e.
// min <= max on every axis.
func (a AABB) Valid() bool {
	return a.Min[0] <= a.Max[0] && a.Min[1] <= a.Max[1] && a.Min[2] <= a.Max[2]
}

func (a AABB) MinX() float32 { return a.Min[0] }
func (a AABB) MinY() float32 { return a.Min[1] }
func (a AABB) MinZ() float32 { return a.Min[2] }
func (a AABB) MaxX() float32 { return a.Max[0] }
func (a AABB) MaxY() float32 { return a.Max[1] }
func (a AABB) MaxZ() float32 { return a.Max[2] }

// Size returns the per-axis extent. Zero for an invalid box.
func (a AABB) Size() mgl32.Vec3 {
	if !a.Valid() {
		return mgl32.Vec3{}
	}
	return a.Max.Sub(a.Min)
}

// Center returns the box midpoint.
func (a AABB) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Volume returns the box volume in cubic metres.
func (a AABB) Volume() float32 {
	s := a.Size()
	return s[0] * s[1] * s[2]
}

// ContainsPoint checks if a point lies inside the box, boundaries included.
func (a AABB) ContainsPoint(p mgl32.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

// Overlaps checks if two boxes intersect on all three axes.
func (a AABB) Overlaps(other AABB) bool {
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	out := a
	if b.Valid() {
		out.UpdateVec(b.Min)
		out.UpdateVec(b.Max)
	}
	return out
}
