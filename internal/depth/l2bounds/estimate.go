package l2bounds

import "github.com/banshee-data/depthcluster/internal/depth/l1points"

// Estimate returns the tight box around every usable point in c (confidence
// above zero, finite coordinates). When nothing qualifies the result is not
// Valid and callers must not derive a grid from it.
func Estimate(c l1points.Cloud) AABB {
	bounds := Empty()
	if c == nil {
		return bounds
	}
	for i := 0; i < c.Len(); i++ {
		p := c.At(i)
		if !p.Usable() {
			continue
		}
		bounds.Update(p.X, p.Y, p.Z)
	}
	return bounds
}
