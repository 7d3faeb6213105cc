package l1points

import (
	"fmt"
	"math"
)

// FloatsPerPoint is the stride of a flat point buffer: x, y, z, confidence.
const FloatsPerPoint = 4

// Point is a single depth sample in world coordinates (metres).
type Point struct {
	X, Y, Z    float32
	Confidence float32 // Sensor certainty; <= 0 marks an unreliable sample
}

// Usable reports whether the point contributes geometric information.
// Points with non-positive confidence or non-finite coordinates are excluded
// from every bounds and occupancy computation.
func (p Point) Usable() bool {
	if p.Confidence <= 0 {
		return false
	}
	return finite(p.X) && finite(p.Y) && finite(p.Z)
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Cloud is a read-only, indexable sequence of points. Order carries no meaning.
type Cloud interface {
	Len() int
	At(i int) Point
}

// Points is a Cloud backed by a slice of Point values.
type Points []Point

// Len returns the number of points.
func (p Points) Len() int { return len(p) }

// At returns the i-th point.
func (p Points) At(i int) Point { return p[i] }

// FlatBuffer is a zero-copy Cloud over an interleaved x,y,z,confidence buffer,
// the layout depth sensors hand out.
type FlatBuffer []float32

// NewFlatBuffer wraps buf after checking its length is a whole number of points.
func NewFlatBuffer(buf []float32) (FlatBuffer, error) {
	if len(buf)%FloatsPerPoint != 0 {
		return nil, fmt.Errorf("flat buffer length %d is not a multiple of %d", len(buf), FloatsPerPoint)
	}
	return FlatBuffer(buf), nil
}

// Len returns the number of whole points in the buffer.
func (b FlatBuffer) Len() int { return len(b) / FloatsPerPoint }

// At returns the i-th point.
func (b FlatBuffer) At(i int) Point {
	o := i * FloatsPerPoint
	return Point{X: b[o], Y: b[o+1], Z: b[o+2], Confidence: b[o+3]}
}

// CountUsable returns how many points in c pass Usable.
func CountUsable(c Cloud) int {
	if c == nil {
		return 0
	}
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.At(i).Usable() {
			n++
		}
	}
	return n
}

// Copy materialises any Cloud into an owned Points slice.
func Copy(c Cloud) Points {
	if c == nil {
		return nil
	}
	out := make(Points, c.Len())
	for i := range out {
		out[i] = c.At(i)
	}
	return out
}
