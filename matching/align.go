package matching

import (
	"math"

	"github.com/high-horse/fingerprint-server/minutiae"
)

// AlignedPoint is a probe minutia after the rigid transform was applied.
type AlignedPoint struct {
	X, Y float64
	Kind minutiae.Kind
}

// Transform maps probe coordinates onto the candidate frame: translate by
// (DX, DY), then rotate by Rotation degrees about (CX, CY).
type Transform struct {
	DX, DY   float64
	Rotation float64
	CX, CY   float64
	// Rotated is false when either side had fewer than two minutiae.
	Rotated bool
}

// EstimateTransform derives the transform from the anchors (first
// minutiae) and, when both sides have two or more points, from the
// direction of the first two points. ok is false when either side is empty.
func EstimateTransform(probe, candidate minutiae.Template) (tr Transform, ok bool) {
	if len(probe) == 0 || len(candidate) == 0 {
		return Transform{}, false
	}
	c0 := candidate[0]
	tr.DX = float64(c0.X - probe[0].X)
	tr.DY = float64(c0.Y - probe[0].Y)
	tr.CX, tr.CY = float64(c0.X), float64(c0.Y)

	if len(probe) < 2 || len(candidate) < 2 {
		return tr, true
	}
	p0x, p0y := float64(probe[0].X)+tr.DX, float64(probe[0].Y)+tr.DY
	p1x, p1y := float64(probe[1].X)+tr.DX, float64(probe[1].Y)+tr.DY
	c1 := candidate[1]

	tr.Rotation = angle(float64(c0.X), float64(c0.Y), float64(c1.X), float64(c1.Y)) -
		angle(p0x, p0y, p1x, p1y)
	tr.Rotated = true
	return tr, true
}

// Apply returns transformed copies of t. t itself is not modified.
func (tr Transform) Apply(t minutiae.Template) []AlignedPoint {
	out := make([]AlignedPoint, len(t))
	sin, cos := math.Sincos(tr.Rotation * math.Pi / 180)
	for i, m := range t {
		x := float64(m.X) + tr.DX
		y := float64(m.Y) + tr.DY
		if tr.Rotated {
			dx, dy := x-tr.CX, y-tr.CY
			x = dx*cos - dy*sin + tr.CX
			y = dx*sin + dy*cos + tr.CY
		}
		out[i] = AlignedPoint{X: x, Y: y, Kind: m.Kind}
	}
	return out
}

// Align moves probe into the candidate's frame. With an empty side no
// transform is computable and probe is returned untransformed.
func Align(probe, candidate minutiae.Template) ([]AlignedPoint, minutiae.Template) {
	tr, _ := EstimateTransform(probe, candidate)
	return tr.Apply(probe), candidate
}

// angle of the segment a->b in degrees.
func angle(ax, ay, bx, by float64) float64 {
	return math.Atan2(by-ay, bx-ax) * 180 / math.Pi
}
