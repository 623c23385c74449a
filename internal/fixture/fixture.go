// Package fixture draws synthetic ridge skeletons for tests.
package fixture

import (
	"bytes"
	"image/png"

	"github.com/high-horse/fingerprint-server/skeleton"
)

// Segment is a horizontal ridge from (X0, Y) to (X1, Y). Its two ends are
// ridge endings.
type Segment struct {
	X0, X1, Y int
}

func Draw(width, height int, segs ...Segment) *skeleton.Skeleton {
	s, err := skeleton.New(width, height)
	if err != nil {
		panic(err)
	}
	for _, seg := range segs {
		for x := seg.X0; x <= seg.X1; x++ {
			s.Set(x, seg.Y, true)
		}
	}
	return s
}

// PersonA has eight endings, two per ridge.
func PersonA() *skeleton.Skeleton {
	return Draw(100, 100,
		Segment{5, 25, 10},
		Segment{5, 25, 20},
		Segment{5, 25, 30},
		Segment{5, 25, 40},
	)
}

// PersonB has six endings laid out so that at most two of them coincide
// with PersonA after alignment.
func PersonB() *skeleton.Skeleton {
	return Draw(100, 100,
		Segment{50, 90, 60},
		Segment{10, 30, 80},
		Segment{60, 70, 90},
	)
}

// Stranger has too few minutiae to reach the default threshold.
func Stranger() *skeleton.Skeleton {
	return Draw(100, 100, Segment{40, 60, 50})
}

// PNG encodes s with white ridges on black.
func PNG(s *skeleton.Skeleton) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, s.Image(skeleton.WhiteRidges)); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
