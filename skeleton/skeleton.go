// Package skeleton holds the thinned, binarized ridge map that minutiae are
// extracted from, together with loaders that turn image files into one.
package skeleton

import (
	"fmt"
	"strings"
)

// Skeleton is a fixed-size binary grid. A true pixel is ridge (foreground).
type Skeleton struct {
	Width  int
	Height int
	pixels []bool
}

func New(width, height int) (*Skeleton, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimensions %dx%d", ErrInvalidImage, width, height)
	}
	return &Skeleton{
		Width:  width,
		Height: height,
		pixels: make([]bool, width*height),
	}, nil
}

// Parse builds a skeleton from text rows where '#', '1' and 'X' mark ridge
// pixels and anything else is background. All rows must have the same length.
func Parse(rows ...string) (*Skeleton, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrInvalidImage)
	}
	s, err := New(len(rows[0]), len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != s.Width {
			return nil, fmt.Errorf("%w: row %d has width %d, want %d", ErrInvalidImage, y, len(row), s.Width)
		}
		for x, ch := range row {
			s.Set(x, y, strings.ContainsRune("#1X", ch))
		}
	}
	return s, nil
}

// At reports whether (x, y) is ridge. Coordinates outside the grid read as
// background.
func (s *Skeleton) At(x, y int) bool {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return false
	}
	return s.pixels[y*s.Width+x]
}

func (s *Skeleton) Set(x, y int, ridge bool) {
	if x < 0 || y < 0 || x >= s.Width || y >= s.Height {
		return
	}
	s.pixels[y*s.Width+x] = ridge
}

// Count returns the number of ridge pixels.
func (s *Skeleton) Count() int {
	n := 0
	for _, p := range s.pixels {
		if p {
			n++
		}
	}
	return n
}

func (s *Skeleton) String() string {
	var b strings.Builder
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			if s.At(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
