package minutiae

import (
	"github.com/high-horse/fingerprint-server/skeleton"

	"golang.org/x/sync/errgroup"
)

// Extract classifies interior ridge pixels by the number of ridge pixels in
// their 8-neighbourhood: one neighbour is an ending, three a bifurcation.
// Every other count is ignored. Border pixels are never classified.
func Extract(s *skeleton.Skeleton) Template {
	out := Template{}
	if s == nil {
		return out
	}
	for y := 1; y < s.Height-1; y++ {
		out = appendRow(out, s, y)
	}
	return out
}

// ExtractParallel is Extract with rows spread over at most workers
// goroutines. The result is identical to Extract.
func ExtractParallel(s *skeleton.Skeleton, workers int) Template {
	if s == nil || s.Height < 3 || workers <= 1 {
		return Extract(s)
	}

	rows := make([]Template, s.Height)
	var g errgroup.Group
	g.SetLimit(workers)
	for y := 1; y < s.Height-1; y++ {
		y := y
		g.Go(func() error {
			rows[y] = appendRow(nil, s, y)
			return nil
		})
	}
	_ = g.Wait()

	out := Template{}
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

func appendRow(dst Template, s *skeleton.Skeleton, y int) Template {
	for x := 1; x < s.Width-1; x++ {
		if !s.At(x, y) {
			continue
		}
		switch neighbours(s, x, y) {
		case 1:
			dst = append(dst, Minutia{X: x, Y: y, Kind: Ending})
		case 3:
			dst = append(dst, Minutia{X: x, Y: y, Kind: Bifurcation})
		}
	}
	return dst
}

func neighbours(s *skeleton.Skeleton, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if (dx != 0 || dy != 0) && s.At(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}
