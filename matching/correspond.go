package matching

import (
	"cmp"

	"golang.org/x/exp/slices"

	"github.com/high-horse/fingerprint-server/minutiae"
)

// CountMatches counts probe points whose nearest candidate lies strictly
// within tolerance and has the same kind. A candidate may be claimed by any
// number of probe points.
func CountMatches(aligned []AlignedPoint, candidate minutiae.Template, tolerance float64) int {
	if len(aligned) == 0 || len(candidate) == 0 {
		return 0
	}
	ix := newIndex(candidate)
	n := 0
	for _, p := range aligned {
		i, _, ok := ix.nearest(p.X, p.Y, tolerance)
		if ok && candidate[i].Kind == p.Kind {
			n++
		}
	}
	return n
}

type pair struct {
	probe, candidate int
	dist             float64
}

// CountExclusive is the one-to-one variant of CountMatches: same-kind pairs
// within tolerance are taken greedily by increasing distance, and each probe
// and candidate point is used at most once.
func CountExclusive(aligned []AlignedPoint, candidate minutiae.Template, tolerance float64) int {
	if len(aligned) == 0 || len(candidate) == 0 {
		return 0
	}
	ix := newIndex(candidate)
	var pairs []pair
	for pi, p := range aligned {
		ix.within(p.X, p.Y, tolerance, func(ci int, d float64) {
			if candidate[ci].Kind == p.Kind {
				pairs = append(pairs, pair{probe: pi, candidate: ci, dist: d})
			}
		})
	}
	slices.SortStableFunc(pairs, func(a, b pair) int {
		if c := cmp.Compare(a.dist, b.dist); c != 0 {
			return c
		}
		if c := cmp.Compare(a.probe, b.probe); c != 0 {
			return c
		}
		return cmp.Compare(a.candidate, b.candidate)
	})

	usedProbe := make([]bool, len(aligned))
	usedCandidate := make([]bool, len(candidate))
	n := 0
	for _, p := range pairs {
		if usedProbe[p.probe] || usedCandidate[p.candidate] {
			continue
		}
		usedProbe[p.probe], usedCandidate[p.candidate] = true, true
		n++
	}
	return n
}

// Decide reports whether count reaches threshold.
func Decide(count, threshold int) bool {
	return count >= threshold
}
