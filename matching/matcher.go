// Package matching aligns two minutiae templates and decides whether they
// come from the same finger.
package matching

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/high-horse/fingerprint-server/minutiae"
	"github.com/high-horse/fingerprint-server/templates"
)

type Strategy string

const (
	// First returns the first candidate, in storage order, that reaches the
	// threshold.
	First Strategy = "first"
	// Best returns the candidate with the highest count among those that
	// reach the threshold, earliest on ties.
	Best Strategy = "best"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", First:
		return First, nil
	case Best:
		return Best, nil
	}
	return "", fmt.Errorf("unknown identification strategy %q", s)
}

type Options struct {
	Threshold         int
	DistanceTolerance float64
	// AngleTolerance is accepted for configuration compatibility. Minutiae
	// carry no orientation, so it takes no part in any decision.
	AngleTolerance float64
	Strategy       Strategy
	Exclusive      bool
	Workers        int
}

var DefaultOptions = Options{
	Threshold:         5,
	DistanceTolerance: 10,
	AngleTolerance:    20,
	Strategy:          First,
}

type Matcher struct {
	opts Options
}

func NewMatcher(opts Options) *Matcher {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Strategy == "" {
		opts.Strategy = First
	}
	return &Matcher{opts: opts}
}

func (m *Matcher) Options() Options { return m.opts }

type Result struct {
	Count     int
	Matched   bool
	Transform Transform
	// Swapped is set when the candidate was the shorter template and served
	// as the probe.
	Swapped bool
}

// Compare aligns the shorter template onto the longer one and counts
// correspondences.
func (m *Matcher) Compare(probe, candidate minutiae.Template) Result {
	var res Result
	if len(probe) > len(candidate) {
		probe, candidate = candidate, probe
		res.Swapped = true
	}
	tr, ok := EstimateTransform(probe, candidate)
	if !ok {
		return res
	}
	res.Transform = tr
	aligned := tr.Apply(probe)
	if m.opts.Exclusive {
		res.Count = CountExclusive(aligned, candidate, m.opts.DistanceTolerance)
	} else {
		res.Count = CountMatches(aligned, candidate, m.opts.DistanceTolerance)
	}
	res.Matched = Decide(res.Count, m.opts.Threshold)
	return res
}

// Match decodes both blobs and compares them.
func (m *Matcher) Match(probeBlob, candidateBlob []byte) (Result, error) {
	probe, err := templates.Decode(probeBlob)
	if err != nil {
		return Result{}, fmt.Errorf("decode probe: %w", err)
	}
	candidate, err := templates.Decode(candidateBlob)
	if err != nil {
		return Result{}, fmt.Errorf("decode candidate: %w", err)
	}
	return m.Compare(probe, candidate), nil
}

type Candidate struct {
	Key      string
	Template []byte
}

// Skipped is a candidate whose blob could not be decoded.
type Skipped struct {
	Key string
	Err error
}

type Identification struct {
	Key     string
	Found   bool
	Count   int
	Skipped []Skipped
}

type outcome struct {
	res Result
	err error
}

// Identify compares probe against every candidate on a bounded worker pool
// and then scans the outcomes in candidate order, so the answer does not
// depend on completion order. Undecodable candidates are skipped and
// reported; an undecodable probe fails the whole call.
func (m *Matcher) Identify(ctx context.Context, probeBlob []byte, candidates []Candidate) (Identification, error) {
	probe, err := templates.Decode(probeBlob)
	if err != nil {
		return Identification{}, fmt.Errorf("decode probe: %w", err)
	}

	outcomes := make([]outcome, len(candidates))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := templates.Decode(candidates[i].Template)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			outcomes[i].res = m.Compare(probe, t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Identification{}, err
	}

	var id Identification
	for i, o := range outcomes {
		if o.err != nil {
			id.Skipped = append(id.Skipped, Skipped{Key: candidates[i].Key, Err: o.err})
			continue
		}
		if !o.res.Matched {
			continue
		}
		if m.opts.Strategy == First {
			if !id.Found {
				id.Key, id.Count, id.Found = candidates[i].Key, o.res.Count, true
			}
			continue
		}
		if !id.Found || o.res.Count > id.Count {
			id.Key, id.Count, id.Found = candidates[i].Key, o.res.Count, true
		}
	}
	return id, nil
}
