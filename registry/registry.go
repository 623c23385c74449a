// Package registry enrolls and identifies people by fingerprint. It ties
// skeleton loading, minutiae extraction, the template codec, storage and
// matching together.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/minutiae"
	"github.com/high-horse/fingerprint-server/skeleton"
	"github.com/high-horse/fingerprint-server/storage"
	"github.com/high-horse/fingerprint-server/templates"
)

var ErrEmptyCode = errors.New("code is required")

type Options struct {
	Skeleton skeleton.Options
	// Workers bounds row-parallel extraction. Values below 2 extract
	// sequentially.
	Workers int
}

type Registry struct {
	store   storage.Store
	matcher *matching.Matcher
	opts    Options
	logger  zerolog.Logger
	now     func() time.Time
}

func New(store storage.Store, matcher *matching.Matcher, opts Options, logger zerolog.Logger) *Registry {
	return &Registry{
		store:   store,
		matcher: matcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

func (r *Registry) Matcher() *matching.Matcher { return r.matcher }

// Template extracts minutiae from s and encodes them.
func (r *Registry) Template(s *skeleton.Skeleton) (minutiae.Template, []byte, error) {
	t := minutiae.ExtractParallel(s, r.opts.Workers)
	blob, err := templates.Encode(t)
	if err != nil {
		return nil, nil, err
	}
	return t, blob, nil
}

// TemplateFromImage decodes an encoded skeleton image and builds its
// template.
func (r *Registry) TemplateFromImage(image []byte) (minutiae.Template, []byte, error) {
	s, err := skeleton.Decode(image, r.opts.Skeleton)
	if err != nil {
		return nil, nil, err
	}
	return r.Template(s)
}

type Enrollment struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Minutiae     int    `json:"minutiae"`
	Endings      int    `json:"endings"`
	Bifurcations int    `json:"bifurcations"`
}

func (r *Registry) Enroll(ctx context.Context, code, name string, image []byte) (Enrollment, error) {
	if code == "" {
		return Enrollment{}, ErrEmptyCode
	}
	s, err := skeleton.Decode(image, r.opts.Skeleton)
	if err != nil {
		return Enrollment{}, err
	}
	return r.EnrollSkeleton(ctx, code, name, s)
}

// EnrollSkeleton stores the template of s under code, replacing any earlier
// enrollment of the same code.
func (r *Registry) EnrollSkeleton(ctx context.Context, code, name string, s *skeleton.Skeleton) (Enrollment, error) {
	if code == "" {
		return Enrollment{}, ErrEmptyCode
	}
	t, blob, err := r.Template(s)
	if err != nil {
		return Enrollment{}, err
	}
	if len(t) == 0 {
		r.logger.Warn().Str("code", code).Msg("no minutiae found, enrolled template will never match")
	}
	rec := storage.Record{
		Code:     code,
		Name:     name,
		Template: blob,
		Enrolled: r.now().UTC(),
	}
	if err := r.store.Store(ctx, rec); err != nil {
		return Enrollment{}, fmt.Errorf("store template for %s: %w", code, err)
	}
	endings, bifurcations := t.Count()
	r.logger.Info().
		Str("code", code).
		Int("minutiae", len(t)).
		Msg("template stored")
	return Enrollment{
		Code:         code,
		Name:         name,
		Minutiae:     len(t),
		Endings:      endings,
		Bifurcations: bifurcations,
	}, nil
}

type Verification struct {
	Found      bool     `json:"found"`
	Code       string   `json:"code,omitempty"`
	Name       string   `json:"name,omitempty"`
	Count      int      `json:"count"`
	Candidates int      `json:"candidates"`
	Skipped    []string `json:"skipped,omitempty"`
}

func (r *Registry) Verify(ctx context.Context, image []byte) (Verification, error) {
	s, err := skeleton.Decode(image, r.opts.Skeleton)
	if err != nil {
		return Verification{}, err
	}
	return r.VerifySkeleton(ctx, s)
}

// VerifySkeleton identifies s against every stored record in storage order.
func (r *Registry) VerifySkeleton(ctx context.Context, s *skeleton.Skeleton) (Verification, error) {
	_, probe, err := r.Template(s)
	if err != nil {
		return Verification{}, err
	}
	records, err := r.store.LoadAll(ctx)
	if err != nil {
		return Verification{}, fmt.Errorf("load templates: %w", err)
	}
	v := Verification{Candidates: len(records)}
	if len(records) == 0 {
		r.logger.Info().Msg("no templates enrolled")
		return v, nil
	}

	candidates := make([]matching.Candidate, len(records))
	names := make(map[string]string, len(records))
	for i, rec := range records {
		candidates[i] = matching.Candidate{Key: rec.Code, Template: rec.Template}
		names[rec.Code] = rec.Name
	}
	id, err := r.matcher.Identify(ctx, probe, candidates)
	if err != nil {
		return Verification{}, fmt.Errorf("identify: %w", err)
	}
	for _, sk := range id.Skipped {
		r.logger.Warn().Err(sk.Err).Str("code", sk.Key).Msg("skipping unreadable template")
		v.Skipped = append(v.Skipped, sk.Key)
	}
	if !id.Found {
		r.logger.Info().Int("candidates", len(records)).Msg("no match found")
		return v, nil
	}
	v.Found, v.Code, v.Name, v.Count = true, id.Key, names[id.Key], id.Count
	r.logger.Info().Str("code", id.Key).Int("count", id.Count).Msg("fingerprint matched")
	return v, nil
}

// Compare matches two skeleton images directly, without storage.
func (r *Registry) Compare(probeImage, candidateImage []byte) (matching.Result, error) {
	_, probe, err := r.TemplateFromImage(probeImage)
	if err != nil {
		return matching.Result{}, fmt.Errorf("probe: %w", err)
	}
	_, candidate, err := r.TemplateFromImage(candidateImage)
	if err != nil {
		return matching.Result{}, fmt.Errorf("candidate: %w", err)
	}
	return r.matcher.Match(probe, candidate)
}

func (r *Registry) Load(ctx context.Context, code string) (storage.Record, minutiae.Template, error) {
	rec, err := r.store.Load(ctx, code)
	if err != nil {
		return storage.Record{}, nil, err
	}
	t, err := templates.Decode(rec.Template)
	if err != nil {
		return rec, nil, fmt.Errorf("template for %s: %w", code, err)
	}
	r.logger.Debug().Str("code", code).Int("minutiae", len(t)).Msg("template loaded")
	return rec, t, nil
}

func (r *Registry) Delete(ctx context.Context, code string) error {
	if err := r.store.Delete(ctx, code); err != nil {
		return err
	}
	r.logger.Info().Str("code", code).Msg("template deleted")
	return nil
}
