package registry

import (
	"context"
	"testing"
	"time"

	"github.com/high-horse/fingerprint-server/internal/fixture"
	"github.com/high-horse/fingerprint-server/matching"
	"github.com/high-horse/fingerprint-server/minutiae"
	"github.com/high-horse/fingerprint-server/skeleton"
	"github.com/high-horse/fingerprint-server/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, storage.Store) {
	t.Helper()
	store := storage.NewMemory()
	r := New(store, matching.NewMatcher(matching.DefaultOptions), Options{
		Skeleton: skeleton.DefaultOptions,
		Workers:  2,
	}, zerolog.Nop())
	r.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r, store
}

func TestRegistry_Enroll(t *testing.T) {
	r, store := newRegistry(t)
	ctx := context.Background()

	e, err := r.Enroll(ctx, "A-1", "Alice", fixture.PNG(fixture.PersonA()))
	require.NoError(t, err)
	assert.Equal(t, Enrollment{Code: "A-1", Name: "Alice", Minutiae: 8, Endings: 8}, e)

	rec, err := store.Load(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", rec.Name)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), rec.Enrolled)

	_, tmpl, err := r.Load(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, minutiae.Extract(fixture.PersonA()), tmpl)
}

func TestRegistry_EnrollErrors(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	_, err := r.Enroll(ctx, "", "Nobody", fixture.PNG(fixture.PersonA()))
	assert.ErrorIs(t, err, ErrEmptyCode)

	_, err = r.Enroll(ctx, "X", "Broken", []byte("not an image"))
	assert.ErrorIs(t, err, skeleton.ErrInvalidImage)

	all, err := r.store.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "failed enrollments have no side effects")
}

func TestRegistry_Verify(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	_, err := r.EnrollSkeleton(ctx, "A-1", "Alice", fixture.PersonA())
	require.NoError(t, err)
	_, err = r.EnrollSkeleton(ctx, "B-2", "Bob", fixture.PersonB())
	require.NoError(t, err)

	tests := map[string]struct {
		image    []byte
		expected Verification
	}{
		"alice": {
			image:    fixture.PNG(fixture.PersonA()),
			expected: Verification{Found: true, Code: "A-1", Name: "Alice", Count: 8, Candidates: 2},
		},
		"bob": {
			image:    fixture.PNG(fixture.PersonB()),
			expected: Verification{Found: true, Code: "B-2", Name: "Bob", Count: 6, Candidates: 2},
		},
		"stranger": {
			image:    fixture.PNG(fixture.Stranger()),
			expected: Verification{Candidates: 2},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v, err := r.Verify(ctx, test.image)
			require.NoError(t, err)
			assert.Equal(t, test.expected, v)
		})
	}
}

func TestRegistry_VerifyEmptyStore(t *testing.T) {
	r, _ := newRegistry(t)

	v, err := r.VerifySkeleton(context.Background(), fixture.PersonA())
	require.NoError(t, err)
	assert.Equal(t, Verification{}, v)
}

func TestRegistry_VerifySkipsCorruptRecords(t *testing.T) {
	r, store := newRegistry(t)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, storage.Record{Code: "legacy", Name: "Pickled", Template: []byte("\x80\x04\x95")}))
	_, err := r.EnrollSkeleton(ctx, "A-1", "Alice", fixture.PersonA())
	require.NoError(t, err)

	v, err := r.VerifySkeleton(ctx, fixture.PersonA())
	require.NoError(t, err)
	assert.True(t, v.Found)
	assert.Equal(t, "A-1", v.Code)
	assert.Equal(t, []string{"legacy"}, v.Skipped)

	_, _, err = r.Load(ctx, "legacy")
	assert.Error(t, err)
}

func TestRegistry_VerifyInvalidImage(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Verify(context.Background(), nil)
	assert.ErrorIs(t, err, skeleton.ErrInvalidImage)
}

func TestRegistry_Compare(t *testing.T) {
	r, _ := newRegistry(t)

	res, err := r.Compare(fixture.PNG(fixture.PersonA()), fixture.PNG(fixture.PersonA()))
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, 8, res.Count)

	res, err = r.Compare(fixture.PNG(fixture.PersonA()), fixture.PNG(fixture.PersonB()))
	require.NoError(t, err)
	assert.False(t, res.Matched)

	_, err = r.Compare([]byte("x"), fixture.PNG(fixture.PersonA()))
	assert.ErrorIs(t, err, skeleton.ErrInvalidImage)
}

func TestRegistry_Delete(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	_, err := r.EnrollSkeleton(ctx, "A-1", "Alice", fixture.PersonA())
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "A-1"))
	assert.ErrorIs(t, r.Delete(ctx, "A-1"), storage.ErrNotFound)

	_, _, err = r.Load(ctx, "A-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRegistry_EnrollEmptyTemplate(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	blank := fixture.Draw(20, 20)
	e, err := r.EnrollSkeleton(ctx, "E", "Empty", blank)
	require.NoError(t, err)
	assert.Zero(t, e.Minutiae)

	v, err := r.VerifySkeleton(ctx, blank)
	require.NoError(t, err)
	assert.False(t, v.Found)
}
