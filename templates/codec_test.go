package templates

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/high-horse/fingerprint-server/minutiae"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := map[string]minutiae.Template{
		"empty":  {},
		"single": {{X: 10, Y: 10, Kind: minutiae.Ending}},
		"mixed": {
			{X: 1, Y: 1, Kind: minutiae.Ending},
			{X: 3, Y: 1, Kind: minutiae.Ending},
			{X: 2, Y: 2, Kind: minutiae.Bifurcation},
			{X: 2, Y: 3, Kind: minutiae.Ending},
		},
		"large coordinates": {{X: 1 << 20, Y: 1<<31 + 5, Kind: minutiae.Bifurcation}},
		"random":            randomTemplate(500, 3),
	}

	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			blob, err := Encode(tmpl)
			require.NoError(t, err)
			assert.Len(t, blob, headerSize+rowSize*len(tmpl))

			got, err := Decode(blob)
			require.NoError(t, err)
			if diff := cmp.Diff(tmpl, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_Invalid(t *testing.T) {
	tests := map[string]minutiae.Template{
		"negative x":   {{X: -1, Y: 1, Kind: minutiae.Ending}},
		"negative y":   {{X: 1, Y: -3, Kind: minutiae.Ending}},
		"unknown kind": {{X: 1, Y: 1}},
	}

	for name, tmpl := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Encode(tmpl)
			assert.ErrorIs(t, err, ErrCodec)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid, err := Encode(minutiae.Template{
		{X: 4, Y: 5, Kind: minutiae.Ending},
		{X: 6, Y: 7, Kind: minutiae.Bifurcation},
	})
	require.NoError(t, err)

	mutate := func(f func(b []byte) []byte) []byte {
		b := append([]byte(nil), valid...)
		return f(b)
	}

	tests := map[string][]byte{
		"nil":         nil,
		"short":       valid[:5],
		"bad magic":   mutate(func(b []byte) []byte { b[0] = 0x80; return b }),
		"new version": mutate(func(b []byte) []byte { b[2] = Version + 1; return b }),
		"truncated":   valid[:len(valid)-1],
		"trailing":    append(append([]byte(nil), valid...), 0),
		"huge count":  mutate(func(b []byte) []byte { b[3], b[4] = 0xff, 0xff; return b }),
		"bad kind":    mutate(func(b []byte) []byte { b[headerSize+8] = 9; return b }),
		"pickle":      []byte("\x80\x04\x95\x1a\x00\x00\x00"),
	}

	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := Decode(blob)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCodec)

			var cerr *CodecError
			assert.True(t, errors.As(err, &cerr))
		})
	}
}

func randomTemplate(n int, seed int64) minutiae.Template {
	r := rand.New(rand.NewSource(seed))
	t := make(minutiae.Template, n)
	for i := range t {
		t[i] = minutiae.Minutia{
			X:    r.Intn(1000) + 1,
			Y:    r.Intn(1000) + 1,
			Kind: minutiae.Kind(r.Intn(2) + 1),
		}
	}
	return t
}
