package skeleton

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jtejido/go-wsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	s, err := Parse(
		"....",
		".#1.",
		"..X.",
	)
	require.NoError(t, err)

	assert.Equal(t, 4, s.Width)
	assert.Equal(t, 3, s.Height)
	assert.True(t, s.At(1, 1))
	assert.True(t, s.At(2, 1))
	assert.True(t, s.At(2, 2))
	assert.False(t, s.At(0, 0))
	assert.False(t, s.At(-1, 1))
	assert.False(t, s.At(4, 1))
	assert.Equal(t, 3, s.Count())
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string][]string{
		"no rows":      nil,
		"empty row":    {""},
		"ragged width": {"...", ".."},
	}

	for name, rows := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(rows...)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestDecode_PNGRoundTrip(t *testing.T) {
	tests := map[string]Polarity{
		"white ridges": WhiteRidges,
		"black ridges": BlackRidges,
	}

	for name, fg := range tests {
		t.Run(name, func(t *testing.T) {
			want, err := Parse(
				".....",
				".#.#.",
				"..#..",
				"..#..",
				".....",
			)
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, png.Encode(&buf, want.Image(fg)))

			got, err := Decode(buf.Bytes(), Options{Threshold: 128, Foreground: fg})
			require.NoError(t, err)
			assert.Equal(t, want.String(), got.String())
		})
	}
}

func TestDecode_WSQRoundTrip(t *testing.T) {
	want, err := New(64, 64)
	require.NoError(t, err)
	for y := 0; y < want.Height; y++ {
		for x := 0; x < want.Width; x++ {
			want.Set(x, y, (x/8)%2 == 1)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, wsq.Encode(&buf, want.Image(WhiteRidges), &wsq.Options{Bitrate: 2.25}))
	require.True(t, isWSQ(buf.Bytes()))

	got, err := Decode(buf.Bytes(), DefaultOptions)
	require.NoError(t, err)
	require.Equal(t, want.Width, got.Width)
	require.Equal(t, want.Height, got.Height)

	// WSQ is lossy; the bands must survive even if their edges blur.
	same := 0
	for y := 0; y < want.Height; y++ {
		for x := 0; x < want.Width; x++ {
			if want.At(x, y) == got.At(x, y) {
				same++
			}
		}
	}
	assert.GreaterOrEqual(t, same, want.Width*want.Height*9/10)
}

func TestDecode_PlainPGM(t *testing.T) {
	data := []byte("P2\n3 3\n255\n0 0 0\n0 255 0\n0 0 0\n")

	s, err := Decode(data, DefaultOptions)
	require.NoError(t, err)

	assert.Equal(t, "...\n.#.\n...\n", s.String())
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
		"bad pgm": []byte("P2\nfoo"),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data, DefaultOptions)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestParsePolarity(t *testing.T) {
	p, err := ParsePolarity("black")
	require.NoError(t, err)
	assert.Equal(t, BlackRidges, p)

	p, err = ParsePolarity("")
	require.NoError(t, err)
	assert.Equal(t, WhiteRidges, p)

	_, err = ParsePolarity("grey")
	assert.Error(t, err)
}
