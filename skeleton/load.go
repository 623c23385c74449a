package skeleton

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/jtejido/go-wsq"
	"github.com/spakin/netpbm"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ErrInvalidImage is returned when the source cannot be turned into a
// skeleton. Callers abort the current enrollment or verification on it.
var ErrInvalidImage = errors.New("invalid image")

// Polarity tells which side of the threshold is ridge.
type Polarity int

const (
	WhiteRidges Polarity = iota
	BlackRidges
)

func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "", "white":
		return WhiteRidges, nil
	case "black":
		return BlackRidges, nil
	}
	return WhiteRidges, fmt.Errorf("unknown foreground %q (want white or black)", s)
}

type Options struct {
	// Threshold splits gray levels: values >= Threshold are white.
	Threshold  uint8
	Foreground Polarity
}

var DefaultOptions = Options{Threshold: 128, Foreground: WhiteRidges}

// Load reads an image file and binarizes it.
func Load(path string, opts Options) (*Skeleton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Decode(data, opts)
}

// Decode binarizes an encoded image. Netpbm data (P1..P6) and WSQ data go
// through their own decoders, anything else through the registered image
// formats (PNG, JPEG, GIF, BMP, TIFF).
func Decode(data []byte, opts Options) (*Skeleton, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidImage)
	}
	var (
		img image.Image
		err error
	)
	switch {
	case isNetpbm(data):
		img, err = netpbm.Decode(bytes.NewReader(data), &netpbm.DecodeOptions{Target: netpbm.PNM})
	case isWSQ(data):
		img, err = wsq.Decode(bytes.NewReader(data))
	default:
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return FromImage(img, opts)
}

func FromImage(img image.Image, opts Options) (*Skeleton, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	s, err := New(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			white := g.Y >= opts.Threshold
			s.Set(x-bounds.Min.X, y-bounds.Min.Y, white == (opts.Foreground == WhiteRidges))
		}
	}
	return s, nil
}

// Image renders the skeleton as a gray image using the given polarity.
func (s *Skeleton) Image(fg Polarity) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, s.Width, s.Height))
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			white := s.At(x, y) == (fg == WhiteRidges)
			if white {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// isWSQ checks for the WSQ start-of-image marker.
func isWSQ(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xff && data[1] == 0xa0
}

func isNetpbm(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] >= '1' && data[1] <= '6'
}
