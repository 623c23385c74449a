// Package templates serializes minutiae into the opaque blobs kept by
// storage.
//
// A blob is a versioned, fixed-width record list (big endian):
//
//	magic   [2]byte "MT"
//	version uint8
//	count   uint32
//	rows    count × {x uint32, y uint32, kind uint8}
package templates

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/high-horse/fingerprint-server/minutiae"
)

const (
	Version = 1

	headerSize = 7
	rowSize    = 9
)

var magic = [2]byte{'M', 'T'}

// ErrCodec matches every *CodecError with errors.Is.
var ErrCodec = errors.New("template codec error")

type CodecError struct {
	Offset int
	Reason string
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("malformed template at byte %d: %s", e.Offset, e.Reason)
}

func (e *CodecError) Is(target error) bool {
	return target == ErrCodec
}

func codecErr(offset int, format string, args ...interface{}) error {
	return &CodecError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// Encode writes t in template order.
func Encode(t minutiae.Template) ([]byte, error) {
	if uint64(len(t)) > math.MaxUint32 {
		return nil, codecErr(0, "too many minutiae (%d)", len(t))
	}
	buf := make([]byte, headerSize+rowSize*len(t))
	copy(buf, magic[:])
	buf[2] = Version
	binary.BigEndian.PutUint32(buf[3:], uint32(len(t)))

	off := headerSize
	for i, m := range t {
		if m.X < 0 || m.Y < 0 || uint64(m.X) > math.MaxUint32 || uint64(m.Y) > math.MaxUint32 {
			return nil, codecErr(off, "minutia %d out of range: %v", i, m)
		}
		if !m.Kind.Valid() {
			return nil, codecErr(off, "minutia %d has unknown kind %d", i, uint8(m.Kind))
		}
		binary.BigEndian.PutUint32(buf[off:], uint32(m.X))
		binary.BigEndian.PutUint32(buf[off+4:], uint32(m.Y))
		buf[off+8] = uint8(m.Kind)
		off += rowSize
	}
	return buf, nil
}

// Decode parses a blob produced by Encode. It never panics on malformed
// input; every failure is a *CodecError.
func Decode(blob []byte) (minutiae.Template, error) {
	if len(blob) < headerSize {
		return nil, codecErr(len(blob), "short header (%d bytes)", len(blob))
	}
	if blob[0] != magic[0] || blob[1] != magic[1] {
		return nil, codecErr(0, "bad magic %q", blob[:2])
	}
	if blob[2] != Version {
		return nil, codecErr(2, "unsupported version %d", blob[2])
	}
	count := uint64(binary.BigEndian.Uint32(blob[3:]))
	body := uint64(len(blob) - headerSize)
	if body != count*rowSize {
		return nil, codecErr(headerSize, "body has %d bytes, want %d for %d minutiae", body, count*rowSize, count)
	}

	t := make(minutiae.Template, 0, count)
	for off := headerSize; off < len(blob); off += rowSize {
		k := minutiae.Kind(blob[off+8])
		if !k.Valid() {
			return nil, codecErr(off+8, "unknown kind %d", uint8(k))
		}
		x := binary.BigEndian.Uint32(blob[off:])
		y := binary.BigEndian.Uint32(blob[off+4:])
		if uint64(x) > math.MaxInt || uint64(y) > math.MaxInt {
			return nil, codecErr(off, "coordinates overflow int")
		}
		t = append(t, minutiae.Minutia{X: int(x), Y: int(y), Kind: k})
	}
	return t, nil
}
