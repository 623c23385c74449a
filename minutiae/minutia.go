// Package minutiae defines fingerprint landmarks and extracts them from a
// ridge skeleton.
package minutiae

import "fmt"

type Kind uint8

const (
	Ending Kind = iota + 1
	Bifurcation
)

func (k Kind) Valid() bool {
	return k == Ending || k == Bifurcation
}

func (k Kind) String() string {
	switch k {
	case Ending:
		return "ending"
	case Bifurcation:
		return "bifurcation"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid minutia kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ending":
		*k = Ending
	case "bifurcation":
		*k = Bifurcation
	default:
		return fmt.Errorf("invalid minutia kind %q", text)
	}
	return nil
}

// Minutia is a ridge ending or bifurcation at an interior pixel position.
type Minutia struct {
	X    int  `json:"x"`
	Y    int  `json:"y"`
	Kind Kind `json:"kind"`
}

func (m Minutia) String() string {
	return fmt.Sprintf("(%d,%d,%s)", m.X, m.Y, m.Kind)
}

// Template is a minutiae list in raster scan order. The first element anchors
// alignment, so the order must be kept as extracted.
type Template []Minutia

// Count returns the number of endings and bifurcations in t.
func (t Template) Count() (endings, bifurcations int) {
	for _, m := range t {
		switch m.Kind {
		case Ending:
			endings++
		case Bifurcation:
			bifurcations++
		}
	}
	return endings, bifurcations
}
