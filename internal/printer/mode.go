package printer

import (
	"strings"
)

// Mode is the print mode mask sent with ESC !
type Mode uint8

const (
	FontB Mode = 1 << iota
	Inverse
	UpsideDown
	Bold
	DoubleHeight
	DoubleWidth
	Strike
)

var modeNames = []string{"fontB", "inverse", "upsideDown", "bold", "doubleHeight", "doubleWidth", "strike"}

func (m Mode) String() string {
	var names []string
	for i, name := range modeNames {
		if m&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "normal"
	}
	return strings.Join(names, "|")
}

// Metrics are the character dimensions implied by a print mode.
type Metrics struct {
	CharHeight int
	CharWidth  int
	MaxColumn  int
}

// Printer defaults after ESC @, for a 384 dot head in font A.
var defaultMetrics = Metrics{CharHeight: 24, CharWidth: 12, MaxColumn: 32}

// deriveMetrics is the only place metrics are computed; the driver calls it
// after every change to the mask.
func deriveMetrics(m Mode, widthDots int, fonts fontTable) Metrics {
	g := fonts.a
	if m&FontB != 0 {
		g = fonts.b
	}
	height, width := g.height, g.width
	if m&DoubleWidth != 0 {
		width *= 2
	}
	if m&DoubleHeight != 0 {
		height *= 2
	}
	return Metrics{
		CharHeight: height,
		CharWidth:  width,
		MaxColumn:  widthDots / width,
	}
}
