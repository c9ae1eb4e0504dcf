package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const DefaultFont = "gomono"

type Measure struct {
	X, Y          int
	Width, Height int
	OutOfBounds   bool
}

func getFontData(name string) ([]byte, error) {
	switch name {
	case "", "gomono":
		return gomono.TTF, nil
	case "goregular":
		return goregular.TTF, nil
	default:
		return nil, fmt.Errorf(`Unrecognised font "%s"`, name)
	}
}

// LoadFace loads one of the built in fonts at the given size in pixels.
func LoadFace(name string, size float64) (font.Face, error) {
	fontData, err := getFontData(name)
	if err != nil {
		return nil, err
	}
	parsedFont, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("Couldn't parse font %s:\n%w", name, err)
	}

	face, err := opentype.NewFace(parsedFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("Couldn't create font face:\n%w", err)
	}
	return face, nil
}

// WrapText breaks text into lines no wider than maxWidth, on spaces. A word
// wider than maxWidth gets a line to itself. Newlines in the text are kept.
func WrapText(text string, maxWidth int, face font.Face) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(paragraph, maxWidth, face)...)
	}
	return lines
}

func wrapParagraph(text string, maxWidth int, face font.Face) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line string
	for _, word := range words {
		testLine := line
		if len(line) > 0 {
			testLine += " "
		}
		testLine += word

		width := font.MeasureString(face, testLine).Ceil()
		if width > maxWidth && len(line) > 0 && maxWidth > 0 {
			lines = append(lines, line)
			line = word
		} else {
			line = testLine
		}
	}
	return append(lines, line)
}

// MeasureText works out the space wrapped text takes up at a point of dst
// without drawing it.
func MeasureText(bounds image.Rectangle, text string, face font.Face, at image.Point) (Measure, []string) {
	lines := WrapText(text, bounds.Max.X-at.X, face)
	m := Measure{X: at.X, Y: at.Y}
	lineHeight := face.Metrics().Height.Ceil()
	for _, line := range lines {
		m.Width = max(m.Width, font.MeasureString(face, line).Ceil())
		m.Height += lineHeight
	}
	m.OutOfBounds = at.Y+m.Height > bounds.Max.Y
	return m, lines
}

// Text draws wrapped text in black with its top left corner at the given
// point. Nothing is drawn if it wouldn't fit.
func Text(dst draw.Image, text string, face font.Face, at image.Point) Measure {
	m, lines := MeasureText(dst.Bounds(), text, face, at)
	if m.OutOfBounds {
		return m
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	d.Dot = fixed.Point26_6{X: fixed.I(m.X), Y: fixed.I(m.Y)}
	for _, line := range lines {
		d.Dot.X = fixed.I(m.X)
		d.Dot.Y += face.Metrics().Ascent
		d.DrawString(line)
		d.Dot.Y += face.Metrics().Height - face.Metrics().Ascent
	}
	return m
}
