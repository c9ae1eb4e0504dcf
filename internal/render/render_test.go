package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"

	"tomgalvin.uk/thermalprint/internal/bitmap"
)

func newPage(t *testing.T, width int, height int) *bitmap.Buffer {
	t.Helper()
	b, err := bitmap.NewBuffer(width, height)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	return b
}

func uniform(width int, height int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	return img
}

func countBits(b *bitmap.Buffer) int {
	n := 0
	for y := range b.Height() {
		for x := range b.Width() {
			if b.GetBit(x, y) == 1 {
				n++
			}
		}
	}
	return n
}

func TestImageSmallerThanPage(t *testing.T) {
	page := newPage(t, 24, 24)

	drawn := Image(page, uniform(10, 10, color.Black), DefaultGamma)

	if drawn != image.Rect(0, 0, 10, 10) {
		t.Errorf("Expected a 10x10 area, got %v", drawn)
	}
	if n := countBits(page); n != 100 {
		t.Errorf("Expected 100 dots, got %d", n)
	}
	if page.GetBit(10, 0) != 0 || page.GetBit(0, 10) != 0 {
		t.Errorf("Expected nothing outside the image")
	}
}

func TestImageScaledAndClipped(t *testing.T) {
	page := newPage(t, 40, 10)

	drawn := Image(page, uniform(100, 50, color.Black), DefaultGamma)

	if drawn != image.Rect(0, 0, 40, 10) {
		t.Errorf("Expected the image clipped to the page, got %v", drawn)
	}
	if n := countBits(page); n != 400 {
		t.Errorf("Expected a full page, got %d dots", n)
	}
	if h := FitHeight(uniform(100, 50, color.Black), 40); h != 20 {
		t.Errorf("Expected a fitted height of 20, got %d", h)
	}
}

func TestImageGamma(t *testing.T) {
	gray := uniform(8, 8, color.Gray{Y: 0x60})

	lifted := newPage(t, 8, 8)
	Image(lifted, gray, DefaultGamma)
	if n := countBits(lifted); n != 0 {
		t.Errorf("Expected dark gray to be lifted to white, got %d dots", n)
	}

	linear := newPage(t, 8, 8)
	Image(linear, gray, 1)
	if n := countBits(linear); n != 64 {
		t.Errorf("Expected dark gray to print black without correction, got %d dots", n)
	}
}

func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, uniform(3, 2, color.Black)); err != nil {
		t.Fatal(err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}

	if _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Errorf("Expected garbage to be rejected")
	}
}

func TestLoadFace(t *testing.T) {
	for _, name := range []string{"", "gomono", "goregular"} {
		if _, err := LoadFace(name, 16); err != nil {
			t.Errorf("LoadFace(%q) failed: %v", name, err)
		}
	}
	if _, err := LoadFace("comic-sans", 16); err == nil {
		t.Errorf("Expected an unknown font to be rejected")
	}
}

func TestWrapText(t *testing.T) {
	face, err := LoadFace("gomono", 20)
	if err != nil {
		t.Fatal(err)
	}

	// gomono glyphs are 12 pixels wide at this size
	cases := []struct {
		text     string
		width    int
		expected []string
	}{
		{"aaa bbb ccc", 60, []string{"aaa", "bbb", "ccc"}},
		{"aa bb cc", 60, []string{"aa bb", "cc"}},
		{"toolongforaline x", 60, []string{"toolongforaline", "x"}},
		{"a\n\nb", 60, []string{"a", "", "b"}},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			if got := WrapText(c.text, c.width, face); !slices.Equal(got, c.expected) {
				t.Errorf("Expected %q, got %q", c.expected, got)
			}
		})
	}
}

func TestTextDrawsIntoPage(t *testing.T) {
	face, err := LoadFace("gomono", 24)
	if err != nil {
		t.Fatal(err)
	}
	page := newPage(t, 384, 100)

	m := Text(page, "Hello", face, image.Point{})

	if m.OutOfBounds {
		t.Fatalf("Expected the text to fit")
	}
	if m.Height != face.Metrics().Height.Ceil() {
		t.Errorf("Expected one line, got height %d", m.Height)
	}
	if countBits(page) == 0 {
		t.Errorf("Expected some dots to be drawn")
	}
}

func TestTextOutOfBounds(t *testing.T) {
	face, err := LoadFace("gomono", 24)
	if err != nil {
		t.Fatal(err)
	}
	page := newPage(t, 384, 20)

	m := Text(page, "Hello", face, image.Point{})

	if !m.OutOfBounds {
		t.Errorf("Expected the text not to fit")
	}
	if countBits(page) != 0 {
		t.Errorf("Expected nothing to be drawn")
	}
}
