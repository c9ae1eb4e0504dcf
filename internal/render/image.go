// Package render draws images and text onto a printer page.
package render

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"golang.org/x/image/draw"
)

// Thermal paper prints darker than a screen shows, so midtones are lifted
// before thresholding.
const DefaultGamma = 0.5

// Decode reads a PNG, JPEG or GIF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("Couldn't decode image:\n%w", err)
	}
	return img, nil
}

// Image scales src to the width of dst, keeping its aspect ratio, and
// thresholds it to black and white starting at the top of dst. Anything
// below the bottom of dst is cut off. It returns the area drawn.
func Image(dst draw.Image, src image.Image, gamma float64) image.Rectangle {
	sb, db := src.Bounds(), dst.Bounds()
	if sb.Empty() || db.Empty() {
		return image.Rectangle{}
	}
	if gamma <= 0 {
		gamma = DefaultGamma
	}

	width := min(sb.Dx(), db.Dx())
	height := sb.Dy() * width / sb.Dx()
	scaledBounds := image.Rect(0, 0, width, max(height, 1))
	scaled := image.NewRGBA(scaledBounds)
	draw.Draw(scaled, scaledBounds, image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(scaled, scaledBounds, src, sb, draw.Over, nil)

	drawn := scaledBounds.Add(db.Min).Intersect(db)
	for y := drawn.Min.Y; y < drawn.Max.Y; y++ {
		for x := drawn.Min.X; x < drawn.Max.X; x++ {
			gray := color.Gray16Model.Convert(scaled.At(x-db.Min.X, y-db.Min.Y)).(color.Gray16)
			v := math.Pow(float64(gray.Y)/0xFFFF, gamma)
			if v < 0.5 {
				dst.Set(x, y, color.Black)
			} else {
				dst.Set(x, y, color.White)
			}
		}
	}
	return drawn
}

// FitHeight is the height src will take up once scaled to width.
func FitHeight(src image.Image, width int) int {
	b := src.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	w := min(b.Dx(), width)
	return b.Dy() * w / b.Dx()
}
