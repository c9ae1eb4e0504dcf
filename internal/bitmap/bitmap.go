// This package defines an interface for a simple bitmap structure that has a
// width, height, and can get bits from the bitmap by (x,y) coordinate.
// It also defines a simple implementation PixelBitmap that stores each pixel
// in a byte in a 2D array format, which is used to test the Buffer impl.
// Lastly it defines the Buffer structure, the 1 bit per pixel, MSB-first
// layout which the printer consumes over the wire in raster mode.
package bitmap

import (
	"fmt"
)

type Bitmap interface {
	Width() int
	Height() int
	GetBit(x int, y int) byte
}

type PixelBitmap struct {
	pixels        [][]byte
	width, height int
}

func NewPixelBitmap(pixels [][]byte) *PixelBitmap {
	width := 0
	if len(pixels) > 0 {
		width = len(pixels[0])
	}
	return &PixelBitmap{pixels: pixels, width: width, height: len(pixels)}
}

func (b *PixelBitmap) Width() int {
	return b.width
}

func (b *PixelBitmap) Height() int {
	return b.height
}

func (b *PixelBitmap) GetBit(x int, y int) byte {
	return b.pixels[y][x]
}

func (b *PixelBitmap) String() string {
	return fmt.Sprintf("PixelBitmap(%d,%d)", b.width, b.height)
}

// PixelBitmapFromData splits a flat row-major slice of pixels, one byte each
// and 1 for black, into a bitmap.
func PixelBitmapFromData(width int, height int, data []byte) (*PixelBitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("Bitmap pixels not consistent with provided width and height (got %v, expecting %v*%v=%v)",
			len(data),
			width,
			height,
			width*height,
		)
	}

	pixels := make([][]byte, height)
	for y := range height {
		pixels[y] = data[y*width : (y+1)*width]
	}

	return &PixelBitmap{
		pixels: pixels,
		width:  width,
		height: height,
	}, nil
}
