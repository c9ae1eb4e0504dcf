// This file implements the packed pixel buffer the raster command reads from.

package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

const bitsPerWord = 8

var ErrInvalidDimensions = errors.New("invalid bitmap dimensions")

// a bitmap packed in memory, 8 pixels per byte, most significant bit first
type Buffer struct {
	data                  []byte
	width, height, stride int
}

// Allocates a cleared buffer. A set bit is a printed (black) dot.
func NewBuffer(width int, height int) (*Buffer, error) {
	if width <= 0 || height < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	stride := (width + bitsPerWord - 1) / bitsPerWord
	return &Buffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}, nil
}

func (b *Buffer) Width() int {
	return b.width
}

func (b *Buffer) Height() int {
	return b.height
}

// Number of bytes per row.
func (b *Buffer) Stride() int {
	return b.stride
}

func (b *Buffer) Data() []byte {
	return b.data
}

func (b *Buffer) InBounds(x int, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

func (b *Buffer) index(x int, y int) (int, byte) {
	return x/bitsPerWord + y*b.stride, byte(1) << (bitsPerWord - 1 - x%bitsPerWord)
}

// Gets a single bit from the bitmap at the (x, y) coordinate, returns either 0 or 1
func (b *Buffer) GetBit(x int, y int) byte {
	i, mask := b.index(x, y)
	if b.data[i]&mask != 0 {
		return 1
	}
	return 0
}

// Sets or clears the bit at (x, y). Returns false, leaving the buffer
// untouched, when the coordinate is outside the buffer.
func (b *Buffer) SetBit(x int, y int, on bool) bool {
	if !b.InBounds(x, y) {
		return false
	}
	i, mask := b.index(x, y)
	if on {
		b.data[i] |= mask
	} else {
		b.data[i] &^= mask
	}
	return true
}

func (b *Buffer) Clear() {
	clear(b.data)
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer(%d,%d)", b.width, b.height)
}

// The buffer is also an image.Image, so anything from the image packages
// can read it back.

var palette = color.Palette{color.White, color.Black}

func (b *Buffer) ColorModel() color.Model {
	return palette
}

func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

func (b *Buffer) At(x int, y int) color.Color {
	if !b.InBounds(x, y) {
		return color.White
	}
	return palette[b.GetBit(x, y)]
}

// Dark reports whether a colour should be printed as a dot: anything below
// half luminance, ignoring fully transparent pixels.
func Dark(c color.Color) bool {
	_, _, _, a := c.RGBA()
	if a == 0 {
		return false
	}
	return color.Gray16Model.Convert(c).(color.Gray16).Y < 0x8000
}

// Take data from any Bitmap implementation and pack it into a Buffer. Rows
// whose width isn't a multiple of 8 are padded with clear bits on the right.
func PackBitmap(src Bitmap) *Buffer {
	width, height := src.Width(), src.Height()
	stride := (width + bitsPerWord - 1) / bitsPerWord
	b := &Buffer{
		data:   make([]byte, stride*height),
		width:  width,
		height: height,
		stride: stride,
	}

	for y := range height {
		for x := range width {
			if src.GetBit(x, y)&1 == 1 {
				i, mask := b.index(x, y)
				b.data[i] |= mask
			}
		}
	}

	return b
}

// Set makes the buffer a draw.Image. Out of range points are ignored.
func (b *Buffer) Set(x int, y int, c color.Color) {
	b.SetBit(x, y, Dark(c))
}
