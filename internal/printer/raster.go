package printer

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"tomgalvin.uk/thermalprint/internal/bitmap"
)

const maxRasterHeight = 0xFFFF

var ErrPageTooTall = errors.New("page is taller than a raster image can be")

// Canvas is the page as a drawable image. Every write goes through
// SetPixel, so out of range pixels are reported rather than dropped silently.
type Canvas interface {
	image.Image
	Set(x int, y int, c color.Color)
}

type canvas struct {
	p *Printer
}

func (c canvas) ColorModel() color.Model {
	return c.p.buffer.ColorModel()
}

func (c canvas) Bounds() image.Rectangle {
	if c.p.buffer == nil {
		return image.Rectangle{}
	}
	return c.p.buffer.Bounds()
}

func (c canvas) At(x int, y int) color.Color {
	if c.p.buffer == nil {
		return color.White
	}
	return c.p.buffer.At(x, y)
}

func (c canvas) Set(x int, y int, col color.Color) {
	c.p.SetPixel(x, y, bitmap.Dark(col))
}

func (p *Printer) Canvas() Canvas {
	return canvas{p}
}

// Width is the page width in dots.
func (p *Printer) Width() int {
	return p.cfg.Width
}

// Buffer exposes the page bitmap, nil when the page height is zero.
func (p *Printer) Buffer() *bitmap.Buffer {
	return p.buffer
}

// SetHeight reallocates the page, clearing it. The raster header has room
// for at most 65535 rows.
func (p *Printer) SetHeight(height int) error {
	if height > maxRasterHeight {
		return fmt.Errorf("%w: %d rows", ErrPageTooTall, height)
	}
	if height == 0 {
		p.buffer = nil
		p.pixelCount = 0
		return nil
	}
	b, err := bitmap.NewBuffer(p.cfg.Width, height)
	if err != nil {
		return err
	}
	p.buffer = b
	p.pixelCount = 0
	return nil
}

// SetPixel turns a single dot on or off.
func (p *Printer) SetPixel(x int, y int, on bool) {
	if p.buffer == nil {
		p.log.Warn("Buffer is nil")
		return
	}
	if !p.buffer.SetBit(x, y, on) {
		p.log.Warn("Invalid pixel", "x", x, "y", y)
		return
	}
	p.pixelCount++
}

// Clear blanks the page.
func (p *Printer) Clear() {
	if p.buffer != nil {
		p.buffer.Clear()
	}
}

// SetWriter registers the drawing callback run by Update.
func (p *Printer) SetWriter(w func(Canvas)) {
	p.writer = w
}

// Update redraws the page with the registered writer and queues it for
// printing.
func (p *Printer) Update() {
	if p.writer != nil {
		p.writer(p.Canvas())
	}
	p.EmitRaster()
}

// EmitRaster queues the raster header and the whole page. Sending happens a
// chunk at a time from Loop.
func (p *Printer) EmitRaster() {
	if p.buffer == nil {
		return
	}

	header := rasterHeader(uint16(p.buffer.Stride()), uint16(p.buffer.Height()))
	p.queue.Enqueue(header)
	p.queue.Enqueue(p.buffer.Data())

	p.log.Debug("Queued raster image",
		"pixels", p.pixelCount,
		"bytes", len(header)+len(p.buffer.Data()),
		"chunks", p.queue.Len(),
	)
	p.pixelCount = 0
}

// Loop sends at most one queued chunk. It's meant to be called once per
// scheduler tick and never blocks on the timing gate.
func (p *Printer) Loop() bool {
	chunk, ok := p.queue.Pop()
	if !ok {
		return false
	}
	p.transmit(chunk)
	return true
}

// Pending is the number of queued bytes not yet sent.
func (p *Printer) Pending() int {
	return p.queue.Pending()
}
