// Package printer drives a serial thermal receipt printer. The link has no
// flow control and no acknowledgement, so every command and character is
// held back until a software estimate says the print head and paper feed
// have caught up.
//
// A Printer is not safe for concurrent use; a single goroutine owns it (see
// the host package).
package printer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tomgalvin.uk/thermalprint/internal/bitmap"
)

var ErrInvalidWidth = errors.New("page width must be a positive multiple of 8")

const (
	DefaultBaudRate = 9600
	// 58mm head, 8 dots per mm
	DefaultWidth = 8 * 58

	defaultDotPrintTime = 30 * time.Millisecond
	defaultDotFeedTime  = 2100 * time.Microsecond

	defaultLineSpacing   = 6
	defaultBarcodeHeight = 50

	// The printer needs a moment to cold boot before it can take data.
	bootTime        = 500 * time.Millisecond
	wakeSettleTime  = 50 * time.Millisecond
	legacyWakeDelay = 10 * time.Millisecond
	legacyWakeNops  = 10
)

type Config struct {
	BaudRate int
	Firmware uint16
	// Page size in dots. Width must be a multiple of 8; a zero height
	// leaves the pixel buffer unallocated.
	Width  int
	Height int
	// Estimated time to print or feed a single dot line
	DotPrintTime time.Duration
	DotFeedTime  time.Duration

	HeatDots     byte
	HeatTime     byte
	HeatInterval byte

	ChunkSize int
}

func DefaultConfig() Config {
	return Config{
		BaudRate:     DefaultBaudRate,
		Firmware:     DefaultFirmware,
		Width:        DefaultWidth,
		DotPrintTime: defaultDotPrintTime,
		DotFeedTime:  defaultDotFeedTime,
		HeatDots:     11,
		HeatTime:     120,
		HeatInterval: 40,
		ChunkSize:    DefaultChunkSize,
	}
}

type Option func(*Printer)

func WithClock(c Clock) Option {
	return func(p *Printer) {
		p.timing.clock = c
		p.timing.resumeAt = c.Now()
	}
}

// WithReadySignal hands pacing over to a hardware handshake line once Begin
// has enabled it on the printer.
func WithReadySignal(s ReadySignal) Option {
	return func(p *Printer) {
		p.timing.signal = s
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Printer) {
		p.log = l
	}
}

type Printer struct {
	w        io.Writer
	log      *slog.Logger
	cfg      Config
	firmware firmware
	timing   timing

	mode    Mode
	metrics Metrics

	prevByte      byte
	column        int
	lineSpacing   int
	barcodeHeight int
	codePage      int

	buffer     *bitmap.Buffer
	pixelCount int
	queue      *Queue
	writer     func(Canvas)

	written int64
	err     error
}

// New creates a driver writing to w. Nothing is sent until Begin.
func New(w io.Writer, cfg Config, opts ...Option) (*Printer, error) {
	if cfg.Width <= 0 || cfg.Width%8 != 0 || cfg.Width/8 > 0xFFFF {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, cfg.Width)
	}
	if cfg.Height < 0 {
		return nil, fmt.Errorf("page height can't be negative: %d", cfg.Height)
	}
	if cfg.BaudRate <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.BaudRate)
	}

	p := &Printer{
		w:             w,
		log:           slog.Default(),
		cfg:           cfg,
		firmware:      firmwareFor(cfg.Firmware),
		timing:        newTiming(systemClock{}, cfg.BaudRate, cfg.DotPrintTime, cfg.DotFeedTime),
		metrics:       defaultMetrics,
		prevByte:      LF,
		lineSpacing:   defaultLineSpacing,
		barcodeHeight: defaultBarcodeHeight,
		queue:         NewQueue(cfg.ChunkSize),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.SetHeight(cfg.Height); err != nil {
		return nil, err
	}

	return p, nil
}

// Err returns the first transport error seen since the last TakeErr.
// Printing carries on regardless since the link gives no feedback anyway.
func (p *Printer) Err() error {
	return p.err
}

// TakeErr returns the pending transport error and clears it, so a link that
// recovers stops failing later work.
func (p *Printer) TakeErr() error {
	err := p.err
	p.err = nil
	return err
}

func (p *Printer) transmit(data []byte) {
	n, err := p.w.Write(data)
	p.written += int64(n)
	if err != nil {
		p.log.Warn("Couldn't write to printer", "err", err, "size", len(data))
		if p.err == nil {
			p.err = err
		}
	}
}

// writeCommand sends a command once the printer is estimated to be idle and
// accounts for its transmission time.
func (p *Printer) writeCommand(cmd []byte) {
	p.timing.gate()
	p.transmit(cmd)
	p.timing.schedule(p.timing.bytes(len(cmd)))
}

// Begin prepares a freshly powered printer: waits out the boot time, wakes
// it, resets it and applies the heat configuration.
func (p *Printer) Begin() {
	p.timing.schedule(bootTime)
	p.timing.gate()

	p.Wake()
	p.Reset()
	p.SetHeatConfig(p.cfg.HeatDots, p.cfg.HeatTime, p.cfg.HeatInterval)

	if p.timing.signal != nil {
		p.writeCommand(enableDTR())
		p.timing.handshake = true
		p.log.Info("Using hardware handshake")
	}

	p.log.Info("Printer initialised",
		"firmware", p.cfg.Firmware,
		"capabilities", p.firmware.String(),
		"byteTime", p.timing.byteTime,
	)
}

// Wake brings the printer out of its low power state.
func (p *Printer) Wake() {
	p.timing.reset()
	p.writeCommand([]byte{wakeByte})

	if p.firmware.sleepOffWake() {
		p.timing.clock.Sleep(wakeSettleTime)
		p.writeCommand(sleepOff())
		return
	}

	// A 50ms pause alone isn't always enough on old firmware; style commands
	// can still get misread. NULs with a pause after each one helps.
	for range legacyWakeNops {
		p.writeCommand([]byte{nopByte})
		p.timing.schedule(legacyWakeDelay)
	}
}

// Reset sends ESC @ and restores the driver's idea of the printer state.
func (p *Printer) Reset() {
	p.writeCommand(initPrinter())
	p.mode = 0
	p.metrics = defaultMetrics
	p.newLine()
	p.lineSpacing = defaultLineSpacing
	p.barcodeHeight = defaultBarcodeHeight
	p.codePage = 0

	if p.firmware.tabStops() {
		p.writeCommand(tabStops())
	}
}

// SetDefault puts every setting back to its power-on value.
func (p *Printer) SetDefault() {
	p.Online()
	p.Justify(Left)
	p.InverseOff()
	p.DoubleHeightOff()
	p.SetLineHeight(30)
	p.BoldOff()
	p.UnderlineOff()
	p.SetBarcodeHeight(defaultBarcodeHeight)
	p.SetSize('S')
	p.SetCharset(0)
	p.SetCodePage(0)
}

func (p *Printer) SetHeatConfig(dots byte, time byte, interval byte) {
	p.writeCommand(heatConfig(dots, time, interval))
}

// SetTimes overrides the per dot line print and feed estimates.
func (p *Printer) SetTimes(print time.Duration, feed time.Duration) {
	p.timing.dotPrintTime = print
	p.timing.dotFeedTime = feed
}

func (p *Printer) Online() {
	p.writeCommand(online(true))
}

func (p *Printer) Offline() {
	p.writeCommand(online(false))
}

func (p *Printer) Justify(j Justify) {
	p.writeCommand(setJustify(j))
}

// SetLineHeight sets the distance between baselines in dots, minimum 24.
func (p *Printer) SetLineHeight(dots int) {
	v := clampLineHeight(dots)
	p.lineSpacing = int(v) - minLineHeight
	p.writeCommand(lineHeight(dots))
}

func (p *Printer) SetBarcodeHeight(dots int) {
	p.barcodeHeight = int(clampBarcodeHeight(dots))
	p.writeCommand(barcodeHeight(dots))
}

func (p *Printer) SetCharset(n int) {
	p.writeCommand(charset(n))
}

// SetCodePage selects the printer's character table. PrintString encodes
// text for the selected table.
func (p *Printer) SetCodePage(n int) {
	p.codePage = int(clampCodePage(n))
	p.writeCommand(codePage(n))
}

func (p *Printer) UnderlineOn(weight int) {
	p.writeCommand(underline(weight))
}

func (p *Printer) UnderlineOff() {
	p.writeCommand(underline(0))
}

func (p *Printer) Sleep() {
	p.SleepAfter(1)
}

func (p *Printer) SleepAfter(seconds uint16) {
	p.writeCommand(sleepAfter(seconds, p.firmware.wideSleep()))
}

// Flush prints whatever is left in the printer's line buffer.
func (p *Printer) Flush() {
	p.writeCommand([]byte{FF})
}

// TestPage prints the built in self test, which takes a good while.
func (p *Printer) TestPage() {
	p.writeCommand(testPage())
	p.timing.schedule(p.timing.printDots(24*26) + p.timing.feedDots(6*26+30))
}

// Status is a snapshot of the driver state.
type Status struct {
	Firmware      uint16
	Capabilities  string
	Mode          string
	Metrics       Metrics
	Column        int
	LineSpacing   int
	BarcodeHeight int
	CodePage      int
	BusyFor       time.Duration
	QueuedChunks  int
	QueuedBytes   int
	BytesWritten  int64
	Err           string
}

func (p *Printer) Status() Status {
	s := Status{
		Firmware:      p.cfg.Firmware,
		Capabilities:  p.firmware.String(),
		Mode:          p.mode.String(),
		Metrics:       p.metrics,
		Column:        p.column,
		LineSpacing:   p.lineSpacing,
		BarcodeHeight: p.barcodeHeight,
		CodePage:      p.codePage,
		BusyFor:       p.timing.remaining(),
		QueuedChunks:  p.queue.Len(),
		QueuedBytes:   p.queue.Pending(),
		BytesWritten:  p.written,
	}
	if p.err != nil {
		s.Err = p.err.Error()
	}
	return s
}
