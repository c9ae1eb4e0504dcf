// This file implements the ESC/POS style command byte sequences understood by
// the serial thermal receipt printers this package drives. Every builder is a
// pure function; out of range arguments are clamped, never rejected.

package printer

// Control characters
const (
	HT  = 0x09
	LF  = 0x0A
	FF  = 0x0C
	CR  = 0x0D
	DC2 = 0x12
	Esc = 0x1B
	GS  = 0x1D
)

const (
	wakeByte = 0xFF
	nopByte  = 0x00
)

// Type alias for the horizontal alignment of printed text
type Justify byte

const (
	Left   Justify = 0x00
	Centre Justify = 0x01
	Right  Justify = 0x02
)

// ParseJustify maps the L/C/R shorthand to a Justify, defaulting to Left.
func ParseJustify(s string) Justify {
	if len(s) == 0 {
		return Left
	}
	switch s[0] {
	case 'C', 'c':
		return Centre
	case 'R', 'r':
		return Right
	default:
		return Left
	}
}

// Valid argument ranges
const (
	minLineHeight    = 24
	minBarcodeHeight = 1
	maxCharset       = 15
	maxCodePage      = 47
	maxUnderline     = 2
)

func clamp(v int, lo int, hi int) byte {
	return byte(min(max(v, lo), hi))
}

func clampLineHeight(v int) byte {
	return clamp(v, minLineHeight, 0xFF)
}

func clampBarcodeHeight(v int) byte {
	return clamp(v, minBarcodeHeight, 0xFF)
}

func clampCharset(v int) byte {
	return clamp(v, 0, maxCharset)
}

func clampCodePage(v int) byte {
	return clamp(v, 0, maxCodePage)
}

func clampUnderline(v int) byte {
	return clamp(v, 0, maxUnderline)
}

// Initialises the printer & prepares it to accept commands
func initPrinter() []byte {
	return []byte{Esc, '@'}
}

// Cancels any pending sleep timer after a wake byte.
func sleepOff() []byte {
	return []byte{Esc, '8', 0x00, 0x00}
}

// Puts the printer to sleep after the given number of seconds. Older firmware
// only takes a single byte argument.
func sleepAfter(seconds uint16, wide bool) []byte {
	if wide {
		return []byte{Esc, '8', byte(seconds), byte(seconds >> 8)}
	}
	return []byte{Esc, '8', byte(seconds)}
}

// Tab stops every 4 columns, 0 terminates the list.
func tabStops() []byte {
	return []byte{Esc, 'D', 4, 8, 12, 16, 20, 24, 28, 0}
}

// Sets "max heating dots", "heating time" and "heating interval".
// More heating dots draw more peak current but print faster, longer heating
// time prints darker but slower, a longer interval prints clearer but slower.
func heatConfig(dots byte, time byte, interval byte) []byte {
	return []byte{Esc, '7', dots, time, interval}
}

// Selects font, emphasis and size in one go from the print mode mask
func printMode(m Mode) []byte {
	return []byte{Esc, '!', byte(m)}
}

func online(on bool) []byte {
	return []byte{Esc, '=', boolByte(on)}
}

// Sets the alignment of the following lines
func setJustify(j Justify) []byte {
	return []byte{Esc, 'a', byte(j)}
}

func inverse(on bool) []byte {
	return []byte{GS, 'B', boolByte(on)}
}

func upsideDown(on bool) []byte {
	return []byte{Esc, '{', boolByte(on)}
}

// Underline weight 0 (off) to 2 dots
func underline(weight int) []byte {
	return []byte{Esc, '-', clampUnderline(weight)}
}

// Line height in dots including the character height. The printer doesn't
// account for the current text height, so this is really inter-line spacing
// plus 24.
func lineHeight(dots int) []byte {
	return []byte{Esc, '3', clampLineHeight(dots)}
}

func barcodeHeight(dots int) []byte {
	return []byte{GS, 'h', clampBarcodeHeight(dots)}
}

// Selects an international character set, 0-15
func charset(n int) []byte {
	return []byte{Esc, 'R', clampCharset(n)}
}

// Selects a character code table, 0-47
func codePage(n int) []byte {
	return []byte{Esc, 't', clampCodePage(n)}
}

// Makes the printer spool through a number of blank text lines.
func feedLines(n byte) []byte {
	return []byte{Esc, 'd', n}
}

// Feeds paper by a number of individual dot rows.
func feedRows(n byte) []byte {
	return []byte{Esc, 'J', n}
}

// Asks the printer to report busy state on its DTR line.
func enableDTR() []byte {
	return []byte{GS, 'a', 1 << 5}
}

// Prints the built in self test page.
func testPage() []byte {
	return []byte{DC2, 'T'}
}

// Prepares the printer to print bitmap data specified by the width and height passed in.
// widthBytes specifies the width of the bitmap data in bytes, with 8 pixels packed into 1 byte.
// height specifies the height of the bitmap data in rows.
// After this command is written, (widthBytes * height) bytes of data must then be written
func rasterHeader(widthBytes uint16, height uint16) []byte {
	return []byte{
		GS, 0x76, 0x30, 0x00,
		byte(widthBytes & 0xFF), byte(widthBytes >> 8),
		byte(height & 0xFF), byte(height >> 8),
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
