package printer

// Firmware revisions that changed the command set.
const (
	firmwareSleepCommand   = 264
	firmwareInverseCommand = 268

	DefaultFirmware = 268
)

// firmware is the capability set of a printer firmware revision. It's chosen
// once when the driver is created.
type firmware uint8

const (
	// before 2.64: no sleep-off, no feed command, no tab stops
	firmwareLegacy firmware = iota
	// 2.64 to 2.67: inverse and upside down only via the mode mask
	firmwareStandard
	// 2.68 and later
	firmwareCurrent
)

func firmwareFor(version uint16) firmware {
	switch {
	case version >= firmwareInverseCommand:
		return firmwareCurrent
	case version >= firmwareSleepCommand:
		return firmwareStandard
	default:
		return firmwareLegacy
	}
}

func (f firmware) String() string {
	switch f {
	case firmwareLegacy:
		return "legacy"
	case firmwareStandard:
		return "standard"
	default:
		return "current"
	}
}

// Wake finishes with ESC 8 0 0 instead of a train of NULs.
func (f firmware) sleepOffWake() bool {
	return f >= firmwareStandard
}

// ESC d n feeds lines; older printers are fed with literal line feeds.
func (f firmware) feedCommand() bool {
	return f >= firmwareStandard
}

func (f firmware) tabStops() bool {
	return f >= firmwareStandard
}

// Sleep timer takes a 16 bit argument.
func (f firmware) wideSleep() bool {
	return f >= firmwareStandard
}

// GS B toggles inverse; otherwise the inverse bit of the mode mask is used.
func (f firmware) inverseCommand() bool {
	return f >= firmwareCurrent
}

// ESC { toggles upside down; otherwise the mode mask bit is used.
func (f firmware) upsideDownCommand() bool {
	return f >= firmwareCurrent
}

type glyph struct {
	width, height int
}

type fontTable struct {
	a, b glyph
}

var (
	fontA = glyph{width: 12, height: 24}
	fontB = glyph{width: 9, height: 17}
)

// Legacy firmware ignores the font select bit and always prints font A.
func (f firmware) fonts() fontTable {
	if f == firmwareLegacy {
		return fontTable{a: fontA, b: fontA}
	}
	return fontTable{a: fontA, b: fontB}
}
