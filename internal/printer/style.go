package printer

// SetMode turns on the given mode flags.
func (p *Printer) SetMode(m Mode) {
	p.applyMode(p.mode | m)
}

// ClearMode turns off the given mode flags.
func (p *Printer) ClearMode(m Mode) {
	p.applyMode(p.mode &^ m)
}

func (p *Printer) Mode() Mode {
	return p.mode
}

func (p *Printer) Metrics() Metrics {
	return p.metrics
}

// applyMode sends the whole mask and recomputes the character metrics. A
// style change starts a fresh line as far as the wrap logic is concerned.
func (p *Printer) applyMode(m Mode) {
	p.mode = m
	p.writeCommand(printMode(m))
	p.metrics = deriveMetrics(m, p.cfg.Width, p.firmware.fonts())
	p.newLine()
}

func (p *Printer) newLine() {
	p.prevByte = LF
	p.column = 0
}

func (p *Printer) InverseOn() {
	if p.firmware.inverseCommand() {
		p.writeCommand(inverse(true))
	} else {
		p.SetMode(Inverse)
	}
}

func (p *Printer) InverseOff() {
	if p.firmware.inverseCommand() {
		p.writeCommand(inverse(false))
	} else {
		p.ClearMode(Inverse)
	}
}

func (p *Printer) UpsideDownOn() {
	if p.firmware.upsideDownCommand() {
		p.writeCommand(upsideDown(true))
	} else {
		p.SetMode(UpsideDown)
	}
}

func (p *Printer) UpsideDownOff() {
	if p.firmware.upsideDownCommand() {
		p.writeCommand(upsideDown(false))
	} else {
		p.ClearMode(UpsideDown)
	}
}

func (p *Printer) DoubleHeightOn()  { p.SetMode(DoubleHeight) }
func (p *Printer) DoubleHeightOff() { p.ClearMode(DoubleHeight) }
func (p *Printer) DoubleWidthOn()   { p.SetMode(DoubleWidth) }
func (p *Printer) DoubleWidthOff()  { p.ClearMode(DoubleWidth) }
func (p *Printer) StrikeOn()        { p.SetMode(Strike) }
func (p *Printer) StrikeOff()       { p.ClearMode(Strike) }
func (p *Printer) BoldOn()          { p.SetMode(Bold) }
func (p *Printer) BoldOff()         { p.ClearMode(Bold) }

// SetFont selects font A ('A') or the smaller font B ('B').
func (p *Printer) SetFont(f byte) {
	if f == 'B' || f == 'b' {
		p.SetMode(FontB)
	} else {
		p.ClearMode(FontB)
	}
}

// SetSize picks small ('S'), medium ('M', double height) or large ('L',
// double height and width) text with a single mode change.
func (p *Printer) SetSize(size byte) {
	m := p.mode &^ (DoubleHeight | DoubleWidth)
	switch size {
	case 'M', 'm':
		m |= DoubleHeight
	case 'L', 'l':
		m |= DoubleHeight | DoubleWidth
	}
	p.applyMode(m)
}
