package printer

import (
	"time"
)

// writeText runs one byte through the line state machine: carriage returns
// are dropped, a line feed or a full line costs a printed (or blank fed)
// line, anything else just advances the column.
func (p *Printer) writeText(c byte) {
	if c == CR {
		return
	}

	p.timing.gate()
	p.transmit([]byte{c})

	d := p.timing.byteTime
	if c == LF || p.column == p.metrics.MaxColumn {
		d += p.lineDelay()
		p.column = 0
		// a wrap counts as a newline on the next pass
		c = LF
	} else {
		p.column++
	}
	p.timing.schedule(d)
	p.prevByte = c
}

// lineDelay is the time to finish the current line: a feed if nothing was
// printed on it, otherwise printing the text plus the spacing below it.
func (p *Printer) lineDelay() time.Duration {
	h := p.metrics.CharHeight
	if p.prevByte == LF {
		return p.timing.feedDots(h + p.lineSpacing)
	}
	return p.timing.printDots(h) + p.timing.feedDots(p.lineSpacing)
}

// Write sends raw bytes through the text path, so the printer works with
// fmt.Fprint and friends. Transport errors are reported by Err, not here.
func (p *Printer) Write(data []byte) (int, error) {
	for _, c := range data {
		p.writeText(c)
	}
	return len(data), nil
}

// PrintString prints UTF-8 text encoded for the selected code page.
func (p *Printer) PrintString(s string) {
	p.Write(encodeText(s, p.codePage))
}

func (p *Printer) Println(s string) {
	p.PrintString(s)
	p.writeText(LF)
}

// NewLine prints n line feeds.
func (p *Printer) NewLine(n int) {
	for range n {
		p.writeText(LF)
	}
}

// Feed advances the paper by n text lines.
func (p *Printer) Feed(n uint8) {
	if p.firmware.feedCommand() {
		p.writeCommand(feedLines(n))
		p.timing.schedule(p.timing.feedDots(p.metrics.CharHeight))
		p.newLine()
		return
	}

	// Old firmware feeds with plain line feeds. These also pay the byte
	// time on top of the feed time, which overestimates a little.
	for range n {
		p.writeText(LF)
	}
}

// FeedRows advances the paper by individual dot rows.
func (p *Printer) FeedRows(rows uint8) {
	p.writeCommand(feedRows(rows))
	p.timing.schedule(p.timing.feedDots(int(rows)))
	p.newLine()
}

// Tab moves to the next tab stop, every 4 columns.
func (p *Printer) Tab() {
	p.writeCommand([]byte{HT})
	p.column = min((p.column+4)&^3, p.metrics.MaxColumn)
}
