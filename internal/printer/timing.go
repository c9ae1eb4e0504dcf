package printer

import (
	"time"
)

// Clock is the time source behind the timing gate.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// ReadySignal is a hardware handshake line reporting whether the printer can
// take more data.
type ReadySignal interface {
	Ready() bool
}

const readyPollInterval = time.Millisecond

// Number of microseconds to issue one byte to the printer. 11 bits (not 8)
// to accommodate idle, start and stop bits, rounded to the nearest microsecond.
func ByteTimeMicros(baud int) int64 {
	b := int64(baud)
	return (11*1_000_000 + b/2) / b
}

// There's no flow control, so the only way to keep the printer's buffer from
// overrunning is to estimate how long each physical operation takes and hold
// the next byte back until then.
type timing struct {
	clock        Clock
	signal       ReadySignal
	handshake    bool
	resumeAt     time.Time
	byteTime     time.Duration
	dotPrintTime time.Duration
	dotFeedTime  time.Duration
}

func newTiming(clock Clock, baud int, dotPrint time.Duration, dotFeed time.Duration) timing {
	return timing{
		clock:        clock,
		resumeAt:     clock.Now(),
		byteTime:     time.Duration(ByteTimeMicros(baud)) * time.Microsecond,
		dotPrintTime: dotPrint,
		dotFeedTime:  dotFeed,
	}
}

// gate blocks until the previous operation is estimated to be finished, or,
// with the handshake enabled, until the printer says it's ready.
func (t *timing) gate() {
	if t.handshake {
		for !t.signal.Ready() {
			t.clock.Sleep(readyPollInterval)
		}
		return
	}
	for {
		remaining := t.resumeAt.Sub(t.clock.Now())
		if remaining <= 0 {
			return
		}
		t.clock.Sleep(remaining)
	}
}

// schedule records the estimated completion of a just issued operation. A
// shorter estimate never pulls in a deadline already set, since the bytes
// before it are still on the wire. It does nothing while the hardware
// handshake is in charge.
func (t *timing) schedule(d time.Duration) {
	if t.handshake {
		return
	}
	if at := t.clock.Now().Add(d); at.After(t.resumeAt) {
		t.resumeAt = at
	}
}

// reset makes the printer immediately ready.
func (t *timing) reset() {
	t.resumeAt = t.clock.Now()
}

// remaining is how long the gate would currently block for.
func (t *timing) remaining() time.Duration {
	return max(t.resumeAt.Sub(t.clock.Now()), 0)
}

func (t *timing) bytes(n int) time.Duration {
	return time.Duration(n) * t.byteTime
}

func (t *timing) printDots(n int) time.Duration {
	return time.Duration(n) * t.dotPrintTime
}

func (t *timing) feedDots(n int) time.Duration {
	return time.Duration(n) * t.dotFeedTime
}
