package printer

import (
	"testing"
	"time"
)

func TestByteTime(t *testing.T) {
	if got := ByteTimeMicros(9600); got != 1146 {
		t.Errorf("Expected 1146us at 9600 baud, got %d", got)
	}
	if got := ByteTimeMicros(19200); got != 573 {
		t.Errorf("Expected 573us at 19200 baud, got %d", got)
	}

	for _, baud := range []int{1200, 2400, 4800, 9600, 19200, 38400, 57600, 115200} {
		got := ByteTimeMicros(baud)
		if got != (11_000_000+int64(baud)/2)/int64(baud) {
			t.Errorf("Baud %d: unexpected byte time %d", baud, got)
		}
		// rounded to the nearest microsecond
		if diff := got*int64(baud) - 11_000_000; diff > int64(baud)/2 || diff < -int64(baud)/2 {
			t.Errorf("Baud %d: %dus isn't the nearest microsecond", baud, got)
		}
	}
}

func TestGateWaitsForDeadline(t *testing.T) {
	clock := newFakeClock()
	tm := newTiming(clock, 9600, time.Millisecond, time.Millisecond)

	tm.schedule(3 * time.Millisecond)
	start := clock.Now()
	tm.gate()

	if elapsed := clock.Now().Sub(start); elapsed < 3*time.Millisecond {
		t.Errorf("Gate returned early after %v", elapsed)
	}

	clock.sleeps = nil
	tm.gate()
	if len(clock.sleeps) != 0 {
		t.Errorf("Expected no wait once the deadline passed, slept %v", clock.sleeps)
	}
}

func TestScheduleIsMonotonicUntilReset(t *testing.T) {
	clock := newFakeClock()
	tm := newTiming(clock, 9600, time.Millisecond, time.Millisecond)

	last := tm.resumeAt
	for _, d := range []time.Duration{5 * time.Millisecond, 0, time.Millisecond, 20 * time.Millisecond} {
		tm.gate()
		tm.schedule(d)
		if tm.resumeAt.Before(last) {
			t.Errorf("resumeAt went backwards: %v before %v", tm.resumeAt, last)
		}
		last = tm.resumeAt
	}

	tm.reset()
	if tm.remaining() != 0 {
		t.Errorf("Expected reset to make the printer ready, %v remaining", tm.remaining())
	}
}

func TestHandshakeOverridesEstimate(t *testing.T) {
	clock := newFakeClock()
	signal := &fakeSignal{readyAfter: 3}
	tm := newTiming(clock, 9600, time.Millisecond, time.Millisecond)
	tm.signal = signal
	tm.handshake = true

	before := tm.resumeAt
	tm.schedule(time.Hour)
	if !tm.resumeAt.Equal(before) {
		t.Errorf("Expected schedule to be ignored with the handshake enabled")
	}

	tm.gate()
	if signal.calls != 4 {
		t.Errorf("Expected the gate to poll until ready (4 calls), got %d", signal.calls)
	}
	if len(clock.sleeps) != 3 {
		t.Errorf("Expected 3 poll sleeps, got %v", clock.sleeps)
	}
}
