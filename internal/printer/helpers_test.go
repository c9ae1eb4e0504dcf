package printer

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

type recorder struct {
	writes [][]byte
}

func (r *recorder) Write(data []byte) (int, error) {
	r.writes = append(r.writes, bytes.Clone(data))
	return len(data), nil
}

func (r *recorder) bytes() []byte {
	return bytes.Join(r.writes, nil)
}

func (r *recorder) reset() {
	r.writes = nil
}

type brokenWriter struct{}

var errUnplugged = errors.New("unplugged")

func (brokenWriter) Write(data []byte) (int, error) {
	return 0, errUnplugged
}

type fakeSignal struct {
	readyAfter int
	calls      int
}

func (s *fakeSignal) Ready() bool {
	s.calls++
	return s.calls > s.readyAfter
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestPrinter(t *testing.T, cfg Config, opts ...Option) (*Printer, *recorder, *fakeClock) {
	t.Helper()
	rec := &recorder{}
	clock := newFakeClock()
	opts = append([]Option{WithClock(clock), WithLogger(quietLogger)}, opts...)
	p, err := New(rec, cfg, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, rec, clock
}

func assertBytes(t *testing.T, expected []byte, got []byte) {
	t.Helper()
	if !bytes.Equal(expected, got) {
		t.Errorf("Expected bytes % X, got % X", expected, got)
	}
}
