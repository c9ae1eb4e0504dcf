package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"tomgalvin.uk/thermalprint/internal/host"
	"tomgalvin.uk/thermalprint/internal/journal"
	"tomgalvin.uk/thermalprint/internal/printer"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(data)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.buf.Bytes())
}

type testServer struct {
	router  *gin.Engine
	host    *host.Host
	out     *syncBuffer
	journal *journal.Repository
}

func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	out := &syncBuffer{}
	pc := printer.DefaultConfig()
	pc.BaudRate = 115200
	pc.Width = 384
	p, err := printer.New(out, pc, printer.WithLogger(quietLogger))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	p.SetTimes(time.Microsecond, time.Microsecond)

	h := host.New(p, time.Millisecond, quietLogger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	j, err := journal.Open(filepath.Join(t.TempDir(), "jobs.db"))
	if err != nil {
		t.Fatalf("journal.Open failed: %v", err)
	}
	t.Cleanup(func() {
		cancel()
		<-done
		j.Close()
	})

	s := NewServer(quietLogger, h, j)
	return &testServer{router: s.Router(cfg), host: h, out: out, journal: j}
}

func (ts *testServer) do(method string, path string, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) postJSON(t *testing.T, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return ts.do(http.MethodPost, path, "application/json", body)
}

func (ts *testServer) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.host.Drain(ctx); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Couldn't decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetStatus(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(http.MethodGet, "/api/status", "", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	s := decode[StatusResponse](t, w)
	if s.Firmware != printer.DefaultFirmware || s.Capabilities != "current" || s.Mode != "normal" {
		t.Errorf("Unexpected status %+v", s)
	}
	if s.JobsRecorded == nil || *s.JobsRecorded != 0 {
		t.Errorf("Expected no jobs recorded yet")
	}
}

func TestPrintTextIsJournaled(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.postJSON(t, "/api/text", TextRequest{Text: "Hello, receipt", Bold: true, Justify: "centre"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decode[JobResponse](t, w)
	if res.Kind != "text" || res.Status != "done" || res.Uuid == "" || res.Bytes == 0 {
		t.Errorf("Unexpected job response %+v", res)
	}

	out := ts.out.Bytes()
	if !bytes.Contains(out, []byte("Hello, receipt\n")) {
		t.Errorf("Expected the text to be sent, got %q", out)
	}
	if !bytes.Contains(out, []byte{printer.Esc, 'a', byte(printer.Centre)}) {
		t.Errorf("Expected the text to be centred")
	}
	if !bytes.Contains(out, []byte{printer.Esc, '!', byte(printer.Bold)}) {
		t.Errorf("Expected bold to be turned on")
	}

	jobs := decode[[]JobResponse](t, ts.do(http.MethodGet, "/api/jobs", "", nil))
	if len(jobs) != 1 || jobs[0].Uuid != res.Uuid {
		t.Fatalf("Expected the job to be listed, got %+v", jobs)
	}
	w = ts.do(http.MethodGet, "/api/jobs/"+res.Uuid, "", nil)
	if w.Code != http.StatusOK || decode[JobResponse](t, w).Summary != "Hello, receipt" {
		t.Errorf("Expected to fetch the job, got %d %s", w.Code, w.Body.String())
	}
}

func TestExpiredRequestDoesNotPrint(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	body, _ := json.Marshal(TextRequest{Text: "too late"})
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/text", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("Expected 504, got %d: %s", w.Code, w.Body.String())
	}
	ts.drain(t)
	if out := ts.out.Bytes(); bytes.Contains(out, []byte("too late")) {
		t.Errorf("Expected the timed out text not to print, got %q", out)
	}

	jobs := decode[[]JobResponse](t, ts.do(http.MethodGet, "/api/jobs", "", nil))
	if len(jobs) != 1 || jobs[0].Status != "failed" || jobs[0].Bytes != 0 {
		t.Errorf("Expected one failed job with nothing sent, got %+v", jobs)
	}
}

func TestPrintTextRequiresText(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	if w := ts.postJSON(t, "/api/text", TextRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if w := ts.do(http.MethodPost, "/api/text", "application/json", []byte("{")); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad JSON, got %d", w.Code)
	}
}

func TestFeed(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.postJSON(t, "/api/feed", FeedRequest{Lines: 3, Rows: 12})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	expected := []byte{printer.Esc, 'd', 3, printer.Esc, 'J', 12}
	if !bytes.Equal(ts.out.Bytes(), expected) {
		t.Errorf("Expected %v, got %v", expected, ts.out.Bytes())
	}
}

func TestPrintBitmap(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	data := make([]byte, 16*2)
	for x := range 8 {
		data[x] = 1
	}

	w := ts.postJSON(t, "/api/bitmap", BitmapRequest{Width: 16, Height: 2, Data: data})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ts.drain(t)

	out := ts.out.Bytes()
	header := []byte{printer.GS, 0x76, 0x30, 0x00, 48, 0, 2, 0}
	if !bytes.Equal(out[:8], header) {
		t.Fatalf("Expected a 384x2 raster header, got %v", out[:8])
	}
	if len(out) != 8+48*2 || out[8] != 0xFF || out[9] != 0 || out[8+48] != 0 {
		t.Errorf("Unexpected raster data %v", out[8:])
	}
}

func TestPrintBitmapRejectsBadData(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.postJSON(t, "/api/bitmap", BitmapRequest{Width: 4, Height: 4, Data: []byte{1}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	w = ts.postJSON(t, "/api/bitmap", BitmapRequest{Width: 400, Height: 1, Data: make([]byte, 400)})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bitmap wider than the page, got %d", w.Code)
	}
}

func TestPrintImage(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	img := image.NewGray(image.Rect(0, 0, 100, 50))
	for y := range 50 {
		for x := range 100 {
			img.Set(x, y, color.Gray{Y: 0})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)

	w := ts.do(http.MethodPost, "/api/image", "image/png", buf.Bytes())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	res := decode[JobResponse](t, w)
	if res.Summary != "100x50" || res.Bytes != 8+48*50 {
		t.Errorf("Unexpected job response %+v", res)
	}
	ts.drain(t)
	if len(ts.out.Bytes()) != 8+48*50 {
		t.Errorf("Expected the whole image to be sent, got %d bytes", len(ts.out.Bytes()))
	}
}

func TestPrintImageRejectsGarbage(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})
	w := ts.do(http.MethodPost, "/api/image", "image/png", []byte("definitely not a png"))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestPrintLabel(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.postJSON(t, "/api/label", LabelRequest{Text: "FRAGILE", Size: 48})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	ts.drain(t)
	out := ts.out.Bytes()
	if len(out) < 8 || !bytes.Equal(out[:4], []byte{printer.GS, 0x76, 0x30, 0x00}) {
		t.Fatalf("Expected a raster image")
	}
	if bytes.Count(out[8:], []byte{0}) == len(out)-8 {
		t.Errorf("Expected the label to have some black dots")
	}

	if w := ts.postJSON(t, "/api/label", LabelRequest{Text: "x", Font: "wingdings"}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown font, got %d", w.Code)
	}
}

func TestTestPage(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	w := ts.do(http.MethodPost, "/api/testpage", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !bytes.Equal(ts.out.Bytes(), []byte{printer.DC2, 'T'}) {
		t.Errorf("Expected DC2 T, got %v", ts.out.Bytes())
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterConfig{RequestsPerSecond: 0.001, Burst: 1})

	if w := ts.postJSON(t, "/api/feed", FeedRequest{Lines: 1}); w.Code != http.StatusOK {
		t.Fatalf("Expected the first request through, got %d", w.Code)
	}
	if w := ts.postJSON(t, "/api/feed", FeedRequest{Lines: 1}); w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/status", "", nil); w.Code != http.StatusOK {
		t.Errorf("Expected status reads not to be limited, got %d", w.Code)
	}
}

func TestGetJobErrors(t *testing.T) {
	ts := newTestServer(t, RouterConfig{})

	if w := ts.do(http.MethodGet, "/api/jobs/not-a-uuid", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/jobs/6f1c1f5e-0c6a-4b8e-9a5e-3d1d2b9c7f10", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if w := ts.do(http.MethodGet, "/api/jobs?limit=-1", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, RouterConfig{AllowedOrigins: []string{"http://till.local"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/text", nil)
	req.Header.Set("Origin", "http://till.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://till.local" {
		t.Errorf("Expected the origin to be allowed, got %q", got)
	}
}

func TestSummarise(t *testing.T) {
	if got := summarise("short"); got != "short" {
		t.Errorf("Expected short, got %q", got)
	}
	long := strings.Repeat("é", 60)
	if got := []rune(summarise(long)); len(got) != summaryLength {
		t.Errorf("Expected %d runes, got %d", summaryLength, len(got))
	}
}
