package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

type manualScheduler struct {
	ticks chan time.Duration
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{ticks: make(chan time.Duration)}
}

func (m *manualScheduler) Schedule(context.Context) <-chan time.Duration {
	return m.ticks
}

// tick returns once the loop has picked ts up.
func (m *manualScheduler) tick(t *testing.T, ts time.Duration) {
	t.Helper()
	select {
	case m.ticks <- ts:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not accept tick %v", ts)
	}
}

type fakeSource struct {
	mu     sync.Mutex
	frames []video.ImageData
	errs   []error
}

func solidFrame() video.ImageData {
	return video.ImageData{Data: make([]byte, 4*4*4), Width: 4, Height: 4}
}

func (s *fakeSource) CaptureFrame() (video.ImageData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return video.ImageData{}, err
		}
	}
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		return f, nil
	}
	return solidFrame(), nil
}

type decodeReply struct {
	results []domain.ReadResult
	err     error
}

// fakeDecoder answers calls from replies in order. With a gate, every call
// reports on entered and waits for the gate to be released.
type fakeDecoder struct {
	mu      sync.Mutex
	replies []decodeReply
	count   int
	entered chan struct{}
	gate    chan struct{}
}

func (d *fakeDecoder) Decode(ctx context.Context, _ video.ImageData, _ domain.ReaderOptions) ([]domain.ReadResult, error) {
	d.mu.Lock()
	d.count++
	var reply decodeReply
	if len(d.replies) > 0 {
		reply = d.replies[0]
		d.replies = d.replies[1:]
	}
	entered, gate := d.entered, d.gate
	d.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return reply.results, reply.err
}

func (d *fakeDecoder) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

type fakeObserver struct {
	mu    sync.Mutex
	skips []string
	ticks int
}

func (o *fakeObserver) Tick() {
	o.mu.Lock()
	o.ticks++
	o.mu.Unlock()
}

func (o *fakeObserver) Skip(reason string) {
	o.mu.Lock()
	o.skips = append(o.skips, reason)
	o.mu.Unlock()
}

func (o *fakeObserver) Decoded(time.Duration, int) {}
func (o *fakeObserver) Detected(int)               {}
func (o *fakeObserver) CaptureFailed()             {}

func (o *fakeObserver) skipped() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.skips...)
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (h *fakeHistory) Append(_ context.Context, entries []domain.HistoryEntry) error {
	h.mu.Lock()
	h.entries = append(h.entries, entries...)
	h.mu.Unlock()
	return nil
}

func (h *fakeHistory) Recent(context.Context, int) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.HistoryEntry(nil), h.entries...), nil
}

func (h *fakeHistory) texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := []string{}
	for _, e := range h.entries {
		out = append(out, e.Text)
	}
	return out
}

type fixedIDs struct{}

func (fixedIDs) New() string { return "session-1" }

// recorder turns scan callbacks into strings like "detect:+A" or
// "update:A,~B", where + marks a new and ~ a debounced item.
type recorder struct {
	events chan string
}

func newRecorder() *recorder {
	return &recorder{events: make(chan string, 64)}
}

func (r *recorder) hooks(o *domain.Options) {
	o.OnScanDetect = func(items []domain.Detection) { r.events <- "detect:" + describe(items) }
	o.OnScanUpdate = func(items []domain.Detection) { r.events <- "update:" + describe(items) }
	o.OnScanStart = func() { r.events <- "start" }
	o.OnScanStop = func() { r.events <- "stop" }
	o.OnScanClose = func() { r.events <- "close" }
	o.OnScanError = func(err error) { r.events <- "error:" + err.Error() }
}

func (r *recorder) expect(t *testing.T, want ...string) {
	t.Helper()
	for _, w := range want {
		select {
		case got := <-r.events:
			if got != w {
				t.Fatalf("expected event %q, got %q", w, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", w)
		}
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case got := <-r.events:
		t.Fatalf("unexpected event %q", got)
	default:
	}
}

func describe(items []domain.Detection) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		prefix := ""
		switch {
		case item.New:
			prefix = "+"
		case item.Debounced:
			prefix = "~"
		}
		parts = append(parts, prefix+item.Result.Text)
	}
	return strings.Join(parts, ",")
}

func symbol(text string) domain.ReadResult {
	return domain.ReadResult{IsValid: true, Format: domain.FormatQRCode, Text: text, Bytes: []byte(text)}
}

func symbols(texts ...string) []domain.ReadResult {
	out := make([]domain.ReadResult, 0, len(texts))
	for _, text := range texts {
		out = append(out, symbol(text))
	}
	return out
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

var errCapture = fmt.Errorf("canvas lost")
