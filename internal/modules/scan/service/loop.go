package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/scan/domain"
	scanout "vscan/internal/modules/scan/port/out"
	"vscan/internal/platform/clock"
	apperrors "vscan/internal/platform/errors"
	"vscan/internal/platform/id"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/reactive"
)

type Deps struct {
	Logger    hclog.Logger
	Options   reactive.Source[domain.Options]
	Source    scanout.FrameSource
	Decoder   scanout.Decoder
	Scheduler scanout.FrameScheduler
	History   scanout.HistoryStore
	Observer  scanout.Observer
	Clock     clock.Clock
	IDs       id.Generator
}

// Session is one scan loop over a frame source. All scan state is owned by
// the loop goroutine; callbacks run on it in tick order.
type Session struct {
	id       string
	logger   hclog.Logger
	options  reactive.Source[domain.Options]
	source   scanout.FrameSource
	decoder  scanout.Decoder
	history  scanout.HistoryStore
	observer scanout.Observer
	clock    clock.Clock

	ctx      context.Context
	cancel   context.CancelFunc
	closed   atomic.Bool
	done     chan struct{}
	decodes  sync.WaitGroup
	outcomes chan decodeOutcome

	// loop goroutine only
	scanning       bool
	detecting      bool
	epoch          uint64
	hasPrev        bool
	prevTimestamp  time.Duration
	prevSignatures domain.SignatureMap

	mu      sync.RWMutex
	state   domain.ScanState
	results []domain.Detection
	err     error
}

type decodeOutcome struct {
	epoch   uint64
	ts      time.Duration
	results []domain.ReadResult
	elapsed time.Duration
	err     error
}

// Open starts a session. It ticks until Close is called, the scheduler
// stops, or the decoder fails.
func Open(deps Deps) (*Session, error) {
	if deps.Source == nil || deps.Decoder == nil || deps.Scheduler == nil {
		return nil, fmt.Errorf("%w: scan session needs a frame source, a decoder and a scheduler", apperrors.ErrInvalidInput)
	}
	options := deps.Options
	if options == nil {
		options = reactive.NewStore(domain.DefaultOptions())
	}
	ids := deps.IDs
	if ids == nil {
		ids = id.UUID{}
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	s := &Session{
		id:       ids.New(),
		options:  options,
		source:   deps.Source,
		decoder:  deps.Decoder,
		history:  deps.History,
		observer: observer,
		clock:    clk,
		done:     make(chan struct{}),
		outcomes: make(chan decodeOutcome, 1),
	}
	s.logger = logging.OrDiscard(deps.Logger).Named("scan").With("session", s.id)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	ticks := deps.Scheduler.Schedule(s.ctx)
	go s.run(ticks)
	s.logger.Debug("scan session opened")
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() domain.ScanState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Results returns the last emitted result set.
func (s *Session) Results() []domain.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.results)
}

// Err reports why the session closed itself, nil after a regular Close.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close stops the loop. Ticks already scheduled do no work. It does not wait;
// use Done for that.
func (s *Session) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.cancel()
	}
}

// Done is closed after the loop has exited and OnScanClose has run.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session is done and returns Err.
func (s *Session) Wait() error {
	<-s.done
	return s.Err()
}

// ─── loop ───────────────────────────────────────────────────────────────────

func (s *Session) run(ticks <-chan time.Duration) {
	defer close(s.done)
	defer s.finish()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ts, ok := <-ticks:
			if !ok {
				return
			}
			s.tick(ts)
		case out := <-s.outcomes:
			s.complete(out)
		}
	}
}

func (s *Session) tick(ts time.Duration) {
	if s.closed.Load() {
		return
	}
	opts := s.options.Snapshot()
	s.observer.Tick()
	if opts.OnRepaint != nil {
		opts.OnRepaint()
	}

	if opts.Scanning != s.scanning {
		s.toggle(opts)
	}
	switch {
	case !s.scanning:
		s.observer.Skip("idle")
		return
	case s.detecting:
		s.observer.Skip("detecting")
		return
	case s.hasPrev && ts-s.prevTimestamp < opts.ScanThrottle:
		s.observer.Skip("throttle")
		return
	}

	frame, err := s.source.CaptureFrame()
	if err != nil {
		s.logger.Debug("frame capture failed", "error", err)
		s.observer.CaptureFailed()
		if opts.OnScanError != nil {
			opts.OnScanError(err)
		}
		return
	}
	s.detecting = true
	if frame.Empty() {
		s.complete(decodeOutcome{epoch: s.epoch, ts: ts})
		return
	}

	epoch := s.epoch
	s.decodes.Add(1)
	go func() {
		defer s.decodes.Done()
		began := s.clock.Now()
		results, err := s.decoder.Decode(s.ctx, frame, opts.ReaderOptions)
		s.outcomes <- decodeOutcome{epoch: epoch, ts: ts, results: results, elapsed: s.clock.Now().Sub(began), err: err}
	}()
}

// toggle starts a new epoch, so a decode begun before the transition is
// dropped when it completes.
func (s *Session) toggle(opts domain.Options) {
	s.scanning = opts.Scanning
	s.epoch++
	if s.scanning {
		s.setState(domain.ScanScanning)
		s.logger.Debug("scanning started")
		if opts.OnScanStart != nil {
			opts.OnScanStart()
		}
		return
	}
	s.prevSignatures = nil
	s.prevTimestamp = 0
	s.hasPrev = false
	s.setState(domain.ScanIdle)
	s.setResults(nil)
	s.logger.Debug("scanning stopped")
	if opts.OnScanStop != nil {
		opts.OnScanStop()
	}
}

func (s *Session) complete(out decodeOutcome) {
	s.detecting = false
	if s.closed.Load() {
		return
	}
	if out.err != nil {
		s.logger.Error("decoder failed, closing session", "error", out.err)
		s.fail(fmt.Errorf("decode: %w", out.err))
		return
	}
	if !s.scanning || out.epoch != s.epoch {
		return
	}
	s.observer.Decoded(out.elapsed, len(out.results))

	opts := s.options.Snapshot()
	next, items, fresh := domain.Debounce(s.prevSignatures, out.results, out.ts, opts.NegativeDebounce)
	s.prevSignatures = next
	s.prevTimestamp = out.ts
	s.hasPrev = true
	s.setResults(items)

	if fresh > 0 {
		s.observer.Detected(fresh)
		s.record(items)
		if opts.OnScanDetect != nil {
			opts.OnScanDetect(slices.Clone(items))
		}
	}
	if opts.OnScanUpdate != nil {
		opts.OnScanUpdate(slices.Clone(items))
	}
}

func (s *Session) finish() {
	s.closed.Store(true)
	s.cancel()
	s.decodes.Wait()
	s.setState(domain.ScanClosed)
	s.logger.Debug("scan session closed", "error", s.Err())
	if cb := s.options.Snapshot().OnScanClose; cb != nil {
		cb()
	}
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.Close()
}

func (s *Session) record(items []domain.Detection) {
	if s.history == nil {
		return
	}
	now := s.clock.Now()
	entries := []domain.HistoryEntry{}
	for _, item := range items {
		if !item.New {
			continue
		}
		entries = append(entries, domain.HistoryEntry{
			SessionID: s.id,
			Signature: item.Signature.String(),
			Format:    item.Result.Format,
			Text:      item.Result.Text,
			SeenAt:    now,
		})
	}
	if err := s.history.Append(s.ctx, entries); err != nil {
		s.logger.Warn("recording detections failed", "error", err)
	}
}

func (s *Session) setState(state domain.ScanState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) setResults(items []domain.Detection) {
	s.mu.Lock()
	s.results = slices.Clone(items)
	s.mu.Unlock()
}

type noopObserver struct{}

func (noopObserver) Tick()                      {}
func (noopObserver) Skip(string)                {}
func (noopObserver) Decoded(time.Duration, int) {}
func (noopObserver) Detected(int)               {}
func (noopObserver) CaptureFailed()             {}
