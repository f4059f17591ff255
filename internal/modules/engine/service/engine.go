package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	decoderdto "vscan/internal/modules/decoder/dto"
	decoderin "vscan/internal/modules/decoder/port/in"
	"vscan/internal/modules/engine/domain"
	"vscan/internal/modules/engine/dto"
	engineout "vscan/internal/modules/engine/port/out"
	mediadto "vscan/internal/modules/media/dto"
	mediain "vscan/internal/modules/media/port/in"
	scandomain "vscan/internal/modules/scan/domain"
	scandto "vscan/internal/modules/scan/dto"
	scanin "vscan/internal/modules/scan/port/in"
	apperrors "vscan/internal/platform/errors"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/reactive"
	"vscan/internal/platform/video"
)

type Deps struct {
	Logger   hclog.Logger
	Store    *reactive.Store[domain.Options]
	Media    mediain.Usecase
	Scans    scanin.Usecase
	Decoders decoderin.Usecase
	// Element is shared: the media controller attaches streams to it and
	// scan sessions read frames from it.
	Element *video.Element
}

// Engine ties one media controller and at most one scan session to a
// shared element and a single options store.
type Engine struct {
	logger   hclog.Logger
	store    *reactive.Store[domain.Options]
	media    mediain.Usecase
	scans    scanin.Usecase
	decoders decoderin.Usecase
	element  *video.Element

	// ops serializes Start, Stop and Close. mu guards the fields below and
	// is never held across a call into another module.
	ops     sync.Mutex
	mu      sync.Mutex
	session scanin.Session
	backend decoderin.Backend
	closed  bool
}

func New(deps Deps) *Engine {
	store := deps.Store
	if store == nil {
		store = reactive.NewStore(domain.DefaultOptions())
	}
	return &Engine{
		logger:   logging.OrDiscard(deps.Logger).Named("engine"),
		store:    store,
		media:    deps.Media,
		scans:    deps.Scans,
		decoders: deps.Decoders,
		element:  deps.Element,
	}
}

// ScanOptions is the view scan sessions read.
func ScanOptions(store reactive.Source[domain.Options]) reactive.Source[scandomain.Options] {
	return reactive.Select(store, func(o domain.Options) scandomain.Options { return o.Scan })
}

// Start acquires the device stream and opens a scan session on the element.
// A session that is still running is kept.
func (e *Engine) Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	e.ops.Lock()
	defer e.ops.Unlock()
	e.mu.Lock()
	closed, running, runningBackend := e.closed, e.session, e.backend
	e.mu.Unlock()
	if closed {
		return dto.StartOutput{}, apperrors.ErrClosed
	}

	stream, err := e.media.Start(ctx, mediadto.StartInput{})
	if err != nil {
		return dto.StartOutput{}, err
	}
	out := dto.StartOutput{Stream: stream}
	if running != nil {
		out.SessionID, out.Decoder = running.ID(), runningBackend.Name()
		return out, nil
	}

	backend, err := e.decoders.Open(ctx, decoderdto.OpenInput{Name: input.Decoder, Formats: input.Formats})
	if err != nil {
		return out, errors.Join(fmt.Errorf("open decoder: %w", err), e.media.Stop(ctx))
	}
	session, err := e.scans.Open(ctx, scandto.SessionInput{
		Options: ScanOptions(e.store),
		Element: e.element,
		Decoder: backend,
	})
	if err != nil {
		_ = backend.Close()
		return out, errors.Join(fmt.Errorf("open scan session: %w", err), e.media.Stop(ctx))
	}
	e.mu.Lock()
	e.session, e.backend = session, backend
	e.mu.Unlock()
	go e.reap(session, backend)

	e.logger.Info("scanning", "session", session.ID(), "decoder", backend.Name(), "stream", stream.StreamID)
	out.SessionID, out.Decoder = session.ID(), backend.Name()
	return out, nil
}

// reap releases the decoder of a session that ended on its own.
func (e *Engine) reap(session scanin.Session, backend decoderin.Backend) {
	<-session.Done()
	e.mu.Lock()
	owned := e.session == session
	if owned {
		e.session, e.backend = nil, nil
	}
	e.mu.Unlock()
	if !owned {
		return
	}
	if err := session.Err(); err != nil {
		e.logger.Error("scan session ended", "session", session.ID(), "error", err)
	}
	if err := backend.Close(); err != nil {
		e.logger.Warn("closing decoder failed", "error", err)
	}
}

// Stop closes the scan session and releases the device stream.
func (e *Engine) Stop(ctx context.Context) error {
	e.ops.Lock()
	defer e.ops.Unlock()
	return errors.Join(e.stopSession(ctx), e.media.Stop(ctx))
}

func (e *Engine) stopSession(ctx context.Context) error {
	e.mu.Lock()
	session, backend := e.session, e.backend
	e.session, e.backend = nil, nil
	e.mu.Unlock()
	if session == nil {
		return nil
	}
	session.Close()
	var err error
	select {
	case <-session.Done():
	case <-ctx.Done():
		err = ctx.Err()
	}
	return errors.Join(err, backend.Close())
}

func (e *Engine) Inspect(ctx context.Context) (mediadto.InspectOutput, error) {
	return e.media.Inspect(ctx)
}

// SetOptions changes the configuration of the running engine.
func (e *Engine) SetOptions(opts ...domain.Option) {
	e.store.Update(func(o *domain.Options) { domain.Apply(o, opts...) })
}

func (e *Engine) SetScanning(on bool) {
	e.SetOptions(domain.WithScanning(on))
}

// ApplyPatch applies p atomically or not at all.
func (e *Engine) ApplyPatch(p domain.Patch) error {
	var err error
	e.store.Update(func(o *domain.Options) { err = p.Apply(o) })
	return err
}

func (e *Engine) Options() domain.Options {
	return e.store.Snapshot()
}

// Follow loads src once and then applies every change until ctx is done.
// Invalid versions are logged and skipped.
func (e *Engine) Follow(ctx context.Context, src engineout.OptionsSource) error {
	p, ok, err := src.Load(ctx)
	if err != nil {
		return err
	}
	if ok {
		if err := e.ApplyPatch(p); err != nil {
			return err
		}
	}
	return src.Watch(ctx, func(p domain.Patch) {
		if err := e.ApplyPatch(p); err != nil {
			e.logger.Warn("options reload rejected", "error", err)
			return
		}
		e.logger.Info("options reloaded")
	})
}

// Session returns the running scan session, nil when there is none.
func (e *Engine) Session() scanin.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

func (e *Engine) Status(ctx context.Context) dto.Status {
	e.mu.Lock()
	session, backend := e.session, e.backend
	e.mu.Unlock()

	out := dto.Status{
		Media:     e.media.Status(ctx),
		Scanning:  e.store.Snapshot().Scan.Scanning,
		ScanState: scandomain.ScanClosed.String(),
	}
	if session == nil {
		return out
	}
	out.SessionID = session.ID()
	out.Decoder = backend.Name()
	out.ScanState = session.State().String()
	if err := session.Err(); err != nil {
		out.Err = err.Error()
	}
	out.Results = dto.ItemsOf(session.Results())
	return out
}

// Close stops everything. The engine cannot be started again.
func (e *Engine) Close(ctx context.Context) error {
	e.ops.Lock()
	defer e.ops.Unlock()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()
	return errors.Join(e.stopSession(ctx), e.media.Close(ctx))
}
