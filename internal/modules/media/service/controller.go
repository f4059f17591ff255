package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/media/domain"
	mediaout "vscan/internal/modules/media/port/out"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/reactive"
)

// Controller owns the device stream. Lifecycle requests run one at a time in
// the order they were submitted; callbacks run in the same order on a
// separate goroutine, after the state they report has been committed.
type Controller struct {
	logger   hclog.Logger
	env      mediaout.Environment
	provider mediaout.DeviceProvider
	options  reactive.Source[domain.Options]
	sink     mediaout.Sink
	urls     mediaout.ObjectURLs

	actions   *serial
	callbacks *serial
	base      context.Context
	cancel    context.CancelFunc
	unwatch   []func()

	mu       sync.RWMutex
	last     domain.Action
	attached Attachment
}

type Deps struct {
	Logger      hclog.Logger
	Environment mediaout.Environment
	Provider    mediaout.DeviceProvider
	Options     reactive.Source[domain.Options]
	Sink        mediaout.Sink
	ObjectURLs  mediaout.ObjectURLs
}

type outcome struct {
	action domain.Action
	reused bool
	err    error
}

func NewController(deps Deps) *Controller {
	options := deps.Options
	if options == nil {
		options = reactive.NewStore(domain.DefaultOptions())
	}
	c := &Controller{
		logger:    logging.OrDiscard(deps.Logger).Named("media"),
		env:       deps.Environment,
		provider:  deps.Provider,
		options:   options,
		sink:      deps.Sink,
		urls:      deps.ObjectURLs,
		actions:   newSerial(),
		callbacks: newSerial(),
		last:      domain.Action{Kind: domain.ActionStop},
		attached:  Attachment{Mode: AttachNone},
	}
	c.base, c.cancel = context.WithCancel(context.Background())
	for _, kind := range []domain.TrackKind{domain.TrackKindVideo, domain.TrackKindAudio} {
		c.unwatch = append(c.unwatch, reactive.Subscribe(
			options,
			func(o domain.Options) domain.TrackConstraintsSource { return o.ConstraintsFor(kind) },
			domain.SameTrack,
			func(domain.TrackConstraintsSource) { c.enqueueConstrain(kind) },
		))
	}
	return c
}

// Start acquires a stream using init, or the configured init constraints
// when init is nil. A live stream started with the same init is reused.
func (c *Controller) Start(ctx context.Context, init *domain.InitConstraints) (domain.Action, bool, error) {
	resolved := c.options.Snapshot().InitConstraints
	if init != nil {
		resolved = *init
	}
	res, err := c.submit(ctx, func(ctx context.Context) outcome { return c.start(ctx, resolved) })
	return res.action, res.reused, err
}

// Inspect collects per-track capabilities. It returns nil when no stream is
// live.
func (c *Controller) Inspect(ctx context.Context) (*domain.Inspection, error) {
	res, err := c.submit(ctx, c.inspect)
	if err != nil {
		return nil, err
	}
	if !res.action.Live() {
		return nil, nil
	}
	return res.action.Inspection, nil
}

func (c *Controller) Stop(ctx context.Context) error {
	_, err := c.submit(ctx, func(context.Context) outcome { return c.stop() })
	return err
}

// Close stops the stream and rejects every later request with ErrClosed.
// Requests already queued still run first.
func (c *Controller) Close(ctx context.Context) error {
	for _, unwatch := range c.unwatch {
		unwatch()
	}
	reply := make(chan outcome, 1)
	if !c.actions.pushLast(func() { reply <- c.stop() }) {
		return nil
	}
	var err error
	select {
	case res := <-reply:
		err = res.err
	case <-ctx.Done():
		err = ctx.Err()
	}
	c.cancel()
	go func() {
		<-c.actions.done
		c.callbacks.close()
	}()
	return err
}

// Done is closed once the controller has been closed and all queued work
// and callbacks have run.
func (c *Controller) Done() <-chan struct{} {
	return c.callbacks.done
}

func (c *Controller) Current() domain.Action {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

func (c *Controller) Phase() domain.Phase {
	return c.Current().Phase()
}

func (c *Controller) Attachment() Attachment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.attached
}

// Pending reports the number of queued requests not yet started.
func (c *Controller) Pending() int {
	return c.actions.len()
}

// ─── queue ──────────────────────────────────────────────────────────────────

func (c *Controller) submit(ctx context.Context, run func(context.Context) outcome) (outcome, error) {
	reply := make(chan outcome, 1)
	ok := c.actions.push(func() {
		if err := ctx.Err(); err != nil {
			reply <- outcome{action: c.Current(), err: err}
			return
		}
		reply <- run(ctx)
	})
	if !ok {
		return outcome{}, domain.ErrClosed
	}
	select {
	case res := <-reply:
		return res, res.err
	case <-ctx.Done():
		return outcome{}, ctx.Err()
	}
}

func (c *Controller) enqueueConstrain(kind domain.TrackKind) {
	c.actions.push(func() {
		if c.base.Err() != nil {
			return
		}
		_ = c.constrain(c.base, kind)
	})
}

func (c *Controller) notify(fn func()) {
	c.callbacks.push(fn)
}

func (c *Controller) commit(action domain.Action, attached Attachment) {
	c.mu.Lock()
	c.last = action
	c.attached = attached
	c.mu.Unlock()
}

// ─── transitions ────────────────────────────────────────────────────────────

func (c *Controller) start(ctx context.Context, init domain.InitConstraints) outcome {
	prev := c.Current()
	if c.env != nil && !c.env.SecureContext() {
		return outcome{action: prev, err: domain.ErrSecurity}
	}
	if c.provider == nil || !c.provider.Available() {
		return outcome{action: prev, err: domain.ErrNotSupported}
	}
	if prev.Kind == domain.ActionStart && prev.Live() && domain.SameInit(prev.Init, init) {
		c.logger.Debug("reusing stream", "stream", prev.Stream.ID())
		return outcome{action: prev, reused: true}
	}
	if prev.Live() {
		c.release(prev)
		c.commit(domain.Action{Kind: domain.ActionStop}, Attachment{Mode: AttachNone})
	}

	stream, err := c.provider.GetUserMedia(ctx, init.For(c.provider.SupportedConstraints()))
	if err != nil {
		c.logger.Warn("stream acquisition failed", "error", err)
		return outcome{action: c.Current(), err: fmt.Errorf("get user media: %w", err)}
	}

	opts := c.options.Snapshot()
	for _, kind := range []domain.TrackKind{domain.TrackKindVideo, domain.TrackKindAudio} {
		if _, err := c.applyKind(ctx, stream, kind, opts); err != nil {
			c.reportError(opts, err)
		}
	}

	attached, err := Attach(c.sink, c.urls, stream)
	if err != nil {
		domain.StopAll(stream)
		return outcome{action: c.Current(), err: fmt.Errorf("attach stream: %w", err)}
	}

	action := domain.Action{Kind: domain.ActionStart, Init: init, Stream: stream}
	c.commit(action, attached)
	c.logger.Info("stream started", "stream", stream.ID(), "tracks", len(stream.Tracks()), "attach", attached.Mode)
	if opts.OnStreamStart != nil {
		c.notify(func() { opts.OnStreamStart(stream) })
	}
	return outcome{action: action}
}

func (c *Controller) inspect(ctx context.Context) outcome {
	prev := c.Current()
	opts := c.options.Snapshot()
	if !prev.Live() {
		if opts.OnStreamInspect != nil {
			c.notify(func() { opts.OnStreamInspect(nil) })
		}
		return outcome{action: prev}
	}

	inspection := domain.Inspection{}
	for _, track := range prev.Stream.Tracks() {
		entry := domain.TrackCapabilities{
			TrackID:      track.ID(),
			Label:        track.Label(),
			Kind:         track.Kind(),
			Capabilities: c.capabilities(ctx, track, opts.CapabilitiesTimeout()),
			Settings:     track.Settings(),
		}
		if track.Kind() == domain.TrackKindAudio {
			inspection.Audio = append(inspection.Audio, entry)
		} else {
			inspection.Video = append(inspection.Video, entry)
		}
	}

	c.mu.RLock()
	attached := c.attached
	c.mu.RUnlock()
	action := domain.Action{Kind: domain.ActionInspect, Init: prev.Init, Stream: prev.Stream, Inspection: &inspection}
	c.commit(action, attached)
	c.logger.Debug("stream inspected", "stream", prev.Stream.ID(), "video", len(inspection.Video), "audio", len(inspection.Audio))
	if opts.OnStreamInspect != nil {
		c.notify(func() { opts.OnStreamInspect(&inspection) })
	}
	return outcome{action: action}
}

func (c *Controller) constrain(ctx context.Context, kind domain.TrackKind) outcome {
	prev := c.Current()
	if !prev.Live() {
		c.logger.Debug("deferring constraints until start", "kind", kind)
		return outcome{action: prev}
	}
	opts := c.options.Snapshot()
	applied, err := c.applyKind(ctx, prev.Stream, kind, opts)
	if err != nil {
		c.reportError(opts, err)
		return outcome{action: prev, err: err}
	}
	if !applied {
		return outcome{action: prev}
	}

	c.mu.RLock()
	attached := c.attached
	c.mu.RUnlock()
	action := domain.Action{Kind: domain.ActionConstrain, Init: prev.Init, Stream: prev.Stream, Inspection: prev.Inspection}
	c.commit(action, attached)
	c.logger.Debug("stream constrained", "stream", prev.Stream.ID(), "kind", kind)
	if opts.OnStreamUpdate != nil {
		stream := prev.Stream
		c.notify(func() { opts.OnStreamUpdate(stream) })
	}
	return outcome{action: action}
}

func (c *Controller) stop() outcome {
	prev := c.Current()
	if !prev.Live() {
		return outcome{action: prev}
	}
	c.release(prev)
	action := domain.Action{Kind: domain.ActionStop}
	c.commit(action, Attachment{Mode: AttachNone})
	c.logger.Info("stream stopped", "stream", prev.Stream.ID())
	if cb := c.options.Snapshot().OnStreamStop; cb != nil {
		c.notify(cb)
	}
	return outcome{action: action}
}

// ─── helpers ────────────────────────────────────────────────────────────────

func (c *Controller) release(prev domain.Action) {
	c.mu.RLock()
	attached := c.attached
	c.mu.RUnlock()
	domain.StopAll(prev.Stream)
	Detach(c.sink, c.urls, attached)
}

// applyKind applies the configured constraints of kind to every matching
// track. It reports whether any track was targeted.
func (c *Controller) applyKind(ctx context.Context, stream domain.Stream, kind domain.TrackKind, opts domain.Options) (bool, error) {
	source := opts.ConstraintsFor(kind)
	if source.IsZero() {
		return false, nil
	}
	tracks := domain.TracksOf(stream, kind)
	var errs []error
	for _, track := range tracks {
		var caps domain.Capabilities
		if source.Resolve != nil {
			caps = c.capabilities(ctx, track, opts.CapabilitiesTimeout())
		}
		constraints, ok := source.For(caps)
		if !ok {
			continue
		}
		if err := track.ApplyConstraints(ctx, constraints); err != nil {
			errs = append(errs, fmt.Errorf("apply %s constraints to %s: %w", kind, track.ID(), err))
		}
	}
	return len(tracks) > 0, errors.Join(errs...)
}

// capabilities waits at most timeout for the track to report its
// capabilities and falls back to an empty set.
func (c *Controller) capabilities(ctx context.Context, track domain.Track, timeout time.Duration) domain.Capabilities {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ch := make(chan domain.Capabilities, 1)
	go func() {
		caps, err := track.Capabilities(ctx)
		if err != nil {
			c.logger.Debug("capabilities unavailable", "track", track.ID(), "error", err)
			caps = domain.Capabilities{}
		}
		ch <- caps
	}()
	select {
	case caps := <-ch:
		return caps
	case <-ctx.Done():
		c.logger.Debug("capabilities timed out", "track", track.ID(), "timeout", timeout)
		return domain.Capabilities{}
	}
}

func (c *Controller) reportError(opts domain.Options, err error) {
	c.logger.Warn("applying constraints failed", "error", err)
	if opts.OnStreamError != nil {
		c.notify(func() { opts.OnStreamError(err) })
	}
}
