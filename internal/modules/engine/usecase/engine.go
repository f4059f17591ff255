package usecase

import (
	"context"
	"maps"
	"slices"
	"sync"

	"vscan/internal/modules/engine/domain"
	"vscan/internal/modules/engine/dto"
	enginein "vscan/internal/modules/engine/port/in"
	engineout "vscan/internal/modules/engine/port/out"
	"vscan/internal/modules/engine/service"
	mediadomain "vscan/internal/modules/media/domain"
	mediadto "vscan/internal/modules/media/dto"
	scandomain "vscan/internal/modules/scan/domain"
)

type Interactor struct {
	engine  *service.Engine
	options engineout.OptionsSource

	mu   sync.Mutex
	next int
	subs map[int]func(dto.Event)
}

// NewInteractor installs the engine hooks that feed Subscribe. options may be
// nil, in which case Follow returns once ctx is done.
func NewInteractor(engine *service.Engine, options engineout.OptionsSource) enginein.Usecase {
	i := &Interactor{engine: engine, options: options, subs: map[int]func(dto.Event){}}
	engine.SetOptions(
		domain.WithScanHooks(domain.ScanHooks{
			OnDetect: func(d []scandomain.Detection) { i.publish(dto.Event{Kind: dto.EventDetect, Items: dto.ItemsOf(d)}) },
			OnUpdate: func(d []scandomain.Detection) { i.publish(dto.Event{Kind: dto.EventUpdate, Items: dto.ItemsOf(d)}) },
			OnStart:  func() { i.publish(dto.Event{Kind: dto.EventScanStart}) },
			OnStop:   func() { i.publish(dto.Event{Kind: dto.EventScanStop}) },
			OnClose:  func() { i.publish(dto.Event{Kind: dto.EventScanClose}) },
			OnError:  func(err error) { i.publish(dto.Event{Kind: dto.EventScanError, Err: err.Error()}) },
		}),
		domain.WithStreamHooks(domain.StreamHooks{
			OnStart: func(s mediadomain.Stream) { i.publish(dto.Event{Kind: dto.EventStreamStart, StreamID: s.ID()}) },
			OnStop:  func() { i.publish(dto.Event{Kind: dto.EventStreamStop}) },
			OnError: func(err error) { i.publish(dto.Event{Kind: dto.EventStreamError, Err: err.Error()}) },
		}),
	)
	return i
}

func (i *Interactor) publish(ev dto.Event) {
	i.mu.Lock()
	subs := make([]func(dto.Event), 0, len(i.subs))
	for _, key := range slices.Sorted(maps.Keys(i.subs)) {
		subs = append(subs, i.subs[key])
	}
	i.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (i *Interactor) Subscribe(fn func(dto.Event)) func() {
	i.mu.Lock()
	key := i.next
	i.next++
	i.subs[key] = fn
	i.mu.Unlock()
	return func() {
		i.mu.Lock()
		delete(i.subs, key)
		i.mu.Unlock()
	}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error) {
	return i.engine.Start(ctx, input)
}

func (i *Interactor) Stop(ctx context.Context) error {
	return i.engine.Stop(ctx)
}

func (i *Interactor) Inspect(ctx context.Context) (mediadto.InspectOutput, error) {
	return i.engine.Inspect(ctx)
}

func (i *Interactor) SetScanning(on bool) {
	i.engine.SetScanning(on)
}

func (i *Interactor) Status(ctx context.Context) dto.Status {
	return i.engine.Status(ctx)
}

func (i *Interactor) Follow(ctx context.Context) error {
	if i.options == nil {
		<-ctx.Done()
		return nil
	}
	return i.engine.Follow(ctx, i.options)
}

func (i *Interactor) Close(ctx context.Context) error {
	return i.engine.Close(ctx)
}
