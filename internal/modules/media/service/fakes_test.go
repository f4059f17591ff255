package service_test

import (
	"context"
	"fmt"
	"sync"

	"vscan/internal/modules/media/domain"
	"vscan/internal/platform/video"
)

type fakeTrack struct {
	id    string
	kind  domain.TrackKind
	caps  domain.Capabilities
	block bool
	log   func(op string)

	mu      sync.Mutex
	applied []domain.TrackConstraints
	stopped bool
}

func (t *fakeTrack) ID() string             { return t.id }
func (t *fakeTrack) Kind() domain.TrackKind { return t.kind }
func (t *fakeTrack) Label() string          { return "fake " + string(t.kind) }
func (t *fakeTrack) Settings() domain.TrackConstraints {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.applied) == 0 {
		return domain.TrackConstraints{}
	}
	return t.applied[len(t.applied)-1]
}

func (t *fakeTrack) Capabilities(ctx context.Context) (domain.Capabilities, error) {
	t.log("caps:" + t.id)
	if t.block {
		<-ctx.Done()
		return domain.Capabilities{}, ctx.Err()
	}
	return t.caps, nil
}

func (t *fakeTrack) ApplyConstraints(_ context.Context, c domain.TrackConstraints) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.applied = append(t.applied, c)
	return nil
}

func (t *fakeTrack) Stop() {
	t.log("stop:" + t.id)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

func (t *fakeTrack) appliedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.applied)
}

type fakeStream struct {
	id     string
	tracks []domain.Track
}

func (s *fakeStream) ID() string                       { return s.id }
func (s *fakeStream) VideoFrames() video.FrameProducer { return nil }
func (s *fakeStream) Tracks() []domain.Track           { return s.tracks }

func (s *fakeStream) video() *fakeTrack {
	return s.tracks[0].(*fakeTrack)
}

type fakeProvider struct {
	unavailable bool
	blockCaps   bool
	err         error
	// entered receives a value when GetUserMedia is called; gate, when set,
	// holds the call until it is closed.
	entered chan struct{}
	gate    chan struct{}

	mu      sync.Mutex
	streams []*fakeStream
	got     []domain.StreamConstraints
	ops     []string
}

func (p *fakeProvider) Available() bool { return !p.unavailable }
func (p *fakeProvider) SupportedConstraints() []string {
	return []string{"facingMode", "width", "height"}
}

func (p *fakeProvider) GetUserMedia(_ context.Context, c domain.StreamConstraints) (domain.Stream, error) {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, c)
	p.ops = append(p.ops, "get")
	if p.err != nil {
		return nil, p.err
	}
	n := len(p.streams) + 1
	s := &fakeStream{
		id: fmt.Sprintf("stream-%d", n),
		tracks: []domain.Track{
			&fakeTrack{
				id:    fmt.Sprintf("video-%d", n),
				kind:  domain.TrackKindVideo,
				caps:  domain.Capabilities{Width: domain.NumberRange{Min: 320, Max: 1920}},
				block: p.blockCaps,
				log:   p.record,
			},
			&fakeTrack{id: fmt.Sprintf("audio-%d", n), kind: domain.TrackKindAudio, log: p.record},
		},
	}
	p.streams = append(p.streams, s)
	return s, nil
}

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

func (p *fakeProvider) record(op string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ops = append(p.ops, op)
}

// operations lists device-side calls in the order they happened.
func (p *fakeProvider) operations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}

func (p *fakeProvider) stream(i int) *fakeStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streams[i]
}

type secureEnv bool

func (e secureEnv) SecureContext() bool { return bool(e) }

// recorder collects callback names in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) hooks(o *domain.Options) {
	o.OnStreamStart = func(s domain.Stream) { r.add("start:" + s.ID()) }
	o.OnStreamStop = func() { r.add("stop") }
	o.OnStreamUpdate = func(s domain.Stream) { r.add("update:" + s.ID()) }
	o.OnStreamInspect = func(i *domain.Inspection) {
		if i == nil {
			r.add("inspect:nil")
			return
		}
		r.add("inspect")
	}
	o.OnStreamError = func(error) { r.add("error") }
}
