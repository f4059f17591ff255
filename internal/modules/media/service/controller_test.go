package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"vscan/internal/modules/media/domain"
	"vscan/internal/modules/media/service"
	"vscan/internal/platform/reactive"
	"vscan/internal/platform/video"
)

func newController(t *testing.T, provider *fakeProvider, sink *video.Element, urls *video.ObjectURLRegistry, configure func(*domain.Options)) (*service.Controller, *reactive.Store[domain.Options], *recorder) {
	t.Helper()
	rec := &recorder{}
	opts := domain.DefaultOptions()
	rec.hooks(&opts)
	if configure != nil {
		configure(&opts)
	}
	store := reactive.NewStore(opts)
	deps := service.Deps{
		Environment: secureEnv(true),
		Provider:    provider,
		Options:     store,
	}
	if sink != nil {
		deps.Sink = sink
	}
	if urls != nil {
		deps.ObjectURLs = urls
	}
	return service.NewController(deps), store, rec
}

// drain closes the controller and waits until every callback has run.
func drain(t *testing.T, c *service.Controller) {
	t.Helper()
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("controller did not finish")
	}
}

func TestStartThenStopRunsInSubmissionOrder(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	c, _, rec := newController(t, provider, nil, nil, nil)

	startErr := make(chan error, 1)
	go func() {
		_, _, err := c.Start(context.Background(), nil)
		startErr <- err
	}()
	<-provider.entered

	stopErr := make(chan error, 1)
	go func() { stopErr <- c.Stop(context.Background()) }()
	deadline := time.Now().Add(time.Second)
	for c.Pending() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("stop was not queued behind start")
		}
		time.Sleep(time.Millisecond)
	}
	if c.Phase() != domain.PhaseStopped {
		t.Fatalf("expected stopped while start pending, got %s", c.Phase())
	}

	close(provider.gate)
	if err := <-startErr; err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := <-stopErr; err != nil {
		t.Fatalf("stop: %v", err)
	}
	if c.Phase() != domain.PhaseStopped {
		t.Fatalf("expected stopped, got %s", c.Phase())
	}
	if !provider.stream(0).video().Ended() {
		t.Fatalf("expected tracks to be stopped")
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestStartInspectStopRunOnDeviceInSubmissionOrder(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{entered: make(chan struct{}, 1), gate: make(chan struct{})}
	c, _, rec := newController(t, provider, nil, nil, nil)

	errs := make(chan error, 3)
	go func() {
		_, _, err := c.Start(context.Background(), nil)
		errs <- err
	}()
	<-provider.entered

	// Queue each request only after the previous one is waiting, so the
	// submission order is known.
	waitPending := func(n int) {
		t.Helper()
		deadline := time.Now().Add(time.Second)
		for c.Pending() != n {
			if time.Now().After(deadline) {
				t.Fatalf("expected %d queued requests, got %d", n, c.Pending())
			}
			time.Sleep(time.Millisecond)
		}
	}
	go func() {
		_, err := c.Inspect(context.Background())
		errs <- err
	}()
	waitPending(1)
	go func() { errs <- c.Stop(context.Background()) }()
	waitPending(2)

	close(provider.gate)
	for i := 0; i < 3; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	want := []string{"get", "caps:video-1", "caps:audio-1", "stop:video-1", "stop:audio-1"}
	if got := provider.operations(); !reflect.DeepEqual(got, want) {
		t.Fatalf("device operations = %v, want %v", got, want)
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "inspect", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestStartAfterInspectReacquires(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, _, rec := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.Inspect(context.Background()); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	action, reused, err := c.Start(context.Background(), nil)
	if err != nil || reused {
		t.Fatalf("start after inspect: reused=%v err=%v", reused, err)
	}
	if provider.calls() != 2 {
		t.Fatalf("expected two acquisitions, got %d", provider.calls())
	}
	first := provider.stream(0)
	for _, track := range first.tracks {
		if !track.Ended() {
			t.Fatalf("expected %s of the first stream ended", track.ID())
		}
	}
	if action.Stream.ID() != "stream-2" || c.Phase() != domain.PhaseStarted {
		t.Fatalf("expected stream-2 started, got %s in %s", action.Stream.ID(), c.Phase())
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "inspect", "start:stream-2", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestStartAfterConstrainReacquires(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, store, rec := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	store.Update(func(o *domain.Options) {
		o.VideoConstraints = domain.LiteralTrack(domain.TrackConstraints{Zoom: domain.ConstrainNumber{Ideal: 3}})
	})

	// The constrain request is queued ahead of this start.
	action, reused, err := c.Start(context.Background(), nil)
	if err != nil || reused {
		t.Fatalf("start after constrain: reused=%v err=%v", reused, err)
	}
	if provider.calls() != 2 {
		t.Fatalf("expected two acquisitions, got %d", provider.calls())
	}
	first := provider.stream(0)
	if first.video().appliedCount() != 1 {
		t.Fatalf("expected the first stream constrained once, got %d", first.video().appliedCount())
	}
	for _, track := range first.tracks {
		if !track.Ended() {
			t.Fatalf("expected %s of the first stream ended", track.ID())
		}
	}
	if action.Stream.ID() != "stream-2" {
		t.Fatalf("expected stream-2, got %s", action.Stream.ID())
	}
	if got := provider.stream(1).video().Settings().Zoom.Ideal; got != 3 {
		t.Fatalf("expected constraints applied to the new stream, got zoom %v", got)
	}
	drain(t, c)
	want := []string{"start:stream-1", "update:stream-1", "start:stream-2", "stop"}
	if got := rec.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

//go:noinline
func facing(mode string) *domain.TrackResolver {
	return domain.ResolveTrack(func(domain.Capabilities) domain.TrackConstraints {
		return domain.TrackConstraints{FacingMode: mode}
	})
}

func TestNewResolverFromSameFactoryIsReapplied(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, store, _ := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, mode := range []string{"front", "rear"} {
		store.Update(func(o *domain.Options) {
			o.VideoConstraints = domain.TrackConstraintsSource{Resolve: facing(mode)}
		})
	}
	// Flush the queued constrain requests.
	if _, err := c.Inspect(context.Background()); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	track := provider.stream(0).video()
	if track.appliedCount() != 2 || track.Settings().FacingMode != "rear" {
		t.Fatalf("expected two applications ending in rear, got %d ending in %+v", track.appliedCount(), track.Settings())
	}
	drain(t, c)
}

func TestStartWithOtherInitResolverReacquires(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, _, _ := newController(t, provider, nil, nil, nil)
	initFor := func(mode string) domain.InitConstraints {
		return domain.InitConstraints{Resolve: domain.ResolveInit(func([]string) domain.StreamConstraints {
			return domain.StreamConstraints{Video: &domain.TrackConstraints{FacingMode: mode}}
		})}
	}
	front, rear := initFor("front"), initFor("rear")
	if _, _, err := c.Start(context.Background(), &front); err != nil {
		t.Fatalf("start front: %v", err)
	}
	if _, reused, err := c.Start(context.Background(), &rear); err != nil || reused {
		t.Fatalf("start rear: reused=%v err=%v", reused, err)
	}
	if provider.calls() != 2 {
		t.Fatalf("expected two acquisitions, got %d", provider.calls())
	}
	drain(t, c)
}

func TestStopWhenStoppedIsSilent(t *testing.T) {
	t.Parallel()
	c, _, rec := newController(t, &fakeProvider{}, nil, nil, nil)
	for i := 0; i < 3; i++ {
		if err := c.Stop(context.Background()); err != nil {
			t.Fatalf("stop %d: %v", i, err)
		}
	}
	drain(t, c)
	if got := rec.list(); len(got) != 0 {
		t.Fatalf("expected no callbacks, got %v", got)
	}
}

func TestStartReusesStreamForIdenticalInit(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, _, rec := newController(t, provider, nil, nil, nil)

	first, reused, err := c.Start(context.Background(), nil)
	if err != nil || reused {
		t.Fatalf("first start: reused=%v err=%v", reused, err)
	}
	second, reused, err := c.Start(context.Background(), nil)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !reused || second.Stream.ID() != first.Stream.ID() {
		t.Fatalf("expected reuse of %s, got %s reused=%v", first.Stream.ID(), second.Stream.ID(), reused)
	}
	if provider.calls() != 1 {
		t.Fatalf("expected one acquisition, got %d", provider.calls())
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestStartWithNewInitReplacesStream(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, _, _ := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	front := domain.LiteralInit(domain.StreamConstraints{Video: &domain.TrackConstraints{FacingMode: "user"}})
	action, reused, err := c.Start(context.Background(), &front)
	if err != nil || reused {
		t.Fatalf("restart: reused=%v err=%v", reused, err)
	}
	if action.Stream.ID() != "stream-2" {
		t.Fatalf("expected new stream, got %s", action.Stream.ID())
	}
	if !provider.stream(0).video().Ended() {
		t.Fatalf("expected previous stream released")
	}
	drain(t, c)
}

func TestStartRejectedOutsideSecureContext(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c := service.NewController(service.Deps{Environment: secureEnv(false), Provider: provider})
	defer drain(t, c)
	if _, _, err := c.Start(context.Background(), nil); !errors.Is(err, domain.ErrSecurity) {
		t.Fatalf("expected security error, got %v", err)
	}
	if provider.calls() != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestStartWithoutProviderIsNotSupported(t *testing.T) {
	t.Parallel()
	c := service.NewController(service.Deps{Provider: &fakeProvider{unavailable: true}})
	defer drain(t, c)
	if _, _, err := c.Start(context.Background(), nil); !errors.Is(err, domain.ErrNotSupported) {
		t.Fatalf("expected not supported, got %v", err)
	}
}

func TestStartFailureLeavesControllerStopped(t *testing.T) {
	t.Parallel()
	c, _, rec := newController(t, &fakeProvider{err: domain.ErrNotFound}, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if c.Phase() != domain.PhaseStopped {
		t.Fatalf("expected stopped, got %s", c.Phase())
	}
	drain(t, c)
	if got := rec.list(); len(got) != 0 {
		t.Fatalf("expected no callbacks, got %v", got)
	}
}

func TestInspectFallsBackToEmptyCapabilitiesOnTimeout(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{blockCaps: true}
	c, _, rec := newController(t, provider, nil, nil, func(o *domain.Options) {
		o.GetCapabilitiesTimeout = 20 * time.Millisecond
	})
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	began := time.Now()
	inspection, err := c.Inspect(context.Background())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if elapsed := time.Since(began); elapsed > time.Second {
		t.Fatalf("inspect waited %s", elapsed)
	}
	if inspection == nil || len(inspection.Video) != 1 || len(inspection.Audio) != 1 {
		t.Fatalf("unexpected inspection: %+v", inspection)
	}
	if !inspection.Video[0].Capabilities.IsEmpty() {
		t.Fatalf("expected empty capabilities, got %+v", inspection.Video[0].Capabilities)
	}
	if c.Phase() != domain.PhaseInspected {
		t.Fatalf("expected inspected, got %s", c.Phase())
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "inspect", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestInspectWhenStoppedReportsNil(t *testing.T) {
	t.Parallel()
	c, _, rec := newController(t, &fakeProvider{}, nil, nil, nil)
	inspection, err := c.Inspect(context.Background())
	if err != nil || inspection != nil {
		t.Fatalf("expected nil inspection, got %+v err=%v", inspection, err)
	}
	drain(t, c)
	if got, want := rec.list(), []string{"inspect:nil"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestTrackConstraintsDeferredUntilStart(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, store, rec := newController(t, provider, nil, nil, nil)

	store.Update(func(o *domain.Options) {
		o.VideoConstraints = domain.LiteralTrack(domain.TrackConstraints{Zoom: domain.ConstrainNumber{Ideal: 2}})
	})
	// The queued constrain runs against a stopped controller.
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if provider.calls() != 0 {
		t.Fatalf("constraints must not acquire a stream")
	}

	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	track := provider.stream(0).video()
	if track.appliedCount() != 1 || track.Settings().Zoom.Ideal != 2 {
		t.Fatalf("expected zoom applied at start, got %+v", track.Settings())
	}
	drain(t, c)
	if got, want := rec.list(), []string{"start:stream-1", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestTrackConstraintsChangeReappliesToLiveStream(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, store, rec := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}

	resolve := domain.ResolveTrack(func(caps domain.Capabilities) domain.TrackConstraints {
		return domain.TrackConstraints{Width: domain.ConstrainNumber{Exact: caps.Width.Max}}
	})
	store.Update(func(o *domain.Options) {
		o.VideoConstraints = domain.TrackConstraintsSource{Resolve: resolve}
	})
	// An equal update does not re-apply.
	store.Update(func(o *domain.Options) {
		o.VideoConstraints = domain.TrackConstraintsSource{Resolve: resolve}
	})
	if _, err := c.Inspect(context.Background()); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	track := provider.stream(0).video()
	if track.appliedCount() != 1 {
		t.Fatalf("expected one application, got %d", track.appliedCount())
	}
	if track.Settings().Width.Exact != 1920 {
		t.Fatalf("expected resolver to see capabilities, got %+v", track.Settings())
	}
	drain(t, c)
	want := []string{"start:stream-1", "update:stream-1", "inspect", "stop"}
	if got := rec.list(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestAttachDegradesToObjectURL(t *testing.T) {
	t.Parallel()
	urls := video.NewObjectURLRegistry()
	sink := video.NewElement(urls, video.WithoutSrcObject(), video.WithoutLegacySrcObject())
	c, _, _ := newController(t, &fakeProvider{}, sink, urls, nil)

	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	attached := c.Attachment()
	if attached.Mode != service.AttachObjectURL || sink.Src() != attached.URL {
		t.Fatalf("expected object url attachment, got %+v src=%q", attached, sink.Src())
	}
	if sink.SrcObject() == nil || sink.SrcObject().ID() != "stream-1" {
		t.Fatalf("expected element to resolve the stream")
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if urls.Len() != 0 || sink.Src() != "" {
		t.Fatalf("expected url revoked, registry=%d src=%q", urls.Len(), sink.Src())
	}
	drain(t, c)
}

func TestRequestsAfterCloseFail(t *testing.T) {
	t.Parallel()
	provider := &fakeProvider{}
	c, _, rec := newController(t, provider, nil, nil, nil)
	if _, _, err := c.Start(context.Background(), nil); err != nil {
		t.Fatalf("start: %v", err)
	}
	drain(t, c)
	if _, _, err := c.Start(context.Background(), nil); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("expected closed, got %v", err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !provider.stream(0).video().Ended() {
		t.Fatalf("close must release the stream")
	}
	if got, want := rec.list(), []string{"start:stream-1", "stop"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}
