package domain_test

import (
	"testing"

	"vscan/internal/modules/media/domain"
)

func TestConstrainNumberPick(t *testing.T) {
	t.Parallel()
	r := domain.NumberRange{Min: 100, Max: 1000}
	cases := []struct {
		name string
		c    domain.ConstrainNumber
		want float64
	}{
		{name: "fallback", c: domain.ConstrainNumber{}, want: 640},
		{name: "ideal", c: domain.ConstrainNumber{Ideal: 800}, want: 800},
		{name: "exact wins", c: domain.ConstrainNumber{Ideal: 800, Exact: 300}, want: 300},
		{name: "clamped to range", c: domain.ConstrainNumber{Ideal: 5000}, want: 1000},
		{name: "min bound", c: domain.ConstrainNumber{Ideal: 200, Min: 400}, want: 400},
	}
	for _, tc := range cases {
		if got := tc.c.Pick(r, 640); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
	if (domain.ConstrainNumber{Exact: 2000}).Satisfiable(r) {
		t.Fatalf("exact outside range must not be satisfiable")
	}
}

func TestSameTrackComparesLiteralsByValueAndResolversByIdentity(t *testing.T) {
	t.Parallel()
	a := domain.LiteralTrack(domain.TrackConstraints{FacingMode: "user"})
	b := domain.LiteralTrack(domain.TrackConstraints{FacingMode: "user"})
	if !domain.SameTrack(a, b) {
		t.Fatalf("equal literals must compare equal")
	}
	if domain.SameTrack(a, domain.LiteralTrack(domain.TrackConstraints{FacingMode: "environment"})) {
		t.Fatalf("different literals must differ")
	}
	if domain.SameTrack(a, domain.TrackConstraintsSource{}) {
		t.Fatalf("literal and empty must differ")
	}

	resolve := domain.ResolveTrack(func(domain.Capabilities) domain.TrackConstraints { return domain.TrackConstraints{} })
	if !domain.SameTrack(domain.TrackConstraintsSource{Resolve: resolve}, domain.TrackConstraintsSource{Resolve: resolve}) {
		t.Fatalf("same resolver must compare equal")
	}
}

//go:noinline
func facingResolver(mode string) *domain.TrackResolver {
	return domain.ResolveTrack(func(domain.Capabilities) domain.TrackConstraints {
		return domain.TrackConstraints{FacingMode: mode}
	})
}

//go:noinline
func facingInit(mode string) domain.InitConstraints {
	return domain.InitConstraints{Resolve: domain.ResolveInit(func([]string) domain.StreamConstraints {
		return domain.StreamConstraints{Video: &domain.TrackConstraints{FacingMode: mode}}
	})}
}

func TestResolversFromOneFactoryAreDistinct(t *testing.T) {
	t.Parallel()
	front := domain.TrackConstraintsSource{Resolve: facingResolver("front")}
	rear := domain.TrackConstraintsSource{Resolve: facingResolver("rear")}
	if domain.SameTrack(front, rear) {
		t.Fatalf("resolvers yielding front and rear must differ")
	}
	if got, _ := rear.For(domain.Capabilities{}); got.FacingMode != "rear" {
		t.Fatalf("expected rear, got %q", got.FacingMode)
	}

	initFront, initRear := facingInit("front"), facingInit("rear")
	if domain.SameInit(initFront, initRear) {
		t.Fatalf("init resolvers selecting front and rear must differ")
	}
	if !domain.SameInit(initFront, initFront) {
		t.Fatalf("an init resolver must equal itself")
	}
	if got := initRear.For(nil); got.Video == nil || got.Video.FacingMode != "rear" {
		t.Fatalf("expected rear request, got %+v", got)
	}
}

func TestActionPhase(t *testing.T) {
	t.Parallel()
	if (domain.Action{Kind: domain.ActionStop}).Live() {
		t.Fatalf("stop is never live")
	}
	if got := (domain.Action{Kind: domain.ActionConstrain}).Phase(); got != domain.PhaseConstrained {
		t.Fatalf("got %s", got)
	}
	if domain.PhaseInspected.String() != "inspected" {
		t.Fatalf("unexpected phase name %q", domain.PhaseInspected.String())
	}
}
