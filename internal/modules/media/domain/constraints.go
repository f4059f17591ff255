package domain

import (
	"reflect"
)

// ConstrainNumber is a numeric constraint. Zero fields are unset.
type ConstrainNumber struct {
	Min   float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max   float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Ideal float64 `yaml:"ideal,omitempty" json:"ideal,omitempty"`
	Exact float64 `yaml:"exact,omitempty" json:"exact,omitempty"`
}

func (c ConstrainNumber) IsZero() bool {
	return c == ConstrainNumber{}
}

// Pick chooses a value inside r honouring exact, then ideal, then the bounds.
// fallback is used when nothing is set.
func (c ConstrainNumber) Pick(r NumberRange, fallback float64) float64 {
	v := fallback
	switch {
	case c.Exact != 0:
		v = c.Exact
	case c.Ideal != 0:
		v = c.Ideal
	}
	if c.Min != 0 && v < c.Min {
		v = c.Min
	}
	if c.Max != 0 && v > c.Max {
		v = c.Max
	}
	return r.Clamp(v)
}

// Satisfiable reports whether a required (exact/min/max) constraint fits r.
func (c ConstrainNumber) Satisfiable(r NumberRange) bool {
	if r.IsZero() {
		return true
	}
	if c.Exact != 0 && (c.Exact < r.Min || c.Exact > r.Max) {
		return false
	}
	if c.Min != 0 && c.Min > r.Max {
		return false
	}
	if c.Max != 0 && c.Max < r.Min {
		return false
	}
	return true
}

// TrackConstraints are the constraints applicable to one track.
type TrackConstraints struct {
	DeviceID         string          `yaml:"device_id,omitempty" json:"device_id,omitempty"`
	FacingMode       string          `yaml:"facing_mode,omitempty" json:"facing_mode,omitempty"`
	Width            ConstrainNumber `yaml:"width,omitempty" json:"width,omitempty"`
	Height           ConstrainNumber `yaml:"height,omitempty" json:"height,omitempty"`
	FrameRate        ConstrainNumber `yaml:"frame_rate,omitempty" json:"frame_rate,omitempty"`
	AspectRatio      ConstrainNumber `yaml:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`
	Zoom             ConstrainNumber `yaml:"zoom,omitempty" json:"zoom,omitempty"`
	Torch            *bool           `yaml:"torch,omitempty" json:"torch,omitempty"`
	SampleRate       ConstrainNumber `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	ChannelCount     ConstrainNumber `yaml:"channel_count,omitempty" json:"channel_count,omitempty"`
	EchoCancellation *bool           `yaml:"echo_cancellation,omitempty" json:"echo_cancellation,omitempty"`
}

// StreamConstraints is the device request. A nil track entry is not requested.
type StreamConstraints struct {
	Video *TrackConstraints `yaml:"video,omitempty" json:"video,omitempty"`
	Audio *TrackConstraints `yaml:"audio,omitempty" json:"audio,omitempty"`
}

// DefaultStreamConstraints asks for a rear-facing camera without audio.
func DefaultStreamConstraints() StreamConstraints {
	return StreamConstraints{
		Video: &TrackConstraints{
			FacingMode: "environment",
			Width:      ConstrainNumber{Ideal: 1280},
			Height:     ConstrainNumber{Ideal: 720},
		},
	}
}

// InitResolver derives the device request from the constraint names the
// device layer supports. Resolvers compare by pointer, so every
// ResolveInit call yields a distinct resolver.
type InitResolver struct {
	fn func(supported []string) StreamConstraints
}

func ResolveInit(fn func(supported []string) StreamConstraints) *InitResolver {
	return &InitResolver{fn: fn}
}

// TrackResolver derives track constraints from the live track capabilities.
// Like InitResolver it compares by pointer.
type TrackResolver struct {
	fn func(caps Capabilities) TrackConstraints
}

func ResolveTrack(fn func(caps Capabilities) TrackConstraints) *TrackResolver {
	return &TrackResolver{fn: fn}
}

// InitConstraints is either a literal request or a resolver over the
// constraint names the device layer supports.
type InitConstraints struct {
	Value   StreamConstraints
	Resolve *InitResolver
}

func LiteralInit(c StreamConstraints) InitConstraints {
	return InitConstraints{Value: c}
}

func (c InitConstraints) For(supported []string) StreamConstraints {
	if c.Resolve != nil && c.Resolve.fn != nil {
		return c.Resolve.fn(supported)
	}
	return c.Value
}

// TrackConstraintsSource is either a literal, a resolver over the live track
// capabilities, or nothing.
type TrackConstraintsSource struct {
	Value   *TrackConstraints
	Resolve *TrackResolver
}

func LiteralTrack(c TrackConstraints) TrackConstraintsSource {
	return TrackConstraintsSource{Value: &c}
}

func (s TrackConstraintsSource) IsZero() bool {
	return s.Value == nil && s.Resolve == nil
}

// For resolves the constraints against caps. ok is false when nothing is set.
func (s TrackConstraintsSource) For(caps Capabilities) (TrackConstraints, bool) {
	switch {
	case s.Resolve != nil && s.Resolve.fn != nil:
		return s.Resolve.fn(caps), true
	case s.Value != nil:
		return *s.Value, true
	default:
		return TrackConstraints{}, false
	}
}

// SameInit compares init constraints by value. Resolvers compare by pointer.
func SameInit(a, b InitConstraints) bool {
	return a.Resolve == b.Resolve && reflect.DeepEqual(a.Value, b.Value)
}

// SameTrack is the shallow comparison used to decide whether constraints must
// be re-applied: literal fields by value, resolvers by pointer.
func SameTrack(a, b TrackConstraintsSource) bool {
	if a.Resolve != b.Resolve {
		return false
	}
	if a.Value == nil || b.Value == nil {
		return a.Value == nil && b.Value == nil
	}
	return reflect.DeepEqual(*a.Value, *b.Value)
}
