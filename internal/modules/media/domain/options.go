package domain

import "time"

const DefaultCapabilitiesTimeout = 500 * time.Millisecond

// Options is the media slice of the engine configuration.
type Options struct {
	InitConstraints        InitConstraints
	VideoConstraints       TrackConstraintsSource
	AudioConstraints       TrackConstraintsSource
	GetCapabilitiesTimeout time.Duration

	OnStreamStart   func(Stream)
	OnStreamStop    func()
	OnStreamUpdate  func(Stream)
	OnStreamInspect func(*Inspection)
	OnStreamError   func(error)
}

func DefaultOptions() Options {
	return Options{
		InitConstraints:        LiteralInit(DefaultStreamConstraints()),
		GetCapabilitiesTimeout: DefaultCapabilitiesTimeout,
	}
}

func (o Options) CapabilitiesTimeout() time.Duration {
	if o.GetCapabilitiesTimeout <= 0 {
		return DefaultCapabilitiesTimeout
	}
	return o.GetCapabilitiesTimeout
}

// ConstraintsFor selects the track constraints configured for kind.
func (o Options) ConstraintsFor(kind TrackKind) TrackConstraintsSource {
	if kind == TrackKindAudio {
		return o.AudioConstraints
	}
	return o.VideoConstraints
}
