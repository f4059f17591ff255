package domain

import (
	"context"

	"vscan/internal/platform/video"
)

// Track is a live device track owned by the stream it belongs to.
type Track interface {
	ID() string
	Kind() TrackKind
	Label() string
	// Capabilities may block until the device has reported them.
	Capabilities(ctx context.Context) (Capabilities, error)
	ApplyConstraints(ctx context.Context, c TrackConstraints) error
	Settings() TrackConstraints
	Stop()
	Ended() bool
}

// Stream is a device-backed media stream.
type Stream interface {
	video.Stream
	Tracks() []Track
}

func TracksOf(s Stream, kind TrackKind) []Track {
	if s == nil {
		return nil
	}
	out := []Track{}
	for _, t := range s.Tracks() {
		if t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

// StopAll ends every track of s.
func StopAll(s Stream) {
	if s == nil {
		return
	}
	for _, t := range s.Tracks() {
		t.Stop()
	}
}
