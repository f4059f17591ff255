// Package video models the element a stream is attached to and frames are
// read from. The media controller writes the source, the scan loop reads
// frames; neither touches the other's state.
package video

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrAttachUnsupported is returned by an element that lacks an
	// attachment mechanism.
	ErrAttachUnsupported = errors.New("attachment mechanism unsupported")
	ErrUnknownObjectURL  = errors.New("unknown object url")
)

// ImageData is a raw RGBA pixel buffer, four bytes per pixel, row major.
type ImageData struct {
	Data   []byte
	Width  int
	Height int
}

func (d ImageData) Empty() bool {
	return d.Width == 0 || d.Height == 0 || len(d.Data) == 0
}

// Frame is one decoded picture from a video track. Frames are shared between
// readers and must not be modified after publication.
type Frame struct {
	Image     *image.RGBA
	Timestamp time.Time
}

// FrameProducer exposes the latest frame of a running video track.
type FrameProducer interface {
	// LatestFrame returns false until the first frame has arrived or after
	// the track has ended.
	LatestFrame() (Frame, bool)
}

// Stream is the part of a media stream an element needs.
type Stream interface {
	ID() string
	// VideoFrames returns nil when the stream carries no live video track.
	VideoFrames() FrameProducer
}

// ReadyState mirrors how much media an element can present.
type ReadyState int

const (
	HaveNothing ReadyState = iota
	HaveMetadata
	HaveEnoughData
)

func (s ReadyState) String() string {
	switch s {
	case HaveMetadata:
		return "have_metadata"
	case HaveEnoughData:
		return "have_enough_data"
	default:
		return "have_nothing"
	}
}
