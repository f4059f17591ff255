package video

import (
	"sync"
)

// URLResolver maps object URLs back to streams.
type URLResolver interface {
	Resolve(url string) (Stream, bool)
}

// ElementOption disables attachment mechanisms to model degraded hosts.
type ElementOption func(*Element)

// WithoutSrcObject removes direct source assignment.
func WithoutSrcObject() ElementOption {
	return func(e *Element) { e.noSrcObject = true }
}

// WithoutLegacySrcObject removes the vendor-prefixed assignment.
func WithoutLegacySrcObject() ElementOption {
	return func(e *Element) { e.noLegacy = true }
}

// Element is a video-producing sink, the analogue of an HTML video element.
type Element struct {
	mu       sync.RWMutex
	stream   Stream
	src      string
	resolver URLResolver

	noSrcObject bool
	noLegacy    bool
}

func NewElement(resolver URLResolver, opts ...ElementOption) *Element {
	e := &Element{resolver: resolver}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetSrcObject assigns the stream directly. A nil stream detaches.
func (e *Element) SetSrcObject(stream Stream) error {
	if e.noSrcObject {
		return ErrAttachUnsupported
	}
	e.assign(stream, "")
	return nil
}

// SetLegacySrcObject is the vendor-prefixed assignment kept by older hosts.
func (e *Element) SetLegacySrcObject(stream Stream) error {
	if e.noLegacy {
		return ErrAttachUnsupported
	}
	e.assign(stream, "")
	return nil
}

// SetSrc assigns an object URL. The empty string detaches.
func (e *Element) SetSrc(url string) error {
	if url == "" {
		e.assign(nil, "")
		return nil
	}
	if e.resolver == nil {
		return ErrAttachUnsupported
	}
	stream, ok := e.resolver.Resolve(url)
	if !ok {
		return ErrUnknownObjectURL
	}
	e.assign(stream, url)
	return nil
}

func (e *Element) assign(stream Stream, src string) {
	e.mu.Lock()
	e.stream = stream
	e.src = src
	e.mu.Unlock()
}

// Src returns the object URL currently assigned, if any.
func (e *Element) Src() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.src
}

// SrcObject returns the attached stream or nil.
func (e *Element) SrcObject() Stream {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stream
}

// CurrentFrame returns the frame currently presented.
func (e *Element) CurrentFrame() (Frame, bool) {
	stream := e.SrcObject()
	if stream == nil {
		return Frame{}, false
	}
	producer := stream.VideoFrames()
	if producer == nil {
		return Frame{}, false
	}
	frame, ok := producer.LatestFrame()
	if !ok || frame.Image == nil {
		return Frame{}, false
	}
	return frame, true
}

func (e *Element) ReadyState() ReadyState {
	if e.SrcObject() == nil {
		return HaveNothing
	}
	if _, ok := e.CurrentFrame(); !ok {
		return HaveMetadata
	}
	return HaveEnoughData
}

// VideoSize reports the intrinsic size of the current frame, zero when none.
func (e *Element) VideoSize() (int, int) {
	frame, ok := e.CurrentFrame()
	if !ok {
		return 0, 0
	}
	b := frame.Image.Bounds()
	return b.Dx(), b.Dy()
}
