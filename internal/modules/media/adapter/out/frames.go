package out

import (
	"image"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"vscan/internal/modules/media/domain"
	"vscan/internal/platform/video"
)

// frameSlot holds the most recent frame of a video track.
type frameSlot struct {
	mu    sync.RWMutex
	frame video.Frame
	ok    bool
}

func (s *frameSlot) publish(f video.Frame) {
	s.mu.Lock()
	s.frame = f
	s.ok = true
	s.mu.Unlock()
}

func (s *frameSlot) clear() {
	s.mu.Lock()
	s.frame = video.Frame{}
	s.ok = false
	s.mu.Unlock()
}

func (s *frameSlot) LatestFrame() (video.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.ok
}

// deviceStream is the stream handed out by the providers in this package.
type deviceStream struct {
	id     string
	track  domain.Track
	frames *frameSlot
}

func newDeviceStream(track domain.Track, frames *frameSlot) *deviceStream {
	return &deviceStream{id: uuid.NewString(), track: track, frames: frames}
}

func (s *deviceStream) ID() string { return s.id }

func (s *deviceStream) Tracks() []domain.Track { return []domain.Track{s.track} }

func (s *deviceStream) VideoFrames() video.FrameProducer {
	if s.track.Ended() {
		return nil
	}
	return s.frames
}

// scaleToRGBA resamples src to w x h. A zero size keeps the source size.
func scaleToRGBA(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	if w <= 0 || h <= 0 {
		w, h = b.Dx(), b.Dy()
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// frameSize resolves the output size for c against caps, keeping the
// natural aspect ratio when only one side is constrained.
func frameSize(c domain.TrackConstraints, caps domain.Capabilities, naturalW, naturalH int) (int, int) {
	w := int(c.Width.Pick(caps.Width, float64(naturalW)))
	h := int(c.Height.Pick(caps.Height, float64(naturalH)))
	switch {
	case !c.Width.IsZero() && c.Height.IsZero() && naturalW > 0:
		h = w * naturalH / naturalW
	case c.Width.IsZero() && !c.Height.IsZero() && naturalH > 0:
		w = h * naturalW / naturalH
	}
	return max(w, 1), max(h, 1)
}

func frameRate(c domain.TrackConstraints, caps domain.Capabilities, fallback float64) float64 {
	fps := c.FrameRate.Pick(caps.FrameRate, fallback)
	if fps <= 0 {
		return fallback
	}
	return fps
}

// checkRequired rejects constraints whose required bounds no capability range
// can satisfy.
func checkRequired(c domain.TrackConstraints, caps domain.Capabilities) error {
	if !c.Width.Satisfiable(caps.Width) || !c.Height.Satisfiable(caps.Height) ||
		!c.FrameRate.Satisfiable(caps.FrameRate) || !c.Zoom.Satisfiable(caps.Zoom) {
		return domain.ErrOverconstrained
	}
	if c.Torch != nil && *c.Torch && !caps.Torch {
		return domain.ErrOverconstrained
	}
	return nil
}
