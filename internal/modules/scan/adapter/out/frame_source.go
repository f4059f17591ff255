package out

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

// DefaultMaxCanvasPixels bounds the pixel buffer a capture may allocate.
const DefaultMaxCanvasPixels = 16384 * 16384

// ElementFrameSource copies the frame an element presents into a tightly
// packed RGBA buffer.
type ElementFrameSource struct {
	element   *video.Element
	maxPixels int
}

func NewElementFrameSource(element *video.Element, maxPixels int) *ElementFrameSource {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxCanvasPixels
	}
	return &ElementFrameSource{element: element, maxPixels: maxPixels}
}

func (s *ElementFrameSource) CaptureFrame() (video.ImageData, error) {
	if s.element == nil {
		return video.ImageData{}, domain.ErrCanvasUnavailable
	}
	if s.element.ReadyState() < video.HaveEnoughData {
		return video.ImageData{}, nil
	}
	frame, ok := s.element.CurrentFrame()
	if !ok {
		return video.ImageData{}, nil
	}
	b := frame.Image.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return video.ImageData{}, nil
	}
	if w*h > s.maxPixels {
		return video.ImageData{}, fmt.Errorf("%w: %dx%d frame exceeds %d pixels", domain.ErrCanvasUnavailable, w, h, s.maxPixels)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), frame.Image, b.Min, draw.Src)
	return video.ImageData{Data: canvas.Pix, Width: w, Height: h}, nil
}
