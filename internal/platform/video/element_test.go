package video

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"
)

type stubProducer struct {
	frame Frame
	ok    bool
}

func (p stubProducer) LatestFrame() (Frame, bool) { return p.frame, p.ok }

type stubStream struct {
	id       string
	producer FrameProducer
}

func (s stubStream) ID() string                 { return s.id }
func (s stubStream) VideoFrames() FrameProducer { return s.producer }

func TestElementReadyStateProgression(t *testing.T) {
	t.Parallel()
	el := NewElement(nil)
	if el.ReadyState() != HaveNothing {
		t.Fatalf("expected have_nothing, got %s", el.ReadyState())
	}
	pending := stubStream{id: "s1", producer: stubProducer{}}
	if err := el.SetSrcObject(pending); err != nil {
		t.Fatalf("set src object: %v", err)
	}
	if el.ReadyState() != HaveMetadata {
		t.Fatalf("expected have_metadata, got %s", el.ReadyState())
	}
	live := stubStream{id: "s2", producer: stubProducer{ok: true, frame: Frame{Image: image.NewRGBA(image.Rect(0, 0, 4, 3)), Timestamp: time.Now()}}}
	if err := el.SetSrcObject(live); err != nil {
		t.Fatalf("set src object: %v", err)
	}
	if el.ReadyState() != HaveEnoughData {
		t.Fatalf("expected have_enough_data, got %s", el.ReadyState())
	}
	w, h := el.VideoSize()
	if w != 4 || h != 3 {
		t.Fatalf("unexpected size %dx%d", w, h)
	}
}

func TestElementDegradedModes(t *testing.T) {
	t.Parallel()
	registry := NewObjectURLRegistry()
	el := NewElement(registry, WithoutSrcObject(), WithoutLegacySrcObject())
	stream := stubStream{id: "s"}
	if err := el.SetSrcObject(stream); !errors.Is(err, ErrAttachUnsupported) {
		t.Fatalf("expected ErrAttachUnsupported, got %v", err)
	}
	if err := el.SetLegacySrcObject(stream); !errors.Is(err, ErrAttachUnsupported) {
		t.Fatalf("expected ErrAttachUnsupported, got %v", err)
	}
	url := registry.Create(stream)
	if !strings.HasPrefix(url, objectURLPrefix) {
		t.Fatalf("unexpected url %s", url)
	}
	if err := el.SetSrc(url); err != nil {
		t.Fatalf("set src: %v", err)
	}
	if el.SrcObject() == nil || el.SrcObject().ID() != "s" {
		t.Fatalf("expected stream resolved from url")
	}
	registry.Revoke(url)
	if err := el.SetSrc(url); !errors.Is(err, ErrUnknownObjectURL) {
		t.Fatalf("expected ErrUnknownObjectURL, got %v", err)
	}
	if err := el.SetSrc(""); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if el.SrcObject() != nil {
		t.Fatalf("expected detached element")
	}
}
