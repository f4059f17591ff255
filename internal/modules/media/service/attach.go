package service

import (
	"errors"
	"fmt"

	mediaout "vscan/internal/modules/media/port/out"
	"vscan/internal/platform/video"
)

type AttachMode string

const (
	AttachNone      AttachMode = "none"
	AttachSrcObject AttachMode = "src_object"
	AttachLegacy    AttachMode = "legacy_src_object"
	AttachObjectURL AttachMode = "object_url"
)

type Attachment struct {
	Mode AttachMode
	URL  string
}

// Attach binds stream to sink by the most capable mechanism the sink offers:
// direct assignment, the vendor-prefixed assignment, then an object URL.
func Attach(sink mediaout.Sink, urls mediaout.ObjectURLs, stream video.Stream) (Attachment, error) {
	if sink == nil {
		return Attachment{Mode: AttachNone}, nil
	}
	err := sink.SetSrcObject(stream)
	if err == nil {
		return Attachment{Mode: AttachSrcObject}, nil
	}
	if !errors.Is(err, video.ErrAttachUnsupported) {
		return Attachment{}, fmt.Errorf("set src object: %w", err)
	}
	err = sink.SetLegacySrcObject(stream)
	if err == nil {
		return Attachment{Mode: AttachLegacy}, nil
	}
	if !errors.Is(err, video.ErrAttachUnsupported) {
		return Attachment{}, fmt.Errorf("set legacy src object: %w", err)
	}
	if urls == nil {
		return Attachment{}, fmt.Errorf("object url fallback: %w", video.ErrAttachUnsupported)
	}
	url := urls.Create(stream)
	if err := sink.SetSrc(url); err != nil {
		urls.Revoke(url)
		return Attachment{}, fmt.Errorf("set src: %w", err)
	}
	return Attachment{Mode: AttachObjectURL, URL: url}, nil
}

// Detach undoes a previous Attach using the same mechanism.
func Detach(sink mediaout.Sink, urls mediaout.ObjectURLs, a Attachment) {
	if sink == nil {
		return
	}
	switch a.Mode {
	case AttachSrcObject:
		_ = sink.SetSrcObject(nil)
	case AttachLegacy:
		_ = sink.SetLegacySrcObject(nil)
	case AttachObjectURL:
		_ = sink.SetSrc("")
		if urls != nil {
			urls.Revoke(a.URL)
		}
	}
}
