package dto

import (
	"time"

	mediadto "vscan/internal/modules/media/dto"
	scandomain "vscan/internal/modules/scan/domain"
)

type StartInput struct {
	// Decoder names a decoder plugin; empty selects the builtin one.
	Decoder string
	// Formats the decoder must support.
	Formats []string
}

type StartOutput struct {
	Stream    mediadto.StreamOutput
	SessionID string
	Decoder   string
}

type Item struct {
	Format    string
	Text      string
	Signature string
	SeenAt    time.Duration
	New       bool
	Debounced bool
}

func ItemsOf(detections []scandomain.Detection) []Item {
	if len(detections) == 0 {
		return nil
	}
	out := make([]Item, 0, len(detections))
	for _, d := range detections {
		out = append(out, Item{
			Format:    d.Result.Format.String(),
			Text:      d.Result.Text,
			Signature: d.Signature.String(),
			SeenAt:    d.SeenAt,
			New:       d.New,
			Debounced: d.Debounced,
		})
	}
	return out
}

type EventKind string

const (
	EventDetect      EventKind = "detect"
	EventUpdate      EventKind = "update"
	EventScanStart   EventKind = "scan-start"
	EventScanStop    EventKind = "scan-stop"
	EventScanClose   EventKind = "scan-close"
	EventScanError   EventKind = "scan-error"
	EventStreamStart EventKind = "stream-start"
	EventStreamStop  EventKind = "stream-stop"
	EventStreamError EventKind = "stream-error"
)

// Event is one engine callback as seen by subscribers.
type Event struct {
	Kind     EventKind
	Items    []Item
	StreamID string
	Err      string
}

type Status struct {
	Media     mediadto.StatusOutput
	Scanning  bool
	ScanState string
	SessionID string
	Decoder   string
	Results   []Item
	Err       string
}
