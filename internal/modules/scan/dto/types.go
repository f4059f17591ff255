package dto

import (
	"time"

	"vscan/internal/modules/scan/domain"
	scanout "vscan/internal/modules/scan/port/out"
	"vscan/internal/platform/reactive"
	"vscan/internal/platform/video"
)

type SessionInput struct {
	Options reactive.Source[domain.Options]
	// Element is sampled on every accepted tick.
	Element *video.Element
	Decoder scanout.Decoder
}

type HistoryItem struct {
	SessionID string
	Signature string
	Format    string
	Text      string
	SeenAt    time.Time
}
