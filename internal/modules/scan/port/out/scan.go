package out

import (
	"context"
	"time"

	"vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

// Decoder is the decode backend. It returns an empty slice when nothing is
// found; an error means the backend broke its contract.
type Decoder interface {
	Decode(ctx context.Context, frame video.ImageData, opts domain.ReaderOptions) ([]domain.ReadResult, error)
}

// FrameSource snapshots the current frame of the scanned element. A source
// that is not ready returns empty image data and no error.
type FrameSource interface {
	CaptureFrame() (video.ImageData, error)
}

// FrameScheduler drives the loop. Each tick carries its timestamp relative to
// the start of the schedule. The channel closes when ctx is done.
type FrameScheduler interface {
	Schedule(ctx context.Context) <-chan time.Duration
}

// HistoryStore persists new detections.
type HistoryStore interface {
	Append(ctx context.Context, entries []domain.HistoryEntry) error
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// Observer receives loop measurements.
type Observer interface {
	Tick()
	Skip(reason string)
	Decoded(elapsed time.Duration, results int)
	Detected(count int)
	CaptureFailed()
}
