package out

import (
	"context"

	"vscan/internal/modules/decoder/domain"
	scandomain "vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Conn is an open decoder. It is safe for one caller at a time.
type Conn interface {
	Metadata() domain.Metadata
	Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error)
	Close() error
}

type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	Open(ctx context.Context, manifest domain.Manifest) (Conn, error)
}
