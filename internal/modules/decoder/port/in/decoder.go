package in

import (
	"context"

	"vscan/internal/modules/decoder/dto"
	scandomain "vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

// Backend is an opened decoder handed to scan sessions.
type Backend interface {
	Name() string
	Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error)
	Close() error
}

type Usecase interface {
	List(ctx context.Context) ([]dto.DecoderInfo, error)
	Doctor(ctx context.Context) ([]dto.DoctorResult, error)
	Open(ctx context.Context, input dto.OpenInput) (Backend, error)
}
