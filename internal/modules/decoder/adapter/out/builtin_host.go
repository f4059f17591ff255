package out

import (
	"context"

	"vscan/internal/modules/decoder/adapter/out/zxing"
	"vscan/internal/modules/decoder/domain"
	decoderout "vscan/internal/modules/decoder/port/out"
	scandomain "vscan/internal/modules/scan/domain"
	"vscan/internal/platform/video"
)

// BuiltinConn decodes in-process with gozxing.
type BuiltinConn struct{}

func NewBuiltinConn() decoderout.Conn {
	return BuiltinConn{}
}

func (BuiltinConn) Metadata() domain.Metadata {
	return domain.Metadata{Name: domain.BuiltinName, Version: zxing.Version, Formats: zxing.Formats()}
}

func (BuiltinConn) Decode(ctx context.Context, frame video.ImageData, opts scandomain.ReaderOptions) ([]scandomain.ReadResult, error) {
	return zxing.Decode(ctx, frame, opts)
}

func (BuiltinConn) Close() error { return nil }
