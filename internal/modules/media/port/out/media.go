package out

import (
	"context"

	"vscan/internal/modules/media/domain"
	"vscan/internal/platform/video"
)

// Environment answers whether device access is allowed at all.
type Environment interface {
	SecureContext() bool
}

// DeviceProvider acquires device streams.
type DeviceProvider interface {
	// Available is false when the acquisition mechanism is missing.
	Available() bool
	SupportedConstraints() []string
	GetUserMedia(ctx context.Context, constraints domain.StreamConstraints) (domain.Stream, error)
}

// Sink is the element a stream gets attached to.
type Sink interface {
	SetSrcObject(stream video.Stream) error
	SetLegacySrcObject(stream video.Stream) error
	SetSrc(url string) error
}

// ObjectURLs creates URLs for streams when a sink only takes URLs.
type ObjectURLs interface {
	Create(stream video.Stream) string
	Revoke(url string)
}
