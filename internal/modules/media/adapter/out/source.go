package out

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	mediaout "vscan/internal/modules/media/port/out"
	apperrors "vscan/internal/platform/errors"
)

// Source is a parsed --source value: camera:<index>, dir:<path>,
// file:<path> or an ffmpeg input URL.
type Source struct {
	Kind   string
	Target string
}

const (
	SourceCamera = "camera"
	SourceDir    = "dir"
	SourceFile   = "file"
	SourceURL    = "url"
)

func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, fmt.Errorf("%w: empty source", apperrors.ErrInvalidInput)
	}
	if strings.Contains(raw, "://") {
		return Source{Kind: SourceURL, Target: raw}, nil
	}
	kind, target, ok := strings.Cut(raw, ":")
	if !ok || target == "" {
		return Source{}, fmt.Errorf("%w: source %q", apperrors.ErrInvalidInput, raw)
	}
	switch kind {
	case SourceCamera, SourceDir, SourceFile:
		return Source{Kind: kind, Target: target}, nil
	default:
		return Source{}, fmt.Errorf("%w: unknown source kind %q", apperrors.ErrInvalidInput, kind)
	}
}

// NewDeviceProvider returns the provider serving src.
func NewDeviceProvider(src Source, logger hclog.Logger) mediaout.DeviceProvider {
	switch src.Kind {
	case SourceDir:
		return NewStillDevice(src.Target, logger)
	case SourceCamera:
		return NewFFmpegDevice(src.Target, true, logger)
	default:
		return NewFFmpegDevice(src.Target, false, logger)
	}
}

// Environment decides whether a source may be opened. Sources fetched over
// unencrypted network transports are refused unless explicitly allowed.
type Environment struct {
	source        Source
	allowInsecure bool
}

func NewEnvironment(src Source, allowInsecure bool) Environment {
	return Environment{source: src, allowInsecure: allowInsecure}
}

func (e Environment) SecureContext() bool {
	if e.allowInsecure || e.source.Kind != SourceURL {
		return true
	}
	scheme, _, _ := strings.Cut(strings.ToLower(e.source.Target), "://")
	switch scheme {
	case "http", "rtsp", "rtmp", "udp", "tcp":
		return false
	default:
		return true
	}
}
