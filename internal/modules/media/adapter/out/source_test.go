package out_test

import (
	"errors"
	"testing"

	mediaout "vscan/internal/modules/media/adapter/out"
	apperrors "vscan/internal/platform/errors"
)

func TestParseSource(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw  string
		kind string
	}{
		{raw: "camera:0", kind: mediaout.SourceCamera},
		{raw: "dir:/tmp/frames", kind: mediaout.SourceDir},
		{raw: "file:clip.mp4", kind: mediaout.SourceFile},
		{raw: "rtsp://cam.local/stream", kind: mediaout.SourceURL},
	}
	for _, tc := range cases {
		src, err := mediaout.ParseSource(tc.raw)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.raw, err)
		}
		if src.Kind != tc.kind {
			t.Fatalf("parse %q: kind %q, want %q", tc.raw, src.Kind, tc.kind)
		}
	}
	for _, raw := range []string{"", "camera", "floppy:a"} {
		if _, err := mediaout.ParseSource(raw); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("parse %q: expected invalid input, got %v", raw, err)
		}
	}
}

func TestEnvironmentRefusesPlainNetworkSources(t *testing.T) {
	t.Parallel()
	plain, _ := mediaout.ParseSource("http://cam.local/mjpeg")
	if mediaout.NewEnvironment(plain, false).SecureContext() {
		t.Fatalf("expected plain http to be insecure")
	}
	if !mediaout.NewEnvironment(plain, true).SecureContext() {
		t.Fatalf("expected override to allow plain http")
	}
	tls, _ := mediaout.ParseSource("https://cam.local/mjpeg")
	if !mediaout.NewEnvironment(tls, false).SecureContext() {
		t.Fatalf("expected https to be secure")
	}
	local, _ := mediaout.ParseSource("camera:0")
	if !mediaout.NewEnvironment(local, false).SecureContext() {
		t.Fatalf("expected local camera to be secure")
	}
}
