package out_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	mediaout "vscan/internal/modules/media/adapter/out"
	"vscan/internal/modules/media/domain"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestStillDeviceServesScaledFrames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 40, 20, color.White)
	writePNG(t, filepath.Join(dir, "b.png"), 40, 20, color.Black)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}

	device := mediaout.NewStillDevice(dir, nil)
	if !device.Available() {
		t.Fatalf("expected device available")
	}
	stream, err := device.GetUserMedia(context.Background(), domain.StreamConstraints{
		Video: &domain.TrackConstraints{Width: domain.ConstrainNumber{Ideal: 80}},
	})
	if err != nil {
		t.Fatalf("get user media: %v", err)
	}
	frame, ok := stream.VideoFrames().LatestFrame()
	if !ok {
		t.Fatalf("expected a frame right after open")
	}
	if b := frame.Image.Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Fatalf("expected 80x40 keeping aspect ratio, got %dx%d", b.Dx(), b.Dy())
	}

	track := stream.Tracks()[0]
	if err := track.ApplyConstraints(context.Background(), domain.TrackConstraints{
		Width:  domain.ConstrainNumber{Exact: 20},
		Height: domain.ConstrainNumber{Exact: 20},
	}); err != nil {
		t.Fatalf("apply constraints: %v", err)
	}
	frame, _ = stream.VideoFrames().LatestFrame()
	if b := frame.Image.Bounds(); b.Dx() != 20 || b.Dy() != 20 {
		t.Fatalf("expected 20x20 after constraints, got %dx%d", b.Dx(), b.Dy())
	}
	if track.Settings().Width.Exact != 20 {
		t.Fatalf("settings not updated: %+v", track.Settings())
	}

	track.Stop()
	if !track.Ended() || stream.VideoFrames() != nil {
		t.Fatalf("expected ended track without frames")
	}
}

func TestStillDeviceRejectsUnsatisfiableConstraints(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), 8, 8, color.White)
	device := mediaout.NewStillDevice(dir, nil)
	_, err := device.GetUserMedia(context.Background(), domain.StreamConstraints{
		Video: &domain.TrackConstraints{Width: domain.ConstrainNumber{Exact: 10000}},
	})
	if !errors.Is(err, domain.ErrOverconstrained) {
		t.Fatalf("expected overconstrained, got %v", err)
	}
}

func TestStillDeviceWithoutImagesIsNotFound(t *testing.T) {
	t.Parallel()
	device := mediaout.NewStillDevice(t.TempDir(), nil)
	_, err := device.GetUserMedia(context.Background(), domain.DefaultStreamConstraints())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
