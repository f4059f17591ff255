package out

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/media/domain"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/video"
)

const stillDefaultFrameRate = 10

var stillCapabilities = domain.Capabilities{
	Width:     domain.NumberRange{Min: 16, Max: 4096},
	Height:    domain.NumberRange{Min: 16, Max: 4096},
	FrameRate: domain.NumberRange{Min: 1, Max: 60},
}

// StillDevice is a virtual camera that cycles through the PNG and JPEG files
// of a directory.
type StillDevice struct {
	dir    string
	logger hclog.Logger
}

func NewStillDevice(dir string, logger hclog.Logger) *StillDevice {
	return &StillDevice{dir: dir, logger: logging.OrDiscard(logger).Named("still")}
}

func (d *StillDevice) Available() bool {
	info, err := os.Stat(d.dir)
	return err == nil && info.IsDir()
}

func (d *StillDevice) SupportedConstraints() []string {
	return []string{"deviceId", "width", "height", "frameRate"}
}

func (d *StillDevice) GetUserMedia(ctx context.Context, c domain.StreamConstraints) (domain.Stream, error) {
	if c.Video == nil {
		return nil, fmt.Errorf("%w: still device has video only", domain.ErrNotFound)
	}
	images, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	if c.Video.DeviceID != "" && c.Video.DeviceID != d.dir {
		return nil, fmt.Errorf("%w: device %q", domain.ErrNotFound, c.Video.DeviceID)
	}
	if err := checkRequired(*c.Video, stillCapabilities); err != nil {
		return nil, err
	}
	frames := &frameSlot{}
	track := &stillTrack{
		id:     "still-" + filepath.Base(d.dir),
		dir:    d.dir,
		images: images,
		frames: frames,
		logger: d.logger,
	}
	track.configure(*c.Video)
	d.logger.Debug("still device opened", "dir", d.dir, "images", len(images))
	return newDeviceStream(track, frames), nil
}

func (d *StillDevice) load(ctx context.Context) ([]image.Image, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("read still directory: %w", err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := decodeImageFile(filepath.Join(d.dir, name))
		if err != nil {
			d.logger.Warn("skipping unreadable image", "file", name, "error", err)
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images in %s", domain.ErrNotFound, d.dir)
	}
	return images, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

type stillTrack struct {
	id     string
	dir    string
	images []image.Image
	frames *frameSlot
	logger hclog.Logger

	mu       sync.Mutex
	settings domain.TrackConstraints
	cancel   context.CancelFunc
	done     chan struct{}
	ended    bool
}

func (t *stillTrack) ID() string             { return t.id }
func (t *stillTrack) Kind() domain.TrackKind { return domain.TrackKindVideo }
func (t *stillTrack) Label() string          { return "still images " + t.dir }

func (t *stillTrack) Capabilities(ctx context.Context) (domain.Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return domain.Capabilities{}, err
	}
	caps := stillCapabilities
	caps.DeviceID = t.dir
	return caps, nil
}

func (t *stillTrack) ApplyConstraints(_ context.Context, c domain.TrackConstraints) error {
	if err := checkRequired(c, stillCapabilities); err != nil {
		return err
	}
	t.mu.Lock()
	ended := t.ended
	t.mu.Unlock()
	if ended {
		return fmt.Errorf("track %s has ended", t.id)
	}
	t.configure(c)
	return nil
}

func (t *stillTrack) Settings() domain.TrackConstraints {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

func (t *stillTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

func (t *stillTrack) Stop() {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return
	}
	t.ended = true
	t.halt()
	t.mu.Unlock()
	t.frames.clear()
}

// configure restarts the frame loop with settings resolved from c. The first
// frame is published before it returns.
func (t *stillTrack) configure(c domain.TrackConstraints) {
	natural := t.images[0].Bounds()
	w, h := frameSize(c, stillCapabilities, natural.Dx(), natural.Dy())
	fps := frameRate(c, stillCapabilities, stillDefaultFrameRate)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()
	t.settings = domain.TrackConstraints{
		DeviceID:  t.dir,
		Width:     domain.ConstrainNumber{Exact: float64(w)},
		Height:    domain.ConstrainNumber{Exact: float64(h)},
		FrameRate: domain.ConstrainNumber{Exact: fps},
	}
	t.frames.publish(video.Frame{Image: scaleToRGBA(t.images[0], w, h), Timestamp: time.Now()})

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx, t.done, w, h, time.Duration(float64(time.Second)/fps))
}

// halt stops the running loop. t.mu must be held.
func (t *stillTrack) halt() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
}

func (t *stillTrack) loop(ctx context.Context, done chan struct{}, w, h int, interval time.Duration) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	next := 1
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			img := t.images[next%len(t.images)]
			next++
			t.frames.publish(video.Frame{Image: scaleToRGBA(img, w, h), Timestamp: now})
		}
	}
}
