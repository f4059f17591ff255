package out

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/media/domain"
	"vscan/internal/platform/logging"
	"vscan/internal/platform/video"
)

const (
	ffmpegDefaultWidth     = 640
	ffmpegDefaultHeight    = 480
	ffmpegDefaultFrameRate = 30
)

var ffmpegCapabilities = domain.Capabilities{
	Width:       domain.NumberRange{Min: 160, Max: 3840},
	Height:      domain.NumberRange{Min: 120, Max: 2160},
	FrameRate:   domain.NumberRange{Min: 1, Max: 60},
	AspectRatio: domain.NumberRange{Min: 0.5, Max: 4},
}

// FFmpegDevice captures a camera or any ffmpeg input as raw RGBA frames.
type FFmpegDevice struct {
	binary string
	input  string
	camera bool
	logger hclog.Logger
}

// NewFFmpegDevice opens input with ffmpeg. A camera input is the device
// index of the platform capture API.
func NewFFmpegDevice(input string, camera bool, logger hclog.Logger) *FFmpegDevice {
	return &FFmpegDevice{binary: "ffmpeg", input: input, camera: camera, logger: logging.OrDiscard(logger).Named("ffmpeg")}
}

func (d *FFmpegDevice) Available() bool {
	_, err := exec.LookPath(d.binary)
	return err == nil
}

func (d *FFmpegDevice) SupportedConstraints() []string {
	return []string{"deviceId", "facingMode", "width", "height", "frameRate", "aspectRatio"}
}

func (d *FFmpegDevice) GetUserMedia(ctx context.Context, c domain.StreamConstraints) (domain.Stream, error) {
	if c.Video == nil {
		return nil, fmt.Errorf("%w: ffmpeg device has video only", domain.ErrNotFound)
	}
	if err := checkRequired(*c.Video, ffmpegCapabilities); err != nil {
		return nil, err
	}
	input := d.input
	if d.camera && c.Video.DeviceID != "" {
		input = c.Video.DeviceID
	}
	frames := &frameSlot{}
	track := &ffmpegTrack{device: d, input: input, frames: frames}
	if err := track.configure(ctx, *c.Video); err != nil {
		return nil, err
	}
	return newDeviceStream(track, frames), nil
}

// inputArgs selects the capture API for cameras and reads anything else as a
// looping input at its native rate.
func (d *FFmpegDevice) inputArgs(input string, fps float64) []string {
	if !d.camera {
		args := []string{"-re"}
		if !strings.Contains(input, "://") {
			args = append(args, "-stream_loop", "-1")
		}
		return append(args, "-i", input)
	}
	rate := strconv.Itoa(int(fps))
	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", rate, "-i", input}
	case "windows":
		return []string{"-f", "dshow", "-framerate", rate, "-i", "video=" + input}
	default:
		if _, err := strconv.Atoi(input); err == nil {
			input = "/dev/video" + input
		}
		return []string{"-f", "v4l2", "-framerate", rate, "-i", input}
	}
}

func (d *FFmpegDevice) args(input string, w, h int, fps float64) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	args = append(args, d.inputArgs(input, fps)...)
	return append(args,
		"-an",
		"-vf", fmt.Sprintf("fps=%g,scale=%d:%d", fps, w, h),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"-",
	)
}

// ffmpegTrack keeps a stable identity while the capture process behind it is
// restarted for new constraints.
type ffmpegTrack struct {
	device *FFmpegDevice
	input  string
	frames *frameSlot

	mu       sync.Mutex
	settings domain.TrackConstraints
	cancel   context.CancelFunc
	done     chan struct{}
	ended    bool
}

func (t *ffmpegTrack) ID() string             { return "ffmpeg:" + t.input }
func (t *ffmpegTrack) Kind() domain.TrackKind { return domain.TrackKindVideo }
func (t *ffmpegTrack) Label() string          { return t.input }

func (t *ffmpegTrack) Capabilities(ctx context.Context) (domain.Capabilities, error) {
	if err := ctx.Err(); err != nil {
		return domain.Capabilities{}, err
	}
	caps := ffmpegCapabilities
	caps.DeviceID = t.input
	return caps, nil
}

func (t *ffmpegTrack) ApplyConstraints(ctx context.Context, c domain.TrackConstraints) error {
	if err := checkRequired(c, ffmpegCapabilities); err != nil {
		return err
	}
	if t.Ended() {
		return fmt.Errorf("track %s has ended", t.ID())
	}
	return t.configure(ctx, c)
}

func (t *ffmpegTrack) Settings() domain.TrackConstraints {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.settings
}

func (t *ffmpegTrack) Ended() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

func (t *ffmpegTrack) Stop() {
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

// configure (re)starts the capture process with settings resolved from c.
func (t *ffmpegTrack) configure(ctx context.Context, c domain.TrackConstraints) error {
	w, h := frameSize(c, ffmpegCapabilities, ffmpegDefaultWidth, ffmpegDefaultHeight)
	fps := frameRate(c, ffmpegCapabilities, ffmpegDefaultFrameRate)
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.halt()

	procCtx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(procCtx, t.device.binary, t.device.args(t.input, w, h, fps)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		cancel()
		if errors.Is(err, exec.ErrNotFound) {
			return domain.ErrNotSupported
		}
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	t.cancel = cancel
	t.done = make(chan struct{})
	t.settings = domain.TrackConstraints{
		DeviceID:  t.input,
		Width:     domain.ConstrainNumber{Exact: float64(w)},
		Height:    domain.ConstrainNumber{Exact: float64(h)},
		FrameRate: domain.ConstrainNumber{Exact: fps},
	}
	t.device.logger.Debug("capture started", "input", t.input, "width", w, "height", h, "fps", fps)
	go t.read(cmd, stdout, &stderr, w, h, t.done)
	return nil
}

// halt kills the running process and waits for its reader. t.mu must be held.
func (t *ffmpegTrack) halt() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel = nil
}

func (t *ffmpegTrack) read(cmd *exec.Cmd, stdout io.Reader, stderr *strings.Builder, w, h int, done chan struct{}) {
	defer close(done)
	reader := bufio.NewReaderSize(stdout, w*h*4)
	for {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		if _, err := io.ReadFull(reader, img.Pix); err != nil {
			break
		}
		t.frames.publish(video.Frame{Image: img, Timestamp: time.Now()})
	}
	if err := cmd.Wait(); err != nil {
		t.device.logger.Debug("capture exited", "input", t.input, "error", err, "stderr", strings.TrimSpace(stderr.String()))
	}
}
