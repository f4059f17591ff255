package out

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/engine/domain"
	engineout "vscan/internal/modules/engine/port/out"
	"vscan/internal/platform/logging"
)

const reloadDelay = 100 * time.Millisecond

// OptionsFile reads option patches from a yaml file and follows its changes.
type OptionsFile struct {
	path   string
	logger hclog.Logger
	delay  time.Duration
}

func NewOptionsFile(path string, logger hclog.Logger) engineout.OptionsSource {
	return &OptionsFile{path: path, logger: logging.OrDiscard(logger).Named("options"), delay: reloadDelay}
}

// Load reports ok=false when the file does not exist.
func (f *OptionsFile) Load(context.Context) (domain.Patch, bool, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Patch{}, false, nil
	}
	if err != nil {
		return domain.Patch{}, false, fmt.Errorf("read options: %w", err)
	}
	p, err := domain.ParsePatch(raw)
	if err != nil {
		return domain.Patch{}, false, fmt.Errorf("%s: %w", f.path, err)
	}
	return p, true, nil
}

// Watch calls apply with the parsed file after every write, until ctx is
// done. The directory is watched so editors that replace the file are seen.
// Files that fail to parse are logged and skipped.
func (f *OptionsFile) Watch(ctx context.Context, apply func(domain.Patch)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create options directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	reload := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(f.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(f.delay, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			p, ok, err := f.Load(ctx)
			if err != nil {
				f.logger.Warn("options file rejected", "path", f.path, "error", err)
				continue
			}
			if ok {
				apply(p)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("options watcher error", "error", err)
		}
	}
}
