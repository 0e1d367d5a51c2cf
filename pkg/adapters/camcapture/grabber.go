package camcapture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/user/frameio/pkg/ports"
)

// frameEvent is one grabbed frame or a watcher error.
type frameEvent struct {
	img image.Image
	at  time.Time
	err error
}

// grabber runs ffmpeg against a capture device and turns the JPEG files
// it drops into a temp dir into decoded frames.
type grabber struct {
	events  chan frameEvent
	tempDir string
	cancel  context.CancelFunc
	watcher *fsnotify.Watcher
}

func startGrabber(ctx context.Context, devicePath string, opts Options, log ports.Logger) (g *grabber, rerr error) {
	g = &grabber{}

	// Ensure cleanup in case of failure.
	defer func() {
		if rerr != nil {
			g.stop()
		}
	}()

	tempDir, err := os.MkdirTemp("", "camcapture")
	if err != nil {
		return nil, fmt.Errorf("making temp dir: %w", err)
	}
	g.tempDir = tempDir

	framerate := int(time.Second / opts.Interval)
	if framerate < 1 {
		framerate = 1
	}
	args := []string{
		"-framerate", fmt.Sprintf("%d", framerate),
		"-video_size", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-c:v", "mjpeg",
		"-i", devicePath,
		"-f", "image2",
		"-c:v", "copy",
		"-bsf:v", "mjpeg2jpeg",
		"-qscale:v", "2",
		"frame%d.jpg",
	}

	ctx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	cmd := exec.CommandContext(ctx, opts.FFmpegPath, args...)
	cmd.Dir = tempDir
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}
	go cmd.Wait()

	g.events = make(chan frameEvent)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("new file change watcher: %w", err)
	}
	g.watcher = watcher

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					close(g.events)
					return
				}
				if ev.Op != fsnotify.Write || !strings.HasSuffix(ev.Name, ".jpg") {
					continue
				}
				f, err := os.Open(ev.Name)
				if err != nil {
					log.Debug("open grabbed file %s failed: %s", ev.Name, err)
					continue
				}
				img, err := jpeg.Decode(f)
				f.Close()
				if err != nil {
					// Likely still being written; the next write event
					// for this file will pick it up.
					continue
				}
				if err := os.Remove(ev.Name); err != nil {
					log.Debug("removing grabbed file %s failed: %s", ev.Name, err)
				}
				select {
				case g.events <- frameEvent{img: img, at: time.Now()}:
				case <-ctx.Done():
					close(g.events)
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					close(g.events)
					return
				}
				select {
				case g.events <- frameEvent{err: fmt.Errorf("watching for frames: %w", err)}:
				case <-ctx.Done():
					close(g.events)
					return
				}
			}
		}
	}()

	if err := watcher.Add(tempDir); err != nil {
		return nil, fmt.Errorf("watching temp dir: %w", err)
	}

	return g, nil
}

// stop shuts down ffmpeg, the watcher and the temp dir.
func (g *grabber) stop() error {
	if g.cancel != nil {
		g.cancel()
	}
	if g.watcher != nil {
		g.watcher.Close()
	}
	if g.tempDir != "" {
		os.RemoveAll(g.tempDir)
	}
	return nil
}
