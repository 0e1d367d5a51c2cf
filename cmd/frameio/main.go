// Package main provides the CLI entry point for frameio.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/frameio/pkg/adapters/ggstamp"
	"github.com/user/frameio/pkg/adapters/imagingops"
	"github.com/user/frameio/pkg/adapters/logger"
	"github.com/user/frameio/pkg/config"
	"github.com/user/frameio/pkg/frameio"
	"github.com/user/frameio/pkg/pipeline"
	"github.com/user/frameio/pkg/ports"
	"github.com/user/frameio/pkg/registry"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Formats FormatsCmd `cmd:"" help:"List registered formats."`
	Info    InfoCmd    `cmd:"" help:"Show frame count and metadata of a source."`
	Convert ConvertCmd `cmd:"" help:"Convert a source to another format, optionally transforming frames."`
	Extract ExtractCmd `cmd:"" help:"Extract frames of a source as numbered still images."`
	Capture CaptureCmd `cmd:"" help:"Capture frames from a camera device."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// commonFlags are shared by the commands that open sources.
type commonFlags struct {
	Config   string `short:"C" help:"Path to a YAML config file."`
	LogLevel string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`
}

// loadConfig merges the optional config file over the defaults.
func (c *commonFlags) loadConfig() (config.Config, error) {
	if c.Config != "" {
		return config.LoadFromFile(c.Config)
	}
	return config.Load(), nil
}

// newLogger builds the console logger from the logging flags.
func (c *commonFlags) newLogger() ports.Logger {
	if c.Quiet {
		return logger.NewNoop()
	}
	return logger.NewConsole(ports.ParseLogLevel(c.LogLevel))
}

// newIO builds a frameio instance from config and flags.
func (c *commonFlags) newIO(cfg config.Config, log ports.Logger, quality int, fps float64) (*frameio.IO, error) {
	if quality <= 0 {
		quality = cfg.JPEGQuality
	}
	if fps <= 0 {
		fps = cfg.FPS
	}
	return frameio.New(frameio.Options{
		Logger:          log,
		CacheDir:        cfg.CacheDir,
		FFmpegPath:      cfg.FFmpegPath,
		JPEGQuality:     quality,
		FPS:             fps,
		CaptureWidth:    cfg.CaptureWidth,
		CaptureHeight:   cfg.CaptureHeight,
		CaptureInterval: time.Duration(cfg.CaptureIntervalMs) * time.Millisecond,
	})
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn(l10n.T("Interrupted, shutting down..."))
		cancel()
	}()
	return ctx, cancel
}

// FormatsCmd lists the registered formats.
type FormatsCmd struct {
	commonFlags
}

// InfoCmd shows frame count and metadata of a source.
type InfoCmd struct {
	commonFlags
	Source string `arg:"" help:"Source: path, URL, directory or <videoN>."`
	Hint   string `short:"f" help:"Force a format by name (e.g. dicom)."`
}

// ConvertCmd converts a source to another format.
type ConvertCmd struct {
	commonFlags
	Source string `arg:"" help:"Source: path, URL or directory."`
	Output string `arg:"" help:"Destination file path."`

	Hint       string `short:"f" help:"Force the source format by name."`
	OutputHint string `help:"Force the destination format by name."`

	// Transforms, applied in a fixed order: resize, grayscale, flips,
	// rotation, stamp.
	Resize    string `help:"Resize frames to WxH (0 preserves aspect, e.g. 640x0)."`
	Grayscale bool   `help:"Convert frames to grayscale."`
	FlipH     bool   `help:"Mirror frames horizontally."`
	FlipV     bool   `help:"Mirror frames vertically."`
	Rotate    bool   `help:"Rotate frames 90 degrees counter-clockwise."`
	Stamp     bool   `help:"Burn frame index into each frame."`

	Quality int     `short:"q" help:"JPEG quality for JPEG and MP4 destinations (1-100)."`
	FPS     float64 `help:"Frame rate for video destinations."`
}

// ExtractCmd extracts frames as numbered still images.
type ExtractCmd struct {
	commonFlags
	Source string `arg:"" help:"Source: path, URL or directory."`
	Dir    string `arg:"" help:"Destination directory for the extracted frames."`

	Hint   string `short:"f" help:"Force the source format by name."`
	Format string `default:"png" enum:"png,jpg,bmp,tif" help:"Still image format for the extracted frames."`
}

// CaptureCmd captures frames from a camera device.
type CaptureCmd struct {
	commonFlags
	Output string `arg:"" help:"Destination file path (gif or mp4)."`

	Device int     `short:"d" default:"0" help:"Camera device index (<videoN>)."`
	Frames int     `short:"n" default:"30" help:"Number of frames to capture."`
	FPS    float64 `help:"Frame rate stamped on the destination video."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("frameio"),
		kong.Description("Read, convert and capture images and video through one plugin registry."),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the formats command.
func (cmd *FormatsCmd) Run() error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	f, err := cmd.newIO(cfg, logger.NewNoop(), 0, 0)
	if err != nil {
		return err
	}

	for _, desc := range f.Formats() {
		var exts string
		if len(desc.Extensions) > 0 {
			exts = "." + strings.Join(desc.Extensions, " .")
		} else {
			exts = strings.Join(desc.Schemes, " ")
		}
		fmt.Printf("%-8s %-6s %-16s %s\n", desc.Name, capsString(desc.Caps), exts, desc.Description)
	}
	return nil
}

// capsString renders a capability set as a compact flag string.
func capsString(caps registry.Caps) string {
	var b strings.Builder
	for _, c := range []struct {
		cap  registry.Caps
		char byte
	}{
		{registry.CapRead, 'r'},
		{registry.CapWrite, 'w'},
		{registry.CapSeek, 's'},
		{registry.CapDevice, 'd'},
		{registry.CapSeries, 'v'},
	} {
		if caps.Has(c.cap) {
			b.WriteByte(c.char)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Run executes the info command.
func (cmd *InfoCmd) Run() error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	log := cmd.newLogger()
	f, err := cmd.newIO(cfg, log, 0, 0)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	r, err := f.NewReader(ctx, cmd.Source, cmd.Hint)
	if err != nil {
		return err
	}
	defer r.Close()

	if n := r.Len(); n < 0 {
		fmt.Println(l10n.T("Frames: unbounded stream"))
	} else {
		fmt.Println(l10n.F("Frames: %d", n))
	}

	meta := r.ResourceMeta()
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %v\n", k, meta[k])
	}
	return nil
}

// Run executes the convert command.
func (cmd *ConvertCmd) Run() error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	log := cmd.newLogger()
	f, err := cmd.newIO(cfg, log, cmd.Quality, cmd.FPS)
	if err != nil {
		return err
	}

	ops, err := cmd.buildOps()
	if err != nil {
		return err
	}
	var stamper *ggstamp.Stamper
	if cmd.Stamp {
		stamper = ggstamp.New(ggstamp.DefaultStyle())
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	log.Info(l10n.F("Converting %s to %s...", cmd.Source, cmd.Output))
	n, err := pipeline.Convert(ctx, f, pipeline.ConvertInput{
		Source:     cmd.Source,
		SourceHint: cmd.Hint,
		Dest:       cmd.Output,
		DestHint:   cmd.OutputHint,
		Ops:        ops,
		Stamper:    stamper,
	}, log)
	if err != nil {
		return err
	}

	log.Info(l10n.F("Wrote %d frames to %s", n, cmd.Output))
	return nil
}

// buildOps assembles the transform chain from the flags.
func (cmd *ConvertCmd) buildOps() ([]imagingops.Op, error) {
	var ops []imagingops.Op
	if cmd.Resize != "" {
		w, h, err := parseSize(cmd.Resize)
		if err != nil {
			return nil, err
		}
		ops = append(ops, imagingops.Resize(w, h))
	}
	if cmd.Grayscale {
		ops = append(ops, imagingops.Grayscale())
	}
	if cmd.FlipH {
		ops = append(ops, imagingops.FlipH())
	}
	if cmd.FlipV {
		ops = append(ops, imagingops.FlipV())
	}
	if cmd.Rotate {
		ops = append(ops, imagingops.Rotate90())
	}
	return ops, nil
}

// parseSize parses a WxH dimension string.
func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WxH", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in %q", s)
	}
	if w < 0 || h < 0 || (w == 0 && h == 0) {
		return 0, 0, fmt.Errorf("invalid size %q", s)
	}
	return w, h, nil
}

// Run executes the extract command.
func (cmd *ExtractCmd) Run() error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	log := cmd.newLogger()
	f, err := cmd.newIO(cfg, log, 0, 0)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	r, err := f.NewReader(ctx, cmd.Source, cmd.Hint)
	if err != nil {
		return err
	}
	defer r.Close()

	if r.Len() < 0 {
		return fmt.Errorf("source %s is an unbounded stream; use the capture command", cmd.Source)
	}
	if err := os.MkdirAll(cmd.Dir, 0755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	count := 0
	for {
		frame, err := r.Next()
		if errors.Is(err, frameio.ErrEndOfSequence) {
			break
		}
		if err != nil {
			return fmt.Errorf("decode frame %d: %w", count, err)
		}
		dest := filepath.Join(cmd.Dir, fmt.Sprintf("frame-%04d.%s", count, cmd.Format))
		if err := f.WriteImage(ctx, dest, frame); err != nil {
			return fmt.Errorf("write frame %d: %w", count, err)
		}
		count++
	}

	log.Info(l10n.F("Extracted %d frames to %s", count, cmd.Dir))
	return nil
}

// Run executes the capture command.
func (cmd *CaptureCmd) Run() error {
	cfg, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	log := cmd.newLogger()
	f, err := cmd.newIO(cfg, log, 0, cmd.FPS)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	source := fmt.Sprintf("<video%d>", cmd.Device)
	log.Info(l10n.F("Capturing %d frames from %s...", cmd.Frames, source))

	r, err := f.NewReader(ctx, source, "")
	if err != nil {
		return err
	}
	defer r.Close()

	var frames []ports.Frame
	for len(frames) < cmd.Frames {
		frame, err := r.Next()
		if err != nil {
			// An interrupt stops the grabber; keep what arrived so far.
			if ctx.Err() != nil && len(frames) > 0 {
				break
			}
			return err
		}
		frames = append(frames, frame)
	}

	if err := f.WriteSequence(context.Background(), cmd.Output, frames); err != nil {
		return err
	}
	log.Info(l10n.F("Wrote %d frames to %s", len(frames), cmd.Output))
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("frameio (Go) version %s", version))
	return nil
}
