package imagesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"bazaar-items/internal/items"
	"bazaar-items/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("bazaar/imagesync")
var meter = otel.Meter("bazaar/imagesync")

var ErrNoImage = errors.New("item has no name or image")

// Source is implemented by *wiki.Client.
type Source interface {
	FetchImage(ctx context.Context, imagePath string) ([]byte, error)
}

type Options struct {
	// the first directory decides whether an image exists, downloads are
	// written to all of them
	Dirs []string
	// used when the image reference has no extension
	DefaultExt string
	// minimum time between two downloads
	Delay time.Duration
	// per download
	Timeout       time.Duration
	ProgressEvery int
}

func DefaultOptions() Options {
	return Options{
		DefaultExt:    ".png",
		Delay:         100 * time.Millisecond,
		Timeout:       10 * time.Second,
		ProgressEvery: 10,
	}
}

// Target is an image an item should have on disk.
type Target struct {
	Name      string
	ImagePath string
	Filename  string
}

// Extension returns the file extension of an image reference, ignoring any
// query string, or def when it has none.
func Extension(imagePath, def string) string {
	p := imagePath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := path.Ext(p)
	if ext == "" {
		return def
	}
	return ext
}

// TargetFor derives the local image of an item.
func TargetFor(item items.Item, opts Options) (Target, error) {
	if item.Name == "" || item.Image == "" {
		return Target{}, ErrNoImage
	}
	return Target{
		Name:      item.Name,
		ImagePath: item.Image,
		Filename:  textutil.SafeFilename(item.Name) + Extension(item.Image, opts.DefaultExt),
	}, nil
}

type Analysis struct {
	Total    int
	Existing int
	// images found under a legacy name and copied to the current one, these
	// are included in Existing
	Renamed int
	// items without a name or image
	Skipped int
	Missing []Target
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

func copyFile(src, dst string) error {
	contents, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, contents, 0o644)
}

// Analyze works out which images are missing from the primary directory.
// Images stored under a legacy item name are copied to the current name.
func Analyze(ctx context.Context, records []items.Item, opts Options) (Analysis, error) {
	ctx, span := tracer.Start(ctx, "Analyze")
	defer span.End()

	if len(opts.Dirs) == 0 {
		return Analysis{}, fmt.Errorf("no image directories configured")
	}
	for _, dir := range opts.Dirs {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create image dir")
			return Analysis{}, err
		}
	}
	primary := opts.Dirs[0]

	analysis := Analysis{Total: len(records)}
	for _, record := range records {
		target, err := TargetFor(record, opts)
		if err != nil {
			analysis.Skipped++
			continue
		}

		dest := filepath.Join(primary, target.Filename)
		if exists(dest) {
			analysis.Existing++
			continue
		}
		if renamed := restoreLegacy(ctx, primary, target, opts); renamed {
			analysis.Existing++
			analysis.Renamed++
			continue
		}
		analysis.Missing = append(analysis.Missing, target)
	}

	span.SetAttributes(
		attribute.Int("existing", analysis.Existing),
		attribute.Int("missing", len(analysis.Missing)),
	)
	return analysis, nil
}

func restoreLegacy(ctx context.Context, dir string, target Target, opts Options) bool {
	dest := filepath.Join(dir, target.Filename)
	for _, legacy := range textutil.LegacyNames(target.Name) {
		old := filepath.Join(dir, textutil.SafeFilename(legacy)+Extension(target.ImagePath, opts.DefaultExt))
		if !exists(old) {
			continue
		}
		err := copyFile(old, dest)
		if err != nil {
			// the old file is still there, so the item is not missing
			slog.WarnContext(ctx, "failed to copy legacy image", "from", old, "to", dest, "err", err)
			return true
		}
		slog.InfoContext(ctx, "updated image naming", "from", filepath.Base(old), "to", target.Filename)
		return true
	}
	return false
}

type Failure struct {
	Target Target
	Err    error
}

type DownloadReport struct {
	Downloaded int
	Failed     []Failure
}

// Download fetches every target and writes it to all directories. Failures
// are logged and skipped, only a cancelled context stops the run early.
func Download(ctx context.Context, src Source, targets []Target, opts Options) (DownloadReport, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	if len(opts.Dirs) == 0 {
		return DownloadReport{}, fmt.Errorf("no image directories configured")
	}
	for _, dir := range opts.Dirs {
		err := os.MkdirAll(dir, 0o755)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to create image dir")
			return DownloadReport{}, err
		}
	}

	downloaded, _ := meter.Int64Counter("images.downloaded")
	failed, _ := meter.Int64Counter("images.failed")

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	var report DownloadReport
	for i, target := range targets {
		// items sharing a filename are only downloaded once
		if exists(filepath.Join(opts.Dirs[0], target.Filename)) {
			continue
		}
		err := limiter.Wait(ctx)
		if err != nil {
			return report, err
		}

		err = downloadOne(ctx, src, target, opts)
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if err != nil {
			slog.WarnContext(ctx, "failed to download image", "item", target.Name, "err", err)
			report.Failed = append(report.Failed, Failure{Target: target, Err: err})
			if failed != nil {
				failed.Add(ctx, 1)
			}
		} else {
			slog.DebugContext(ctx, "downloaded image", "item", target.Name, "file", target.Filename)
			report.Downloaded++
			if downloaded != nil {
				downloaded.Add(ctx, 1)
			}
		}

		if opts.ProgressEvery > 0 && (i+1)%opts.ProgressEvery == 0 {
			slog.InfoContext(
				ctx, "download progress",
				"done", i+1,
				"total", len(targets),
				"percent", fmt.Sprintf("%.1f", float64(i+1)/float64(len(targets))*100),
			)
		}
	}

	span.SetAttributes(
		attribute.Int("downloaded", report.Downloaded),
		attribute.Int("failed", len(report.Failed)),
	)
	return report, nil
}

func downloadOne(ctx context.Context, src Source, target Target, opts Options) error {
	primary := filepath.Join(opts.Dirs[0], target.Filename)
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	contents, err := src.FetchImage(ctx, target.ImagePath)
	if err != nil {
		return err
	}

	err = os.WriteFile(primary, contents, 0o644)
	if err != nil {
		return err
	}
	for _, dir := range opts.Dirs[1:] {
		err = os.WriteFile(filepath.Join(dir, target.Filename), contents, 0o644)
		if err != nil {
			slog.WarnContext(ctx, "failed to copy image to secondary dir", "dir", dir, "item", target.Name, "err", err)
		}
	}
	return nil
}
