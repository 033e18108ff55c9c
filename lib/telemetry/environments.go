package telemetry

import (
	"context"
	"log/slog"
	"os"
	"time"

	"bazaar-items/lib/configutil"

	"github.com/lmittmann/tint"
)

// InitSlog installs a tint handler writing to stderr as the default slog
// logger.
func InitSlog(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// SetupFromEnv searches up the filesystem from the cwd for a file called
// telemetry.json5 and uses it to set up exporters. os.ErrNotExist is
// returned when there is no such file, in which case the otel no-op globals
// stay in place.
func SetupFromEnv(ctx context.Context, serviceName string) (Telemetry, error) {
	config, err := configutil.ReadRecursively[Config]("telemetry.json5")
	if err != nil {
		return Telemetry{}, err
	}
	return Setup(ctx, serviceName, config)
}
