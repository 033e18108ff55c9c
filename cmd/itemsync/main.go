package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"bazaar-items/cmd/itemsync/commands"
	"bazaar-items/lib/serviceutil"
	"bazaar-items/lib/telemetry"
)

func main() {
	ctx, cancel := serviceutil.SignalContext(context.Background())
	defer cancel()

	tel, err := telemetry.SetupFromEnv(ctx, "itemsync")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to set up telemetry", "err", err)
	}
	defer tel.Shutdown(context.Background())

	commands.ExecuteContext(ctx)
}
