package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var perfMeter = otel.Meter("bazaar.perf_stats")

// InstrumentPerfStats records process cpu, memory and goroutine gauges every
// interval until ctx is done. Only long-lived processes (the scheduler) call
// this.
func InstrumentPerfStats(ctx context.Context, interval time.Duration) {
	cpuGauge, _ := perfMeter.Float64Gauge("cpu_usage")
	memoryGauge, _ := perfMeter.Int64Gauge("allocated_mb")
	goroutineGauge, _ := perfMeter.Int64Gauge("goroutine_count")

	go func() {
		var memStats runtime.MemStats
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runtime.ReadMemStats(&memStats)

				usage, err := cpu.PercentWithContext(ctx, 0, false)
				if err == nil && len(usage) > 0 {
					cpuGauge.Record(ctx, usage[0])
				} else if err != nil {
					slog.DebugContext(ctx, "failed to read cpu usage", "err", err)
				}

				memoryGauge.Record(ctx, int64(memStats.Alloc/1_000_000))
				goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))
			case <-ctx.Done():
				return
			}
		}
	}()
}
