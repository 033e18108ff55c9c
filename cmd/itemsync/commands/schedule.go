package commands

import (
	"log/slog"
	"time"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/chrono"
	"bazaar-items/lib/serviceutil"
	"bazaar-items/lib/telemetry"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the scrape on a cron schedule until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		value := globals.Get(ctx)

		spec := value.Config.Schedule.Spec
		if cmd.Flags().Changed("spec") {
			spec, _ = cmd.Flags().GetString("spec")
		}
		images := value.Config.Schedule.Images
		if cmd.Flags().Changed("images") {
			images, _ = cmd.Flags().GetBool("images")
		}
		now, _ := cmd.Flags().GetBool("now")

		err := chrono.Validate(spec)
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}

		loc, err := value.Config.Schedule.Location()
		if err != nil {
			serviceutil.Fatal("invalid schedule timezone", err)
		}

		client, closeClient, err := newWikiClient(value)
		if err != nil {
			serviceutil.Fatal("failed to create wiki client", err)
		}
		defer closeClient()

		if seconds := value.Config.Schedule.PerfStatsSeconds; seconds > 0 {
			telemetry.InstrumentPerfStats(ctx, time.Duration(seconds)*time.Second)
		}

		// --now and the schedule share one job so their runs never overlap
		job := chrono.Serial(func() {
			err := scrape(ctx, client, value, images, false)
			if err != nil {
				slog.ErrorContext(ctx, "scheduled scrape failed", "err", err)
			}
		})

		cron := chrono.NewStandardCron(loc)
		err = cron.Cron(spec, job)
		if err != nil {
			cron.Stop()
			closeClient()
			serviceutil.Fatal("failed to schedule scrape", err)
		}
		slog.Info("scrape scheduled", "spec", spec, "next", cron.Next())

		if now {
			job()
		}

		<-ctx.Done()
		slog.Info("stopping scheduler, waiting for running jobs")
		<-cron.Stop().Done()
	},
}

func init() {
	scheduleCmd.Flags().String("spec", "", "A 5 field cron expression, overrides the configured schedule.")
	scheduleCmd.Flags().Bool("images", false, "Also download missing images after every scrape.")
	scheduleCmd.Flags().Bool("now", false, "Run one scrape immediately before waiting for the schedule.")
	rootCmd.AddCommand(scheduleCmd)
}
