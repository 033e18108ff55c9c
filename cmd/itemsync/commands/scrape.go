package commands

import (
	"context"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/pipeline"
	"bazaar-items/lib/serviceutil"
	"bazaar-items/lib/wiki"

	"github.com/spf13/cobra"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch, merge, clean and export the wiki item table.",
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		keep, _ := cmd.Flags().GetBool("keep")
		images, _ := cmd.Flags().GetBool("images")
		if keep {
			value.Config.KeepIntermediate = true
		}

		client, closeClient, err := newWikiClient(value)
		if err != nil {
			serviceutil.Fatal("failed to create wiki client", err)
		}
		defer closeClient()

		err = scrape(cmd.Context(), client, value, images, true)
		if err != nil {
			closeClient()
			serviceutil.Fatal("failed to scrape items", err)
		}
	},
}

func init() {
	scrapeCmd.Flags().Bool("keep", false, "Keep the csv parts and the cleaned combined csv in the work dir.")
	scrapeCmd.Flags().Bool("images", false, "Download missing item images after exporting.")
	rootCmd.AddCommand(scrapeCmd)
}

func pipelineOptions(value *globals.Value) pipeline.Options {
	cfg := value.Config
	return pipeline.Options{
		WorkDir:          cfg.WorkDir,
		Query:            cfg.Wiki.Query,
		Pages:            cfg.Wiki.Pages,
		Clean:            cfg.Clean,
		JSON:             cfg.Export.JSON,
		SQLite:           cfg.Export.SQLite,
		KeepIntermediate: cfg.KeepIntermediate,
	}
}

// scrape runs the pipeline and, when images is set, syncs images for the
// freshly exported items without asking.
func scrape(ctx context.Context, client *wiki.Client, value *globals.Value, images, render bool) error {
	_, err := pipeline.Run(ctx, client, pipelineOptions(value))
	if err != nil {
		return err
	}
	if !images {
		return nil
	}
	return syncImages(ctx, client, value, true, render)
}
