package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/imagesync"
	"bazaar-items/internal/items"
	"bazaar-items/lib/serviceutil"
	"bazaar-items/lib/termutil"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-input"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Find items without a local image and download the missing ones.",
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		yes, _ := cmd.Flags().GetBool("yes")

		client, closeClient, err := newWikiClient(value)
		if err != nil {
			serviceutil.Fatal("failed to create wiki client", err)
		}
		defer closeClient()

		err = syncImages(cmd.Context(), client, value, yes, true)
		if err != nil {
			closeClient()
			serviceutil.Fatal("failed to sync images", err)
		}
	},
}

func init() {
	imagesCmd.Flags().Bool("yes", false, "Download without asking for confirmation.")
	rootCmd.AddCommand(imagesCmd)
}

func syncImages(ctx context.Context, src imagesync.Source, value *globals.Value, yes, render bool) error {
	source := value.Config.ImagesSource()
	records, err := items.ReadJSONFile(source)
	if err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}

	var out io.Writer = os.Stdout
	if !render {
		out = io.Discard
	}

	opts := value.Config.Images.Options()
	analysis, err := imagesync.Analyze(ctx, records, opts)
	if err != nil {
		return err
	}
	imagesync.RenderAnalysis(out, analysis)
	slog.InfoContext(
		ctx, "analyzed item images",
		"items", analysis.Total,
		"existing", analysis.Existing,
		"missing", len(analysis.Missing),
	)

	if len(analysis.Missing) == 0 {
		slog.InfoContext(ctx, "all item images are present")
		return nil
	}

	if !yes {
		ok, err := termutil.Confirm(
			input.DefaultUI(),
			fmt.Sprintf("Download %d missing images?", len(analysis.Missing)),
		)
		if err != nil {
			return err
		}
		if !ok {
			slog.InfoContext(ctx, "download cancelled")
			return nil
		}
	}

	report, err := imagesync.Download(ctx, src, analysis.Missing, opts)
	imagesync.RenderDownload(out, analysis, report)
	return err
}
