package commands

import (
	"log/slog"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/imagesync"
	"bazaar-items/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rewritePathsCmd = &cobra.Command{
	Use:   "rewrite-paths",
	Short: "Point every image in an items.json at its local asset file.",
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		jsonPath, _ := cmd.Flags().GetString("json")
		if jsonPath == "" {
			jsonPath = value.Config.ImagesSource()
		}

		count, err := imagesync.RewritePaths(
			cmd.Context(),
			jsonPath,
			value.Config.Images.AssetsDir,
			value.Config.Images.DefaultExt,
		)
		if err != nil {
			serviceutil.Fatal("failed to rewrite image paths", err)
		}
		slog.Info("rewrote image paths", "items", count, "json", jsonPath)
	},
}

func init() {
	rewritePathsCmd.Flags().String("json", "", "The items.json to rewrite, defaults to the last configured json export.")
	rootCmd.AddCommand(rewritePathsCmd)
}
