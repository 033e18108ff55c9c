package commands

import (
	"log/slog"

	"bazaar-items/cmd/itemsync/globals"
	"bazaar-items/internal/exporter"
	"bazaar-items/lib/serviceutil"

	"github.com/spf13/cobra"
)

var exportDbCmd = &cobra.Command{
	Use:   "export-db",
	Short: "Write an existing items.json to the configured sqlite destinations.",
	Run: func(cmd *cobra.Command, args []string) {
		value := globals.Get(cmd.Context())
		jsonPath, _ := cmd.Flags().GetString("json")
		if jsonPath == "" {
			jsonPath = value.Config.ImagesSource()
		}

		count, err := exporter.JSONToSQLite(cmd.Context(), jsonPath, value.Config.Export.SQLite)
		if err != nil {
			serviceutil.Fatal("failed to export items to sqlite", err)
		}
		slog.Info("exported items to sqlite", "items", count, "json", jsonPath)
	},
}

func init() {
	exportDbCmd.Flags().String("json", "", "The items.json to read, defaults to the last configured json export.")
	rootCmd.AddCommand(exportDbCmd)
}
